package eligibility

import "github.com/Silk760/course-withdrawal/internal/transcript"

// Status classifies a single rule outcome.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
)

// RuleCheck reports one policy rule's outcome with its evidence.
type RuleCheck struct {
	Rule   string `json:"rule"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Request carries the withdrawal application parameters. The optional
// override fields replace the parsed transcript values wholesale before
// evaluation, never partially.
type Request struct {
	CourseCode string `json:"course_code" validate:"required"`
	CourseName string `json:"course_name"`
	Semester   string `json:"semester"`
	Year       string `json:"year"`
	ReasonType string `json:"reason_type"`
	Reason     string `json:"reason"`

	StudentName   string `json:"student_name"`
	StudentID     string `json:"student_id"`
	Degree        string `json:"degree"`
	SelectedMajor string `json:"selected_major"`
}

// Snapshot is the redacted view of the record attached to a verdict for
// audit display.
type Snapshot struct {
	StudentName      string  `json:"student_name"`
	StudentID        string  `json:"student_id"`
	Major            string  `json:"major"`
	Department       string  `json:"department"`
	Degree           string  `json:"degree"`
	GPA              float64 `json:"gpa"`
	WithdrawalCount  int     `json:"withdrawal_count"`
	RemainingCredits int     `json:"remaining_credits"`
	IsFirstYear      bool    `json:"is_first_year"`
	ExpectedGraduate bool    `json:"expected_graduate"`
}

// Result is the aggregate verdict. Eligible is always exactly
// len(Errors) == 0 and is never set independently.
type Result struct {
	Eligible     bool        `json:"eligible"`
	Errors       []string    `json:"errors"`
	Warnings     []string    `json:"warnings"`
	RulesChecked []RuleCheck `json:"rules_checked"`
	Transcript   Snapshot    `json:"transcript_data"`
}

// mergeOverrides returns a copy of the record with any request overrides
// applied. An override always replaces the parsed value entirely.
func mergeOverrides(rec transcript.Record, req Request) transcript.Record {
	if req.StudentName != "" {
		rec.StudentName = req.StudentName
	}
	if req.StudentID != "" {
		rec.StudentID = req.StudentID
	}
	if req.Degree != "" {
		rec.Degree = req.Degree
	}
	return rec
}
