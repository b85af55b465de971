package transcript

// Canonical degree labels as they appear on University of Tabuk transcripts.
const (
	DegreeBachelor            = "بكالوريوس"
	DegreeIntermediateDiploma = "دبلوم متوسط"
	DegreeAssociateDiploma    = "دبلوم مشارك"
)

// Record is the structured result of parsing a transcript text blob.
// It is populated during a single parse pass and treated as immutable
// afterwards; it carries no references to external state.
type Record struct {
	StudentName string `json:"student_name"`
	StudentID   string `json:"student_id"`
	College     string `json:"college"`
	Department  string `json:"department"`
	Degree      string `json:"degree"`

	GPA                   float64 `json:"gpa"`
	TotalCreditsCompleted int     `json:"total_credits_completed"`
	TotalCreditsPlan      int     `json:"total_credits_plan"`
	RemainingCredits      int     `json:"remaining_credits"`

	// WithdrawalCount accumulates evidence from two independent detection
	// passes; it only grows during a parse, never resets.
	WithdrawalCount int `json:"withdrawal_count"`
	// WithdrawnCourses holds the raw lines flagged as withdrawal evidence.
	// Duplicates are kept: this is evidence, not a deduplicated set.
	WithdrawnCourses []string `json:"withdrawn_courses"`

	// CourseCodes lists every standalone course-code line in document order.
	CourseCodes []string `json:"course_codes"`

	SemestersCount   int  `json:"semesters_count"`
	IsFirstYear      bool `json:"is_first_year"`
	ExpectedGraduate bool `json:"expected_graduate"`
}
