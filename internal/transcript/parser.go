package transcript

import (
	"go.uber.org/zap"
)

// Parser turns raw transcript text into a structured Record. A Parser is
// read-only configuration and safe for concurrent use; each Parse call is an
// independent single-pass computation with no retained state.
type Parser struct {
	policy Policy
	logger *zap.Logger
}

// NewParser constructs a Parser with the given policy constants.
func NewParser(policy Policy, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{policy: policy, logger: logger}
}

// Parse extracts a Record from the raw text blob. Any input, including the
// empty string, yields a record with defaults: data-quality problems degrade
// to defaults instead of raising, so an unparseable transcript still reaches
// the rule evaluator and produces an actionable report.
func (p *Parser) Parse(raw string) *Record {
	rec := &Record{
		WithdrawnCourses: []string{},
		CourseCodes:      []string{},
	}

	normalized := Normalize(raw)
	lines := Lines(normalized)

	extractFields(lines, rec)
	correlateWithdrawals(lines, rec)
	countSemesters(normalized, rec)
	deriveAttributes(rec, p.policy)

	p.logger.Debug("transcript parsed",
		zap.String("student_id", rec.StudentID),
		zap.String("degree", rec.Degree),
		zap.Float64("gpa", rec.GPA),
		zap.Int("withdrawals", rec.WithdrawalCount),
		zap.Int("semesters", rec.SemestersCount),
		zap.Bool("first_year", rec.IsFirstYear),
		zap.Bool("expected_graduate", rec.ExpectedGraduate),
	)

	return rec
}
