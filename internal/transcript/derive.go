package transcript

import "strconv"

// Policy holds the regulation constants the derived attributes depend on.
// ReferenceHijriYear is the two-digit current academic year (e.g. 47 for
// 1447); it is configuration, never wall-clock derived.
type Policy struct {
	ReferenceHijriYear        int
	GraduationCreditThreshold int
}

// firstYearSemesterLimit: a student with at most this many distinct
// semesters on record is still in the first academic year.
const firstYearSemesterLimit = 2

// deriveAttributes computes the boolean attributes from already-extracted
// fields. Either first-year condition alone is sufficient.
func deriveAttributes(rec *Record, policy Policy) {
	if rec.SemestersCount <= firstYearSemesterLimit {
		rec.IsFirstYear = true
	}
	if len(rec.StudentID) >= 3 {
		if admissionYear, err := strconv.Atoi(rec.StudentID[:2]); err == nil {
			if policy.ReferenceHijriYear-admissionYear <= 1 {
				rec.IsFirstYear = true
			}
		}
	}

	threshold := policy.GraduationCreditThreshold
	if threshold <= 0 {
		threshold = 18
	}
	if rec.RemainingCredits > 0 && rec.RemainingCredits <= threshold {
		rec.ExpectedGraduate = true
	}
}
