package eligibility

import (
	"fmt"
	"strings"

	"github.com/Silk760/course-withdrawal/internal/transcript"
)

// summerSemesterKeyword flags summer-semester registrations in the request's
// semester label.
const summerSemesterKeyword = "صيفي"

// Limits holds the per-degree withdrawal ceilings.
type Limits struct {
	Bachelor            int
	IntermediateDiploma int
	AssociateDiploma    int
}

// DefaultLimits mirror the university regulation for semester-system degrees.
func DefaultLimits() Limits {
	return Limits{Bachelor: 6, IntermediateDiploma: 3, AssociateDiploma: 2}
}

// Evaluator applies the fixed nine-rule withdrawal policy. It is read-only
// configuration, safe for concurrent use, and Evaluate is a pure function of
// its inputs.
type Evaluator struct {
	limits Limits
}

// NewEvaluator constructs an Evaluator; zero limits fall back to defaults.
func NewEvaluator(limits Limits) *Evaluator {
	defaults := DefaultLimits()
	if limits.Bachelor <= 0 {
		limits.Bachelor = defaults.Bachelor
	}
	if limits.IntermediateDiploma <= 0 {
		limits.IntermediateDiploma = defaults.IntermediateDiploma
	}
	if limits.AssociateDiploma <= 0 {
		limits.AssociateDiploma = defaults.AssociateDiploma
	}
	return &Evaluator{limits: limits}
}

// Evaluate runs the nine-rule checklist. Rules never short-circuit each
// other: all nine always execute and all nine always appear in RulesChecked
// in fixed order, so the applicant sees every rule's outcome rather than just
// the first failure. Rules 1-5 contribute errors; rules 6-9 are advisory.
func (e *Evaluator) Evaluate(rec transcript.Record, req Request) Result {
	rec = mergeOverrides(rec, req)

	result := Result{
		Errors:       []string{},
		Warnings:     []string{},
		RulesChecked: make([]RuleCheck, 0, 9),
	}

	e.checkWithdrawalCeiling(rec, &result)
	e.checkFirstYear(rec, &result)
	e.checkExpectedGraduate(rec, &result)
	e.checkPreviousWithdrawal(rec, req, &result)
	e.checkSummerSemester(req, &result)
	e.advisoryChecks(&result)

	result.Eligible = len(result.Errors) == 0
	result.Transcript = Snapshot{
		StudentName:      rec.StudentName,
		StudentID:        rec.StudentID,
		Major:            req.SelectedMajor,
		Department:       rec.Department,
		Degree:           rec.Degree,
		GPA:              rec.GPA,
		WithdrawalCount:  rec.WithdrawalCount,
		RemainingCredits: rec.RemainingCredits,
		IsFirstYear:      rec.IsFirstYear,
		ExpectedGraduate: rec.ExpectedGraduate,
	}
	return result
}

// Rule 1: withdrawal-count ceiling by degree. The ceiling is strict: a count
// equal to the maximum already fails.
func (e *Evaluator) checkWithdrawalCeiling(rec transcript.Record, result *Result) {
	var (
		max       int
		ruleLabel string
		failLabel string
	)
	switch rec.Degree {
	case transcript.DegreeIntermediateDiploma:
		max = e.limits.IntermediateDiploma
		ruleLabel = fmt.Sprintf("الحد الأقصى للاعتذار عن مقررات (دبلوم متوسط): %d مقررات", max)
		failLabel = fmt.Sprintf("تجاوزت الحد الأقصى للاعتذار عن المقررات (%d مقررات للدبلوم المتوسط). عدد مرات الاعتذار السابقة: %d", max, rec.WithdrawalCount)
	case transcript.DegreeAssociateDiploma:
		max = e.limits.AssociateDiploma
		ruleLabel = fmt.Sprintf("الحد الأقصى للاعتذار عن مقررات (دبلوم مشارك): %d مقررات", max)
		failLabel = fmt.Sprintf("تجاوزت الحد الأقصى للاعتذار عن المقررات (%d مقررات للدبلوم المشارك). عدد مرات الاعتذار السابقة: %d", max, rec.WithdrawalCount)
	default:
		// Unknown degree strings fall back to the bachelor ceiling so the
		// checklist always carries nine entries.
		max = e.limits.Bachelor
		ruleLabel = fmt.Sprintf("الحد الأقصى للاعتذار عن مقررات (بكالوريوس - نظام فصلي): %d مقررات", max)
		failLabel = fmt.Sprintf("تجاوزت الحد الأقصى للاعتذار عن المقررات (%d مقررات للبكالوريوس). عدد مرات الاعتذار السابقة: %d", max, rec.WithdrawalCount)
	}

	status := StatusPass
	if rec.WithdrawalCount >= max {
		status = StatusFail
		result.Errors = append(result.Errors, failLabel)
	}
	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   ruleLabel,
		Status: status,
		Detail: fmt.Sprintf("عدد مرات الاعتذار السابقة: %d من أصل %d", rec.WithdrawalCount, max),
	})
}

// Rule 2: first-year students may not withdraw.
func (e *Evaluator) checkFirstYear(rec transcript.Record, result *Result) {
	const rule = "ألا يكون المقرر من مقررات السنة الدراسية الأولى"
	if rec.IsFirstYear {
		result.RulesChecked = append(result.RulesChecked, RuleCheck{
			Rule:   rule,
			Status: StatusFail,
			Detail: "الطالب في السنة الأولى - لا يسمح بالاعتذار عن مقررات السنة الأولى",
		})
		result.Errors = append(result.Errors, "لا يسمح بالاعتذار عن مقررات السنة الدراسية الأولى")
		return
	}
	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   rule,
		Status: StatusPass,
		Detail: "الطالب ليس في السنة الأولى",
	})
}

// Rule 3: expected graduates may not withdraw.
func (e *Evaluator) checkExpectedGraduate(rec transcript.Record, result *Result) {
	const rule = "لا يسمح للطالب المتوقع تخرجه الانسحاب من أي مقرر"
	if rec.ExpectedGraduate {
		result.RulesChecked = append(result.RulesChecked, RuleCheck{
			Rule:   rule,
			Status: StatusFail,
			Detail: fmt.Sprintf("الطالب متوقع تخرجه (الساعات المتبقية: %d)", rec.RemainingCredits),
		})
		result.Errors = append(result.Errors, "لا يسمح للطالب المتوقع تخرجه بالاعتذار عن أي مقرر مسجل في الفصل الدراسي")
		return
	}
	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   rule,
		Status: StatusPass,
		Detail: "الطالب غير متوقع تخرجه",
	})
}

// Rule 4: the target course must not have been withdrawn before. The match
// is a substring test against the raw withdrawal evidence lines.
func (e *Evaluator) checkPreviousWithdrawal(rec transcript.Record, req Request, result *Result) {
	const rule = "ألا يكون المقرر قد سبق الانسحاب منه سابقاً"
	previouslyWithdrawn := false
	if req.CourseCode != "" {
		for _, evidence := range rec.WithdrawnCourses {
			if strings.Contains(evidence, req.CourseCode) {
				previouslyWithdrawn = true
				break
			}
		}
	}

	if previouslyWithdrawn {
		result.RulesChecked = append(result.RulesChecked, RuleCheck{
			Rule:   rule,
			Status: StatusFail,
			Detail: fmt.Sprintf("المقرر %s تم الاعتذار عنه مسبقاً", req.CourseCode),
		})
		result.Errors = append(result.Errors, fmt.Sprintf("المقرر %s سبق الاعتذار عنه سابقاً", req.CourseCode))
		return
	}
	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   rule,
		Status: StatusPass,
		Detail: "لم يتم الاعتذار عن هذا المقرر مسبقاً",
	})
}

// Rule 5: no withdrawals from summer-semester registrations.
func (e *Evaluator) checkSummerSemester(req Request, result *Result) {
	const rule = "ألا يكون المقرر مسجلاً في الفصل الصيفي"
	if req.Semester != "" && strings.Contains(req.Semester, summerSemesterKeyword) {
		result.RulesChecked = append(result.RulesChecked, RuleCheck{
			Rule:   rule,
			Status: StatusFail,
			Detail: "لا يسمح بالاعتذار عن مقررات الفصل الصيفي",
		})
		result.Errors = append(result.Errors, "لا يسمح بالاعتذار عن مقرر مسجل في الفصل الصيفي")
		return
	}
	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   rule,
		Status: StatusPass,
		Detail: "المقرر ليس في الفصل الصيفي",
	})
}

// Rules 6-9 always emit warnings: they depend on information the transcript
// alone cannot guarantee (remaining study period, same-semester requests,
// current registration list, co-requisite links) and never block eligibility.
func (e *Evaluator) advisoryChecks(result *Result) {
	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   "أن تكون المدة النظامية المتبقية كافية لإنهاء متطلبات التخرج",
		Status: StatusWarning,
		Detail: "يرجى التأكد من أن المدة النظامية المتبقية كافية لإنهاء متطلبات التخرج",
	})
	result.Warnings = append(result.Warnings, "يرجى التأكد من أن المدة النظامية المتبقية كافية لإنهاء متطلبات التخرج")

	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   "يسمح بالانسحاب من مقرر واحد فقط خلال الفصل الدراسي",
		Status: StatusWarning,
		Detail: "تأكد من عدم تقديم طلب اعتذار آخر في نفس الفصل",
	})

	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   "ألا يكون المقرر الوحيد المسجل للطالب",
		Status: StatusWarning,
		Detail: "تأكد من وجود مقررات أخرى مسجلة في الفصل الدراسي",
	})

	result.RulesChecked = append(result.RulesChecked, RuleCheck{
		Rule:   "ألا يكون المقرر متزامناً مع مقرر آخر",
		Status: StatusWarning,
		Detail: "تأكد من أن المقرر ليس متطلباً متزامناً مع مقرر آخر مسجل",
	})
}
