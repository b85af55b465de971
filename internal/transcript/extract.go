package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

// mergePolicy states how repeated matches for one field are resolved. The
// source layouts repeat labels across pages, so every field carries an
// explicit policy instead of relying on scan order side effects.
type mergePolicy int

const (
	firstWins mergePolicy = iota
	lastWins
)

// resolver accumulates candidates for a single scalar field.
type resolver struct {
	policy mergePolicy
	value  string
	set    bool
}

func (r *resolver) offer(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if r.set && r.policy == firstWins {
		return
	}
	r.value = v
	r.set = true
}

var (
	nameLabelValueRe = regexp.MustCompile(`(?:الاسم|اسم الطالب|اسم الطالبة)\s*:\s*(.+)`)
	nameValueLabelRe = regexp.MustCompile(`^(.+?):\s*(?:الاسم|اسم الطالب)`)
	digitRunRe       = regexp.MustCompile(`(\d{7,10})`)
	collegeRe        = regexp.MustCompile(`الكلية\s*:\s*(.+)`)
	departmentRe     = regexp.MustCompile(`التخصص\s*:\s*(.+)`)
	civilIDSuffixRe  = regexp.MustCompile(`\d{7,}.*`)
	decimalRe        = regexp.MustCompile(`(\d+\.\d+)`)
	standaloneGPARe  = regexp.MustCompile(`^(\d+\.\d{2})$`)
	planCreditsRe    = regexp.MustCompile(`(?:مجموع الساعات|إجمالي الساعات|ساعات الخطة)[:\s]*(\d+)`)
	earnedCreditsRe  = regexp.MustCompile(`(?:الساعات المكتسبة|الساعات المجتازة|مكتسبة)[:\s]*(\d+)`)
	remainCreditsRe  = regexp.MustCompile(`(?:الساعات المتبقية)[:\s]*(\d+)`)
	courseCodeRe     = regexp.MustCompile(`^([A-Z]{2,5}\s+\d{3,4})$`)
)

// extractFields runs the per-line label battery over the normalized lines and
// fills the record's scalar fields. Extraction never fails: unmatched fields
// keep their defaults.
func extractFields(lines []string, rec *Record) {
	name := resolver{policy: lastWins}
	studentID := resolver{policy: firstWins}
	college := resolver{policy: lastWins}
	department := resolver{policy: lastWins}
	gpa := resolver{policy: lastWins}
	degree := resolver{policy: firstWins}
	planCredits := resolver{policy: lastWins}
	earnedCredits := resolver{policy: lastWins}
	remainingCredits := resolver{policy: lastWins}

	for i, line := range lines {
		// Student name appears either as label-then-value or, in mixed
		// direction renderings, as value-then-label.
		if (strings.Contains(line, "الاسم") && strings.Contains(line, ":")) || strings.Contains(line, "اسم الطالب") {
			if m := nameLabelValueRe.FindStringSubmatch(line); m != nil {
				val := strings.TrimSpace(m[1])
				if val != "" && val != "الاسم" {
					name.offer(val)
				}
			} else if m := nameValueLabelRe.FindStringSubmatch(line); m != nil {
				name.offer(m[1])
			}
		}

		// Student ID: digit run on the label line, or on the line below it.
		if strings.Contains(line, "الرقم الأكاديمي") || strings.Contains(line, "الرقم الجامعي") || strings.Contains(line, "رقم الطالب") {
			if m := digitRunRe.FindStringSubmatch(line); m != nil {
				studentID.offer(m[1])
			} else if i+1 < len(lines) {
				if m := digitRunRe.FindStringSubmatch(lines[i+1]); m != nil {
					studentID.offer(m[1])
				}
			}
		}

		if strings.Contains(line, "الكلية") && strings.Contains(line, ":") {
			if m := collegeRe.FindStringSubmatch(line); m != nil {
				college.offer(m[1])
			}
		}

		// Some layouts concatenate the civil ID right after the department
		// name; strip the number and everything behind it.
		if strings.Contains(line, "التخصص") && strings.Contains(line, ":") {
			if m := departmentRe.FindStringSubmatch(line); m != nil {
				val := strings.TrimSpace(civilIDSuffixRe.ReplaceAllString(strings.TrimSpace(m[1]), ""))
				if val != "" && val != "التخصص" {
					department.offer(val)
				}
			}
		}

		// Primary GPA pass: label and decimal on the same line.
		if strings.Contains(line, "المعدل التراكمي") || strings.Contains(line, "التراكمي") {
			if m := decimalRe.FindStringSubmatch(line); m != nil {
				gpa.offer(m[1])
			}
		}

		switch {
		case strings.Contains(line, DegreeBachelor):
			degree.offer(DegreeBachelor)
		case strings.Contains(line, DegreeIntermediateDiploma):
			degree.offer(DegreeIntermediateDiploma)
		case strings.Contains(line, DegreeAssociateDiploma):
			degree.offer(DegreeAssociateDiploma)
		}

		if m := planCreditsRe.FindStringSubmatch(line); m != nil {
			planCredits.offer(m[1])
		}
		if m := earnedCreditsRe.FindStringSubmatch(line); m != nil {
			earnedCredits.offer(m[1])
		}
		if m := remainCreditsRe.FindStringSubmatch(line); m != nil {
			remainingCredits.offer(m[1])
		}

		if m := courseCodeRe.FindStringSubmatch(line); m != nil {
			rec.CourseCodes = append(rec.CourseCodes, strings.TrimSpace(m[1]))
		}
	}

	// Secondary GPA pass: once inside the cumulative section, standalone
	// two-decimal lines are candidates and the last one is authoritative.
	if !gpa.set {
		inCumulative := false
		for _, line := range lines {
			if strings.Contains(line, "تراكمي") {
				inCumulative = true
			}
			if !inCumulative {
				continue
			}
			if m := standaloneGPARe.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v <= 5.0 {
					gpa.offer(m[1])
				}
			}
		}
	}

	rec.StudentName = name.value
	rec.StudentID = studentID.value
	rec.College = college.value
	rec.Department = department.value

	rec.Degree = degree.value
	if rec.Degree == "" {
		rec.Degree = DegreeBachelor
	}

	if gpa.set {
		if v, err := strconv.ParseFloat(gpa.value, 64); err == nil {
			rec.GPA = v
		}
	}
	rec.TotalCreditsPlan = parseInt(planCredits.value)
	rec.TotalCreditsCompleted = parseInt(earnedCredits.value)
	rec.RemainingCredits = parseInt(remainingCredits.value)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
