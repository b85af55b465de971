package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Policy{ReferenceHijriYear: 47, GraduationCreditThreshold: 18}
}

func TestNormalizeCollapsesPresentationForms(t *testing.T) {
	// U+FEC9 is the isolated presentation form of the letter Ain.
	assert.Equal(t, "ع", Normalize("ﻉ"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := "ﻉ المعدل التراكمي 3.75"
	once := Normalize(raw)
	assert.Equal(t, once, Normalize(once))
}

func TestLinesDropsBlanksAndTrims(t *testing.T) {
	lines := Lines("  الاسم : محمد  \n\n\t\nCSC 1201\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "الاسم : محمد", lines[0])
	assert.Equal(t, "CSC 1201", lines[1])
}

func TestParseEmptyInputYieldsDefaults(t *testing.T) {
	rec := NewParser(testPolicy(), nil).Parse("")

	assert.Empty(t, rec.StudentName)
	assert.Empty(t, rec.StudentID)
	assert.Equal(t, DegreeBachelor, rec.Degree)
	assert.Zero(t, rec.GPA)
	assert.Zero(t, rec.WithdrawalCount)
	require.NotNil(t, rec.WithdrawnCourses)
	require.NotNil(t, rec.CourseCodes)
	assert.Empty(t, rec.WithdrawnCourses)
	assert.Empty(t, rec.CourseCodes)
	// No semesters on record reads as a first-year student.
	assert.True(t, rec.IsFirstYear)
	assert.False(t, rec.ExpectedGraduate)
}

func TestExtractNameBothDirections(t *testing.T) {
	t.Run("label then value", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("الاسم : محمد أحمد العتيبي")
		assert.Equal(t, "محمد أحمد العتيبي", rec.StudentName)
	})

	t.Run("value then label", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("محمد أحمد العتيبي: الاسم")
		assert.Equal(t, "محمد أحمد العتيبي", rec.StudentName)
	})

	t.Run("later occurrence wins", func(t *testing.T) {
		raw := "الاسم : سارة\nالاسم : سارة القحطاني"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.Equal(t, "سارة القحطاني", rec.StudentName)
	})
}

func TestExtractStudentID(t *testing.T) {
	t.Run("digits on the label line", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("451007699 : الرقم الجامعي")
		assert.Equal(t, "451007699", rec.StudentID)
	})

	t.Run("digits on the following line", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("الرقم الجامعي\n451007699")
		assert.Equal(t, "451007699", rec.StudentID)
	})

	t.Run("first occurrence wins", func(t *testing.T) {
		raw := "الرقم الجامعي : 451007699\nالرقم الجامعي : 461234567"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.Equal(t, "451007699", rec.StudentID)
	})

	t.Run("short digit runs ignored", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("الرقم الجامعي : 12345")
		assert.Empty(t, rec.StudentID)
	})
}

func TestExtractDepartmentStripsCivilID(t *testing.T) {
	rec := NewParser(testPolicy(), nil).Parse("التخصص : علوم الحاسب 1098765432")
	assert.Equal(t, "علوم الحاسب", rec.Department)
}

func TestExtractGPA(t *testing.T) {
	t.Run("label line", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("المعدل التراكمي 3.75")
		assert.InDelta(t, 3.75, rec.GPA, 0.001)
	})

	t.Run("standalone after cumulative section", func(t *testing.T) {
		raw := strings.Join([]string{
			"سجل أكاديمي",
			"معدل تراكمي",
			"2.80",
			"3.10",
		}, "\n")
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.InDelta(t, 3.10, rec.GPA, 0.001)
	})

	t.Run("standalone values outside range ignored", func(t *testing.T) {
		raw := "معدل تراكمي\n12.50"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.Zero(t, rec.GPA)
	})

	t.Run("label line wins over standalone pass", func(t *testing.T) {
		raw := "المعدل التراكمي : 4.20\nتراكمي\n2.00"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.InDelta(t, 4.20, rec.GPA, 0.001)
	})
}

func TestExtractDegree(t *testing.T) {
	t.Run("defaults to bachelor", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("الكلية : كلية الحاسبات وتقنية المعلومات")
		assert.Equal(t, DegreeBachelor, rec.Degree)
	})

	t.Run("first mention wins", func(t *testing.T) {
		raw := "الدرجة : دبلوم متوسط\nبرنامج بكالوريوس"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.Equal(t, DegreeIntermediateDiploma, rec.Degree)
	})

	t.Run("associate diploma", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("الدرجة : دبلوم مشارك")
		assert.Equal(t, DegreeAssociateDiploma, rec.Degree)
	})
}

func TestExtractCredits(t *testing.T) {
	raw := strings.Join([]string{
		"مجموع الساعات: 136",
		"الساعات المكتسبة: 118",
		"الساعات المتبقية: 18",
	}, "\n")
	rec := NewParser(testPolicy(), nil).Parse(raw)

	assert.Equal(t, 136, rec.TotalCreditsPlan)
	assert.Equal(t, 118, rec.TotalCreditsCompleted)
	assert.Equal(t, 18, rec.RemainingCredits)
}

func TestExtractCourseCodes(t *testing.T) {
	raw := "CSC 1201\nMATH 101\nنص عربي\nTOOLONGCODE 99"
	rec := NewParser(testPolicy(), nil).Parse(raw)
	assert.Equal(t, []string{"CSC 1201", "MATH 101"}, rec.CourseCodes)
}

func TestCorrelateWithdrawals(t *testing.T) {
	t.Run("standalone marker lines", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("ع\nع")
		assert.Equal(t, 2, rec.WithdrawalCount)
		assert.Empty(t, rec.WithdrawnCourses)
	})

	t.Run("inline marker on a course row", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("CSC 1201 مقدمة في البرمجة ع 3")
		assert.Equal(t, 1, rec.WithdrawalCount)
		require.Len(t, rec.WithdrawnCourses, 1)
		assert.Contains(t, rec.WithdrawnCourses[0], "CSC 1201")
	})

	t.Run("marker embedded in a word does not count", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("CSC 2301 علوم الحاسب 3")
		assert.Zero(t, rec.WithdrawalCount)
	})

	t.Run("inline row without latin course token does not count", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("مقرر محذوف ع 3")
		assert.Zero(t, rec.WithdrawalCount)
	})

	t.Run("passes are additive", func(t *testing.T) {
		raw := "ع\nCSC 1201 مقدمة في البرمجة ع 3"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.Equal(t, 2, rec.WithdrawalCount)
	})

	t.Run("presentation form marker after normalization", func(t *testing.T) {
		rec := NewParser(testPolicy(), nil).Parse("ﻉ")
		assert.Equal(t, 1, rec.WithdrawalCount)
	})
}

func TestCountSemesters(t *testing.T) {
	t.Run("distinct hijri tokens", func(t *testing.T) {
		raw := strings.Join([]string{
			"هـ1446/1447 الفصل الأول",
			"هـ1446/1447 الفصل الثاني",
			"هـ1446/1447 الفصل الأول",
		}, "\n")
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.Equal(t, 2, rec.SemestersCount)
	})

	t.Run("generic fallback counts distinct labels", func(t *testing.T) {
		raw := "الفصل الأول\nالفصل الأول\nالفصل الصيفي"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.Equal(t, 2, rec.SemestersCount)
	})
}

func TestDeriveFirstYear(t *testing.T) {
	t.Run("by semester count", func(t *testing.T) {
		raw := "هـ1446/1447 الفصل الأول\nالرقم الجامعي : 441007699"
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.True(t, rec.IsFirstYear)
	})

	t.Run("by admission year proximity", func(t *testing.T) {
		raw := strings.Join([]string{
			"الرقم الجامعي : 471007699",
			"هـ1444/1445 الفصل الأول",
			"هـ1444/1445 الفصل الثاني",
			"هـ1445/1446 الفصل الأول",
		}, "\n")
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.True(t, rec.IsFirstYear)
	})

	t.Run("senior student is not first year", func(t *testing.T) {
		raw := strings.Join([]string{
			"الرقم الجامعي : 441007699",
			"هـ1444/1445 الفصل الأول",
			"هـ1444/1445 الفصل الثاني",
			"هـ1445/1446 الفصل الأول",
		}, "\n")
		rec := NewParser(testPolicy(), nil).Parse(raw)
		assert.False(t, rec.IsFirstYear)
	})
}

func TestDeriveExpectedGraduate(t *testing.T) {
	cases := []struct {
		name      string
		remaining string
		want      bool
	}{
		{"within threshold", "10", true},
		{"at threshold", "18", true},
		{"above threshold", "19", false},
		{"zero remaining", "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := NewParser(testPolicy(), nil).Parse("الساعات المتبقية: " + tc.remaining)
			assert.Equal(t, tc.want, rec.ExpectedGraduate)
		})
	}
}
