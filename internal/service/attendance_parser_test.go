package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *AttendanceParser {
	return NewAttendanceParser(2025)
}

func TestParseCourseHeaderStartsFreshSubject(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - DATA STRUCTURES",
		"P1 PRESENT 20 Aug 2025",
		"AAB101 - DATA STRUCTURES",
	})

	subject := result.Subjects["AAB101"]
	require.NotNil(t, subject)
	assert.Equal(t, "DATA STRUCTURES", subject.Name)
	// The repeated header resets the entry regardless of prior counts.
	assert.Equal(t, 0, subject.Present)
	assert.Equal(t, 0, subject.Absent)
}

func TestParseCountsMultipleTokensPerRow(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - MATH",
		"P1 PRESENT P2 PRESENT P3 ABSENT 20 Aug 2025",
	})

	subject := result.Subjects["AAB101"]
	require.NotNil(t, subject)
	assert.Equal(t, 2, subject.Present)
	assert.Equal(t, 1, subject.Absent)
	assert.Equal(t, 2, result.Overall.Present)
	assert.Equal(t, 1, result.Overall.Absent)

	day := result.DateAttendance["20-08-2025"]
	require.NotNil(t, day)
	assert.Equal(t, 2, day.Present)
	assert.Equal(t, 1, day.Absent)
}

func TestParseRowsBeforeFirstHeaderAreDropped(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"P1 PRESENT 20 Aug 2025",
		"AAB101 - MATH",
		"P1 PRESENT 21 Aug 2025",
	})

	assert.Equal(t, 1, result.Overall.Present)
	assert.Len(t, result.DateAttendance, 1)
}

func TestParseSkipsHeaderAndTopicRows(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - MATH",
		"S.NO DATE PERIOD STATUS",
		"TOPICS COVERED: PRESENT TENSE",
		"   ",
		"P1 PRESENT 20 Aug 2025",
	})

	subject := result.Subjects["AAB101"]
	require.NotNil(t, subject)
	assert.Equal(t, 1, subject.Present)
	assert.Equal(t, 0, subject.Absent)
}

func TestParsePercentageRounding(t *testing.T) {
	parser := newTestParser()

	rows := []string{"AAB101 - MATH"}
	rows = append(rows,
		"P1 PRESENT 20 Aug 2025",
		"P1 PRESENT 21 Aug 2025",
		"P1 ABSENT 22 Aug 2025",
	)
	result := parser.Parse(rows)

	subject := result.Subjects["AAB101"]
	require.NotNil(t, subject)
	assert.InDelta(t, 66.67, subject.Percentage, 0.0001)
	assert.InDelta(t, 66.67, result.Overall.Percentage, 0.0001)
}

func TestParseZeroTotalYieldsZeroPercentage(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{"AAB101 - MATH", "NO SESSIONS YET"})

	subject := result.Subjects["AAB101"]
	require.NotNil(t, subject)
	assert.Equal(t, 0.0, subject.Percentage)
	assert.False(t, result.Overall.Success)
	assert.Equal(t, 0.0, result.Overall.Percentage)
}

func TestParseDateNormalization(t *testing.T) {
	parser := newTestParser()

	for _, raw := range []string{
		"P1 PRESENT 20 Aug, 2025",
		"P1 PRESENT 20 Aug 2025",
		"P1 PRESENT 20-08-2025",
		"P1 PRESENT 20/08/2025",
	} {
		result := parser.Parse([]string{"AAB101 - MATH", raw})
		require.Contains(t, result.DateAttendance, "20-08-2025", "row %q", raw)
	}
}

func TestParseYearlessDateUsesReferenceYear(t *testing.T) {
	parser := NewAttendanceParser(2024)

	result := parser.Parse([]string{"AAB101 - MATH", "P1 PRESENT 20 Aug"})

	assert.Contains(t, result.DateAttendance, "20-08-2024")
}

func TestParseUnparseableDateKeepsCounts(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{"AAB101 - MATH", "P1 PRESENT 99 XYZ"})

	subject := result.Subjects["AAB101"]
	require.NotNil(t, subject)
	assert.Equal(t, 1, subject.Present)
	assert.Empty(t, result.DateAttendance)
}

func TestParseSafeBunkPeriods(t *testing.T) {
	parser := newTestParser()

	rows := []string{"AAB101 - MATH"}
	for i := 0; i < 9; i++ {
		rows = append(rows, "P1 PRESENT")
	}
	rows = append(rows, "P1 ABSENT")
	result := parser.Parse(rows)

	subject := result.Subjects["AAB101"]
	require.NotNil(t, subject)
	assert.Equal(t, 9, subject.Present)
	assert.Equal(t, 1, subject.Absent)
	assert.Equal(t, 2, subject.SafeBunkPeriods)
}

func TestParseSafeBunkNeverNegative(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{"AAB101 - MATH", "P1 ABSENT", "P2 ABSENT"})

	assert.Equal(t, 0, result.Subjects["AAB101"].SafeBunkPeriods)
}

func TestParseStreak(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - MATH",
		"P1 ABSENT 01-01-2025",
		"P1 PRESENT 02-01-2025",
		"P1 PRESENT 03-01-2025",
	})

	assert.Equal(t, 2, result.Streak)
}

func TestParseStreakEndsAtZeroOnTrailingAbsence(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - MATH",
		"P1 PRESENT 01-01-2025",
		"P1 ABSENT 02-01-2025",
	})

	assert.Equal(t, 0, result.Streak)
}

func TestParseDayMetrics(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - MATH",
		"P1 PRESENT 01-01-2025",
		"P1 PRESENT 02-01-2025",
		"P1 PRESENT 03-01-2025",
		"P1 ABSENT 04-01-2025",
	})

	assert.Equal(t, 3, result.AttendedDays)
	assert.Equal(t, 1, result.AbsentDays)
	assert.Equal(t, 0, result.SafeBunkDays)
	subject := result.Subjects["AAB101"]
	assert.Equal(t, 3, subject.AttendedDays)
	assert.Equal(t, 1, subject.AbsentDays)
}

func TestParseIdempotent(t *testing.T) {
	parser := newTestParser()
	rows := []string{
		"AAB101 - MATH",
		"P1 PRESENT 20 Aug 2025",
		"AAB102 - PHYSICS",
		"P1 ABSENT 21 Aug 2025",
	}

	first := parser.Parse(rows)
	second := parser.Parse(rows)
	assert.Equal(t, first, second)
}

func TestParseEndToEnd(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - MATH",
		"P1 PRESENT 20 Aug 2025",
		"AAB102 - PHYSICS",
		"P1 ABSENT 21 Aug 2025",
	})

	math := result.Subjects["AAB101"]
	require.NotNil(t, math)
	assert.Equal(t, 1, math.Present)
	assert.Equal(t, 0, math.Absent)
	assert.Equal(t, 100.0, math.Percentage)

	physics := result.Subjects["AAB102"]
	require.NotNil(t, physics)
	assert.Equal(t, 0, physics.Present)
	assert.Equal(t, 1, physics.Absent)
	assert.Equal(t, 0.0, physics.Percentage)

	assert.Equal(t, 1, result.Overall.Present)
	assert.Equal(t, 1, result.Overall.Absent)
	assert.Equal(t, 50.0, result.Overall.Percentage)
	assert.True(t, result.Overall.Success)

	assert.Equal(t, []string{"AAB101", "AAB102"}, result.SubjectOrder)

	perCourse := result.PerCourseDateAttendance["AAB101"]["20-08-2025"]
	require.NotNil(t, perCourse)
	assert.Equal(t, 1, perCourse.Present)
}

func TestParseSubjectTotalsMatchDateTotals(t *testing.T) {
	parser := newTestParser()

	result := parser.Parse([]string{
		"AAB101 - MATH",
		"P1 PRESENT P2 PRESENT 20 Aug 2025",
		"P1 ABSENT 21 Aug 2025",
	})

	subject := result.Subjects["AAB101"]
	var present, absent int
	for _, day := range result.PerCourseDateAttendance["AAB101"] {
		present += day.Present
		absent += day.Absent
	}
	assert.Equal(t, subject.Present, present)
	assert.Equal(t, subject.Absent, absent)
}

func TestParseAccentedCourseSeparators(t *testing.T) {
	parser := newTestParser()

	for _, header := range []string{
		"AAB101 - MATH",
		"AAB101: MATH",
		"AAB101 MATH",
		"ACDD05 - VALUE EDUCATION",
	} {
		result := parser.Parse([]string{header})
		assert.Len(t, result.Subjects, 1, "header %q", header)
	}
}
