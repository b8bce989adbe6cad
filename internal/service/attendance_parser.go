package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
)

const dateKeyLayout = "02-01-2006"

var (
	// Course headers look like "AAB101 - DATA STRUCTURES". ACDD05 is the
	// one known code outside the usual pattern.
	courseHeaderRe = regexp.MustCompile(`^(A[A-Z]+\d+|ACDD05)\s*[-:\s]+\s*(.+)$`)

	// The portal renders dates in several shapes; the last alternative
	// (day + month, no year) must come after the more specific ones.
	rowDateRe = regexp.MustCompile(`\d{1,2}\s[A-Za-z]{3},?\s\d{4}|\d{1,2}[-/]\d{1,2}[-/]\d{4}|\d{1,2}\s[A-Za-z]{3}`)

	dayMonthYearRe = regexp.MustCompile(`^\d{1,2}\s[A-Za-z]{3}\s\d{4}`)
	dayMonthRe     = regexp.MustCompile(`^\d{1,2}\s[A-Za-z]{3}`)
	numericDateRe  = regexp.MustCompile(`^\d{1,2}[-/]\d{1,2}[-/]\d{4}`)
)

// AttendanceParser converts raw attendance table rows into the structured
// result. It is pure: no I/O, no shared state beyond the configured
// reference year assumed for dates that omit one.
type AttendanceParser struct {
	referenceYear int
}

// NewAttendanceParser constructs a parser. referenceYear <= 0 falls back to
// the current year.
func NewAttendanceParser(referenceYear int) *AttendanceParser {
	if referenceYear <= 0 {
		referenceYear = time.Now().Year()
	}
	return &AttendanceParser{referenceYear: referenceYear}
}

// Parse walks the rows once, left to right, carrying the current course as
// the only state. Rows before the first course header are dropped; a header
// row never contributes counts itself.
func (p *AttendanceParser) Parse(rows []string) *models.AttendanceResult {
	result := models.NewAttendanceResult()

	currentCourse := ""
	totalPresent := 0
	totalAbsent := 0

	for _, row := range rows {
		text := strings.ToUpper(strings.TrimSpace(row))
		if text == "" || strings.HasPrefix(text, "S.NO") || strings.Contains(text, "TOPICS COVERED") {
			continue
		}

		if m := courseHeaderRe.FindStringSubmatch(text); m != nil {
			currentCourse = m[1]
			if _, seen := result.Subjects[currentCourse]; !seen {
				result.SubjectOrder = append(result.SubjectOrder, currentCourse)
			}
			result.Subjects[currentCourse] = &models.SubjectAttendance{Name: strings.TrimSpace(m[2])}
			result.PerCourseDateAttendance[currentCourse] = map[string]*models.DayTally{}
			continue
		}

		if currentCourse == "" {
			continue
		}

		presentCount := strings.Count(text, "PRESENT")
		absentCount := strings.Count(text, "ABSENT")
		subject := result.Subjects[currentCourse]
		subject.Present += presentCount
		subject.Absent += absentCount
		totalPresent += presentCount
		totalAbsent += absentCount

		dateKey, ok := p.normalizeDate(rowDateRe.FindString(text))
		if !ok {
			// Counts above still stand; only the date-indexed maps
			// miss this row.
			continue
		}

		day := result.DateAttendance[dateKey]
		if day == nil {
			day = &models.DayTally{}
			result.DateAttendance[dateKey] = day
		}
		day.Present += presentCount
		day.Absent += absentCount

		courseDay := result.PerCourseDateAttendance[currentCourse][dateKey]
		if courseDay == nil {
			courseDay = &models.DayTally{}
			result.PerCourseDateAttendance[currentCourse][dateKey] = courseDay
		}
		courseDay.Present += presentCount
		courseDay.Absent += absentCount
	}

	for code, subject := range result.Subjects {
		if total := subject.Present + subject.Absent; total > 0 {
			subject.Percentage = round2(float64(subject.Present) / float64(total) * 100)
		}
		subject.SafeBunkPeriods = safeBunk(subject.Present, subject.Absent)

		attended, absent := tallyDays(result.PerCourseDateAttendance[code])
		subject.AttendedDays = attended
		subject.AbsentDays = absent
		subject.SafeBunkDays = safeBunk(attended, absent)
	}

	if overallTotal := totalPresent + totalAbsent; overallTotal > 0 {
		percentage := round2(float64(totalPresent) / float64(overallTotal) * 100)
		result.Overall = models.OverallAttendance{
			Present:    totalPresent,
			Absent:     totalAbsent,
			Percentage: percentage,
			Success:    true,
			Message: fmt.Sprintf("Overall Attendance: Present = %d, Absent = %d, Percentage = %.2f%%",
				totalPresent, totalAbsent, percentage),
			SafeBunkPeriods: safeBunk(totalPresent, totalAbsent),
		}
	}

	if len(result.DateAttendance) > 0 {
		dates := p.chronologicalKeys(result.DateAttendance)
		streak := 0
		for i := len(dates) - 1; i >= 0; i-- {
			if result.DateAttendance[dates[i]].Present > 0 {
				streak++
			} else {
				break
			}
		}
		result.Streak = streak

		attended, absent := tallyDays(result.DateAttendance)
		result.AttendedDays = attended
		result.AbsentDays = absent
		result.SafeBunkDays = safeBunk(attended, absent)
	}

	return result
}

// normalizeDate converts a matched date fragment to the canonical
// DD-MM-YYYY key. The branch order mirrors the formats the portal has been
// observed to emit.
func (p *AttendanceParser) normalizeDate(raw string) (string, bool) {
	ds := strings.TrimSpace(raw)
	if ds == "" {
		return "", false
	}

	var t time.Time
	var err error
	switch {
	case strings.Contains(ds, ","):
		ds = strings.TrimSpace(strings.ReplaceAll(ds, ",", ""))
		t, err = time.Parse("2 Jan 2006", ds)
	case dayMonthYearRe.MatchString(ds):
		t, err = time.Parse("2 Jan 2006", ds)
	case dayMonthRe.MatchString(ds):
		t, err = time.Parse("2 Jan 2006", fmt.Sprintf("%s %d", ds, p.referenceYear))
	case numericDateRe.MatchString(ds):
		t, err = time.Parse("2-1-2006", strings.ReplaceAll(ds, "/", "-"))
	default:
		return "", false
	}
	if err != nil {
		return "", false
	}
	return t.Format(dateKeyLayout), true
}

// chronologicalKeys sorts date keys by calendar order. If any key fails to
// parse the whole sort is abandoned and keys come back in map order; a
// garbled streak beats a failed parse.
func (p *AttendanceParser) chronologicalKeys(days map[string]*models.DayTally) []string {
	keys := make([]string, 0, len(days))
	parsed := make(map[string]time.Time, len(days))
	sortable := true
	for key := range days {
		keys = append(keys, key)
		t, err := time.Parse(dateKeyLayout, key)
		if err != nil {
			sortable = false
			continue
		}
		parsed[key] = t
	}
	if sortable {
		sort.Slice(keys, func(i, j int) bool { return parsed[keys[i]].Before(parsed[keys[j]]) })
	}
	return keys
}

func tallyDays(days map[string]*models.DayTally) (attended int, absent int) {
	for _, day := range days {
		if day.Present > 0 {
			attended++
		} else if day.Absent > 0 {
			absent++
		}
	}
	return attended, absent
}

func safeBunk(present, absent int) int {
	if v := present/3 - absent; v > 0 {
		return v
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
