package models

// DayTally aggregates attendance tokens recorded for one calendar day.
type DayTally struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// SubjectAttendance holds per-course counts and derived metrics.
type SubjectAttendance struct {
	Name            string  `json:"name"`
	Present         int     `json:"present"`
	Absent          int     `json:"absent"`
	Percentage      float64 `json:"percentage"`
	SafeBunkPeriods int     `json:"safe_bunk_periods"`
	AttendedDays    int     `json:"attended_days"`
	AbsentDays      int     `json:"absent_days"`
	SafeBunkDays    int     `json:"safe_bunk_days"`
}

// OverallAttendance aggregates every subject. Success stays false when the
// scrape produced no countable periods.
type OverallAttendance struct {
	Present         int     `json:"present"`
	Absent          int     `json:"absent"`
	Percentage      float64 `json:"percentage"`
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	SafeBunkPeriods int     `json:"safe_bunk_periods"`
}

// AttendanceResult is the parsed output of one attendance scrape. Date keys
// are canonical DD-MM-YYYY strings.
type AttendanceResult struct {
	Subjects                map[string]*SubjectAttendance   `json:"subjects"`
	SubjectOrder            []string                        `json:"subject_order"`
	Overall                 OverallAttendance               `json:"overall"`
	DateAttendance          map[string]*DayTally            `json:"date_attendance"`
	PerCourseDateAttendance map[string]map[string]*DayTally `json:"per_course_date_attendance"`
	Streak                  int                             `json:"streak"`
	AttendedDays            int                             `json:"attended_days"`
	AbsentDays              int                             `json:"absent_days"`
	SafeBunkDays            int                             `json:"safe_bunk_days"`
}

// NewAttendanceResult returns an empty result with initialised maps.
func NewAttendanceResult() *AttendanceResult {
	return &AttendanceResult{
		Subjects:                map[string]*SubjectAttendance{},
		DateAttendance:          map[string]*DayTally{},
		PerCourseDateAttendance: map[string]map[string]*DayTally{},
	}
}

// CalendarDay is the render context for the attendance heat map:
// value 1 = present, -1 = absent, 0 = no record.
type CalendarDay struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// SubjectRow is one ordered line of the dashboard subject table.
type SubjectRow struct {
	SNo        int     `json:"s_no"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}
