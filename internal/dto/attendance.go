package dto

import "github.com/noah-isme/samvidha-portal-api/internal/models"

// DashboardRequest is the login-and-scrape payload.
type DashboardRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Force    bool   `json:"force" form:"force"`
}

// DashboardResponse is the full dashboard payload: the parsed attendance
// result plus the render contexts derived from it.
type DashboardResponse struct {
	Attendance *models.AttendanceResult `json:"attendance"`
	Calendar   []models.CalendarDay     `json:"calendar"`
	Subjects   []models.SubjectRow      `json:"subjects"`
	CacheHit   bool                     `json:"cache_hit"`
}

// ProjectionResponse reports the overall percentage after a hypothetical
// number of additional bunked periods.
type ProjectionResponse struct {
	Present   int     `json:"present"`
	Absent    int     `json:"absent"`
	Bunk      int     `json:"bunk"`
	Projected float64 `json:"projected"`
}

// CourseProjectionResponse is the per-subject variant of ProjectionResponse.
type CourseProjectionResponse struct {
	Code      string                    `json:"code"`
	Subject   *models.SubjectAttendance `json:"subject"`
	Bunk      int                       `json:"bunk"`
	Projected float64                   `json:"projected"`
}

// ProfileResponse is the per-user overview block.
type ProfileResponse struct {
	Username     string                   `json:"username"`
	Overall      models.OverallAttendance `json:"overall"`
	Streak       int                      `json:"streak"`
	AttendedDays int                      `json:"attended_days"`
	AbsentDays   int                      `json:"absent_days"`
	SafeBunkDays int                      `json:"safe_bunk_days"`
}
