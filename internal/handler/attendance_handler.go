package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/samvidha-portal-api/internal/dto"
	"github.com/noah-isme/samvidha-portal-api/internal/middleware"
	"github.com/noah-isme/samvidha-portal-api/internal/models"
	"github.com/noah-isme/samvidha-portal-api/internal/service"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
	"github.com/noah-isme/samvidha-portal-api/pkg/response"
)

type attendanceProvider interface {
	Fetch(ctx context.Context, creds models.Credentials, force bool) (*models.AttendanceResult, bool, error)
}

type sessionIssuer interface {
	EstablishSession(ctx context.Context, creds models.Credentials) (string, error)
	EndSession(ctx context.Context, token string) error
}

// AttendanceHandler wires the attendance use-cases to HTTP endpoints.
type AttendanceHandler struct {
	attendance   attendanceProvider
	auth         sessionIssuer
	cookieMaxAge time.Duration
}

// NewAttendanceHandler constructs the handler. cookieMaxAge bounds the
// session cookie lifetime and should match the session TTL.
func NewAttendanceHandler(attendance attendanceProvider, auth sessionIssuer, cookieMaxAge time.Duration) *AttendanceHandler {
	if cookieMaxAge <= 0 {
		cookieMaxAge = 30 * time.Minute
	}
	return &AttendanceHandler{attendance: attendance, auth: auth, cookieMaxAge: cookieMaxAge}
}

// Login godoc
// @Summary Login against the portal and fetch the attendance dashboard
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.DashboardRequest true "Portal credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [post]
func (h *AttendanceHandler) Login(c *gin.Context) {
	var req dto.DashboardRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "username and password are required"))
		return
	}

	creds := models.Credentials{Username: req.Username, Password: req.Password}
	result, cacheHit, err := h.attendance.Fetch(c.Request.Context(), creds, req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.auth.EstablishSession(c.Request.Context(), creds)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.SetCookie(middleware.SessionCookieName, token, int(h.cookieMaxAge.Seconds()), "/", "", false, true)

	response.OK(c, dashboardPayload(result, cacheHit))
}

// Dashboard godoc
// @Summary Attendance dashboard for the current session
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *AttendanceHandler) Dashboard(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	result, cacheHit, err := h.attendance.Fetch(c.Request.Context(), creds, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dashboardPayload(result, cacheHit))
}

// SafeBunk godoc
// @Summary Overall percentage projected after extra bunked periods
// @Tags Attendance
// @Produce json
// @Param bunk query int false "Additional periods to bunk"
// @Success 200 {object} response.Envelope
// @Router /b_safe [get]
func (h *AttendanceHandler) SafeBunk(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	result, _, err := h.attendance.Fetch(c.Request.Context(), creds, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	bunk := queryInt(c, "bunk")
	response.OK(c, dto.ProjectionResponse{
		Present:   result.Overall.Present,
		Absent:    result.Overall.Absent,
		Bunk:      bunk,
		Projected: service.ProjectedPercentage(result.Overall.Present, result.Overall.Absent, bunk),
	})
}

// Course godoc
// @Summary Per-subject attendance with projected percentage
// @Tags Attendance
// @Produce json
// @Param code path string true "Course code"
// @Param bunk query int false "Additional periods to bunk"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course/{code} [get]
func (h *AttendanceHandler) Course(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	result, _, err := h.attendance.Fetch(c.Request.Context(), creds, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	subject, ok := result.Subjects[code]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown course code"))
		return
	}

	bunk := queryInt(c, "bunk")
	response.OK(c, dto.CourseProjectionResponse{
		Code:      code,
		Subject:   subject,
		Bunk:      bunk,
		Projected: service.ProjectedPercentage(subject.Present, subject.Absent, bunk),
	})
}

// Profile godoc
// @Summary Overview block for the session user
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *AttendanceHandler) Profile(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	result, _, err := h.attendance.Fetch(c.Request.Context(), creds, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ProfileResponse{
		Username:     creds.Username,
		Overall:      result.Overall,
		Streak:       result.Streak,
		AttendedDays: result.AttendedDays,
		AbsentDays:   result.AbsentDays,
		SafeBunkDays: result.SafeBunkDays,
	})
}

// Logout godoc
// @Summary End the current session
// @Tags Attendance
// @Success 204
// @Router /logout [post]
func (h *AttendanceHandler) Logout(c *gin.Context) {
	if token := middleware.TokenFromRequest(c); token != "" {
		_ = h.auth.EndSession(c.Request.Context(), token)
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	response.NoContent(c)
}

// Ping godoc
// @Summary Liveness probe kept for legacy clients
// @Tags System
// @Produce plain
// @Success 200 {string} string "pong"
// @Router /ping [get]
func (h *AttendanceHandler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func dashboardPayload(result *models.AttendanceResult, cacheHit bool) dto.DashboardResponse {
	return dto.DashboardResponse{
		Attendance: result,
		Calendar:   service.Calendar(result),
		Subjects:   service.SubjectTable(result),
		CacheHit:   cacheHit,
	}
}

// queryInt reads an integer query parameter, defaulting to zero on absent
// or malformed values.
func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
