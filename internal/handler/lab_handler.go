package handler

import (
	"context"
	"io"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/samvidha-portal-api/internal/dto"
	"github.com/noah-isme/samvidha-portal-api/internal/models"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
	"github.com/noah-isme/samvidha-portal-api/pkg/export"
	"github.com/noah-isme/samvidha-portal-api/pkg/response"
)

type labProvider interface {
	ListSubjects(ctx context.Context, creds models.Credentials) ([]models.LabOption, error)
	ListSlots(ctx context.Context, creds models.Credentials, labCode string) ([]models.LabSlot, error)
	ExperimentTitle(ctx context.Context, creds models.Credentials, labCode, weekNumber string) (string, error)
	Submit(ctx context.Context, creds models.Credentials, labCode, week, title string, images []export.PageImage) (models.UploadOutcome, error)
}

type attendanceReader interface {
	Cached(ctx context.Context, username string) (*models.AttendanceResult, error)
}

// LabHandler wires the lab-record use-cases to HTTP endpoints.
type LabHandler struct {
	lab        labProvider
	attendance attendanceReader
}

// NewLabHandler constructs the handler.
func NewLabHandler(lab labProvider, attendance attendanceReader) *LabHandler {
	return &LabHandler{lab: lab, attendance: attendance}
}

// Page godoc
// @Summary Lab page shell with the cached attendance echo
// @Tags Lab
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lab [get]
func (h *LabHandler) Page(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	payload := dto.LabPageResponse{}
	if cached, err := h.attendance.Cached(c.Request.Context(), creds.Username); err == nil {
		payload.Attendance = cached
	}
	response.OK(c, payload)
}

// Upload godoc
// @Summary Build a PDF from uploaded images and submit it as a lab record
// @Tags Lab
// @Accept multipart/form-data
// @Produce json
// @Param lab_code formData string true "Lab subject code"
// @Param week_no formData string true "Week designator, e.g. Week-7"
// @Param title formData string true "Experiment title"
// @Param images formData file true "Page images, ordered by filename"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lab [post]
func (h *LabHandler) Upload(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	labCode := c.PostForm("lab_code")
	weekNo := c.PostForm("week_no")
	title := c.PostForm("title")

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid multipart payload"))
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one image is required"))
		return
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })

	images := make([]export.PageImage, 0, len(files))
	for _, file := range files {
		reader, err := file.Open()
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "failed to read uploaded image"))
			return
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "failed to read uploaded image"))
			return
		}
		images = append(images, export.PageImage{Filename: file.Filename, Data: data})
	}

	outcome, err := h.lab.Submit(c.Request.Context(), creds, labCode, weekNo, title, images)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, outcome)
}

// Subjects godoc
// @Summary List the lab subjects available to the session user
// @Tags Lab
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /get_lab_subjects [post]
func (h *LabHandler) Subjects(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	subjects, err := h.lab.ListSubjects(c.Request.Context(), creds)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.LabSubjectsResponse{Subjects: subjects})
}

// Dates godoc
// @Summary List the open submission slots for one lab
// @Tags Lab
// @Accept json
// @Produce json
// @Param payload body dto.LabDatesRequest true "Lab selection"
// @Success 200 {object} response.Envelope
// @Router /get_lab_dates [post]
func (h *LabHandler) Dates(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	var req dto.LabDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lab code is required"))
		return
	}

	dates, err := h.lab.ListSlots(c.Request.Context(), creds, req.LabCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.LabDatesResponse{Dates: dates})
}

// Title godoc
// @Summary Resolve the experiment title for one week of a lab
// @Tags Lab
// @Accept json
// @Produce json
// @Param payload body dto.ExperimentTitleRequest true "Slot selection"
// @Success 200 {object} response.Envelope
// @Router /get_experiment_title [post]
func (h *LabHandler) Title(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrSessionExpired)
		return
	}

	var req dto.ExperimentTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lab code and week number are required"))
		return
	}

	title, err := h.lab.ExperimentTitle(c.Request.Context(), creds, req.LabCode, req.WeekNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ExperimentTitleResponse{Title: title})
}
