package dto

import "github.com/noah-isme/samvidha-portal-api/internal/models"

// LabPageResponse echoes the cached attendance for the lab page shell.
// Attendance is null when nothing is cached for the session user.
type LabPageResponse struct {
	Attendance *models.AttendanceResult `json:"attendance"`
}

// LabSubjectsResponse lists the selectable lab subjects.
type LabSubjectsResponse struct {
	Subjects []models.LabOption `json:"subjects"`
}

// LabDatesRequest selects a lab for slot listing.
type LabDatesRequest struct {
	LabCode string `json:"lab_code" binding:"required"`
}

// LabDatesResponse lists the open slots of one lab.
type LabDatesResponse struct {
	Dates []models.LabSlot `json:"dates"`
}

// ExperimentTitleRequest identifies one (lab, week) slot.
type ExperimentTitleRequest struct {
	LabCode    string `json:"lab_code" binding:"required"`
	WeekNumber string `json:"week_number" binding:"required"`
}

// ExperimentTitleResponse carries the resolved experiment title. Title is
// empty when the portal lists no experiment for the week.
type ExperimentTitleResponse struct {
	Title string `json:"title"`
}
