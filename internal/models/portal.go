package models

import "time"

// Credentials identify a student on the external portal.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// PortalSession is the server-side record behind a session token. The
// portal password is sealed before the record is cached; it is required
// again for the lab-record flows, which re-authenticate per operation.
type PortalSession struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	SealedPassword []byte    `json:"sealed_password"`
	CreatedAt      time.Time `json:"created_at"`
}

// LabOption is one selectable lab subject exposed by the portal dropdown.
type LabOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// LabSlot is one (lab, week) row of the experiment table. IsAvailable is
// fail-open: an unparseable submission date keeps the slot selectable.
type LabSlot struct {
	WeekNumber      string `json:"week_number"`
	WeekText        string `json:"week_text"`
	SubjectCode     string `json:"subject_code"`
	ExperimentTitle string `json:"experiment_title"`
	BatchNo         string `json:"batch_no"`
	SubmissionDate  string `json:"submission_date"`
	IsAvailable     bool   `json:"is_available"`
}

// UploadOutcome classifies the portal's response to a lab-record upload.
type UploadOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
