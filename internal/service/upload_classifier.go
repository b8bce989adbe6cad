package service

import (
	"strings"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
)

// UploadClassifier decides whether an upload succeeded from the page the
// portal renders after submission. The portal gives no structured response,
// so classification is heuristic and pluggable.
type UploadClassifier interface {
	Classify(pageSource string) models.UploadOutcome
}

// KeywordClassifier matches well-known phrases in the result page. Pages
// matching neither set are reported as success with a verification hint,
// because the portal frequently redirects to a neutral page after a good
// upload.
type KeywordClassifier struct{}

// NewKeywordClassifier constructs the default classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify inspects the page source.
func (c *KeywordClassifier) Classify(pageSource string) models.UploadOutcome {
	lowered := strings.ToLower(pageSource)
	switch {
	case strings.Contains(lowered, "success") || strings.Contains(lowered, "uploaded"):
		return models.UploadOutcome{Success: true, Message: "Lab record uploaded successfully!"}
	case strings.Contains(lowered, "error") || strings.Contains(lowered, "failed"):
		return models.UploadOutcome{Success: false, Message: "Upload failed. Please check your inputs and try again."}
	default:
		return models.UploadOutcome{Success: true, Message: "Upload completed. Please verify on the website."}
	}
}
