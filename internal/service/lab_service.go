package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	"github.com/noah-isme/samvidha-portal-api/pkg/browser"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
	"github.com/noah-isme/samvidha-portal-api/pkg/export"
)

type labPortal interface {
	ListLabSubjects(ctx context.Context, drv browser.Driver) ([]models.LabOption, error)
	ListLabSlots(ctx context.Context, drv browser.Driver, labCode string) ([]models.LabSlot, error)
	ExperimentTitle(ctx context.Context, drv browser.Driver, labCode, weekNumber string) (string, error)
	SubmitLabRecord(ctx context.Context, drv browser.Driver, labCode, week, title, documentPath string) (string, error)
}

type documentBuilder interface {
	Build(images []export.PageImage) ([]byte, error)
}

type documentStorage interface {
	Save(filename string, data []byte) (string, error)
	Remove(path string) error
}

// LabService covers the lab-record use-cases: listing subjects and slots,
// resolving experiment titles and submitting a generated PDF.
type LabService struct {
	client     portalRunner
	portal     labPortal
	builder    documentBuilder
	storage    documentStorage
	classifier UploadClassifier
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewLabService constructs the service.
func NewLabService(client portalRunner, portal labPortal, builder documentBuilder, storage documentStorage, classifier UploadClassifier, metrics *MetricsService, logger *zap.Logger) *LabService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &LabService{
		client:     client,
		portal:     portal,
		builder:    builder,
		storage:    storage,
		classifier: classifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// ListSubjects returns the lab subjects available to the student.
func (s *LabService) ListSubjects(ctx context.Context, creds models.Credentials) ([]models.LabOption, error) {
	var subjects []models.LabOption
	start := time.Now()
	err := s.client.WithLogin(ctx, creds, func(ctx context.Context, drv browser.Driver) error {
		var err error
		subjects, err = s.portal.ListLabSubjects(ctx, drv)
		return err
	})
	s.metrics.ObserveScrape("lab_subjects", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// ListSlots returns the open (week, experiment) slots for one lab subject.
func (s *LabService) ListSlots(ctx context.Context, creds models.Credentials, labCode string) ([]models.LabSlot, error) {
	if strings.TrimSpace(labCode) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lab code is required")
	}

	var slots []models.LabSlot
	start := time.Now()
	err := s.client.WithLogin(ctx, creds, func(ctx context.Context, drv browser.Driver) error {
		var err error
		slots, err = s.portal.ListLabSlots(ctx, drv, labCode)
		return err
	})
	s.metrics.ObserveScrape("lab_slots", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// ExperimentTitle resolves the experiment title for one week of a lab.
func (s *LabService) ExperimentTitle(ctx context.Context, creds models.Credentials, labCode, weekNumber string) (string, error) {
	if strings.TrimSpace(labCode) == "" || strings.TrimSpace(weekNumber) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "lab code and week number are required")
	}

	var title string
	start := time.Now()
	err := s.client.WithLogin(ctx, creds, func(ctx context.Context, drv browser.Driver) error {
		var err error
		title, err = s.portal.ExperimentTitle(ctx, drv, labCode, weekNumber)
		return err
	})
	s.metrics.ObserveScrape("lab_title", err == nil, time.Since(start))
	if err != nil {
		return "", err
	}
	return title, nil
}

// Submit builds a PDF from the uploaded images, stages it on disk for the
// browser's file input, drives the upload form and classifies the outcome.
// The staged file is removed regardless of the result.
func (s *LabService) Submit(ctx context.Context, creds models.Credentials, labCode, week, title string, images []export.PageImage) (models.UploadOutcome, error) {
	if strings.TrimSpace(labCode) == "" || strings.TrimSpace(week) == "" || strings.TrimSpace(title) == "" {
		return models.UploadOutcome{}, appErrors.Clone(appErrors.ErrValidation, "lab code, week and title are required")
	}
	if len(images) == 0 {
		return models.UploadOutcome{}, appErrors.Clone(appErrors.ErrValidation, "at least one image is required")
	}

	document, err := s.builder.Build(images)
	if err != nil {
		return models.UploadOutcome{}, appErrors.Wrap(err, appErrors.ErrValidation.Code,
			appErrors.ErrValidation.Status, "failed to build the PDF from the uploaded images")
	}

	path, err := s.storage.Save(fmt.Sprintf("%s.pdf", uuid.NewString()), document)
	if err != nil {
		return models.UploadOutcome{}, appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to stage the PDF for upload")
	}
	defer func() {
		if err := s.storage.Remove(path); err != nil {
			s.logger.Warn("failed to remove staged upload document",
				zap.String("path", path), zap.Error(err))
		}
	}()

	var pageSource string
	start := time.Now()
	err = s.client.WithLogin(ctx, creds, func(ctx context.Context, drv browser.Driver) error {
		var err error
		pageSource, err = s.portal.SubmitLabRecord(ctx, drv, labCode, week, title, path)
		return err
	})
	s.metrics.ObserveScrape("lab_upload", err == nil, time.Since(start))
	if err != nil {
		return models.UploadOutcome{}, err
	}

	outcome := s.classifier.Classify(pageSource)
	s.logger.Info("lab record submitted",
		zap.String("username", creds.Username),
		zap.String("lab_code", labCode),
		zap.String("week", week),
		zap.Bool("success", outcome.Success))
	return outcome, nil
}
