package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docreader-backend/internal/shared/metrics"
	"docreader-backend/internal/shared/telemetry"
	"docreader-backend/internal/shared/util"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

// Service records uploaded documents and links them to analysis jobs.
type Service struct {
	Repo Repo
}

// Record stores the metadata of an object already uploaded to storage. Duplicate
// submissions create duplicate rows.
func (s *Service) Record(ctx context.Context, userID, fileName, s3Name, s3URL string) (Document, error) {
	if strings.TrimSpace(userID) == "" {
		return Document{}, ErrNoAuthenticatedUser
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: fileName: %v", ErrInvalidInput, err)
	}
	s3Name = strings.TrimSpace(s3Name)
	s3URL = strings.TrimSpace(s3URL)
	if s3Name == "" {
		return Document{}, fmt.Errorf("%w: s3Name is required", ErrInvalidInput)
	}
	if s3URL == "" {
		return Document{}, fmt.Errorf("%w: s3Url is required", ErrInvalidInput)
	}

	doc, err := s.Repo.Create(ctx, Document{
		UserID:   userID,
		FileName: name,
		S3Name:   s3Name,
		S3URL:    s3URL,
	})
	if err != nil {
		telemetry.Error("documents.record_failed", map[string]any{
			"user_id": userID,
			"s3_name": s3Name,
			"error":   err,
		})
		return Document{}, err
	}

	metrics.IncDocumentsRecorded()
	telemetry.Info("documents.recorded", map[string]any{
		"user_id":     userID,
		"document_id": doc.ID,
		"s3_name":     doc.S3Name,
	})
	return doc, nil
}

// Get returns one of the user's documents.
func (s *Service) Get(ctx context.Context, userID, id string) (Document, error) {
	if strings.TrimSpace(userID) == "" {
		return Document{}, ErrNoAuthenticatedUser
	}
	if _, err := uuid.Parse(id); err != nil {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID, id)
}

// List returns the user's documents newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoAuthenticatedUser
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// LinkJob attaches jobID to the document. A missing document id or job id is a
// no-op and reports linked=false.
func (s *Service) LinkJob(ctx context.Context, userID, documentID, jobID string) (bool, error) {
	documentID = strings.TrimSpace(documentID)
	jobID = strings.TrimSpace(jobID)
	if documentID == "" || jobID == "" {
		return false, nil
	}
	if strings.TrimSpace(userID) == "" {
		return false, ErrNoAuthenticatedUser
	}
	if _, err := uuid.Parse(documentID); err != nil {
		return false, ErrNotFound
	}

	if err := s.Repo.SetTextractJob(ctx, userID, documentID, jobID); err != nil {
		telemetry.Error("documents.link_failed", map[string]any{
			"user_id":     userID,
			"document_id": documentID,
			"job_id":      jobID,
			"error":       err,
		})
		return false, err
	}
	telemetry.Info("documents.job_linked", map[string]any{
		"user_id":     userID,
		"document_id": documentID,
		"job_id":      jobID,
	})
	return true, nil
}
