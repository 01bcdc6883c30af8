package uploader

import (
	"context"
	"errors"
	"fmt"

	"docreader-backend/internal/reader"
	objects3 "docreader-backend/internal/shared/storage/object/s3"
	"docreader-backend/internal/uploads"
)

// Stage errors returned by Run. The underlying cause is wrapped alongside.
var (
	ErrPresign = errors.New("presign failed")
	ErrUpload  = errors.New("upload failed")
	ErrRecord  = errors.New("record document failed")
	ErrStart   = errors.New("start analysis failed")
)

// API is the subset of the docreader API the pipeline drives.
type API interface {
	Presign(ctx context.Context, key, contentType string) (PresignResponse, error)
	Upload(ctx context.Context, url, contentType string, data []byte) error
	RecordDocument(ctx context.Context, fileName, s3Name, s3URL string) (string, error)
	StartAnalysis(ctx context.Context, s3Name string) (string, error)
	LinkJob(ctx context.Context, documentID, jobID string) error
}

// Outcome is what a successful run produced.
type Outcome struct {
	DocumentID string
	S3Name     string
	JobID      string
	// ReaderPath is where the job states can be followed.
	ReaderPath string
}

// Pipeline uploads one file and starts its analysis, reporting progress
// through Status.
type Pipeline struct {
	API    API
	Status func(string)
	NewKey func() string
}

// NewPipeline builds a Pipeline that reports to status. Keys are <uuid>.pdf.
func NewPipeline(api API, status func(string)) *Pipeline {
	return &Pipeline{API: api, Status: status, NewKey: uploads.NewKey}
}

// Run executes presign, upload, record, start and link in order. A failed
// link is reported but does not fail the run. Without a document id there is
// nothing to link or read, so the run stops after starting the analysis.
func (p *Pipeline) Run(ctx context.Context, f File) (Outcome, error) {
	newKey := p.NewKey
	if newKey == nil {
		newKey = uploads.NewKey
	}

	p.status("Fetching presigned url...")
	presigned, err := p.API.Presign(ctx, newKey(), f.ContentType)
	if err != nil {
		p.status("Failed to get presigned url: " + err.Error())
		return Outcome{}, fmt.Errorf("%w: %w", ErrPresign, err)
	}

	p.status("Uploading to S3...")
	if err := p.API.Upload(ctx, presigned.URL, f.ContentType, f.Data); err != nil {
		p.status("Upload failed: " + err.Error())
		return Outcome{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	p.status("Upload Successful. Storing document in your user profile...")
	objectURL := presigned.ObjectURL
	if objectURL == "" {
		objectURL = objects3.ObjectURL(presigned.URL)
	}
	out := Outcome{S3Name: presigned.Key}
	out.DocumentID, err = p.API.RecordDocument(ctx, f.Name, presigned.Key, objectURL)
	if err != nil {
		p.status("File uploaded but failed to be stored on the user profile successfully")
		return out, fmt.Errorf("%w: %w", ErrRecord, err)
	}
	p.status("File uploaded and stored on your user profile successfully")

	p.status("Retrieving Textract Job ID...")
	out.JobID, err = p.API.StartAnalysis(ctx, presigned.Key)
	if err != nil {
		p.status("Failed to initiate Textract analysis: " + err.Error())
		return out, fmt.Errorf("%w: %w", ErrStart, err)
	}
	if out.JobID == "" {
		p.status("No Textract job ID available. Please upload a file first.")
		return out, fmt.Errorf("%w: empty job id", ErrStart)
	}
	p.status(fmt.Sprintf("Textract analysis initiated successfully with jobID %s", out.JobID))

	if out.DocumentID == "" {
		return out, nil
	}
	if err := p.API.LinkJob(ctx, out.DocumentID, out.JobID); err != nil {
		p.status("Failed to link Textract job to document: " + err.Error())
	}

	out.ReaderPath = reader.Path(out.DocumentID, out.JobID)
	return out, nil
}

func (p *Pipeline) status(msg string) {
	if p.Status != nil {
		p.Status(msg)
	}
}
