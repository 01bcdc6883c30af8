package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	FileName    string    `json:"fileName"`
	S3Name      string    `json:"s3Name"`
	S3URL       string    `json:"s3Url"`
	TextractJob *string   `json:"textractJob"`
	CreatedAt   time.Time `json:"createdAt"`
}

type recordRequest struct {
	FileName string `json:"fileName"`
	S3Name   string `json:"s3Name"`
	S3URL    string `json:"s3Url"`
}

type linkJobRequest struct {
	JobID string `json:"jobId"`
}

type linkJobResponse struct {
	DocumentID string `json:"documentId"`
	JobID      string `json:"jobId"`
	Linked     bool   `json:"linked"`
}

func toResponse(doc Document) DocumentResponse {
	resp := DocumentResponse{
		ID:        doc.ID,
		UserID:    doc.UserID,
		FileName:  doc.FileName,
		S3Name:    doc.S3Name,
		S3URL:     doc.S3URL,
		CreatedAt: doc.CreatedAt,
	}
	if doc.TextractJob != "" {
		job := doc.TextractJob
		resp.TextractJob = &job
	}
	return resp
}
