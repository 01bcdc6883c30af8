package documents

import "time"

// Document is an uploaded file owned by a user. TextractJob stays empty until
// an analysis job is linked.
type Document struct {
	ID          string
	UserID      string
	FileName    string
	S3Name      string
	S3URL       string
	TextractJob string
	CreatedAt   time.Time
}
