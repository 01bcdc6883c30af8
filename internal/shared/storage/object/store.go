package object

import (
	"context"
	"net/http"
	"time"
)

// PresignedPut authorizes a single direct PUT of one object.
type PresignedPut struct {
	Key       string
	URL       string
	Method    string
	Header    http.Header
	ExpiresAt time.Time
}

// UploadSigner issues short-lived write URLs so clients upload without proxying bytes through the API.
type UploadSigner interface {
	PresignPut(ctx context.Context, key, contentType string) (PresignedPut, error)
	Bucket() string
}
