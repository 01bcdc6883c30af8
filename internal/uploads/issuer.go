package uploads

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"docreader-backend/internal/shared/metrics"
	"docreader-backend/internal/shared/storage/object"
	objects3 "docreader-backend/internal/shared/storage/object/s3"
	"docreader-backend/internal/shared/telemetry"
)

// PresignResult is the tagged outcome of a presign request. On failure only Error is set.
type PresignResult struct {
	Success   bool      `json:"success"`
	URL       string    `json:"url,omitempty"`
	Key       string    `json:"key,omitempty"`
	ObjectURL string    `json:"objectUrl,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Issuer hands out presigned upload URLs.
type Issuer struct {
	Signer object.UploadSigner
	NewKey func() string
}

// NewIssuer builds an Issuer that generates <uuid>.pdf keys.
func NewIssuer(signer object.UploadSigner) *Issuer {
	return &Issuer{Signer: signer, NewKey: NewKey}
}

// NewKey returns a collision-free storage key.
func NewKey() string {
	return uuid.NewString() + ".pdf"
}

// Issue signs a PUT for key. An empty key gets a generated one.
func (i *Issuer) Issue(ctx context.Context, key, contentType string) PresignResult {
	key = strings.TrimSpace(key)
	if key == "" {
		key = i.NewKey()
	}

	out, err := i.Signer.PresignPut(ctx, key, contentType)
	if err != nil {
		metrics.IncPresignFailed()
		telemetry.Error("uploads.presign_failed", map[string]any{
			"bucket":       i.Signer.Bucket(),
			"key":          key,
			"content_type": contentType,
			"error":        err,
		})
		return PresignResult{Success: false, Error: err.Error()}
	}

	metrics.IncPresignIssued()
	return PresignResult{
		Success:   true,
		URL:       out.URL,
		Key:       out.Key,
		ObjectURL: objects3.ObjectURL(out.URL),
		ExpiresAt: out.ExpiresAt,
	}
}
