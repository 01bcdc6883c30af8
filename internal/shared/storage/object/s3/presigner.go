package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"docreader-backend/internal/shared/storage/object"
)

// DefaultPresignTTL is how long an upload URL stays valid.
const DefaultPresignTTL = 60 * time.Second

var (
	newPresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Presigner issues presigned PUT URLs for one bucket.
type Presigner struct {
	client *s3.PresignClient
	bucket string
	ttl    time.Duration
	now    func() time.Time
}

// NewClient builds the S3 client. A non-empty endpoint targets an S3-compatible
// store such as MinIO and switches to path-style addressing.
func NewClient(cfg aws.Config, endpoint string) *s3.Client {
	endpoint = strings.TrimSpace(endpoint)
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// NewPresigner wraps client for bucket. A non-positive ttl uses DefaultPresignTTL.
func NewPresigner(client *s3.Client, bucket string, ttl time.Duration) (*Presigner, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &Presigner{
		client: newPresignClient(client),
		bucket: bucket,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Bucket returns the bucket uploads are signed for.
func (p *Presigner) Bucket() string {
	return p.bucket
}

// PresignPut signs a PUT for key. The content type is part of the signature, so the
// upload must send the same Content-Type header.
func (p *Presigner) PresignPut(ctx context.Context, key, contentType string) (object.PresignedPut, error) {
	key = strings.TrimSpace(key)
	contentType = strings.TrimSpace(contentType)
	if key == "" {
		return object.PresignedPut{}, errors.New("object key is required")
	}
	if contentType == "" {
		return object.PresignedPut{}, errors.New("content type is required")
	}

	issued := p.now()
	req, err := presignPutObject(p.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return object.PresignedPut{}, fmt.Errorf("presign put bucket=%s key=%s: %w", p.bucket, key, err)
	}

	return object.PresignedPut{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		Header:    req.SignedHeader,
		ExpiresAt: issued.Add(p.ttl),
	}, nil
}

// ObjectURL drops the signature query from a presigned URL, leaving the object's address.
func ObjectURL(presigned string) string {
	u, err := url.Parse(presigned)
	if err != nil {
		if i := strings.IndexByte(presigned, '?'); i >= 0 {
			return presigned[:i]
		}
		return presigned
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

var _ object.UploadSigner = (*Presigner)(nil)
