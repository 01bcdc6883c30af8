package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docreader-backend/internal/shared/storage/object"
)

type fakeSigner struct {
	err     error
	gotKey  string
	gotType string
	calls   int
}

func (f *fakeSigner) PresignPut(ctx context.Context, key, contentType string) (object.PresignedPut, error) {
	f.calls++
	f.gotKey = key
	f.gotType = contentType
	if f.err != nil {
		return object.PresignedPut{}, f.err
	}
	return object.PresignedPut{
		Key:       key,
		URL:       "https://docs.s3.us-east-2.amazonaws.com/" + key + "?X-Amz-Signature=abc",
		Method:    http.MethodPut,
		ExpiresAt: time.Unix(60, 0).UTC(),
	}, nil
}

func (f *fakeSigner) Bucket() string { return "docs" }

func newTestRouter(signer *fakeSigner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewIssuer(signer)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doPresign(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

var generatedKey = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.pdf$`)

func TestPresignGeneratesKeyWhenAbsent(t *testing.T) {
	signer := &fakeSigner{}
	resp := doPresign(t, newTestRouter(signer), gin.H{"fileName": "report.pdf", "contentType": "application/pdf"})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got PresignResult
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Success {
		t.Fatalf("expected success")
	}
	if !generatedKey.MatchString(got.Key) {
		t.Fatalf("unexpected key %q", got.Key)
	}
	if signer.gotKey != got.Key || signer.gotType != "application/pdf" {
		t.Fatalf("signer saw key=%q type=%q", signer.gotKey, signer.gotType)
	}
	if got.ObjectURL != "https://docs.s3.us-east-2.amazonaws.com/"+got.Key {
		t.Fatalf("unexpected object url %q", got.ObjectURL)
	}
}

func TestPresignKeepsCallerKey(t *testing.T) {
	signer := &fakeSigner{}
	resp := doPresign(t, newTestRouter(signer), gin.H{"key": "abc.pdf", "contentType": "application/pdf"})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if signer.gotKey != "abc.pdf" {
		t.Fatalf("expected caller key, got %q", signer.gotKey)
	}
}

func TestPresignValidation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "missing content type", body: gin.H{"fileName": "report.pdf"}},
		{name: "unsupported content type", body: gin.H{"fileName": "x.exe", "contentType": "application/x-msdownload"}},
		{name: "traversal key", body: gin.H{"key": "../etc/passwd", "contentType": "application/pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := &fakeSigner{}
			resp := doPresign(t, newTestRouter(signer), tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			if signer.calls != 0 {
				t.Fatalf("signer should not be called")
			}
		})
	}
}

func TestPresignFailureIsTagged(t *testing.T) {
	signer := &fakeSigner{err: errors.New("signature expired: clock skew")}
	resp := doPresign(t, newTestRouter(signer), gin.H{"contentType": "application/pdf"})

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "presign_failed" {
		t.Fatalf("unexpected code %q", body.Error.Code)
	}
	if body.Error.Details["cause"] != "signature expired: clock skew" {
		t.Fatalf("expected cause carried, got %v", body.Error.Details)
	}
}

func TestIssueReturnsFailureResult(t *testing.T) {
	issuer := NewIssuer(&fakeSigner{err: errors.New("boom")})
	issuer.NewKey = func() string { return "fixed.pdf" }

	got := issuer.Issue(context.Background(), "", "application/pdf")
	if got.Success || got.Error != "boom" || got.URL != "" {
		t.Fatalf("unexpected result %+v", got)
	}
}
