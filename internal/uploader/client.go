package uploader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docreader-backend/internal/reader"
	"docreader-backend/internal/shared/server/middleware"
)

// APIError is a non-2xx response from the docreader API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Cause   string
}

func (e *APIError) Error() string {
	if e.Cause != "" {
		return e.Cause
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
}

// PresignResponse is the issued upload URL.
type PresignResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ObjectURL string `json:"objectUrl"`
}

// Client talks to the docreader API. Session is the token sent as the session cookie.
type Client struct {
	BaseURL string
	Session string
	HTTP    *http.Client
}

// NewClient builds a Client for baseURL.
func NewClient(baseURL, session string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Session: session,
		HTTP:    &http.Client{Timeout: 0},
	}
}

// Presign requests an upload URL for key.
func (c *Client) Presign(ctx context.Context, key, contentType string) (PresignResponse, error) {
	var out PresignResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/uploads/presign", map[string]string{
		"key":         key,
		"contentType": contentType,
	}, &out)
	return out, err
}

// Upload PUTs data straight to the presigned URL. No session is sent.
func (c *Client) Upload(ctx context.Context, url, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient(5 * time.Minute).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New(http.StatusText(resp.StatusCode))
	}
	return nil
}

// RecordDocument stores the document row and returns its id.
func (c *Client) RecordDocument(ctx context.Context, fileName, s3Name, s3URL string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/documents", map[string]string{
		"fileName": fileName,
		"s3Name":   s3Name,
		"s3Url":    s3URL,
	}, &out)
	return out.ID, err
}

// StartAnalysis starts Textract on s3Name and returns the job id.
func (c *Client) StartAnalysis(ctx context.Context, s3Name string) (string, error) {
	var out struct {
		JobID string `json:"jobId"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/analyses", map[string]string{"s3Name": s3Name}, &out)
	return out.JobID, err
}

// LinkJob attaches jobID to the document.
func (c *Client) LinkJob(ctx context.Context, documentID, jobID string) error {
	return c.doJSON(ctx, http.MethodPatch, "/api/v1/documents/"+documentID+"/job", map[string]string{"jobId": jobID}, nil)
}

// Follow opens the reader stream at path and calls onState for every event.
// It returns the last event once the server closes the stream.
func (c *Client) Follow(ctx context.Context, path string, onState func(reader.StateEvent)) (reader.StateEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return reader.StateEvent{}, err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	resp, err := c.httpClient(0).Do(req)
	if err != nil {
		return reader.StateEvent{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return reader.StateEvent{}, decodeAPIError(resp)
	}

	var last reader.StateEvent
	var event string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:") && event == "state":
			var ev reader.StateEvent
			if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
				return last, fmt.Errorf("decode state event: %w", err)
			}
			last = ev
			if onState != nil {
				onState(ev)
			}
		case line == "":
			event = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return last, err
	}
	return last, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient(30 * time.Second).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.Session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: c.Session})
	}
}

// httpClient applies timeout unless the caller configured its own client.
func (c *Client) httpClient(timeout time.Duration) *http.Client {
	if c.HTTP != nil && c.HTTP.Timeout > 0 {
		return c.HTTP
	}
	base := c.HTTP
	if base == nil {
		base = http.DefaultClient
	}
	clone := *base
	clone.Timeout = timeout
	return &clone
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		var details struct {
			Cause string `json:"cause"`
		}
		if len(envelope.Error.Details) > 0 && json.Unmarshal(envelope.Error.Details, &details) == nil {
			apiErr.Cause = details.Cause
		}
	}
	return apiErr
}
