package uploader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	calls []string

	presign    PresignResponse
	presignErr error
	uploadErr  error
	docID      string
	recordErr  error
	jobID      string
	startErr   error
	linkErr    error

	uploadedTo   string
	recordedURL  string
	startedKey   string
	linkedDoc    string
	linkedJob    string
	uploadedType string
}

func (f *fakeAPI) Presign(_ context.Context, key, contentType string) (PresignResponse, error) {
	f.calls = append(f.calls, "presign")
	if f.presignErr != nil {
		return PresignResponse{}, f.presignErr
	}
	res := f.presign
	if res.Key == "" {
		res.Key = key
	}
	return res, nil
}

func (f *fakeAPI) Upload(_ context.Context, url, contentType string, _ []byte) error {
	f.calls = append(f.calls, "upload")
	f.uploadedTo = url
	f.uploadedType = contentType
	return f.uploadErr
}

func (f *fakeAPI) RecordDocument(_ context.Context, _, _, s3URL string) (string, error) {
	f.calls = append(f.calls, "record")
	f.recordedURL = s3URL
	return f.docID, f.recordErr
}

func (f *fakeAPI) StartAnalysis(_ context.Context, s3Name string) (string, error) {
	f.calls = append(f.calls, "start")
	f.startedKey = s3Name
	return f.jobID, f.startErr
}

func (f *fakeAPI) LinkJob(_ context.Context, documentID, jobID string) error {
	f.calls = append(f.calls, "link")
	f.linkedDoc = documentID
	f.linkedJob = jobID
	return f.linkErr
}

func newTestPipeline(api API) (*Pipeline, *[]string) {
	var lines []string
	p := NewPipeline(api, func(s string) { lines = append(lines, s) })
	p.NewKey = func() string { return "k1.pdf" }
	return p, &lines
}

func reportPDF() File {
	return File{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
}

func TestPipelineHappyPath(t *testing.T) {
	api := &fakeAPI{
		presign: PresignResponse{URL: "https://docs.s3.amazonaws.com/k1.pdf?X-Amz-Signature=abc"},
		docID:   "D1",
		jobID:   "job-123",
	}
	p, lines := newTestPipeline(api)

	out, err := p.Run(context.Background(), reportPDF())
	require.NoError(t, err)

	assert.Equal(t, Outcome{DocumentID: "D1", S3Name: "k1.pdf", JobID: "job-123", ReaderPath: "/reader/D1?jobUUID=job-123"}, out)
	assert.Equal(t, []string{"presign", "upload", "record", "start", "link"}, api.calls)
	assert.Equal(t, "https://docs.s3.amazonaws.com/k1.pdf", api.recordedURL)
	assert.Equal(t, "application/pdf", api.uploadedType)
	assert.Equal(t, "k1.pdf", api.startedKey)
	assert.Equal(t, "D1", api.linkedDoc)
	assert.Equal(t, "job-123", api.linkedJob)
	assert.Equal(t, []string{
		"Fetching presigned url...",
		"Uploading to S3...",
		"Upload Successful. Storing document in your user profile...",
		"File uploaded and stored on your user profile successfully",
		"Retrieving Textract Job ID...",
		"Textract analysis initiated successfully with jobID job-123",
	}, *lines)
}

func TestPipelinePrefersServerObjectURL(t *testing.T) {
	api := &fakeAPI{
		presign: PresignResponse{URL: "https://signed?sig=1", ObjectURL: "https://docs/k1.pdf"},
		docID:   "D1",
		jobID:   "job-1",
	}
	p, _ := newTestPipeline(api)
	_, err := p.Run(context.Background(), reportPDF())
	require.NoError(t, err)
	assert.Equal(t, "https://docs/k1.pdf", api.recordedURL)
}

func TestPipelinePresignFailureStopsBeforeUpload(t *testing.T) {
	api := &fakeAPI{presignErr: errors.New("AccessDenied")}
	p, lines := newTestPipeline(api)

	_, err := p.Run(context.Background(), reportPDF())
	require.ErrorIs(t, err, ErrPresign)
	assert.Equal(t, []string{"presign"}, api.calls)
	assert.Equal(t, "Failed to get presigned url: AccessDenied", (*lines)[len(*lines)-1])
}

func TestPipelineUploadFailureSkipsRecord(t *testing.T) {
	api := &fakeAPI{presign: PresignResponse{URL: "https://u"}, uploadErr: errors.New("Forbidden")}
	p, lines := newTestPipeline(api)

	_, err := p.Run(context.Background(), reportPDF())
	require.ErrorIs(t, err, ErrUpload)
	assert.Equal(t, []string{"presign", "upload"}, api.calls)
	assert.Equal(t, "Upload failed: Forbidden", (*lines)[len(*lines)-1])
}

func TestPipelineRecordFailureSkipsAnalysis(t *testing.T) {
	api := &fakeAPI{presign: PresignResponse{URL: "https://u"}, recordErr: errors.New("No authenticated user")}
	p, lines := newTestPipeline(api)

	out, err := p.Run(context.Background(), reportPDF())
	require.ErrorIs(t, err, ErrRecord)
	assert.Equal(t, "k1.pdf", out.S3Name)
	assert.Equal(t, []string{"presign", "upload", "record"}, api.calls)
	assert.Equal(t, "File uploaded but failed to be stored on the user profile successfully", (*lines)[len(*lines)-1])
}

func TestPipelineStartFailure(t *testing.T) {
	api := &fakeAPI{presign: PresignResponse{URL: "https://u"}, docID: "D1", startErr: errors.New("500 Error: Unexpected response from Textract")}
	p, lines := newTestPipeline(api)

	out, err := p.Run(context.Background(), reportPDF())
	require.ErrorIs(t, err, ErrStart)
	assert.Equal(t, "D1", out.DocumentID)
	assert.Empty(t, out.ReaderPath)
	assert.NotContains(t, api.calls, "link")
	assert.Equal(t, "Failed to initiate Textract analysis: 500 Error: Unexpected response from Textract", (*lines)[len(*lines)-1])
}

func TestPipelineEmptyJobID(t *testing.T) {
	api := &fakeAPI{presign: PresignResponse{URL: "https://u"}, docID: "D1"}
	p, lines := newTestPipeline(api)

	_, err := p.Run(context.Background(), reportPDF())
	require.ErrorIs(t, err, ErrStart)
	assert.Equal(t, "No Textract job ID available. Please upload a file first.", (*lines)[len(*lines)-1])
}

func TestPipelineLinkFailureIsReportedNotFatal(t *testing.T) {
	api := &fakeAPI{presign: PresignResponse{URL: "https://u"}, docID: "D1", jobID: "job-9", linkErr: errors.New("Document not found")}
	p, lines := newTestPipeline(api)

	out, err := p.Run(context.Background(), reportPDF())
	require.NoError(t, err)
	assert.Equal(t, "/reader/D1?jobUUID=job-9", out.ReaderPath)
	assert.Equal(t, "Failed to link Textract job to document: Document not found", (*lines)[len(*lines)-1])
}

func TestPipelineWithoutDocumentIDSkipsLink(t *testing.T) {
	api := &fakeAPI{presign: PresignResponse{URL: "https://u"}, docID: "", jobID: "job-123"}
	p, lines := newTestPipeline(api)

	out, err := p.Run(context.Background(), reportPDF())
	require.NoError(t, err)
	assert.Equal(t, "job-123", out.JobID)
	assert.Empty(t, out.ReaderPath)
	assert.Equal(t, []string{"presign", "upload", "record", "start"}, api.calls)
	assert.Equal(t, "Textract analysis initiated successfully with jobID job-123", (*lines)[len(*lines)-1])
}

func TestDefaultKeysUseFixedExtension(t *testing.T) {
	api := &fakeAPI{presign: PresignResponse{URL: "https://u"}, docID: "D1", jobID: "job-1"}
	p := NewPipeline(api, nil)

	out, err := p.Run(context.Background(), File{Name: "scan.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f-]{36}\.pdf$`, out.S3Name)
	assert.Equal(t, out.S3Name, api.startedKey)
}
