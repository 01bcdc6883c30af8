package respond

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docreader-backend/internal/shared/telemetry"
)

func TestErrorWritesEnvelopeAndLogsContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Set("requestId", "req-9")
		c.Set("jobId", "job-123")
		Error(c, http.StatusBadGateway, "textract_failed", "boom", gin.H{"attempt": 1})
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusBadGateway, resp.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "textract_failed", body.Error.Code)
	assert.Equal(t, "boom", body.Error.Message)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "job-123", line["job_id"])
	assert.Equal(t, "req-9", line["request_id"])
}

func TestClientErrorsLogAtWarn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	r := gin.New()
	r.GET("/x", func(c *gin.Context) { BadRequest(c, "jobUUID is required", nil) })

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
