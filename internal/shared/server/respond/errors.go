package respond

import (
	"github.com/gin-gonic/gin"

	"docreader-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs the failure and aborts with the standardized error envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	for _, key := range []string{"userId", "documentId", "jobId"} {
		if v := c.GetString(key); v != "" {
			fields[logKey(key)] = v
		}
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func logKey(ctxKey string) string {
	switch ctxKey {
	case "userId":
		return "user_id"
	case "documentId":
		return "document_id"
	case "jobId":
		return "job_id"
	}
	return ctxKey
}
