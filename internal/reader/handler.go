package reader

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"docreader-backend/internal/analyses"
	"docreader-backend/internal/shared/server/middleware"
	"docreader-backend/internal/shared/server/respond"
)

// StateEvent is the payload of each "state" server-sent event.
type StateEvent struct {
	DocumentID string `json:"documentId"`
	analyses.Result
}

// Handler streams job states for the reader view.
type Handler struct {
	Poller *analyses.Poller
}

// NewHandler constructs a Handler.
func NewHandler(poller *analyses.Poller) *Handler {
	return &Handler{Poller: poller}
}

// RegisterRoutes attaches the reader route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/reader/:documentId", h.stream)
}

// Path returns the reader location for a document and its analysis job.
func Path(documentID, jobID string) string {
	return "/reader/" + url.PathEscape(documentID) + "?jobUUID=" + url.QueryEscape(jobID)
}

func (h *Handler) stream(c *gin.Context) {
	documentID := strings.TrimSpace(c.Param("documentId"))
	jobID := strings.TrimSpace(c.Query("jobUUID"))
	if documentID == "" || jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId and jobUUID are required", nil)
		return
	}
	c.Set("documentId", documentID)
	c.Set("jobId", jobID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := analyses.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	final := h.Poller.Run(ctx, jobID, func(res analyses.Result) {
		c.SSEvent("state", StateEvent{DocumentID: documentID, Result: res})
		c.Writer.Flush()
	})
	c.Set("jobState", string(final.State))
}
