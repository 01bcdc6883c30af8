package analyses

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docreader-backend/internal/shared/server/middleware"
	"docreader-backend/internal/shared/server/respond"
)

// Handler exposes job start and status endpoints.
type Handler struct {
	Starter *Starter
	Checker *StatusChecker
	limiter *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(starter *Starter, checker *StatusChecker) *Handler {
	return &Handler{
		Starter: starter,
		Checker: checker,
		limiter: newPollLimiter(pollLimitWindow, nil),
	}
}

type startRequest struct {
	S3Name string `json:"s3Name"`
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.start)
	rg.GET("/jobs/:jobId", h.status)
	rg.GET("/jobs/:jobId/blocks", h.blocks)
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.S3Name) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "s3Name is required", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result := h.Starter.Start(ctx, req.S3Name)
	if !result.Success {
		respond.Error(c, http.StatusBadGateway, "analysis_start_failed", result.Error, nil)
		return
	}
	c.Set("jobId", result.JobID)
	respond.OK(c, result)
}

func (h *Handler) status(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("jobId"))
	c.Set("jobId", jobID)
	if !h.limiter.Allow(c.ClientIP(), jobID) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "poll_too_frequent", "job status polled too frequently", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result := h.Checker.Check(ctx, jobID)
	c.Set("jobState", string(result.State))
	respond.OK(c, result)
}

func (h *Handler) blocks(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("jobId"))
	c.Set("jobId", jobID)

	maxResults := h.Checker.PageSize
	if raw := c.Query("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPageSize {
			respond.Error(c, http.StatusBadRequest, "validation_error", "maxResults must be between 1 and 1000", nil)
			return
		}
		maxResults = int32(n)
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result := h.Checker.Page(ctx, jobID, c.Query("nextToken"), maxResults)
	c.Set("jobState", string(result.State))
	respond.OK(c, result)
}
