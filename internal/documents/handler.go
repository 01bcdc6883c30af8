package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docreader-backend/internal/shared/server/middleware"
	"docreader-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.record)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id/job", h.linkJob)
}

func (h *Handler) record(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Svc.Record(c.Request.Context(), middleware.UserIDFromContext(c), req.FileName, req.S3Name, req.S3URL)
	if err != nil {
		writeError(c, err, "failed to store document")
		return
	}
	c.Set("documentId", doc.ID)
	respond.Created(c, toResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	docs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}
	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) linkJob(c *gin.Context) {
	id := c.Param("id")
	var req linkJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("documentId", id)
	c.Set("jobId", req.JobID)

	linked, err := h.Svc.LinkJob(c.Request.Context(), middleware.UserIDFromContext(c), id, req.JobID)
	if err != nil {
		writeError(c, err, "failed to link job")
		return
	}
	respond.OK(c, linkJobResponse{DocumentID: id, JobID: req.JobID, Linked: linked})
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNoAuthenticatedUser):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "No authenticated user", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, gin.H{"cause": err.Error()})
	}
}
