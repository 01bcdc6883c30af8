package uploads

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docreader-backend/internal/shared/server/respond"
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/tiff":      {},
}

// Handler serves presign requests.
type Handler struct {
	issuer *Issuer
}

// NewHandler wires the presign endpoint to issuer.
func NewHandler(issuer *Issuer) *Handler {
	return &Handler{issuer: issuer}
}

type presignRequest struct {
	Key         string `json:"key"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// RegisterRoutes attaches the upload routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/presign", h.presign)
}

func (h *Handler) presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is required", nil)
		return
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", gin.H{"contentType": contentType})
		return
	}
	key := strings.TrimSpace(req.Key)
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid key", nil)
		return
	}

	result := h.issuer.Issue(c.Request.Context(), key, contentType)
	if !result.Success {
		respond.Error(c, http.StatusBadGateway, "presign_failed", "Failed to get presigned url", gin.H{"cause": result.Error})
		return
	}
	respond.OK(c, result)
}
