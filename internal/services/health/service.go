package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docreader-backend/internal/shared/server/respond"
	"docreader-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Service reports liveness and, when a database is configured, its reachability.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. db may be nil for in-memory mode.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status returns the health payload and whether every dependency is reachable.
func (s *Service) Status(ctx context.Context) (gin.H, bool) {
	out := gin.H{"ok": true, "storage": "memory"}
	if s == nil || s.DB == nil {
		return out, true
	}
	out["storage"] = "postgres"

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		out["ok"] = false
		out["db"] = err.Error()
		return out, false
	}
	if version, err := db.MigrationVersion(ctx, s.DB); err == nil {
		out["schemaVersion"] = version
	}
	return out, true
}

// RegisterRoutes attaches GET /health.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		payload, ok := s.Status(c.Request.Context())
		if !ok {
			respond.JSON(c, http.StatusServiceUnavailable, payload)
			return
		}
		respond.OK(c, payload)
	})
}
