package server

import (
	"github.com/gin-gonic/gin"

	"docreader-backend/internal/analyses"
	googleauth "docreader-backend/internal/auth"
	"docreader-backend/internal/documents"
	"docreader-backend/internal/reader"
	"docreader-backend/internal/services/health"
	"docreader-backend/internal/shared/auth"
	"docreader-backend/internal/shared/config"
	"docreader-backend/internal/shared/metrics"
	"docreader-backend/internal/shared/server/middleware"
	"docreader-backend/internal/uploads"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config     config.Config
	Signer     *auth.Signer
	Sessions   *googleauth.Sessions
	GoogleAuth *googleauth.GoogleService
	Health     *health.Service
	Uploads    *uploads.Handler
	Documents  *documents.Handler
	Analyses   *analyses.Handler
	Reader     *reader.Handler
	RateLimits map[string]middleware.RateLimitRule
}

// DefaultRateLimits applies a loose default and a tighter bucket for job polling.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"DEFAULT":               {Rate: 10, Burst: 40},
		middleware.PollingGroup: {Rate: 2, Burst: 10},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	rules := deps.RateLimits
	if rules == nil {
		rules = DefaultRateLimits()
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Session(deps.Signer),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: rules,
			GroupFor: middleware.RouteGroups(map[string]string{
				"/api/v1/jobs/:jobId":        middleware.PollingGroup,
				"/api/v1/jobs/:jobId/blocks": middleware.PollingGroup,
			}),
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health == nil {
		deps.Health = health.NewService(nil)
	}
	deps.Health.RegisterRoutes(api)
	registerMeRoutes(api)
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Sessions != nil {
		deps.Sessions.RegisterRoutes(api)
		if deps.Config.Env == "dev" {
			deps.Sessions.RegisterDevRoutes(api.Group("/dev"))
		}
	}
	if deps.Uploads != nil {
		deps.Uploads.RegisterRoutes(api)
	}
	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(api)
	}
	if deps.Analyses != nil {
		deps.Analyses.RegisterRoutes(api)
	}
	if deps.Reader != nil {
		deps.Reader.RegisterRoutes(r)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
