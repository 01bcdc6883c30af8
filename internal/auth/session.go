package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	sharedauth "docreader-backend/internal/shared/auth"
	"docreader-backend/internal/shared/server/middleware"
	"docreader-backend/internal/shared/server/respond"
)

// Sessions writes signed session cookies.
type Sessions struct {
	Signer *sharedauth.Signer
	Secure bool
}

// NewSessions builds Sessions. Cookies are marked Secure outside dev.
func NewSessions(signer *sharedauth.Signer, env string) *Sessions {
	return &Sessions{Signer: signer, Secure: env != "dev"}
}

// Issue signs claims and sets the session cookie on the response.
func (s *Sessions) Issue(c *gin.Context, claims sharedauth.Claims) (string, error) {
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(s.Signer.TTL().Seconds()), "/", "", s.Secure, true)
	return token, nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", s.Secure, true)
}

// RegisterRoutes attaches logout.
func (s *Sessions) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", func(c *gin.Context) {
		s.Clear(c)
		c.Status(http.StatusNoContent)
	})
}

// RegisterDevRoutes attaches POST /session, which signs in as any user id.
// Only mounted when ENV=dev.
func (s *Sessions) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/session", s.devSession)
}

type devSessionRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (s *Sessions) devSession(c *gin.Context) {
	var req devSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "invalid JSON body", nil)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "userId is required", nil)
		return
	}
	claims := sharedauth.Claims{Email: req.Email, Name: req.Name}
	claims.Subject = req.UserID
	token, err := s.Issue(c, claims)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to issue session", nil)
		return
	}
	respond.OK(c, gin.H{"userId": req.UserID, "token": token})
}
