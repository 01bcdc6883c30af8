package server

import (
	"github.com/gin-gonic/gin"

	"docreader-backend/internal/shared/server/middleware"
	"docreader-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		msg := "No authenticated user"
		if c.GetBool("sessionInvalid") {
			msg = "Session expired or invalid"
		}
		respond.Unauthorized(c, msg)
		return
	}

	response := gin.H{
		"userId": userID,
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["name"] = name
	}
	if picture := middleware.UserPictureFromContext(c); picture != "" {
		response["picture"] = picture
	}

	respond.OK(c, response)
}
