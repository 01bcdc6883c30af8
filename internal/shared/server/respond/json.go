package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 Created JSON response.
func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}

// BadRequest is shorthand for a 400 validation failure.
func BadRequest(c *gin.Context, message string, details any) {
	Error(c, http.StatusBadRequest, "invalid_request", message, details)
}

// Unauthorized is shorthand for a 401 without a usable session.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "unauthorized", message, nil)
}
