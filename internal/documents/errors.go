package documents

import "errors"

var (
	ErrNotFound            = errors.New("document not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNoAuthenticatedUser = errors.New("no authenticated user")
)
