package util

import (
	"errors"
	"strings"
)

// SanitizeFileName trims name and rejects blank names and names with a ".."
// path segment. Anything else is returned as given.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	segments := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '\\' })
	for _, seg := range segments {
		if seg == ".." {
			return "", errors.New("invalid file name")
		}
	}
	return s, nil
}
