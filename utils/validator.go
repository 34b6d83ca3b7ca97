// utils/validator.go - Input validation
package utils

import (
	"errors"
	"path"
	"regexp"
	"strings"
)

// ErrInvalidDirectoryPath is returned for submission directories that escape the submission root.
var ErrInvalidDirectoryPath = errors.New("Submission directory must be a relative path inside the submission root")

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// CleanDirectoryPath normalizes a submission directory. Blank stays blank;
// absolute paths and paths climbing out with ".." are rejected.
func CleanDirectoryPath(dir string) (string, error) {
	dir = strings.ReplaceAll(SanitizeInput(dir), "\\", "/")
	if dir == "" {
		return "", nil
	}
	if strings.HasPrefix(dir, "/") {
		return "", ErrInvalidDirectoryPath
	}
	for _, part := range strings.Split(dir, "/") {
		if part == ".." {
			return "", ErrInvalidDirectoryPath
		}
	}
	cleaned := path.Clean(dir)
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}
