package models

import (
	"strconv"
	"strings"
)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// StringValue dereferences s, treating nil as "".
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to a copy of n.
func IntPtr(n int) *int {
	return &n
}
