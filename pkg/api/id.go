package api

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const requestIDPrefix = "codex_"

var requestIDPattern = regexp.MustCompile(`^codex_[0-9a-f]{32}$`)

// NewRequestID generates a call identifier with the "codex_" prefix
// followed by a random UUID in hex form.
func NewRequestID() string {
	return requestIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidateRequestID checks whether the given string is a valid request ID.
func ValidateRequestID(id string) bool {
	return requestIDPattern.MatchString(id)
}
