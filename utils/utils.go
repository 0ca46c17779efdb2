package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a compact random identifier for users and refresh tokens.
func NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
