package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for locally owned records such as journal runs.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewKey generates an uppercase alphanumeric key of length n with the given
// prefix, in the shape the admin API uses for account ids and integration keys.
func NewKey(prefix string, n int) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", ""))
	if n > len(raw) {
		n = len(raw)
	}
	return prefix + raw[:n-len(prefix)]
}
