package utils

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ContentHash fingerprints text for deduplication and cache keys.
// Whitespace is trimmed so trailing-newline variants hash identically.
func ContentHash(input string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(input)))
	return fmt.Sprintf("%x", hash)
}
