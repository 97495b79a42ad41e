package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateEntityID creates a short, human-readable ID for simulation entities.
// Format: {kind}-{slug}-{8charHexUUID}
//
// Example:
//   - Input: kind="DELIVERY", label="Beta Outpost"
//   - Output: "delivery-beta-outpost-a3f8e2b1"
//
// An empty label is dropped, so kind="resupply" gives "resupply-a3f8e2b1".
func GenerateEntityID(kind, label string) string {
	parts := make([]string, 0, 3)
	if k := slug(kind); k != "" {
		parts = append(parts, k)
	}
	if l := slug(label); l != "" {
		parts = append(parts, l)
	}
	parts = append(parts, generateShortUUID())
	return strings.Join(parts, "-")
}

// slug lowercases s and collapses every run of non-alphanumerics into one hyphen
func slug(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// generateShortUUID creates an 8-character hex string from a UUID
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
