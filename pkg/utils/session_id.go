package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GenerateSessionID creates a short, human-readable id for one engagement
// of the controller.
// Format: {prefix}-{vesselID}-{8charHexUUID}
//
// Example:
//   - Input: prefix="burn", vessel=42
//   - Output: "burn-42-a3f8e2b1"
func GenerateSessionID(prefix string, vessel uint32) string {
	return prefix + "-" + strconv.FormatUint(uint64(vessel), 10) + "-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID.
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
