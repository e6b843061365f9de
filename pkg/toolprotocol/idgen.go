package toolprotocol

import "github.com/google/uuid"

// IDGenerator produces opaque, unique-within-a-parse identifiers for tool
// calls and text regions. The default generates random UUIDs; tests may
// inject a deterministic generator.
type IDGenerator func() string

// DefaultIDGenerator generates a new random UUID string, exactly as the
// teacher's agent run-loop mints run IDs.
func DefaultIDGenerator() string {
	return uuid.New().String()
}
