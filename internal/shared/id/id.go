// Package id provides ID generation for the backend.
//
// Two formats are in use:
//   - ULIDs with a type prefix (req_*, refresh_*) for request and background
//     run correlation in logs; they sort by creation time
//   - UUIDs for flows, matching the ids the flow editor routes on (/flow/<uuid>)
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// RequestID identifies an API request
type RequestID string

// RefreshID identifies one run of the template refresh
type RefreshID string

// FlowID identifies a flow created from a template
type FlowID string

const (
	RequestPrefix = "req"
	RefreshPrefix = "refresh"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand with monotonic
// ordering inside the same millisecond
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(ulid.Monotonic(rand.Reader, 0))
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates "<prefix>_<ulid>"
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewRequestID generates a request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewRefreshID generates a refresh run ID
func NewRefreshID() RefreshID {
	return RefreshID(Default().GenerateWithPrefix(RefreshPrefix))
}

// NewFlowID generates a flow ID
func NewFlowID() FlowID {
	return FlowID(uuid.New().String())
}

func (id RequestID) String() string { return string(id) }
func (id RefreshID) String() string { return string(id) }
func (id FlowID) String() string    { return string(id) }

// ============================================================================
// Parsing
// ============================================================================

// IsValid reports whether s is a ULID, with or without a prefix
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse parses a ULID, stripping a "<prefix>_" if present
func Parse(s string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	return ulid.Parse(s)
}

// Timestamp extracts the creation time of a ULID
func Timestamp(s string) (time.Time, error) {
	parsed, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// IsFlowID reports whether s is a canonical UUID
func IsFlowID(s string) bool {
	parsed, err := uuid.Parse(s)
	return err == nil && parsed.String() == strings.ToLower(s)
}
