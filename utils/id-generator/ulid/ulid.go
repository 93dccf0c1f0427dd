package ulid

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

/* ========================================================================
 * ULID Generator
 * ========================================================================
 * 128-bit lexicographically sortable identifiers (48-bit millisecond
 * timestamp + 80-bit entropy, Crockford base32, 26 chars). Used for tenant
 * identifiers and other externally visible ids: no node configuration,
 * URL-safe, index-friendly.
 * ======================================================================== */

var (
	globalEntropy io.Reader
	once          sync.Once
	mu            sync.Mutex
)

// Generator produces ULIDs from a caller-supplied entropy source, mainly
// for tests that need determinism.
type Generator struct {
	entropy io.Reader
	mu      sync.Mutex
}

// NewGenerator creates a generator. Passing nil entropy uses crypto/rand.
func NewGenerator(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	// Monotonic entropy keeps same-millisecond ids ordered; it is not
	// concurrency-safe on its own, hence the mutex around MustNew.
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate returns a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString returns a new ULID in string form.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// Generate returns a new ULID from the process-global, crypto/rand-backed
// source.
func Generate() ulid.ULID {
	once.Do(func() {
		globalEntropy = ulid.Monotonic(rand.Reader, 0)
	})
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), globalEntropy)
}

// GenerateString returns a new ULID in string form.
func GenerateString() string {
	return Generate().String()
}

// Parse parses a ULID string.
func Parse(s string) (ulid.ULID, error) {
	return ulid.Parse(s)
}

// MustParse parses a ULID string and panics on failure.
func MustParse(s string) ulid.ULID {
	id, err := ulid.Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Time extracts the embedded timestamp.
func Time(id ulid.ULID) time.Time {
	return ulid.Time(id.Time())
}

// ========================================================================
// ULID <-> UUID bridging, for systems that only speak UUID.
// ========================================================================

// ToUUID reinterprets the 128 bits of a ULID as a UUID. The result does not
// keep ULID's sort order.
func ToUUID(id ulid.ULID) uuid.UUID {
	var u uuid.UUID
	copy(u[:], id[:])
	return u
}

// FromUUID reinterprets the 128 bits of a UUID as a ULID. The result may
// not carry a meaningful timestamp.
func FromUUID(u uuid.UUID) ulid.ULID {
	var id ulid.ULID
	copy(id[:], u[:])
	return id
}

// FromUUIDString parses a UUID string and converts it.
func FromUUIDString(s string) (ulid.ULID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("invalid UUID string: %w", err)
	}
	return FromUUID(u), nil
}
