// Package id generates trade identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces lexicographically increasing ULIDs.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator returns a generator seeded from crypto/rand.
func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewGeneratorWithSource(rand.New(rand.NewSource(seed)), time.Now)
}

// NewGeneratorWithSource returns a generator using the given entropy and clock.
func NewGeneratorWithSource(src io.Reader, now func() time.Time) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(src, 0),
		now:     now,
	}
}

// New returns a ULID string. IDs from the same generator are strictly
// increasing, including within one millisecond.
func (g *Generator) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var defaultGenerator = NewGenerator()

// New returns a ULID from the package generator.
func New() string {
	id, err := defaultGenerator.New()
	if err != nil {
		// Only possible if the clock goes backwards past the monotonic window
		// or entropy is exhausted.
		panic(err)
	}
	return id
}
