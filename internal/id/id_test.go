package id

import (
	"math/rand"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorMonotonicWithinSameMillisecond(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	g := NewGeneratorWithSource(rand.New(rand.NewSource(1)), func() time.Time { return fixed })

	prev := ""
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := g.New()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		prev = id
	}
}

func TestNewIsParseableULID(t *testing.T) {
	id := New()
	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ulid.Time(parsed.Time()), time.Minute)
}
