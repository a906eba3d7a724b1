// Package entropy provides the uniform random source behind the
// probabilistic trigger roll. Production runs draw from random.org (pooled,
// with crypto/rand fallback); tests and the wargame tool inject a seeded
// source so every roll is reproducible.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source yields uniform random float64 values in [0, 1). The trigger
// evaluator consumes exactly one draw per evaluation.
type Source interface {
	Float() float64
}

// Crypto returns a Source backed by crypto/rand. It never blocks on an
// external service and is the default when no random.org key is configured.
func Crypto() Source {
	return cryptoSource{}
}

type cryptoSource struct{}

func (cryptoSource) Float() float64 {
	return cryptoRandFloat()
}

// cryptoRandFloat generates a uniform float64 in [0, 1) using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// Should never happen; 0.5 keeps the roll neutral rather than
		// pinning it to always-trigger or never-trigger.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Seeded returns a deterministic Source for tests and offline tuning runs.
// Not safe for concurrent use; wrap with Locked if shared across goroutines.
func Seeded(seed int64) Source {
	return &seededSource{rng: mathrand.New(mathrand.NewSource(seed))}
}

type seededSource struct {
	rng *mathrand.Rand
}

func (s *seededSource) Float() float64 {
	return s.rng.Float64()
}

// Fixed returns a Source that always yields the same value. Used in tests to
// force the trigger roll to a known side of the threshold.
func Fixed(v float64) Source {
	return fixedSource(v)
}

type fixedSource float64

func (f fixedSource) Float() float64 {
	return float64(f)
}

// Locked wraps a Source with a mutex so it can be shared across concurrent
// evaluations (the batch runner fans out per-country work).
func Locked(src Source) Source {
	return &lockedSource{src: src}
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) Float() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float()
}
