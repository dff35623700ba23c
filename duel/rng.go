package duel

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// RNG is the only randomness source a battle may read. Every roll (AI
// sampling, crits, curbstomp, fusion, survival, victim selection) goes
// through the instance owned by the battle.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// NewRNG returns a seeded generator when deterministic is set, otherwise a
// generator seeded from crypto/rand.
func NewRNG(deterministic bool, seed int64) RNG {
	if deterministic {
		return rand.New(rand.NewSource(seed))
	}
	s, err := NewSeed()
	if err != nil {
		s = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(s))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Roll reports whether an event with probability p happens. p <= 0 never
// draws, p >= 1 always hits but still draws so the sequence does not shift
// when content tweaks a chance between 0.99 and 1.
func Roll(rng RNG, p float64) bool {
	if p <= 0 {
		return false
	}
	return rng.Float64() < p
}

// FixedRNG replays a fixed sequence of floats; Intn maps them onto [0,n).
// Used by tests that need to force specific branches.
type FixedRNG struct {
	Values []float64
	pos    int
}

func (r *FixedRNG) Float64() float64 {
	if len(r.Values) == 0 {
		return 0
	}
	v := r.Values[r.pos%len(r.Values)]
	r.pos++
	return v
}

func (r *FixedRNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
