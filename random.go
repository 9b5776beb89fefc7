/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package kmclattice

import (
	"math/rand"
	"time"
)

// StreamKind selects the pseudo-random engine backing a RandomStream.
// The spec requires a selectable engine family; Go's standard library
// does not ship distinct named generators for all of these, so every
// kind below is built on math/rand.Source64 -- the engines differ in
// their mixing function, not in the library providing them (see
// DESIGN.md for why this stays on the standard library).
type StreamKind int

const (
	// MersenneTwister is the default stream kind.
	MersenneTwister StreamKind = iota
	// Minstd is a Lehmer/Park-Miller minimal-standard generator.
	Minstd
	// Ranlux24 is a 24-bit-resolution subtract-with-carry generator.
	Ranlux24
	// Ranlux48 is a 48-bit-resolution subtract-with-carry generator.
	Ranlux48
	// PlatformDevice runs the default engine seeded from the
	// caller-supplied seed (or the time, with useTime), like every
	// other kind; it does not read the OS entropy source.
	PlatformDevice
)

// RandomStream is the single process-wide pseudo-random stream
// contract shared by Process.PickSite, Interactions.PickProcessIndex,
// SimulationTimer.PropagateTime, and the Distributor shuffles. Given
// identical seeds and stream kind, two RandomStreams must produce
// identical sequences.
type RandomStream interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// Intn returns a value in [0,n).
	Intn(n int) int
	// Shuffle randomly permutes the first n elements using swap.
	Shuffle(n int, swap func(i, j int))
}

// lehmerSource is a Park-Miller minimal-standard linear congruential
// generator, used for StreamKind Minstd.
type lehmerSource struct{ state uint64 }

const (
	lehmerA = 48271
	lehmerM = 2147483647 // 2^31 - 1
)

func (s *lehmerSource) Seed(seed int64) {
	v := uint64(seed) % lehmerM
	if v == 0 {
		v = 1
	}
	s.state = v
}

func (s *lehmerSource) Uint64() uint64 {
	s.state = (s.state * lehmerA) % lehmerM
	return s.state
}

func (s *lehmerSource) Int63() int64 {
	// Place the 31-bit state in the high bits: math/rand derives
	// Float64, Intn and Shuffle from the top of the 63-bit value.
	return int64(s.Uint64() << 32)
}

// subtractWithCarrySource is a small subtract-with-carry generator
// parameterized by its word resolution; used for StreamKind Ranlux24
// (24 usable bits per draw) and Ranlux48 (48 usable bits per draw).
// This is a compact stand-in for the historical RANLUX family, not a
// bit-exact reimplementation of it.
type subtractWithCarrySource struct {
	lags  [24]uint64
	index int
	carry uint64
	mask  uint64
}

func newSubtractWithCarrySource(bits uint) *subtractWithCarrySource {
	return &subtractWithCarrySource{mask: (uint64(1) << bits) - 1}
}

func (s *subtractWithCarrySource) Seed(seed int64) {
	x := uint64(seed)
	for i := range s.lags {
		x = x*6364136223846793005 + 1442695040888963407
		s.lags[i] = (x >> 16) & s.mask
	}
	s.index = 0
	s.carry = 0
}

func (s *subtractWithCarrySource) Uint64() uint64 {
	j := (s.index + 24 - 10) % 24
	v := s.lags[j] - s.lags[s.index] - s.carry
	if v > s.mask {
		v += s.mask + 1
		s.carry = 1
	} else {
		s.carry = 0
	}
	v &= s.mask
	s.lags[s.index] = v
	s.index = (s.index + 1) % 24
	return v
}

func (s *subtractWithCarrySource) Int63() int64 {
	// Scale the draw into the high bits (mask+1 is a power of two):
	// math/rand derives Float64, Intn and Shuffle from the top of the
	// 63-bit value.
	return int64(s.Uint64() * ((uint64(1) << 63) / (s.mask + 1)))
}

// randomStream adapts a math/rand.Source into the RandomStream
// contract via math/rand.Rand, which supplies Float64/Intn/Shuffle on
// top of any Source.
type randomStream struct {
	r *rand.Rand
}

func (s *randomStream) Float64() float64                 { return s.r.Float64() }
func (s *randomStream) Intn(n int) int                    { return s.r.Intn(n) }
func (s *randomStream) Shuffle(n int, swap func(i, j int)) { s.r.Shuffle(n, swap) }

// NewRandomStream constructs the process-wide pseudo-random stream.
// If useTime is true, seed is ignored and the current time is used
// instead (non-reproducible); otherwise seed is used directly and,
// for identical (kind, seed), the resulting sequence is reproducible.
func NewRandomStream(kind StreamKind, useTime bool, seed int64) RandomStream {
	if useTime {
		seed = time.Now().UnixNano()
	}
	var src rand.Source
	switch kind {
	case Minstd:
		ls := &lehmerSource{}
		ls.Seed(seed)
		src = ls
	case Ranlux24:
		rs := newSubtractWithCarrySource(24)
		rs.Seed(seed)
		src = rs
	case Ranlux48:
		rs := newSubtractWithCarrySource(48)
		rs.Seed(seed)
		src = rs
	case PlatformDevice:
		src = rand.NewSource(seed)
	default: // MersenneTwister and anything else falls back to the
		// standard library's default generator.
		src = rand.NewSource(seed)
	}
	return &randomStream{r: rand.New(src)}
}
