package profile

import "math"

// Bounds is an inclusive range of read lengths.
type Bounds struct {
	Min, Max int
}

// AllLengths accepts reads of any length.
var AllLengths = Bounds{Min: 0, Max: math.MaxInt}

// Contains reports whether Min <= n <= Max.
func (b Bounds) Contains(n int) bool { return n >= b.Min && n <= b.Max }

// LengthIn keys a sequence by its length, skipping sequences outside b.
func LengthIn(b Bounds) func(seq string) (int, bool) {
	return func(seq string) (int, bool) {
		n := len(seq)
		return n, b.Contains(n)
	}
}
