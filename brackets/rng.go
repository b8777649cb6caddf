package brackets

import (
	"strconv"
	"time"
)

// HashSeed folds a string into a signed 32-bit seed with the polynomial
// rolling hash h = 31*h + c, evaluated with int32 overflow. "abc" hashes to
// 96354 and the empty string to 0.
func HashSeed(s string) int32 {
	var h int32
	for _, c := range s {
		h = 31*h + int32(c)
	}
	return h
}

// RNG is a small deterministic generator (mulberry32 over a 32-bit state).
// It is not safe for concurrent use; give every goroutine its own value.
type RNG struct {
	state uint32
}

func NewRNG(seed string) *RNG {
	return &RNG{state: uint32(HashSeed(seed))}
}

// NewTimeSeededRNG is used when the caller did not ask for reproducibility.
func NewTimeSeededRNG() *RNG {
	return NewRNG(strconv.FormatInt(time.Now().UnixNano(), 10))
}

// Next returns a float in [0,1).
func (r *RNG) Next() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	t ^= t >> 14
	return float64(t) / 4294967296.0
}

// Int returns an integer in [min, max]. The bounds are swapped if reversed.
func (r *RNG) Int(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + int(r.Next()*float64(max-min+1))
}

// Pick returns a uniformly chosen element. It panics on an empty slice, like
// indexing would.
func Pick[T any](r *RNG, items []T) T {
	return items[r.Int(0, len(items)-1)]
}

// Shuffle returns a Fisher–Yates shuffled copy; the input is not modified.
func Shuffle[T any](r *RNG, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Int(0, i)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
