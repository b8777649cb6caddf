package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSeed(t *testing.T) {
	assert.Equal(t, int32(0), HashSeed(""))
	assert.Equal(t, int32(96354), HashSeed("abc"))
	assert.Equal(t, int32(1794106052), HashSeed("hello world"))
	// Long inputs wrap around instead of saturating.
	assert.NotEqual(t, HashSeed("a long seed that overflows"), HashSeed("a long seed that overflowz"))
}

func TestRNGKnownSequence(t *testing.T) {
	r := NewRNG("abc")
	assert.InDelta(t, 0.35655662906356156, r.Next(), 1e-12)
	assert.InDelta(t, 0.06145061063580215, r.Next(), 1e-12)
	assert.InDelta(t, 0.007002958562225103, r.Next(), 1e-12)
}

func TestRNGIsDeterministic(t *testing.T) {
	a, b := NewRNG("spring-cup"), NewRNG("spring-cup")
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Next(), b.Next())
	}

	c := NewRNG("autumn-cup")
	same := 0
	a = NewRNG("spring-cup")
	for i := 0; i < 20; i++ {
		if a.Next() == c.Next() {
			same++
		}
	}
	assert.Less(t, same, 20)
}

func TestRNGRanges(t *testing.T) {
	r := NewRNG("ranges")
	for i := 0; i < 1000; i++ {
		v := r.Next()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)

		n := r.Int(3, 7)
		require.GreaterOrEqual(t, n, 3)
		require.LessOrEqual(t, n, 7)

		swapped := r.Int(7, 3)
		require.GreaterOrEqual(t, swapped, 3)
		require.LessOrEqual(t, swapped, 7)
	}
	assert.Equal(t, 5, r.Int(5, 5))
}

func TestPickAndShuffle(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	original := append([]int(nil), items...)

	shuffled := Shuffle(NewRNG("shuffle"), items)
	assert.Equal(t, original, items, "input must not be modified")
	assert.ElementsMatch(t, items, shuffled)
	assert.Equal(t, shuffled, Shuffle(NewRNG("shuffle"), items))

	assert.Empty(t, Shuffle(NewRNG("x"), []int{}))
	assert.Contains(t, items, Pick(NewRNG("pick"), items))
	assert.Panics(t, func() { Pick(NewRNG("pick"), []int{}) })
}
