package brackets

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedOrderPairsSumToSizePlusOne(t *testing.T) {
	for _, size := range []int{2, 4, 8, 16, 32} {
		order := SeedOrder(size)
		assert.Len(t, order, size)

		sorted := append([]int(nil), order...)
		sort.Ints(sorted)
		for i, seed := range sorted {
			assert.Equal(t, i+1, seed, "size %d must use every seed once", size)
		}
		for i := 0; i < size; i += 2 {
			assert.Equal(t, size+1, order[i]+order[i+1], "size %d slot pair %d", size, i/2)
		}
	}
}

func TestSeedOrderKeepsTopSeedsInOppositeHalves(t *testing.T) {
	for _, size := range []int{4, 8, 16, 32} {
		order := SeedOrder(size)
		half := size / 2
		var top, second int
		for slot, seed := range order {
			switch seed {
			case 1:
				top = slot
			case 2:
				second = slot
			}
		}
		assert.NotEqual(t, top < half, second < half, "size %d", size)
	}
}

func TestSeedOrderFallsBackToSequential(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, SeedOrder(6))

	order := SeedOrder(4)
	order[0] = 99
	assert.Equal(t, 1, SeedOrder(4)[0], "returned slice must be a copy")
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 8: 8, 9: 16, 17: 32, 33: 64}
	for in, want := range cases {
		assert.Equal(t, want, NextPowerOfTwo(in), "n=%d", in)
	}
}
