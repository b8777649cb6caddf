package brackets

// seedPatterns lists, slot by slot, which seed occupies each position of a
// standard bracket: seed 1 meets seed N, seed 2 meets seed N-1, and the top
// two seeds can only meet in the final.
var seedPatterns = map[int][]int{
	2:  {1, 2},
	4:  {1, 4, 2, 3},
	8:  {1, 8, 4, 5, 2, 7, 3, 6},
	16: {1, 16, 8, 9, 5, 12, 4, 13, 6, 11, 3, 14, 7, 10, 2, 15},
	32: {
		1, 32, 16, 17, 9, 24, 8, 25, 5, 28, 12, 21, 13, 20, 4, 29,
		3, 30, 14, 19, 11, 22, 6, 27, 7, 26, 10, 23, 15, 18, 2, 31,
	},
}

// SeedOrder returns the seed number (1-based) placed in each slot of a bracket
// of the given size. Sizes without a table entry fall back to sequential
// placement, seed k in slot k; such brackets lose the guarantee that top seeds
// are kept apart.
func SeedOrder(size int) []int {
	if pattern, ok := seedPatterns[size]; ok {
		out := make([]int, len(pattern))
		copy(out, pattern)
		return out
	}
	out := make([]int, size)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// NextPowerOfTwo returns the smallest power of two >= n, and 1 for n <= 1.
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

func log2(n int) int {
	rounds := 0
	for n > 1 {
		n >>= 1
		rounds++
	}
	return rounds
}
