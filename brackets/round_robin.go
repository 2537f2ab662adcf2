package brackets

// RoundRobinPairs lists every unordered pair of roster indexes exactly once,
// in nested-loop order (i, j) with i < j. For n players the result has
// n*(n-1)/2 entries.
func RoundRobinPairs(n int) [][2]int {
	if n < 2 {
		return nil
	}
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}
