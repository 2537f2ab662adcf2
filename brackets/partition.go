package brackets

import (
	"fmt"
	"math/rand"
)

// DefaultPlayersPerGroup is used when the operator does not specify a size.
const DefaultPlayersPerGroup = 4

// GroupSizes splits totalPlayers into ceil(totalPlayers/playersPerGroup)
// near-equal group sizes. The first totalPlayers mod numberOfGroups groups get
// one extra player, so no two sizes differ by more than 1 and the sizes sum to
// totalPlayers exactly.
func GroupSizes(totalPlayers, playersPerGroup int) []int {
	if totalPlayers <= 0 || playersPerGroup <= 0 {
		return nil
	}
	numberOfGroups := (totalPlayers + playersPerGroup - 1) / playersPerGroup
	base := totalPlayers / numberOfGroups
	remainder := totalPlayers % numberOfGroups

	sizes := make([]int, numberOfGroups)
	for i := range sizes {
		sizes[i] = base
		if i < remainder {
			sizes[i]++
		}
	}
	return sizes
}

// GroupName labels groups "Group A", "Group B", ... in creation order.
func GroupName(index int) string {
	return fmt.Sprintf("Group %c", rune('A'+index))
}

// ShufflePlayers permutes the slice in place with a uniform Fisher-Yates
// shuffle. Exact randomness is not a reproducibility requirement, only
// uniformity.
func ShufflePlayers[T any](players []T) {
	rand.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
}
