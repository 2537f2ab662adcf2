package brackets

import (
	"fmt"
	"math"
)

// Pair is a single bracket pairing. Position is the match's stable index
// within its round and is used to order winners when the next round is built.
type Pair struct {
	Player1ID int
	Player2ID int
	Position  int
}

// BracketSize returns the next power of two that fits playerCount.
func BracketSize(playerCount int) int {
	if playerCount <= 1 {
		return 1
	}
	return 1 << uint(math.Ceil(math.Log2(float64(playerCount))))
}

// TotalRounds is the number of rounds a full bracket of playerCount needs.
func TotalRounds(playerCount int) int {
	if playerCount <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(playerCount))))
}

// RoundName derives the display name of a round from its distance to the
// final: "Final", "Semi-finals", "Quarter-finals", "Round of 16", otherwise
// "Round {n}".
func RoundName(totalRounds, round int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semi-finals"
	case 2:
		return "Quarter-finals"
	case 3:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

// PairConsecutive pairs players (0,1), (2,3), ... producing floor(n/2) pairs.
// With an odd count the last player is returned unpaired; whether that player
// gets a bye is the caller's decision.
func PairConsecutive(playerIDs []int) (pairs []Pair, unpaired *int) {
	n := len(playerIDs)
	pairs = make([]Pair, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		pairs = append(pairs, Pair{
			Player1ID: playerIDs[i],
			Player2ID: playerIDs[i+1],
			Position:  i / 2,
		})
	}
	if n%2 == 1 {
		unpaired = &playerIDs[n-1]
	}
	return pairs, unpaired
}
