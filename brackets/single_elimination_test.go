package brackets_test

import (
	"testing"

	"github.com/matchpoint-dev/pingpong-tournaments/brackets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketSize(t *testing.T) {
	tests := []struct {
		playerCount int
		expected    int
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, brackets.BracketSize(tt.playerCount), "playerCount=%d", tt.playerCount)
	}
}

func TestTotalRounds(t *testing.T) {
	tests := []struct {
		playerCount int
		expected    int
	}{
		{1, 0},
		{2, 1},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
		{16, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, brackets.TotalRounds(tt.playerCount), "playerCount=%d", tt.playerCount)
	}
}

func TestRoundName(t *testing.T) {
	tests := []struct {
		name        string
		totalRounds int
		round       int
		expected    string
	}{
		{"final of three rounds", 3, 3, "Final"},
		{"semis of three rounds", 3, 2, "Semi-finals"},
		{"quarters of three rounds", 3, 1, "Quarter-finals"},
		{"final of one round", 1, 1, "Final"},
		{"round of 16", 4, 1, "Round of 16"},
		{"early round of a big bracket", 5, 1, "Round 1"},
		{"second round of a big bracket", 6, 2, "Round 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, brackets.RoundName(tt.totalRounds, tt.round))
		})
	}
}

func TestPairConsecutiveEven(t *testing.T) {
	pairs, unpaired := brackets.PairConsecutive([]int{10, 20, 30, 40})

	require.Len(t, pairs, 2)
	assert.Nil(t, unpaired)
	assert.Equal(t, brackets.Pair{Player1ID: 10, Player2ID: 20, Position: 0}, pairs[0])
	assert.Equal(t, brackets.Pair{Player1ID: 30, Player2ID: 40, Position: 1}, pairs[1])
}

func TestPairConsecutiveOdd(t *testing.T) {
	pairs, unpaired := brackets.PairConsecutive([]int{1, 2, 3, 4, 5})

	require.Len(t, pairs, 2)
	require.NotNil(t, unpaired)
	assert.Equal(t, 5, *unpaired)
}

func TestPairConsecutiveFivePlayersMatchesBracketMath(t *testing.T) {
	// 5 players fit an 8-slot bracket played over 3 rounds, but round 1 only
	// holds floor(5/2) = 2 actual matches.
	players := []int{1, 2, 3, 4, 5}

	assert.Equal(t, 8, brackets.BracketSize(len(players)))
	assert.Equal(t, 3, brackets.TotalRounds(len(players)))

	pairs, unpaired := brackets.PairConsecutive(players)
	assert.Len(t, pairs, 2)
	assert.NotNil(t, unpaired)
}

func TestPairConsecutiveSingle(t *testing.T) {
	pairs, unpaired := brackets.PairConsecutive([]int{7})

	assert.Empty(t, pairs)
	require.NotNil(t, unpaired)
	assert.Equal(t, 7, *unpaired)
}
