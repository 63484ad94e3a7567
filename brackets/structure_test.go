package brackets

import (
	"testing"

	"github.com/bgaliyev/cue-league/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketSize(t *testing.T) {
	b := NewStructureBuilder()

	testCases := []struct {
		participants int
		expected     int
	}{
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
		{33, 64},
	}
	for _, tc := range testCases {
		size, err := b.BracketSize(tc.participants)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, size, "participants=%d", tc.participants)
	}

	_, err := b.BracketSize(1)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
	_, err = b.BracketSize(0)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestTotalRoundsAndByes(t *testing.T) {
	b := NewStructureBuilder()

	assert.Equal(t, 1, b.TotalRounds(2))
	assert.Equal(t, 2, b.TotalRounds(4))
	assert.Equal(t, 3, b.TotalRounds(8))
	assert.Equal(t, 4, b.TotalRounds(16))
	assert.Equal(t, 6, b.TotalRounds(64))

	assert.Equal(t, 2, b.ByeCount(8, 6))
	assert.Equal(t, 0, b.ByeCount(8, 8))
	assert.Equal(t, 7, b.ByeCount(16, 9))

	assert.Equal(t, 4, b.MatchesInRound(8, 1))
	assert.Equal(t, 2, b.MatchesInRound(8, 2))
	assert.Equal(t, 1, b.MatchesInRound(8, 3))
}

func TestSeedPositionsFairWithByes(t *testing.T) {
	b := NewStructureBuilder()

	// 6 participants in a bracket of 8: bye matches alternate between the
	// first and last round-1 matches, so seeds 1 and 2 sit alone while
	// 3v4 and 5v6 play.
	positions, err := b.SeedPositions(8, 6, models.SeedingFair)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{
		1: 0, // match 0, alone
		2: 6, // match 3, alone
		3: 2, 4: 3, // match 1
		5: 4, 6: 5, // match 2
	}, positions)
}

func TestSeedPositionsFairFullBracket(t *testing.T) {
	b := NewStructureBuilder()

	positions, err := b.SeedPositions(4, 4, models.SeedingFair)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 2, 4: 3}, positions)
}

func TestSeedPositionsFairManyByes(t *testing.T) {
	b := NewStructureBuilder()

	// 5 participants in a bracket of 8: three byes at matches 0, 3, 1.
	positions, err := b.SeedPositions(8, 5, models.SeedingFair)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{
		1: 0,
		2: 6,
		3: 2,
		4: 4, 5: 5, // match 2 is the only played match
	}, positions)
}

func TestSeedPositionsStandard(t *testing.T) {
	b := NewStructureBuilder()

	positions, err := b.SeedPositions(8, 8, models.SeedingStandard)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{
		1: 0, 8: 1, 5: 2, 4: 3, 3: 4, 6: 5, 7: 6, 2: 7,
	}, positions)
}

func TestSeedPositionsStandardLargeBracket(t *testing.T) {
	b := NewStructureBuilder()

	positions, err := b.SeedPositions(32, 32, models.SeedingStandard)
	require.NoError(t, err)
	require.Len(t, positions, 32)

	// Seed 1 opens the bracket, seed 2 closes it, and complements pair up.
	assert.Equal(t, 0, positions[1])
	assert.Equal(t, 31, positions[2])
	assert.Equal(t, 1, positions[32])
	assert.Equal(t, 30, positions[31])

	// Seeds 1 and 2 stay in opposite halves so they can only meet in the
	// final.
	assert.Less(t, positions[1], 16)
	assert.GreaterOrEqual(t, positions[2], 16)

	// Every slot is used exactly once.
	used := make(map[int]bool, 32)
	for _, p := range positions {
		assert.False(t, used[p], "slot %d assigned twice", p)
		used[p] = true
	}

	// Doubling keeps continuity with the size-16 table: each of the top 16
	// seeds stays inside the slot pair grown from its size-16 position.
	for seed, p16 := range standardSeedOrders[16] {
		assert.Equal(t, p16, positions[seed]/2,
			"seed %d left its size-16 slot pair", seed)
	}
}

func TestSeedPositionsRejectsBadInput(t *testing.T) {
	b := NewStructureBuilder()

	_, err := b.SeedPositions(6, 6, models.SeedingFair)
	assert.Error(t, err, "non power-of-two size")

	_, err = b.SeedPositions(8, 9, models.SeedingFair)
	assert.Error(t, err, "too many participants")

	_, err = b.SeedPositions(8, 6, models.SeedingMode("snake"))
	assert.Error(t, err, "unknown seeding mode")
}

func TestNextMatchInfo(t *testing.T) {
	b := NewStructureBuilder()

	testCases := []struct {
		position     int
		nextPosition int
		slot         models.Slot
	}{
		{0, 0, models.SlotPlayer1},
		{1, 0, models.SlotPlayer2},
		{2, 1, models.SlotPlayer1},
		{3, 1, models.SlotPlayer2},
		{4, 2, models.SlotPlayer1},
		{5, 2, models.SlotPlayer2},
	}
	for _, tc := range testCases {
		nextPos, slot := b.NextMatchInfo(tc.position)
		assert.Equal(t, tc.nextPosition, nextPos, "position=%d", tc.position)
		assert.Equal(t, tc.slot, slot, "position=%d", tc.position)
	}
}

func TestRoundName(t *testing.T) {
	b := NewStructureBuilder()

	// 16-player bracket, 4 rounds.
	assert.Equal(t, "Round of 16", b.RoundName(8, 1, 4))
	assert.Equal(t, "Quarter-Finals", b.RoundName(4, 2, 4))
	assert.Equal(t, "Semi-Finals", b.RoundName(2, 3, 4))
	assert.Equal(t, "Final", b.RoundName(1, 4, 4))

	// 2-player bracket is just a final.
	assert.Equal(t, "Final", b.RoundName(1, 1, 1))
}

func TestMatchTypeForRound(t *testing.T) {
	b := NewStructureBuilder()

	assert.Equal(t, models.MatchTypeRegular, b.MatchTypeForRound(1, 4))
	assert.Equal(t, models.MatchTypeQuarterFinal, b.MatchTypeForRound(2, 4))
	assert.Equal(t, models.MatchTypeSemiFinal, b.MatchTypeForRound(3, 4))
	assert.Equal(t, models.MatchTypeFinal, b.MatchTypeForRound(4, 4))
}
