package brackets

import (
	"fmt"
	"math"
	"sort"

	"github.com/bgaliyev/cue-league/models"
)

// StructureBuilder holds the pure bracket arithmetic: sizes, round counts,
// seed-to-slot mappings and next-match addressing. It touches no storage.
type StructureBuilder struct{}

func NewStructureBuilder() StructureBuilder {
	return StructureBuilder{}
}

// standardSeedOrders are the classic seeding layouts for small brackets,
// listed as seed -> 0-indexed slot. Larger sizes are derived recursively.
var standardSeedOrders = map[int]map[int]int{
	2: {1: 0, 2: 1},
	4: {1: 0, 4: 1, 3: 2, 2: 3},
	8: {1: 0, 8: 1, 5: 2, 4: 3, 3: 4, 6: 5, 7: 6, 2: 7},
	16: {
		1: 0, 16: 1, 9: 2, 8: 3, 5: 4, 12: 5, 13: 6, 4: 7,
		3: 8, 14: 9, 11: 10, 6: 11, 7: 12, 10: 13, 15: 14, 2: 15,
	},
}

// BracketSize returns the smallest power of two that fits n participants.
func (StructureBuilder) BracketSize(n int) (int, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: need at least 2 participants, got %d", ErrNotEnoughParticipants, n)
	}
	size := 1 << uint(math.Ceil(math.Log2(float64(n))))
	return size, nil
}

// TotalRounds returns log2(size) for a power-of-two bracket size.
func (StructureBuilder) TotalRounds(size int) int {
	rounds := 0
	for s := size; s > 1; s >>= 1 {
		rounds++
	}
	return rounds
}

// ByeCount returns how many round-1 slots stay empty.
func (StructureBuilder) ByeCount(size, n int) int {
	return size - n
}

// MatchesInRound returns the match count of a 1-indexed round.
func (StructureBuilder) MatchesInRound(size, round int) int {
	return size >> uint(round)
}

// SeedPositions maps each seed 1..n to its 0-indexed round-1 bracket slot.
// Fair mode pairs adjacent seeds and routes byes to the top seeds; standard
// mode uses classic seeding so the top two seeds can only meet in the final.
func (b StructureBuilder) SeedPositions(size, n int, mode models.SeedingMode) (map[int]int, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("bracket size must be a power of two >= 2, got %d", size)
	}
	if n < 2 || n > size {
		return nil, fmt.Errorf("participant count %d does not fit bracket size %d", n, size)
	}

	switch mode {
	case models.SeedingStandard:
		return b.standardPositions(size), nil
	case models.SeedingFair, "":
		if size == n {
			positions := make(map[int]int, n)
			for s := 1; s <= n; s++ {
				positions[s] = s - 1
			}
			return positions, nil
		}
		return b.fairByePositions(size, n), nil
	default:
		return nil, fmt.Errorf("unknown seeding mode %q", mode)
	}
}

// fairByePositions places the top byeCount seeds alone into bye matches that
// alternate between the top and bottom of the round-1 order, then fills the
// remaining matches with adjacent seed pairs.
func (StructureBuilder) fairByePositions(size, n int) map[int]int {
	byeCount := size - n
	matches := size / 2

	byeMatches := make([]int, 0, byeCount)
	front, back := 0, matches-1
	for i := 0; i < byeCount; i++ {
		if i%2 == 0 {
			byeMatches = append(byeMatches, front)
			front++
		} else {
			byeMatches = append(byeMatches, back)
			back--
		}
	}

	isBye := make(map[int]bool, byeCount)
	for _, mi := range byeMatches {
		isBye[mi] = true
	}

	positions := make(map[int]int, n)
	for s := 1; s <= byeCount; s++ {
		positions[s] = 2 * byeMatches[s-1]
	}

	playMatches := make([]int, 0, matches-byeCount)
	for mi := 0; mi < matches; mi++ {
		if !isBye[mi] {
			playMatches = append(playMatches, mi)
		}
	}
	sort.Ints(playMatches)

	seed := byeCount + 1
	for _, mi := range playMatches {
		positions[seed] = 2 * mi
		positions[seed+1] = 2*mi + 1
		seed += 2
	}
	return positions
}

// standardPositions returns the classic layout, from the fixed tables for
// sizes up to 16 and by recursive doubling above that. When the bracket
// doubles, a seed at position p keeps its side of the new pair (2p when p is
// even, 2p+1 when odd) and its complement (nextSize+1-s) takes the other
// slot. That parity rule reproduces the fixed tables exactly, so the layout
// stays continuous across the table/recursion boundary, with seeds 1 and 2
// in opposite halves at every depth.
func (StructureBuilder) standardPositions(size int) map[int]int {
	if table, ok := standardSeedOrders[size]; ok {
		out := make(map[int]int, len(table))
		for s, p := range table {
			out[s] = p
		}
		return out
	}

	current := map[int]int{1: 0, 2: 1}
	for currentSize := 2; currentSize < size; currentSize *= 2 {
		nextSize := currentSize * 2
		next := make(map[int]int, nextSize)
		for s, p := range current {
			if p%2 == 0 {
				next[s] = 2 * p
				next[nextSize+1-s] = 2*p + 1
			} else {
				next[s] = 2*p + 1
				next[nextSize+1-s] = 2 * p
			}
		}
		current = next
	}
	return current
}

// NextMatchInfo tells where the winner of a match at the given position in
// its round goes: the slot it fills and the position of the next match.
func (StructureBuilder) NextMatchInfo(position int) (nextPosition int, slot models.Slot) {
	if position%2 == 0 {
		return position / 2, models.SlotPlayer1
	}
	return position / 2, models.SlotPlayer2
}

// RoundName gives the human name of a round, counting back from the final.
func (StructureBuilder) RoundName(matchesInRound, round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semi-Finals"
	case 2:
		return "Quarter-Finals"
	default:
		return fmt.Sprintf("Round of %d", matchesInRound*2)
	}
}

// MatchTypeForRound classifies a regular bracket match by distance from the
// final. Bye and third-place overrides are applied elsewhere.
func (StructureBuilder) MatchTypeForRound(round, totalRounds int) models.MatchType {
	switch totalRounds - round {
	case 0:
		return models.MatchTypeFinal
	case 1:
		return models.MatchTypeSemiFinal
	case 2:
		return models.MatchTypeQuarterFinal
	default:
		return models.MatchTypeRegular
	}
}
