package brackets

import (
	"context"
	"errors"

	"github.com/bgaliyev/cue-league/models"
)

var (
	ErrNotEnoughParticipants = errors.New("not enough participants to generate a bracket")
	ErrNoWinner              = errors.New("match has no winner to advance")
	ErrBracketAlreadyExists  = errors.New("tournament already has bracket matches")
)

// RoundSummary describes one round of a generated bracket.
type RoundSummary struct {
	Round   int    `json:"round"`
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// BracketResult summarizes a completed generation pass.
type BracketResult struct {
	BracketSize         int            `json:"bracket_size"`
	TotalRounds         int            `json:"total_rounds"`
	ByeCount            int            `json:"bye_count"`
	MatchesCreated      int            `json:"matches_created"`
	ByeMatchesProcessed int            `json:"bye_matches_processed"`
	Rounds              []RoundSummary `json:"rounds"`
}

// Generator is the capability contract one bracket format implements. The
// dispatcher walks a registry of these and picks the first that supports
// the tournament, so new formats plug in without touching the dispatch.
type Generator interface {
	// Supports reports whether this generator can build brackets for the
	// tournament's format.
	Supports(t *models.Tournament) bool

	// Generate builds the full bracket for the tournament: seeding, match
	// creation, linking, round-1 population and bye resolution.
	Generate(ctx context.Context, t *models.Tournament) (*BracketResult, error)

	// AdvanceWinner writes a completed match's winner into its next match
	// slot. A match without a next match is a defined no-op.
	AdvanceWinner(ctx context.Context, m *models.Match) error

	// MinimumParticipants is the smallest field this format can run with.
	MinimumParticipants() int
}

// SemiFinalHandler is implemented by generators whose brackets carry a
// third-place match fed by semi-final losers.
type SemiFinalHandler interface {
	HandleSemiFinalCompletion(ctx context.Context, m *models.Match) error
}
