package brackets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
)

// ByeProcessor completes matches that have exactly one assigned player as
// automatic wins and pushes the winner into the next match slot. It never
// walks further down the bracket: a single write per bye, no cascade.
type ByeProcessor struct {
	matchRepo repositories.MatchRepository
	logger    *slog.Logger
}

func NewByeProcessor(matchRepo repositories.MatchRepository, logger *slog.Logger) *ByeProcessor {
	return &ByeProcessor{matchRepo: matchRepo, logger: logger}
}

// IsByeMatch reports whether exactly one of the two slots is filled.
func (p *ByeProcessor) IsByeMatch(m *models.Match) bool {
	return (m.Player1ID != nil) != (m.Player2ID != nil)
}

// ProcessBye completes a bye match as a 0:0 automatic win and writes the
// winner into its next match. Non-bye and already-completed matches are
// no-ops, which makes re-running the pass after a crash safe.
func (p *ByeProcessor) ProcessBye(ctx context.Context, m *models.Match) (bool, error) {
	if m.Status != models.MatchStatusScheduled || !p.IsByeMatch(m) {
		return false, nil
	}

	winnerID := m.Player1ID
	if winnerID == nil {
		winnerID = m.Player2ID
	}

	playedAt := time.Now()
	if err := p.matchRepo.MarkBye(ctx, m.ID, *winnerID, playedAt); err != nil {
		return false, fmt.Errorf("failed to complete bye match %d: %w", m.ID, err)
	}
	m.WinnerID = winnerID
	m.MatchType = models.MatchTypeBye
	m.Status = models.MatchStatusCompleted
	m.Player1Score, m.Player2Score = 0, 0
	m.PlayedAt = &playedAt

	p.logger.Info("bye match completed",
		slog.Int("match_id", m.ID),
		slog.Int("winner_participant_id", *winnerID),
		slog.Int("round", m.Round))

	if m.NextMatchID == nil {
		return true, nil
	}

	slot := models.SlotPlayer1
	if m.NextMatchSlot != nil {
		slot = *m.NextMatchSlot
	}
	if err := p.matchRepo.SetPlayerSlot(ctx, *m.NextMatchID, slot, *winnerID); err != nil {
		return false, fmt.Errorf("failed to advance bye winner %d into match %d: %w", *winnerID, *m.NextMatchID, err)
	}
	return true, nil
}

// ProcessAll applies ProcessBye to every match in the collection and returns
// how many byes were newly completed.
func (p *ByeProcessor) ProcessAll(ctx context.Context, matches []*models.Match) (int, error) {
	processed := 0
	for _, m := range matches {
		done, err := p.ProcessBye(ctx, m)
		if err != nil {
			return processed, err
		}
		if done {
			processed++
		}
	}
	return processed, nil
}
