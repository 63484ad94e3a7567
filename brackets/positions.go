package brackets

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
)

// playerStanding accumulates the tie-break statistics of one participant
// over all completed, non-bye matches.
type playerStanding struct {
	participant     *models.Participant
	framesWon       int
	framesLost      int
	eliminatedRound int // 0 while unbeaten
}

func (s *playerStanding) frameDifference() int {
	return s.framesWon - s.framesLost
}

// PositionCalculator assigns final positions 1..N once a tournament is over.
// Positions 1-4 come from the final and third-place results; everyone else
// is ranked by elimination round, then frame difference, frames won, and
// finally seed.
type PositionCalculator struct {
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	logger          *slog.Logger
}

func NewPositionCalculator(
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	logger *slog.Logger,
) *PositionCalculator {
	return &PositionCalculator{
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		logger:          logger,
	}
}

// Calculate computes and persists final positions for every confirmed
// participant. It is a no-op when the tournament has no completed matches.
// It returns how many positions were assigned.
func (c *PositionCalculator) Calculate(ctx context.Context, t *models.Tournament) (int, error) {
	matches, err := c.matchRepo.ListByTournament(ctx, t.ID, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list matches for tournament %d: %w", t.ID, err)
	}

	completed := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == models.MatchStatusCompleted {
			completed = append(completed, m)
		}
	}
	if len(completed) == 0 {
		c.logger.Info("no completed matches, skipping position calculation",
			slog.Int("tournament_id", t.ID))
		return 0, nil
	}

	statusConfirmed := models.ParticipantStatusConfirmed
	participants, err := c.participantRepo.ListByTournament(ctx, t.ID, &statusConfirmed, false)
	if err != nil {
		return 0, fmt.Errorf("failed to list participants for tournament %d: %w", t.ID, err)
	}

	standings := make(map[int]*playerStanding, len(participants))
	for _, p := range participants {
		standings[p.ID] = &playerStanding{participant: p}
	}

	var final, thirdPlace *models.Match
	for _, m := range completed {
		switch m.MatchType {
		case models.MatchTypeFinal:
			final = m
		case models.MatchTypeThirdPlace:
			thirdPlace = m
		case models.MatchTypeBye:
			// Byes carry no frames and eliminate nobody.
			continue
		}

		if m.Player1ID != nil {
			if s, ok := standings[*m.Player1ID]; ok {
				s.framesWon += m.Player1Score
				s.framesLost += m.Player2Score
			}
		}
		if m.Player2ID != nil {
			if s, ok := standings[*m.Player2ID]; ok {
				s.framesWon += m.Player2Score
				s.framesLost += m.Player1Score
			}
		}
		// The third-place match does not count as an elimination; its loser
		// already went out in the semi-finals.
		if m.MatchType != models.MatchTypeThirdPlace && m.LoserID != nil {
			if s, ok := standings[*m.LoserID]; ok && m.Round > s.eliminatedRound {
				s.eliminatedRound = m.Round
			}
		}
	}

	assigned := make(map[int]int, len(participants))
	position := 1
	assign := func(participantID *int) {
		if participantID == nil {
			return
		}
		if _, ok := assigned[*participantID]; ok {
			return
		}
		assigned[*participantID] = position
		position++
	}

	if final != nil {
		assign(final.WinnerID)
		assign(final.LoserID)
	}
	if thirdPlace != nil {
		assign(thirdPlace.WinnerID)
		assign(thirdPlace.LoserID)
	}

	remaining := make([]*playerStanding, 0, len(standings))
	for _, s := range standings {
		if _, ok := assigned[s.participant.ID]; !ok {
			remaining = append(remaining, s)
		}
	}
	sort.Slice(remaining, func(i, j int) bool {
		a, b := remaining[i], remaining[j]
		if a.eliminatedRound != b.eliminatedRound {
			return a.eliminatedRound > b.eliminatedRound
		}
		if a.frameDifference() != b.frameDifference() {
			return a.frameDifference() > b.frameDifference()
		}
		if a.framesWon != b.framesWon {
			return a.framesWon > b.framesWon
		}
		return seedOrMax(a.participant) < seedOrMax(b.participant)
	})
	for _, s := range remaining {
		assigned[s.participant.ID] = position
		position++
	}

	for participantID, pos := range assigned {
		if err := c.participantRepo.UpdateFinalPosition(ctx, participantID, pos); err != nil {
			return 0, fmt.Errorf("failed to persist final position %d for participant %d: %w", pos, participantID, err)
		}
	}

	c.logger.Info("final positions assigned",
		slog.Int("tournament_id", t.ID),
		slog.Int("positions", len(assigned)))
	return len(assigned), nil
}

func seedOrMax(p *models.Participant) int {
	if p.Seed == nil {
		return math.MaxInt
	}
	return *p.Seed
}

// FormatPosition renders a position with its English ordinal suffix
// (1st, 2nd, 3rd, 4th, ... with 11-13 always "th").
func FormatPosition(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
