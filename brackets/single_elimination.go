package brackets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
)

const ThirdPlaceRoundName = "Third Place"

// SingleEliminationGenerator builds and advances single-elimination
// brackets. Match creation, linking and round-1 population run inside one
// transaction; bye resolution and the third-place match are separate
// post-commit steps, so a half-generated bracket can never be observed but
// a "bracket created, byes pending" state can. Re-running the bye pass is
// safe because completed byes are no-ops.
type SingleEliminationGenerator struct {
	tx              repositories.TxRunner
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	seeder          Seeder
	byes            *ByeProcessor
	structure       StructureBuilder
	logger          *slog.Logger
}

func NewSingleEliminationGenerator(
	tx repositories.TxRunner,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	logger *slog.Logger,
) *SingleEliminationGenerator {
	return &SingleEliminationGenerator{
		tx:              tx,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		seeder:          NewRatingSeeder(participantRepo),
		byes:            NewByeProcessor(matchRepo, logger),
		structure:       NewStructureBuilder(),
		logger:          logger,
	}
}

func (g *SingleEliminationGenerator) Supports(t *models.Tournament) bool {
	return t != nil && t.Format == models.FormatSingleElimination
}

func (g *SingleEliminationGenerator) MinimumParticipants() int {
	return 2
}

func (g *SingleEliminationGenerator) Generate(ctx context.Context, t *models.Tournament) (*BracketResult, error) {
	statusConfirmed := models.ParticipantStatusConfirmed
	participants, err := g.participantRepo.ListByTournament(ctx, t.ID, &statusConfirmed, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed participants for tournament %d: %w", t.ID, err)
	}
	n := len(participants)
	if n < g.MinimumParticipants() {
		return nil, fmt.Errorf("%w: tournament %d has %d confirmed participants, minimum %d",
			ErrNotEnoughParticipants, t.ID, n, g.MinimumParticipants())
	}

	existing, err := g.matchRepo.ListByTournament(ctx, t.ID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing matches for tournament %d: %w", t.ID, err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: tournament %d has %d matches", ErrBracketAlreadyExists, t.ID, len(existing))
	}

	size, err := g.structure.BracketSize(n)
	if err != nil {
		return nil, err
	}
	totalRounds := g.structure.TotalRounds(size)
	byeCount := g.structure.ByeCount(size, n)

	g.logger.Info("generating single elimination bracket",
		slog.Int("tournament_id", t.ID),
		slog.Int("participants", n),
		slog.Int("bracket_size", size),
		slog.Int("total_rounds", totalRounds),
		slog.Int("byes", byeCount),
		slog.String("seeding_mode", string(t.SeedingMode)))

	scheduledAt := t.StartDate
	if time.Now().After(scheduledAt) {
		scheduledAt = time.Now().Add(15 * time.Minute)
	}

	var (
		byRound        [][]*models.Match
		matchesCreated int
	)

	// Seeding, placeholder creation, linking and round-1 population are one
	// atomic unit: a failure anywhere leaves no partial bracket behind.
	txErr := g.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		assignments, err := g.seeder.Seed(ctx, exec, participants)
		if err != nil {
			return err
		}

		byRound = make([][]*models.Match, totalRounds+1)
		for round := 1; round <= totalRounds; round++ {
			matchesInRound := g.structure.MatchesInRound(size, round)
			byRound[round] = make([]*models.Match, 0, matchesInRound)
			for pos := 0; pos < matchesInRound; pos++ {
				m := &models.Match{
					TournamentID:    t.ID,
					Round:           round,
					RoundName:       g.structure.RoundName(matchesInRound, round, totalRounds),
					BracketPosition: pos,
					MatchType:       g.structure.MatchTypeForRound(round, totalRounds),
					Status:          models.MatchStatusScheduled,
					ScheduledAt:     scheduledAt,
				}
				if err := g.matchRepo.Create(ctx, exec, m); err != nil {
					return fmt.Errorf("failed to create round %d match %d: %w", round, pos, err)
				}
				byRound[round] = append(byRound[round], m)
				matchesCreated++
			}
		}

		// Every round exists before any link is written, so next-match ids
		// never need forward references.
		for round := 1; round < totalRounds; round++ {
			for _, m := range byRound[round] {
				nextPos, slot := g.structure.NextMatchInfo(m.BracketPosition)
				next := byRound[round+1][nextPos]
				if err := g.matchRepo.UpdateNextMatchInfo(ctx, exec, m.ID, &next.ID, &slot); err != nil {
					return fmt.Errorf("failed to link match %d to match %d: %w", m.ID, next.ID, err)
				}
				m.NextMatchID = &next.ID
				m.NextMatchSlot = &slot
			}
		}

		positions, err := g.structure.SeedPositions(size, n, t.SeedingMode)
		if err != nil {
			return err
		}
		slots := make([]*int, size)
		for _, a := range assignments {
			pos, ok := positions[a.Seed]
			if !ok {
				return fmt.Errorf("no bracket slot computed for seed %d", a.Seed)
			}
			participantID := a.Participant.ID
			slots[pos] = &participantID
		}

		for _, m := range byRound[1] {
			p1 := slots[2*m.BracketPosition]
			p2 := slots[2*m.BracketPosition+1]
			if p1 == nil && p2 == nil {
				continue
			}
			if err := g.matchRepo.UpdatePlayers(ctx, exec, m.ID, p1, p2); err != nil {
				return fmt.Errorf("failed to populate round 1 match %d: %w", m.ID, err)
			}
			m.Player1ID = p1
			m.Player2ID = p2
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	byesProcessed, err := g.byes.ProcessAll(ctx, byRound[1])
	if err != nil {
		// The bracket is committed and Generate will not run again for
		// this tournament, so the stranded byes need the pass re-run by
		// hand. ProcessAll is idempotent, which makes that safe.
		return nil, fmt.Errorf("bracket created but bye processing failed for tournament %d: %w", t.ID, err)
	}

	if totalRounds >= 2 {
		thirdPlace := &models.Match{
			TournamentID:    t.ID,
			Round:           totalRounds,
			RoundName:       ThirdPlaceRoundName,
			BracketPosition: 1,
			MatchType:       models.MatchTypeThirdPlace,
			Status:          models.MatchStatusScheduled,
			ScheduledAt:     scheduledAt,
		}
		if err := g.matchRepo.Create(ctx, nil, thirdPlace); err != nil {
			return nil, fmt.Errorf("failed to create third place match for tournament %d: %w", t.ID, err)
		}
		matchesCreated++
	}

	rounds := make([]RoundSummary, 0, totalRounds)
	for round := 1; round <= totalRounds; round++ {
		rounds = append(rounds, RoundSummary{
			Round:   round,
			Name:    byRound[round][0].RoundName,
			Matches: len(byRound[round]),
		})
	}

	g.logger.Info("bracket generated",
		slog.Int("tournament_id", t.ID),
		slog.Int("matches_created", matchesCreated),
		slog.Int("byes_processed", byesProcessed))

	return &BracketResult{
		BracketSize:         size,
		TotalRounds:         totalRounds,
		ByeCount:            byeCount,
		MatchesCreated:      matchesCreated,
		ByeMatchesProcessed: byesProcessed,
		Rounds:              rounds,
	}, nil
}

// AdvanceWinner writes the winner of a completed match into its next match
// slot. Missing next matches are logged and swallowed: the bracket already
// exists, and a hard failure mid-tournament is worse than a logged gap.
func (g *SingleEliminationGenerator) AdvanceWinner(ctx context.Context, m *models.Match) error {
	if m.WinnerID == nil {
		return fmt.Errorf("%w: match %d", ErrNoWinner, m.ID)
	}
	if m.NextMatchID == nil {
		// The final and the third-place match advance nowhere.
		return nil
	}

	next, err := g.matchRepo.GetByID(ctx, *m.NextMatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			g.logger.Error("next match missing, advancement abandoned",
				slog.Int("match_id", m.ID),
				slog.Int("next_match_id", *m.NextMatchID),
				slog.Int("winner_participant_id", *m.WinnerID))
			return nil
		}
		return fmt.Errorf("failed to load next match %d: %w", *m.NextMatchID, err)
	}

	slot := models.SlotPlayer1
	if m.NextMatchSlot != nil {
		slot = *m.NextMatchSlot
	}
	if err := g.matchRepo.SetPlayerSlot(ctx, next.ID, slot, *m.WinnerID); err != nil {
		return fmt.Errorf("failed to write winner %d into match %d slot %s: %w", *m.WinnerID, next.ID, slot, err)
	}
	if slot == models.SlotPlayer1 {
		next.Player1ID = m.WinnerID
	} else {
		next.Player2ID = m.WinnerID
	}

	g.logger.Info("winner advanced",
		slog.Int("match_id", m.ID),
		slog.Int("next_match_id", next.ID),
		slog.String("slot", string(slot)),
		slog.Int("winner_participant_id", *m.WinnerID))

	return g.resolveCollidedBye(ctx, next)
}

// resolveCollidedBye completes the next match as a bye if the advancement
// left it with a single player that can never get an opponent: every match
// feeding it is already completed. A half-filled match whose other feeder is
// still open is just awaiting its opponent and stays scheduled.
func (g *SingleEliminationGenerator) resolveCollidedBye(ctx context.Context, next *models.Match) error {
	if next.Status != models.MatchStatusScheduled || next.PlayerCount() != 1 {
		return nil
	}
	feeders, err := g.matchRepo.ListByNextMatch(ctx, next.ID)
	if err != nil {
		return fmt.Errorf("failed to load feeder matches of match %d: %w", next.ID, err)
	}
	if len(feeders) == 0 {
		return nil
	}
	for _, f := range feeders {
		if f.Status != models.MatchStatusCompleted {
			return nil
		}
	}
	_, err = g.byes.ProcessBye(ctx, next)
	return err
}

// HandleSemiFinalCompletion places a semi-final loser into the first open
// slot of the tournament's third-place match.
func (g *SingleEliminationGenerator) HandleSemiFinalCompletion(ctx context.Context, m *models.Match) error {
	if m.MatchType != models.MatchTypeSemiFinal || m.LoserID == nil {
		return nil
	}

	thirdPlace, err := g.matchRepo.GetByTournamentAndType(ctx, m.TournamentID, models.MatchTypeThirdPlace)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			g.logger.Warn("no third place match for semi-final loser",
				slog.Int("tournament_id", m.TournamentID),
				slog.Int("match_id", m.ID))
			return nil
		}
		return fmt.Errorf("failed to load third place match for tournament %d: %w", m.TournamentID, err)
	}
	if thirdPlace.HasPlayer(*m.LoserID) {
		return nil
	}

	slot := models.SlotPlayer1
	if thirdPlace.Player1ID != nil {
		slot = models.SlotPlayer2
	}
	if thirdPlace.Player1ID != nil && thirdPlace.Player2ID != nil {
		g.logger.Warn("third place match already full",
			slog.Int("tournament_id", m.TournamentID),
			slog.Int("third_place_match_id", thirdPlace.ID))
		return nil
	}
	if err := g.matchRepo.SetPlayerSlot(ctx, thirdPlace.ID, slot, *m.LoserID); err != nil {
		return fmt.Errorf("failed to place semi-final loser %d into third place match %d: %w", *m.LoserID, thirdPlace.ID, err)
	}
	return nil
}
