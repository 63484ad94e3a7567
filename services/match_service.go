package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bgaliyev/cue-league/brackets"
	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
)

type MatchService interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	// SubmitResult records a score and moves the match to
	// pending_confirmation, awaiting the organizer.
	SubmitResult(ctx context.Context, matchID int, p1Score, p2Score int) (*models.Match, error)
	// ConfirmResult completes a pending match: stats, advancement,
	// third-place wiring and, when the bracket is done, tournament close.
	ConfirmResult(ctx context.Context, matchID int) (*models.Match, error)
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	bracketService  BracketService
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	bracketService BracketService,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		bracketService:  bracketService,
		hub:             hub,
		logger:          logger,
	}
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *matchService) SubmitResult(ctx context.Context, matchID int, p1Score, p2Score int) (*models.Match, error) {
	m, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchStatusScheduled {
		return nil, fmt.Errorf("%w: match %d is %s", ErrMatchNotPlayable, m.ID, m.Status)
	}
	if m.Player1ID == nil || m.Player2ID == nil {
		return nil, fmt.Errorf("%w: match %d", ErrMatchPlayersUnassigned, m.ID)
	}
	if p1Score < 0 || p2Score < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrValidationFailed)
	}
	if p1Score == p2Score {
		return nil, fmt.Errorf("%w: match %d", ErrMatchScoreDraw, m.ID)
	}

	winnerID, loserID := m.Player1ID, m.Player2ID
	if p2Score > p1Score {
		winnerID, loserID = m.Player2ID, m.Player1ID
	}
	if err := s.matchRepo.UpdateResult(ctx, m.ID, p1Score, p2Score, winnerID, loserID, models.MatchStatusPendingConfirmation, nil); err != nil {
		return nil, fmt.Errorf("failed to record result for match %d: %w", m.ID, err)
	}

	s.logger.Info("match result submitted",
		slog.Int("match_id", m.ID),
		slog.Int("tournament_id", m.TournamentID),
		slog.String("score", fmt.Sprintf("%d:%d", p1Score, p2Score)))

	return s.GetByID(ctx, matchID)
}

func (s *matchService) ConfirmResult(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchStatusPendingConfirmation {
		return nil, fmt.Errorf("%w: match %d is %s", ErrMatchNotPlayable, m.ID, m.Status)
	}
	if m.WinnerID == nil || m.LoserID == nil {
		return nil, fmt.Errorf("%w: pending match %d has no recorded winner", ErrValidationFailed, m.ID)
	}

	playedAt := time.Now()
	if err := s.matchRepo.UpdateResult(ctx, m.ID, m.Player1Score, m.Player2Score, m.WinnerID, m.LoserID, models.MatchStatusCompleted, &playedAt); err != nil {
		return nil, fmt.Errorf("failed to complete match %d: %w", m.ID, err)
	}
	m.Status = models.MatchStatusCompleted
	m.PlayedAt = &playedAt

	if err := s.applyParticipantStats(ctx, m); err != nil {
		return nil, err
	}

	if err := s.bracketService.AdvanceWinner(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to advance winner of match %d: %w", m.ID, err)
	}
	if m.MatchType == models.MatchTypeSemiFinal {
		if err := s.bracketService.HandleSemiFinalCompletion(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to wire semi-final loser of match %d: %w", m.ID, err)
		}
	}

	s.hub.BroadcastToRoom(strconv.Itoa(m.TournamentID), brackets.Event{
		Type:    brackets.EventMatchUpdated,
		Payload: m,
	})

	if err := s.finalizeIfComplete(ctx, m.TournamentID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, matchID)
}

func (s *matchService) applyParticipantStats(ctx context.Context, m *models.Match) error {
	type result struct {
		participantID int
		framesWon     int
		framesLost    int
	}
	results := []result{
		{*m.Player1ID, m.Player1Score, m.Player2Score},
		{*m.Player2ID, m.Player2Score, m.Player1Score},
	}
	for _, res := range results {
		won := m.WinnerID != nil && *m.WinnerID == res.participantID
		if err := s.participantRepo.ApplyMatchResult(ctx, res.participantID, res.framesWon, res.framesLost, won); err != nil {
			return fmt.Errorf("failed to update stats for participant %d: %w", res.participantID, err)
		}
	}
	return nil
}

// finalizeIfComplete closes the tournament once no playable match remains:
// status change, final position calculation, completion broadcast.
func (s *matchService) finalizeIfComplete(ctx context.Context, tournamentID int) error {
	complete, err := s.bracketService.IsBracketComplete(ctx, tournamentID)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}

	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to load tournament %d for completion: %w", tournamentID, err)
	}
	if t.Status == models.StatusCompleted {
		return nil
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.StatusCompleted); err != nil {
		return fmt.Errorf("failed to mark tournament %d completed: %w", tournamentID, err)
	}
	t.Status = models.StatusCompleted

	assigned, err := s.bracketService.CalculateFinalPositions(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to calculate final positions for tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("tournament completed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("positions_assigned", assigned))

	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.Event{
		Type:    brackets.EventTournamentCompleted,
		Payload: map[string]interface{}{"tournament_id": tournamentID, "positions_assigned": assigned},
	})
	return nil
}
