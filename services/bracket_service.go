package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bgaliyev/cue-league/brackets"
	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
	"golang.org/x/sync/errgroup"
)

// ParticipantView is the display shape of a bracket slot occupant.
type ParticipantView struct {
	ParticipantID int     `json:"participant_id"`
	UserID        int     `json:"user_id"`
	Name          string  `json:"name"`
	Seed          *int    `json:"seed,omitempty"`
	LogoURL       *string `json:"logo_url,omitempty"`
}

// MatchView is the display shape of one bracket match.
type MatchView struct {
	ID              int                `json:"id"`
	Round           int                `json:"round"`
	RoundName       string             `json:"round_name"`
	BracketPosition int                `json:"bracket_position"`
	MatchType       models.MatchType   `json:"match_type"`
	Status          models.MatchStatus `json:"status"`
	Player1         *ParticipantView   `json:"player1,omitempty"`
	Player2         *ParticipantView   `json:"player2,omitempty"`
	Player1Score    int                `json:"player1_score"`
	Player2Score    int                `json:"player2_score"`
	WinnerID        *int               `json:"winner_id,omitempty"`
	NextMatchID     *int               `json:"next_match_id,omitempty"`
	NextMatchSlot   *models.Slot       `json:"next_match_slot,omitempty"`
}

// BracketRound groups the matches of one round for visualization.
type BracketRound struct {
	Round   int         `json:"round"`
	Name    string      `json:"name"`
	Matches []MatchView `json:"matches"`
}

// BracketData is the read-only visualization structure of a bracket.
type BracketData struct {
	TournamentID int            `json:"tournament_id"`
	Rounds       []BracketRound `json:"rounds"`
	ThirdPlace   *MatchView     `json:"third_place,omitempty"`
}

// BracketService is the single entry point the rest of the system uses for
// bracket work. It dispatches to the first registered generator that
// supports the tournament's format.
type BracketService interface {
	Generate(ctx context.Context, t *models.Tournament) (*brackets.BracketResult, error)
	AdvanceWinner(ctx context.Context, m *models.Match) error
	HandleSemiFinalCompletion(ctx context.Context, m *models.Match) error
	CanStartTournament(ctx context.Context, t *models.Tournament) (bool, error)
	MinimumParticipants(t *models.Tournament) (int, error)
	CalculateFinalPositions(ctx context.Context, t *models.Tournament) (int, error)
	GetBracketData(ctx context.Context, tournamentID int) (*BracketData, error)
	IsBracketComplete(ctx context.Context, tournamentID int) (bool, error)
}

type bracketService struct {
	generators      []brackets.Generator
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	positions       *brackets.PositionCalculator
	logger          *slog.Logger

	// Winner advancement mutates the next match's slot; advancements within
	// one tournament are serialized so two results cannot race for it.
	mu              sync.Mutex
	tournamentLocks map[int]*sync.Mutex
}

func NewBracketService(
	generators []brackets.Generator,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		generators:      generators,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		positions:       brackets.NewPositionCalculator(matchRepo, participantRepo, logger),
		logger:          logger,
		tournamentLocks: make(map[int]*sync.Mutex),
	}
}

func (s *bracketService) generatorFor(t *models.Tournament) (brackets.Generator, error) {
	for _, g := range s.generators {
		if g.Supports(t) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoGeneratorForFormat, t.Format)
}

func (s *bracketService) lockTournament(tournamentID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.tournamentLocks[tournamentID]
	if !ok {
		lock = &sync.Mutex{}
		s.tournamentLocks[tournamentID] = lock
	}
	return lock
}

func (s *bracketService) Generate(ctx context.Context, t *models.Tournament) (*brackets.BracketResult, error) {
	gen, err := s.generatorFor(t)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, t)
}

func (s *bracketService) generatorForMatch(ctx context.Context, m *models.Match) (brackets.Generator, error) {
	t, err := s.tournamentRepo.GetByID(ctx, m.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d for match %d: %w", m.TournamentID, m.ID, err)
	}
	return s.generatorFor(t)
}

func (s *bracketService) AdvanceWinner(ctx context.Context, m *models.Match) error {
	gen, err := s.generatorForMatch(ctx, m)
	if err != nil {
		return err
	}

	lock := s.lockTournament(m.TournamentID)
	lock.Lock()
	defer lock.Unlock()

	return gen.AdvanceWinner(ctx, m)
}

func (s *bracketService) HandleSemiFinalCompletion(ctx context.Context, m *models.Match) error {
	gen, err := s.generatorForMatch(ctx, m)
	if err != nil {
		return err
	}
	handler, ok := gen.(brackets.SemiFinalHandler)
	if !ok {
		return nil
	}
	return handler.HandleSemiFinalCompletion(ctx, m)
}

func (s *bracketService) MinimumParticipants(t *models.Tournament) (int, error) {
	gen, err := s.generatorFor(t)
	if err != nil {
		return 0, err
	}
	return gen.MinimumParticipants(), nil
}

func (s *bracketService) CanStartTournament(ctx context.Context, t *models.Tournament) (bool, error) {
	gen, err := s.generatorFor(t)
	if err != nil {
		return false, err
	}
	statusConfirmed := models.ParticipantStatusConfirmed
	participants, err := s.participantRepo.ListByTournament(ctx, t.ID, &statusConfirmed, false)
	if err != nil {
		return false, fmt.Errorf("failed to count confirmed participants for tournament %d: %w", t.ID, err)
	}
	return len(participants) >= gen.MinimumParticipants(), nil
}

func (s *bracketService) CalculateFinalPositions(ctx context.Context, t *models.Tournament) (int, error) {
	updated, err := s.positions.Calculate(ctx, t)
	if err != nil {
		return updated, err
	}
	s.releaseTournamentLock(t.ID)
	return updated, nil
}

// releaseTournamentLock drops a finished tournament's advancement lock so
// the lock map does not grow with every tournament the process has seen.
func (s *bracketService) releaseTournamentLock(tournamentID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tournamentLocks, tournamentID)
}

// GetBracketData assembles the round-grouped bracket view. Pure read, no
// mutation; matches and participants load in parallel.
func (s *bracketService) GetBracketData(ctx context.Context, tournamentID int) (*BracketData, error) {
	var (
		matches      []*models.Match
		participants []*models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByTournament(gCtx, tournamentID, nil, true)
		if err != nil {
			return fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make(map[int]ParticipantView, len(participants))
	for _, p := range participants {
		view := ParticipantView{
			ParticipantID: p.ID,
			UserID:        p.UserID,
			Seed:          p.Seed,
			Name:          fmt.Sprintf("Participant %d", p.ID),
		}
		if p.User != nil {
			view.Name = p.User.DisplayName()
			view.LogoURL = p.User.LogoURL
		}
		views[p.ID] = view
	}

	data := &BracketData{TournamentID: tournamentID}
	roundsByNumber := make(map[int]*BracketRound)
	for _, m := range matches {
		mv := s.toMatchView(m, views)
		if m.MatchType == models.MatchTypeThirdPlace {
			data.ThirdPlace = &mv
			continue
		}
		round, ok := roundsByNumber[m.Round]
		if !ok {
			round = &BracketRound{Round: m.Round, Name: m.RoundName}
			roundsByNumber[m.Round] = round
		}
		round.Matches = append(round.Matches, mv)
	}

	for _, round := range roundsByNumber {
		data.Rounds = append(data.Rounds, *round)
	}
	sort.Slice(data.Rounds, func(i, j int) bool {
		return data.Rounds[i].Round < data.Rounds[j].Round
	})
	return data, nil
}

func (s *bracketService) toMatchView(m *models.Match, views map[int]ParticipantView) MatchView {
	mv := MatchView{
		ID:              m.ID,
		Round:           m.Round,
		RoundName:       m.RoundName,
		BracketPosition: m.BracketPosition,
		MatchType:       m.MatchType,
		Status:          m.Status,
		Player1Score:    m.Player1Score,
		Player2Score:    m.Player2Score,
		WinnerID:        m.WinnerID,
		NextMatchID:     m.NextMatchID,
		NextMatchSlot:   m.NextMatchSlot,
	}
	if m.Player1ID != nil {
		if view, ok := views[*m.Player1ID]; ok {
			mv.Player1 = &view
		}
	}
	if m.Player2ID != nil {
		if view, ok := views[*m.Player2ID]; ok {
			mv.Player2 = &view
		}
	}
	return mv
}

// IsBracketComplete reports whether every non-bye match has been resolved.
// A tournament with no matches has no bracket yet and is not complete.
func (s *bracketService) IsBracketComplete(ctx context.Context, tournamentID int) (bool, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return false, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	if len(matches) == 0 {
		return false, nil
	}
	for _, m := range matches {
		if m.MatchType == models.MatchTypeBye {
			continue
		}
		if m.Status == models.MatchStatusScheduled || m.Status == models.MatchStatusPendingConfirmation {
			return false, nil
		}
	}
	return true, nil
}
