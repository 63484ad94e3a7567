package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/bgaliyev/cue-league/brackets"
	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
	"github.com/bgaliyev/cue-league/storage"
)

type CreateTournamentInput struct {
	Name            string                  `json:"name"`
	Description     *string                 `json:"description"`
	Format          models.TournamentFormat `json:"format"`
	SeedingMode     models.SeedingMode      `json:"seeding_mode"`
	RegDate         time.Time               `json:"reg_date"`
	StartDate       time.Time               `json:"start_date"`
	EndDate         time.Time               `json:"end_date"`
	Location        *string                 `json:"location"`
	MaxParticipants int                     `json:"max_participants"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, id int, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	// Start moves a tournament from registration to active and generates
	// its bracket.
	Start(ctx context.Context, id int, organizerID int) (*brackets.BracketResult, error)
	Cancel(ctx context.Context, id int, organizerID int) error
	UploadLogo(ctx context.Context, id int, organizerID int, file io.Reader, contentType string) (*models.Tournament, error)
	// AutoUpdateStatusesByDates runs on a timer and advances tournaments
	// whose registration or start dates have passed.
	AutoUpdateStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	bracketService  BracketService
	uploader        storage.FileUploader
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	bracketService BracketService,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		bracketService:  bracketService,
		uploader:        uploader,
		hub:             hub,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if err := validateTournamentDates(input.RegDate, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	format := input.Format
	if format == "" {
		format = models.FormatSingleElimination
	}
	seeding := input.SeedingMode
	if seeding == "" {
		seeding = models.SeedingFair
	}

	t := &models.Tournament{
		Name:            input.Name,
		Description:     input.Description,
		Format:          format,
		SeedingMode:     seeding,
		OrganizerID:     organizerID,
		RegDate:         input.RegDate,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Location:        input.Location,
		Status:          models.StatusSoon,
		MaxParticipants: input.MaxParticipants,
	}

	// Reject unknown formats up front instead of at start time.
	if _, err := s.bracketService.MinimumParticipants(t); err != nil {
		return nil, err
	}

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	populateTournamentLogoURL(t, s.uploader)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tournaments, err := s.tournamentRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, t := range tournaments {
		populateTournamentLogoURL(t, s.uploader)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	t, err := s.requireOrganizer(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusSoon && t.Status != models.StatusRegistration {
		return nil, fmt.Errorf("%w: cannot edit a %s tournament", ErrTournamentInvalidStatusTransition, t.Status)
	}
	if err := validateTournamentDates(input.RegDate, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}

	t.Name = input.Name
	t.Description = input.Description
	t.RegDate = input.RegDate
	t.StartDate = input.StartDate
	t.EndDate = input.EndDate
	t.Location = input.Location
	t.MaxParticipants = input.MaxParticipants
	if input.SeedingMode != "" {
		t.SeedingMode = input.SeedingMode
	}

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) Start(ctx context.Context, id int, organizerID int) (*brackets.BracketResult, error) {
	t, err := s.requireOrganizer(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, t)
}

func (s *tournamentService) start(ctx context.Context, t *models.Tournament) (*brackets.BracketResult, error) {
	if !isValidStatusTransition(t.Status, models.StatusActive) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, t.Status, models.StatusActive)
	}
	ok, err := s.bracketService.CanStartTournament(ctx, t)
	if err != nil {
		return nil, err
	}
	if !ok {
		minimum, _ := s.bracketService.MinimumParticipants(t)
		return nil, fmt.Errorf("%w: at least %d confirmed participants required", brackets.ErrNotEnoughParticipants, minimum)
	}

	result, err := s.bracketService.Generate(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bracket for tournament %d: %w", t.ID, err)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("failed to activate tournament %d: %w", t.ID, err)
	}
	t.Status = models.StatusActive

	s.hub.BroadcastToRoom(strconv.Itoa(t.ID), brackets.Event{
		Type:    brackets.EventBracketGenerated,
		Payload: result,
	})
	return result, nil
}

func (s *tournamentService) Cancel(ctx context.Context, id int, organizerID int) error {
	t, err := s.requireOrganizer(ctx, id, organizerID)
	if err != nil {
		return err
	}
	if !isValidStatusTransition(t.Status, models.StatusCanceled) {
		return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, t.Status, models.StatusCanceled)
	}
	return s.tournamentRepo.UpdateStatus(ctx, id, models.StatusCanceled)
}

func (s *tournamentService) UploadLogo(ctx context.Context, id int, organizerID int, file io.Reader, contentType string) (*models.Tournament, error) {
	t, err := s.requireOrganizer(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	key := fmt.Sprintf("tournaments/%d/logo%s", id, ext)
	if _, err := s.uploader.Upload(ctx, key, file, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, key); err != nil {
		return nil, fmt.Errorf("failed to persist tournament logo key: %w", err)
	}
	t.LogoKey = &key
	populateTournamentLogoURL(t, s.uploader)
	return t, nil
}

// AutoUpdateStatusesByDates opens registration once reg_date passes and
// tries to start tournaments whose start_date has passed. A tournament that
// cannot field a bracket by its start date is canceled.
func (s *tournamentService) AutoUpdateStatusesByDates(ctx context.Context) error {
	due, err := s.tournamentRepo.ListDueForStatusChange(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to list tournaments due for status change: %w", err)
	}

	for _, t := range due {
		switch t.Status {
		case models.StatusSoon:
			if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, models.StatusRegistration); err != nil {
				s.logger.Error("failed to open registration",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
				continue
			}
			s.logger.Info("registration opened", slog.Int("tournament_id", t.ID))

		case models.StatusRegistration:
			if _, err := s.start(ctx, t); err != nil {
				if errors.Is(err, brackets.ErrNotEnoughParticipants) {
					s.logger.Warn("canceling tournament, not enough participants at start time",
						slog.Int("tournament_id", t.ID))
					if cancelErr := s.tournamentRepo.UpdateStatus(ctx, t.ID, models.StatusCanceled); cancelErr != nil {
						s.logger.Error("failed to cancel tournament",
							slog.Int("tournament_id", t.ID), slog.Any("error", cancelErr))
					}
					continue
				}
				s.logger.Error("failed to auto-start tournament",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
			}
		}
	}
	return nil
}

func (s *tournamentService) requireOrganizer(ctx context.Context, tournamentID, organizerID int) (*models.Tournament, error) {
	t, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != organizerID {
		return nil, ErrForbiddenOperation
	}
	return t, nil
}
