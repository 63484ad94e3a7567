package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bgaliyev/cue-league/models"
	"github.com/bgaliyev/cue-league/repositories"
	"github.com/bgaliyev/cue-league/storage"
)

type ParticipantService interface {
	// Register applies a user to a tournament during its registration
	// window, snapshotting the user's current rating.
	Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	Confirm(ctx context.Context, participantID int, organizerID int) (*models.Participant, error)
	Withdraw(ctx context.Context, participantID int, userID int) error
	ListByTournament(ctx context.Context, tournamentID int, status *models.ParticipantStatus) ([]*models.Participant, error)
	// Standings returns confirmed participants ordered by final position
	// for completed tournaments, by seed otherwise.
	Standings(ctx context.Context, tournamentID int) ([]*models.Participant, error)
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
	uploader        storage.FileUploader
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
		uploader:        uploader,
	}
}

func (s *participantService) Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if t.Status != models.StatusRegistration {
		return nil, ErrRegistrationNotOpen
	}

	statusAny := (*models.ParticipantStatus)(nil)
	existing, err := s.participantRepo.ListByTournament(ctx, tournamentID, statusAny, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	active := 0
	for _, p := range existing {
		if p.Status != models.ParticipantStatusWithdrawn {
			active++
		}
	}
	if active >= t.MaxParticipants {
		return nil, ErrTournamentFull
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	participant := &models.Participant{
		UserID:       user.ID,
		TournamentID: tournamentID,
		Status:       models.ParticipantStatusApplied,
		Rating:       user.Rating,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}
	return participant, nil
}

func (s *participantService) Confirm(ctx context.Context, participantID int, organizerID int) (*models.Participant, error) {
	p, err := s.getParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	t, err := s.tournamentRepo.GetByID(ctx, p.TournamentID)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != organizerID {
		return nil, ErrForbiddenOperation
	}
	if err := s.participantRepo.UpdateStatus(ctx, participantID, models.ParticipantStatusConfirmed); err != nil {
		return nil, fmt.Errorf("failed to confirm participant %d: %w", participantID, err)
	}
	p.Status = models.ParticipantStatusConfirmed
	return p, nil
}

func (s *participantService) Withdraw(ctx context.Context, participantID int, userID int) error {
	p, err := s.getParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	t, err := s.tournamentRepo.GetByID(ctx, p.TournamentID)
	if err != nil {
		return err
	}
	if p.UserID != userID && t.OrganizerID != userID {
		return ErrForbiddenOperation
	}
	if t.Status != models.StatusSoon && t.Status != models.StatusRegistration {
		// Withdrawing mid-bracket would orphan matches.
		return fmt.Errorf("%w: tournament is %s", ErrForbiddenOperation, t.Status)
	}
	return s.participantRepo.UpdateStatus(ctx, participantID, models.ParticipantStatusWithdrawn)
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int, status *models.ParticipantStatus) ([]*models.Participant, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, status, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	for _, p := range participants {
		populateUserLogoURL(p.User, s.uploader)
	}
	return participants, nil
}

func (s *participantService) Standings(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	statusConfirmed := models.ParticipantStatusConfirmed
	participants, err := s.ListByTournament(ctx, tournamentID, &statusConfirmed)
	if err != nil {
		return nil, err
	}
	sortParticipantsForStandings(participants)
	return participants, nil
}

func (s *participantService) getParticipant(ctx context.Context, id int) (*models.Participant, error) {
	p, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}
