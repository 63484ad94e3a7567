package services

import "errors"

// Shared service errors, mapped to HTTP status codes by the handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrRegistrationNotOpen    = errors.New("tournament registration is not open")
	ErrTournamentFull         = errors.New("tournament registration is full")
	ErrTournamentNotActive    = errors.New("tournament is not active")
	ErrMatchNotPlayable       = errors.New("match cannot accept a result in its current state")
	ErrMatchScoreDraw         = errors.New("match score cannot be a draw")
	ErrMatchPlayersUnassigned = errors.New("match does not have both players assigned")

	// Conflicts
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrRegistrationConflict   = errors.New("user is already registered for this tournament")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Entity-specific not-found
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")

	// Bracket/format configuration
	ErrNoGeneratorForFormat = errors.New("no bracket generator registered for tournament format")

	// Tournament lifecycle
	ErrTournamentDatesRequired           = errors.New("tournament dates are required")
	ErrTournamentInvalidRegDate          = errors.New("tournament registration end date must be before start date")
	ErrTournamentInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCapacity         = errors.New("tournament max participants must be positive")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
)
