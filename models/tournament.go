package models

import "time"

// TournamentStatus mirror the tournament status ENUM in the database.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// TournamentFormat selects the bracket generator for a tournament. Only
// single elimination ships today; the value is an open enum so further
// formats can be added without touching the dispatcher.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
)

// SeedingMode selects how seeds map to round-1 bracket slots.
type SeedingMode string

const (
	// SeedingFair pairs adjacent seeds (1v2, 3v4) and hands byes to the
	// top seeds.
	SeedingFair SeedingMode = "fair"
	// SeedingStandard is classic tournament seeding (1v16, 2v15, ...).
	SeedingStandard SeedingMode = "standard"
)

type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Description     *string          `json:"description,omitempty" db:"description"`
	Format          TournamentFormat `json:"format" db:"format"`
	SeedingMode     SeedingMode      `json:"seeding_mode" db:"seeding_mode"`
	OrganizerID     int              `json:"organizer_id" db:"organizer_id"`
	RegDate         time.Time        `json:"reg_date" db:"reg_date"`
	StartDate       time.Time        `json:"start_date" db:"start_date"`
	EndDate         time.Time        `json:"end_date" db:"end_date"`
	Location        *string          `json:"location,omitempty" db:"location"`
	Status          TournamentStatus `json:"status" db:"status"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	LogoKey         *string          `json:"-" db:"logo_key"`
	LogoURL         *string          `json:"logo_url,omitempty" db:"-"`

	// Optional related entities, loaded on demand.
	Organizer    *User         `json:"organizer,omitempty" db:"-"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}
