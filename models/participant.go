package models

import "time"

type ParticipantStatus string

const (
	ParticipantStatusApplied   ParticipantStatus = "applied"
	ParticipantStatusConfirmed ParticipantStatus = "confirmed"
	ParticipantStatusWithdrawn ParticipantStatus = "withdrawn"
)

// Participant is a player's registration in one tournament. Seed is assigned
// once per bracket generation; FinalPosition is written once at tournament
// close. Frame counters accumulate as results come in.
type Participant struct {
	ID            int               `json:"id" db:"id"`
	UserID        int               `json:"user_id" db:"user_id"`
	TournamentID  int               `json:"tournament_id" db:"tournament_id"`
	Status        ParticipantStatus `json:"status" db:"status"`
	Rating        float64           `json:"rating" db:"rating"`
	Seed          *int              `json:"seed,omitempty" db:"seed"`
	MatchesPlayed int               `json:"matches_played" db:"matches_played"`
	MatchesWon    int               `json:"matches_won" db:"matches_won"`
	FramesWon     int               `json:"frames_won" db:"frames_won"`
	FramesLost    int               `json:"frames_lost" db:"frames_lost"`
	FinalPosition *int              `json:"final_position,omitempty" db:"final_position"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
