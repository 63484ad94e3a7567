package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled           MatchStatus = "scheduled"
	MatchStatusPendingConfirmation MatchStatus = "pending_confirmation"
	MatchStatusCompleted           MatchStatus = "completed"
	MatchStatusCanceled            MatchStatus = "canceled"
)

type MatchType string

const (
	MatchTypeRegular      MatchType = "regular"
	MatchTypeQuarterFinal MatchType = "quarter_final"
	MatchTypeSemiFinal    MatchType = "semi_final"
	MatchTypeFinal        MatchType = "final"
	MatchTypeThirdPlace   MatchType = "third_place"
	MatchTypeBye          MatchType = "bye"
)

// Slot names a participant position inside a match. Winners of linked
// matches are written into exactly one slot of their next match.
type Slot string

const (
	SlotPlayer1 Slot = "player1"
	SlotPlayer2 Slot = "player2"
)

// Match is a node of the elimination bracket. Rows are created as empty
// placeholders at generation time and mutated in place afterwards; they are
// never deleted. Player references are tournament participant ids, not user
// ids, since bracket slots point at participation records.
type Match struct {
	ID              int         `json:"id" db:"id"`
	TournamentID    int         `json:"tournament_id" db:"tournament_id"`
	Round           int         `json:"round" db:"round"`
	RoundName       string      `json:"round_name" db:"round_name"`
	BracketPosition int         `json:"bracket_position" db:"bracket_position"`
	MatchType       MatchType   `json:"match_type" db:"match_type"`
	Status          MatchStatus `json:"status" db:"status"`
	Player1ID       *int        `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID       *int        `json:"player2_id,omitempty" db:"player2_id"`
	Player1Score    int         `json:"player1_score" db:"player1_score"`
	Player2Score    int         `json:"player2_score" db:"player2_score"`
	WinnerID        *int        `json:"winner_id,omitempty" db:"winner_id"`
	LoserID         *int        `json:"loser_id,omitempty" db:"loser_id"`
	NextMatchID     *int        `json:"next_match_id,omitempty" db:"next_match_id"`
	NextMatchSlot   *Slot       `json:"next_match_slot,omitempty" db:"next_match_slot"`
	ScheduledAt     time.Time   `json:"scheduled_at" db:"scheduled_at"`
	PlayedAt        *time.Time  `json:"played_at,omitempty" db:"played_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// PlayerCount reports how many of the two slots are filled.
func (m *Match) PlayerCount() int {
	n := 0
	if m.Player1ID != nil {
		n++
	}
	if m.Player2ID != nil {
		n++
	}
	return n
}

// HasPlayer reports whether the given participant occupies either slot.
func (m *Match) HasPlayer(participantID int) bool {
	return (m.Player1ID != nil && *m.Player1ID == participantID) ||
		(m.Player2ID != nil && *m.Player2ID == participantID)
}
