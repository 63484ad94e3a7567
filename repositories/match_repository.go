package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bgaliyev/cue-league/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchTournamentInvalid  = errors.New("match tournament conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
	ErrMatchNextMatchInvalid   = errors.New("match next-match reference conflict or invalid")
	ErrMatchSlotInvalid        = errors.New("invalid match slot")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByTournamentAndType(ctx context.Context, tournamentID int, matchType models.MatchType) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	ListByNextMatch(ctx context.Context, nextMatchID int) ([]*models.Match, error)
	UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int, slot *models.Slot) error
	UpdatePlayers(ctx context.Context, exec SQLExecutor, matchID int, player1ID, player2ID *int) error
	SetPlayerSlot(ctx context.Context, matchID int, slot models.Slot, participantID int) error
	MarkBye(ctx context.Context, matchID int, winnerID int, playedAt time.Time) error
	UpdateResult(ctx context.Context, matchID int, p1Score, p2Score int, winnerID, loserID *int, status models.MatchStatus, playedAt *time.Time) error
	UpdateStatus(ctx context.Context, matchID int, status models.MatchStatus) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, round, round_name, bracket_position, match_type, status,
		player1_id, player2_id, player1_score, player2_score, winner_id, loser_id,
		next_match_id, next_match_slot, scheduled_at, played_at, created_at`

func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, round, round_name, bracket_position, match_type, status,
			 player1_id, player2_id, player1_score, player2_score,
			 next_match_id, next_match_slot, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		match.TournamentID,
		match.Round,
		match.RoundName,
		match.BracketPosition,
		match.MatchType,
		match.Status,
		match.Player1ID,
		match.Player2ID,
		match.Player1Score,
		match.Player2Score,
		match.NextMatchID,
		match.NextMatchSlot,
		match.ScheduledAt,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func scanMatch(row interface{ Scan(dest ...interface{}) error }) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Round,
		&match.RoundName,
		&match.BracketPosition,
		&match.MatchType,
		&match.Status,
		&match.Player1ID,
		&match.Player2ID,
		&match.Player1Score,
		&match.Player2Score,
		&match.WinnerID,
		&match.LoserID,
		&match.NextMatchID,
		&match.NextMatchSlot,
		&match.ScheduledAt,
		&match.PlayedAt,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByTournamentAndType(ctx context.Context, tournamentID int, matchType models.MatchType) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND match_type = $2 LIMIT 1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, tournamentID, matchType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan %s match for tournament %d: %w", matchType, tournamentID, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholder := 2

	if round != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholder))
		args = append(args, *round)
		placeholder++
	}
	if status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, bracket_position ASC, id ASC")

	return r.queryMatches(ctx, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListByNextMatch(ctx context.Context, nextMatchID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE next_match_id = $1 ORDER BY bracket_position ASC`
	return r.queryMatches(ctx, query, nextMatchID)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int, slot *models.Slot) error {
	query := `UPDATE matches SET next_match_id = $1, next_match_slot = $2 WHERE id = $3`
	result, err := r.executor(exec).ExecContext(ctx, query, nextMatchID, slot, matchID)
	if err != nil {
		return fmt.Errorf("UpdateNextMatchInfo: failed to execute query for match %d: %w", matchID, r.handleMatchError(err))
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, matchID int, player1ID, player2ID *int) error {
	query := `UPDATE matches SET player1_id = $1, player2_id = $2 WHERE id = $3`
	result, err := r.executor(exec).ExecContext(ctx, query, player1ID, player2ID, matchID)
	if err != nil {
		return fmt.Errorf("UpdatePlayers: failed to execute query for match %d: %w", matchID, r.handleMatchError(err))
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetPlayerSlot(ctx context.Context, matchID int, slot models.Slot, participantID int) error {
	var column string
	switch slot {
	case models.SlotPlayer1:
		column = "player1_id"
	case models.SlotPlayer2:
		column = "player2_id"
	default:
		return fmt.Errorf("%w: %q", ErrMatchSlotInvalid, slot)
	}

	query := `UPDATE matches SET ` + column + ` = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, participantID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkBye(ctx context.Context, matchID int, winnerID int, playedAt time.Time) error {
	query := `
		UPDATE matches
		SET match_type = $1, status = $2, winner_id = $3,
		    player1_score = 0, player2_score = 0, played_at = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		models.MatchTypeBye, models.MatchStatusCompleted, winnerID, playedAt, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, matchID int, p1Score, p2Score int, winnerID, loserID *int, status models.MatchStatus, playedAt *time.Time) error {
	query := `
		UPDATE matches
		SET player1_score = $1, player2_score = $2, winner_id = $3, loser_id = $4,
		    status = $5, played_at = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query, p1Score, p2Score, winnerID, loserID, status, playedAt, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, matchID int, status models.MatchStatus) error {
	query := `UPDATE matches SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_player1_id_fkey", "matches_player2_id_fkey", "matches_winner_id_fkey", "matches_loser_id_fkey":
			return ErrMatchParticipantInvalid
		case "matches_next_match_id_fkey":
			return ErrMatchNextMatchInvalid
		}
	}
	return err
}
