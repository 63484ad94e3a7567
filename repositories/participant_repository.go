package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bgaliyev/cue-league/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrParticipantConflict   = errors.New("user is already registered for this tournament")
	ErrParticipantUserFK     = errors.New("participant user conflict or invalid")
	ErrParticipantTournament = errors.New("participant tournament conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.ParticipantStatus, withUser bool) ([]*models.Participant, error)
	UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error
	UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed int) error
	UpdateFinalPosition(ctx context.Context, id int, position int) error
	ApplyMatchResult(ctx context.Context, id int, framesWon, framesLost int, won bool) error
	Delete(ctx context.Context, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (user_id, tournament_id, status, rating)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		participant.UserID,
		participant.TournamentID,
		participant.Status,
		participant.Rating,
	).Scan(&participant.ID, &participant.CreatedAt)

	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `
		SELECT id, user_id, tournament_id, status, rating, seed,
		       matches_played, matches_won, frames_won, frames_lost, final_position, created_at
		FROM participants
		WHERE id = $1`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.TournamentID, &p.Status, &p.Rating, &p.Seed,
		&p.MatchesPlayed, &p.MatchesWon, &p.FramesWon, &p.FramesLost, &p.FinalPosition, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant by id %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.ParticipantStatus, withUser bool) ([]*models.Participant, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT p.id, p.user_id, p.tournament_id, p.status, p.rating, p.seed,
		       p.matches_played, p.matches_won, p.frames_won, p.frames_lost, p.final_position, p.created_at`)
	if withUser {
		queryBuilder.WriteString(`,
		       u.id, u.first_name, u.last_name, u.nickname, u.email, u.role, u.rating, u.logo_key, u.created_at`)
	}
	queryBuilder.WriteString(` FROM participants p`)
	if withUser {
		queryBuilder.WriteString(` JOIN users u ON u.id = p.user_id`)
	}
	queryBuilder.WriteString(` WHERE p.tournament_id = $1`)

	args := []interface{}{tournamentID}
	if status != nil {
		queryBuilder.WriteString(" AND p.status = $" + strconv.Itoa(len(args)+1))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY p.created_at ASC, p.id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		if withUser {
			u := &models.User{}
			err = rows.Scan(
				&p.ID, &p.UserID, &p.TournamentID, &p.Status, &p.Rating, &p.Seed,
				&p.MatchesPlayed, &p.MatchesWon, &p.FramesWon, &p.FramesLost, &p.FinalPosition, &p.CreatedAt,
				&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.Role, &u.Rating, &u.LogoKey, &u.CreatedAt,
			)
			p.User = u
		} else {
			err = rows.Scan(
				&p.ID, &p.UserID, &p.TournamentID, &p.Status, &p.Rating, &p.Seed,
				&p.MatchesPlayed, &p.MatchesWon, &p.FramesWon, &p.FramesLost, &p.FinalPosition, &p.CreatedAt,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	query := `UPDATE participants SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed int) error {
	query := `UPDATE participants SET seed = $1 WHERE id = $2`
	result, err := r.executor(exec).ExecContext(ctx, query, seed, id)
	if err != nil {
		return fmt.Errorf("UpdateSeed: failed to execute query for participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateFinalPosition(ctx context.Context, id int, position int) error {
	query := `UPDATE participants SET final_position = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, position, id)
	if err != nil {
		return fmt.Errorf("UpdateFinalPosition: failed to execute query for participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) ApplyMatchResult(ctx context.Context, id int, framesWon, framesLost int, won bool) error {
	query := `
		UPDATE participants
		SET matches_played = matches_played + 1,
		    matches_won = matches_won + CASE WHEN $1 THEN 1 ELSE 0 END,
		    frames_won = frames_won + $2,
		    frames_lost = frames_lost + $3
		WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, won, framesWon, framesLost, id)
	if err != nil {
		return fmt.Errorf("ApplyMatchResult: failed to execute query for participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM participants WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "participants_user_id_tournament_id_key":
			return ErrParticipantConflict
		case "participants_user_id_fkey":
			return ErrParticipantUserFK
		case "participants_tournament_id_fkey":
			return ErrParticipantTournament
		}
	}
	return err
}
