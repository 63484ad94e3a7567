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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrTournamentOrganizerFK  = errors.New("tournament organizer conflict or invalid")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	UpdateLogoKey(ctx context.Context, id int, logoKey string) error
	ListDueForStatusChange(ctx context.Context, now time.Time) ([]*models.Tournament, error)
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, description, format, seeding_mode, organizer_id,
		reg_date, start_date, end_date, location, status, max_participants, logo_key, created_at`

func scanTournament(row interface{ Scan(dest ...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Format, &t.SeedingMode, &t.OrganizerID,
		&t.RegDate, &t.StartDate, &t.EndDate, &t.Location, &t.Status, &t.MaxParticipants,
		&t.LogoKey, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, description, format, seeding_mode, organizer_id,
			 reg_date, start_date, end_date, location, status, max_participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.Format,
		tournament.SeedingMode,
		tournament.OrganizerID,
		tournament.RegDate,
		tournament.StartDate,
		tournament.EndDate,
		tournament.Location,
		tournament.Status,
		tournament.MaxParticipants,
	).Scan(&tournament.ID, &tournament.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments`)

	args := make([]interface{}, 0, 3)
	if status != nil {
		queryBuilder.WriteString(" WHERE status = $1")
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY start_date DESC, id DESC")
	queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(len(args)+1))
	args = append(args, limit)
	queryBuilder.WriteString(" OFFSET $" + strconv.Itoa(len(args)+1))
	args = append(args, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $1, description = $2, seeding_mode = $3, reg_date = $4,
		    start_date = $5, end_date = $6, location = $7, max_participants = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		tournament.Name,
		tournament.Description,
		tournament.SeedingMode,
		tournament.RegDate,
		tournament.StartDate,
		tournament.EndDate,
		tournament.Location,
		tournament.MaxParticipants,
		tournament.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLogoKey(ctx context.Context, id int, logoKey string) error {
	query := `UPDATE tournaments SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListDueForStatusChange returns tournaments whose dates have passed the
// boundary of their current status, for the periodic status scheduler.
func (r *postgresTournamentRepository) ListDueForStatusChange(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE (status = $1 AND reg_date <= $2)
		   OR (status = $3 AND start_date <= $2)
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, models.StatusSoon, now, models.StatusRegistration)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "tournaments_name_key":
			return ErrTournamentNameConflict
		case "tournaments_organizer_id_fkey":
			return ErrTournamentOrganizerFK
		}
	}
	return err
}
