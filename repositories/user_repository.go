package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bgaliyev/cue-league/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRating(ctx context.Context, id int, rating float64) error
	UpdateLogoKey(ctx context.Context, id int, logoKey string) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, nickname, email, password_hash, role, rating, logo_key, created_at`

func scanUser(row interface{ Scan(dest ...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email,
		&u.PasswordHash, &u.Role, &u.Rating, &u.LogoKey, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, nickname, email, password_hash, role, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		user.Nickname,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Rating,
	).Scan(&user.ID, &user.CreatedAt)

	return r.handleUserError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user by id %d: %w", id, err)
	}
	return user, nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user by email: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) UpdateRating(ctx context.Context, id int, rating float64) error {
	query := `UPDATE users SET rating = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, rating, id)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateLogoKey(ctx context.Context, id int, logoKey string) error {
	query := `UPDATE users SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrUserEmailConflict
		case "users_nickname_key":
			return ErrUserNicknameConflict
		}
	}
	return err
}
