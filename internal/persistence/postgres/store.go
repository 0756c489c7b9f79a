// Package postgres implements the Record Store on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store keeps users in one table and their exercises in another, ordered by
// a serial column so the log reflects insertion order.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findBy(ctx, `SELECT id, username FROM users WHERE id=$1`, id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findBy(ctx, `SELECT id, username FROM users WHERE username=$1`, username)
}

func (s *Store) findBy(ctx context.Context, query, arg string) (*domain.User, error) {
	var user domain.User
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT description, duration, performed_on
        FROM exercises WHERE user_id=$1 ORDER BY seq`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}
	defer rows.Close()

	user.Exercises = make([]domain.Exercise, 0)
	for rows.Next() {
		var e domain.Exercise
		if err := rows.Scan(&e.Description, &e.Duration, &e.Date); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		e.Date = e.Date.UTC()
		user.Exercises = append(user.Exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}
	return &user, nil
}

func (s *Store) Insert(ctx context.Context, user domain.User) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO users (id, username) VALUES ($1, $2)`, user.ID, user.Username)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "users_username_key" {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, username FROM users ORDER BY username COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserSummary, 0)
	for rows.Next() {
		var u domain.UserSummary
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AppendExercise inserts a single row; the foreign key rejects unknown users.
func (s *Store) AppendExercise(ctx context.Context, userID string, exercise domain.Exercise) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO exercises (user_id, description, duration, performed_on)
        VALUES ($1, $2, $3, $4)`, userID, exercise.Description, exercise.Duration, exercise.Date.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("append exercise: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
