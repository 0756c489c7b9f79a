// Package sqlite implements the Record Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

const dateLayout = time.RFC3339Nano

// Store wraps a sql.DB connection.
type Store struct {
	conn *sql.DB
}

// Open opens the database at path (":memory:" for a throwaway database).
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers anyway, and an in-memory database only lives
	// as long as its single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS exercises (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			description TEXT NOT NULL,
			duration REAL NOT NULL CHECK (duration > 0),
			performed_on TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS exercises_user_seq_idx ON exercises (user_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.conn.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findBy(ctx, "SELECT id, username FROM users WHERE id = ?", id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findBy(ctx, "SELECT id, username FROM users WHERE username = ?", username)
}

func (s *Store) findBy(ctx context.Context, query, arg string) (*domain.User, error) {
	var user domain.User
	if err := s.conn.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		"SELECT description, duration, performed_on FROM exercises WHERE user_id = ? ORDER BY seq",
		user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}
	defer rows.Close()

	user.Exercises = make([]domain.Exercise, 0)
	for rows.Next() {
		var (
			e    domain.Exercise
			date string
		)
		if err := rows.Scan(&e.Description, &e.Duration, &date); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		if e.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parse exercise date %q: %w", date, err)
		}
		user.Exercises = append(user.Exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}
	return &user, nil
}

func (s *Store) Insert(ctx context.Context, user domain.User) error {
	_, err := s.conn.ExecContext(ctx, "INSERT INTO users (id, username) VALUES (?, ?)", user.ID, user.Username)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ListUsers relies on SQLite's default BINARY collation for byte order.
func (s *Store) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT id, username FROM users ORDER BY username")
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

func (s *Store) AppendExercise(ctx context.Context, userID string, exercise domain.Exercise) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", userID).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return domain.ErrUserNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO exercises (user_id, description, duration, performed_on) VALUES (?, ?, ?, ?)",
		userID, exercise.Description, exercise.Duration, exercise.Date.UTC().Format(dateLayout),
	); err != nil {
		return fmt.Errorf("append exercise: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func isUniqueViolation(err error, column string) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE && strings.Contains(sqliteErr.Error(), column)
}
