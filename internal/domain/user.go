package domain

import (
	"context"
	"time"
)

// User is the root record: a unique username, a server-issued id and the
// exercise log in insertion order.
type User struct {
	ID        string
	Username  string
	Exercises []Exercise
}

// Summary projects the user down to its identifying fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// UserSummary is the username/id projection returned by listings.
type UserSummary struct {
	ID       string
	Username string
}

// Exercise is one immutable entry of a user's log.
type Exercise struct {
	Description string
	Duration    float64
	Date        time.Time
}

// Store captures the persistence operations the service relies on.
//
// FindByID and FindByUsername return (nil, nil) when no user matches.
// Exercises are returned in the store's native order, which is insertion
// order for every bundled backend. Insert reports ErrUsernameTaken when the
// username uniqueness constraint rejects the row. AppendExercise adds one
// entry atomically and reports ErrUserNotFound when the user is missing.
type Store interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Insert(ctx context.Context, user User) error
	ListUsers(ctx context.Context) ([]UserSummary, error)
	AppendExercise(ctx context.Context, userID string, exercise Exercise) error
	Close() error
}

// IDGenerator issues unique opaque user identifiers.
type IDGenerator interface {
	NewID() string
}
