// Package events describes the domain events emitted by the exercise tracker
// and the publishers that deliver them.
package events

import (
	"context"
	"time"
)

const (
	// TypeUserRegistered is emitted after a new user is persisted.
	TypeUserRegistered = "user.registered"
	// TypeExerciseLogged is emitted after an exercise is appended to a log.
	TypeExerciseLogged = "exercise.logged"
)

// Event is a payload that can be published. Key selects the partition.
type Event interface {
	Type() string
	Key() string
}

// Publisher delivers events to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// UserRegistered announces a newly created user.
type UserRegistered struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (UserRegistered) Type() string  { return TypeUserRegistered }
func (e UserRegistered) Key() string { return e.UserID }

// ExerciseLogged announces an exercise appended to a user's log.
type ExerciseLogged struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Date        time.Time `json:"date"`
	LoggedAt    time.Time `json:"logged_at"`
}

func (ExerciseLogged) Type() string  { return TypeExerciseLogged }
func (e ExerciseLogged) Key() string { return e.UserID }

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
