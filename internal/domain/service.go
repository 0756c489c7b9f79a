// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/frossokourou/exercise-tracker/internal/events"
	"github.com/frossokourou/exercise-tracker/internal/observability"
)

// Service orchestrates user registration and exercise log workflows.
type Service struct {
	store          Store
	ids            IDGenerator
	publisher      events.Publisher
	publishTimeout time.Duration
	limitMode      LimitMode
	now            func() time.Time
	logger         *log.Logger
}

const defaultPublishTimeout = 2 * time.Second

// Option customises a Service.
type Option func(*Service)

// WithPublisher emits domain events after successful writes.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithPublishTimeout bounds each publish. Publishing runs detached from the
// request context, so a slow broker delays a write by at most d.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithLimitMode selects how log queries apply their limit.
func WithLimitMode(mode LimitMode) Option {
	return func(s *Service) { s.limitMode = mode }
}

// WithClock overrides the time source used for default exercise dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, ids IDGenerator, opts ...Option) *Service {
	s := &Service{
		store:          store,
		ids:            ids,
		publisher:      events.NoopPublisher{},
		publishTimeout: defaultPublishTimeout,
		limitMode:      LimitSuffix,
		now:            time.Now,
		logger:         log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registration is the outcome of Register. Taken reports that the username
// already belongs to someone; in that case only User.Username is set.
type Registration struct {
	User  UserSummary
	Taken bool
}

// Register creates a user with a fresh id and an empty log.
func (s *Service) Register(ctx context.Context, username string) (Registration, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Registration{}, ValidationErrors{{Field: "username", Message: "username is required"}}
	}

	existing, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return Registration{}, err
	}
	if existing != nil {
		return Registration{User: UserSummary{Username: username}, Taken: true}, nil
	}

	user := User{ID: s.ids.NewID(), Username: username, Exercises: []Exercise{}}
	if err := s.store.Insert(ctx, user); err != nil {
		// A concurrent registration won the race at the store.
		if errors.Is(err, ErrUsernameTaken) {
			return Registration{User: UserSummary{Username: username}, Taken: true}, nil
		}
		return Registration{}, err
	}

	observability.RecordUserRegistered()
	s.publish(ctx, events.UserRegistered{
		UserID:       user.ID,
		Username:     user.Username,
		RegisteredAt: s.now().UTC(),
	})
	return Registration{User: user.Summary()}, nil
}

// ListUsers returns every user sorted by username.
func (s *Service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(users, func(a, b UserSummary) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

// LogExerciseInput carries the raw fields of an exercise submission.
// UserID, Description and Duration are required; an empty Date means now.
type LogExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

func (in LogExerciseInput) exercise(now time.Time) (Exercise, error) {
	var errs ValidationErrors

	description := strings.TrimSpace(in.Description)
	if description == "" {
		errs = append(errs, ValidationError{Field: "description", Message: "exercise description missing"})
	}

	var duration float64
	if raw := strings.TrimSpace(in.Duration); raw == "" {
		errs = append(errs, ValidationError{Field: "duration", Message: "exercise duration missing"})
	} else if parsed, err := strconv.ParseFloat(raw, 64); err != nil || parsed <= 0 || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		errs = append(errs, ValidationError{Field: "duration", Message: "exercise duration must be a positive number"})
	} else {
		duration = parsed
	}

	date := now
	if strings.TrimSpace(in.Date) != "" {
		parsed, ok := ParseDate(in.Date)
		if !ok {
			errs = append(errs, ValidationError{Field: "date", Message: "exercise date is not a valid date"})
		}
		date = parsed
	}

	if err := errs.orNil(); err != nil {
		return Exercise{}, err
	}
	// Millisecond precision is what every backend can store.
	return Exercise{Description: description, Duration: duration, Date: date.Truncate(time.Millisecond)}, nil
}

// LoggedExercise is the outcome of LogExercise.
type LoggedExercise struct {
	User     UserSummary
	Exercise Exercise
}

// LogExercise appends an exercise to the user's log. The user is resolved
// before any field is validated.
func (s *Service) LogExercise(ctx context.Context, in LogExerciseInput) (LoggedExercise, error) {
	user, err := s.resolve(ctx, in.UserID)
	if err != nil {
		return LoggedExercise{}, err
	}

	exercise, err := in.exercise(s.now().UTC())
	if err != nil {
		return LoggedExercise{}, err
	}

	if err := s.store.AppendExercise(ctx, user.ID, exercise); err != nil {
		return LoggedExercise{}, err
	}

	loggedAt := s.now().UTC()
	observability.RecordExerciseLogged(loggedAt)
	s.publish(ctx, events.ExerciseLogged{
		UserID:      user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date,
		LoggedAt:    loggedAt,
	})
	return LoggedExercise{User: user.Summary(), Exercise: exercise}, nil
}

// Log is a user's exercise log, possibly filtered.
type Log struct {
	User      UserSummary
	Exercises []Exercise
}

// Count is always the length of Exercises.
func (l Log) Count() int {
	return len(l.Exercises)
}

// UserLog returns the complete, unfiltered log.
func (s *Service) UserLog(ctx context.Context, userID string) (Log, error) {
	user, err := s.resolve(ctx, userID)
	if err != nil {
		return Log{}, err
	}
	exercises := user.Exercises
	if exercises == nil {
		exercises = []Exercise{}
	}
	return Log{User: user.Summary(), Exercises: exercises}, nil
}

// QueryLog returns the log filtered by date bounds and limit.
func (s *Service) QueryLog(ctx context.Context, q LogQuery) (Log, error) {
	user, err := s.resolve(ctx, q.UserID)
	if err != nil {
		return Log{}, err
	}
	return Log{
		User:      user.Summary(),
		Exercises: FilterExercises(user.Exercises, q, s.limitMode),
	}, nil
}

func (s *Service) resolve(ctx context.Context, userID string) (*User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Printf("publish %s for %s failed: %v", event.Type(), event.Key(), err)
	}
}
