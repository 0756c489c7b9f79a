// Package memory provides a process-local Record Store.
package memory

import (
	"context"
	"sync"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

// Store keeps users in maps guarded by a RWMutex. Contents are lost on exit.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
	order      []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(user), nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	return clone(s.byID[id]), nil
}

func (s *Store) Insert(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[user.Username]; taken {
		return domain.ErrUsernameTaken
	}
	stored := clone(&user)
	s.byID[user.ID] = stored
	s.byUsername[user.Username] = user.ID
	s.order = append(s.order, user.ID)
	return nil
}

// ListUsers returns users in registration order; the service sorts them.
func (s *Store) ListUsers(_ context.Context) ([]domain.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserSummary, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.byID[id].Summary())
	}
	return users, nil
}

func (s *Store) AppendExercise(_ context.Context, userID string, exercise domain.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Exercises = append(user.Exercises, exercise)
	return nil
}

func (s *Store) Close() error {
	return nil
}

func clone(u *domain.User) *domain.User {
	out := *u
	out.Exercises = append(make([]domain.Exercise, 0, len(u.Exercises)), u.Exercises...)
	return &out
}
