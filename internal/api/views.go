package api

import (
	"time"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

// UserView is the username/id projection of a user.
type UserView struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// ExerciseView is one log entry.
type ExerciseView struct {
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Date        time.Time `json:"date"`
}

// AddExerciseResponse describes the response body for POST /api/exercise/add.
type AddExerciseResponse struct {
	Username string       `json:"username"`
	ID       string       `json:"id"`
	Exercise ExerciseView `json:"exercise"`
}

// UserLogResponse is the full log returned by GET /api/exercise/log/{id}.
type UserLogResponse struct {
	Username      string         `json:"username"`
	Exercises     []ExerciseView `json:"exercises"`
	ExerciseCount int            `json:"exerciseCount"`
}

// QueryLogResponse is the filtered log returned by GET /api/exercise/log.
type QueryLogResponse struct {
	Username      string         `json:"username"`
	ID            string         `json:"id"`
	Exercises     []ExerciseView `json:"exercises"`
	ExerciseCount int            `json:"exerciseCount"`
}

func toUserView(u domain.UserSummary) UserView {
	return UserView{Username: u.Username, ID: u.ID}
}

func toExerciseView(e domain.Exercise) ExerciseView {
	return ExerciseView{
		Description: e.Description,
		Duration:    e.Duration,
		Date:        e.Date.UTC(),
	}
}

func toExerciseViews(exercises []domain.Exercise) []ExerciseView {
	views := make([]ExerciseView, 0, len(exercises))
	for _, e := range exercises {
		views = append(views, toExerciseView(e))
	}
	return views
}
