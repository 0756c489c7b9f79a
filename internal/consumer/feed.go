package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/frossokourou/exercise-tracker/internal/events"
)

// FeedHandler prints a one-line activity feed entry per event.
type FeedHandler struct {
	logger *log.Logger
}

// NewFeedHandler writes entries to logger.
func NewFeedHandler(logger *log.Logger) *FeedHandler {
	return &FeedHandler{logger: logger}
}

// Handle decodes the payload for the event type in the header. Unknown types
// are skipped so newer producers do not stall the feed.
func (h *FeedHandler) Handle(_ context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeUserRegistered:
		var e events.UserRegistered
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		h.logger.Printf("%s joined (id=%s)", e.Username, e.UserID)
	case events.TypeExerciseLogged:
		var e events.ExerciseLogged
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		if e.Duration <= 0 {
			return fmt.Errorf("exercise.logged for %s has non-positive duration", e.UserID)
		}
		minutesCounter.Add(e.Duration)
		h.logger.Printf("%s logged %q for %s min on %s",
			e.Username, e.Description, strconv.FormatFloat(e.Duration, 'f', -1, 64), e.Date.Format(time.DateOnly))
	default:
		h.logger.Printf("skipping unknown event type %q at offset %d", msg.EventType, msg.Offset)
	}
	return nil
}
