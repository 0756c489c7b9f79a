package api

import (
	"errors"
	"net/http"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

// StatusError is a failure that carries its own HTTP status and public message.
type StatusError struct {
	Status  int
	Message string
}

func (e StatusError) Error() string {
	return e.Message
}

// fail is the single place where errors become responses. Only validation
// messages and declared statuses reach the client; everything else is logged
// and answered with a generic 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs  domain.ValidationErrors
		verr   domain.ValidationError
		status StatusError
	)

	switch {
	case errors.As(err, &verrs):
		writeText(w, http.StatusBadRequest, verrs.First().Message)
	case errors.As(err, &verr):
		writeText(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrUserNotFound):
		writeText(w, http.StatusNotFound, domain.ErrUserNotFound.Error())
	case errors.As(err, &status):
		writeText(w, status.Status, status.Message)
	default:
		h.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeText(w, http.StatusInternalServerError, "internal error")
	}
}
