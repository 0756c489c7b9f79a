package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/frossokourou/exercise-tracker/internal/domain"
)

const maxBodyBytes = 1 << 20

// RegisterRequest is the payload for POST /api/exercise/new-user.
type RegisterRequest struct {
	Username string `json:"username"`
}

// Validate ensures request correctness.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return domain.ValidationErrors{{Field: "username", Message: "username is required"}}
	}
	return nil
}

func (r *RegisterRequest) bindForm(form formValues) {
	r.Username = form.Get("username")
}

// AddExerciseRequest is the payload for POST /api/exercise/add. Validation
// happens in the service once the user has been resolved.
type AddExerciseRequest struct {
	UserID      string     `json:"userId"`
	Description string     `json:"description"`
	Duration    flexString `json:"duration"`
	Date        string     `json:"date"`
}

func (r *AddExerciseRequest) bindForm(form formValues) {
	r.UserID = form.Get("userId")
	r.Description = form.Get("description")
	r.Duration = flexString(form.Get("duration"))
	r.Date = form.Get("date")
}

// flexString accepts a JSON string or number and keeps its textual form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

type formValues interface {
	Get(key string) string
}

type formBinder interface {
	bindForm(form formValues)
}

// decodeBody fills req from a JSON or urlencoded body. An empty body leaves
// req zero-valued so field validation reports what is missing.
func decodeBody(w http.ResponseWriter, r *http.Request, req formBinder) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	invalid := StatusError{Status: http.StatusBadRequest, Message: "unable to parse body"}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return invalid
		}
		req.bindForm(r.PostForm)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return invalid
		}
		req.bindForm(r.PostForm)
	default:
		if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
			return invalid
		}
	}
	return nil
}
