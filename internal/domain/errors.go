package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user id cannot be resolved.
	ErrUserNotFound = errors.New("user id does not exist")
	// ErrUsernameTaken is returned by stores when the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
)

// ValidationError describes a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors keeps field failures in the order they were detected.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return v[0].Message
}

// First returns the earliest recorded failure.
func (v ValidationErrors) First() ValidationError {
	if len(v) == 0 {
		return ValidationError{Message: "validation failed"}
	}
	return v[0]
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
