package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound indicates the requested resource was not found.
var ErrNotFound = errors.New("not found")

// FieldError is a validation message for one input field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents an invalid-input condition (HTTP 422).
// Fields keeps the order in which problems were detected.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, " ")
}

// Add appends a message for field
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it holds messages and nil otherwise
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Invalid builds a single-field ValidationError
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError lists the IDs that did not resolve to a row
type NotFoundError struct {
	IDs []uuid.UUID
}

func (e *NotFoundError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return "users not found: " + strings.Join(ids, ", ")
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

const (
	msgEmailTaken = "The email has already been taken."
	msgPhoneTaken = "The phone has already been taken."

	msgImageTooLarge = "The image is too large."
	msgImageType     = "The image must be a file of type: jpeg, png, gif, webp."
)

// translateConflict turns a unique-constraint violation from the store into
// the same ValidationError the pre-check produces. Other errors pass through.
func translateConflict(err error) error {
	if err == nil || !isUniqueViolation(err) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "phone") {
		return Invalid("phone", msgPhoneTaken)
	}
	return Invalid("email", msgEmailTaken)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
