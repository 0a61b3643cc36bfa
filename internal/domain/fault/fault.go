// Package fault defines the error kinds shared by the lending domain services.
// Handlers discriminate on these to choose a status code and user message, so
// services must wrap or return them rather than opaque fmt.Errorf strings.
package fault

import "errors"

var (
	// ErrNotFound: the referenced loan, offer or record no longer exists.
	ErrNotFound = errors.New("not_found")

	// ErrConflict: the loan already has an accepted offer. Losing an accept
	// race surfaces as this; callers treat it as an expected outcome, not a
	// retryable failure.
	ErrConflict = errors.New("conflict")

	// ErrState: an illegal status transition was attempted, e.g. accepting an
	// offer that is already accepted or rejected.
	ErrState = errors.New("illegal_state")

	// ErrForbidden: the acting user does not own the record.
	ErrForbidden = errors.New("forbidden")
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
