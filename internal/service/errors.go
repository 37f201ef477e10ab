package service

import (
	"errors"
	"fmt"
)

// Rejection outcomes and failures the handlers map to HTTP statuses.
// Validation and conflict errors are normal outcomes of the admission
// machinery, never crashes.
var (
	ErrDuplicateIdentity = errors.New("participant identity already used")
	ErrQuotaFull         = errors.New("region quota full")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionTerminal   = errors.New("session already finished")
)

// ValidationError marks malformed input rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
