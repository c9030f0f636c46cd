package core

import (
	"errors"
	"fmt"
)

// Row validation failures. A ParseError wraps exactly one of these.
var (
	ErrInsufficientFields = errors.New("insufficient data in row (expected at least identifier and email)")
	ErrEmptyIdentifier    = errors.New("identifier is empty")
	ErrEmptyEmail         = errors.New("email is empty")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidIdentifier  = errors.New("invalid identifier format")
	ErrUnknownRole        = errors.New("invalid role")
)

// Import-level failures.
var (
	ErrTooManyImports   = errors.New("too many imports in progress, please try again later")
	ErrRolesUnavailable = errors.New("role management is not available for this directory")
	ErrInvalidRoleName  = errors.New("invalid role name")
	ErrEmptySource      = errors.New("empty file")

	// ErrInvalidSettings wraps every ImportConfig validation failure.
	ErrInvalidSettings = errors.New("invalid import settings")
)

// ParseError reports why a raw record could not become a Candidate.
type ParseError struct {
	Row   int
	Value string // offending value, empty when not applicable
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInvalidEmail):
		return fmt.Sprintf("%v: %q", e.Err, e.Value)
	case errors.Is(e.Err, ErrInvalidIdentifier):
		return fmt.Sprintf("%v: %q (only letters, numbers, @, ., _, - allowed)", e.Err, e.Value)
	case errors.Is(e.Err, ErrUnknownRole):
		return fmt.Sprintf("%v: %q", e.Err, e.Value)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// SourceUnreadableError is returned when the import file cannot be opened.
// It is the only failure that aborts an import without a report.
type SourceUnreadableError struct {
	Locator string
	Err     error
}

func (e *SourceUnreadableError) Error() string {
	return fmt.Sprintf("cannot read import source %q: %v", e.Locator, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error { return e.Err }

// DuplicateResolutionError is returned when every "+n" variant of an address is taken.
type DuplicateResolutionError struct {
	Email    string
	Attempts int
}

func (e *DuplicateResolutionError) Error() string {
	return fmt.Sprintf("could not generate unique email for %s after %d attempts", e.Email, e.Attempts)
}

// CreationError wraps a directory failure while persisting an account.
type CreationError struct {
	Identifier string
	Err        error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create account %s: %v", e.Identifier, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// NotificationError wraps a welcome-message delivery failure.
// It is logged and never recorded as a row outcome.
type NotificationError struct {
	AccountID string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to send welcome notification to account %s: %v", e.AccountID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// MalformedRecordError is returned by a RowReader when a single record is
// syntactically broken but the reader can continue with the next one.
type MalformedRecordError struct {
	Err error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: %v", e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }
