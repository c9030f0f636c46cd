package core

// # Error Codes Reference
//
// User-facing messages for import errors, each with a code that administrators
// can quote to support staff.
//
//	SRC001 - Source unreadable      "cannot read import source"
//	SRC002 - File not found         "no such file"
//	SRC003 - Empty file             "empty file"
//	VAL001 - Not enough columns     "insufficient data in row"
//	VAL002 - Missing identifier     "identifier is empty"
//	VAL003 - Missing e-mail         "email is empty"
//	VAL004 - Bad e-mail             "invalid email format"
//	VAL005 - Bad identifier         "invalid identifier format"
//	VAL006 - Unknown role           "invalid role"
//	VAL008 - Bad role name          "invalid role name"
//	DUP001 - Alias exhausted        "could not generate unique email"
//	DIR001 - Create failed          "failed to create account"
//	DIR002 - Connection refused     "connection refused"
//	DIR003 - Unique constraint      "duplicate key", "unique constraint"
//	DIR004 - No role management     ErrRolesUnavailable
//	FILE001 - File too large        "file too large"
//	FILE002 - Unsupported type      "unsupported file type"
//	FILE003 - Malformed record      "malformed record"
//	FILE004 - No file               "no file provided"
//	IMP001 - System busy            "too many imports"
//	IMP002 - Request cancelled      "context canceled", "context deadline exceeded"
//	RATE001 - Rate limited          "rate limit"
//	ERR000 - Fallback
//
// Typed errors are matched with errors.Is/As first; everything else falls back
// to case-insensitive substring matching, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgSourceUnreadable = UserMessage{
		Message: "The import file could not be read",
		Action:  "Check that the file exists and is a CSV, TXT or XLSX file",
		Code:    "SRC001",
	}
	msgDuplicateExhausted = UserMessage{
		Message: "No free e-mail alias could be generated",
		Action:  "Use a different e-mail address for this account",
		Code:    "DUP001",
	}
	msgCreateFailed = UserMessage{
		Message: "The account could not be created",
		Action:  "Check the directory logs and retry the row",
		Code:    "DIR001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled or timed out",
		Action:  "Please try again",
		Code:    "IMP002",
	}
)

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrInsufficientFields, UserMessage{"Row does not have enough columns", "Provide at least identifier and e-mail", "VAL001"}},
	{ErrEmptyIdentifier, UserMessage{"Identifier is empty", "Fill in the username column", "VAL002"}},
	{ErrEmptyEmail, UserMessage{"E-mail is empty", "Fill in the e-mail column", "VAL003"}},
	{ErrInvalidEmail, UserMessage{"E-mail address is not valid", "Use a plain address like name@example.com", "VAL004"}},
	{ErrInvalidIdentifier, UserMessage{"Identifier contains invalid characters", "Use only letters, numbers, @, ., _ and -", "VAL005"}},
	{ErrInvalidRoleName, UserMessage{"Role name is not valid", "Use only letters, numbers, _, . and -", "VAL008"}},
	{ErrUnknownRole, UserMessage{"Role does not exist", "Use an existing role or leave the column empty", "VAL006"}},
	{ErrInvalidSettings, UserMessage{"Import settings are not valid", "Use a maximum import size between 1 and 10000 and an existing role", "VAL007"}},
	{ErrRolesUnavailable, UserMessage{"Roles cannot be managed here", "Add roles directly in the account directory", "DIR004"}},
	{ErrTooManyImports, msgBusy},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgCancelled},
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Order matters: more specific patterns come first.
var errorPatterns = []errorPattern{
	{"no such file", UserMessage{"The import file was not found", "Upload the file again", "SRC002"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload a file with at least one data row", "SRC003"}},
	{"cannot read import source", msgSourceUnreadable},
	{"could not generate unique email", msgDuplicateExhausted},
	{"duplicate key", UserMessage{"The account already exists", "Remove the row or change its identifier", "DIR003"}},
	{"unique constraint", UserMessage{"The account already exists", "Remove the row or change its identifier", "DIR003"}},
	{"connection refused", UserMessage{"Unable to reach the account directory", "Please try again in a few moments", "DIR002"}},
	{"failed to create account", msgCreateFailed},
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE001"}},
	{"unsupported file type", UserMessage{"File type is not supported", "Upload a .csv, .txt or .xlsx file", "FILE002"}},
	{"malformed record", UserMessage{"The row could not be parsed", "Check quoting and delimiters on this row", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a file to import", "FILE004"}},
	{"too many imports", msgBusy},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgCancelled},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000). Check the
// application logs for the technical error when users report it.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var (
		srcErr    *SourceUnreadableError
		dupErr    *DuplicateResolutionError
		createErr *CreationError
	)
	switch {
	case errors.As(err, &dupErr):
		return msgDuplicateExhausted
	case errors.As(err, &srcErr):
		if m, ok := matchPattern(srcErr.Err); ok {
			return m
		}
		return msgSourceUnreadable
	case errors.As(err, &createErr):
		if m, ok := matchPattern(createErr.Err); ok {
			return m
		}
		return msgCreateFailed
	}

	if m, ok := matchPattern(err); ok {
		return m
	}
	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a display string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message (for display).
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
