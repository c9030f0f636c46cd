package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Candidate is a parsed, validated account awaiting duplicate resolution.
type Candidate struct {
	Identifier string
	Email      string
	Role       string
}

// Outcome is the result recorded for a single processed row.
// It is one of Created, Skipped or RowError.
type Outcome interface {
	RowNumber() int
	outcome()
}

// Created records a row that produced a new account.
type Created struct {
	Row        int    `json:"row"`
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	AccountID  string `json:"account_id"`
}

// Skipped records a row whose identifier or e-mail already existed.
type Skipped struct {
	Row        int    `json:"row"`
	Identifier string `json:"identifier"`
}

// RowError records a row that failed parsing, lookup or creation.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (c Created) RowNumber() int  { return c.Row }
func (s Skipped) RowNumber() int  { return s.Row }
func (e RowError) RowNumber() int { return e.Row }

func (Created) outcome()  {}
func (Skipped) outcome()  {}
func (RowError) outcome() {}

// String formats the error the way it is shown to administrators.
func (e RowError) String() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// Delimiter is the field separator of an import file.
type Delimiter rune

const (
	DelimiterComma     Delimiter = ','
	DelimiterSemicolon Delimiter = ';'
	DelimiterTab       Delimiter = '\t'
	DelimiterPipe      Delimiter = '|'
)

var delimiterNames = map[string]Delimiter{
	"comma":     DelimiterComma,
	"semicolon": DelimiterSemicolon,
	"tab":       DelimiterTab,
	"pipe":      DelimiterPipe,
	",":         DelimiterComma,
	";":         DelimiterSemicolon,
	"\t":        DelimiterTab,
	`\t`:        DelimiterTab,
	"|":         DelimiterPipe,
}

// ParseDelimiter accepts a delimiter symbol or name. Empty input means comma.
func ParseDelimiter(s string) (Delimiter, error) {
	if s == "" {
		return DelimiterComma, nil
	}
	if d, ok := delimiterNames[strings.ToLower(s)]; ok {
		return d, nil
	}
	if d, ok := delimiterNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q (use comma, semicolon, tab or pipe)", s)
}

// Name returns the human-readable name of the delimiter.
func (d Delimiter) Name() string {
	switch d {
	case DelimiterComma:
		return "comma"
	case DelimiterSemicolon:
		return "semicolon"
	case DelimiterTab:
		return "tab"
	case DelimiterPipe:
		return "pipe"
	}
	return string(d)
}

// Valid reports whether d is one of the supported delimiters.
func (d Delimiter) Valid() bool {
	switch d {
	case DelimiterComma, DelimiterSemicolon, DelimiterTab, DelimiterPipe:
		return true
	}
	return false
}

const (
	DefaultRole          = "authenticated"
	DefaultMaxImportSize = 1000
	MaxImportSizeLimit   = 10000
)

// ImportConfig holds the settings that govern a single import.
type ImportConfig struct {
	MaxImportSize        int    `json:"max_import_size"`
	DefaultRole          string `json:"default_role"`
	LoggingEnabled       bool   `json:"logging_enabled"`
	AllowDuplicateEmails bool   `json:"allow_duplicate_emails"`
}

// DefaultImportConfig returns the settings used when nothing is configured.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		MaxImportSize:  DefaultMaxImportSize,
		DefaultRole:    DefaultRole,
		LoggingEnabled: true,
	}
}

// Normalize fills in the default role and trims whitespace.
func (c ImportConfig) Normalize() ImportConfig {
	c.DefaultRole = strings.TrimSpace(c.DefaultRole)
	if c.DefaultRole == "" {
		c.DefaultRole = DefaultRole
	}
	return c
}

// Validate checks the settings are usable.
func (c ImportConfig) Validate() error {
	if c.MaxImportSize < 1 || c.MaxImportSize > MaxImportSizeLimit {
		return fmt.Errorf("%w: max import size must be between 1 and %d, got %d", ErrInvalidSettings, MaxImportSizeLimit, c.MaxImportSize)
	}
	if strings.TrimSpace(c.DefaultRole) == "" {
		return fmt.Errorf("%w: default role is required", ErrInvalidSettings)
	}
	return nil
}

// ImportRequest describes one file to import.
type ImportRequest struct {
	Locator           string
	Delimiter         Delimiter
	HasHeader         bool
	ActivateUsers     bool
	SendNotifications bool
}

// Phase indicates the current stage of an import.
type Phase string

const (
	PhaseInitializing  Phase = "initializing"
	PhaseReadingHeader Phase = "reading_header"
	PhaseReadingRows   Phase = "reading_rows"
	PhaseFinalizing    Phase = "finalizing"
	PhaseDone          Phase = "done"
)

// Progress represents the current state of an import.
type Progress struct {
	Phase     Phase
	Processed int
	Created   int
	Skipped   int
	Errors    int
}

// ProgressCallback is called on phase changes and after every processed row.
type ProgressCallback func(Progress)

// RowSource opens the file an import reads from.
type RowSource interface {
	Open(ctx context.Context, locator string, delim Delimiter) (RowReader, error)
}

// RowReader yields raw records. Next returns io.EOF when the file is exhausted.
type RowReader interface {
	Next() ([]string, error)
	Close() error
}

// AccountDirectory is the persistent store of accounts and roles.
type AccountDirectory interface {
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	RoleExists(ctx context.Context, role string) (bool, error)
	// CreateAccount persists the candidate and returns the new account id.
	CreateAccount(ctx context.Context, c Candidate, activate bool) (string, error)
}

// NotificationSender delivers the welcome message for a newly created account.
type NotificationSender interface {
	SendWelcome(ctx context.Context, accountID string) error
}

// SettingsStore persists the import settings between runs.
type SettingsStore interface {
	Load(ctx context.Context) (ImportConfig, error)
	Save(ctx context.Context, cfg ImportConfig) error
}

// ImportRun is the history record of one completed import.
type ImportRun struct {
	ID        string        `json:"id"`
	Locator   string        `json:"locator"`
	Total     int           `json:"total_processed"`
	Created   int           `json:"created"`
	Skipped   int           `json:"skipped"`
	Errors    int           `json:"errors"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	ClientIP  string        `json:"client_ip,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
}

// HistoryRecorder stores and lists completed imports.
type HistoryRecorder interface {
	RecordImport(ctx context.Context, run ImportRun) error
	ListImports(ctx context.Context, limit int) ([]ImportRun, error)
}

// ImportObserver is notified after every completed import.
type ImportObserver interface {
	ObserveImport(r *Report)
}
