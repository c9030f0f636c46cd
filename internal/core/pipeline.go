package core

// pipeline.go runs a single import from start to finish.
//
// Rows are processed strictly in file order, one at a time. Each processed row
// produces exactly one outcome; a failing row is recorded and the loop moves on.
// The row counter includes the header record, so the first data row is row 2
// when a header is present and row 1 otherwise.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Pipeline orchestrates parsing, duplicate resolution and account creation.
type Pipeline struct {
	source    RowSource
	directory AccountDirectory
	notifier  NotificationSender
	parser    *RowParser
	policy    *DuplicatePolicy
	logger    *slog.Logger
	progress  ProgressCallback
	now       func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProgress registers a callback for phase and row updates.
func WithProgress(fn ProgressCallback) PipelineOption {
	return func(p *Pipeline) { p.progress = fn }
}

// NewPipeline creates a pipeline. notifier may be nil, in which case welcome
// notifications are never sent.
func NewPipeline(source RowSource, directory AccountDirectory, notifier NotificationSender, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:    source,
		directory: directory,
		notifier:  notifier,
		parser:    NewRowParser(directory),
		policy:    NewDuplicatePolicy(directory),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run imports the file described by req using cfg.
//
// The only errors returned are for an invalid cfg and for a source that cannot
// be opened or whose header cannot be read (*SourceUnreadableError). Everything
// else ends up in the report.
func (p *Pipeline) Run(ctx context.Context, req ImportRequest, cfg ImportConfig) (*Report, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("import config: %w", err)
	}
	delim := req.Delimiter
	if delim == 0 {
		delim = DelimiterComma
	}

	start := p.now()
	report := newReport(uuid.NewString(), req.Locator, start)
	p.notify(report, PhaseInitializing)

	opened, err := p.source.Open(ctx, req.Locator, delim)
	if err != nil {
		return nil, &SourceUnreadableError{Locator: req.Locator, Err: err}
	}
	reader := &onceCloser{RowReader: opened}
	defer p.closeSource(reader, req.Locator)

	row := 0
	if req.HasHeader {
		p.notify(report, PhaseReadingHeader)
		_, err := reader.Next()
		row++
		var malformed *MalformedRecordError
		switch {
		case errors.Is(err, io.EOF):
			return p.finish(reader, report, cfg, start), nil
		case err != nil && !errors.As(err, &malformed):
			p.logger.Error("failed to read header", "locator", req.Locator, "error", err)
			return nil, &SourceUnreadableError{Locator: req.Locator, Err: err}
		}
	}

	p.notify(report, PhaseReadingRows)
	for report.TotalProcessed < cfg.MaxImportSize {
		fields, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		report.TotalProcessed++

		if err != nil {
			report.record(p.rowError(row, err))
			p.notify(report, PhaseReadingRows)
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				continue
			}
			break
		}

		report.record(p.processRow(ctx, fields, row, req, cfg))
		p.notify(report, PhaseReadingRows)
	}

	return p.finish(reader, report, cfg, start), nil
}

func (p *Pipeline) processRow(ctx context.Context, fields []string, row int, req ImportRequest, cfg ImportConfig) Outcome {
	candidate, err := p.parser.Parse(ctx, fields, row, cfg.DefaultRole)
	if err != nil {
		return p.rowError(row, err)
	}

	decision, err := p.policy.Resolve(ctx, candidate, cfg.AllowDuplicateEmails)
	if err != nil {
		return p.rowError(row, err)
	}
	if decision.Action == ActionSkip {
		if cfg.LoggingEnabled {
			p.logger.Info("skipping existing user", "row", row, "identifier", candidate.Identifier)
		}
		return Skipped{Row: row, Identifier: candidate.Identifier}
	}

	candidate = decision.Candidate
	if decision.Rewritten && cfg.LoggingEnabled {
		p.logger.Info("rewrote duplicate email", "row", row, "identifier", candidate.Identifier, "email", candidate.Email)
	}

	id, err := p.directory.CreateAccount(ctx, candidate, req.ActivateUsers)
	if err != nil {
		return p.rowError(row, &CreationError{Identifier: candidate.Identifier, Err: err})
	}
	if cfg.LoggingEnabled {
		p.logger.Info("created user",
			"row", row,
			"identifier", candidate.Identifier,
			"email", candidate.Email,
			"role", candidate.Role,
			"account_id", id,
		)
	}

	if req.ActivateUsers && req.SendNotifications && p.notifier != nil {
		if err := p.notifier.SendWelcome(ctx, id); err != nil {
			nerr := &NotificationError{AccountID: id, Err: err}
			p.logger.Warn("welcome notification failed", "row", row, "error", nerr)
		}
	}

	return Created{
		Row:        row,
		Identifier: candidate.Identifier,
		Email:      candidate.Email,
		Role:       candidate.Role,
		AccountID:  id,
	}
}

func (p *Pipeline) rowError(row int, err error) RowError {
	p.logger.Error("import row failed", "row", row, "error", err)
	return RowError{Row: row, Message: err.Error()}
}

func (p *Pipeline) finish(reader *onceCloser, report *Report, cfg ImportConfig, start time.Time) *Report {
	p.notify(report, PhaseFinalizing)
	p.closeSource(reader, report.Locator)
	report.Duration = p.now().Sub(start)
	if cfg.LoggingEnabled {
		p.logger.Info("import completed",
			"import_id", report.ID,
			"locator", report.Locator,
			"total", report.TotalProcessed,
			"created", report.CreatedCount(),
			"skipped", report.SkippedCount(),
			"errors", report.ErrorCount(),
			"duration_ms", report.Duration.Milliseconds(),
		)
	}
	p.notify(report, PhaseDone)
	return report
}

func (p *Pipeline) notify(report *Report, phase Phase) {
	if p.progress != nil {
		p.progress(report.progress(phase))
	}
}

func (p *Pipeline) closeSource(r *onceCloser, locator string) {
	if err := r.Close(); err != nil {
		p.logger.Warn("failed to close import source", "locator", locator, "error", err)
	}
}

// onceCloser makes Close idempotent so the source is closed during
// finalization and still released on early returns.
type onceCloser struct {
	RowReader
	closed bool
}

func (r *onceCloser) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.RowReader.Close()
}
