package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service is the entry point used by the web server and the CLI. It adds
// persisted settings, concurrency limiting, history and metrics around a
// Pipeline.
type Service struct {
	source    RowSource
	directory AccountDirectory
	notifier  NotificationSender
	settings  SettingsStore
	history   HistoryRecorder
	observer  ImportObserver
	limiter   *ImportLimiter
	roles     RoleCatalog
	logger    *slog.Logger
}

// ServiceDeps lists the collaborators of a Service. History, Observer and
// Notifier are optional. Roles defaults to Directory when it implements
// RoleCatalog.
type ServiceDeps struct {
	Source    RowSource
	Directory AccountDirectory
	Notifier  NotificationSender
	Settings  SettingsStore
	History   HistoryRecorder
	Observer  ImportObserver
	Limiter   *ImportLimiter
	Roles     RoleCatalog
	Logger    *slog.Logger
}

// NewService creates a Service.
func NewService(deps ServiceDeps) (*Service, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("row source is required")
	case deps.Directory == nil:
		return nil, errors.New("account directory is required")
	case deps.Settings == nil:
		return nil, errors.New("settings store is required")
	}
	if deps.Limiter == nil {
		deps.Limiter = NewImportLimiter(0, 0)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Roles == nil {
		deps.Roles, _ = deps.Directory.(RoleCatalog)
	}
	return &Service{
		source:    deps.Source,
		directory: deps.Directory,
		notifier:  deps.Notifier,
		settings:  deps.Settings,
		history:   deps.History,
		observer:  deps.Observer,
		limiter:   deps.Limiter,
		roles:     deps.Roles,
		logger:    deps.Logger,
	}, nil
}

// Import runs one import with the current settings. It waits for a limiter
// slot first and returns ErrTooManyImports when none frees up in time.
func (s *Service) Import(ctx context.Context, req ImportRequest, opts ...PipelineOption) (*Report, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load import settings: %w", err)
	}

	opts = append([]PipelineOption{WithLogger(s.logger)}, opts...)
	pipeline := NewPipeline(s.source, s.directory, s.notifier, opts...)

	report, err := pipeline.Run(ctx, req, cfg)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		run := report.Run()
		run.ClientIP = ClientIPFromContext(ctx)
		run.UserAgent = UserAgentFromContext(ctx)
		if err := s.history.RecordImport(ctx, run); err != nil {
			s.logger.Warn("failed to record import history", "import_id", report.ID, "error", err)
		}
	}
	if s.observer != nil {
		s.observer.ObserveImport(report)
	}
	return report, nil
}

// Validate runs the structural preflight check on a file.
func (s *Service) Validate(ctx context.Context, locator string, delim Delimiter) (*PreflightResult, error) {
	return Preflight(ctx, s.source, locator, delim)
}

// Settings returns the current import settings.
func (s *Service) Settings(ctx context.Context) (ImportConfig, error) {
	return s.settings.Load(ctx)
}

// UpdateSettings validates and persists new import settings. The default role
// must exist in the directory.
func (s *Service) UpdateSettings(ctx context.Context, cfg ImportConfig) (ImportConfig, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return ImportConfig{}, err
	}
	ok, err := s.directory.RoleExists(ctx, cfg.DefaultRole)
	if err != nil {
		return ImportConfig{}, fmt.Errorf("check role %q: %w", cfg.DefaultRole, err)
	}
	if !ok {
		return ImportConfig{}, &ParseError{Value: cfg.DefaultRole, Err: ErrUnknownRole}
	}
	if err := s.settings.Save(ctx, cfg); err != nil {
		return ImportConfig{}, fmt.Errorf("save import settings: %w", err)
	}
	return cfg, nil
}

// History lists recent imports, newest first. Returns an empty list when no
// recorder is configured.
func (s *Service) History(ctx context.Context, limit int) ([]ImportRun, error) {
	if s.history == nil {
		return []ImportRun{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.history.ListImports(ctx, limit)
}

// Roles lists the roles rows may use.
func (s *Service) Roles(ctx context.Context) ([]string, error) {
	if s.roles == nil {
		return nil, ErrRolesUnavailable
	}
	return s.roles.Roles(ctx)
}

// AddRole creates a role. An empty label defaults to the name; adding an
// existing role is not an error.
func (s *Service) AddRole(ctx context.Context, name, label string) (string, error) {
	if s.roles == nil {
		return "", ErrRolesUnavailable
	}
	name, err := ValidateRoleName(name)
	if err != nil {
		return "", err
	}
	if label = strings.TrimSpace(label); label == "" {
		label = name
	}
	if err := s.roles.CreateRole(ctx, name, label); err != nil {
		return "", fmt.Errorf("create role %q: %w", name, err)
	}
	s.logger.Info("role added", "role", name)
	return name, nil
}

// Limiter exposes the import limiter for health checks and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}
