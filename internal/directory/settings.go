package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/jackc/pgx/v5"
)

// SettingsRepository stores import settings in a single-row table. Until the
// first Save, Load returns the fallback settings.
type SettingsRepository struct {
	db       DBTX
	fallback core.ImportConfig
}

// NewSettingsRepository creates a repository that returns fallback when
// nothing has been saved yet.
func NewSettingsRepository(db DBTX, fallback core.ImportConfig) *SettingsRepository {
	return &SettingsRepository{db: db, fallback: fallback.Normalize()}
}

func (r *SettingsRepository) Load(ctx context.Context) (core.ImportConfig, error) {
	var cfg core.ImportConfig
	err := r.db.QueryRow(ctx,
		`SELECT default_role, max_import_size, logging_enabled, allow_duplicate_emails
		 FROM import_settings WHERE id = 1`,
	).Scan(&cfg.DefaultRole, &cfg.MaxImportSize, &cfg.LoggingEnabled, &cfg.AllowDuplicateEmails)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.fallback, nil
	}
	if err != nil {
		return core.ImportConfig{}, fmt.Errorf("load settings: %w", err)
	}
	return cfg, nil
}

func (r *SettingsRepository) Save(ctx context.Context, cfg core.ImportConfig) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO import_settings (id, default_role, max_import_size, logging_enabled, allow_duplicate_emails, updated_at)
		 VALUES (1, $1, $2, $3, $4, now())
		 ON CONFLICT (id) DO UPDATE SET
		     default_role = EXCLUDED.default_role,
		     max_import_size = EXCLUDED.max_import_size,
		     logging_enabled = EXCLUDED.logging_enabled,
		     allow_duplicate_emails = EXCLUDED.allow_duplicate_emails,
		     updated_at = now()`,
		cfg.DefaultRole, cfg.MaxImportSize, cfg.LoggingEnabled, cfg.AllowDuplicateEmails,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
