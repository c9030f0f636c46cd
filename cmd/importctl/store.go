package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/userimport/internal/config"
	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/JonMunkholm/userimport/internal/directory"
	"github.com/JonMunkholm/userimport/internal/notify"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultSQLitePath = "userimport.db"

type accountStore interface {
	core.AccountDirectory
	core.RoleCatalog
	notify.AccountLookup
}

// store bundles the persistence a command runs against.
type store struct {
	accounts accountStore
	settings core.SettingsStore
	history  core.HistoryRecorder
	close    func()
}

// openStore opens "postgres" (DATABASE_URL) or "sqlite:<path>". An empty name
// picks postgres when DATABASE_URL is set and the default SQLite file
// otherwise.
func openStore(ctx context.Context, name string, cfg *config.Config) (*store, error) {
	if name == "" {
		name = "sqlite:" + defaultSQLitePath
		if cfg.Database.URL != "" {
			name = "postgres"
		}
	}

	switch {
	case name == "postgres":
		if cfg.Database.URL == "" {
			return nil, withCode(exitUsage, fmt.Errorf("--store postgres requires DATABASE_URL"))
		}
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := directory.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		accounts := directory.NewPostgres(pool)
		if err := core.EnsureRoles(ctx, accounts, cfg.ImportRoles()); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			accounts: accounts,
			settings: directory.NewSettingsRepository(pool, cfg.ImportConfig()),
			history:  directory.NewHistoryRepository(pool),
			close:    pool.Close,
		}, nil

	case strings.HasPrefix(name, "sqlite:"):
		path := strings.TrimPrefix(name, "sqlite:")
		if path == "" {
			path = defaultSQLitePath
		}
		db, err := directory.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		accounts, err := directory.NewGorm(ctx, db)
		if err == nil {
			err = core.EnsureRoles(ctx, accounts, cfg.ImportRoles())
		}
		if err != nil {
			closeDB()
			return nil, err
		}
		return &store{
			accounts: accounts,
			settings: core.NewStaticSettings(cfg.ImportConfig()),
			close:    closeDB,
		}, nil
	}

	return nil, withCode(exitUsage, fmt.Errorf("unknown store %q (use postgres or sqlite:<path>)", name))
}
