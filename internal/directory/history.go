package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/google/uuid"
)

// HistoryRepository records completed imports in import_runs.
type HistoryRepository struct {
	db DBTX
}

func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) RecordImport(ctx context.Context, run core.ImportRun) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		id = uuid.New()
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO import_runs
		   (id, locator, total_processed, created, skipped, errors, started_at, duration_ms, client_ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, run.Locator, run.Total, run.Created, run.Skipped, run.Errors,
		run.StartedAt, run.Duration.Milliseconds(), run.ClientIP, run.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListImports returns the most recent runs first.
func (r *HistoryRepository) ListImports(ctx context.Context, limit int) ([]core.ImportRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, locator, total_processed, created, skipped, errors, started_at, duration_ms, client_ip, user_agent
		 FROM import_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	runs := make([]core.ImportRun, 0)
	for rows.Next() {
		var (
			run        core.ImportRun
			id         uuid.UUID
			durationMS int64
		)
		if err := rows.Scan(&id, &run.Locator, &run.Total, &run.Created, &run.Skipped, &run.Errors,
			&run.StartedAt, &durationMS, &run.ClientIP, &run.UserAgent); err != nil {
			return nil, err
		}
		run.ID = id.String()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
