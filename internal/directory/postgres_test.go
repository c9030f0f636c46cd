package directory

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresTx returns a transaction on TEST_DATABASE_URL that is rolled back
// when the test ends.
func postgresTx(t *testing.T) pgx.Tx {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { tx.Rollback(context.Background()) })
	return tx
}

func TestPostgres_Directory(t *testing.T) {
	tx := postgresTx(t)
	ctx := context.Background()
	dir := NewPostgres(tx)
	suffix := uuid.NewString()[:8]
	name := "it_" + suffix

	id, err := dir.CreateAccount(ctx, core.Candidate{Identifier: name, Email: name + "@x.com", Role: core.DefaultRole}, true)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if ok, _ := dir.ExistsByIdentifier(ctx, "IT_"+suffix); !ok {
		t.Error("identifier lookup should be case-insensitive")
	}
	if ok, _ := dir.ExistsByEmail(ctx, name+"@X.COM"); !ok {
		t.Error("email lookup should be case-insensitive")
	}

	acct, err := dir.AccountByID(ctx, id)
	if err != nil {
		t.Fatalf("AccountByID: %v", err)
	}
	if acct.Username != name || !acct.Active {
		t.Errorf("account = %+v", acct)
	}
	if _, err := dir.AccountByID(ctx, uuid.NewString()); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("missing account error = %v", err)
	}
}

func TestPostgres_SettingsAndHistory(t *testing.T) {
	tx := postgresTx(t)
	ctx := context.Background()

	settings := NewSettingsRepository(tx, core.DefaultImportConfig())
	want := core.ImportConfig{MaxImportSize: 50, DefaultRole: core.DefaultRole, AllowDuplicateEmails: true}
	if err := settings.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := settings.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}

	history := NewHistoryRepository(tx)
	run := core.ImportRun{
		ID:        uuid.NewString(),
		Locator:   "users.csv",
		Total:     3,
		Created:   1,
		Skipped:   1,
		Errors:    1,
		StartedAt: time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond),
		Duration:  1500 * time.Millisecond,
	}
	if err := history.RecordImport(ctx, run); err != nil {
		t.Fatalf("RecordImport: %v", err)
	}
	runs, err := history.ListImports(ctx, 1)
	if err != nil {
		t.Fatalf("ListImports: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].Duration != run.Duration {
		t.Errorf("ListImports = %+v", runs)
	}
}
