package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/JonMunkholm/userimport/internal/rowsource"
)

func newTestGorm(t *testing.T) *Gorm {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	g, err := NewGorm(context.Background(), db)
	if err != nil {
		t.Fatalf("NewGorm: %v", err)
	}
	return g
}

func TestGorm_CreateAndLookup(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	ok, err := g.RoleExists(ctx, core.DefaultRole)
	if err != nil || !ok {
		t.Fatalf("default role seeded = %v, %v", ok, err)
	}

	id, err := g.CreateAccount(ctx, core.Candidate{Identifier: "Alice", Email: "Alice@X.com", Role: core.DefaultRole}, true)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	for _, tt := range []struct {
		name string
		fn   func(context.Context, string) (bool, error)
		arg  string
		want bool
	}{
		{"identifier case-insensitive", g.ExistsByIdentifier, "alice", true},
		{"email case-insensitive", g.ExistsByEmail, "alice@x.com", true},
		{"unknown identifier", g.ExistsByIdentifier, "bob", false},
		{"unknown email", g.ExistsByEmail, "alice+1@x.com", false},
		{"unknown role", g.RoleExists, "wizard", false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(ctx, tt.arg)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	acct, err := g.AccountByID(ctx, id)
	if err != nil {
		t.Fatalf("AccountByID: %v", err)
	}
	if acct.Username != "Alice" || acct.Email != "Alice@X.com" || !acct.Active {
		t.Errorf("account = %+v", acct)
	}
}

func TestGorm_DuplicateRejected(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	if _, err := g.CreateAccount(ctx, core.Candidate{Identifier: "alice", Email: "a@x.com", Role: core.DefaultRole}, false); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	_, err := g.CreateAccount(ctx, core.Candidate{Identifier: "ALICE", Email: "other@x.com", Role: core.DefaultRole}, false)
	if !errors.Is(err, ErrAccountExists) {
		t.Errorf("error = %v, want ErrAccountExists", err)
	}
}

func TestGorm_AccountNotFound(t *testing.T) {
	g := newTestGorm(t)
	if _, err := g.AccountByID(context.Background(), "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestGorm_Roles(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	if err := g.CreateRole(ctx, "editor", "Editor"); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := g.CreateRole(ctx, "editor", "Editor again"); err != nil {
		t.Fatalf("CreateRole twice: %v", err)
	}
	if err := g.CreateRole(ctx, " ", ""); err == nil {
		t.Error("expected error for blank role")
	}

	roles, err := g.Roles(ctx)
	if err != nil {
		t.Fatalf("Roles: %v", err)
	}
	if len(roles) != 2 || roles[0] != core.DefaultRole || roles[1] != "editor" {
		t.Errorf("Roles = %v", roles)
	}
}

func TestGorm_FullImport(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()
	if _, err := g.CreateAccount(ctx, core.Candidate{Identifier: "zed", Email: "bob@x.com", Role: core.DefaultRole}, false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	src := staticSource{
		{"alice", "alice@x.com"},
		{"bob", "bob@x.com"},
		{"bad name!", "c@x.com"},
	}
	cfg := core.DefaultImportConfig()
	cfg.AllowDuplicateEmails = true

	report, err := core.NewPipeline(src, g, nil).Run(ctx, core.ImportRequest{Locator: "mem"}, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.CreatedCount() != 2 || report.ErrorCount() != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := report.Created[1].Email; got != "bob+1@x.com" {
		t.Errorf("rewritten email = %q, want bob+1@x.com", got)
	}
}

func TestGorm_ImportCSVWithBlankLine(t *testing.T) {
	g := newTestGorm(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "users.csv"), []byte("alice,alice@x.com\n\nbob,not-an-email\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	report, err := core.NewPipeline(rowsource.NewCSV(dir), g, nil).Run(context.Background(), core.ImportRequest{Locator: "users.csv"}, core.DefaultImportConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.TotalProcessed != 3 || report.CreatedCount() != 1 || report.ErrorCount() != 2 {
		t.Fatalf("report = %+v", report)
	}
	if report.Created[0].Row != 1 {
		t.Errorf("alice row = %d, want 1", report.Created[0].Row)
	}
	if e := report.Errors[0]; e.Row != 2 || !strings.Contains(e.Message, "insufficient data") {
		t.Errorf("blank line error = %+v", e)
	}
	if e := report.Errors[1]; e.Row != 3 || !strings.Contains(e.Message, "invalid email") {
		t.Errorf("bob error = %+v", e)
	}
}
