package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/userimport/internal/core"
)

// DryRun answers lookups from an underlying directory but keeps creations in
// memory, so a preview import still detects duplicates within the file.
type DryRun struct {
	base core.AccountDirectory

	mu          sync.Mutex
	identifiers map[string]bool
	emails      map[string]bool
	created     []core.Candidate
}

func NewDryRun(base core.AccountDirectory) *DryRun {
	return &DryRun{
		base:        base,
		identifiers: make(map[string]bool),
		emails:      make(map[string]bool),
	}
}

func (d *DryRun) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	d.mu.Lock()
	seen := d.identifiers[strings.ToLower(identifier)]
	d.mu.Unlock()
	if seen {
		return true, nil
	}
	return d.base.ExistsByIdentifier(ctx, identifier)
}

func (d *DryRun) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	d.mu.Lock()
	seen := d.emails[strings.ToLower(email)]
	d.mu.Unlock()
	if seen {
		return true, nil
	}
	return d.base.ExistsByEmail(ctx, email)
}

func (d *DryRun) RoleExists(ctx context.Context, role string) (bool, error) {
	return d.base.RoleExists(ctx, role)
}

func (d *DryRun) CreateAccount(ctx context.Context, c core.Candidate, activate bool) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.identifiers[strings.ToLower(c.Identifier)] = true
	d.emails[strings.ToLower(c.Email)] = true
	d.created = append(d.created, c)
	return fmt.Sprintf("dry-run-%d", len(d.created)), nil
}

// Created returns the accounts that would have been created.
func (d *DryRun) Created() []core.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.Candidate(nil), d.created...)
}
