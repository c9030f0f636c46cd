package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var roleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// RoleCatalog manages the roles rows may reference. Postgres and the embedded
// SQLite directory both implement it.
type RoleCatalog interface {
	CreateRole(ctx context.Context, name, label string) error
	Roles(ctx context.Context) ([]string, error)
}

// ValidateRoleName trims name and checks it only uses letters, digits, '_',
// '.' and '-'.
func ValidateRoleName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || !roleNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoleName, name)
	}
	return name, nil
}

// EnsureRoles creates every named role that does not exist yet, labelled with
// its own name. Blank names are ignored.
func EnsureRoles(ctx context.Context, c RoleCatalog, names []string) error {
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		name, err := ValidateRoleName(n)
		if err != nil {
			return err
		}
		if err := c.CreateRole(ctx, name, name); err != nil {
			return fmt.Errorf("create role %q: %w", name, err)
		}
	}
	return nil
}
