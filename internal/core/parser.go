package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9@._-]+$`)

// RoleChecker reports whether a role is defined. AccountDirectory satisfies it.
type RoleChecker interface {
	RoleExists(ctx context.Context, role string) (bool, error)
}

// RowParser turns raw records into candidates.
//
// Column layout is fixed: identifier, email, optional role. Extra columns are
// ignored.
type RowParser struct {
	roles    RoleChecker
	validate *validator.Validate
}

// NewRowParser creates a parser that checks roles against roles.
func NewRowParser(roles RoleChecker) *RowParser {
	return &RowParser{
		roles:    roles,
		validate: validator.New(),
	}
}

// Parse validates one record. Failures are returned as *ParseError, except for
// role lookup failures which are returned as wrapped errors.
func (p *RowParser) Parse(ctx context.Context, fields []string, row int, defaultRole string) (Candidate, error) {
	if len(fields) < 2 {
		return Candidate{}, &ParseError{Row: row, Err: ErrInsufficientFields}
	}

	identifier := strings.TrimSpace(fields[0])
	email := strings.TrimSpace(fields[1])
	role := defaultRole
	if len(fields) > 2 {
		if r := strings.TrimSpace(fields[2]); r != "" {
			role = r
		}
	}

	if identifier == "" {
		return Candidate{}, &ParseError{Row: row, Err: ErrEmptyIdentifier}
	}
	if email == "" {
		return Candidate{}, &ParseError{Row: row, Err: ErrEmptyEmail}
	}
	if err := p.validate.Var(email, "email"); err != nil {
		return Candidate{}, &ParseError{Row: row, Value: email, Err: ErrInvalidEmail}
	}
	if !identifierPattern.MatchString(identifier) {
		return Candidate{}, &ParseError{Row: row, Value: identifier, Err: ErrInvalidIdentifier}
	}

	ok, err := p.roles.RoleExists(ctx, role)
	if err != nil {
		return Candidate{}, fmt.Errorf("check role %q: %w", role, err)
	}
	if !ok {
		return Candidate{}, &ParseError{Row: row, Value: role, Err: ErrUnknownRole}
	}

	return Candidate{Identifier: identifier, Email: email, Role: role}, nil
}
