package directory

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

var (
	_ core.AccountDirectory = (*Postgres)(nil)
	_ core.RoleCatalog      = (*Postgres)(nil)
)

// Postgres is the PostgreSQL-backed account directory.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps a pool or transaction.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the tables used by the importer if they are missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE lower(username) = lower($1))`,
		identifier,
	).Scan(&exists)
	return exists, err
}

func (p *Postgres) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE lower(email) = lower($1))`,
		email,
	).Scan(&exists)
	return exists, err
}

func (p *Postgres) RoleExists(ctx context.Context, role string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, role).Scan(&exists)
	return exists, err
}

// CreateAccount inserts the account with a random password hash.
func (p *Postgres) CreateAccount(ctx context.Context, c core.Candidate, activate bool) (string, error) {
	hash, err := initialPasswordHash()
	if err != nil {
		return "", err
	}
	id := uuid.New()

	_, err = p.db.Exec(ctx,
		`INSERT INTO accounts (id, username, email, role, active, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, c.Identifier, c.Email, c.Role, activate, hash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("%w: %s", ErrAccountExists, pgErr.ConstraintName)
		}
		return "", fmt.Errorf("insert account: %w", err)
	}
	return id.String(), nil
}

// AccountByID loads one account.
func (p *Postgres) AccountByID(ctx context.Context, id string) (Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	var a Account
	err = p.db.QueryRow(ctx,
		`SELECT id, username, email, role, active, created_at FROM accounts WHERE id = $1`,
		uid,
	).Scan(&uid, &a.Username, &a.Email, &a.Role, &a.Active, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	if err != nil {
		return Account{}, err
	}
	a.ID = uid.String()
	return a, nil
}

// CreateRole adds a role if it does not exist.
func (p *Postgres) CreateRole(ctx context.Context, name, label string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("role name is required")
	}
	_, err := p.db.Exec(ctx,
		`INSERT INTO roles (name, label) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, label,
	)
	return err
}

// Roles lists role names in alphabetical order.
func (p *Postgres) Roles(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, `SELECT name FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
