package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type roleRecord struct {
	Name      string `gorm:"primaryKey"`
	Label     string
	CreatedAt time.Time
}

func (roleRecord) TableName() string { return "roles" }

type accountRecord struct {
	ID           string `gorm:"primaryKey"`
	Username     string
	UsernameKey  string `gorm:"uniqueIndex"`
	Email        string
	EmailKey     string `gorm:"uniqueIndex"`
	Role         string `gorm:"index"`
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
}

func (accountRecord) TableName() string { return "accounts" }

// Gorm is an account directory on any gorm dialect. The CLI uses it with
// SQLite for local, database-free imports.
type Gorm struct {
	db *gorm.DB
}

var (
	_ core.AccountDirectory = (*Gorm)(nil)
	_ core.RoleCatalog      = (*Gorm)(nil)
)

// OpenSQLite opens (or creates) a SQLite database file. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; in-memory databases are per connection.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewGorm migrates the account tables and seeds the default role.
func NewGorm(ctx context.Context, db *gorm.DB) (*Gorm, error) {
	if err := db.WithContext(ctx).AutoMigrate(&roleRecord{}, &accountRecord{}); err != nil {
		return nil, fmt.Errorf("migrate directory: %w", err)
	}
	g := &Gorm{db: db}
	if err := g.CreateRole(ctx, core.DefaultRole, "Authenticated user"); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Gorm) exists(ctx context.Context, model any, query string, arg string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(model).Where(query, arg).Count(&count).Error
	return count > 0, err
}

func (g *Gorm) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	return g.exists(ctx, &accountRecord{}, "username_key = ?", strings.ToLower(identifier))
}

func (g *Gorm) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return g.exists(ctx, &accountRecord{}, "email_key = ?", strings.ToLower(email))
}

func (g *Gorm) RoleExists(ctx context.Context, role string) (bool, error) {
	return g.exists(ctx, &roleRecord{}, "name = ?", role)
}

func (g *Gorm) CreateAccount(ctx context.Context, c core.Candidate, activate bool) (string, error) {
	hash, err := initialPasswordHash()
	if err != nil {
		return "", err
	}
	rec := accountRecord{
		ID:           uuid.NewString(),
		Username:     c.Identifier,
		UsernameKey:  strings.ToLower(c.Identifier),
		Email:        c.Email,
		EmailKey:     strings.ToLower(c.Email),
		Role:         c.Role,
		Active:       activate,
		PasswordHash: hash,
	}
	if err := g.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return "", fmt.Errorf("%w: %v", ErrAccountExists, err)
		}
		return "", fmt.Errorf("insert account: %w", err)
	}
	return rec.ID, nil
}

// AccountByID loads one account.
func (g *Gorm) AccountByID(ctx context.Context, id string) (Account, error) {
	var rec accountRecord
	err := g.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		Role:      rec.Role,
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// CreateRole adds a role if it does not exist.
func (g *Gorm) CreateRole(ctx context.Context, name, label string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("role name is required")
	}
	err := g.db.WithContext(ctx).
		Where(roleRecord{Name: name}).
		Attrs(roleRecord{Label: label}).
		FirstOrCreate(&roleRecord{}).Error
	if err != nil {
		return fmt.Errorf("create role %q: %w", name, err)
	}
	return nil
}

// Roles lists role names in alphabetical order.
func (g *Gorm) Roles(ctx context.Context) ([]string, error) {
	var names []string
	err := g.db.WithContext(ctx).Model(&roleRecord{}).Order("name").Pluck("name", &names).Error
	return names, err
}
