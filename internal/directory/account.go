// Package directory implements account storage for imports: PostgreSQL for the
// server, an embedded SQLite store for the CLI, and a dry-run wrapper.
package directory

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrAccountNotFound is returned by AccountByID for unknown ids.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when the store rejects a duplicate username or e-mail.
var ErrAccountExists = errors.New("account already exists (unique constraint)")

// Account is a stored user account.
type Account struct {
	ID        string
	Username  string
	Email     string
	Role      string
	Active    bool
	CreatedAt time.Time
}

// initialPasswordHash returns the bcrypt hash of a random password. The
// plaintext is discarded.
func initialPasswordHash() (string, error) {
	raw := make([]byte, 18)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawURLEncoding.EncodeToString(raw)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
