// Package notify delivers welcome messages to newly imported accounts.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/userimport/internal/directory"
	"gopkg.in/gomail.v2"
)

// AccountLookup resolves the recipient of a welcome message.
type AccountLookup interface {
	AccountByID(ctx context.Context, id string) (directory.Account, error)
}

// Dialer sends prepared messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig holds mail server and message settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteName string
	LoginURL string
}

// SMTPSender e-mails a welcome message to each new account.
type SMTPSender struct {
	accounts AccountLookup
	dialer   Dialer
	cfg      SMTPConfig
}

// NewSMTPSender creates a sender that dials cfg.Host for every message.
func NewSMTPSender(accounts AccountLookup, cfg SMTPConfig) *SMTPSender {
	return NewSMTPSenderWithDialer(accounts, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg)
}

func NewSMTPSenderWithDialer(accounts AccountLookup, dialer Dialer, cfg SMTPConfig) *SMTPSender {
	if cfg.SiteName == "" {
		cfg.SiteName = "User Import"
	}
	return &SMTPSender{accounts: accounts, dialer: dialer, cfg: cfg}
}

func (s *SMTPSender) SendWelcome(ctx context.Context, accountID string) error {
	acct, err := s.accounts.AccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := WelcomeData{
		Username: acct.Username,
		Email:    acct.Email,
		Role:     acct.Role,
		SiteName: s.cfg.SiteName,
		LoginURL: s.cfg.LoginURL,
	}
	var html bytes.Buffer
	if err := WelcomeEmail(data).Render(ctx, &html); err != nil {
		return fmt.Errorf("render welcome: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", acct.Email)
	m.SetHeader("Subject", WelcomeSubject(data))
	m.SetBody("text/plain", WelcomeText(data))
	m.AddAlternative("text/html", html.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s: %w", acct.Email, err)
	}
	return nil
}

// LogSender logs the welcome message instead of sending it. Used when no mail
// server is configured.
type LogSender struct {
	accounts AccountLookup
	logger   *slog.Logger
}

func NewLogSender(accounts AccountLookup, logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{accounts: accounts, logger: logger}
}

func (s *LogSender) SendWelcome(ctx context.Context, accountID string) error {
	attrs := []any{slog.String("account_id", accountID)}
	if s.accounts != nil {
		acct, err := s.accounts.AccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		attrs = append(attrs, slog.String("username", acct.Username), slog.String("email", acct.Email))
	}
	s.logger.Info("welcome notification", attrs...)
	return nil
}
