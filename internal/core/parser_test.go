package core

import (
	"context"
	"errors"
	"testing"
)

func TestRowParser_Parse(t *testing.T) {
	parser := NewRowParser(newMemDirectory())
	ctx := context.Background()

	tests := []struct {
		name    string
		fields  []string
		want    Candidate
		wantErr error
	}{
		{
			name:   "two fields uses default role",
			fields: []string{"alice", "alice@x.com"},
			want:   Candidate{Identifier: "alice", Email: "alice@x.com", Role: DefaultRole},
		},
		{
			name:   "explicit role",
			fields: []string{"bob", "bob@x.com", "editor"},
			want:   Candidate{Identifier: "bob", Email: "bob@x.com", Role: "editor"},
		},
		{
			name:   "blank role falls back to default",
			fields: []string{"carol", "carol@x.com", "   "},
			want:   Candidate{Identifier: "carol", Email: "carol@x.com", Role: DefaultRole},
		},
		{
			name:   "whitespace trimmed and extra columns ignored",
			fields: []string{"  dave.o-k_1 ", " dave@x.com ", "editor", "ignored"},
			want:   Candidate{Identifier: "dave.o-k_1", Email: "dave@x.com", Role: "editor"},
		},
		{
			name:   "identifier may contain at sign",
			fields: []string{"erin@corp", "erin@x.com"},
			want:   Candidate{Identifier: "erin@corp", Email: "erin@x.com", Role: DefaultRole},
		},
		{
			name:    "single field",
			fields:  []string{"alice"},
			wantErr: ErrInsufficientFields,
		},
		{
			name:    "no fields",
			fields:  nil,
			wantErr: ErrInsufficientFields,
		},
		{
			name:    "empty identifier",
			fields:  []string{" ", "a@x.com"},
			wantErr: ErrEmptyIdentifier,
		},
		{
			name:    "empty email",
			fields:  []string{"alice", ""},
			wantErr: ErrEmptyEmail,
		},
		{
			name:    "invalid email",
			fields:  []string{"alice", "not-an-email"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "display name email rejected",
			fields:  []string{"alice", "Alice <alice@x.com>"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "identifier with space and bang",
			fields:  []string{"bad name!", "c@x.com"},
			wantErr: ErrInvalidIdentifier,
		},
		{
			name:    "unknown role",
			fields:  []string{"alice", "alice@x.com", "wizard"},
			wantErr: ErrUnknownRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(ctx, tt.fields, 7, DefaultRole)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Parse() error %T is not *ParseError", err)
				}
				if pe.Row != 7 {
					t.Errorf("ParseError.Row = %d, want 7", pe.Row)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRowParser_CheckOrder(t *testing.T) {
	parser := NewRowParser(newMemDirectory())

	// Both identifier and email are malformed; the email is reported first.
	_, err := parser.Parse(context.Background(), []string{"bad name!", "nope"}, 1, DefaultRole)
	if !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("Parse() error = %v, want ErrInvalidEmail", err)
	}
}

func TestRowParser_RoleLookupFailure(t *testing.T) {
	parser := NewRowParser(failingRoles{})

	_, err := parser.Parse(context.Background(), []string{"alice", "alice@x.com"}, 1, DefaultRole)
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		t.Errorf("lookup failure should not be a ParseError: %v", err)
	}
}

type failingRoles struct{}

func (failingRoles) RoleExists(ctx context.Context, role string) (bool, error) {
	return false, errors.New("connection refused")
}
