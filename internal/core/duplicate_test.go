package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDuplicatePolicy_Resolve(t *testing.T) {
	ctx := context.Background()
	candidate := Candidate{Identifier: "alice", Email: "a@x.com", Role: DefaultRole}

	tests := []struct {
		name       string
		existing   [][2]string
		allow      bool
		wantAction Action
		wantEmail  string
	}{
		{
			name:       "no collision proceeds unchanged",
			wantAction: ActionProceed,
			wantEmail:  "a@x.com",
		},
		{
			name:       "identifier collision skips",
			existing:   [][2]string{{"alice", "other@x.com"}},
			wantAction: ActionSkip,
		},
		{
			name:       "identifier collision skips even when duplicates allowed",
			existing:   [][2]string{{"ALICE", "other@x.com"}},
			allow:      true,
			wantAction: ActionSkip,
		},
		{
			name:       "email collision skips when not allowed",
			existing:   [][2]string{{"zed", "a@x.com"}},
			wantAction: ActionSkip,
		},
		{
			name:       "email collision rewritten when allowed",
			existing:   [][2]string{{"zed", "a@x.com"}},
			allow:      true,
			wantAction: ActionProceed,
			wantEmail:  "a+1@x.com",
		},
		{
			name:       "smallest free alias wins",
			existing:   [][2]string{{"zed", "a@x.com"}, {"y", "a+1@x.com"}, {"w", "a+3@x.com"}},
			allow:      true,
			wantAction: ActionProceed,
			wantEmail:  "a+2@x.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newMemDirectory()
			for _, acct := range tt.existing {
				dir.addAccount(acct[0], acct[1])
			}
			policy := NewDuplicatePolicy(dir)

			got, err := policy.Resolve(ctx, candidate, tt.allow)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got.Action != tt.wantAction {
				t.Fatalf("Action = %v, want %v", got.Action, tt.wantAction)
			}
			if tt.wantAction == ActionProceed && got.Candidate.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", got.Candidate.Email, tt.wantEmail)
			}
			if got.Rewritten != (tt.wantEmail != "" && tt.wantEmail != candidate.Email) {
				t.Errorf("Rewritten = %v", got.Rewritten)
			}
		})
	}
}

func TestDuplicatePolicy_SplitsAtLastAt(t *testing.T) {
	dir := newMemDirectory()
	dir.addAccount("zed", `"a@b"@x.com`)
	policy := NewDuplicatePolicy(dir)

	got, err := policy.Resolve(context.Background(), Candidate{Identifier: "q", Email: `"a@b"@x.com`}, true)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if want := `"a@b"+1@x.com`; got.Candidate.Email != want {
		t.Errorf("Email = %q, want %q", got.Candidate.Email, want)
	}
}

func TestDuplicatePolicy_Exhausted(t *testing.T) {
	dir := newMemDirectory()
	dir.addAccount("zed", "a@x.com")
	for n := 1; n <= maxEmailAliases; n++ {
		dir.addAccount(fmt.Sprintf("u%d", n), fmt.Sprintf("a+%d@x.com", n))
	}
	policy := NewDuplicatePolicy(dir)

	_, err := policy.Resolve(context.Background(), Candidate{Identifier: "alice", Email: "a@x.com"}, true)
	var dre *DuplicateResolutionError
	if !errors.As(err, &dre) {
		t.Fatalf("error = %v, want *DuplicateResolutionError", err)
	}
	if dre.Attempts != maxEmailAliases {
		t.Errorf("Attempts = %d, want %d", dre.Attempts, maxEmailAliases)
	}
}

func TestDuplicatePolicy_LookupError(t *testing.T) {
	dir := newMemDirectory()
	dir.lookupErr = errors.New("connection reset")
	policy := NewDuplicatePolicy(dir)

	_, err := policy.Resolve(context.Background(), Candidate{Identifier: "alice", Email: "a@x.com"}, false)
	if !errors.Is(err, dir.lookupErr) {
		t.Errorf("error = %v, want wrapped lookup error", err)
	}
}
