package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestValidateRoleName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"editor", "editor", false},
		{"  content_editor ", "content_editor", false},
		{"site.admin-2", "site.admin-2", false},
		{"", "", true},
		{"   ", "", true},
		{"two words", "", true},
		{"a,b", "", true},
	}
	for _, tt := range tests {
		got, err := ValidateRoleName(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRoleName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidRoleName) {
			t.Errorf("ValidateRoleName(%q) error = %v, want ErrInvalidRoleName", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ValidateRoleName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureRoles(t *testing.T) {
	dir := newMemDirectory()
	if err := EnsureRoles(context.Background(), dir, []string{"reviewer", " ", "author "}); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}
	got, _ := dir.Roles(context.Background())
	want := []string{DefaultRole, "author", "editor", "reviewer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("roles = %v, want %v", got, want)
	}

	if err := EnsureRoles(context.Background(), dir, []string{"bad role"}); !errors.Is(err, ErrInvalidRoleName) {
		t.Errorf("error = %v, want ErrInvalidRoleName", err)
	}
}

func TestService_AddRoleUnlocksImportRows(t *testing.T) {
	dir := newMemDirectory()
	svc := newTestService(t, newSliceSource([]string{"alice", "a@x.com", "reviewer"}), dir, nil, nil)
	ctx := context.Background()

	report, err := svc.Import(ctx, ImportRequest{Locator: "f"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.ErrorCount() != 1 {
		t.Fatalf("before AddRole: report = %+v", report)
	}

	name, err := svc.AddRole(ctx, " reviewer ", "")
	if err != nil || name != "reviewer" {
		t.Fatalf("AddRole = %q, %v", name, err)
	}
	roles, err := svc.Roles(ctx)
	if err != nil {
		t.Fatalf("Roles: %v", err)
	}
	if !reflect.DeepEqual(roles, []string{DefaultRole, "editor", "reviewer"}) {
		t.Errorf("roles = %v", roles)
	}

	report, err = svc.Import(ctx, ImportRequest{Locator: "f"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.CreatedCount() != 1 || report.Created[0].Role != "reviewer" {
		t.Errorf("after AddRole: report = %+v", report)
	}
}

func TestService_RolesUnavailable(t *testing.T) {
	// Embedding the interface hides the catalog methods of the fake.
	dir := struct{ AccountDirectory }{newMemDirectory()}
	svc := newTestService(t, newSliceSource(), dir, nil, nil)

	if _, err := svc.Roles(context.Background()); !errors.Is(err, ErrRolesUnavailable) {
		t.Errorf("Roles error = %v, want ErrRolesUnavailable", err)
	}
	if _, err := svc.AddRole(context.Background(), "editor", ""); !errors.Is(err, ErrRolesUnavailable) {
		t.Errorf("AddRole error = %v, want ErrRolesUnavailable", err)
	}
}

func TestService_AddRoleRejectsBadName(t *testing.T) {
	svc := newTestService(t, newSliceSource(), newMemDirectory(), nil, nil)
	if _, err := svc.AddRole(context.Background(), "no spaces", ""); !errors.Is(err, ErrInvalidRoleName) {
		t.Errorf("error = %v, want ErrInvalidRoleName", err)
	}
	if got := MapError(ErrInvalidRoleName).Code; got != "VAL008" {
		t.Errorf("code = %s, want VAL008", got)
	}
}
