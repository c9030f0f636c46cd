package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/userimport/internal/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestImport_TextReport(t *testing.T) {
	dir := t.TempDir()
	db := "sqlite:" + filepath.Join(dir, "accounts.db")
	file := writeFile(t, dir, "users.csv", "username,email,role\nalice,alice@x.com,\nbob,not-an-email,\n")

	code, out, errOut := runCLI(t, "import", file, "--store", db)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	for _, want := range []string{"Import of users.csv", "created: 1", "errors: 1", "alice@x.com", "Row 3:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Second run finds alice already present.
	code, out, _ = runCLI(t, "import", file, "--store", db)
	if code != 0 {
		t.Fatalf("second run exit code = %d", code)
	}
	if !strings.Contains(out, "skipped: 1") || !strings.Contains(out, "alice") {
		t.Errorf("second run output:\n%s", out)
	}
}

func TestImport_JSONDryRun(t *testing.T) {
	dir := t.TempDir()
	db := "sqlite:" + filepath.Join(dir, "accounts.db")
	file := writeFile(t, dir, "users.txt", "username;email\ncarol;carol@x.com\n")

	code, out, errOut := runCLI(t, "import", file, "--store", db, "--delimiter", "semicolon", "--dry-run", "--format", "json")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	var got struct {
		Locator string `json:"locator"`
		DryRun  bool   `json:"dry_run"`
		Created []struct {
			Identifier string `json:"identifier"`
		} `json:"created"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !got.DryRun || got.Locator != "users.txt" || len(got.Created) != 1 || got.Created[0].Identifier != "carol" {
		t.Errorf("report = %+v", got)
	}

	// Nothing was written, so a real import still creates carol.
	_, out, _ = runCLI(t, "import", file, "--store", db, "-d", ";")
	if !strings.Contains(out, "created: 1") {
		t.Errorf("import after dry run:\n%s", out)
	}
}

func TestImport_MaxRowsOverride(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "users.csv", "username,email\na,a@x.com\nb,b@x.com\nc,c@x.com\n")

	code, out, _ := runCLI(t, "import", file, "--store", "sqlite:"+filepath.Join(dir, "a.db"), "--max-rows", "2")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "processed: 2") {
		t.Errorf("output:\n%s", out)
	}
}

func TestImport_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "users.csv", "username,email\n")
	store := "sqlite:" + filepath.Join(dir, "a.db")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing file argument", []string{"import"}, exitFailure},
		{"bad delimiter", []string{"import", file, "--store", store, "-d", "#"}, exitUsage},
		{"bad format", []string{"import", file, "--store", store, "--format", "xml"}, exitUsage},
		{"unknown store", []string{"import", file, "--store", "mysql"}, exitUsage},
		{"postgres without url", []string{"import", file, "--store", "postgres"}, exitUsage},
		{"unreadable file", []string{"import", filepath.Join(dir, "missing.csv"), "--store", store}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			if code != tt.want {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.want, errOut)
			}
			if !strings.Contains(errOut, "error:") {
				t.Errorf("stderr = %q, want an error line", errOut)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "username,email\nalice,alice@x.com\n")
	bad := writeFile(t, dir, "bad.csv", "username,email\nalice\n")

	code, out, _ := runCLI(t, "validate", good)
	if code != 0 || !strings.Contains(out, "OK") {
		t.Errorf("validate good: code %d, output %q", code, out)
	}

	code, out, errOut := runCLI(t, "validate", bad)
	if code != exitFailure {
		t.Errorf("validate bad: code %d, want %d", code, exitFailure)
	}
	if !strings.Contains(out, "Row 2") {
		t.Errorf("validate bad output: %q", out)
	}
	if errOut != "" {
		t.Errorf("validate bad stderr = %q, want empty", errOut)
	}
}

func TestTemplate(t *testing.T) {
	code, out, _ := runCLI(t, "template", "-d", "pipe")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out, "username|email|role") {
		t.Errorf("template = %q", out)
	}

	path := filepath.Join(t.TempDir(), "template.csv")
	if code, _, _ := runCLI(t, "template", "-o", path); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !strings.HasPrefix(string(data), "username,email,role") {
		t.Errorf("template file = %q", data)
	}
}

func TestRoles_AddThenImport(t *testing.T) {
	dir := t.TempDir()
	db := "sqlite:" + filepath.Join(dir, "accounts.db")
	file := writeFile(t, dir, "users.csv", "carol,carol@x.com,reviewer\n")

	_, out, _ := runCLI(t, "import", file, "--store", db, "--header=false")
	if !strings.Contains(out, "errors: 1") || !strings.Contains(out, "invalid role") {
		t.Fatalf("import before add:\n%s", out)
	}

	code, out, errOut := runCLI(t, "roles", "add", "reviewer", "--store", db)
	if code != 0 || !strings.Contains(out, "reviewer") {
		t.Fatalf("roles add: code %d, out %q, stderr %q", code, out, errOut)
	}
	_, out, _ = runCLI(t, "roles", "list", "--store", db)
	if out != "authenticated\nreviewer\n" {
		t.Errorf("roles list = %q", out)
	}

	_, out, _ = runCLI(t, "import", file, "--store", db, "--header=false")
	if !strings.Contains(out, "created: 1") {
		t.Errorf("import after add:\n%s", out)
	}

	if code, _, _ := runCLI(t, "roles", "add", "bad role", "--store", db); code != exitUsage {
		t.Errorf("bad role name exit code = %d, want %d", code, exitUsage)
	}
}

func TestRoles_SeededFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	db := "sqlite:" + filepath.Join(dir, "accounts.db")
	t.Setenv("IMPORT_ROLES", "editor,author")

	_, out, _ := runCLI(t, "roles", "list", "--store", db)
	if out != "authenticated\nauthor\neditor\n" {
		t.Errorf("roles list = %q", out)
	}
}

func TestImport_Progress(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "users.csv", "username,email\na,a@x.com\nb,b@x.com\n")

	code, _, errOut := runCLI(t, "import", file, "--store", "sqlite:"+filepath.Join(dir, "a.db"), "--progress")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "processed 2 rows (created 2, skipped 0, errors 0)") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	onProgress := progressPrinter(&buf, 2)
	for i := 1; i <= 5; i++ {
		onProgress(core.Progress{Phase: core.PhaseReadingRows, Processed: i, Created: i})
	}
	onProgress(core.Progress{Phase: core.PhaseDone, Processed: 5, Created: 5})

	want := "processed 2 rows...\nprocessed 4 rows...\nprocessed 5 rows (created 5, skipped 0, errors 0)\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestImport_FatalErrorShowsSupportCode(t *testing.T) {
	dir := t.TempDir()
	_, _, errOut := runCLI(t, "import", filepath.Join(dir, "missing.csv"), "--store", "sqlite:"+filepath.Join(dir, "a.db"))
	if !strings.Contains(errOut, "(Code: SRC") {
		t.Errorf("stderr = %q, want a support code", errOut)
	}
}
