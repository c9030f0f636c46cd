package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestImportResult(t *testing.T) {
	html := render(t, ImportResult(&core.Report{
		TotalProcessed: 3,
		Created:        []core.Created{{Row: 2, Identifier: "alice", Email: "a@x.com", Role: "editor"}},
		Skipped:        []core.Skipped{{Row: 3, Identifier: "bob"}},
		Errors:         []core.RowError{{Row: 4, Message: `Invalid email format: "<b>"`}},
	}))

	for _, want := range []string{"Processed: 3", "Created: 1", "a@x.com", "Row 3: bob", "Row 4: Invalid email format"} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in %s", want, html)
		}
	}
	if strings.Contains(html, "<b>") {
		t.Error("row error not escaped")
	}
	if strings.Contains(html, "without errors") {
		t.Error("success banner shown despite errors")
	}
}

func TestUploadPage(t *testing.T) {
	html := render(t, Layout("User import", UploadPage(UploadPageData{
		Settings: core.ImportConfig{DefaultRole: "editor", MaxImportSize: 500, AllowDuplicateEmails: true},
		Limiter:  core.LimiterStatus{Active: 1, MaxConcurrent: 3},
		History: []core.ImportRun{{
			Locator:   "users.csv",
			Total:     2,
			StartedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			Duration:  time.Second,
		}},
	})))

	for _, want := range []string{
		"<title>User import</title>",
		`name="file"`,
		`value="semicolon"`,
		"editor",
		"rewritten with +n alias",
		"1 of 3",
		"users.csv",
		"2024-05-01 09:30:00",
		"</main></body></html>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestHistoryTable_Empty(t *testing.T) {
	if html := render(t, HistoryTable(nil)); !strings.Contains(html, "No imports yet") {
		t.Errorf("html = %s", html)
	}
}

func TestErrorAlert(t *testing.T) {
	html := render(t, ErrorAlert("Too busy", "Try again", "IMP001"))
	if !strings.Contains(html, "Too busy") || !strings.Contains(html, "IMP001") {
		t.Errorf("html = %s", html)
	}
}
