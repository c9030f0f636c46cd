package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/a-h/templ"
)

// UploadPageData is the content of the start page.
type UploadPageData struct {
	Settings core.ImportConfig
	Limiter  core.LimiterStatus
	History  []core.ImportRun
}

var delimiterOptions = []core.Delimiter{
	core.DelimiterComma,
	core.DelimiterSemicolon,
	core.DelimiterTab,
	core.DelimiterPipe,
}

// UploadPage renders the upload form, current settings and recent imports.
func UploadPage(d UploadPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		p.raw(`<h1>User import</h1><section><h2>Upload file</h2>`)
		p.raw(`<form method="post" action="/api/imports" enctype="multipart/form-data">`)
		p.raw(`<label>File (.csv, .txt, .xlsx) <input type="file" name="file" required></label>`)
		p.raw(`<label>Delimiter <select name="delimiter">`)
		for _, delim := range delimiterOptions {
			p.raw(`<option`)
			p.attr("value", delim.Name())
			p.raw(`>`)
			p.text(delim.Name())
			p.raw(`</option>`)
		}
		p.raw(`</select></label>`)
		p.raw(`<label><input type="checkbox" name="has_header" value="true" checked> First row is a header</label>`)
		p.raw(`<label><input type="checkbox" name="activate_users" value="true" checked> Activate accounts</label>`)
		p.raw(`<label><input type="checkbox" name="send_notifications" value="true"> Send welcome e-mails</label>`)
		p.raw(`<button type="submit">Import</button> `)
		p.raw(`<a href="/api/imports/template">Download template</a></form></section>`)

		p.raw(`<section><h2>Settings</h2><table>`)
		row := func(k, v string) {
			p.raw(`<tr><th>`)
			p.text(k)
			p.raw(`</th><td>`)
			p.text(v)
			p.raw(`</td></tr>`)
		}
		row("Default role", d.Settings.DefaultRole)
		row("Maximum rows per import", strconv.Itoa(d.Settings.MaxImportSize))
		row("Duplicate e-mails", yesNo(d.Settings.AllowDuplicateEmails, "rewritten with +n alias", "skipped"))
		row("Import logging", yesNo(d.Settings.LoggingEnabled, "on", "off"))
		row("Imports running", fmt.Sprintf("%d of %d", d.Limiter.Active, d.Limiter.MaxConcurrent))
		p.raw(`</table></section>`)
		if err := p.flush(w); err != nil {
			return err
		}
		return HistoryTable(d.History).Render(ctx, w)
	})
}

// HistoryTable lists recent imports.
func HistoryTable(runs []core.ImportRun) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		p.raw(`<section><h2>Recent imports</h2>`)
		if len(runs) == 0 {
			p.raw(`<p>No imports yet.</p></section>`)
			return p.flush(w)
		}
		p.raw(`<table><thead><tr><th>Started</th><th>File</th><th>Rows</th><th>Created</th><th>Skipped</th><th>Errors</th><th>Duration</th></tr></thead><tbody>`)
		for _, run := range runs {
			p.raw(`<tr><td>`)
			p.text(run.StartedAt.Format("2006-01-02 15:04:05"))
			p.raw(`</td><td>`)
			p.text(run.Locator)
			for _, n := range []int{run.Total, run.Created, run.Skipped, run.Errors} {
				p.raw(`</td><td>`)
				p.text(strconv.Itoa(n))
			}
			p.raw(`</td><td>`)
			p.text(run.Duration.String())
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table></section>`)
		return p.flush(w)
	})
}

// ImportResult renders the outcome of one import.
func ImportResult(r *core.Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		p.raw(`<h1>Import finished</h1><section>`)
		if r.ErrorCount() == 0 {
			p.raw(`<div class="alert ok">All rows processed without errors.</div>`)
		}
		p.raw(`<div class="stats">`)
		for _, s := range []struct {
			label string
			n     int
		}{
			{"Processed", r.TotalProcessed},
			{"Created", r.CreatedCount()},
			{"Skipped", r.SkippedCount()},
			{"Errors", r.ErrorCount()},
		} {
			p.raw(`<span>`)
			p.text(s.label + ": " + strconv.Itoa(s.n))
			p.raw(`</span>`)
		}
		p.raw(`</div></section>`)

		if len(r.Created) > 0 {
			p.raw(`<section><h2>Created</h2><table><thead><tr><th>Row</th><th>Username</th><th>E-mail</th><th>Role</th></tr></thead><tbody>`)
			for _, c := range r.Created {
				p.raw(`<tr><td>`)
				p.text(strconv.Itoa(c.Row))
				p.raw(`</td><td>`)
				p.text(c.Identifier)
				p.raw(`</td><td>`)
				p.text(c.Email)
				p.raw(`</td><td>`)
				p.text(c.Role)
				p.raw(`</td></tr>`)
			}
			p.raw(`</tbody></table></section>`)
		}
		if len(r.Skipped) > 0 {
			p.raw(`<section><h2>Skipped (already exist)</h2><ul>`)
			for _, s := range r.Skipped {
				p.raw(`<li>`)
				p.text(fmt.Sprintf("Row %d: %s", s.Row, s.Identifier))
				p.raw(`</li>`)
			}
			p.raw(`</ul></section>`)
		}
		if len(r.Errors) > 0 {
			p.raw(`<section><h2>Errors</h2><ul>`)
			for _, e := range r.Errors {
				p.raw(`<li>`)
				p.text(e.String())
				p.raw(`</li>`)
			}
			p.raw(`</ul></section>`)
		}
		p.raw(`<p><a href="/">Back</a></p>`)
		return p.flush(w)
	})
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
