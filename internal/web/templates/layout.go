// Package templates holds the HTML views of the import UI as templ components.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// page accumulates markup; every dynamic value goes through text or attr.
type page struct {
	b strings.Builder
}

func (p *page) raw(s string) { p.b.WriteString(s) }

func (p *page) text(s string) { p.b.WriteString(templ.EscapeString(s)) }

func (p *page) attr(name, value string) {
	p.b.WriteString(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (p *page) flush(w io.Writer) error {
	_, err := io.WriteString(w, p.b.String())
	return err
}

// Layout wraps body in the HTML document shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(`</title><style>` + stylesheet + `</style></head><body><main>`)
		if err := p.flush(w); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// ErrorAlert renders a user-facing error with its suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		p.raw(`<div class="alert error" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if action != "" {
			p.raw(`<p>`)
			p.text(action)
			p.raw(`</p>`)
		}
		if code != "" {
			p.raw(`<small>`)
			p.text(code)
			p.raw(`</small>`)
		}
		p.raw(`</div>`)
		return p.flush(w)
	})
}

const stylesheet = `body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2933}
main{max-width:960px;margin:2rem auto;padding:0 1rem}
section{background:#fff;border-radius:6px;padding:1rem 1.5rem;margin-bottom:1.5rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
table{border-collapse:collapse;width:100%}th,td{text-align:left;padding:.35rem .5rem;border-bottom:1px solid #e4e7eb}
.alert{padding:.75rem 1rem;border-radius:4px;margin-bottom:1rem}.error{background:#fde8e8;color:#9b1c1c}
.ok{background:#def7ec;color:#03543f}.stats span{margin-right:1.5rem}label{display:block;margin:.5rem 0}`
