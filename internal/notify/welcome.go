package notify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// WelcomeData is the content of a welcome message.
type WelcomeData struct {
	Username string
	Email    string
	Role     string
	SiteName string
	LoginURL string
}

func WelcomeSubject(d WelcomeData) string {
	return fmt.Sprintf("Welcome to %s", d.SiteName)
}

// WelcomeText is the plain-text body.
func WelcomeText(d WelcomeData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", d.Username)
	fmt.Fprintf(&b, "An account has been created for you on %s with the role %q.\n", d.SiteName, d.Role)
	if d.LoginURL != "" {
		fmt.Fprintf(&b, "Sign in and set your password at %s\n", d.LoginURL)
	}
	return b.String()
}

// WelcomeEmail is the HTML body.
func WelcomeEmail(d WelcomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html><body style="font-family:sans-serif">`)
		b.WriteString(`<h2>Welcome to ` + templ.EscapeString(d.SiteName) + `</h2>`)
		b.WriteString(`<p>Hello ` + templ.EscapeString(d.Username) + `,</p>`)
		b.WriteString(`<p>An account has been created for you with the role <strong>` +
			templ.EscapeString(d.Role) + `</strong>.</p>`)
		if d.LoginURL != "" {
			b.WriteString(`<p><a href="` + templ.EscapeString(d.LoginURL) + `">Sign in and set your password</a></p>`)
		}
		b.WriteString(`</body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
