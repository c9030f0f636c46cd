package core

import "context"

type contextKey string

const (
	ctxKeyClientIP  contextKey = "import_client_ip"
	ctxKeyUserAgent contextKey = "import_user_agent"
)

// ContextWithClientIP attaches the requesting client's IP for import history.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ContextWithUserAgent attaches the requesting User-Agent for import history.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ClientIPFromContext returns the IP set by ContextWithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyClientIP).(string)
	return v
}

// UserAgentFromContext returns the User-Agent set by ContextWithUserAgent, or "".
func UserAgentFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyUserAgent).(string)
	return v
}
