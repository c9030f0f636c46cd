package web

// errors.go provides unified error response handling for the web layer.
//
// Technical errors are logged with the request id; clients get the mapped
// user message from core.MapError as JSON or as an HTML alert.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/JonMunkholm/userimport/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError maps err to a user message, logs the technical error and
// writes the response in the format the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeUserMessage(w, r, userMsg, statusCode)
}

// writeError rejects a malformed request with a fixed message.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	slog.Warn("bad request",
		"path", r.URL.Path,
		"status", statusCode,
		"code", code,
		"message", message,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeUserMessage(w, r, core.UserMessage{Message: message, Code: code}, statusCode)
}

func writeUserMessage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	if wantsJSON(r) {
		writeJSON(w, statusCode, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	renderComponent(w, r, templates.Layout("Import failed", templates.ErrorAlert(msg.Message, msg.Action, msg.Code)))
}

// renderHTML writes a full page with a 200 status.
func renderHTML(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderComponent(w, r, c)
}

// renderComponent logs render failures. Headers are already sent by then, so
// the client only sees a truncated page.
func renderComponent(w http.ResponseWriter, r *http.Request, c templ.Component) {
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("failed to render page",
			"path", r.URL.Path,
			"error", err.Error(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var unreadable *core.SourceUnreadableError
	var parseErr *core.ParseError
	switch {
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrRolesUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrInvalidSettings),
		errors.As(err, &unreadable),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// wantsJSON reports whether the client should get JSON. Browsers posting the
// upload form ask for text/html; everything else under /api gets JSON.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
