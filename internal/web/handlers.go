package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/JonMunkholm/userimport/internal/logging"
	"github.com/JonMunkholm/userimport/internal/web/templates"
)

const defaultHistoryLimit = 20

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.service.Settings(ctx)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	// History is decoration on this page; don't fail the page without it.
	history, err := s.service.History(ctx, 10)
	if err != nil {
		logging.FromContext(ctx).Warn("load import history", "error", err)
	}

	data := templates.UploadPageData{
		Settings: settings,
		Limiter:  s.service.Limiter().Status(),
		History:  history,
	}
	renderHTML(w, r, templates.Layout("User import", templates.UploadPage(data)))
}

// handleHealth reports liveness and import capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.Limiter().Status(),
	})
}

// handleImportStatus returns the current state of the import limiter.
// Used for monitoring and to check if the system can accept more imports.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Limiter().Status())
}

// handleImportHistory lists recent imports, newest first.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultHistoryLimit)
	runs, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.Settings(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req core.ImportConfig
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "REQ001", "invalid JSON body")
		return
	}

	updated, err := s.service.UpdateSettings(r.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidSettings) || errors.Is(err, core.ErrUnknownRole) {
			writeError(w, r, http.StatusBadRequest, core.MapError(err).Code, err.Error())
			return
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("import settings updated",
		"default_role", updated.DefaultRole,
		"max_import_size", updated.MaxImportSize,
		"allow_duplicate_emails", updated.AllowDuplicateEmails,
		"logging_enabled", updated.LoggingEnabled,
	)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.service.Roles(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"roles": roles})
}

type addRoleRequest struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

func (s *Server) handleAddRole(w http.ResponseWriter, r *http.Request) {
	var req addRoleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "REQ001", "invalid JSON body")
		return
	}

	name, err := s.service.AddRole(r.Context(), req.Name, req.Label)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRoleName) {
			writeError(w, r, http.StatusBadRequest, core.MapError(err).Code, err.Error())
			return
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
