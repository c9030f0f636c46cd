package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/JonMunkholm/userimport/internal/logging"
	"github.com/JonMunkholm/userimport/internal/rowsource"
	"github.com/JonMunkholm/userimport/internal/web/templates"
	"github.com/google/uuid"
)

// multipartMemory is how much of a multipart form is buffered in memory;
// the rest spills to temporary files.
const multipartMemory = 8 << 20

// ImportResponse is the JSON body returned for a finished import.
type ImportResponse struct {
	*core.Report
	Duration           string   `json:"duration"`
	CreatedCount       int      `json:"created_count"`
	SkippedCount       int      `json:"skipped_count"`
	ErrorCount         int      `json:"error_count"`
	SkippedIdentifiers []string `json:"skipped_identifiers"`
	ErrorMessages      []string `json:"error_messages"`
}

func toResponse(r *core.Report) ImportResponse {
	return ImportResponse{
		Report:             r,
		Duration:           r.Duration.String(),
		CreatedCount:       r.CreatedCount(),
		SkippedCount:       r.SkippedCount(),
		ErrorCount:         r.ErrorCount(),
		SkippedIdentifiers: r.SkippedIdentifiers(),
		ErrorMessages:      r.ErrorMessages(),
	}
}

// storedUpload is an uploaded file saved under the upload directory.
type storedUpload struct {
	dir      string
	locator  string
	filename string
}

func (u *storedUpload) remove() {
	os.RemoveAll(u.dir)
}

// receiveUpload validates the multipart form and saves its file. On failure
// it has already written the error response and returns nil.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) *storedUpload {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, r, http.StatusRequestEntityTooLarge, "FILE001",
				fmt.Sprintf("file too large (limit %d MB)", s.cfg.Upload.MaxFileSize>>20))
			return nil
		}
		writeError(w, r, http.StatusBadRequest, "REQ001", "invalid form")
		return nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "FILE004", "no file provided")
		return nil
	}
	defer file.Close()

	name := filepath.Base(strings.ReplaceAll(header.Filename, `\`, "/"))
	if !rowsource.IsAllowed(name) {
		writeError(w, r, http.StatusBadRequest, "FILE002", "unsupported file type (use .csv, .txt or .xlsx)")
		return nil
	}

	id := uuid.NewString()
	upload := &storedUpload{
		dir:      filepath.Join(s.cfg.Upload.Directory(), id),
		locator:  id + "/" + name,
		filename: name,
	}
	if err := saveFile(file, filepath.Join(upload.dir, name)); err != nil {
		upload.remove()
		s.respondError(w, r, fmt.Errorf("store upload: %w", err), http.StatusInternalServerError)
		return nil
	}
	return upload
}

func saveFile(src io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// handleImport runs a full import of the uploaded file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	upload := s.receiveUpload(w, r)
	if upload == nil {
		return
	}
	defer upload.remove()

	delim, err := core.ParseDelimiter(r.FormValue("delimiter"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "REQ002", err.Error())
		return
	}

	req := core.ImportRequest{
		Locator:           upload.locator,
		Delimiter:         delim,
		HasHeader:         formBool(r, "has_header"),
		ActivateUsers:     formBool(r, "activate_users"),
		SendNotifications: formBool(r, "send_notifications"),
	}

	// Row and summary logs come from the pipeline, gated by LoggingEnabled.
	ctx := WithRequestMetadata(r.Context(), r)
	logger := logging.WithFields(ctx, "file", upload.filename, "delimiter", delim.Name())

	report, err := s.service.Import(ctx, req, core.WithLogger(logger))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	report.Locator = upload.filename

	if !wantsJSON(r) {
		renderHTML(w, r, templates.Layout("Import finished", templates.ImportResult(report)))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(report))
}

// handleValidate runs the preflight check on the uploaded file.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	upload := s.receiveUpload(w, r)
	if upload == nil {
		return
	}
	defer upload.remove()

	delim, err := core.ParseDelimiter(r.FormValue("delimiter"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "REQ002", err.Error())
		return
	}

	result, err := s.service.Validate(r.Context(), upload.locator, delim)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	result.Locator = upload.filename

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":        result.Valid(),
		"locator":      result.Locator,
		"rows_checked": result.RowsChecked,
		"problems":     result.Problems,
	})
}

// handleDownloadTemplate serves an example import file.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	delim, err := core.ParseDelimiter(r.URL.Query().Get("delimiter"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "REQ002", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.TemplateFilename()))
	if err := core.WriteTemplate(w, delim); err != nil {
		logging.FromContext(r.Context()).Error("write template", "error", err)
	}
}

// formBool reads a checkbox-style form value. Absent means false.
func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
