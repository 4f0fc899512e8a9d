package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/TableTamer/internal/core"
	"github.com/JonMunkholm/TableTamer/internal/logging"
	"github.com/JonMunkholm/TableTamer/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// createSessionResponse is returned by POST /api/sessions.
type createSessionResponse struct {
	ID   string    `json:"id"`
	View core.View `json:"view"`
}

// loadResponse is returned by the load endpoints.
type loadResponse struct {
	View   core.View        `json:"view"`
	Report *core.LoadReport `json:"report,omitempty"`
}

// engine resolves the session of the request, responding on failure.
func (s *Server) engine(w http.ResponseWriter, r *http.Request) (*core.Engine, bool) {
	e, err := s.service.Open(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return e, true
}

// respondView writes the view, or the error with the view discarded.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, v core.View, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// respondDraft writes the draft, or the error.
func (s *Server) respondDraft(w http.ResponseWriter, r *http.Request, d core.EditDraft, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports session count and load capacity for monitoring.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.service.Len(),
		"loads":    s.service.Limiter().Status(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, e, err := s.service.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: id, View: e.View()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

// handleDeleteSession clears the dataset, erases persisted state and drops
// the session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Destroy(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLoad parses a multipart "file" field into the session.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		reason := core.ReasonMalformed
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reason = core.ReasonTooLarge
		}
		s.fail(w, r, &core.IngestionError{Reason: reason, Err: err})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, &core.IngestionError{Reason: core.ReasonNoFile, Err: err})
		return
	}
	defer file.Close()

	log := logging.WithFields(r.Context(), "session", id, "file", header.Filename, "size", header.Size)
	log.Info("load started")

	v, report, err := s.service.Load(r.Context(), id, file, header.Filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	log.Info("load completed",
		"rows", report.Rows,
		"columns", report.Columns,
		"padded_rows", report.PaddedRows,
		"truncated_rows", report.TruncatedRows,
	)
	writeJSON(w, http.StatusOK, loadResponse{View: v, Report: &report})
}

func (s *Server) handleLoadExample(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.LoadExample()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{View: v})
}

func (s *Server) handleSetQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.SetQuery(req.Query)
	s.respondView(w, r, v, err)
}

// handleSetSort toggles the sort when no direction is given and applies
// the direction otherwise. An empty column removes the sort.
func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column    string `json:"column"`
		Direction string `json:"direction"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}

	var (
		v   core.View
		err error
	)
	if req.Direction == "" && req.Column != "" {
		v, err = e.SetSort(req.Column)
	} else {
		v, err = e.SortBy(req.Column, core.ParseSortDirection(req.Direction))
	}
	s.respondView(w, r, v, err)
}

func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.SetPage(req.Page)
	s.respondView(w, r, v, err)
}

func (s *Server) handleSetPageSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageSize int `json:"pageSize"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.SetPageSize(req.PageSize)
	s.respondView(w, r, v, err)
}

func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.ToggleColumnVisibility(pathParam(r, "column"))
	s.respondView(w, r, v, err)
}

func (s *Server) handleResetColumns(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.ResetColumnVisibility()
	s.respondView(w, r, v, err)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Row    int    `json:"row"`
		Column string `json:"column"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	d, err := e.BeginEdit(req.Row, req.Column)
	s.respondDraft(w, r, d, err)
}

func (s *Server) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	d, err := e.SetDraftValue(req.Value)
	s.respondDraft(w, r, d, err)
}

func (s *Server) handleTransformDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind core.TransformKind `json:"kind"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	d, err := e.TransformDraft(req.Kind)
	s.respondDraft(w, r, d, err)
}

func (s *Server) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	v, err := e.CommitEdit()
	s.respondView(w, r, v, err)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	e.CancelEdit()
	w.WriteHeader(http.StatusNoContent)
}

// handleExport downloads the filtered-sorted rows in the requested format
// (csv when omitted).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(core.FormatCSV)
	}
	format, ok := core.ParseExportFormat(name)
	if !ok {
		s.fail(w, r, &core.ExportError{Format: name, Err: core.ErrUnsupportedFormat})
		return
	}

	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	res, err := e.Export(format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Content)))
	w.Header().Set("X-Row-Count", strconv.Itoa(res.Rows))
	w.Write(res.Content)
}

// handleCopy returns the JSON rendering of the export set as the body.
func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	text, err := e.CopyRenderedText()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(text))
}

// handleGrid renders the current page as an HTML partial.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	e, ok := s.engine(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Grid(sessionID(r), e.View()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render grid failed", "error", err)
	}
}
