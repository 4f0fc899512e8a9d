package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/TableTamer/internal/config"
	"github.com/JonMunkholm/TableTamer/internal/core"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Session: config.SessionConfig{
			DefaultPageSize: 25,
			MaxPageSize:     100,
		},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	service := core.NewService(core.ServiceConfig{
		MaxFileSize:        cfg.Upload.MaxFileSize,
		DefaultPageSize:    cfg.Session.DefaultPageSize,
		MaxPageSize:        cfg.Session.MaxPageSize,
		MaxConcurrentLoads: 2,
		MaxLoadWait:        time.Second,
		Seed:               3,
	})
	srv := NewServer(service, cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		service.Shutdown(ctx)
	})
	return srv
}

// do sends a request with an optional JSON body and returns the recorder.
func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// createSession creates a session and loads the example data into it.
func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	id := decode[createSessionResponse](t, rec).ID

	rec = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/example", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("example status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	return id
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestCreateSession(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := do(t, srv, http.MethodPost, "/api/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	resp := decode[createSessionResponse](t, rec)
	if _, err := uuid.Parse(resp.ID); err != nil {
		t.Errorf("id %q is not a uuid", resp.ID)
	}
	if resp.View.State != core.StateEmpty {
		t.Errorf("state = %s, want %s", resp.View.State, core.StateEmpty)
	}

	status := decode[map[string]any](t, do(t, srv, http.MethodGet, "/api/status", nil))
	if status["sessions"] != float64(1) {
		t.Errorf("sessions = %v, want 1", status["sessions"])
	}
}

func TestLoadExampleAndView(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)

	v := decode[core.View](t, do(t, srv, http.MethodGet, "/api/sessions/"+id, nil))
	if v.TotalCount != core.ExampleRowCount {
		t.Errorf("TotalCount = %d, want %d", v.TotalCount, core.ExampleRowCount)
	}
	if v.PageCount != 6 {
		t.Errorf("PageCount = %d, want 6", v.PageCount)
	}
	if len(v.Rows) != 25 {
		t.Errorf("len(Rows) = %d, want 25", len(v.Rows))
	}
}

func TestQuerySortPage(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	rec := do(t, srv, http.MethodPut, base+"/query", map[string]string{"query": "example15"})
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d: %s", rec.Code, rec.Body.String())
	}
	v := decode[core.View](t, rec)
	// example15@ and example150@
	if v.FilteredCount != 2 {
		t.Errorf("FilteredCount = %d, want 2", v.FilteredCount)
	}

	do(t, srv, http.MethodPut, base+"/query", map[string]string{"query": ""})

	v = decode[core.View](t, do(t, srv, http.MethodPut, base+"/sort", map[string]string{"column": "id", "direction": "desc"}))
	if v.SortColumn != "id" || v.SortDirection != core.SortDesc {
		t.Errorf("sort = %s %s, want id desc", v.SortColumn, v.SortDirection)
	}
	if got := v.Rows[0].Values[0].Text(); got != "150" {
		t.Errorf("first id = %s, want 150", got)
	}

	// No direction toggles.
	v = decode[core.View](t, do(t, srv, http.MethodPut, base+"/sort", map[string]string{"column": "id"}))
	if v.SortDirection != core.SortAsc {
		t.Errorf("toggled direction = %s, want %s", v.SortDirection, core.SortAsc)
	}

	v = decode[core.View](t, do(t, srv, http.MethodPut, base+"/page", map[string]int{"page": 99}))
	if v.Page != 6 {
		t.Errorf("Page = %d, want clamped 6", v.Page)
	}

	v = decode[core.View](t, do(t, srv, http.MethodPut, base+"/page-size", map[string]int{"pageSize": 50}))
	if v.PageCount != 3 || v.Page != 1 {
		t.Errorf("after page size: PageCount = %d Page = %d, want 3 1", v.PageCount, v.Page)
	}
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/api/sessions/" + uuid.NewString(), nil, http.StatusNotFound, "SES001"},
		{"malformed session id", http.MethodGet, "/api/sessions/nope", nil, http.StatusNotFound, "SES001"},
		{"page size too large", http.MethodPut, base + "/page-size", map[string]int{"pageSize": 1000}, http.StatusBadRequest, "VIEW002"},
		{"page size zero", http.MethodPut, base + "/page-size", map[string]int{"pageSize": 0}, http.StatusBadRequest, "VIEW002"},
		{"unknown sort column", http.MethodPut, base + "/sort", map[string]string{"column": "nope"}, http.StatusBadRequest, "VIEW003"},
		{"unknown toggle column", http.MethodPost, base + "/columns/nope/toggle", nil, http.StatusBadRequest, "VIEW003"},
		{"commit without draft", http.MethodPost, base + "/edit/commit", nil, http.StatusConflict, "EDIT002"},
		{"row out of range", http.MethodPost, base + "/edit", map[string]any{"row": 99, "column": "email"}, http.StatusBadRequest, "EDIT001"},
		{"unsupported export", http.MethodGet, base + "/export?format=pdf", nil, http.StatusBadRequest, "EXP001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestBadBody(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)

	req := httptest.NewRequest(http.MethodPut, "/api/sessions/"+id+"/query", strings.NewReader(`{"query":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "REQ001" {
		t.Errorf("code = %s, want REQ001", resp.Code)
	}
}

func TestNoDataYet(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := decode[createSessionResponse](t, do(t, srv, http.MethodPost, "/api/sessions", nil)).ID

	rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+"/query", map[string]string{"query": "x"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "VIEW001" {
		t.Errorf("code = %s, want VIEW001", resp.Code)
	}
}

func TestEditFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	rec := do(t, srv, http.MethodPost, base+"/edit", map[string]any{"row": 0, "column": "first_name"})
	if rec.Code != http.StatusOK {
		t.Fatalf("begin status = %d: %s", rec.Code, rec.Body.String())
	}
	d := decode[core.EditDraft](t, rec)
	if d.Column != "first_name" || d.Value != d.Original {
		t.Errorf("draft = %+v", d)
	}

	d = decode[core.EditDraft](t, do(t, srv, http.MethodPut, base+"/edit", map[string]string{"value": "zed"}))
	if d.Value != "zed" {
		t.Errorf("draft value = %q, want zed", d.Value)
	}
	d = decode[core.EditDraft](t, do(t, srv, http.MethodPost, base+"/edit/transform", map[string]string{"kind": "upper"}))
	if d.Value != "ZED" {
		t.Errorf("transformed value = %q, want ZED", d.Value)
	}

	rec = do(t, srv, http.MethodPost, base+"/edit/transform", map[string]string{"kind": "reverse"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad transform status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	v := decode[core.View](t, do(t, srv, http.MethodPost, base+"/edit/commit", nil))
	if got := v.Rows[0].Values[1].Text(); got != "ZED" {
		t.Errorf("committed value = %q, want ZED", got)
	}

	do(t, srv, http.MethodPost, base+"/edit", map[string]any{"row": 1, "column": "first_name"})
	rec = do(t, srv, http.MethodDelete, base+"/edit", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("cancel status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestColumnVisibility(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	v := decode[core.View](t, do(t, srv, http.MethodPost, base+"/columns/ip_address/toggle", nil))
	for _, c := range v.VisibleColumns {
		if c == "ip_address" {
			t.Error("ip_address still visible after toggle")
		}
	}
	if len(v.Rows[0].Values) != len(v.VisibleColumns) {
		t.Errorf("row width = %d, want %d", len(v.Rows[0].Values), len(v.VisibleColumns))
	}

	v = decode[core.View](t, do(t, srv, http.MethodPost, base+"/columns/reset", nil))
	if len(v.VisibleColumns) != 8 {
		t.Errorf("visible after reset = %d, want 8", len(v.VisibleColumns))
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)
	base := "/api/sessions/" + id

	do(t, srv, http.MethodPut, base+"/query", map[string]string{"query": "example15"})

	rec := do(t, srv, http.MethodGet, base+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if got := rec.Header().Get("X-Row-Count"); got != "2" {
		t.Errorf("X-Row-Count = %s, want 2", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("csv lines = %d, want header + 2", len(lines))
	}

	rec = do(t, srv, http.MethodGet, base+"/export?format=json", nil)
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("json export: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("json rows = %d, want 2", len(rows))
	}

	rec = do(t, srv, http.MethodGet, base+"/copy", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "example150@example.com") {
		t.Errorf("copy = %d %q", rec.Code, rec.Body.String())
	}
}

func multipartBody(t *testing.T, field, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestLoadFile(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := decode[createSessionResponse](t, do(t, srv, http.MethodPost, "/api/sessions", nil)).ID
	path := "/api/sessions/" + id + "/load"

	tests := []struct {
		name     string
		field    string
		fileName string
		content  string
		status   int
		code     string
	}{
		{"missing file", "", "", "", http.StatusBadRequest, "FILE004"},
		{"wrong extension", "file", "people.pdf", "a,b\n1,2\n", http.StatusUnsupportedMediaType, "FILE002"},
		{"header only", "file", "people.csv", "a,b\n", http.StatusBadRequest, "FILE005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.field, tt.fileName, tt.content)
			req := httptest.NewRequest(http.MethodPost, path, body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if resp := decode[ErrorResponse](t, rec); resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
		})
	}

	t.Run("valid", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "people.csv", "name,age\nAmy,30\nBob,41\nCara\n")
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[loadResponse](t, rec)
		if resp.Report == nil || resp.Report.Rows != 3 || resp.Report.PaddedRows != 1 {
			t.Errorf("report = %+v, want 3 rows with 1 padded", resp.Report)
		}
		if resp.View.FileName != "people.csv" {
			t.Errorf("FileName = %q, want people.csv", resp.View.FileName)
		}
	})
}

func TestGrid(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodGet, "/sessions/"+id+"/grid", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`<table class="grid">`, "example1@example.com", "Page 1 of 6"} {
		if !strings.Contains(body, want) {
			t.Errorf("grid missing %q", want)
		}
	}

	rec = do(t, srv, http.MethodGet, "/sessions/"+uuid.NewString()+"/grid", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown grid status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), `class="alert alert-error"`) {
		t.Errorf("unknown grid body = %q, want error partial", rec.Body.String())
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodDelete, "/api/sessions/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	srv := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := do(t, srv, http.MethodGet, "/api/status", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := do(t, srv, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "RATE001" {
		t.Errorf("code = %s, want RATE001", resp.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}
	srv := newTestServer(t, cfg)

	if rec := do(t, srv, http.MethodGet, "/api/status", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with key status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Health stays open for probes.
	if rec := do(t, srv, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"too large", &core.IngestionError{Reason: core.ReasonTooLarge}, http.StatusRequestEntityTooLarge},
		{"malformed", &core.IngestionError{Reason: core.ReasonMalformed}, http.StatusBadRequest},
		{"deadline", &core.IngestionError{Reason: core.ReasonMalformed, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"busy", core.ErrTooManyLoads, http.StatusServiceUnavailable},
		{"loading", core.ErrLoadInProgress, http.StatusConflict},
		{"rate", errRateLimited, http.StatusTooManyRequests},
		{"other", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
