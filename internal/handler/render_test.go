package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/model"
	"github.com/dukerupert/jotter/web"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	rd, err := NewRenderer(web.Templates(), discard)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return rd
}

func TestRenderEscapesNoteText(t *testing.T) {
	rd := newTestRenderer(t)
	req := httptest.NewRequest("GET", "/notes", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1}))
	rec := httptest.NewRecorder()

	rd.Render(rec, http.StatusOK, pageNotes, pageData(req, map[string]any{
		"Username": "alice",
		"Notes":    []model.Note{{ID: 3, UserID: 1, Body: "<script>alert(1)</script>"}},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("note text was not escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("escaped note text missing")
	}
	if !strings.Contains(body, `href="/edit-note/3"`) {
		t.Error("edit link missing")
	}
	if !strings.Contains(body, `href="/logout"`) {
		t.Error("layout nav missing for signed-in user")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRenderError(t *testing.T) {
	rd := newTestRenderer(t)
	req := httptest.NewRequest("GET", "/edit-note/9", nil)
	rec := httptest.NewRecorder()

	rd.Error(rec, req, http.StatusNotFound, errFetchNote)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error fetching note!") {
		t.Error("error message missing")
	}
	if strings.Contains(rec.Body.String(), `href="/logout"`) {
		t.Error("anonymous error page shows signed-in nav")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	rd := newTestRenderer(t)
	rec := httptest.NewRecorder()

	rd.Render(rec, http.StatusOK, "missing.html", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRenderTemplateFailureIsClean(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html": {Data: []byte(`<html>{{template "content" .}}</html>`)},
	}
	for _, page := range pages {
		fsys[page] = &fstest.MapFile{Data: []byte(`{{define "content"}}{{.User.Username}}{{end}}`)}
	}
	rd, err := NewRenderer(fsys, discard)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	rec := httptest.NewRecorder()
	rd.Render(rec, http.StatusOK, pageAccountSettings, map[string]any{"User": 42})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<html>") {
		t.Error("partial page written before failure")
	}
}

func TestNewRendererMissingPage(t *testing.T) {
	fsys := fstest.MapFS{
		"layout.html": {Data: []byte(`{{template "content" .}}`)},
	}
	if _, err := NewRenderer(fsys, discard); err == nil {
		t.Error("expected error when page templates are missing")
	}
}
