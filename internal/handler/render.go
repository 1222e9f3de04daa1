package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

// Page templates. Each is parsed together with layout.html into its own set
// so their "content" blocks do not collide.
const (
	pageIndex           = "index.html"
	pageNotes           = "notes.html"
	pageEditNote        = "edit_note.html"
	pageAccountSettings = "account_settings.html"
	pageError           = "error.html"
)

var pages = []string{pageIndex, pageNotes, pageEditNote, pageAccountSettings, pageError}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Renderer{templates: templates, logger: logger}, nil
}

// Render writes page with the given status. Output is buffered so a template
// failure still produces a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data map[string]any) {
	tmpl, ok := rd.templates[name]
	if !ok {
		rd.logger.Error("template not found", "name", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		rd.logger.Error("template render", "name", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Error renders the error page with a fixed message.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, status, pageError, pageData(r, map[string]any{"Message": message}))
}
