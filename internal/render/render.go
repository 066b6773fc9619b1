// Package render provides HTML template rendering for both the admin
// interface and the public site. Templates are embedded at compile time.
// The "markdown" template func is the single point where post content is
// converted to HTML for display.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"inkpress/internal/markdown"
	"inkpress/internal/middleware"
	"inkpress/internal/session"
)

//go:embed templates/admin/*.html templates/public/*.html
var tmplFS embed.FS

// PageData holds all data passed to admin templates.
type PageData struct {
	Title     string         // page title for the <title> tag
	Section   string         // active sidebar section ("dashboard", "posts", "categories")
	Session   *session.Data  // current admin session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms
	Data      map[string]any // page-specific data
}

// Renderer handles template parsing and execution.
type Renderer struct {
	admin  map[string]*template.Template
	public map[string]*template.Template
}

// standaloneTemplates lists admin templates that render as full HTML pages
// without the base layout (they carry their own <html> skeleton).
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

// funcMap is shared by all templates.
var funcMap = template.FuncMap{
	// markdown renders Markdown source to HTML. The converter escapes raw
	// HTML in the source, so the result is safe to emit unescaped.
	// Empty content renders to an empty string.
	"markdown": func(source string) template.HTML {
		out, err := markdown.ToHTML(source)
		if err != nil {
			slog.Error("markdown render failed", "error", err)
			return ""
		}
		return template.HTML(out)
	},
	// deref safely dereferences a string pointer for use in templates.
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	// date formats a timestamp for display. Handles the nil pointer of
	// an unset published_at.
	"date": func(t *time.Time) string {
		if t == nil {
			return "—"
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	// inputTime formats a timestamp for a datetime-local form input.
	"inputTime": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02T15:04")
	},
}

// New creates a Renderer by parsing all templates from the embedded
// filesystem. Admin page templates are paired with the admin base layout,
// public page templates with the public one.
func New() (*Renderer, error) {
	r := &Renderer{
		admin:  make(map[string]*template.Template),
		public: make(map[string]*template.Template),
	}

	if err := parseDir(tmplFS, "templates/admin", r.admin, standaloneTemplates); err != nil {
		return nil, err
	}
	if err := parseDir(tmplFS, "templates/public", r.public, nil); err != nil {
		return nil, err
	}

	return r, nil
}

// parseDir parses every page template in dir, pairing each with the
// directory's base.html unless listed as standalone.
func parseDir(fsys embed.FS, dir string, out map[string]*template.Template, standalone map[string]bool) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read templates %s: %w", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmplName := name[:len(name)-len(".html")]

		var tmpl *template.Template
		if standalone[tmplName] {
			tmpl, err = template.New(name).Funcs(funcMap).ParseFS(fsys, dir+"/"+name)
		} else {
			tmpl, err = template.New("base.html").Funcs(funcMap).ParseFS(fsys, dir+"/base.html", dir+"/"+name)
		}
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}

		out[tmplName] = tmpl
	}
	return nil
}

// Page renders a full admin page. CSRF token and session are injected
// from the request context so handlers don't have to.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.admin[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.GetCSRFToken(r)
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, execName, data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err)
	}
}

// Public renders a public page template to bytes, so callers can both
// serve and cache the result.
func (rn *Renderer) Public(name string, data any) ([]byte, error) {
	tmpl, ok := rn.public[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
