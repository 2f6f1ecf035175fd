// internal/api/handler/web/handler.go
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"

	"github.com/newthinker/quantsafe/internal/app"
	"github.com/newthinker/quantsafe/internal/core"
)

//go:embed templates/*
var templateFS embed.FS

var pages = []string{"dashboard.html"}

// StateProvider provides the dashboard state and the signal trigger
type StateProvider interface {
	State() app.State
	Chart() []core.PriceDataPoint
	RequestSignal(ctx context.Context) (core.SignalResponse, error)
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds one template set per page: layout.html + the page
	pageTemplates map[string]*template.Template
	state         StateProvider
}

// NewHandler creates a new web handler with templates loaded from the given directory.
// If templatesDir is empty, it falls back to embedded templates.
func NewHandler(templatesDir string, state StateProvider) (*Handler, error) {
	if templatesDir != "" {
		return NewHandlerWithFS(os.DirFS(templatesDir), state)
	}
	return NewHandlerWithFS(TemplateFS(), state)
}

// NewHandlerWithFS creates a new web handler using a custom filesystem.
func NewHandlerWithFS(fsys fs.FS, state StateProvider) (*Handler, error) {
	pageTemplates := make(map[string]*template.Template)

	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return &Handler{pageTemplates: pageTemplates, state: state}, nil
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return subFS
}
