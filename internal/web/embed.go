// Package web provides the embedded page templates and static assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// Page names accepted by Renderer.
const (
	PageHome     = "home.html"
	PageAnalyze  = "analyze.html"
	PageLogin    = "login.html"
	PageRegister = "register.html"
	PageError    = "error.html"
)

var pages = []string{PageHome, PageAnalyze, PageLogin, PageRegister, PageError}

// Renderer renders pages inside the shared layout. It implements
// echo.Renderer.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every page together with the layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New("layout.html").ParseFS(templateFiles, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", page, err)
		}
		r.templates[page] = t
	}
	return r, nil
}

// Render executes the named page.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// GetFileSystem returns the embedded static assets with static/ as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "static")
}

// RegisterStaticRoutes serves the static assets under /static/.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	e.GET("/static/*", echo.WrapHandler(fileServer))
	return nil
}
