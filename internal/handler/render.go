package handler

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/web"
)

// Page is the data every template receives.
type Page struct {
	Title    string
	Username string
	Error    bool
	Message  string
	Query    string
	Created  bool
	Cars     []model.Car
}

// Renderer implements echo.Renderer over the embedded templates. Each page
// is parsed together with layout.html once, at construction.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template under web.Templates.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, n := range names {
		base := path.Base(n)
		if base == "layout.html" {
			continue
		}
		t, err := template.ParseFS(web.Templates, "templates/layout.html", n)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		r.pages[strings.TrimSuffix(base, ".html")] = t
	}
	return r, nil
}

// Render executes the named page ("login", "buy", ...) inside the layout.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}
