// Package view renders the HTML pages of the site.  Every page template is
// parsed together with the shared layout and executed through echo's
// Renderer interface.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review/internal/model"
	"github.com/iliyamo/movie-review/internal/validate"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page is the data every template receives.
type Page struct {
	Title  string
	User   *model.User
	Flash  string
	Errors validate.Errors
	Form   any
	Data   any
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page.  posterURL turns a stored poster key into a link.
func New(posterURL func(key string) string) (*Renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(validate.DateLayout)
		},
		"poster": posterURL,
		"stars": func(avg float64) string {
			return fmt.Sprintf("%.1f", avg)
		},
		"owns": func(u *model.User, m model.Movie) bool {
			return u != nil && m.OwnedBy(u.ID)
		},
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return r, nil
}

// Render executes the page called name (the file name without extension).
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

// MovieList is the data of the movie_list page.
type MovieList struct {
	Movies []model.Movie
	Query  string
}

// MovieDetail is the data of the movie_detail page.
type MovieDetail struct {
	Movie   model.Movie
	Reviews []model.Review
	Summary model.RatingSummary
}

// MovieFormData is the data of the movie_form page.  Poster is the key of
// the current poster when editing.
type MovieFormData struct {
	Categories []model.Category
	Poster     string
}

// MovieRef is the data of pages about a single movie (delete, review).
type MovieRef struct {
	Movie model.Movie
}

// CategoryList is the data of the categories page.
type CategoryList struct {
	Categories []model.Category
}

// ErrorData is the data of the error page.
type ErrorData struct {
	Code    int
	Message string
}
