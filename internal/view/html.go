package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTMLRenderer renders pages for the browser.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("comic").
		Funcs(template.FuncMap{"imageURL": imageURL}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render writes the start screen or the game screen for p.
func (r *HTMLRenderer) Render(w io.Writer, p Page) error {
	name := "start"
	if p.Started {
		name = "game"
	}
	if err := r.tmpl.ExecuteTemplate(w, name, p); err != nil {
		return fmt.Errorf("failed to render %s page: %w", name, err)
	}
	return nil
}

// imageURL marks panel art references as safe for an img src. Only inline
// images and http(s) URLs are allowed; anything else renders no image.
func imageURL(ref string) template.URL {
	switch {
	case strings.HasPrefix(ref, "data:image/"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, "http://"):
		return template.URL(ref)
	default:
		return ""
	}
}
