package web

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/ecogroup/ecgsite/nullable"
	"github.com/ecogroup/ecgsite/tpl"
)

//go:embed templates/html
var templatesFS embed.FS

// Pages rendered through the shared layout
var Pages = []string{"home", "about", "catalogue", "pricing", "clients", "contact"}

var templateFuncs = template.FuncMap{
	"mb": func(size int64) string {
		return fmt.Sprintf("%.1f", float64(size)/(1<<20))
	},
	"price": func(p nullable.Float64) string {
		if !p.Valid {
			return ""
		}
		return fmt.Sprintf("$%.0f", p.Float64)
	},
	"upper": strings.ToUpper,
}

// LoadTemplates parses the embedded pages, then any *.gohtml under overrideDir on top
func LoadTemplates(overrideDir string) (*tpl.HTMLTemplateStore, error) {
	s := tpl.NewHTMLTemplateStore()
	for name, fn := range templateFuncs {
		s.Funcs[name] = fn
	}
	if err := s.LoadFS(templatesFS, "templates/html"); err != nil {
		return nil, err
	}
	for _, page := range Pages {
		if err := s.Combine(page, "layout", "pages/"+page); err != nil {
			return nil, err
		}
	}
	if overrideDir == "" {
		return s, nil
	}
	if _, err := os.Stat(overrideDir); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.LoadBaseTemplates(overrideDir); err != nil {
		return nil, fmt.Errorf("template overrides: %w", err)
	}
	return s, nil
}
