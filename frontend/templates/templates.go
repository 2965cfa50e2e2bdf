// Package templates embeds the page templates and static assets.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
)

const (
	baseTemplate     = "base.html"
	partialsTemplate = "partials.html"
)

//go:embed *.html static
var FS embed.FS

// Static serves /static.
func Static() fs.FS {
	sub, err := fs.Sub(FS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("invalid dict call: number of arguments must be even")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

// Load parses every page in fsys together with the base layout and the
// partials, keyed by page file name.
func Load(fsys fs.FS) (map[string]*template.Template, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template)
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || path.Ext(name) != ".html" || name == baseTemplate || name == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(template.FuncMap{
			"dict": dict,
		}).ParseFS(fsys, baseTemplate, name, partialsTemplate)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func MustLoad() map[string]*template.Template {
	templates, err := Load(FS)
	if err != nil {
		panic(err)
	}
	return templates
}
