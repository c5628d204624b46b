// Package render turns view models into HTML.
//
// Templates are embedded in the binary and parsed once at startup. Every
// page shares layout.html and the partials; the AJAX result fragment is
// rendered on its own.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"unicode"

	"github.com/Masterminds/sprig/v3"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates
var templateFS embed.FS

// Renderer holds the parsed templates and implements echo.Renderer.
type Renderer struct {
	templates map[Template]*template.Template
}

// New parses every embedded template.
func New() (*Renderer, error) {
	base, err := template.New("layout.html").
		Funcs(Funcs()).
		ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse layout templates")
	}

	r := &Renderer{templates: make(map[Template]*template.Template, len(pages)+1)}

	for _, page := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to clone layout for %s", page)
		}
		if _, err := t.ParseFS(templateFS, fmt.Sprintf("templates/pages/%s.html", page)); err != nil {
			return nil, errors.Wrapf(err, "failed to parse page template %s", page)
		}
		r.templates[page] = t
	}

	fragment, err := base.Clone()
	if err != nil {
		return nil, errors.Wrap(err, "failed to clone layout for results fragment")
	}
	r.templates[TemplateResults] = fragment

	return r, nil
}

// Render implements echo.Renderer. name is a Template value.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.Execute(w, Template(name), data)
}

// Execute writes one template. Pages go through the layout.
func (r *Renderer) Execute(w io.Writer, name Template, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("unknown template %s", name)
	}

	entry := "layout"
	if name == TemplateResults {
		entry = "results_table"
	}

	// Render into a buffer so a failing template never leaves half a page.
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, entry, data); err != nil {
		return errors.Wrapf(err, "failed to execute template %s", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

// String renders a template to a string.
func (r *Renderer) String(name Template, data any) (string, error) {
	var b strings.Builder
	if err := r.Execute(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// HeaderTitle turns a column name into a table header. Underscores become
// spaces and every run of letters is title-cased, so "cre_log2fc" reads
// "Cre Log2Fc".
func HeaderTitle(column string) string {
	// A Caser carries state, so each call gets its own.
	caser := cases.Title(language.English)
	s := strings.ReplaceAll(column, "_", " ")

	var b strings.Builder
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

// Funcs is sprig's function map plus the portal helpers.
func Funcs() template.FuncMap {
	funcs := sprig.FuncMap()
	funcs["headerTitle"] = HeaderTitle
	return funcs
}
