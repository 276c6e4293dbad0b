package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/complaint-register/api/internal/complaint"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index", "edit", "import_report", "replacement_report"}

type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"value":     deref,
		"days":      derefInt,
		"formDate":  complaint.FormInputDate,
		"files":     splitFiles,
		"sortLink":  sortLink,
		"pageLink":  pageLink,
		"isVideo":   isVideo,
		"sortArrow": sortArrow,
	}

	r := &Renderer{templates: map[string]*template.Template{}}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render executes into a buffer first so a template error never leaves a
// half-written page.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

type ListView struct {
	Sort string
	Desc bool
	Size string
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func splitFiles(value *string) []string {
	if value == nil || *value == "" {
		return nil
	}
	return strings.Split(*value, ",")
}

func isVideo(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".mp4", ".webm", ".mov", ".ogg"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func sortLink(view ListView, field string) string {
	order := "asc"
	if view.Sort == field && !view.Desc {
		order = "desc"
	}
	return fmt.Sprintf("/?page=1&pageSize=%s&sortBy=%s&order=%s", view.Size, field, order)
}

func sortArrow(view ListView, field string) string {
	if view.Sort != field {
		return ""
	}
	if view.Desc {
		return "▼"
	}
	return "▲"
}

func pageLink(view ListView, page int) string {
	order := "asc"
	if view.Desc {
		order = "desc"
	}
	return fmt.Sprintf("/?page=%d&pageSize=%s&sortBy=%s&order=%s", page, view.Size, view.Sort, order)
}
