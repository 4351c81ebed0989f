package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"subhub/internal/domain/model"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the page templates. Each page is parsed together with
// the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var pageNames = []string{"login", "user", "admin", "docs", "clients"}

var funcs = template.FuncMap{
	"bytes":  formatBytes,
	"expire": formatExpire,
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

type UserPage struct {
	UUID   string
	Record model.UserRecord
}

// Render writes page with status 200. Output is buffered so a template error
// still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, page string, data any) {
	t, ok := r.pages[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html;charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func formatBytes(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := float64(n)
	unit := 0
	for v >= 1024 && unit < len(units)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", v, units[unit])
}

func formatExpire(rec model.UserRecord) string {
	t, ok := rec.ExpireTime()
	if !ok {
		return rec.Expire
	}
	return t.UTC().Format(time.DateTime + " MST")
}
