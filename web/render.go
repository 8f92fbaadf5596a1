package web

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
	"unicode"
)

// TemplateData carries the context for one page render. Handlers fill in
// whatever the page needs; "Path" is set by the renderer.
type TemplateData map[string]interface{}

type Renderer struct {
	HTMLDir string
}

func NewRenderer(htmlDir string) *Renderer {
	return &Renderer{HTMLDir: htmlDir}
}

var functions = template.FuncMap{
	"cap": func(str string) string {
		if str == "" {
			return ""
		}
		runes := []rune(str)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	},
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"excerpt": func(str string) string {
		runes := []rune(str)
		if len(runes) <= 30 {
			return str
		}
		return string(runes[:30]) + "…"
	},
}

// HTMLString renders pageFile inside the base layout and returns the result.
func (rn *Renderer) HTMLString(r *http.Request, pageFile string, data TemplateData) (string, error) {
	if data == nil {
		data = TemplateData{}
	}
	data["Path"] = r.URL.Path

	files := []string{
		filepath.Join(rn.HTMLDir, "base.layout.html"),
		filepath.Join(rn.HTMLDir, pageFile),
	}

	ts, err := template.New("").Funcs(functions).ParseFiles(files...)
	if err != nil {
		return "", err
	}

	ts, err = ts.ParseGlob(filepath.Join(rn.HTMLDir, "*.partial.html"))
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Fragment renders a single named partial and returns the markup. The cached
// global feed is rendered this way: the fragment carries no viewer-specific
// chrome, so one cached copy serves every visitor.
func (rn *Renderer) Fragment(name string, data TemplateData) (string, error) {
	ts, err := template.New("").Funcs(functions).ParseGlob(filepath.Join(rn.HTMLDir, "*.partial.html"))
	if err != nil {
		return "", err
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HTML renders pageFile and writes it to the response.
func (rn *Renderer) HTML(w http.ResponseWriter, r *http.Request, pageFile string, data TemplateData) {
	page, err := rn.HTMLString(r, pageFile, data)
	if err != nil {
		rn.ServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page)); err != nil {
		log.Printf("[Render] write failed: %v", err)
	}
}

func (rn *Renderer) ServerError(w http.ResponseWriter, err error) {
	log.Printf("%s\n%s", err.Error(), debug.Stack())
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (rn *Renderer) ClientError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

func (rn *Renderer) NotFound(w http.ResponseWriter) {
	rn.ClientError(w, http.StatusNotFound)
}

func (rn *Renderer) MethodNotAllowed(w http.ResponseWriter, methods []string) {
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
}
