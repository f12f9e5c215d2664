package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ietf-tools/datatracker/internal/store"
)

var templateFuncs = template.FuncMap{
	"isodate": func(t time.Time) string { return t.UTC().Format("2006-01-02") },
}

// page is the data passed to every template.
type page struct {
	User      *store.User
	Form      *form
	Next      string
	Document  *store.Document
	Documents []*store.Document

	Status     int
	StatusText string
	Message    string
}

// form carries submitted values and per-field errors back to a template.
// The "__all__" key holds errors not tied to a field.
type form struct {
	values url.Values
	Errors map[string]string
}

func newForm(values url.Values) *form {
	if values == nil {
		values = url.Values{}
	}
	return &form{values: values, Errors: make(map[string]string)}
}

// Value returns the trimmed submitted value of field.
func (f *form) Value(field string) string {
	return strings.TrimSpace(f.values.Get(field))
}

// Error returns the error message for field, or "".
func (f *form) Error(field string) string {
	return f.Errors[field]
}

func (f *form) valid() bool {
	return len(f.Errors) == 0
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if p.User == nil {
		p.User = currentUser(r)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", p); err != nil {
		s.logger.Error("failed to render template", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", &page{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
	})
}

// loginURL returns the login page URL that returns to next afterwards.
func loginURL(next string) string {
	return "/accounts/login/?next=" + url.QueryEscape(next)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
