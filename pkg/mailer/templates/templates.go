// Package templates renders the security alert emails from embedded files.
// Each template name maps to <name>.subject.tmpl, <name>.text.tmpl and
// <name>.html.tmpl; every set is parsed once on first use.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names
const (
	NewSignIn       = "new_sign_in"
	PasswordChanged = "password_changed"
)

var names = []string{NewSignIn, PasswordChanged}

// EmailData is what every template can reference.
type EmailData struct {
	Name  string `json:"Name"`
	Email string `json:"Email"`
	Type  string `json:"Type"`

	AppName        string `json:"AppName"`
	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	SupportURL     string `json:"SupportURL"`

	// Sign-in context
	IP        string    `json:"IP"`
	UserAgent string    `json:"UserAgent"`
	Time      string    `json:"Time"`
	TimeAt    time.Time `json:"TimeAt"`
}

// ToMap flattens d into the shape EmailJob.Data carries over the queue.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// fallbackTo backs the default pipe: {{ .Value | default "Fallback" }}
func fallbackTo(fallback any, value any) any {
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return fallback
		}
		return s
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.IsZero() {
		return fallback
	}
	return value
}

var funcs = map[string]any{
	"upper":   strings.ToUpper,
	"default": fallbackTo,
}

type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	loadOnce sync.Once
	loaded   map[string]set
	loadErr  error
)

func load() (map[string]set, error) {
	loadOnce.Do(func() {
		loaded = make(map[string]set, len(names))
		for _, name := range names {
			var s set
			if s.subject, loadErr = parseText(name + ".subject.tmpl"); loadErr != nil {
				return
			}
			if s.text, loadErr = parseText(name + ".text.tmpl"); loadErr != nil {
				return
			}
			if s.html, loadErr = htmpl.New(name + ".html.tmpl").Funcs(funcs).ParseFS(FS, name+".html.tmpl"); loadErr != nil {
				loadErr = fmt.Errorf("parse %s.html.tmpl: %w", name, loadErr)
				return
			}
			loaded[name] = s
		}
	})
	return loaded, loadErr
}

func parseText(file string) (*texttpl.Template, error) {
	t, err := texttpl.New(file).Funcs(funcs).ParseFS(FS, file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return t, nil
}

// Known reports whether name is a template set.
func Known(name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Render produces the subject, text and html bodies of the named template.
func Render(name string, data any) (subject, text, html string, err error) {
	if !Known(name) {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	sets, err := load()
	if err != nil {
		return "", "", "", err
	}
	s := sets[name]

	var buf bytes.Buffer
	if err = s.subject.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err = s.text.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	text = buf.String()

	buf.Reset()
	if err = s.html.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	return subject, text, buf.String(), nil
}
