package gate

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
)

//go:embed web
var webFS embed.FS

// PageData fills the verification page template.
type PageData struct {
	Error             string
	ChallengeSiteKey  string
	BehavioralSiteKey string
}

// Renderer produces the verification page and serves its static assets.
type Renderer struct {
	tmpl              *template.Template
	stylesheet        []byte
	challengeSiteKey  string
	behavioralSiteKey string
}

// NewRenderer parses the embedded page assets.
func NewRenderer(challengeSiteKey, behavioralSiteKey string) (*Renderer, error) {
	tmpl, err := template.ParseFS(webFS, "web/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse gate page template: %w", err)
	}
	stylesheet, err := webFS.ReadFile("web/style.css")
	if err != nil {
		return nil, fmt.Errorf("read gate stylesheet: %w", err)
	}
	return &Renderer{
		tmpl:              tmpl,
		stylesheet:        stylesheet,
		challengeSiteKey:  challengeSiteKey,
		behavioralSiteKey: behavioralSiteKey,
	}, nil
}

// RenderPage writes the verification page, with errMsg in the alert slot
// when non-empty.
func (r *Renderer) RenderPage(w io.Writer, errMsg string) error {
	return r.tmpl.Execute(w, PageData{
		Error:             errMsg,
		ChallengeSiteKey:  r.challengeSiteKey,
		BehavioralSiteKey: r.behavioralSiteKey,
	})
}

// ServeStylesheet handles GET /style.css.
func (r *Renderer) ServeStylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(r.stylesheet)
}
