package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/flash"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/registration"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// Raw HTML in descriptions is escaped; only Markdown formatting is rendered.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

var pageNames = []string{
	"signin.html",
	"register.html",
	"events.html",
	"event.html",
	"my_registrations.html",
	"ticket.html",
	"profile.html",
	"friends.html",
	"organizer.html",
	"event_form.html",
	"registrations.html",
	"checkin.html",
	"error.html",
}

// page is the data every template receives. Page carries the page-specific part.
type page struct {
	Title     string
	Identity  *model.Identity
	Flash     *flash.Notice
	Error     string
	CSRFField template.HTML
	Page      any
}

type errorPage struct {
	Heading string
	Back    string
}

type renderer struct {
	pages map[string]*template.Template
}

func renderMarkdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}

var funcMap = template.FuncMap{
	"markdown": renderMarkdown,
	"label":    registration.Label,
	"initials": view.Initials,
}

func newRenderer() (*renderer, error) {
	rd := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		rd.pages[name] = t
	}
	return rd, nil
}

// render executes name inside the layout. Output is buffered so a template
// failure still produces a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	t, ok := h.pages.pages[name]
	if !ok {
		h.log.Error().Str("template", name).Msg("unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.Identity = h.identity(r)
	data.CSRFField = csrf.TemplateField(r)
	if notice, ok := flash.ReadAndClear(w, r, h.secure); ok {
		data.Flash = &notice
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
