package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/aTrapDeer/portfolio-admin/internal/content"
	"github.com/aTrapDeer/portfolio-admin/internal/notify"
	"github.com/aTrapDeer/portfolio-admin/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login.html", "hero.html", "about.html", "projects.html", "testimonials.html"}

// markdown renders descriptions for previews. Raw HTML in the source is omitted.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

var funcs = template.FuncMap{
	"markdown": renderMarkdown,
	"slots":    content.ImageSlots,
	"lines":    func(list []string) string { return strings.Join(list, "\n") },
	"inc":      func(i int) int { return i + 1 },
	"selected": func(cur, opt any) template.HTMLAttr {
		if fmt.Sprint(cur) == fmt.Sprint(opt) {
			return "selected"
		}
		return ""
	},
	"careerTypes":       func() []content.CareerType { return content.CareerTypes },
	"skillLevels":       func() []content.SkillLevel { return content.SkillLevels },
	"skillCategories":   func() []content.SkillCategory { return content.SkillCategories },
	"projectTypes":      func() []content.ProjectType { return content.ProjectTypes },
	"contributionTypes": func() []content.ContributionType { return content.ContributionTypes },
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", name)
		}
		pages[name] = t
	}
	return pages, nil
}

// view is what every page template receives.
type view struct {
	Title  string
	Path   string
	Nav    []NavLink
	User   string
	Flash  []notify.Notification
	Error  string
	Status int
	Data   any
}

// render writes a page. A non-empty loadErr renders the page's error state.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name, title string, data any, loadErr error) {
	v := view{
		Title:  title,
		Path:   r.URL.Path,
		Nav:    Active(r.URL.Path),
		Data:   data,
		Status: http.StatusOK,
	}
	if cur, ok := session.FromContext(r.Context()); ok {
		v.User = cur.User.Display()
		v.Flash = s.notes.Drain(cur.Session.ID)
	}
	if loadErr != nil {
		v.Error = "Could not load this page from the portfolio API. Reload to try again."
		v.Status = http.StatusBadGateway
		log.Warn().Err(loadErr).Str("request_id", RequestID(r.Context())).Str("page", name).Msg("page load failed")
	}

	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", v); err != nil {
		log.Error().Err(err).Str("page", name).Msg("template failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(v.Status)
	_, _ = buf.WriteTo(w)
}
