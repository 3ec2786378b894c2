package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/aTrapDeer/portfolio-admin/internal/content"
)

// parseForm handles both urlencoded and multipart bodies; forms with upload buttons are
// multipart.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.maxBytes); err != nil {
			return errors.Wrap(err, "failed to parse multipart form")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return errors.Wrap(err, "failed to parse form")
	}
	return nil
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

func checked(r *http.Request, name string) bool {
	return r.PostFormValue(name) != ""
}

// splitLines turns a one-entry-per-line textarea into a list.
func splitLines(raw string) []string {
	out := []string{}
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// values returns the repeated field as posted, blanks included, so image slots keep
// their positions.
func values(r *http.Request, name string) []string {
	raw := r.PostForm[name]
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func decodeHero(r *http.Request, h *content.HeroContent) {
	h.Name = field(r, "name")
	h.Rank = field(r, "rank")
	h.Title = field(r, "title")
	h.Subtitle = field(r, "subtitle")
	h.ResumeLink = field(r, "resume_link")
	h.ContactLink = field(r, "contact_link")
	h.ImageURLs = values(r, "image_urls")
	h.Hobbies = splitLines(r.PostFormValue("hobbies"))
}

func decodeAbout(r *http.Request, a *content.AboutContent) {
	a.Description = field(r, "description")
	a.LinkedinLink = field(r, "linkedin_link")
	a.GithubLink = field(r, "github_link")
	a.Available = checked(r, "available")

	titles := values(r, "card_title")
	descriptions := values(r, "card_description")
	cards := []content.AboutCard{}
	for i, title := range titles {
		var desc string
		if i < len(descriptions) {
			desc = descriptions[i]
		}
		if title == "" && desc == "" {
			continue
		}
		cards = append(cards, content.AboutCard{Title: title, Description: desc})
	}
	a.Cards = cards
}

func decodeCareer(r *http.Request, c *content.CareerEntry) {
	c.StartedAt = field(r, "started_at")
	c.EndedAt = field(r, "ended_at")
	c.Ongoing = checked(r, "ongoing")
	c.Title = field(r, "title")
	c.Affiliation = field(r, "affiliation")
	c.Description = field(r, "description")
	c.Location = field(r, "location")
	c.Type = content.CareerType(field(r, "type"))
}

func decodeSkill(r *http.Request, sk *content.TechnicalSkill) {
	sk.Name = field(r, "name")
	sk.Description = field(r, "description")
	sk.Specialities = splitLines(r.PostFormValue("specialities"))
	sk.Level = content.SkillLevel(field(r, "level"))
	sk.Category = content.SkillCategory(field(r, "category"))
}

func decodeProject(r *http.Request, p *content.ProjectItem) {
	p.Name = field(r, "name")
	p.Description = field(r, "description")
	p.ImageURLs = values(r, "image_urls")
	p.TechStack = values(r, "tech_stack")
	p.GithubLink = field(r, "github_link")
	p.ProjectLink = field(r, "project_link")
	p.Type = content.ProjectType(field(r, "type"))
	p.Contribution = content.ContributionType(field(r, "contribution"))
}

func decodeTitled(r *http.Request) (title, description string) {
	return field(r, "title"), field(r, "description")
}

// slot parses an image slot index from the URL.
func slot(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Errorf("bad image slot %q", raw)
	}
	return n, nil
}
