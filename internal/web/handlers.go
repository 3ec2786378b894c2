package web

// handlers.go the section pages and their form posts, one handler per resource operation

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/aTrapDeer/portfolio-admin/internal/binder"
	"github.com/aTrapDeer/portfolio-admin/internal/content"
	"github.com/aTrapDeer/portfolio-admin/internal/notify"
)

const (
	heroPath         = "/dashboard/hero"
	aboutPath        = "/dashboard/about"
	projectsPath     = "/dashboard/projects"
	testimonialsPath = "/dashboard/testimonials"
)

// warm runs the reads of a multi-resource page concurrently.
func warm(reads ...func() error) error {
	g := new(errgroup.Group)
	for _, read := range reads {
		g.Go(read)
	}
	return g.Wait()
}

// --- hero

type heroView struct {
	Draft     binder.Draft[content.HeroContent]
	MaxImages int
}

func (s *Server) heroPage(w http.ResponseWriter, r *http.Request) {
	draft, err := s.set.Hero.Edit(r.Context(), current(r).Session.ID, "")
	if s.reauth(w, r, err) {
		return
	}
	s.render(w, r, "hero.html", "Hero", heroView{Draft: draft, MaxImages: content.MaxHeroImages}, err)
}

func (s *Server) saveHero(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID

	draft, err := s.set.Hero.Edit(r.Context(), sid, "")
	if err != nil {
		s.loadFailed(w, r, err, heroPath)
		return
	}
	decodeHero(r, &draft.Value)

	err = s.set.Hero.Submit(r.Context(), sid, draft)
	s.done(w, r, err, heroPath, heroPath)
}

func (s *Server) uploadHeroImage(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	n, err := slot(chi.URLParam(r, "slot"))
	if err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID

	draft, err := s.set.Hero.Edit(r.Context(), sid, "")
	if err != nil {
		s.loadFailed(w, r, err, heroPath)
		return
	}
	decodeHero(r, &draft.Value)
	s.set.Hero.Keep(sid, draft)

	err = s.upload(r, sid, fmt.Sprintf("file_%d", n), func(name string, file io.Reader) error {
		_, uerr := s.set.Hero.UploadImage(r.Context(), sid, draft, n, name, file)
		return uerr
	})
	s.done(w, r, err, heroPath, heroPath)
}

// --- about, careers, skills

type aboutView struct {
	About      binder.Draft[content.AboutContent]
	Careers    []content.CareerEntry
	Career     binder.Draft[content.CareerEntry]
	Skills     []content.TechnicalSkill
	Skill      binder.Draft[content.TechnicalSkill]
	Category   string
	Categories []string
}

func (s *Server) aboutPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := current(r).Session.ID
	q := r.URL.Query()

	err := warm(
		func() error { _, _, err := s.set.About.Page(ctx); return err },
		func() error { _, _, err := s.set.Careers.List(ctx); return err },
		func() error { _, _, err := s.set.Skills.List(ctx); return err },
	)
	if s.reauth(w, r, err) {
		return
	}
	if err != nil {
		s.render(w, r, "about.html", "About", aboutView{}, err)
		return
	}

	v := aboutView{Category: q.Get("category"), Categories: []string{content.All}}
	if v.Category == "" {
		v.Category = content.All
	}
	for _, c := range content.SkillCategories {
		v.Categories = append(v.Categories, string(c))
	}

	if v.About, err = s.set.About.Edit(ctx, sid, ""); err != nil {
		s.render(w, r, "about.html", "About", v, err)
		return
	}

	careers, _, err := s.set.Careers.List(ctx)
	if err != nil {
		s.render(w, r, "about.html", "About", v, err)
		return
	}
	v.Careers = careers.Data

	skills, _, err := s.set.Skills.List(ctx)
	if err != nil {
		s.render(w, r, "about.html", "About", v, err)
		return
	}
	v.Skills = content.FilterSkills(skills.Data, v.Category)

	if v.Career, err = s.set.Careers.Edit(ctx, sid, content.ID(q.Get("career"))); err != nil {
		s.done(w, r, err, aboutPath, aboutPath)
		return
	}
	if v.Skill, err = s.set.Skills.Edit(ctx, sid, content.ID(q.Get("skill"))); err != nil {
		s.done(w, r, err, aboutPath, aboutPath)
		return
	}

	s.render(w, r, "about.html", "About", v, nil)
}

func (s *Server) saveAbout(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID

	draft, err := s.set.About.Edit(r.Context(), sid, "")
	if err != nil {
		s.loadFailed(w, r, err, aboutPath)
		return
	}
	decodeAbout(r, &draft.Value)

	err = s.set.About.Submit(r.Context(), sid, draft)
	s.done(w, r, err, aboutPath, aboutPath)
}

func (s *Server) saveCareer(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID
	id := chi.URLParam(r, "id")
	back := withQuery(aboutPath, "career", id)

	draft, err := s.set.Careers.Edit(r.Context(), sid, content.ID(id))
	if err != nil {
		s.loadFailed(w, r, err, aboutPath)
		return
	}
	decodeCareer(r, &draft.Value)

	err = s.set.Careers.Submit(r.Context(), sid, draft)
	s.done(w, r, err, aboutPath, back)
}

func (s *Server) deleteCareer(w http.ResponseWriter, r *http.Request) {
	err := s.set.Careers.Delete(r.Context(), current(r).Session.ID, content.ID(chi.URLParam(r, "id")))
	s.done(w, r, err, aboutPath, aboutPath)
}

func (s *Server) saveSkill(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID
	id := chi.URLParam(r, "id")
	back := withQuery(aboutPath, "skill", id)

	draft, err := s.set.Skills.Edit(r.Context(), sid, content.ID(id))
	if err != nil {
		s.loadFailed(w, r, err, aboutPath)
		return
	}
	decodeSkill(r, &draft.Value)

	err = s.set.Skills.Submit(r.Context(), sid, draft)
	s.done(w, r, err, aboutPath, back)
}

func (s *Server) deleteSkill(w http.ResponseWriter, r *http.Request) {
	err := s.set.Skills.Delete(r.Context(), current(r).Session.ID, content.ID(chi.URLParam(r, "id")))
	s.done(w, r, err, aboutPath, aboutPath)
}

// --- projects

type projectsView struct {
	Page      binder.Draft[content.ProjectPageContent]
	Items     []content.ProjectItem
	Item      binder.Draft[content.ProjectItem]
	Tech      []content.TechOption
	MaxImages int
}

func (s *Server) projectsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := current(r).Session.ID

	err := warm(
		func() error { _, _, err := s.set.ProjectPage.Page(ctx); return err },
		func() error { _, _, err := s.set.Projects.List(ctx); return err },
		func() error { _, _, err := s.set.Skills.List(ctx); return err },
	)
	if s.reauth(w, r, err) {
		return
	}
	v := projectsView{MaxImages: content.MaxProjectImages}
	if err != nil {
		s.render(w, r, "projects.html", "Projects", v, err)
		return
	}

	if v.Page, err = s.set.ProjectPage.Edit(ctx, sid, ""); err != nil {
		s.render(w, r, "projects.html", "Projects", v, err)
		return
	}
	items, _, err := s.set.Projects.List(ctx)
	if err != nil {
		s.render(w, r, "projects.html", "Projects", v, err)
		return
	}
	v.Items = items.Data

	if v.Item, err = s.set.Projects.Edit(ctx, sid, content.ID(r.URL.Query().Get("item"))); err != nil {
		s.done(w, r, err, projectsPath, projectsPath)
		return
	}
	skills, _, err := s.set.Skills.List(ctx)
	if err != nil {
		s.render(w, r, "projects.html", "Projects", v, err)
		return
	}
	v.Tech = content.TechOptions(v.Item.Value.TechStack, skills.Data)

	s.render(w, r, "projects.html", "Projects", v, nil)
}

func (s *Server) saveProjectPage(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID

	draft, err := s.set.ProjectPage.Edit(r.Context(), sid, "")
	if err != nil {
		s.loadFailed(w, r, err, projectsPath)
		return
	}
	draft.Value.Title, draft.Value.Description = decodeTitled(r)

	err = s.set.ProjectPage.Submit(r.Context(), sid, draft)
	s.done(w, r, err, projectsPath, projectsPath)
}

func (s *Server) saveProject(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID
	id := chi.URLParam(r, "id")
	back := withQuery(projectsPath, "item", id)

	draft, err := s.set.Projects.Edit(r.Context(), sid, content.ID(id))
	if err != nil {
		s.loadFailed(w, r, err, projectsPath)
		return
	}
	decodeProject(r, &draft.Value)

	err = s.set.Projects.Submit(r.Context(), sid, draft)
	s.done(w, r, err, projectsPath, back)
}

// uploadProjectImage is posted by the upload button inside the project form, so it
// carries the form's unsaved fields and the record id (empty while creating).
func (s *Server) uploadProjectImage(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID
	id := field(r, "id")
	back := withQuery(projectsPath, "item", id)

	draft, err := s.set.Projects.Edit(r.Context(), sid, content.ID(id))
	if err != nil {
		s.loadFailed(w, r, err, projectsPath)
		return
	}
	decodeProject(r, &draft.Value)
	s.set.Projects.Keep(sid, draft)

	err = s.upload(r, sid, "file", func(name string, file io.Reader) error {
		_, uerr := s.set.Projects.UploadImage(r.Context(), sid, draft, 0, name, file)
		return uerr
	})
	s.done(w, r, err, back, back)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.set.Projects.Delete(r.Context(), current(r).Session.ID, content.ID(chi.URLParam(r, "id")))
	s.done(w, r, err, projectsPath, projectsPath)
}

// --- testimonials

type testimonialsView struct {
	Page     binder.Draft[content.TestimonyPageContent]
	Items    []content.TestimonyItem
	Status   string
	Statuses []string
}

func (s *Server) testimonialsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := current(r).Session.ID

	v := testimonialsView{Status: r.URL.Query().Get("status"), Statuses: content.TestimonyStatuses}
	if v.Status == "" {
		v.Status = content.All
	}

	err := warm(
		func() error { _, _, err := s.set.TestimonyPage.Page(ctx); return err },
		func() error { _, _, err := s.set.Testimonies.List(ctx); return err },
	)
	if s.reauth(w, r, err) {
		return
	}
	if err != nil {
		s.render(w, r, "testimonials.html", "Testimonials", v, err)
		return
	}

	if v.Page, err = s.set.TestimonyPage.Edit(ctx, sid, ""); err != nil {
		s.render(w, r, "testimonials.html", "Testimonials", v, err)
		return
	}
	items, _, err := s.set.Testimonies.List(ctx)
	if err != nil {
		s.render(w, r, "testimonials.html", "Testimonials", v, err)
		return
	}
	v.Items = content.FilterTestimonies(items.Data, v.Status)

	s.render(w, r, "testimonials.html", "Testimonials", v, nil)
}

func (s *Server) saveTestimonyPage(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	sid := current(r).Session.ID

	draft, err := s.set.TestimonyPage.Edit(r.Context(), sid, "")
	if err != nil {
		s.loadFailed(w, r, err, testimonialsPath)
		return
	}
	draft.Value.Title, draft.Value.Description = decodeTitled(r)

	err = s.set.TestimonyPage.Submit(r.Context(), sid, draft)
	s.done(w, r, err, testimonialsPath, testimonialsPath)
}

func (s *Server) approveTestimony(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	back := withQuery(testimonialsPath, "status", field(r, "status"))

	body := content.ApproveRequest{Approved: field(r, "approved") != "false"}
	err := s.set.Testimonies.Action(r.Context(), current(r).Session.ID, content.ID(chi.URLParam(r, "id")), binder.ActionApprove, body)
	s.done(w, r, err, back, back)
}

func (s *Server) deleteTestimony(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	back := withQuery(testimonialsPath, "status", field(r, "status"))

	err := s.set.Testimonies.Delete(r.Context(), current(r).Session.ID, content.ID(chi.URLParam(r, "id")))
	s.done(w, r, err, back, back)
}

// --- uploads

// upload hands the posted file to send. A post without a file queues a toast instead.
func (s *Server) upload(r *http.Request, sid, name string, send func(filename string, file io.Reader) error) error {
	file, header, err := r.FormFile(name)
	if err != nil {
		s.notes.Push(sid, notify.Failed("Choose an image first."))
		return err
	}
	defer file.Close()
	return send(header.Filename, file)
}
