// Package web serves the admin dashboard: login, the navigation shell and one form page
// per portfolio section.
package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/aTrapDeer/portfolio-admin/internal/binder"
	"github.com/aTrapDeer/portfolio-admin/internal/notify"
	"github.com/aTrapDeer/portfolio-admin/internal/querycache"
	"github.com/aTrapDeer/portfolio-admin/internal/session"
)

// Sessions is what the web layer needs from the session manager.
type Sessions interface {
	Login(ctx context.Context, email, password string) (session.Session, *http.Cookie, error)
	Resolve(ctx context.Context, value string) (session.Session, error)
	Check(ctx context.Context, s session.Session) session.Status
	Logout(ctx context.Context, value string) (*http.Cookie, error)
	End(ctx context.Context, s session.Session, reason string)
	Middleware(loginPath string) func(http.Handler) http.Handler
}

type ServerDeps struct {
	Binders        *binder.Set
	Store          *querycache.Store
	Drafts         *binder.Drafts
	Notes          *notify.Center
	Sessions       Sessions
	AllowedOrigins []string
	MaxUploadBytes int64
}

type Server struct {
	set      *binder.Set
	store    *querycache.Store
	drafts   *binder.Drafts
	notes    *notify.Center
	sessions Sessions
	live     *Hub
	pages    map[string]*template.Template
	origins  []string
	maxBytes int64
}

func NewServer(deps ServerDeps) (*Server, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	maxBytes := deps.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	s := &Server{
		set:      deps.Binders,
		store:    deps.Store,
		drafts:   deps.Drafts,
		notes:    deps.Notes,
		sessions: deps.Sessions,
		pages:    pages,
		origins:  deps.AllowedOrigins,
		maxBytes: maxBytes,
	}
	s.live = NewHub(deps.Store, deps.AllowedOrigins)
	return s, nil
}

// Close disconnects live clients and drops their cache subscriptions.
func (s *Server) Close() {
	s.live.Close()
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(s.sessions.Middleware("/login"))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, Nav[0].Path, http.StatusSeeOther)
		})
		r.Get("/live", s.live.ServeWS)

		r.Get("/hero", s.heroPage)
		r.Post("/hero", s.saveHero)
		r.Post("/hero/images/{slot}", s.uploadHeroImage)

		r.Get("/about", s.aboutPage)
		r.Post("/about", s.saveAbout)
		r.Post("/about/careers", s.saveCareer)
		r.Post("/about/careers/{id}", s.saveCareer)
		r.Post("/about/careers/{id}/delete", s.deleteCareer)
		r.Post("/about/skills", s.saveSkill)
		r.Post("/about/skills/{id}", s.saveSkill)
		r.Post("/about/skills/{id}/delete", s.deleteSkill)

		r.Get("/projects", s.projectsPage)
		r.Post("/projects", s.saveProjectPage)
		r.Post("/projects/items", s.saveProject)
		r.Post("/projects/items/image", s.uploadProjectImage)
		r.Post("/projects/items/{id}", s.saveProject)
		r.Post("/projects/items/{id}/delete", s.deleteProject)

		r.Get("/testimonials", s.testimonialsPage)
		r.Post("/testimonials", s.saveTestimonyPage)
		r.Post("/testimonials/items/{id}/approve", s.approveTestimony)
		r.Post("/testimonials/items/{id}/delete", s.deleteTestimony)
	})

	if len(s.origins) == 0 {
		return r
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
