package web

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/session"
)

type loginView struct {
	Email string
	Error string
}

// loginPage skips the form for a browser that already holds a live session.
func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if sess, err := s.sessions.Resolve(r.Context(), c.Value); err == nil {
			if s.sessions.Check(r.Context(), sess).State == session.Authenticated {
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
		}
	}
	s.render(w, r, "login.html", "Sign in", loginView{}, nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.badForm(w, r, err)
		return
	}
	email := field(r, "email")
	password := r.PostFormValue("password")

	if email == "" || password == "" {
		s.renderLogin(w, r, loginView{Email: email, Error: "Email and password are required."})
		return
	}

	_, cookie, err := s.sessions.Login(r.Context(), email, password)
	if err != nil {
		log.Info().Err(err).Str("email", email).Msg("sign in refused")
		msg := apiclient.MessageOr(err, "Could not reach the portfolio API.")
		if apiclient.IsUnauthorized(err) {
			msg = apiclient.MessageOr(err, "Invalid credentials.")
		}
		s.renderLogin(w, r, loginView{Email: email, Error: msg})
		return
	}

	http.SetCookie(w, cookie)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	s.render(w, r, "login.html", "Sign in", v, nil)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if sess, rerr := s.sessions.Resolve(r.Context(), c.Value); rerr == nil {
			s.drafts.DiscardSession(sess.ID)
			s.notes.Drain(sess.ID)
		}
		cleared, err := s.sessions.Logout(r.Context(), c.Value)
		if err != nil {
			log.Warn().Err(err).Msg("logout failed")
		}
		http.SetCookie(w, cleared)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
