package web

import (
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/binder"
	"github.com/aTrapDeer/portfolio-admin/internal/notify"
	"github.com/aTrapDeer/portfolio-admin/internal/session"
)

func current(r *http.Request) session.Current {
	cur, _ := session.FromContext(r.Context())
	return cur
}

// reauth sends the operator to the login view when the API rejected their token. It
// reports whether it handled the request.
func (s *Server) reauth(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil || !errors.Is(err, binder.ErrUnauthenticated) {
		return false
	}
	s.sessions.End(r.Context(), current(r).Session, "token rejected by API")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

// done finishes a form post: back to success, or to failure when the write was refused.
// The binder has already queued the toast for API and validation failures.
func (s *Server) done(w http.ResponseWriter, r *http.Request, err error, success, failure string) {
	if s.reauth(w, r, err) {
		return
	}
	switch {
	case err == nil:
		http.Redirect(w, r, success, http.StatusSeeOther)
	case errors.Is(err, binder.ErrUnsupported):
		http.NotFound(w, r)
	case errors.Is(err, binder.ErrNotFound):
		s.notes.Push(current(r).Session.ID, notify.Failed("That entry no longer exists."))
		http.Redirect(w, r, success, http.StatusSeeOther)
	default:
		log.Debug().Err(err).Str("request_id", RequestID(r.Context())).Msg("form post refused")
		http.Redirect(w, r, failure, http.StatusSeeOther)
	}
}

// loadFailed queues a toast for a form post whose page could not be read first.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, err error, back string) {
	if s.reauth(w, r, err) {
		return
	}
	if !errors.Is(err, binder.ErrNotFound) {
		s.notes.Push(current(r).Session.ID, notify.Failed(apiclient.MessageOr(err, "Could not reach the portfolio API.")))
	}
	s.done(w, r, err, back, back)
}

func (s *Server) badForm(w http.ResponseWriter, r *http.Request, err error) {
	log.Warn().Err(err).Str("request_id", RequestID(r.Context())).Msg("bad form post")
	http.Error(w, "Bad Request", http.StatusBadRequest)
}

// withQuery builds path?key=value, or path alone for an empty value.
func withQuery(path, key, value string) string {
	if value == "" {
		return path
	}
	return path + "?" + url.Values{key: {value}}.Encode()
}
