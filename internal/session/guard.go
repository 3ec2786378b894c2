package session

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/content"
)

// State is where the guard is for one protected-area entry.
type State int

const (
	Checking State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "checking"
	}
}

// Status is the guard's answer. User is set only when Authenticated.
type Status struct {
	State State
	User  content.User
}

// Check asks the API who owns the session's token. There is no retry: a failed check
// leaves the session Unauthenticated for this request. Tokens the API rejects and tokens
// whose exp has passed end the session for good.
func (m *Manager) Check(ctx context.Context, s Session) Status {
	if cached, found := m.checks.Get(s.ID); found {
		return Status{State: Authenticated, User: cached.(content.User)}
	}

	if tokenExpired(s.Token, m.now()) {
		m.End(ctx, s, "token expired")
		return Status{State: Unauthenticated}
	}

	user, err := m.api.Me(s.Ctx(ctx))
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			m.End(ctx, s, "token rejected")
		} else {
			log.Warn().Err(err).Str("session", s.ID).Msg("session check failed")
		}
		return Status{State: Unauthenticated}
	}

	if user.Email == "" {
		user.Email = s.Email
	}
	m.checks.SetDefault(s.ID, user)
	return Status{State: Authenticated, User: user}
}

// End deletes the session, e.g. once the API has rejected its token.
func (m *Manager) End(ctx context.Context, s Session, reason string) {
	log.Info().Str("session", s.ID).Str("reason", reason).Msg("session ended")
	m.checks.Delete(s.ID)
	m.verified.Delete(s.ID)
	if err := m.store.Delete(ctx, s.ID); err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("failed to delete session")
	}
}

// tokenExpired reads exp without verifying the signature; the API stays the judge of
// validity, this only skips a round trip for tokens that are certainly dead. Tokens that
// are not JWTs are left to the API.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

type ctxKey struct{}

// Current is what the guard puts on the request context of protected handlers.
type Current struct {
	Session Session
	User    content.User
}

// FromContext returns the guarded request's session.
func FromContext(ctx context.Context) (Current, bool) {
	cur, ok := ctx.Value(ctxKey{}).(Current)
	return cur, ok
}

// WithCurrent is used by tests and by the guard.
func WithCurrent(ctx context.Context, cur Current) context.Context {
	return context.WithValue(ctx, ctxKey{}, cur)
}

// Middleware lets Authenticated requests through with the session and token on their
// context and redirects everything else to loginPath.
func (m *Manager) Middleware(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(CookieName)
			if err != nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			s, err := m.Resolve(r.Context(), c.Value)
			if err != nil {
				log.Debug().Err(err).Msg("no usable session")
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			status := m.Check(r.Context(), s)
			if status.State != Authenticated {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			ctx := WithCurrent(s.Ctx(r.Context()), Current{Session: s, User: status.User})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
