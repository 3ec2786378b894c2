package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/content"
)

const verifiedTTL = 15 * time.Minute

// API is the part of the portfolio API client sessions need.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context) (content.User, error)
}

type Options struct {
	TTL          time.Duration
	BcryptCost   int
	SecureCookie bool
	// CheckTTL is how long a successful /auth/me answer is trusted.
	CheckTTL time.Duration
}

// Manager creates, resolves and ends sessions, and runs the session guard.
type Manager struct {
	store  Store
	api    API
	opts   Options
	checks *cache.Cache
	// verified remembers cookies that passed bcrypt, by session id.
	verified *cache.Cache
	compare  func(hash, password []byte) error
	now      func() time.Time
}

func NewManager(store Store, api API, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.CheckTTL <= 0 {
		opts.CheckTTL = 30 * time.Second
	}
	return &Manager{
		store:    store,
		api:      api,
		opts:     opts,
		checks:   cache.New(opts.CheckTTL, 2*opts.CheckTTL),
		verified: cache.New(verifiedTTL, 2*verifiedTTL),
		compare:  bcrypt.CompareHashAndPassword,
		now:      time.Now,
	}
}

// Login exchanges credentials for an API token and stores a new session holding it.
// The returned cookie is ready to be set on the response.
func (m *Manager) Login(ctx context.Context, email, password string) (s Session, cookie *http.Cookie, err error) {
	var token string
	token, err = m.api.Login(ctx, email, password)
	if err != nil {
		return s, cookie, err
	}

	var (
		selector, verifier string
		hash               []byte
	)
	selector, verifier, hash, err = newCredentials(m.opts.BcryptCost)
	if err != nil {
		return s, cookie, err
	}

	now := m.now()
	s = Session{
		ID:           selector,
		VerifierHash: hash,
		Token:        token,
		Email:        email,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.opts.TTL),
	}
	if err = m.store.Create(ctx, s); err != nil {
		return s, cookie, err
	}

	log.Info().Str("session", selector).Str("email", email).Msg("operator signed in")
	cookie = m.cookie(CookieValue(selector, verifier), s.ExpiresAt)
	return s, cookie, err
}

// Resolve loads the session a cookie value points at. Expired sessions are deleted.
func (m *Manager) Resolve(ctx context.Context, value string) (s Session, err error) {
	var selector, verifier string
	selector, verifier, err = ParseCookie(value)
	if err != nil {
		return s, err
	}

	s, err = m.store.Get(ctx, selector)
	if err != nil {
		return s, err
	}

	if s.Expired(m.now()) {
		if derr := m.store.Delete(ctx, s.ID); derr != nil {
			log.Warn().Err(derr).Str("session", s.ID).Msg("failed to delete expired session")
		}
		err = ErrExpired
		return s, err
	}

	digest := verifierDigest(verifier)
	if known, found := m.verified.Get(s.ID); found && subtle.ConstantTimeCompare(known.([]byte), digest) == 1 {
		return s, err
	}
	if err = s.verify(verifier, m.compare); err != nil {
		return s, err
	}
	m.verified.SetDefault(s.ID, digest)
	return s, err
}

// Logout deletes the session behind value, if any, and returns a cookie that clears it.
func (m *Manager) Logout(ctx context.Context, value string) (cookie *http.Cookie, err error) {
	cookie = m.cookie("", time.Unix(0, 0))
	cookie.MaxAge = -1

	s, rerr := m.Resolve(ctx, value)
	if rerr != nil {
		return cookie, err
	}
	m.checks.Delete(s.ID)
	m.verified.Delete(s.ID)
	err = m.store.Delete(ctx, s.ID)
	if err == nil {
		log.Info().Str("session", s.ID).Msg("operator signed out")
	}
	return cookie, err
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// Sweep deletes expired sessions every interval until ctx is done.
func (m *Manager) Sweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := m.store.DeleteExpired(ctx, m.now())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				log.Error().Err(err).Msg("session sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("expired sessions swept")
			}
		}
	}
}

// Ctx returns ctx carrying the session's API token.
func (s Session) Ctx(ctx context.Context) context.Context {
	return apiclient.WithToken(ctx, s.Token)
}
