package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/content"
)

type fakeAPI struct {
	mu       sync.Mutex
	token    string
	loginErr error
	user     content.User
	meErr    error
	meCalls  int
	seenTok  string
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeAPI) Me(ctx context.Context) (content.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	f.seenTok = apiclient.TokenFrom(ctx)
	return f.user, f.meErr
}

func newTestManager(t *testing.T, api *fakeAPI) (*Manager, *GormStore) {
	t.Helper()
	store, err := OpenGorm(filepath.Join(t.TempDir(), "sessions", "admin.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	m := NewManager(store, api, Options{TTL: time.Hour, BcryptCost: bcrypt.MinCost, CheckTTL: time.Minute})
	return m, store
}

func TestLoginAndResolve(t *testing.T) {
	api := &fakeAPI{token: "opaque-token"}
	m, _ := newTestManager(t, api)
	ctx := context.Background()

	s, cookie, err := m.Login(ctx, "me@example.com", "pw")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
	if cookie.Name != CookieName || !cookie.HttpOnly {
		t.Errorf("Unexpected cookie %+v", cookie)
	}
	if string(s.VerifierHash) == "" || s.Token != "opaque-token" {
		t.Errorf("Unexpected session %+v", s)
	}

	got, err := m.Resolve(ctx, cookie.Value)
	if err != nil {
		t.Fatalf("Failed to resolve session: %v", err)
	}
	if got.ID != s.ID || got.Email != "me@example.com" {
		t.Errorf("Expected session %s, got %+v", s.ID, got)
	}

	selector, _, _ := ParseCookie(cookie.Value)
	if _, err = m.Resolve(ctx, CookieValue(selector, "forged")); !errors.Is(err, ErrWrongVerifier) {
		t.Errorf("Expected ErrWrongVerifier, got %v", err)
	}
	if _, err = m.Resolve(ctx, "garbage"); !errors.Is(err, ErrBadCookie) {
		t.Errorf("Expected ErrBadCookie, got %v", err)
	}
}

func TestResolveRemembersVerifiedCookie(t *testing.T) {
	m, _ := newTestManager(t, &fakeAPI{token: "opaque-token"})
	ctx := context.Background()

	compares := 0
	m.compare = func(hash, password []byte) error {
		compares++
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	s, cookie, err := m.Login(ctx, "me@example.com", "pw")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err = m.Resolve(ctx, cookie.Value); err != nil {
			t.Fatalf("Failed to resolve session: %v", err)
		}
	}
	if compares != 1 {
		t.Errorf("Expected one bcrypt compare, got %d", compares)
	}

	selector, _, _ := ParseCookie(cookie.Value)
	if _, err = m.Resolve(ctx, CookieValue(selector, "forged")); !errors.Is(err, ErrWrongVerifier) {
		t.Errorf("Expected ErrWrongVerifier for a forged verifier after a cached verify, got %v", err)
	}
	if compares != 2 {
		t.Errorf("Expected forged verifier to go through bcrypt, got %d compares", compares)
	}

	m.End(ctx, s, "test")
	if _, err = m.Resolve(ctx, cookie.Value); err == nil {
		t.Error("Expected ended session not to resolve")
	}
}

func TestLoginRejected(t *testing.T) {
	api := &fakeAPI{loginErr: &apiclient.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}}
	m, _ := newTestManager(t, api)

	if _, _, err := m.Login(context.Background(), "me@example.com", "bad"); !apiclient.IsUnauthorized(err) {
		t.Errorf("Expected unauthorized error, got %v", err)
	}
}

func TestExpiredSessionIsDeleted(t *testing.T) {
	api := &fakeAPI{token: "t"}
	m, store := newTestManager(t, api)
	ctx := context.Background()

	s, cookie, err := m.Login(ctx, "me@example.com", "pw")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err = m.Resolve(ctx, cookie.Value); !errors.Is(err, ErrExpired) {
		t.Errorf("Expected ErrExpired, got %v", err)
	}
	if _, err = store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected expired session to be deleted, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	_, store := newTestManager(t, &fakeAPI{})
	ctx := context.Background()
	now := time.Now()

	for i, exp := range []time.Time{now.Add(-time.Minute), now.Add(-time.Hour), now.Add(time.Hour)} {
		s := Session{ID: []string{"a", "b", "c"}[i], VerifierHash: []byte("x"), Token: "t", ExpiresAt: exp}
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	n, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("Failed to sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 expired sessions deleted, got %d", n)
	}
	if _, err = store.Get(ctx, "c"); err != nil {
		t.Errorf("Expected live session to remain, got %v", err)
	}
}

func TestCheckAuthenticatesAndCaches(t *testing.T) {
	api := &fakeAPI{token: "t1", user: content.User{ID: "1"}}
	m, _ := newTestManager(t, api)
	ctx := context.Background()

	s, _, err := m.Login(ctx, "me@example.com", "pw")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}

	status := m.Check(ctx, s)
	if status.State != Authenticated {
		t.Fatalf("Expected authenticated, got %s", status.State)
	}
	if status.User.Display() != "me@example.com" {
		t.Errorf("Expected user to fall back to login email, got %q", status.User.Display())
	}
	if api.seenTok != "t1" {
		t.Errorf("Expected /auth/me to carry the session token, got %q", api.seenTok)
	}

	m.Check(ctx, s)
	if api.meCalls != 1 {
		t.Errorf("Expected one /auth/me call, got %d", api.meCalls)
	}
}

func TestCheckFailures(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	tests := []struct {
		name        string
		token       string
		meErr       error
		wantCalls   int
		wantDeleted bool
	}{
		{"expired jwt", expiredToken, nil, 0, true},
		{"rejected token", "t", &apiclient.Error{Status: http.StatusUnauthorized}, 1, true},
		{"api unreachable", "t", errors.New("connection refused"), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{token: tt.token, meErr: tt.meErr}
			m, store := newTestManager(t, api)
			ctx := context.Background()

			s, _, err := m.Login(ctx, "me@example.com", "pw")
			if err != nil {
				t.Fatalf("Failed to log in: %v", err)
			}

			if status := m.Check(ctx, s); status.State != Unauthenticated {
				t.Errorf("Expected unauthenticated, got %s", status.State)
			}
			if api.meCalls != tt.wantCalls {
				t.Errorf("Expected %d /auth/me calls, got %d", tt.wantCalls, api.meCalls)
			}
			_, err = store.Get(ctx, s.ID)
			if deleted := errors.Is(err, ErrNotFound); deleted != tt.wantDeleted {
				t.Errorf("Expected deleted=%v, got %v (%v)", tt.wantDeleted, deleted, err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	api := &fakeAPI{token: "t1", user: content.User{ID: "1", Email: "me@example.com"}}
	m, _ := newTestManager(t, api)

	var seen Current
	var seenToken string
	handler := m.Middleware("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		seenToken = apiclient.TokenFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("Expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}

	_, cookie, err := m.Login(context.Background(), "me@example.com", "pw")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if seen.User.Email != "me@example.com" || seenToken != "t1" {
		t.Errorf("Expected session on context, got %+v token %q", seen, seenToken)
	}
}

func TestLogout(t *testing.T) {
	api := &fakeAPI{token: "t"}
	m, store := newTestManager(t, api)
	ctx := context.Background()

	s, cookie, err := m.Login(ctx, "me@example.com", "pw")
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}

	cleared, err := m.Logout(ctx, cookie.Value)
	if err != nil {
		t.Fatalf("Failed to log out: %v", err)
	}
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("Expected clearing cookie, got %+v", cleared)
	}
	if _, err = store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected session deleted, got %v", err)
	}

	if _, err = m.Logout(ctx, "garbage"); err != nil {
		t.Errorf("Expected logout without a session to succeed, got %v", err)
	}
}
