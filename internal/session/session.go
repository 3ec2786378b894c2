// Package session keeps the operator signed in. The API token from /auth/login never
// reaches the browser; the browser holds a selector.verifier cookie pointing at a stored
// Session, and only a bcrypt hash of the verifier is stored.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the cookie holding selector.verifier.
const CookieName = "portfolio_admin_session"

var (
	ErrNotFound      = errors.New("session not found")
	ErrExpired       = errors.New("session expired")
	ErrBadCookie     = errors.New("malformed session cookie")
	ErrWrongVerifier = errors.New("session verifier mismatch")
)

// Session is one signed-in browser.
type Session struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	VerifierHash []byte    `gorm:"not null" json:"verifier_hash"`
	Token        string    `gorm:"not null" json:"token"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `gorm:"index" json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. GormStore and RedisStore implement it.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions expired at now and reports how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Close() error
}

// newCredentials returns a fresh selector, its verifier and the verifier's hash.
func newCredentials(cost int) (selector, verifier string, hash []byte, err error) {
	selector = uuid.NewString()

	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		err = errors.Wrap(err, "failed to generate verifier")
		return selector, verifier, hash, err
	}
	verifier = base64.RawURLEncoding.EncodeToString(raw)

	hash, err = bcrypt.GenerateFromPassword([]byte(verifier), cost)
	if err != nil {
		err = errors.Wrap(err, "failed to hash verifier")
		return selector, verifier, hash, err
	}
	return selector, verifier, hash, err
}

// CookieValue joins selector and verifier.
func CookieValue(selector, verifier string) string {
	return selector + "." + verifier
}

// ParseCookie splits a cookie value into selector and verifier.
func ParseCookie(value string) (selector, verifier string, err error) {
	selector, verifier, ok := strings.Cut(value, ".")
	if !ok || selector == "" || verifier == "" {
		return "", "", ErrBadCookie
	}
	if _, perr := uuid.Parse(selector); perr != nil {
		return "", "", ErrBadCookie
	}
	return selector, verifier, nil
}

// verify checks verifier against the stored hash.
func (s Session) verify(verifier string, compare func(hash, password []byte) error) error {
	if err := compare(s.VerifierHash, []byte(verifier)); err != nil {
		return ErrWrongVerifier
	}
	return nil
}

// verifierDigest is what a verified cookie is remembered by, so repeat requests skip bcrypt.
func verifierDigest(verifier string) []byte {
	sum := sha256.Sum256([]byte(verifier))
	return sum[:]
}
