// Package session holds the server-side association between a browser and a
// signed-in user. Clients only ever see an opaque random token; backends
// index sessions by the token's blake2b digest.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"golang.org/x/crypto/blake2b"
)

const (
	CookieName = "jotter_session"
	tokenBytes = 32
)

// ErrNotFound is returned for unknown, deleted or expired tokens.
var ErrNotFound = errors.New("session not found")

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	// Create starts a new session for userID and returns it with Token set.
	Create(ctx context.Context, userID int64) (*model.Session, error)
	// Get resolves a raw token to its live session.
	Get(ctx context.Context, token string) (*model.Session, error)
	// Delete ends one session. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error
	// DeleteByUserID ends every session belonging to userID.
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpired removes expired sessions and reports how many went.
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewToken returns a fresh hex token and its digest.
func NewToken() (token, hash string, err error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = hex.EncodeToString(b)
	return token, Hash(token), nil
}

// Hash is the at-rest form of a token.
func Hash(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SetCookie hands the session token to the browser.
func SetCookie(w http.ResponseWriter, sess *model.Session, secure bool) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the raw session token, or "" when absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
