package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/jotter/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	token, hash, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, Hash(token))
}

func TestHashIsStable(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
}

func TestCookieRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, &model.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.InDelta(t, 3600, c.MaxAge, 5)

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.AddCookie(c)
	assert.Equal(t, "tok", TokenFromRequest(req))
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestTokenFromRequestMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(req))
}
