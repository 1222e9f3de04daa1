package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/jotter/internal/session"
	"github.com/dukerupert/jotter/internal/store"
	"github.com/dukerupert/jotter/internal/websocket"
)

const (
	errSignup      = "An error occurred during signup"
	errInvalidCred = "Invalid username or password"
)

type AuthHandler struct {
	users    *store.UserStore
	sessions session.Store
	hub      *websocket.Hub
	render   *Renderer
	secure   bool
	logger   *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ss session.Store,
	hub *websocket.Hub,
	rd *Renderer,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:    us,
		sessions: ss,
		hub:      hub,
		render:   rd,
		secure:   secureCookies,
		logger:   logger,
	}
}

// Landing shows the login form, or the signup form with ?signup=true.
func (h *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, pageIndex, pageData(r, map[string]any{
		"ShowSignup": r.URL.Query().Get("signup") == "true",
	}))
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form, err := parseCredentials(r)
	if err != nil {
		h.logger.Info("signup rejected", "error", err)
		h.signupFailed(w, r)
		return
	}

	user, err := h.users.Create(r.Context(), form.Username, form.Password)
	if errors.Is(err, store.ErrUsernameTaken) {
		h.logger.Warn("signup with taken username", "username", form.Username)
		h.signupFailed(w, r)
		return
	}
	if err != nil {
		h.logger.Error("signup", "error", err)
		h.signupFailed(w, r)
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.logger.Error("signup session", "user_id", user.ID, "error", err)
		h.signupFailed(w, r)
		return
	}
	h.logger.Info("user signed up", "user_id", user.ID)
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := parseCredentials(r)
	if err != nil {
		h.loginFailed(w, r)
		return
	}

	user, err := h.users.GetByCredentials(r.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("login lookup", "error", err)
		}
		h.loginFailed(w, r)
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.logger.Error("login session", "user_id", user.ID, "error", err)
		h.loginFailed(w, r)
		return
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

// Logout ends the current session if there is one. It never fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(r)
	session.ClearCookie(w, h.secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// endSession deletes the request's session and closes the live-update
// sockets opened under it. Failures are logged, never returned.
func (h *AuthHandler) endSession(r *http.Request) {
	token := session.TokenFromRequest(r)
	if token == "" {
		return
	}
	ctx := r.Context()

	sess, err := h.sessions.Get(ctx, token)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		h.logger.Warn("end session lookup", "error", err)
	}
	if err := h.sessions.Delete(ctx, token); err != nil {
		h.logger.Warn("end session", "error", err)
	}
	if sess != nil {
		h.hub.DisconnectSession(sess.UserID, session.Hash(token))
	}
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	// Drop any session this browser already held.
	h.endSession(r)
	sess, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		return err
	}
	session.SetCookie(w, sess, h.secure)
	return nil
}

func (h *AuthHandler) signupFailed(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, pageIndex, pageData(r, map[string]any{
		"ShowSignup": true,
		"Error":      errSignup,
	}))
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, pageIndex, pageData(r, map[string]any{
		"Error":       errInvalidCred,
		"LoginFailed": true,
	}))
}
