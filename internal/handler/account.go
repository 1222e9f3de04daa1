package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/session"
	"github.com/dukerupert/jotter/internal/store"
	"github.com/dukerupert/jotter/internal/websocket"
)

const (
	errFetchAccount   = "Error fetching account!"
	errChangeUsername = "Error changing username!"
	errChangePassword = "Error changing password!"
	errDeleteAccount  = "Error deleting account!"
)

type AccountHandler struct {
	users    *store.UserStore
	accounts *store.AccountStore
	sessions session.Store
	hub      *websocket.Hub
	render   *Renderer
	secure   bool
	logger   *slog.Logger
}

func NewAccountHandler(
	us *store.UserStore,
	as *store.AccountStore,
	ss session.Store,
	hub *websocket.Hub,
	rd *Renderer,
	secureCookies bool,
	logger *slog.Logger,
) *AccountHandler {
	return &AccountHandler{
		users:    us,
		accounts: as,
		sessions: ss,
		hub:      hub,
		render:   rd,
		secure:   secureCookies,
		logger:   logger,
	}
}

func (h *AccountHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.renderSettings(w, r, "")
}

// ChangeUsername renames the signed-in user. The current password is not
// asked for.
func (h *AccountHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	form := usernameForm{NewUsername: r.PostFormValue("newUsername")}
	if err := validate.Struct(form); err != nil {
		h.logger.Info("username change rejected", "user_id", userID, "error", err)
		h.renderSettings(w, r, errChangeUsername)
		return
	}

	err := h.users.UpdateUsername(r.Context(), userID, form.NewUsername)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			h.logger.Warn("username change to taken name", "user_id", userID)
		} else {
			h.logger.Error("change username", "user_id", userID, "error", err)
		}
		h.renderSettings(w, r, errChangeUsername)
		return
	}
	http.Redirect(w, r, "/account-settings", http.StatusSeeOther)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	form := passwordForm{NewPassword: r.PostFormValue("newPassword")}
	if err := validate.Struct(form); err != nil {
		h.logger.Info("password change rejected", "user_id", userID, "error", err)
		h.renderSettings(w, r, errChangePassword)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), userID, form.NewPassword); err != nil {
		h.logger.Error("change password", "user_id", userID, "error", err)
		h.renderSettings(w, r, errChangePassword)
		return
	}
	http.Redirect(w, r, "/account-settings", http.StatusSeeOther)
}

// DeleteAccount removes the user and their notes, then signs out every
// browser the user had open.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	err := h.accounts.Delete(r.Context(), userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("delete account", "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errDeleteAccount)
		return
	}

	if err := h.sessions.DeleteByUserID(r.Context(), userID); err != nil {
		h.logger.Error("delete account sessions", "user_id", userID, "error", err)
	}
	h.hub.Disconnect(userID)
	session.ClearCookie(w, h.secure)

	h.logger.Info("account deleted", "user_id", userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AccountHandler) renderSettings(w http.ResponseWriter, r *http.Request, errMsg string) {
	userID := auth.UserID(r.Context())

	user, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.logger.Error("fetch account", "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errFetchAccount)
		return
	}

	h.render.Render(w, http.StatusOK, pageAccountSettings, pageData(r, map[string]any{
		"User":  user,
		"Error": errMsg,
	}))
}
