package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/store"
	"github.com/dukerupert/jotter/internal/websocket"
)

const (
	errFetchNotes = "Error fetching notes!"
	errAddNote    = "Error adding the note!"
	errFetchNote  = "Error fetching note!"
	errUpdateNote = "Error updating the note!"
	errDeleteNote = "Error deleting note!"
)

type NoteHandler struct {
	notes  *store.NoteStore
	users  *store.UserStore
	hub    *websocket.Hub
	render *Renderer
	logger *slog.Logger
}

func NewNoteHandler(ns *store.NoteStore, us *store.UserStore, hub *websocket.Hub, rd *Renderer, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		notes:  ns,
		users:  us,
		hub:    hub,
		render: rd,
		logger: logger,
	}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	user, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		// Session outlived its user.
		http.Redirect(w, r, "/logout", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.logger.Error("fetch user", "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errFetchNotes)
		return
	}

	notes, err := h.notes.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list notes", "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errFetchNotes)
		return
	}

	h.render.Render(w, http.StatusOK, pageNotes, pageData(r, map[string]any{
		"Username": user.Username,
		"Notes":    notes,
	}))
}

func (h *NoteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	note, err := h.notes.Create(r.Context(), userID, r.PostFormValue("note"))
	if err != nil {
		h.logger.Error("add note", "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errAddNote)
		return
	}

	h.hub.BroadcastTo(userID, websocket.NewMessage("note", "created", note.ID))
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

func (h *NoteHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.render.Error(w, r, http.StatusNotFound, errFetchNote)
		return
	}

	note, err := h.notes.GetForUser(r.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		h.logger.Warn("edit form for missing note", "note_id", id, "user_id", userID)
		h.render.Error(w, r, http.StatusNotFound, errFetchNote)
		return
	}
	if err != nil {
		h.logger.Error("fetch note", "note_id", id, "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errFetchNote)
		return
	}

	h.render.Render(w, http.StatusOK, pageEditNote, pageData(r, map[string]any{
		"Note": note,
	}))
}

// Edit saves new text for a note. Notes the caller does not own are left
// untouched and the caller is sent back to the list as if it had worked.
func (h *NoteHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.logger.Warn("edit with bad note id", "id", r.PathValue("id"), "user_id", userID)
		http.Redirect(w, r, "/notes", http.StatusSeeOther)
		return
	}

	err = h.notes.UpdateForUser(r.Context(), id, userID, r.PostFormValue("note"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.Warn("edit matched no note", "note_id", id, "user_id", userID)
	case err != nil:
		h.logger.Error("update note", "note_id", id, "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errUpdateNote)
		return
	default:
		h.hub.BroadcastTo(userID, websocket.NewMessage("note", "updated", id))
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

// Delete removes a note with the same no-op semantics as Edit.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.logger.Warn("delete with bad note id", "id", r.PathValue("id"), "user_id", userID)
		http.Redirect(w, r, "/notes", http.StatusSeeOther)
		return
	}

	err = h.notes.DeleteForUser(r.Context(), id, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.Warn("delete matched no note", "note_id", id, "user_id", userID)
	case err != nil:
		h.logger.Error("delete note", "note_id", id, "user_id", userID, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError, errDeleteNote)
		return
	default:
		h.hub.BroadcastTo(userID, websocket.NewMessage("note", "deleted", id))
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}
