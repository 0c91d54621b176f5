package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundchat/internal/collection"
	"github.com/desertthunder/soundchat/internal/formatter"
	"github.com/desertthunder/soundchat/internal/models"
	"github.com/go-chi/chi/v5"
)

// PlaylistHandler serves playlists, their tracks and their comments from a [collection.Store].
type PlaylistHandler struct {
	store  *collection.Store
	logger *log.Logger
}

// NewPlaylistHandler creates a [PlaylistHandler] backed by store.
func NewPlaylistHandler(store *collection.Store, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{store: store, logger: logger}
}

// Routes returns the collection endpoints.
func (h *PlaylistHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/playlists", h.listPlaylists},
		{http.MethodPost, "/api/playlists", h.createPlaylist},
		{http.MethodGet, "/api/playlists/{id}", h.getPlaylist},
		{http.MethodDelete, "/api/playlists/{id}", h.deletePlaylist},
		{http.MethodGet, "/api/playlists/{id}/export", h.exportPlaylist},
		{http.MethodPost, "/api/playlists/{id}/tracks", h.addTrack},
		{http.MethodDelete, "/api/playlists/{playlistId}/tracks/{trackId}", h.removeTrack},
		{http.MethodGet, "/api/playlists/{id}/comments", h.listComments},
		{http.MethodPost, "/api/playlists/{id}/comments", h.addComment},
		{http.MethodDelete, "/api/comments/{id}", h.removeComment},
	}
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

func (h *PlaylistHandler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListPlaylists())
}

func (h *PlaylistHandler) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var body createPlaylistRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err, "Failed to create playlist")
		return
	}

	p, err := h.store.CreatePlaylist(body.Name, body.Description, body.UserID)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create playlist")
		return
	}

	h.logger.Debug("playlist created", "id", p.ID, "owner", p.OwnerID)
	writeJSON(w, http.StatusOK, p)
}

func (h *PlaylistHandler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPlaylist(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get playlist")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlaylistHandler) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	h.store.DeletePlaylist(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, okBody)
}

func (h *PlaylistHandler) exportPlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to export playlist")
		return
	}

	p, comments, err := h.store.PlaylistWithComments(id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to export playlist")
		return
	}

	data, err := formatter.Export(format, p, comments)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to export playlist")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+formatter.Filename(p, format)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *PlaylistHandler) addTrack(w http.ResponseWriter, r *http.Request) {
	var body models.NewTrack
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err, "Failed to add track")
		return
	}

	track, err := h.store.AddTrack(chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to add track")
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (h *PlaylistHandler) removeTrack(w http.ResponseWriter, r *http.Request) {
	err := h.store.RemoveTrack(chi.URLParam(r, "playlistId"), chi.URLParam(r, "trackId"))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to remove track")
		return
	}
	writeJSON(w, http.StatusOK, okBody)
}

func (h *PlaylistHandler) listComments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListComments(chi.URLParam(r, "id")))
}

func (h *PlaylistHandler) addComment(w http.ResponseWriter, r *http.Request) {
	var body models.NewComment
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, err, "Failed to add comment")
		return
	}

	c, err := h.store.AddComment(chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to add comment")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *PlaylistHandler) removeComment(w http.ResponseWriter, r *http.Request) {
	h.store.RemoveComment(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, okBody)
}
