package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundchat/internal/services"
	"github.com/go-chi/chi/v5"
)

// CatalogHandler proxies catalog reads to a [services.Catalog].
type CatalogHandler struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewCatalogHandler creates a [CatalogHandler].
func NewCatalogHandler(catalog services.Catalog, logger *log.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// Routes returns the catalog endpoints.
func (h *CatalogHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/search/artists", h.searchArtists},
		{http.MethodGet, "/api/artist/{id}/albums", h.artistAlbums},
		{http.MethodGet, "/api/album/{id}/tracks", h.albumTracks},
	}
}

func (h *CatalogHandler) searchArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.catalog.SearchArtists(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to search artists")
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (h *CatalogHandler) artistAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.catalog.ArtistAlbums(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get artist albums")
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *CatalogHandler) albumTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalog.AlbumTracks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get album tracks")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}
