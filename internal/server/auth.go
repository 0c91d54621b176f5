package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
)

// UserStore persists users who complete the authorization flow.
type UserStore interface {
	Upsert(user *models.User) error
}

// AuthHandler implements the two-step authorization-code flow for browser clients.
//
// The login step hands out the provider's consent URL; the callback step exchanges the code the client received,
// records the user and returns the user's access token. No session is kept server side.
type AuthHandler struct {
	auth   services.Authorizer
	users  UserStore
	logger *log.Logger
}

// NewAuthHandler creates an [AuthHandler].
func NewAuthHandler(auth services.Authorizer, users UserStore, logger *log.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: logger}
}

// Routes returns the auth endpoints.
func (h *AuthHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/auth/login", h.login},
		{http.MethodPost, "/auth/callback", h.callback},
	}
}

type loginResponse struct {
	AuthURL string `json:"authURL"`
}

type callbackRequest struct {
	Code string `json:"code"`
}

type callbackResponse struct {
	User        models.Profile `json:"user"`
	AccessToken string         `json:"access_token"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	authURL := h.auth.AuthURL(shared.GenerateID())
	if authURL == "" {
		writeError(w, r, h.logger, shared.ErrServiceUnavailable, "Authentication unavailable")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AuthURL: authURL})
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	var body callbackRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err), "Authentication failed")
		return
	}

	user, token, err := h.authorize(r, body.Code)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err), "Authentication failed")
		return
	}

	h.logger.Info("user signed in", "user", user.ProviderID(), "sequence", user.Sequence())
	writeJSON(w, http.StatusOK, callbackResponse{User: user.Profile(), AccessToken: token})
}

func (h *AuthHandler) authorize(r *http.Request, code string) (*models.User, string, error) {
	token, err := h.auth.Exchange(r.Context(), code)
	if err != nil {
		return nil, "", err
	}

	profile, err := h.auth.UserProfile(r.Context(), token)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch profile: %w", err)
	}

	user := models.NewUser(0, profile.ID, profile.DisplayName, profile.Email)
	user.SetTokens(token.AccessToken, token.RefreshToken)
	if err := h.users.Upsert(user); err != nil {
		return nil, "", fmt.Errorf("failed to store user: %w", err)
	}

	return user, token.AccessToken, nil
}
