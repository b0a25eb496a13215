package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "aulaquiz/pkg/http/errors"
)

const stateCookie = "oauth_state"

// Handlers exposes the login endpoints.
type Handlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandlers(svc *Service, logger zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// GuestLogin issues a guest session. Body: {"name": "..."}.
func (h *Handlers) GuestLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	session, err := h.svc.GuestLogin(req.Name)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGuestCreationFailed, "Could not create guest session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// AdminLogin exchanges the shared admin password for an admin token.
// Body: {"password": "..."}.
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	session, err := h.svc.AdminLogin(req.Password)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Wrong password")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// GoogleRedirect sends the browser to the Google consent page.
func (h *Handlers) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		httperrors.RespondInternalError(w, httperrors.ErrCodeOAuthStartFailed, "Could not start sign-in")
		return
	}

	url, err := h.svc.AuthURL(state)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthNotConfigured, "Google sign-in is not configured")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback finishes the OAuth flow and returns a session token.
func (h *Handlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthInvalidState, "State mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthMissingCode, "Missing authorization code")
		return
	}

	session, err := h.svc.GoogleLogin(r.Context(), code)
	if err != nil {
		h.logger.Warn().Err(err).Msg("google login failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeOAuthCallbackFailed, "Google sign-in failed")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
