package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUserInfo is the profile returned by Google after a code exchange.
type GoogleUserInfo struct {
	ProviderID string
	Email      string
	Name       string
	Picture    string
}

// OAuthService runs the Google authorization-code flow for student sign-in.
type OAuthService struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewOAuthService(clientID, clientSecret, redirectURL string, logger zerolog.Logger) *OAuthService {
	return &OAuthService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether Google credentials were provided. Guest login
// works either way.
func (s *OAuthService) Configured() bool {
	return s != nil && s.config.ClientID != ""
}

// AuthURL returns the Google consent page URL carrying the CSRF state.
func (s *OAuthService) AuthURL(state string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("google oauth not configured")
	}
	return s.config.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for the user's Google profile.
func (s *OAuthService) Exchange(ctx context.Context, code string) (*GoogleUserInfo, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("google oauth not configured")
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Msg("oauth code exchange failed")
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info API returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("user info missing provider id")
	}

	return &GoogleUserInfo{
		ProviderID: payload.ID,
		Email:      payload.Email,
		Name:       payload.Name,
		Picture:    payload.Picture,
	}, nil
}
