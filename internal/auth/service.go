package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aulaquiz/internal/auth/jwt"
)

// ErrBadCredentials is returned for a failed admin login.
var ErrBadCredentials = errors.New("auth: bad credentials")

// googleSubjectNamespace derives stable student ids from Google subjects, so
// a signed-in student keeps the same id (and medal collection) across games.
var googleSubjectNamespace = uuid.MustParse("5f0f6c5e-95a2-4f3b-9d08-13c7a2a1d9b4")

// Session is an issued token together with the identity it encodes.
type Session struct {
	Token   string `json:"token"`
	Subject string `json:"student_id"`
	Name    string `json:"name"`
	Guest   bool   `json:"guest"`
	Role    string `json:"role"`
}

// Service issues and validates session tokens for guests, Google users and
// the admin.
type Service struct {
	tokens    *jwt.Manager
	oauth     *OAuthService
	adminHash string
	logger    zerolog.Logger
}

func NewService(secret string, tokenTTL time.Duration, adminHash string, oauth *OAuthService, logger zerolog.Logger) *Service {
	return &Service{
		tokens:    jwt.NewManager([]byte(secret), tokenTTL),
		oauth:     oauth,
		adminHash: adminHash,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// GuestLogin issues a throwaway identity for an anonymous student.
func (s *Service) GuestLogin(name string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, fmt.Errorf("auth: guest name is empty")
	}

	subject := uuid.NewString()
	token, err := s.tokens.Generate(subject, name, RoleStudent, true)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info().Str("student_id", subject).Str("name", name).Msg("guest session issued")
	return Session{Token: token, Subject: subject, Name: name, Guest: true, Role: RoleStudent}, nil
}

// GoogleLogin finishes the OAuth flow and issues a stable identity.
func (s *Service) GoogleLogin(ctx context.Context, code string) (Session, error) {
	info, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return Session{}, err
	}

	subject := uuid.NewSHA1(googleSubjectNamespace, []byte(info.ProviderID)).String()
	name := info.Name
	if name == "" {
		name = info.Email
	}

	token, err := s.tokens.Generate(subject, name, RoleStudent, false)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info().Str("student_id", subject).Msg("google session issued")
	return Session{Token: token, Subject: subject, Name: name, Role: RoleStudent}, nil
}

// AdminLogin verifies the shared admin password and issues an admin token.
func (s *Service) AdminLogin(password string) (Session, error) {
	if err := VerifyPassword(s.adminHash, password); err != nil {
		return Session{}, ErrBadCredentials
	}

	token, err := s.tokens.Generate("admin", "Admin", RoleAdmin, false)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info().Msg("admin session issued")
	return Session{Token: token, Subject: "admin", Name: "Admin", Role: RoleAdmin}, nil
}

// ValidateToken parses a session token into the caller identity.
func (s *Service) ValidateToken(token string) (Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Subject: claims.Subject,
		Name:    claims.DisplayName,
		Role:    claims.Role,
		Guest:   claims.IsGuest,
	}, nil
}

// OAuthConfigured reports whether Google sign-in is available.
func (s *Service) OAuthConfigured() bool {
	return s.oauth.Configured()
}

// AuthURL proxies to the OAuth service for the login redirect handler.
func (s *Service) AuthURL(state string) (string, error) {
	return s.oauth.AuthURL(state)
}
