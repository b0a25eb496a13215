package auth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("classroom-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	oauth := NewOAuthService("", "", "", zerolog.Nop())
	return NewService("test-signing-secret", time.Hour, string(hash), oauth, zerolog.Nop())
}

func TestGuestLogin(t *testing.T) {
	svc := newTestService(t)

	session, err := svc.GuestLogin("Ana")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.Subject)
	assert.True(t, session.Guest)
	assert.Equal(t, RoleStudent, session.Role)

	id, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Subject, id.Subject)
	assert.Equal(t, "Ana", id.Name)
	assert.True(t, id.Guest)
	assert.False(t, id.IsAdmin())
}

func TestGuestLoginRequiresName(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GuestLogin("   ")
	assert.Error(t, err)
}

func TestGuestSubjectsAreUnique(t *testing.T) {
	svc := newTestService(t)

	a, err := svc.GuestLogin("Ana")
	require.NoError(t, err)
	b, err := svc.GuestLogin("Ana")
	require.NoError(t, err)

	assert.NotEqual(t, a.Subject, b.Subject)
}

func TestAdminLogin(t *testing.T) {
	svc := newTestService(t)

	session, err := svc.AdminLogin("classroom-secret")
	require.NoError(t, err)

	id, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
	assert.False(t, id.Guest)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AdminLogin("nope")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newTestService(t)
	other := NewService("different-secret", time.Hour, "", nil, zerolog.Nop())

	session, err := other.GuestLogin("Ana")
	require.NoError(t, err)

	_, err = svc.ValidateToken(session.Token)
	assert.Error(t, err)
}
