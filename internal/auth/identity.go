package auth

import "context"

// Roles assigned to session tokens.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Identity is the authenticated caller as seen by handlers. Subject is the
// opaque studentID used throughout the game documents; for guests it is a
// per-session id, for Google users it is stable across sessions.
type Identity struct {
	Subject string
	Name    string
	Role    string
	Guest   bool
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type identityKey struct{}

// IntoContext attaches the identity to the request context.
func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity set by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
