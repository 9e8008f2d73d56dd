package server

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Identity is what the external session provider resolves a credential to.
// Warden never authenticates credentials itself.
type Identity struct {
	UserID   snowflake.ID
	TenantID snowflake.ID
	Role     string
	APIKey   string
}

// SessionAuthenticator is implemented by the platform's session/auth
// service.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// RolePredicate answers whether an identity holds a role. The full
// role/permission matrix lives outside this core.
type RolePredicate func(identity *Identity, role string) bool

// DefaultRolePredicate matches the identity's role exactly.
func DefaultRolePredicate(identity *Identity, role string) bool {
	return identity != nil && identity.Role == role
}
