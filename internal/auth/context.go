package auth

import (
	"context"
	"errors"

	"inquill/internal/policy"

	"github.com/google/uuid"
)

// User is the authenticated principal attached to a request. Role reflects
// the stored user at request time, not the value baked into the token.
type User struct {
	ID       uuid.UUID
	Username string
	Email    string
	Role     policy.Role
}

// Actor adapts the user for policy checks.
func (u User) Actor() policy.Actor {
	return policy.Actor{ID: u.ID.String(), Role: u.Role}
}

type contextKey int

const (
	userContextKey contextKey = iota + 1
	claimsContextKey
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRevoked      = errors.New("token revoked")
)

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey).(User)
	return user, ok
}

func RequireUser(ctx context.Context) (User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return User{}, ErrUnauthorized
	}
	return user, nil
}

// WithClaims keeps the parsed token so logout and refresh can act on it.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}
