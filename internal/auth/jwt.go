package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRememberTTL = 30 * 24 * time.Hour

	revokedKeyPrefix = "token:revoked:"
)

type TokenManager struct {
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
	redis       *redis.Client
	now         func() time.Time
}

// Claims carries the user id and name plus the remember-me flag so a
// refresh can keep the original lifetime class.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	Role     string `json:"role,omitempty"`
	Remember bool   `json:"rem,omitempty"`
	jwt.RegisteredClaims
}

// Issued is a signed token and its lifetime.
type Issued struct {
	Token     string
	ExpiresAt time.Time
	TTL       time.Duration
}

func NewTokenManager(secret []byte) *TokenManager {
	return &TokenManager{
		secret:      secret,
		sessionTTL:  DefaultSessionTTL,
		rememberTTL: DefaultRememberTTL,
		now:         time.Now,
	}
}

// SetTTLs overrides the short (session) and long (remember-me) lifetimes.
func (m *TokenManager) SetTTLs(session, remember time.Duration) {
	if session > 0 {
		m.sessionTTL = session
	}
	if remember > 0 {
		m.rememberTTL = remember
	}
}

// SetRedis sets the Redis client for token revocation.
func (m *TokenManager) SetRedis(rdb *redis.Client) {
	m.redis = rdb
}

func (m *TokenManager) TTL(remember bool) time.Duration {
	if remember {
		return m.rememberTTL
	}
	return m.sessionTTL
}

// Issue signs a token for user. Registration and remember-me logins get the
// long lifetime.
func (m *TokenManager) Issue(user User, remember bool) (Issued, error) {
	now := m.now().UTC()
	ttl := m.TTL(remember)
	exp := now.Add(ttl)
	claims := Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		Role:     string(user.Role),
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: signed, ExpiresAt: exp, TTL: ttl}, nil
}

// Parse validates signature, expiry and revocation.
func (m *TokenManager) Parse(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	if claims.UserID == "" || claims.Username == "" || claims.ExpiresAt == nil {
		return nil, ErrUnauthorized
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrUnauthorized
	}

	if m.redis != nil && claims.ID != "" {
		n, err := m.redis.Exists(ctx, revokedKeyPrefix+claims.ID).Result()
		if err == nil && n > 0 {
			return nil, ErrRevoked
		}
	}
	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway. Without
// Redis it is a no-op and tokens expire naturally.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.redis == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	remaining := claims.ExpiresAt.Time.Sub(m.now())
	if remaining <= 0 {
		return nil
	}
	if err := m.redis.Set(ctx, revokedKeyPrefix+claims.ID, "1", remaining).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Refresh re-issues a token for user keeping the remember-me class of the
// presented claims, then revokes the old one.
func (m *TokenManager) Refresh(ctx context.Context, claims *Claims, user User) (Issued, error) {
	if claims == nil {
		return Issued{}, ErrUnauthorized
	}
	issued, err := m.Issue(user, claims.Remember)
	if err != nil {
		return Issued{}, err
	}
	if err := m.Revoke(ctx, claims); err != nil {
		return Issued{}, err
	}
	return issued, nil
}

func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

func RandomToken(nBytes int) (string, error) {
	b, err := RandomBytes(nBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
