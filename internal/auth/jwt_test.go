package auth_test

import (
	"context"
	"testing"
	"time"

	"inquill/internal/auth"
	"inquill/internal/policy"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() auth.User {
	return auth.User{ID: uuid.New(), Username: "alice", Role: policy.RoleWriter}
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := auth.NewTokenManager([]byte("secret"))
	u := testUser()

	issued, err := m.Issue(u, false)
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultSessionTTL, issued.TTL)

	claims, err := m.Parse(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "writer", claims.Role)
	assert.False(t, claims.Remember)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RememberMeGetsLongTTL(t *testing.T) {
	m := auth.NewTokenManager([]byte("secret"))
	issued, err := m.Issue(testUser(), true)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, issued.TTL)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), issued.ExpiresAt, time.Minute)

	claims, err := m.Parse(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.True(t, claims.Remember)
}

func TestTokenManager_Parse_Rejections(t *testing.T) {
	ctx := context.Background()
	m := auth.NewTokenManager([]byte("secret1"))

	_, err := m.Parse(ctx, "")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	other := auth.NewTokenManager([]byte("secret2"))
	issued, err := other.Issue(testUser(), false)
	require.NoError(t, err)
	_, err = m.Parse(ctx, issued.Token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	claims := auth.Claims{UserID: uuid.NewString(), Username: "alice"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret1"))
	require.NoError(t, err)
	_, err = m.Parse(ctx, signed)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestTokenManager_Parse_Expired(t *testing.T) {
	m := auth.NewTokenManager([]byte("secret"))
	m.SetTTLs(time.Millisecond, 0)
	issued, err := m.Issue(testUser(), false)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = m.Parse(context.Background(), issued.Token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestTokenManager_RevokeAndRefresh(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	m := auth.NewTokenManager([]byte("secret"))
	m.SetRedis(rdb)
	u := testUser()

	issued, err := m.Issue(u, true)
	require.NoError(t, err)
	claims, err := m.Parse(ctx, issued.Token)
	require.NoError(t, err)

	refreshed, err := m.Refresh(ctx, claims, u)
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultRememberTTL, refreshed.TTL)

	_, err = m.Parse(ctx, issued.Token)
	assert.ErrorIs(t, err, auth.ErrRevoked)

	ttl := mr.TTL("token:revoked:" + claims.ID)
	assert.Greater(t, ttl, 29*24*time.Hour)

	_, err = m.Parse(ctx, refreshed.Token)
	assert.NoError(t, err)
}

func TestTokenManager_RevokeWithoutRedisIsNoop(t *testing.T) {
	m := auth.NewTokenManager([]byte("secret"))
	issued, err := m.Issue(testUser(), false)
	require.NoError(t, err)
	claims, err := m.Parse(context.Background(), issued.Token)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(context.Background(), claims))
	_, err = m.Parse(context.Background(), issued.Token)
	assert.NoError(t, err)
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.NoError(t, auth.CheckPassword(hash, "Secret123"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "secret123"), auth.ErrPasswordMismatch)
}

func TestContext_UserRoundTrip(t *testing.T) {
	_, err := auth.RequireUser(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	u := testUser()
	ctx := auth.WithUser(context.Background(), u)
	got, err := auth.RequireUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.Equal(t, policy.Actor{ID: u.ID.String(), Role: policy.RoleWriter}, got.Actor())
}
