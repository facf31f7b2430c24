package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"inquill/internal/auth"
	"inquill/internal/db/sqlc"
	"inquill/internal/policy"
	"inquill/internal/repository"
	"inquill/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *repository.Store, username string, role policy.Role) auth.User {
	t.Helper()
	u, err := store.Q.CreateUser(context.Background(), sqlc.CreateUserParams{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@inquill.test",
		PasswordHash: "x",
		Role:         string(role),
		Status:       service.UserStatusActive,
	})
	require.NoError(t, err)
	return auth.User{ID: u.ID, Username: u.Username, Email: u.Email, Role: role}
}

// requireStatus asserts err is a service error with the given HTTP status.
func requireStatus(t *testing.T, err error, status int) *service.Error {
	t.Helper()
	require.Error(t, err)
	se, ok := service.AsError(err)
	require.True(t, ok, "expected service error, got %v", err)
	require.Equal(t, status, se.Status, se.Message)
	return se
}

type fakeImages struct {
	mu     sync.Mutex
	keys   []string
	failOn string
}

func (f *fakeImages) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.Contains(key, f.failOn) {
		return "", errors.New("storage down")
	}
	f.keys = append(f.keys, key)
	return "https://cdn.inquill.test/" + key, nil
}

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func ptr[T any](v T) *T { return &v }
