package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"inquill/internal/db/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_DoesNotConnect(t *testing.T) {
	db, err := Open("postgres://nobody@127.0.0.1:1/none?sslmode=disable")
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 20, db.Stats().MaxOpenConnections)
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, entries, "00001_init.sql")
}

func TestMigrate_WrapsGooseError(t *testing.T) {
	prev := gooseUp
	defer func() { gooseUp = prev }()

	sentinel := errors.New("boom")
	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return sentinel
	}
	err := Migrate(context.Background(), nil)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, ".", gotDir)
}
