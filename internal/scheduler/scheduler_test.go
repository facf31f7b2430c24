package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddTableStats_InvalidSpec(t *testing.T) {
	s := New(quietLogger())
	_, err := s.AddTableStats("every now and then", RefresherFunc(func(context.Context) error { return nil }))
	require.Error(t, err)
	assert.Empty(t, s.Entries())
}

func TestAddTableStats_Runs(t *testing.T) {
	s := New(quietLogger())
	var calls atomic.Int32
	_, err := s.AddTableStats("@every 1s", RefresherFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		if calls.Add(1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	}))
	require.NoError(t, err)
	require.Len(t, s.Entries(), 1)

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}
