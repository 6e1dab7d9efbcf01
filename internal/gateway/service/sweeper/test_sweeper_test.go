package sweeper

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingassist/internal/gateway/entity"
	conversationrepo "listingassist/internal/gateway/repository/conversation"
)

var quiet = log.New(io.Discard, "", 0)

type failingStore struct{}

func (failingStore) AbandonIdle(context.Context, time.Time) (int, error) {
	return 0, errors.New("db down")
}

func TestSweeper_SweepOnce(t *testing.T) {
	store := conversationrepo.NewMemoryStore()
	ctx := context.Background()
	conv, err := store.Create(ctx, entity.NormalizeUserID("u1"), "en")
	require.NoError(t, err)

	s, err := New(store, time.Hour, "", quiet)
	require.NoError(t, err)

	n, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAbandoned, got.Status)

	n, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweeper_Errors(t *testing.T) {
	_, err := New(nil, time.Hour, "", quiet)
	assert.Error(t, err)

	_, err = New(failingStore{}, time.Hour, "not a schedule", quiet)
	assert.Error(t, err)

	s, err := New(failingStore{}, 0, "*/10 * * * *", quiet)
	require.NoError(t, err)
	assert.Equal(t, DefaultIdle, s.idle)
	_, err = s.SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	s, err := New(conversationrepo.NewMemoryStore(), time.Hour, "@every 1h", quiet)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
