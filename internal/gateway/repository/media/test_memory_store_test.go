package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	url, err := s.Put(ctx, "c1", "/audio/a.webm", []byte("abc"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "memory://c1/audio/a.webm", url)

	got, err := s.Get(ctx, "c1", "audio/a.webm")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	_, err = s.Get(ctx, "c1", "audio/missing.webm")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Validation(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Put(context.Background(), " ", "a", nil, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Put(context.Background(), "c1", "", nil, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Get(context.Background(), "c1", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestS3Config_CanUse(t *testing.T) {
	assert.False(t, S3Config{Endpoint: "localhost:9000"}.CanUse())
	assert.True(t, S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "media"}.CanUse())

	_, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)
}
