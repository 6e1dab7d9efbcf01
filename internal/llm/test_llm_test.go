package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted_DefaultAndExhaustion(t *testing.T) {
	s := NewScriptedClient()
	_, err := s.Generate(context.Background(), "p", Options{})
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindMalformed, ge.Kind)

	s.Default = "fallback"
	out, err := s.Generate(context.Background(), "p", Options{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)
}

func TestGenerationError_KindInference(t *testing.T) {
	assert.Equal(t, KindTimeout, NewGenerationError("x", context.DeadlineExceeded).Kind)
	assert.Equal(t, KindMalformed, NewGenerationError("x", ErrEmptyResponse).Kind)
	assert.Equal(t, KindQuota, NewGenerationError("x", errors.New("quota exceeded")).Kind)
	assert.Equal(t, KindProvider, NewGenerationError("x", errors.New("bad gateway")).Kind)
	assert.Nil(t, NewGenerationError("x", nil))
}
