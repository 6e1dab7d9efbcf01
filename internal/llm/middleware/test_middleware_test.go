package middleware

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingassist/internal/llm"
)

func TestWrap_AppliesLeftToRight(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next llm.Client) llm.Client {
			order = append(order, name)
			return next
		}
	}
	Wrap(llm.NewScriptedClient(), tag("outer"), tag("inner"))
	// Built from the innermost outwards.
	assert.Equal(t, []string{"inner", "outer"}, order)
}

func TestRetry_RecoversFromTransientFailure(t *testing.T) {
	s := llm.NewScriptedClient().On("extract", llm.Fail(errors.New("boom")), llm.Text("ok"))
	cli := Wrap(s, Retry(3, time.Millisecond))

	out, err := cli.Generate(llm.WithPhase(context.Background(), "extract"), "p", llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Len(t, s.Calls(), 2)
}

func TestRetry_StopsOnQuota(t *testing.T) {
	s := llm.NewScriptedClient().On("extract", llm.Fail(errors.New("429 RESOURCE_EXHAUSTED")))
	cli := Wrap(s, Retry(5, time.Millisecond))

	_, err := cli.Generate(llm.WithPhase(context.Background(), "extract"), "p", llm.Options{})
	var ge *llm.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, llm.KindQuota, ge.Kind)
	assert.Len(t, s.Calls(), 1)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	s := llm.NewScriptedClient().On("summary", llm.Fail(errors.New("unavailable")))
	cli := Wrap(s, Retry(3, time.Millisecond))

	_, err := cli.Generate(llm.WithPhase(context.Background(), "summary"), "p", llm.Options{})
	require.Error(t, err)
	assert.True(t, llm.IsGenerationError(err))
	assert.Len(t, s.Calls(), 3)
}

func TestLogging_WritesPhase(t *testing.T) {
	var buf bytes.Buffer
	s := llm.NewScriptedClient().On("summary", llm.Text("hello"))
	cli := Wrap(s, WithLogging(log.New(&buf, "", 0)))

	_, err := cli.Generate(llm.WithPhase(context.Background(), "summary"), "p", llm.Options{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "phase=summary")
	assert.Contains(t, buf.String(), "client=Scripted")
}
