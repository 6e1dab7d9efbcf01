package middleware

import (
	"context"
	"errors"
	"time"

	"listingassist/internal/llm"
)

// Retry retries transient failures up to maxAttempts, sleeping baseDelay,
// 2*baseDelay, ... between attempts. Permanent errors and a done context
// stop immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llm.Client) llm.Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llm.Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }
func (r *retrying) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Generate(ctx, prompt, opts)
		if err == nil {
			return out, nil
		}
		last = err
		var ge *llm.GenerationError
		if errors.As(err, &ge) && ge.Permanent() {
			return "", err
		}
		if i == r.max-1 {
			break
		}
		timer := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", llm.NewGenerationError(r.next.Name(), ctx.Err())
		case <-timer.C:
		}
	}
	return "", last
}
