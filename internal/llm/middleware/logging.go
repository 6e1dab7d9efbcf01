package middleware

import (
	"context"
	"log"
	"time"

	"listingassist/internal/llm"
)

// WithLogging logs one line per call with phase, size, latency and error.
// A nil logger uses log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llm.Client) llm.Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llm.Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	start := time.Now()
	out, err := l.next.Generate(ctx, prompt, opts)
	elapsed := time.Since(start).Round(time.Millisecond)
	phase := llm.PhaseFrom(ctx)
	if err != nil {
		l.log.Printf("llm error phase=%s client=%s elapsed=%s err=%v", phase, l.next.Name(), elapsed, err)
		return out, err
	}
	l.log.Printf("llm request phase=%s client=%s prompt_bytes=%d history=%d image=%t reply_bytes=%d elapsed=%s",
		phase, l.next.Name(), len(prompt), len(opts.History), opts.Image != nil, len(out), elapsed)
	return out, nil
}
