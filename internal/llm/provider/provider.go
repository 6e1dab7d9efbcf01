// Package provider builds the configured model client with the standard
// middleware stack applied.
package provider

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"listingassist/internal/llm"
	"listingassist/internal/llm/middleware"
)

// Config selects and tunes the model backend.
type Config struct {
	Provider        string // gemini | anthropic | fake
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	RPS             float64
	Burst           int
	MaxAttempts     int
	Logger          *log.Logger
}

// New builds the configured provider wrapped with logging, retry and rate
// limiting. The fake provider returns a ScriptedClient with no scripts, so
// every call fails and callers exercise their fallbacks.
func New(ctx context.Context, cfg Config) (llm.Client, error) {
	var (
		base llm.Client
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		base, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "anthropic":
		base, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case "fake":
		base = llm.NewScriptedClient()
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return middleware.Wrap(base,
		middleware.WithLogging(cfg.Logger),
		middleware.Retry(cfg.MaxAttempts, 300*time.Millisecond),
		middleware.RateLimit(cfg.RPS, cfg.Burst),
	), nil
}
