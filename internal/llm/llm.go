// Package llm is the language-model gateway: a prompt, optional history and
// an optional image go in, generated text comes out. Providers implement
// Client; cross-cutting concerns are layered on with Middleware.
package llm

import "context"

// Client generates text for a prompt. Failures are reported as
// *GenerationError.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Close() error
}

// Role of a history message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one prior exchange replayed to the model before the prompt.
type Message struct {
	Role Role
	Text string
}

// Image is an inline image attached to the prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Options tune a single Generate call.
type Options struct {
	History []Message
	Image   *Image
	// JSON asks the provider to reply with a JSON document only.
	JSON        bool
	Temperature *float32
	MaxTokens   int
}

// Float32 is a helper for optional temperature values.
func Float32(v float32) *float32 { return &v }
