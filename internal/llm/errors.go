package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is wrapped when a provider returns no text.
var ErrEmptyResponse = errors.New("empty response from model")

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindQuota     ErrorKind = "quota"
	KindMalformed ErrorKind = "malformed"
	KindProvider  ErrorKind = "provider"
)

// GenerationError reports that the gateway could not produce text.
type GenerationError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Permanent reports whether retrying the same call cannot help.
func (e *GenerationError) Permanent() bool {
	return e.Kind == KindQuota || e.Kind == KindTimeout
}

// NewGenerationError wraps err, inferring the kind from context errors and
// common quota markers. An existing *GenerationError is returned as is.
func NewGenerationError(provider string, err error) *GenerationError {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	return &GenerationError{Provider: provider, Kind: kindOf(err), Err: err}
}

// Malformed builds a KindMalformed error.
func Malformed(provider string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Kind: KindMalformed, Err: err}
}

// IsGenerationError reports whether err carries a *GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrEmptyResponse):
		return KindMalformed
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resource_exhausted", "quota", "rate limit"} {
		if strings.Contains(msg, marker) {
			return KindQuota
		}
	}
	return KindProvider
}
