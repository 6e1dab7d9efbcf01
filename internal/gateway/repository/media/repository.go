package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store keeps uploaded media (audio replies, product photos) per
// conversation and hands back a URL that can be recorded on a turn.
type Store interface {
	Put(ctx context.Context, conversationID, name string, content []byte, contentType string) (string, error)
	Get(ctx context.Context, conversationID, name string) ([]byte, error)
}

var (
	ErrNotFound     = errors.New("media not found")
	ErrInvalidInput = errors.New("invalid media input")
)

func objectKey(conversationID, name string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(name), "/")
	return strings.TrimSpace(conversationID) + "/" + normalized
}

func validate(conversationID, name string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: conversation_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}
