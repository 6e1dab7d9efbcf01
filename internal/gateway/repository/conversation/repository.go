package conversation

import (
	"context"
	"errors"
	"time"

	"listingassist/internal/dialogue"
	"listingassist/internal/gateway/entity"
	"listingassist/internal/product"
)

// Store persists conversations. Every operation is a single-record
// read-modify-write; mutations on an unknown id return ErrNotFound.
type Store interface {
	Create(ctx context.Context, userID entity.UserID, language string) (entity.Conversation, error)
	// Get reports ok=false when the conversation does not exist.
	Get(ctx context.Context, id string) (entity.Conversation, bool, error)
	// AppendTurn assigns the turn id and timestamp and appends it in order.
	AppendTurn(ctx context.Context, id string, turn entity.Turn) (entity.Turn, error)
	UpdateStage(ctx context.Context, id string, stage dialogue.Stage) error
	UpdateExtractedInfo(ctx context.Context, id string, info product.Info, confidence product.ConfidenceMap) error
	Complete(ctx context.Context, id string, summary string, finalInfo product.Info) error
	// AbandonIdle marks in-progress conversations not updated since before as
	// abandoned and returns how many changed.
	AbandonIdle(ctx context.Context, before time.Time) (int, error)
}

var (
	ErrNotFound     = errors.New("conversation not found")
	ErrInvalidInput = errors.New("invalid input")
)
