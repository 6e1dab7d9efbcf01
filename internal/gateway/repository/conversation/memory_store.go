package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"listingassist/internal/dialogue"
	"listingassist/internal/gateway/entity"
	"listingassist/internal/product"
)

type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*entity.Conversation
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		convs: make(map[string]*entity.Conversation),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, userID entity.UserID, language string) (entity.Conversation, error) {
	if s == nil {
		return entity.Conversation{}, fmt.Errorf("store is nil")
	}
	if userID.IsZero() {
		return entity.Conversation{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	now := s.now()
	conv := &entity.Conversation{
		ID:            uuid.New().String(),
		UserID:        entity.NormalizeUserID(string(userID)),
		Language:      entity.NormalizeLanguage(language),
		Turns:         []entity.Turn{},
		ExtractedInfo: product.Info{},
		Confidence:    product.NewConfidenceMap(),
		Status:        entity.StatusInProgress,
		Stage:         dialogue.StageIntroduction,
		StartedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = conv
	return conv.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (entity.Conversation, bool, error) {
	if s == nil {
		return entity.Conversation{}, false, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[strings.TrimSpace(id)]
	if !ok {
		return entity.Conversation{}, false, nil
	}
	return conv.Clone(), true, nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, id string, turn entity.Turn) (entity.Turn, error) {
	var out entity.Turn
	err := s.mutate(id, func(conv *entity.Conversation, now time.Time) {
		turn.ID = uuid.New().String()
		turn.Timestamp = now
		if turn.Language == "" {
			turn.Language = conv.Language
		}
		conv.Turns = append(conv.Turns, turn)
		out = turn
	})
	return out, err
}

func (s *MemoryStore) UpdateStage(_ context.Context, id string, stage dialogue.Stage) error {
	return s.mutate(id, func(conv *entity.Conversation, _ time.Time) {
		conv.Stage = dialogue.ParseStage(string(stage))
	})
}

func (s *MemoryStore) UpdateExtractedInfo(_ context.Context, id string, info product.Info, confidence product.ConfidenceMap) error {
	return s.mutate(id, func(conv *entity.Conversation, _ time.Time) {
		conv.ExtractedInfo = info.Clone()
		if confidence != nil {
			conv.Confidence = confidence.Clone()
		}
	})
}

func (s *MemoryStore) Complete(_ context.Context, id string, summary string, finalInfo product.Info) error {
	return s.mutate(id, func(conv *entity.Conversation, now time.Time) {
		conv.Status = entity.StatusCompleted
		conv.Stage = dialogue.StageSummary
		conv.Summary = summary
		conv.ExtractedInfo = finalInfo.Clone()
		at := now
		conv.CompletedAt = &at
	})
}

func (s *MemoryStore) AbandonIdle(_ context.Context, before time.Time) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, conv := range s.convs {
		if conv.Status != entity.StatusInProgress || !conv.UpdatedAt.Before(before) {
			continue
		}
		conv.Status = entity.StatusAbandoned
		conv.UpdatedAt = now
		conv.Version++
		n++
	}
	return n, nil
}

// mutate applies fn under the write lock and bumps the version.
func (s *MemoryStore) mutate(id string, fn func(conv *entity.Conversation, now time.Time)) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: conversation_id is required", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return ErrNotFound
	}
	now := s.now()
	fn(conv, now)
	conv.UpdatedAt = now
	conv.Version++
	return nil
}
