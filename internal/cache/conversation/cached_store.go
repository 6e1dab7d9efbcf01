package conversation

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"listingassist/internal/dialogue"
	"listingassist/internal/gateway/entity"
	conversationrepo "listingassist/internal/gateway/repository/conversation"
	"listingassist/internal/product"
)

type Store = conversationrepo.Store

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        2 * time.Minute,
		MaxEntries: 2048,
	}
}

type MetricsSnapshot struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
}

type metrics struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	invalidations atomic.Uint64
}

// CachedStore is a read-through cache in front of a conversation Store.
// Reads are served from a bounded LRU with TTL; every mutation goes to the
// origin first and then drops the cached record.
type CachedStore struct {
	origin  Store
	convs   *expirable.LRU[string, entity.Conversation]
	metrics metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &CachedStore{
		origin: origin,
		convs:  expirable.NewLRU[string, entity.Conversation](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:          s.metrics.hits.Load(),
		Misses:        s.metrics.misses.Load(),
		Invalidations: s.metrics.invalidations.Load(),
	}
}

func (s *CachedStore) Create(ctx context.Context, userID entity.UserID, language string) (entity.Conversation, error) {
	conv, err := s.origin.Create(ctx, userID, language)
	if err != nil {
		return entity.Conversation{}, err
	}
	s.convs.Add(conv.ID, conv.Clone())
	return conv, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (entity.Conversation, bool, error) {
	key := strings.TrimSpace(id)
	if conv, ok := s.convs.Get(key); ok {
		s.metrics.hits.Add(1)
		return conv.Clone(), true, nil
	}
	s.metrics.misses.Add(1)
	conv, ok, err := s.origin.Get(ctx, key)
	if err != nil || !ok {
		return entity.Conversation{}, ok, err
	}
	s.convs.Add(key, conv.Clone())
	return conv, true, nil
}

func (s *CachedStore) AppendTurn(ctx context.Context, id string, turn entity.Turn) (entity.Turn, error) {
	defer s.invalidate(id)
	return s.origin.AppendTurn(ctx, id, turn)
}

func (s *CachedStore) UpdateStage(ctx context.Context, id string, stage dialogue.Stage) error {
	defer s.invalidate(id)
	return s.origin.UpdateStage(ctx, id, stage)
}

func (s *CachedStore) UpdateExtractedInfo(ctx context.Context, id string, info product.Info, confidence product.ConfidenceMap) error {
	defer s.invalidate(id)
	return s.origin.UpdateExtractedInfo(ctx, id, info, confidence)
}

func (s *CachedStore) Complete(ctx context.Context, id string, summary string, finalInfo product.Info) error {
	defer s.invalidate(id)
	return s.origin.Complete(ctx, id, summary, finalInfo)
}

// AbandonIdle may touch any record, so the whole cache is dropped.
func (s *CachedStore) AbandonIdle(ctx context.Context, before time.Time) (int, error) {
	n, err := s.origin.AbandonIdle(ctx, before)
	if n > 0 {
		s.convs.Purge()
		s.metrics.invalidations.Add(1)
	}
	return n, err
}

func (s *CachedStore) invalidate(id string) {
	if s.convs.Remove(strings.TrimSpace(id)) {
		s.metrics.invalidations.Add(1)
	}
}
