package app

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	conversationcache "listingassist/internal/cache/conversation"
	"listingassist/internal/gateway/config"
	conversationrepo "listingassist/internal/gateway/repository/conversation"
	mediarepo "listingassist/internal/gateway/repository/media"
)

type gatewayStores struct {
	conversation *conversationcache.CachedStore
	media        mediarepo.Store
	db           *sql.DB
}

func (s *gatewayStores) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initStores(cfg *config.Config, logger *log.Logger) (*gatewayStores, error) {
	origin, db, err := openConversationStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	media, err := chooseMediaStore(cfg.Media, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	cacheCfg := conversationcache.DefaultCacheConfig()
	if cfg.Store.CacheSize > 0 {
		cacheCfg.MaxEntries = cfg.Store.CacheSize
	}
	if cfg.Store.CacheTTL > 0 {
		cacheCfg.TTL = cfg.Store.CacheTTL
	}
	return &gatewayStores{
		conversation: conversationcache.NewCachedStore(origin, cacheCfg),
		media:        media,
		db:           db,
	}, nil
}

func openConversationStore(cfg config.StoreConfig, logger *log.Logger) (conversationrepo.Store, *sql.DB, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := conversationrepo.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		logger.Printf("conversation store: postgres")
		return conversationrepo.NewSQLStore(db, conversationrepo.Postgres), db, nil
	case "sqlite":
		path := strings.TrimSpace(cfg.SQLitePath)
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
		db, err := conversationrepo.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("conversation store: sqlite path=%s", path)
		return conversationrepo.NewSQLStore(db, conversationrepo.SQLite), db, nil
	default:
		logger.Printf("conversation store: in-memory")
		return conversationrepo.NewMemoryStore(), nil, nil
	}
}

func chooseMediaStore(cfg config.MediaConfig, logger *log.Logger) (mediarepo.Store, error) {
	if !cfg.CanUseS3() {
		logger.Printf("media store: in-memory (s3 config incomplete)")
		return mediarepo.NewMemoryStore(), nil
	}
	s3Cfg := mediarepo.S3Config{
		Endpoint:      cfg.Endpoint,
		Region:        cfg.Region,
		AccessKey:     cfg.AccessKey,
		SecretKey:     cfg.SecretKey,
		Bucket:        cfg.Bucket,
		UseSSL:        cfg.UseSSL,
		PublicBaseURL: cfg.PublicBaseURL,
	}
	store, err := mediarepo.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media s3 store: %w", err)
	}
	logger.Printf("media store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
	return store, nil
}
