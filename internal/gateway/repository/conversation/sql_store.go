package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"listingassist/internal/dialogue"
	"listingassist/internal/gateway/entity"
	"listingassist/internal/product"
	"listingassist/internal/util/jsonutil"
)

// Dialect adapts the queries to a database engine.
type Dialect struct {
	Name string
	// positional rewrites ? placeholders when the engine needs $n.
	positional bool
	// lockSuffix is appended to row reads inside a transaction.
	lockSuffix string
}

var (
	Postgres = Dialect{Name: "postgres", positional: true, lockSuffix: " FOR UPDATE"}
	SQLite   = Dialect{Name: "sqlite"}
)

func (d Dialect) rebind(q string) string {
	if !d.positional {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    language TEXT NOT NULL,
    status TEXT NOT NULL,
    stage TEXT NOT NULL,
    extracted_info TEXT NOT NULL DEFAULT '{}',
    confidence TEXT NOT NULL DEFAULT '{}',
    summary TEXT NOT NULL DEFAULT '',
    started_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    completed_at BIGINT,
    version BIGINT NOT NULL DEFAULT 1
)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_status_updated ON conversations(status, updated_at)`,
	`CREATE TABLE IF NOT EXISTS conversation_turns (
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    type TEXT NOT NULL,
    content TEXT NOT NULL,
    language TEXT NOT NULL,
    processing_time_ms BIGINT NOT NULL DEFAULT 0,
    confidence DOUBLE PRECISION,
    audio_url TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    PRIMARY KEY (conversation_id, seq)
)`,
}

// SQLStore keeps conversations in two tables over database/sql. Timestamps
// are stored as unix milliseconds so both dialects share one schema.
type SQLStore struct {
	db         *sql.DB
	dialect    Dialect
	now        func() time.Time
	schemaOnce sync.Once
	schemaErr  error
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
}

// OpenPostgres opens a pgx-backed pool.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a file database in WAL mode. ":memory:" is accepted for
// tests and keeps a single connection so every query sees the same data.
func OpenSQLite(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		for _, stmt := range schemaStatements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				s.schemaErr = fmt.Errorf("ensure schema: %w", err)
				return
			}
		}
	})
	return s.schemaErr
}

func (s *SQLStore) Create(ctx context.Context, userID entity.UserID, language string) (entity.Conversation, error) {
	if s == nil {
		return entity.Conversation{}, fmt.Errorf("store is nil")
	}
	if userID.IsZero() {
		return entity.Conversation{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if err := s.ensureSchema(ctx); err != nil {
		return entity.Conversation{}, err
	}
	now := s.now().Truncate(time.Millisecond)
	conv := entity.Conversation{
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
	info, conf, err := encodeState(conv.ExtractedInfo, conv.Confidence)
	if err != nil {
		return entity.Conversation{}, err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO conversations (id, user_id, language, status, stage, extracted_info, confidence, summary, started_at, updated_at, version)
VALUES (?, ?, ?, ?, ?, ?, ?, '', ?, ?, 1)`),
		conv.ID, conv.UserID.String(), conv.Language, string(conv.Status), string(conv.Stage), info, conf, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return entity.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (entity.Conversation, bool, error) {
	if s == nil {
		return entity.Conversation{}, false, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.Conversation{}, false, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return entity.Conversation{}, false, err
	}
	conv, err := s.loadConversation(ctx, s.db, id, "")
	if errors.Is(err, ErrNotFound) {
		return entity.Conversation{}, false, nil
	}
	if err != nil {
		return entity.Conversation{}, false, err
	}
	turns, err := s.loadTurns(ctx, id)
	if err != nil {
		return entity.Conversation{}, false, err
	}
	conv.Turns = turns
	return conv, true, nil
}

func (s *SQLStore) AppendTurn(ctx context.Context, id string, turn entity.Turn) (entity.Turn, error) {
	var out entity.Turn
	err := s.inTx(ctx, id, func(tx *sql.Tx, conv entity.Conversation, now time.Time) error {
		var next int64
		if err := tx.QueryRowContext(ctx, s.dialect.rebind(
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM conversation_turns WHERE conversation_id = ?`), conv.ID).Scan(&next); err != nil {
			return err
		}
		turn.ID = uuid.New().String()
		turn.Timestamp = now
		if turn.Language == "" {
			turn.Language = conv.Language
		}
		var conf sql.NullFloat64
		if turn.Confidence != nil {
			conf = sql.NullFloat64{Float64: *turn.Confidence, Valid: true}
		}
		_, err := tx.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO conversation_turns (conversation_id, seq, id, type, content, language, processing_time_ms, confidence, audio_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			conv.ID, next, turn.ID, string(turn.Type), turn.Content, turn.Language, turn.ProcessingTime, conf, turn.AudioURL, now.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		out = turn
		return s.touch(ctx, tx, conv.ID, now)
	})
	return out, err
}

func (s *SQLStore) UpdateStage(ctx context.Context, id string, stage dialogue.Stage) error {
	return s.inTx(ctx, id, func(tx *sql.Tx, conv entity.Conversation, now time.Time) error {
		_, err := tx.ExecContext(ctx, s.dialect.rebind(
			`UPDATE conversations SET stage = ?, updated_at = ?, version = version + 1 WHERE id = ?`),
			string(dialogue.ParseStage(string(stage))), now.UnixMilli(), conv.ID)
		return err
	})
}

func (s *SQLStore) UpdateExtractedInfo(ctx context.Context, id string, info product.Info, confidence product.ConfidenceMap) error {
	return s.inTx(ctx, id, func(tx *sql.Tx, conv entity.Conversation, now time.Time) error {
		if confidence == nil {
			confidence = conv.Confidence
		}
		rawInfo, rawConf, err := encodeState(info, confidence)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.dialect.rebind(
			`UPDATE conversations SET extracted_info = ?, confidence = ?, updated_at = ?, version = version + 1 WHERE id = ?`),
			rawInfo, rawConf, now.UnixMilli(), conv.ID)
		return err
	})
}

func (s *SQLStore) Complete(ctx context.Context, id string, summary string, finalInfo product.Info) error {
	return s.inTx(ctx, id, func(tx *sql.Tx, conv entity.Conversation, now time.Time) error {
		rawInfo, err := jsonutil.MarshalNoEscape(finalInfo)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.dialect.rebind(`
UPDATE conversations
SET status = ?, stage = ?, summary = ?, extracted_info = ?, completed_at = ?, updated_at = ?, version = version + 1
WHERE id = ?`),
			string(entity.StatusCompleted), string(dialogue.StageSummary), summary, string(rawInfo), now.UnixMilli(), now.UnixMilli(), conv.ID)
		return err
	})
}

func (s *SQLStore) AbandonIdle(ctx context.Context, before time.Time) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`
UPDATE conversations SET status = ?, updated_at = ?, version = version + 1
WHERE status = ? AND updated_at < ?`),
		string(entity.StatusAbandoned), s.now().UnixMilli(), string(entity.StatusInProgress), before.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// inTx loads the conversation row inside a transaction, runs fn and commits.
func (s *SQLStore) inTx(ctx context.Context, id string, fn func(tx *sql.Tx, conv entity.Conversation, now time.Time) error) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: conversation_id is required", ErrInvalidInput)
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	conv, err := s.loadConversation(ctx, tx, id, s.dialect.lockSuffix)
	if err != nil {
		return err
	}
	if err := fn(tx, conv, s.now().Truncate(time.Millisecond)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) touch(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	_, err := tx.ExecContext(ctx, s.dialect.rebind(
		`UPDATE conversations SET updated_at = ?, version = version + 1 WHERE id = ?`), now.UnixMilli(), id)
	return err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) loadConversation(ctx context.Context, q queryer, id, suffix string) (entity.Conversation, error) {
	var (
		conv                  entity.Conversation
		userID, status, stage string
		rawInfo, rawConf      string
		startedAt, updatedAt  int64
		completedAt           sql.NullInt64
	)
	err := q.QueryRowContext(ctx, s.dialect.rebind(`
SELECT id, user_id, language, status, stage, extracted_info, confidence, summary, started_at, updated_at, completed_at, version
FROM conversations WHERE id = ?`+suffix), id).Scan(
		&conv.ID, &userID, &conv.Language, &status, &stage, &rawInfo, &rawConf, &conv.Summary,
		&startedAt, &updatedAt, &completedAt, &conv.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Conversation{}, ErrNotFound
	}
	if err != nil {
		return entity.Conversation{}, err
	}
	conv.UserID = entity.NormalizeUserID(userID)
	conv.Status = entity.Status(status)
	conv.Stage = dialogue.ParseStage(stage)
	conv.StartedAt = time.UnixMilli(startedAt).UTC()
	conv.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if completedAt.Valid {
		at := time.UnixMilli(completedAt.Int64).UTC()
		conv.CompletedAt = &at
	}
	if err := jsonutil.UnmarshalFlex([]byte(rawInfo), &conv.ExtractedInfo); err != nil {
		return entity.Conversation{}, fmt.Errorf("decode extracted_info: %w", err)
	}
	if err := json.Unmarshal([]byte(rawConf), &conv.Confidence); err != nil {
		return entity.Conversation{}, fmt.Errorf("decode confidence: %w", err)
	}
	conv.Turns = []entity.Turn{}
	return conv, nil
}

func (s *SQLStore) loadTurns(ctx context.Context, id string) ([]entity.Turn, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
SELECT id, type, content, language, processing_time_ms, confidence, audio_url, created_at
FROM conversation_turns WHERE conversation_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []entity.Turn{}
	for rows.Next() {
		var (
			t         entity.Turn
			typ       string
			conf      sql.NullFloat64
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &typ, &t.Content, &t.Language, &t.ProcessingTime, &conf, &t.AudioURL, &createdAt); err != nil {
			return nil, err
		}
		t.Type = entity.TurnType(typ)
		t.Timestamp = time.UnixMilli(createdAt).UTC()
		if conf.Valid {
			v := conf.Float64
			t.Confidence = &v
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}

func encodeState(info product.Info, conf product.ConfidenceMap) (string, string, error) {
	rawInfo, err := jsonutil.MarshalNoEscape(info)
	if err != nil {
		return "", "", fmt.Errorf("encode extracted_info: %w", err)
	}
	if conf == nil {
		conf = product.NewConfidenceMap()
	}
	rawConf, err := json.Marshal(conf)
	if err != nil {
		return "", "", fmt.Errorf("encode confidence: %w", err)
	}
	return string(rawInfo), string(rawConf), nil
}
