package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingassist/internal/dialogue"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFrom_Production(t *testing.T) {
	cfg, err := LoadFrom(nil, envMap(map[string]string{
		"APP_ENV":              "production",
		"PORT":                 "9090",
		"LLM_PROVIDER":         "Anthropic",
		"LLM_RPS":              "0.5",
		"DATABASE_URL":         "postgres://u:p@db:5432/listing",
		"SESSION_CACHE_TTL":    "30s",
		"MEDIA_S3_ENDPOINT":    "s3.amazonaws.com",
		"MEDIA_S3_ACCESS_KEY":  "a",
		"MEDIA_S3_SECRET_KEY":  "b",
		"MEDIA_S3_BUCKET":      "clips",
		"ABANDON_AFTER":        "6h",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 0.5, cfg.LLM.RPS)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	assert.Equal(t, 2048, cfg.Store.CacheSize)
	assert.True(t, cfg.Media.CanUseS3())
	assert.True(t, cfg.Media.UseSSL)
	assert.Equal(t, 6*time.Hour, cfg.Sweep.AbandonAfter)
	assert.Equal(t, "@every 5m", cfg.Sweep.Schedule)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadFrom_LocalDefaults(t *testing.T) {
	cfg, err := LoadFrom([]string{"-port", ":7000"}, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "tmp/listing.db", cfg.Store.SQLitePath)
	assert.Equal(t, "minio:9000", cfg.Media.Endpoint)
	assert.False(t, cfg.Media.UseSSL)
}

func TestLoadFrom_MemoryWithoutDatabase(t *testing.T) {
	cfg, err := LoadFrom(nil, envMap(map[string]string{"APP_ENV": "staging"}))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.False(t, cfg.Media.CanUseS3())
}

func TestLoadFrom_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"provider":    {"LLM_PROVIDER": "openai"},
		"driver":      {"STORE_DRIVER": "mongo"},
		"postgres":    {"APP_ENV": "prod", "STORE_DRIVER": "postgres"},
		"rps":         {"LLM_RPS": "fast"},
		"cache ttl":   {"SESSION_CACHE_TTL": "-1s"},
		"abandon":     {"ABANDON_AFTER": "soon"},
		"max attempt": {"LLM_MAX_ATTEMPTS": "-2"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(nil, envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestParseTuning(t *testing.T) {
	raw := []byte(`
missingThreshold: 0.4
extractTimeout: 5s
contextualQuestions: false
templates:
  final_details:
    - text: "How should the {productType} be cleaned?"
      target: careInstructions
`)
	tuning, err := ParseTuning(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.4, tuning.Extraction.MissingThreshold)
	assert.Equal(t, 0.5, tuning.Extraction.RequiredThreshold)
	assert.Equal(t, 5*time.Second, tuning.Extraction.Timeout)
	assert.False(t, tuning.Contextual())

	tpl := tuning.QuestionTemplates()
	require.Len(t, tpl[dialogue.StageFinalDetails], 1)
	assert.Equal(t, "careInstructions", tpl[dialogue.StageFinalDetails][0].Target)
	assert.NotEmpty(t, tpl[dialogue.StageBasicInfo])
}

func TestParseTuning_Rejects(t *testing.T) {
	for name, raw := range map[string]string{
		"threshold":   "missingThreshold: 1.5",
		"unknown key": "temperature: 0.3",
		"stage":       "templates:\n  closing:\n    - text: bye",
		"target":      "templates:\n  summary:\n    - text: bye\n      target: price",
		"blank text":  "templates:\n  summary:\n    - text: ''",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTuning([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadTuning(t *testing.T) {
	tuning, err := LoadTuning("")
	require.NoError(t, err)
	assert.True(t, tuning.Contextual())
	assert.Equal(t, 0.3, tuning.Extraction.MissingThreshold)

	path := filepath.Join(t.TempDir(), "conversation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fallbackOverall: 0.1\n"), 0o644))
	tuning, err = LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, tuning.Extraction.FallbackOverall)

	_, err = LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
