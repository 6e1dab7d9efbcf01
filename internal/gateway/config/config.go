package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	AllowedOrigins []string
	LLM            LLMConfig
	Store          StoreConfig
	Media          MediaConfig
	Sweep          SweepConfig
	TuningFile     string
}

type LLMConfig struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	RPS             float64
	Burst           int
	MaxAttempts     int
}

type StoreConfig struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
	CacheSize   int
	CacheTTL    time.Duration
}

type MediaConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// CanUseS3 reports whether the media settings are complete enough for S3.
func (m MediaConfig) CanUseS3() bool {
	return strings.TrimSpace(m.Endpoint) != "" &&
		strings.TrimSpace(m.AccessKey) != "" &&
		strings.TrimSpace(m.SecretKey) != "" &&
		strings.TrimSpace(m.Bucket) != ""
}

type SweepConfig struct {
	AbandonAfter time.Duration
	Schedule     string
}

// Load reads .env, the process environment and command-line flags.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Args[1:], os.Getenv)
}

// LoadFrom builds a Config from explicit args and an env lookup.
func LoadFrom(args []string, getenv func(string) string) (*Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	fs := flag.NewFlagSet("listingassist", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	tuning := fs.String("tuning", "", "conversation tuning YAML file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if envPort := env("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	appEnv := firstNonEmpty(env("APP_ENV"), "local")
	cfg := &Config{
		Port:           *port,
		Env:            appEnv,
		AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS")),
		TuningFile:     firstNonEmpty(*tuning, env("CONVERSATION_TUNING_FILE")),
	}
	if isLocal(appEnv) {
		applyLocalDefaults(cfg, env)
	}

	var err error
	if cfg.LLM, err = loadLLMConfig(env); err != nil {
		return nil, err
	}
	if cfg.Store, err = loadStoreConfig(env, cfg.Store); err != nil {
		return nil, err
	}
	cfg.Media = loadMediaConfig(env, cfg.Media)
	if cfg.Sweep, err = loadSweepConfig(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLLMConfig(env func(string) string) (LLMConfig, error) {
	out := LLMConfig{
		Provider:        strings.ToLower(firstNonEmpty(env("LLM_PROVIDER"), "gemini")),
		GeminiAPIKey:    env("GEMINI_API_KEY"),
		GeminiModel:     env("GEMINI_MODEL"),
		AnthropicAPIKey: env("ANTHROPIC_API_KEY"),
		AnthropicModel:  env("ANTHROPIC_MODEL"),
	}
	var err error
	if out.RPS, err = parseFloat("LLM_RPS", env("LLM_RPS"), 2); err != nil {
		return LLMConfig{}, err
	}
	if out.Burst, err = parseInt("LLM_BURST", env("LLM_BURST"), 4); err != nil {
		return LLMConfig{}, err
	}
	if out.MaxAttempts, err = parseInt("LLM_MAX_ATTEMPTS", env("LLM_MAX_ATTEMPTS"), 3); err != nil {
		return LLMConfig{}, err
	}
	switch out.Provider {
	case "gemini", "anthropic", "fake":
	default:
		return LLMConfig{}, fmt.Errorf("LLM_PROVIDER: unsupported provider %q", out.Provider)
	}
	return out, nil
}

func loadStoreConfig(env func(string) string, base StoreConfig) (StoreConfig, error) {
	out := StoreConfig{
		DatabaseURL: firstNonEmpty(env("DATABASE_URL"), base.DatabaseURL),
		SQLitePath:  firstNonEmpty(env("SQLITE_PATH"), base.SQLitePath, "listing.db"),
	}
	driver := strings.ToLower(env("STORE_DRIVER"))
	if driver == "" {
		switch {
		case out.DatabaseURL != "":
			driver = "postgres"
		case base.Driver != "":
			driver = base.Driver
		default:
			driver = "memory"
		}
	}
	switch driver {
	case "memory", "sqlite":
	case "postgres":
		if out.DatabaseURL == "" {
			return StoreConfig{}, fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return StoreConfig{}, fmt.Errorf("STORE_DRIVER: unsupported driver %q", driver)
	}
	out.Driver = driver

	var err error
	if out.CacheSize, err = parseInt("SESSION_CACHE_SIZE", env("SESSION_CACHE_SIZE"), 2048); err != nil {
		return StoreConfig{}, err
	}
	if out.CacheTTL, err = parseDuration("SESSION_CACHE_TTL", env("SESSION_CACHE_TTL"), 2*time.Minute); err != nil {
		return StoreConfig{}, err
	}
	return out, nil
}

func loadMediaConfig(env func(string) string, base MediaConfig) MediaConfig {
	return MediaConfig{
		Endpoint:      firstNonEmpty(env("MEDIA_S3_ENDPOINT"), base.Endpoint),
		Region:        firstNonEmpty(env("MEDIA_S3_REGION"), base.Region, "us-east-1"),
		AccessKey:     firstNonEmpty(env("MEDIA_S3_ACCESS_KEY"), base.AccessKey),
		SecretKey:     firstNonEmpty(env("MEDIA_S3_SECRET_KEY"), base.SecretKey),
		Bucket:        firstNonEmpty(env("MEDIA_S3_BUCKET"), base.Bucket),
		UseSSL:        parseBool(env("MEDIA_S3_USE_SSL"), base.UseSSL || base.Endpoint == ""),
		PublicBaseURL: env("MEDIA_PUBLIC_BASE_URL"),
	}
}

func loadSweepConfig(env func(string) string) (SweepConfig, error) {
	after, err := parseDuration("ABANDON_AFTER", env("ABANDON_AFTER"), 24*time.Hour)
	if err != nil {
		return SweepConfig{}, err
	}
	return SweepConfig{
		AbandonAfter: after,
		Schedule:     firstNonEmpty(env("ABANDON_SCHEDULE"), "@every 5m"),
	}, nil
}

func parseInt(key, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

func parseFloat(key, raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return v, nil
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return v, nil
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
