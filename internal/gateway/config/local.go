package config

import "strings"

func isLocal(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "local")
}

// applyLocalDefaults points a local run at the docker-compose services:
// a sqlite file for conversations and minio for audio clips. Explicit
// environment values still win.
func applyLocalDefaults(cfg *Config, env func(string) string) {
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = "tmp/listing.db"
	cfg.Media = MediaConfig{
		Endpoint:  firstNonEmpty(env("MEDIA_MINIO_ENDPOINT"), "minio:9000"),
		AccessKey: firstNonEmpty(env("MINIO_ROOT_USER"), "listing"),
		SecretKey: firstNonEmpty(env("MINIO_ROOT_PASSWORD"), "listing123"),
		Bucket:    "listing-media",
		UseSSL:    false,
	}
}
