// Package config loads service settings from the YAML file and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/joho/godotenv"

	"github.com/Laisky/multilingual-news/library/log"
)

// LoadFromFile loads the settings file, then applies environment overrides.
//
// A missing settings file is tolerated when the environment carries the
// configuration (container deployments only set env vars).
func LoadFromFile(cfgPath string) {
	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if _, err := os.Stat(cfgPath); err == nil {
		if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
			log.Logger.Panic("load configuration",
				zap.Error(err),
				zap.String("config", cfgPath))
		}

		log.Logger.Info("load configuration", zap.String("config", cfgPath))
	} else {
		log.Logger.Warn("configuration file not found, use environment only",
			zap.String("config", cfgPath))
	}

	LoadEnv(filepath.Join(filepath.Dir(cfgPath), ".env"), ".env")
}

// LoadEnv reads optional dotenv files and copies known variables into settings.
func LoadEnv(dotenvFiles ...string) {
	for _, fpath := range dotenvFiles {
		if _, err := os.Stat(fpath); err != nil {
			continue
		}

		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(fpath); err != nil {
			log.Logger.Warn("load dotenv", zap.Error(err), zap.String("file", fpath))
			continue
		}

		log.Logger.Info("load dotenv", zap.String("file", fpath))
	}

	n := applyEnv(os.LookupEnv, gconfig.Shared.Set)
	log.Logger.Debug("apply environment overrides", zap.Int("n", n))
}

// envBinding maps one environment variable onto a settings key.
type envBinding struct {
	env   string
	key   string
	split bool
}

var envBindings = []envBinding{
	{env: "MONGODB_URI", key: "settings.db.news.uri"},
	{env: "MONGODB_DB", key: "settings.db.news.db"},
	{env: "JWT_SECRET", key: "settings.secret"},
	{env: "REDIS_ADDR", key: "settings.db.redis.addr"},
	{env: "REDIS_PASSWORD", key: "settings.db.redis.pwd"},
	{env: "BLOB_ENDPOINT", key: "settings.blob.endpoint"},
	{env: "BLOB_ACCESS_KEY", key: "settings.blob.access_key"},
	{env: "BLOB_SECRET_KEY", key: "settings.blob.secret_key"},
	{env: "BLOB_BUCKET", key: "settings.blob.bucket"},
	{env: "BLOB_PUBLIC_URL", key: "settings.blob.public_url"},
	{env: "TRANSLATE_API_BASE", key: "settings.translate.api_base"},
	{env: "TRANSLATE_API_KEY", key: "settings.translate.api_key"},
	{env: "LLM_API_BASE", key: "settings.translate.llm.api_base"},
	{env: "LLM_API_KEY", key: "settings.translate.llm.api_key"},
	{env: "LLM_MODEL", key: "settings.translate.llm.model"},
	{env: "TTS_API_BASE", key: "settings.translate.tts.api_base"},
	{env: "TTS_API_KEY", key: "settings.translate.tts.api_key"},
	{env: "DEFAULT_LANGUAGE", key: "settings.i18n.default_language"},
	{env: "CORS_ORIGINS", key: "settings.cors.allowed_origins", split: true},
}

// applyEnv copies every non-empty bound variable through set and returns how many were applied.
func applyEnv(lookup func(string) (string, bool), set func(string, any)) (n int) {
	for _, b := range envBindings {
		val, ok := lookup(b.env)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}

		if b.split {
			var items []string
			for _, item := range strings.Split(val, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			set(b.key, items)
		} else {
			set(b.key, strings.TrimSpace(val))
		}

		n++
	}

	return n
}
