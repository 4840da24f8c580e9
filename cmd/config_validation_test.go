package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// minimalConfig returns the smallest configuration that passes validation.
func minimalConfig() map[string]any {
	return map[string]any{
		"settings": map[string]any{
			"secret": "a-long-enough-secret",
			"db": map[string]any{
				"news": map[string]any{"uri": "mongodb://localhost:27017/news"},
			},
		},
	}
}

// section returns the nested map at path, creating it when missing.
func section(cfg map[string]any, path ...string) map[string]any {
	cur := cfg
	for _, p := range path {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	return cur
}

// TestValidateStartupConfigWithGetterRequired verifies the secret and database are required.
func TestValidateStartupConfigWithGetterRequired(t *testing.T) {
	err := validateStartupConfigWithGetter(newMapConfigGetter(map[string]any{}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings.secret is required")
	require.Contains(t, err.Error(), "settings.db.news.uri or settings.db.news.addr is required")
}

// TestValidateStartupConfigWithGetterNilGetter verifies a nil getter is rejected.
func TestValidateStartupConfigWithGetterNilGetter(t *testing.T) {
	require.Error(t, validateStartupConfigWithGetter(nil))
}

// TestValidateStartupConfigWithGetterMinimal verifies the minimal configuration passes validation.
func TestValidateStartupConfigWithGetterMinimal(t *testing.T) {
	require.NoError(t, validateStartupConfigWithGetter(newMapConfigGetter(minimalConfig())))

	cfg := minimalConfig()
	news := section(cfg, "settings", "db", "news")
	delete(news, "uri")
	news["addr"] = "localhost:27017"
	require.NoError(t, validateStartupConfigWithGetter(newMapConfigGetter(cfg)))
}

// TestValidateStartupConfigWithGetterInvalid verifies each malformed value is reported by key.
func TestValidateStartupConfigWithGetterInvalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg map[string]any)
		want   string
	}{
		{
			name:   "short secret",
			mutate: func(cfg map[string]any) { section(cfg, "settings")["secret"] = "short" },
			want:   "settings.secret must be at least 8 characters",
		},
		{
			name:   "bad mongo uri",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "db", "news")["uri"] = "http://localhost" },
			want:   "settings.db.news.uri",
		},
		{
			name:   "negative redis db",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "db", "redis")["db"] = -1 },
			want:   "settings.db.redis.db must be >= 0",
		},
		{
			name:   "blob without bucket",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "blob")["endpoint"] = "minio:9000" },
			want:   "settings.blob.bucket is required",
		},
		{
			name: "blob endpoint with scheme",
			mutate: func(cfg map[string]any) {
				blob := section(cfg, "settings", "blob")
				blob["endpoint"] = "https://minio:9000"
				blob["bucket"] = "news"
			},
			want: "settings.blob.endpoint",
		},
		{
			name:   "bad translate api base",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "translate")["api_base"] = "not a url" },
			want:   "settings.translate.api_base must be a valid absolute URL",
		},
		{
			name:   "zero rate",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "translate")["rate_per_second"] = 0 },
			want:   "settings.translate.rate_per_second must be > 0",
		},
		{
			name:   "tiny chunk size",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "translate")["chunk_size"] = 10 },
			want:   "settings.translate.chunk_size must be >= 100",
		},
		{
			name:   "bad cookie flag",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "web")["secure_cookie"] = "maybe" },
			want:   "settings.web.secure_cookie must be a boolean",
		},
		{
			name: "bad cors origin",
			mutate: func(cfg map[string]any) {
				section(cfg, "settings", "cors")["allowed_origins"] = []any{"https://news.example.com", "news.example.org"}
			},
			want: `"news.example.org"`,
		},
		{
			name:   "cors not a list",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "cors")["allowed_origins"] = 42 },
			want:   "settings.cors.allowed_origins must be a list of strings",
		},
		{
			name:   "bad default language",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "i18n")["default_language"] = "english!" },
			want:   "settings.i18n.default_language",
		},
		{
			name:   "zero upload size",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "blob")["max_upload_mb"] = 0 },
			want:   "settings.blob.max_upload_mb must be >= 1",
		},
		{
			name:   "fractional burst",
			mutate: func(cfg map[string]any) { section(cfg, "settings", "auth")["burst"] = 1.5 },
			want:   "settings.auth.burst must be an integer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := minimalConfig()
			tc.mutate(cfg)

			err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

// TestValidateStartupConfigWithGetterValidConfig verifies valid explicit configuration passes validation.
func TestValidateStartupConfigWithGetterValidConfig(t *testing.T) {
	cfg := map[string]any{
		"settings": map[string]any{
			"secret": "a-long-enough-secret",
			"jwt":    map[string]any{"expire_hours": 168},
			"db": map[string]any{
				"news":  map[string]any{"addr": "mongo:27017", "db": "news"},
				"redis": map[string]any{"addr": "redis:6379", "db": 0},
			},
			"blob": map[string]any{
				"endpoint":      "minio:9000",
				"bucket":        "news",
				"use_ssl":       "false",
				"public_url":    "https://cdn.example.com/news",
				"max_upload_mb": 50,
			},
			"translate": map[string]any{
				"api_base":        "https://translation.googleapis.com",
				"rate_per_second": 2.5,
				"burst":           5,
				"fanout":          4,
				"timeout_seconds": 30,
				"chunk_size":      4500,
				"llm": map[string]any{
					"api_base": "https://api.openai.com/v1",
					"model":    "gpt-4o-mini",
				},
				"tts": map[string]any{"api_base": "https://api.openai.com/v1"},
			},
			"web":      map[string]any{"secure_cookie": true},
			"auth":     map[string]any{"per_minute": 10, "burst": "5"},
			"cors":     map[string]any{"allowed_origins": "https://news.example.com, *"},
			"i18n":     map[string]any{"default_language": "en-US", "cache_ttl_seconds": 60},
			"comments": map[string]any{"auto_approve": false},
		},
	}

	err := validateStartupConfigWithGetter(newMapConfigGetter(cfg))
	require.NoError(t, err)
}

// TestToStringSlice verifies list conversion from config shapes.
func TestToStringSlice(t *testing.T) {
	got, ok := toStringSlice([]any{" a ", "b"})
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, got)

	got, ok = toStringSlice("a, ,b")
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, got)

	_, ok = toStringSlice([]any{"a", 1})
	require.False(t, ok)
}

// newMapConfigGetter builds a dotted-path getter for nested map-based test configuration.
// It accepts a nested map and returns a getter function compatible with validateStartupConfigWithGetter.
func newMapConfigGetter(root map[string]any) configGetter {
	return func(key string) any {
		if key == "" {
			return nil
		}

		parts := strings.Split(key, ".")
		var current any = root
		for _, part := range parts {
			nextMap, ok := current.(map[string]any)
			if !ok {
				return nil
			}

			next, exists := nextMap[part]
			if !exists {
				return nil
			}
			current = next
		}

		return current
	}
}
