package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// minSecretLen shortest accepted token signing secret
const minSecretLen = 8

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.Shared.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateSecretConfig(get, &validationErrs)
	validateMongoConfig(get, &validationErrs)
	validateRedisConfig(get, &validationErrs)
	validateBlobConfig(get, &validationErrs)
	validateTranslateConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)
	validateNewsConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateSecretConfig requires the token signing secret.
func validateSecretConfig(get configGetter, errs *[]string) {
	secret, err := parseStrictString(get("settings.secret"))
	if err != nil || strings.TrimSpace(secret) == "" {
		appendValidationError(errs, "settings.secret is required")
		return
	}
	if len(secret) < minSecretLen {
		appendValidationError(errs, "settings.secret must be at least %d characters", minSecretLen)
	}

	validateOptionalIntMin(get, "settings.jwt.expire_hours", 1, errs)
}

// validateMongoConfig requires a mongo uri or address.
func validateMongoConfig(get configGetter, errs *[]string) {
	uri, _ := parseStrictString(get("settings.db.news.uri"))
	addr, _ := parseStrictString(get("settings.db.news.addr"))
	if strings.TrimSpace(uri) == "" && strings.TrimSpace(addr) == "" {
		appendValidationError(errs, "settings.db.news.uri or settings.db.news.addr is required")
	}
	if strings.TrimSpace(uri) != "" && !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		appendValidationError(errs, "settings.db.news.uri must start with mongodb:// or mongodb+srv://")
	}

	validateOptionalStringNonEmpty(get, "settings.db.news.db", errs)
}

// validateRedisConfig validates redis-related startup configuration values.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateRedisConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
}

// validateBlobConfig requires a bucket once an endpoint is configured.
func validateBlobConfig(get configGetter, errs *[]string) {
	validateOptionalBool(get, "settings.blob.use_ssl", errs)
	validateOptionalURL(get, "settings.blob.public_url", errs)

	endpoint, _ := parseStrictString(get("settings.blob.endpoint"))
	if strings.TrimSpace(endpoint) == "" {
		return
	}
	if strings.Contains(endpoint, "://") {
		appendValidationError(errs, "settings.blob.endpoint must be host[:port] without scheme")
	}

	bucket, err := parseStrictString(get("settings.blob.bucket"))
	if err != nil || strings.TrimSpace(bucket) == "" {
		appendValidationError(errs, "settings.blob.bucket is required when settings.blob.endpoint is set")
	}
}

// validateTranslateConfig validates provider endpoints and throttling.
func validateTranslateConfig(get configGetter, errs *[]string) {
	validateOptionalURL(get, "settings.translate.api_base", errs)
	validateOptionalURL(get, "settings.translate.llm.api_base", errs)
	validateOptionalURL(get, "settings.translate.tts.api_base", errs)
	validateOptionalStringNonEmpty(get, "settings.translate.llm.model", errs)
	validateOptionalFloatPositive(get, "settings.translate.rate_per_second", errs)
	validateOptionalIntMin(get, "settings.translate.burst", 1, errs)
	validateOptionalIntMin(get, "settings.translate.fanout", 1, errs)
	validateOptionalIntMin(get, "settings.translate.chunk_size", 100, errs)
	validateOptionalIntMin(get, "settings.translate.timeout_seconds", 1, errs)
}

// validateWebConfig validates cookies, auth throttling and CORS.
func validateWebConfig(get configGetter, errs *[]string) {
	validateOptionalBool(get, "settings.web.secure_cookie", errs)
	validateOptionalFloatPositive(get, "settings.auth.per_minute", errs)
	validateOptionalIntMin(get, "settings.auth.burst", 1, errs)

	raw := get("settings.cors.allowed_origins")
	if raw == nil {
		return
	}
	origins, ok := toStringSlice(raw)
	if !ok {
		appendValidationError(errs, "settings.cors.allowed_origins must be a list of strings")
		return
	}
	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			appendValidationError(errs, "settings.cors.allowed_origins entry %q must be an absolute origin", origin)
		}
	}
}

// validateNewsConfig validates language, upload and comment settings.
func validateNewsConfig(get configGetter, errs *[]string) {
	if raw := get("settings.i18n.default_language"); raw != nil {
		code, err := parseStrictString(raw)
		if err != nil || !i18n.ValidCode(i18n.NormalizeCode(code)) {
			appendValidationError(errs, "settings.i18n.default_language must be a language code")
		}
	}
	validateOptionalIntMin(get, "settings.i18n.cache_ttl_seconds", 1, errs)
	validateOptionalIntMin(get, "settings.blob.max_upload_mb", 1, errs)
	validateOptionalBool(get, "settings.comments.auto_approve", errs)
}

// validateOptionalBool validates an optionally configured boolean key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalFloatPositive validates an optionally configured positive float key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalFloatPositive(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictFloat(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a float", key)
		return
	}

	if value <= 0 {
		appendValidationError(errs, "%s must be > 0", key)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It accepts a raw value and returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictFloat parses a value as a strict floating-point number.
// It accepts a raw value and returns the parsed float64 and an error when parsing fails.
func parseStrictFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty float string")
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, errors.Wrap(err, "parse float")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported float type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}

// toStringSlice converts a list value into strings.
// It accepts a raw value and returns the strings and whether every item was a string.
func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := parseStrictString(item)
			if err != nil {
				return nil, false
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, true
	case string:
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
