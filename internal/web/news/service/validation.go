package service

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/multilingual-news/internal/library/i18n"
	"github.com/Laisky/multilingual-news/internal/web/news/model"
)

const (
	// maxTitleLength caps the length of one localized title.
	maxTitleLength = 300
	// maxSummaryLength caps the length of one localized summary.
	maxSummaryLength = 2000
	// maxContentLength caps the length of one localized body.
	maxContentLength = 200000
	// maxNameLength caps the length of localized names.
	maxNameLength = 200
	// maxDescriptionLength caps the length of localized descriptions.
	maxDescriptionLength = 2000
	// maxTagLength caps the length of a tag.
	maxTagLength = 50
)

// sanitizeText cleans a multilingual field and checks every value length
func sanitizeText(text i18n.Text, maxLen int, field string) (i18n.Text, error) {
	cleaned := i18n.Clean(text)
	for code, v := range cleaned {
		if !i18n.ValidCode(code) {
			return nil, model.Invalid(field, "invalid language code %q", code)
		}
		if strings.ContainsRune(v, '\x00') {
			return nil, model.Invalid(field+"."+code, "contains invalid null byte")
		}
		if utf8.RuneCountInString(v) > maxLen {
			return nil, model.Invalid(field+"."+code, "exceeds max length %d", maxLen)
		}
	}
	return cleaned, nil
}

// requireDefault fails when text has no value in the default language
func requireDefault(text i18n.Text, defaultLang, field string) error {
	if !text.Has(defaultLang) {
		return model.Invalid(field, "value in default language %q is required", defaultLang)
	}
	return nil
}

// sanitizeTags lowercase, trim and dedupe tags
func sanitizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLength {
			return nil, model.Invalid("tags", "tag exceeds max length %d", maxTagLength)
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, nil
}

// maxSlugAttempts bounds the suffixed candidates tried after a collision
const maxSlugAttempts = 50

// uniqueSlug derive a slug from base, when taken suffix it with the current unix
// millis, then `-2`, `-3`... on top of that. fallback is used when base has no
// usable character
func uniqueSlug(ctx context.Context, base, fallback string,
	taken func(ctx context.Context, slug string) (bool, error)) (string, error) {
	slug := i18n.Slugify(base)
	if slug == "" {
		slug = fallback
	}

	exists, err := taken(ctx, slug)
	if err != nil {
		return "", errors.Wrap(err, "check slug")
	}
	if !exists {
		return slug, nil
	}

	stamped := slug + "-" + strconv.FormatInt(now().UnixMilli(), 10)
	candidate := stamped
	for i := 1; i <= maxSlugAttempts; i++ {
		if i > 1 {
			candidate = stamped + "-" + strconv.Itoa(i)
		}
		if exists, err = taken(ctx, candidate); err != nil {
			return "", errors.Wrap(err, "check slug")
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", errors.Wrapf(model.ErrConflict, "no free slug for %q", slug)
}

// sameID compares optional ids
func sameID(a, b *primitive.ObjectID) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}
