package i18n

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 80

// Slugify converts s into a lowercase ASCII slug, diacritics are stripped.
//
// It returns "" when s has no ASCII letters or digits, e.g. a title written
// only in Devanagari.
func Slugify(s string) string {
	var (
		sb      strings.Builder
		pending bool
	)
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pending && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pending = false
			sb.WriteRune(unicode.ToLower(r))
		default:
			pending = true
		}

		if sb.Len() >= 2*maxSlugLength {
			break
		}
	}

	return strings.Trim(truncateSlug(sb.String()), "-")
}

func truncateSlug(slug string) string {
	if len(slug) <= maxSlugLength {
		return slug
	}

	slug = slug[:maxSlugLength]
	if i := strings.LastIndexByte(slug, '-'); i > maxSlugLength/2 {
		slug = slug[:i]
	}

	return slug
}

// SlugSource picks the text a slug is derived from: English first, then the
// default language, then whatever is available.
func SlugSource(text Text, defaultLang string) string {
	if v := text["en"]; strings.TrimSpace(v) != "" && Slugify(v) != "" {
		return v
	}
	if v := text[NormalizeCode(defaultLang)]; strings.TrimSpace(v) != "" {
		return v
	}

	return FirstAvailable(text)
}
