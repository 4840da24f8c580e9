// Package i18n resolves multilingual fields.
//
// Every localized value returned by the API goes through Resolve, the single
// place that implements the fallback order:
// requested language, then default language, then first available, then "".
package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Text maps a language code to the localized string.
type Text map[string]string

// Resolve returns the localized value for lang.
func Resolve(text Text, lang, defaultLang string) string {
	if len(text) == 0 {
		return ""
	}

	for _, code := range []string{lang, BaseCode(lang), defaultLang} {
		if code == "" {
			continue
		}
		if v := strings.TrimSpace(text[NormalizeCode(code)]); v != "" {
			return text[NormalizeCode(code)]
		}
	}

	return FirstAvailable(text)
}

// FirstAvailable returns the value of the smallest language code that is not blank.
func FirstAvailable(text Text) string {
	codes := text.Codes()
	if len(codes) == 0 {
		return ""
	}

	return text[codes[0]]
}

// Codes returns the sorted codes having a non-blank value.
func (t Text) Codes() []string {
	codes := make([]string, 0, len(t))
	for code, v := range t {
		if strings.TrimSpace(v) != "" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	return codes
}

// Has reports whether lang has a non-blank value.
func (t Text) Has(lang string) bool {
	return strings.TrimSpace(t[NormalizeCode(lang)]) != ""
}

// Missing returns the langs that have no value, in the given order.
func (t Text) Missing(langs []string) (missing []string) {
	for _, lang := range langs {
		if !t.Has(lang) {
			missing = append(missing, NormalizeCode(lang))
		}
	}

	return missing
}

// Clone returns a copy of t.
func (t Text) Clone() Text {
	if t == nil {
		return nil
	}

	out := make(Text, len(t))
	for k, v := range t {
		out[k] = v
	}

	return out
}

// Clean normalizes codes, trims values and drops blank entries.
func Clean(text Text) Text {
	out := Text{}
	for code, v := range text {
		code = NormalizeCode(code)
		if v = strings.TrimSpace(v); code == "" || v == "" {
			continue
		}
		out[code] = v
	}

	return out
}

// Merge copies src values into dst; existing values are kept unless overwrite.
func Merge(dst, src Text, overwrite bool) Text {
	if dst == nil {
		dst = Text{}
	}
	for code, v := range Clean(src) {
		if !overwrite && dst.Has(code) {
			continue
		}
		dst[code] = v
	}

	return dst
}

// NormalizeCode lowercases a language tag and converts `_` to `-`.
func NormalizeCode(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "_", "-")
}

// BaseCode returns the primary subtag, `en-us` -> `en`.
func BaseCode(code string) string {
	code = NormalizeCode(code)
	if tag, err := language.Raw.Parse(code); err == nil {
		if base, _ := tag.Base(); base.String() != "und" {
			return base.String()
		}
	}
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}

	return code
}

// ValidCode reports whether code is a well-formed BCP-47 tag we accept:
// a 2-3 letter language, then up to 8 char lowercase alphanumeric subtags.
func ValidCode(code string) bool {
	code = NormalizeCode(code)
	if _, err := language.Raw.Parse(code); err != nil {
		return false
	}
	if len(code) < 2 || len(code) > 10 {
		return false
	}

	for i, part := range strings.Split(code, "-") {
		if part == "" || len(part) > 8 || (i == 0 && (len(part) < 2 || len(part) > 3)) {
			return false
		}
		for _, r := range part {
			if !(r >= 'a' && r <= 'z') && !(i > 0 && r >= '0' && r <= '9') {
				return false
			}
		}
	}

	return true
}

// ParseAcceptLanguage returns the language codes of an Accept-Language header
// ordered by quality, highest first. Malformed entries are skipped.
func ParseAcceptLanguage(header string) []string {
	type weighted struct {
		code string
		q    float32
	}

	var items []weighted
	for _, entry := range strings.Split(header, ",") {
		// one entry at a time, the parser rejects the whole list on a bad entry
		tags, qs, err := language.ParseAcceptLanguage(entry)
		if err != nil || len(tags) == 0 {
			continue
		}

		code := strings.TrimSpace(entry)
		if i := strings.IndexByte(code, ';'); i >= 0 {
			code = strings.TrimSpace(code[:i])
		}
		if code == "*" || !ValidCode(code) {
			continue
		}

		items = append(items, weighted{code: NormalizeCode(code), q: qs[0]})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].q > items[j].q
	})

	codes := make([]string, 0, len(items))
	for _, it := range items {
		codes = append(codes, it.code)
	}

	return codes
}
