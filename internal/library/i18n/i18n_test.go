package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	text := Text{"en": "Hello", "hi": "नमस्ते", "ta": "  "}
	cases := []struct {
		name, lang, def, want string
	}{
		{"requested", "hi", "en", "नमस्ते"},
		{"region falls back to base", "en-IN", "hi", "Hello"},
		{"unsupported falls back to default", "fr", "en", "Hello"},
		{"blank counts as missing", "ta", "hi", "नमस्ते"},
		{"first available when default missing", "fr", "de", "Hello"},
		{"empty request", "", "hi", "नमस्ते"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, c.want, Resolve(text, c.lang, c.def))
		})
	}

	require.Equal(t, "", Resolve(nil, "en", "en"))
	require.Equal(t, "", Resolve(Text{"en": " "}, "en", "en"))
}

func TestTextHelpers(t *testing.T) {
	t.Parallel()

	text := Clean(Text{" EN ": " Title ", "hi": "", "pt_BR": "Título"})
	require.Equal(t, Text{"en": "Title", "pt-br": "Título"}, text)
	require.Equal(t, []string{"en", "pt-br"}, text.Codes())
	require.True(t, text.Has("EN"))
	require.Equal(t, []string{"hi", "ta"}, text.Missing([]string{"en", "hi", "ta"}))

	merged := Merge(Text{"en": "Keep"}, Text{"en": "Drop", "hi": "नया"}, false)
	require.Equal(t, Text{"en": "Keep", "hi": "नया"}, merged)
	merged = Merge(merged, Text{"en": "Replace"}, true)
	require.Equal(t, "Replace", merged["en"])
}

func TestCodes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "en", BaseCode("en-US"))
	require.Equal(t, "zh", BaseCode("zh_Hant"))
	require.Equal(t, "fil", BaseCode("fil-PH"))
	require.Equal(t, "zh-hant", NormalizeCode("zh_Hant"))
	for _, ok := range []string{"en", "hi", "en-us", "zh-hant", "fil"} {
		require.True(t, ValidCode(ok), ok)
	}
	for _, bad := range []string{"", "e", "english", "en--us", "12", "en-us-"} {
		require.False(t, ValidCode(bad), bad)
	}
}

func TestParseAcceptLanguage(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"hi-in", "hi", "en"},
		ParseAcceptLanguage("en;q=0.5, hi-IN, hi;q=0.9, *;q=0.1, xx-;q=1"))
	require.Empty(t, ParseAcceptLanguage(""))
	require.Empty(t, ParseAcceptLanguage("en;q=0, *"))
	require.Equal(t,
		[]string{"fr-ch", "fr", "en", "de"},
		ParseAcceptLanguage("fr-CH, fr;q=0.9, en;q=0.8, de;q=0.7, *;q=0.5"))
	require.Equal(t,
		[]string{"ta", "en"},
		ParseAcceptLanguage("en;q=0.2, en-us-;q=0.9, ta;q=0.8, hi;q=oops"))
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	require.Equal(t, "breaking-city-council-approves-budget", Slugify("  Breaking: City Council approves budget!! "))
	require.Equal(t, "cafe-creme", Slugify("Café Crème"))
	require.Equal(t, "", Slugify("नमस्ते दुनिया"))
	long := Slugify("a very long headline that keeps going and going well beyond any reasonable url length limit for slugs")
	require.LessOrEqual(t, len(long), maxSlugLength)
	require.NotEqual(t, byte('-'), long[len(long)-1])

	require.Equal(t, "Hello", SlugSource(Text{"en": "Hello", "hi": "नमस्ते"}, "hi"))
	require.Equal(t, "नमस्ते", SlugSource(Text{"en": "!!!", "hi": "नमस्ते"}, "hi"))
}
