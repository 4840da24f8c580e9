package translate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplitShort(t *testing.T) {
	t.Parallel()

	require.Nil(t, Split("", 10))
	require.Equal(t, []string{"short"}, Split("short", 10))
	require.Equal(t, []string{"no limit"}, Split("no limit", 0))
}

func TestSplitPrefersBoundaries(t *testing.T) {
	t.Parallel()

	text := "First paragraph is here.\n\nSecond paragraph. It has two sentences. And more words follow."
	chunks := Split(text, 40)
	require.Equal(t, text, strings.Join(chunks, ""))
	require.Equal(t, "First paragraph is here.\n\n", chunks[0])
	for _, c := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(c), 40)
	}
}

func TestSplitDevanagari(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("यह एक वाक्य है। ", 50)
	chunks := Split(text, 100)
	require.Greater(t, len(chunks), 1)
	require.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(c), 100)
		require.True(t, utf8.ValidString(c))
	}
}

func TestSplitLongWord(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 25)
	chunks := Split(text, 10)
	require.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}
