package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// sentenceEnds are the runes a sentence may end with, including the Devanagari danda.
const sentenceEnds = ".!?।。！？"

// Split cuts text into chunks of at most max runes.
//
// It prefers paragraph boundaries, then sentence ends, then whitespace, and
// only cuts inside a word when a single word is longer than max.
// Joining the chunks with "" gives back text.
func Split(text string, max int) []string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	rest := text
	for utf8.RuneCountInString(rest) > max {
		cut := cutPoint(rest, max)
		chunks = append(chunks, rest[:cut])
		rest = rest[cut:]
	}
	if rest != "" {
		chunks = append(chunks, rest)
	}

	return chunks
}

// cutPoint returns a byte offset <= the first max runes of s to cut at.
func cutPoint(s string, max int) int {
	limit := byteOffset(s, max)
	window := s[:limit]

	if i := strings.LastIndex(window, "\n\n"); i > limit/4 {
		return i + 2
	}
	if i := strings.LastIndexByte(window, '\n'); i > limit/4 {
		return i + 1
	}
	if i := lastSentenceEnd(window); i > limit/4 {
		return i
	}
	if i := strings.LastIndexFunc(window, unicode.IsSpace); i > 0 {
		_, size := utf8.DecodeRuneInString(window[i:])
		return i + size
	}

	return limit
}

// lastSentenceEnd returns the byte offset right after the last sentence end
// followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	best := -1
	for i, r := range s {
		if !strings.ContainsRune(sentenceEnds, r) {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(s) {
			nr, _ := utf8.DecodeRuneInString(s[next:])
			if unicode.IsSpace(nr) {
				best = next + utf8.RuneLen(nr)
			}
		}
	}

	return best
}

func byteOffset(s string, runes int) int {
	n := 0
	for i := range s {
		if n == runes {
			return i
		}
		n++
	}

	return len(s)
}
