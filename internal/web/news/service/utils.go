package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var (
	htmlTagRegexp    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegexp = regexp.MustCompile(`\s+`)
)

// RenderMarkdown render markdown to html, links open in a new tab
func RenderMarkdown(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

// Truncate truncate string to n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	var count int
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}

// PlainText strip html tags and collapse whitespace
func PlainText(s string) string {
	s = htmlTagRegexp.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRegexp.ReplaceAllString(s, " "))
}

// DeriveSummary first n runes of the plain text, cut at a word when possible
func DeriveSummary(content string, n int) string {
	text := PlainText(content)
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	cut := Truncate(text, n)
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
