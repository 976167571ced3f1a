package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// Excerpt strips all HTML from content and truncates it to at most n runes,
// for listing previews.
func Excerpt(content string, n int) string {
	plain := strings.TrimSpace(stripper.Sanitize(content))
	runes := []rune(plain)
	if len(runes) <= n {
		return plain
	}
	return string(runes[:n])
}
