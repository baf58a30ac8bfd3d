package search

import (
	"regexp"
	"strings"
	"unicode"
)

var termPattern = regexp.MustCompile(`[\p{L}\p{N}]{3,}`)

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// buildExcerpt cuts a window of at most maxLen runes around the first
// occurrence of any query term in the chunk text. The window starts a third
// of its width before the hit so the matched term sits inside it, is
// clipped to the text bounds, and carries an ellipsis on each clipped side.
// When no term occurs the window covers the start of the text.
func buildExcerpt(text, query string, maxLen int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	runes := []rune(text)
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	hit := 0
	for _, term := range queryTerms(query) {
		if pos := runeIndex(lower, []rune(term)); pos >= 0 {
			hit = pos
			break
		}
	}

	start := hit - maxLen/3
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > len(runes) {
		end = len(runes)
	}

	slice := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		slice = "…" + slice
	}
	if end < len(runes) {
		slice += "…"
	}

	return lineBreaks.Replace(slice)
}

// queryTerms extracts the deduplicated lowercase search terms (3+
// alphanumeric runes) from a raw query.
func queryTerms(query string) []string {
	matches := termPattern.FindAllString(strings.ToLower(query), -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		terms = append(terms, m)
	}
	return terms
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
