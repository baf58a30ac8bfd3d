// Package textproc derives keyword lists and extractive summaries from
// document text. The corpus is predominantly Spanish with English passages,
// so the stopword set covers Spanish function words and tokenization accepts
// accented letters.
package textproc

import (
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[A-Za-zÁÉÍÓÚÜÑáéíóúüñ]{4,}`)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"de", "la", "que", "el", "en", "y", "a", "los", "del", "se", "las", "por", "un", "para",
		"con", "no", "una", "su", "al", "lo", "como", "más", "pero", "sus", "le", "ya", "o",
		"fue", "ha", "sí", "porque", "entre", "cuando", "muy", "sin", "sobre", "también", "me",
		"hasta", "hay", "donde", "quien", "desde", "todo", "nos", "durante", "todos",
		"uno", "les", "ni", "contra", "otros", "ese", "eso", "ante", "ellos", "e", "esto",
		"mí", "antes", "algunos", "qué", "unos", "yo", "otro", "otras", "otra", "él",
	} {
		stopwords[w] = struct{}{}
	}
}

// Tokenize lowercases the text and returns runs of 4+ alphabetic characters
// (diacritics included) that are not stopwords, in source order.
func Tokenize(text string) []string {
	matches := tokenPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		t := strings.ToLower(m)
		if _, skip := stopwords[t]; skip {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// ExtractKeywords returns up to topN tokens ordered by descending frequency.
// Ties break by first occurrence in the text, so identical input always
// yields identical output.
func ExtractKeywords(text string, topN int) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 || topN <= 0 {
		return nil
	}

	freq := make(map[string]int, len(tokens))
	first := make(map[string]int, len(tokens))
	for i, t := range tokens {
		if _, ok := first[t]; !ok {
			first[t] = i
		}
		freq[t]++
	}

	unique := make([]string, 0, len(freq))
	for t := range freq {
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool {
		if freq[unique[i]] == freq[unique[j]] {
			return first[unique[i]] < first[unique[j]]
		}
		return freq[unique[i]] > freq[unique[j]]
	})

	if topN > len(unique) {
		topN = len(unique)
	}
	return unique[:topN]
}

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// Summarize returns the first maxSentences sentences joined by single
// spaces. Sentence boundaries are positional ('.', '!' or '?' followed by
// whitespace); nothing semantic.
func Summarize(text string, maxSentences int) string {
	text = strings.TrimSpace(text)
	if text == "" || maxSentences <= 0 {
		return ""
	}

	var sentences []string
	rest := text
	for len(sentences) < maxSentences {
		loc := sentenceEnd.FindStringIndex(rest)
		if loc == nil {
			if s := strings.TrimSpace(rest); s != "" {
				sentences = append(sentences, s)
			}
			break
		}
		head := strings.TrimSpace(rest[:loc[0]] + strings.TrimRight(rest[loc[0]:loc[1]], " \t\r\n"))
		if head != "" {
			sentences = append(sentences, head)
		}
		rest = rest[loc[1]:]
	}

	return strings.Join(sentences, " ")
}
