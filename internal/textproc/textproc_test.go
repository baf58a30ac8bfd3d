package textproc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"weblibrary/internal/textproc"
)

func TestTokenizeDropsStopwordsAndShortRuns(t *testing.T) {
	got := textproc.Tokenize("La memoria anual para el consejo: datos y más datos")
	require.Equal(t, []string{"memoria", "anual", "consejo", "datos", "datos"}, got)
}

func TestTokenizeKeepsDiacritics(t *testing.T) {
	got := textproc.Tokenize("resolución número cuarenta")
	require.Equal(t, []string{"resolución", "número", "cuarenta"}, got)
}

func TestExtractKeywordsOrdersByFrequency(t *testing.T) {
	text := "contrato contrato contrato licitación licitación proveedor"
	got := textproc.ExtractKeywords(text, 10)
	require.Equal(t, []string{"contrato", "licitación", "proveedor"}, got)
}

func TestExtractKeywordsTieBreaksByFirstOccurrence(t *testing.T) {
	// zorro and abeja both appear once; zorro appears first in the text and
	// must come first despite sorting after abeja alphabetically.
	text := "zorro abeja"
	got := textproc.ExtractKeywords(text, 2)
	require.Equal(t, []string{"zorro", "abeja"}, got)
}

func TestExtractKeywordsRespectsLimit(t *testing.T) {
	text := "alfa bravo charly delta echo foxtrot"
	got := textproc.ExtractKeywords(text, 3)
	require.Len(t, got, 3)
}

func TestExtractKeywordsNeverReturnsStopwords(t *testing.T) {
	text := "para para para para sobre sobre sobre entre entre contrato"
	got := textproc.ExtractKeywords(text, 10)
	require.Equal(t, []string{"contrato"}, got)
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	text := "norma decreto norma reglamento decreto resolución norma"
	first := textproc.ExtractKeywords(text, 5)
	for range 10 {
		require.Equal(t, first, textproc.ExtractKeywords(text, 5))
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	require.Nil(t, textproc.ExtractKeywords("", 5))
	require.Nil(t, textproc.ExtractKeywords("el la de", 5))
	require.Nil(t, textproc.ExtractKeywords("contrato", 0))
}

func TestSummarizeTakesLeadingSentences(t *testing.T) {
	text := "Primera frase. Segunda frase! Tercera frase? Cuarta frase."
	require.Equal(t, "Primera frase. Segunda frase!", textproc.Summarize(text, 2))
	require.Equal(t, "Primera frase.", textproc.Summarize(text, 1))
}

func TestSummarizeFewerSentencesThanRequested(t *testing.T) {
	require.Equal(t, "Única frase sin punto final", textproc.Summarize("Única frase sin punto final", 3))
}

func TestSummarizeCollapsesWhitespaceBetweenSentences(t *testing.T) {
	text := "Una frase.\n\nOtra frase.   Y la tercera."
	require.Equal(t, "Una frase. Otra frase. Y la tercera.", textproc.Summarize(text, 3))
}

func TestSummarizeEmpty(t *testing.T) {
	require.Equal(t, "", textproc.Summarize("", 3))
	require.Equal(t, "", textproc.Summarize("   \n ", 3))
	require.Equal(t, "", textproc.Summarize("Algo.", 0))
}
