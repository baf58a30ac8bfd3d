package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyntaxErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "fts5 parse error", err: errors.New(`SQL logic error: fts5: syntax error near "("`), want: true},
		{name: "unterminated string", err: errors.New("unterminated string"), want: true},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "wrapped cancellation", err: fmt.Errorf("query: %w", context.Canceled), want: false},
		{name: "storage failure", err: errors.New("disk I/O error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, syntaxError(tt.err))
		})
	}
}

func TestOrQueryJoinsTerms(t *testing.T) {
	require.Equal(t, "uno OR dos OR tres", orQuery("  uno  dos\ttres "))
	require.Equal(t, "solo", orQuery("solo"))
}

func TestLiteralQueryEscapesQuotes(t *testing.T) {
	require.Equal(t, `"sin comillas"`, literalQuery("sin comillas"))
	require.Equal(t, `"dice ""hola"" aquí"`, literalQuery(`dice "hola" aquí`))
}
