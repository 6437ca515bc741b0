package parser

import (
	"testing"

	"github.com/busvas-search/internal/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzyFind(t *testing.T) {
	vocab := normalizer.DefaultSynonymTable().Vocabulary()

	testCases := []struct {
		name     string
		term     string
		expected string
		found    bool
	}{
		{"exact variant", "Baños", "banos_de_agua_santa", true},
		{"one typo", "Banos de Agua Sant", "banos_de_agua_santa", true},
		{"two typos", "bamos", "banos_de_agua_santa", true},
		{"canonical itself", "banos_de_agua_santa", "banos_de_agua_santa", true},
		{"too far", "Quito", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FuzzyFind(tc.term, vocab, 2)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFuzzyFind_TieBreak(t *testing.T) {
	vocab := []normalizer.VocabularyTerm{
		{Term: "xbcf", Canonical: "second"},
		{Term: "abcd", Canonical: "first"},
	}
	got, ok := FuzzyFind("abcf", vocab, 2)
	require.True(t, ok)
	assert.Equal(t, "first", got)
}
