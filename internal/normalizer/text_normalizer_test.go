package normalizer

import (
	"context"
	"errors"
	"testing"

	"github.com/busvas-search/app/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalizeBasic(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only spaces", "   \t ", ""},
		{"diacritics", "Baños de Agua Santa", "banos de agua santa"},
		{"enye", "Cañar", "canar"},
		{"unicode dashes", "Guayaquil – Quito", "guayaquil quito"},
		{"ascii dash kept", "Guayaquil - Quito", "guayaquil - quito"},
		{"punctuation", "Quito (Quitumbe), Terminal/Norte", "quito quitumbe terminal norte"},
		{"ampersand", "Trans Esmeraldas & Co", "trans esmeraldas and co"},
		{"stray symbols", "¡Ambato!  #1", "ambato 1"},
		{"transliteration", "Straße", "strasse"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeBasic(tc.input))
		})
	}
}

func TestTextNormalizer_Synonyms(t *testing.T) {
	n := NewTextNormalizer(nil)

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"full name", "Baños de Agua Santa", "banos_de_agua_santa"},
		{"short name", "Baños", "banos_de_agua_santa"},
		{"partial name", "banos de agua", "banos_de_agua_santa"},
		{"inside sentence", "Ambato a Baños hoy", "ambato a banos_de_agua_santa hoy"},
		{"not a whole word", "banosx", "banosx"},
		{"untouched", "Riobamba", "riobamba"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, n.Normalize(tc.input))
		})
	}
}

func TestTextNormalizer_Idempotent(t *testing.T) {
	n := NewTextNormalizer(nil)
	inputs := []string{
		"", "Baños de Agua Santa", "Guayaquil – Quito", "QUITO (Quitumbe)",
		"Santo Domingo de los Tsáchilas", "A & B", "banos_de_agua_santa",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestSynonymTable_LongestVariantFirst(t *testing.T) {
	table := NewSynonymTable([]models.SynonymEntry{
		{Canonical: "Santo Domingo", Variants: []string{"santo domingo de los colorados", "santo domingo"}},
		{Canonical: "Colorados", Variants: []string{"colorados"}},
	})
	n := NewTextNormalizer(table)

	assert.Equal(t, "santo_domingo", n.Normalize("Santo Domingo de los Colorados"))
	assert.Equal(t, "colorados", n.Normalize("Colorados"))
}

func TestSynonymTable_LastEntryWins(t *testing.T) {
	table := NewSynonymTable([]models.SynonymEntry{
		{Canonical: "first", Variants: []string{"Puyo"}},
		{Canonical: "second", Variants: []string{"puyo"}},
	})

	canonical, ok := table.Canonical("puyo")
	assert.True(t, ok)
	assert.Equal(t, "second", canonical)
	assert.Equal(t, 1, table.Len())
}

func TestSynonymTable_Vocabulary(t *testing.T) {
	vocab := DefaultSynonymTable().Vocabulary()

	assert.Len(t, vocab, 6)
	assert.Equal(t, VocabularyTerm{Term: "banos_de_agua_santa", Canonical: "banos_de_agua_santa"}, vocab[0])
	for _, v := range vocab {
		assert.Equal(t, "banos_de_agua_santa", v.Canonical)
	}
}

func TestCanonicalToken(t *testing.T) {
	assert.Equal(t, "banos_de_agua_santa", CanonicalToken("  Banos de  Agua Santa "))
	assert.Equal(t, "", CanonicalToken("   "))
}

type stubSource struct {
	entries []models.SynonymEntry
	err     error
}

func (s stubSource) LoadSynonyms(ctx context.Context, location string) ([]models.SynonymEntry, error) {
	return s.entries, s.err
}

func TestTextNormalizer_LoadSynonyms(t *testing.T) {
	logger := zap.NewNop()

	t.Run("failure keeps default", func(t *testing.T) {
		n := NewTextNormalizer(nil)
		ok := n.LoadSynonyms(context.Background(), stubSource{err: errors.New("404")}, "/sinonimos.json", logger)
		assert.False(t, ok)
		assert.Equal(t, "banos_de_agua_santa", n.Normalize("baños"))
	})

	t.Run("success replaces table", func(t *testing.T) {
		n := NewTextNormalizer(nil)
		src := stubSource{entries: []models.SynonymEntry{{Canonical: "quito", Variants: []string{"uio", "san francisco de quito"}}}}
		ok := n.LoadSynonyms(context.Background(), src, "/sinonimos.json", logger)
		assert.True(t, ok)
		assert.Equal(t, "quito", n.Normalize("San Francisco de Quito"))
		// no merge with the previous table
		assert.Equal(t, "banos", n.Normalize("baños"))
	})
}

func TestRemoveAccentsAndLowercase(t *testing.T) {
	assert.Equal(t, "banos de agua santa", RemoveAccentsAndLowercase("Baños de Agua Santa"))
	assert.Equal(t, "carcelen", RemoveAccentsAndLowercase("CARCELÉN"))
	assert.Equal(t, "", RemoveAccentsAndLowercase(""))
}
