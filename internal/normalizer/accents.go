package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks: "Baños" → "Banos"
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// Transliterate maps whatever non-ASCII survives diacritic stripping
// ("ß", "œ", curly quotes) to its closest ASCII spelling.
func Transliterate(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return unidecode.Unidecode(s)
		}
	}
	return s
}

// RemoveAccentsAndLowercase strips diacritics and lower-cases
func RemoveAccentsAndLowercase(s string) string {
	return strings.ToLower(StripDiacritics(s))
}
