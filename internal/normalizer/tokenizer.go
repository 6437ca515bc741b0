package normalizer

import "regexp"

var reTokenSplit = regexp.MustCompile(`[\s-]+`)

// Tokenize normalizes s and splits it on whitespace and hyphens. Single
// character tokens are dropped unless they are the only token.
func (tn *TextNormalizer) Tokenize(s string) []string {
	return SplitTokens(tn.Normalize(s))
}

// SplitTokens tokenizes an already normalized string.
func SplitTokens(normalized string) []string {
	if normalized == "" {
		return []string{}
	}
	parts := reTokenSplit.Split(normalized, -1)
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) <= 1 {
		return nonEmpty
	}
	tokens := make([]string, 0, len(nonEmpty))
	for _, p := range nonEmpty {
		if len(p) > 1 {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// CountMatches counts the elements of a, with multiplicity, that appear anywhere in b.
func CountMatches(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	n := 0
	for _, t := range a {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}
