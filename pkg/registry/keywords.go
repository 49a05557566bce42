package registry

import (
	"strings"
	"unicode/utf8"
)

// GenerateKeywords derives match keywords from a show name: every word longer
// than two characters, plus the joined and hyphenated forms of multi-word
// names. "Breaking Bad" -> breaking, bad, breakingbad, breaking-bad.
func GenerateKeywords(name string) []string {
	words := strings.Fields(strings.ToLower(name))

	keywords := make([]string, 0, len(words)+2)
	for _, w := range words {
		if utf8.RuneCountInString(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	if len(words) > 1 {
		keywords = append(keywords, strings.Join(words, ""), strings.Join(words, "-"))
	}
	return dedupe(keywords)
}

// NormalizeKeywords trims and lowercases keywords, dropping empties and
// duplicates. Order of first occurrence is kept.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return dedupe(out)
}

// ParseKeywordList parses the comma-separated keyword form, e.g. "arrakis, spice".
func ParseKeywordList(s string) []string {
	return NormalizeKeywords(strings.Split(s, ","))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
