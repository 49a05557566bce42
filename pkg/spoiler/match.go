// Package spoiler decides whether a URL or a rendered page is likely to
// reveal plot details of a watched show.
//
// Matching is plain case-insensitive substring containment: no tokenization
// and no word boundaries. A keyword that is a common word will match often.
package spoiler

import (
	"strings"

	"github.com/sw33tLie/spoilerguard/pkg/registry"
)

// Result is the outcome of a classification.
type Result struct {
	Matched  bool   `json:"matched"`
	ShowName string `json:"showName,omitempty"`
}

// NoMatch is the zero result.
var NoMatch = Result{}

// Matches reports whether any haystack contains the show's name or one of its
// keywords. Haystacks must already be lowercase.
func Matches(haystacks []string, show registry.Show) bool {
	return containsName(haystacks, show) || containsKeyword(haystacks, show)
}

func containsName(haystacks []string, show registry.Show) bool {
	name := strings.ToLower(show.Name)
	if name == "" {
		return false
	}
	return containsAny(haystacks, name)
}

func containsKeyword(haystacks []string, show registry.Show) bool {
	for _, k := range show.Keywords {
		k = strings.ToLower(k)
		if k == "" {
			continue
		}
		if containsAny(haystacks, k) {
			return true
		}
	}
	return false
}

func containsAny(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
