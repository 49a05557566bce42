package spoiler

// Indicators are words that suggest a page discusses plot. They only matter
// for pages that mention a watched show through a keyword rather than by name.
var Indicators = []string{
	"spoiler", "spoilers", "ending", "finale", "death", "dies",
	"killed", "reveal", "twist", "plot", "episode", "season",
	"review", "recap", "explained", "theory", "leak",
}

// hasIndicator reports whether any haystack contains one of the indicator words.
func hasIndicator(haystacks []string, indicators []string) bool {
	for _, ind := range indicators {
		if containsAny(haystacks, ind) {
			return true
		}
	}
	return false
}
