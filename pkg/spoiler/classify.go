package spoiler

import (
	"strings"

	"github.com/sw33tLie/spoilerguard/pkg/registry"
)

// Page is the rendered content of a loaded document.
type Page struct {
	Title string
	URL   string
	Text  string
}

// ClassifyNavigation checks a top-level navigation target against the
// watched shows. The first show, in registry order, whose name or keyword
// appears in the URL wins.
func ClassifyNavigation(url string, st registry.State) Result {
	if !st.Enabled || len(st.Shows) == 0 {
		return NoMatch
	}

	haystack := []string{strings.ToLower(url)}
	for _, show := range st.Shows {
		if Matches(haystack, show) {
			return Result{Matched: true, ShowName: show.Name}
		}
	}
	return NoMatch
}

// ClassifyContent checks a loaded page. A show matches when its name appears
// anywhere in the text, title or URL, or when one of its keywords does and the
// text or title also carries an indicator word.
func ClassifyContent(page Page, st registry.State) Result {
	if !st.Enabled || len(st.Shows) == 0 {
		return NoMatch
	}

	text := strings.ToLower(page.Text)
	title := strings.ToLower(page.Title)
	url := strings.ToLower(page.URL)

	all := []string{text, title, url}
	visible := []string{text, title}

	for _, show := range st.Shows {
		if !Matches(all, show) {
			continue
		}
		if containsName(all, show) || hasIndicator(visible, Indicators) {
			return Result{Matched: true, ShowName: show.Name}
		}
	}
	return NoMatch
}
