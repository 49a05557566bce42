package spoiler

import (
	"net/url"
	"strings"
)

// Query parameters understood by the warning page.
const (
	ParamURL  = "url"
	ParamShow = "show"
)

// BlockedURL returns the warning page address for an intercepted URL, e.g.
// http://127.0.0.1:7878/blocked?url=https%3A%2F%2F...&show=Dune
func BlockedURL(base, originalURL, showName string) string {
	q := url.Values{}
	q.Set(ParamURL, originalURL)
	q.Set(ParamShow, showName)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
