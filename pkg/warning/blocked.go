// Package warning renders what the user sees when a page is intercepted: the
// standalone warning page and the in-page overlay.
package warning

import (
	"net/url"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// ContinuePath is the local endpoint that grants a one-shot bypass.
const ContinuePath = "/continue"

// ContinueURL returns the link that lets the user through to originalURL.
func ContinueURL(originalURL string) string {
	return ContinuePath + "?" + url.Values{"url": {originalURL}}.Encode()
}

// BlockedPage is the warning page shown instead of an intercepted navigation.
func BlockedPage(originalURL, showName string) g.Node {
	if showName == "" {
		showName = "a watched show"
	}
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				Meta(Name("robots"), Content("noindex")),
				TitleEl(g.Text("Spoiler blocked - spoilerguard")),
				StyleEl(g.Raw(blockedCSS)),
			),
			Body(
				Div(Class("sg-card"),
					H1(g.Text("Potential spoiler blocked")),
					P(g.Text("This page may contain spoilers for: "), Strong(g.Text(showName))),
					g.If(originalURL != "",
						P(Class("sg-url"), Code(g.Text(originalURL))),
					),
					Div(Class("sg-buttons"),
						Button(Class("sg-btn sg-btn-primary"), Type("button"), g.Attr("onclick", "history.back()"), g.Text("Go back")),
						g.If(originalURL != "",
							A(Class("sg-btn sg-btn-secondary"), Href(ContinueURL(originalURL)), g.Text("Continue to page")),
						),
					),
				),
			),
		),
	})
}

const blockedCSS = `
body { margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center;
  background: #111; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; }
.sg-card { background: #1a1a1a; border: 2px solid #ff6b6b; border-radius: 12px; padding: 2rem; max-width: 560px; }
.sg-card h1 { color: #ff6b6b; margin: 0 0 1rem 0; font-size: 1.5rem; }
.sg-card p { color: #e0e0e0; line-height: 1.5; }
.sg-card strong { color: #ffd93d; }
.sg-url code { color: #9a9a9a; word-break: break-all; }
.sg-buttons { display: flex; gap: 1rem; justify-content: flex-end; margin-top: 1.5rem; }
.sg-btn { padding: 0.75rem 1.5rem; border: none; border-radius: 6px; font-size: 1rem; font-weight: 600;
  cursor: pointer; text-decoration: none; }
.sg-btn-primary { background: #ff6b6b; color: white; }
.sg-btn-secondary { background: #4a4a4a; color: #e0e0e0; }
`
