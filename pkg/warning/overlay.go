package warning

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Element IDs of the injected overlay.
const (
	OverlayID      = "spoilerguard-overlay"
	OverlayStyleID = "spoilerguard-overlay-style"
)

// Overlay is the blocking modal placed over a page whose content matched.
// "Leave page" goes back in history, "Continue anyway" removes the modal.
func Overlay(showName string) g.Node {
	return g.Group([]g.Node{
		StyleEl(ID(OverlayStyleID), g.Raw(overlayCSS)),
		Div(ID(OverlayID),
			Div(Class("sg-warning"),
				H2(g.Text("Potential spoiler warning")),
				P(g.Text("This page may contain spoilers for: "), Strong(g.Text(showName))),
				Div(Class("sg-buttons"),
					Button(Class("sg-btn sg-btn-primary"), Type("button"),
						g.Attr("onclick", "history.back();"+removeJS), g.Text("Leave page")),
					Button(Class("sg-btn sg-btn-secondary"), Type("button"),
						g.Attr("onclick", removeJS), g.Text("Continue anyway")),
				),
			),
		),
	})
}

const removeJS = `document.getElementById('` + OverlayID + `').remove();`

// InjectOverlay places the overlay at the end of the document body. Any
// overlay already present is replaced, so a page is never covered twice.
func InjectOverlay(doc *goquery.Document, showName string) error {
	doc.Find("#" + OverlayID).Remove()
	doc.Find("#" + OverlayStyleID).Remove()

	var sb strings.Builder
	if err := Overlay(showName).Render(&sb); err != nil {
		return err
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Find("html")
	}
	body.First().AppendHtml(sb.String())
	return nil
}

const overlayCSS = `
#spoilerguard-overlay { position: fixed; top: 0; left: 0; width: 100%; height: 100%;
  background: rgba(0, 0, 0, 0.85); z-index: 2147483647; display: flex; align-items: center; justify-content: center;
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; }
#spoilerguard-overlay .sg-warning { background: #1a1a1a; border: 2px solid #ff6b6b; border-radius: 12px;
  padding: 2rem; max-width: 500px; box-shadow: 0 8px 32px rgba(0, 0, 0, 0.5); }
#spoilerguard-overlay h2 { color: #ff6b6b; margin: 0 0 1rem 0; font-size: 1.5rem; }
#spoilerguard-overlay p { color: #e0e0e0; margin: 0 0 1.5rem 0; line-height: 1.5; }
#spoilerguard-overlay strong { color: #ffd93d; }
#spoilerguard-overlay .sg-buttons { display: flex; gap: 1rem; justify-content: flex-end; }
#spoilerguard-overlay .sg-btn { padding: 0.75rem 1.5rem; border: none; border-radius: 6px; font-size: 1rem;
  cursor: pointer; font-weight: 600; }
#spoilerguard-overlay .sg-btn-primary { background: #ff6b6b; color: white; }
#spoilerguard-overlay .sg-btn-secondary { background: #4a4a4a; color: #e0e0e0; }
`
