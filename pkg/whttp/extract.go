package whttp

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is the part of a document the classifiers look at.
type Page struct {
	Title string
	Text  string
}

// Elements whose content is never rendered as text.
var hiddenElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Svg:      true,
}

// Elements that start a new line of rendered text. Text inside any other
// element runs on from its neighbours, so Ar<b>rakis</b> reads "Arrakis".
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Caption: true, atom.Dd: true, atom.Details: true,
	atom.Dialog: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.Option: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Summary: true, atom.Table: true, atom.Tbody: true,
	atom.Td: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true,
	atom.Tr: true, atom.Ul: true, atom.Body: true, atom.Html: true,
}

// ExtractPage parses a complete HTML document and returns its title and
// visible text with whitespace collapsed.
func ExtractPage(body []byte) (Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Page{}, err
	}
	return PageFromNode(doc), nil
}

// PageFromNode extracts title and visible text from an already parsed tree.
func PageFromNode(doc *html.Node) Page {
	var p Page
	if title, ok := findTitle(doc); ok {
		p.Title = collapse(title)
	}

	var sb strings.Builder
	visibleText(doc, &sb)
	p.Text = collapse(sb.String())
	return p
}

func findTitle(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return sb.String(), true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title, ok := findTitle(c); ok {
			return title, true
		}
	}
	return "", false
}

func visibleText(n *html.Node, sb *strings.Builder) {
	block := false
	switch n.Type {
	case html.ElementNode:
		if hiddenElements[n.DataAtom] || hasHiddenAttr(n) {
			return
		}
		block = blockElements[n.DataAtom]
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	}

	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, sb)
	}
	if block {
		sb.WriteByte('\n')
	}
}

func hasHiddenAttr(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "hidden" {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.ToValidUTF8(strings.Join(strings.Fields(s), " "), "")
}
