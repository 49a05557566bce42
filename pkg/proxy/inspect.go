package proxy

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sw33tLie/spoilerguard/pkg/registry"
	"github.com/sw33tLie/spoilerguard/pkg/spoiler"
	"github.com/sw33tLie/spoilerguard/pkg/storage"
	"github.com/sw33tLie/spoilerguard/pkg/warning"
	"github.com/sw33tLie/spoilerguard/pkg/whttp"
)

// MaxInspectSize caps the body read for content classification. Larger pages
// are passed through untouched.
const MaxInspectSize = 8 << 20

// ShouldInspect reports whether resp is a successful HTML document in an
// encoding the proxy can read.
func ShouldInspect(resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.StatusCode == http.StatusNoContent {
		return false
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" || !whttp.IsHTML(ct) {
		return false
	}
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "", "identity", "gzip":
		return true
	default:
		return false
	}
}

// inspect reads the whole document, classifies it and serves it either
// unchanged, with the overlay injected, or as a redirect to the warning page.
func (p *Proxy) inspect(w http.ResponseWriter, r *http.Request, resp *http.Response, target string) {
	ctx := r.Context()

	body, complete, err := readBody(resp)
	if err != nil {
		p.log.Warnf("Could not read %s: %v", target, err)
		http.Error(w, "spoilerguard proxy: could not read upstream response", http.StatusBadGateway)
		return
	}
	if !complete {
		p.log.Debugf("Not inspecting %s: larger than %d bytes", target, MaxInspectSize)
		serveBody(w, resp, io.MultiReader(bytes.NewReader(body), resp.Body), -1)
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		p.log.Debugf("Not inspecting %s: %v", target, err)
		serveBody(w, resp, bytes.NewReader(body), len(body))
		return
	}

	extracted := whttp.PageFromNode(doc.Nodes[0])
	res := p.checker.CheckPage(ctx, spoiler.Page{Title: extracted.Title, URL: target, Text: extracted.Text})
	if !res.Matched {
		serveBody(w, resp, bytes.NewReader(body), len(body))
		return
	}

	st, _ := p.checker.State(ctx)
	if st.BlockingMode == registry.ModeRedirect {
		p.block(w, r, storage.SourceContent, target, res.ShowName)
		return
	}

	if err := warning.InjectOverlay(doc, res.ShowName); err != nil {
		p.log.Errorf("Could not build overlay for %s: %v", target, err)
		serveBody(w, resp, bytes.NewReader(body), len(body))
		return
	}
	out, err := doc.Html()
	if err != nil {
		p.log.Errorf("Could not render %s: %v", target, err)
		serveBody(w, resp, bytes.NewReader(body), len(body))
		return
	}

	p.log.Infof("Covered %s: possible spoiler for %q", target, res.ShowName)
	p.record(ctx, storage.SourceContent, target, res.ShowName)
	resp.Header.Set("Cache-Control", "no-store")
	serveBody(w, resp, strings.NewReader(out), len(out))
}

// readBody returns the decoded body. complete is false when the body is
// larger than MaxInspectSize, in which case only the first part is returned
// and the rest is left in resp.Body.
func readBody(resp *http.Response) (body []byte, complete bool, err error) {
	src := resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("gzip: %w", err)
		}
		resp.Body = struct {
			io.Reader
			io.Closer
		}{zr, resp.Body}
		resp.Header.Del("Content-Encoding")
		src = resp.Body
	}

	body, err = io.ReadAll(io.LimitReader(src, MaxInspectSize+1))
	if err != nil {
		return nil, false, err
	}
	if len(body) > MaxInspectSize {
		return body, false, nil
	}
	return body, true, nil
}

// serveBody writes resp's status and headers with a replacement body. size
// is the body length, or -1 when unknown.
func serveBody(w http.ResponseWriter, resp *http.Response, body io.Reader, size int) {
	resp.Header.Del("Content-Length")
	resp.Header.Del("Content-Encoding")
	if size >= 0 {
		resp.Header.Set("Content-Length", strconv.Itoa(size))
	}
	copyResponse(w, resp, body)
}
