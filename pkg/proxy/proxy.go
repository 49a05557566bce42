// Package proxy is a forward HTTP proxy that keeps watched-show spoilers out
// of the pages a browser loads through it.
package proxy

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sw33tLie/spoilerguard/pkg/registry"
	"github.com/sw33tLie/spoilerguard/pkg/spoiler"
	"github.com/sw33tLie/spoilerguard/pkg/storage"
)

// Checker classifies navigations and pages against the watched shows.
type Checker interface {
	CheckURL(ctx context.Context, url string) spoiler.Result
	CheckPage(ctx context.Context, page spoiler.Page) spoiler.Result
	State(ctx context.Context) (registry.State, bool)
}

// Recorder stores interceptions.
type Recorder interface {
	LogInterception(ctx context.Context, in storage.Interception) (storage.Interception, error)
}

type Config struct {
	// BlockedURL is the address of the warning page, e.g.
	// http://127.0.0.1:7878/blocked.
	BlockedURL string

	Transport   http.RoundTripper // defaults to a clone of http.DefaultTransport
	DialTimeout time.Duration
	Bypass      *Bypass  // optional
	Recorder    Recorder // optional
	Logger      spoiler.Logger
}

type Proxy struct {
	checker Checker
	cfg     Config
	log     spoiler.Logger
	dialer  *net.Dialer
}

func New(checker Checker, cfg Config) *Proxy {
	if cfg.Transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = nil
		cfg.Transport = t
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Proxy{
		checker: checker,
		cfg:     cfg,
		log:     log,
		dialer:  &net.Dialer{Timeout: cfg.DialTimeout},
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		p.tunnel(w, r)
		return
	}
	if !r.URL.IsAbs() {
		http.Error(w, "spoilerguard proxy: absolute URL required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	target := r.URL.String()
	classify := IsTopLevelNavigation(r) && !p.cfg.Bypass.Consume(target)

	if classify {
		if res := p.checker.CheckURL(ctx, target); res.Matched {
			p.block(w, r, storage.SourceNavigation, target, res.ShowName)
			return
		}
	}

	out := r.Clone(ctx)
	out.RequestURI = ""
	removeHopHeaders(out.Header)
	if classify {
		// Let the transport negotiate gzip and decode it for us.
		out.Header.Del("Accept-Encoding")
	}

	resp, err := p.cfg.Transport.RoundTrip(out)
	if err != nil {
		p.log.Warnf("Upstream request to %s failed: %v", target, err)
		http.Error(w, "spoilerguard proxy: upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if classify && ShouldInspect(resp) {
		p.inspect(w, r, resp, target)
		return
	}
	copyResponse(w, resp, resp.Body)
}

// block sends the browser to the warning page and records the interception.
func (p *Proxy) block(w http.ResponseWriter, r *http.Request, source, target, showName string) {
	p.log.Infof("Blocked %s: possible spoiler for %q", target, showName)
	p.record(r.Context(), source, target, showName)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, spoiler.BlockedURL(p.cfg.BlockedURL, target, showName), http.StatusFound)
}

func (p *Proxy) record(ctx context.Context, source, target, showName string) {
	if p.cfg.Recorder == nil {
		return
	}
	_, err := p.cfg.Recorder.LogInterception(ctx, storage.Interception{
		Source:   source,
		URL:      target,
		ShowName: showName,
	})
	if err != nil {
		p.log.Warnf("Could not record interception of %s: %v", target, err)
	}
}

// tunnel relays a CONNECT request byte for byte. Encrypted traffic cannot be
// classified.
func (p *Proxy) tunnel(w http.ResponseWriter, r *http.Request) {
	upstream, err := p.dialer.DialContext(r.Context(), "tcp", r.Host)
	if err != nil {
		p.log.Warnf("CONNECT %s failed: %v", r.Host, err)
		http.Error(w, "spoilerguard proxy: upstream unavailable", http.StatusBadGateway)
		return
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		upstream.Close()
		http.Error(w, "spoilerguard proxy: tunneling not supported", http.StatusInternalServerError)
		return
	}
	client, buf, err := hj.Hijack()
	if err != nil {
		upstream.Close()
		p.log.Errorf("Hijack failed: %v", err)
		return
	}
	if _, err := client.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		client.Close()
		upstream.Close()
		return
	}

	p.log.Debugf("Tunneling to %s", r.Host)
	go relay(upstream, buf.Reader, client)
	go relay(client, upstream, upstream)
}

func relay(dst net.Conn, src io.Reader, srcConn net.Conn) {
	defer dst.Close()
	defer srcConn.Close()
	io.Copy(dst, src)
}

// IsTopLevelNavigation reports whether r loads a document into a browser tab
// rather than a frame or a sub-resource. Browsers that do not send Fetch
// Metadata are recognised by a GET accepting HTML.
func IsTopLevelNavigation(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Dest") {
	case "document":
		return true
	case "":
		return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
	default:
		return false
	}
}

var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func removeHopHeaders(h http.Header) {
	for _, f := range h.Values("Connection") {
		for _, name := range strings.Split(f, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

func copyResponse(w http.ResponseWriter, resp *http.Response, body io.Reader) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	removeHopHeaders(w.Header())
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, body)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}
