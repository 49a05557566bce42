// Package whttp fetches pages and extracts the text a reader would see.
package whttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	DefaultRetries = 3
	DefaultTimeout = 20 * time.Second

	// MaxBodySize caps how much of a page is read for classification.
	MaxBodySize = 10 << 20
)

var (
	mu       sync.Mutex
	proxyURL *url.URL
	retries  = DefaultRetries
	timeout  = DefaultTimeout
)

// SetupProxy routes every client created afterwards through proxy. An empty
// string clears it.
func SetupProxy(proxy string) error {
	mu.Lock()
	defer mu.Unlock()

	if proxy == "" {
		proxyURL = nil
		return nil
	}
	u, err := url.Parse(proxy)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid proxy URL: %q", proxy)
	}
	proxyURL = u
	return nil
}

// SetRetryPolicy changes the retry count and per-attempt timeout of new clients.
func SetRetryPolicy(maxRetries int, perAttempt time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if maxRetries >= 0 {
		retries = maxRetries
	}
	if perAttempt > 0 {
		timeout = perAttempt
	}
}

// GetDefaultClient returns a retrying client honoring SetupProxy and
// SetRetryPolicy.
func GetDefaultClient() *retryablehttp.Client {
	mu.Lock()
	defer mu.Unlock()

	c := retryablehttp.NewClient()
	c.Logger = log.New(io.Discard, "", 0)
	c.RetryMax = retries
	c.HTTPClient.Timeout = timeout

	if proxyURL != nil {
		c.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return c
}

// Result is a fetched and extracted page.
type Result struct {
	StatusCode  int
	FinalURL    string
	ContentType string
	Page
}

// Fetch downloads url with browser-like headers and extracts its title and
// visible text. Non-HTML bodies come back with an empty Page.
func Fetch(ctx context.Context, client *retryablehttp.Client, rawURL string) (*Result, error) {
	if client == nil {
		client = GetDefaultClient()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Cache-Control", "no-transform")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("could not read body of %s: %w", rawURL, err)
	}

	res := &Result{
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if IsHTML(res.ContentType) {
		page, err := ExtractPage(body)
		if err != nil {
			return nil, err
		}
		res.Page = page
	}
	return res, nil
}

// IsHTML reports whether a Content-Type header denotes an HTML document. An
// empty header is treated as HTML.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
