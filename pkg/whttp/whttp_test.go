package whttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>
    Dune: Part Two
  </title>
  <style>.plot { color: red }</style>
  <script>var finale = "hidden";</script>
</head>
<body>
  <h1>Review</h1>
  <p>The   ending of
  Arrakis</p>
  <noscript>enable js for spoilers</noscript>
  <template><p>twist</p></template>
  <div hidden>secret death</div>
  <!-- comment about the leak -->
</body>
</html>`

func TestExtractPage(t *testing.T) {
	page, err := ExtractPage([]byte(samplePage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if page.Title != "Dune: Part Two" {
		t.Fatalf("unexpected title %q", page.Title)
	}
	if page.Text != "Review The ending of Arrakis" {
		t.Fatalf("unexpected text %q", page.Text)
	}
}

func TestExtractPageWithoutTitle(t *testing.T) {
	page, err := ExtractPage([]byte("<p>just text</p>"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if page.Title != "" || page.Text != "just text" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestExtractPageInlineAndBlockBoundaries(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   `<p>Ar<b>rakis</b> politics, <span>Break</span><span>ing Bad</span></p>`,
			want: "Arrakis politics, Breaking Bad",
		},
		{
			in:   `<div>Dune</div><div>Arrakis</div>`,
			want: "Dune Arrakis",
		},
		{
			in:   `<ul><li>one</li><li>two</li></ul><p>three<br>four</p>`,
			want: "one two three four",
		},
		{
			in:   `<table><tr><td>Red</td><td>Wedding</td></tr></table>`,
			want: "Red Wedding",
		},
		{
			in:   `<h2>Season</h2>finale <em>twist</em>ed`,
			want: "Season finale twisted",
		},
	}
	for _, tt := range tests {
		page, err := ExtractPage([]byte(tt.in))
		if err != nil {
			t.Fatalf("extract %q: %v", tt.in, err)
		}
		if page.Text != tt.want {
			t.Errorf("ExtractPage(%q).Text = %q, want %q", tt.in, page.Text, tt.want)
		}
	}
}

func TestIsHTML(t *testing.T) {
	tests := map[string]bool{
		"":                          true,
		"text/html":                 true,
		"text/html; charset=utf-8":  true,
		"TEXT/HTML":                 true,
		"application/xhtml+xml":     true,
		"application/json":          false,
		"image/png":                 false,
		"text/plain; charset=utf-8": false,
	}
	for ct, want := range tests {
		if got := IsHTML(ct); got != want {
			t.Errorf("IsHTML(%q) = %v, want %v", ct, got, want)
		}
	}
}

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	res, err := Fetch(context.Background(), nil, srv.URL+"/movie")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", res.StatusCode)
	}
	if res.FinalURL != srv.URL+"/movie" {
		t.Fatalf("unexpected final url %q", res.FinalURL)
	}
	if res.Title != "Dune: Part Two" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if gotUA != UserAgent {
		t.Fatalf("expected browser user agent, got %q", gotUA)
	}
}

func TestFetchSkipsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"<title>nope</title>"}`)
	}))
	defer srv.Close()

	res, err := Fetch(context.Background(), nil, srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Title != "" || res.Text != "" {
		t.Fatalf("expected empty page for json, got %+v", res.Page)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "<title>ok</title>")
	}))
	defer srv.Close()

	client := GetDefaultClient()
	client.RetryWaitMin = time.Millisecond
	client.RetryWaitMax = time.Millisecond

	res, err := Fetch(context.Background(), client, srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Title != "ok" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestSetupProxy(t *testing.T) {
	defer SetupProxy("")

	if err := SetupProxy("not a proxy"); err == nil {
		t.Fatalf("expected error for invalid proxy")
	}
	if err := SetupProxy("http://127.0.0.1:8080"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	tr, ok := GetDefaultClient().HTTPClient.Transport.(*http.Transport)
	if !ok || tr.Proxy == nil {
		t.Fatalf("expected proxied transport")
	}
}
