package storage

import "testing"

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://www.reddit.com/r/dune", "reddit.com", true},
		{"http://sub.foo.example.co.uk/path", "example.co.uk", true},
		{"news.bbc.co.uk", "bbc.co.uk", true},
		{"http://localhost:8080/x", "localhost", true},
		{"http://127.0.0.1/x", "127.0.0.1", true},
		{"", "", false},
		{"not a url", "", false},
	}

	for _, tt := range tests {
		got, ok := RegistrableDomain(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("RegistrableDomain(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
