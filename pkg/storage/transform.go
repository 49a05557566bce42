package storage

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// RegistrableDomain extracts the registrable domain of a page URL.
// e.g., "https://www.reddit.com/r/dune" -> "reddit.com", true
func RegistrableDomain(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	// url.Parse won't find a host without a scheme.
	if !strings.Contains(raw, "://") && strings.Contains(raw, ".") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(strings.Trim(u.Hostname(), "[]"))

	// IPs and single-label hosts (localhost) have no public suffix.
	if !strings.Contains(host, ".") || strings.Contains(host, ":") {
		return host, host != ""
	}
	if strings.Trim(host, "0123456789.") == "" {
		return host, true
	}

	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host, true
	}
	return domain, true
}
