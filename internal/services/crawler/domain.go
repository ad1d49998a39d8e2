package crawler

import (
	"net/url"
	"strings"
)

// NormalizeDomain lowercases a host and drops a leading "www."
func NormalizeDomain(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// SameDomain reports whether two URLs share a host once "www." is ignored
func SameDomain(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return NormalizeDomain(ua.Host) == NormalizeDomain(ub.Host)
}

// IsValidURL requires both a scheme and a host
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// extractDomain parses the domain from a URL
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return NormalizeDomain(u.Host)
}
