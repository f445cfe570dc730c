package scraper

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CanonicalURL reduces a URL to scheme + host + path with the trailing
// slash stripped. Query strings and fragments are dropped. The result keys
// structured-data name lookups; visited-set identity is visitKey, which
// keeps the query string.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/")
}

// visitKey is the visited-set identity of a URL: like CanonicalURL but the
// query string survives, because query-based pagination (?page=N) must stay
// distinguishable. Fragments and trailing slashes are noise and dropped.
func visitKey(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	key := u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/")
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// SameDomain reports whether candidate belongs to the same site as base:
// its host must end with base's host, which tolerates subdomains.
func SameDomain(candidate, base string) bool {
	ch := hostOf(candidate)
	bh := hostOf(base)
	if ch == "" || bh == "" {
		return false
	}
	return strings.HasSuffix(ch, bh)
}

// RegistrableDomain returns the effective TLD+1 of a URL, falling back to
// the bare host and finally the raw input when the URL does not parse.
func RegistrableDomain(raw string) string {
	host := hostOf(raw)
	if host == "" {
		return raw
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// Absolutize resolves href against base. An empty href yields base itself.
func Absolutize(base, href string) string {
	if href == "" {
		return base
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}

// hostOf extracts the lowercased host of a URL with any port stripped.
func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
