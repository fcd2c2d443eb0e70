// Package linkurl resolves the links users submit with their posts.
package linkurl

import (
	"net/url"
	"strings"
	"unicode"
)

// DefaultScheme is prepended to links submitted without one.
const DefaultScheme = "http"

// Normalized is the resolved form of a submitted link. Host is empty when
// the link cannot be parsed.
type Normalized struct {
	FullURL string
	Host    string
}

// Normalize resolves raw into an absolute URL and its host. It never fails:
// input that cannot be parsed is returned as-is with an empty host.
func Normalize(raw string) Normalized {
	full := FullURL(raw)
	return Normalized{FullURL: full, Host: hostOf(full)}
}

// FullURL returns raw when it already carries a scheme, otherwise raw
// prefixed with the default scheme.
func FullURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Scheme != "" {
		return raw
	}
	return DefaultScheme + "://" + raw
}

// Host returns the host name of raw after normalization, or "" when it
// cannot be determined.
func Host(raw string) string {
	return hostOf(FullURL(raw))
}

func hostOf(full string) string {
	if hasSpace(full) {
		return ""
	}
	u, err := url.Parse(full)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// IsValid reports whether raw is an absolute http(s) URL or a schemeless
// reference such as "www.example.com/foo". Other schemes and input with
// embedded whitespace are rejected.
func IsValid(raw string) bool {
	if hasSpace(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		return true
	case "http", "https":
		return u.Opaque == "" && u.Host != ""
	default:
		return false
	}
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0
}
