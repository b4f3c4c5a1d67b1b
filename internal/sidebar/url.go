package sidebar

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultIndexName is the resource a directory URL resolves to.
const DefaultIndexName = "index.html"

var absoluteURL = regexp.MustCompile(`^(?:[a-z+]+:)?//`)

// CanonicalURL strips the fragment and query from raw and maps a directory
// URL onto its index resource. A bare host has the path "/".
func CanonicalURL(raw, indexName string) string {
	if indexName == "" {
		indexName = DefaultIndexName
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" && u.Path == "" && u.Opaque == "" {
		raw += "/"
	}
	if strings.HasSuffix(raw, "/") {
		raw += indexName
	}
	return raw
}

// IsRelative reports whether href should be prefixed with the base path:
// it is neither an in-page fragment nor an absolute or scheme-relative URL.
func IsRelative(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	return !absoluteURL.MatchString(href)
}

// PathToRoot returns the prefix that leads from pagePath back to the book
// root, one "../" per directory level.
func PathToRoot(pagePath string) string {
	pagePath = strings.TrimPrefix(CanonicalURL(pagePath, ""), "/")
	depth := strings.Count(pagePath, "/")
	return strings.Repeat("../", depth)
}

// resolve returns ref as an absolute URL relative to base, the way a
// browser reports an anchor's href property.
func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
