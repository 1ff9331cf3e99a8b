package catalog

import (
	"errors"
	"net/url"
	"strings"
)

// Path segments that mark the next segment as a first-class product
// identifier. Both Kilimall-style /listing/<id> and Shopify-style
// /product/<slug> pages are covered.
var productPathMarkers = map[string]bool{
	"listing":  true,
	"product":  true,
	"products": true,
}

// DeriveKey computes the canonical dedup identity for a product URL.
//
// Pagination strategies surface the same product under different query
// parameters (sort order, page index, offset), so the query is dropped
// entirely. The host is lower-cased and a trailing slash is trimmed. When the
// path carries a product identifier segment, the key collapses to
// host + marker + identifier so the same product matches regardless of any
// path prefix noise.
func DeriveKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &MalformedInputError{Input: raw, Err: errors.New("empty url")}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &MalformedInputError{Input: raw, Err: err}
	}

	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	if path == "" && host == "" {
		return "", &MalformedInputError{Input: raw, Err: errors.New("no host or path")}
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		// Relative fragments like "listing/123" cannot be trusted as identity.
		return "", &MalformedInputError{Input: raw, Err: errors.New("path is not absolute")}
	}

	if marker, id, ok := productIdentifier(path); ok {
		return host + "/" + marker + "/" + id, nil
	}

	return host + path, nil
}

// productIdentifier scans the path for a marker segment followed by a
// non-empty identifier.
func productIdentifier(path string) (marker, id string, ok bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if productPathMarkers[strings.ToLower(seg)] && i+1 < len(segments) && segments[i+1] != "" {
			return strings.ToLower(seg), segments[i+1], true
		}
	}
	return "", "", false
}
