// The fetch interceptor: network-first resolution with cache fallback.
package fetch

import "strings"

// Rule decides whether a URL path may be cached. The same rule governs the
// write-through and lookup classification paths, so the two never disagree.
type Rule struct {
	// APIPrefix is the route prefix for API calls, e.g. "/api/".
	APIPrefix string
}

// Cacheable reports whether the response for path may be stored. Excluded
// are paths under the API prefix, paths naming an HTML page, and the site
// root; that content changes too often to serve stale. The three exclusions
// are the whole contract.
func (r Rule) Cacheable(path string) bool {
	if path == "/" {
		return false
	}
	if r.APIPrefix != "" && strings.HasPrefix(path, r.APIPrefix) {
		return false
	}
	if strings.HasSuffix(path, ".html") {
		return false
	}
	return true
}
