package security

import (
	"net/url"
	"strings"
)

// OriginGuard is a soft anti-hotlinking control: it blocks requests whose
// Referer/Origin does not resolve to a configured front-end origin. Any
// client that controls its own headers can spoof it; it only stops other
// websites from embedding protected images.
type OriginGuard struct {
	allowed map[string]struct{}
}

func NewOriginGuard(origins []string) *OriginGuard {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if normalized, ok := normalizeOrigin(origin); ok {
			allowed[normalized] = struct{}{}
		}
	}
	return &OriginGuard{allowed: allowed}
}

// Check accepts a Referer or Origin header value. The header is parsed and
// its scheme://host[:port] compared exactly against the allow-list; an absent
// header is always rejected.
func (g *OriginGuard) Check(refererOrOrigin string) bool {
	if refererOrOrigin == "" {
		return false
	}
	normalized, ok := normalizeOrigin(refererOrOrigin)
	if !ok {
		return false
	}
	_, found := g.allowed[normalized]
	return found
}

func normalizeOrigin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}
