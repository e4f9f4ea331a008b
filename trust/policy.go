// Package trust decides whether a URL's domain is pre-approved, letting the
// orchestrator skip remote lookups for known-benign hosts. The allowlist is
// injected configuration, not a package constant, so environments can swap it.
package trust

import (
	"net/url"
	"strings"

	"github.com/FastFilter/xorfilter"
	"github.com/cespare/xxhash/v2"
)

// Policy holds the normalized allowlist. An xor filter over the hashed
// entries rejects most candidate suffixes without touching the map; the map
// confirms hits, since xor filters admit false positives but never false
// negatives.
type Policy struct {
	domains map[string]struct{}
	filter  *xorfilter.Xor8
}

// NewPolicy builds a policy from allowlist entries. Entries are lowercased
// and stripped of a leading "www."; blanks and duplicates are dropped.
func NewPolicy(domains []string) *Policy {
	normalized := make(map[string]struct{}, len(domains))
	keys := make([]uint64, 0, len(domains))
	for _, domain := range domains {
		domain = normalizeDomain(domain)
		if domain == "" {
			continue
		}
		if _, ok := normalized[domain]; ok {
			continue
		}
		normalized[domain] = struct{}{}
		keys = append(keys, xxhash.Sum64String(domain))
	}

	p := &Policy{domains: normalized}
	if len(keys) > 0 {
		if filter, err := xorfilter.Populate(keys); err == nil {
			p.filter = filter
		}
	}
	return p
}

// Size returns the number of allowlisted domains.
func (p *Policy) Size() int {
	if p == nil {
		return 0
	}
	return len(p.domains)
}

// IsTrusted reports whether the URL's host equals, or is a subdomain of, an
// allowlisted domain. Hostname extraction failures mean not trusted; the
// caller falls through to remote checks instead of erroring.
//
// Matching compares whole DNS labels, so evilgoogle.com does not match a
// google.com entry the way a naive suffix check would.
func (p *Policy) IsTrusted(rawURL string) bool {
	if p == nil || len(p.domains) == 0 {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}

	labels := strings.Split(host, ".")
	for i := range labels {
		suffix := strings.Join(labels[i:], ".")
		if p.filter != nil && !p.filter.Contains(xxhash.Sum64String(suffix)) {
			continue
		}
		if _, ok := p.domains[suffix]; ok {
			return true
		}
	}
	return false
}

func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "www.")
	return strings.Trim(domain, ".")
}
