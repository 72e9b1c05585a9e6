package routing

import (
	"sort"
	"strings"
)

type Classifier struct {
	rules []AllowlistRule
}

// NewClassifier sorts rules longest-prefix-first so the most specific rule
// wins when prefixes nest.
func NewClassifier(rules []AllowlistRule) *Classifier {
	copied := make([]AllowlistRule, 0, len(rules))
	for _, rule := range rules {
		rule.Prefix = strings.TrimSpace(rule.Prefix)
		if rule.Prefix == "" {
			continue
		}
		copied = append(copied, rule)
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return len(copied[i].Prefix) > len(copied[j].Prefix)
	})

	return &Classifier{
		rules: copied,
	}
}

func (c *Classifier) MatchAllowlist(path string) (RouteClass, bool) {
	for _, rule := range c.rules {
		if HasPathPrefixOnBoundary(path, rule.Prefix) {
			return rule.Class, true
		}
	}
	return "", false
}

// Classify falls back to the built-in surface map when the allowlist has no
// rule: the admin API lives under /api/admin, the ops probes under /health
// and /debug. Everything else is unclassified and should fail a route gate.
func (c *Classifier) Classify(path string) (RouteClass, bool) {
	if class, ok := c.MatchAllowlist(path); ok {
		return class, true
	}

	if HasPathPrefixOnBoundary(path, "/api/admin") {
		return RouteClassAdminAPI, true
	}
	if HasPathPrefixOnBoundary(path, "/health") || HasPathPrefixOnBoundary(path, "/debug") {
		return RouteClassOps, true
	}
	return "", false
}

// HasPathPrefixOnBoundary matches prefixes on path segment boundaries, so
// /api/admin matches /api/admin/leads but not /api/administrators.
func HasPathPrefixOnBoundary(path, prefix string) bool {
	if prefix == "" {
		return false
	}

	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}

	if !strings.HasPrefix(path, prefix) {
		return false
	}

	if len(path) == len(prefix) {
		return true
	}

	if strings.HasSuffix(prefix, "/") {
		return true
	}

	return path[len(prefix)] == '/'
}
