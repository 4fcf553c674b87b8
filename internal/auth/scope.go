// Package auth is the authentication and authorization core of the management
// API: API token and session token managers, the HTTP-facing session
// operations, and the per-request dispatcher that gates every inbound call.
package auth

import (
	"errors"
	"regexp"
	"strings"
	"sync"
)

// ErrMalformedScope rejects an API token creation whose scope spec is invalid.
// Creation is all-or-nothing: one bad pair fails the whole request and nothing
// is stored.
var ErrMalformedScope = errors.New("malformed scope")

// ScopeSpec is one requested (path pattern, methods) pair as it arrives from
// the caller, before normalization.
type ScopeSpec struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// ScopeRule is a normalized scope: the pattern as given plus an upper-cased
// method set. Immutable after creation; revoke-and-recreate is the only
// update path.
type ScopeRule struct {
	Path    string
	Methods map[string]struct{}
}

// AllowsMethod reports whether the rule covers the HTTP method
// (case-insensitive).
func (s ScopeRule) AllowsMethod(method string) bool {
	_, ok := s.Methods[strings.ToUpper(method)]
	return ok
}

// PathMatcher decides whether a scope pattern covers a request path.
// Full-match semantics: anchoring is the matcher's job, not the caller's.
type PathMatcher interface {
	Matches(pattern, path string) bool
}

// RegexMatcher implements PathMatcher with compiled regular expressions.
// Patterns are treated as anchored at both ends; `^`/`$` are prepended and
// appended when the pattern omits them, so "/api/apps" never matches
// "/api/apps/1". Compilations are cached.
type RegexMatcher struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// NewRegexMatcher returns an empty matcher.
func NewRegexMatcher() *RegexMatcher {
	return &RegexMatcher{cache: make(map[string]*regexp.Regexp)}
}

// Matches reports whether pattern full-matches path. An uncompilable pattern
// matches nothing (fail-closed).
func (m *RegexMatcher) Matches(pattern, path string) bool {
	re, err := m.compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// Valid reports whether the pattern compiles. Used at token creation so a
// broken pattern is rejected up-front instead of silently matching nothing.
func (m *RegexMatcher) Valid(pattern string) bool {
	_, err := m.compile(pattern)
	return err == nil
}

func (m *RegexMatcher) compile(pattern string) (*regexp.Regexp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.cache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(anchor(pattern))
	if err != nil {
		return nil, err
	}
	m.cache[pattern] = re
	return re, nil
}

// anchor normalizes a pattern to full-match form.
func anchor(p string) string {
	if !strings.HasPrefix(p, "^") {
		p = "^" + p
	}
	if !strings.HasSuffix(p, "$") {
		p = p + "$"
	}
	return p
}

// parseScopes validates and normalizes a scope spec list. Every pair needs a
// non-empty path that compiles and at least one method; otherwise the whole
// parse fails with ErrMalformedScope.
func parseScopes(specs []ScopeSpec, matcher *RegexMatcher) ([]ScopeRule, error) {
	if len(specs) == 0 {
		return nil, ErrMalformedScope
	}
	rules := make([]ScopeRule, 0, len(specs))
	for _, s := range specs {
		if strings.TrimSpace(s.Path) == "" || len(s.Methods) == 0 {
			return nil, ErrMalformedScope
		}
		if matcher != nil && !matcher.Valid(s.Path) {
			return nil, ErrMalformedScope
		}
		methods := make(map[string]struct{}, len(s.Methods))
		for _, m := range s.Methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if m == "" {
				return nil, ErrMalformedScope
			}
			methods[m] = struct{}{}
		}
		rules = append(rules, ScopeRule{Path: s.Path, Methods: methods})
	}
	return rules, nil
}
