// Package regex provides the pattern-matching backends used by string
// assertions.
//
// Two backends exist. Regexp is the full RE2 engine from the standard
// library. Glob is a restricted matcher that only understands the '*' and
// '?' wildcards; it is a best-effort stand-in for environments where
// regular expressions are unwanted, and it does not try to reproduce RE2
// semantics for anything beyond those two wildcards.
package regex

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/match"
)

// CacheSize is the number of compiled patterns a Regexp matcher keeps.
const CacheSize = 256

// Matcher answers whether text matches a pattern.
type Matcher interface {
	// Matches reports whether the whole of s matches pattern.
	Matches(s, pattern string) (bool, error)
	// ContainsMatch reports whether any substring of s matches pattern.
	ContainsMatch(s, pattern string) (bool, error)
}

// SyntaxError reports a pattern the backend cannot compile.
type SyntaxError struct {
	Pattern string
	Err     error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type regexpMatcher struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// Regexp returns a Matcher backed by the regexp package.
func Regexp() Matcher {
	// New only fails for a non-positive size.
	cache, _ := lru.New[string, *regexp.Regexp](CacheSize)
	return &regexpMatcher{cache: cache}
}

func (m *regexpMatcher) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := m.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &SyntaxError{Pattern: pattern, Err: err}
	}
	m.cache.Add(pattern, re)
	return re, nil
}

func (m *regexpMatcher) Matches(s, pattern string) (bool, error) {
	if _, err := m.compile(pattern); err != nil {
		return false, err
	}
	re, err := m.compile(anchor(pattern))
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

func (m *regexpMatcher) ContainsMatch(s, pattern string) (bool, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

type globMatcher struct{}

// Glob returns the restricted wildcard Matcher.
func Glob() Matcher {
	return globMatcher{}
}

func (globMatcher) Matches(s, pattern string) (bool, error) {
	return match.Match(s, pattern), nil
}

func (globMatcher) ContainsMatch(s, pattern string) (bool, error) {
	return match.Match(s, "*"+pattern+"*"), nil
}

// ByName returns the matcher called name: "regexp" (or "") or "glob".
func ByName(name string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "regexp", "regex", "re2":
		return Regexp(), nil
	case "glob":
		return Glob(), nil
	default:
		return nil, fmt.Errorf("unknown matcher %q (use regexp or glob)", name)
	}
}

// FullMatch reports whether the whole of s matches re.
func FullMatch(re *regexp.Regexp, s string) bool {
	anchored, err := regexp.Compile(anchor(re.String()))
	if err != nil {
		// re compiled, so its anchored form does too.
		return false
	}
	return anchored.MatchString(s)
}

func anchor(pattern string) string {
	return `^(?:` + pattern + `)$`
}
