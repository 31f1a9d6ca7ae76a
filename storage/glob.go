package storage

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/mwantia/webproducer/data"
)

// Matcher filters slash separated keys against a set of doublestar patterns.
type Matcher struct {
	patterns []string
}

// NewMatcher normalizes patterns; leading "./" and "/" are dropped.
// Malformed patterns never match.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, pattern := range patterns {
		normalized := data.ToKey(pattern)
		if normalized == "" {
			continue
		}
		m.patterns = append(m.patterns, normalized)
	}

	return m
}

// Match reports whether key matches any pattern. A matcher without
// patterns matches everything.
func (m *Matcher) Match(key string) bool {
	if m == nil || len(m.patterns) == 0 {
		return true
	}

	for _, pattern := range m.patterns {
		if ok, _ := doublestar.Match(pattern, key); ok {
			return true
		}
	}

	return false
}

// Patterns returns the normalized patterns.
func (m *Matcher) Patterns() []string {
	return m.patterns
}

// Prefix returns the deepest directory shared by all patterns that contains
// no glob meta characters, so listing can start below the adapter root.
func (m *Matcher) Prefix() string {
	if m == nil || len(m.patterns) == 0 {
		return ""
	}

	var prefix []string
	for i, pattern := range m.patterns {
		dir := staticDir(pattern)
		if i == 0 {
			prefix = dir
			continue
		}

		n := 0
		for n < len(prefix) && n < len(dir) && prefix[n] == dir[n] {
			n++
		}
		prefix = prefix[:n]
	}

	return path.Join(prefix...)
}

func staticDir(pattern string) []string {
	segments := strings.Split(pattern, "/")

	var dir []string
	// The last segment names files, never a directory to start from
	for _, segment := range segments[:len(segments)-1] {
		if strings.ContainsAny(segment, "*?[{\\") {
			break
		}
		dir = append(dir, segment)
	}

	return dir
}
