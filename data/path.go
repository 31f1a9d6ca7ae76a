package data

import (
	"path"
	"strings"

	"github.com/mwantia/webproducer/data/errors"
)

// ToAbsolutePath normalizes p into a cleaned, slash separated path
// that always starts with a leading slash.
func ToAbsolutePath(p string) (string, error) {
	if len(strings.TrimSpace(p)) == 0 {
		return "", errors.InvalidPath(nil, p)
	}

	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return path.Clean("/" + p), nil
}

// ToRelativePath removes base from p and returns the remaining path
// without leading slash. The second return value is false when p is
// not located under base.
func ToRelativePath(p, base string) (string, bool) {
	if base == "" || base == "/" {
		return strings.TrimPrefix(p, "/"), true
	}

	if p == base {
		return "", true
	}

	if !HasPrefix(p, base) {
		return "", false
	}

	return strings.TrimPrefix(p[len(base):], "/"), true
}

// HasPrefix checks if p is located under prefix on a path segment boundary.
// Both paths should be cleaned before calling.
func HasPrefix(p, prefix string) bool {
	// Root matches everything
	if prefix == "" || prefix == "/" {
		return true
	}

	// Exact match
	if p == prefix {
		return true
	}

	return strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/")
}

// ToKey turns a relative path or prefix into an object key without
// leading slash, as used by object storage and glob matching.
func ToKey(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	if p == "" || p == "." || p == "/" {
		return ""
	}

	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
