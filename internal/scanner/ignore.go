package scanner

import (
	"path"
	"strings"
)

// IgnorePattern is one line of an ignore file.
type IgnorePattern struct {
	raw      string
	base     string // directory holding the ignore file, "" for the root
	negate   bool
	dirOnly  bool
	anchored bool // matched from base rather than at any depth
	segments []string
}

// ParseIgnorePattern parses a gitignore-style line found in the directory
// base (relative to the scan root, "" for the root itself).
func ParseIgnorePattern(line, base string) IgnorePattern {
	p := IgnorePattern{raw: line, base: base}

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	// A slash in the middle anchors the pattern too.
	if strings.Contains(line, "/") {
		p.anchored = true
	}

	p.segments = strings.Split(line, "/")
	return p
}

// String returns the line the pattern was parsed from.
func (p IgnorePattern) String() string {
	return p.raw
}

// IsNegation reports whether the pattern re-includes what it matches.
func (p IgnorePattern) IsNegation() bool {
	return p.negate
}

// Match reports whether rel, a slash separated path from the scan root,
// matches. Directory patterns also match everything below the directory.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	if p.base != "" {
		if !strings.HasPrefix(rel, p.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, p.base+"/")
	}

	parts := strings.Split(rel, "/")

	// Try every prefix so that a matched directory covers its contents.
	for end := len(parts); end > 0; end-- {
		prefix := parts[:end]
		prefixIsDir := isDir || end < len(parts)
		if p.dirOnly && !prefixIsDir {
			continue
		}
		if p.anchored {
			if matchSegments(p.segments, prefix) {
				return true
			}
			continue
		}
		for start := 0; start < len(prefix); start++ {
			if matchSegments(p.segments, prefix[start:]) {
				return true
			}
		}
	}
	return false
}

// matchSegments matches pattern segments against path segments exactly,
// with "**" standing for any number of segments.
func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}
