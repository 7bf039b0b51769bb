// Package ident maps resources to stable on-disk names and decides which
// resources are eligible for history tracking.
package ident

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DirName returns the stable directory name for a resource identifier.
// The name must not change across processes, or existing history would be
// orphaned.
func DirName(resource string) string {
	sum := sha1.Sum([]byte(resource))
	return hex.EncodeToString(sum[:])
}

// Path returns the filesystem path for a resource identifier, stripping
// a file scheme prefix if present.
func Path(resource string) string {
	return strings.TrimPrefix(resource, "file://")
}

// Matcher decides whether a resource is supported for persistence.
type Matcher struct {
	excludes []string
}

// NewMatcher creates a matcher with the given doublestar exclude patterns.
// Invalid patterns are rejected here so matching never fails later.
func NewMatcher(excludes []string) (*Matcher, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return &Matcher{excludes: excludes}, nil
}

// Supported reports whether history may be recorded for the resource.
// Empty and untitled (never saved) resources have no durable content to
// snapshot; excluded resources are opted out by configuration.
func (m *Matcher) Supported(resource string) bool {
	if strings.TrimSpace(resource) == "" {
		return false
	}
	if strings.HasPrefix(resource, "untitled:") {
		return false
	}

	path := resource
	if i := strings.Index(resource, "://"); i >= 0 {
		scheme := resource[:i]
		if scheme != "file" {
			return false
		}
		path = resource[i+len("://"):]
	}

	for _, pattern := range m.excludes {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return false
		}
	}

	return true
}
