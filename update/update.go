// Package update checks GitHub releases for a newer murmur build and can
// swap the running binary in place.
package update

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

const (
	releaseRepo   = "sumerc/murmur"
	releaseBinary = "murmur"
)

// Release describes a published build newer than the one running.
type Release struct {
	Tag       string // release tag, e.g. "v0.3.1"
	BinaryURL string // download URL for this platform's binary
	SumsURL   string // download URL for checksums.txt, empty if absent
}

func platformAsset() string {
	return releaseBinary + "_" + runtime.GOOS + "_" + runtime.GOARCH
}

// parseVersion splits a tag like "v1.2.3-rc1" into its numeric parts.
// The leading "v" and any pre-release or build suffix are ignored.
func parseVersion(tag string) ([3]int, error) {
	var out [3]int
	s := strings.TrimPrefix(tag, "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return out, fmt.Errorf("malformed version %q", tag)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, fmt.Errorf("malformed version %q", tag)
		}
		out[i] = n
	}
	return out, nil
}

// NewerThan reports whether the release tag is strictly newer than
// current. Unparseable versions on either side count as not newer, so a
// dev build never nags.
func (r *Release) NewerThan(current string) bool {
	a, err := parseVersion(r.Tag)
	if err != nil {
		return false
	}
	b, err := parseVersion(current)
	if err != nil {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
