package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Version identifies a patch (e.g., "9.3" or "0.0.1.77").
// Export directories are named after the canonical string form.
type Version struct {
	parts []int
}

// ParseVersion parses a dot-separated list of non-negative integers.
// Leading zeros are rejected so that a version always round-trips to the
// directory name it was parsed from.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("invalid version: empty string")
	}

	fields := strings.Split(s, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		if f == "" || (len(f) > 1 && f[0] == '0') || strings.Trim(f, "0123456789") != "" {
			return Version{}, fmt.Errorf("invalid version: %q", s)
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version: %q", s)
		}
		parts = append(parts, n)
	}

	return Version{parts: parts}, nil
}

// MustParseVersion is like ParseVersion but panics on error
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v is the zero Version
func (v Version) IsZero() bool {
	return len(v.parts) == 0
}

func (v Version) String() string {
	fields := make([]string, len(v.parts))
	for i, p := range v.parts {
		fields[i] = strconv.Itoa(p)
	}
	return strings.Join(fields, ".")
}

// Compare returns -1, 0 or +1. Segments are compared numerically; when one
// version is a prefix of the other, the shorter one sorts first.
func (v Version) Compare(o Version) int {
	for i := 0; i < len(v.parts) && i < len(o.parts); i++ {
		switch {
		case v.parts[i] < o.parts[i]:
			return -1
		case v.parts[i] > o.parts[i]:
			return 1
		}
	}
	switch {
	case len(v.parts) < len(o.parts):
		return -1
	case len(v.parts) > len(o.parts):
		return 1
	}
	return 0
}

// Less reports whether v sorts before o
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Equal reports whether v and o denote the same version
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}
