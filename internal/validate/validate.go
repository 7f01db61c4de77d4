package validate

import (
	"regexp"
	"strings"
)

var (
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSource = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._&-]{0,49}$`)
)

// ID validates a simple resource identifier (product/user ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Source validates a marketplace name such as "Amazon" or "GeM". Matching
// against stored sources is exact, so only surrounding whitespace is removed.
func Source(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSource.MatchString(s)
}

// Sources trims a configured priority list, dropping blanks, invalid names and duplicates.
func Sources(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s, ok := Source(s)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
