package nmcli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinVersion is the oldest nmcli release whose terse output this package
// understands.
const MinVersion = "0.9.9.0"

var trailingZeros = regexp.MustCompile(`(\.0+)*$`)

// normalizeVersion strips trailing ".0" groups and distribution suffixes
// ("1.22.10-1ubuntu2") and returns the numeric segments.
func normalizeVersion(v string) ([]int, error) {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, "-+~ "); i >= 0 {
		v = v[:i]
	}
	v = trailingZeros.ReplaceAllString(v, "")
	if v == "" {
		return []int{0}, nil
	}
	parts := strings.Split(v, ".")
	segments := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", v, err)
		}
		segments[i] = n
	}
	return segments, nil
}

// CompareVersions compares two dotted version strings segment by segment.
// It returns -1, 0 or 1 when a is older than, equal to or newer than b.
// Trailing zero segments are insignificant: "0.9.9.0" equals "0.9.9".
func CompareVersions(a, b string) (int, error) {
	as, err := normalizeVersion(a)
	if err != nil {
		return 0, err
	}
	bs, err := normalizeVersion(b)
	if err != nil {
		return 0, err
	}
	for i := 0; i < len(as) && i < len(bs); i++ {
		switch {
		case as[i] < bs[i]:
			return -1, nil
		case as[i] > bs[i]:
			return 1, nil
		}
	}
	switch {
	case len(as) < len(bs):
		return -1, nil
	case len(as) > len(bs):
		return 1, nil
	}
	return 0, nil
}

// parseVersionOutput extracts the version from `nmcli --version` output,
// e.g. "nmcli tool, version 1.22.10".
func parseVersionOutput(out string) string {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
