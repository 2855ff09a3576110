package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// codeRange is one accepted HTTP status interval, inclusive on both ends.
// A single code is a range with Lo == Hi.
type codeRange struct {
	Lo, Hi int
}

// CodeSet is a parsed expected-status-code spec.
type CodeSet []codeRange

// ParseCodeSpec parses specs like "200-299", "200,301,404" or a mix of
// both ("200-299,304"). Whitespace around items is ignored.
func ParseCodeSpec(spec string) (CodeSet, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty status code spec")
	}
	var set CodeSet
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty entry in %q", spec)
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, err1 := parseCode(lo)
			b, err2 := parseCode(hi)
			if err1 != nil || err2 != nil || a > b {
				return nil, fmt.Errorf("bad range %q", part)
			}
			set = append(set, codeRange{Lo: a, Hi: b})
			continue
		}
		c, err := parseCode(part)
		if err != nil {
			return nil, fmt.Errorf("bad code %q", part)
		}
		set = append(set, codeRange{Lo: c, Hi: c})
	}
	return set, nil
}

func parseCode(s string) (int, error) {
	c, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if c < 100 || c > 599 {
		return 0, fmt.Errorf("status code %d out of range", c)
	}
	return c, nil
}

// Matches reports whether the status code is accepted by the set.
func (s CodeSet) Matches(code int) bool {
	for _, r := range s {
		if code >= r.Lo && code <= r.Hi {
			return true
		}
	}
	return false
}
