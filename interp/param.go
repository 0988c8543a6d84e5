package interp

import (
	"regexp"
)

// stripParam implements `${name#pattern}` and friends, per spec.md
// section 4.H and the worked examples in section 8: `#`/`%` strip the
// SHORTEST matching prefix/suffix, `##`/`%%` the LONGEST. Rather than
// lean on regexp greediness (ambiguous once `*` can appear anywhere,
// per the open question in spec.md section 9(b)), this tries each
// candidate split point directly against a fully anchored match of the
// pattern, which makes shortest-vs-longest an explicit search order
// instead of an emergent property of the regex engine.
func stripParam(value, op string, re *regexp.Regexp) string {
	switch op {
	case "#":
		for n := 0; n <= len(value); n++ {
			if re.MatchString(value[:n]) {
				return value[n:]
			}
		}
	case "##":
		for n := len(value); n >= 0; n-- {
			if re.MatchString(value[:n]) {
				return value[n:]
			}
		}
	case "%":
		for n := len(value); n >= 0; n-- {
			if re.MatchString(value[n:]) {
				return value[:n]
			}
		}
	case "%%":
		for n := 0; n <= len(value); n++ {
			if re.MatchString(value[n:]) {
				return value[:n]
			}
		}
	}
	return value
}
