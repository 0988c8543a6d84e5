// Package pattern compiles shell glob segments into anchored regular
// expressions. It mirrors the matching technique in mvdan.cc/sh/v3's
// pattern package (build a regexp.QuoteMeta'd string, anchor it, and
// reuse the stdlib regexp engine instead of hand-rolling a matcher)
// applied to the simpler `*`/`**`-only dialect described by the psh
// grammar, where `**`'s recursive-descent behavior is a directory-walk
// concern handled by the caller, not by the compiled regexp itself.
package pattern

import (
	"regexp"
	"strings"
)

// Piece is one constituent of a single path segment passed to Compile:
// either literal text or a `*` wildcard.
type Piece interface {
	piece()
}

// Literal is raw, to-be-escaped text.
type Literal string

func (Literal) piece() {}

// Wildcard is the `*` sentinel. In a file-match pattern it never spans
// a `/`; in a case-match pattern it matches any text.
type Wildcard struct{}

func (Wildcard) piece() {}

// CompileFileMatch compiles bits into a regexp for matching directory
// entry names, honoring the POSIX leading-dot rule: a wildcard at the
// very start of the segment does not match a name that begins with a
// literal `.`; a wildcard anywhere else matches freely within the
// segment (never across `/`, since bits are already one segment).
func CompileFileMatch(bits []Piece) *regexp.Regexp {
	return compile(bits, true)
}

// CompileCaseMatch compiles bits into a regexp for a `case` pattern
// clause, where a wildcard matches any text including a leading dot.
func CompileCaseMatch(bits []Piece) *regexp.Regexp {
	return compile(bits, false)
}

// compile translates bits into an anchored regexp. Go's regexp package
// is RE2-based and has no lookahead, so the POSIX leading-dot rule can't
// be bolted on as a zero-width assertion; it has to be baked into the
// leading wildcard's own character class instead. A wildcard at the very
// start normally compiles to an optional "(?:[^./][^/]*)?" (consume
// nothing, or consume text that itself doesn't start with a dot). That
// optional form is only correct when matching zero characters can't
// itself expose a `.` — which happens when the piece right after the
// wildcard is a literal starting with `.`. forcesDot detects that case
// so the wildcard is compiled as the non-optional form instead.
func compile(bits []Piece, leadingDotRule bool) *regexp.Regexp {
	var r strings.Builder
	r.WriteByte('^')
	for i, b := range bits {
		switch v := b.(type) {
		case Wildcard:
			switch {
			case leadingDotRule && i == 0 && forcesDot(bits):
				r.WriteString(`[^./][^/]*`)
			case leadingDotRule && i == 0:
				r.WriteString(`(?:[^./][^/]*)?`)
			case leadingDotRule:
				r.WriteString(`[^/]*`)
			default:
				r.WriteString(`.*`)
			}
		case Literal:
			r.WriteString(regexp.QuoteMeta(string(v)))
		}
	}
	r.WriteByte('$')
	return regexp.MustCompile(r.String())
}

// forcesDot reports whether a leading wildcard matching zero characters
// would leave a name starting with `.`, because the piece right after it
// is a literal that itself starts with `.`.
func forcesDot(bits []Piece) bool {
	if len(bits) < 2 {
		return false
	}
	lit, ok := bits[1].(Literal)
	return ok && strings.HasPrefix(string(lit), ".")
}
