package syntax

import (
	"regexp"

	"github.com/jan-g/psh/notes"
)

// ParseError reports where and why a parse failed. The byte offset lets
// a caller such as a line editor position a cursor at the failure.
type ParseError struct {
	Pos   int
	Label string
}

func (e *ParseError) Error() string {
	return e.Label
}

// parser is the backtracking cursor threaded through the grammar: a
// source string, a byte offset into it, and the notes stream that
// carries heredoc state across the otherwise-stateless combinators.
//
// Every rule has the shape func(p *parser) (T, bool): on success it
// returns the parsed value with p.pos advanced past what it consumed;
// on failure it must leave p.pos exactly where it found it, so that
// ordered-choice can try the next alternative from the same point.
// Rules report the furthest-reaching failure they saw via fail, which
// becomes the ParseError if the whole parse does not succeed.
type parser struct {
	src string
	pos int

	notes notes.Stream

	failPos   int
	failLabel string
}

func newParser(src string) *parser {
	return &parser{src: src}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

// fail records a furthest-failure candidate without altering pos; rules
// call this on the way out when they don't match, so that whichever
// alternative got deepest into the input before giving up supplies the
// final error message.
func (p *parser) fail(label string) {
	if p.pos >= p.failPos {
		p.failPos = p.pos
		p.failLabel = label
	}
}

func (p *parser) error() *ParseError {
	return &ParseError{Pos: p.failPos, Label: p.failLabel}
}

// rule is the combinator type named throughout spec.md's grammar: a
// parser for a T.
type rule[T any] func(p *parser) (T, bool)

// lit matches a literal string exactly (match-literal).
func lit(s string) rule[string] {
	return func(p *parser) (string, bool) {
		if hasPrefixAt(p.src, p.pos, s) {
			p.pos += len(s)
			return s, true
		}
		p.fail("expected " + quoteLabel(s))
		return "", false
	}
}

func hasPrefixAt(src string, pos int, s string) bool {
	if pos+len(s) > len(src) {
		return false
	}
	return src[pos:pos+len(s)] == s
}

func quoteLabel(s string) string {
	return "`" + s + "`"
}

// rx matches a compiled, anchored regular expression (match-regex). The
// caller must compile re with a leading ^ so matches are pinned to the
// cursor rather than scanning ahead.
func rx(re *regexp.Regexp) rule[string] {
	return func(p *parser) (string, bool) {
		loc := re.FindStringIndex(p.src[p.pos:])
		if loc == nil {
			p.fail("expected match of " + re.String())
			return "", false
		}
		s := p.src[p.pos : p.pos+loc[1]]
		p.pos += loc[1]
		return s, true
	}
}

// result always succeeds, returning v without consuming input.
func result[T any](v T) rule[T] {
	return func(p *parser) (T, bool) { return v, true }
}

// failRule always fails with the given label.
func failRule[T any](label string) rule[T] {
	return func(p *parser) (T, bool) {
		p.fail(label)
		var zero T
		return zero, false
	}
}

// eofRule succeeds only at the end of input.
func eofRule(p *parser) (struct{}, bool) {
	if p.eof() {
		return struct{}{}, true
	}
	p.fail("expected end of input")
	return struct{}{}, false
}

// optional makes r succeed with a nil pointer instead of failing.
func optional[T any](r rule[T]) rule[*T] {
	return func(p *parser) (*T, bool) {
		save := p.pos
		v, ok := r(p)
		if !ok {
			p.pos = save
			return nil, true
		}
		return &v, true
	}
}

// many applies r zero or more times (many).
func many[T any](r rule[T]) rule[[]T] {
	return func(p *parser) ([]T, bool) {
		var out []T
		for {
			save := p.pos
			v, ok := r(p)
			if !ok {
				p.pos = save
				return out, true
			}
			out = append(out, v)
		}
	}
}

// many1 applies r one or more times (many1).
func many1[T any](r rule[T]) rule[[]T] {
	return func(p *parser) ([]T, bool) {
		first, ok := r(p)
		if !ok {
			return nil, false
		}
		rest, _ := many(r)(p)
		return append([]T{first}, rest...), true
	}
}

// or is ordered-choice: the first alternative that matches wins, and
// every alternative is tried from the same starting position.
func or[T any](rs ...rule[T]) rule[T] {
	return func(p *parser) (T, bool) {
		save := p.pos
		for _, r := range rs {
			p.pos = save
			if v, ok := r(p); ok {
				return v, true
			}
		}
		p.pos = save
		var zero T
		return zero, false
	}
}

// mapRule transforms a successful parse (map).
func mapRule[A, B any](a rule[A], f func(A) B) rule[B] {
	return func(p *parser) (B, bool) {
		v, ok := a(p)
		if !ok {
			var zero B
			return zero, false
		}
		return f(v), true
	}
}

// seq runs a then b, keeping only b's value; it fails (restoring pos)
// if either fails.
func seq[A, B any](a rule[A], b rule[B]) rule[B] {
	return func(p *parser) (B, bool) {
		save := p.pos
		if _, ok := a(p); !ok {
			p.pos = save
			var zero B
			return zero, false
		}
		v, ok := b(p)
		if !ok {
			p.pos = save
			var zero B
			return zero, false
		}
		return v, true
	}
}

// seqKeepFirst runs a then b, keeping only a's value.
func seqKeepFirst[A, B any](a rule[A], b rule[B]) rule[A] {
	return func(p *parser) (A, bool) {
		save := p.pos
		av, ok := a(p)
		if !ok {
			var zero A
			return zero, false
		}
		if _, ok := b(p); !ok {
			p.pos = save
			var zero A
			return zero, false
		}
		return av, true
	}
}

// getNotes is the get_notes combinator: it always succeeds, returning
// the note currently in effect at the cursor.
func getNotes(p *parser) (notes.Note, bool) {
	return p.notes.At(p.pos), true
}

// putNote is the put_note combinator: it always succeeds, replacing the
// note in effect from the cursor onward.
func putNote(n notes.Note) rule[struct{}] {
	return func(p *parser) (struct{}, bool) {
		p.notes.Update(p.pos, n)
		return struct{}{}, true
	}
}
