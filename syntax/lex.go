package syntax

import (
	"regexp"
	"strings"
)

// Reserved words cannot begin a plain Command's word list; they are
// only recognized in their compound contexts (while/do/done, ...).
// `}` is included so a plain command stops at a brace compound's
// closing brace instead of absorbing it as an ordinary word.
var reservedWords = []string{
	"while", "do", "done", "if", "then", "elif", "else", "fi",
	"for", "in", "case", "esac", "}",
}

var (
	wsRe         = regexp.MustCompile(`^([ \t]|\\\n)+`)
	wordIDRe     = regexp.MustCompile("^[^\\s'()$=\";|<>&\\\\{}" + "`" + `*]+`)
	identRe      = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*`)
	varNameRe    = regexp.MustCompile(`^([1-9][0-9]*|[0?!#@*$]|[a-zA-Z_][a-zA-Z0-9_]*)`)
	lineRe       = regexp.MustCompile(`^[^\n]*\n`)
	lineOrEOFRe  = regexp.MustCompile(`^[^\n]*(\n|$)`)
)

// ws is the `ws` lexical primitive: required or optional run of spaces,
// tabs, and backslash-newline line continuations.
var ws = rx(wsRe)

func optWS(p *parser) (struct{}, bool) {
	optional(ws)(p)
	return struct{}{}, true
}

// wordID is the `word_id` token: the run of characters that make up an
// unquoted constant chunk of a word.
var wordID = rx(wordIDRe)

// ident is a bare identifier: `[a-zA-Z_][a-zA-Z0-9_]*`.
var ident = rx(identRe)

// varName is the full variable-name grammar: numeric positional
// parameters, the single-character specials, or a regular identifier.
var varName = rx(varNameRe)

func line(p *parser) (string, bool) {
	return rx(lineRe)(p)
}

// eol consumes a single newline, then drains every heredoc pending on
// the current note before returning. Each heredoc reads lines up to
// (but not including) one equal to its end delimiter; EOF before the
// delimiter is found is a parse failure.
func eol(p *parser) (struct{}, bool) {
	save := p.pos
	if _, ok := lit("\n")(p); !ok {
		return struct{}{}, false
	}

	for {
		n, _ := getNotes(p)
		hds, _ := n["hds"].([]*HereDoc)
		if len(hds) == 0 {
			break
		}
		hd := hds[0]
		rest := hds[1:]

		content, ok := readHeredocBody(p, hd.End, hd.Strip)
		if !ok {
			p.pos = save
			p.fail("looking for heredoc ending with " + hd.End)
			return struct{}{}, false
		}

		if hd.Quoted {
			hd.Raw = content
		} else {
			w, ok := parseHeredocContent(content)
			if !ok {
				p.pos = save
				p.fail("bad heredoc content for " + hd.End)
				return struct{}{}, false
			}
			hd.Content = &w
		}
		hd.filled = true

		n2 := n.Clone()
		n2["hds"] = rest
		putNote(n2)(p)
	}

	return struct{}{}, true
}

// readHeredocBody reads lines until one, stripped of its trailing
// newline (and, if strip is set, of leading tabs), equals end. It
// fails if EOF is reached first.
func readHeredocBody(p *parser, end string, strip bool) (string, bool) {
	var lines []string
	for {
		if p.eof() {
			return "", false
		}
		l, ok := rx(lineOrEOFRe)(p)
		if !ok {
			return "", false
		}
		raw := strings.TrimSuffix(l, "\n")
		candidate := raw
		if strip {
			candidate = strings.TrimLeft(raw, "\t")
		}
		if candidate == end {
			return strings.Join(lines, "\n") + boundaryNewline(lines), true
		}
		if strip {
			raw = strings.TrimLeft(raw, "\t")
		}
		lines = append(lines, raw)
		if !strings.HasSuffix(l, "\n") {
			// Reached EOF on the same line as content with no
			// trailing newline, and it didn't match end.
			return "", false
		}
	}
}

// boundaryNewline restores the trailing newline that strings.Join
// drops, matching the Python original joining lines with "\n" then
// relying on each line already having carried one; psh's heredoc body
// keeps a trailing newline after the final content line.
func boundaryNewline(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return "\n"
}

// parseHeredocContent runs the double_content grammar (see word.go)
// over a fully buffered heredoc body, producing a double-quoted Word.
func parseHeredocContent(body string) (Word, bool) {
	sub := newParser(body)
	w, ok := doubleContent(sub)
	if !ok || !sub.eof() {
		return Word{}, false
	}
	return w, true
}

// pushHeredoc appends a new pending HereDoc descriptor to the current
// note's hds queue, to be filled in by the next eol.
func pushHeredoc(p *parser, hd *HereDoc) {
	n, _ := getNotes(p)
	hds, _ := n["hds"].([]*HereDoc)
	n2 := n.Clone()
	n2["hds"] = append(append([]*HereDoc{}, hds...), hd)
	putNote(n2)(p)
}

// pendingHeredocs reports whether the note in effect at the cursor
// still has unfilled heredocs queued; command_sequence checks this at
// its end per spec.md section 4.E.
func pendingHeredocs(p *parser) bool {
	n, _ := getNotes(p)
	hds, _ := n["hds"].([]*HereDoc)
	return len(hds) > 0
}
