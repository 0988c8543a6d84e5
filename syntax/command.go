package syntax

import (
	"regexp"
	"strconv"
)

var (
	fdNumRe        = regexp.MustCompile(`^[0-9]+`)
	bareHeredocRe  = regexp.MustCompile(`^[^\s'"]+`)
	dqHeredocEndRe = regexp.MustCompile(`^[^"]*`)
)

func isIdentContinue(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// keyword matches name as a whole word: the literal text not followed
// by another identifier character, so "while" doesn't match a prefix
// of "whiletrue".
func keyword(name string) rule[string] {
	return func(p *parser) (string, bool) {
		save := p.pos
		if _, ok := lit(name)(p); !ok {
			return "", false
		}
		if p.pos < len(p.src) && isIdentContinue(p.src[p.pos]) {
			p.pos = save
			return "", false
		}
		return name, true
	}
}

// sep consumes any run of whitespace and heredoc-draining newlines;
// it always succeeds, possibly consuming nothing. Compound-command
// grammar accepts a newline anywhere plain whitespace is accepted.
func sep(p *parser) {
	for {
		if _, ok := ws(p); ok {
			continue
		}
		if _, ok := eol(p); ok {
			continue
		}
		break
	}
}

// matchesAssignment reports whether w has the shape produced by the
// word grammar for `NAME=value`: an Ident part immediately followed
// by a Token("=") part.
func matchesAssignment(w Word) (string, Word, bool) {
	if len(w.Parts) < 2 {
		return "", Word{}, false
	}
	id, ok := w.Parts[0].(Ident)
	if !ok {
		return "", Word{}, false
	}
	tok, ok := w.Parts[1].(Token)
	if !ok || tok != "=" {
		return "", Word{}, false
	}
	return string(id), Word{Parts: w.Parts[2:]}, true
}

// collectRedirects greedily parses zero or more redirects, each
// preceded by optional whitespace.
func collectRedirects(p *parser) []*Redirect {
	var out []*Redirect
	for {
		save := p.pos
		optWS(p)
		rd, ok := redirect(p)
		if !ok {
			p.pos = save
			return out
		}
		out = append(out, rd)
	}
}

func heredocDelimiter(p *parser) (string, bool, bool) {
	if _, ok := lit("'")(p); ok {
		body, _ := rx(singleQuotedBodyRe)(p)
		if _, ok := lit("'")(p); !ok {
			return "", false, false
		}
		return body, true, true
	}
	if _, ok := lit(`"`)(p); ok {
		body, _ := rx(dqHeredocEndRe)(p)
		if _, ok := lit(`"`)(p); !ok {
			return "", false, false
		}
		return body, true, true
	}
	s, ok := rx(bareHeredocRe)(p)
	if !ok {
		return "", false, false
	}
	return s, false, true
}

// redirect parses one `N<file`-family token, per spec.md section 4.B.
func redirect(p *parser) (*Redirect, bool) {
	save := p.pos
	fdStr, _ := optional(rx(fdNumRe))(p)
	hasFd := fdStr != nil
	var fdVal int
	if hasFd {
		fdVal, _ = strconv.Atoi(*fdStr)
	}

	if op, ok := or(lit("<<-"), lit("<<"))(p); ok {
		strip := op == "<<-"
		fd := 0
		if hasFd {
			fd = fdVal
		}
		optWS(p)
		end, quoted, ok := heredocDelimiter(p)
		if !ok {
			p.pos = save
			p.fail("expected heredoc delimiter")
			return nil, false
		}
		hd := &HereDoc{End: end, Quoted: quoted, Strip: strip}
		pushHeredoc(p, hd)
		return &Redirect{Kind: RedirHere, Fd: fd, Here: hd}, true
	}

	if op, ok := or(lit("<&"), lit(">&"))(p); ok {
		toFd := op == ">&"
		fd := 1
		if op == "<&" {
			fd = 0
		}
		if hasFd {
			fd = fdVal
		}
		if _, ok := lit("-")(p); ok {
			return &Redirect{Kind: RedirDup, Fd: fd, ToFd: toFd, Close: true, Arg: Word{Parts: []WordPart{ConstantString("-")}}}, true
		}
		optWS(p)
		arg, _ := word(p)
		if arg.IsEmpty() {
			p.pos = save
			p.fail("expected fd after `" + op + "`")
			return nil, false
		}
		return &Redirect{Kind: RedirDup, Fd: fd, ToFd: toFd, Arg: arg}, true
	}

	if op, ok := or(lit(">>"), lit(">"), lit("<"))(p); ok {
		fd := 1
		if op == "<" {
			fd = 0
		}
		if hasFd {
			fd = fdVal
		}
		optWS(p)
		arg, _ := word(p)
		if arg.IsEmpty() {
			p.pos = save
			p.fail("expected filename after `" + op + "`")
			return nil, false
		}
		kind := RedirTo
		if op == "<" {
			kind = RedirFrom
		}
		return &Redirect{Kind: kind, Fd: fd, Append: op == ">>", Arg: arg}, true
	}

	p.pos = save
	return nil, false
}

// command parses a plain simple command: an interleaving of
// assignments, redirects, and words. It fails only when the very
// first token is a reserved word, which lets compound_command's other
// alternatives claim the position instead.
func command(p *parser) (*Command, bool) {
	save := p.pos
	cmd := &Command{}
	firstWordSeen := false

	for {
		optWS(p)
		rsave := p.pos
		if rd, ok := redirect(p); ok {
			cmd.Redirects = append(cmd.Redirects, rd)
			continue
		}
		p.pos = rsave

		w, _ := word(p)
		if w.IsEmpty() {
			break
		}

		if !firstWordSeen {
			if rw, ok := w.ReservedWord(reservedWords...); ok {
				p.pos = save
				p.fail("`" + rw + "` is a reserved word")
				return nil, false
			}
		}

		if len(cmd.Words) == 0 {
			if name, val, ok := matchesAssignment(w); ok {
				cmd.Assigns = append(cmd.Assigns, Assignment{Name: name, Value: val})
				firstWordSeen = true
				continue
			}
		}

		firstWordSeen = true
		cmd.Words = append(cmd.Words, w)
	}

	return cmd, true
}

func isNullExecutable(e Executable) bool {
	c, ok := e.(*Command)
	return ok && c.IsNull()
}

// compoundCommand tries, in priority order, each compound form before
// falling back to a plain command.
func compoundCommand(p *parser) (Executable, bool) {
	save := p.pos
	if c, ok := braceCmd(p); ok {
		return c, true
	}
	p.pos = save
	if c, ok := whileCmd(p); ok {
		return c, true
	}
	p.pos = save
	if c, ok := ifCmd(p); ok {
		return c, true
	}
	p.pos = save
	if c, ok := forCmd(p); ok {
		return c, true
	}
	p.pos = save
	if c, ok := caseCmd(p); ok {
		return c, true
	}
	p.pos = save
	if c, ok := funcDef(p); ok {
		return c, true
	}
	p.pos = save
	if c, ok := command(p); ok {
		return c, true
	}
	return nil, false
}

func braceCmd(p *parser) (*Brace, bool) {
	save := p.pos
	leading := collectRedirects(p)
	sep(p)
	if _, ok := lit("{")(p); !ok {
		p.pos = save
		return nil, false
	}
	body, ok := commandSequence(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	sep(p)
	if _, ok := lit("}")(p); !ok {
		p.pos = save
		p.fail("expected `}`")
		return nil, false
	}
	trailing := collectRedirects(p)
	return &Brace{Body: body, Redirects: append(leading, trailing...)}, true
}

func whileCmd(p *parser) (*While, bool) {
	save := p.pos
	leading := collectRedirects(p)
	sep(p)
	if _, ok := keyword("while")(p); !ok {
		p.pos = save
		return nil, false
	}
	cond, ok := commandSequence(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	sep(p)
	if _, ok := keyword("do")(p); !ok {
		p.pos = save
		p.fail("expected `do`")
		return nil, false
	}
	body, ok := commandSequence(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	sep(p)
	if _, ok := keyword("done")(p); !ok {
		p.pos = save
		p.fail("expected `done`")
		return nil, false
	}
	trailing := collectRedirects(p)
	return &While{Cond: cond, Body: body, Redirects: append(leading, trailing...)}, true
}

func ifCmd(p *parser) (*If, bool) {
	save := p.pos
	leading := collectRedirects(p)
	sep(p)
	if _, ok := keyword("if")(p); !ok {
		p.pos = save
		return nil, false
	}
	var clauses []IfClause

	cond, ok := commandSequence(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	sep(p)
	if _, ok := keyword("then")(p); !ok {
		p.pos = save
		p.fail("expected `then`")
		return nil, false
	}
	body, ok := commandSequence(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	clauses = append(clauses, IfClause{Cond: cond, Body: body})

	for {
		peek := p.pos
		sep(p)
		if _, ok := keyword("elif")(p); !ok {
			p.pos = peek
			break
		}
		c2, ok := commandSequence(p)
		if !ok {
			p.pos = save
			return nil, false
		}
		sep(p)
		if _, ok := keyword("then")(p); !ok {
			p.pos = save
			p.fail("expected `then`")
			return nil, false
		}
		b2, ok := commandSequence(p)
		if !ok {
			p.pos = save
			return nil, false
		}
		clauses = append(clauses, IfClause{Cond: c2, Body: b2})
	}

	peek := p.pos
	sep(p)
	if _, ok := keyword("else")(p); ok {
		b3, ok := commandSequence(p)
		if !ok {
			p.pos = save
			return nil, false
		}
		clauses = append(clauses, IfClause{Otherwise: true, Body: b3})
	} else {
		p.pos = peek
	}

	sep(p)
	if _, ok := keyword("fi")(p); !ok {
		p.pos = save
		p.fail("expected `fi`")
		return nil, false
	}
	trailing := collectRedirects(p)
	return &If{Clauses: clauses, Redirects: append(leading, trailing...)}, true
}

func forCmd(p *parser) (*For, bool) {
	save := p.pos
	leading := collectRedirects(p)
	sep(p)
	if _, ok := keyword("for")(p); !ok {
		p.pos = save
		return nil, false
	}
	optional(ws)(p)
	name, ok := ident(p)
	if !ok {
		p.pos = save
		p.fail("expected loop variable name")
		return nil, false
	}

	var words []Word
	peek := p.pos
	sep(p)
	if _, ok := keyword("in")(p); ok {
		for {
			wsave := p.pos
			optWS(p)
			w, _ := word(p)
			if w.IsEmpty() {
				p.pos = wsave
				break
			}
			words = append(words, w)
		}
	} else {
		p.pos = peek
		words = []Word{{Parts: []WordPart{VarRef{Name: "@"}}}}
	}

	sep(p)
	optional(lit(";"))(p)
	sep(p)
	if _, ok := keyword("do")(p); !ok {
		p.pos = save
		p.fail("expected `do`")
		return nil, false
	}
	body, ok := commandSequence(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	sep(p)
	if _, ok := keyword("done")(p); !ok {
		p.pos = save
		p.fail("expected `done`")
		return nil, false
	}
	trailing := collectRedirects(p)
	return &For{Var: name, Words: words, Body: body, Redirects: append(leading, trailing...)}, true
}

func caseCmd(p *parser) (*Case, bool) {
	save := p.pos
	leading := collectRedirects(p)
	sep(p)
	if _, ok := keyword("case")(p); !ok {
		p.pos = save
		return nil, false
	}
	optWS(p)
	subject, _ := word(p)
	sep(p)
	if _, ok := keyword("in")(p); !ok {
		p.pos = save
		p.fail("expected `in`")
		return nil, false
	}

	var clauses []CaseClause
	for {
		sep(p)
		check := p.pos
		if _, ok := keyword("esac")(p); ok {
			p.pos = check
			break
		}

		optional(lit("("))(p)
		optWS(p)

		var patterns []Word
		for {
			w, _ := word(p)
			patterns = append(patterns, w)
			psave := p.pos
			optWS(p)
			if _, ok := lit("|")(p); ok {
				optWS(p)
				continue
			}
			p.pos = psave
			break
		}
		optWS(p)
		if _, ok := lit(")")(p); !ok {
			p.pos = save
			p.fail("expected `)` in case pattern")
			return nil, false
		}
		body, ok := commandSequence(p)
		if !ok {
			p.pos = save
			return nil, false
		}
		sep(p)
		optional(lit(";;"))(p)
		clauses = append(clauses, CaseClause{Patterns: patterns, Body: body})
	}

	if _, ok := keyword("esac")(p); !ok {
		p.pos = save
		p.fail("expected `esac`")
		return nil, false
	}
	trailing := collectRedirects(p)
	return &Case{Subject: subject, Clauses: clauses, Redirects: append(leading, trailing...)}, true
}

func funcDef(p *parser) (*FuncDef, bool) {
	save := p.pos
	optWS(p)
	name, ok := ident(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	optWS(p)
	if _, ok := lit("(")(p); !ok {
		p.pos = save
		return nil, false
	}
	optWS(p)
	if _, ok := lit(")")(p); !ok {
		p.pos = save
		return nil, false
	}
	sep(p)
	exe, ok := compoundCommand(p)
	if !ok {
		p.pos = save
		p.fail("expected a function body")
		return nil, false
	}
	body := &CommandSequence{Items: []Executable{exe}}
	return &FuncDef{Name: name, Body: body}, true
}

// pipeline parses zero or more compound commands joined by `|`. An
// empty match (no alternative available at this position) always
// succeeds with a null Command, matching the generator grammar it is
// grounded on: pipeline never itself fails.
func pipeline(p *parser) (Executable, bool) {
	var items []Executable
	for {
		save := p.pos
		optWS(p)
		cmd, ok := compoundCommand(p)
		if !ok {
			p.pos = save
			break
		}
		items = append(items, cmd)

		psave := p.pos
		optWS(p)
		if _, ok := lit("|")(p); !ok {
			p.pos = psave
			break
		}
	}
	switch len(items) {
	case 0:
		return &Command{}, true
	case 1:
		return items[0], true
	default:
		return &CommandPipe{Items: items}, true
	}
}

// pipelineSep consumes the separator between two pipelines in a
// command_sequence: `;` (but not `;;`) or a (heredoc-draining) newline,
// followed by any further blank separators.
func pipelineSep(p *parser) bool {
	save := p.pos
	optWS(p)
	matched := false
	if hasPrefixAt(p.src, p.pos, ";;") {
		// `;;` ends a case clause body; it is not a pipeline separator.
	} else if _, ok := lit(";")(p); ok {
		matched = true
	} else if _, ok := eol(p); ok {
		matched = true
	}
	if !matched {
		p.pos = save
		return false
	}
	sep(p)
	return true
}

// commandSequence parses `pipeline ((';' | '\n') pipeline)*`. At the
// end it requires no heredoc is still waiting for its terminator.
func commandSequence(p *parser) (*CommandSequence, bool) {
	sep(p)
	var items []Executable
	for {
		exe, ok := pipeline(p)
		if !ok {
			break
		}
		if !isNullExecutable(exe) {
			items = append(items, exe)
		}
		if !pipelineSep(p) {
			break
		}
	}
	if pendingHeredocs(p) {
		p.fail("want additional heredocs")
		return nil, false
	}
	return &CommandSequence{Items: items}, true
}
