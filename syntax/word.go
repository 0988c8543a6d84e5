package syntax

import "regexp"

var (
	singleQuotedBodyRe  = regexp.MustCompile(`^[^']*`)
	plainDQBodyRe       = regexp.MustCompile(`^[^"$\\]+`)
	plainHeredocBodyRe  = regexp.MustCompile(`^[^$\\]+`)
)

// wordPartRule is one alternative of the word-part grammar; it returns the
// (possibly several, for a spliced double-quoted segment) WordParts it
// produced so callers can flatten uniformly.
type wordPartRule = rule[[]WordPart]

func single(wp WordPart) []WordPart { return []WordPart{wp} }

func backtickPart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("`")(p); !ok {
		return nil, false
	}
	raw, ok := peelBacktickBody(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	if _, ok := lit("`")(p); !ok {
		p.pos = save
		p.fail("expected closing `" + "`" + "`")
		return nil, false
	}
	seq, err := Parse(raw)
	if err != nil {
		p.pos = save
		p.fail("bad backtick substitution: " + err.Error())
		return nil, false
	}
	return single(CmdSubst{Seq: seq}), true
}

// peelBacktickBody reads raw text up to (not including) the first
// unescaped backtick, resolving \`, \$, and \\ escapes, per spec.md
// section 4.E.
func peelBacktickBody(p *parser) (string, bool) {
	var out []byte
	for {
		if p.eof() {
			return "", false
		}
		c := p.src[p.pos]
		if c == '`' {
			return string(out), true
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			next := p.src[p.pos+1]
			if next == '`' || next == '$' || next == '\\' {
				out = append(out, next)
				p.pos += 2
				continue
			}
		}
		out = append(out, c)
		p.pos++
	}
}

func dollarArithPart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("$((")(p); !ok {
		return nil, false
	}
	e, ok := arithAdd(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	optWS(p)
	if _, ok := lit("))")(p); !ok {
		p.pos = save
		p.fail("expected `))`")
		return nil, false
	}
	return single(Arith{Expr: e}), true
}

func dollarCmdSubstPart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("$(")(p); !ok {
		return nil, false
	}
	seq, ok := commandSequence(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	if _, ok := lit(")")(p); !ok {
		p.pos = save
		p.fail("expected `)`")
		return nil, false
	}
	return single(CmdSubst{Seq: seq}), true
}

func dollarVarPart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("$")(p); !ok {
		return nil, false
	}
	name, ok := varName(p)
	if !ok {
		p.pos = save
		return nil, false
	}
	return single(VarRef{Name: name}), true
}

var paramOps = []string{"##", "#", "%%", "%"}

func dollarBracePart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("${")(p); !ok {
		return nil, false
	}
	name, ok := varName(p)
	if !ok {
		p.pos = save
		p.fail("expected variable name after `${`")
		return nil, false
	}
	ref := VarRef{Name: name}

	var opLits []rule[string]
	for _, op := range paramOps {
		opLits = append(opLits, lit(op))
	}
	op, _ := optional(or(opLits...))(p)

	var result WordPart = ref
	if op != nil {
		pattern, _ := many(or(patternWordPartAlternatives()...))(p)
		result = ParamOp{Ref: ref, Op: *op, Pattern: Word{Parts: flatten(pattern)}}
	}

	if _, ok := lit("}")(p); !ok {
		p.pos = save
		p.fail("expected closing `}`")
		return nil, false
	}
	return single(result), true
}

func identPart(p *parser) ([]WordPart, bool) {
	s, ok := ident(p)
	if !ok {
		return nil, false
	}
	return single(Ident(s)), true
}

func wordIDPart(p *parser) ([]WordPart, bool) {
	s, ok := wordID(p)
	if !ok {
		return nil, false
	}
	return single(ConstantString(s)), true
}

func equalsPart(p *parser) ([]WordPart, bool) {
	if _, ok := lit("=")(p); !ok {
		return nil, false
	}
	return single(Token("=")), true
}

func singleQuotedPart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("'")(p); !ok {
		return nil, false
	}
	body, _ := rx(singleQuotedBodyRe)(p)
	if _, ok := lit("'")(p); !ok {
		p.pos = save
		p.fail("expected closing `'`")
		return nil, false
	}
	return single(ConstantString(body)), true
}

func doubleQuotedPart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit(`"`)(p); !ok {
		return nil, false
	}
	parts, _ := many(doubleQuoteContentPart)(p)
	if _, ok := lit(`"`)(p); !ok {
		p.pos = save
		p.fail("expected closing `\"`")
		return nil, false
	}
	return flatten(parts), true
}

func literalBraceCharPart(p *parser) ([]WordPart, bool) {
	s, ok := or(lit("{"), lit("}"))(p)
	if !ok {
		return nil, false
	}
	return single(ConstantString(s)), true
}

func escapedNewlinePart(p *parser) ([]WordPart, bool) {
	if _, ok := lit("\\\n")(p); !ok {
		return nil, false
	}
	return single(ConstantString("")), true
}

func backslashEscapePart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("\\")(p); !ok {
		return nil, false
	}
	if p.eof() {
		p.pos = save
		return nil, false
	}
	c := p.src[p.pos]
	p.pos++
	return single(ConstantString(string(c))), true
}

func starstarPart(p *parser) ([]WordPart, bool) {
	if _, ok := lit("**")(p); !ok {
		return nil, false
	}
	return single(GlobPart(StarStar)), true
}

func starPart(p *parser) ([]WordPart, bool) {
	if _, ok := lit("*")(p); !ok {
		return nil, false
	}
	return single(GlobPart(Star)), true
}

// wordPartAlternatives is the full word-part priority list from
// spec.md section 4.B.
func wordPartAlternatives() []wordPartRule {
	return []wordPartRule{
		backtickPart,
		dollarVarPart,
		dollarArithPart,
		dollarCmdSubstPart,
		identPart,
		dollarBracePart,
		wordIDPart,
		equalsPart,
		singleQuotedPart,
		doubleQuotedPart,
		literalBraceCharPart,
		escapedNewlinePart,
		backslashEscapePart,
		starstarPart,
		starPart,
	}
}

// patternWordPartAlternatives is used for a ${name#pattern}-style
// pattern: the same grammar minus the bare `{`/`}` literal, whose
// absence from any rule's match is exactly what lets the pattern word
// stop at the closing brace.
func patternWordPartAlternatives() []wordPartRule {
	return []wordPartRule{
		backtickPart,
		dollarVarPart,
		dollarArithPart,
		dollarCmdSubstPart,
		identPart,
		dollarBracePart,
		wordIDPart,
		equalsPart,
		singleQuotedPart,
		doubleQuotedPart,
		escapedNewlinePart,
		backslashEscapePart,
		starstarPart,
		starPart,
	}
}

func flatten(groups [][]WordPart) []WordPart {
	var out []WordPart
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// word is the top-level Word production: many word-parts, always
// succeeding (possibly with zero parts — callers test Word.IsEmpty to
// detect that).
func word(p *parser) (Word, bool) {
	groups, _ := many(or(wordPartAlternatives()...))(p)
	return Word{Parts: flatten(groups)}, true
}

// makeDoubleContentPart builds one piece of the double_content
// grammar: plain text (terminated by plainRe, which differs between a
// `"..."` word part — stopping at the closing quote — and a heredoc
// body, which has no such delimiter and treats `"` as ordinary text),
// an escape, or a nested substitution. Nested nodes are flagged
// double-quoted where that distinction matters.
func makeDoubleContentPart(plainRe *regexp.Regexp) wordPartRule {
	return func(p *parser) ([]WordPart, bool) {
		if s, ok := rx(plainRe)(p); ok {
			return single(ConstantString(s)), true
		}
		if parts, ok := doubleEscapePart(p); ok {
			return parts, true
		}
		if parts, ok := dollarArithPart(p); ok {
			return parts, true
		}
		if parts, ok := dollarCmdSubstPart(p); ok {
			return parts, true
		}
		save := p.pos
		if _, ok := lit("$")(p); ok {
			if name, ok := varName(p); ok {
				return single(VarRef{Name: name, DoubleQuoted: true}), true
			}
			if _, ok := lit("{")(p); ok {
				if name, ok := varName(p); ok {
					if _, ok := lit("}")(p); ok {
						return single(VarRef{Name: name, DoubleQuoted: true}), true
					}
				}
			}
		}
		p.pos = save
		return nil, false
	}
}

func doubleQuoteContentPart(p *parser) ([]WordPart, bool) {
	return makeDoubleContentPart(plainDQBodyRe)(p)
}

func heredocContentPart(p *parser) ([]WordPart, bool) {
	return makeDoubleContentPart(plainHeredocBodyRe)(p)
}

func doubleEscapePart(p *parser) ([]WordPart, bool) {
	save := p.pos
	if _, ok := lit("\\")(p); !ok {
		return nil, false
	}
	if p.eof() {
		p.pos = save
		return nil, false
	}
	c := p.src[p.pos]
	switch c {
	case '\n':
		p.pos++
		return single(ConstantString("")), true
	case 'n':
		p.pos++
		return single(ConstantString("\n")), true
	case 't':
		p.pos++
		return single(ConstantString("\t")), true
	case 'b':
		p.pos++
		return single(ConstantString("\b")), true
	default:
		p.pos++
		return single(ConstantString(string(c))), true
	}
}

// doubleContent parses a full buffer (a heredoc body with an unquoted
// delimiter) as double-quoted Word content, to EOF.
func doubleContent(p *parser) (Word, bool) {
	groups, _ := many(heredocContentPart)(p)
	return Word{Parts: flatten(groups), DoubleQuoted: true}, true
}
