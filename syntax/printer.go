package syntax

import (
	"regexp"
	"strconv"
	"strings"
)

var safeUnquotedRe = regexp.MustCompile("^[^\\s'()$=\";|<>&\\\\{}" + "`" + `*]+$`)

// Render renders seq back to source text such that Parse(Render(seq))
// reproduces a structurally equal AST. It is used by the parser's
// round-trip test and is not a pretty-printer for human consumption.
func Render(seq *CommandSequence) string {
	pr := &printer{}
	pr.renderSeq(seq)
	return pr.sb.String()
}

type printer struct {
	sb      strings.Builder
	pending []*HereDoc
}

func (pr *printer) renderSeq(seq *CommandSequence) {
	for _, item := range seq.Items {
		pr.renderExecutable(item)
		pr.sb.WriteByte('\n')
		pr.flushPending()
	}
}

func (pr *printer) flushPending() {
	for _, hd := range pr.pending {
		if hd.Quoted {
			pr.sb.WriteString(hd.Raw)
			if hd.Raw != "" && !strings.HasSuffix(hd.Raw, "\n") {
				pr.sb.WriteByte('\n')
			}
		} else if hd.Content != nil {
			pr.sb.WriteString(renderHeredocBody(*hd.Content))
		}
		pr.sb.WriteString(hd.End)
		pr.sb.WriteByte('\n')
	}
	pr.pending = nil
}

func (pr *printer) renderExecutable(e Executable) {
	switch v := e.(type) {
	case *Command:
		pr.renderCommand(v)
	case *CommandPipe:
		for i, item := range v.Items {
			if i > 0 {
				pr.sb.WriteString(" | ")
			}
			pr.renderExecutable(item)
		}
	case *If:
		pr.renderIf(v)
	case *While:
		pr.renderWhile(v)
	case *For:
		pr.renderFor(v)
	case *Case:
		pr.renderCase(v)
	case *Brace:
		pr.renderBrace(v)
	case *FuncDef:
		pr.renderFuncDef(v)
	}
}

func (pr *printer) renderCommand(c *Command) {
	first := true
	space := func() {
		if !first {
			pr.sb.WriteByte(' ')
		}
		first = false
	}
	for _, a := range c.Assigns {
		space()
		pr.sb.WriteString(a.Name)
		pr.sb.WriteByte('=')
		pr.sb.WriteString(renderWord(a.Value))
	}
	for _, w := range c.Words {
		space()
		pr.sb.WriteString(renderWord(w))
	}
	for _, r := range c.Redirects {
		space()
		pr.renderRedirect(r)
	}
}

func (pr *printer) renderRedirect(r *Redirect) {
	fd := strconv.Itoa(r.Fd)
	switch r.Kind {
	case RedirFrom:
		pr.sb.WriteString(fd + "<" + renderWord(r.Arg))
	case RedirTo:
		if r.Append {
			pr.sb.WriteString(fd + ">>" + renderWord(r.Arg))
		} else {
			pr.sb.WriteString(fd + ">" + renderWord(r.Arg))
		}
	case RedirDup:
		op := "<&"
		if r.ToFd {
			op = ">&"
		}
		if r.Close {
			pr.sb.WriteString(fd + op + "-")
		} else {
			pr.sb.WriteString(fd + op + renderWord(r.Arg))
		}
	case RedirHere:
		op := "<<"
		if r.Here.Strip {
			op = "<<-"
		}
		tag := r.Here.End
		if r.Here.Quoted {
			tag = "'" + strings.ReplaceAll(tag, "'", `'\''`) + "'"
		}
		pr.sb.WriteString(fd + op + tag)
		pr.pending = append(pr.pending, r.Here)
	}
}

func (pr *printer) renderRedirects(rs []*Redirect) {
	for _, r := range rs {
		pr.sb.WriteByte(' ')
		pr.renderRedirect(r)
	}
}

func (pr *printer) renderIf(v *If) {
	pr.sb.WriteString("if ")
	for i, c := range v.Clauses {
		if c.Otherwise {
			pr.sb.WriteString("else\n")
			pr.renderSeq(c.Body)
			continue
		}
		if i > 0 {
			pr.sb.WriteString("elif ")
		}
		pr.renderSeq(c.Cond)
		pr.sb.WriteString("then\n")
		pr.renderSeq(c.Body)
	}
	pr.sb.WriteString("fi")
	pr.renderRedirects(v.Redirects)
}

func (pr *printer) renderWhile(v *While) {
	pr.sb.WriteString("while ")
	pr.renderSeq(v.Cond)
	pr.sb.WriteString("do\n")
	pr.renderSeq(v.Body)
	pr.sb.WriteString("done")
	pr.renderRedirects(v.Redirects)
}

func (pr *printer) renderFor(v *For) {
	pr.sb.WriteString("for " + v.Var + " in")
	for _, w := range v.Words {
		pr.sb.WriteByte(' ')
		pr.sb.WriteString(renderWord(w))
	}
	pr.sb.WriteString("\ndo\n")
	pr.renderSeq(v.Body)
	pr.sb.WriteString("done")
	pr.renderRedirects(v.Redirects)
}

func (pr *printer) renderCase(v *Case) {
	pr.sb.WriteString("case " + renderWord(v.Subject) + " in\n")
	for _, c := range v.Clauses {
		for i, pat := range c.Patterns {
			if i > 0 {
				pr.sb.WriteByte('|')
			}
			pr.sb.WriteString(renderWord(pat))
		}
		pr.sb.WriteString(")\n")
		pr.renderSeq(c.Body)
		pr.sb.WriteString(";;\n")
	}
	pr.sb.WriteString("esac")
	pr.renderRedirects(v.Redirects)
}

func (pr *printer) renderBrace(v *Brace) {
	pr.sb.WriteString("{\n")
	pr.renderSeq(v.Body)
	pr.sb.WriteString("}")
	pr.renderRedirects(v.Redirects)
}

func (pr *printer) renderFuncDef(v *FuncDef) {
	if len(v.Body.Items) == 1 {
		pr.sb.WriteString(v.Name + "() ")
		pr.renderExecutable(v.Body.Items[0])
		return
	}
	pr.sb.WriteString(v.Name + "() {\n")
	pr.renderSeq(v.Body)
	pr.sb.WriteString("}")
}

func renderWord(w Word) string {
	if w.DoubleQuoted {
		var sb strings.Builder
		sb.WriteByte('"')
		for _, part := range w.Parts {
			sb.WriteString(renderPart(part, true))
		}
		sb.WriteByte('"')
		return sb.String()
	}
	var sb strings.Builder
	for _, part := range w.Parts {
		sb.WriteString(renderPart(part, false))
	}
	return sb.String()
}

// renderPart renders one part. inDQ reports whether the enclosing text
// is already wrapped in a `"..."` pair; a part whose own DoubleQuoted
// flag disagrees with that context is wrapped in its own quote pair so
// the flag survives a reparse.
func renderPart(part WordPart, inDQ bool) string {
	switch v := part.(type) {
	case ConstantString:
		if inDQ {
			return renderDQConstant(string(v))
		}
		return quoteIfNeeded(string(v))
	case Ident:
		return string(v)
	case Token:
		return string(v)
	case VarRef:
		s := "${" + v.Name + "}"
		if v.DoubleQuoted && !inDQ {
			return `"` + s + `"`
		}
		return s
	case ParamOp:
		var inner strings.Builder
		for _, pp := range v.Pattern.Parts {
			inner.WriteString(renderPart(pp, false))
		}
		s := "${" + v.Ref.Name + v.Op + inner.String() + "}"
		if v.Ref.DoubleQuoted && !inDQ {
			return `"` + s + `"`
		}
		return s
	case Arith:
		return "$((" + renderArith(v.Expr) + "))"
	case CmdSubst:
		return "$(" + strings.TrimSuffix(Render(v.Seq), "\n") + ")"
	case GlobPart:
		if v == StarStar {
			return "**"
		}
		return "*"
	}
	return ""
}

func renderDQConstant(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"', '$', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// renderHeredocBody renders an unquoted heredoc's parsed content back
// to the raw text the double_content grammar would reparse into an
// equal Word; unlike renderDQConstant it leaves `"` unescaped, since a
// heredoc body has no closing quote to collide with.
func renderHeredocBody(w Word) string {
	var sb strings.Builder
	for _, part := range w.Parts {
		if cs, ok := part.(ConstantString); ok {
			s := string(cs)
			s = strings.ReplaceAll(s, "\\", "\\\\")
			s = strings.ReplaceAll(s, "$", "\\$")
			sb.WriteString(s)
			continue
		}
		sb.WriteString(renderPart(part, true))
	}
	return sb.String()
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return ""
	}
	if safeUnquotedRe.MatchString(s) {
		return s
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			sb.WriteString(`'\''`)
		} else {
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

func renderArith(e ArithExpr) string {
	switch v := e.(type) {
	case ArithNum:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case ArithVar:
		return string(v)
	case ArithBinOp:
		return renderArith(v.X) + string(v.Op) + renderArith(v.Y)
	}
	return ""
}
