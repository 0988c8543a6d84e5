package interp

import (
	"fmt"
	"strings"

	"github.com/jan-g/psh/pattern"
	"github.com/jan-g/psh/syntax"
)

// ExpandWord evaluates w to a single string by concatenating each
// part's evaluation, per spec.md section 4.H. It does not glob: callers
// that need glob expansion (simple-command arguments, `for` word
// lists) go through ExpandWords instead.
func ExpandWord(w syntax.Word, env *Env) (string, error) {
	var sb strings.Builder
	for _, part := range w.Parts {
		s, err := evalPart(part, env)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func evalPart(part syntax.WordPart, env *Env) (string, error) {
	switch v := part.(type) {
	case syntax.ConstantString:
		return string(v), nil
	case syntax.Ident:
		return string(v), nil
	case syntax.Token:
		return string(v), nil
	case syntax.VarRef:
		return env.Get(v.Name), nil
	case syntax.ParamOp:
		return evalParamOp(v, env)
	case syntax.Arith:
		f, err := evalArith(v.Expr, env)
		if err != nil {
			return "", err
		}
		return formatNumber(f), nil
	case syntax.CmdSubst:
		out, err := runCaptured(v.Seq, env)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(out, "\n"), nil
	case syntax.GlobPart:
		if v == syntax.StarStar {
			return "**", nil
		}
		return "*", nil
	}
	return "", fmt.Errorf("expand: unrecognized word part %T", part)
}

func evalParamOp(op syntax.ParamOp, env *Env) (string, error) {
	value := env.Get(op.Ref.Name)
	bits, err := wordPieces(op.Pattern, env)
	if err != nil {
		return "", err
	}
	re := pattern.CompileCaseMatch(bits)
	return stripParam(value, op.Op, re), nil
}

// wordPieces flattens w into the Literal/Wildcard pieces the pattern
// package compiles: a GlobPart stays a wildcard sentinel, every other
// part is evaluated to text and kept literal (glob metacharacters
// produced by expansion are never re-interpreted as wildcards).
func wordPieces(w syntax.Word, env *Env) ([]pattern.Piece, error) {
	var out []pattern.Piece
	for _, part := range w.Parts {
		if _, ok := part.(syntax.GlobPart); ok {
			out = append(out, pattern.Wildcard{})
			continue
		}
		s, err := evalPart(part, env)
		if err != nil {
			return nil, err
		}
		out = append(out, pattern.Literal(s))
	}
	return out, nil
}

// hasGlob reports whether w syntactically contains a glob sentinel.
func hasGlob(w syntax.Word) bool {
	for _, part := range w.Parts {
		if _, ok := part.(syntax.GlobPart); ok {
			return true
		}
	}
	return false
}

// isPositionalRef reports whether w is exactly a bare, non-double-
// quoted `$@` or `$*` reference, the one case ExpandWords fans out to
// several result strings instead of one.
func isPositionalRef(w syntax.Word) (string, bool) {
	if w.DoubleQuoted || len(w.Parts) != 1 {
		return "", false
	}
	v, ok := w.Parts[0].(syntax.VarRef)
	if !ok || v.DoubleQuoted {
		return "", false
	}
	if v.Name == "@" || v.Name == "*" {
		return v.Name, true
	}
	return "", false
}

// ExpandWords expands a word list to a flat argument vector: `$@`/`$*`
// fan out to one string per positional parameter, an unquoted word
// containing a glob sentinel expands to its directory-match results
// (or is dropped entirely if nothing matches), and everything else
// expands to exactly one string.
func ExpandWords(words []syntax.Word, env *Env) ([]string, error) {
	var out []string
	for _, w := range words {
		if _, ok := isPositionalRef(w); ok {
			out = append(out, env.nearestParams()...)
			continue
		}
		if !w.DoubleQuoted && hasGlob(w) {
			matches, err := expandGlob(w, env)
			if err != nil {
				return nil, err
			}
			out = append(out, matches...)
			continue
		}
		s, err := ExpandWord(w, env)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
