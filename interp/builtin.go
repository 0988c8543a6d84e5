package interp

import (
	"os"
	"strconv"
	"strings"
)

// Builtin is a built-in command: it receives the environment in effect
// (with redirects already installed) and its expanded argument vector,
// including argv[0]. It returns an exit status, or a non-nil error when
// it raises one of the control-flow unwinds (breakSignal, continueSignal,
// returnSignal) described by spec.md section 7.
type Builtin func(env *Env, args []string) (int, error)

func defaultBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"echo":     builtinEcho,
		"local":    builtinLocal,
		"break":    builtinBreak,
		"continue": builtinContinue,
		"return":   builtinReturn,
		":":        builtinColon,
	}
}

func stdout(env *Env) *os.File {
	f, _ := env.Sys().File(1)
	return f
}

func stderr(env *Env) *os.File {
	f, _ := env.Sys().File(2)
	return f
}

// builtinEcho writes its arguments joined by spaces, then a newline.
func builtinEcho(env *Env, args []string) (int, error) {
	if f := stdout(env); f != nil {
		f.WriteString(strings.Join(args[1:], " "))
		f.WriteString("\n")
	}
	return 0, nil
}

// builtinLocal creates NAME[=VAL] in the current scope; with no `=` it
// shadows the current scope with whatever value the name already has
// (a no-op table entry that later assignments will find and reuse).
func builtinLocal(env *Env, args []string) (int, error) {
	for _, arg := range args[1:] {
		if i := strings.IndexByte(arg, '='); i >= 0 {
			env.SetLocal(arg[:i], arg[i+1:])
		} else {
			env.SetLocal(arg, env.Get(arg))
		}
	}
	return 0, nil
}

func depthArg(args []string) int {
	if len(args) < 2 {
		return 1
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// builtinBreak raises a breakSignal of the requested depth; caught by
// the nearest enclosing While or For, per spec.md section 4.J.
func builtinBreak(env *Env, args []string) (int, error) {
	return 0, breakSignal{depth: depthArg(args)}
}

// builtinContinue raises a continueSignal the same way builtinBreak
// raises breakSignal.
func builtinContinue(env *Env, args []string) (int, error) {
	return 0, continueSignal{depth: depthArg(args)}
}

// builtinReturn raises a returnSignal carrying the requested status;
// caught by the enclosing function call. Used outside a function it
// reaches the top level uncaught, an invariant violation per spec.md
// section 7.
func builtinReturn(env *Env, args []string) (int, error) {
	status := 0
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			status = n
		}
	}
	return 0, returnSignal{status: status}
}

func builtinColon(env *Env, args []string) (int, error) { return 0, nil }
