package interp

import (
	"fmt"
	"os/exec"

	"github.com/jan-g/psh/pattern"
	"github.com/jan-g/psh/process"
	"github.com/jan-g/psh/syntax"
)

// breakSignal, continueSignal, and returnSignal are the scoped
// control-flow unwinds of spec.md section 7: not errors in the usual
// sense, but values the error-returning Execute still carries so that
// a builtin nested arbitrarily deep under CommandSequence boundaries
// can reach the While/For/Function call that must catch it.
type breakSignal struct{ depth int }

func (b breakSignal) Error() string { return fmt.Sprintf("break: not in a loop (depth %d)", b.depth) }

type continueSignal struct{ depth int }

func (c continueSignal) Error() string {
	return fmt.Sprintf("continue: not in a loop (depth %d)", c.depth)
}

type returnSignal struct{ status int }

func (r returnSignal) Error() string { return "return: not in a function" }

// Execute runs node against env, per the dispatch table in spec.md
// section 4.J, returning the executed construct's exit status and any
// uncaught control-flow unwind or fatal error.
func Execute(node syntax.Executable, env *Env) (int, error) {
	switch v := node.(type) {
	case *syntax.Command:
		return execCommand(v, env)
	case *syntax.CommandSequence:
		return execSequence(v, env)
	case *syntax.CommandPipe:
		return execPipe(v, env)
	case *syntax.If:
		return execIf(v, env)
	case *syntax.While:
		return execWhile(v, env)
	case *syntax.For:
		return execFor(v, env)
	case *syntax.Case:
		return execCase(v, env)
	case *syntax.Brace:
		return execBrace(v, env)
	case *syntax.FuncDef:
		env.RegisterFunction(v)
		return 0, nil
	}
	return 0, fmt.Errorf("execute: unrecognized node %T", node)
}

func execCommand(c *syntax.Command, env *Env) (int, error) {
	if !env.PermitExecution() {
		return 0, fmt.Errorf("execute: execution is not permitted in this environment")
	}
	for _, a := range c.Assigns {
		val, err := ExpandWord(a.Value, env)
		if err != nil {
			env.SetStatus(1)
			return 1, nil
		}
		env.Set(a.Name, val)
	}
	if len(c.Words) == 0 {
		// A bare redirect with no words (e.g. `> file`) still performs
		// its open/truncate/create side effect, then restores at once.
		if len(c.Redirects) > 0 {
			saver, err := applyRedirects(c.Redirects, env)
			if err != nil {
				fmt.Fprintln(stderr(env), err)
				env.SetStatus(1)
				return 1, nil
			}
			saver.Restore()
		}
		return 0, nil
	}
	argv, err := ExpandWords(c.Words, env)
	if err != nil {
		fmt.Fprintln(stderr(env), err)
		env.SetStatus(1)
		return 1, nil
	}
	if len(argv) == 0 {
		return 0, nil
	}

	saver, err := applyRedirects(c.Redirects, env)
	if err != nil {
		fmt.Fprintln(stderr(env), err)
		env.SetStatus(1)
		return 1, nil
	}
	defer saver.Restore()

	if b, ok := env.LookupBuiltin(argv[0]); ok {
		status, err := b(env, argv)
		if err != nil {
			return status, err
		}
		env.SetStatus(status)
		return status, nil
	}
	if fn, ok := env.LookupFunction(argv[0]); ok {
		return callFunction(fn, argv, env)
	}
	return execExternal(argv, env)
}

// callFunction runs fn's body in a fresh scope carrying argv[1:] as the
// positional parameters, converting a returnSignal into its exit
// status. A break or continue that escapes the function body uncaught
// does not propagate further, per spec.md section 5's "not across
// function ... boundaries": it is reported as an ordinary error.
func callFunction(fn *syntax.FuncDef, argv []string, env *Env) (int, error) {
	call := env.Child(argv[1:])
	status, err := Execute(fn.Body, call)
	switch sig := err.(type) {
	case nil:
		env.SetStatus(status)
		return status, nil
	case returnSignal:
		env.SetStatus(sig.status)
		return sig.status, nil
	case breakSignal:
		return status, fmt.Errorf("break: not in a loop")
	case continueSignal:
		return status, fmt.Errorf("continue: not in a loop")
	default:
		return status, err
	}
}

func execExternal(argv []string, env *Env) (int, error) {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		fmt.Fprintf(stderr(env), "%s: command not found\n", argv[0])
		env.SetStatus(127)
		return 127, nil
	}
	status, err := env.Sys().Exec(path, argv, env.Environ())
	if err != nil {
		fmt.Fprintln(stderr(env), err)
	}
	env.SetStatus(status)
	return status, nil
}

func execSequence(seq *syntax.CommandSequence, env *Env) (int, error) {
	status := 0
	for _, item := range seq.Items {
		s, err := Execute(item, env)
		if err != nil {
			return s, err
		}
		status = s
	}
	return status, nil
}

// execPipe runs each member but the last on its own forked System and
// Env snapshot, wired stdout-to-stdin by a real OS pipe, and runs the
// last member in the parent, per spec.md section 4.J. All children are
// waited on before returning, even if the last member errored.
func execPipe(p *syntax.CommandPipe, env *Env) (int, error) {
	sys := env.Sys()
	if len(p.Items) == 0 {
		return 0, nil
	}
	if len(p.Items) == 1 {
		return Execute(p.Items[0], env)
	}

	var pids []int
	stdin := 0
	for i := 0; i < len(p.Items)-1; i++ {
		r, w, err := sys.Pipe()
		if err != nil {
			return 1, err
		}
		item := p.Items[i]
		stage := stdin
		pid := sys.Fork(func(child *process.System) int {
			if f, ok := child.File(stage); ok {
				child.SetFile(0, f)
			}
			if f, ok := child.File(w); ok {
				child.SetFile(1, f)
			}
			child.Close(r)
			status, _ := Execute(item, env.Fork(child))
			return status
		})
		pids = append(pids, pid)
		sys.Close(w)
		if stage != 0 {
			sys.Close(stage)
		}
		stdin = r
	}

	saver := newSaver(env)
	if stdin != 0 {
		if err := saver.parkIfNeeded(0); err == nil {
			sys.Dup2(stdin, 0)
		}
		sys.Close(stdin)
	}
	status, err := Execute(p.Items[len(p.Items)-1], env)
	saver.Restore()

	for _, pid := range pids {
		sys.Wait(pid)
	}
	return status, err
}

func execIf(n *syntax.If, env *Env) (int, error) {
	saver, err := applyRedirects(n.Redirects, env)
	if err != nil {
		fmt.Fprintln(stderr(env), err)
		env.SetStatus(1)
		return 1, nil
	}
	defer saver.Restore()

	for _, clause := range n.Clauses {
		if clause.Otherwise {
			return Execute(clause.Body, env)
		}
		status, err := Execute(clause.Cond, env)
		if err != nil {
			return status, err
		}
		if status == 0 {
			return Execute(clause.Body, env)
		}
	}
	return 0, nil
}

func execWhile(n *syntax.While, env *Env) (int, error) {
	saver, err := applyRedirects(n.Redirects, env)
	if err != nil {
		fmt.Fprintln(stderr(env), err)
		env.SetStatus(1)
		return 1, nil
	}
	defer saver.Restore()

	status := 0
	for {
		condStatus, err := Execute(n.Cond, env)
		if err != nil {
			return condStatus, err
		}
		if condStatus != 0 {
			return status, nil
		}
		status, err = Execute(n.Body, env)
		if brk, ok := err.(breakSignal); ok {
			if brk.depth <= 1 {
				return 0, nil
			}
			return status, breakSignal{depth: brk.depth - 1}
		}
		if cont, ok := err.(continueSignal); ok {
			if cont.depth <= 1 {
				continue
			}
			return status, continueSignal{depth: cont.depth - 1}
		}
		if err != nil {
			return status, err
		}
	}
}

func execFor(n *syntax.For, env *Env) (int, error) {
	saver, err := applyRedirects(n.Redirects, env)
	if err != nil {
		fmt.Fprintln(stderr(env), err)
		env.SetStatus(1)
		return 1, nil
	}
	defer saver.Restore()

	values, err := ExpandWords(n.Words, env)
	if err != nil {
		return 1, err
	}

	status := 0
	for _, val := range values {
		env.Set(n.Var, val)
		status, err = Execute(n.Body, env)
		if brk, ok := err.(breakSignal); ok {
			if brk.depth <= 1 {
				return 0, nil
			}
			return status, breakSignal{depth: brk.depth - 1}
		}
		if cont, ok := err.(continueSignal); ok {
			if cont.depth <= 1 {
				continue
			}
			return status, continueSignal{depth: cont.depth - 1}
		}
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

func execCase(n *syntax.Case, env *Env) (int, error) {
	saver, err := applyRedirects(n.Redirects, env)
	if err != nil {
		fmt.Fprintln(stderr(env), err)
		env.SetStatus(1)
		return 1, nil
	}
	defer saver.Restore()

	subject, err := ExpandWord(n.Subject, env)
	if err != nil {
		return 1, err
	}
	for _, clause := range n.Clauses {
		for _, pat := range clause.Patterns {
			bits, err := wordPieces(pat, env)
			if err != nil {
				return 1, err
			}
			if pattern.CompileCaseMatch(bits).MatchString(subject) {
				return Execute(clause.Body, env)
			}
		}
	}
	return 0, nil
}

func execBrace(n *syntax.Brace, env *Env) (int, error) {
	saver, err := applyRedirects(n.Redirects, env)
	if err != nil {
		fmt.Fprintln(stderr(env), err)
		env.SetStatus(1)
		return 1, nil
	}
	defer saver.Restore()
	return Execute(n.Body, env)
}

// runCaptured executes seq with stdout redirected into a pipe and
// returns everything it wrote, for CmdSubst evaluation.
func runCaptured(seq *syntax.CommandSequence, env *Env) (string, error) {
	sys := env.Sys()
	r, w, err := sys.Pipe()
	if err != nil {
		return "", err
	}
	saver := newSaver(env)
	if err := saver.parkIfNeeded(1); err != nil {
		return "", err
	}
	sys.Dup2(w, 1)
	sys.Close(w)

	outCh := make(chan string, 1)
	go func() {
		buf := make([]byte, 4096)
		var out []byte
		if f, ok := sys.File(r); ok {
			for {
				n, err := f.Read(buf)
				if n > 0 {
					out = append(out, buf[:n]...)
				}
				if err != nil {
					break
				}
			}
		}
		outCh <- string(out)
	}()

	_, execErr := Execute(seq, env)
	saver.Restore()
	out := <-outCh
	sys.Close(r)
	return out, execErr
}
