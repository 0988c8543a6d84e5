package interp

import (
	"io"
	"os"

	"github.com/jan-g/psh/process"
	"github.com/jan-g/psh/syntax"
)

// A Runner interprets shell programs, per the functional-options shape
// of mvdan.cc/sh/v3's own Runner: construct one with [New] and the
// desired [RunnerOption]s, then call [Runner.Run] once per top-level
// Executable. It is not safe for concurrent use.
type Runner struct {
	sys    *process.System
	params []string
	dir    string
	env    *Env

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	copies []func() error
}

// RunnerOption configures a Runner before New builds it.
type RunnerOption func(*Runner)

// Params sets the positional parameters ($1.., $#, $@, $*) the runner
// starts with.
func Params(params ...string) RunnerOption {
	return func(r *Runner) { r.params = params }
}

// Dir sets the runner's initial working directory.
func Dir(path string) RunnerOption {
	return func(r *Runner) { r.dir = path }
}

// StdIO overrides the runner's stdin, stdout, and stderr. A stream
// backed by an *os.File is wired to the process boundary directly;
// anything else is captured through a pipe and copied across, per
// spec.md section 6's "a stream that lacks an OS fd is captured into a
// buffer and written back to the caller."
func StdIO(in io.Reader, out, errOut io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdin, r.stdout, r.stderr = in, out, errOut
	}
}

// New builds a Runner, applying opts in order.
func New(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{sys: process.New()}
	for _, opt := range opts {
		opt(r)
	}
	if r.dir != "" {
		if err := r.sys.Chdir(r.dir); err != nil {
			return nil, err
		}
	}
	if err := r.wireStream(0, r.stdin, nil); err != nil {
		return nil, err
	}
	if err := r.wireStream(1, nil, r.stdout); err != nil {
		return nil, err
	}
	if err := r.wireStream(2, nil, r.stderr); err != nil {
		return nil, err
	}
	r.env = NewEnv(r.sys, r.params)
	return r, nil
}

func (r *Runner) wireStream(fd int, in io.Reader, out io.Writer) error {
	switch {
	case in == nil && out == nil:
		return nil
	case in != nil:
		if f, ok := in.(*os.File); ok {
			r.sys.SetFile(fd, f)
			return nil
		}
		pr, pw, err := os.Pipe()
		if err != nil {
			return err
		}
		r.sys.SetFile(fd, pr)
		go func() {
			io.Copy(pw, in)
			pw.Close()
		}()
		return nil
	default:
		if f, ok := out.(*os.File); ok {
			r.sys.SetFile(fd, f)
			return nil
		}
		pr, pw, err := os.Pipe()
		if err != nil {
			return err
		}
		r.sys.SetFile(fd, pw)
		done := make(chan struct{})
		go func() {
			io.Copy(out, pr)
			close(done)
		}()
		r.copies = append(r.copies, func() error {
			pw.Close()
			<-done
			return nil
		})
		return nil
	}
}

// Run executes node against the runner's environment and returns its
// exit status.
func (r *Runner) Run(node syntax.Executable) (int, error) {
	return Execute(node, r.env)
}

// Env returns the environment the runner executes against, for callers
// that want to inspect or seed variables before the first Run.
func (r *Runner) Env() *Env { return r.env }

// Close flushes and closes any piped stdout/stderr captures installed
// by StdIO, and must be called once the runner is done being used.
func (r *Runner) Close() error {
	for _, fn := range r.copies {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
