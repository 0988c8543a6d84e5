package interp

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jan-g/psh/process"
	"github.com/jan-g/psh/syntax"
)

// Saver is the scoped redirection transaction of spec.md section 4.I:
// it remembers, for every target descriptor it touched, a parked
// descriptor holding the original so Restore can put it back exactly.
type Saver struct {
	env   *Env
	saved map[int]int
	max   int
}

func newSaver(env *Env) *Saver {
	return &Saver{env: env, saved: map[int]int{}, max: 100}
}

func (s *Saver) parkIfNeeded(target int) error {
	if _, ok := s.saved[target]; ok {
		return nil
	}
	sys := s.env.Sys()
	if _, ok := sys.File(target); !ok {
		// Nothing currently occupies target; restoring means closing
		// whatever the block installs there. Record a sentinel fd of
		// -1 so Restore knows to close rather than dup2 back.
		s.saved[target] = -1
		return nil
	}
	parked, err := sys.DupFD(target, s.max)
	if err != nil {
		return err
	}
	s.saved[target] = parked
	s.max = parked + 1
	return nil
}

// Restore undoes every change this Saver made, in the order spec.md
// section 4.I describes: dup2 each parked descriptor back over its
// target, then close the parking slot.
func (s *Saver) Restore() {
	sys := s.env.Sys()
	for target, parked := range s.saved {
		if parked == -1 {
			sys.Close(target)
			continue
		}
		sys.Dup2(parked, target)
		sys.Close(parked)
	}
}

// applyRedirects opens and installs each redirect in order, returning a
// Saver whose Restore reverses exactly what was installed.
func applyRedirects(redirects []*syntax.Redirect, env *Env) (*Saver, error) {
	sys := env.Sys()
	saver := newSaver(env)
	for _, rd := range redirects {
		src, owned, err := resolveSource(rd, env, saver)
		if err != nil {
			saver.Restore()
			return nil, err
		}
		if src == -2 {
			// RedirDup close form: already handled by resolveSource.
			continue
		}
		target := rd.Fd
		if src == target {
			continue
		}
		if err := saver.parkIfNeeded(target); err != nil {
			saver.Restore()
			return nil, err
		}
		if err := sys.Dup2(src, target); err != nil {
			saver.Restore()
			return nil, err
		}
		if owned {
			sys.Close(src)
		}
	}
	return saver, nil
}

// resolveSource opens or locates the descriptor a redirect reads from
// or writes to. owned reports whether the descriptor was freshly
// created for this redirect (and so must be closed after the dup2 that
// installs it) as opposed to an existing descriptor borrowed by a Dup
// redirect, which must survive the redirect that named it. A return of
// src == -2 signals the RedirDup close form, already fully handled.
func resolveSource(rd *syntax.Redirect, env *Env, saver *Saver) (src int, owned bool, err error) {
	sys := env.Sys()
	switch rd.Kind {
	case syntax.RedirFrom:
		path, err := ExpandWord(rd.Arg, env)
		if err != nil {
			return 0, false, err
		}
		fd, err := sys.Open(path, os.O_RDONLY, 0)
		return fd, true, err
	case syntax.RedirTo:
		path, err := ExpandWord(rd.Arg, env)
		if err != nil {
			return 0, false, err
		}
		flags := os.O_WRONLY | os.O_CREATE
		if rd.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		fd, err := sys.Open(path, flags, 0o644)
		return fd, true, err
	case syntax.RedirDup:
		if rd.Close {
			if err := saver.parkIfNeeded(rd.Fd); err != nil {
				return 0, false, err
			}
			sys.Close(rd.Fd)
			return -2, false, nil
		}
		argStr, err := ExpandWord(rd.Arg, env)
		if err != nil {
			return 0, false, err
		}
		n, err := strconv.Atoi(argStr)
		if err != nil {
			return 0, false, fmt.Errorf("redirect: bad file descriptor %q", argStr)
		}
		return n, false, nil
	case syntax.RedirHere:
		content, err := heredocContent(rd.Here, env)
		if err != nil {
			return 0, false, err
		}
		r, w, err := sys.Pipe()
		if err != nil {
			return 0, false, err
		}
		sys.Fork(func(child *process.System) int {
			if wf, ok := child.File(w); ok {
				wf.WriteString(content)
			}
			child.Close(w)
			return 0
		})
		sys.Close(w)
		return r, true, nil
	}
	return 0, false, fmt.Errorf("redirect: unrecognized kind %d", rd.Kind)
}

func heredocContent(hd *syntax.HereDoc, env *Env) (string, error) {
	if hd.Quoted {
		return hd.Raw, nil
	}
	if hd.Content == nil {
		return "", nil
	}
	return ExpandWord(*hd.Content, env)
}
