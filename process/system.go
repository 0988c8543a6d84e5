// Package process is the small, mockable OS boundary the interpreter
// consumes for everything that touches file descriptors and child
// processes: open, close, dup, dup2, fcntl-dupfd, pipe, fork, waitpid,
// execvp, chdir. It is grounded on the original project's mock_os.py,
// which patches exactly this set of os/fcntl calls over an in-memory
// `{fd: data}` table with a "lowest free fd" allocator.
//
// Go cannot safely fork its own runtime mid-program, so Fork here is a
// goroutine carrying a copy of the descriptor table rather than a real
// syscall.Fork: the child mutates its own table (via Dup2, Close, ...)
// without disturbing the parent's, which is the only part of
// fork/exec semantics the interpreter actually depends on. External
// program execution still goes through the real OS via os/exec, which
// performs the actual fork-and-exec.
//
// A real fork() duplicates the descriptor table at the OS level: each
// side gets its own integer descriptor, and closing one side's copy
// never invalidates the other's, even though both still refer to the
// same underlying open file description. clone mirrors that with
// unix.Dup rather than copying *os.File pointers, so a pipeline
// child's Close calls cannot yank a descriptor out from under its
// parent or its siblings.
package process

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sys/unix"
)

// pidTable is the pid-to-exit-status registry shared by a System and
// every System forked from it, exactly as descendant processes share
// one kernel-wide pid space in a real OS.
type pidTable struct {
	mu      sync.Mutex
	entries map[int]chan int
	next    int
}

// System is the descriptor table and process boundary threaded through
// the redirection and execution engines.
type System struct {
	mu   sync.Mutex
	fds  map[int]*os.File
	pids *pidTable
}

// New returns a System whose descriptors 0, 1, 2 are the process's real
// stdin, stdout, and stderr.
func New() *System {
	return &System{
		fds: map[int]*os.File{
			0: os.Stdin,
			1: os.Stdout,
			2: os.Stderr,
		},
		pids: &pidTable{entries: map[int]chan int{}},
	}
}

// clone returns a System whose descriptor table holds independently
// closeable OS-level duplicates of s's, as syscall.Fork's descriptor
// table copy would. It shares s's pid table, since forked descendants
// still wait on and report into the same pid space.
func (s *System) clone() (*System, error) {
	s.mu.Lock()
	fds := make(map[int]*os.File, len(s.fds))
	for fd, f := range s.fds {
		fds[fd] = f
	}
	s.mu.Unlock()

	cp := &System{
		fds:  make(map[int]*os.File, len(fds)),
		pids: s.pids,
	}
	for fd, f := range fds {
		nfd, err := unix.Dup(int(f.Fd()))
		if err != nil {
			for _, dup := range cp.fds {
				dup.Close()
			}
			return nil, err
		}
		cp.fds[fd] = os.NewFile(uintptr(nfd), f.Name())
	}
	return cp, nil
}

func (s *System) freeFd(floor int) int {
	for i := floor; ; i++ {
		if _, ok := s.fds[i]; !ok {
			return i
		}
	}
}

// File resolves a logical descriptor to the real *os.File backing it.
func (s *System) File(fd int) (*os.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fds[fd]
	return f, ok
}

// SetFile installs f at logical descriptor fd, as Open/Pipe/Dup2 do.
func (s *System) SetFile(fd int, f *os.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fds[fd] = f
}

// Open opens path and installs it at a fresh logical descriptor.
func (s *System) Open(path string, flag int, perm os.FileMode) (int, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	fd := s.freeFd(0)
	s.fds[fd] = f
	s.mu.Unlock()
	return fd, nil
}

// Close removes fd from the table and closes its file, unless another
// descriptor in the table still aliases that same file.
func (s *System) Close(fd int) error {
	s.mu.Lock()
	f, ok := s.fds[fd]
	delete(s.fds, fd)
	shared := false
	for _, g := range s.fds {
		if ok && g == f {
			shared = true
		}
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("process: close: fd %d not open", fd)
	}
	if shared {
		return nil
	}
	return f.Close()
}

// Dup allocates a fresh descriptor aliasing fd.
func (s *System) Dup(fd int) (int, error) {
	return s.DupFD(fd, 0)
}

// DupFD is fcntl(fd, F_DUPFD, floor): the lowest unused descriptor at
// or above floor is made to alias fd.
func (s *System) DupFD(fd, floor int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fds[fd]
	if !ok {
		return 0, fmt.Errorf("process: dup: fd %d not open", fd)
	}
	nfd := s.freeFd(floor)
	s.fds[nfd] = f
	return nfd, nil
}

// Dup2 makes dst an alias of src, closing whatever dst previously held
// unless another descriptor in the table still aliases it.
func (s *System) Dup2(src, dst int) error {
	s.mu.Lock()
	f, ok := s.fds[src]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("process: dup2: fd %d not open", src)
	}
	old, hadOld := s.fds[dst]
	s.fds[dst] = f
	for _, g := range s.fds {
		if g == old {
			hadOld = false
		}
	}
	s.mu.Unlock()
	if hadOld {
		old.Close()
	}
	return nil
}

// Pipe installs a read and write end at fresh descriptors.
func (s *System) Pipe() (r, w int, err error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return 0, 0, err
	}
	s.mu.Lock()
	r = s.freeFd(0)
	s.fds[r] = pr
	w = s.freeFd(0)
	s.fds[w] = pw
	s.mu.Unlock()
	return r, w, nil
}

// Fork runs fn against a forked copy of s's descriptor table on its own
// goroutine and returns a pid immediately; Wait(pid) blocks for fn's
// return value, standing in for the child's exit status. A descriptor
// table that cannot be duplicated (too many open files) is reported as
// a pid whose Wait returns status 127 rather than from Fork itself; fn
// is not run in that case.
func (s *System) Fork(fn func(child *System) int) int {
	s.pids.mu.Lock()
	pid := s.pids.next
	s.pids.next++
	done := make(chan int, 1)
	s.pids.entries[pid] = done
	s.pids.mu.Unlock()

	child, err := s.clone()
	if err != nil {
		done <- 127
		return pid
	}
	go func() {
		done <- fn(child)
	}()
	return pid
}

// Wait blocks for the child registered under pid and returns its exit
// status.
func (s *System) Wait(pid int) (int, error) {
	s.pids.mu.Lock()
	done, ok := s.pids.entries[pid]
	s.pids.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("process: wait: no such pid %d", pid)
	}
	status := <-done
	s.pids.mu.Lock()
	delete(s.pids.entries, pid)
	s.pids.mu.Unlock()
	return status, nil
}

// Exec runs path with argv and env, with stdin/stdout/stderr taken from
// descriptors 0, 1, 2 of s, and returns its exit status. It is the
// execvp half of a fork+exec pair; real fork is never used, since
// os/exec already performs an atomic fork-and-exec in the OS.
func (s *System) Exec(path string, argv, env []string) (int, error) {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	if f, ok := s.File(0); ok {
		cmd.Stdin = f
	}
	if f, ok := s.File(1); ok {
		cmd.Stdout = f
	}
	if f, ok := s.File(2); ok {
		cmd.Stderr = f
	}
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 127, err
}

// Chdir changes the process's working directory.
func (s *System) Chdir(path string) error { return os.Chdir(path) }

// Getpid returns the interpreter process's pid, backing the `$$`
// variable.
func (s *System) Getpid() int { return os.Getpid() }
