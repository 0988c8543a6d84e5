package process

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenWriteClose(t *testing.T) {
	sys := New()
	path := filepath.Join(t.TempDir(), "f")
	fd, err := sys.Open(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := sys.File(fd)
	if !ok {
		t.Fatal("expected File to resolve the descriptor Open just installed")
	}
	if _, err := f.WriteString("hi"); err != nil {
		t.Fatal(err)
	}
	if err := sys.Close(fd); err != nil {
		t.Fatal(err)
	}
	if _, ok := sys.File(fd); ok {
		t.Error("expected the descriptor to be gone from the table after Close")
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Errorf("file contents = %q, want %q", got, "hi")
	}
}

func TestCloseUnopenedFd(t *testing.T) {
	sys := New()
	if err := sys.Close(99); err == nil {
		t.Error("expected Close on an unopened fd to fail")
	}
}

// freeFd always allocates the lowest descriptor not currently in the
// table, so closing fd 1 and opening again should reuse it rather than
// growing past it.
func TestFreeFdReusesLowestSlot(t *testing.T) {
	sys := New()
	path := filepath.Join(t.TempDir(), "f")
	fd1, err := sys.Open(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.Close(fd1); err != nil {
		t.Fatal(err)
	}
	fd2, err := sys.Open(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if fd2 != fd1 {
		t.Errorf("expected the freed descriptor %d to be reused, got %d", fd1, fd2)
	}
}

func TestDupAliasesSameFile(t *testing.T) {
	sys := New()
	r, w, err := sys.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close(r)

	alias, err := sys.Dup(w)
	if err != nil {
		t.Fatal(err)
	}
	if alias == w {
		t.Fatal("Dup must return a fresh descriptor, not the same one")
	}
	wf, _ := sys.File(w)
	af, _ := sys.File(alias)
	if wf != af {
		t.Error("Dup's alias should resolve to the same *os.File as the original")
	}
}

func TestDupFDRespectsFloor(t *testing.T) {
	sys := New()
	r, w, err := sys.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close(r)
	defer sys.Close(w)

	nfd, err := sys.DupFD(w, 10)
	if err != nil {
		t.Fatal(err)
	}
	if nfd < 10 {
		t.Errorf("DupFD(w, 10) = %d, want >= 10", nfd)
	}
	sys.Close(nfd)
}

func TestDup2ClosesPreviousOccupant(t *testing.T) {
	sys := New()
	r1, w1, err := sys.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	r2, w2, err := sys.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close(r1)
	defer sys.Close(r2)
	defer sys.Close(w2)

	if err := sys.Dup2(w2, w1); err != nil {
		t.Fatal(err)
	}
	f, _ := sys.File(w1)
	target, _ := sys.File(w2)
	if f != target {
		t.Error("after Dup2(w2, w1), fd w1 should resolve to the same file as w2")
	}
}

func TestPipeRoundTrip(t *testing.T) {
	sys := New()
	r, w, err := sys.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	wf, _ := sys.File(w)
	rf, _ := sys.File(r)

	go func() {
		wf.WriteString("ping")
		wf.Close()
	}()

	buf := make([]byte, 4)
	n, err := rf.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("read %q, want %q", buf[:n], "ping")
	}
}

// TestForkClonePreservesParentDescriptor exercises the fork-time
// descriptor duplication: closing a descriptor inside a forked child
// must not invalidate the parent's own copy of the same logical
// descriptor, since a real fork() gives each side an independent
// descriptor onto the same open file description.
func TestForkClonePreservesParentDescriptor(t *testing.T) {
	sys := New()
	r, w, err := sys.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Close(r)

	pid := sys.Fork(func(child *System) int {
		child.Close(w)
		return 0
	})
	if _, err := sys.Wait(pid); err != nil {
		t.Fatal(err)
	}

	f, ok := sys.File(w)
	if !ok {
		t.Fatal("expected the parent's w descriptor to still be registered after the child closed its own copy")
	}
	if _, err := f.WriteString("still alive"); err != nil {
		t.Fatalf("parent's descriptor was invalidated by the child's Close: %v", err)
	}
	sys.Close(w)
}

// TestForkNestedPidsShareTable exercises the shared pid table: a forked
// child that itself forks must allocate from the same pid space as its
// parent, and Wait from either level must work against it.
func TestForkNestedPidsShareTable(t *testing.T) {
	sys := New()
	var nestedPid int
	var nestedStatus int
	var nestedErr error

	pid1 := sys.Fork(func(child *System) int {
		nestedPid = child.Fork(func(grandchild *System) int {
			return 42
		})
		nestedStatus, nestedErr = child.Wait(nestedPid)
		return nestedStatus
	})

	status1, err := sys.Wait(pid1)
	if err != nil {
		t.Fatal(err)
	}
	if nestedErr != nil {
		t.Fatalf("nested Wait failed: %v", nestedErr)
	}
	if nestedPid == pid1 {
		t.Errorf("nested Fork allocated the same pid %d as its parent", pid1)
	}
	if nestedStatus != 42 {
		t.Errorf("nested Wait returned status %d, want 42", nestedStatus)
	}
	if status1 != 42 {
		t.Errorf("outer Fork returned %d, want 42 (propagated from the nested child)", status1)
	}
}

func TestWaitUnknownPid(t *testing.T) {
	sys := New()
	if _, err := sys.Wait(999); err == nil {
		t.Error("expected Wait on an unregistered pid to fail")
	}
}

func TestWaitIsOneShot(t *testing.T) {
	sys := New()
	pid := sys.Fork(func(child *System) int { return 7 })
	if _, err := sys.Wait(pid); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Wait(pid); err == nil {
		t.Error("expected a second Wait on the same pid to fail, as waitpid would with ECHILD")
	}
}

func TestChdirGetpid(t *testing.T) {
	sys := New()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer sys.Chdir(wd)

	dir := t.TempDir()
	if err := sys.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	got, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Resolve symlinks (e.g. on macOS /tmp is a symlink) before comparing.
	wantReal, _ := filepath.EvalSymlinks(dir)
	gotReal, _ := filepath.EvalSymlinks(got)
	if gotReal != wantReal {
		t.Errorf("Getwd() = %q, want %q", gotReal, wantReal)
	}

	if sys.Getpid() != os.Getpid() {
		t.Error("Getpid should report the interpreter process's real pid")
	}
}
