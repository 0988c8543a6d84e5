// psh is a proof of concept shell built on top of [interp].
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jan-g/psh/interp"
	"github.com/jan-g/psh/syntax"
)

var command = flag.String("c", "", "command to be executed")

func main() {
	os.Exit(main1())
}

func main1() int {
	flag.Parse()
	status, err := runAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return status
}

func runAll() (int, error) {
	r, err := interp.New(interp.StdIO(os.Stdin, os.Stdout, os.Stderr))
	if err != nil {
		return 1, err
	}
	defer r.Close()

	if *command != "" {
		return runString(r, *command)
	}
	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runInteractive(r, os.Stdin, os.Stdout), nil
		}
		return runReader(r, os.Stdin)
	}
	status := 0
	for _, path := range flag.Args() {
		s, err := runPath(r, path)
		if err != nil {
			return s, err
		}
		status = s
	}
	return status, nil
}

func runString(r *interp.Runner, src string) (int, error) {
	seq, err := syntax.Parse(src)
	if err != nil {
		return 1, err
	}
	return r.Run(seq)
}

func runReader(r *interp.Runner, reader io.Reader) (int, error) {
	src, err := io.ReadAll(reader)
	if err != nil {
		return 1, err
	}
	return runString(r, string(src))
}

func runPath(r *interp.Runner, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 1, err
	}
	defer f.Close()
	return runReader(r, f)
}

// runInteractive reads one line at a time, executing each as a
// complete program; unlike runPath it does not support multi-line
// constructs spanning separate Enter presses.
func runInteractive(r *interp.Runner, stdin io.Reader, stdout io.Writer) int {
	scanner := bufio.NewScanner(stdin)
	status := 0
	fmt.Fprint(stdout, "$ ")
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")
		if strings.TrimSpace(line) != "" {
			s, err := runString(r, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			status = s
		}
		fmt.Fprint(stdout, "$ ")
	}
	return status
}
