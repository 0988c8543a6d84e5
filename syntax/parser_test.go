package syntax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustParse(t *testing.T, src string) *CommandSequence {
	t.Helper()
	seq, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return seq
}

func TestParseSimpleCommand(t *testing.T) {
	seq := mustParse(t, "echo hello world")
	if len(seq.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(seq.Items))
	}
	cmd, ok := seq.Items[0].(*Command)
	if !ok {
		t.Fatalf("item is %T, want *Command", seq.Items[0])
	}
	if len(cmd.Words) != 3 {
		t.Fatalf("got %d words, want 3", len(cmd.Words))
	}
}

func TestParseAssignmentOnly(t *testing.T) {
	seq := mustParse(t, "x=1 y=2")
	cmd := seq.Items[0].(*Command)
	if len(cmd.Assigns) != 2 || len(cmd.Words) != 0 {
		t.Fatalf("got %d assigns / %d words, want 2/0", len(cmd.Assigns), len(cmd.Words))
	}
}

func TestParsePipe(t *testing.T) {
	seq := mustParse(t, "a | b | c")
	pipe, ok := seq.Items[0].(*CommandPipe)
	if !ok {
		t.Fatalf("item is %T, want *CommandPipe", seq.Items[0])
	}
	if len(pipe.Items) != 3 {
		t.Fatalf("got %d pipe stages, want 3", len(pipe.Items))
	}
}

func TestParseIfElif(t *testing.T) {
	seq := mustParse(t, "if a; then b; elif c; then d; else e; fi")
	ifst, ok := seq.Items[0].(*If)
	if !ok {
		t.Fatalf("item is %T, want *If", seq.Items[0])
	}
	if len(ifst.Clauses) != 3 {
		t.Fatalf("got %d clauses, want 3", len(ifst.Clauses))
	}
	if !ifst.Clauses[2].Otherwise {
		t.Error("expected the final clause to be the unconditional else arm")
	}
}

func TestParseWhile(t *testing.T) {
	seq := mustParse(t, "while a; do b; done")
	if _, ok := seq.Items[0].(*While); !ok {
		t.Fatalf("item is %T, want *While", seq.Items[0])
	}
}

func TestParseForWithWordList(t *testing.T) {
	seq := mustParse(t, "for x in a b c; do echo $x; done")
	forst, ok := seq.Items[0].(*For)
	if !ok {
		t.Fatalf("item is %T, want *For", seq.Items[0])
	}
	if forst.Var != "x" || len(forst.Words) != 3 {
		t.Errorf("got Var=%q, %d words; want x, 3", forst.Var, len(forst.Words))
	}
}

func TestParseForDefaultsToPositionalParams(t *testing.T) {
	seq := mustParse(t, "for x; do echo $x; done")
	forst := seq.Items[0].(*For)
	if len(forst.Words) != 1 {
		t.Fatalf("got %d words, want 1 (a reference to $@)", len(forst.Words))
	}
	ref, ok := forst.Words[0].Parts[0].(VarRef)
	if !ok || ref.Name != "@" {
		t.Errorf("expected a bare for with no word list to default to $@, got %#v", forst.Words[0])
	}
}

func TestParseCase(t *testing.T) {
	seq := mustParse(t, "case $x in a|b) echo ab ;; *) echo other ;; esac")
	c, ok := seq.Items[0].(*Case)
	if !ok {
		t.Fatalf("item is %T, want *Case", seq.Items[0])
	}
	if len(c.Clauses) != 2 {
		t.Fatalf("got %d clauses, want 2", len(c.Clauses))
	}
	if len(c.Clauses[0].Patterns) != 2 {
		t.Errorf("got %d patterns on the first clause, want 2 (a|b)", len(c.Clauses[0].Patterns))
	}
}

func TestParseFuncDef(t *testing.T) {
	seq := mustParse(t, "f() { echo hi; }")
	fn, ok := seq.Items[0].(*FuncDef)
	if !ok {
		t.Fatalf("item is %T, want *FuncDef", seq.Items[0])
	}
	if fn.Name != "f" {
		t.Errorf("got Name=%q, want f", fn.Name)
	}
}

func TestParseRedirect(t *testing.T) {
	seq := mustParse(t, "echo hi > out.txt 2>&1")
	cmd := seq.Items[0].(*Command)
	if len(cmd.Redirects) != 2 {
		t.Fatalf("got %d redirects, want 2", len(cmd.Redirects))
	}
	if cmd.Redirects[0].Kind != RedirTo || cmd.Redirects[0].Fd != 1 {
		t.Errorf("first redirect = %+v, want RedirTo on fd 1", cmd.Redirects[0])
	}
	if cmd.Redirects[1].Kind != RedirDup || cmd.Redirects[1].Fd != 2 {
		t.Errorf("second redirect = %+v, want RedirDup on fd 2", cmd.Redirects[1])
	}
}

func TestParseRejectsReservedWordAsCommandName(t *testing.T) {
	if _, err := Parse("if"); err == nil {
		t.Error("expected a bare reserved word to fail to parse as a complete program")
	}
}

func TestParseArithSubst(t *testing.T) {
	seq := mustParse(t, "echo $((1 + 2 * 3))")
	cmd := seq.Items[0].(*Command)
	arith, ok := cmd.Words[1].Parts[0].(Arith)
	if !ok {
		t.Fatalf("word part is %T, want Arith", cmd.Words[1].Parts[0])
	}
	if _, ok := arith.Expr.(ArithBinOp); !ok {
		t.Errorf("expr is %T, want ArithBinOp", arith.Expr)
	}
}

func TestParseParamOp(t *testing.T) {
	seq := mustParse(t, "echo ${x#foo}")
	cmd := seq.Items[0].(*Command)
	op, ok := cmd.Words[1].Parts[0].(ParamOp)
	if !ok {
		t.Fatalf("word part is %T, want ParamOp", cmd.Words[1].Parts[0])
	}
	if op.Ref.Name != "x" || op.Op != "#" {
		t.Errorf("got Ref.Name=%q Op=%q, want x, #", op.Ref.Name, op.Op)
	}
}

// TestRoundTrip is spec.md section 8's round-trip property: rendering a
// parsed program and reparsing the result must produce a structurally
// identical AST, even though the rendered text need not be byte-for-byte
// identical to the source.
func TestRoundTrip(t *testing.T) {
	programs := []string{
		"echo hello world",
		"x=1; echo $x",
		"a | b | c",
		"if a; then b; else c; fi",
		"while a; do b; done",
		"for x in a b c; do echo $x; done",
		"case $x in a) b ;; *) c ;; esac",
		"f() { echo hi; }",
		"echo hi > out.txt 2>&1",
		"echo $((1 + 2 * 3))",
		"echo ${x#foo}",
	}
	opts := cmpopts.IgnoreUnexported(HereDoc{})
	for _, src := range programs {
		first := mustParse(t, src)
		rendered := Render(first)
		second, err := Parse(rendered)
		if err != nil {
			t.Fatalf("Parse(%q) [re-parse of rendering of %q]: %v", rendered, src, err)
		}
		if diff := cmp.Diff(first, second, opts); diff != "" {
			t.Errorf("round-trip mismatch for %q (rendered as %q):\n%s", src, rendered, diff)
		}
	}
}
