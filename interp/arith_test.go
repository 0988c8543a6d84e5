package interp

import (
	"testing"

	"github.com/jan-g/psh/process"
	"github.com/jan-g/psh/syntax"
)

func TestEvalArithBinOps(t *testing.T) {
	env := NewEnv(process.New(), nil)
	cases := []struct {
		expr syntax.ArithExpr
		want float64
	}{
		{syntax.ArithBinOp{Op: '+', X: syntax.ArithNum(2), Y: syntax.ArithNum(3)}, 5},
		{syntax.ArithBinOp{Op: '-', X: syntax.ArithNum(2), Y: syntax.ArithNum(3)}, -1},
		{syntax.ArithBinOp{Op: '*', X: syntax.ArithNum(4), Y: syntax.ArithNum(2.5)}, 10},
		{syntax.ArithBinOp{Op: '/', X: syntax.ArithNum(7), Y: syntax.ArithNum(2)}, 3.5},
	}
	for _, c := range cases {
		got, err := evalArith(c.expr, env)
		if err != nil {
			t.Fatalf("evalArith(%v) error: %v", c.expr, err)
		}
		if got != c.want {
			t.Errorf("evalArith(%v) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestEvalArithDivisionByZero(t *testing.T) {
	env := NewEnv(process.New(), nil)
	_, err := evalArith(syntax.ArithBinOp{Op: '/', X: syntax.ArithNum(1), Y: syntax.ArithNum(0)}, env)
	if err == nil {
		t.Error("expected division by zero to return an error")
	}
}

func TestEvalArithVarUnsetIsZero(t *testing.T) {
	env := NewEnv(process.New(), nil)
	got, err := evalArith(syntax.ArithVar("nope"), env)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("an unset variable should evaluate to 0, got %v", got)
	}
}

func TestEvalArithVarUnparsableIsZero(t *testing.T) {
	env := NewEnv(process.New(), nil)
	env.Set("s", "not-a-number")
	got, err := evalArith(syntax.ArithVar("s"), env)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("an unparsable variable should evaluate to 0, got %v", got)
	}
}

func TestEvalArithVarResolvesFromEnv(t *testing.T) {
	env := NewEnv(process.New(), nil)
	env.Set("n", "42")
	got, err := evalArith(syntax.ArithVar("n"), env)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("evalArith(n) = %v, want 42", got)
	}
}

func TestFormatNumberIntegerVsDecimal(t *testing.T) {
	if got := formatNumber(5); got != "5" {
		t.Errorf("formatNumber(5) = %q, want %q", got, "5")
	}
	if got := formatNumber(3.5); got != "3.5" {
		t.Errorf("formatNumber(3.5) = %q, want %q", got, "3.5")
	}
	if got := formatNumber(-2); got != "-2" {
		t.Errorf("formatNumber(-2) = %q, want %q", got, "-2")
	}
}
