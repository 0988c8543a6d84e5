package interp

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jan-g/psh/syntax"
)

// evalArith evaluates a `$((...))` expression tree against env, per
// spec.md section 4.H: a left-associative +,-,*,/ tree over numbers,
// with bare-name atoms resolved through the environment (unset or
// unparsable values read as 0, matching a shell's untyped variables).
func evalArith(e syntax.ArithExpr, env *Env) (float64, error) {
	switch v := e.(type) {
	case syntax.ArithNum:
		return float64(v), nil
	case syntax.ArithVar:
		s := env.Get(string(v))
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, nil
		}
		return f, nil
	case syntax.ArithBinOp:
		x, err := evalArith(v.X, env)
		if err != nil {
			return 0, err
		}
		y, err := evalArith(v.Y, env)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case '+':
			return x + y, nil
		case '-':
			return x - y, nil
		case '*':
			return x * y, nil
		case '/':
			if y == 0 {
				return 0, fmt.Errorf("arithmetic: division by zero")
			}
			return x / y, nil
		}
	}
	return 0, fmt.Errorf("arithmetic: unrecognized expression %T", e)
}

// formatNumber renders f the way a shell renders an arithmetic result:
// as a plain integer when it has no fractional part, else a decimal.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
