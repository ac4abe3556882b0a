package interp

import (
	"errors"
	"fmt"
	"math/big"
)

// applyDyadic implements the standard-environment operators registered
// by buildStandardEnvironment (stdenv.go): arithmetic on INT/REAL,
// relational comparisons, and BOOL connectives. User-declared OP
// overloads are out of this core's evaluated subset; only the fixed
// standard set is dispatched here, by symbol rather than through a
// frame-resident ProcValue, since standard operators have no routine
// text to evaluate.
func applyDyadic(sym string, left, right Value) (Value, error) {
	switch sym {
	case "AND":
		return asBool(left) && asBool(right), nil
	case "OR":
		return asBool(left) || asBool(right), nil
	}
	if lbf, rbf, isBigReal := asBigFloats(left, right); isBigReal {
		switch sym {
		case "+":
			return new(big.Float).Add(lbf, rbf), nil
		case "-":
			return new(big.Float).Sub(lbf, rbf), nil
		case "*":
			return new(big.Float).Mul(lbf, rbf), nil
		case "/":
			if rbf.Sign() == 0 {
				return nil, errors.New("division by zero")
			}
			return new(big.Float).Quo(lbf, rbf), nil
		case "**":
			return bigFloatPow(lbf, rbf), nil
		case "=":
			return lbf.Cmp(rbf) == 0, nil
		case "/=":
			return lbf.Cmp(rbf) != 0, nil
		case "<":
			return lbf.Cmp(rbf) < 0, nil
		case ">":
			return lbf.Cmp(rbf) > 0, nil
		case "<=":
			return lbf.Cmp(rbf) <= 0, nil
		case ">=":
			return lbf.Cmp(rbf) >= 0, nil
		}
		return nil, fmt.Errorf("operator %s not defined over LONG REAL", sym)
	}
	if lbi, rbi, isBigInt := asBigInts(left, right); isBigInt {
		switch sym {
		case "+":
			return new(big.Int).Add(lbi, rbi), nil
		case "-":
			return new(big.Int).Sub(lbi, rbi), nil
		case "*":
			return new(big.Int).Mul(lbi, rbi), nil
		case "/", "OVER":
			if rbi.Sign() == 0 {
				return nil, errors.New("division by zero")
			}
			return new(big.Int).Quo(lbi, rbi), nil
		case "MOD":
			if rbi.Sign() == 0 {
				return nil, errors.New("modulo by zero")
			}
			m := new(big.Int).Mod(lbi, rbi)
			return m, nil
		case "**":
			if !rbi.IsInt64() || rbi.Sign() < 0 {
				return nil, errors.New("exponent out of range for LONG INT **")
			}
			return new(big.Int).Exp(lbi, rbi, nil), nil
		case "=":
			return lbi.Cmp(rbi) == 0, nil
		case "/=":
			return lbi.Cmp(rbi) != 0, nil
		case "<":
			return lbi.Cmp(rbi) < 0, nil
		case ">":
			return lbi.Cmp(rbi) > 0, nil
		case "<=":
			return lbi.Cmp(rbi) <= 0, nil
		case ">=":
			return lbi.Cmp(rbi) >= 0, nil
		}
		return nil, fmt.Errorf("operator %s not defined over LONG INT", sym)
	}
	if lf, rf, isReal := asReals(left, right); isReal {
		switch sym {
		case "+":
			return lf + rf, nil
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "/":
			if rf == 0 {
				return nil, errors.New("division by zero")
			}
			return lf / rf, nil
		case "**":
			return realPow(lf, rf), nil
		case "=":
			return lf == rf, nil
		case "/=":
			return lf != rf, nil
		case "<":
			return lf < rf, nil
		case ">":
			return lf > rf, nil
		case "<=":
			return lf <= rf, nil
		case ">=":
			return lf >= rf, nil
		}
		return nil, fmt.Errorf("operator %s not defined over REAL", sym)
	}
	li, rok1 := left.(int64)
	ri, rok2 := right.(int64)
	if rok1 && rok2 {
		switch sym {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "/":
			if ri == 0 {
				return nil, errors.New("division by zero")
			}
			return li / ri, nil
		case "MOD":
			if ri == 0 {
				return nil, errors.New("modulo by zero")
			}
			m := li % ri
			if m < 0 {
				m += absInt64(ri)
			}
			return m, nil
		case "OVER":
			if ri == 0 {
				return nil, errors.New("division by zero")
			}
			return li / ri, nil
		case "**":
			return intPow(li, ri), nil
		case "=":
			return li == ri, nil
		case "/=":
			return li != ri, nil
		case "<":
			return li < ri, nil
		case ">":
			return li > ri, nil
		case "<=":
			return li <= ri, nil
		case ">=":
			return li >= ri, nil
		}
	}
	switch sym {
	case "=":
		return left == right, nil
	case "/=":
		return left != right, nil
	}
	return nil, fmt.Errorf("operator %s not defined for operand types", sym)
}

func applyMonadic(sym string, v Value) (Value, error) {
	switch sym {
	case "-":
		switch t := v.(type) {
		case int64:
			return -t, nil
		case float64:
			return -t, nil
		case *big.Int:
			return new(big.Int).Neg(t), nil
		case *big.Float:
			return new(big.Float).Neg(t), nil
		}
	case "ABS":
		switch t := v.(type) {
		case int64:
			return absInt64(t), nil
		case float64:
			if t < 0 {
				return -t, nil
			}
			return t, nil
		case *big.Int:
			return new(big.Int).Abs(t), nil
		case *big.Float:
			return new(big.Float).Abs(t), nil
		}
	case "NOT":
		return !asBool(v), nil
	}
	return nil, fmt.Errorf("monadic operator %s not defined for operand type", sym)
}

// asBigInts reports whether either operand is a LONG INT value,
// promoting a plain int64 counterpart (from an un-widened mixed
// expression) up to *big.Int so the two can still be compared/combined.
func asBigInts(left, right Value) (*big.Int, *big.Int, bool) {
	li, lok := left.(*big.Int)
	ri, rok := right.(*big.Int)
	if !lok && !rok {
		return nil, nil, false
	}
	if !lok {
		li = toBigInt(left)
	}
	if !rok {
		ri = toBigInt(right)
	}
	return li, ri, true
}

// asBigFloats reports whether either operand is a LONG REAL value,
// analogous to asBigInts.
func asBigFloats(left, right Value) (*big.Float, *big.Float, bool) {
	lf, lok := left.(*big.Float)
	rf, rok := right.(*big.Float)
	if !lok && !rok {
		return nil, nil, false
	}
	prec := uint(106)
	if lok {
		prec = lf.Prec()
	} else if rok {
		prec = rf.Prec()
	}
	if !lok {
		lf = toBigFloat(left, prec)
	}
	if !rok {
		rf = toBigFloat(right, prec)
	}
	return lf, rf, true
}

func bigFloatPow(base *big.Float, exp *big.Float) *big.Float {
	n, _ := exp.Int64()
	result := big.NewFloat(1).SetPrec(base.Prec())
	for k := int64(0); k < n; k++ {
		result.Mul(result, base)
	}
	return result
}

func asBool(v Value) bool {
	b, _ := v.(bool)
	return b
}

func asReals(left, right Value) (float64, float64, bool) {
	lf, lok := toRealIfAny(left)
	rf, rok := toRealIfAny(right)
	if !lok && !rok {
		return 0, 0, false
	}
	return lf, rf, true
}

func toRealIfAny(v Value) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), false
	}
	return 0, false
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func intPow(base, exp int64) int64 {
	var result int64 = 1
	for e := exp; e > 0; e-- {
		result *= base
	}
	return result
}

func realPow(base, exp float64) float64 {
	result := 1.0
	n := int(exp)
	for k := 0; k < n; k++ {
		result *= base
	}
	return result
}
