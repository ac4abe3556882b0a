package interp

import (
	"bytes"
	"strings"
	"testing"
)

func evalOK(t *testing.T, src string) (Value, string) {
	t.Helper()
	var out bytes.Buffer
	i := New(Options{Stdout: &out})
	v, err := i.Eval(src)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return v, out.String()
}

func TestArithmeticDenotations(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"3 + 4", 7},
		{"10 - 3 * 2", 4},
		{"(10 - 3) * 2", 14},
		{"7 MOD 3", 1},
		{"-7 MOD 3", 2},
		{"2 ** 10", 1024},
	}
	for _, c := range cases {
		v, _ := evalOK(t, c.src)
		got, ok := v.(int64)
		if !ok || got != c.want {
			t.Errorf("%s = %v, want %d", c.src, v, c.want)
		}
	}
}

func TestRealArithmeticWidening(t *testing.T) {
	v, _ := evalOK(t, "1 + 2.5")
	got, ok := v.(float64)
	if !ok || got != 3.5 {
		t.Errorf("1 + 2.5 = %v, want 3.5", v)
	}
}

func TestIdentityAndVariableDeclarations(t *testing.T) {
	v, _ := evalOK(t, "INT n = 5; n * n")
	if got, ok := v.(int64); !ok || got != 25 {
		t.Errorf("got %v, want 25", v)
	}

	v, _ = evalOK(t, "INT x := 1; x := x + 1; x := x + 1; x")
	if got, ok := v.(int64); !ok || got != 3 {
		t.Errorf("got %v, want 3", v)
	}
}

func TestConditionalClause(t *testing.T) {
	v, _ := evalOK(t, "INT x = 5; IF x > 3 THEN 1 ELSE 0 FI")
	if got, ok := v.(int64); !ok || got != 1 {
		t.Errorf("got %v, want 1", v)
	}
	v, _ = evalOK(t, "INT x = 2; IF x > 3 THEN 1 ELSE 0 FI")
	if got, ok := v.(int64); !ok || got != 0 {
		t.Errorf("got %v, want 0", v)
	}
}

func TestCaseClause(t *testing.T) {
	v, _ := evalOK(t, "INT x = 2; CASE x IN 10, 20, 30 OUT 99 ESAC")
	if got, ok := v.(int64); !ok || got != 20 {
		t.Errorf("got %v, want 20", v)
	}
	v, _ = evalOK(t, "INT x = 9; CASE x IN 10, 20, 30 OUT 99 ESAC")
	if got, ok := v.(int64); !ok || got != 99 {
		t.Errorf("got %v, want 99", v)
	}
}

func TestForLoopAccumulates(t *testing.T) {
	src := "INT sum := 0; FOR i FROM 1 TO 5 DO sum := sum + i OD; sum"
	v, _ := evalOK(t, src)
	if got, ok := v.(int64); !ok || got != 15 {
		t.Errorf("got %v, want 15", v)
	}
}

func TestWhileLoop(t *testing.T) {
	src := "INT x := 1; WHILE x < 100 DO x := x * 2 OD; x"
	v, _ := evalOK(t, src)
	if got, ok := v.(int64); !ok || got != 128 {
		t.Errorf("got %v, want 128", v)
	}
}

func TestRoutineTextCallAndRecursion(t *testing.T) {
	src := `
	PROC fact = (INT n) INT:
		IF n <= 1 THEN 1 ELSE n * fact(n - 1) FI;
	fact(6)
	`
	v, _ := evalOK(t, src)
	if got, ok := v.(int64); !ok || got != 720 {
		t.Errorf("got %v, want 720", v)
	}
}

func TestNameGeneratorAndAssignment(t *testing.T) {
	src := `
	REF INT p = LOC INT;
	p := 41;
	p := p + 1;
	p
	`
	v, _ := evalOK(t, src)
	ref, ok := v.(*Ref)
	if !ok {
		t.Fatalf("got %T, want *Ref", v)
	}
	got, ok := ref.load().(int64)
	if !ok || got != 42 {
		t.Errorf("loaded %v, want 42", got)
	}
}

func TestArrayIndexingAndSlicing(t *testing.T) {
	src := `
	[1:5]INT a;
	a[1] := 10;
	a[5] := 50;
	a[1] + a[5]
	`
	v, _ := evalOK(t, src)
	if got, ok := v.(int64); !ok || got != 60 {
		t.Errorf("got %v, want 60", v)
	}
}

func TestStructSelection(t *testing.T) {
	src := `
	MODE POINT = STRUCT(INT x, INT y);
	POINT p := (1, 2);
	x OF p + y OF p
	`
	v, _ := evalOK(t, src)
	if got, ok := v.(int64); !ok || got != 3 {
		t.Errorf("got %v, want 3", v)
	}
}

func TestGotoJumpsWithinSerialClause(t *testing.T) {
	src := `
	INT x := 0;
	again:
	x := x + 1;
	IF x < 3 THEN GOTO again FI;
	x
	`
	v, _ := evalOK(t, src)
	if got, ok := v.(int64); !ok || got != 3 {
		t.Errorf("got %v, want 3", v)
	}
}

func TestPrintBuiltin(t *testing.T) {
	_, out := evalOK(t, `print("hello")`)
	if !strings.Contains(out, "hello") {
		t.Errorf("stdout = %q, want to contain %q", out, "hello")
	}
}

// TestLocalNameEscapingProcYieldsScopeError exercises the dynamic scope
// check: a procedure that returns a reference to its own local
// generator must be rejected, the scenario table's canonical example.
func TestLocalNameEscapingProcYieldsScopeError(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval(`PROC bad = REF INT: LOC INT; bad`)
	if err == nil {
		t.Fatal("expected a scope error, got nil")
	}
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("INT x = 1 OVER 0; x")
	if err == nil {
		t.Fatal("expected a runtime error for division by zero")
	}
}

func TestUndeclaredIdentifierIsModeError(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("nosuch + 1")
	if err == nil {
		t.Fatal("expected a mode error for an undeclared identifier")
	}
}

func TestEvalPathMissingFile(t *testing.T) {
	i := New(Options{})
	if _, err := i.EvalPath("/nonexistent/path/to/source.a68"); err == nil {
		t.Fatal("expected an error reading a missing file")
	}
}
