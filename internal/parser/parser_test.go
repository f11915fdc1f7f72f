package parser_test

import (
	"strings"
	"testing"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/parser"
	"github.com/recht/triton/internal/source"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, err := parser.Parse(source.NewBuffer("kernel.py", []byte(src)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return mod
}

func parseErr(t *testing.T, src string) *diag.Error {
	t.Helper()
	_, err := parser.Parse(source.NewBuffer("kernel.py", []byte(src)))
	if err == nil {
		t.Fatal("expected parse error")
	}
	derr, ok := err.(*diag.Error)
	if !ok {
		t.Fatalf("error type %T", err)
	}
	return derr
}

func TestParseKernelSignature(t *testing.T) {
	mod := parse(t, `
def add(x_ptr, y_ptr, n, BLOCK: tl.constexpr, extra=4):
    pass
`)
	fn := mod.Func("add")
	if fn == nil {
		t.Fatal("function add not found")
	}
	if len(fn.Params) != 5 {
		t.Fatalf("got %d params", len(fn.Params))
	}
	if !fn.Params[3].Constexpr {
		t.Error("BLOCK should be constexpr")
	}
	if fn.Params[2].Constexpr {
		t.Error("n should not be constexpr")
	}
	if fn.Params[4].Default == nil || fn.Params[4].Default.Int != 4 {
		t.Error("extra should default to 4")
	}
	if fn.ParamIndex("BLOCK") != 3 {
		t.Errorf("ParamIndex(BLOCK) = %d", fn.ParamIndex("BLOCK"))
	}
}

func TestParsePrecedence(t *testing.T) {
	mod := parse(t, "def f(a, b, c):\n    x = a + b * c\n")
	stmt := mod.Func("f").Body[0]
	if stmt.Kind != ast.StmtAssign {
		t.Fatalf("kind %v", stmt.Kind)
	}
	v := stmt.Value
	if v.Op != ast.OpAdd {
		t.Fatalf("root op %v, want +", v.Op)
	}
	if v.Y.Op != ast.OpMul {
		t.Fatalf("rhs op %v, want *", v.Y.Op)
	}
}

func TestParsePowerRightAssoc(t *testing.T) {
	mod := parse(t, "def f(a):\n    x = 2 ** 3 ** 2\n")
	v := mod.Func("f").Body[0].Value
	if v.Op != ast.OpPow || v.Y.Op != ast.OpPow {
		t.Fatalf("2**3**2 should nest to the right, got %v / %v", v.Op, v.Y.Op)
	}
}

func TestParseChainedComparisonRejected(t *testing.T) {
	err := parseErr(t, "def f(a, b, c):\n    x = a < b < c\n")
	if err.Kind != diag.Unsupported {
		t.Errorf("kind %v, want Unsupported", err.Kind)
	}
	if !strings.Contains(err.Msg, "simultaneous multiple comparison") {
		t.Errorf("msg %q", err.Msg)
	}
}

func TestParseChainedBoolRejected(t *testing.T) {
	err := parseErr(t, "def f(a, b, c):\n    x = a or b or c\n")
	if err.Kind != diag.Unsupported {
		t.Errorf("kind %v, want Unsupported", err.Kind)
	}
	if !strings.Contains(err.Msg, "chained boolean operators") {
		t.Errorf("msg %q", err.Msg)
	}
	// parenthesized form is fine
	parse(t, "def f(a, b, c):\n    x = (a or b) or c\n")
}

func TestParseIfElifElse(t *testing.T) {
	mod := parse(t, `
def f(a):
    if a == 0:
        x = 1
    elif a == 1:
        x = 2
    else:
        x = 3
    return x
`)
	stmt := mod.Func("f").Body[0]
	if stmt.Kind != ast.StmtIf {
		t.Fatalf("kind %v", stmt.Kind)
	}
	if len(stmt.Orelse) != 1 || stmt.Orelse[0].Kind != ast.StmtIf {
		t.Fatal("elif should nest as a single if in Orelse")
	}
	if len(stmt.Orelse[0].Orelse) != 1 {
		t.Fatal("else body lost")
	}
}

func TestParseLoopElseRejected(t *testing.T) {
	for _, src := range []string{
		"def f(a):\n    for i in range(a):\n        pass\n    else:\n        pass\n",
		"def f(a):\n    while a:\n        pass\n    else:\n        pass\n",
	} {
		err := parseErr(t, src)
		if err.Kind != diag.Unsupported {
			t.Errorf("kind %v, want Unsupported", err.Kind)
		}
	}
}

func TestParseSubscriptWithSlices(t *testing.T) {
	mod := parse(t, "def f(x):\n    y = x[:, None]\n")
	v := mod.Func("f").Body[0].Value
	if v.Kind != ast.ExprSubscript {
		t.Fatalf("kind %v", v.Kind)
	}
	idx := v.Index
	if idx.Kind != ast.ExprTuple || len(idx.Elems) != 2 {
		t.Fatalf("index %v", idx.Kind)
	}
	if idx.Elems[0].Kind != ast.ExprSlice {
		t.Errorf("first element %v, want slice", idx.Elems[0].Kind)
	}
	if idx.Elems[1].Kind != ast.ExprNoneLit {
		t.Errorf("second element %v, want None", idx.Elems[1].Kind)
	}
}

func TestParseCallKwargs(t *testing.T) {
	mod := parse(t, "def f(p, m):\n    v = load(p, mask=m, other=0.0)\n")
	v := mod.Func("f").Body[0].Value
	if v.Kind != ast.ExprCall || len(v.Args) != 1 || len(v.Kwargs) != 2 {
		t.Fatalf("call shape: %d args %d kwargs", len(v.Args), len(v.Kwargs))
	}
	if v.Kwargs[0].Name != "mask" || v.Kwargs[1].Name != "other" {
		t.Errorf("kwargs %q %q", v.Kwargs[0].Name, v.Kwargs[1].Name)
	}
}

func TestParsePositionalAfterKeyword(t *testing.T) {
	err := parseErr(t, "def f(p, m):\n    v = load(mask=m, p)\n")
	if err.Kind != diag.Syntax {
		t.Errorf("kind %v, want Syntax", err.Kind)
	}
}

func TestParseAugAssign(t *testing.T) {
	mod := parse(t, "def f(a, b):\n    a += b\n    a //= 2\n")
	body := mod.Func("f").Body
	if body[0].Op != ast.OpAdd || body[1].Op != ast.OpFloorDiv {
		t.Errorf("ops %v %v", body[0].Op, body[1].Op)
	}
}

func TestParseAnnAssign(t *testing.T) {
	mod := parse(t, "def f(a):\n    N: tl.constexpr = 128\n")
	stmt := mod.Func("f").Body[0]
	if stmt.Kind != ast.StmtAnnAssign || stmt.Annotation != "tl.constexpr" {
		t.Fatalf("kind %v annotation %q", stmt.Kind, stmt.Annotation)
	}
}

func TestParseTupleAssign(t *testing.T) {
	mod := parse(t, "def f(a, b):\n    x, y = b, a\n    return x, y\n")
	stmt := mod.Func("f").Body[0]
	if stmt.Targets[0].Kind != ast.ExprTuple || stmt.Value.Kind != ast.ExprTuple {
		t.Fatal("tuple assign shape")
	}
	ret := mod.Func("f").Body[1]
	if ret.Value.Kind != ast.ExprTuple {
		t.Fatal("tuple return shape")
	}
}

func TestParseTernaryExpr(t *testing.T) {
	mod := parse(t, "def f(a, b):\n    x = a if a > b else b\n")
	v := mod.Func("f").Body[0].Value
	if v.Kind != ast.ExprCond {
		t.Fatalf("kind %v", v.Kind)
	}
	if v.Cond.Kind != ast.ExprCompare {
		t.Errorf("cond kind %v", v.Cond.Kind)
	}
}

func TestParseDuplicateFunction(t *testing.T) {
	err := parseErr(t, "def f(a):\n    pass\ndef f(a):\n    pass\n")
	if err.Kind != diag.Redefinition {
		t.Errorf("kind %v, want Redefinition", err.Kind)
	}
}

func TestParseNegativeLiteralFolded(t *testing.T) {
	mod := parse(t, "def f(x):\n    y = x * -1\n")
	v := mod.Func("f").Body[0].Value
	if v.Y.Kind != ast.ExprIntLit || v.Y.Int != -1 {
		t.Fatalf("rhs %v %d, want folded -1", v.Y.Kind, v.Y.Int)
	}
}
