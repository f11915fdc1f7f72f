package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/parser"
	"github.com/recht/triton/internal/source"
	"github.com/recht/triton/internal/types"
)

func mustLower(t *testing.T, src, kernel string, opts Options) *ir.Module {
	t.Helper()
	mod, err := parser.Parse(source.NewBuffer("kernel.tr", []byte(src)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := Lower(mod, kernel, opts)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return out
}

func lowerErr(t *testing.T, src, kernel string, opts Options) *diag.Error {
	t.Helper()
	mod, err := parser.Parse(source.NewBuffer("kernel.tr", []byte(src)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Lower(mod, kernel, opts)
	if err == nil {
		t.Fatal("lower: expected an error")
	}
	var derr *diag.Error
	if !errors.As(err, &derr) {
		t.Fatalf("lower: expected a diag error, got %T: %v", err, err)
	}
	return derr
}

func i32Sig(n int) map[int]string {
	sig := map[int]string{}
	for i := 0; i < n; i++ {
		sig[i] = "i32"
	}
	return sig
}

func TestLowerVectorAdd(t *testing.T) {
	src := `
def add_kernel(x_ptr, y_ptr, out_ptr, n, BLOCK: tl.constexpr):
    pid = tl.program_id(0)
    offs = pid * BLOCK + tl.arange(0, BLOCK)
    mask = offs < n
    x = tl.load(x_ptr + offs, mask=mask)
    y = tl.load(y_ptr + offs, mask=mask)
    tl.store(out_ptr + offs, x + y, mask=mask)
`
	mod := mustLower(t, src, "add_kernel", Options{
		Signature: map[int]string{0: "*fp32", 1: "*fp32", 2: "*fp32", 3: "i32"},
		Constants: map[int]Constant{4: IntConst(64)},
		ArgAttrs:  map[int]map[string]int64{0: {"tt.divisibility": 16}},
	})

	f := mod.GetFunction("add_kernel")
	if f == nil || !f.Public {
		t.Fatal("entry function must exist and be public")
	}
	if got := len(f.Params); got != 4 {
		t.Fatalf("runtime signature has %d params, want 4", got)
	}
	if f.ArgAttrs[0]["tt.divisibility"] != 16 {
		t.Errorf("divisibility hint not recorded: %v", f.ArgAttrs)
	}

	dump := ir.Dump(mod)
	for _, want := range []string{"program_id", "make_range", "addptr", "load(", "store(", "*fp32"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump is missing %q:\n%s", want, dump)
		}
	}
}

func TestLowerStructuredIfMergesValues(t *testing.T) {
	src := `
def k(x, f):
    a = x
    if f > 0:
        a = a + 1
    b = a + a
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(2)})
	dump := ir.Dump(mod)
	if !strings.Contains(dump, "if %") {
		t.Fatalf("expected a structured conditional:\n%s", dump)
	}
	// both arms must yield the merged value, so a synthesized else exists
	if !strings.Contains(dump, "} else {") {
		t.Errorf("expected a synthesized else region:\n%s", dump)
	}
	if got := strings.Count(dump, "yield"); got != 2 {
		t.Errorf("got %d yields, want 2:\n%s", got, dump)
	}
}

func TestLowerTopLevelIfWithReturn(t *testing.T) {
	src := `
def k(x):
    if x > 0:
        return
    y = x + 1
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(1)})
	dump := ir.Dump(mod)
	if !strings.Contains(dump, "cond_br") {
		t.Fatalf("a returning conditional must lower to explicit branches:\n%s", dump)
	}
	if !strings.Contains(dump, "br ^bb") {
		t.Errorf("fallthrough arm must branch to the merge block:\n%s", dump)
	}
	if strings.Contains(dump, "if %") {
		t.Errorf("must not also emit a structured conditional:\n%s", dump)
	}
}

func TestLowerDeadArmElision(t *testing.T) {
	src := `
def k(x, F: tl.constexpr):
    if F:
        y = x + 1
    else:
        y = x + 2
`
	mod := mustLower(t, src, "k", Options{
		Signature: i32Sig(1),
		Constants: map[int]Constant{1: IntConst(0)},
	})
	dump := ir.Dump(mod)
	if strings.Contains(dump, "const 1 :") {
		t.Errorf("untaken arm must not be lowered:\n%s", dump)
	}
	if !strings.Contains(dump, "const 2 :") {
		t.Errorf("taken arm is missing:\n%s", dump)
	}
	if strings.Contains(dump, "cond_br") || strings.Contains(dump, "if %") {
		t.Errorf("compile-time condition must not branch:\n%s", dump)
	}
}

func TestLowerWhileLoopCarry(t *testing.T) {
	src := `
def k(n):
    acc = n
    while acc < 100:
        acc = acc + 1
    out = acc + n
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(1)})
	dump := ir.Dump(mod)
	for _, want := range []string{"while(", "condition %", "} do {", "yield"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump is missing %q:\n%s", want, dump)
		}
	}
}

func TestLowerStaticRangeUnrolls(t *testing.T) {
	src := `
def k(x):
    acc = x
    for i in static_range(0, 3):
        acc = acc + i
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(1)})
	dump := ir.Dump(mod)
	if strings.Contains(dump, "for %") {
		t.Fatalf("static_range must unroll, not loop:\n%s", dump)
	}
	if got := strings.Count(dump, "add %"); got != 3 {
		t.Errorf("got %d adds from unrolling, want 3:\n%s", got, dump)
	}
}

func TestLowerDynamicFor(t *testing.T) {
	src := `
def k(n):
    acc = n
    for i in range(n):
        acc = acc + i
    out = acc * 2
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(1)})
	dump := ir.Dump(mod)
	if !strings.Contains(dump, "for %") {
		t.Fatalf("range over a runtime bound must lower to a loop:\n%s", dump)
	}
	if !strings.Contains(dump, "iter(") {
		t.Errorf("loop must carry acc:\n%s", dump)
	}
}

func TestLowerNegativeStepFor(t *testing.T) {
	src := `
def k(n):
    acc = n
    for i in range(10, 0, -1):
        acc = acc + i
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(1)})
	dump := ir.Dump(mod)
	if !strings.Contains(dump, "for %") {
		t.Fatalf("expected a loop:\n%s", dump)
	}
	// the body reconstructs the descending induction value from the
	// ascending block parameter
	if !strings.Contains(dump, "sub %") {
		t.Errorf("body must mirror the induction value:\n%s", dump)
	}
	if strings.Contains(dump, "undef") {
		t.Errorf("induction placeholder must be resolved:\n%s", dump)
	}
}

func TestLowerMonomorphizationDedup(t *testing.T) {
	src := `
def helper(x, inc):
    return x + inc

def k(x, y):
    a = helper(x, 1)
    b = helper(y, 2)
    c = helper(x, 1)
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(2)})
	if got := len(mod.Funcs); got != 3 {
		names := make([]string, len(mod.Funcs))
		for i, f := range mod.Funcs {
			names[i] = f.Name
		}
		t.Fatalf("got %d functions %v, want 3 (entry plus two specializations)", got, names)
	}
	if mod.GetFunction("helper__i32__1c1") == nil || mod.GetFunction("helper__i32__1c2") == nil {
		dump := ir.Dump(mod)
		t.Errorf("specializations are misnamed:\n%s", dump)
	}
	if got := strings.Count(ir.Dump(mod), "call @helper__i32__1c1"); got != 2 {
		t.Errorf("identical call sites must share one specialization, got %d calls", got)
	}
}

func TestLowerHelperReturnsValue(t *testing.T) {
	src := `
def cdiv2(a, b):
    return (a + b - 1) // b

def k(n):
    blocks = cdiv2(n, 128)
`
	mod := mustLower(t, src, "k", Options{Signature: i32Sig(1)})
	helper := mod.GetFunction("cdiv2__i32__1c128")
	if helper == nil {
		t.Fatalf("missing specialization:\n%s", ir.Dump(mod))
	}
	if len(helper.Results) != 1 || !helper.Results[0].Equal(types.Int(32)) {
		t.Errorf("helper result types = %v, want [i32]", helper.Results)
	}
}

func TestMangleFn(t *testing.T) {
	cases := []struct {
		name string
		tys  []types.Type
		con  map[int]Constant
		want string
	}{
		{"f", []types.Type{types.Int(32)}, nil, "f__i32__"},
		{"f", []types.Type{types.PointerTo(types.FP32()), types.Int(64)},
			map[int]Constant{2: IntConst(16)}, "f__Pfp32_i64__2c16"},
		{"f", []types.Type{types.Int(32)}, map[int]Constant{1: FloatConst(2.5)},
			"f__i32__1c2_d_5"},
		{"f", []types.Type{types.Int(32)}, map[int]Constant{1: StrConst("fp32")},
			"f__i32__1c_sq_fp32_sq_"},
	}
	for _, c := range cases {
		if got := MangleFn(c.name, c.tys, c.con); got != c.want {
			t.Errorf("MangleFn(%v, %v) = %q, want %q", c.tys, c.con, got, c.want)
		}
	}
}

func TestLowerReturnInsideLoop(t *testing.T) {
	src := `
def k(n):
    for i in range(n):
        return
`
	err := lowerErr(t, src, "k", Options{Signature: i32Sig(1)})
	if err.Kind != diag.Unsupported {
		t.Fatalf("kind = %v, want unsupported", err.Kind)
	}
	if !strings.Contains(err.Msg, "return statement inside a loop") {
		t.Errorf("unexpected message: %s", err.Msg)
	}
}

func TestLowerBranchTypeMismatch(t *testing.T) {
	src := `
def k(x, f):
    a = x
    if f > 0:
        a = a * 1.0
`
	err := lowerErr(t, src, "k", Options{Signature: i32Sig(2)})
	if err.Kind != diag.TypeMismatch {
		t.Fatalf("kind = %v, want type mismatch", err.Kind)
	}
	if !strings.Contains(err.Msg, "initial value for 'a' is of type i32") {
		t.Errorf("unexpected message: %s", err.Msg)
	}
}

func TestGlobalUsesRecorded(t *testing.T) {
	m := ir.NewModule("t")
	f := m.GetOrInsertFunction("t", nil, nil)
	g := &Generator{
		src:        &ast.Module{},
		mod:        m,
		fn:         f,
		bld:        ir.NewBuilder(m, f),
		lscope:     newScope(),
		localDefs:  newScope(),
		globalUses: newScope(),
	}

	g.setValue("n", constValue(IntConst(1)))
	if _, err := g.lookupValue("n", source.Pos{}); err != nil {
		t.Fatal(err)
	}
	if g.globalUses.has("n") {
		t.Error("a name defined in the current region is not a global use")
	}

	sr := g.enterSubRegion()
	if _, err := g.lookupValue("n", source.Pos{}); err != nil {
		t.Fatal(err)
	}
	if !g.globalUses.has("n") {
		t.Error("reading an enclosing binding must be recorded as a global use")
	}
	g.setValue("m", constValue(IntConst(2)))
	if _, err := g.lookupValue("m", source.Pos{}); err != nil {
		t.Fatal(err)
	}
	if g.globalUses.has("m") {
		t.Error("a region-local definition is not a global use")
	}
	g.exitSubRegion(sr)
}

func TestLowerScalarSubscriptRejected(t *testing.T) {
	src := `
def k(x):
    y = x[:, None]
`
	err := lowerErr(t, src, "k", Options{Signature: i32Sig(1)})
	if err.Kind != diag.TypeMismatch {
		t.Fatalf("kind = %v, want type mismatch", err.Kind)
	}
	if !strings.Contains(err.Msg, "too many subscript dimensions") {
		t.Errorf("unexpected message: %s", err.Msg)
	}
}

func TestLowerExpandDimsPastRankRejected(t *testing.T) {
	src := `
def k(x, B: tl.constexpr):
    offs = tl.arange(0, B)
    y = offs[:, :]
`
	err := lowerErr(t, src, "k", Options{
		Signature: i32Sig(1),
		Constants: map[int]Constant{1: IntConst(16)},
	})
	if err.Kind != diag.TypeMismatch {
		t.Fatalf("kind = %v, want type mismatch", err.Kind)
	}
}

func TestLowerSelectMixedSignednessRejected(t *testing.T) {
	src := `
def k(a, b, c):
    r = tl.where(c > 0, a, b)
`
	err := lowerErr(t, src, "k", Options{Signature: map[int]string{0: "i32", 1: "u32", 2: "i32"}})
	if err.Kind != diag.TypeMismatch {
		t.Fatalf("kind = %v, want type mismatch", err.Kind)
	}
	if !strings.Contains(err.Msg, "signedness") {
		t.Errorf("unexpected message: %s", err.Msg)
	}
}

func TestLowerLoopCarryTypeMismatch(t *testing.T) {
	src := `
def k(x):
    a = x
    for i in range(x):
        a = a * 1.0
`
	err := lowerErr(t, src, "k", Options{Signature: i32Sig(1)})
	if err.Kind != diag.TypeMismatch {
		t.Fatalf("kind = %v, want type mismatch", err.Kind)
	}
	if !strings.Contains(err.Msg, "loop-carried variable 'a'") {
		t.Errorf("unexpected message: %s", err.Msg)
	}
}

func TestLowerStaticAssert(t *testing.T) {
	src := `
def k(x, B: tl.constexpr):
    tl.static_assert(B == 4, "B must be 4")
`
	err := lowerErr(t, src, "k", Options{
		Signature: i32Sig(1),
		Constants: map[int]Constant{1: IntConst(8)},
	})
	if err.Kind != diag.StaticAssertFailed {
		t.Fatalf("kind = %v, want static assert failure", err.Kind)
	}
	if !strings.Contains(err.Msg, "B must be 4") {
		t.Errorf("message must carry the user text: %s", err.Msg)
	}

	// the passing case lowers to nothing
	mustLower(t, src, "k", Options{
		Signature: i32Sig(1),
		Constants: map[int]Constant{1: IntConst(4)},
	})
}

func TestLowerArangeRejectsNonPowerOfTwo(t *testing.T) {
	src := `
def k(x):
    r = tl.arange(0, 6)
`
	err := lowerErr(t, src, "k", Options{Signature: i32Sig(1)})
	if err.Kind != diag.TypeMismatch {
		t.Fatalf("kind = %v, want type mismatch", err.Kind)
	}
	if !strings.Contains(err.Msg, "power of 2") {
		t.Errorf("unexpected message: %s", err.Msg)
	}
}

func TestLowerUndefinedName(t *testing.T) {
	src := `
def k(x):
    y = z
`
	err := lowerErr(t, src, "k", Options{Signature: i32Sig(1)})
	if err.Kind != diag.NameResolution {
		t.Fatalf("kind = %v, want name resolution", err.Kind)
	}
	if !strings.Contains(err.Msg, "'z' is not defined") {
		t.Errorf("unexpected message: %s", err.Msg)
	}
}

func TestLowerConstexprReassignment(t *testing.T) {
	src := `
def k(x, B: tl.constexpr):
    B: tl.constexpr = 5
`
	err := lowerErr(t, src, "k", Options{
		Signature: i32Sig(1),
		Constants: map[int]Constant{1: IntConst(4)},
	})
	if err.Kind != diag.Redefinition {
		t.Fatalf("kind = %v, want redefinition", err.Kind)
	}
}

func TestLowerErrorCarriesSource(t *testing.T) {
	src := `
def k(x):
    y = z
`
	err := lowerErr(t, src, "k", Options{Signature: i32Sig(1)})
	if err.Src == nil {
		t.Fatal("error must carry the source buffer for excerpts")
	}
	rendered := err.Error()
	if !strings.Contains(rendered, "y = z") || !strings.Contains(rendered, "^") {
		t.Errorf("rendered error must show the line and a caret:\n%s", rendered)
	}
}

func TestLowerDotShapes(t *testing.T) {
	src := `
def k(a_ptr, b_ptr, M: tl.constexpr, N: tl.constexpr, K: tl.constexpr):
    offs_m = tl.arange(0, M)
    offs_n = tl.arange(0, N)
    offs_k = tl.arange(0, K)
    a_ptrs = a_ptr + offs_m[:, None] * K + offs_k[None, :]
    b_ptrs = b_ptr + offs_k[:, None] * N + offs_n[None, :]
    a = tl.load(a_ptrs)
    b = tl.load(b_ptrs)
    c = tl.dot(a, b)
`
	mod := mustLower(t, src, "k", Options{
		Signature: map[int]string{0: "*fp16", 1: "*fp16"},
		Constants: map[int]Constant{2: IntConst(16), 3: IntConst(16), 4: IntConst(32)},
	})
	dump := ir.Dump(mod)
	if !strings.Contains(dump, "dot(") {
		t.Fatalf("missing dot:\n%s", dump)
	}
	// fp16 inputs accumulate in fp32
	if !strings.Contains(dump, "<16x16>fp32") {
		t.Errorf("dot must accumulate in fp32:\n%s", dump)
	}
}

func TestLowerReduction(t *testing.T) {
	src := `
def k(x_ptr, B: tl.constexpr):
    offs = tl.arange(0, B)
    x = tl.load(x_ptr + offs)
    total = tl.sum(x, 0)
    peak = tl.max(x, 0)
`
	mod := mustLower(t, src, "k", Options{
		Signature: map[int]string{0: "*fp32"},
		Constants: map[int]Constant{1: IntConst(128)},
	})
	dump := ir.Dump(mod)
	if !strings.Contains(dump, "reduce_sum") || !strings.Contains(dump, "reduce_max") {
		t.Errorf("missing reductions:\n%s", dump)
	}
}
