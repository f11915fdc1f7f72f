package codegen

import (
	"sort"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/source"
	"github.com/recht/triton/internal/types"
)

// Options configures the lowering of one kernel entry point.
//
// Signature maps the parameter index of every runtime argument to its
// type name ("*fp32", "i32", ...). Constants maps the parameter index of
// every compile-time argument to its bound value; every constexpr
// parameter must appear there. ArgAttrs carries per-argument hints such
// as "tt.divisibility", keyed by parameter index.
type Options struct {
	Signature map[int]string
	Constants map[int]Constant
	ArgAttrs  map[int]map[string]int64
	Debug     bool
}

// Lower specializes the kernel fnName from mod against opts and returns
// the resulting module. The entry function is public; helper calls it
// makes are monomorphized into private siblings.
func Lower(mod *ast.Module, fnName string, opts Options) (*ir.Module, error) {
	fn := mod.Func(fnName)
	if fn == nil {
		return nil, diag.Errorf(diag.NameResolution, source.Pos{}, "kernel '%s' is not defined", fnName)
	}

	out := ir.NewModule(fnName)
	g := &Generator{
		src:        mod,
		mod:        out,
		fnRetTypes: map[string][]types.Type{},
		isKernel:   true,
		debug:      opts.Debug,
	}
	if err := g.lowerEntry(fn, opts); err != nil {
		err.SetSource(mod.Src)
		return nil, err
	}
	return out, nil
}

func (g *Generator) lowerEntry(fn *ast.FuncDef, opts Options) *diag.Error {
	// runtime parameters in declaration order form the signature
	var paramTypes []types.Type
	var runtimeIdx []int
	for i, p := range fn.Params {
		_, isConst := opts.Constants[i]
		sig, isRuntime := opts.Signature[i]
		switch {
		case p.Constexpr && !isConst:
			return g.errf(diag.TypeMismatch, p.Pos,
				"constexpr parameter '%s' has no bound value", p.Name)
		case p.Constexpr && isRuntime:
			return g.errf(diag.TypeMismatch, p.Pos,
				"constexpr parameter '%s' cannot appear in the runtime signature", p.Name)
		case isConst:
			continue
		case !isRuntime:
			return g.errf(diag.TypeMismatch, p.Pos,
				"parameter '%s' has neither a signature type nor a constant value", p.Name)
		}
		ty, err := types.Parse(sig)
		if err != nil {
			return g.errf(diag.TypeMismatch, p.Pos, "parameter '%s': %v", p.Name, err)
		}
		paramTypes = append(paramTypes, ty)
		runtimeIdx = append(runtimeIdx, i)
	}

	f := g.mod.GetOrInsertFunction(fn.Name, paramTypes, nil)
	f.Public = true
	g.fn = f
	g.bld = ir.NewBuilder(g.mod, f)
	g.lscope = newScope()
	g.localDefs = newScope()
	g.globalUses = newScope()

	args := f.Args()
	for pos, i := range runtimeIdx {
		g.setValue(fn.Params[i].Name, tensorValue(args[pos], paramTypes[pos]))
		for name, val := range opts.ArgAttrs[i] {
			f.SetArgAttr(pos, name, val)
		}
	}
	for _, i := range constIndexes(opts.Constants) {
		g.setValue(fn.Params[i].Name, constValue(opts.Constants[i]))
	}

	if err := g.stmts(fn.Body); err != nil {
		return err
	}
	g.finalize()
	if len(g.retTypes) > 0 {
		return g.errf(diag.TypeMismatch, fn.Pos, "kernel '%s' cannot return a value", fn.Name)
	}
	return nil
}

func constIndexes(constants map[int]Constant) []int {
	idx := make([]int, 0, len(constants))
	for i := range constants {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
