package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/types"
)

func (g *Generator) call(e *ast.Expr) (*Value, *diag.Error) {
	fnVal, err := g.expr(e.Func)
	if err != nil {
		return nil, err
	}
	args := make([]*Value, len(e.Args))
	for i, a := range e.Args {
		if args[i], err = g.expr(a); err != nil {
			return nil, err
		}
	}
	kwargs := map[string]*Value{}
	for _, kw := range e.Kwargs {
		if _, dup := kwargs[kw.Name]; dup {
			return nil, g.errf(diag.Syntax, e.Pos, "duplicate keyword argument '%s'", kw.Name)
		}
		v, kerr := g.expr(kw.Value)
		if kerr != nil {
			return nil, kerr
		}
		kwargs[kw.Name] = v
	}
	switch fnVal.Kind {
	case ValBuiltin:
		return g.callBuiltin(fnVal, e, args, kwargs)
	case ValFunc:
		return g.callFunction(fnVal.Fn, e, args, kwargs)
	default:
		return nil, g.errf(diag.TypeMismatch, e.Pos, "%s is not callable", fnVal)
	}
}

// bindCallArgs resolves positionals, keywords, and defaults against the
// callee's parameter list.
func (g *Generator) bindCallArgs(fn *ast.FuncDef, e *ast.Expr, args []*Value, kwargs map[string]*Value) ([]*Value, *diag.Error) {
	if len(args) > len(fn.Params) {
		return nil, g.errf(diag.TypeMismatch, e.Pos,
			"%s takes %d arguments but %d were given", fn.Name, len(fn.Params), len(args))
	}
	bound := make([]*Value, len(fn.Params))
	copy(bound, args)
	for name, v := range kwargs {
		idx := fn.ParamIndex(name)
		if idx < 0 {
			return nil, g.errf(diag.TypeMismatch, e.Pos, "%s has no parameter '%s'", fn.Name, name)
		}
		if bound[idx] != nil {
			return nil, g.errf(diag.TypeMismatch, e.Pos, "parameter '%s' given twice", name)
		}
		bound[idx] = v
	}
	for i, param := range fn.Params {
		if bound[i] != nil {
			continue
		}
		if param.Default == nil {
			return nil, g.errf(diag.TypeMismatch, e.Pos,
				"missing argument '%s' in call to %s", param.Name, fn.Name)
		}
		def, derr := g.expr(param.Default)
		if derr != nil {
			return nil, derr
		}
		bound[i] = def
	}
	return bound, nil
}

// callFunction specializes a helper function on the compile-time
// constants it receives and emits a call to the specialized symbol. Each
// distinct constant binding produces one function in the module.
func (g *Generator) callFunction(fn *ast.FuncDef, e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	bound, err := g.bindCallArgs(fn, e, args, kwargs)
	if err != nil {
		return nil, err
	}

	constants := map[int]Constant{}
	var runtimeIDs []ir.ValueID
	var runtimeTypes []types.Type
	runtimeIdx := map[int]bool{}
	for i, v := range bound {
		switch {
		case v.IsTensor():
			runtimeIDs = append(runtimeIDs, v.ID)
			runtimeTypes = append(runtimeTypes, v.Type)
			runtimeIdx[i] = true
		case v.IsConst():
			constants[i] = v.Const
		case v.Kind == ValType:
			// element types specialize the callee like any other constant
			constants[i] = StrConst(v.Type.String())
		default:
			return nil, g.errf(diag.Unsupported, e.Pos,
				"cannot pass %s as argument '%s'", v, fn.Params[i].Name)
		}
	}

	mangled := MangleFn(fn.Name, runtimeTypes, constants)
	callee := g.mod.GetFunction(mangled)
	if callee == nil {
		callee = g.mod.GetOrInsertFunction(mangled, runtimeTypes, nil)
		child := &Generator{
			src:        g.src,
			mod:        g.mod,
			fn:         callee,
			bld:        ir.NewBuilder(g.mod, callee),
			lscope:     newScope(),
			localDefs:  newScope(),
			globalUses: newScope(),
			fnRetTypes: g.fnRetTypes,
			debug:      g.debug,
		}
		entryArgs := callee.Args()
		next := 0
		for i, param := range fn.Params {
			if runtimeIdx[i] {
				child.setValue(param.Name, tensorValue(entryArgs[next], runtimeTypes[next]))
				next++
			} else {
				child.setValue(param.Name, bound[i])
			}
		}
		if cerr := child.stmts(fn.Body); cerr != nil {
			return nil, cerr
		}
		child.finalize()
		callee.Results = child.retTypes
		g.fnRetTypes[mangled] = child.retTypes
	}

	results := g.bld.Call(callee, runtimeIDs)
	rets := g.fnRetTypes[mangled]
	switch len(results) {
	case 0:
		return constValue(NoneConst()), nil
	case 1:
		return tensorValue(results[0], rets[0]), nil
	default:
		elems := make([]*Value, len(results))
		for i, id := range results {
			elems[i] = tensorValue(id, rets[i])
		}
		return &Value{Kind: ValTuple, Elems: elems}, nil
	}
}

// finalize terminates the function's trailing block when control can
// fall off its end.
func (g *Generator) finalize() {
	if !g.bld.InsertionBlock().Terminated() {
		g.bld.Return(nil)
	}
}

// MangleFn derives the symbol name of a function specialization from the
// runtime argument types and the compile-time constant bindings. The
// return type is not part of the name: it is a function of the inputs.
func MangleFn(name string, argTypes []types.Type, constants map[int]Constant) string {
	tys := make([]string, len(argTypes))
	for i, t := range argTypes {
		tys[i] = t.Mangle()
	}
	idxs := make([]int, 0, len(constants))
	for i := range constants {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	consts := make([]string, len(idxs))
	for i, idx := range idxs {
		consts[i] = fmt.Sprintf("%dc%s", idx, constants[idx].Repr())
	}
	mangled := name + "__" + strings.Join(tys, "_") + "__" + strings.Join(consts, "_")
	mangled = strings.ReplaceAll(mangled, ".", "_d_")
	mangled = strings.ReplaceAll(mangled, "'", "_sq_")
	return mangled
}
