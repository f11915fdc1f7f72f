package codegen

import (
	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/source"
	"github.com/recht/triton/internal/types"
)

// Generator lowers one function definition into an ir.Func. Helper
// functions spawn child generators that share the module and the
// specialized-function return-type table.
type Generator struct {
	src *ast.Module
	mod *ir.Module
	fn  *ir.Func
	bld *ir.Builder

	lscope    *scopeMap
	localDefs *scopeMap
	// globalUses accumulates, per function, every name read from an
	// enclosing region rather than defined in the current one.
	globalUses *scopeMap

	// loopDepth counts enclosing loops; regionDepth counts enclosing
	// structured-op regions. Both gate which lowering a conditional may
	// take and whether a return is legal.
	loopDepth   int
	regionDepth int

	retTypes    []types.Type
	sawReturn   bool
	fnRetTypes  map[string][]types.Type
	isKernel    bool
	debug       bool
}

func (g *Generator) errf(kind diag.Kind, pos source.Pos, format string, args ...any) *diag.Error {
	return diag.Errorf(kind, pos, format, args...)
}

// setValue binds name in the current scope and records it as a
// definition of the current sub-region.
func (g *Generator) setValue(name string, v *Value) {
	g.lscope.set(name, v)
	g.localDefs.set(name, v)
}

// lookupValue resolves a name through the local scope and then the
// builtin/global scope. A hit that the current region did not define
// itself is a use of an enclosing binding and is recorded as such.
func (g *Generator) lookupValue(name string, pos source.Pos) (*Value, *diag.Error) {
	if v, ok := g.lscope.get(name); ok {
		if !g.localDefs.has(name) {
			g.globalUses.set(name, v)
		}
		return v, nil
	}
	if fn := g.src.Func(name); fn != nil {
		return &Value{Kind: ValFunc, Fn: fn}, nil
	}
	if v, ok := globalScope[name]; ok {
		return v, nil
	}
	return nil, g.errf(diag.NameResolution, pos, "'%s' is not defined", name)
}

// subRegion snapshots the state that nesting into a control-flow
// construct must restore.
type subRegion struct {
	liveins *scopeMap
	defs    *scopeMap
	ipBlock *ir.Block
}

func (g *Generator) enterSubRegion() *subRegion {
	sr := &subRegion{
		liveins: g.lscope.clone(),
		defs:    g.localDefs,
		ipBlock: g.bld.InsertionBlock(),
	}
	g.localDefs = newScope()
	return sr
}

func (g *Generator) exitSubRegion(sr *subRegion) {
	g.lscope = sr.liveins
	g.localDefs = sr.defs
	g.bld.SetInsertionPoint(sr.ipBlock)
}

func (g *Generator) stmts(list []*ast.Stmt) *diag.Error {
	for _, stmt := range list {
		if err := g.stmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) stmt(stmt *ast.Stmt) *diag.Error {
	switch stmt.Kind {
	case ast.StmtExpr:
		_, err := g.expr(stmt.Value)
		return err
	case ast.StmtAssign:
		return g.visitAssign(stmt)
	case ast.StmtAugAssign:
		return g.visitAugAssign(stmt)
	case ast.StmtAnnAssign:
		return g.visitAnnAssign(stmt)
	case ast.StmtIf:
		return g.visitIf(stmt)
	case ast.StmtWhile:
		return g.visitWhile(stmt)
	case ast.StmtFor:
		return g.visitFor(stmt)
	case ast.StmtReturn:
		return g.visitReturn(stmt)
	case ast.StmtAssert:
		return g.visitAssert(stmt)
	case ast.StmtPass:
		return nil
	case ast.StmtBreak:
		return g.errf(diag.Unsupported, stmt.Pos, "break statements are not supported")
	case ast.StmtContinue:
		return g.errf(diag.Unsupported, stmt.Pos, "continue statements are not supported")
	default:
		return g.errf(diag.Internal, stmt.Pos, "unhandled statement kind %d", stmt.Kind)
	}
}

// materialize turns a numeric compile-time constant into an SSA value.
// Everything else passes through untouched: None, strings, types, and
// aggregates stay compile-time entities.
func (g *Generator) materialize(v *Value, pos source.Pos) (*Value, *diag.Error) {
	if !v.IsConst() {
		return v, nil
	}
	switch v.Const.Kind {
	case ConstInt, ConstFloat, ConstBool:
		t, err := v.Const.DefaultType()
		if err != nil {
			return nil, g.errf(diag.TypeMismatch, pos, "%s", err)
		}
		var id ir.ValueID
		if v.Const.Kind == ConstFloat {
			id = g.bld.ConstFloat(t, v.Const.Float)
		} else {
			iv := v.Const.Int
			if v.Const.Kind == ConstBool {
				iv = 0
				if v.Const.Bool {
					iv = 1
				}
			}
			id = g.bld.ConstInt(t, iv)
		}
		return tensorValue(id, t), nil
	default:
		return v, nil
	}
}

func (g *Generator) visitAssign(stmt *ast.Stmt) *diag.Error {
	if len(stmt.Targets) != 1 {
		return g.errf(diag.Unsupported, stmt.Pos, "simultaneous multiple assignment is not supported")
	}
	value, err := g.expr(stmt.Value)
	if err != nil {
		return err
	}
	return g.assignTo(stmt.Targets[0], value)
}

func (g *Generator) assignTo(target *ast.Expr, value *Value) *diag.Error {
	switch target.Kind {
	case ast.ExprName:
		v, err := g.materialize(value, target.Pos)
		if err != nil {
			return err
		}
		g.setValue(target.Name, v)
		return nil
	case ast.ExprTuple:
		if value.Kind != ValTuple {
			return g.errf(diag.TypeMismatch, target.Pos,
				"cannot unpack %s into %d names", value, len(target.Elems))
		}
		if len(value.Elems) != len(target.Elems) {
			return g.errf(diag.TypeMismatch, target.Pos,
				"cannot unpack %d values into %d names", len(value.Elems), len(target.Elems))
		}
		for i, elem := range target.Elems {
			if err := g.assignTo(elem, value.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return g.errf(diag.Unsupported, target.Pos, "assignment target must be a name or a tuple of names")
	}
}

func (g *Generator) visitAugAssign(stmt *ast.Stmt) *diag.Error {
	if stmt.Target.Kind != ast.ExprName {
		return g.errf(diag.Unsupported, stmt.Target.Pos, "augmented assignment target must be a name")
	}
	cur, err := g.lookupValue(stmt.Target.Name, stmt.Target.Pos)
	if err != nil {
		return err
	}
	rhs, err := g.expr(stmt.Value)
	if err != nil {
		return err
	}
	result, err := g.binaryOp(stmt.Op, cur, rhs, stmt.Pos)
	if err != nil {
		return err
	}
	return g.assignTo(stmt.Target, result)
}

func (g *Generator) visitAnnAssign(stmt *ast.Stmt) *diag.Error {
	if !isConstexprAnnotation(stmt.Annotation) {
		if stmt.Value == nil {
			return nil // bare type hint
		}
		value, err := g.expr(stmt.Value)
		if err != nil {
			return err
		}
		return g.assignTo(stmt.Target, value)
	}
	name := stmt.Target.Name
	if g.lscope.has(name) {
		return g.errf(diag.Redefinition, stmt.Pos,
			"'%s' is already defined. constexpr cannot be reassigned", name)
	}
	if stmt.Value == nil {
		return g.errf(diag.Syntax, stmt.Pos, "constexpr '%s' needs a value", name)
	}
	value, err := g.expr(stmt.Value)
	if err != nil {
		return err
	}
	if !value.IsConst() && value.Kind != ValType {
		return g.errf(diag.StaticNotDeterminable, stmt.Pos,
			"value bound to constexpr '%s' is not known at compile time", name)
	}
	g.setValue(name, value)
	return nil
}

func isConstexprAnnotation(ann string) bool {
	return ann == "constexpr" || ann == "tl.constexpr" || ann == "triton.language.constexpr"
}

func (g *Generator) visitReturn(stmt *ast.Stmt) *diag.Error {
	if g.loopDepth > 0 || g.regionDepth > 0 {
		return g.errf(diag.Unsupported, stmt.Pos, "return statement inside a loop is not supported")
	}
	var rets []types.Type
	var args []ir.ValueID
	if stmt.Value != nil {
		value, err := g.expr(stmt.Value)
		if err != nil {
			return err
		}
		elems := []*Value{value}
		if value.Kind == ValTuple {
			elems = value.Elems
		}
		for _, elem := range elems {
			mat, err := g.materialize(elem, stmt.Pos)
			if err != nil {
				return err
			}
			if !mat.IsTensor() {
				return g.errf(diag.TypeMismatch, stmt.Pos, "cannot return %s", mat)
			}
			rets = append(rets, mat.Type)
			args = append(args, mat.ID)
		}
	}
	if g.isKernel && len(args) > 0 {
		return g.errf(diag.Unsupported, stmt.Pos, "kernel functions may not return values")
	}
	if g.sawReturn && !typesEqual(g.retTypes, rets) {
		return g.errf(diag.TypeMismatch, stmt.Pos,
			"function returns values of different types on different paths")
	}
	g.retTypes = rets
	g.sawReturn = true
	g.bld.Return(args)
	return nil
}

func typesEqual(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (g *Generator) visitAssert(stmt *ast.Stmt) *diag.Error {
	if !g.debug {
		return nil
	}
	cond, err := g.expr(stmt.Cond)
	if err != nil {
		return err
	}
	cond, err = g.materialize(cond, stmt.Pos)
	if err != nil {
		return err
	}
	if !cond.IsTensor() {
		return g.errf(diag.TypeMismatch, stmt.Pos, "assert condition must be a value")
	}
	msg := ""
	if stmt.Msg != nil {
		mv, merr := g.expr(stmt.Msg)
		if merr != nil {
			return merr
		}
		if mv.IsConst() && mv.Const.Kind == ConstStr {
			msg = mv.Const.Str
		}
	}
	g.bld.IntrinsicS("assert", []ir.ValueID{cond.ID}, msg, nil)
	return nil
}

// containsReturn reports whether any statement in the subtree is a
// return.
func containsReturn(list []*ast.Stmt) bool {
	for _, stmt := range list {
		switch stmt.Kind {
		case ast.StmtReturn:
			return true
		case ast.StmtIf, ast.StmtWhile, ast.StmtFor:
			if containsReturn(stmt.Body) || containsReturn(stmt.Orelse) {
				return true
			}
		}
	}
	return false
}
