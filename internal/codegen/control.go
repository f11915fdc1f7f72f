package codegen

import (
	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/source"
	"github.com/recht/triton/internal/types"
)

func (g *Generator) visitIf(stmt *ast.Stmt) *diag.Error {
	cond, err := g.expr(stmt.Cond)
	if err != nil {
		return err
	}
	if cond.IsTensor() {
		condID, cerr := g.boolCondition(cond, stmt.Cond.Pos)
		if cerr != nil {
			return cerr
		}
		hasReturn := containsReturn(stmt.Body) || containsReturn(stmt.Orelse)
		if hasReturn && g.loopDepth == 0 && g.regionDepth == 0 {
			return g.visitIfTopLevel(condID, stmt)
		}
		return g.visitIfStructured(condID, stmt)
	}
	// compile-time condition: keep only the taken arm
	if !cond.IsConst() {
		return g.errf(diag.Unsupported, stmt.Cond.Pos, "`if` conditions may only be bool, int, or None values, got %s", cond)
	}
	switch cond.Const.Kind {
	case ConstBool, ConstInt, ConstNone:
	default:
		return g.errf(diag.Unsupported, stmt.Cond.Pos,
			"`if` conditions may only be bool, int, or None values, got %s", cond.Const.Repr())
	}
	if cond.Const.Truthy() {
		return g.stmts(stmt.Body)
	}
	return g.stmts(stmt.Orelse)
}

// boolCondition narrows a runtime condition to a scalar i1.
func (g *Generator) boolCondition(cond *Value, pos source.Pos) (ir.ValueID, *diag.Error) {
	if cond.Type.IsBlock() {
		return 0, g.errf(diag.TypeMismatch, pos, "a block-shaped value cannot be used as a branch condition")
	}
	if cond.Type.IsBool() {
		return cond.ID, nil
	}
	if !cond.Type.IsInt() {
		return 0, g.errf(diag.TypeMismatch, pos, "branch condition must be an integer or boolean, got %s", cond.Type)
	}
	zero := g.bld.ConstInt(cond.Type, 0)
	return g.bld.Cmp(ir.CmpNe, cond.ID, zero), nil
}

// mergeNames collects the variables a two-armed construct must merge:
// live-in names redefined by either arm, plus names both arms introduce.
// The order is deterministic: live-ins in scope order first, then common
// new definitions in then-arm order.
func (g *Generator) mergeNames(pos source.Pos, liveins, thenDefs, elseDefs *scopeMap) ([]string, []types.Type, *diag.Error) {
	var names []string
	var tys []types.Type
	for _, name := range liveins.keys() {
		tv, inThen := thenDefs.get(name)
		ev, inElse := elseDefs.get(name)
		if !inThen && !inElse {
			continue
		}
		live, _ := liveins.get(name)
		if !live.IsTensor() {
			return nil, nil, g.errf(diag.TypeMismatch, pos,
				"'%s' is not a runtime value before the conditional and cannot be merged", name)
		}
		for _, arm := range []struct {
			v    *Value
			ok   bool
			name string
		}{{tv, inThen, "then"}, {ev, inElse, "else"}} {
			if !arm.ok {
				continue
			}
			if !arm.v.IsTensor() {
				return nil, nil, g.errf(diag.TypeMismatch, pos,
					"'%s' is redefined as a compile-time value in the %s block", name, arm.name)
			}
			if !arm.v.Type.Equal(live.Type) {
				return nil, nil, g.errf(diag.TypeMismatch, pos,
					"initial value for '%s' is of type %s, but the %s block redefines it as %s",
					name, live.Type, arm.name, arm.v.Type)
			}
		}
		names = append(names, name)
		tys = append(tys, live.Type)
	}
	for _, name := range thenDefs.keys() {
		if liveins.has(name) {
			continue
		}
		ev, inElse := elseDefs.get(name)
		if !inElse {
			continue
		}
		tv, _ := thenDefs.get(name)
		if !tv.IsTensor() || !ev.IsTensor() {
			continue // both arms bound a compile-time value; not merged
		}
		if !tv.Type.Equal(ev.Type) {
			return nil, nil, g.errf(diag.TypeMismatch, pos,
				"mismatched type for '%s' between then block (%s) and else block (%s)",
				name, tv.Type, ev.Type)
		}
		names = append(names, name)
		tys = append(tys, tv.Type)
	}
	return names, tys, nil
}

// mergeArg picks the value name carries out of one arm: the arm's own
// definition, or the live-in value when the arm left it untouched.
func mergeArg(name string, defs, liveins *scopeMap) ir.ValueID {
	if v, ok := defs.get(name); ok {
		return v.ID
	}
	v, _ := liveins.get(name)
	return v.ID
}

// visitIfStructured lowers a conditional to a structured if-op whose
// regions yield the merged values.
func (g *Generator) visitIfStructured(cond ir.ValueID, stmt *ast.Stmt) *diag.Error {
	sr := g.enterSubRegion()

	thenBlock := g.bld.AppendBlock()
	g.bld.SetInsertionPoint(thenBlock)
	g.regionDepth++
	err := g.stmts(stmt.Body)
	g.regionDepth--
	if err != nil {
		return err
	}
	thenDefs := g.localDefs

	elseDefs := newScope()
	var elseBlock *ir.Block
	if len(stmt.Orelse) > 0 {
		g.lscope = sr.liveins.clone()
		g.localDefs = newScope()
		elseBlock = g.bld.AppendBlock()
		g.bld.SetInsertionPoint(elseBlock)
		g.regionDepth++
		err = g.stmts(stmt.Orelse)
		g.regionDepth--
		if err != nil {
			return err
		}
		elseDefs = g.localDefs
	}

	names, tys, merr := g.mergeNames(stmt.Pos, sr.liveins, thenDefs, elseDefs)
	if merr != nil {
		return merr
	}

	thenArgs := make([]ir.ValueID, len(names))
	elseArgs := make([]ir.ValueID, len(names))
	for i, name := range names {
		thenArgs[i] = mergeArg(name, thenDefs, sr.liveins)
		elseArgs[i] = mergeArg(name, elseDefs, sr.liveins)
	}
	g.bld.SetInsertionPoint(thenBlock)
	g.bld.Yield(thenArgs)
	if elseBlock == nil && len(names) > 0 {
		elseBlock = g.bld.AppendBlock()
	}
	if elseBlock != nil {
		g.bld.SetInsertionPoint(elseBlock)
		g.bld.Yield(elseArgs)
	}

	g.exitSubRegion(sr)
	ifInstr, results := g.bld.If(cond, tys)
	g.bld.MoveToRegion(thenBlock, &ifInstr.Then)
	if elseBlock != nil {
		g.bld.MoveToRegion(elseBlock, &ifInstr.Else)
	}
	for i, name := range names {
		g.setValue(name, tensorValue(results[i], tys[i]))
	}
	return nil
}

// visitIfTopLevel lowers a conditional that may return from the function:
// explicit branch blocks joined at a merge block whose parameters carry
// the merged values. Arms that return never reach the merge block.
func (g *Generator) visitIfTopLevel(cond ir.ValueID, stmt *ast.Stmt) *diag.Error {
	sr := g.enterSubRegion()

	thenBlock := g.bld.AppendBlock()
	g.bld.SetInsertionPoint(thenBlock)
	if err := g.stmts(stmt.Body); err != nil {
		return err
	}
	thenEnd := g.bld.InsertionBlock()
	thenDefs := g.localDefs

	g.lscope = sr.liveins.clone()
	g.localDefs = newScope()
	elseBlock := g.bld.AppendBlock()
	g.bld.SetInsertionPoint(elseBlock)
	if err := g.stmts(stmt.Orelse); err != nil {
		return err
	}
	elseEnd := g.bld.InsertionBlock()
	elseDefs := g.localDefs

	names, tys, merr := g.mergeNames(stmt.Pos, sr.liveins, thenDefs, elseDefs)
	if merr != nil {
		return merr
	}

	endBlock := g.bld.AppendBlock()
	params := make([]ir.ValueID, len(tys))
	for i, ty := range tys {
		params[i] = g.bld.AddBlockParam(endBlock, ty)
	}

	g.bld.SetInsertionPoint(sr.ipBlock)
	g.bld.CondBr(cond, thenBlock, nil, elseBlock, nil)

	if !thenEnd.Terminated() {
		args := make([]ir.ValueID, len(names))
		for i, name := range names {
			args[i] = mergeArg(name, thenDefs, sr.liveins)
		}
		g.bld.SetInsertionPoint(thenEnd)
		g.bld.Br(endBlock, args)
	}
	if !elseEnd.Terminated() {
		args := make([]ir.ValueID, len(names))
		for i, name := range names {
			args[i] = mergeArg(name, elseDefs, sr.liveins)
		}
		g.bld.SetInsertionPoint(elseEnd)
		g.bld.Br(endBlock, args)
	}

	g.exitSubRegion(sr)
	g.bld.SetInsertionPoint(endBlock)
	for i, name := range names {
		g.setValue(name, tensorValue(params[i], tys[i]))
	}
	return nil
}

// loopCarried derives the loop-carried variables from a dry run of the
// body: every live-in name the body redefines is carried, and its type
// must be unchanged across an iteration.
func (g *Generator) loopCarried(pos source.Pos, liveins, bodyDefs *scopeMap) ([]string, []types.Type, []ir.ValueID, *diag.Error) {
	var names []string
	var tys []types.Type
	var init []ir.ValueID
	for _, name := range bodyDefs.keys() {
		live, ok := liveins.get(name)
		if !ok {
			continue
		}
		def, _ := bodyDefs.get(name)
		if !def.IsTensor() || !live.IsTensor() {
			return nil, nil, nil, g.errf(diag.TypeMismatch, pos,
				"loop-carried variable '%s' must be a runtime value before and inside the loop", name)
		}
		if !def.Type.Equal(live.Type) {
			return nil, nil, nil, g.errf(diag.TypeMismatch, pos,
				"loop-carried variable '%s' has initial type %s but is re-assigned to %s in the loop; the type must stay consistent",
				name, live.Type, def.Type)
		}
		names = append(names, name)
		tys = append(tys, live.Type)
		init = append(init, live.ID)
	}
	return names, tys, init, nil
}

// dryRunBody lowers the loop body into a scratch block to discover which
// names it defines, then discards the block.
func (g *Generator) dryRunBody(body []*ast.Stmt) (*scopeMap, *diag.Error) {
	scratch := g.bld.AppendBlock()
	g.bld.SetInsertionPoint(scratch)
	g.localDefs = newScope()
	g.loopDepth++
	g.regionDepth++
	err := g.stmts(body)
	g.loopDepth--
	g.regionDepth--
	defs := g.localDefs
	g.bld.EraseBlock(scratch)
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func (g *Generator) visitWhile(stmt *ast.Stmt) *diag.Error {
	sr := g.enterSubRegion()

	bodyDefs, err := g.dryRunBody(stmt.Body)
	if err != nil {
		return err
	}
	names, tys, init, lerr := g.loopCarried(stmt.Pos, sr.liveins, bodyDefs)
	if lerr != nil {
		return lerr
	}

	g.bld.SetInsertionPoint(sr.ipBlock)
	whileInstr, results := g.bld.While(init, tys)

	// condition region
	before := g.bld.CreateBlock()
	g.bld.MoveToRegion(before, &whileInstr.Before)
	g.bld.SetInsertionPoint(before)
	g.lscope = sr.liveins.clone()
	g.localDefs = newScope()
	beforeParams := make([]ir.ValueID, len(tys))
	for i, ty := range tys {
		beforeParams[i] = g.bld.AddBlockParam(before, ty)
		g.setValue(names[i], tensorValue(beforeParams[i], ty))
	}
	g.regionDepth++
	cond, cerr := g.expr(stmt.Cond)
	g.regionDepth--
	if cerr != nil {
		return cerr
	}
	if !cond.IsTensor() {
		return g.errf(diag.Unsupported, stmt.Cond.Pos, "while loop condition must be a runtime value")
	}
	condID, cerr := g.boolCondition(cond, stmt.Cond.Pos)
	if cerr != nil {
		return cerr
	}
	g.bld.Condition(condID, beforeParams)

	// body region
	after := g.bld.CreateBlock()
	g.bld.MoveToRegion(after, &whileInstr.After)
	g.bld.SetInsertionPoint(after)
	g.lscope = sr.liveins.clone()
	g.localDefs = newScope()
	for i, ty := range tys {
		p := g.bld.AddBlockParam(after, ty)
		g.setValue(names[i], tensorValue(p, ty))
	}
	g.loopDepth++
	g.regionDepth++
	err = g.stmts(stmt.Body)
	g.loopDepth--
	g.regionDepth--
	if err != nil {
		return err
	}
	yields := make([]ir.ValueID, len(names))
	for i, name := range names {
		v, _ := g.lscope.get(name)
		yields[i] = v.ID
	}
	g.bld.Yield(yields)

	g.exitSubRegion(sr)
	for i, name := range names {
		g.setValue(name, tensorValue(results[i], tys[i]))
	}
	return nil
}

func (g *Generator) visitFor(stmt *ast.Stmt) *diag.Error {
	iter := stmt.Iter
	if iter.Kind != ast.ExprCall {
		return g.errf(diag.Unsupported, iter.Pos, "only `range` and `static_range` can be iterated")
	}
	callee, err := g.expr(iter.Func)
	if err != nil {
		return err
	}
	if callee.Kind != ValBuiltin {
		return g.errf(diag.Unsupported, iter.Pos, "only `range` and `static_range` can be iterated")
	}
	args := make([]*Value, len(iter.Args))
	for i, a := range iter.Args {
		if args[i], err = g.expr(a); err != nil {
			return err
		}
	}
	switch callee.Builtin {
	case "static_range", "tl.static_range":
		return g.visitStaticFor(stmt, args)
	case "range":
		return g.visitDynamicFor(stmt, args)
	default:
		return g.errf(diag.Unsupported, iter.Pos, "only `range` and `static_range` can be iterated, not %s", callee)
	}
}

// visitStaticFor unrolls the loop at compile time, binding the induction
// variable as a constant each iteration.
func (g *Generator) visitStaticFor(stmt *ast.Stmt, args []*Value) *diag.Error {
	start, stop, step, err := g.rangeBounds(stmt.Iter.Pos, args, true)
	if err != nil {
		return err
	}
	lo, hi, st := start.Const.Int, stop.Const.Int, step.Const.Int
	if st == 0 {
		return g.errf(diag.TypeMismatch, stmt.Iter.Pos, "static_range step must not be zero")
	}
	g.loopDepth++
	defer func() { g.loopDepth-- }()
	for i := lo; (st > 0 && i < hi) || (st < 0 && i > hi); i += st {
		g.setValue(stmt.Target.Name, constValue(IntConst(i)))
		if err := g.stmts(stmt.Body); err != nil {
			return err
		}
	}
	return nil
}

// rangeBounds normalizes range arguments to (start, stop, step). When
// static is set, all three must be compile-time integers.
func (g *Generator) rangeBounds(pos source.Pos, args []*Value, static bool) (*Value, *Value, *Value, *diag.Error) {
	var start, stop, step *Value
	switch len(args) {
	case 1:
		start, stop, step = constValue(IntConst(0)), args[0], constValue(IntConst(1))
	case 2:
		start, stop, step = args[0], args[1], constValue(IntConst(1))
	case 3:
		start, stop, step = args[0], args[1], args[2]
	default:
		return nil, nil, nil, g.errf(diag.TypeMismatch, pos, "range takes 1 to 3 arguments, got %d", len(args))
	}
	if static {
		for _, v := range []*Value{start, stop, step} {
			if !v.IsConst() || v.Const.Kind != ConstInt {
				return nil, nil, nil, g.errf(diag.StaticNotDeterminable, pos,
					"static_range bounds must be compile-time integers")
			}
		}
	}
	return start, stop, step, nil
}

func (g *Generator) visitDynamicFor(stmt *ast.Stmt, args []*Value) *diag.Error {
	pos := stmt.Iter.Pos
	lb, ub, step, err := g.rangeBounds(pos, args, false)
	if err != nil {
		return err
	}

	// a statically negative step runs the loop on the negated range and
	// reconstructs the visible induction value inside the body
	negativeStep := false
	if step.IsConst() && step.Const.Kind == ConstInt && step.Const.Int < 0 {
		negativeStep = true
		step = constValue(IntConst(-step.Const.Int))
		lb, ub = ub, lb
	}

	if lb, err = g.materialize(lb, pos); err != nil {
		return err
	}
	if ub, err = g.materialize(ub, pos); err != nil {
		return err
	}
	if step, err = g.materialize(step, pos); err != nil {
		return err
	}
	for _, v := range []*Value{lb, ub, step} {
		if !v.IsTensor() || !v.Type.IsInt() || v.Type.IsBlock() {
			return g.errf(diag.TypeMismatch, pos, "for loop bounds and step must all be integers")
		}
	}
	ivType := types.PromoteInteger(types.PromoteInteger(lb.Type, ub.Type), step.Type)
	lbID := g.bld.Cast(lb.ID, ivType)
	ubID := g.bld.Cast(ub.ID, ivType)
	stepID := g.bld.Cast(step.ID, ivType)

	// placeholder for the induction variable; replaced once the body
	// exists
	ivPlaceholder := g.bld.Undef(ivType)
	g.setValue(stmt.Target.Name, tensorValue(ivPlaceholder, ivType))

	sr := g.enterSubRegion()
	bodyDefs, derr := g.dryRunBody(stmt.Body)
	if derr != nil {
		return derr
	}
	names, tys, init, lerr := g.loopCarried(stmt.Pos, sr.liveins, bodyDefs)
	if lerr != nil {
		return lerr
	}

	g.bld.SetInsertionPoint(sr.ipBlock)
	forInstr, results := g.bld.For(lbID, ubID, stepID, init, tys)
	body := g.bld.CreateBlock()
	g.bld.MoveToRegion(body, &forInstr.Body)
	rawIV := g.bld.AddBlockParam(body, ivType)
	g.bld.SetInsertionPoint(body)
	g.lscope = sr.liveins.clone()
	g.localDefs = newScope()
	for i, ty := range tys {
		p := g.bld.AddBlockParam(body, ty)
		g.setValue(names[i], tensorValue(p, ty))
	}
	g.loopDepth++
	g.regionDepth++
	err2 := g.stmts(stmt.Body)
	g.loopDepth--
	g.regionDepth--
	if err2 != nil {
		return err2
	}
	yields := make([]ir.ValueID, len(names))
	for i, name := range names {
		v, _ := g.lscope.get(name)
		yields[i] = v.ID
	}
	g.bld.Yield(yields)

	// resolve the placeholder: the visible induction value is the block
	// parameter, or its mirror across the bounds for a negated range
	visibleIV := rawIV
	if negativeStep {
		scratch := g.bld.CreateBlock()
		g.bld.SetInsertionPoint(scratch)
		diffID := g.bld.Bin(ir.BinSub, ivType, ubID, rawIV)
		visibleIV = g.bld.Bin(ir.BinAdd, ivType, diffID, lbID)
		body.Instrs = append(scratch.Instrs, body.Instrs...)
	}
	ir.ReplaceUses(g.fn, ivPlaceholder, visibleIV)
	for i, in := range sr.ipBlock.Instrs {
		if in.Op == ir.OpUndef && in.Result() == ivPlaceholder {
			sr.ipBlock.Instrs = append(sr.ipBlock.Instrs[:i], sr.ipBlock.Instrs[i+1:]...)
			break
		}
	}

	g.exitSubRegion(sr)
	for i, name := range names {
		g.setValue(name, tensorValue(results[i], tys[i]))
	}
	return nil
}
