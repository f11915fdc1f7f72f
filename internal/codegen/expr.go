package codegen

import (
	"fmt"
	"math"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/source"
	"github.com/recht/triton/internal/types"
)

func (g *Generator) expr(e *ast.Expr) (*Value, *diag.Error) {
	switch e.Kind {
	case ast.ExprIntLit:
		return constValue(IntConst(e.Int)), nil
	case ast.ExprFloatLit:
		return constValue(FloatConst(e.Float)), nil
	case ast.ExprStringLit:
		return constValue(StrConst(e.Str)), nil
	case ast.ExprBoolLit:
		return constValue(BoolConst(e.Bool)), nil
	case ast.ExprNoneLit:
		return constValue(NoneConst()), nil
	case ast.ExprName:
		return g.lookupValue(e.Name, e.Pos)
	case ast.ExprTuple, ast.ExprList:
		elems := make([]*Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := g.expr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Value{Kind: ValTuple, Elems: elems}, nil
	case ast.ExprBinary:
		x, err := g.expr(e.X)
		if err != nil {
			return nil, err
		}
		y, err := g.expr(e.Y)
		if err != nil {
			return nil, err
		}
		return g.binaryOp(e.Op, x, y, e.Pos)
	case ast.ExprCompare:
		x, err := g.expr(e.X)
		if err != nil {
			return nil, err
		}
		y, err := g.expr(e.Y)
		if err != nil {
			return nil, err
		}
		return g.compareOp(e.Op, x, y, e.Pos)
	case ast.ExprBool:
		return g.boolOp(e)
	case ast.ExprUnary:
		return g.unaryOp(e)
	case ast.ExprCond:
		return g.condExpr(e)
	case ast.ExprCall:
		return g.call(e)
	case ast.ExprSubscript:
		return g.subscript(e)
	case ast.ExprAttribute:
		return g.attribute(e)
	default:
		return nil, g.errf(diag.Unsupported, e.Pos, "unsupported expression")
	}
}

// asTensor materializes v and requires a runtime value.
func (g *Generator) asTensor(v *Value, pos source.Pos) (*Value, *diag.Error) {
	mat, err := g.materialize(v, pos)
	if err != nil {
		return nil, err
	}
	if !mat.IsTensor() {
		return nil, g.errf(diag.TypeMismatch, pos, "expected a value, got %s", mat)
	}
	return mat, nil
}

// castTo converts a runtime value to target, splatting scalars into
// blocks and broadcasting size-1 dimensions as needed.
func (g *Generator) castTo(v *Value, target types.Type, pos source.Pos) (*Value, *diag.Error) {
	if v.Type.Equal(target) {
		return v, nil
	}
	id := v.ID
	cur := v.Type
	// element conversion first
	if !cur.Scalar().Equal(target.Scalar()) {
		elem := cur.WithScalar(target.Scalar())
		id = g.bld.Cast(id, elem)
		cur = elem
	}
	if cur.Equal(target) {
		return tensorValue(id, target), nil
	}
	switch {
	case !cur.IsBlock() && target.IsBlock():
		id = g.bld.Intrinsic("splat", []ir.ValueID{id}, []types.Type{target})[0]
	case cur.IsBlock() && target.IsBlock():
		if len(cur.Shape) != len(target.Shape) {
			return nil, g.errf(diag.TypeMismatch, pos, "cannot reshape %s to %s", cur, target)
		}
		id = g.bld.Intrinsic("broadcast", []ir.ValueID{id}, []types.Type{target})[0]
	default:
		return nil, g.errf(diag.TypeMismatch, pos, "cannot convert %s to %s", cur, target)
	}
	return tensorValue(id, target), nil
}

func (g *Generator) binaryOp(op ast.Op, x, y *Value, pos source.Pos) (*Value, *diag.Error) {
	if x.IsConst() && y.IsConst() {
		return g.foldBinary(op, x.Const, y.Const, pos)
	}
	xt, err := g.asTensor(x, pos)
	if err != nil {
		return nil, err
	}
	yt, err := g.asTensor(y, pos)
	if err != nil {
		return nil, err
	}
	return g.emitBinary(op, xt, yt, pos)
}

func (g *Generator) foldBinary(op ast.Op, a, b Constant, pos source.Pos) (*Value, *diag.Error) {
	bothInt := a.Kind == ConstInt && b.Kind == ConstInt
	if bothInt {
		l, r := a.Int, b.Int
		switch op {
		case ast.OpAdd:
			return constValue(IntConst(l + r)), nil
		case ast.OpSub:
			return constValue(IntConst(l - r)), nil
		case ast.OpMul:
			return constValue(IntConst(l * r)), nil
		case ast.OpDiv:
			if r == 0 {
				return nil, g.errf(diag.TypeMismatch, pos, "division by zero in a compile-time expression")
			}
			return constValue(FloatConst(float64(l) / float64(r))), nil
		case ast.OpFloorDiv:
			if r == 0 {
				return nil, g.errf(diag.TypeMismatch, pos, "division by zero in a compile-time expression")
			}
			return constValue(IntConst(floorDiv(l, r))), nil
		case ast.OpMod:
			if r == 0 {
				return nil, g.errf(diag.TypeMismatch, pos, "division by zero in a compile-time expression")
			}
			return constValue(IntConst(l - floorDiv(l, r)*r)), nil
		case ast.OpPow:
			if r >= 0 {
				p := int64(1)
				for i := int64(0); i < r; i++ {
					p *= l
				}
				return constValue(IntConst(p)), nil
			}
			return constValue(FloatConst(math.Pow(float64(l), float64(r)))), nil
		case ast.OpLShift:
			return constValue(IntConst(l << uint(r))), nil
		case ast.OpRShift:
			return constValue(IntConst(l >> uint(r))), nil
		case ast.OpBitAnd:
			return constValue(IntConst(l & r)), nil
		case ast.OpBitOr:
			return constValue(IntConst(l | r)), nil
		case ast.OpBitXor:
			return constValue(IntConst(l ^ r)), nil
		}
	}
	lf, lok := a.floatVal()
	rf, rok := b.floatVal()
	if lok && rok {
		switch op {
		case ast.OpAdd:
			return constValue(FloatConst(lf + rf)), nil
		case ast.OpSub:
			return constValue(FloatConst(lf - rf)), nil
		case ast.OpMul:
			return constValue(FloatConst(lf * rf)), nil
		case ast.OpDiv:
			if rf == 0 {
				return nil, g.errf(diag.TypeMismatch, pos, "division by zero in a compile-time expression")
			}
			return constValue(FloatConst(lf / rf)), nil
		case ast.OpMod:
			return constValue(FloatConst(math.Mod(lf, rf))), nil
		case ast.OpPow:
			return constValue(FloatConst(math.Pow(lf, rf))), nil
		case ast.OpFloorDiv:
			return constValue(FloatConst(math.Floor(lf / rf))), nil
		}
	}
	if a.Kind == ConstStr && b.Kind == ConstStr && op == ast.OpAdd {
		return constValue(StrConst(a.Str + b.Str)), nil
	}
	return nil, g.errf(diag.TypeMismatch, pos,
		"operator %s is not defined for compile-time values %s and %s", op, a.Repr(), b.Repr())
}

func (c Constant) floatVal() (float64, bool) {
	switch c.Kind {
	case ConstInt:
		return float64(c.Int), true
	case ConstFloat:
		return c.Float, true
	case ConstBool:
		if c.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (g *Generator) emitBinary(op ast.Op, x, y *Value, pos source.Pos) (*Value, *diag.Error) {
	xt, yt := x.Type, y.Type

	// pointer offsetting keeps the pointer type
	if xt.Scalar().IsPointer() || yt.Scalar().IsPointer() {
		return g.emitPointerArith(op, x, y, pos)
	}

	rt, err := types.BinaryType(xt, yt)
	if err != nil {
		return nil, g.errf(diag.TypeMismatch, pos, "%s", err)
	}

	scalar := rt.Scalar()
	switch op {
	case ast.OpDiv:
		if scalar.IsInt() {
			scalar = types.FP32()
			rt = rt.WithScalar(scalar)
		}
	case ast.OpFloorDiv:
		if !scalar.IsInt() {
			return nil, g.errf(diag.TypeMismatch, pos, "floor division requires integer operands, got %s", scalar)
		}
	case ast.OpMod:
		// int or float remainder, resolved below
	case ast.OpLShift, ast.OpRShift, ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor:
		if !scalar.IsInt() {
			return nil, g.errf(diag.TypeMismatch, pos, "operator %s requires integer operands, got %s", op, scalar)
		}
	case ast.OpPow:
		if scalar.IsInt() {
			scalar = types.FP32()
			rt = rt.WithScalar(scalar)
		}
	}

	xc, cerr := g.castTo(x, rt, pos)
	if cerr != nil {
		return nil, cerr
	}
	yc, cerr := g.castTo(y, rt, pos)
	if cerr != nil {
		return nil, cerr
	}
	binOp, oerr := pickBinOp(op, scalar)
	if oerr != nil {
		return nil, g.errf(diag.TypeMismatch, pos, "%s", oerr)
	}
	return tensorValue(g.bld.Bin(binOp, rt, xc.ID, yc.ID), rt), nil
}

func pickBinOp(op ast.Op, scalar types.Type) (ir.BinOp, error) {
	isFloat := scalar.IsFloat()
	signed := scalar.IsSigned()
	switch op {
	case ast.OpAdd:
		return ir.BinAdd, nil
	case ast.OpSub:
		return ir.BinSub, nil
	case ast.OpMul:
		return ir.BinMul, nil
	case ast.OpDiv, ast.OpPow:
		if op == ast.OpPow {
			return ir.BinPow, nil
		}
		return ir.BinFDiv, nil
	case ast.OpFloorDiv:
		return ir.BinFloorDiv, nil
	case ast.OpMod:
		switch {
		case isFloat:
			return ir.BinFRem, nil
		case signed:
			return ir.BinSRem, nil
		default:
			return ir.BinURem, nil
		}
	case ast.OpLShift:
		return ir.BinShl, nil
	case ast.OpRShift:
		if signed {
			return ir.BinAShr, nil
		}
		return ir.BinLShr, nil
	case ast.OpBitAnd:
		return ir.BinAnd, nil
	case ast.OpBitOr:
		return ir.BinOr, nil
	case ast.OpBitXor:
		return ir.BinXor, nil
	default:
		return ir.BinInvalid, fmt.Errorf("operator %s is not defined for values of type %s", op, scalar)
	}
}

func (g *Generator) emitPointerArith(op ast.Op, x, y *Value, pos source.Pos) (*Value, *diag.Error) {
	ptr, off := x, y
	if y.Type.Scalar().IsPointer() {
		if x.Type.Scalar().IsPointer() {
			return nil, g.errf(diag.TypeMismatch, pos, "arithmetic between two pointers is not supported")
		}
		if op != ast.OpAdd {
			return nil, g.errf(diag.TypeMismatch, pos, "operator %s is not defined for pointers", op)
		}
		ptr, off = y, x
	}
	if op != ast.OpAdd && op != ast.OpSub {
		return nil, g.errf(diag.TypeMismatch, pos, "operator %s is not defined for pointers", op)
	}
	if !off.Type.Scalar().IsInt() {
		return nil, g.errf(diag.TypeMismatch, pos, "pointer offset must be an integer, got %s", off.Type)
	}
	rt, err := types.BinaryType(ptr.Type, off.Type)
	if err != nil {
		return nil, g.errf(diag.TypeMismatch, pos, "%s", err)
	}
	// broadcast both sides to the merged shape; the offset keeps its
	// integer element type
	ptrCast, perr := g.castTo(ptr, rt, pos)
	if perr != nil {
		return nil, perr
	}
	offTarget := rt.WithScalar(off.Type.Scalar())
	offCast, oerr := g.castTo(off, offTarget, pos)
	if oerr != nil {
		return nil, oerr
	}
	offID := offCast.ID
	if op == ast.OpSub {
		zero := g.bld.ConstInt(off.Type.Scalar(), 0)
		zeroV, zerr := g.castTo(tensorValue(zero, off.Type.Scalar()), offTarget, pos)
		if zerr != nil {
			return nil, zerr
		}
		offID = g.bld.Bin(ir.BinSub, offTarget, zeroV.ID, offID)
	}
	return tensorValue(g.bld.Intrinsic("addptr", []ir.ValueID{ptrCast.ID, offID}, []types.Type{rt})[0], rt), nil
}

func (g *Generator) compareOp(op ast.Op, x, y *Value, pos source.Pos) (*Value, *diag.Error) {
	if op == ast.OpIs || op == ast.OpIsNot {
		if x.IsTensor() || y.IsTensor() {
			return nil, g.errf(diag.Unsupported, pos, "`is` comparisons on runtime values are not supported")
		}
		same := x.IsNone() && y.IsNone()
		if op == ast.OpIsNot {
			same = !same
		}
		return constValue(BoolConst(same)), nil
	}
	if x.IsConst() && y.IsConst() {
		return g.foldCompare(op, x.Const, y.Const, pos)
	}
	xt, err := g.asTensor(x, pos)
	if err != nil {
		return nil, err
	}
	yt, err := g.asTensor(y, pos)
	if err != nil {
		return nil, err
	}
	rt, terr := types.BinaryType(xt.Type, yt.Type)
	if terr != nil {
		return nil, g.errf(diag.TypeMismatch, pos, "%s", terr)
	}
	if xt, err = g.castTo(xt, rt, pos); err != nil {
		return nil, err
	}
	if yt, err = g.castTo(yt, rt, pos); err != nil {
		return nil, err
	}
	pred, perr := pickCmpPred(op, rt.Scalar())
	if perr != nil {
		return nil, g.errf(diag.TypeMismatch, pos, "%s", perr)
	}
	id := g.bld.Cmp(pred, xt.ID, yt.ID)
	resType := types.Int1()
	if rt.IsBlock() {
		resType = rt.WithScalar(resType)
	}
	return tensorValue(id, resType), nil
}

func pickCmpPred(op ast.Op, scalar types.Type) (ir.CmpPred, error) {
	if scalar.IsFloat() {
		switch op {
		case ast.OpEq:
			return ir.CmpOeq, nil
		case ast.OpNe:
			return ir.CmpOne, nil
		case ast.OpLt:
			return ir.CmpOlt, nil
		case ast.OpLe:
			return ir.CmpOle, nil
		case ast.OpGt:
			return ir.CmpOgt, nil
		case ast.OpGe:
			return ir.CmpOge, nil
		}
	}
	signed := scalar.IsSigned() || scalar.IsPointer()
	switch op {
	case ast.OpEq:
		return ir.CmpEq, nil
	case ast.OpNe:
		return ir.CmpNe, nil
	case ast.OpLt:
		if signed {
			return ir.CmpSlt, nil
		}
		return ir.CmpUlt, nil
	case ast.OpLe:
		if signed {
			return ir.CmpSle, nil
		}
		return ir.CmpUle, nil
	case ast.OpGt:
		if signed {
			return ir.CmpSgt, nil
		}
		return ir.CmpUgt, nil
	case ast.OpGe:
		if signed {
			return ir.CmpSge, nil
		}
		return ir.CmpUge, nil
	}
	return ir.CmpInvalid, fmt.Errorf("comparison %s is not defined for %s", op, scalar)
}

func (g *Generator) foldCompare(op ast.Op, a, b Constant, pos source.Pos) (*Value, *diag.Error) {
	if a.Kind == ConstStr && b.Kind == ConstStr {
		switch op {
		case ast.OpEq:
			return constValue(BoolConst(a.Str == b.Str)), nil
		case ast.OpNe:
			return constValue(BoolConst(a.Str != b.Str)), nil
		}
	}
	lf, lok := a.floatVal()
	rf, rok := b.floatVal()
	if !lok || !rok {
		return nil, g.errf(diag.TypeMismatch, pos,
			"cannot compare compile-time values %s and %s", a.Repr(), b.Repr())
	}
	var res bool
	switch op {
	case ast.OpEq:
		res = lf == rf
	case ast.OpNe:
		res = lf != rf
	case ast.OpLt:
		res = lf < rf
	case ast.OpLe:
		res = lf <= rf
	case ast.OpGt:
		res = lf > rf
	case ast.OpGe:
		res = lf >= rf
	default:
		return nil, g.errf(diag.TypeMismatch, pos, "comparison %s is not defined here", op)
	}
	return constValue(BoolConst(res)), nil
}

func (g *Generator) boolOp(e *ast.Expr) (*Value, *diag.Error) {
	x, err := g.expr(e.X)
	if err != nil {
		return nil, err
	}
	// compile-time short circuit
	if x.IsConst() {
		take := x.Const.Truthy()
		if e.Op == ast.OpAnd && !take {
			return x, nil
		}
		if e.Op == ast.OpOr && take {
			return x, nil
		}
		return g.expr(e.Y)
	}
	y, err := g.expr(e.Y)
	if err != nil {
		return nil, err
	}
	xb, err := g.toBoolTensor(x, e.X.Pos)
	if err != nil {
		return nil, err
	}
	yb, err := g.toBoolTensor(y, e.Y.Pos)
	if err != nil {
		return nil, err
	}
	rt, terr := types.BinaryType(xb.Type, yb.Type)
	if terr != nil {
		return nil, g.errf(diag.TypeMismatch, e.Pos, "%s", terr)
	}
	if xb, err = g.castTo(xb, rt, e.Pos); err != nil {
		return nil, err
	}
	if yb, err = g.castTo(yb, rt, e.Pos); err != nil {
		return nil, err
	}
	binOp := ir.BinAnd
	if e.Op == ast.OpOr {
		binOp = ir.BinOr
	}
	return tensorValue(g.bld.Bin(binOp, rt, xb.ID, yb.ID), rt), nil
}

// toBoolTensor narrows a runtime value to its boolean interpretation.
func (g *Generator) toBoolTensor(v *Value, pos source.Pos) (*Value, *diag.Error) {
	vt, err := g.asTensor(v, pos)
	if err != nil {
		return nil, err
	}
	scalar := vt.Type.Scalar()
	if scalar.IsBool() {
		return vt, nil
	}
	var pred ir.CmpPred
	var zero ir.ValueID
	switch {
	case scalar.IsInt():
		pred = ir.CmpNe
		zero = g.bld.ConstInt(scalar, 0)
	case scalar.IsFloat():
		pred = ir.CmpOne
		zero = g.bld.ConstFloat(scalar, 0)
	default:
		return nil, g.errf(diag.TypeMismatch, pos, "%s has no boolean interpretation", vt.Type)
	}
	zeroV, zerr := g.castTo(tensorValue(zero, scalar), vt.Type.WithScalar(scalar), pos)
	if zerr != nil {
		return nil, zerr
	}
	id := g.bld.Cmp(pred, vt.ID, zeroV.ID)
	rt := types.Int1()
	if vt.Type.IsBlock() {
		rt = vt.Type.WithScalar(rt)
	}
	return tensorValue(id, rt), nil
}

func (g *Generator) unaryOp(e *ast.Expr) (*Value, *diag.Error) {
	v, err := g.expr(e.X)
	if err != nil {
		return nil, err
	}
	if v.IsConst() {
		return g.foldUnary(e.Op, v.Const, e.Pos)
	}
	vt, err := g.asTensor(v, e.Pos)
	if err != nil {
		return nil, err
	}
	scalar := vt.Type.Scalar()
	switch e.Op {
	case ast.OpPos:
		return vt, nil
	case ast.OpNeg:
		var zero ir.ValueID
		if scalar.IsFloat() {
			zero = g.bld.ConstFloat(scalar, 0)
		} else if scalar.IsInt() {
			zero = g.bld.ConstInt(scalar, 0)
		} else {
			return nil, g.errf(diag.TypeMismatch, e.Pos, "cannot negate %s", vt.Type)
		}
		zeroV, zerr := g.castTo(tensorValue(zero, scalar), vt.Type, e.Pos)
		if zerr != nil {
			return nil, zerr
		}
		return tensorValue(g.bld.Bin(ir.BinSub, vt.Type, zeroV.ID, vt.ID), vt.Type), nil
	case ast.OpInvert:
		if !scalar.IsInt() {
			return nil, g.errf(diag.TypeMismatch, e.Pos, "operator ~ requires an integer value, got %s", vt.Type)
		}
		ones := g.bld.ConstInt(scalar, -1)
		onesV, oerr := g.castTo(tensorValue(ones, scalar), vt.Type, e.Pos)
		if oerr != nil {
			return nil, oerr
		}
		return tensorValue(g.bld.Bin(ir.BinXor, vt.Type, vt.ID, onesV.ID), vt.Type), nil
	case ast.OpNot:
		b, berr := g.toBoolTensor(vt, e.Pos)
		if berr != nil {
			return nil, berr
		}
		one := g.bld.ConstInt(types.Int1(), 1)
		oneV, oerr := g.castTo(tensorValue(one, types.Int1()), b.Type, e.Pos)
		if oerr != nil {
			return nil, oerr
		}
		return tensorValue(g.bld.Bin(ir.BinXor, b.Type, b.ID, oneV.ID), b.Type), nil
	default:
		return nil, g.errf(diag.Internal, e.Pos, "unhandled unary operator %s", e.Op)
	}
}

func (g *Generator) foldUnary(op ast.Op, c Constant, pos source.Pos) (*Value, *diag.Error) {
	switch op {
	case ast.OpNot:
		return constValue(BoolConst(!c.Truthy())), nil
	case ast.OpPos:
		if c.Kind == ConstInt || c.Kind == ConstFloat {
			return constValue(c), nil
		}
	case ast.OpNeg:
		switch c.Kind {
		case ConstInt:
			return constValue(IntConst(-c.Int)), nil
		case ConstFloat:
			return constValue(FloatConst(-c.Float)), nil
		}
	case ast.OpInvert:
		if c.Kind == ConstInt {
			return constValue(IntConst(^c.Int)), nil
		}
	}
	return nil, g.errf(diag.TypeMismatch, pos, "operator %s is not defined for %s", op, c.Repr())
}

// condExpr lowers a ternary. A compile-time condition evaluates only the
// chosen arm; a runtime condition evaluates both and selects.
func (g *Generator) condExpr(e *ast.Expr) (*Value, *diag.Error) {
	cond, err := g.expr(e.Cond)
	if err != nil {
		return nil, err
	}
	if cond.IsConst() {
		if cond.Const.Truthy() {
			return g.expr(e.X)
		}
		return g.expr(e.Y)
	}
	x, err := g.expr(e.X)
	if err != nil {
		return nil, err
	}
	y, err := g.expr(e.Y)
	if err != nil {
		return nil, err
	}
	return g.selectOp(cond, x, y, e.Pos)
}

// selectOp merges two runtime alternatives under a runtime condition.
func (g *Generator) selectOp(cond, x, y *Value, pos source.Pos) (*Value, *diag.Error) {
	condT, err := g.asTensor(cond, pos)
	if err != nil {
		return nil, err
	}
	if !condT.Type.Scalar().IsBool() {
		b, berr := g.toBoolTensor(condT, pos)
		if berr != nil {
			return nil, berr
		}
		condT = b
	}
	xt, err := g.asTensor(x, pos)
	if err != nil {
		return nil, err
	}
	yt, err := g.asTensor(y, pos)
	if err != nil {
		return nil, err
	}
	rt, terr := types.BinaryType(xt.Type, yt.Type)
	if terr != nil {
		return nil, g.errf(diag.TypeMismatch, pos, "%s", terr)
	}
	// merge the condition's shape in as well
	if condT.Type.IsBlock() {
		shape, serr := types.CommonShape(condT.Type, rt)
		if serr != nil {
			return nil, g.errf(diag.TypeMismatch, pos, "%s", serr)
		}
		rt = types.BlockOf(rt.Scalar(), shape...)
	}
	if xt, err = g.castTo(xt, rt, pos); err != nil {
		return nil, err
	}
	if yt, err = g.castTo(yt, rt, pos); err != nil {
		return nil, err
	}
	condTarget := types.Int1()
	if rt.IsBlock() {
		condTarget = rt.WithScalar(condTarget)
	}
	if condT, err = g.castTo(condT, condTarget, pos); err != nil {
		return nil, err
	}
	id := g.bld.Intrinsic("select", []ir.ValueID{condT.ID, xt.ID, yt.ID}, []types.Type{rt})[0]
	return tensorValue(id, rt), nil
}

// subscript resolves compile-time aggregate indexing and tensor
// dimension manipulation (None inserts a size-1 axis, ':' keeps one).
func (g *Generator) subscript(e *ast.Expr) (*Value, *diag.Error) {
	value, err := g.expr(e.Value)
	if err != nil {
		return nil, err
	}
	if value.Kind == ValTuple {
		idx, ierr := g.expr(e.Index)
		if ierr != nil {
			return nil, ierr
		}
		if !idx.IsConst() || idx.Const.Kind != ConstInt {
			return nil, g.errf(diag.StaticNotDeterminable, e.Pos, "tuple index must be a compile-time integer")
		}
		i := idx.Const.Int
		if i < 0 {
			i += int64(len(value.Elems))
		}
		if i < 0 || i >= int64(len(value.Elems)) {
			return nil, g.errf(diag.TypeMismatch, e.Pos, "tuple index %d out of range", idx.Const.Int)
		}
		return value.Elems[i], nil
	}
	vt, err := g.asTensor(value, e.Pos)
	if err != nil {
		return nil, err
	}
	items := []*ast.Expr{e.Index}
	if e.Index.Kind == ast.ExprTuple {
		items = e.Index.Elems
	}
	cur := vt
	dim := 0
	for _, item := range items {
		rank := len(cur.Type.Shape)
		switch {
		case item.Kind == ast.ExprNoneLit:
			if dim > rank {
				return nil, g.errf(diag.TypeMismatch, item.Pos,
					"cannot expand dimension %d of %s", dim, cur.Type)
			}
			shape := append([]int64{}, cur.Type.Shape...)
			if !cur.Type.IsBlock() {
				shape = nil
			}
			newShape := make([]int64, 0, len(shape)+1)
			newShape = append(newShape, shape[:dim]...)
			newShape = append(newShape, 1)
			newShape = append(newShape, shape[dim:]...)
			rt := types.BlockOf(cur.Type.Scalar(), newShape...)
			id := g.bld.IntrinsicI("expand_dims", []ir.ValueID{cur.ID}, []int64{int64(dim)}, []types.Type{rt})[0]
			cur = tensorValue(id, rt)
			dim++
		case item.Kind == ast.ExprSlice && item.Lower == nil && item.Upper == nil && item.Step == nil:
			if dim >= rank {
				return nil, g.errf(diag.TypeMismatch, item.Pos,
					"too many subscript dimensions for %s", cur.Type)
			}
			dim++
		default:
			return nil, g.errf(diag.Unsupported, item.Pos,
				"only `None` and `:` are supported in value subscripts")
		}
	}
	return cur, nil
}

func (g *Generator) attribute(e *ast.Expr) (*Value, *diag.Error) {
	recv, err := g.expr(e.Value)
	if err != nil {
		return nil, err
	}
	switch recv.Kind {
	case ValBuiltin:
		full := recv.Builtin + "." + e.Attr
		if v, ok := globalScope[full]; ok {
			return v, nil
		}
		if isNamespace(recv.Builtin) {
			return nil, g.errf(diag.NameResolution, e.Pos, "'%s' has no attribute '%s'", recv.Builtin, e.Attr)
		}
		return nil, g.errf(diag.Unsupported, e.Pos, "%s has no attribute '%s'", recv, e.Attr)
	case ValTensor:
		return g.tensorAttribute(recv, e.Attr, e.Pos)
	case ValType:
		switch e.Attr {
		case "element_ty":
			if recv.Type.IsPointer() {
				return &Value{Kind: ValType, Type: *recv.Type.Elem}, nil
			}
		}
		return nil, g.errf(diag.Unsupported, e.Pos, "type %s has no attribute '%s'", recv.Type, e.Attr)
	default:
		return nil, g.errf(diag.Unsupported, e.Pos, "%s has no attribute '%s'", recv, e.Attr)
	}
}

func (g *Generator) tensorAttribute(v *Value, attr string, pos source.Pos) (*Value, *diag.Error) {
	switch attr {
	case "dtype":
		return &Value{Kind: ValType, Type: v.Type.Scalar()}, nil
	case "shape":
		if !v.Type.IsBlock() {
			return &Value{Kind: ValTuple}, nil
		}
		elems := make([]*Value, len(v.Type.Shape))
		for i, d := range v.Type.Shape {
			elems[i] = constValue(IntConst(d))
		}
		return &Value{Kind: ValTuple, Elems: elems}, nil
	case "T":
		if !v.Type.IsBlock() || len(v.Type.Shape) != 2 {
			return nil, g.errf(diag.TypeMismatch, pos, "transposition requires a two-dimensional block, got %s", v.Type)
		}
		rt := types.BlockOf(v.Type.Scalar(), v.Type.Shape[1], v.Type.Shape[0])
		id := g.bld.Intrinsic("trans", []ir.ValueID{v.ID}, []types.Type{rt})[0]
		return tensorValue(id, rt), nil
	case "to":
		return &Value{Kind: ValBuiltin, Builtin: "to", Recv: v}, nil
	default:
		return nil, g.errf(diag.Unsupported, pos, "values have no attribute '%s'", attr)
	}
}
