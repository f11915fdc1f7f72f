package codegen

import (
	"fmt"
	"os"
	"strings"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/source"
	"github.com/recht/triton/internal/types"
)

// globalScope holds the names visible in every kernel without any local
// binding: the tl namespace, loop iterators, and the element types.
var globalScope = buildGlobalScope()

var namespaces = map[string]bool{
	"tl":      true,
	"triton":  true,
	"tl.math": true,
}

func isNamespace(name string) bool { return namespaces[name] }

func buildGlobalScope() map[string]*Value {
	scope := map[string]*Value{}
	builtin := func(name string) *Value { return &Value{Kind: ValBuiltin, Builtin: name} }

	scope["tl"] = builtin("tl")
	scope["triton"] = builtin("triton")
	scope["triton.language"] = builtin("tl")
	scope["tl.math"] = builtin("tl.math")
	for _, name := range []string{"exp", "log", "sqrt", "sin", "cos"} {
		scope["tl.math."+name] = builtin("tl.math." + name)
	}
	scope["range"] = builtin("range")
	scope["static_range"] = builtin("static_range")
	scope["min"] = builtin("py_min")
	scope["max"] = builtin("py_max")
	scope["len"] = builtin("py_len")

	fns := []string{
		"program_id", "num_programs", "arange", "zeros", "full",
		"load", "store", "dot", "where", "exp", "log", "sqrt",
		"maximum", "minimum", "max", "min", "sum", "cdiv",
		"static_assert", "static_print", "static_range",
		"atomic_add", "atomic_cas", "multiple_of", "max_contiguous",
		"expand_dims", "broadcast_to", "debug_barrier", "constexpr",
	}
	for _, name := range fns {
		scope["tl."+name] = builtin("tl." + name)
	}

	dtypes := map[string]types.Type{
		"int1": types.Int1(), "int8": types.Int(8), "int16": types.Int(16),
		"int32": types.Int(32), "int64": types.Int(64),
		"uint8": types.Uint(8), "uint16": types.Uint(16),
		"uint32": types.Uint(32), "uint64": types.Uint(64),
		"float8e4": types.FP8E4(), "float8e5": types.FP8E5(),
		"float16": types.FP16(), "bfloat16": types.BF16(),
		"float32": types.FP32(), "float64": types.FP64(),
	}
	for name, ty := range dtypes {
		scope["tl."+name] = &Value{Kind: ValType, Type: ty}
	}
	return scope
}

func (g *Generator) callBuiltin(fnVal *Value, e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	name := fnVal.Builtin
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	pos := e.Pos

	// argument accessors; positional first, keyword fallback
	arg := func(i int, kw string) *Value {
		if i < len(args) {
			return args[i]
		}
		if kw != "" {
			return kwargs[kw]
		}
		return nil
	}
	need := func(i int, kw string) (*Value, *diag.Error) {
		if v := arg(i, kw); v != nil {
			return v, nil
		}
		return nil, g.errf(diag.TypeMismatch, pos, "%s: missing argument '%s'", name, kw)
	}
	constInt := func(v *Value, what string) (int64, *diag.Error) {
		if !v.IsConst() || v.Const.Kind != ConstInt {
			return 0, g.errf(diag.StaticNotDeterminable, pos, "%s: %s must be a compile-time integer", name, what)
		}
		return v.Const.Int, nil
	}

	switch name {
	case "program_id", "num_programs":
		v, err := need(0, "axis")
		if err != nil {
			return nil, err
		}
		axis, err := constInt(v, "axis")
		if err != nil {
			return nil, err
		}
		if axis < 0 || axis > 2 {
			return nil, g.errf(diag.TypeMismatch, pos, "%s axis must be 0, 1, or 2, got %d", name, axis)
		}
		id := g.bld.IntrinsicI(name, nil, []int64{axis}, []types.Type{types.Int(32)})[0]
		return tensorValue(id, types.Int(32)), nil

	case "arange":
		sv, err := need(0, "start")
		if err != nil {
			return nil, err
		}
		ev, err := need(1, "end")
		if err != nil {
			return nil, err
		}
		start, err := constInt(sv, "start")
		if err != nil {
			return nil, err
		}
		end, err := constInt(ev, "end")
		if err != nil {
			return nil, err
		}
		n := end - start
		if n <= 0 || n&(n-1) != 0 {
			return nil, g.errf(diag.TypeMismatch, pos, "arange's range must be a positive power of 2, got [%d, %d)", start, end)
		}
		rt := types.BlockOf(types.Int(32), n)
		id := g.bld.IntrinsicI("make_range", nil, []int64{start, end}, []types.Type{rt})[0]
		return tensorValue(id, rt), nil

	case "zeros", "full":
		return g.builtinFill(name, e, args, kwargs)

	case "load":
		return g.builtinLoad(e, args, kwargs)
	case "store":
		return g.builtinStore(e, args, kwargs)
	case "dot":
		return g.builtinDot(e, args, kwargs)

	case "where":
		cond, err := need(0, "")
		if err != nil {
			return nil, err
		}
		x, err := need(1, "")
		if err != nil {
			return nil, err
		}
		y, err := need(2, "")
		if err != nil {
			return nil, err
		}
		return g.selectOp(cond, x, y, pos)

	case "exp", "log", "sqrt", "sin", "cos":
		v, err := need(0, "x")
		if err != nil {
			return nil, err
		}
		vt, err := g.asTensor(v, pos)
		if err != nil {
			return nil, err
		}
		if !vt.Type.Scalar().IsFloat() {
			return nil, g.errf(diag.TypeMismatch, pos, "%s requires a floating-point value, got %s", name, vt.Type)
		}
		id := g.bld.Intrinsic(name, []ir.ValueID{vt.ID}, []types.Type{vt.Type})[0]
		return tensorValue(id, vt.Type), nil

	case "maximum", "minimum":
		x, err := need(0, "")
		if err != nil {
			return nil, err
		}
		y, err := need(1, "")
		if err != nil {
			return nil, err
		}
		return g.builtinMinMax(name, x, y, pos)

	case "max", "min", "sum":
		return g.builtinReduce(name, e, args, kwargs)

	case "cdiv":
		a, err := need(0, "")
		if err != nil {
			return nil, err
		}
		b, err := need(1, "")
		if err != nil {
			return nil, err
		}
		sum, serr := g.binaryOp(ast.OpAdd, a, b, pos)
		if serr != nil {
			return nil, serr
		}
		sum, serr = g.binaryOp(ast.OpSub, sum, constValue(IntConst(1)), pos)
		if serr != nil {
			return nil, serr
		}
		return g.binaryOp(ast.OpFloorDiv, sum, b, pos)

	case "static_assert":
		return g.builtinStaticAssert(e, args, kwargs)

	case "static_print":
		parts := make([]string, len(args))
		for i, v := range args {
			parts[i] = v.String()
		}
		fmt.Fprintln(os.Stderr, strings.Join(parts, " "))
		return constValue(NoneConst()), nil

	case "atomic_add":
		return g.builtinAtomicAdd(e, args, kwargs)
	case "atomic_cas":
		return g.builtinAtomicCas(e, args, kwargs)

	case "constexpr":
		v, err := need(0, "value")
		if err != nil {
			return nil, err
		}
		if !v.IsConst() && v.Kind != ValType {
			return nil, g.errf(diag.StaticNotDeterminable, pos, "constexpr() requires a compile-time value")
		}
		return v, nil

	case "multiple_of", "max_contiguous":
		// layout hints; the value itself is unchanged
		v, err := need(0, "")
		if err != nil {
			return nil, err
		}
		return v, nil

	case "expand_dims":
		return g.builtinExpandDims(e, args, kwargs)
	case "broadcast_to":
		return g.builtinBroadcastTo(e, args, kwargs)

	case "debug_barrier":
		g.bld.Intrinsic("barrier", nil, nil)
		return constValue(NoneConst()), nil

	case "to":
		if fnVal.Recv == nil {
			return nil, g.errf(diag.Internal, pos, "to: missing receiver")
		}
		dv, err := need(0, "dtype")
		if err != nil {
			return nil, err
		}
		if dv.Kind != ValType {
			return nil, g.errf(diag.TypeMismatch, pos, "to: argument must be an element type, got %s", dv)
		}
		target := fnVal.Recv.Type.WithScalar(dv.Type)
		return g.castTo(fnVal.Recv, target, pos)

	case "py_min", "py_max":
		return g.builtinPyMinMax(name, e, args)
	case "py_len":
		v, err := need(0, "")
		if err != nil {
			return nil, err
		}
		if v.Kind != ValTuple {
			return nil, g.errf(diag.TypeMismatch, pos, "len is only defined for compile-time aggregates")
		}
		return constValue(IntConst(int64(len(v.Elems)))), nil

	case "range", "static_range":
		return nil, g.errf(diag.Unsupported, pos, "%s may only be used as a for-loop iterator", name)

	default:
		return nil, g.errf(diag.Unsupported, pos, "builtin '%s' is not supported", fnVal.Builtin)
	}
}

func (g *Generator) builtinPyMinMax(name string, e *ast.Expr, args []*Value) (*Value, *diag.Error) {
	if len(args) < 2 {
		return nil, g.errf(diag.TypeMismatch, e.Pos, "min/max need at least two arguments")
	}
	best := args[0]
	for _, v := range args[1:] {
		if !best.IsConst() || !v.IsConst() {
			return nil, g.errf(diag.StaticNotDeterminable, e.Pos,
				"min/max on runtime values is not supported; use tl.minimum or tl.maximum")
		}
		bf, _ := best.Const.floatVal()
		vf, ok := v.Const.floatVal()
		if !ok {
			return nil, g.errf(diag.TypeMismatch, e.Pos, "cannot order %s", v.Const.Repr())
		}
		if (name == "py_min" && vf < bf) || (name == "py_max" && vf > bf) {
			best = v
		}
	}
	return best, nil
}

func (g *Generator) builtinMinMax(name string, x, y *Value, pos source.Pos) (*Value, *diag.Error) {
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
	op := ir.BinMax
	if name == "minimum" {
		op = ir.BinMin
	}
	return tensorValue(g.bld.Bin(op, rt, xt.ID, yt.ID), rt), nil
}

// shapeOf extracts a compile-time shape from a tuple, list, or single
// integer value.
func (g *Generator) shapeOf(v *Value, pos source.Pos) ([]int64, *diag.Error) {
	elems := []*Value{v}
	if v.Kind == ValTuple {
		elems = v.Elems
	}
	shape := make([]int64, len(elems))
	for i, el := range elems {
		if !el.IsConst() || el.Const.Kind != ConstInt {
			return nil, g.errf(diag.StaticNotDeterminable, pos, "block shapes must be compile-time integers")
		}
		if el.Const.Int <= 0 {
			return nil, g.errf(diag.TypeMismatch, pos, "block dimensions must be positive, got %d", el.Const.Int)
		}
		shape[i] = el.Const.Int
	}
	return shape, nil
}

func (g *Generator) builtinFill(name string, e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) == 0 {
		return nil, g.errf(diag.TypeMismatch, pos, "%s: missing shape", name)
	}
	shape, err := g.shapeOf(args[0], pos)
	if err != nil {
		return nil, err
	}
	fill := Constant{Kind: ConstInt}
	argIdx := 1
	if name == "full" {
		if len(args) < 2 {
			if v, ok := kwargs["value"]; ok && v.IsConst() {
				fill = v.Const
			} else {
				return nil, g.errf(diag.StaticNotDeterminable, pos, "full: fill value must be a compile-time scalar")
			}
		} else {
			if !args[1].IsConst() {
				return nil, g.errf(diag.StaticNotDeterminable, pos, "full: fill value must be a compile-time scalar")
			}
			fill = args[1].Const
			argIdx = 2
		}
	}
	var dtypeVal *Value
	if v, ok := kwargs["dtype"]; ok {
		dtypeVal = v
	} else if argIdx < len(args) {
		dtypeVal = args[argIdx]
	}
	if dtypeVal == nil || dtypeVal.Kind != ValType {
		return nil, g.errf(diag.TypeMismatch, pos, "%s: missing element type", name)
	}
	scalar := dtypeVal.Type
	var id ir.ValueID
	if scalar.IsFloat() {
		f, _ := fill.floatVal()
		id = g.bld.ConstFloat(scalar, f)
	} else {
		iv := fill.Int
		if fill.Kind == ConstFloat {
			iv = int64(fill.Float)
		}
		id = g.bld.ConstInt(scalar, iv)
	}
	if len(shape) == 0 {
		return tensorValue(id, scalar), nil
	}
	rt := types.BlockOf(scalar, shape...)
	return g.castTo(tensorValue(id, scalar), rt, pos)
}

// pointerBlock validates a load/store pointer operand and returns the
// pointed-to result type shaped like the operand.
func (g *Generator) pointerBlock(v *Value, pos source.Pos) (*Value, types.Type, *diag.Error) {
	vt, err := g.asTensor(v, pos)
	if err != nil {
		return nil, types.Type{}, err
	}
	scalar := vt.Type.Scalar()
	if !scalar.IsPointer() {
		return nil, types.Type{}, g.errf(diag.TypeMismatch, pos, "expected a pointer value, got %s", vt.Type)
	}
	return vt, vt.Type.WithScalar(*scalar.Elem), nil
}

func (g *Generator) builtinLoad(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) == 0 {
		return nil, g.errf(diag.TypeMismatch, pos, "load: missing pointer")
	}
	ptr, resType, err := g.pointerBlock(args[0], pos)
	if err != nil {
		return nil, err
	}
	operands := []ir.ValueID{ptr.ID}
	mask := kwargs["mask"]
	if mask == nil && len(args) > 1 {
		mask = args[1]
	}
	other := kwargs["other"]
	if other == nil && len(args) > 2 {
		other = args[2]
	}
	if mask != nil && !mask.IsNone() {
		mt, merr := g.asTensor(mask, pos)
		if merr != nil {
			return nil, merr
		}
		maskType := types.Int1()
		if ptr.Type.IsBlock() {
			maskType = ptr.Type.WithScalar(maskType)
		}
		if mt, merr = g.castTo(mt, maskType, pos); merr != nil {
			return nil, merr
		}
		operands = append(operands, mt.ID)
	} else if other != nil && !other.IsNone() {
		return nil, g.errf(diag.TypeMismatch, pos, "load: `other` requires `mask`")
	}
	if other != nil && !other.IsNone() {
		ot, oerr := g.asTensor(other, pos)
		if oerr != nil {
			return nil, oerr
		}
		if ot, oerr = g.castTo(ot, resType, pos); oerr != nil {
			return nil, oerr
		}
		operands = append(operands, ot.ID)
	}
	id := g.bld.Intrinsic("load", operands, []types.Type{resType})[0]
	return tensorValue(id, resType), nil
}

func (g *Generator) builtinStore(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) < 2 {
		return nil, g.errf(diag.TypeMismatch, pos, "store: needs a pointer and a value")
	}
	ptr, elemType, err := g.pointerBlock(args[0], pos)
	if err != nil {
		return nil, err
	}
	val, verr := g.asTensor(args[1], pos)
	if verr != nil {
		return nil, verr
	}
	if val, verr = g.castTo(val, elemType, pos); verr != nil {
		return nil, verr
	}
	operands := []ir.ValueID{ptr.ID, val.ID}
	mask := kwargs["mask"]
	if mask == nil && len(args) > 2 {
		mask = args[2]
	}
	if mask != nil && !mask.IsNone() {
		mt, merr := g.asTensor(mask, pos)
		if merr != nil {
			return nil, merr
		}
		maskType := types.Int1()
		if ptr.Type.IsBlock() {
			maskType = ptr.Type.WithScalar(maskType)
		}
		if mt, merr = g.castTo(mt, maskType, pos); merr != nil {
			return nil, merr
		}
		operands = append(operands, mt.ID)
	}
	g.bld.Intrinsic("store", operands, nil)
	return constValue(NoneConst()), nil
}

func (g *Generator) builtinDot(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) < 2 {
		return nil, g.errf(diag.TypeMismatch, pos, "dot: needs two operands")
	}
	a, err := g.asTensor(args[0], pos)
	if err != nil {
		return nil, err
	}
	b, err := g.asTensor(args[1], pos)
	if err != nil {
		return nil, err
	}
	at, bt := a.Type, b.Type
	if !at.IsBlock() || !bt.IsBlock() || len(at.Shape) != 2 || len(bt.Shape) != 2 {
		return nil, g.errf(diag.TypeMismatch, pos, "dot operands must be two-dimensional blocks, got %s and %s", at, bt)
	}
	if at.Shape[1] != bt.Shape[0] {
		return nil, g.errf(diag.TypeMismatch, pos,
			"dot inner dimensions disagree: %s x %s", at, bt)
	}
	if !at.Scalar().Equal(bt.Scalar()) {
		return nil, g.errf(diag.TypeMismatch, pos, "dot operands must share an element type, got %s and %s", at, bt)
	}
	acc := types.FP32()
	if at.Scalar().IsInt() {
		acc = types.Int(32)
	}
	rt := types.BlockOf(acc, at.Shape[0], bt.Shape[1])
	id := g.bld.Intrinsic("dot", []ir.ValueID{a.ID, b.ID}, []types.Type{rt})[0]
	return tensorValue(id, rt), nil
}

func (g *Generator) builtinReduce(name string, e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) == 0 {
		return nil, g.errf(diag.TypeMismatch, pos, "%s: missing input", name)
	}
	in, err := g.asTensor(args[0], pos)
	if err != nil {
		return nil, err
	}
	if !in.Type.IsBlock() {
		return nil, g.errf(diag.TypeMismatch, pos, "%s requires a block value, got %s", name, in.Type)
	}
	axisVal := kwargs["axis"]
	if axisVal == nil && len(args) > 1 {
		axisVal = args[1]
	}
	axis := int64(0)
	if axisVal != nil {
		if !axisVal.IsConst() || axisVal.Const.Kind != ConstInt {
			return nil, g.errf(diag.StaticNotDeterminable, pos, "%s: axis must be a compile-time integer", name)
		}
		axis = axisVal.Const.Int
	}
	if axis < 0 || axis >= int64(len(in.Type.Shape)) {
		return nil, g.errf(diag.TypeMismatch, pos, "%s: axis %d out of range for %s", name, axis, in.Type)
	}
	var outShape []int64
	for i, d := range in.Type.Shape {
		if int64(i) != axis {
			outShape = append(outShape, d)
		}
	}
	rt := in.Type.Scalar()
	if len(outShape) > 0 {
		rt = types.BlockOf(rt, outShape...)
	}
	id := g.bld.IntrinsicI("reduce_"+name, []ir.ValueID{in.ID}, []int64{axis}, []types.Type{rt})[0]
	return tensorValue(id, rt), nil
}

func (g *Generator) builtinStaticAssert(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) == 0 {
		return nil, g.errf(diag.TypeMismatch, pos, "static_assert: missing condition")
	}
	cond := args[0]
	if !cond.IsConst() {
		return nil, g.errf(diag.StaticNotDeterminable, pos,
			"static_assert condition depends on a runtime value")
	}
	if cond.Const.Truthy() {
		return constValue(NoneConst()), nil
	}
	msg := ""
	if len(args) > 1 && args[1].IsConst() && args[1].Const.Kind == ConstStr {
		msg = args[1].Const.Str
	}
	if msg != "" {
		return nil, g.errf(diag.StaticAssertFailed, pos, "static assertion failed: %s", msg)
	}
	return nil, g.errf(diag.StaticAssertFailed, pos, "static assertion failed")
}

func (g *Generator) builtinAtomicAdd(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) < 2 {
		return nil, g.errf(diag.TypeMismatch, pos, "atomic_add: needs a pointer and a value")
	}
	ptr, elemType, err := g.pointerBlock(args[0], pos)
	if err != nil {
		return nil, err
	}
	val, verr := g.asTensor(args[1], pos)
	if verr != nil {
		return nil, verr
	}
	if val, verr = g.castTo(val, elemType, pos); verr != nil {
		return nil, verr
	}
	operands := []ir.ValueID{ptr.ID, val.ID}
	if mask := kwargs["mask"]; mask != nil && !mask.IsNone() {
		mt, merr := g.asTensor(mask, pos)
		if merr != nil {
			return nil, merr
		}
		maskType := types.Int1()
		if ptr.Type.IsBlock() {
			maskType = ptr.Type.WithScalar(maskType)
		}
		if mt, merr = g.castTo(mt, maskType, pos); merr != nil {
			return nil, merr
		}
		operands = append(operands, mt.ID)
	}
	id := g.bld.Intrinsic("atomic_add", operands, []types.Type{elemType})[0]
	return tensorValue(id, elemType), nil
}

func (g *Generator) builtinAtomicCas(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) < 3 {
		return nil, g.errf(diag.TypeMismatch, pos, "atomic_cas: needs a pointer, a compare value, and a new value")
	}
	ptr, elemType, err := g.pointerBlock(args[0], pos)
	if err != nil {
		return nil, err
	}
	cmp, cerr := g.asTensor(args[1], pos)
	if cerr != nil {
		return nil, cerr
	}
	if cmp, cerr = g.castTo(cmp, elemType, pos); cerr != nil {
		return nil, cerr
	}
	val, verr := g.asTensor(args[2], pos)
	if verr != nil {
		return nil, verr
	}
	if val, verr = g.castTo(val, elemType, pos); verr != nil {
		return nil, verr
	}
	id := g.bld.Intrinsic("atomic_cas", []ir.ValueID{ptr.ID, cmp.ID, val.ID}, []types.Type{elemType})[0]
	return tensorValue(id, elemType), nil
}

func (g *Generator) builtinExpandDims(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) == 0 {
		return nil, g.errf(diag.TypeMismatch, pos, "expand_dims: missing input")
	}
	in, err := g.asTensor(args[0], pos)
	if err != nil {
		return nil, err
	}
	axisVal := kwargs["axis"]
	if axisVal == nil && len(args) > 1 {
		axisVal = args[1]
	}
	if axisVal == nil || !axisVal.IsConst() || axisVal.Const.Kind != ConstInt {
		return nil, g.errf(diag.StaticNotDeterminable, pos, "expand_dims: axis must be a compile-time integer")
	}
	axis := axisVal.Const.Int
	var shape []int64
	if in.Type.IsBlock() {
		shape = in.Type.Shape
	}
	if axis < 0 {
		axis += int64(len(shape)) + 1
	}
	if axis < 0 || axis > int64(len(shape)) {
		return nil, g.errf(diag.TypeMismatch, pos, "expand_dims: axis %d out of range for %s", axisVal.Const.Int, in.Type)
	}
	newShape := make([]int64, 0, len(shape)+1)
	newShape = append(newShape, shape[:axis]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[axis:]...)
	rt := types.BlockOf(in.Type.Scalar(), newShape...)
	id := g.bld.IntrinsicI("expand_dims", []ir.ValueID{in.ID}, []int64{axis}, []types.Type{rt})[0]
	return tensorValue(id, rt), nil
}

func (g *Generator) builtinBroadcastTo(e *ast.Expr, args []*Value, kwargs map[string]*Value) (*Value, *diag.Error) {
	pos := e.Pos
	if len(args) < 2 {
		return nil, g.errf(diag.TypeMismatch, pos, "broadcast_to: needs an input and a shape")
	}
	in, err := g.asTensor(args[0], pos)
	if err != nil {
		return nil, err
	}
	shape, serr := g.shapeOf(args[1], pos)
	if serr != nil {
		return nil, serr
	}
	rt := types.BlockOf(in.Type.Scalar(), shape...)
	return g.castTo(in, rt, pos)
}
