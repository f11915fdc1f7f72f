// Package codegen lowers parsed kernels into the SSA representation.
// Scalars the translator can evaluate stay compile-time constants until
// an assignment or an operand position forces them into the program;
// control-flow merges are expressed through block arguments and
// structured-op results rather than phi nodes.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/types"
)

// ValueKind tags the evaluation result union.
type ValueKind uint8

const (
	ValInvalid ValueKind = iota
	// ValTensor is a runtime SSA value.
	ValTensor
	// ValConst is a compile-time constant.
	ValConst
	// ValTuple is an ordered aggregate of values.
	ValTuple
	// ValType denotes an element type, as produced by dtype names.
	ValType
	// ValFunc is a helper function defined in the same source module.
	ValFunc
	// ValBuiltin is a builtin function or namespace, possibly bound to a
	// receiver for method calls.
	ValBuiltin
)

// Value is the result of evaluating an expression.
type Value struct {
	Kind ValueKind

	ID   ir.ValueID // ValTensor
	Type types.Type // ValTensor: value type; ValType: the denoted type

	Const Constant // ValConst

	Elems []*Value // ValTuple

	Fn *ast.FuncDef // ValFunc

	Builtin string // ValBuiltin
	Recv    *Value // ValBuiltin: method receiver, nil for free functions
}

func tensorValue(id ir.ValueID, t types.Type) *Value {
	return &Value{Kind: ValTensor, ID: id, Type: t}
}

func constValue(c Constant) *Value {
	return &Value{Kind: ValConst, Const: c}
}

// IsTensor reports whether v is a runtime value.
func (v *Value) IsTensor() bool { return v != nil && v.Kind == ValTensor }

// IsConst reports whether v is a compile-time constant.
func (v *Value) IsConst() bool { return v != nil && v.Kind == ValConst }

// IsNone reports whether v is the None constant.
func (v *Value) IsNone() bool {
	return v.IsConst() && v.Const.Kind == ConstNone
}

func (v *Value) String() string {
	switch v.Kind {
	case ValTensor:
		return fmt.Sprintf("tensor<%s>", v.Type)
	case ValConst:
		return v.Const.Repr()
	case ValTuple:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ValType:
		return v.Type.String()
	case ValFunc:
		return "function " + v.Fn.Name
	case ValBuiltin:
		return "builtin " + v.Builtin
	default:
		return "<invalid>"
	}
}

// ConstKind tags the constant union.
type ConstKind uint8

const (
	ConstInvalid ConstKind = iota
	ConstInt
	ConstFloat
	ConstBool
	ConstStr
	ConstNone
)

// Constant is a compile-time scalar.
type Constant struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

func IntConst(v int64) Constant     { return Constant{Kind: ConstInt, Int: v} }
func FloatConst(v float64) Constant { return Constant{Kind: ConstFloat, Float: v} }
func BoolConst(v bool) Constant     { return Constant{Kind: ConstBool, Bool: v} }
func StrConst(v string) Constant    { return Constant{Kind: ConstStr, Str: v} }
func NoneConst() Constant           { return Constant{Kind: ConstNone} }

// Truthy reports the boolean interpretation of the constant.
func (c Constant) Truthy() bool {
	switch c.Kind {
	case ConstInt:
		return c.Int != 0
	case ConstFloat:
		return c.Float != 0
	case ConstBool:
		return c.Bool
	case ConstStr:
		return c.Str != ""
	default:
		return false
	}
}

// Repr renders the constant for specialized-function name mangling and
// messages. The rendering is stable: equal constants always produce the
// same string.
func (c Constant) Repr() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		if c.Bool {
			return "True"
		}
		return "False"
	case ConstStr:
		return "'" + c.Str + "'"
	case ConstNone:
		return "None"
	default:
		return "<invalid>"
	}
}

// DefaultType returns the type the constant takes when it first enters
// the program: i1 for booleans, i32 (widening to i64 when it does not
// fit) for integers, fp32 for floats.
func (c Constant) DefaultType() (types.Type, error) {
	switch c.Kind {
	case ConstInt:
		if c.Int > 1<<31-1 || c.Int < -(1<<31) {
			return types.Int(64), nil
		}
		return types.Int(32), nil
	case ConstFloat:
		return types.FP32(), nil
	case ConstBool:
		return types.Int1(), nil
	default:
		return types.Type{}, fmt.Errorf("%s cannot become a runtime value", c.Repr())
	}
}
