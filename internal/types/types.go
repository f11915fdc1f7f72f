package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates all supported kinds of kernel types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindInt
	KindUint
	KindFP8E4
	KindFP8E5
	KindFP16
	KindBF16
	KindFP32
	KindFP64
	KindPointer
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFP8E4:
		return "fp8e4"
	case KindFP8E5:
		return "fp8e5"
	case KindFP16:
		return "fp16"
	case KindBF16:
		return "bf16"
	case KindFP32:
		return "fp32"
	case KindFP64:
		return "fp64"
	case KindPointer:
		return "pointer"
	case KindBlock:
		return "block"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any kernel type. Int1 doubles as bool.
// Blocks decorate a scalar element type with a shape.
type Type struct {
	Kind  Kind
	Width uint8   // bit width for KindInt/KindUint (1 means bool)
	Elem  *Type   // pointee for KindPointer, scalar for KindBlock
	Shape []int64 // for KindBlock
}

// Constructors -----------------------------------------------------------

func Void() Type            { return Type{Kind: KindVoid} }
func Int1() Type            { return Type{Kind: KindInt, Width: 1} }
func Int(width uint8) Type  { return Type{Kind: KindInt, Width: width} }
func Uint(width uint8) Type { return Type{Kind: KindUint, Width: width} }
func FP8E4() Type           { return Type{Kind: KindFP8E4} }
func FP8E5() Type           { return Type{Kind: KindFP8E5} }
func FP16() Type            { return Type{Kind: KindFP16} }
func BF16() Type            { return Type{Kind: KindBF16} }
func FP32() Type            { return Type{Kind: KindFP32} }
func FP64() Type            { return Type{Kind: KindFP64} }

func PointerTo(elem Type) Type {
	e := elem
	return Type{Kind: KindPointer, Elem: &e}
}

func BlockOf(scalar Type, shape ...int64) Type {
	s := scalar
	return Type{Kind: KindBlock, Elem: &s, Shape: append([]int64(nil), shape...)}
}

// Predicates -------------------------------------------------------------

func (t Type) IsVoid() bool    { return t.Kind == KindVoid }
func (t Type) IsInt() bool     { return t.Kind == KindInt || t.Kind == KindUint }
func (t Type) IsSigned() bool  { return t.Kind == KindInt }
func (t Type) IsBool() bool    { return t.Kind == KindInt && t.Width == 1 }
func (t Type) IsPointer() bool { return t.Kind == KindPointer }
func (t Type) IsBlock() bool   { return t.Kind == KindBlock }

func (t Type) IsFloat() bool {
	switch t.Kind {
	case KindFP8E4, KindFP8E5, KindFP16, KindBF16, KindFP32, KindFP64:
		return true
	default:
		return false
	}
}

// Scalar returns the block element type, or t itself for scalars.
func (t Type) Scalar() Type {
	if t.Kind == KindBlock {
		return *t.Elem
	}
	return t
}

// WithScalar rebuilds t with a new scalar element, preserving the shape.
func (t Type) WithScalar(scalar Type) Type {
	if t.Kind == KindBlock {
		return BlockOf(scalar, t.Shape...)
	}
	return scalar
}

// BitWidth reports a scalar's width in bits.
func (t Type) BitWidth() int {
	switch t.Kind {
	case KindInt, KindUint:
		return int(t.Width)
	case KindFP8E4, KindFP8E5:
		return 8
	case KindFP16, KindBF16:
		return 16
	case KindFP32:
		return 32
	case KindPointer, KindFP64:
		return 64
	default:
		return 0
	}
}

// NumElements reports the element count of a block, or 1 for scalars.
func (t Type) NumElements() int64 {
	if t.Kind != KindBlock {
		return 1
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Equal reports structural type equality. Two tensors are compatible across
// a control-flow merge only if their types are Equal; there is no implicit
// widening.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind || t.Width != other.Width {
		return false
	}
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	if (t.Elem == nil) != (other.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(*other.Elem)
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindInt:
		if t.Width == 1 {
			return "i1"
		}
		return "i" + strconv.Itoa(int(t.Width))
	case KindUint:
		return "u" + strconv.Itoa(int(t.Width))
	case KindFP8E4, KindFP8E5, KindFP16, KindBF16, KindFP32, KindFP64:
		return t.Kind.String()
	case KindPointer:
		return "*" + t.Elem.String()
	case KindBlock:
		dims := make([]string, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = strconv.FormatInt(d, 10)
		}
		return "<" + strings.Join(dims, "x") + ">" + t.Elem.String()
	default:
		return "invalid"
	}
}
