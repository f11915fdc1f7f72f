package types

import "fmt"

// PromoteInteger implements the usual arithmetic conversions over the
// integer sublattice: same signedness picks the wider type; mixed
// signedness picks the unsigned type unless the signed one is strictly
// wider. Equal-width mixed signedness must be rejected by the caller,
// see PromoteArithmetic.
func PromoteInteger(a, b Type) Type {
	if a.IsSigned() == b.IsSigned() {
		if a.Width >= b.Width {
			return a
		}
		return b
	}
	unsigned, signed := a, b
	if a.IsSigned() {
		unsigned, signed = b, a
	}
	if signed.Width > unsigned.Width {
		return signed
	}
	return unsigned
}

// floatRank orders float kinds from narrowest to widest.
func floatRank(k Kind) int {
	switch k {
	case KindFP8E4, KindFP8E5:
		return 1
	case KindFP16, KindBF16:
		return 2
	case KindFP32:
		return 3
	case KindFP64:
		return 4
	default:
		return 0
	}
}

// PromoteArithmetic computes the common scalar type of a binary arithmetic
// operation. Pointer arithmetic keeps the pointer type; float beats int;
// wider float beats narrower float. fp16 and bf16 have no common sub-32-bit
// type and meet at fp32.
func PromoteArithmetic(a, b Type) (Type, error) {
	sa, sb := a.Scalar(), b.Scalar()
	switch {
	case sa.IsPointer() && sb.IsInt():
		return sa, nil
	case sb.IsPointer() && sa.IsInt():
		return sb, nil
	case sa.IsPointer() || sb.IsPointer():
		return Type{}, fmt.Errorf("invalid pointer arithmetic between %s and %s", sa, sb)
	case sa.IsFloat() && sb.IsFloat():
		ra, rb := floatRank(sa.Kind), floatRank(sb.Kind)
		if ra == rb && sa.Kind != sb.Kind {
			return FP32(), nil
		}
		if ra >= rb {
			return sa, nil
		}
		return sb, nil
	case sa.IsFloat():
		return sa, nil
	case sb.IsFloat():
		return sb, nil
	case sa.IsInt() && sb.IsInt():
		if sa.IsSigned() != sb.IsSigned() && sa.Width == sb.Width {
			return Type{}, fmt.Errorf("ambiguous signedness between %s and %s; insert an explicit cast", sa, sb)
		}
		return PromoteInteger(sa, sb), nil
	default:
		return Type{}, fmt.Errorf("no common type for %s and %s", sa, sb)
	}
}

// CommonShape merges block shapes of two operands: equal shapes merge,
// size-1 dimensions stretch to the other operand's extent, scalars
// broadcast into blocks, and disagreeing shapes are an error.
func CommonShape(a, b Type) ([]int64, error) {
	switch {
	case a.IsBlock() && b.IsBlock():
		if len(a.Shape) != len(b.Shape) {
			return nil, fmt.Errorf("rank mismatch between %s and %s", a, b)
		}
		shape := make([]int64, len(a.Shape))
		for i := range a.Shape {
			da, db := a.Shape[i], b.Shape[i]
			switch {
			case da == db:
				shape[i] = da
			case da == 1:
				shape[i] = db
			case db == 1:
				shape[i] = da
			default:
				return nil, fmt.Errorf("shape mismatch between %s and %s", a, b)
			}
		}
		return shape, nil
	case a.IsBlock():
		return a.Shape, nil
	case b.IsBlock():
		return b.Shape, nil
	default:
		return nil, nil
	}
}

// BinaryType computes the result type of an arithmetic binary op, including
// block broadcasting.
func BinaryType(a, b Type) (Type, error) {
	scalar, err := PromoteArithmetic(a, b)
	if err != nil {
		return Type{}, err
	}
	shape, err := CommonShape(a, b)
	if err != nil {
		return Type{}, err
	}
	if shape != nil {
		return BlockOf(scalar, shape...), nil
	}
	return scalar, nil
}

// CompareType computes the result type of a comparison: i1, blocked if
// either operand is a block.
func CompareType(a, b Type) (Type, error) {
	if _, err := PromoteArithmetic(a, b); err != nil {
		return Type{}, err
	}
	shape, err := CommonShape(a, b)
	if err != nil {
		return Type{}, err
	}
	if shape != nil {
		return BlockOf(Int1(), shape...), nil
	}
	return Int1(), nil
}
