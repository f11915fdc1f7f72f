package ast

import "fmt"

// Op enumerates the unary, binary, comparison, and boolean operators of
// the kernel language.
type Op uint8

const (
	OpInvalid Op = iota

	// binary arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpLShift
	OpRShift
	OpBitAnd
	OpBitOr
	OpBitXor

	// comparisons
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIs
	OpIsNot

	// boolean
	OpAnd
	OpOr

	// unary
	OpNeg
	OpPos
	OpNot
	OpInvert
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpFloorDiv:
		return "//"
	case OpMod:
		return "%"
	case OpPow:
		return "**"
	case OpLShift:
		return "<<"
	case OpRShift:
		return ">>"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIs:
		return "is"
	case OpIsNot:
		return "is not"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNeg, OpPos:
		if o == OpNeg {
			return "-"
		}
		return "+"
	case OpNot:
		return "not"
	case OpInvert:
		return "~"
	default:
		return fmt.Sprintf("Op(%d)", o)
	}
}

// IsComparison reports whether o is a comparison operator.
func (o Op) IsComparison() bool {
	return o >= OpEq && o <= OpIsNot
}
