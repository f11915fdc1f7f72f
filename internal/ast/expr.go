package ast

import "github.com/recht/triton/internal/source"

// ExprKind enumerates expression variants.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIntLit
	ExprFloatLit
	ExprStringLit
	ExprBoolLit
	ExprNoneLit
	ExprName
	ExprTuple
	ExprList
	ExprBinary
	ExprCompare
	ExprBool
	ExprUnary
	ExprCond
	ExprCall
	ExprSubscript
	ExprAttribute
	ExprSlice
)

// Kwarg is a keyword argument at a call site.
type Kwarg struct {
	Name  string
	Value *Expr
}

// Expr is a tagged expression node. Only the fields matching Kind are set.
type Expr struct {
	Kind ExprKind
	Pos  source.Pos

	Int   int64   // ExprIntLit
	Float float64 // ExprFloatLit
	Str   string  // ExprStringLit
	Bool  bool    // ExprBoolLit
	Name  string  // ExprName

	Op   Op    // ExprBinary, ExprCompare, ExprBool, ExprUnary
	X, Y *Expr // operands; X only for ExprUnary
	Cond *Expr // ExprCond

	Elems []*Expr // ExprTuple, ExprList

	Func   *Expr   // ExprCall
	Args   []*Expr // ExprCall
	Kwargs []Kwarg // ExprCall

	Value *Expr  // ExprSubscript, ExprAttribute receiver
	Index *Expr  // ExprSubscript
	Attr  string // ExprAttribute

	Lower, Upper, Step *Expr // ExprSlice (any may be nil)
}
