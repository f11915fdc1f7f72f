package ast

import "github.com/recht/triton/internal/source"

// StmtKind enumerates statement variants.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtExpr
	StmtAssign
	StmtAugAssign
	StmtAnnAssign
	StmtIf
	StmtWhile
	StmtFor
	StmtReturn
	StmtPass
	StmtAssert
	StmtBreak
	StmtContinue
)

// Stmt is a tagged statement node. Only the fields matching Kind are set.
type Stmt struct {
	Kind StmtKind
	Pos  source.Pos

	Targets    []*Expr // StmtAssign (one per '=' in a chain)
	Target     *Expr   // StmtAugAssign, StmtAnnAssign, StmtFor
	Annotation string  // StmtAnnAssign
	Op         Op      // StmtAugAssign
	Value      *Expr   // assignments, StmtExpr, StmtReturn (may be nil)

	Cond *Expr // StmtIf, StmtWhile, StmtAssert
	Msg  *Expr // StmtAssert (may be nil)
	Iter *Expr // StmtFor

	Body   []*Stmt // StmtIf, StmtWhile, StmtFor
	Orelse []*Stmt // else/elif arm (elif nests as a single StmtIf)
}
