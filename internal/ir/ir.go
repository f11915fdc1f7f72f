// Package ir defines the SSA program representation the translator
// lowers kernels into. Values are function-scoped IDs with types kept in
// a per-function table; control flow nests as regions on structured ops
// (if, while, for) and branches between basic blocks otherwise. Blocks
// carry parameters instead of phi nodes: a predecessor passes merged
// values as branch arguments.
package ir

import (
	"fmt"

	"github.com/recht/triton/internal/types"
)

// ValueID names an SSA value inside one function. Zero is never a valid
// value.
type ValueID uint32

// Module is one lowered compilation unit.
type Module struct {
	Name  string
	Funcs []*Func
	// Attrs carries module-level compilation attributes such as
	// "num_warps" and "num_stages".
	Attrs map[string]int64
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, Attrs: map[string]int64{}}
}

// GetFunction returns the function named name, or nil.
func (m *Module) GetFunction(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasFunction reports whether name is defined in the module.
func (m *Module) HasFunction(name string) bool {
	return m.GetFunction(name) != nil
}

// GetOrInsertFunction returns the function named name, creating an empty
// one with the given signature if it does not exist yet.
func (m *Module) GetOrInsertFunction(name string, params, results []types.Type) *Func {
	if f := m.GetFunction(name); f != nil {
		return f
	}
	f := NewFunc(name, params, results)
	m.Funcs = append(m.Funcs, f)
	return f
}

// Func is one function: a signature plus a body region whose first block
// is the entry. Types holds the type of every value; index i is the type
// of ValueID(i), and index 0 is a reserved invalid slot.
type Func struct {
	Name    string
	Params  []types.Type
	Results []types.Type
	// Public functions survive dead-symbol elimination even when nothing
	// in the module calls them.
	Public bool
	Body   Region
	Types  []types.Type

	// ArgAttrs maps parameter index to attribute name to value, for
	// specialization hints such as "tt.divisibility".
	ArgAttrs map[int]map[string]int64

	NextBlockID int
}

// NewFunc returns a function with an empty body and an entry block whose
// parameters mirror the signature.
func NewFunc(name string, params, results []types.Type) *Func {
	f := &Func{
		Name:     name,
		Params:   params,
		Results:  results,
		Types:    make([]types.Type, 1), // slot 0 is invalid
		ArgAttrs: map[int]map[string]int64{},
	}
	entry := f.NewBlock()
	for _, pt := range params {
		entry.Params = append(entry.Params, f.NewValue(pt))
	}
	f.Body.Blocks = append(f.Body.Blocks, entry)
	return f
}

// NewValue allocates a fresh value of type t.
func (f *Func) NewValue(t types.Type) ValueID {
	f.Types = append(f.Types, t)
	return ValueID(len(f.Types) - 1)
}

// TypeOf returns the type of v.
func (f *Func) TypeOf(v ValueID) types.Type {
	if int(v) >= len(f.Types) {
		return types.Type{}
	}
	return f.Types[v]
}

// NewBlock allocates a detached block. It belongs to no region until the
// caller attaches it.
func (f *Func) NewBlock() *Block {
	b := &Block{ID: f.NextBlockID}
	f.NextBlockID++
	return b
}

// Entry returns the function's entry block.
func (f *Func) Entry() *Block {
	return f.Body.Blocks[0]
}

// Args returns the entry block parameters, which carry the function
// arguments.
func (f *Func) Args() []ValueID {
	return f.Entry().Params
}

// SetArgAttr records an attribute on parameter idx.
func (f *Func) SetArgAttr(idx int, name string, val int64) {
	attrs := f.ArgAttrs[idx]
	if attrs == nil {
		attrs = map[string]int64{}
		f.ArgAttrs[idx] = attrs
	}
	attrs[name] = val
}

// Region is an ordered list of blocks. The first block is the region
// entry.
type Region struct {
	Blocks []*Block
}

// Empty reports whether the region has no blocks.
func (r *Region) Empty() bool { return len(r.Blocks) == 0 }

// Block is a basic block: parameters, a straight-line instruction list,
// and one terminator.
type Block struct {
	ID     int
	Params []ValueID
	Instrs []*Instr
	Term   *Terminator
}

// Terminated reports whether the block already has a terminator.
func (b *Block) Terminated() bool { return b.Term != nil }

// OpKind tags the instruction union.
type OpKind uint8

const (
	OpInvalid OpKind = iota
	OpConst
	OpBin
	OpCmp
	OpCast
	OpUndef
	OpCall
	OpIntrinsic
	OpIf
	OpWhile
	OpFor
)

// Instr is one instruction. Exactly one of the payload pointers matching
// Op is non-nil. Results holds the values the instruction defines, in
// order.
type Instr struct {
	Op      OpKind
	Results []ValueID

	Const     *ConstInstr
	Bin       *BinInstr
	Cmp       *CmpInstr
	Cast      *CastInstr
	Undef     *UndefInstr
	Call      *CallInstr
	Intrinsic *IntrinsicInstr
	If        *IfInstr
	While     *WhileInstr
	For       *ForInstr
}

// Result returns the single result of the instruction. It panics when
// the instruction defines none.
func (in *Instr) Result() ValueID {
	return in.Results[0]
}

// ConstInstr materializes a typed constant. Float carries the value for
// floating types, Int for everything else (booleans as 0/1).
type ConstInstr struct {
	Type  types.Type
	Int   int64
	Float float64
}

// BinOp enumerates two-operand arithmetic. Signedness and float variants
// are distinct ops so later stages never re-derive them from types.
type BinOp uint8

const (
	BinInvalid BinOp = iota
	BinAdd
	BinSub
	BinMul
	BinSDiv
	BinUDiv
	BinFDiv
	BinSRem
	BinURem
	BinFRem
	BinFloorDiv
	BinAnd
	BinOr
	BinXor
	BinShl
	BinLShr
	BinAShr
	BinPow
	BinMin
	BinMax
)

var binOpNames = [...]string{
	BinInvalid: "invalid", BinAdd: "add", BinSub: "sub", BinMul: "mul",
	BinSDiv: "sdiv", BinUDiv: "udiv", BinFDiv: "fdiv",
	BinSRem: "srem", BinURem: "urem", BinFRem: "frem",
	BinFloorDiv: "floordiv",
	BinAnd:      "and", BinOr: "or", BinXor: "xor",
	BinShl: "shl", BinLShr: "lshr", BinAShr: "ashr",
	BinPow: "pow", BinMin: "min", BinMax: "max",
}

func (o BinOp) String() string {
	if int(o) < len(binOpNames) {
		return binOpNames[o]
	}
	return fmt.Sprintf("BinOp(%d)", o)
}

// BinInstr applies Op to X and Y, which share a type.
type BinInstr struct {
	BinOp BinOp
	X, Y  ValueID
}

// CmpPred enumerates comparison predicates.
type CmpPred uint8

const (
	CmpInvalid CmpPred = iota
	CmpEq
	CmpNe
	CmpSlt
	CmpSle
	CmpSgt
	CmpSge
	CmpUlt
	CmpUle
	CmpUgt
	CmpUge
	CmpOlt
	CmpOle
	CmpOgt
	CmpOge
	CmpOeq
	CmpOne
)

var cmpPredNames = [...]string{
	CmpInvalid: "invalid",
	CmpEq:      "eq", CmpNe: "ne",
	CmpSlt: "slt", CmpSle: "sle", CmpSgt: "sgt", CmpSge: "sge",
	CmpUlt: "ult", CmpUle: "ule", CmpUgt: "ugt", CmpUge: "uge",
	CmpOlt: "olt", CmpOle: "ole", CmpOgt: "ogt", CmpOge: "oge",
	CmpOeq: "oeq", CmpOne: "one",
}

func (p CmpPred) String() string {
	if int(p) < len(cmpPredNames) {
		return cmpPredNames[p]
	}
	return fmt.Sprintf("CmpPred(%d)", p)
}

// CmpInstr compares X and Y, producing an i1 with the operands' shape.
type CmpInstr struct {
	Pred CmpPred
	X, Y ValueID
}

// CastInstr converts X to type To. The concrete conversion (extend,
// truncate, int/float, pointer) follows from the source and target
// types.
type CastInstr struct {
	X  ValueID
	To types.Type
}

// UndefInstr produces an uninitialized placeholder of the given type.
// Loop construction uses it for induction variables that are rewritten
// once the loop body exists.
type UndefInstr struct {
	Type types.Type
}

// CallInstr calls a function in the same module.
type CallInstr struct {
	Callee string
	Args   []ValueID
}

// IntrinsicInstr is a builtin operation identified by name: program_id,
// make_range, splat, broadcast, expand_dims, trans, load, store, dot,
// select, reduce, exp, sqrt, and friends. IVals carries integer
// immediates such as axis indices; SVal carries a string immediate.
type IntrinsicInstr struct {
	Name        string
	Args        []ValueID
	IVals       []int64
	SVal        string
	ResultTypes []types.Type
}

// IfInstr is a structured conditional. Each region's blocks end in a
// yield carrying the merged values; Else may be empty when the op yields
// nothing.
type IfInstr struct {
	Cond        ValueID
	Then        Region
	Else        Region
	ResultTypes []types.Type
}

// WhileInstr is a structured loop. Init seeds the Before region's entry
// parameters; Before ends in a condition terminator that forwards the
// loop-carried values to After, and After yields the next iteration's
// values back to Before.
type WhileInstr struct {
	Init        []ValueID
	Before      Region
	After       Region
	ResultTypes []types.Type
}

// ForInstr is a counted loop from Lb to Ub (exclusive) by Step. The body
// region's entry takes the induction variable followed by the carried
// values, and yields the next carried values.
type ForInstr struct {
	Lb, Ub, Step ValueID
	Init         []ValueID
	Body         Region
	ResultTypes  []types.Type
}

// TermKind tags the terminator union.
type TermKind uint8

const (
	TermInvalid TermKind = iota
	TermReturn
	TermBr
	TermCondBr
	TermYield
	TermCondition
)

// Terminator ends a block. Dest fields name block IDs within the same
// function.
type Terminator struct {
	Kind TermKind

	// TermReturn, TermYield: values carried out.
	// TermCondition: values forwarded to the after-region.
	Args []ValueID

	// TermCondBr, TermCondition.
	Cond ValueID

	// TermBr.
	Dest int

	// TermCondBr.
	TrueDest  int
	FalseDest int
	TrueArgs  []ValueID
	FalseArgs []ValueID
}
