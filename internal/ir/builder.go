package ir

import (
	"github.com/recht/triton/internal/types"
)

// Builder constructs instructions at an insertion point inside one
// function. New instructions append to the current block.
type Builder struct {
	Module *Module
	Func   *Func
	block  *Block
}

// NewBuilder returns a builder positioned at f's entry block.
func NewBuilder(m *Module, f *Func) *Builder {
	return &Builder{Module: m, Func: f, block: f.Entry()}
}

// SetInsertionPoint moves the builder to the end of b.
func (bld *Builder) SetInsertionPoint(b *Block) {
	bld.block = b
}

// InsertionBlock returns the block the builder appends to.
func (bld *Builder) InsertionBlock() *Block {
	return bld.block
}

// CreateBlock allocates a detached block in the current function.
func (bld *Builder) CreateBlock() *Block {
	return bld.Func.NewBlock()
}

// AppendBlock allocates a block and attaches it to the function body.
func (bld *Builder) AppendBlock() *Block {
	b := bld.Func.NewBlock()
	bld.Func.Body.Blocks = append(bld.Func.Body.Blocks, b)
	return b
}

// MoveToRegion detaches b from the function body, if attached, and
// appends it to r.
func (bld *Builder) MoveToRegion(b *Block, r *Region) {
	bld.detach(b)
	r.Blocks = append(r.Blocks, b)
}

// EraseBlock removes b from the function body. Values defined inside are
// simply left unused.
func (bld *Builder) EraseBlock(b *Block) {
	bld.detach(b)
	if bld.block == b {
		bld.block = nil
	}
}

func (bld *Builder) detach(b *Block) {
	blocks := bld.Func.Body.Blocks
	for i, cand := range blocks {
		if cand == b {
			bld.Func.Body.Blocks = append(blocks[:i:i], blocks[i+1:]...)
			return
		}
	}
}

// AddBlockParam adds a parameter of type t to b and returns its value.
func (bld *Builder) AddBlockParam(b *Block, t types.Type) ValueID {
	v := bld.Func.NewValue(t)
	b.Params = append(b.Params, v)
	return v
}

// TypeOf returns the type of v.
func (bld *Builder) TypeOf(v ValueID) types.Type {
	return bld.Func.TypeOf(v)
}

func (bld *Builder) emit(in *Instr) {
	bld.block.Instrs = append(bld.block.Instrs, in)
}

// ConstInt materializes an integer-family constant of type t.
func (bld *Builder) ConstInt(t types.Type, v int64) ValueID {
	res := bld.Func.NewValue(t)
	bld.emit(&Instr{Op: OpConst, Results: []ValueID{res}, Const: &ConstInstr{Type: t, Int: v}})
	return res
}

// ConstFloat materializes a float constant of type t.
func (bld *Builder) ConstFloat(t types.Type, v float64) ValueID {
	res := bld.Func.NewValue(t)
	bld.emit(&Instr{Op: OpConst, Results: []ValueID{res}, Const: &ConstInstr{Type: t, Float: v}})
	return res
}

// Bin emits a binary op whose result has type t.
func (bld *Builder) Bin(op BinOp, t types.Type, x, y ValueID) ValueID {
	res := bld.Func.NewValue(t)
	bld.emit(&Instr{Op: OpBin, Results: []ValueID{res}, Bin: &BinInstr{BinOp: op, X: x, Y: y}})
	return res
}

// Cmp emits a comparison. The result is i1 shaped like the operands.
func (bld *Builder) Cmp(pred CmpPred, x, y ValueID) ValueID {
	rt := types.Int1()
	if xt := bld.TypeOf(x); xt.Kind == types.KindBlock {
		rt = xt.WithScalar(rt)
	}
	res := bld.Func.NewValue(rt)
	bld.emit(&Instr{Op: OpCmp, Results: []ValueID{res}, Cmp: &CmpInstr{Pred: pred, X: x, Y: y}})
	return res
}

// Cast emits a conversion of x to type to. A cast to the value's own
// type is folded away.
func (bld *Builder) Cast(x ValueID, to types.Type) ValueID {
	if bld.TypeOf(x).Equal(to) {
		return x
	}
	res := bld.Func.NewValue(to)
	bld.emit(&Instr{Op: OpCast, Results: []ValueID{res}, Cast: &CastInstr{X: x, To: to}})
	return res
}

// Undef emits an uninitialized placeholder of type t.
func (bld *Builder) Undef(t types.Type) ValueID {
	res := bld.Func.NewValue(t)
	bld.emit(&Instr{Op: OpUndef, Results: []ValueID{res}, Undef: &UndefInstr{Type: t}})
	return res
}

// Call emits a call to callee, allocating one result per result type of
// its signature.
func (bld *Builder) Call(callee *Func, args []ValueID) []ValueID {
	results := make([]ValueID, len(callee.Results))
	for i, rt := range callee.Results {
		results[i] = bld.Func.NewValue(rt)
	}
	bld.emit(&Instr{Op: OpCall, Results: results, Call: &CallInstr{Callee: callee.Name, Args: args}})
	return results
}

// Intrinsic emits a builtin op with the given result types.
func (bld *Builder) Intrinsic(name string, args []ValueID, resultTypes []types.Type) []ValueID {
	return bld.IntrinsicI(name, args, nil, resultTypes)
}

// IntrinsicS emits a builtin op carrying a string immediate.
func (bld *Builder) IntrinsicS(name string, args []ValueID, sval string, resultTypes []types.Type) []ValueID {
	results := make([]ValueID, len(resultTypes))
	for i, rt := range resultTypes {
		results[i] = bld.Func.NewValue(rt)
	}
	bld.emit(&Instr{Op: OpIntrinsic, Results: results, Intrinsic: &IntrinsicInstr{
		Name:        name,
		Args:        args,
		SVal:        sval,
		ResultTypes: resultTypes,
	}})
	return results
}

// IntrinsicI emits a builtin op carrying integer immediates.
func (bld *Builder) IntrinsicI(name string, args []ValueID, ivals []int64, resultTypes []types.Type) []ValueID {
	results := make([]ValueID, len(resultTypes))
	for i, rt := range resultTypes {
		results[i] = bld.Func.NewValue(rt)
	}
	bld.emit(&Instr{Op: OpIntrinsic, Results: results, Intrinsic: &IntrinsicInstr{
		Name:        name,
		Args:        args,
		IVals:       ivals,
		ResultTypes: resultTypes,
	}})
	return results
}

// If emits a structured conditional and returns its instruction so the
// caller can populate the regions, plus the merged result values.
func (bld *Builder) If(cond ValueID, resultTypes []types.Type) (*IfInstr, []ValueID) {
	op := &IfInstr{Cond: cond, ResultTypes: resultTypes}
	results := make([]ValueID, len(resultTypes))
	for i, rt := range resultTypes {
		results[i] = bld.Func.NewValue(rt)
	}
	bld.emit(&Instr{Op: OpIf, Results: results, If: op})
	return op, results
}

// While emits a structured loop seeded with init and returns the
// instruction plus its result values.
func (bld *Builder) While(init []ValueID, resultTypes []types.Type) (*WhileInstr, []ValueID) {
	op := &WhileInstr{Init: init, ResultTypes: resultTypes}
	results := make([]ValueID, len(resultTypes))
	for i, rt := range resultTypes {
		results[i] = bld.Func.NewValue(rt)
	}
	bld.emit(&Instr{Op: OpWhile, Results: results, While: op})
	return op, results
}

// For emits a counted loop and returns the instruction plus its result
// values.
func (bld *Builder) For(lb, ub, step ValueID, init []ValueID, resultTypes []types.Type) (*ForInstr, []ValueID) {
	op := &ForInstr{Lb: lb, Ub: ub, Step: step, Init: init, ResultTypes: resultTypes}
	results := make([]ValueID, len(resultTypes))
	for i, rt := range resultTypes {
		results[i] = bld.Func.NewValue(rt)
	}
	bld.emit(&Instr{Op: OpFor, Results: results, For: op})
	return op, results
}

// Return terminates the current block with a return.
func (bld *Builder) Return(args []ValueID) {
	bld.block.Term = &Terminator{Kind: TermReturn, Args: args}
}

// Br terminates the current block with an unconditional branch carrying
// args as the destination's block arguments.
func (bld *Builder) Br(dest *Block, args []ValueID) {
	bld.block.Term = &Terminator{Kind: TermBr, Dest: dest.ID, Args: args}
}

// CondBr terminates the current block with a two-way branch.
func (bld *Builder) CondBr(cond ValueID, trueDest *Block, trueArgs []ValueID, falseDest *Block, falseArgs []ValueID) {
	bld.block.Term = &Terminator{
		Kind:      TermCondBr,
		Cond:      cond,
		TrueDest:  trueDest.ID,
		FalseDest: falseDest.ID,
		TrueArgs:  trueArgs,
		FalseArgs: falseArgs,
	}
}

// Yield terminates the current block, carrying args out of the enclosing
// structured region.
func (bld *Builder) Yield(args []ValueID) {
	bld.block.Term = &Terminator{Kind: TermYield, Args: args}
}

// Condition terminates a while-op's before region: when cond holds, args
// flow into the after region; otherwise the loop exits with args as its
// results.
func (bld *Builder) Condition(cond ValueID, args []ValueID) {
	bld.block.Term = &Terminator{Kind: TermCondition, Cond: cond, Args: args}
}
