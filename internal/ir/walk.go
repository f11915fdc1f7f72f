package ir

// WalkBlocks visits every block of the region, descending into the
// regions of structured ops.
func WalkBlocks(r *Region, visit func(*Block)) {
	for _, b := range r.Blocks {
		visit(b)
		for _, in := range b.Instrs {
			switch in.Op {
			case OpIf:
				WalkBlocks(&in.If.Then, visit)
				WalkBlocks(&in.If.Else, visit)
			case OpWhile:
				WalkBlocks(&in.While.Before, visit)
				WalkBlocks(&in.While.After, visit)
			case OpFor:
				WalkBlocks(&in.For.Body, visit)
			}
		}
	}
}

// ReplaceUsesIn rewrites every use of old to new within r, including
// nested regions and terminators. Definitions are left alone.
func ReplaceUsesIn(r *Region, old, new ValueID) {
	WalkBlocks(r, func(b *Block) {
		for _, in := range b.Instrs {
			replaceInstrUses(in, old, new)
		}
		if b.Term != nil {
			replaceList(b.Term.Args, old, new)
			replaceList(b.Term.TrueArgs, old, new)
			replaceList(b.Term.FalseArgs, old, new)
			if b.Term.Cond == old {
				b.Term.Cond = new
			}
		}
	})
}

// ReplaceUses rewrites every use of old to new across the whole
// function.
func ReplaceUses(f *Func, old, new ValueID) {
	ReplaceUsesIn(&f.Body, old, new)
}

func replaceInstrUses(in *Instr, old, new ValueID) {
	switch in.Op {
	case OpBin:
		if in.Bin.X == old {
			in.Bin.X = new
		}
		if in.Bin.Y == old {
			in.Bin.Y = new
		}
	case OpCmp:
		if in.Cmp.X == old {
			in.Cmp.X = new
		}
		if in.Cmp.Y == old {
			in.Cmp.Y = new
		}
	case OpCast:
		if in.Cast.X == old {
			in.Cast.X = new
		}
	case OpCall:
		replaceList(in.Call.Args, old, new)
	case OpIntrinsic:
		replaceList(in.Intrinsic.Args, old, new)
	case OpIf:
		if in.If.Cond == old {
			in.If.Cond = new
		}
	case OpWhile:
		replaceList(in.While.Init, old, new)
	case OpFor:
		if in.For.Lb == old {
			in.For.Lb = new
		}
		if in.For.Ub == old {
			in.For.Ub = new
		}
		if in.For.Step == old {
			in.For.Step = new
		}
		replaceList(in.For.Init, old, new)
	}
}

func replaceList(vals []ValueID, old, new ValueID) {
	for i, v := range vals {
		if v == old {
			vals[i] = new
		}
	}
}

// CollectUses returns the set of values used anywhere in the region,
// including nested regions and terminators.
func CollectUses(r *Region) map[ValueID]bool {
	used := map[ValueID]bool{}
	add := func(vals ...ValueID) {
		for _, v := range vals {
			if v != 0 {
				used[v] = true
			}
		}
	}
	WalkBlocks(r, func(b *Block) {
		for _, in := range b.Instrs {
			switch in.Op {
			case OpBin:
				add(in.Bin.X, in.Bin.Y)
			case OpCmp:
				add(in.Cmp.X, in.Cmp.Y)
			case OpCast:
				add(in.Cast.X)
			case OpCall:
				add(in.Call.Args...)
			case OpIntrinsic:
				add(in.Intrinsic.Args...)
			case OpIf:
				add(in.If.Cond)
			case OpWhile:
				add(in.While.Init...)
			case OpFor:
				add(in.For.Lb, in.For.Ub, in.For.Step)
				add(in.For.Init...)
			}
		}
		if b.Term != nil {
			add(b.Term.Args...)
			add(b.Term.TrueArgs...)
			add(b.Term.FalseArgs...)
			add(b.Term.Cond)
		}
	})
	return used
}
