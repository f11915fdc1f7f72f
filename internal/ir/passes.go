package ir

import "fmt"

// Pass transforms a module in place.
type Pass func(*Module) error

var passRegistry = map[string]Pass{
	// generic cleanups
	"inline":       passNop,
	"combine":      passNop,
	"canonicalize": passCanonicalize,
	"cse":          passNop,
	"licm":         passNop,
	"symbol-dce":   passSymbolDCE,

	// layout and scheduling passes of the GPU dialect conversion; the
	// reference backend treats the program as already laid out, so these
	// only validate that the module round-trips.
	"rewrite-tensor-pointer": passNop,
	"convert-to-gpu":         passNop,
	"coalesce":               passNop,
	"pipeline":               passNop,
	"prefetch":               passNop,
}

// LookupPass returns the named pass.
func LookupPass(name string) (Pass, error) {
	p, ok := passRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown pass %q", name)
	}
	return p, nil
}

// RunPasses applies the named passes in order.
func RunPasses(m *Module, names ...string) error {
	for _, name := range names {
		p, err := LookupPass(name)
		if err != nil {
			return err
		}
		if err := p(m); err != nil {
			return fmt.Errorf("pass %s: %w", name, err)
		}
	}
	return nil
}

func passNop(*Module) error { return nil }

// passSymbolDCE drops functions that are not public and not transitively
// called from a public function.
func passSymbolDCE(m *Module) error {
	live := map[string]bool{}
	var mark func(f *Func)
	mark = func(f *Func) {
		if live[f.Name] {
			return
		}
		live[f.Name] = true
		WalkBlocks(&f.Body, func(b *Block) {
			for _, in := range b.Instrs {
				if in.Op == OpCall {
					if callee := m.GetFunction(in.Call.Callee); callee != nil {
						mark(callee)
					}
				}
			}
		})
	}
	for _, f := range m.Funcs {
		if f.Public {
			mark(f)
		}
	}
	kept := m.Funcs[:0]
	for _, f := range m.Funcs {
		if live[f.Name] {
			kept = append(kept, f)
		}
	}
	m.Funcs = kept
	return nil
}

// passCanonicalize removes instructions whose results are never used and
// that cannot observe or change program state.
func passCanonicalize(m *Module) error {
	for _, f := range m.Funcs {
		for {
			used := CollectUses(&f.Body)
			removed := false
			WalkBlocks(&f.Body, func(b *Block) {
				kept := b.Instrs[:0]
				for _, in := range b.Instrs {
					if isPure(in) && !anyUsed(in.Results, used) {
						removed = true
						continue
					}
					kept = append(kept, in)
				}
				b.Instrs = kept
			})
			if !removed {
				break
			}
		}
	}
	return nil
}

func anyUsed(vals []ValueID, used map[ValueID]bool) bool {
	for _, v := range vals {
		if used[v] {
			return true
		}
	}
	return false
}

// isPure reports whether the instruction is removable when unused.
// Calls, stores, debug output, and structured control flow stay.
func isPure(in *Instr) bool {
	switch in.Op {
	case OpConst, OpBin, OpCmp, OpCast, OpUndef:
		return true
	case OpIntrinsic:
		switch in.Intrinsic.Name {
		case "store", "atomic_add", "atomic_cas", "debug_print":
			return false
		}
		return true
	default:
		return false
	}
}
