package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Dump renders the module as text. The format is stable so later stages
// can be keyed on it, but it is not parsed back.
func Dump(m *Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module @%s", m.Name)
	if len(m.Attrs) > 0 {
		keys := make([]string, 0, len(m.Attrs))
		for k := range m.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s = %d", k, m.Attrs[k])
		}
		fmt.Fprintf(&sb, " attributes {%s}", strings.Join(parts, ", "))
	}
	sb.WriteString(" {\n")
	for _, f := range m.Funcs {
		dumpFunc(&sb, f)
	}
	sb.WriteString("}\n")
	return sb.String()
}

func dumpFunc(sb *strings.Builder, f *Func) {
	vis := ""
	if f.Public {
		vis = "public "
	}
	params := make([]string, len(f.Params))
	for i, pt := range f.Params {
		params[i] = fmt.Sprintf("%%%d: %s", f.Args()[i], pt)
	}
	fmt.Fprintf(sb, "  %sfunc @%s(%s)", vis, f.Name, strings.Join(params, ", "))
	if len(f.Results) > 0 {
		rts := make([]string, len(f.Results))
		for i, rt := range f.Results {
			rts[i] = rt.String()
		}
		fmt.Fprintf(sb, " -> (%s)", strings.Join(rts, ", "))
	}
	sb.WriteString(" {\n")
	p := &printer{f: f, sb: sb}
	p.region(&f.Body, 2, true)
	sb.WriteString("  }\n")
}

type printer struct {
	f  *Func
	sb *strings.Builder
}

func (p *printer) indent(depth int) {
	p.sb.WriteString(strings.Repeat("  ", depth))
}

func (p *printer) region(r *Region, depth int, skipEntryHeader bool) {
	for i, b := range r.Blocks {
		if i > 0 || !skipEntryHeader {
			p.indent(depth)
			fmt.Fprintf(p.sb, "^bb%d(%s):\n", b.ID, p.values(b.Params))
		}
		for _, in := range b.Instrs {
			p.instr(in, depth+1)
		}
		if b.Term != nil {
			p.term(b.Term, depth+1)
		}
	}
}

func (p *printer) values(vals []ValueID) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%%%d: %s", v, p.f.TypeOf(v))
	}
	return strings.Join(parts, ", ")
}

func (p *printer) operands(vals []ValueID) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%%%d", v)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) results(in *Instr) string {
	if len(in.Results) == 0 {
		return ""
	}
	return p.operands(in.Results) + " = "
}

func (p *printer) instr(in *Instr, depth int) {
	p.indent(depth)
	switch in.Op {
	case OpConst:
		c := in.Const
		if c.Type.Scalar().IsFloat() {
			fmt.Fprintf(p.sb, "%sconst %g : %s\n", p.results(in), c.Float, c.Type)
		} else {
			fmt.Fprintf(p.sb, "%sconst %d : %s\n", p.results(in), c.Int, c.Type)
		}
	case OpBin:
		fmt.Fprintf(p.sb, "%s%s %%%d, %%%d : %s\n",
			p.results(in), in.Bin.BinOp, in.Bin.X, in.Bin.Y, p.f.TypeOf(in.Result()))
	case OpCmp:
		fmt.Fprintf(p.sb, "%scmp %s %%%d, %%%d\n",
			p.results(in), in.Cmp.Pred, in.Cmp.X, in.Cmp.Y)
	case OpCast:
		fmt.Fprintf(p.sb, "%scast %%%d : %s to %s\n",
			p.results(in), in.Cast.X, p.f.TypeOf(in.Cast.X), in.Cast.To)
	case OpUndef:
		fmt.Fprintf(p.sb, "%sundef : %s\n", p.results(in), in.Undef.Type)
	case OpCall:
		fmt.Fprintf(p.sb, "%scall @%s(%s)\n",
			p.results(in), in.Call.Callee, p.operands(in.Call.Args))
	case OpIntrinsic:
		it := in.Intrinsic
		fmt.Fprintf(p.sb, "%s%s(%s)", p.results(in), it.Name, p.operands(it.Args))
		if len(it.IVals) > 0 {
			fmt.Fprintf(p.sb, " {%v}", it.IVals)
		}
		if it.SVal != "" {
			fmt.Fprintf(p.sb, " %q", it.SVal)
		}
		if len(in.Results) > 0 {
			fmt.Fprintf(p.sb, " : %s", p.f.TypeOf(in.Results[0]))
		}
		p.sb.WriteByte('\n')
	case OpIf:
		fmt.Fprintf(p.sb, "%sif %%%d {\n", p.results(in), in.If.Cond)
		p.region(&in.If.Then, depth+1, false)
		if !in.If.Else.Empty() {
			p.indent(depth)
			p.sb.WriteString("} else {\n")
			p.region(&in.If.Else, depth+1, false)
		}
		p.indent(depth)
		p.sb.WriteString("}\n")
	case OpWhile:
		fmt.Fprintf(p.sb, "%swhile(%s) {\n", p.results(in), p.operands(in.While.Init))
		p.region(&in.While.Before, depth+1, false)
		p.indent(depth)
		p.sb.WriteString("} do {\n")
		p.region(&in.While.After, depth+1, false)
		p.indent(depth)
		p.sb.WriteString("}\n")
	case OpFor:
		fmt.Fprintf(p.sb, "%sfor %%%d to %%%d step %%%d iter(%s) {\n",
			p.results(in), in.For.Lb, in.For.Ub, in.For.Step, p.operands(in.For.Init))
		p.region(&in.For.Body, depth+1, false)
		p.indent(depth)
		p.sb.WriteString("}\n")
	default:
		fmt.Fprintf(p.sb, "<invalid op %d>\n", in.Op)
	}
}

func (p *printer) term(t *Terminator, depth int) {
	p.indent(depth)
	switch t.Kind {
	case TermReturn:
		if len(t.Args) == 0 {
			p.sb.WriteString("return\n")
		} else {
			fmt.Fprintf(p.sb, "return %s\n", p.operands(t.Args))
		}
	case TermBr:
		fmt.Fprintf(p.sb, "br ^bb%d(%s)\n", t.Dest, p.operands(t.Args))
	case TermCondBr:
		fmt.Fprintf(p.sb, "cond_br %%%d, ^bb%d(%s), ^bb%d(%s)\n",
			t.Cond, t.TrueDest, p.operands(t.TrueArgs), t.FalseDest, p.operands(t.FalseArgs))
	case TermYield:
		fmt.Fprintf(p.sb, "yield %s\n", p.operands(t.Args))
	case TermCondition:
		fmt.Fprintf(p.sb, "condition %%%d forward(%s)\n", t.Cond, p.operands(t.Args))
	default:
		p.sb.WriteString("<no terminator>\n")
	}
}
