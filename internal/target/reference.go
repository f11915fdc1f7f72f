package target

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/recht/triton/internal/ir"
)

// NewReferenceDevice returns a fixed-capability software device. The
// limits mirror a common discrete accelerator so resource checks stay
// meaningful.
func NewReferenceDevice() Device {
	return refDevice{}
}

type refDevice struct{}

func (refDevice) Capability() int { return 80 }
func (refDevice) Limits() Limits {
	return Limits{SharedMemory: 96 * 1024, MaxNumWarps: 32}
}

// NewReferenceBackend returns a deterministic software backend: the
// lowered forms are stable text renderings and the final artifact is a
// checksummed container, so cached stages and round-trips can be tested
// byte for byte.
func NewReferenceBackend() Backend {
	return refBackend{}
}

type refBackend struct{}

func (refBackend) Name() string { return "reference" }

func (refBackend) LowerToLLIR(mod *ir.Module, numWarps, numStages int) (string, int64, error) {
	if len(mod.Funcs) == 0 {
		return "", 0, fmt.Errorf("reference backend: empty module")
	}
	shared := sharedEstimate(mod, numStages)
	var sb strings.Builder
	fmt.Fprintf(&sb, "; ModuleID = '%s'\n", mod.Name)
	fmt.Fprintf(&sb, "; num_warps = %d, num_stages = %d, shared = %d\n", numWarps, numStages, shared)
	for _, f := range mod.Funcs {
		if !f.Public {
			continue
		}
		params := make([]string, len(f.Params))
		for i, pt := range f.Params {
			params[i] = pt.String()
		}
		fmt.Fprintf(&sb, "define void @%s(%s) {\n", f.Name, strings.Join(params, ", "))
		n := 0
		ir.WalkBlocks(&f.Body, func(b *ir.Block) { n += len(b.Instrs) })
		fmt.Fprintf(&sb, "  ; %d ops\n}\n", n)
	}
	return sb.String(), shared, nil
}

// sharedEstimate sizes the shared working memory deterministically from
// the operations that stage tiles there: matrix products keep both
// input tiles resident per pipeline stage, reductions keep one.
func sharedEstimate(mod *ir.Module, numStages int) int64 {
	if numStages < 1 {
		numStages = 1
	}
	var total int64
	for _, f := range mod.Funcs {
		ir.WalkBlocks(&f.Body, func(b *ir.Block) {
			for _, in := range b.Instrs {
				if in.Op != ir.OpIntrinsic {
					continue
				}
				name := in.Intrinsic.Name
				switch {
				case name == "dot":
					for _, arg := range in.Intrinsic.Args {
						t := f.TypeOf(arg)
						total += t.NumElements() * int64(t.Scalar().BitWidth()) / 8 * int64(numStages)
					}
				case strings.HasPrefix(name, "reduce_"):
					t := f.TypeOf(in.Intrinsic.Args[0])
					total += t.NumElements() * int64(t.Scalar().BitWidth()) / 8
				}
			}
		})
	}
	return total
}

func (refBackend) EmitASM(llir string, capability int) (string, error) {
	name := ""
	for _, line := range strings.Split(llir, "\n") {
		if rest, ok := strings.CutPrefix(line, "define void @"); ok {
			name = rest[:strings.IndexByte(rest, '(')]
			break
		}
	}
	if name == "" {
		return "", fmt.Errorf("reference backend: no kernel definition in backend IR")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "// reference assembly, capability %d\n", capability)
	fmt.Fprintf(&sb, ".target sm_%d\n", capability)
	fmt.Fprintf(&sb, ".globl %s\n", name)
	fmt.Fprintf(&sb, "%s:\n", name)
	for _, line := range strings.Split(strings.TrimRight(llir, "\n"), "\n") {
		fmt.Fprintf(&sb, "\t// %s\n", line)
	}
	sb.WriteString("\tret\n")
	return sb.String(), nil
}

// binMagic marks the container produced by Assemble.
const binMagic = "TRTBIN\x00\x01"

func (refBackend) Assemble(asm string) ([]byte, error) {
	payload := []byte(asm)
	out := make([]byte, 0, len(binMagic)+16+len(payload))
	out = append(out, binMagic...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = binary.LittleEndian.AppendUint64(out, xxhash.Sum64(payload))
	return append(out, payload...), nil
}

// UnwrapBin validates a container produced by Assemble and returns its
// payload.
func UnwrapBin(data []byte) ([]byte, error) {
	head := len(binMagic) + 16
	if len(data) < head || string(data[:len(binMagic)]) != binMagic {
		return nil, fmt.Errorf("not a reference binary container")
	}
	size := binary.LittleEndian.Uint64(data[len(binMagic):])
	sum := binary.LittleEndian.Uint64(data[len(binMagic)+8:])
	payload := data[head:]
	if uint64(len(payload)) != size {
		return nil, fmt.Errorf("truncated binary container: %d of %d bytes", len(payload), size)
	}
	if xxhash.Sum64(payload) != sum {
		return nil, fmt.Errorf("binary container checksum mismatch")
	}
	return payload, nil
}

// SymbolFromASM extracts the kernel symbol declared by .globl, or ""
// when none is present.
func SymbolFromASM(asm string) string {
	for _, line := range strings.Split(asm, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), ".globl "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
