package target

import (
	"strings"
	"testing"

	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/types"
)

func dotModule(t *testing.T) *ir.Module {
	t.Helper()
	mod := ir.NewModule("mm")
	tile := types.BlockOf(types.FP16(), 16, 16)
	f := mod.GetOrInsertFunction("mm", []types.Type{types.PointerTo(types.FP16())}, nil)
	f.Public = true
	bld := ir.NewBuilder(mod, f)
	a := bld.Undef(tile)
	b := bld.Undef(tile)
	bld.Intrinsic("dot", []ir.ValueID{a, b}, []types.Type{types.BlockOf(types.FP32(), 16, 16)})
	bld.Return(nil)
	return mod
}

func TestLowerToLLIRDeterministicShared(t *testing.T) {
	be := NewReferenceBackend()
	mod := dotModule(t)
	llir1, shared1, err := be.LowerToLLIR(mod, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	llir2, shared2, err := be.LowerToLLIR(mod, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if llir1 != llir2 || shared1 != shared2 {
		t.Fatal("backend lowering must be deterministic")
	}
	// two fp16 16x16 tiles resident per pipeline stage
	if want := int64(2*16*16*2) * 3; shared1 != want {
		t.Errorf("shared = %d, want %d", shared1, want)
	}
	_, sharedDeeper, err := be.LowerToLLIR(mod, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	if sharedDeeper <= shared1 {
		t.Error("deeper pipelining must stage more shared memory")
	}
}

func TestEmitASMDeclaresSymbol(t *testing.T) {
	be := NewReferenceBackend()
	llir, _, err := be.LowerToLLIR(dotModule(t), 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	asm, err := be.EmitASM(llir, 80)
	if err != nil {
		t.Fatal(err)
	}
	if got := SymbolFromASM(asm); got != "mm" {
		t.Errorf("SymbolFromASM = %q, want mm", got)
	}
	if !strings.Contains(asm, ".target sm_80") {
		t.Errorf("capability not encoded:\n%s", asm)
	}
}

func TestEmitASMRejectsHeaderlessInput(t *testing.T) {
	be := NewReferenceBackend()
	if _, err := be.EmitASM("garbage\n", 80); err == nil {
		t.Fatal("expected an error for input with no kernel definition")
	}
}

func TestAssembleRoundTrip(t *testing.T) {
	be := NewReferenceBackend()
	bin, err := be.Assemble(".globl k\nk:\n\tret\n")
	if err != nil {
		t.Fatal(err)
	}
	payload, err := UnwrapBin(bin)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != ".globl k\nk:\n\tret\n" {
		t.Errorf("payload = %q", payload)
	}

	bin[len(bin)-1] ^= 0xFF
	if _, err := UnwrapBin(bin); err == nil {
		t.Error("corrupted payload must fail the checksum")
	}
	if _, err := UnwrapBin([]byte("short")); err == nil {
		t.Error("truncated container must be rejected")
	}
}

func TestDefaultSingletons(t *testing.T) {
	if DefaultDevice() != DefaultDevice() {
		t.Error("device must initialize once")
	}
	if DefaultBackend() != DefaultBackend() {
		t.Error("backend must initialize once")
	}
	lim := DefaultDevice().Limits()
	if lim.SharedMemory <= 0 || lim.MaxNumWarps <= 0 {
		t.Errorf("limits must be positive: %+v", lim)
	}
}

func TestGlueSource(t *testing.T) {
	src := GlueSource("add_kernel", []types.Type{
		types.PointerTo(types.FP32()), types.Int(32), types.Uint(64), types.Int1(),
	})
	for _, want := range []string{"void* arg0;", "int32_t arg1;", "uint64_t arg2;", "uint8_t arg3;", "launch_add_kernel"} {
		if !strings.Contains(src, want) {
			t.Errorf("glue source missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(src, "int1_t") {
		t.Errorf("width-1 parameter rendered a type C does not have:\n%s", src)
	}
	if src != GlueSource("add_kernel", []types.Type{
		types.PointerTo(types.FP32()), types.Int(32), types.Uint(64), types.Int1(),
	}) {
		t.Error("glue source must be deterministic")
	}
}

func TestOutOfResourcesMessage(t *testing.T) {
	err := &OutOfResources{Resource: "shared memory", Required: 200000, Limit: 98304}
	msg := err.Error()
	for _, want := range []string{"shared memory", "200000", "98304", "reduce"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %s", want, msg)
		}
	}
}
