package types_test

import (
	"testing"

	"github.com/recht/triton/internal/types"
)

func TestMangle(t *testing.T) {
	cases := []struct {
		ty   types.Type
		want string
	}{
		{types.Int(32), "i32"},
		{types.Uint(64), "u64"},
		{types.Int1(), "i1"},
		{types.FP32(), "fp32"},
		{types.BF16(), "bf16"},
		{types.FP8E4(), "fp8"},
		{types.FP8E5(), "fp8"},
		{types.PointerTo(types.FP16()), "Pfp16"},
		{types.BlockOf(types.FP32(), 128, 64), "fp32S128_64S"},
		{types.PointerTo(types.PointerTo(types.Int(8))), "PPi8"},
		{types.Void(), "V"},
	}
	for _, c := range cases {
		if got := c.ty.Mangle(); got != c.want {
			t.Errorf("Mangle(%s) = %q, want %q", c.ty, got, c.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, name := range []string{"*fp32", "i32", "u8", "bf16", "fp8e5", "i1", "**i64"} {
		ty, err := types.Parse(name)
		if err != nil {
			t.Fatalf("Parse(%q): %v", name, err)
		}
		back, err := types.Parse(ty.String())
		if err != nil {
			t.Fatalf("Parse(String(%q)): %v", name, err)
		}
		if !ty.Equal(back) {
			t.Errorf("round trip of %q: %s != %s", name, ty, back)
		}
	}
	if _, err := types.Parse("q17"); err == nil {
		t.Error("Parse(q17) should fail")
	}
}

func TestPromoteInteger(t *testing.T) {
	cases := []struct {
		a, b, want types.Type
	}{
		{types.Int(32), types.Int(64), types.Int(64)},
		{types.Uint(32), types.Uint(16), types.Uint(32)},
		{types.Int(64), types.Uint(32), types.Int(64)},
		{types.Uint(64), types.Int(32), types.Uint(64)},
	}
	for _, c := range cases {
		if got := types.PromoteInteger(c.a, c.b); !got.Equal(c.want) {
			t.Errorf("PromoteInteger(%s, %s) = %s, want %s", c.a, c.b, got, c.want)
		}
	}
}

func TestPromoteArithmeticRejectsMixedSignedness(t *testing.T) {
	if _, err := types.PromoteArithmetic(types.Int(32), types.Uint(32)); err == nil {
		t.Error("i32 and u32 must not promote silently")
	}
	// a strictly wider operand still wins regardless of signedness
	got, err := types.PromoteArithmetic(types.Int(64), types.Uint(32))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(types.Int(64)) {
		t.Errorf("PromoteArithmetic(i64, u32) = %s, want i64", got)
	}
}

func TestBinaryType(t *testing.T) {
	got, err := types.BinaryType(types.BlockOf(types.FP32(), 16), types.Int(32))
	if err != nil {
		t.Fatal(err)
	}
	if want := types.BlockOf(types.FP32(), 16); !got.Equal(want) {
		t.Errorf("BinaryType = %s, want %s", got, want)
	}

	got, err = types.BinaryType(types.PointerTo(types.FP32()), types.Int(32))
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsPointer() {
		t.Errorf("pointer arithmetic lost the pointer: %s", got)
	}

	got, err = types.BinaryType(types.BlockOf(types.FP32(), 16, 1), types.BlockOf(types.FP32(), 1, 8))
	if err != nil {
		t.Fatal(err)
	}
	if want := types.BlockOf(types.FP32(), 16, 8); !got.Equal(want) {
		t.Errorf("broadcast BinaryType = %s, want %s", got, want)
	}

	if _, err := types.BinaryType(types.BlockOf(types.FP32(), 16), types.BlockOf(types.FP32(), 32)); err == nil {
		t.Error("mismatched shapes should not promote")
	}
}

func TestCompareType(t *testing.T) {
	got, err := types.CompareType(types.BlockOf(types.Int(32), 8), types.Int(32))
	if err != nil {
		t.Fatal(err)
	}
	if want := types.BlockOf(types.Int1(), 8); !got.Equal(want) {
		t.Errorf("CompareType = %s, want %s", got, want)
	}
}

func TestEqualNoImplicitWidening(t *testing.T) {
	if types.Int(32).Equal(types.Int(64)) {
		t.Error("i32 must not equal i64")
	}
	if types.Int(32).Equal(types.Uint(32)) {
		t.Error("i32 must not equal u32")
	}
	if !types.BlockOf(types.FP32(), 4, 4).Equal(types.BlockOf(types.FP32(), 4, 4)) {
		t.Error("identical block types must be equal")
	}
}
