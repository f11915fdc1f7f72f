package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Mangle encodes a type into the textual form used in specialized function
// names. Pointers prefix their pointee with P; blocks wrap the element
// mangling with S<shape>S.
func (t Type) Mangle() string {
	switch t.Kind {
	case KindPointer:
		return "P" + t.Elem.Mangle()
	case KindInt:
		return "i" + strconv.Itoa(int(t.Width))
	case KindUint:
		return "u" + strconv.Itoa(int(t.Width))
	case KindFP8E4, KindFP8E5:
		return "fp8"
	case KindFP16:
		return "fp16"
	case KindBF16:
		return "bf16"
	case KindFP32:
		return "fp32"
	case KindFP64:
		return "fp64"
	case KindBlock:
		dims := make([]string, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = strconv.FormatInt(d, 10)
		}
		return t.Elem.Mangle() + "S" + strings.Join(dims, "_") + "S"
	case KindVoid:
		return "V"
	default:
		return "X"
	}
}

// Parse resolves a short signature type name ("*fp32", "i32", "u64", "B", ...)
// into a Type. The leading '*' nests a pointer.
func Parse(name string) (Type, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Type{}, fmt.Errorf("empty type name")
	}
	if name[0] == '*' {
		elem, err := Parse(name[1:])
		if err != nil {
			return Type{}, err
		}
		return PointerTo(elem), nil
	}
	switch name {
	case "fp8e4":
		return FP8E4(), nil
	case "fp8e5":
		return FP8E5(), nil
	case "fp16":
		return FP16(), nil
	case "bf16":
		return BF16(), nil
	case "fp32", "f32":
		return FP32(), nil
	case "fp64":
		return FP64(), nil
	case "i1", "B":
		return Int1(), nil
	case "i8":
		return Int(8), nil
	case "i16":
		return Int(16), nil
	case "i32":
		return Int(32), nil
	case "i64":
		return Int(64), nil
	case "u8":
		return Uint(8), nil
	case "u16":
		return Uint(16), nil
	case "u32":
		return Uint(32), nil
	case "u64":
		return Uint(64), nil
	default:
		return Type{}, fmt.Errorf("unknown type name %q", name)
	}
}
