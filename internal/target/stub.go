package target

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/recht/triton/internal/types"
)

// GlueSource renders the native launcher stub for a kernel: a C entry
// point that unpacks the grid shape and the argument list and forwards
// them to the loaded kernel symbol. The text is deterministic for a
// given signature, so it doubles as its own cache identity.
func GlueSource(symbol string, params []types.Type) string {
	var sb strings.Builder
	sb.WriteString("#include <stdint.h>\n\n")
	fields := make([]string, len(params))
	for i, pt := range params {
		fields[i] = fmt.Sprintf("  %s arg%d;", glueCType(pt), i)
	}
	fmt.Fprintf(&sb, "typedef struct {\n%s\n} %s_args;\n\n", strings.Join(fields, "\n"), symbol)
	fmt.Fprintf(&sb, "extern void %s(void);\n\n", symbol)
	fmt.Fprintf(&sb, "int launch_%s(int grid_x, int grid_y, int grid_z, %s_args *args) {\n", symbol, symbol)
	sb.WriteString("  (void)grid_x; (void)grid_y; (void)grid_z; (void)args;\n")
	fmt.Fprintf(&sb, "  %s();\n  return 0;\n}\n", symbol)
	return sb.String()
}

func glueCType(t types.Type) string {
	switch {
	case t.IsPointer():
		return "void*"
	case t.IsFloat():
		if t.BitWidth() > 32 {
			return "double"
		}
		return "float"
	case t.BitWidth() == 1:
		// bool arguments travel as a byte
		return "uint8_t"
	case t.IsSigned():
		return fmt.Sprintf("int%d_t", t.BitWidth())
	default:
		return fmt.Sprintf("uint%d_t", t.BitWidth())
	}
}

// CCompiler shells out to a host C compiler to build glue source into a
// shared object.
type CCompiler struct {
	// CC overrides the compiler binary; $CC, then "cc" by default.
	CC string
}

func (c CCompiler) compiler() string {
	if c.CC != "" {
		return c.CC
	}
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}
	return "cc"
}

func (c CCompiler) Compile(src, workDir string) (string, error) {
	srcPath := filepath.Join(workDir, "launcher.c")
	outPath := filepath.Join(workDir, "launcher.so")
	if err := os.WriteFile(srcPath, []byte(src), 0o644); err != nil {
		return "", fmt.Errorf("stub compile: %w", err)
	}
	cmd := exec.Command(c.compiler(), "-shared", "-fPIC", "-O2", "-o", outPath, srcPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("stub compile: %s: %w\n%s", c.compiler(), err, out)
	}
	return outPath, nil
}
