// Package target holds the collaborator interfaces the compiler core
// calls into: the device capability query, the backend that lowers the
// GPU-level module the rest of the way down, and the native compiler
// for generated launcher glue. A hermetic reference implementation of
// each ships alongside so the pipeline is fully exercisable without an
// accelerator.
package target

import (
	"fmt"
	"sync"

	"github.com/recht/triton/internal/ir"
)

// Limits are the resource limits a device advertises.
type Limits struct {
	// SharedMemory is the per-kernel shared working memory in bytes.
	SharedMemory int64
	// MaxNumWarps bounds the parallelism width of one program instance.
	MaxNumWarps int
}

// Device answers capability and limit queries.
type Device interface {
	// Capability is the numeric capability level of the hardware.
	Capability() int
	Limits() Limits
}

// Backend lowers artifacts below the GPU-level IR. Each method is one
// pipeline stage step.
type Backend interface {
	Name() string
	// LowerToLLIR lowers the module to backend IR text and reports the
	// shared working memory the kernel will need at launch.
	LowerToLLIR(mod *ir.Module, numWarps, numStages int) (string, int64, error)
	// EmitASM turns backend IR into textual machine assembly for the
	// given capability level. The kernel symbol appears as a .globl.
	EmitASM(llir string, capability int) (string, error)
	// Assemble produces the final loadable artifact bytes.
	Assemble(asm string) ([]byte, error)
}

// StubCompiler builds generated launcher-glue source into a loadable
// native object.
type StubCompiler interface {
	Compile(src, workDir string) (string, error)
}

// OutOfResources reports a kernel whose requirements exceed a device
// limit.
type OutOfResources struct {
	Resource string
	Required int64
	Limit    int64
}

func (e *OutOfResources) Error() string {
	return fmt.Sprintf("out of resources: %s, required %d, hardware limit %d; reduce the block sizes or pipeline depth",
		e.Resource, e.Required, e.Limit)
}

var (
	deviceOnce  sync.Once
	device      Device
	backendOnce sync.Once
	backend     Backend
)

// DefaultDevice returns the process-wide device, initialized once on
// first use. Compile options may carry an explicit device instead.
func DefaultDevice() Device {
	deviceOnce.Do(func() { device = NewReferenceDevice() })
	return device
}

// DefaultBackend returns the process-wide backend, initialized once on
// first use.
func DefaultBackend() Backend {
	backendOnce.Do(func() { backend = NewReferenceBackend() })
	return backend
}
