package pipeline

import (
	"fmt"
	"sync"

	"github.com/recht/triton/internal/cache"
	"github.com/recht/triton/internal/target"
	"github.com/recht/triton/internal/types"
)

// CompiledKernel is the result of a compile call: the final artifact,
// the persisted record, and a lazily materialized launch handle.
type CompiledKernel struct {
	Record *Record
	Stats  Stats
	Dir    *cache.Dir
	Bin    []byte
	ASM    string

	opts       Options
	paramTypes []types.Type

	handleOnce sync.Once
	handle     *Handle
	handleErr  error
}

// Handle is the loadable form of a compiled kernel. The host glue
// invokes Launch with a grid shape and the runtime argument list.
type Handle struct {
	Symbol string
	// StubPath is the compiled native launcher object, or "" when no
	// stub compiler was configured.
	StubPath string
	Shared   int64

	paramTypes []types.Type
}

// Handle materializes the launch handle once per kernel. The recorded
// shared-memory footprint is checked against the device limit here, at
// the last moment before anything could be launched.
func (k *CompiledKernel) Handle() (*Handle, error) {
	k.handleOnce.Do(func() { k.handle, k.handleErr = k.buildHandle() })
	return k.handle, k.handleErr
}

func (k *CompiledKernel) buildHandle() (*Handle, error) {
	limits := k.opts.Device.Limits()
	if k.Record.Shared > limits.SharedMemory {
		return nil, &target.OutOfResources{
			Resource: "shared memory",
			Required: k.Record.Shared,
			Limit:    limits.SharedMemory,
		}
	}
	h := &Handle{
		Symbol:     k.Record.Name,
		Shared:     k.Record.Shared,
		paramTypes: k.paramTypes,
	}
	if k.opts.Stub == nil {
		return h, nil
	}

	// the glue object lives in its own cache entry, addressed by the
	// content of the generated source
	glue := target.GlueSource(k.Record.Name, k.paramTypes)
	dir, err := cache.Open(k.opts.CacheRoot, cache.Key("launcher-glue-v1", glue))
	if err != nil {
		return nil, err
	}
	if dir.Has("launcher.so") {
		h.StubPath = dir.Path("launcher.so")
		return h, nil
	}
	path, err := k.opts.Stub.Compile(glue, dir.Path(""))
	if err != nil {
		return nil, err
	}
	h.StubPath = path
	return h, nil
}

// Launch validates a launch request against the kernel signature. The
// reference target has nothing to execute; a real host integration
// loads StubPath and calls the glue entry point instead.
func (h *Handle) Launch(gridX, gridY, gridZ int, args ...any) error {
	if gridX < 1 || gridY < 1 || gridZ < 1 {
		return fmt.Errorf("launch %s: grid (%d, %d, %d) must be positive", h.Symbol, gridX, gridY, gridZ)
	}
	if len(args) != len(h.paramTypes) {
		return fmt.Errorf("launch %s: got %d arguments, want %d", h.Symbol, len(args), len(h.paramTypes))
	}
	return nil
}
