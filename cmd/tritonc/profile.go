package main

import (
	"fmt"
	"os"

	"github.com/recht/triton/internal/prof"
)

var (
	flagCPUProfile string
	flagMemProfile string
	flagTracePath  string
)

// setupProfiling enables the profilers requested by the persistent flags
// and returns a cleanup safe to call more than once.
func setupProfiling() (func(), error) {
	stopCPU := func() {}
	stopTrace := func() {}

	if flagCPUProfile != "" {
		stop, err := prof.StartCPU(flagCPUProfile)
		if err != nil {
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		stopCPU = stop
	}
	if flagTracePath != "" {
		stop, err := prof.StartTrace(flagTracePath)
		if err != nil {
			stopCPU()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		stopTrace = stop
	}

	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		stopTrace()
		stopCPU()
		if flagMemProfile != "" {
			if err := prof.WriteHeap(flagMemProfile); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write heap profile: %v\n", err)
			}
		}
	}
	return cleanup, nil
}
