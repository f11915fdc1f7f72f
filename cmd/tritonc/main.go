package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/recht/triton/internal/cache"
	"github.com/recht/triton/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tritonc",
	Short: "Triton kernel compiler",
	Long:  `tritonc compiles restricted kernel-description functions into cached accelerator artifacts`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupProfiling()
		if err != nil {
			return err
		}
		stopProfiling = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopProfiling != nil {
			stopProfiling()
		}
	},
}

var stopProfiling func()

var (
	flagColor    string
	flagCacheDir string
	flagDebug    bool
)

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "cache root directory (default: $TRITON_CACHE_DIR or ~/.cache/triton)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "lower device-side asserts")
	rootCmd.PersistentFlags().StringVar(&flagCPUProfile, "cpu-profile", "", "write a CPU profile to the given file")
	rootCmd.PersistentFlags().StringVar(&flagMemProfile, "mem-profile", "", "write a heap profile to the given file on exit")
	rootCmd.PersistentFlags().StringVar(&flagTracePath, "runtime-trace", "", "write a runtime execution trace to the given file")

	err := rootCmd.Execute()
	if stopProfiling != nil {
		stopProfiling()
	}
	if err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color mode against the output stream.
func colorEnabled(f *os.File) bool {
	switch flagColor {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f)
	}
}

func cacheRoot() string {
	if flagCacheDir != "" {
		return flagCacheDir
	}
	return cache.DefaultRoot()
}
