package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/recht/triton/internal/pipeline"
)

var buildJobs int

func init() {
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 4, "maximum concurrent kernel compiles")
}

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Compile every kernel in the triton.toml manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		startDir := "."
		if len(args) == 1 {
			startDir = args[0]
		}
		manifest, ok, err := loadBuildManifest(startDir)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(noTritonTomlMessage)
		}
		return runBuild(manifest)
	},
}

// runBuild compiles manifest kernels concurrently. Each compile stays
// single-threaded internally; the cache's advisory locks keep entries
// consistent if two kernels share a specialization.
func runBuild(manifest *buildManifest) error {
	root := cacheRoot()
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(buildJobs)
	for _, kc := range manifest.Config.Kernels {
		kc := kc
		g.Go(func() error {
			opts, err := kc.options(root, flagDebug)
			if err != nil {
				return err
			}
			path := kc.Source
			if !filepath.IsAbs(path) {
				path = filepath.Join(manifest.Root, path)
			}
			k, err := pipeline.CompileFile(path, opts)
			if err != nil {
				return fmt.Errorf("kernel %q: %w", kc.Name, err)
			}
			mu.Lock()
			fmt.Fprint(os.Stdout, renderSummary(k))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		printCompileError(err)
		return errors.New("build failed")
	}
	return nil
}
