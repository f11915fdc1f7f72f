package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recht/triton/internal/pipeline"
)

var (
	compileKernel    string
	compileSig       []string
	compileConsts    []string
	compileAlign16   []int
	compileEqual1    []int
	compileNumWarps  int
	compileNumStages int
	compileOutput    string
)

func init() {
	compileCmd.Flags().StringVarP(&compileKernel, "kernel", "k", "", "kernel function name (defaults to the file stem)")
	compileCmd.Flags().StringArrayVar(&compileSig, "sig", nil, "runtime argument type, index=type (e.g. 0=*fp32)")
	compileCmd.Flags().StringArrayVar(&compileConsts, "const", nil, "compile-time constant, index=value (e.g. 4=64)")
	compileCmd.Flags().IntSliceVar(&compileAlign16, "align16", nil, "argument indexes with 16-byte divisibility")
	compileCmd.Flags().IntSliceVar(&compileEqual1, "equal1", nil, "argument indexes specialized to the constant 1")
	compileCmd.Flags().IntVar(&compileNumWarps, "num-warps", 4, "parallelism width")
	compileCmd.Flags().IntVar(&compileNumStages, "num-stages", 3, "software pipelining depth")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "write the final artifact to this path")
}

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile one kernel specialization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		opts, err := compileOptions(args[0])
		if err != nil {
			return err
		}
		k, err := pipeline.CompileFile(args[0], opts)
		if err != nil {
			printCompileError(err)
			return fmt.Errorf("compile %s failed", args[0])
		}
		fmt.Fprint(os.Stdout, renderSummary(k))
		if compileOutput != "" {
			if err := os.WriteFile(compileOutput, k.Bin, 0o644); err != nil {
				return err
			}
		}
		return nil
	},
}

func compileOptions(path string) (pipeline.Options, error) {
	kernel := compileKernel
	if kernel == "" {
		kernel = fileStem(path)
	}
	sig, err := parseSignature(pairsToMap(compileSig))
	if err != nil {
		return pipeline.Options{}, err
	}
	consts, err := parseConstants(pairsToMap(compileConsts))
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Kernel:      kernel,
		Signature:   sig,
		Constants:   consts,
		AlignedTo16: compileAlign16,
		EqualTo1:    compileEqual1,
		NumWarps:    compileNumWarps,
		NumStages:   compileNumStages,
		Debug:       flagDebug,
		CacheRoot:   cacheRoot(),
	}, nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// pairsToMap splits repeated "index=value" flags into a raw map; bad
// pairs surface later as index parse errors.
func pairsToMap(pairs []string) map[string]string {
	m := map[string]string{}
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			m[p] = ""
			continue
		}
		m[key] = val
	}
	return m
}

func printCompileError(err error) {
	if colorEnabled(os.Stderr) {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
}
