package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/recht/triton/internal/codegen"
	"github.com/recht/triton/internal/pipeline"
)

const noTritonTomlMessage = "no triton.toml found\nplease specify a manifest directory explicitly, e.g.:\n  tritonc build path/to/kernels"

type buildManifest struct {
	Path   string
	Root   string
	Config manifestConfig
}

type manifestConfig struct {
	Package packageConfig  `toml:"package"`
	Kernels []kernelConfig `toml:"kernel"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type kernelConfig struct {
	Name      string            `toml:"name"`
	Source    string            `toml:"source"`
	Signature map[string]string `toml:"signature"`
	Constants map[string]string `toml:"constants"`
	Align16   []int             `toml:"align16"`
	Equal1    []int             `toml:"equal1"`
	NumWarps  int               `toml:"num_warps"`
	NumStages int               `toml:"num_stages"`
}

func findTritonToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "triton.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadBuildManifest(startDir string) (*buildManifest, bool, error) {
	path, ok, err := findTritonToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg manifestConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("kernel") {
		return nil, true, fmt.Errorf("%s: no [[kernel]] entries", path)
	}
	for i, k := range cfg.Kernels {
		if k.Name == "" {
			return nil, true, fmt.Errorf("%s: kernel %d has no name", path, i)
		}
		if k.Source == "" {
			return nil, true, fmt.Errorf("%s: kernel %q has no source", path, k.Name)
		}
	}
	return &buildManifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// options turns one manifest entry into pipeline options.
func (k kernelConfig) options(root string, debug bool) (pipeline.Options, error) {
	sig, err := parseSignature(k.Signature)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("kernel %q: %w", k.Name, err)
	}
	consts, err := parseConstants(k.Constants)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("kernel %q: %w", k.Name, err)
	}
	return pipeline.Options{
		Kernel:      k.Name,
		Signature:   sig,
		Constants:   consts,
		AlignedTo16: k.Align16,
		EqualTo1:    k.Equal1,
		NumWarps:    k.NumWarps,
		NumStages:   k.NumStages,
		Debug:       debug,
		CacheRoot:   root,
	}, nil
}

func parseSignature(raw map[string]string) (map[int]string, error) {
	sig := map[int]string{}
	for key, ty := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("signature index %q is not a number", key)
		}
		sig[idx] = ty
	}
	return sig, nil
}

// parseConstants resolves constant literals: integers, floats, booleans,
// anything else stays a string.
func parseConstants(raw map[string]string) (map[int]codegen.Constant, error) {
	consts := map[int]codegen.Constant{}
	for key, val := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("constant index %q is not a number", key)
		}
		consts[idx] = parseConstant(val)
	}
	return consts, nil
}

func parseConstant(val string) codegen.Constant {
	if n, err := strconv.ParseInt(val, 0, 64); err == nil {
		return codegen.IntConst(n)
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return codegen.FloatConst(f)
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return codegen.BoolConst(b)
	}
	return codegen.StrConst(val)
}
