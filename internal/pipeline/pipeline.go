// Package pipeline drives a kernel specialization through the staged
// compilation chain ast → ttir → ttgir → llir → asm → bin. Every stage
// artifact is cached on disk; a stage is re-run only when its artifact
// is missing or its modification time no longer matches the persisted
// compilation record, so a compile is resumable at stage granularity.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/recht/triton/internal/cache"
	"github.com/recht/triton/internal/codegen"
	"github.com/recht/triton/internal/ir"
	"github.com/recht/triton/internal/observ"
	"github.com/recht/triton/internal/parser"
	"github.com/recht/triton/internal/source"
	"github.com/recht/triton/internal/target"
	"github.com/recht/triton/internal/types"
)

// Options configures one compile call.
type Options struct {
	// Kernel names the entry function in the source.
	Kernel string
	// Signature maps runtime parameter indexes to type names.
	Signature map[int]string
	// Constants binds compile-time parameters, constexpr or
	// specialized, by index.
	Constants map[int]codegen.Constant
	// EqualTo1 lists runtime parameters specialized to the constant 1.
	EqualTo1 []int
	// AlignedTo16 lists pointer/integer parameters with proven 16-byte
	// divisibility.
	AlignedTo16 []int

	NumWarps  int
	NumStages int
	Debug     bool

	CacheRoot string
	Device    target.Device
	Backend   target.Backend
	Stub      target.StubCompiler
}

func (o Options) withDefaults() Options {
	if o.NumWarps == 0 {
		o.NumWarps = 4
	}
	if o.NumStages == 0 {
		o.NumStages = 3
	}
	if o.CacheRoot == "" {
		o.CacheRoot = cache.DefaultRoot()
	}
	if o.Device == nil {
		o.Device = target.DefaultDevice()
	}
	if o.Backend == nil {
		o.Backend = target.DefaultBackend()
	}
	return o
}

// Stats records which stages ran and which were reloaded from cache.
type Stats struct {
	Compiled []string
	Loaded   []string
	Timings  observ.Report
}

// KernelSuffix encodes the per-parameter specialization into a symbol
// suffix: the parameter index, then 'c' when the argument is the
// constant 1, then 'd' when it is 16-divisible.
func KernelSuffix(numParams int, equalTo1, aligned map[int]bool) string {
	var sb strings.Builder
	for i := 0; i < numParams; i++ {
		if !equalTo1[i] && !aligned[i] {
			continue
		}
		fmt.Fprintf(&sb, "%d", i)
		if equalTo1[i] {
			sb.WriteByte('c')
		}
		if aligned[i] {
			sb.WriteByte('d')
		}
	}
	return sb.String()
}

// compilation is the mutable state threaded through the stage steps.
type compilation struct {
	opts   Options
	ast    *astInput
	symbol string
	rec    *Record
	// paramTypes are the runtime signature types, captured as soon as a
	// lowered module is in hand.
	paramTypes []types.Type
}

type astInput struct {
	buf *source.Buffer
}

type stage struct {
	name string // stage name, also the artifact file extension
	load func(data []byte) (any, error)
	run  func(c *compilation, prev any) (repr any, artifact []byte, err error)
}

func stageList() []stage {
	return []stage{
		{name: "ttir", load: loadModule, run: runTTIR},
		{name: "ttgir", load: loadModule, run: runTTGIR},
		{name: "llir", load: loadText, run: runLLIR},
		{name: "asm", load: loadText, run: runASM},
		{name: "bin", load: loadBytes, run: runBin},
	}
}

func loadModule(data []byte) (any, error) { return ir.DecodeModule(data) }
func loadText(data []byte) (any, error)   { return string(data), nil }
func loadBytes(data []byte) (any, error)  { return data, nil }

func runTTIR(c *compilation, prev any) (any, []byte, error) {
	in := prev.(*astInput)
	astMod, err := parser.Parse(in.buf)
	if err != nil {
		return nil, nil, err
	}

	sig := map[int]string{}
	for i, t := range c.opts.Signature {
		sig[i] = t
	}
	consts := map[int]codegen.Constant{}
	for i, v := range c.opts.Constants {
		consts[i] = v
	}
	for _, i := range c.opts.EqualTo1 {
		delete(sig, i)
		consts[i] = codegen.IntConst(1)
	}
	attrs := map[int]map[string]int64{}
	for _, i := range c.opts.AlignedTo16 {
		attrs[i] = map[string]int64{"tt.divisibility": 16}
	}

	mod, err := codegen.Lower(astMod, c.opts.Kernel, codegen.Options{
		Signature: sig,
		Constants: consts,
		ArgAttrs:  attrs,
		Debug:     c.opts.Debug,
	})
	if err != nil {
		return nil, nil, err
	}
	entry := mod.GetFunction(c.opts.Kernel)
	entry.Name = c.symbol
	mod.Name = c.symbol

	passes := []string{"inline"}
	if c.opts.Device.Capability() < 90 {
		passes = append(passes, "rewrite-tensor-pointer")
	}
	passes = append(passes, "combine", "canonicalize", "cse", "licm", "symbol-dce")
	if err := ir.RunPasses(mod, passes...); err != nil {
		return nil, nil, err
	}
	data, err := ir.EncodeModule(mod)
	return mod, data, err
}

func runTTGIR(c *compilation, prev any) (any, []byte, error) {
	mod := prev.(*ir.Module)
	mod.Attrs["num_warps"] = int64(c.opts.NumWarps)
	mod.Attrs["num_stages"] = int64(c.opts.NumStages)
	passes := []string{"convert-to-gpu", "coalesce", "combine", "pipeline", "prefetch", "canonicalize", "cse", "symbol-dce"}
	if err := ir.RunPasses(mod, passes...); err != nil {
		return nil, nil, err
	}
	data, err := ir.EncodeModule(mod)
	return mod, data, err
}

func runLLIR(c *compilation, prev any) (any, []byte, error) {
	mod := prev.(*ir.Module)
	llir, shared, err := c.opts.Backend.LowerToLLIR(mod, c.opts.NumWarps, c.opts.NumStages)
	if err != nil {
		return nil, nil, err
	}
	c.rec.Shared = shared
	return llir, []byte(llir), nil
}

func runASM(c *compilation, prev any) (any, []byte, error) {
	asm, err := c.opts.Backend.EmitASM(prev.(string), c.opts.Device.Capability())
	if err != nil {
		return nil, nil, err
	}
	c.rec.Name = target.SymbolFromASM(asm)
	return asm, []byte(asm), nil
}

func runBin(c *compilation, prev any) (any, []byte, error) {
	bin, err := c.opts.Backend.Assemble(prev.(string))
	if err != nil {
		return nil, nil, err
	}
	return bin, bin, nil
}

// Compile runs the full pipeline over kernel source text.
func Compile(src []byte, opts Options) (*CompiledKernel, error) {
	opts = opts.withDefaults()
	if opts.Kernel == "" {
		return nil, fmt.Errorf("pipeline: no kernel name given")
	}
	return compile(&astInput{buf: source.NewBuffer(opts.Kernel, src)}, src, opts)
}

// CompileFile runs the pipeline over a source file, or resumes from a
// pre-lowered .ttir artifact.
func CompileFile(path string, opts Options) (*CompiledKernel, error) {
	opts = opts.withDefaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".ttir" {
		mod, err := ir.DecodeModule(data)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", path, err)
		}
		if opts.Kernel == "" {
			opts.Kernel = mod.Name
		}
		return compileLowered(mod, data, opts)
	}
	if opts.Kernel == "" {
		return nil, fmt.Errorf("pipeline: no kernel name given")
	}
	return compile(&astInput{buf: source.NewBuffer(path, data)}, data, opts)
}

func compile(in *astInput, content []byte, opts Options) (*CompiledKernel, error) {
	c, dir, err := prepare(string(content), opts)
	if err != nil {
		return nil, err
	}
	return c.runStages(dir, any(in), stageList())
}

// compileLowered enters the stage chain after ttir: the supplied module
// is written into the cache as the ttir artifact and everything later
// proceeds as usual.
func compileLowered(mod *ir.Module, encoded []byte, opts Options) (*CompiledKernel, error) {
	c, dir, err := prepare(string(encoded), opts)
	if err != nil {
		return nil, err
	}
	name := c.symbol + ".ttir"
	if _, err := dir.Put(name, encoded); err != nil {
		return nil, err
	}
	if mt, ok := dir.MTime(name); ok {
		c.rec.CTime["ttir"] = mt
	}
	return c.runStages(dir, any(mod), stageList()[1:])
}

func prepare(content string, opts Options) (*compilation, *cache.Dir, error) {
	equalTo1 := map[int]bool{}
	for _, i := range opts.EqualTo1 {
		equalTo1[i] = true
	}
	aligned := map[int]bool{}
	for _, i := range opts.AlignedTo16 {
		aligned[i] = true
	}
	numParams := 0
	for i := range opts.Signature {
		if i+1 > numParams {
			numParams = i + 1
		}
	}
	for i := range opts.Constants {
		if i+1 > numParams {
			numParams = i + 1
		}
	}
	suffix := KernelSuffix(numParams, equalTo1, aligned)
	symbol := opts.Kernel
	if suffix != "" {
		symbol += "_" + suffix
	}

	key := cache.Key(keyParts(content, opts)...)
	dir, err := cache.Open(opts.CacheRoot, key)
	if err != nil {
		return nil, nil, err
	}

	c := &compilation{opts: opts, symbol: symbol}
	if rec, ok := loadRecord(dir, symbol+".json"); ok {
		c.rec = rec
	} else {
		c.rec = newRecord(opts)
	}
	return c, dir, nil
}

// keyParts assembles the compiled-kernel identity: source content,
// specialization tuple, tuning parameters, and target identity.
func keyParts(content string, opts Options) []string {
	parts := []string{
		"triton-kernel-v1",
		content,
		opts.Kernel,
	}
	for _, i := range sortedKeys(opts.Signature) {
		parts = append(parts, fmt.Sprintf("sig:%d=%s", i, opts.Signature[i]))
	}
	for _, i := range sortedConstKeys(opts.Constants) {
		parts = append(parts, fmt.Sprintf("const:%d=%s", i, opts.Constants[i].Repr()))
	}
	idx := append([]int(nil), opts.EqualTo1...)
	sort.Ints(idx)
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("one:%d", i))
	}
	idx = append([]int(nil), opts.AlignedTo16...)
	sort.Ints(idx)
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("align:%d", i))
	}
	parts = append(parts,
		fmt.Sprintf("warps:%d", opts.NumWarps),
		fmt.Sprintf("stages:%d", opts.NumStages),
		fmt.Sprintf("debug:%t", opts.Debug),
		fmt.Sprintf("backend:%s", opts.Backend.Name()),
		fmt.Sprintf("cap:%d", opts.Device.Capability()),
	)
	return parts
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedConstKeys(m map[int]codegen.Constant) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (c *compilation) runStages(dir *cache.Dir, cur any, stages []stage) (*CompiledKernel, error) {
	var stats Stats
	timer := observ.NewTimer()
	recName := c.symbol + ".json"
	// Once a stage recompiles, every later stage must too: its cached
	// artifact was derived from the output we just replaced.
	dirty := false
	for _, st := range stages {
		fname := c.symbol + "." + st.name
		done := timer.Start(st.name)
		var err error
		if mt, ok := dir.MTime(fname); !dirty && ok && c.rec.CTime[st.name] == mt {
			var data []byte
			if data, err = dir.Get(fname); err != nil {
				return nil, fmt.Errorf("pipeline: reload %s: %w", fname, err)
			}
			if cur, err = st.load(data); err != nil {
				return nil, fmt.Errorf("pipeline: reload %s: %w", fname, err)
			}
			stats.Loaded = append(stats.Loaded, st.name)
			done("cached")
		} else {
			var artifact []byte
			if cur, artifact, err = st.run(c, cur); err != nil {
				return nil, err
			}
			if _, err = dir.Put(fname, artifact); err != nil {
				return nil, err
			}
			mt, _ := dir.MTime(fname)
			c.rec.CTime[st.name] = mt
			stats.Compiled = append(stats.Compiled, st.name)
			dirty = true
			done("compiled")
		}
		if mod, ok := cur.(*ir.Module); ok && c.paramTypes == nil {
			for _, f := range mod.Funcs {
				if f.Public {
					c.paramTypes = f.Params
					break
				}
			}
		}
		if err := c.rec.persist(dir, recName); err != nil {
			return nil, err
		}
	}

	stats.Timings = timer.Report()
	bin, _ := cur.([]byte)
	asm, err := dir.Get(c.symbol + ".asm")
	if err != nil {
		return nil, fmt.Errorf("pipeline: missing asm artifact: %w", err)
	}
	return &CompiledKernel{
		Record:     c.rec,
		Stats:      stats,
		Dir:        dir,
		Bin:        bin,
		ASM:        string(asm),
		opts:       c.opts,
		paramTypes: c.paramTypes,
	}, nil
}
