package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recht/triton/internal/codegen"
)

const manifestText = `
[package]
name = "kernels"

[[kernel]]
name = "add_kernel"
source = "add.tr"
num_warps = 8
num_stages = 2
align16 = [0, 1, 2]

[kernel.signature]
"0" = "*fp32"
"1" = "*fp32"
"2" = "*fp32"
"3" = "i32"

[kernel.constants]
"4" = "64"

[[kernel]]
name = "mm"
source = "mm.tr"

[kernel.signature]
"0" = "*fp16"

[kernel.constants]
"1" = "16"
"2" = "2.5"
"3" = "true"
"4" = "fp32"
`

func writeManifest(t *testing.T, text string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "triton.toml"), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadBuildManifest(t *testing.T) {
	dir := writeManifest(t, manifestText)
	m, ok, err := loadBuildManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("manifest not found")
	}
	if m.Config.Package.Name != "kernels" || len(m.Config.Kernels) != 2 {
		t.Fatalf("config = %+v", m.Config)
	}

	opts, err := m.Config.Kernels[0].options("/tmp/cache", true)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Kernel != "add_kernel" || opts.NumWarps != 8 || opts.NumStages != 2 || !opts.Debug {
		t.Errorf("options = %+v", opts)
	}
	wantSig := map[int]string{0: "*fp32", 1: "*fp32", 2: "*fp32", 3: "i32"}
	if diff := cmp.Diff(wantSig, opts.Signature); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, opts.AlignedTo16); diff != "" {
		t.Errorf("align16 mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestConstantLiterals(t *testing.T) {
	dir := writeManifest(t, manifestText)
	m, _, err := loadBuildManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := m.Config.Kernels[1].options("/tmp/cache", false)
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]codegen.Constant{
		1: codegen.IntConst(16),
		2: codegen.FloatConst(2.5),
		3: codegen.BoolConst(true),
		4: codegen.StrConst("fp32"),
	}
	if diff := cmp.Diff(want, opts.Constants); diff != "" {
		t.Errorf("constants mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBuildManifestMissing(t *testing.T) {
	_, ok, err := loadBuildManifest(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("no manifest should be found in an empty tree")
	}
}

func TestManifestRejectsAnonymousKernel(t *testing.T) {
	dir := writeManifest(t, `
[[kernel]]
source = "x.tr"
`)
	if _, _, err := loadBuildManifest(dir); err == nil {
		t.Fatal("nameless kernel must be rejected")
	}
}

func TestPairsToMap(t *testing.T) {
	got := pairsToMap([]string{"0=*fp32", "3=i32"})
	want := map[string]string{"0": "*fp32", "3": "i32"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pairsToMap mismatch (-want +got):\n%s", diff)
	}
}
