package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestPutGetRoundTrip(t *testing.T) {
	d, err := Open(t.TempDir(), "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if d.Has("k.ttir") {
		t.Fatal("entry must start empty")
	}
	path, err := d.Put("k.ttir", []byte("module"))
	if err != nil {
		t.Fatal(err)
	}
	if path != d.Path("k.ttir") {
		t.Errorf("Put path = %s, want %s", path, d.Path("k.ttir"))
	}
	if !d.Has("k.ttir") {
		t.Error("Has must see the written entry")
	}
	got, err := d.Get("k.ttir")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("module")) {
		t.Errorf("Get = %q", got)
	}
	if _, ok := d.MTime("k.ttir"); !ok {
		t.Error("MTime must resolve for an existing entry")
	}
	if _, ok := d.MTime("missing"); ok {
		t.Error("MTime must fail for a missing entry")
	}
}

func TestPutReplacesWholesale(t *testing.T) {
	d, err := Open(t.TempDir(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Put("a", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Put("a", []byte("second, longer")); err != nil {
		t.Fatal(err)
	}
	got, err := d.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second, longer" {
		t.Errorf("Get = %q", got)
	}
	// no temp litter left behind
	entries, err := os.ReadDir(filepath.Dir(d.Path("a")))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "a" && e.Name() != "lock" {
			t.Errorf("unexpected leftover file %s", e.Name())
		}
	}
}

func TestConcurrentPuts(t *testing.T) {
	d, err := Open(t.TempDir(), "k")
	if err != nil {
		t.Fatal(err)
	}
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			_, err := d.Put("bin", []byte(fmt.Sprintf("payload-%d", i)))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	got, err := d.Get("bin")
	if err != nil {
		t.Fatal(err)
	}
	// one of the writers won wholesale
	if !bytes.HasPrefix(got, []byte("payload-")) {
		t.Errorf("Get = %q", got)
	}
}

func TestKeyIsOrderAndBoundarySensitive(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("keys must be boundary sensitive")
	}
	if Key("x", "y") == Key("y", "x") {
		t.Error("keys must be order sensitive")
	}
	if Key("x", "y") != Key("x", "y") {
		t.Error("keys must be deterministic")
	}
	if len(Key()) != 16 {
		t.Errorf("key length = %d, want 16 hex chars", len(Key()))
	}
}

func TestDefaultRootPrecedence(t *testing.T) {
	t.Setenv(EnvDir, "/tmp/explicit")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	if got := DefaultRoot(); got != "/tmp/explicit" {
		t.Errorf("DefaultRoot = %s", got)
	}
	t.Setenv(EnvDir, "")
	if got := DefaultRoot(); got != filepath.Join("/tmp/xdg", "triton") {
		t.Errorf("DefaultRoot = %s", got)
	}
}

func TestClean(t *testing.T) {
	root := t.TempDir()
	d, err := Open(root, "k")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Put("a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := Clean(root); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("root still has %d entries", len(entries))
	}
	if err := Clean(filepath.Join(root, "never-existed")); err != nil {
		t.Errorf("Clean of a missing root must be a no-op, got %v", err)
	}
}
