package source_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recht/triton/internal/source"
)

func TestBufferLines(t *testing.T) {
	b := source.NewBuffer("k.tk", []byte("one\ntwo\nthree"))
	if got := b.NumLines(); got != 3 {
		t.Fatalf("NumLines = %d, want 3", got)
	}
	for i, want := range []string{"one", "two", "three"} {
		line, ok := b.Line(uint32(i + 1))
		if !ok {
			t.Fatalf("Line(%d) missing", i+1)
		}
		if line != want {
			t.Errorf("Line(%d) = %q, want %q", i+1, line, want)
		}
	}
	if _, ok := b.Line(4); ok {
		t.Error("Line(4) should not exist")
	}
}

func TestBufferNormalization(t *testing.T) {
	b := source.NewBuffer("k.tk", []byte("\xEF\xBB\xBFa\r\nb\r\n"))
	if string(b.Content) != "a\nb\n" {
		t.Errorf("normalized content = %q", b.Content)
	}
}

func TestExcerptBounded(t *testing.T) {
	b := source.NewBuffer("k.tk", []byte("l1\nl2\nl3\nl4\nl5\n"))
	got := b.Excerpt(4, 2)
	want := []string{"l3", "l4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Excerpt mismatch (-want +got):\n%s", diff)
	}
	if got := b.Excerpt(2, 10); len(got) != 2 {
		t.Errorf("Excerpt(2, 10) = %v, want 2 lines", got)
	}
}
