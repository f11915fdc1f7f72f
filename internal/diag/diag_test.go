package diag_test

import (
	"strings"
	"testing"

	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/source"
)

func TestErrorWithoutSource(t *testing.T) {
	err := diag.Errorf(diag.Unsupported, source.Pos{Line: 3, Col: 4}, "no such op")
	msg := err.Error()
	if !strings.Contains(msg, "at 3:4:") {
		t.Errorf("missing position header: %q", msg)
	}
	if !strings.Contains(msg, "<source unavailable>") {
		t.Errorf("missing placeholder: %q", msg)
	}
}

func TestCaretColumn(t *testing.T) {
	src := source.NewBuffer("k.tk", []byte("def k():\n    x = $bad\n"))
	err := diag.Errorf(diag.Syntax, source.Pos{Line: 2, Col: 8}, "unexpected character")
	err.SetSource(src)

	lines := strings.Split(err.Error(), "\n")
	// header, excerpt lines, caret line, message
	var caret string
	for _, l := range lines {
		if strings.HasSuffix(l, "^") {
			caret = l
		}
	}
	if caret == "" {
		t.Fatalf("no caret line in %q", err.Error())
	}
	if got := strings.Index(caret, "^"); got != 8 {
		t.Errorf("caret at column %d, want 8", got)
	}
}

func TestExcerptBoundedToMaxLines(t *testing.T) {
	var sb strings.Builder
	for range 40 {
		sb.WriteString("line\n")
	}
	src := source.NewBuffer("k.tk", []byte(sb.String()))
	err := diag.Errorf(diag.TypeMismatch, source.Pos{Line: 40, Col: 0}, "boom")
	err.SetSource(src)

	excerptLines := 0
	for _, l := range strings.Split(err.Error(), "\n") {
		if l == "line" {
			excerptLines++
		}
	}
	if excerptLines > diag.MaxExcerptLines {
		t.Errorf("excerpt has %d lines, want <= %d", excerptLines, diag.MaxExcerptLines)
	}
}

func TestSetSourceKeepsFirst(t *testing.T) {
	a := source.NewBuffer("a", []byte("aaa\n"))
	b := source.NewBuffer("b", []byte("bbb\n"))
	err := diag.Errorf(diag.NameResolution, source.Pos{Line: 1, Col: 0}, "x is not defined")
	err.SetSource(a)
	err.SetSource(b)
	if err.Src != a {
		t.Error("SetSource must not replace an attached source")
	}
}
