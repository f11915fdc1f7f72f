package source

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// Pos is a position inside a kernel source buffer.
// Line is 1-based; Col is a 0-based byte offset within the line.
type Pos struct {
	Line uint32
	Col  uint32
}

// NoPos marks the absence of a position.
var NoPos = Pos{}

func (p Pos) IsValid() bool {
	return p.Line != 0
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Buffer holds a single kernel source text together with its line index.
// Kernels are small, so the whole text is kept in memory for the lifetime
// of a compilation.
type Buffer struct {
	Name    string
	Content []byte

	lineIdx []uint32 // byte offsets of '\n'
}

// NewBuffer normalizes the raw text (CRLF, BOM) and builds the line index.
func NewBuffer(name string, content []byte) *Buffer {
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	return &Buffer{
		Name:    name,
		Content: content,
		lineIdx: buildLineIndex(content),
	}
}

// NumLines reports the number of lines in the buffer.
func (b *Buffer) NumLines() uint32 {
	n, err := safecast.Conv[uint32](len(b.lineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	if len(b.Content) > 0 && b.Content[len(b.Content)-1] != '\n' {
		n++
	}
	return n
}

// Line returns line n (1-based) without its trailing newline.
func (b *Buffer) Line(n uint32) (string, bool) {
	if n == 0 || n > b.NumLines() {
		return "", false
	}
	start := uint32(0)
	if n > 1 {
		start = b.lineIdx[n-2] + 1
	}
	end, err := safecast.Conv[uint32](len(b.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	if int(n-1) < len(b.lineIdx) {
		end = b.lineIdx[n-1]
	}
	return string(b.Content[start:end]), true
}

// Excerpt returns up to max lines of source ending at and including line n.
func (b *Buffer) Excerpt(n uint32, max int) []string {
	if n == 0 || max <= 0 {
		return nil
	}
	if last := b.NumLines(); n > last {
		n = last
	}
	first := uint32(1)
	if int(n) > max {
		first = n - uint32(max) + 1
	}
	out := make([]string, 0, n-first+1)
	for i := first; i <= n; i++ {
		line, ok := b.Line(i)
		if !ok {
			break
		}
		out = append(out, strings.TrimRight(line, "\r"))
	}
	return out
}

func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}
	out := make([]byte, 0, len(content))
	changed := false
	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}

func buildLineIndex(content []byte) []uint32 {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	out := make([]uint32, 0, 64)
	for i, c := range content {
		if c == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}
