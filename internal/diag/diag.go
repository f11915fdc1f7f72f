package diag

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/recht/triton/internal/source"
)

// Kind classifies a compilation error.
type Kind uint8

const (
	// Unsupported marks an AST node or operator the translator does not
	// implement. Always fatal, never retried.
	Unsupported Kind = iota
	// NameResolution marks an identifier not found in any visible scope.
	NameResolution
	// TypeMismatch marks a control-flow merge, loop-carry, or operator
	// type disagreement.
	TypeMismatch
	// StaticAssertFailed marks a failed static_assert.
	StaticAssertFailed
	// StaticNotDeterminable marks a static_assert condition that depends
	// on a runtime value.
	StaticNotDeterminable
	// Redefinition marks a binding that cannot be rebound, such as a
	// compile-time parameter assigned a runtime value.
	Redefinition
	// Syntax marks a malformed kernel source.
	Syntax
	// Internal marks a translator bug surfaced as a diagnostic.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Unsupported:
		return "unsupported construct"
	case NameResolution:
		return "name error"
	case TypeMismatch:
		return "type mismatch"
	case StaticAssertFailed:
		return "static assertion failed"
	case StaticNotDeterminable:
		return "not determinable at compile time"
	case Redefinition:
		return "definition error"
	case Syntax:
		return "syntax error"
	case Internal:
		return "internal error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// MaxExcerptLines bounds the number of source lines rendered per error.
const MaxExcerptLines = 12

// Error is a compilation error carrying the offending position and, once
// attached by the top-level entry point, the source buffer used to render
// an excerpt. It propagates unmodified from the point of detection.
type Error struct {
	Kind Kind
	Pos  source.Pos
	Msg  string
	Src  *source.Buffer
}

// Errorf builds a positioned error.
func Errorf(kind Kind, pos source.Pos, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// SetSource attaches the kernel source if no source is attached yet.
func (e *Error) SetSource(src *source.Buffer) {
	if e.Src == nil {
		e.Src = src
	}
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "at %d:%d:", e.Pos.Line, e.Pos.Col)
	sb.WriteString(e.renderExcerpt())
	if e.Msg != "" {
		sb.WriteByte('\n')
		sb.WriteString(e.Kind.String())
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	return sb.String()
}

// renderExcerpt produces the bounded source window ending at the error line,
// followed by a caret line pointing at Pos.Col.
func (e *Error) renderExcerpt() string {
	if e.Src == nil {
		return " <source unavailable>"
	}
	lines := e.Src.Excerpt(e.Pos.Line, MaxExcerptLines)
	if len(lines) == 0 {
		return " <source empty>"
	}
	last := lines[len(lines)-1]
	lines = append(lines, caretLine(last, e.Pos.Col))
	return "\n" + strings.Join(lines, "\n")
}

// caretLine pads up to the display width of the line prefix before col so
// the caret stays aligned across tabs and wide runes.
func caretLine(line string, col uint32) string {
	prefix := line
	if int(col) < len(line) {
		prefix = line[:col]
	}
	width := 0
	for _, r := range prefix {
		if r == '\t' {
			width += 8 - width%8
			continue
		}
		width += runewidth.RuneWidth(r)
	}
	return strings.Repeat(" ", width) + "^"
}
