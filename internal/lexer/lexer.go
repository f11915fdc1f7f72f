// Package lexer tokenizes kernel source text. Indentation is significant:
// the lexer emits Indent/Dedent pairs the same way the kernel language's
// block structure nests, and suppresses layout tokens inside brackets.
package lexer

import (
	"strconv"
	"strings"

	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/source"
)

type lexer struct {
	buf  *source.Buffer
	src  []byte
	off  int
	line uint32
	col  uint32

	indents []int
	depth   int // bracket nesting; layout is off inside brackets
	toks    []Token
}

// Scan tokenizes the whole buffer.
func Scan(buf *source.Buffer) ([]Token, error) {
	lx := &lexer{
		buf:     buf,
		src:     buf.Content,
		line:    1,
		indents: []int{0},
	}
	if err := lx.run(); err != nil {
		err.SetSource(buf)
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) pos() source.Pos {
	return source.Pos{Line: lx.line, Col: lx.col}
}

func (lx *lexer) errorf(format string, args ...any) *diag.Error {
	return diag.Errorf(diag.Syntax, lx.pos(), format, args...)
}

func (lx *lexer) emit(kind Kind, pos source.Pos, text string) {
	lx.toks = append(lx.toks, Token{Kind: kind, Pos: pos, Text: text})
}

func (lx *lexer) peek() byte {
	if lx.off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off]
}

func (lx *lexer) peekAt(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+n]
}

func (lx *lexer) advance() byte {
	c := lx.src[lx.off]
	lx.off++
	if c == '\n' {
		lx.line++
		lx.col = 0
	} else {
		lx.col++
	}
	return c
}

func (lx *lexer) run() *diag.Error {
	atLineStart := true
	for lx.off < len(lx.src) {
		if atLineStart && lx.depth == 0 {
			blank, err := lx.handleIndent()
			if err != nil {
				return err
			}
			atLineStart = false
			if blank {
				atLineStart = true
				continue
			}
			if lx.off >= len(lx.src) {
				break
			}
		}
		c := lx.peek()
		switch {
		case c == '\n':
			lx.advance()
			if lx.depth == 0 {
				lx.emit(Newline, lx.pos(), "")
				atLineStart = true
			}
		case c == ' ' || c == '\t':
			lx.advance()
		case c == '#':
			for lx.off < len(lx.src) && lx.peek() != '\n' {
				lx.advance()
			}
		case c == '\\' && lx.peekAt(1) == '\n':
			lx.advance()
			lx.advance()
		case isDigit(c) || (c == '.' && isDigit(lx.peekAt(1))):
			if err := lx.scanNumber(); err != nil {
				return err
			}
		case isIdentStart(c):
			lx.scanIdent()
		case c == '"' || c == '\'':
			if err := lx.scanString(); err != nil {
				return err
			}
		default:
			if err := lx.scanOperator(); err != nil {
				return err
			}
		}
	}
	// close the final line and any open blocks
	if n := len(lx.toks); n > 0 && lx.toks[n-1].Kind != Newline {
		lx.emit(Newline, lx.pos(), "")
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(Dedent, lx.pos(), "")
	}
	lx.emit(EOF, lx.pos(), "")
	return nil
}

// handleIndent measures leading whitespace and emits Indent/Dedent tokens.
// Returns true for blank or comment-only lines, which do not affect layout.
func (lx *lexer) handleIndent() (bool, *diag.Error) {
	width := 0
	for lx.off < len(lx.src) {
		switch lx.peek() {
		case ' ':
			width++
		case '\t':
			width += 8 - width%8
		default:
			goto measured
		}
		lx.advance()
	}
measured:
	if lx.off >= len(lx.src) {
		return true, nil
	}
	if c := lx.peek(); c == '\n' || c == '#' {
		if c == '#' {
			for lx.off < len(lx.src) && lx.peek() != '\n' {
				lx.advance()
			}
		}
		if lx.off < len(lx.src) {
			lx.advance() // consume the newline
		}
		return true, nil
	}
	cur := lx.indents[len(lx.indents)-1]
	switch {
	case width > cur:
		lx.indents = append(lx.indents, width)
		lx.emit(Indent, lx.pos(), "")
	case width < cur:
		for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > width {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.emit(Dedent, lx.pos(), "")
		}
		if lx.indents[len(lx.indents)-1] != width {
			return false, lx.errorf("unindent does not match any outer indentation level")
		}
	}
	return false, nil
}

func (lx *lexer) scanIdent() {
	pos := lx.pos()
	start := lx.off
	for lx.off < len(lx.src) && isIdentCont(lx.peek()) {
		lx.advance()
	}
	text := string(lx.src[start:lx.off])
	if kw, ok := keywords[text]; ok {
		lx.emit(kw, pos, text)
		return
	}
	lx.emit(Ident, pos, text)
}

func (lx *lexer) scanNumber() *diag.Error {
	pos := lx.pos()
	start := lx.off
	isFloat := false
	if lx.peek() == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X') {
		lx.advance()
		lx.advance()
		for lx.off < len(lx.src) && (isHexDigit(lx.peek()) || lx.peek() == '_') {
			lx.advance()
		}
	} else {
		for lx.off < len(lx.src) && (isDigit(lx.peek()) || lx.peek() == '_') {
			lx.advance()
		}
		if lx.peek() == '.' && lx.peekAt(1) != '.' {
			isFloat = true
			lx.advance()
			for lx.off < len(lx.src) && (isDigit(lx.peek()) || lx.peek() == '_') {
				lx.advance()
			}
		}
		if c := lx.peek(); c == 'e' || c == 'E' {
			isFloat = true
			lx.advance()
			if c := lx.peek(); c == '+' || c == '-' {
				lx.advance()
			}
			for lx.off < len(lx.src) && isDigit(lx.peek()) {
				lx.advance()
			}
		}
	}
	text := strings.ReplaceAll(string(lx.src[start:lx.off]), "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return diag.Errorf(diag.Syntax, pos, "bad float literal %q", text)
		}
		lx.toks = append(lx.toks, Token{Kind: FloatLit, Pos: pos, Text: text, Float: f})
		return nil
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return diag.Errorf(diag.Syntax, pos, "bad integer literal %q", text)
	}
	lx.toks = append(lx.toks, Token{Kind: IntLit, Pos: pos, Text: text, Int: v})
	return nil
}

func (lx *lexer) scanString() *diag.Error {
	pos := lx.pos()
	quote := lx.advance()
	var sb strings.Builder
	for {
		if lx.off >= len(lx.src) || lx.peek() == '\n' {
			return diag.Errorf(diag.Syntax, pos, "unterminated string literal")
		}
		c := lx.advance()
		if c == quote {
			break
		}
		if c == '\\' && lx.off < len(lx.src) {
			switch e := lx.advance(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '\'', '"':
				sb.WriteByte(e)
			default:
				return diag.Errorf(diag.Syntax, pos, "unsupported escape \\%c", e)
			}
			continue
		}
		sb.WriteByte(c)
	}
	lx.toks = append(lx.toks, Token{Kind: StringLit, Pos: pos, Text: sb.String()})
	return nil
}

func (lx *lexer) scanOperator() *diag.Error {
	pos := lx.pos()
	two := ""
	if lx.off+1 < len(lx.src) {
		two = string(lx.src[lx.off : lx.off+2])
	}
	three := ""
	if lx.off+2 < len(lx.src) {
		three = string(lx.src[lx.off : lx.off+3])
	}
	if k, ok := threeCharOps[three]; ok {
		lx.advance()
		lx.advance()
		lx.advance()
		lx.emit(k, pos, three)
		return nil
	}
	if k, ok := twoCharOps[two]; ok {
		lx.advance()
		lx.advance()
		lx.emit(k, pos, two)
		return nil
	}
	c := lx.peek()
	if k, ok := oneCharOps[c]; ok {
		lx.advance()
		switch k {
		case LParen, LBracket:
			lx.depth++
		case RParen, RBracket:
			if lx.depth > 0 {
				lx.depth--
			}
		}
		lx.emit(k, pos, string(c))
		return nil
	}
	return lx.errorf("unexpected character %q", string(c))
}

var threeCharOps = map[string]Kind{
	"//=": SlashSlashAssign,
	"<<=": ShlAssign,
	">>=": ShrAssign,
}

var twoCharOps = map[string]Kind{
	"**": StarStar,
	"//": SlashSlash,
	"<<": Shl,
	">>": Shr,
	"<=": LtEq,
	">=": GtEq,
	"==": EqEq,
	"!=": BangEq,
	"+=": PlusAssign,
	"-=": MinusAssign,
	"*=": StarAssign,
	"/=": SlashAssign,
	"%=": PercentAssign,
	"&=": AmpAssign,
	"|=": PipeAssign,
	"^=": CaretAssign,
}

var oneCharOps = map[byte]Kind{
	'+': Plus, '-': Minus, '*': Star, '/': Slash, '%': Percent,
	'&': Amp, '|': Pipe, '^': Caret, '~': Tilde,
	'<': Lt, '>': Gt, '=': Assign,
	'(': LParen, ')': RParen, '[': LBracket, ']': RBracket,
	',': Comma, ':': Colon, '.': Dot,
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }
