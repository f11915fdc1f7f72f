package lexer

import (
	"fmt"

	"github.com/recht/triton/internal/source"
)

// Kind enumerates token kinds of the kernel language.
type Kind uint8

const (
	EOF Kind = iota
	Newline
	Indent
	Dedent

	Ident
	IntLit
	FloatLit
	StringLit

	// keywords
	KwDef
	KwReturn
	KwIf
	KwElif
	KwElse
	KwWhile
	KwFor
	KwIn
	KwPass
	KwAssert
	KwAnd
	KwOr
	KwNot
	KwIs
	KwTrue
	KwFalse
	KwNone
	KwBreak
	KwContinue

	// operators and punctuation
	Plus
	Minus
	Star
	StarStar
	Slash
	SlashSlash
	Percent
	Shl
	Shr
	Amp
	Pipe
	Caret
	Tilde
	Lt
	LtEq
	Gt
	GtEq
	EqEq
	BangEq
	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	SlashSlashAssign
	PercentAssign
	AmpAssign
	PipeAssign
	CaretAssign
	ShlAssign
	ShrAssign
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Colon
	Dot
)

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

var kindNames = [...]string{
	EOF: "EOF", Newline: "newline", Indent: "indent", Dedent: "dedent",
	Ident: "identifier", IntLit: "integer literal", FloatLit: "float literal",
	StringLit: "string literal",
	KwDef:   "def", KwReturn: "return", KwIf: "if", KwElif: "elif",
	KwElse:  "else", KwWhile: "while", KwFor: "for", KwIn: "in",
	KwPass:  "pass", KwAssert: "assert", KwAnd: "and", KwOr: "or",
	KwNot:   "not", KwIs: "is", KwTrue: "True", KwFalse: "False",
	KwNone:  "None", KwBreak: "break", KwContinue: "continue",
	Plus: "+", Minus: "-", Star: "*", StarStar: "**", Slash: "/",
	SlashSlash: "//", Percent: "%", Shl: "<<", Shr: ">>", Amp: "&",
	Pipe: "|", Caret: "^", Tilde: "~", Lt: "<", LtEq: "<=", Gt: ">",
	GtEq: ">=", EqEq: "==", BangEq: "!=", Assign: "=",
	PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=",
	SlashAssign: "/=", SlashSlashAssign: "//=", PercentAssign: "%=",
	AmpAssign: "&=", PipeAssign: "|=", CaretAssign: "^=",
	ShlAssign: "<<=", ShrAssign: ">>=",
	LParen: "(", RParen: ")", LBracket: "[", RBracket: "]",
	Comma: ",", Colon: ":", Dot: ".",
}

var keywords = map[string]Kind{
	"def":      KwDef,
	"return":   KwReturn,
	"if":       KwIf,
	"elif":     KwElif,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"in":       KwIn,
	"pass":     KwPass,
	"assert":   KwAssert,
	"and":      KwAnd,
	"or":       KwOr,
	"not":      KwNot,
	"is":       KwIs,
	"True":     KwTrue,
	"False":    KwFalse,
	"None":     KwNone,
	"break":    KwBreak,
	"continue": KwContinue,
}

// Token is one lexed token.
type Token struct {
	Kind  Kind
	Pos   source.Pos
	Text  string
	Int   int64
	Float float64
}
