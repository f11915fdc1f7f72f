package lexer_test

import (
	"testing"

	"github.com/recht/triton/internal/lexer"
	"github.com/recht/triton/internal/source"
)

func scan(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.Scan(source.NewBuffer("kernel.py", []byte(src)))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return toks
}

func kinds(toks []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func expectKinds(t *testing.T, got []lexer.Token, want []lexer.Kind) {
	t.Helper()
	gk := kinds(got)
	if len(gk) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(gk), gk, len(want), want)
	}
	for i := range want {
		if gk[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (all: %v)", i, gk[i], want[i], gk)
		}
	}
}

func TestScanSimpleDef(t *testing.T) {
	toks := scan(t, "def f(x):\n    return x\n")
	expectKinds(t, toks, []lexer.Kind{
		lexer.KwDef, lexer.Ident, lexer.LParen, lexer.Ident, lexer.RParen,
		lexer.Colon, lexer.Newline,
		lexer.Indent, lexer.KwReturn, lexer.Ident, lexer.Newline,
		lexer.Dedent, lexer.EOF,
	})
}

func TestScanNestedDedents(t *testing.T) {
	src := "if a:\n    if b:\n        pass\nelse:\n    pass\n"
	toks := scan(t, src)
	expectKinds(t, toks, []lexer.Kind{
		lexer.KwIf, lexer.Ident, lexer.Colon, lexer.Newline,
		lexer.Indent, lexer.KwIf, lexer.Ident, lexer.Colon, lexer.Newline,
		lexer.Indent, lexer.KwPass, lexer.Newline,
		lexer.Dedent, lexer.Dedent,
		lexer.KwElse, lexer.Colon, lexer.Newline,
		lexer.Indent, lexer.KwPass, lexer.Newline,
		lexer.Dedent, lexer.EOF,
	})
}

func TestScanBracketsSuppressLayout(t *testing.T) {
	src := "f(a,\n  b,\n  c)\n"
	toks := scan(t, src)
	for _, tk := range toks {
		if tk.Kind == lexer.Indent || tk.Kind == lexer.Dedent {
			t.Fatalf("layout token %v emitted inside brackets", tk.Kind)
		}
	}
	expectKinds(t, toks, []lexer.Kind{
		lexer.Ident, lexer.LParen, lexer.Ident, lexer.Comma,
		lexer.Ident, lexer.Comma, lexer.Ident, lexer.RParen,
		lexer.Newline, lexer.EOF,
	})
}

func TestScanBlankAndCommentLines(t *testing.T) {
	src := "x = 1\n\n# a comment\n    # indented comment\ny = 2\n"
	toks := scan(t, src)
	expectKinds(t, toks, []lexer.Kind{
		lexer.Ident, lexer.Assign, lexer.IntLit, lexer.Newline,
		lexer.Ident, lexer.Assign, lexer.IntLit, lexer.Newline,
		lexer.EOF,
	})
}

func TestScanNumbers(t *testing.T) {
	cases := []struct {
		src     string
		kind    lexer.Kind
		wantInt int64
		wantF   float64
	}{
		{"42", lexer.IntLit, 42, 0},
		{"0x1F", lexer.IntLit, 31, 0},
		{"1_000", lexer.IntLit, 1000, 0},
		{"3.5", lexer.FloatLit, 0, 3.5},
		{"1e3", lexer.FloatLit, 0, 1000},
		{"2.5e-1", lexer.FloatLit, 0, 0.25},
		{".5", lexer.FloatLit, 0, 0.5},
	}
	for _, tc := range cases {
		toks := scan(t, tc.src+"\n")
		if toks[0].Kind != tc.kind {
			t.Fatalf("%q: kind %v, want %v", tc.src, toks[0].Kind, tc.kind)
		}
		if tc.kind == lexer.IntLit && toks[0].Int != tc.wantInt {
			t.Fatalf("%q: int %d, want %d", tc.src, toks[0].Int, tc.wantInt)
		}
		if tc.kind == lexer.FloatLit && toks[0].Float != tc.wantF {
			t.Fatalf("%q: float %g, want %g", tc.src, toks[0].Float, tc.wantF)
		}
	}
}

func TestScanOperators(t *testing.T) {
	toks := scan(t, "a //= b << 2 ** c != d\n")
	expectKinds(t, toks, []lexer.Kind{
		lexer.Ident, lexer.SlashSlashAssign, lexer.Ident, lexer.Shl,
		lexer.IntLit, lexer.StarStar, lexer.Ident, lexer.BangEq,
		lexer.Ident, lexer.Newline, lexer.EOF,
	})
}

func TestScanString(t *testing.T) {
	toks := scan(t, `msg = "hi\n"` + "\n")
	if toks[2].Kind != lexer.StringLit || toks[2].Text != "hi\n" {
		t.Fatalf("got %v %q", toks[2].Kind, toks[2].Text)
	}
}

func TestScanPositions(t *testing.T) {
	toks := scan(t, "x = 1\ny = 2\n")
	if toks[0].Pos.Line != 1 || toks[0].Pos.Col != 0 {
		t.Fatalf("x at %d:%d", toks[0].Pos.Line, toks[0].Pos.Col)
	}
	// y follows the first newline
	var y lexer.Token
	for _, tk := range toks {
		if tk.Kind == lexer.Ident && tk.Text == "y" {
			y = tk
		}
	}
	if y.Pos.Line != 2 || y.Pos.Col != 0 {
		t.Fatalf("y at %d:%d", y.Pos.Line, y.Pos.Col)
	}
}

func TestScanBadDedent(t *testing.T) {
	_, err := lexer.Scan(source.NewBuffer("k.py", []byte("if a:\n        pass\n    pass\n")))
	if err == nil {
		t.Fatal("expected dedent mismatch error")
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := lexer.Scan(source.NewBuffer("k.py", []byte("x = \"oops\n")))
	if err == nil {
		t.Fatal("expected unterminated string error")
	}
}

func TestScanLineContinuation(t *testing.T) {
	toks := scan(t, "x = 1 + \\\n    2\n")
	expectKinds(t, toks, []lexer.Kind{
		lexer.Ident, lexer.Assign, lexer.IntLit, lexer.Plus,
		lexer.IntLit, lexer.Newline, lexer.EOF,
	})
}
