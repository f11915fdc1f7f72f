// Package parser builds the kernel syntax tree from a token stream.
// Grammar restrictions that exist for the sake of the translator, such
// as the ban on chained comparisons, are enforced here so later stages
// only see a shape they can lower.
package parser

import (
	"strings"

	"github.com/recht/triton/internal/ast"
	"github.com/recht/triton/internal/diag"
	"github.com/recht/triton/internal/lexer"
	"github.com/recht/triton/internal/source"
)

type parser struct {
	buf  *source.Buffer
	toks []lexer.Token
	pos  int
}

// Parse lexes and parses a complete kernel source buffer.
func Parse(buf *source.Buffer) (*ast.Module, error) {
	toks, err := lexer.Scan(buf)
	if err != nil {
		return nil, err
	}
	p := &parser{buf: buf, toks: toks}
	mod, perr := p.parseModule()
	if perr != nil {
		perr.SetSource(buf)
		return nil, perr
	}
	mod.Src = buf
	return mod, nil
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) at(k lexer.Kind) bool { return p.toks[p.pos].Kind == k }

func (p *parser) advance() lexer.Token {
	tk := p.toks[p.pos]
	if tk.Kind != lexer.EOF {
		p.pos++
	}
	return tk
}

func (p *parser) accept(k lexer.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(k lexer.Kind) (lexer.Token, *diag.Error) {
	if !p.at(k) {
		return lexer.Token{}, p.errorf("expected %v, found %v", k, p.cur().Kind)
	}
	return p.advance(), nil
}

func (p *parser) errorf(format string, args ...any) *diag.Error {
	return diag.Errorf(diag.Syntax, p.cur().Pos, format, args...)
}

func (p *parser) parseModule() (*ast.Module, *diag.Error) {
	mod := &ast.Module{}
	for !p.at(lexer.EOF) {
		if p.accept(lexer.Newline) {
			continue
		}
		fn, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		if mod.Func(fn.Name) != nil {
			return nil, diag.Errorf(diag.Redefinition, fn.Pos, "function %q is already defined", fn.Name)
		}
		mod.Funcs = append(mod.Funcs, fn)
	}
	return mod, nil
}

func (p *parser) parseFuncDef() (*ast.FuncDef, *diag.Error) {
	kw, err := p.expect(lexer.KwDef)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	fn := &ast.FuncDef{Name: name.Text, Pos: kw.Pos, Src: p.buf}
	for !p.at(lexer.RParen) {
		param, perr := p.parseParam()
		if perr != nil {
			return nil, perr
		}
		fn.Params = append(fn.Params, param)
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

// parseParam reads one parameter, with an optional annotation and default.
// An annotation whose last component is "constexpr" marks the parameter as
// compile-time.
func (p *parser) parseParam() (ast.Param, *diag.Error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.Param{}, err
	}
	param := ast.Param{Name: name.Text, Pos: name.Pos}
	if p.accept(lexer.Colon) {
		ann, aerr := p.parseDottedName()
		if aerr != nil {
			return ast.Param{}, aerr
		}
		param.Constexpr = strings.HasSuffix(ann, "constexpr")
	}
	if p.accept(lexer.Assign) {
		def, derr := p.parseTernary()
		if derr != nil {
			return ast.Param{}, derr
		}
		param.Default = def
	}
	return param, nil
}

func (p *parser) parseDottedName() (string, *diag.Error) {
	id, err := p.expect(lexer.Ident)
	if err != nil {
		return "", err
	}
	name := id.Text
	for p.accept(lexer.Dot) {
		id, err = p.expect(lexer.Ident)
		if err != nil {
			return "", err
		}
		name += "." + id.Text
	}
	return name, nil
}

// parseBlock reads ":" Newline Indent stmt+ Dedent.
func (p *parser) parseBlock() ([]*ast.Stmt, *diag.Error) {
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Newline); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Indent); err != nil {
		return nil, err
	}
	var body []*ast.Stmt
	for !p.at(lexer.Dedent) && !p.at(lexer.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := p.expect(lexer.Dedent); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *parser) parseStmt() (*ast.Stmt, *diag.Error) {
	switch p.cur().Kind {
	case lexer.KwIf:
		return p.parseIf()
	case lexer.KwWhile:
		return p.parseWhile()
	case lexer.KwFor:
		return p.parseFor()
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwAssert:
		return p.parseAssert()
	case lexer.KwPass:
		tk := p.advance()
		if _, err := p.expect(lexer.Newline); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtPass, Pos: tk.Pos}, nil
	case lexer.KwBreak:
		tk := p.advance()
		if _, err := p.expect(lexer.Newline); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtBreak, Pos: tk.Pos}, nil
	case lexer.KwContinue:
		tk := p.advance()
		if _, err := p.expect(lexer.Newline); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtContinue, Pos: tk.Pos}, nil
	default:
		return p.parseSimpleStmt()
	}
}

func (p *parser) parseIf() (*ast.Stmt, *diag.Error) {
	kw := p.advance()
	cond, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Stmt{Kind: ast.StmtIf, Pos: kw.Pos, Cond: cond, Body: body}
	switch {
	case p.at(lexer.KwElif):
		nested, nerr := p.parseIf() // consumes the elif as a fresh if
		if nerr != nil {
			return nil, nerr
		}
		stmt.Orelse = []*ast.Stmt{nested}
	case p.accept(lexer.KwElse):
		orelse, oerr := p.parseBlock()
		if oerr != nil {
			return nil, oerr
		}
		stmt.Orelse = orelse
	}
	return stmt, nil
}

func (p *parser) parseWhile() (*ast.Stmt, *diag.Error) {
	kw := p.advance()
	cond, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if p.at(lexer.KwElse) {
		return nil, diag.Errorf(diag.Unsupported, p.cur().Pos, "else clause on a while loop is not supported")
	}
	return &ast.Stmt{Kind: ast.StmtWhile, Pos: kw.Pos, Cond: cond, Body: body}, nil
}

func (p *parser) parseFor() (*ast.Stmt, *diag.Error) {
	kw := p.advance()
	target, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if target.Kind != ast.ExprName {
		return nil, diag.Errorf(diag.Unsupported, target.Pos, "only a plain name may be used as a loop variable")
	}
	if _, err := p.expect(lexer.KwIn); err != nil {
		return nil, err
	}
	iter, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if p.at(lexer.KwElse) {
		return nil, diag.Errorf(diag.Unsupported, p.cur().Pos, "else clause on a for loop is not supported")
	}
	return &ast.Stmt{Kind: ast.StmtFor, Pos: kw.Pos, Target: target, Iter: iter, Body: body}, nil
}

func (p *parser) parseReturn() (*ast.Stmt, *diag.Error) {
	kw := p.advance()
	stmt := &ast.Stmt{Kind: ast.StmtReturn, Pos: kw.Pos}
	if !p.at(lexer.Newline) {
		value, err := p.parseExprOrTuple()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}
	if _, err := p.expect(lexer.Newline); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseAssert() (*ast.Stmt, *diag.Error) {
	kw := p.advance()
	cond, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Stmt{Kind: ast.StmtAssert, Pos: kw.Pos, Cond: cond}
	if p.accept(lexer.Comma) {
		msg, merr := p.parseTernary()
		if merr != nil {
			return nil, merr
		}
		stmt.Msg = msg
	}
	if _, err := p.expect(lexer.Newline); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseSimpleStmt handles expression statements and every assignment form.
func (p *parser) parseSimpleStmt() (*ast.Stmt, *diag.Error) {
	pos := p.cur().Pos
	first, err := p.parseExprOrTuple()
	if err != nil {
		return nil, err
	}
	switch {
	case p.at(lexer.Assign):
		exprs := []*ast.Expr{first}
		for p.accept(lexer.Assign) {
			e, eerr := p.parseExprOrTuple()
			if eerr != nil {
				return nil, eerr
			}
			exprs = append(exprs, e)
		}
		stmt := &ast.Stmt{
			Kind:    ast.StmtAssign,
			Pos:     pos,
			Targets: exprs[:len(exprs)-1],
			Value:   exprs[len(exprs)-1],
		}
		if _, err := p.expect(lexer.Newline); err != nil {
			return nil, err
		}
		return stmt, nil
	case p.at(lexer.Colon):
		p.advance()
		if first.Kind != ast.ExprName {
			return nil, diag.Errorf(diag.Syntax, first.Pos, "only a plain name may carry an annotation")
		}
		ann, aerr := p.parseDottedName()
		if aerr != nil {
			return nil, aerr
		}
		stmt := &ast.Stmt{Kind: ast.StmtAnnAssign, Pos: pos, Target: first, Annotation: ann}
		if p.accept(lexer.Assign) {
			value, verr := p.parseExprOrTuple()
			if verr != nil {
				return nil, verr
			}
			stmt.Value = value
		}
		if _, err := p.expect(lexer.Newline); err != nil {
			return nil, err
		}
		return stmt, nil
	default:
		if op, ok := augOps[p.cur().Kind]; ok {
			p.advance()
			value, verr := p.parseExprOrTuple()
			if verr != nil {
				return nil, verr
			}
			stmt := &ast.Stmt{Kind: ast.StmtAugAssign, Pos: pos, Target: first, Op: op, Value: value}
			if _, err := p.expect(lexer.Newline); err != nil {
				return nil, err
			}
			return stmt, nil
		}
		if _, err := p.expect(lexer.Newline); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtExpr, Pos: pos, Value: first}, nil
	}
}

var augOps = map[lexer.Kind]ast.Op{
	lexer.PlusAssign:       ast.OpAdd,
	lexer.MinusAssign:      ast.OpSub,
	lexer.StarAssign:       ast.OpMul,
	lexer.SlashAssign:      ast.OpDiv,
	lexer.SlashSlashAssign: ast.OpFloorDiv,
	lexer.PercentAssign:    ast.OpMod,
	lexer.AmpAssign:        ast.OpBitAnd,
	lexer.PipeAssign:       ast.OpBitOr,
	lexer.CaretAssign:      ast.OpBitXor,
	lexer.ShlAssign:        ast.OpLShift,
	lexer.ShrAssign:        ast.OpRShift,
}

// parseExprOrTuple parses "a, b, c" as a tuple and a single expression
// as itself.
func (p *parser) parseExprOrTuple() (*ast.Expr, *diag.Error) {
	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.Comma) {
		return first, nil
	}
	tuple := &ast.Expr{Kind: ast.ExprTuple, Pos: first.Pos, Elems: []*ast.Expr{first}}
	for p.accept(lexer.Comma) {
		if p.exprEnds() {
			break // trailing comma
		}
		e, eerr := p.parseTernary()
		if eerr != nil {
			return nil, eerr
		}
		tuple.Elems = append(tuple.Elems, e)
	}
	return tuple, nil
}

func (p *parser) exprEnds() bool {
	switch p.cur().Kind {
	case lexer.Newline, lexer.RParen, lexer.RBracket, lexer.Colon, lexer.Assign, lexer.EOF:
		return true
	}
	return false
}

// Expression precedence, loosest first: ternary, or, and, not,
// comparison, |, ^, &, shifts, additive, multiplicative, unary, **,
// postfix, atom.

func (p *parser) parseTernary() (*ast.Expr, *diag.Error) {
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.accept(lexer.KwIf) {
		return body, nil
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KwElse); err != nil {
		return nil, err
	}
	orelse, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.ExprCond, Pos: body.Pos, Cond: cond, X: body, Y: orelse}, nil
}

func (p *parser) parseOr() (*ast.Expr, *diag.Error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if !p.accept(lexer.KwOr) {
		return x, nil
	}
	y, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.at(lexer.KwOr) {
		return nil, diag.Errorf(diag.Unsupported, p.cur().Pos,
			"chained boolean operators (A or B or C) are not supported; use parentheses to split the chain")
	}
	return &ast.Expr{Kind: ast.ExprBool, Pos: x.Pos, Op: ast.OpOr, X: x, Y: y}, nil
}

func (p *parser) parseAnd() (*ast.Expr, *diag.Error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if !p.accept(lexer.KwAnd) {
		return x, nil
	}
	y, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if p.at(lexer.KwAnd) {
		return nil, diag.Errorf(diag.Unsupported, p.cur().Pos,
			"chained boolean operators (A and B and C) are not supported; use parentheses to split the chain")
	}
	return &ast.Expr{Kind: ast.ExprBool, Pos: x.Pos, Op: ast.OpAnd, X: x, Y: y}, nil
}

func (p *parser) parseNot() (*ast.Expr, *diag.Error) {
	if tk := p.cur(); tk.Kind == lexer.KwNot {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprUnary, Pos: tk.Pos, Op: ast.OpNot, X: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*ast.Expr, *diag.Error) {
	x, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	op := p.compareOp()
	if op == ast.OpInvalid {
		return x, nil
	}
	y, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	if p.compareOpAhead() {
		return nil, diag.Errorf(diag.Unsupported, p.cur().Pos,
			"simultaneous multiple comparison is not supported")
	}
	return &ast.Expr{Kind: ast.ExprCompare, Pos: x.Pos, Op: op, X: x, Y: y}, nil
}

// compareOp consumes and returns the comparison operator at the cursor,
// or OpInvalid if there is none.
func (p *parser) compareOp() ast.Op {
	switch p.cur().Kind {
	case lexer.EqEq:
		p.advance()
		return ast.OpEq
	case lexer.BangEq:
		p.advance()
		return ast.OpNe
	case lexer.Lt:
		p.advance()
		return ast.OpLt
	case lexer.LtEq:
		p.advance()
		return ast.OpLe
	case lexer.Gt:
		p.advance()
		return ast.OpGt
	case lexer.GtEq:
		p.advance()
		return ast.OpGe
	case lexer.KwIs:
		p.advance()
		if p.accept(lexer.KwNot) {
			return ast.OpIsNot
		}
		return ast.OpIs
	}
	return ast.OpInvalid
}

func (p *parser) compareOpAhead() bool {
	switch p.cur().Kind {
	case lexer.EqEq, lexer.BangEq, lexer.Lt, lexer.LtEq, lexer.Gt, lexer.GtEq, lexer.KwIs:
		return true
	}
	return false
}

func (p *parser) parseBitOr() (*ast.Expr, *diag.Error) {
	return p.parseBinaryLevel(p.parseBitXor, map[lexer.Kind]ast.Op{lexer.Pipe: ast.OpBitOr})
}

func (p *parser) parseBitXor() (*ast.Expr, *diag.Error) {
	return p.parseBinaryLevel(p.parseBitAnd, map[lexer.Kind]ast.Op{lexer.Caret: ast.OpBitXor})
}

func (p *parser) parseBitAnd() (*ast.Expr, *diag.Error) {
	return p.parseBinaryLevel(p.parseShift, map[lexer.Kind]ast.Op{lexer.Amp: ast.OpBitAnd})
}

func (p *parser) parseShift() (*ast.Expr, *diag.Error) {
	return p.parseBinaryLevel(p.parseAdditive, map[lexer.Kind]ast.Op{
		lexer.Shl: ast.OpLShift,
		lexer.Shr: ast.OpRShift,
	})
}

func (p *parser) parseAdditive() (*ast.Expr, *diag.Error) {
	return p.parseBinaryLevel(p.parseMultiplicative, map[lexer.Kind]ast.Op{
		lexer.Plus:  ast.OpAdd,
		lexer.Minus: ast.OpSub,
	})
}

func (p *parser) parseMultiplicative() (*ast.Expr, *diag.Error) {
	return p.parseBinaryLevel(p.parseUnary, map[lexer.Kind]ast.Op{
		lexer.Star:       ast.OpMul,
		lexer.Slash:      ast.OpDiv,
		lexer.SlashSlash: ast.OpFloorDiv,
		lexer.Percent:    ast.OpMod,
	})
}

func (p *parser) parseBinaryLevel(next func() (*ast.Expr, *diag.Error), ops map[lexer.Kind]ast.Op) (*ast.Expr, *diag.Error) {
	x, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.cur().Kind]
		if !ok {
			return x, nil
		}
		p.advance()
		y, yerr := next()
		if yerr != nil {
			return nil, yerr
		}
		x = &ast.Expr{Kind: ast.ExprBinary, Pos: x.Pos, Op: op, X: x, Y: y}
	}
}

func (p *parser) parseUnary() (*ast.Expr, *diag.Error) {
	var op ast.Op
	switch p.cur().Kind {
	case lexer.Minus:
		op = ast.OpNeg
	case lexer.Plus:
		op = ast.OpPos
	case lexer.Tilde:
		op = ast.OpInvert
	default:
		return p.parsePower()
	}
	tk := p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	// fold the sign into numeric literals so constant parameters stay
	// constants through specialization
	if op == ast.OpNeg {
		switch operand.Kind {
		case ast.ExprIntLit:
			return &ast.Expr{Kind: ast.ExprIntLit, Pos: tk.Pos, Int: -operand.Int}, nil
		case ast.ExprFloatLit:
			return &ast.Expr{Kind: ast.ExprFloatLit, Pos: tk.Pos, Float: -operand.Float}, nil
		}
	}
	return &ast.Expr{Kind: ast.ExprUnary, Pos: tk.Pos, Op: op, X: operand}, nil
}

func (p *parser) parsePower() (*ast.Expr, *diag.Error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.accept(lexer.StarStar) {
		return base, nil
	}
	exp, err := p.parseUnary() // right associative, unary binds on the right
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.ExprBinary, Pos: base.Pos, Op: ast.OpPow, X: base, Y: exp}, nil
}

func (p *parser) parsePostfix() (*ast.Expr, *diag.Error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lexer.LParen:
			x, err = p.parseCall(x)
		case lexer.LBracket:
			x, err = p.parseSubscript(x)
		case lexer.Dot:
			p.advance()
			attr, aerr := p.expect(lexer.Ident)
			if aerr != nil {
				return nil, aerr
			}
			x = &ast.Expr{Kind: ast.ExprAttribute, Pos: x.Pos, Value: x, Attr: attr.Text}
		default:
			return x, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseCall(fn *ast.Expr) (*ast.Expr, *diag.Error) {
	p.advance() // (
	call := &ast.Expr{Kind: ast.ExprCall, Pos: fn.Pos, Func: fn}
	for !p.at(lexer.RParen) {
		// keyword argument: Ident "=" value
		if p.at(lexer.Ident) && p.toks[p.pos+1].Kind == lexer.Assign {
			name := p.advance()
			p.advance() // =
			value, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			call.Kwargs = append(call.Kwargs, ast.Kwarg{Name: name.Text, Value: value})
		} else {
			if len(call.Kwargs) > 0 {
				return nil, p.errorf("positional argument follows keyword argument")
			}
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseSubscript(value *ast.Expr) (*ast.Expr, *diag.Error) {
	p.advance() // [
	var elems []*ast.Expr
	for !p.at(lexer.RBracket) {
		elem, err := p.parseSliceItem()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if _, err := p.expect(lexer.RBracket); err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, p.errorf("empty subscript")
	}
	index := elems[0]
	if len(elems) > 1 {
		index = &ast.Expr{Kind: ast.ExprTuple, Pos: elems[0].Pos, Elems: elems}
	}
	return &ast.Expr{Kind: ast.ExprSubscript, Pos: value.Pos, Value: value, Index: index}, nil
}

// parseSliceItem parses one subscript element: an expression, or a slice
// with any of its three parts omitted.
func (p *parser) parseSliceItem() (*ast.Expr, *diag.Error) {
	pos := p.cur().Pos
	var lower *ast.Expr
	if !p.at(lexer.Colon) {
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		lower = e
	}
	if !p.accept(lexer.Colon) {
		return lower, nil
	}
	slice := &ast.Expr{Kind: ast.ExprSlice, Pos: pos, Lower: lower}
	if !p.at(lexer.Colon) && !p.at(lexer.Comma) && !p.at(lexer.RBracket) {
		upper, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		slice.Upper = upper
	}
	if p.accept(lexer.Colon) {
		if !p.at(lexer.Comma) && !p.at(lexer.RBracket) {
			step, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			slice.Step = step
		}
	}
	return slice, nil
}

func (p *parser) parseAtom() (*ast.Expr, *diag.Error) {
	tk := p.cur()
	switch tk.Kind {
	case lexer.IntLit:
		p.advance()
		return &ast.Expr{Kind: ast.ExprIntLit, Pos: tk.Pos, Int: tk.Int}, nil
	case lexer.FloatLit:
		p.advance()
		return &ast.Expr{Kind: ast.ExprFloatLit, Pos: tk.Pos, Float: tk.Float}, nil
	case lexer.StringLit:
		p.advance()
		return &ast.Expr{Kind: ast.ExprStringLit, Pos: tk.Pos, Str: tk.Text}, nil
	case lexer.KwTrue:
		p.advance()
		return &ast.Expr{Kind: ast.ExprBoolLit, Pos: tk.Pos, Bool: true}, nil
	case lexer.KwFalse:
		p.advance()
		return &ast.Expr{Kind: ast.ExprBoolLit, Pos: tk.Pos, Bool: false}, nil
	case lexer.KwNone:
		p.advance()
		return &ast.Expr{Kind: ast.ExprNoneLit, Pos: tk.Pos}, nil
	case lexer.Ident:
		p.advance()
		return &ast.Expr{Kind: ast.ExprName, Pos: tk.Pos, Name: tk.Text}, nil
	case lexer.LParen:
		p.advance()
		inner, err := p.parseExprOrTuple()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.LBracket:
		p.advance()
		list := &ast.Expr{Kind: ast.ExprList, Pos: tk.Pos}
		for !p.at(lexer.RBracket) {
			e, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			list.Elems = append(list.Elems, e)
			if !p.accept(lexer.Comma) {
				break
			}
		}
		if _, err := p.expect(lexer.RBracket); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, p.errorf("expected an expression, found %v", tk.Kind)
	}
}
