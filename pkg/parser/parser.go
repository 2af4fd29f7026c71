// Package parser implements the Mica language parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/micalang/mica/pkg/ast"
	"github.com/micalang/mica/pkg/diagnostics"
	"github.com/micalang/mica/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram(filename)
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s, got '%s'", tokenName(typ), tok.Value), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(msg string, span *ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, ""))
}

func (p *parser) spanFrom(start ast.Span) ast.Span {
	cur := p.current().Span
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   cur.StartLine,
		EndCol:    cur.StartCol,
	}
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokLBrace:
		return "'{'"
	case lexer.TokRBrace:
		return "'}'"
	case lexer.TokLBracket:
		return "'['"
	case lexer.TokRBracket:
		return "']'"
	case lexer.TokLParen:
		return "'('"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokComma:
		return "','"
	case lexer.TokEquals:
		return "'='"
	case lexer.TokIn:
		return "'in'"
	case lexer.TokIdent:
		return "identifier"
	case lexer.TokStringLit:
		return "string"
	case lexer.TokIntLit:
		return "integer"
	case lexer.TokEOF:
		return "end of file"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

// --- Program ---

func (p *parser) parseProgram(filename string) *ast.Program {
	startSpan := p.current().Span

	var stmts []ast.Stmt
	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       p.spanFrom(startSpan),
		Statements: stmts,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokLet:
		return p.parseLetStmt()
	case lexer.TokFun:
		return p.parseFunDecl()
	case lexer.TokReturn:
		return p.parseReturnStmt()
	case lexer.TokIf:
		return p.parseIfStmt()
	case lexer.TokWhile:
		return p.parseWhileStmt()
	case lexer.TokFor:
		return p.parseForStmt()
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *parser) parseLetStmt() ast.Stmt {
	start := p.advance() // consume 'let'

	mutable := false
	if p.peek() == lexer.TokAtMut {
		p.advance()
		mutable = true
	}

	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokEquals); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}

	return &ast.LetStmt{
		Span:    p.spanFromTo(start.Span, value.NodeSpan()),
		Name:    nameTok.Value,
		Mutable: mutable,
		Value:   value,
	}
}

func (p *parser) parseFunDecl() ast.Stmt {
	start := p.advance() // consume 'fun'

	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	var params []string
	for p.peek() != lexer.TokRParen {
		paramTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		params = append(params, paramTok.Value)
		if p.peek() == lexer.TokComma {
			p.advance()
		} else {
			break
		}
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	body, ok := p.parseBlock()
	if !ok {
		return nil
	}

	return &ast.FunDecl{
		Span:   p.spanFrom(start.Span),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	start := p.advance() // consume 'return'

	// Bare return: nothing before the enclosing block closes.
	if p.peek() == lexer.TokRBrace || p.peek() == lexer.TokEOF {
		return &ast.ReturnStmt{Span: start.Span}
	}

	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ast.ReturnStmt{
		Span:  p.spanFromTo(start.Span, value.NodeSpan()),
		Value: value,
	}
}

func (p *parser) parseIfStmt() ast.Stmt {
	start := p.advance() // consume 'if'

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	thenBody, ok := p.parseBlock()
	if !ok {
		return nil
	}

	var elseBody []ast.Stmt
	if p.peek() == lexer.TokElse {
		p.advance()
		if p.peek() == lexer.TokIf {
			// else-if chain: wrap the nested if as the sole else statement
			nested := p.parseIfStmt()
			if nested == nil {
				return nil
			}
			elseBody = []ast.Stmt{nested}
		} else {
			elseBody, ok = p.parseBlock()
			if !ok {
				return nil
			}
		}
	}

	return &ast.IfStmt{
		Span:     p.spanFrom(start.Span),
		Cond:     cond,
		ThenBody: thenBody,
		ElseBody: elseBody,
	}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	start := p.advance() // consume 'while'

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}

	return &ast.WhileStmt{
		Span: p.spanFrom(start.Span),
		Cond: cond,
		Body: body,
	}
}

func (p *parser) parseForStmt() ast.Stmt {
	start := p.advance() // consume 'for'

	bindingTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokIn); !ok {
		return nil
	}
	collection := p.parseExpr()
	if collection == nil {
		return nil
	}
	body, ok := p.parseBlock()
	if !ok {
		return nil
	}

	return &ast.ForStmt{
		Span:       p.spanFrom(start.Span),
		Binding:    bindingTok.Value,
		Collection: collection,
		Body:       body,
	}
}

func (p *parser) parseAssignOrExprStmt() ast.Stmt {
	// Assignment: IDENT '=' expr (but not '==')
	if p.peek() == lexer.TokIdent && p.peekAt(1) == lexer.TokEquals {
		nameTok := p.advance()
		p.advance() // consume '='
		value := p.parseExpr()
		if value == nil {
			return nil
		}
		return &ast.AssignStmt{
			Span:  p.spanFromTo(nameTok.Span, value.NodeSpan()),
			Name:  nameTok.Value,
			Value: value,
		}
	}

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{
		Span: expr.NodeSpan(),
		Expr: expr,
	}
}

func (p *parser) parseBlock() ([]ast.Stmt, bool) {
	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil, false
	}
	var stmts []ast.Stmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil, false
		}
		stmts = append(stmts, stmt)
	}
	if _, ok := p.expect(lexer.TokRBrace); !ok {
		return nil, false
	}
	return stmts, true
}

// --- Expressions (precedence climbing, loosest first) ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokOrOr {
		p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpOr,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokAndAnd {
		p.advance()
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpAnd,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokEqEq || p.peek() == lexer.TokBangEq {
		op := ast.OpEqEq
		if p.peek() == lexer.TokBangEq {
			op = ast.OpNeq
		}
		p.advance()
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokGt:
			op = ast.OpGt
		case lexer.TokLt:
			op = ast.OpLt
		case lexer.TokGtEq:
			op = ast.OpGtEq
		case lexer.TokLtEq:
			op = ast.OpLtEq
		default:
			return left
		}
		p.advance()
		right := p.parseAdditive()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokPlus || p.peek() == lexer.TokMinus {
		op := ast.OpAdd
		if p.peek() == lexer.TokMinus {
			op = ast.OpSub
		}
		p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokStar:
			op = ast.OpMul
		case lexer.TokSlash:
			op = ast.OpDiv
		case lexer.TokPercent:
			op = ast.OpMod
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	var op ast.UnaryOp
	switch p.peek() {
	case lexer.TokMinus:
		op = ast.OpNeg
	case lexer.TokBang:
		op = ast.OpNot
	default:
		return p.parsePostfix()
	}
	start := p.advance()
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
		Op:      op,
		Operand: operand,
	}
}

func (p *parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for {
		switch p.peek() {
		case lexer.TokLParen:
			p.advance() // consume '('
			var args []ast.Expr
			for p.peek() != lexer.TokRParen {
				arg := p.parseExpr()
				if arg == nil {
					return nil
				}
				args = append(args, arg)
				if p.peek() == lexer.TokComma {
					p.advance()
				} else {
					break
				}
			}
			closeTok, ok := p.expect(lexer.TokRParen)
			if !ok {
				return nil
			}
			expr = &ast.CallExpr{
				Span:   p.spanFromTo(expr.NodeSpan(), closeTok.Span),
				Callee: expr,
				Args:   args,
			}

		case lexer.TokLBracket:
			p.advance() // consume '['
			index := p.parseExpr()
			if index == nil {
				return nil
			}
			closeTok, ok := p.expect(lexer.TokRBracket)
			if !ok {
				return nil
			}
			expr = &ast.IndexExpr{
				Span:   p.spanFromTo(expr.NodeSpan(), closeTok.Span),
				Target: expr,
				Index:  index,
			}

		default:
			return expr
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()

	switch tok.Type {
	case lexer.TokIntLit:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid integer literal '%s'", tok.Value), &tok.Span)
			return nil
		}
		return &ast.IntLiteral{Span: tok.Span, Value: v}

	case lexer.TokFloatLit:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid float literal '%s'", tok.Value), &tok.Span)
			return nil
		}
		return &ast.FloatLiteral{Span: tok.Span, Value: v}

	case lexer.TokTrue:
		p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}

	case lexer.TokFalse:
		p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}

	case lexer.TokStringLit:
		p.advance()
		return &ast.StrLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokIdent:
		p.advance()
		return &ast.Ident{Span: tok.Span, Name: tok.Value}

	case lexer.TokLBracket:
		return p.parseArrayLiteral()

	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen); !ok {
			return nil
		}
		return expr

	default:
		p.addError(fmt.Sprintf("unexpected token '%s'", tok.Value), &tok.Span)
		return nil
	}
}

func (p *parser) parseArrayLiteral() ast.Expr {
	start := p.advance() // consume '['

	var elements []ast.Expr
	for p.peek() != lexer.TokRBracket {
		elem := p.parseExpr()
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if p.peek() == lexer.TokComma {
			p.advance()
		} else {
			break
		}
	}
	closeTok, ok := p.expect(lexer.TokRBracket)
	if !ok {
		return nil
	}

	return &ast.ArrayLiteral{
		Span:     p.spanFromTo(start.Span, closeTok.Span),
		Elements: elements,
	}
}
