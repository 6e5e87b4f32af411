// Package parser implements a hand-written recursive-descent parser
// for SysY, turning a lexer.Token stream into an internal/ast tree.
// Each parse method corresponds to one grammar production; binary
// precedence levels are parsed with the usual left-recursion-to-loop
// transformation rather than one AST node species per production.
package parser

import (
	"fmt"

	"github.com/confucianzuoyuan/sysyc/internal/ast"
	"github.com/confucianzuoyuan/sysyc/internal/lexer"
	"github.com/confucianzuoyuan/sysyc/internal/types"
)

type parser struct {
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses src into a *ast.Program.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-lexed token stream.
func ParseTokens(toks []lexer.Token) (prog *ast.Program, err error) {
	p := &parser{toks: toks}
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(parseError); ok {
				err = fmt.Errorf("parser: %s", string(pe))
				return
			}
			panic(r)
		}
	}()
	return p.parseProgram(), nil
}

type parseError string

func (p *parser) fail(format string, args ...interface{}) {
	tok := p.cur()
	msg := fmt.Sprintf(format, args...)
	panic(parseError(fmt.Sprintf("line %d: %s (got %q)", tok.Line, msg, tok.String())))
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) at(kind lexer.Kind) bool { return p.cur().Kind == kind }

func (p *parser) atPunct(text string) bool {
	return p.cur().Kind == lexer.Punct && p.cur().Text == text
}

func (p *parser) eatPunct(text string) {
	if !p.atPunct(text) {
		p.fail("expected %q", text)
	}
	p.advance()
}

func (p *parser) tryEatPunct(text string) bool {
	if p.atPunct(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectIdent() string {
	if !p.at(lexer.Ident) {
		p.fail("expected identifier")
	}
	return p.advance().Text
}

func (p *parser) expectKind(kind lexer.Kind) lexer.Token {
	if !p.at(kind) {
		p.fail("unexpected token")
	}
	return p.advance()
}

// parseProgram parses CompUnit ::= (Decl | FuncDef)+.
func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.at(lexer.EOF) {
		prog.Items = append(prog.Items, p.parseDeclOrFuncDef())
	}
	return prog
}

// parseDeclOrFuncDef disambiguates `const ...;`, a variable decl, and
// a function definition, which share the `BType IDENT` prefix:
// lookahead past the identifier for `(` to recognize a function.
func (p *parser) parseDeclOrFuncDef() ast.DeclOrFunc {
	if p.at(lexer.KwConst) {
		return p.parseConstDecl()
	}

	// Both FuncDef and VarDecl start with a type keyword; FuncDef's
	// type may additionally be `void`, which VarDecl never accepts.
	if p.at(lexer.KwVoid) {
		return p.parseFuncDef()
	}

	// `int` may start either a VarDecl or a FuncDef: `int IDENT (` is
	// a function, `int IDENT` followed by anything else is a decl.
	save := p.pos
	p.expectKind(lexer.KwInt)
	p.expectIdent()
	isFunc := p.atPunct("(")
	p.pos = save
	if isFunc {
		return p.parseFuncDef()
	}
	return p.parseVarDecl()
}

func (p *parser) parseBType() types.Type {
	p.expectKind(lexer.KwInt)
	return types.Int
}

// parseConstDecl parses `const BType ConstDef ("," ConstDef)* ";"`.
func (p *parser) parseConstDecl() *ast.ConstDecl {
	p.expectKind(lexer.KwConst)
	elemType := p.parseBType()
	decl := &ast.ConstDecl{}
	decl.Defs = append(decl.Defs, p.parseConstDef(elemType))
	for p.tryEatPunct(",") {
		decl.Defs = append(decl.Defs, p.parseConstDef(elemType))
	}
	p.eatPunct(";")
	return decl
}

func (p *parser) parseConstDef(elemType types.Type) *ast.ConstDef {
	name := p.expectIdent()
	var dims []ast.Expr
	for p.tryEatPunct("[") {
		dims = append(dims, p.parseExp())
		p.eatPunct("]")
	}
	p.eatPunct("=")
	init := p.parseInitializer()
	return &ast.ConstDef{Name: name, Type: elemType, Dims: dims, Init: init}
}

// parseVarDecl parses `BType VarDef ("," VarDef)* ";"`.
func (p *parser) parseVarDecl() *ast.VarDecl {
	elemType := p.parseBType()
	decl := &ast.VarDecl{}
	decl.Defs = append(decl.Defs, p.parseVarDef(elemType))
	for p.tryEatPunct(",") {
		decl.Defs = append(decl.Defs, p.parseVarDef(elemType))
	}
	p.eatPunct(";")
	return decl
}

func (p *parser) parseVarDef(elemType types.Type) *ast.VarDef {
	name := p.expectIdent()
	var dims []ast.Expr
	for p.tryEatPunct("[") {
		dims = append(dims, p.parseExp())
		p.eatPunct("]")
	}
	var init ast.Initializer
	if p.tryEatPunct("=") {
		init = p.parseInitializer()
	}
	return &ast.VarDef{Name: name, Type: elemType, Dims: dims, Init: init}
}

// parseInitializer parses `Exp | "{" [Initializer ("," Initializer)*] "}"`,
// shared by ConstInitVal and InitVal: the grammar treats them
// identically at the syntax level; only const-ness of the resulting
// expressions differs, and that is checked at emission time.
func (p *parser) parseInitializer() ast.Initializer {
	if p.tryEatPunct("{") {
		list := &ast.ListInit{}
		if !p.atPunct("}") {
			list.Items = append(list.Items, p.parseInitializer())
			for p.tryEatPunct(",") {
				list.Items = append(list.Items, p.parseInitializer())
			}
		}
		p.eatPunct("}")
		return list
	}
	return &ast.ScalarInit{Value: p.parseExp()}
}

// parseFuncDef parses `FuncType IDENT "(" [FuncFParams] ")" Block`.
func (p *parser) parseFuncDef() *ast.Function {
	var retType types.Type
	if p.at(lexer.KwVoid) {
		p.advance()
		retType = types.Void
	} else {
		p.expectKind(lexer.KwInt)
		retType = types.Int
	}
	name := p.expectIdent()
	p.eatPunct("(")
	var params []*ast.Param
	if !p.atPunct(")") {
		params = append(params, p.parseFuncFParam())
		for p.tryEatPunct(",") {
			params = append(params, p.parseFuncFParam())
		}
	}
	p.eatPunct(")")
	body := p.parseBlock()
	return &ast.Function{Name: name, ReturnType: retType, Params: params, Body: body}
}

// parseFuncFParam parses `BType IDENT ["[" "]" ("[" ConstExp "]")*]`.
func (p *parser) parseFuncFParam() *ast.Param {
	elemType := p.parseBType()
	name := p.expectIdent()
	param := &ast.Param{Name: name, ElemType: elemType}
	if p.tryEatPunct("[") {
		param.ArrayParam = true
		p.eatPunct("]")
		for p.tryEatPunct("[") {
			param.ExtraDims = append(param.ExtraDims, p.parseExp())
			p.eatPunct("]")
		}
	}
	return param
}

// parseBlock parses `"{" BlockItem* "}"`.
func (p *parser) parseBlock() *ast.Block {
	p.eatPunct("{")
	block := &ast.Block{}
	for !p.atPunct("}") {
		block.Items = append(block.Items, p.parseBlockItem())
	}
	p.eatPunct("}")
	return block
}

func (p *parser) parseBlockItem() ast.Stmt {
	if p.at(lexer.KwConst) {
		return p.parseConstDecl()
	}
	if p.at(lexer.KwInt) {
		return p.parseVarDecl()
	}
	return p.parseStmt()
}

func (p *parser) parseStmt() ast.Stmt {
	switch {
	case p.atPunct("{"):
		return p.parseBlock()
	case p.at(lexer.KwIf):
		return p.parseIfStmt()
	case p.at(lexer.KwWhile):
		return p.parseWhileStmt()
	case p.at(lexer.KwBreak):
		p.advance()
		p.eatPunct(";")
		return &ast.BreakStmt{}
	case p.at(lexer.KwContinue):
		p.advance()
		p.eatPunct(";")
		return &ast.ContinueStmt{}
	case p.at(lexer.KwReturn):
		p.advance()
		var value ast.Expr
		if !p.atPunct(";") {
			value = p.parseExp()
		}
		p.eatPunct(";")
		return &ast.ReturnStmt{Value: value}
	case p.atPunct(";"):
		p.advance()
		return &ast.ExprStmt{}
	}
	return p.parseAssignOrExprStmt()
}

func (p *parser) parseIfStmt() *ast.IfStmt {
	p.expectKind(lexer.KwIf)
	p.eatPunct("(")
	cond := p.parseExp()
	p.eatPunct(")")
	then := p.parseStmt()
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	if p.at(lexer.KwElse) {
		p.advance()
		stmt.Else = p.parseStmt()
	}
	return stmt
}

func (p *parser) parseWhileStmt() *ast.WhileStmt {
	p.expectKind(lexer.KwWhile)
	p.eatPunct("(")
	cond := p.parseExp()
	p.eatPunct(")")
	body := p.parseStmt()
	return &ast.WhileStmt{Cond: cond, Body: body}
}

// parseAssignOrExprStmt disambiguates `LVal "=" Exp ";"` from
// `Exp ";"` by speculatively parsing an expression and checking
// whether it resolved to a bare l-value immediately followed by `=`.
func (p *parser) parseAssignOrExprStmt() ast.Stmt {
	save := p.pos
	expr := p.parseExp()
	if lv, ok := expr.(*ast.LValue); ok && p.atPunct("=") {
		p.advance()
		value := p.parseExp()
		p.eatPunct(";")
		return &ast.AssignStmt{Target: lv, Value: value}
	}
	p.pos = save
	expr = p.parseExp()
	p.eatPunct(";")
	return &ast.ExprStmt{Value: expr}
}

// parseExp parses a full LOrExp, and is used alike for Exp, Cond and
// ConstExp, so && and || are accepted wherever an expression may appear.
func (p *parser) parseExp() ast.Expr { return p.parseLOrExp() }

func (p *parser) parseLOrExp() ast.Expr {
	lhs := p.parseLAndExp()
	for p.atPunct("||") {
		p.advance()
		rhs := p.parseLAndExp()
		lhs = &ast.LogOr{LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseLAndExp() ast.Expr {
	lhs := p.parseEqExp()
	for p.atPunct("&&") {
		p.advance()
		rhs := p.parseEqExp()
		lhs = &ast.LogAnd{LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseEqExp() ast.Expr {
	lhs := p.parseRelExp()
	for p.atPunct("==") || p.atPunct("!=") {
		op := p.advance().Text
		rhs := p.parseRelExp()
		lhs = &ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseRelExp() ast.Expr {
	lhs := p.parseAddExp()
	for p.atPunct("<") || p.atPunct(">") || p.atPunct("<=") || p.atPunct(">=") {
		op := p.advance().Text
		rhs := p.parseAddExp()
		lhs = &ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseAddExp() ast.Expr {
	lhs := p.parseMulExp()
	for p.atPunct("+") || p.atPunct("-") {
		op := p.advance().Text
		rhs := p.parseMulExp()
		lhs = &ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseMulExp() ast.Expr {
	lhs := p.parseUnaryExp()
	for p.atPunct("*") || p.atPunct("/") || p.atPunct("%") {
		op := p.advance().Text
		rhs := p.parseUnaryExp()
		lhs = &ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseUnaryExp() ast.Expr {
	if p.atPunct("+") || p.atPunct("-") || p.atPunct("!") {
		op := p.advance().Text
		operand := p.parseUnaryExp()
		return &ast.Unary{Op: op, Operand: operand}
	}
	if p.at(lexer.Ident) && p.toks[p.pos+1].Kind == lexer.Punct && p.toks[p.pos+1].Text == "(" {
		name := p.advance().Text
		p.eatPunct("(")
		var args []ast.Expr
		if !p.atPunct(")") {
			args = append(args, p.parseExp())
			for p.tryEatPunct(",") {
				args = append(args, p.parseExp())
			}
		}
		p.eatPunct(")")
		return &ast.Call{Name: name, Args: args}
	}
	return p.parsePrimaryExp()
}

func (p *parser) parsePrimaryExp() ast.Expr {
	if p.tryEatPunct("(") {
		e := p.parseExp()
		p.eatPunct(")")
		return e
	}
	if p.at(lexer.IntLit) {
		tok := p.advance()
		return &ast.IntLit{Value: int32(tok.Int)}
	}
	return p.parseLVal()
}

func (p *parser) parseLVal() *ast.LValue {
	name := p.expectIdent()
	lv := &ast.LValue{Name: name}
	for p.tryEatPunct("[") {
		lv.Indices = append(lv.Indices, p.parseExp())
		p.eatPunct("]")
	}
	return lv
}
