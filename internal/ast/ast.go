// Package ast defines the SysY abstract syntax tree and its two
// traversal contracts: constant folding and Koopa IR text emission.
// Each node species its syntactic role; dispatch is exhaustive
// type-switching over a tagged sum rather than polymorphic method
// overriding.
package ast

import (
	"fmt"

	"github.com/confucianzuoyuan/sysyc/internal/symtab"
	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// EmitContext threads the monotonic ID counters and the scope-aware
// symbol table through emission explicitly, instead of package-level
// mutable globals.
type EmitContext struct {
	Symtab *symtab.Table

	nextSSA   int
	nextSeq   int
	nextIf    int
	nextLand  int
	nextLor   int
	nextWhile int

	curIf    int
	curLand  int
	curLor   int
	curWhile int
}

// NewEmitContext returns a context with a fresh symbol table
// containing only the runtime library declarations' scope (the base
// scope; library symbols themselves are inserted by Program.Emit).
func NewEmitContext() *EmitContext {
	return &EmitContext{Symtab: symtab.New()}
}

func (c *EmitContext) newSSA() int {
	c.nextSSA++
	return c.nextSSA
}

func (c *EmitContext) newSeqLabel() string {
	c.nextSeq++
	return fmt.Sprintf("seq_%d", c.nextSeq)
}

func (c *EmitContext) newIfLabel() string {
	c.nextIf++
	c.curIf = c.nextIf
	return fmt.Sprintf("if_%d", c.nextIf)
}

func (c *EmitContext) elseLabel() string { return fmt.Sprintf("else_%d", c.curIf) }

func (c *EmitContext) newLandLabel() string {
	c.nextLand++
	c.curLand = c.nextLand
	return fmt.Sprintf("land_%d", c.nextLand)
}

func (c *EmitContext) landScLabel() string { return fmt.Sprintf("land_sc_%d", c.curLand) }

func (c *EmitContext) newLorLabel() string {
	c.nextLor++
	c.curLor = c.nextLor
	return fmt.Sprintf("lor_%d", c.nextLor)
}

func (c *EmitContext) lorScLabel() string { return fmt.Sprintf("lor_sc_%d", c.curLor) }

func (c *EmitContext) newWhileLabel() string {
	c.nextWhile++
	c.curWhile = c.nextWhile
	return fmt.Sprintf("while_%d", c.nextWhile)
}

func (c *EmitContext) whileBodyLabel() string { return fmt.Sprintf("while_body_%d", c.curWhile) }

// BreakContinue carries the jump targets for an enclosing loop,
// threaded explicitly as an emission parameter rather than tracked on
// EmitContext.
type BreakContinue struct {
	Break    string
	Continue string
}

// Expr is any SysY expression node.
type Expr interface {
	// InlineNumber returns the node's compile-time constant value, if
	// it has one.
	InlineNumber(ctx *EmitContext) (int32, bool)
	// emit lowers the expression assuming it carries no constant value
	// and returns the code plus the SSA temporary holding the result,
	// e.g. "%7". Callers should use Operand, not emit, directly.
	emit(ctx *EmitContext) (code, operand string)
}

// Operand realizes the shared emission contract: if e folds to a
// constant, the operand is that literal and no code is produced;
// otherwise e is emitted and the operand is its result temporary.
func Operand(ctx *EmitContext, e Expr) (code, operand string) {
	if v, ok := e.InlineNumber(ctx); ok {
		return "", fmt.Sprintf("%d", v)
	}
	return e.emit(ctx)
}

// IntLit is an integer literal.
type IntLit struct {
	Value int32
}

func (n *IntLit) InlineNumber(*EmitContext) (int32, bool) { return n.Value, true }
func (n *IntLit) emit(*EmitContext) (string, string)      { return "", fmt.Sprintf("%d", n.Value) }

// Unary is a unary +, - or ! expression.
type Unary struct {
	Op      string // "+", "-", "!"
	Operand Expr
}

// Binary is a binary arithmetic/relational/equality expression. Op is
// one of + - * / % < > <= >= == !=.
type Binary struct {
	Op  string
	LHS Expr
	RHS Expr
}

// LogAnd is a short-circuiting && expression.
type LogAnd struct {
	LHS Expr
	RHS Expr
}

// LogOr is a short-circuiting || expression.
type LogOr struct {
	LHS Expr
	RHS Expr
}

// Call is a function-call expression.
type Call struct {
	Name string
	Args []Expr
}

// LValue is a (possibly indexed) reference to a named scalar, array or
// pointer-parameter symbol, used both as an r-value and, via Addr, as
// an assignment target.
type LValue struct {
	Name    string
	Indices []Expr
}

// Stmt is any block-item-level construct: statements and declarations
// share this interface since both may appear in a Block's item list.
type Stmt interface {
	Emit(ctx *EmitContext, bc BreakContinue) string
}

// Block is `{ BlockItem* }`.
type Block struct {
	Items []Stmt
}

// ReturnStmt is `return [Expr] ;`.
type ReturnStmt struct {
	Value Expr // nil for bare `return;`
}

// AssignStmt is `LValue = Expr ;`.
type AssignStmt struct {
	Target *LValue
	Value  Expr
}

// ExprStmt is `[Expr] ;`.
type ExprStmt struct {
	Value Expr // nil for a bare `;`
}

// IfStmt is `if (Cond) Then [else Else]`.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil if no else-branch
}

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
}

// BreakStmt is `break ;`.
type BreakStmt struct{}

// ContinueStmt is `continue ;`.
type ContinueStmt struct{}

// ConstDef is one `IDENT [ArrDims] = ConstInitVal` inside a const
// declaration.
type ConstDef struct {
	Name string
	Type types.Type // element type before array dims are layered on
	Dims []Expr     // array dimension expressions (const), nil for scalars
	Init Initializer
}

// ConstDecl is `const BType ConstDef (, ConstDef)* ;`.
type ConstDecl struct {
	Defs []*ConstDef
}

// VarDef is one `IDENT [ArrDims] [= InitVal]` inside a var declaration.
type VarDef struct {
	Name string
	Type types.Type
	Dims []Expr
	Init Initializer // nil if uninitialized
}

// VarDecl is `BType VarDef (, VarDef)* ;`.
type VarDecl struct {
	Defs []*VarDef
}

// Initializer is either a scalar expression or a nested brace-list.
type Initializer interface {
	isInitializer()
}

// ScalarInit is `Exp` used as an initializer.
type ScalarInit struct {
	Value Expr
}

func (*ScalarInit) isInitializer() {}

// ListInit is `{ Initializer,* }`.
type ListInit struct {
	Items []Initializer
}

func (*ListInit) isInitializer() {}

// Param is one function parameter. ArrayParam is true for `int a[]...`
// parameters, which decay to a pointer to ElemType with ExtraDims
// layered on (`int a[][4]` becomes `*[i32, 4]`).
type Param struct {
	Name       string
	ElemType   types.Type // the declared element type
	ArrayParam bool
	ExtraDims  []Expr // dimensions after the first `[]`, e.g. a[][4]
}

// Function is a SysY function definition.
type Function struct {
	Name       string
	ReturnType types.Type
	Params     []*Param
	Body       *Block
}

// DeclOrFunc is either a top-level Decl (Const/VarDecl) or *Function.
type DeclOrFunc interface{}

// Program is the whole compilation unit.
type Program struct {
	Items []DeclOrFunc
}
