package ast

import (
	"fmt"
	"strings"
)

// Emit realizes `return [Expr];`. A fresh sequential
// label always follows a return so that any statements textually after
// it (unreachable, but still part of the block) land in a
// syntactically valid block.
func (n *ReturnStmt) Emit(ctx *EmitContext, bc BreakContinue) string {
	var b strings.Builder
	if n.Value == nil {
		b.WriteString("    ret\n")
	} else {
		code, operand := Operand(ctx, n.Value)
		b.WriteString(code)
		fmt.Fprintf(&b, "    ret %s\n", operand)
	}
	fmt.Fprintf(&b, "%%%s:\n", ctx.newSeqLabel())
	return b.String()
}

// Emit realizes `LValue = Expr;`: evaluate the right-hand side, then
// store it into the address the left-hand side's index chain
// resolves to.
func (n *AssignStmt) Emit(ctx *EmitContext, bc BreakContinue) string {
	code, operand := Operand(ctx, n.Value)
	return code + n.Target.storeTo(ctx, operand)
}

// Emit realizes a bare expression statement, discarding its result.
func (n *ExprStmt) Emit(ctx *EmitContext, bc BreakContinue) string {
	if n.Value == nil {
		return ""
	}
	code, _ := Operand(ctx, n.Value)
	return code
}

// Emit realizes a nested block: a fresh scope, each item emitted in
// turn with the same inherited break/continue targets.
func (n *Block) Emit(ctx *EmitContext, bc BreakContinue) string {
	ctx.Symtab.Push()
	defer ctx.Symtab.Pop()
	var b strings.Builder
	for _, item := range n.Items {
		b.WriteString(item.Emit(ctx, bc))
	}
	return b.String()
}

// Emit realizes `if (Cond) Then [else Else]`: no phi nodes are
// produced, both arms jump to a shared successor label.
func (n *IfStmt) Emit(ctx *EmitContext, bc BreakContinue) string {
	ifLabel := ctx.newIfLabel()
	elseLabel := ctx.elseLabel()
	next := ctx.newSeqLabel()

	var b strings.Builder
	code, cond := Operand(ctx, n.Cond)
	b.WriteString(code)

	branchTarget := elseLabel
	if n.Else == nil {
		branchTarget = next
	}
	fmt.Fprintf(&b, "    br %s, %%%s, %%%s\n", cond, ifLabel, branchTarget)

	fmt.Fprintf(&b, "%%%s:\n", ifLabel)
	b.WriteString(n.Then.Emit(ctx, bc))
	fmt.Fprintf(&b, "    jump %%%s\n", next)

	if n.Else != nil {
		fmt.Fprintf(&b, "%%%s:\n", elseLabel)
		b.WriteString(n.Else.Emit(ctx, bc))
		fmt.Fprintf(&b, "    jump %%%s\n", next)
	}

	fmt.Fprintf(&b, "%%%s:\n", next)
	return b.String()
}

// Emit realizes `while (Cond) Body`: Body's own BreakContinue is
// overridden to target this loop's labels, so nested loops each bind
// their own break/continue.
func (n *WhileStmt) Emit(ctx *EmitContext, bc BreakContinue) string {
	whileLabel := ctx.newWhileLabel()
	bodyLabel := ctx.whileBodyLabel()
	next := ctx.newSeqLabel()

	inner := BreakContinue{Break: next, Continue: whileLabel}

	var b strings.Builder
	fmt.Fprintf(&b, "    jump %%%s\n", whileLabel)
	fmt.Fprintf(&b, "%%%s:\n", whileLabel)
	code, cond := Operand(ctx, n.Cond)
	b.WriteString(code)
	fmt.Fprintf(&b, "    br %s, %%%s, %%%s\n", cond, bodyLabel, next)

	fmt.Fprintf(&b, "%%%s:\n", bodyLabel)
	b.WriteString(n.Body.Emit(ctx, inner))
	fmt.Fprintf(&b, "    jump %%%s\n", whileLabel)

	fmt.Fprintf(&b, "%%%s:\n", next)
	return b.String()
}

// Emit realizes `break;`: a jump to the innermost enclosing loop's exit
// label, followed by a fresh label to keep the block well formed.
func (n *BreakStmt) Emit(ctx *EmitContext, bc BreakContinue) string {
	if bc.Break == "" {
		panic("ast: break outside a loop")
	}
	return fmt.Sprintf("    jump %%%s\n%%%s:\n", bc.Break, ctx.newSeqLabel())
}

// Emit realizes `continue;`: a jump back to the innermost enclosing
// loop's condition-check label.
func (n *ContinueStmt) Emit(ctx *EmitContext, bc BreakContinue) string {
	if bc.Continue == "" {
		panic("ast: continue outside a loop")
	}
	return fmt.Sprintf("    jump %%%s\n%%%s:\n", bc.Continue, ctx.newSeqLabel())
}
