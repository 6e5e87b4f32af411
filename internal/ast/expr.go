package ast

import (
	"fmt"
	"strings"

	"github.com/confucianzuoyuan/sysyc/internal/symtab"
	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// returnsVoid reports whether sym (a function symbol) has a void
// return type.
func returnsVoid(sym *symtab.Symbol) bool {
	fn, ok := sym.Type.(*types.Function)
	return ok && fn.Return == types.Void
}

// binOpcode maps a source operator to its Koopa instruction mnemonic.
func binOpcode(op string) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mul"
	case "/":
		return "div"
	case "%":
		return "mod"
	case "<":
		return "lt"
	case ">":
		return "gt"
	case "<=":
		return "le"
	case ">=":
		return "ge"
	case "==":
		return "eq"
	case "!=":
		return "ne"
	}
	panic("ast: binary op " + op + " is out of domain")
}

func (n *Binary) emit(ctx *EmitContext) (string, string) {
	lcode, loperand := Operand(ctx, n.LHS)
	rcode, roperand := Operand(ctx, n.RHS)
	id := ctx.newSSA()
	var b strings.Builder
	b.WriteString(lcode)
	b.WriteString(rcode)
	fmt.Fprintf(&b, "    %%%d = %s %s, %s\n", id, binOpcode(n.Op), loperand, roperand)
	return b.String(), fmt.Sprintf("%%%d", id)
}

func (n *Unary) emit(ctx *EmitContext) (string, string) {
	code, operand := Operand(ctx, n.Operand)
	id := ctx.newSSA()
	var opcode string
	switch n.Op {
	case "+":
		opcode = "add"
	case "-":
		opcode = "sub"
	case "!":
		opcode = "eq"
	default:
		panic("ast: unary op " + n.Op + " is out of domain")
	}
	return fmt.Sprintf("%s    %%%d = %s 0, %s\n", code, id, opcode, operand), fmt.Sprintf("%%%d", id)
}

// emit lowers && by allocating a stack temporary, evaluating the LHS
// to decide whether the RHS is reachable at all, and normalizing both
// operands to booleans with `ne ..., 0` before combining them with
// `and`.
func (n *LogAnd) emit(ctx *EmitContext) (string, string) {
	tmp := ctx.newSSA()
	var b strings.Builder
	fmt.Fprintf(&b, "    %%%d = alloc i32\n", tmp)
	fmt.Fprintf(&b, "    store 1, %%%d\n", tmp)

	lcode, loperand := Operand(ctx, n.LHS)
	b.WriteString(lcode)

	trueLabel := ctx.newLandLabel()
	falseLabel := ctx.landScLabel()
	fmt.Fprintf(&b, "    br %s, %%%s, %%%s\n", loperand, trueLabel, falseLabel)

	fmt.Fprintf(&b, "%%%s:\n", trueLabel)
	rcode, roperand := Operand(ctx, n.RHS)
	b.WriteString(rcode)
	bool0 := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = ne %s, 0\n", bool0, loperand)
	bool1 := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = ne %s, 0\n", bool1, roperand)
	and := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = and %%%d, %%%d\n", and, bool0, bool1)
	fmt.Fprintf(&b, "    store %%%d, %%%d\n", and, tmp)
	next := ctx.newSeqLabel()
	fmt.Fprintf(&b, "    jump %%%s\n", next)

	fmt.Fprintf(&b, "%%%s:\n", falseLabel)
	fmt.Fprintf(&b, "    store 0, %%%d\n", tmp)
	fmt.Fprintf(&b, "    jump %%%s\n", next)

	fmt.Fprintf(&b, "%%%s:\n", next)
	result := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = load %%%d\n", result, tmp)
	return b.String(), fmt.Sprintf("%%%d", result)
}

// emit lowers || symmetrically to LogAnd.emit: the temp starts at 0
// and the branch order is reversed (false-branch evaluates the RHS).
func (n *LogOr) emit(ctx *EmitContext) (string, string) {
	tmp := ctx.newSSA()
	var b strings.Builder
	fmt.Fprintf(&b, "    %%%d = alloc i32\n", tmp)
	fmt.Fprintf(&b, "    store 0, %%%d\n", tmp)

	lcode, loperand := Operand(ctx, n.LHS)
	b.WriteString(lcode)

	falseLabel := ctx.newLorLabel()
	trueLabel := ctx.lorScLabel()
	fmt.Fprintf(&b, "    br %s, %%%s, %%%s\n", loperand, trueLabel, falseLabel)

	fmt.Fprintf(&b, "%%%s:\n", falseLabel)
	rcode, roperand := Operand(ctx, n.RHS)
	b.WriteString(rcode)
	bool0 := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = ne %s, 0\n", bool0, loperand)
	bool1 := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = ne %s, 0\n", bool1, roperand)
	or := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = or %%%d, %%%d\n", or, bool0, bool1)
	fmt.Fprintf(&b, "    store %%%d, %%%d\n", or, tmp)
	next := ctx.newSeqLabel()
	fmt.Fprintf(&b, "    jump %%%s\n", next)

	fmt.Fprintf(&b, "%%%s:\n", trueLabel)
	fmt.Fprintf(&b, "    store 1, %%%d\n", tmp)
	fmt.Fprintf(&b, "    jump %%%s\n", next)

	fmt.Fprintf(&b, "%%%s:\n", next)
	result := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = load %%%d\n", result, tmp)
	return b.String(), fmt.Sprintf("%%%d", result)
}

func (n *Call) emit(ctx *EmitContext) (string, string) {
	sym := ctx.Symtab.Lookup(n.Name)
	if sym == nil {
		panic(fmt.Sprintf("ast: call to undeclared function %q", n.Name))
	}

	var b strings.Builder
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		code, operand := Operand(ctx, arg)
		b.WriteString(code)
		args[i] = operand
	}

	prefix := ""
	var result string
	if !returnsVoid(sym) {
		id := ctx.newSSA()
		prefix = fmt.Sprintf("%%%d = ", id)
		result = fmt.Sprintf("%%%d", id)
	}
	fmt.Fprintf(&b, "    %scall @%s(%s)\n", prefix, sym.InternalName, strings.Join(args, ", "))
	return b.String(), result
}
