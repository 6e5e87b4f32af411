package ast

import (
	"fmt"
	"strings"

	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// addr walks n's index chain, computing the address each index refers
// to. At a pointer-typed current value, the pointer itself must be
// loaded before it can be indexed (it lives in a stack slot holding
// the pointer, not the pointee); at an array-typed current value, the
// slot itself is already the base to index from. Returns the emitted
// code, the final address (a Koopa pointer value), and the type that
// address points to.
func (n *LValue) addr(ctx *EmitContext) (code string, address string, pointee types.Type) {
	sym := ctx.Symtab.Lookup(n.Name)
	if sym == nil {
		panic(fmt.Sprintf("ast: undefined symbol %q", n.Name))
	}

	var b strings.Builder
	current := "@" + sym.InternalName
	currentType := sym.Type

	for _, idxExpr := range n.Indices {
		idxCode, idxOperand := Operand(ctx, idxExpr)
		b.WriteString(idxCode)

		var inst string
		if types.IsPointer(currentType) {
			loadID := ctx.newSSA()
			fmt.Fprintf(&b, "    %%%d = load %s\n", loadID, current)
			current = fmt.Sprintf("%%%d", loadID)
			inst = "getptr"
		} else {
			inst = "getelemptr"
		}

		id := ctx.newSSA()
		fmt.Fprintf(&b, "    %%%d = %s %s, %s\n", id, inst, current, idxOperand)
		current = fmt.Sprintf("%%%d", id)
		currentType = currentType.Base()
	}

	return b.String(), current, currentType
}

// emit realizes the r-value read of an l-value: index down to the
// residual type, then decay (array->pointer, pointer->loaded value) or
// load the scalar.
func (n *LValue) emit(ctx *EmitContext) (string, string) {
	code, address, residual := n.addr(ctx)
	var b strings.Builder
	b.WriteString(code)

	if residual != nil && residual.Base() != nil {
		id := ctx.newSSA()
		if types.IsArray(residual) {
			fmt.Fprintf(&b, "    %%%d = getelemptr %s, 0\n", id, address)
		} else {
			fmt.Fprintf(&b, "    %%%d = load %s\n", id, address)
		}
		return b.String(), fmt.Sprintf("%%%d", id)
	}

	id := ctx.newSSA()
	fmt.Fprintf(&b, "    %%%d = load %s\n", id, address)
	return b.String(), fmt.Sprintf("%%%d", id)
}

// InlineNumber is defined in fold.go.

// storeTo emits code computing n's address and storing value into it,
// used by AssignStmt.Emit. Assignment targets are always variables,
// never consts, so the trailing decay/load step addr's siblings use
// for reads never applies here.
func (n *LValue) storeTo(ctx *EmitContext, value string) string {
	code, address, _ := n.addr(ctx)
	return fmt.Sprintf("%s    store %s, %s\n", code, value, address)
}
