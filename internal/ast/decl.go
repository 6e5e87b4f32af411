package ast

import (
	"fmt"
	"strings"

	"github.com/confucianzuoyuan/sysyc/internal/symtab"
)

// Emit realizes every ConstDef in turn. Const declarations never carry
// runtime effect for scalars; arrays are materialized as a global or
// local aggregate depending on the enclosing scope.
func (n *ConstDecl) Emit(ctx *EmitContext, bc BreakContinue) string {
	var b strings.Builder
	for _, def := range n.Defs {
		b.WriteString(def.emit(ctx))
	}
	return b.String()
}

func (def *ConstDef) emit(ctx *EmitContext) string {
	dims := evalDims(ctx, def.Dims)
	fullType := buildArrayType(def.Type, dims)

	if len(dims) == 0 {
		scalar := def.Init.(*ScalarInit)
		v, ok := scalar.Value.InlineNumber(ctx)
		if !ok {
			panic("ast: const initializer must be a compile-time constant")
		}
		ctx.Symtab.Insert(def.Name, &symtab.Symbol{
			Kind: symtab.KindConst, Type: fullType, ConstValue: int(v),
		})
		return ""
	}

	flat := flattenInit(def.Init, dims)
	values := make([]int, len(flat))
	for i, e := range flat {
		v, ok := e.InlineNumber(ctx)
		if !ok {
			panic("ast: const array initializer element must be a compile-time constant")
		}
		values[i] = int(v)
	}
	sym := &symtab.Symbol{Kind: symtab.KindConst, Type: fullType, ConstArray: values}
	ctx.Symtab.Insert(def.Name, sym)

	if ctx.Symtab.IsGlobal(def.Name) {
		agg := aggregateString(values, dims)
		return fmt.Sprintf("global @%s = alloc %s, %s\n\n", sym.InternalName, fullType.Koopa(), agg)
	}

	// A local alloc has no aggregate-literal initializer syntax (only a
	// global alloc's declaration line does); store each element
	// individually through its own getelemptr, the same path
	// VarDef.emitArray's local case takes.
	var b strings.Builder
	fmt.Fprintf(&b, "    @%s = alloc %s\n", sym.InternalName, fullType.Koopa())
	b.WriteString(localArrayInitCode(ctx, sym.InternalName, dims, flat))
	return b.String()
}

// Emit realizes every VarDef in turn.
func (n *VarDecl) Emit(ctx *EmitContext, bc BreakContinue) string {
	var b strings.Builder
	for _, def := range n.Defs {
		b.WriteString(def.emit(ctx))
	}
	return b.String()
}

func (def *VarDef) emit(ctx *EmitContext) string {
	dims := evalDims(ctx, def.Dims)
	fullType := buildArrayType(def.Type, dims)

	sym := &symtab.Symbol{Kind: symtab.KindVariable, Type: fullType}
	ctx.Symtab.Insert(def.Name, sym)
	global := ctx.Symtab.IsGlobal(def.Name)

	if len(dims) == 0 {
		return def.emitScalar(ctx, sym, global)
	}
	return def.emitArray(ctx, sym, dims, global)
}

func (def *VarDef) emitScalar(ctx *EmitContext, sym *symtab.Symbol, global bool) string {
	if global {
		if def.Init == nil {
			return fmt.Sprintf("global @%s = alloc %s, zeroinit\n\n", sym.InternalName, sym.Type.Koopa())
		}
		v, ok := def.Init.(*ScalarInit).Value.InlineNumber(ctx)
		if !ok {
			panic("ast: global variable initializer must be a compile-time constant")
		}
		return fmt.Sprintf("global @%s = alloc %s, %d\n\n", sym.InternalName, sym.Type.Koopa(), v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "    @%s = alloc %s\n", sym.InternalName, sym.Type.Koopa())
	if def.Init != nil {
		code, operand := Operand(ctx, def.Init.(*ScalarInit).Value)
		b.WriteString(code)
		fmt.Fprintf(&b, "    store %s, @%s\n", operand, sym.InternalName)
	}
	return b.String()
}

func (def *VarDef) emitArray(ctx *EmitContext, sym *symtab.Symbol, dims []int, global bool) string {
	if global {
		var b strings.Builder
		fmt.Fprintf(&b, "global @%s = alloc %s, ", sym.InternalName, sym.Type.Koopa())
		if def.Init == nil {
			b.WriteString("zeroinit\n\n")
			return b.String()
		}
		flat := flattenInit(def.Init, dims)
		values := make([]int, len(flat))
		for i, e := range flat {
			v, ok := e.InlineNumber(ctx)
			if !ok {
				panic("ast: global array initializer element must be a compile-time constant")
			}
			values[i] = int(v)
		}
		b.WriteString(aggregateString(values, dims))
		b.WriteString("\n\n")
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "    @%s = alloc %s\n", sym.InternalName, sym.Type.Koopa())
	if def.Init != nil {
		flat := flattenInit(def.Init, dims)
		b.WriteString(localArrayInitCode(ctx, sym.InternalName, dims, flat))
	}
	return b.String()
}
