package ast

import (
	"fmt"
	"strings"

	"github.com/confucianzuoyuan/sysyc/internal/symtab"
	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// runtimeLibrary lists the external functions every compiled program
// may call, pre-declared into the base scope the way a linked-in
// runtime would be.
var runtimeLibrary = []struct {
	name string
	fn   *types.Function
}{
	{"getint", &types.Function{Return: types.Int}},
	{"getch", &types.Function{Return: types.Int}},
	{"getarray", &types.Function{Return: types.Int, Params: []types.Type{&types.Pointer{BaseType: types.Int}}}},
	{"putint", &types.Function{Return: types.Void, Params: []types.Type{types.Int}}},
	{"putch", &types.Function{Return: types.Void, Params: []types.Type{types.Int}}},
	{"putarray", &types.Function{Return: types.Void, Params: []types.Type{types.Int, &types.Pointer{BaseType: types.Int}}}},
	{"starttime", &types.Function{Return: types.Void}},
	{"stoptime", &types.Function{Return: types.Void}},
}

// Emit lowers the whole compilation unit to Koopa IR text, declaring
// the runtime library before any user declaration or function is
// processed.
func (p *Program) Emit(ctx *EmitContext) string {
	var b strings.Builder
	for _, lib := range runtimeLibrary {
		ctx.Symtab.Insert(lib.name, &symtab.Symbol{Kind: symtab.KindFunction, Type: lib.fn})
		b.WriteString("decl @" + lib.name + "(" + joinParamTypes(lib.fn) + ")")
		if lib.fn.Return != types.Void {
			b.WriteString(": " + lib.fn.Return.Koopa())
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, item := range p.Items {
		switch v := item.(type) {
		case *ConstDecl:
			b.WriteString(v.Emit(ctx, BreakContinue{}))
		case *VarDecl:
			b.WriteString(v.Emit(ctx, BreakContinue{}))
		case *Function:
			b.WriteString(v.emit(ctx))
		default:
			panic(fmt.Sprintf("ast: program item of type %T is out of domain", item))
		}
	}
	return b.String()
}

func joinParamTypes(fn *types.Function) string {
	parts := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		parts[i] = p.Koopa()
	}
	return strings.Join(parts, ", ")
}

// paramType resolves a parameter's declared type, applying the
// implicit array-to-pointer decay SysY gives the first `[]` of an
// array parameter.
func (p *Param) paramType(ctx *EmitContext) types.Type {
	if !p.ArrayParam {
		return p.ElemType
	}
	dims := evalDims(ctx, p.ExtraDims)
	return &types.Pointer{BaseType: buildArrayType(p.ElemType, dims)}
}

func (fn *Function) emit(ctx *EmitContext) string {
	paramTypes := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		paramTypes[i] = p.paramType(ctx)
	}
	ctx.Symtab.Insert(fn.Name, &symtab.Symbol{
		Kind: symtab.KindFunction,
		Type: &types.Function{Return: fn.ReturnType, Params: paramTypes},
	})

	ctx.Symtab.Push()
	defer ctx.Symtab.Pop()

	paramDecls := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		paramDecls[i] = fmt.Sprintf("@%s: %s", p.Name, paramTypes[i].Koopa())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "fun @%s(%s)", fn.Name, strings.Join(paramDecls, ", "))
	if fn.ReturnType != types.Void {
		fmt.Fprintf(&b, ": %s", fn.ReturnType.Koopa())
	}
	b.WriteString(" {\n")
	fmt.Fprintf(&b, "%%%s_entry:\n", fn.Name)

	for i, p := range fn.Params {
		sym := &symtab.Symbol{Kind: symtab.KindVariable, Type: paramTypes[i]}
		ctx.Symtab.Insert(p.Name, sym)
		fmt.Fprintf(&b, "    @%s = alloc %s\n", sym.InternalName, paramTypes[i].Koopa())
		fmt.Fprintf(&b, "    store @%s, @%s\n", p.Name, sym.InternalName)
	}

	b.WriteString(fn.Body.Emit(ctx, BreakContinue{}))

	if fn.ReturnType == types.Void {
		b.WriteString("    ret\n")
	} else {
		b.WriteString("    ret 0\n")
	}
	b.WriteString("}\n\n")
	return b.String()
}
