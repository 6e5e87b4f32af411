package ast

import (
	"fmt"
	"strings"

	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// product returns the product of dims, 1 for an empty slice.
func product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

// evalDims folds each dimension expression to its compile-time value;
// SysY array bounds are always compile-time constants.
func evalDims(ctx *EmitContext, exprs []Expr) []int {
	dims := make([]int, len(exprs))
	for i, e := range exprs {
		v, ok := e.InlineNumber(ctx)
		if !ok {
			panic("ast: array dimension must be a compile-time constant")
		}
		dims[i] = int(v)
	}
	return dims
}

// buildArrayType layers dims (outermost first) on top of base, e.g.
// base=int, dims=[2,3] yields int[2][3].
func buildArrayType(base types.Type, dims []int) types.Type {
	result := base
	for i := len(dims) - 1; i >= 0; i-- {
		result = &types.Array{BaseType: result, Len: dims[i]}
	}
	return result
}

// flattenInit lowers an initializer tree to a flat, fully padded list
// of expressions in row-major order, applying SysY's brace-alignment
// rule: a nested `{...}` aligns to the innermost block boundary its
// position in the flat list currently sits on, found by dividing the
// whole block size by successive outer dimensions until the current
// fill count divides evenly.
func flattenInit(init Initializer, dims []int) []Expr {
	if len(dims) == 0 {
		return []Expr{init.(*ScalarInit).Value}
	}
	list, ok := init.(*ListInit)
	if !ok {
		// A bare scalar initializer used for the first element of an
		// array, e.g. `int a[3] = 0;` is not legal SysY, but treat it
		// defensively as a single-element flat list.
		return flatten([]Initializer{init}, dims)
	}
	return flatten(list.Items, dims)
}

func flatten(items []Initializer, dims []int) []Expr {
	whole := product(dims)
	var out []Expr

	for _, item := range items {
		if len(out) >= whole {
			break
		}
		switch v := item.(type) {
		case *ScalarInit:
			out = append(out, v.Value)
		case *ListInit:
			cut := 1
			partSize := whole
			if len(dims) > 0 {
				partSize = whole / dims[0]
			}
			for cut < len(dims) && len(out)%partSize != 0 {
				cut++
				partSize /= dims[cut-1]
			}
			out = append(out, flatten(v.Items, dims[cut:])...)
		}
	}

	for len(out) < whole {
		out = append(out, &IntLit{Value: 0})
	}
	return out
}

// aggregateString renders a flat, folded value list as nested Koopa
// brace literals, collapsing any block that is entirely zero to
// `zeroinit`.
func aggregateString(values []int, dims []int) string {
	if len(dims) == 0 {
		return fmt.Sprintf("%d", values[0])
	}
	allZero := true
	for _, v := range values {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return "zeroinit"
	}
	blockSize := product(dims[1:])
	parts := make([]string, dims[0])
	for i := range parts {
		parts[i] = aggregateString(values[i*blockSize:(i+1)*blockSize], dims[1:])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// flattenToIndices converts a row-major flat index into per-dimension
// indices, most significant dimension first.
func flattenToIndices(flat int, dims []int) []int {
	idx := make([]int, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		idx[i] = flat % dims[i]
		flat /= dims[i]
	}
	return idx
}

// localArrayInitCode emits, for a local array variable, one getelemptr
// chain plus store per flattened element: there is no aggregate
// literal syntax for `alloc`ed locals, so every element is stored
// individually.
func localArrayInitCode(ctx *EmitContext, internalName string, dims []int, elems []Expr) string {
	var b strings.Builder
	for flat, elem := range elems {
		indices := flattenToIndices(flat, dims)
		current := "@" + internalName
		for _, ix := range indices {
			id := ctx.newSSA()
			fmt.Fprintf(&b, "    %%%d = getelemptr %s, %d\n", id, current, ix)
			current = fmt.Sprintf("%%%d", id)
		}
		code, operand := Operand(ctx, elem)
		b.WriteString(code)
		fmt.Fprintf(&b, "    store %s, %s\n", operand, current)
	}
	return b.String()
}
