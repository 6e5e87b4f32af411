package ast

import "github.com/confucianzuoyuan/sysyc/internal/symtab"

// InlineNumber implementations fold an expression to a constant when
// every leaf it depends on is a literal or a scalar const symbol, or
// when the constant LHS of && or || alone decides the result.

func (n *Unary) InlineNumber(ctx *EmitContext) (int32, bool) {
	v, ok := n.Operand.InlineNumber(ctx)
	if !ok {
		return 0, false
	}
	switch n.Op {
	case "+":
		return v, true
	case "-":
		return -v, true
	case "!":
		if v == 0 {
			return 1, true
		}
		return 0, true
	}
	panic("ast: unary op " + n.Op + " is out of domain")
}

func (n *Binary) InlineNumber(ctx *EmitContext) (int32, bool) {
	lv, lok := n.LHS.InlineNumber(ctx)
	rv, rok := n.RHS.InlineNumber(ctx)
	if !lok || !rok {
		return 0, false
	}
	switch n.Op {
	case "+":
		return lv + rv, true
	case "-":
		return lv - rv, true
	case "*":
		return lv * rv, true
	case "/":
		return lv / rv, true
	case "%":
		return lv % rv, true
	case "<":
		return boolInt32(lv < rv), true
	case ">":
		return boolInt32(lv > rv), true
	case "<=":
		return boolInt32(lv <= rv), true
	case ">=":
		return boolInt32(lv >= rv), true
	case "==":
		return boolInt32(lv == rv), true
	case "!=":
		return boolInt32(lv != rv), true
	}
	panic("ast: binary op " + n.Op + " is out of domain")
}

func boolInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// InlineNumber short-circuits: a zero LHS folds the whole expression
// to 0 without ever folding the RHS, so a divide- or mod-by-zero
// guarded by `0 && ...` does not abort folding.
func (n *LogAnd) InlineNumber(ctx *EmitContext) (int32, bool) {
	lv, lok := n.LHS.InlineNumber(ctx)
	if !lok {
		return 0, false
	}
	if lv == 0 {
		return 0, true
	}
	rv, rok := n.RHS.InlineNumber(ctx)
	if !rok {
		return 0, false
	}
	return boolInt32(rv != 0), true
}

// InlineNumber short-circuits symmetrically: a non-zero LHS folds the
// whole expression to 1 without folding the RHS.
func (n *LogOr) InlineNumber(ctx *EmitContext) (int32, bool) {
	lv, lok := n.LHS.InlineNumber(ctx)
	if !lok {
		return 0, false
	}
	if lv != 0 {
		return 1, true
	}
	rv, rok := n.RHS.InlineNumber(ctx)
	if !rok {
		return 0, false
	}
	return boolInt32(rv != 0), true
}

// Call never folds: calls always have observable side effects (or, at
// minimum, are opaque to this compiler's constant-folding pass).
func (n *Call) InlineNumber(*EmitContext) (int32, bool) { return 0, false }

// InlineNumber folds an l-value only when it names a scalar const with
// no indexing -- an array-typed const symbol never folds, neither as a
// whole nor through an index, even a constant one.
func (n *LValue) InlineNumber(ctx *EmitContext) (int32, bool) {
	if len(n.Indices) != 0 {
		return 0, false
	}
	sym := ctx.Symtab.Lookup(n.Name)
	if sym == nil || sym.Kind != symtab.KindConst {
		return 0, false
	}
	if sym.Type.Base() != nil {
		return 0, false
	}
	return int32(sym.ConstValue), true
}
