// Package symtab implements SysY's lexically scoped symbol table: a
// stack of name->symbol maps, base scope at depth 1, with
// internal-name mangling that disambiguates same-named identifiers
// declared in different scopes.
package symtab

import (
	"fmt"

	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// Kind tags what a Symbol denotes.
type Kind int

const (
	KindConst Kind = iota
	KindVariable
	KindFunction
)

// Symbol is one entry in the table: a constant, a variable, or a
// function. ConstValue and ConstArray are only meaningful for KindConst;
// ConstArray holds the flattened aggregate when Type is an array type.
type Symbol struct {
	Kind         Kind
	InternalName string
	Type         types.Type
	ConstValue   int   // valid when Kind == KindConst and Type is scalar
	ConstArray   []int // valid when Kind == KindConst and Type is an array
}

// Table is a stack of scopes, base scope (depth 1) created on
// construction. Mangled names are unique across the lifetime of a
// Table: insert allocates `<raw>_<depth>_<use_count>`, where use_count
// is a monotonically increasing counter private to each (raw, depth)
// pair.
type Table struct {
	scopes   []map[string]*Symbol
	useCount map[string]int
}

// New returns a Table containing only the base (global) scope.
func New() *Table {
	return &Table{
		scopes:   []map[string]*Symbol{{}},
		useCount: map[string]int{},
	}
}

// Push opens a new nested scope.
func (t *Table) Push() {
	t.scopes = append(t.scopes, map[string]*Symbol{})
}

// Pop closes the innermost scope.
func (t *Table) Pop() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth returns the current scope-stack depth (1 at the base scope).
func (t *Table) Depth() int { return len(t.scopes) }

// Insert allocates sym's InternalName and binds raw in the innermost
// scope, overwriting any prior binding of raw in that same scope.
// Function symbols are exempt from mangling: their
// internal name equals raw (library functions and user functions are
// both called by their source name).
func (t *Table) Insert(raw string, sym *Symbol) {
	if sym.Kind == KindFunction {
		sym.InternalName = raw
	} else {
		depth := t.Depth()
		key := fmt.Sprintf("%s_%d", raw, depth)
		t.useCount[key]++
		sym.InternalName = fmt.Sprintf("%s_%d", key, t.useCount[key])
	}
	t.scopes[len(t.scopes)-1][raw] = sym
}

// Lookup scans from the innermost scope outward and returns the first
// binding of raw, or nil if none exists.
func (t *Table) Lookup(raw string) *Symbol {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][raw]; ok {
			return sym
		}
	}
	return nil
}

// IsGlobal reports whether raw's innermost binding lives in the base
// (depth 1) scope.
func (t *Table) IsGlobal(raw string) bool {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if _, ok := t.scopes[i][raw]; ok {
			return i == 0
		}
	}
	return false
}
