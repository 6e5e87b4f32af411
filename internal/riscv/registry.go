package riscv

import "github.com/confucianzuoyuan/sysyc/internal/koopa"

// Registry maps IR global-alloc values to assembler symbols. A global's
// Koopa name, already mangled by the front end (SysY `count` becomes
// `@count_1_1`), becomes the assembler symbol `count_1_1` (the leading
// `@` Koopa identity marker is stripped); the registry
// exists so load/store/getelemptr lowering can tell, by value
// identity, whether an operand is file-scope storage addressed with
// `la` or a stack slot addressed by offset from `sp`.
//
// Populated once while visiting every global ahead of any function,
// and never cleared afterward, since (unlike the per-function stack
// frame) global bindings must remain resolvable from every function's
// body for the rest of the unit.
type Registry struct {
	names map[*koopa.Value]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: map[*koopa.Value]string{}}
}

// Bind records v's assembler symbol.
func (r *Registry) Bind(v *koopa.Value, symbol string) {
	r.names[v] = symbol
}

// Has reports whether v is a registered global.
func (r *Registry) Has(v *koopa.Value) bool {
	_, ok := r.names[v]
	return ok
}

// Lookup returns v's assembler symbol, if any.
func (r *Registry) Lookup(v *koopa.Value) (string, bool) {
	name, ok := r.names[v]
	return name, ok
}
