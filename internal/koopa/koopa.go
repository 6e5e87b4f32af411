// Package koopa defines the raw Koopa IR model and a reader that
// parses the front end's textual Koopa output back into that model,
// so the back end can consume values by kind tag without re-deriving
// structure from text at lowering time.
package koopa

import "github.com/confucianzuoyuan/sysyc/internal/types"

// ValueKind tags what a Value represents.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindZeroInit
	KindAggregate
	KindFuncArg
	KindAlloc
	KindGlobalAlloc
	KindLoad
	KindStore
	KindGetElemPtr
	KindGetPtr
	KindBinary
	KindBranch
	KindJump
	KindCall
	KindReturn
)

// Value is one IR value: a single word, the sum of every ValueKind
// above. Name is its Koopa identity ("%7" or "@x"), empty for values
// with no result (store, branch, jump, void return, void call).
type Value struct {
	Kind ValueKind
	Type types.Type
	Name string

	// KindInt
	IntVal int32

	// KindAggregate
	Elems []*Value

	// KindAlloc / KindGlobalAlloc: Init holds the optional initializer
	// (nil for a bare `alloc`, set for `global alloc ... = T, init`).
	Init *Value

	// KindLoad
	Src *Value

	// KindStore
	StoreVal *Value
	Dst      *Value

	// KindGetElemPtr / KindGetPtr
	Base *Value
	Idx  *Value

	// KindBinary
	Op  string
	LHS *Value
	RHS *Value

	// KindBranch
	Cond        *Value
	TrueLabel   string
	FalseLabel  string

	// KindJump
	Target string

	// KindCall
	Callee string
	Args   []*Value

	// KindReturn: RetVal is nil for a bare `ret`.
	RetVal *Value
}

// BasicBlock is a maximal straight-line instruction sequence ending in
// exactly one terminator.
type BasicBlock struct {
	Name  string
	Insts []*Value
}

// Function is a defined function: a name, its formal parameters (as
// KindFuncArg values), a return type, and its basic blocks in program
// order.
type Function struct {
	Name       string
	Params     []*Value
	ReturnType types.Type
	Blocks     []*BasicBlock
}

// FuncDecl is an external declaration with no body (a runtime library
// import); the back end emits nothing for it.
type FuncDecl struct {
	Name string
	Type *types.Function
}

// Global is a module-level allocation. Value is the same *Value
// instance registered for references to this global from inside
// function bodies (load/store/getelemptr/getptr operands resolve to
// it by identity), so the back end can correlate a declaration with
// its uses without a second name-keyed lookup.
type Global struct {
	Name  string
	Type  types.Type
	Init  *Value
	Value *Value
}

// Program is the parsed form of one Koopa IR text unit.
type Program struct {
	Decls   []*FuncDecl
	Globals []*Global
	Funcs   []*Function
}
