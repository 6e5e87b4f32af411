// Package riscv lowers the raw Koopa IR model of internal/koopa to
// RV32IM assembly text: a per-function stack-frame planner, a
// global-name registry, and a uniform memory-first emitter where every
// IR value lives on the stack and is materialized into a small
// scratch-register pool (t1, t2, t3) around each instruction.
package riscv

import (
	"fmt"
	"strings"

	"github.com/confucianzuoyuan/sysyc/internal/koopa"
	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// funcCtx threads the per-function frame plan and the whole-program
// global registry through instruction lowering, the way
// ast.EmitContext threads the front end's counters and symbol table.
type funcCtx struct {
	fn      *koopa.Function
	frame   *Frame
	globals *Registry
}

// Emit lowers prog to RV32IM assembly text. Globals are visited before
// functions, matching the front end's own rule that declarations
// precede the code that may reference them.
func Emit(prog *koopa.Program) string {
	var b strings.Builder
	reg := NewRegistry()
	for _, g := range prog.Globals {
		reg.Bind(g.Value, g.Name)
		emitGlobal(&b, g)
	}
	for _, fn := range prog.Funcs {
		emitFunction(&b, fn, reg)
	}
	return b.String()
}

// inImm12 reports whether offset fits a RISC-V I-type 12-bit signed
// immediate; outside that range, large-immediate synthesis kicks in.
func inImm12(offset int) bool { return offset >= -2048 && offset <= 2047 }

// emitAddrOffset computes sp+offset into destReg without touching
// memory, used to learn the address a stack-resident alloc or a
// getelemptr/getptr base itself denotes.
func emitAddrOffset(b *strings.Builder, destReg, tmpReg string, offset int) {
	if inImm12(offset) {
		fmt.Fprintf(b, "    addi %s, sp, %d\n", destReg, offset)
		return
	}
	fmt.Fprintf(b, "    li %s, %d\n", tmpReg, offset)
	fmt.Fprintf(b, "    add %s, sp, %s\n", destReg, tmpReg)
}

// emitLoadOffset loads the word at sp+offset into destReg, synthesizing
// the offset through tmpReg when it doesn't fit a 12-bit immediate.
func emitLoadOffset(b *strings.Builder, destReg, tmpReg string, offset int) {
	if inImm12(offset) {
		fmt.Fprintf(b, "    lw %s, %d(sp)\n", destReg, offset)
		return
	}
	fmt.Fprintf(b, "    li %s, %d\n", tmpReg, offset)
	fmt.Fprintf(b, "    add sp, sp, %s\n", tmpReg)
	fmt.Fprintf(b, "    lw %s, 0(sp)\n", destReg)
	fmt.Fprintf(b, "    sub sp, sp, %s\n", tmpReg)
}

// emitStoreOffset stores srcReg to the word at sp+offset.
func emitStoreOffset(b *strings.Builder, srcReg, tmpReg string, offset int) {
	if inImm12(offset) {
		fmt.Fprintf(b, "    sw %s, %d(sp)\n", srcReg, offset)
		return
	}
	fmt.Fprintf(b, "    li %s, %d\n", tmpReg, offset)
	fmt.Fprintf(b, "    add sp, sp, %s\n", tmpReg)
	fmt.Fprintf(b, "    sw %s, 0(sp)\n", srcReg)
	fmt.Fprintf(b, "    sub sp, sp, %s\n", tmpReg)
}

// emitSpAdjust grows (negative delta) or shrinks (positive delta) the
// stack pointer by delta bytes, used by the function prologue and
// every return's epilogue.
func emitSpAdjust(b *strings.Builder, tmpReg string, delta int) {
	if inImm12(delta) {
		fmt.Fprintf(b, "    addi sp, sp, %d\n", delta)
		return
	}
	fmt.Fprintf(b, "    li %s, %d\n", tmpReg, delta)
	fmt.Fprintf(b, "    add sp, sp, %s\n", tmpReg)
}

// addressOf resolves the real memory address v denotes into reg. An
// alloc's own stack slot, or a global's own symbol, *is* that address
// -- no memory access is needed to learn it. Every other
// pointer-valued instruction (getelemptr, getptr, a loaded pointer
// parameter) computed an address at run time and stored it as
// ordinary data in its own slot, so resolving it is an ordinary value
// load. This single rule, applied by kind, is what makes chained
// indexing through multiple array dimensions address the right memory:
// only the innermost getelemptr/getptr reads straight off an alloc:
// every one above it reads the address the one below it computed.
func (c *funcCtx) addressOf(b *strings.Builder, reg, tmp string, v *koopa.Value) {
	if v.Kind == koopa.KindGlobalAlloc {
		name, _ := c.globals.Lookup(v)
		fmt.Fprintf(b, "    la %s, %s\n", reg, name)
		return
	}
	if v.Kind == koopa.KindAlloc {
		emitAddrOffset(b, reg, tmp, c.frame.Offset(v))
		return
	}
	c.loadValue(b, reg, tmp, v)
}

// loadValue materializes v's value into reg: an integer literal
// becomes `li`; a global scalar is read through its symbol; a
// parameter not yet copied into its named alloc comes from its
// calling-convention register or stack slot; anything else is read
// from its own stack slot.
func (c *funcCtx) loadValue(b *strings.Builder, reg, tmp string, v *koopa.Value) {
	switch {
	case v.Kind == koopa.KindInt:
		fmt.Fprintf(b, "    li %s, %d\n", reg, v.IntVal)
	case c.globals.Has(v):
		name, _ := c.globals.Lookup(v)
		fmt.Fprintf(b, "    la %s, %s\n", reg, name)
		fmt.Fprintf(b, "    lw %s, 0(%s)\n", reg, reg)
	case !c.frame.Has(v):
		c.loadParam(b, reg, tmp, v)
	default:
		emitLoadOffset(b, reg, tmp, c.frame.Offset(v))
	}
}

// loadParam resolves a function-argument placeholder that has not yet
// been copied into its own named alloc: the sole use site is the
// parameter's initial `store @p, @p_internal`, so its location is
// derived from its position among fn.Params rather than from a stack
// slot of its own.
func (c *funcCtx) loadParam(b *strings.Builder, reg, tmp string, v *koopa.Value) {
	idx := -1
	for i, p := range c.fn.Params {
		if p == v {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic("riscv: value has no stack slot and is not a function parameter")
	}
	if idx < 8 {
		fmt.Fprintf(b, "    mv %s, a%d\n", reg, idx)
		return
	}
	emitLoadOffset(b, reg, tmp, c.frame.Size()+(idx-8)*4)
}

// storeResult writes reg to v's own slot: a global through its
// symbol, otherwise the stack slot Plan reserved for it.
func (c *funcCtx) storeResult(b *strings.Builder, reg, tmp string, v *koopa.Value) {
	if name, ok := c.globals.Lookup(v); ok {
		fmt.Fprintf(b, "    la %s, %s\n", tmp, name)
		fmt.Fprintf(b, "    sw %s, 0(%s)\n", reg, tmp)
		return
	}
	emitStoreOffset(b, reg, tmp, c.frame.Offset(v))
}

// emitFunction lowers one defined function. Declarations (no basic
// blocks) emit nothing.
func emitFunction(b *strings.Builder, fn *koopa.Function, globals *Registry) {
	if len(fn.Blocks) == 0 {
		return
	}
	c := &funcCtx{fn: fn, frame: Plan(fn), globals: globals}

	fmt.Fprintf(b, "    .text\n")
	fmt.Fprintf(b, "    .globl %s\n", fn.Name)
	fmt.Fprintf(b, "%s:\n", fn.Name)

	frameSize := c.frame.Size()
	emitSpAdjust(b, "t3", -frameSize)
	emitStoreOffset(b, "ra", "t3", c.frame.OffsetUpper())

	for _, blk := range fn.Blocks {
		fmt.Fprintf(b, "%s:\n", blk.Name)
		for _, inst := range blk.Insts {
			c.emitInst(b, inst)
		}
	}
	b.WriteString("\n")
}

func (c *funcCtx) emitInst(b *strings.Builder, inst *koopa.Value) {
	switch inst.Kind {
	case koopa.KindAlloc:
		// No code: the slot is already reserved.
	case koopa.KindLoad:
		c.emitLoad(b, inst)
	case koopa.KindStore:
		c.emitStore(b, inst)
	case koopa.KindBinary:
		c.emitBinary(b, inst)
	case koopa.KindBranch:
		c.emitBranch(b, inst)
	case koopa.KindJump:
		fmt.Fprintf(b, "    j %s\n", inst.Target)
	case koopa.KindCall:
		c.emitCall(b, inst)
	case koopa.KindReturn:
		c.emitReturn(b, inst)
	case koopa.KindGetElemPtr, koopa.KindGetPtr:
		c.emitGetPtr(b, inst)
	default:
		panic(fmt.Sprintf("riscv: instruction kind %v is out of domain", inst.Kind))
	}
}

func (c *funcCtx) emitLoad(b *strings.Builder, inst *koopa.Value) {
	c.addressOf(b, "t2", "t3", inst.Src)
	fmt.Fprintf(b, "    lw t1, 0(t2)\n")
	c.storeResult(b, "t1", "t3", inst)
}

func (c *funcCtx) emitStore(b *strings.Builder, inst *koopa.Value) {
	c.addressOf(b, "t2", "t3", inst.Dst)
	c.loadValue(b, "t1", "t3", inst.StoreVal)
	fmt.Fprintf(b, "    sw t1, 0(t2)\n")
}

var directBinaryOps = map[string]string{
	"add": "add", "sub": "sub", "mul": "mul", "div": "div", "mod": "rem",
	"lt": "slt", "gt": "sgt", "and": "and", "or": "or", "xor": "xor",
}

func (c *funcCtx) emitBinary(b *strings.Builder, inst *koopa.Value) {
	c.loadValue(b, "t2", "t3", inst.LHS)
	c.loadValue(b, "t3", "t1", inst.RHS)
	switch inst.Op {
	case "le":
		fmt.Fprintf(b, "    sgt t1, t2, t3\n")
		fmt.Fprintf(b, "    seqz t1, t1\n")
	case "ge":
		fmt.Fprintf(b, "    slt t1, t2, t3\n")
		fmt.Fprintf(b, "    seqz t1, t1\n")
	case "eq":
		fmt.Fprintf(b, "    xor t1, t2, t3\n")
		fmt.Fprintf(b, "    seqz t1, t1\n")
	case "ne":
		fmt.Fprintf(b, "    xor t1, t2, t3\n")
		fmt.Fprintf(b, "    snez t1, t1\n")
	default:
		op, ok := directBinaryOps[inst.Op]
		if !ok {
			panic(fmt.Sprintf("riscv: binary op %q is out of domain", inst.Op))
		}
		fmt.Fprintf(b, "    %s t1, t2, t3\n", op)
	}
	c.storeResult(b, "t1", "t2", inst)
}

func (c *funcCtx) emitBranch(b *strings.Builder, inst *koopa.Value) {
	if inst.Cond.Kind == koopa.KindInt {
		if inst.Cond.IntVal != 0 {
			fmt.Fprintf(b, "    j %s\n", inst.TrueLabel)
		} else {
			fmt.Fprintf(b, "    j %s\n", inst.FalseLabel)
		}
		return
	}
	c.loadValue(b, "t1", "t2", inst.Cond)
	fmt.Fprintf(b, "    bnez t1, %s\n", inst.TrueLabel)
	fmt.Fprintf(b, "    j %s\n", inst.FalseLabel)
}

func (c *funcCtx) emitCall(b *strings.Builder, inst *koopa.Value) {
	for i, arg := range inst.Args {
		if i >= 8 {
			break
		}
		c.loadValue(b, fmt.Sprintf("a%d", i), "t3", arg)
	}
	for i := 8; i < len(inst.Args); i++ {
		c.loadValue(b, "t1", "t3", inst.Args[i])
		emitStoreOffset(b, "t1", "t3", c.frame.OffsetLower()+(i-8)*4)
	}
	fmt.Fprintf(b, "    call %s\n", inst.Callee)
	if inst.Type != nil && inst.Type != types.Void {
		c.storeResult(b, "a0", "t1", inst)
	}
}

func (c *funcCtx) emitReturn(b *strings.Builder, inst *koopa.Value) {
	if inst.RetVal != nil {
		c.loadValue(b, "a0", "t1", inst.RetVal)
	}
	emitLoadOffset(b, "ra", "t1", c.frame.OffsetUpper())
	emitSpAdjust(b, "t1", c.frame.Size())
	fmt.Fprintf(b, "    ret\n")
}

// emitGetPtr lowers both getelemptr and getptr: addr = base ± idx *
// size(elem_type). Both are lowered identically; addressOf resolves
// base by the base value's own kind: an alloc/global is its own
// address, while any other base (a loaded pointer, or a prior
// getelemptr/getptr result in an indexing chain) needs one ordinary
// value load to recover the address.
func (c *funcCtx) emitGetPtr(b *strings.Builder, inst *koopa.Value) {
	c.addressOf(b, "t1", "t3", inst.Base)
	c.loadValue(b, "t2", "t3", inst.Idx)
	elemSize := inst.Type.(*types.Pointer).BaseType.Size()
	fmt.Fprintf(b, "    li t3, %d\n", elemSize)
	fmt.Fprintf(b, "    mul t2, t2, t3\n")
	fmt.Fprintf(b, "    add t1, t1, t2\n")
	c.storeResult(b, "t1", "t3", inst)
}

// emitGlobal lowers a module-level allocation: `.data`, a `.globl`
// directive, the symbol label, then the initializer.
func emitGlobal(b *strings.Builder, g *koopa.Global) {
	fmt.Fprintf(b, "    .data\n")
	fmt.Fprintf(b, "    .globl %s\n", g.Name)
	fmt.Fprintf(b, "%s:\n", g.Name)
	emitGlobalInit(b, g.Init)
	b.WriteString("\n")
}

func emitGlobalInit(b *strings.Builder, init *koopa.Value) {
	switch init.Kind {
	case koopa.KindZeroInit:
		fmt.Fprintf(b, "    .zero %d\n", init.Type.Size())
	case koopa.KindInt:
		fmt.Fprintf(b, "    .word %d\n", init.IntVal)
	case koopa.KindAggregate:
		for _, elem := range init.Elems {
			emitGlobalInit(b, elem)
		}
	default:
		panic(fmt.Sprintf("riscv: global initializer kind %v is out of domain", init.Kind))
	}
}
