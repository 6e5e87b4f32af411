package riscv

import (
	"github.com/confucianzuoyuan/sysyc/internal/koopa"
	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// Frame is a function's stack-frame layout: a lower region for
// outgoing call arguments beyond the eighth, a middle region holding
// one slot per named IR value of non-unit type, and an upper 4-byte
// return-address slot.
type Frame struct {
	lowerSize  int
	middleSize int
	offsets    map[*koopa.Value]int
}

// Plan scans every instruction in fn once: it reserves a slot for
// every instruction that yields a non-unit value and tracks the
// widest call argument list, to size the outgoing-argument area.
func Plan(fn *koopa.Function) *Frame {
	f := &Frame{offsets: map[*koopa.Value]int{}}
	maxArgs := 0
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Insts {
			if inst.Kind == koopa.KindCall && len(inst.Args) > maxArgs {
				maxArgs = len(inst.Args)
			}
			size := slotSize(inst)
			if size == 0 {
				continue
			}
			f.offsets[inst] = f.middleSize
			f.middleSize += size
		}
	}
	if maxArgs > 8 {
		f.lowerSize = (maxArgs - 8) * 4
	}
	return f
}

// slotSize is the number of bytes Plan reserves for inst's slot. An
// alloc's slot is the variable's actual backing storage, so it is
// sized by the allocated (pointee) type -- an alloc of an array needs
// room for every element, not just the 4 bytes its own pointer type
// would suggest. Every other instruction's slot holds its result value
// itself (always scalar or pointer-sized), sized by that value's own
// type.
func slotSize(inst *koopa.Value) int {
	if inst.Kind == koopa.KindAlloc {
		p, ok := inst.Type.(*types.Pointer)
		if !ok {
			panic("riscv: alloc instruction type is not a pointer")
		}
		return p.BaseType.Size()
	}
	if inst.Type == nil || inst.Type == types.Void {
		return 0
	}
	return inst.Type.Size()
}

// Has reports whether v has a reserved slot.
func (f *Frame) Has(v *koopa.Value) bool {
	_, ok := f.offsets[v]
	return ok
}

// Offset returns v's byte offset from sp: lowerSize plus v's slot
// offset within the middle region.
func (f *Frame) Offset(v *koopa.Value) int {
	off, ok := f.offsets[v]
	if !ok {
		panic("riscv: value has no stack slot")
	}
	return f.lowerSize + off
}

// OffsetLower is always 0: the lower region starts at sp.
func (f *Frame) OffsetLower() int { return 0 }

// OffsetUpper is the return-address slot's offset from sp.
func (f *Frame) OffsetUpper() int { return f.lowerSize + f.middleSize }

// Size is the total frame size, rounded up to a multiple of 16: lower
// region + middle region + the 4-byte return-address slot.
func (f *Frame) Size() int {
	total := f.lowerSize + f.middleSize + 4
	return (total + 15) / 16 * 16
}
