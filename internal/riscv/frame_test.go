package riscv_test

import (
	"testing"

	"github.com/confucianzuoyuan/sysyc/internal/ast"
	"github.com/confucianzuoyuan/sysyc/internal/koopa"
	"github.com/confucianzuoyuan/sysyc/internal/parser"
	"github.com/confucianzuoyuan/sysyc/internal/riscv"
)

func compile(t *testing.T, src string) *koopa.Program {
	t.Helper()
	p, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	text := p.Emit(ast.NewEmitContext())
	prog, err := koopa.Read(text)
	if err != nil {
		t.Fatalf("koopa.Read error: %v\ninput:\n%s", err, text)
	}
	return prog
}

func findFunc(t *testing.T, prog *koopa.Program, name string) *koopa.Function {
	t.Helper()
	for _, fn := range prog.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no function named %q", name)
	return nil
}

// A frame with no locals and no outgoing args still reserves the
// upper region's 4-byte return-address slot, rounded up to 16.
func TestFrameSizeEmptyFunctionIsOneReturnAddressSlotRoundedUp(t *testing.T) {
	prog := compile(t, "int main() { return 0; }")
	fn := findFunc(t, prog, "main")
	f := riscv.Plan(fn)
	if got, want := f.Size(), 16; got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
	if got, want := f.OffsetUpper(), 0; got != want {
		t.Errorf("OffsetUpper() = %d, want %d (no locals, no outgoing args)", got, want)
	}
}

// Every named local variable gets its own middle-region slot.
func TestFramePlanReservesSlotsForLocals(t *testing.T) {
	prog := compile(t, "int main() { int a = 1; int b = 2; return a + b; }")
	fn := findFunc(t, prog, "main")
	f := riscv.Plan(fn)

	var allocs []*koopa.Value
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Insts {
			if inst.Kind == koopa.KindAlloc {
				allocs = append(allocs, inst)
			}
		}
	}
	if len(allocs) != 2 {
		t.Fatalf("got %d allocs, want 2", len(allocs))
	}
	for _, a := range allocs {
		if !f.Has(a) {
			t.Errorf("alloc %+v has no reserved slot", a)
		}
	}
	if f.Offset(allocs[0]) == f.Offset(allocs[1]) {
		t.Errorf("distinct locals share an offset: %d", f.Offset(allocs[0]))
	}
}

// An array alloc's slot is sized by its full element count, not by
// the 4 bytes its own pointer type would suggest.
func TestFramePlanSizesArrayAllocByElementCount(t *testing.T) {
	prog := compile(t, "int main() { int a[10]; return a[0]; }")
	fn := findFunc(t, prog, "main")
	f := riscv.Plan(fn)

	var arrayAlloc *koopa.Value
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Insts {
			if inst.Kind == koopa.KindAlloc {
				arrayAlloc = inst
			}
		}
	}
	if arrayAlloc == nil {
		t.Fatalf("no alloc found")
	}

	// The array's 40 bytes must fit inside the middle region: confirm
	// by checking the upper region (return address) sits at least 40
	// bytes above the lower region, the only other consumer of frame
	// space in this function.
	if got, want := f.OffsetUpper()-f.OffsetLower(), 40; got < want {
		t.Errorf("middle region = %d bytes, want at least %d (one 10-element int array)", got, want)
	}
}

// A call with more than 8 arguments needs a non-zero lower region
// sized for the overflow arguments.
func TestFramePlanOutgoingArgsBeyondEighth(t *testing.T) {
	prog := compile(t, `
		int g(int a, int b, int c, int d, int e, int f, int g, int h, int i, int j) { return a; }
		int main() { return g(1, 2, 3, 4, 5, 6, 7, 8, 9, 10); }
	`)
	fn := findFunc(t, prog, "main")
	f := riscv.Plan(fn)
	if got, want := f.OffsetLower(), 0; got != want {
		t.Errorf("OffsetLower() = %d, want %d", got, want)
	}
	// 10 args - 8 register args = 2 overflow args = 8 bytes of lower region,
	// below main's one 4-byte slot (the call result): the return-address
	// slot therefore sits at 8 + 4 = 12, and 12 + 4 rounds to a 16-byte frame.
	if got, want := f.OffsetUpper(), 8+4; got != want {
		t.Errorf("OffsetUpper() = %d, want %d (8-byte outgoing-argument area plus one 4-byte slot)", got, want)
	}
}

// Size is always a multiple of 16, regardless of how many locals or
// outgoing arguments a function has.
func TestFrameSizeAlwaysRoundsTo16(t *testing.T) {
	prog := compile(t, "int main() { int a = 1; int b = 2; int c = 3; return a + b + c; }")
	fn := findFunc(t, prog, "main")
	f := riscv.Plan(fn)
	if f.Size()%16 != 0 {
		t.Errorf("Size() = %d, not a multiple of 16", f.Size())
	}
}
