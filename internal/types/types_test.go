package types

import "testing"

func TestPrimarySizeAndKoopa(t *testing.T) {
	if Int.Size() != 4 || Int.Koopa() != "i32" {
		t.Errorf("Int = %+v, want size 4 koopa i32", Int)
	}
	if Void.Size() != 0 || Void.Koopa() != "" {
		t.Errorf("Void = %+v, want size 0 koopa \"\"", Void)
	}
}

func TestArraySizeAndKoopa(t *testing.T) {
	arr := &Array{BaseType: &Array{BaseType: Int, Len: 4}, Len: 3}
	if arr.Size() != 4*4*3 {
		t.Errorf("Size() = %d, want 48", arr.Size())
	}
	if got, want := arr.Koopa(), "[[i32, 4], 3]"; got != want {
		t.Errorf("Koopa() = %q, want %q", got, want)
	}
}

func TestPointerSize(t *testing.T) {
	p := &Pointer{BaseType: Int}
	if p.Size() != 4 {
		t.Errorf("Size() = %d, want 4", p.Size())
	}
	if got, want := p.Koopa(), "*i32"; got != want {
		t.Errorf("Koopa() = %q, want %q", got, want)
	}
}

func TestFunctionKoopa(t *testing.T) {
	f := &Function{Return: Void, Params: []Type{Int, &Pointer{BaseType: Int}}}
	if got, want := f.Koopa(), "(i32, *i32)"; got != want {
		t.Errorf("Koopa() = %q, want %q", got, want)
	}
	f2 := &Function{Return: Int, Params: nil}
	if got, want := f2.Koopa(), "(): i32"; got != want {
		t.Errorf("Koopa() = %q, want %q", got, want)
	}
}
