package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/confucianzuoyuan/sysyc/internal/ast"
	"github.com/confucianzuoyuan/sysyc/internal/parser"
)

// foldReturnValue parses a single `int main(){ return <expr>; }` body
// and folds its return expression.
func foldReturnValue(t *testing.T, expr string) (int32, bool) {
	t.Helper()
	prog, err := parser.Parse("int main() { return " + expr + "; }")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	fn := prog.Items[len(prog.Items)-1].(*ast.Function)
	ret := fn.Body.Items[0].(*ast.ReturnStmt)
	return ret.Value.InlineNumber(ast.NewEmitContext())
}

func TestInlineNumberArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want int32
	}{
		{"1 + 2 * 3 - 4", 3},
		{"(1 + 2) * 3", 9},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"-5 + 2", -3},
		{"!0", 1},
		{"1 && 0", 0},
		{"1 || 0", 1},
		{"1 < 2", 1},
		{"1 >= 2", 0},
	}
	var want, got []int32
	for _, c := range cases {
		v, ok := foldReturnValue(t, c.expr)
		if !ok {
			t.Fatalf("InlineNumber(%q) = (_, false), want a folded constant", c.expr)
		}
		want = append(want, c.want)
		got = append(got, v)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("folded constants mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineNumberShortCircuitAndSkipsDivByZero(t *testing.T) {
	// 0 && (1/0) must fold to 0 without evaluating the RHS -- if the
	// RHS were evaluated, InlineNumber would need to fold a division
	// by zero.
	v, ok := foldReturnValue(t, "0 && (1 / 0)")
	if !ok || v != 0 {
		t.Errorf("InlineNumber(0 && (1/0)) = (%d, %v), want (0, true)", v, ok)
	}
}

func TestInlineNumberCallNeverFolds(t *testing.T) {
	_, ok := foldReturnValue(t, "getint()")
	if ok {
		t.Errorf("InlineNumber(getint()) = (_, true), want (_, false)")
	}
}
