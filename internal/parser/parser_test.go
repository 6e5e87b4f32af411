package parser

import (
	"testing"

	"github.com/confucianzuoyuan/sysyc/internal/ast"
)

func TestParseMinimalFunction(t *testing.T) {
	prog, err := Parse("int main() { return 0; }")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(prog.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(prog.Items))
	}
	fn, ok := prog.Items[0].(*ast.Function)
	if !ok {
		t.Fatalf("item 0 is %T, want *ast.Function", prog.Items[0])
	}
	if fn.Name != "main" {
		t.Errorf("fn.Name = %q, want main", fn.Name)
	}
	if len(fn.Body.Items) != 1 {
		t.Fatalf("got %d body items, want 1", len(fn.Body.Items))
	}
	ret, ok := fn.Body.Items[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body item is %T, want *ast.ReturnStmt", fn.Body.Items[0])
	}
	lit, ok := ret.Value.(*ast.IntLit)
	if !ok || lit.Value != 0 {
		t.Errorf("return value = %#v, want IntLit{0}", ret.Value)
	}
}

func TestParseGlobalConstAndVar(t *testing.T) {
	prog, err := Parse("const int N = 10; int arr[3] = {1, 2, 3};")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(prog.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(prog.Items))
	}
	if _, ok := prog.Items[0].(*ast.ConstDecl); !ok {
		t.Errorf("item 0 is %T, want *ast.ConstDecl", prog.Items[0])
	}
	if _, ok := prog.Items[1].(*ast.VarDecl); !ok {
		t.Errorf("item 1 is %T, want *ast.VarDecl", prog.Items[1])
	}
}

func TestParseIfWhileBreakContinue(t *testing.T) {
	src := `int main() {
		int i = 0;
		while (i < 10) {
			if (i == 5) break;
			if (i == 3) continue;
			i = i + 1;
		}
		return i;
	}`
	_, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog, err := Parse("int main() { return 1 + 2 * 3; }")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	fn := prog.Items[0].(*ast.Function)
	ret := fn.Body.Items[0].(*ast.ReturnStmt)
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("top-level op = %#v, want +", ret.Value)
	}
	rhs, ok := bin.RHS.(*ast.Binary)
	if !ok || rhs.Op != "*" {
		t.Errorf("rhs = %#v, want a * binary", bin.RHS)
	}
}

func TestParseShortCircuitAndCall(t *testing.T) {
	prog, err := Parse("int main() { return getint() && 1 || 0; }")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	fn := prog.Items[0].(*ast.Function)
	ret := fn.Body.Items[0].(*ast.ReturnStmt)
	lor, ok := ret.Value.(*ast.LogOr)
	if !ok {
		t.Fatalf("top-level expr = %#v, want *ast.LogOr", ret.Value)
	}
	land, ok := lor.LHS.(*ast.LogAnd)
	if !ok {
		t.Fatalf("lhs = %#v, want *ast.LogAnd", lor.LHS)
	}
	if _, ok := land.LHS.(*ast.Call); !ok {
		t.Errorf("land.LHS = %#v, want *ast.Call", land.LHS)
	}
}

func TestParseArrayParam(t *testing.T) {
	prog, err := Parse("void f(int a[], int n) { return; }")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	fn := prog.Items[0].(*ast.Function)
	if !fn.Params[0].ArrayParam {
		t.Errorf("Params[0].ArrayParam = false, want true")
	}
	if fn.Params[1].ArrayParam {
		t.Errorf("Params[1].ArrayParam = true, want false")
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse("int main() { return 0 }"); err == nil {
		t.Errorf("expected a parse error for missing semicolon")
	}
}
