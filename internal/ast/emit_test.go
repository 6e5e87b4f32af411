package ast_test

import (
	"strings"
	"testing"

	"github.com/confucianzuoyuan/sysyc/internal/ast"
	"github.com/confucianzuoyuan/sysyc/internal/parser"
)

func emitProgram(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	ctx := ast.NewEmitContext()
	return prog.Emit(ctx)
}

func TestEmitReturnConstant(t *testing.T) {
	out := emitProgram(t, "int main() { return 0; }")
	if !strings.Contains(out, "fun @main(): i32 {") {
		t.Errorf("missing function signature, got:\n%s", out)
	}
	if !strings.Contains(out, "ret 0") {
		t.Errorf("missing `ret 0`, got:\n%s", out)
	}
}

func TestEmitBinaryArithmetic(t *testing.T) {
	out := emitProgram(t, "int main() { int a = 1; int b = 2; return a + b * 3; }")
	if !strings.Contains(out, "= mul ") {
		t.Errorf("missing mul instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "= add ") {
		t.Errorf("missing add instruction, got:\n%s", out)
	}
}

func TestEmitShortCircuitAnd(t *testing.T) {
	out := emitProgram(t, "int main() { int a = 1; int b = 0; return a && b; }")
	if !strings.Contains(out, "%land_1:") {
		t.Errorf("missing land_1 label, got:\n%s", out)
	}
	if !strings.Contains(out, "%land_sc_1:") {
		t.Errorf("missing land_sc_1 label, got:\n%s", out)
	}
	if !strings.Contains(out, "= and ") {
		t.Errorf("missing and instruction, got:\n%s", out)
	}
}

func TestEmitShortCircuitOr(t *testing.T) {
	out := emitProgram(t, "int main() { int a = 1; int b = 0; return a || b; }")
	if !strings.Contains(out, "%lor_1:") {
		t.Errorf("missing lor_1 label, got:\n%s", out)
	}
	if !strings.Contains(out, "= or ") {
		t.Errorf("missing or instruction, got:\n%s", out)
	}
}

func TestEmitIfElse(t *testing.T) {
	out := emitProgram(t, "int main() { int a = 1; if (a) { return 1; } else { return 2; } return 0; }")
	if !strings.Contains(out, "%if_1:") || !strings.Contains(out, "%else_1:") {
		t.Errorf("missing if/else labels, got:\n%s", out)
	}
}

func TestEmitWhileBreakContinue(t *testing.T) {
	out := emitProgram(t, `int main() {
		int i = 0;
		while (i < 10) {
			if (i == 5) { break; }
			i = i + 1;
		}
		return i;
	}`)
	if !strings.Contains(out, "%while_1:") || !strings.Contains(out, "%while_body_1:") {
		t.Errorf("missing while labels, got:\n%s", out)
	}
}

func TestEmitGlobalConstArray(t *testing.T) {
	out := emitProgram(t, "const int a[3] = {1, 2, 3}; int main() { return a[0]; }")
	if !strings.Contains(out, "global @a_1_1 = alloc [i32, 3], {1, 2, 3}") {
		t.Errorf("missing global const array aggregate, got:\n%s", out)
	}
	if !strings.Contains(out, "getelemptr") {
		t.Errorf("missing getelemptr for indexed read, got:\n%s", out)
	}
}

func TestEmitGlobalZeroArray(t *testing.T) {
	out := emitProgram(t, "int a[4]; int main() { return a[0]; }")
	if !strings.Contains(out, "global @a_1_1 = alloc [i32, 4], zeroinit") {
		t.Errorf("missing zeroinit global array, got:\n%s", out)
	}
}

func TestEmitFunctionCall(t *testing.T) {
	out := emitProgram(t, "int main() { return getint(); }")
	if !strings.Contains(out, "decl @getint(): i32") {
		t.Errorf("missing runtime library declaration, got:\n%s", out)
	}
	if !strings.Contains(out, "call @getint()") {
		t.Errorf("missing call instruction, got:\n%s", out)
	}
}

func TestEmitArrayParamDecaysToPointer(t *testing.T) {
	out := emitProgram(t, "void f(int a[], int n) { putint(a[0]); }")
	if !strings.Contains(out, "fun @f(@a: *i32, @n: i32)") {
		t.Errorf("missing decayed pointer parameter, got:\n%s", out)
	}
}

func TestEmitLocalConstArrayStoresElementsIndividually(t *testing.T) {
	out := emitProgram(t, "int main() { const int a[2] = {1, 2}; return a[0] + a[1]; }")
	if strings.Contains(out, "store {") {
		t.Errorf("local const array must not store an aggregate literal, got:\n%s", out)
	}
	if !strings.Contains(out, "= getelemptr") {
		t.Errorf("missing per-element getelemptr for local const array, got:\n%s", out)
	}
	if strings.Count(out, "store 1,") != 1 || strings.Count(out, "store 2,") != 1 {
		t.Errorf("missing one store per const array element, got:\n%s", out)
	}
}

func TestEmitNestedInitializerAlignment(t *testing.T) {
	out := emitProgram(t, "const int a[2][3] = {{1, 2, 3}, {4, 5, 6}}; int main() { return a[0][0]; }")
	if !strings.Contains(out, "{{1, 2, 3}, {4, 5, 6}}") {
		t.Errorf("nested aggregate not aligned to rows, got:\n%s", out)
	}
}
