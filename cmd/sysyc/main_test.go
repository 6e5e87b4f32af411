package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.c")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestParseArgsModeInputOutput(t *testing.T) {
	mode, input, output := parseArgs([]string{"sysyc", "-riscv", "in.c", "-o", "out.s"})
	if mode != "-riscv" || input != "in.c" || output != "out.s" {
		t.Errorf("parseArgs = (%q, %q, %q), want (-riscv, in.c, out.s)", mode, input, output)
	}
}

func TestRunKoopaModeEmitsTextualIR(t *testing.T) {
	in := writeTempSource(t, "int main() { return 0; }")
	out := filepath.Join(t.TempDir(), "out.koopa")
	if err := run("-koopa", in, out); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "fun @main(): i32 {") {
		t.Errorf("output missing function signature, got:\n%s", data)
	}
}

func TestRunRiscvModeEmitsAssembly(t *testing.T) {
	in := writeTempSource(t, "int main() { return 7; }")
	out := filepath.Join(t.TempDir(), "out.s")
	if err := run("-riscv", in, out); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), ".globl main") {
		t.Errorf("output missing main label, got:\n%s", data)
	}
}

// -perf behaves identically to -riscv: same back end, same output.
func TestRunPerfModeMatchesRiscvMode(t *testing.T) {
	in := writeTempSource(t, "int main() { return 3; }")
	riscvOut := filepath.Join(t.TempDir(), "riscv.s")
	perfOut := filepath.Join(t.TempDir(), "perf.s")
	if err := run("-riscv", in, riscvOut); err != nil {
		t.Fatalf("run(-riscv): %v", err)
	}
	if err := run("-perf", in, perfOut); err != nil {
		t.Fatalf("run(-perf): %v", err)
	}
	riscvData, _ := os.ReadFile(riscvOut)
	perfData, _ := os.ReadFile(perfOut)
	if string(riscvData) != string(perfData) {
		t.Errorf("-perf output differs from -riscv output:\n-riscv:\n%s\n-perf:\n%s", riscvData, perfData)
	}
}

func TestRunRejectsMissingInputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.s")
	err := run("-riscv", filepath.Join(t.TempDir(), "missing.c"), out)
	if err == nil {
		t.Errorf("run with a missing input file returned nil error")
	}
}
