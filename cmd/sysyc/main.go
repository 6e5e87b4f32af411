// Command sysyc is the compiler driver: it dispatches on mode, wires
// the front end to the chosen back end, and writes the result to the
// requested output file.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/confucianzuoyuan/sysyc/internal/ast"
	"github.com/confucianzuoyuan/sysyc/internal/koopa"
	"github.com/confucianzuoyuan/sysyc/internal/parser"
	"github.com/confucianzuoyuan/sysyc/internal/riscv"
)

func usage(status int) {
	fmt.Fprintf(os.Stderr, "usage: sysyc (-koopa|-riscv|-perf) <input> -o <output>\n")
	os.Exit(status)
}

func parseArgs(args []string) (mode, input, output string) {
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-koopa", "-riscv", "-perf":
			if mode != "" {
				log.Fatalf("sysyc: multiple modes given (%s and %s)", mode, args[i])
			}
			mode = args[i]
		case "-o":
			if i+1 == len(args) {
				usage(1)
			}
			i++
			output = args[i]
		default:
			if input != "" {
				log.Fatalf("sysyc: multiple input files given (%s and %s)", input, args[i])
			}
			input = args[i]
		}
	}
	if mode == "" {
		log.Fatalf("sysyc: exactly one of -koopa, -riscv, -perf is required")
	}
	if input == "" {
		log.Fatalf("sysyc: no input file given")
	}
	return mode, input, output
}

func openOutput(path string) (*os.File, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open output file: %s: %w", path, err)
	}
	return out, nil
}

func run(mode, input, output string) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("cannot read input file: %s: %w", input, err)
	}

	prog, err := parser.Parse(string(src))
	if err != nil {
		return err
	}

	koopaText := prog.Emit(ast.NewEmitContext())
	if mode == "-koopa" {
		return writeText(output, koopaText)
	}

	// -riscv and -perf both lower through the same back end; -perf
	// behaves identically to -riscv.
	raw, err := koopa.Read(koopaText)
	if err != nil {
		return fmt.Errorf("internal error: front end produced unreadable IR: %w", err)
	}
	return writeText(output, riscv.Emit(raw))
}

func writeText(output, text string) error {
	out, err := openOutput(output)
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer out.Close()
	}
	_, err = out.WriteString(text)
	return err
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Fatalf("sysyc: internal error: %v", r)
		}
	}()

	mode, input, output := parseArgs(os.Args)
	if err := run(mode, input, output); err != nil {
		log.Fatalf("sysyc: %v", err)
	}
}
