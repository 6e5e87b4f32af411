package koopa

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/confucianzuoyuan/sysyc/internal/types"
)

// Read parses Koopa IR text into a *Program. It assumes the input is
// well-formed -- the front end that produces it is the only expected
// caller -- so a malformed line aborts the whole read at once and is
// returned as a descriptive error rather than failing a softer check.
func Read(text string) (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(readError); ok {
				err = fmt.Errorf("koopa: %s", string(re))
				return
			}
			panic(r)
		}
	}()

	r := &reader{
		globals: map[string]*Value{},
		lines:   splitLines(text),
	}
	return r.readProgram(), nil
}

type readError string

func fail(format string, args ...interface{}) {
	panic(readError(fmt.Sprintf(format, args...)))
}

func splitLines(text string) []string {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

type reader struct {
	lines   []string
	pos     int
	globals map[string]*Value // @name -> Value, for globals and func decls/defs referenced by callee
	locals  map[string]*Value // %id / @param -> Value, reset per function
}

func (r *reader) peek() (string, bool) {
	for r.pos < len(r.lines) {
		line := strings.TrimSpace(r.lines[r.pos])
		if line == "" {
			r.pos++
			continue
		}
		return line, true
	}
	return "", false
}

func (r *reader) next() string {
	line, ok := r.peek()
	if !ok {
		fail("unexpected end of input")
	}
	r.pos++
	return line
}

func (r *reader) readProgram() *Program {
	prog := &Program{}
	for {
		line, ok := r.peek()
		if !ok {
			break
		}
		switch {
		case strings.HasPrefix(line, "decl "):
			prog.Decls = append(prog.Decls, r.readDecl())
		case strings.HasPrefix(line, "global "):
			g := r.readGlobal()
			prog.Globals = append(prog.Globals, g)
		case strings.HasPrefix(line, "fun "):
			prog.Funcs = append(prog.Funcs, r.readFunction())
		default:
			fail("unexpected top-level line %q", line)
		}
	}
	return prog
}

// readDecl parses `decl @name(T, ...)[: R]`.
func (r *reader) readDecl() *FuncDecl {
	line := r.next()
	line = strings.TrimPrefix(line, "decl @")
	name, rest := splitAt(line, "(")
	paramsText, rest := splitAt(rest, ")")
	var ret types.Type = types.Void
	if after := strings.TrimPrefix(rest, ":"); after != rest {
		ret = parseType(after)
	}
	var params []types.Type
	if strings.TrimSpace(paramsText) != "" {
		for _, p := range splitTopLevel(paramsText, ',') {
			params = append(params, parseType(p))
		}
	}
	fd := &FuncDecl{Name: name, Type: &types.Function{Return: ret, Params: params}}
	r.globals["@"+name] = &Value{Kind: KindFuncArg, Type: fd.Type, Name: "@" + name}
	return fd
}

// readGlobal parses `global @name = alloc T, init`.
func (r *reader) readGlobal() *Global {
	line := r.next()
	line = strings.TrimPrefix(line, "global @")
	name, rest := splitAt(line, "=")
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "alloc"))
	typeText, initText := splitTopLevel2(rest, ',')
	typ := parseType(typeText)
	init := r.parseInit(strings.TrimSpace(initText), typ)
	v := &Value{Kind: KindGlobalAlloc, Type: &types.Pointer{BaseType: typ}, Name: "@" + name}
	r.globals["@"+name] = v
	return &Global{Name: name, Type: typ, Init: init, Value: v}
}

func (r *reader) parseInit(text string, typ types.Type) *Value {
	text = strings.TrimSpace(text)
	if text == "zeroinit" {
		return &Value{Kind: KindZeroInit, Type: typ}
	}
	if strings.HasPrefix(text, "{") {
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "{"), "}")
		arr, ok := typ.(*types.Array)
		if !ok {
			fail("aggregate initializer for non-array type %s", typ.Koopa())
		}
		var elems []*Value
		for _, part := range splitTopLevel(inner, ',') {
			elems = append(elems, r.parseInit(part, arr.BaseType))
		}
		return &Value{Kind: KindAggregate, Type: typ, Elems: elems}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		fail("invalid initializer literal %q", text)
	}
	return &Value{Kind: KindInt, Type: typ, IntVal: int32(n)}
}

// readFunction parses `fun @name(@p: T, ...)[: R] { ... }`.
func (r *reader) readFunction() *Function {
	line := r.next()
	line = strings.TrimPrefix(line, "fun @")
	name, rest := splitAt(line, "(")
	paramsText, rest := splitAt(rest, ")")
	rest = strings.TrimSpace(rest)
	var ret types.Type = types.Void
	rest = strings.TrimSuffix(rest, "{")
	rest = strings.TrimSpace(rest)
	if after := strings.TrimPrefix(rest, ":"); after != rest {
		ret = parseType(strings.TrimSpace(after))
	}

	fn := &Function{Name: name, ReturnType: ret}
	r.locals = map[string]*Value{}

	var paramTypes []types.Type
	if strings.TrimSpace(paramsText) != "" {
		for _, p := range splitTopLevel(paramsText, ',') {
			pname, ptypeText := splitAt(p, ":")
			pname = strings.TrimSpace(pname)
			ptype := parseType(ptypeText)
			paramTypes = append(paramTypes, ptype)
			v := &Value{Kind: KindFuncArg, Type: ptype, Name: pname}
			fn.Params = append(fn.Params, v)
			r.locals[pname] = v
		}
	}
	r.globals["@"+name] = &Value{Kind: KindFuncArg, Type: &types.Function{Return: ret, Params: paramTypes}}

	for {
		line, ok := r.peek()
		if !ok {
			fail("unterminated function %q", name)
		}
		if line == "}" {
			r.next()
			break
		}
		fn.Blocks = append(fn.Blocks, r.readBlock())
	}
	return fn
}

// readBlock parses one `%label:` followed by instructions up to (but
// not including) the next label or the function's closing `}`.
func (r *reader) readBlock() *BasicBlock {
	line := r.next()
	if !strings.HasSuffix(line, ":") {
		fail("expected a block label, got %q", line)
	}
	name := strings.TrimSuffix(strings.TrimPrefix(line, "%"), ":")
	b := &BasicBlock{Name: name}
	for {
		line, ok := r.peek()
		if !ok || line == "}" || strings.HasSuffix(line, ":") {
			break
		}
		b.Insts = append(b.Insts, r.readInst())
	}
	return b
}

func (r *reader) readInst() *Value {
	line := r.next()

	if eq := topLevelIndex(line, '='); eq >= 0 && (strings.HasPrefix(line, "%") || strings.HasPrefix(line, "@")) {
		name, expr := strings.TrimSpace(line[:eq]), strings.TrimSpace(line[eq+1:])
		v := r.parseValueExpr(expr)
		v.Name = name
		r.locals[name] = v
		return v
	}

	switch {
	case line == "ret":
		return &Value{Kind: KindReturn}
	case strings.HasPrefix(line, "ret "):
		return &Value{Kind: KindReturn, RetVal: r.operand(strings.TrimPrefix(line, "ret "))}
	case strings.HasPrefix(line, "store "):
		rest := strings.TrimPrefix(line, "store ")
		valText, dstText := splitTopLevel2(rest, ',')
		return &Value{Kind: KindStore, StoreVal: r.operand(valText), Dst: r.operand(dstText)}
	case strings.HasPrefix(line, "br "):
		rest := strings.TrimPrefix(line, "br ")
		parts := splitTopLevel(rest, ',')
		if len(parts) != 3 {
			fail("malformed br: %q", line)
		}
		return &Value{
			Kind:       KindBranch,
			Cond:       r.operand(parts[0]),
			TrueLabel:  strings.TrimPrefix(strings.TrimSpace(parts[1]), "%"),
			FalseLabel: strings.TrimPrefix(strings.TrimSpace(parts[2]), "%"),
		}
	case strings.HasPrefix(line, "jump "):
		return &Value{Kind: KindJump, Target: strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(line, "jump ")), "%")}
	case strings.HasPrefix(line, "call "):
		return r.parseCall(strings.TrimPrefix(line, "call "))
	}
	fail("unrecognized instruction %q", line)
	return nil
}

// parseValueExpr parses the right-hand side of `%k = ...`.
func (r *reader) parseValueExpr(expr string) *Value {
	switch {
	case strings.HasPrefix(expr, "alloc "):
		return &Value{Kind: KindAlloc, Type: &types.Pointer{BaseType: parseType(strings.TrimPrefix(expr, "alloc "))}}
	case strings.HasPrefix(expr, "load "):
		src := r.operand(strings.TrimPrefix(expr, "load "))
		return &Value{Kind: KindLoad, Type: pointeeOrSelf(src.Type), Src: src}
	case strings.HasPrefix(expr, "getelemptr "):
		return r.parseGetPtr(strings.TrimPrefix(expr, "getelemptr "), KindGetElemPtr)
	case strings.HasPrefix(expr, "getptr "):
		return r.parseGetPtr(strings.TrimPrefix(expr, "getptr "), KindGetPtr)
	case strings.HasPrefix(expr, "call "):
		return r.parseCall(strings.TrimPrefix(expr, "call "))
	}
	return r.parseBinary(expr)
}

// parseGetPtr lowers both getelemptr and getptr. getelemptr indexes
// into the array its base points to, so the result points one array
// level down (`*[i32,4]` -> `*i32`). getptr instead indexes a pointer
// value one whole pointee at a time without stripping a level --
// its base is already a plain pointer (e.g. to a whole row `[i32,4]`
// of a multi-dimensional array parameter), and the result keeps
// pointing at that same pointee type, so the element size used for
// address scaling is the full pointee's size, not one level smaller.
func (r *reader) parseGetPtr(rest string, kind ValueKind) *Value {
	baseText, idxText := splitTopLevel2(rest, ',')
	base := r.operand(baseText)
	idx := r.operand(idxText)

	if kind == KindGetPtr {
		return &Value{Kind: kind, Type: base.Type, Base: base, Idx: idx}
	}

	elemType := pointeeOrSelf(base.Type)
	if a, ok := elemType.(*types.Array); ok {
		elemType = a.BaseType
	}
	return &Value{Kind: kind, Type: &types.Pointer{BaseType: elemType}, Base: base, Idx: idx}
}

func (r *reader) parseCall(rest string) *Value {
	name, argsText := splitAt(rest, "(")
	argsText = strings.TrimSuffix(argsText, ")")
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	var args []*Value
	if strings.TrimSpace(argsText) != "" {
		for _, a := range splitTopLevel(argsText, ',') {
			args = append(args, r.operand(a))
		}
	}
	callee, ok := r.globals["@"+name]
	var retType types.Type = types.Void
	if ok {
		if fn, ok := callee.Type.(*types.Function); ok {
			retType = fn.Return
		}
	}
	return &Value{Kind: KindCall, Type: retType, Callee: name, Args: args}
}

var binaryOps = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true, "mod": true,
	"lt": true, "gt": true, "le": true, "ge": true, "eq": true, "ne": true,
	"and": true, "or": true, "xor": true,
}

func (r *reader) parseBinary(expr string) *Value {
	op, rest := splitAt(expr, " ")
	if !binaryOps[op] {
		fail("unrecognized value expression %q", expr)
	}
	lhsText, rhsText := splitTopLevel2(rest, ',')
	lhs := r.operand(lhsText)
	rhs := r.operand(rhsText)
	return &Value{Kind: KindBinary, Type: types.Int, Op: op, LHS: lhs, RHS: rhs}
}

// operand resolves an operand token to the Value it names: a prior
// local (%k or @param), a global/function, or a freshly minted integer
// literal value.
func (r *reader) operand(text string) *Value {
	text = strings.TrimSpace(text)
	if v, ok := r.locals[text]; ok {
		return v
	}
	if v, ok := r.globals[text]; ok {
		return v
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		fail("unresolved operand %q", text)
	}
	return &Value{Kind: KindInt, Type: types.Int, IntVal: int32(n)}
}

func pointeeOrSelf(t types.Type) types.Type {
	if p, ok := t.(*types.Pointer); ok {
		return p.BaseType
	}
	return t
}

// splitAt splits s at the first occurrence of sep, trimming
// whitespace from both halves. If sep is absent, the whole string is
// returned as the first half.
func splitAt(s, sep string) (string, string) {
	i := strings.Index(s, sep)
	if i < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// parentheses or brackets (needed for nested aggregate literals and
// call argument lists containing nested calls).
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func splitTopLevel2(s string, sep byte) (string, string) {
	parts := splitTopLevel(s, sep)
	if len(parts) < 2 {
		return strings.TrimSpace(s), ""
	}
	return parts[0], strings.Join(parts[1:], string(sep))
}

func topLevelIndex(s string, b byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case b:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseType parses a Koopa type's printable form, e.g. "i32", "*i32",
// "[i32, 3]", "[[i32, 4], 3]".
func parseType(s string) types.Type {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "void":
		return types.Void
	case s == "i32":
		return types.Int
	case strings.HasPrefix(s, "*"):
		return &types.Pointer{BaseType: parseType(s[1:])}
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		inner := s[1 : len(s)-1]
		elemText, lenText := splitArrayType(inner)
		n, err := strconv.Atoi(strings.TrimSpace(lenText))
		if err != nil {
			fail("invalid array length in type %q", s)
		}
		return &types.Array{BaseType: parseType(elemText), Len: n}
	}
	fail("type text %q is out of domain", s)
	return nil
}

// splitArrayType splits the inner text of an array type "T, N" at the
// last top-level comma, since T may itself be a nested array type
// whose own Koopa form already contains a comma.
func splitArrayType(s string) (string, string) {
	depth := 0
	last := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				last = i
			}
		}
	}
	if last < 0 {
		fail("malformed array type %q", s)
	}
	return s[:last], s[last+1:]
}
