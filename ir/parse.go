package ir

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"fortio.org/safecast"
)

// Parse reads a module from its textual form. The syntax is a reduced
// LLVM-flavoured assembly: kernels and helper functions over typed SSA
// instructions, with every operand written as "<type> <value>".
//
//	kernel void @k(global i32* %p, i32 %x) reqd_work_group_size(1, 1, 1) {
//	entry:
//	  %a = add i32 %x, i32 1
//	  %q = getelementptr global i32* %p, i32 0
//	  store i32 %a, global i32* %q
//	  ret void
//	}
func Parse(src string) (*Module, error) {
	p := &parser{mod: NewModule()}
	if err := p.tokenize(src); err != nil {
		return nil, err
	}
	if err := p.parseModule(); err != nil {
		return nil, err
	}
	return p.mod, nil
}

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokWord         // bare identifier or keyword
	tokLocal        // %name
	tokGlobal       // @name
	tokLabelName    // name followed by ':' (block label definition)
	tokInt
	tokFloat
	tokString
	tokPunct // single punctuation rune
)

type token struct {
	kind tokKind
	text string
	line int
}

type parser struct {
	mod    *Module
	toks   []token
	pos    int
	fn     *Function
	blocks map[string]*BasicBlock
	values map[string]Value
	// forward references to block labels inside the current function
	pendingBr  []pendingBranch
	pendingPhi []pendingIncoming
}

type pendingBranch struct {
	inst   *Instruction
	labels []string
}

type pendingIncoming struct {
	inst   *Instruction
	values []string // "%name" local value per edge
	labels []string
}

func (p *parser) tokenize(src string) error {
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '%' || c == '@':
			j := i + 1
			for j < len(src) && isIdentRune(rune(src[j])) {
				j++
			}
			kind := tokLocal
			if c == '@' {
				kind = tokGlobal
			}
			p.toks = append(p.toks, token{kind, src[i+1 : j], line})
			i = j
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				j++
			}
			if j >= len(src) {
				return fmt.Errorf("ir: line %d: unterminated string", line)
			}
			p.toks = append(p.toks, token{tokString, src[i+1 : j], line})
			i = j + 1
		case c == '-' || c >= '0' && c <= '9':
			j := i
			if c == '-' {
				j++
			}
			isFloat := false
			for j < len(src) {
				d := src[j]
				if d >= '0' && d <= '9' || d == 'x' || d == 'X' ||
					d >= 'a' && d <= 'f' || d >= 'A' && d <= 'F' {
					j++
				} else if d == '.' || d == 'p' || d == 'P' {
					isFloat = true
					j++
				} else if (d == '+' || d == '-') && (src[j-1] == 'e' || src[j-1] == 'E') {
					isFloat = true
					j++
				} else {
					break
				}
			}
			text := src[i:j]
			if strings.ContainsAny(text, ".") ||
				(isFloat && !strings.HasPrefix(text, "0x")) {
				p.toks = append(p.toks, token{tokFloat, text, line})
			} else {
				p.toks = append(p.toks, token{tokInt, text, line})
			}
			i = j
		case isIdentRune(rune(c)):
			j := i
			for j < len(src) && isIdentRune(rune(src[j])) {
				j++
			}
			word := src[i:j]
			if j < len(src) && src[j] == ':' {
				p.toks = append(p.toks, token{tokLabelName, word, line})
				j++
			} else {
				p.toks = append(p.toks, token{tokWord, word, line})
			}
			i = j
		default:
			p.toks = append(p.toks, token{tokPunct, string(c), line})
			i++
		}
	}
	p.toks = append(p.toks, token{kind: tokEOF, line: line})
	return nil
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) next() token  { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("ir: line %d: %s", p.peek().line, fmt.Sprintf(format, args...))
}

func (p *parser) expectPunct(s string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != s {
		return fmt.Errorf("ir: line %d: expected %q, got %q", t.line, s, t.text)
	}
	return nil
}

func (p *parser) acceptPunct(s string) bool {
	if p.peek().kind == tokPunct && p.peek().text == s {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptWord(s string) bool {
	if p.peek().kind == tokWord && p.peek().text == s {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseModule() error {
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return nil
		case t.kind == tokGlobal:
			if err := p.parseGlobal(); err != nil {
				return err
			}
		case t.kind == tokWord && (t.text == "kernel" || isTypeStart(t.text)):
			if err := p.parseFunction(); err != nil {
				return err
			}
		default:
			return p.errf("unexpected token %q at module scope", t.text)
		}
	}
}

// parseGlobal reads "@name = constant <type> <init>" or
// "@name = global <type> <init>".
func (p *parser) parseGlobal() error {
	name := p.next().text
	if err := p.expectPunct("="); err != nil {
		return err
	}
	space := AddrGlobal
	switch {
	case p.acceptWord("constant"):
		space = AddrConstant
	case p.acceptWord("global"):
		space = AddrGlobal
	default:
		return p.errf("expected 'constant' or 'global' after @%s =", name)
	}
	ty, err := p.parseType()
	if err != nil {
		return err
	}
	init, err := p.parseConstantValue(ty)
	if err != nil {
		return err
	}
	p.mod.AddGlobal(name, space, ty, init)
	return nil
}

var opaqueArgTypes = map[string]string{
	"sampler_t":     "opencl.sampler_t",
	"image2d_ro_t":  "opencl.image2d_ro_t",
	"image2d_wo_t":  "opencl.image2d_wo_t",
	"image3d_ro_t":  "opencl.image3d_ro_t",
	"image3d_wo_t":  "opencl.image3d_wo_t",
}

func isTypeStart(word string) bool {
	switch word {
	case "void", "half", "float", "double",
		"global", "constant", "local", "private":
		return true
	}
	if _, ok := opaqueArgTypes[word]; ok {
		return true
	}
	if strings.HasPrefix(word, "i") {
		if _, err := strconv.Atoi(word[1:]); err == nil {
			return true
		}
	}
	return false
}

// parseType reads one type. Pointers are written "<space> T*" with the
// address-space keyword optional (private when absent).
func (p *parser) parseType() (Type, error) {
	c := p.mod.Types
	space := AddrPrivate
	spaceSet := false
	switch {
	case p.acceptWord("global"):
		space, spaceSet = AddrGlobal, true
	case p.acceptWord("constant"):
		space, spaceSet = AddrConstant, true
	case p.acceptWord("local"):
		space, spaceSet = AddrLocal, true
	case p.acceptWord("private"):
		space, spaceSet = AddrPrivate, true
	}

	base, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	stars := 0
	for p.acceptPunct("*") {
		stars++
	}
	if spaceSet && stars == 0 {
		return nil, p.errf("address space %q requires a pointer type", space)
	}
	for n := 0; n < stars; n++ {
		if n == stars-1 {
			base = c.Pointer(space, base)
		} else {
			base = c.Pointer(AddrPrivate, base)
		}
	}
	return base, nil
}

func (p *parser) parseBaseType() (Type, error) {
	c := p.mod.Types
	t := p.peek()
	switch {
	case t.kind == tokWord:
		p.pos++
		switch t.text {
		case "void":
			return c.Void(), nil
		case "half":
			return c.Float(16), nil
		case "float":
			return c.Float(32), nil
		case "double":
			return c.Float(64), nil
		}
		if full, ok := opaqueArgTypes[t.text]; ok {
			return c.Opaque(full), nil
		}
		if strings.HasPrefix(t.text, "i") {
			w, err := strconv.ParseUint(t.text[1:], 10, 32)
			if err == nil {
				return c.Int(uint32(w)), nil
			}
		}
		return nil, fmt.Errorf("ir: line %d: unknown type %q", t.line, t.text)
	case t.kind == tokPunct && t.text == "<":
		p.pos++
		n, err := p.parseIntLit()
		if err != nil {
			return nil, err
		}
		if !p.acceptWord("x") {
			return nil, p.errf("expected 'x' in vector type")
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(">"); err != nil {
			return nil, err
		}
		n32, err := safecast.Conv[uint32](n)
		if err != nil {
			return nil, p.errf("vector length out of range")
		}
		return c.Vector(elem, n32), nil
	case t.kind == tokPunct && t.text == "[":
		p.pos++
		n, err := p.parseIntLit()
		if err != nil {
			return nil, err
		}
		if !p.acceptWord("x") {
			return nil, p.errf("expected 'x' in array type")
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return c.Array(elem, uint64(n)), nil
	case t.kind == tokPunct && t.text == "{":
		p.pos++
		var fields []Type
		for !p.acceptPunct("}") {
			if len(fields) > 0 {
				if err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			f, err := p.parseType()
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return c.Struct(fields...), nil
	}
	return nil, fmt.Errorf("ir: line %d: expected type, got %q", t.line, t.text)
}

func (p *parser) parseIntLit() (int64, error) {
	t := p.next()
	if t.kind != tokInt {
		return 0, fmt.Errorf("ir: line %d: expected integer, got %q", t.line, t.text)
	}
	return strconv.ParseInt(t.text, 0, 64)
}

// parseConstantValue reads a constant of the given type.
func (p *parser) parseConstantValue(ty Type) (Constant, error) {
	t := p.peek()
	switch {
	case t.kind == tokWord && t.text == "zeroinitializer":
		p.pos++
		return &ConstantNull{Ty: ty}, nil
	case t.kind == tokWord && t.text == "undef":
		p.pos++
		return &Undef{Ty: ty}, nil
	case t.kind == tokWord && (t.text == "true" || t.text == "false"):
		p.pos++
		v := uint64(0)
		if t.text == "true" {
			v = 1
		}
		return &ConstantInt{Ty: ty, Val: v}, nil
	case t.kind == tokInt:
		p.pos++
		if _, ok := ty.(*FloatType); ok {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, fmt.Errorf("ir: line %d: bad float %q", t.line, t.text)
			}
			return &ConstantFloat{Ty: ty, Val: f}, nil
		}
		v, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(t.text, 0, 64)
			if uerr != nil {
				return nil, fmt.Errorf("ir: line %d: bad integer %q", t.line, t.text)
			}
			return &ConstantInt{Ty: ty, Val: u}, nil
		}
		return &ConstantInt{Ty: ty, Val: truncToWidth(uint64(v), ty)}, nil
	case t.kind == tokFloat:
		p.pos++
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("ir: line %d: bad float %q", t.line, t.text)
		}
		return &ConstantFloat{Ty: ty, Val: f}, nil
	case t.kind == tokPunct && (t.text == "<" || t.text == "["):
		closer := ">"
		if t.text == "[" {
			closer = "]"
		}
		p.pos++
		var elems []Constant
		for !p.acceptPunct(closer) {
			if len(elems) > 0 {
				if err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			ety, err := p.parseType()
			if err != nil {
				return nil, err
			}
			ev, err := p.parseConstantValue(ety)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ev)
		}
		return &ConstantComposite{Ty: ty, Elems: elems}, nil
	}
	return nil, fmt.Errorf("ir: line %d: expected constant, got %q", t.line, t.text)
}

func truncToWidth(v uint64, ty Type) uint64 {
	w := uint32(64)
	switch t := ty.(type) {
	case *IntType:
		w = t.Width
	case *BoolType:
		w = 1
	}
	if w >= 64 {
		return v
	}
	return v & (1<<w - 1)
}

func (p *parser) parseFunction() error {
	kernel := p.acceptWord("kernel")
	ret, err := p.parseType()
	if err != nil {
		return err
	}
	nameTok := p.next()
	if nameTok.kind != tokGlobal {
		return fmt.Errorf("ir: line %d: expected @name, got %q", nameTok.line, nameTok.text)
	}
	if err := p.expectPunct("("); err != nil {
		return err
	}

	var paramTypes []Type
	var paramNames []string
	for !p.acceptPunct(")") {
		if len(paramTypes) > 0 {
			if err := p.expectPunct(","); err != nil {
				return err
			}
		}
		pt, err := p.parseType()
		if err != nil {
			return err
		}
		pn := p.next()
		if pn.kind != tokLocal {
			return fmt.Errorf("ir: line %d: expected %%name, got %q", pn.line, pn.text)
		}
		paramTypes = append(paramTypes, pt)
		paramNames = append(paramNames, pn.text)
	}

	sig := p.mod.Types.Function(ret, paramTypes...)
	fn := p.mod.AddFunction(nameTok.text, sig, kernel)
	for i, n := range paramNames {
		fn.Args[i].Nam = n
	}
	if kernel {
		for i, n := range paramNames {
			fn.ArgMap = append(fn.ArgMap, ArgInfo{Name: n, Ordinal: uint32(i)})
		}
	}

	// Optional attributes before the body.
	for {
		switch {
		case p.acceptWord("reqd_work_group_size"):
			var dims [3]uint32
			if err := p.expectPunct("("); err != nil {
				return err
			}
			for i := 0; i < 3; i++ {
				if i > 0 {
					if err := p.expectPunct(","); err != nil {
						return err
					}
				}
				n, err := p.parseIntLit()
				if err != nil {
					return err
				}
				d, err := safecast.Conv[uint32](n)
				if err != nil {
					return p.errf("workgroup dimension out of range")
				}
				dims[i] = d
			}
			if err := p.expectPunct(")"); err != nil {
				return err
			}
			fn.ReqdWorkGroupSize = &dims
		case p.acceptWord("arg_spec_id"):
			if err := p.expectPunct("("); err != nil {
				return err
			}
			an := p.next()
			if an.kind != tokLocal {
				return fmt.Errorf("ir: line %d: expected %%arg in arg_spec_id", an.line)
			}
			if err := p.expectPunct(","); err != nil {
				return err
			}
			id, err := p.parseIntLit()
			if err != nil {
				return err
			}
			if err := p.expectPunct(")"); err != nil {
				return err
			}
			found := false
			for i := range fn.ArgMap {
				if fn.ArgMap[i].Name == an.text {
					sid, serr := safecast.Conv[uint32](id)
					if serr != nil {
						return p.errf("spec id out of range")
					}
					fn.ArgMap[i].SpecID = sid
					found = true
				}
			}
			if !found {
				return fmt.Errorf("ir: line %d: arg_spec_id names unknown argument %%%s", an.line, an.text)
			}
		default:
			goto body
		}
	}

body:
	if err := p.expectPunct("{"); err != nil {
		return err
	}

	p.fn = fn
	p.blocks = make(map[string]*BasicBlock)
	p.values = make(map[string]Value)
	p.pendingBr = nil
	p.pendingPhi = nil
	for _, a := range fn.Args {
		p.values[a.Nam] = a
	}

	var cur *BasicBlock
	for !p.acceptPunct("}") {
		t := p.peek()
		if t.kind == tokLabelName {
			p.pos++
			cur = p.block(t.text)
			continue
		}
		if cur == nil {
			cur = p.block("entry")
		}
		if err := p.parseInstruction(cur); err != nil {
			return err
		}
	}

	// Resolve forward-referenced labels and phi edges.
	for _, pb := range p.pendingBr {
		for _, lbl := range pb.labels {
			b, ok := p.blocks[lbl]
			if !ok {
				return fmt.Errorf("ir: function @%s: undefined label %%%s", fn.Nam, lbl)
			}
			pb.inst.Succs = append(pb.inst.Succs, b)
		}
	}
	for _, pp := range p.pendingPhi {
		for i, lbl := range pp.labels {
			b, ok := p.blocks[lbl]
			if !ok {
				return fmt.Errorf("ir: function @%s: undefined label %%%s", fn.Nam, lbl)
			}
			v, ok := p.values[pp.values[i]]
			if !ok {
				return fmt.Errorf("ir: function @%s: undefined value %%%s", fn.Nam, pp.values[i])
			}
			pp.inst.Incoming = append(pp.inst.Incoming, Incoming{Value: v, Pred: b})
			pp.inst.Operands = append(pp.inst.Operands, v)
		}
	}
	p.fn = nil
	return nil
}

func (p *parser) block(name string) *BasicBlock {
	if b, ok := p.blocks[name]; ok {
		return b
	}
	b := p.fn.AddBlock(name)
	p.blocks[name] = b
	return b
}

// parseOperand reads "<type> <value>".
func (p *parser) parseOperand() (Value, error) {
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return p.parseValueOf(ty)
}

func (p *parser) parseValueOf(ty Type) (Value, error) {
	t := p.peek()
	switch t.kind {
	case tokLocal:
		p.pos++
		v, ok := p.values[t.text]
		if !ok {
			return nil, fmt.Errorf("ir: line %d: undefined value %%%s", t.line, t.text)
		}
		return v, nil
	case tokGlobal:
		p.pos++
		for _, g := range p.mod.Globals {
			if g.Nam == t.text {
				return g, nil
			}
		}
		return nil, fmt.Errorf("ir: line %d: undefined global @%s", t.line, t.text)
	default:
		return p.parseConstantValue(ty)
	}
}

//nolint:gocyclo // one arm per opcode spelling
func (p *parser) parseInstruction(b *BasicBlock) error {
	c := p.mod.Types
	var resultName string
	if p.peek().kind == tokLocal {
		resultName = p.next().text
		if err := p.expectPunct("="); err != nil {
			return err
		}
	}

	opTok := p.next()
	if opTok.kind != tokWord {
		return fmt.Errorf("ir: line %d: expected opcode, got %q", opTok.line, opTok.text)
	}

	finish := func(inst *Instruction) {
		inst.Nam = resultName
		b.Append(inst)
		if resultName != "" {
			p.values[resultName] = inst
		}
	}

	simpleBinary := map[string]Opcode{
		"add": OpAdd, "sub": OpSub, "mul": OpMul,
		"udiv": OpUDiv, "sdiv": OpSDiv, "urem": OpURem, "srem": OpSRem,
		"fadd": OpFAdd, "fsub": OpFSub, "fmul": OpFMul, "fdiv": OpFDiv, "frem": OpFRem,
		"and": OpAnd, "or": OpOr, "xor": OpXor,
		"shl": OpShl, "lshr": OpLShr, "ashr": OpAShr,
	}
	casts := map[string]Opcode{
		"trunc": OpTrunc, "zext": OpZExt, "sext": OpSExt,
		"fptrunc": OpFPTrunc, "fpext": OpFPExt,
		"fptoui": OpFPToUI, "fptosi": OpFPToSI,
		"uitofp": OpUIToFP, "sitofp": OpSIToFP, "bitcast": OpBitcast,
	}

	switch op := opTok.text; {
	case simpleBinary[op] != OpInvalid:
		a, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		bv, err := p.parseOperand()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: simpleBinary[op], Ty: a.Type(), Operands: []Value{a, bv}})

	case casts[op] != OpInvalid:
		src, err := p.parseOperand()
		if err != nil {
			return err
		}
		if !p.acceptWord("to") {
			return p.errf("expected 'to' in cast")
		}
		dst, err := p.parseType()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: casts[op], Ty: dst, Operands: []Value{src}})

	case op == "icmp" || op == "fcmp":
		predTok := p.next()
		pred, ok := parsePredicate(op, predTok.text)
		if !ok {
			return fmt.Errorf("ir: line %d: unknown predicate %q", predTok.line, predTok.text)
		}
		a, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		bv, err := p.parseOperand()
		if err != nil {
			return err
		}
		ty := Type(c.Bool())
		if vt, isVec := a.Type().(*VectorType); isVec {
			ty = c.Vector(c.Bool(), vt.Len)
		}
		opc := OpICmp
		if op == "fcmp" {
			opc = OpFCmp
		}
		finish(&Instruction{Op: opc, Ty: ty, Pred: pred, Operands: []Value{a, bv}})

	case op == "alloca":
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: OpAlloca, Ty: c.Pointer(AddrPrivate, ty)})

	case op == "load":
		ptr, err := p.parseOperand()
		if err != nil {
			return err
		}
		pt, ok := ptr.Type().(*PointerType)
		if !ok {
			return p.errf("load requires a pointer operand")
		}
		finish(&Instruction{Op: OpLoad, Ty: pt.Elem, Operands: []Value{ptr}})

	case op == "store":
		v, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		ptr, err := p.parseOperand()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: OpStore, Ty: c.Void(), Operands: []Value{v, ptr}})

	case op == "getelementptr":
		base, err := p.parseOperand()
		if err != nil {
			return err
		}
		operands := []Value{base}
		for p.acceptPunct(",") {
			idx, err := p.parseOperand()
			if err != nil {
				return err
			}
			operands = append(operands, idx)
		}
		rty, err := gepResultType(c, base.Type(), operands[1:])
		if err != nil {
			return p.errf("%v", err)
		}
		finish(&Instruction{Op: OpGetElementPtr, Ty: rty, Operands: operands})

	case op == "select":
		cond, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		a, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		bv, err := p.parseOperand()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: OpSelect, Ty: a.Type(), Operands: []Value{cond, a, bv}})

	case op == "phi":
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		inst := &Instruction{Op: OpPhi, Ty: ty}
		pending := pendingIncoming{inst: inst}
		for {
			if err := p.expectPunct("["); err != nil {
				return err
			}
			vt := p.next()
			if vt.kind != tokLocal && vt.kind != tokInt && vt.kind != tokFloat {
				return p.errf("expected phi incoming value")
			}
			if err := p.expectPunct(","); err != nil {
				return err
			}
			lt := p.next()
			if lt.kind != tokLocal {
				return p.errf("expected phi incoming label")
			}
			if err := p.expectPunct("]"); err != nil {
				return err
			}
			if vt.kind == tokLocal {
				pending.values = append(pending.values, vt.text)
				pending.labels = append(pending.labels, lt.text)
			} else {
				// Immediate incoming values get a synthetic local name so
				// edge resolution stays uniform.
				var cv Constant
				if vt.kind == tokInt {
					n, _ := strconv.ParseInt(vt.text, 0, 64)
					cv = &ConstantInt{Ty: ty, Val: truncToWidth(uint64(n), ty)}
				} else {
					f, _ := strconv.ParseFloat(vt.text, 64)
					cv = &ConstantFloat{Ty: ty, Val: f}
				}
				pending.values = append(pending.values, registerImmediate(p, cv))
				pending.labels = append(pending.labels, lt.text)
			}
			if !p.acceptPunct(",") {
				break
			}
		}
		p.pendingPhi = append(p.pendingPhi, pending)
		finish(inst)

	case op == "br":
		if p.acceptWord("label") {
			lt := p.next()
			inst := &Instruction{Op: OpBr, Ty: c.Void()}
			p.pendingBr = append(p.pendingBr, pendingBranch{inst: inst, labels: []string{lt.text}})
			finish(inst)
			break
		}
		cond, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		if !p.acceptWord("label") {
			return p.errf("expected 'label'")
		}
		t1 := p.next()
		if err := p.expectPunct(","); err != nil {
			return err
		}
		if !p.acceptWord("label") {
			return p.errf("expected 'label'")
		}
		t2 := p.next()
		inst := &Instruction{Op: OpCondBr, Ty: c.Void(), Operands: []Value{cond}}
		p.pendingBr = append(p.pendingBr, pendingBranch{inst: inst, labels: []string{t1.text, t2.text}})
		finish(inst)

	case op == "ret":
		if p.acceptWord("void") {
			finish(&Instruction{Op: OpRet, Ty: c.Void()})
			break
		}
		v, err := p.parseOperand()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: OpRet, Ty: c.Void(), Operands: []Value{v}})

	case op == "call":
		ret, err := p.parseType()
		if err != nil {
			return err
		}
		ct := p.next()
		if ct.kind != tokGlobal {
			return p.errf("expected @callee")
		}
		if err := p.expectPunct("("); err != nil {
			return err
		}
		var args []Value
		for !p.acceptPunct(")") {
			if len(args) > 0 {
				if err := p.expectPunct(","); err != nil {
					return err
				}
			}
			a, err := p.parseOperand()
			if err != nil {
				return err
			}
			args = append(args, a)
		}
		callee := p.mod.Function(ct.text)
		if callee == nil {
			paramTypes := make([]Type, len(args))
			for i, a := range args {
				paramTypes[i] = a.Type()
			}
			callee = p.mod.AddDecl(ct.text, c.Function(ret, paramTypes...))
		}
		finish(&Instruction{Op: OpCall, Ty: ret, Operands: args, Callee: callee})

	case op == "atomicrmw":
		kt := p.next()
		kind, ok := parseAtomicKind(kt.text)
		if !ok {
			return fmt.Errorf("ir: line %d: unknown atomicrmw kind %q", kt.line, kt.text)
		}
		ptr, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		v, err := p.parseOperand()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: OpAtomicRMW, Ty: v.Type(), Atomic: kind, Operands: []Value{ptr, v}})

	case op == "extractelement":
		vec, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		idx, err := p.parseOperand()
		if err != nil {
			return err
		}
		vt, ok := vec.Type().(*VectorType)
		if !ok {
			return p.errf("extractelement requires a vector")
		}
		finish(&Instruction{Op: OpExtractElement, Ty: vt.Elem, Operands: []Value{vec, idx}})

	case op == "insertelement":
		vec, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		elem, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		idx, err := p.parseOperand()
		if err != nil {
			return err
		}
		finish(&Instruction{Op: OpInsertElement, Ty: vec.Type(), Operands: []Value{vec, elem, idx}})

	case op == "shufflevector":
		a, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		bv, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		maskTy, err := p.parseType()
		if err != nil {
			return err
		}
		mask, err := p.parseConstantValue(maskTy)
		if err != nil {
			return err
		}
		mt := maskTy.(*VectorType)
		at := a.Type().(*VectorType)
		finish(&Instruction{
			Op: OpShuffleVector, Ty: c.Vector(at.Elem, mt.Len),
			Operands: []Value{a, bv, mask},
		})

	case op == "extractvalue" || op == "insertvalue":
		agg, err := p.parseOperand()
		if err != nil {
			return err
		}
		var elem Value
		if op == "insertvalue" {
			if err := p.expectPunct(","); err != nil {
				return err
			}
			elem, err = p.parseOperand()
			if err != nil {
				return err
			}
		}
		var indices []uint32
		for p.acceptPunct(",") {
			n, err := p.parseIntLit()
			if err != nil {
				return err
			}
			ix, err := safecast.Conv[uint32](n)
			if err != nil {
				return p.errf("index out of range")
			}
			indices = append(indices, ix)
		}
		if op == "extractvalue" {
			rty, err := indexedType(agg.Type(), indices)
			if err != nil {
				return p.errf("%v", err)
			}
			finish(&Instruction{Op: OpExtractValue, Ty: rty, Indices: indices, Operands: []Value{agg}})
		} else {
			finish(&Instruction{Op: OpInsertValue, Ty: agg.Type(), Indices: indices, Operands: []Value{agg, elem}})
		}

	default:
		return fmt.Errorf("ir: line %d: unknown instruction %q", opTok.line, opTok.text)
	}
	return nil
}

// registerImmediate gives a constant incoming phi value a synthetic local
// name so pending resolution can find it.
func registerImmediate(p *parser, cv Constant) string {
	name := fmt.Sprintf(".imm%d", len(p.values))
	p.values[name] = cv
	return name
}

func parsePredicate(op, text string) (Predicate, bool) {
	if op == "icmp" {
		m := map[string]Predicate{
			"eq": IntEQ, "ne": IntNE,
			"ugt": IntUGT, "uge": IntUGE, "ult": IntULT, "ule": IntULE,
			"sgt": IntSGT, "sge": IntSGE, "slt": IntSLT, "sle": IntSLE,
		}
		pr, ok := m[text]
		return pr, ok
	}
	m := map[string]Predicate{
		"oeq": FloatOEQ, "ogt": FloatOGT, "oge": FloatOGE,
		"olt": FloatOLT, "ole": FloatOLE, "one": FloatONE, "ord": FloatORD,
		"uno": FloatUNO, "ueq": FloatUEQ, "ugt": FloatUGT, "uge": FloatUGE,
		"ult": FloatULT, "ule": FloatULE, "une": FloatUNE,
	}
	pr, ok := m[text]
	return pr, ok
}

func parseAtomicKind(text string) (AtomicKind, bool) {
	m := map[string]AtomicKind{
		"add": AtomicAdd, "sub": AtomicSub, "xchg": AtomicXchg,
		"min": AtomicMin, "max": AtomicMax,
		"umin": AtomicUMin, "umax": AtomicUMax,
		"and": AtomicAnd, "or": AtomicOr, "xor": AtomicXor,
	}
	k, ok := m[text]
	return k, ok
}

// gepResultType applies LLVM getelementptr typing rules: the first index
// steps the pointer, later indices descend into aggregates.
func gepResultType(c *TypeContext, base Type, indices []Value) (Type, error) {
	pt, ok := base.(*PointerType)
	if !ok {
		return nil, fmt.Errorf("getelementptr base is not a pointer: %s", base)
	}
	cur := pt.Elem
	for _, idx := range indices[1:] {
		switch t := cur.(type) {
		case *ArrayType:
			cur = t.Elem
		case *VectorType:
			cur = t.Elem
		case *StructType:
			ci, ok := idx.(*ConstantInt)
			if !ok {
				return nil, fmt.Errorf("struct index must be constant")
			}
			if int(ci.Val) >= len(t.Fields) {
				return nil, fmt.Errorf("struct index %d out of range", ci.Val)
			}
			cur = t.Fields[ci.Val]
		default:
			return nil, fmt.Errorf("cannot index into %s", cur)
		}
	}
	return c.Pointer(pt.Space, cur), nil
}

// indexedType descends an aggregate type by literal indices.
func indexedType(t Type, indices []uint32) (Type, error) {
	for _, ix := range indices {
		switch ty := t.(type) {
		case *ArrayType:
			t = ty.Elem
		case *StructType:
			if int(ix) >= len(ty.Fields) {
				return nil, fmt.Errorf("index %d out of range for %s", ix, ty)
			}
			t = ty.Fields[ix]
		case *VectorType:
			t = ty.Elem
		default:
			return nil, fmt.Errorf("cannot index into %s", t)
		}
	}
	return t, nil
}
