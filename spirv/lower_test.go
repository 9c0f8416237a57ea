package spirv

import (
	"testing"

	"github.com/gogpu/clspirv/ir"
)

func TestV4I8ConstantFolding(t *testing.T) {
	src := `
kernel void @k(global <4 x i8>* %p) {
entry:
  %q = getelementptr global <4 x i8>* %p, i32 0
  store <4 x i8> <i8 1, i8 2, i8 3, i8 4>, global <4 x i8>* %q
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	// No vector-of-i8 type: the i32 id serves.
	for _, inst := range findAll(p, OpTypeVector) {
		t.Errorf("unexpected OpTypeVector %v for <4 x i8> module", inst)
	}
	// The constant folds to 0x01020304, element 0 in the high byte.
	found := false
	for _, inst := range findAll(p, OpConstant) {
		if len(inst.Operands) == 2 && inst.Operands[1].Lit[0] == 0x01020304 {
			found = true
		}
	}
	if !found {
		t.Error("missing folded i32 constant 0x01020304")
	}
}

func TestV4I8ConstantReuse(t *testing.T) {
	mod := ir.NewModule()
	c := mod.Types
	i8 := c.Int(8)
	v4 := c.Vector(i8, 4)
	b1 := &ir.ConstantInt{Ty: i8, Val: 1}
	vec := &ir.ConstantComposite{Ty: v4, Elems: []ir.Constant{b1, b1, b1, b1}}

	var desc producerDiscard
	p := NewProducer(DefaultOptions(), &desc)
	p.mod = mod
	p.registerConstant(&ir.ConstantInt{Ty: c.Int(32), Val: 0x01010101})
	p.registerConstant(vec)
	if len(p.constants) != 1 {
		t.Errorf("folded vector constant not deduplicated: %d entries", len(p.constants))
	}
}

type producerDiscard struct{}

func (producerDiscard) Write(b []byte) (int, error) { return len(b), nil }

func TestV4I8ExtractElement(t *testing.T) {
	src := `
kernel void @k(global i32* %out) {
entry:
  %e = extractelement <4 x i8> <i8 1, i8 2, i8 3, i8 4>, i32 2
  %w = zext i8 %e to i32
  %q = getelementptr global i32* %out, i32 0
  store i32 %w, global i32* %q
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	shift := findInst(p, OpShiftRightLogical)
	if shift == nil {
		t.Fatal("extract did not lower to OpShiftRightLogical")
	}
	and := findInst(p, OpBitwiseAnd)
	if and == nil {
		t.Fatal("extract did not lower to OpBitwiseAnd")
	}
	if and.Operands[1].ID != shift.Result {
		t.Error("mask does not consume the shifted value")
	}
	// Shift amount is the literal 16 (index 2 times 8).
	c16 := false
	for _, inst := range findAll(p, OpConstant) {
		if inst.Result == shift.Operands[2].ID && inst.Operands[1].Lit[0] == 16 {
			c16 = true
		}
	}
	if !c16 {
		t.Error("shift amount is not the constant 16")
	}
}

func TestV4I8InsertElement(t *testing.T) {
	src := `
kernel void @k(global i32* %out) {
entry:
  %v = insertelement <4 x i8> zeroinitializer, i8 7, i32 1
  %w = bitcast <4 x i8> %v to i32
  %q = getelementptr global i32* %out, i32 0
  store i32 %w, global i32* %q
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	// Mask build, invert, clear, shift, or.
	wantOrder := []Opcode{OpShiftLeftLogical, OpNot, OpBitwiseAnd,
		OpShiftLeftLogical, OpBitwiseOr}
	var got []Opcode
	for _, op := range opcodes(p) {
		switch op {
		case OpShiftLeftLogical, OpNot, OpBitwiseAnd, OpBitwiseOr:
			got = append(got, op)
		}
	}
	if len(got) != len(wantOrder) {
		t.Fatalf("mask-insert sequence: got %v, want %v", got, wantOrder)
	}
	for i := range wantOrder {
		if got[i] != wantOrder[i] {
			t.Fatalf("mask-insert sequence: got %v, want %v", got, wantOrder)
		}
	}
}

func TestTruncToI8Masks(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  %v = load global i32* %p
  %b = trunc i32 %v to i8
  %w = zext i8 %b to i32
  store i32 %w, global i32* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	and := findInst(p, OpBitwiseAnd)
	if and == nil {
		t.Fatal("trunc to i8 did not lower to OpBitwiseAnd")
	}
	ff := false
	for _, inst := range findAll(p, OpConstant) {
		if inst.Result == and.Operands[2].ID && inst.Operands[1].Lit[0] == 0xFF {
			ff = true
		}
	}
	if !ff {
		t.Error("mask constant is not 0xFF")
	}
	// zext i8 -> i32 is the identity under aliasing: no OpUConvert.
	if countOp(p, OpUConvert) != 0 {
		t.Error("aliased widening emitted a conversion")
	}
}

func TestPointerEqualityRejected(t *testing.T) {
	src := `
kernel void @k(global i32* %p, global i32* %q) {
entry:
  %a = getelementptr global i32* %p, i32 0
  %b = getelementptr global i32* %q, i32 0
  %c = icmp eq global i32* %a, global i32* %b
  ret void
}
`
	mod, err := ir.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var desc producerDiscard
	p := NewProducer(DefaultOptions(), &desc)
	if err := p.Compile(mod); err == nil {
		t.Fatal("pointer equality should be rejected")
	}
}

func TestAtomicLowering(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  %old = atomicrmw add global i32* %p, i32 1
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	at := findInst(p, OpAtomicIAdd)
	if at == nil {
		t.Fatal("missing OpAtomicIAdd")
	}
	// Scope Device and Uniform|SequentiallyConsistent semantics.
	wantScope, wantSem := uint32(ScopeDevice),
		MemorySemanticsUniformMemory|MemorySemanticsSequentiallyConsistent
	scopeOK, semOK := false, false
	for _, inst := range findAll(p, OpConstant) {
		if inst.Result == at.Operands[2].ID && inst.Operands[1].Lit[0] == wantScope {
			scopeOK = true
		}
		if inst.Result == at.Operands[3].ID && inst.Operands[1].Lit[0] == wantSem {
			semOK = true
		}
	}
	if !scopeOK {
		t.Error("atomic scope is not Device")
	}
	if !semOK {
		t.Error("atomic semantics is not Uniform|SequentiallyConsistent")
	}
}

func TestBoolLogicalOps(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  %v = load global i32* %p
  %a = icmp sgt i32 %v, i32 0
  %b = icmp slt i32 %v, i32 10
  %c = and i1 %a, i1 %b
  %n = xor i1 %c, i1 true
  %w = zext i1 %n to i32
  store i32 %w, global i32* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	if countOp(p, OpLogicalAnd) != 1 {
		t.Error("and i1 did not lower to OpLogicalAnd")
	}
	if countOp(p, OpLogicalNot) != 1 {
		t.Error("xor i1 with constant did not lower to OpLogicalNot")
	}
	if countOp(p, OpBitwiseAnd) != 0 {
		t.Error("boolean and leaked a bitwise opcode")
	}
}

func TestPtrAccessChain(t *testing.T) {
	src := `
void @sum(global i32* %base, i32 %i) {
entry:
  %q = getelementptr global i32* %base, i32 %i
  %v = load global i32* %q
  ret void
}
kernel void @k(global i32* %p) {
entry:
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	pac := findInst(p, OpPtrAccessChain)
	if pac == nil {
		t.Fatal("non-constant first index did not lower to OpPtrAccessChain")
	}
	// The result pointer type picks up an ArrayStride decoration.
	strided := false
	for _, inst := range findAll(p, OpDecorate) {
		if inst.Operands[0].ID == pac.Operands[0].ID &&
			Decoration(inst.Operands[1].Lit[0]) == DecorationArrayStride {
			strided = true
		}
	}
	if !strided {
		t.Error("PtrAccessChain pointer type lacks ArrayStride")
	}
}

func TestFunctionCallDeferred(t *testing.T) {
	src := `
i32 @helper(i32 %x) {
entry:
  %r = add i32 %x, i32 1
  ret i32 %r
}
kernel void @k(global i32* %p) {
entry:
  %v = load global i32* %p
  %r = call i32 @helper(i32 %v)
  store i32 %r, global i32* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	call := findInst(p, OpFunctionCall)
	if call == nil {
		t.Fatal("missing OpFunctionCall")
	}
	if countOp(p, OpFunction) != 2 {
		t.Errorf("OpFunction count: got %d, want 2", countOp(p, OpFunction))
	}
	if countOp(p, OpFunctionParameter) != 1 {
		t.Errorf("OpFunctionParameter count: got %d, want 1", countOp(p, OpFunctionParameter))
	}
	// The callee id resolves to some emitted function.
	fns := findAll(p, OpFunction)
	calleeOK := false
	for _, fn := range fns {
		if fn.Result == call.Operands[1].ID {
			calleeOK = true
		}
	}
	if !calleeOK {
		t.Error("call does not reference an emitted function id")
	}
}

func TestDotAndFmod(t *testing.T) {
	src := `
kernel void @k(global float* %p) {
entry:
  %d = call float @dot(<4 x float> zeroinitializer, <4 x float> zeroinitializer)
  %s = call float @dot(float %d, float %d)
  %m = call float @fmod(float %d, float %s)
  %pc = call i32 @popcount(i32 7)
  %q = getelementptr global float* %p, i32 0
  store float %m, global float* %q
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	if countOp(p, OpDot) != 1 {
		t.Error("vector dot did not lower to OpDot")
	}
	if countOp(p, OpFMul) != 1 {
		t.Error("scalar dot did not lower to OpFMul")
	}
	if countOp(p, OpFRem) != 1 {
		t.Error("fmod did not lower to OpFRem")
	}
	if countOp(p, OpBitCount) != 1 {
		t.Error("popcount did not lower to OpBitCount")
	}
}

func TestBarriers(t *testing.T) {
	src := `
kernel void @k(local i32* %l) {
entry:
  call void @barrier(i32 2, i32 2, i32 272)
  call void @mem_fence(i32 2, i32 272)
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	if countOp(p, OpControlBarrier) != 1 {
		t.Error("barrier did not lower to OpControlBarrier")
	}
	if countOp(p, OpMemoryBarrier) != 1 {
		t.Error("mem_fence did not lower to OpMemoryBarrier")
	}
}

func TestSwitchRejected(t *testing.T) {
	mod := ir.NewModule()
	c := mod.Types
	f := mod.AddFunction("k", c.Function(c.Void()), true)
	b := f.AddBlock("entry")
	b.Append(&ir.Instruction{Op: ir.OpSwitch, Ty: c.Void()})

	var desc producerDiscard
	p := NewProducer(DefaultOptions(), &desc)
	if err := p.Compile(mod); err == nil {
		t.Fatal("switch should be rejected")
	}
}

func TestAcospiIndirect(t *testing.T) {
	src := `
kernel void @k(global float* %p) {
entry:
  %v = load global float* %p
  %r = call float @acospi(float %v)
  store float %r, global float* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	ext := findInst(p, OpExtInst)
	if ext == nil {
		t.Fatal("missing OpExtInst")
	}
	if got := GLSLExtInst(ext.Operands[2].Lit[0]); got != GLSLExtInstAcos {
		t.Errorf("ext inst: got %s, want Acos", got)
	}
	mul := findInst(p, OpFMul)
	if mul == nil {
		t.Fatal("missing follow-up OpFMul by 1/pi")
	}
	if mul.Result != ext.Result+1 {
		t.Errorf("follow-up id: got %d, want %d", mul.Result, ext.Result+1)
	}
}
