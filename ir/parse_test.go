package ir

import (
	"testing"
)

func TestParseKernel(t *testing.T) {
	src := `
; a small kernel
kernel void @k(i32 %x, global i32* %y) reqd_work_group_size(4, 2, 1) {
entry:
  %a = add i32 %x, i32 1
  %p = getelementptr global i32* %y, i32 0
  store i32 %a, global i32* %p
  ret void
}
`
	mod, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := mod.Function("k")
	if f == nil {
		t.Fatal("kernel k not found")
	}
	if !f.IsKernel {
		t.Error("k is not marked kernel")
	}
	if f.ReqdWorkGroupSize == nil || *f.ReqdWorkGroupSize != [3]uint32{4, 2, 1} {
		t.Errorf("reqd_work_group_size: got %v", f.ReqdWorkGroupSize)
	}
	if len(f.Args) != 2 || f.Args[0].Nam != "x" || f.Args[1].Nam != "y" {
		t.Errorf("args: got %v", f.Args)
	}
	pt, ok := f.Args[1].Ty.(*PointerType)
	if !ok || pt.Space != AddrGlobal {
		t.Errorf("arg y type: got %s", f.Args[1].Ty)
	}
	if len(f.Blocks) != 1 {
		t.Fatalf("blocks: got %d, want 1", len(f.Blocks))
	}
	instrs := f.Blocks[0].Instrs
	wantOps := []Opcode{OpAdd, OpGetElementPtr, OpStore, OpRet}
	if len(instrs) != len(wantOps) {
		t.Fatalf("instructions: got %d, want %d", len(instrs), len(wantOps))
	}
	for i, inst := range instrs {
		if inst.Op != wantOps[i] {
			t.Errorf("instr %d: got %s, want %s", i, inst.Op, wantOps[i])
		}
	}
	// GEP result type follows the base's address space.
	gep := instrs[1]
	gpt := gep.Ty.(*PointerType)
	if gpt.Space != AddrGlobal {
		t.Errorf("gep result space: got %s", gpt.Space)
	}
}

func TestParseBranchesAndPhi(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  br label %loop
loop:
  %i = phi i32 [ 0, %entry ], [ %inext, %loop ]
  %inext = add i32 %i, i32 1
  %c = icmp slt i32 %inext, i32 10
  br i1 %c, label %loop, label %exit
exit:
  ret void
}
`
	mod, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := mod.Function("k")
	if len(f.Blocks) != 3 {
		t.Fatalf("blocks: got %d, want 3", len(f.Blocks))
	}
	loop := f.Blocks[1]
	phi := loop.Instrs[0]
	if phi.Op != OpPhi || len(phi.Incoming) != 2 {
		t.Fatalf("phi: %v", phi)
	}
	if phi.Incoming[0].Pred != f.Blocks[0] || phi.Incoming[1].Pred != loop {
		t.Error("phi predecessors wrong")
	}
	if _, ok := phi.Incoming[0].Value.(*ConstantInt); !ok {
		t.Error("first incoming is not the immediate 0")
	}
	term := loop.Terminator()
	if term == nil || term.Op != OpCondBr {
		t.Fatalf("loop terminator: %v", term)
	}
	if term.Succs[0] != loop || term.Succs[1] != f.Blocks[2] {
		t.Error("conditional branch successors wrong")
	}
	preds := loop.Predecessors()
	if len(preds) != 2 {
		t.Errorf("loop predecessors: got %d, want 2", len(preds))
	}
}

func TestParseGlobalsAndCalls(t *testing.T) {
	src := `
@lut = constant [2 x float] [float 0.5, float 1.5]
kernel void @k(global float* %out) {
entry:
  %q = getelementptr constant [2 x float]* @lut, i32 0, i32 1
  %v = load constant float* %q
  %r = call float @sqrt(float %v)
  %o = getelementptr global float* %out, i32 0
  store float %r, global float* %o
  ret void
}
`
	mod, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(mod.Globals) != 1 {
		t.Fatalf("globals: got %d", len(mod.Globals))
	}
	g := mod.Globals[0]
	if g.Space != AddrConstant {
		t.Errorf("global space: got %s", g.Space)
	}
	cc, ok := g.Init.(*ConstantComposite)
	if !ok || len(cc.Elems) != 2 {
		t.Fatalf("global init: %v", g.Init)
	}
	sqrt := mod.Function("sqrt")
	if sqrt == nil || !sqrt.IsDecl {
		t.Error("call did not auto-declare @sqrt")
	}
}

func TestParseImageKernel(t *testing.T) {
	src := `
kernel void @k(image2d_ro_t %img, sampler_t %smp, image2d_wo_t %dst) {
entry:
  ret void
}
`
	mod, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := mod.Function("k")
	if !IsImage(f.Args[0].Ty) {
		t.Error("arg 0 is not an image type")
	}
	if !IsSampler(f.Args[1].Ty) {
		t.Error("arg 1 is not a sampler type")
	}
	st := f.Args[2].Ty.(*StructType)
	if st.Name != "opencl.image2d_wo_t" {
		t.Errorf("arg 2 name: got %s", st.Name)
	}
}

func TestParseVectorOps(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  %e = extractelement <4 x i8> <i8 1, i8 2, i8 3, i8 4>, i32 2
  %v = insertelement <4 x i8> zeroinitializer, i8 %e, i32 0
  %s = shufflevector <4 x i8> %v, <4 x i8> %v, <4 x i32> <i32 0, i32 1, i32 4, i32 5>
  ret void
}
`
	mod, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	instrs := mod.Function("k").Blocks[0].Instrs
	if instrs[0].Op != OpExtractElement {
		t.Errorf("got %s", instrs[0].Op)
	}
	vt := instrs[2].Ty.(*VectorType)
	if vt.Len != 4 {
		t.Errorf("shuffle result length: got %d", vt.Len)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"kernel void @k( {",                      // malformed args
		"kernel void @k() {\nentry:\n  %a = add i32 %nope, i32 1\n}", // undefined value
		"kernel void @k() {\nentry:\n  br label %missing\n}",         // undefined label
	}
	for _, src := range cases {
		if _, err := Parse(src); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}
