package spirv

import (
	"bytes"
	"testing"

	"github.com/gogpu/clspirv/ir"
)

func compileSrc(t *testing.T, src string, opts Options) (*Producer, *bytes.Buffer) {
	t.Helper()
	mod, err := ir.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return compileModule(t, mod, opts)
}

func compileModule(t *testing.T, mod *ir.Module, opts Options) (*Producer, *bytes.Buffer) {
	t.Helper()
	var desc bytes.Buffer
	p := NewProducer(opts, &desc)
	if err := p.Compile(mod); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p, &desc
}

func opcodes(p *Producer) []Opcode {
	out := make([]Opcode, 0, p.Instructions().Len())
	for _, inst := range p.Instructions().All() {
		out = append(out, inst.Opcode)
	}
	return out
}

func countOp(p *Producer, op Opcode) int {
	n := 0
	for _, o := range opcodes(p) {
		if o == op {
			n++
		}
	}
	return n
}

func findInst(p *Producer, op Opcode) *Instruction {
	for _, inst := range p.Instructions().All() {
		if inst.Opcode == op {
			return inst
		}
	}
	return nil
}

func findAll(p *Producer, op Opcode) []*Instruction {
	var out []*Instruction
	for _, inst := range p.Instructions().All() {
		if inst.Opcode == op {
			out = append(out, inst)
		}
	}
	return out
}

const emptyImageKernel = `
kernel void @foo(image2d_ro_t %a, image2d_wo_t %b) reqd_work_group_size(1, 1, 1) {
entry:
  ret void
}
`

func TestEmptyImageKernel_Bound(t *testing.T) {
	p, _ := compileSrc(t, emptyImageKernel, DefaultOptions())

	if got := p.Bound(); got != 12 {
		t.Errorf("bound: got %d, want 12", got)
	}
	if n := countOp(p, OpEntryPoint); n != 1 {
		t.Errorf("OpEntryPoint count: got %d, want 1", n)
	}

	ep := findInst(p, OpEntryPoint)
	// GLCompute model, function id, name; no interface ids.
	if len(ep.Operands) != 3 {
		t.Errorf("entry point operands: got %d, want 3 (no interfaces)", len(ep.Operands))
	}

	em := findInst(p, OpExecutionMode)
	if em == nil {
		t.Fatal("missing OpExecutionMode")
	}
	want := []uint32{1, 1, 1}
	for i, op := range em.Operands[2:] {
		if op.Lit[0] != want[i] {
			t.Errorf("LocalSize[%d]: got %d, want %d", i, op.Lit[0], want[i])
		}
	}
}

func TestEmptyImageKernel_Capabilities(t *testing.T) {
	p, _ := compileSrc(t, emptyImageKernel, DefaultOptions())

	var caps []Capability
	for _, inst := range findAll(p, OpCapability) {
		caps = append(caps, Capability(inst.Operands[0].Lit[0]))
	}
	want := map[Capability]bool{
		CapabilityShader:                         true,
		CapabilityStorageImageWriteWithoutFormat: true,
		CapabilityVariablePointers:               true,
	}
	if len(caps) != len(want) {
		t.Errorf("capabilities: got %v, want %v", caps, want)
	}
	for _, c := range caps {
		if !want[c] {
			t.Errorf("unexpected capability %s", c)
		}
	}
}

func TestEmptyImageKernel_ImageDecorations(t *testing.T) {
	p, desc := compileSrc(t, emptyImageKernel, DefaultOptions())

	hasNonWritable, hasNonReadable := false, false
	for _, inst := range findAll(p, OpDecorate) {
		switch Decoration(inst.Operands[1].Lit[0]) {
		case DecorationNonWritable:
			hasNonWritable = true
		case DecorationNonReadable:
			hasNonReadable = true
		}
	}
	if !hasNonWritable {
		t.Error("read-only image variable lacks NonWritable")
	}
	if !hasNonReadable {
		t.Error("write-only image variable lacks NonReadable")
	}

	lines := desc.String()
	wantA := "kernel,foo,arg,a,argOrdinal,0,descriptorSet,0,binding,0,offset,0,argKind,ro_image\n"
	wantB := "kernel,foo,arg,b,argOrdinal,1,descriptorSet,0,binding,1,offset,0,argKind,wo_image\n"
	if lines != wantA+wantB {
		t.Errorf("descriptor map:\ngot  %q\nwant %q", lines, wantA+wantB)
	}
}

func TestScalarAddPodKernel(t *testing.T) {
	src := `
kernel void @k(i32 %x, global i32* %y) {
entry:
  %a = add i32 %x, i32 1
  %p = getelementptr global i32* %y, i32 0
  store i32 %a, global i32* %p
  ret void
}
`
	p, desc := compileSrc(t, src, DefaultOptions())

	for _, op := range []Opcode{OpAccessChain, OpLoad, OpIAdd, OpStore, OpTypeRuntimeArray} {
		if countOp(p, op) == 0 {
			t.Errorf("missing %s", op)
		}
	}
	// x wraps in a struct-backed storage buffer at binding 0; y is the
	// runtime-arrayed buffer at binding 1.
	want := "kernel,k,arg,x,argOrdinal,0,descriptorSet,0,binding,0,offset,0,argKind,pod\n" +
		"kernel,k,arg,y,argOrdinal,1,descriptorSet,0,binding,1,offset,0,argKind,buffer\n"
	if desc.String() != want {
		t.Errorf("descriptor map:\ngot  %q\nwant %q", desc.String(), want)
	}
}

func TestBooleanWidening(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  %v = load global i32* %p
  %c = icmp sgt i32 %v, i32 0
  %w = zext i1 %c to i32
  store i32 %w, global i32* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	if countOp(p, OpSGreaterThan) != 1 {
		t.Error("comparison did not lower to OpSGreaterThan")
	}
	sel := findInst(p, OpSelect)
	if sel == nil {
		t.Fatal("widening did not lower to OpSelect")
	}
	// Selects between the registered constants 1 and 0.
	oneID := sel.Operands[2].ID
	zeroID := sel.Operands[3].ID
	one, zero := false, false
	for _, inst := range findAll(p, OpConstant) {
		if inst.Result == oneID && inst.Operands[1].Lit[0] == 1 {
			one = true
		}
		if inst.Result == zeroID && inst.Operands[1].Lit[0] == 0 {
			zero = true
		}
	}
	if !one || !zero {
		t.Error("OpSelect does not reference the 1 and 0 constants")
	}
}

func TestLocalMemoryKernel(t *testing.T) {
	src := `
kernel void @k(local i32* %l) arg_spec_id(%l, 3) {
entry:
  %p = getelementptr local i32* %l, i32 0
  store i32 0, local i32* %p
  ret void
}
`
	p, desc := compileSrc(t, src, DefaultOptions())

	spec := findInst(p, OpSpecConstant)
	if spec == nil {
		t.Fatal("missing OpSpecConstant for the array length")
	}
	specDecorated := false
	for _, inst := range findAll(p, OpDecorate) {
		if inst.Operands[0].ID == spec.Result &&
			Decoration(inst.Operands[1].Lit[0]) == DecorationSpecId {
			if got := inst.Operands[2].Lit[0]; got != 3 {
				t.Errorf("SpecId: got %d, want 3", got)
			}
			specDecorated = true
		}
	}
	if !specDecorated {
		t.Error("spec constant lacks SpecId decoration")
	}

	arr := findInst(p, OpTypeArray)
	if arr == nil {
		t.Fatal("missing Workgroup array type")
	}
	if arr.Operands[1].ID != spec.Result {
		t.Error("array length is not the spec constant")
	}

	// The argument's store resolves through the element-0 AccessChain.
	ac := findInst(p, OpAccessChain)
	st := findInst(p, OpStore)
	if ac == nil || st == nil {
		t.Fatal("missing AccessChain or Store")
	}
	if st.Operands[0].ID != ac.Result {
		t.Errorf("store pointer %d is not the first-elem chain %d", st.Operands[0].ID, ac.Result)
	}

	want := "kernel,k,arg,l,argOrdinal,0,argKind,local,arrayElemSize,4,arrayNumElemSpecId,3\n"
	if desc.String() != want {
		t.Errorf("descriptor map:\ngot  %q\nwant %q", desc.String(), want)
	}
}

func TestClzLowering(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  %v = load global i32* %p
  %r = call i32 @clz(i32 %v)
  store i32 %r, global i32* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	ext := findInst(p, OpExtInst)
	if ext == nil {
		t.Fatal("missing OpExtInst")
	}
	if got := GLSLExtInst(ext.Operands[2].Lit[0]); got != GLSLExtInstFindUMsb {
		t.Errorf("ext inst: got %s, want FindUMsb", got)
	}
	sub := findInst(p, OpISub)
	if sub == nil {
		t.Fatal("missing follow-up OpISub")
	}
	if sub.Result != ext.Result+1 {
		t.Errorf("follow-up id: got %d, want %d", sub.Result, ext.Result+1)
	}
	// Subtracts the MSB index from 31.
	c31 := false
	for _, inst := range findAll(p, OpConstant) {
		if inst.Result == sub.Operands[1].ID && inst.Operands[1].Lit[0] == 31 {
			c31 = true
		}
	}
	if !c31 {
		t.Error("OpISub does not subtract from the constant 31")
	}
	if countOp(p, OpExtInstImport) != 1 {
		t.Error("missing OpExtInstImport")
	}
}

func TestImageRead(t *testing.T) {
	src := `
kernel void @k(image2d_ro_t %img, sampler_t %smp, global float* %out) {
entry:
  %texel = call <4 x float> @read_imagef(image2d_ro_t %img, sampler_t %smp, <2 x float> zeroinitializer)
  %x = extractelement <4 x float> %texel, i32 0
  %p = getelementptr global float* %out, i32 0
  store float %x, global float* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	if countOp(p, OpTypeSampledImage) != 1 {
		t.Error("missing OpTypeSampledImage")
	}
	si := findInst(p, OpSampledImage)
	if si == nil {
		t.Fatal("missing OpSampledImage")
	}
	sample := findInst(p, OpImageSampleExplicitLod)
	if sample == nil {
		t.Fatal("missing OpImageSampleExplicitLod")
	}
	if sample.Operands[1].ID != si.Result {
		t.Error("sample does not consume the sampled image")
	}
	if sample.Operands[3].Lit[0] != 0x2 {
		t.Errorf("image operands: got %#x, want Lod (0x2)", sample.Operands[3].Lit[0])
	}
}

func TestNoExtInstImportWithoutMathCalls(t *testing.T) {
	p, _ := compileSrc(t, emptyImageKernel, DefaultOptions())
	if countOp(p, OpExtInstImport) != 0 {
		t.Error("OpExtInstImport emitted without extended-instruction calls")
	}
}

func TestWorkgroupSizeSpecConstants(t *testing.T) {
	mod := ir.NewModule()
	c := mod.Types
	v3 := c.Vector(c.Int(32), 3)
	one := &ir.ConstantInt{Ty: c.Int(32), Val: 1}
	g := mod.AddGlobal("__spirv_WorkgroupSize", ir.AddrModuleScopePrivate, v3,
		&ir.ConstantComposite{Ty: v3, Elems: []ir.Constant{one, one, one}})
	g.BuiltinWorkgroupSize = true

	f := mod.AddFunction("k", c.Function(c.Void()), true)
	b := f.AddBlock("entry")
	ld := b.Append(&ir.Instruction{Op: ir.OpLoad, Ty: v3, Operands: []ir.Value{g}, Nam: "wg"})
	b.Append(&ir.Instruction{Op: ir.OpRet, Ty: c.Void()})
	_ = ld

	p, _ := compileModule(t, mod, DefaultOptions())

	specs := findAll(p, OpSpecConstant)
	if len(specs) != 3 {
		t.Fatalf("OpSpecConstant count: got %d, want 3", len(specs))
	}
	for _, s := range specs {
		if s.Operands[1].Lit[0] != 1 {
			t.Errorf("spec constant default: got %d, want 1", s.Operands[1].Lit[0])
		}
	}
	ids := map[uint32]bool{}
	for _, inst := range findAll(p, OpDecorate) {
		if Decoration(inst.Operands[1].Lit[0]) == DecorationSpecId {
			ids[inst.Operands[2].Lit[0]] = true
		}
	}
	for want := uint32(0); want < 3; want++ {
		if !ids[want] {
			t.Errorf("missing SpecId %d", want)
		}
	}
	if countOp(p, OpSpecConstantComposite) != 1 {
		t.Error("missing OpSpecConstantComposite")
	}
	// The load is replaced by the driver-workaround and-with-itself.
	and := findInst(p, OpBitwiseAnd)
	if and == nil {
		t.Fatal("workgroup-size load was not rewritten to OpBitwiseAnd")
	}
	if and.Operands[1].ID != and.Operands[2].ID {
		t.Error("OpBitwiseAnd operands differ; want value anded with itself")
	}
}

func TestWorkgroupSizeFixed(t *testing.T) {
	mod := ir.NewModule()
	c := mod.Types
	v3 := c.Vector(c.Int(32), 3)
	one := &ir.ConstantInt{Ty: c.Int(32), Val: 1}
	g := mod.AddGlobal("__spirv_WorkgroupSize", ir.AddrModuleScopePrivate, v3,
		&ir.ConstantComposite{Ty: v3, Elems: []ir.Constant{one, one, one}})
	g.BuiltinWorkgroupSize = true

	f := mod.AddFunction("k", c.Function(c.Void()), true)
	f.ReqdWorkGroupSize = &[3]uint32{4, 2, 1}
	b := f.AddBlock("entry")
	b.Append(&ir.Instruction{Op: ir.OpLoad, Ty: v3, Operands: []ir.Value{g}, Nam: "wg"})
	b.Append(&ir.Instruction{Op: ir.OpRet, Ty: c.Void()})

	p, _ := compileModule(t, mod, DefaultOptions())

	if n := countOp(p, OpSpecConstant); n != 0 {
		t.Errorf("fixed workgroup size should not use spec constants, got %d", n)
	}
	decorated := false
	for _, inst := range findAll(p, OpDecorate) {
		if Decoration(inst.Operands[1].Lit[0]) == DecorationBuiltIn &&
			BuiltIn(inst.Operands[2].Lit[0]) == BuiltInWorkgroupSize {
			decorated = true
		}
	}
	if !decorated {
		t.Error("workgroup-size value lacks the BuiltIn decoration")
	}
}

func TestDisagreeingWorkgroupSizes(t *testing.T) {
	mod := ir.NewModule()
	c := mod.Types
	v3 := c.Vector(c.Int(32), 3)
	one := &ir.ConstantInt{Ty: c.Int(32), Val: 1}
	g := mod.AddGlobal("__spirv_WorkgroupSize", ir.AddrModuleScopePrivate, v3,
		&ir.ConstantComposite{Ty: v3, Elems: []ir.Constant{one, one, one}})
	g.BuiltinWorkgroupSize = true

	for i, dims := range [][3]uint32{{1, 1, 1}, {2, 1, 1}} {
		f := mod.AddFunction("k"+string(rune('a'+i)), c.Function(c.Void()), true)
		d := dims
		f.ReqdWorkGroupSize = &d
		b := f.AddBlock("entry")
		b.Append(&ir.Instruction{Op: ir.OpLoad, Ty: v3, Operands: []ir.Value{g}, Nam: "wg"})
		b.Append(&ir.Instruction{Op: ir.OpRet, Ty: c.Void()})
	}

	var desc bytes.Buffer
	p := NewProducer(DefaultOptions(), &desc)
	err := p.Compile(mod)
	if err == nil {
		t.Fatal("expected a structural violation")
	}
}

func TestModuleConstantsOversized(t *testing.T) {
	mod := ir.NewModule()
	c := mod.Types
	big := c.Array(c.Int(8), 65537)
	mod.AddGlobal("data", ir.AddrConstant, big, &ir.ConstantNull{Ty: big})
	f := mod.AddFunction("k", c.Function(c.Void()), true)
	b := f.AddBlock("entry")
	b.Append(&ir.Instruction{Op: ir.OpRet, Ty: c.Void()})

	opts := DefaultOptions()
	opts.ModuleConstantsInStorageBuffer = true
	var desc bytes.Buffer
	p := NewProducer(opts, &desc)
	if err := p.Compile(mod); err == nil {
		t.Fatal("65537-byte __constant should be rejected in storage-buffer mode")
	}

	// Without the mode it is rewritten into the private space.
	mod2 := ir.NewModule()
	c2 := mod2.Types
	big2 := c2.Array(c2.Int(8), 65537)
	g := mod2.AddGlobal("data", ir.AddrConstant, big2, &ir.ConstantNull{Ty: big2})
	f2 := mod2.AddFunction("k", c2.Function(c2.Void()), true)
	b2 := f2.AddBlock("entry")
	b2.Append(&ir.Instruction{Op: ir.OpRet, Ty: c2.Void()})

	p2, _ := compileModule(t, mod2, DefaultOptions())
	if g.Space != ir.AddrModuleScopePrivate {
		t.Error("__constant global was not moved to the module-private space")
	}
	foundPrivate := false
	for _, inst := range findAll(p2, OpVariable) {
		if StorageClass(inst.Operands[1].Lit[0]) == StorageClassPrivate {
			foundPrivate = true
		}
	}
	if !foundPrivate {
		t.Error("no Private-class variable emitted for the rewritten global")
	}
}

func TestStructuredLoop(t *testing.T) {
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
	p, _ := compileSrc(t, src, DefaultOptions())

	ops := opcodes(p)
	for i, op := range ops {
		if op == OpBranchConditional {
			if i == 0 || ops[i-1] != OpLoopMerge {
				t.Errorf("conditional branch at %d not preceded by OpLoopMerge (got %s)", i, ops[i-1])
			}
		}
	}
	if countOp(p, OpPhi) != 1 {
		t.Error("missing OpPhi")
	}
	phi := findInst(p, OpPhi)
	if len(phi.Operands) != 5 { // type + 2 (value, pred) pairs
		t.Errorf("phi operands: got %d, want 5", len(phi.Operands))
	}
}

func TestStructuredSelection(t *testing.T) {
	src := `
kernel void @k(global i32* %p) {
entry:
  %v = load global i32* %p
  %c = icmp sgt i32 %v, i32 0
  br i1 %c, label %then, label %merge
then:
  store i32 0, global i32* %p
  br label %merge
merge:
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	ops := opcodes(p)
	for i, op := range ops {
		if op == OpBranchConditional {
			if i == 0 || ops[i-1] != OpSelectionMerge {
				t.Errorf("conditional branch not preceded by OpSelectionMerge (got %s)", ops[i-1])
			}
		}
	}
}

func TestRegionOrdering(t *testing.T) {
	src := `
kernel void @k(i32 %x, global i32* %y) reqd_work_group_size(1, 1, 1) {
entry:
  %a = add i32 %x, i32 1
  %p = getelementptr global i32* %y, i32 0
  store i32 %a, global i32* %p
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	// The stream partitions into prefix, decorations, types/constants/
	// variables, functions.
	region := func(op Opcode) int {
		switch op {
		case OpCapability, OpExtension, OpExtInstImport, OpMemoryModel,
			OpEntryPoint, OpExecutionMode, OpSource:
			return 0
		case OpDecorate, OpMemberDecorate:
			return 1
		case OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector,
			OpTypeImage, OpTypeSampler, OpTypeSampledImage, OpTypeArray,
			OpTypeRuntimeArray, OpTypeStruct, OpTypePointer, OpTypeFunction,
			OpConstant, OpConstantTrue, OpConstantFalse, OpConstantComposite,
			OpConstantNull, OpSpecConstant, OpSpecConstantComposite, OpUndef:
			return 2
		}
		return 3
	}
	// OpVariable is region 2 at module scope, region 3 inside functions;
	// treat it as non-decreasing-compatible by skipping it.
	last := 0
	for i, inst := range p.Instructions().All() {
		if inst.Opcode == OpVariable {
			continue
		}
		r := region(inst.Opcode)
		if r < last {
			t.Fatalf("instruction %d (%s) in region %d after region %d", i, inst.Opcode, r, last)
		}
		last = r
	}
}

func TestEveryOperandDefinedBeforeUse(t *testing.T) {
	src := `
kernel void @k(global i32* %p, local float* %l) arg_spec_id(%l, 1) {
entry:
  %v = load global i32* %p
  %c = icmp slt i32 %v, i32 4
  br i1 %c, label %then, label %merge
then:
  %q = getelementptr local float* %l, i32 0
  store float 0.5, local float* %q
  br label %merge
merge:
  ret void
}
`
	p, _ := compileSrc(t, src, DefaultOptions())

	forwardRef := map[Opcode]bool{
		OpPhi: true, OpBranch: true, OpBranchConditional: true,
		OpSelectionMerge: true, OpLoopMerge: true, OpFunctionCall: true,
		OpEntryPoint: true, OpExecutionMode: true,
		// Decorations precede everything they annotate.
		OpDecorate: true, OpMemberDecorate: true,
	}
	defined := map[uint32]bool{}
	for _, inst := range p.Instructions().All() {
		if !forwardRef[inst.Opcode] {
			for _, op := range inst.Operands {
				if op.Kind == OperandID && !defined[op.ID] {
					t.Errorf("%s references %%%d before definition", inst.Opcode, op.ID)
				}
			}
		}
		if inst.Result != 0 {
			defined[inst.Result] = true
		}
	}
}
