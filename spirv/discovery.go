package spirv

import (
	"github.com/gogpu/clspirv/ir"
)

// invPi is the 1/π constant multiplied in after the inverse-trig extended
// instructions lowering acospi, asinpi, and atan2pi.
const invPi = 0.318309886183790671538

// rewriteGlobalConstants moves module-scope __constant globals into the
// module's private address space (default mode) and propagates the address
// space change through every pointer-typed user, including pointer-to-
// constant parameters of called functions. In storage-buffer mode the
// globals stay put and are bound as a descriptor resource instead, capped
// at 64 KiB total.
func (p *Producer) rewriteGlobalConstants() error {
	var consts []*ir.GlobalVariable
	for _, g := range p.mod.Globals {
		if g.Space == ir.AddrConstant {
			consts = append(consts, g)
		}
	}
	p.constantGlobals = consts
	if len(consts) == 0 {
		return nil
	}

	if p.opts.ModuleConstantsInStorageBuffer {
		var total uint64
		for _, g := range consts {
			total += ir.SizeOf(g.ValueType)
		}
		if total > 65536 {
			return structuralf("__constant data is %d bytes; the storage-buffer limit is 65536", total)
		}
		return nil
	}

	rewritten := make(map[ir.Value]bool)
	for _, g := range consts {
		g.Space = ir.AddrModuleScopePrivate
		rewritten[g] = true
	}

	c := p.mod.Types
	for changed := true; changed; {
		changed = false
		for _, f := range p.mod.Functions {
			for _, b := range f.Blocks {
				for _, inst := range b.Instrs {
					switch inst.Op {
					case ir.OpGetElementPtr, ir.OpBitcast:
						if !rewritten[inst.Operands[0]] || rewritten[inst] {
							continue
						}
						if pt, ok := inst.Ty.(*ir.PointerType); ok {
							inst.Ty = c.Pointer(ir.AddrModuleScopePrivate, pt.Elem)
							rewritten[inst] = true
							changed = true
						}
					case ir.OpCall:
						if inst.Callee == nil || inst.Callee.IsDecl {
							continue
						}
						// Note: every matching operand updates the record,
						// so only the last index sticks; calls passing two
						// constant pointers keep just one rewrite entry.
						for i, op := range inst.Operands {
							if !rewritten[op] {
								continue
							}
							arg := inst.Callee.Args[i]
							p.globalConstFuncTypes[inst.Callee.Sig] = i
							if !p.globalConstArgs[arg] {
								p.globalConstArgs[arg] = true
								if pt, ok := arg.Ty.(*ir.PointerType); ok {
									arg.Ty = c.Pointer(ir.AddrModuleScopePrivate, pt.Elem)
								}
								rewritten[arg] = true
								changed = true
							}
						}
					}
				}
			}
		}
	}
	return nil
}

// findExtInst scans every call for a direct or indirect GLSL.std.450
// mapping; one hit is enough to force the OpExtInstImport.
func (p *Producer) findExtInst() {
	for _, f := range p.mod.Functions {
		for _, b := range f.Blocks {
			for _, inst := range b.Instrs {
				if inst.Op != ir.OpCall || inst.Callee == nil {
					continue
				}
				if extInstFor(inst) != GLSLExtInstBad ||
					indirectExtInstFor(inst.Callee.Nam) != GLSLExtInstBad {
					p.usesExtInst = true
					return
				}
			}
		}
	}
}

// registerType interns a type for emission, subtypes first. Discovery order
// fixes emission order, which fixes id assignment, so everything here is
// driven by insertion-ordered slices rather than map iteration.
func (p *Producer) registerType(t ir.Type) {
	if p.typeSeen[t] {
		return
	}
	p.typeSeen[t] = true
	c := p.mod.Types

	switch ty := t.(type) {
	case *ir.IntType:
		switch ty.Width {
		case 16:
			p.capInt16 = true
		case 64:
			p.capInt64 = true
		}
	case *ir.FloatType:
		switch ty.Width {
		case 16:
			p.capFloat16 = true
		case 64:
			p.capFloat64 = true
		}
	case *ir.VectorType:
		p.registerType(ty.Elem)
		if isV4I8(t) {
			// Aliases to i32; make sure the alias target is ordered first.
			p.registerType(c.Int(32))
		}
	case *ir.ArrayType:
		p.registerType(ty.Elem)
		// The length operand is an i32 constant id.
		p.registerType(c.Int(32))
		p.registerConstant(&ir.ConstantInt{Ty: c.Int(32), Val: ty.Len})
	case *ir.PointerType:
		p.registerType(ty.Elem)
	case *ir.StructType:
		if ty.Opaque {
			if ir.IsImage(t) {
				// Image sampled type.
				p.registerType(c.Float(32))
				if isWriteOnlyImage(t) {
					p.capImageWrite = true
				}
			}
		} else {
			for _, f := range ty.Fields {
				p.registerType(f)
			}
		}
	case *ir.FunctionType:
		p.registerType(ty.Result)
		for _, pt := range ty.Params {
			p.registerType(pt)
		}
	}
	p.types = append(p.types, t)
}

// registerConstant interns a constant for emission, elements first. The
// <4 x i8> folding happens at the key level, so a vector constant and the
// i32 with the same byte pattern share one id.
func (p *Producer) registerConstant(cst ir.Constant) {
	p.registerType(cst.Type())
	key := p.constKey(cst)
	if p.constSeen[key] {
		return
	}
	if cc, ok := cst.(*ir.ConstantComposite); ok && !isV4I8(cst.Type()) {
		for _, e := range cc.Elems {
			p.registerConstant(e)
		}
	}
	p.constSeen[key] = true
	p.constants = append(p.constants, cst)
}

func (p *Producer) registerInt32(v uint64) {
	p.registerConstant(&ir.ConstantInt{Ty: p.mod.Types.Int(32), Val: v})
}

// discover runs the two symmetric walks over the module, kernels first,
// interning every type and constant lowering will reference.
func (p *Producer) discover() error {
	member := uint64(0)
	for _, g := range p.mod.Globals {
		if g.BuiltinWorkgroupSize {
			continue // handled by emitWorkgroupSizeVar
		}
		p.registerType(g.ValueType)
		if p.opts.ModuleConstantsInStorageBuffer && g.Space == ir.AddrConstant {
			// Chains through the clustered buffer need the member index.
			p.registerType(p.mod.Types.Int(32))
			p.registerInt32(member)
			member++
			continue
		}
		p.registerType(g.Type())
		if g.Init != nil {
			p.registerConstant(g.Init)
		}
	}

	for _, kernelPass := range []bool{true, false} {
		for _, f := range p.mod.Functions {
			if f.IsDecl || f.IsKernel != kernelPass {
				continue
			}
			if err := p.discoverFunction(f); err != nil {
				return err
			}
		}
	}
	return p.checkWorkgroupSize()
}

func (p *Producer) discoverFunction(f *ir.Function) error {
	c := p.mod.Types

	if f.IsKernel {
		// Vulkan entry points take no arguments: the kernel's function
		// type collapses to void().
		p.registerType(c.Void())
		p.registerType(c.Function(c.Void()))
		for _, a := range f.Args {
			kind, err := p.classifyArg(a)
			if err != nil {
				return err
			}
			switch kind {
			case argKindSampler, argKindROImage, argKindWOImage:
				p.registerType(a.Ty)
			case argKindBuffer:
				p.registerType(a.Ty)
				p.registerInt32(0) // the prepended struct index
			case argKindPod, argKindPodUBO:
				p.registerType(a.Ty)
				p.registerType(c.Int(32))
				p.registerInt32(0)
			case argKindLocal:
				pt := a.Ty.(*ir.PointerType)
				p.registerType(pt.Elem)
				p.registerType(a.Ty)
				p.registerType(c.Int(32))
				p.registerInt32(0)
			}
		}
	} else {
		// Regular functions keep their parameters; pointer-to-constant
		// parameters were rewritten to the private space already.
		paramTypes := make([]ir.Type, len(f.Args))
		for i, a := range f.Args {
			p.registerType(a.Ty)
			paramTypes[i] = a.Ty
		}
		p.registerType(f.Sig.Result)
		p.registerType(c.Function(f.Sig.Result, paramTypes...))
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Instrs {
			if err := p.discoverInstruction(f, inst); err != nil {
				return err
			}
		}
	}
	return nil
}

//nolint:gocyclo // one arm per special-cased opcode
func (p *Producer) discoverInstruction(f *ir.Function, inst *ir.Instruction) error {
	c := p.mod.Types

	if _, isVoid := inst.Ty.(*ir.VoidType); !isVoid {
		p.registerType(inst.Ty)
	}
	for _, op := range inst.Operands {
		if cst, ok := op.(ir.Constant); ok {
			p.registerConstant(cst)
		}
		p.registerType(op.Type())
		if g, ok := op.(*ir.GlobalVariable); ok && g.BuiltinWorkgroupSize {
			p.wgSizeReferenced = true
		}
	}

	switch inst.Op {
	case ir.OpZExt, ir.OpSExt, ir.OpUIToFP:
		if isBoolOrBoolVector(inst.Operands[0].Type()) {
			one, zero := p.widenConstants(inst)
			p.registerConstant(one)
			p.registerConstant(zero)
		}

	case ir.OpTrunc:
		if it, ok := inst.Ty.(*ir.IntType); ok && it.Width == 8 {
			p.registerInt32(0xFF)
		}

	case ir.OpExtractElement, ir.OpInsertElement:
		if isV4I8(inst.Operands[0].Type()) {
			p.registerType(c.Int(32))
			p.registerInt32(0xFF)
			idx := inst.Operands[len(inst.Operands)-1]
			if ci, ok := idx.(*ir.ConstantInt); ok {
				p.registerInt32(ci.Val * 8)
			} else {
				p.registerInt32(8)
			}
		}

	case ir.OpAtomicRMW:
		p.registerType(c.Int(32))
		p.registerInt32(uint64(ScopeDevice))
		p.registerInt32(uint64(MemorySemanticsUniformMemory | MemorySemanticsSequentiallyConsistent))

	case ir.OpCall:
		return p.discoverCall(f, inst)
	}
	return nil
}

func (p *Producer) discoverCall(_ *ir.Function, inst *ir.Instruction) error {
	c := p.mod.Types
	name := inst.Callee.Nam

	switch {
	case isReadImageBuiltin(name):
		// The LOD literal.
		p.registerConstant(&ir.ConstantFloat{Ty: c.Float(32), Val: 0})
		imgTy := inst.Operands[0].Type()
		if !p.sampledImageSeen[imgTy] {
			p.sampledImageSeen[imgTy] = true
			p.sampledImages = append(p.sampledImages, imgTy)
		}

	case isImageQueryBuiltin(name):
		p.capImageQuery = true
		p.registerType(c.Vector(c.Int(32), 2))

	case name == "__translate_sampler_initializer":
		p.samplerUsed = true
		if len(p.opts.SamplerMap) == 0 {
			return missingf("kernel uses a literal sampler but no sampler map was provided")
		}
		p.registerType(c.Opaque("opencl.sampler_t"))
	}

	if e := indirectExtInstFor(name); e != GLSLExtInstBad {
		switch e {
		case GLSLExtInstFindUMsb:
			// clz needs the bit-width-minus-one to subtract from the MSB
			// index, splatted when the result is a vector.
			p.registerConstant(splatInt(inst.Ty, 31))
		case GLSLExtInstAcos, GLSLExtInstAsin, GLSLExtInstAtan2:
			p.registerConstant(splatFloat(inst.Ty, invPi))
		}
	}
	return nil
}

// widenConstants returns the pair of constants an i1-widening cast selects
// between: (1, 0) for zext, (-1, 0) for sext, (1.0, 0.0) for uitofp,
// splatted when the result is a vector.
func (p *Producer) widenConstants(inst *ir.Instruction) (one, zero ir.Constant) {
	switch inst.Op {
	case ir.OpSExt:
		return splatInt(inst.Ty, ^uint64(0)), splatInt(inst.Ty, 0)
	case ir.OpUIToFP:
		return splatFloat(inst.Ty, 1), splatFloat(inst.Ty, 0)
	default: // zext
		return splatInt(inst.Ty, 1), splatInt(inst.Ty, 0)
	}
}

// checkWorkgroupSize validates reqd_work_group_size agreement and registers
// the fixed dimensions when the workgroup-size builtin is referenced.
func (p *Producer) checkWorkgroupSize() error {
	if p.workgroupSizeGlobal() == nil || !p.wgSizeReferenced {
		return nil
	}
	c := p.mod.Types
	p.registerType(c.Int(32))
	p.registerType(c.Vector(c.Int(32), 3))

	for _, f := range p.mod.Kernels() {
		if f.ReqdWorkGroupSize == nil {
			continue
		}
		d := *f.ReqdWorkGroupSize
		if p.builtinDims == nil {
			p.builtinDims = []uint32{d[0], d[1], d[2]}
		} else if p.builtinDims[0] != d[0] || p.builtinDims[1] != d[1] ||
			p.builtinDims[2] != d[2] {
			return structuralf("kernels disagree on reqd_work_group_size")
		}
	}
	for _, d := range p.builtinDims {
		p.registerInt32(uint64(d))
	}
	return nil
}

func (p *Producer) workgroupSizeGlobal() *ir.GlobalVariable {
	for _, g := range p.mod.Globals {
		if g.BuiltinWorkgroupSize {
			return g
		}
	}
	return nil
}

// Type predicates shared by discovery and lowering.

func isV4I8(t ir.Type) bool {
	vt, ok := t.(*ir.VectorType)
	if !ok || vt.Len != 4 {
		return false
	}
	it, ok := vt.Elem.(*ir.IntType)
	return ok && it.Width == 8
}

func isBoolOrBoolVector(t ir.Type) bool {
	if _, ok := t.(*ir.BoolType); ok {
		return true
	}
	vt, ok := t.(*ir.VectorType)
	if !ok {
		return false
	}
	_, ok = vt.Elem.(*ir.BoolType)
	return ok
}

func isWriteOnlyImage(t ir.Type) bool {
	st, ok := t.(*ir.StructType)
	if !ok {
		return false
	}
	return st.Name == "opencl.image2d_wo_t" || st.Name == "opencl.image3d_wo_t"
}

// splatInt builds an integer constant of type t, replicated across the
// lanes when t is a vector.
func splatInt(t ir.Type, v uint64) ir.Constant {
	if vt, ok := t.(*ir.VectorType); ok {
		elem := &ir.ConstantInt{Ty: vt.Elem, Val: truncTo(vt.Elem, v)}
		elems := make([]ir.Constant, vt.Len)
		for i := range elems {
			elems[i] = elem
		}
		return &ir.ConstantComposite{Ty: t, Elems: elems}
	}
	return &ir.ConstantInt{Ty: t, Val: truncTo(t, v)}
}

// splatFloat builds a float constant of type t, replicated across the lanes
// when t is a vector.
func splatFloat(t ir.Type, v float64) ir.Constant {
	if vt, ok := t.(*ir.VectorType); ok {
		elem := &ir.ConstantFloat{Ty: vt.Elem, Val: v}
		elems := make([]ir.Constant, vt.Len)
		for i := range elems {
			elems[i] = elem
		}
		return &ir.ConstantComposite{Ty: t, Elems: elems}
	}
	return &ir.ConstantFloat{Ty: t, Val: v}
}

func truncTo(t ir.Type, v uint64) uint64 {
	if it, ok := t.(*ir.IntType); ok && it.Width < 64 {
		return v & (1<<it.Width - 1)
	}
	return v
}
