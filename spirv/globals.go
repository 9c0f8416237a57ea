package spirv

import (
	"github.com/gogpu/clspirv/ir"
)

// emitSamplers generates one UniformConstant sampler variable per entry of
// the sampler map, with bindings in map order, and records each in the
// descriptor map. Literal-sampler initializer calls load from these.
func (p *Producer) emitSamplers() error {
	if !p.samplerUsed {
		return nil
	}
	tyID, err := p.lookupType(p.mod.Types.Opaque("opencl.sampler_t"))
	if err != nil {
		return err
	}
	ptrID := p.reserveID()
	p.insts.Append(NewInst(OpTypePointer, ptrID,
		mkEnum(uint32(StorageClassUniformConstant), enumStorageClass), MkID(tyID)))

	binding := uint32(0)
	for _, entry := range p.opts.SamplerMap {
		id := p.reserveID()
		p.insts.Append(NewInst(OpVariable, id, MkID(ptrID),
			mkEnum(uint32(StorageClassUniformConstant), enumStorageClass)))
		p.samplerVarID[entry.Literal] = id

		p.emitDecoration(NewInstNoResult(OpDecorate, MkID(id),
			mkEnum(uint32(DecorationDescriptorSet), enumDecoration),
			MkNum(p.samplerSet)))
		p.emitDecoration(NewInstNoResult(OpDecorate, MkID(id),
			mkEnum(uint32(DecorationBinding), enumDecoration), MkNum(binding)))

		if err := p.descmap.WriteSampler(entry.Literal, entry.Expr,
			p.samplerSet, binding); err != nil {
			return err
		}
		binding++
	}
	return nil
}

// constantGlobalSlot returns the member index of a __constant global inside
// the clustered storage buffer, plus the buffer variable's id.
func (p *Producer) constantGlobalSlot(g *ir.GlobalVariable) (uint32, uint32) {
	for i, cg := range p.constantGlobals {
		if cg == g {
			return uint32(i), p.constantBufferVarID
		}
	}
	return 0, p.constantBufferVarID
}

// emitModuleConstantData emits module-scope globals. In the default mode
// the rewritten __constant globals become initialized Private variables; in
// storage-buffer mode they cluster into one Block-decorated struct bound at
// binding 0 of their own descriptor set, and the initializer bytes go out
// through the descriptor map.
func (p *Producer) emitModuleConstantData() error {
	if p.opts.ModuleConstantsInStorageBuffer && len(p.constantGlobals) > 0 {
		if err := p.emitConstantBuffer(); err != nil {
			return err
		}
	}
	for _, g := range p.mod.Globals {
		if g.BuiltinWorkgroupSize {
			continue
		}
		if p.opts.ModuleConstantsInStorageBuffer && g.Space == ir.AddrConstant {
			continue // lives in the clustered buffer
		}
		ptrID, err := p.lookupType(g.Type())
		if err != nil {
			return err
		}
		ops := []Operand{MkID(ptrID),
			mkEnum(uint32(storageClassFor(g.Space)), enumStorageClass)}
		if g.Init != nil {
			initID, err := p.lookupConstant(g.Init)
			if err != nil {
				return err
			}
			ops = append(ops, MkID(initID))
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpVariable, id, ops...))
		p.valueMap[g] = id
	}
	return nil
}

func (p *Producer) emitConstantBuffer() error {
	memberOps := make([]Operand, 0, len(p.constantGlobals))
	var data []byte
	var offset uint64
	offsets := make([]uint64, len(p.constantGlobals))
	for i, g := range p.constantGlobals {
		tyID, err := p.lookupType(g.ValueType)
		if err != nil {
			return err
		}
		memberOps = append(memberOps, MkID(tyID))
		offsets[i] = offset
		offset += ir.SizeOf(g.ValueType)
		if g.Init != nil {
			data = append(data, constBytes(g.Init)...)
		} else {
			data = append(data, make([]byte, ir.SizeOf(g.ValueType))...)
		}
	}

	structID := p.reserveID()
	p.insts.Append(NewInst(OpTypeStruct, structID, memberOps...))
	p.emitDecoration(NewInstNoResult(OpDecorate, MkID(structID),
		mkEnum(uint32(DecorationBlock), enumDecoration)))
	for i := range p.constantGlobals {
		off, err := safeU32(offsets[i])
		if err != nil {
			return structuralf("__constant offset overflows a word")
		}
		p.emitDecoration(NewInstNoResult(OpMemberDecorate, MkID(structID),
			MkNum(uint32(i)), mkEnum(uint32(DecorationOffset), enumDecoration),
			MkNum(off)))
	}

	ptrID := p.reserveID()
	p.insts.Append(NewInst(OpTypePointer, ptrID,
		mkEnum(uint32(StorageClassStorageBuffer), enumStorageClass),
		MkID(structID)))

	p.constantBufferVarID = p.reserveID()
	p.insts.Append(NewInst(OpVariable, p.constantBufferVarID, MkID(ptrID),
		mkEnum(uint32(StorageClassStorageBuffer), enumStorageClass)))
	p.emitDecoration(NewInstNoResult(OpDecorate, MkID(p.constantBufferVarID),
		mkEnum(uint32(DecorationDescriptorSet), enumDecoration),
		MkNum(p.constantsSet)))
	p.emitDecoration(NewInstNoResult(OpDecorate, MkID(p.constantBufferVarID),
		mkEnum(uint32(DecorationBinding), enumDecoration), MkNum(0)))

	return p.descmap.WriteConstant(p.constantsSet, data)
}

// emitWorkgroupSizeVar synthesizes the workgroup-size constant and its
// Private variable when the builtin is referenced. A fixed
// reqd_work_group_size produces a plain constant composite; otherwise three
// default-1 spec constants with SpecIds 0, 1, 2 compose the value. The
// value itself carries the WorkgroupSize builtin decoration.
func (p *Producer) emitWorkgroupSizeVar() error {
	g := p.workgroupSizeGlobal()
	if g == nil || !p.wgSizeReferenced {
		return nil
	}
	c := p.mod.Types
	v3ID, err := p.lookupType(c.Vector(c.Int(32), 3))
	if err != nil {
		return err
	}
	i32ID, err := p.lookupType(c.Int(32))
	if err != nil {
		return err
	}

	var valueID uint32
	if p.builtinDims != nil {
		ops := []Operand{MkID(v3ID)}
		for _, d := range p.builtinDims {
			cid, err := p.lookupConstant(&ir.ConstantInt{Ty: c.Int(32), Val: uint64(d)})
			if err != nil {
				return err
			}
			ops = append(ops, MkID(cid))
		}
		valueID = p.reserveID()
		p.insts.Append(NewInst(OpConstantComposite, valueID, ops...))
	} else {
		ops := []Operand{MkID(v3ID)}
		for specID := uint32(0); specID < 3; specID++ {
			dim := p.reserveID()
			p.insts.Append(NewInst(OpSpecConstant, dim, MkID(i32ID), MkNum(1)))
			p.emitDecoration(NewInstNoResult(OpDecorate, MkID(dim),
				mkEnum(uint32(DecorationSpecId), enumDecoration), MkNum(specID)))
			ops = append(ops, MkID(dim))
		}
		valueID = p.reserveID()
		p.insts.Append(NewInst(OpSpecConstantComposite, valueID, ops...))
	}
	p.emitDecoration(NewInstNoResult(OpDecorate, MkID(valueID),
		mkEnum(uint32(DecorationBuiltIn), enumDecoration),
		mkEnum(uint32(BuiltInWorkgroupSize), enumBuiltIn)))

	ptrID := p.reserveID()
	p.insts.Append(NewInst(OpTypePointer, ptrID,
		mkEnum(uint32(StorageClassPrivate), enumStorageClass), MkID(v3ID)))
	varID := p.reserveID()
	p.insts.Append(NewInst(OpVariable, varID, MkID(ptrID),
		mkEnum(uint32(StorageClassPrivate), enumStorageClass), MkID(valueID)))

	p.workgroupSizeValueID = valueID
	p.workgroupSizeVarID = varID
	p.valueMap[g] = varID
	return nil
}
