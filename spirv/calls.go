package spirv

import (
	"strings"

	"github.com/gogpu/clspirv/ir"
)

// emitCall lowers a call instruction. Recognized builtin families lower to
// dedicated instruction sequences inline; extended instructions, popcount,
// composite construction, and calls to defined functions are deferred
// because they reference ids that may not exist yet.
//
//nolint:gocyclo // one arm per builtin family
func (p *Producer) emitCall(inst *ir.Instruction) error {
	name := inst.Callee.Nam

	switch {
	case name == "__translate_sampler_initializer":
		return p.emitSamplerInit(inst)

	case isReadImageBuiltin(name):
		return p.emitReadImage(inst)

	case isWriteImageBuiltin(name):
		return p.emitWriteImage(inst)

	case isImageQueryBuiltin(name):
		return p.emitImageQuery(inst)

	case name == "dot":
		tyID, err := p.lookupType(inst.Ty)
		if err != nil {
			return err
		}
		ops, err := p.operandIDs(inst.Operands)
		if err != nil {
			return err
		}
		op := OpFMul
		if _, isVec := inst.Operands[0].Type().(*ir.VectorType); isVec {
			op = OpDot
		}
		p.valueMap[inst] = p.appendResult(op, tyID, ops...)
		return nil

	case name == "fmod":
		// OpenCL fmod truncates toward zero, which is OpFRem.
		tyID, err := p.lookupType(inst.Ty)
		if err != nil {
			return err
		}
		ops, err := p.operandIDs(inst.Operands)
		if err != nil {
			return err
		}
		p.valueMap[inst] = p.appendResult(OpFRem, tyID, ops...)
		return nil

	case isBarrierBuiltin(name):
		ops, err := p.operandIDs(inst.Operands)
		if err != nil {
			return err
		}
		p.insts.Append(NewInstNoResult(OpControlBarrier, ops...))
		return nil

	case isMemFenceBuiltin(name):
		ops, err := p.operandIDs(inst.Operands)
		if err != nil {
			return err
		}
		p.insts.Append(NewInstNoResult(OpMemoryBarrier, ops...))
		return nil

	case name == "isinf", name == "isnan", name == "any", name == "all":
		tyID, err := p.lookupType(inst.Ty)
		if err != nil {
			return err
		}
		ops, err := p.operandIDs(inst.Operands)
		if err != nil {
			return err
		}
		var op Opcode
		switch name {
		case "isinf":
			op = OpIsInf
		case "isnan":
			op = OpIsNan
		case "any":
			op = OpAny
		default:
			op = OpAll
		}
		p.valueMap[inst] = p.appendResult(op, tyID, ops...)
		return nil
	}

	// Everything else is deferred: extended instructions (a *pi or clz
	// variant reserves one extra id for the follow-up op), popcount,
	// composite construction, and plain function calls.
	resultID := p.reserveID()
	p.valueMap[inst] = resultID
	if indirectExtInstFor(name) != GLSLExtInstBad {
		extra := p.reserveID()
		p.valueMap[inst] = extra
	}
	if extInstFor(inst) == GLSLExtInstBad &&
		indirectExtInstFor(name) == GLSLExtInstBad &&
		name != "popcount" &&
		!strings.HasPrefix(name, compositeConstructPrefix) &&
		inst.Callee.IsDecl {
		return unsupportedf("call to undefined function @%s (missing builtin?)", name)
	}
	p.deferInst(inst, resultID)
	return nil
}

// emitSamplerInit rewrites a literal-sampler initializer into a load of the
// module-scope sampler variable for that literal.
func (p *Producer) emitSamplerInit(inst *ir.Instruction) error {
	lit, ok := inst.Operands[0].(*ir.ConstantInt)
	if !ok {
		return structuralf("sampler initializer with non-constant literal: %s", inst)
	}
	varID, ok := p.samplerVarID[uint32(lit.Val)]
	if !ok {
		return missingf("sampler literal %d not found in sampler map", lit.Val)
	}
	tyID, err := p.lookupType(p.mod.Types.Opaque("opencl.sampler_t"))
	if err != nil {
		return err
	}
	p.valueMap[inst] = p.appendResult(OpLoad, tyID, MkID(varID))
	return nil
}

// emitReadImage lowers read_imagef to OpSampledImage followed by
// OpImageSampleExplicitLod with an explicit zero LOD.
func (p *Producer) emitReadImage(inst *ir.Instruction) error {
	img, smp, coord := inst.Operands[0], inst.Operands[1], inst.Operands[2]

	sampledTyID, ok := p.imageTypeMap[img.Type()]
	if !ok {
		return unknownf("image type %s has no sampled-image type", img.Type())
	}
	imgID, err := p.lookupValue(img)
	if err != nil {
		return err
	}
	smpID, err := p.lookupValue(smp)
	if err != nil {
		return err
	}
	coordID, err := p.lookupValue(coord)
	if err != nil {
		return err
	}
	sampled := p.appendResult(OpSampledImage, sampledTyID, MkID(imgID), MkID(smpID))

	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	lodID, err := p.lookupConstant(&ir.ConstantFloat{Ty: p.mod.Types.Float(32), Val: 0})
	if err != nil {
		return err
	}
	// Image operands: Lod mask (0x2) with the zero constant.
	p.valueMap[inst] = p.appendResult(OpImageSampleExplicitLod, tyID,
		MkID(sampled), MkID(coordID), MkNum(0x2), MkID(lodID))
	return nil
}

func (p *Producer) emitWriteImage(inst *ir.Instruction) error {
	ops, err := p.operandIDs(inst.Operands)
	if err != nil {
		return err
	}
	// Operands arrive as (image, coord, texel).
	p.insts.Append(NewInstNoResult(OpImageWrite, ops...))
	return nil
}

// emitImageQuery lowers get_image_width and get_image_height to a size
// query plus a component extract.
func (p *Producer) emitImageQuery(inst *ir.Instruction) error {
	c := p.mod.Types
	v2i32ID, err := p.lookupType(c.Vector(c.Int(32), 2))
	if err != nil {
		return err
	}
	imgID, err := p.lookupValue(inst.Operands[0])
	if err != nil {
		return err
	}
	sizes := p.appendResult(OpImageQuerySize, v2i32ID, MkID(imgID))

	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	component := uint32(0)
	if strings.Contains(inst.Callee.Nam, "height") {
		component = 1
	}
	p.valueMap[inst] = p.appendResult(OpCompositeExtract, tyID,
		MkID(sizes), MkNum(component))
	return nil
}
