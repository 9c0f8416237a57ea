package spirv

import (
	"github.com/gogpu/clspirv/ir"
)

// storageClassFor maps an OpenCL address space to its Vulkan storage class.
// The global and constant spaces conflate into StorageBuffer.
func storageClassFor(space ir.AddressSpace) StorageClass {
	switch space {
	case ir.AddrGlobal, ir.AddrConstant:
		return StorageClassStorageBuffer
	case ir.AddrLocal:
		return StorageClassWorkgroup
	case ir.AddrModuleScopePrivate:
		return StorageClassPrivate
	default:
		return StorageClassFunction
	}
}

// emitTypes drains the discovery worklist in order, then emits one
// OpTypeSampledImage per distinct image type used in a read call.
func (p *Producer) emitTypes() error {
	for _, t := range p.types {
		if _, done := p.typeMap[t]; done {
			continue
		}
		if err := p.emitType(t); err != nil {
			return err
		}
	}
	for _, imgTy := range p.sampledImages {
		imgID, err := p.lookupType(imgTy)
		if err != nil {
			return err
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeSampledImage, id, MkID(imgID)))
		p.imageTypeMap[imgTy] = id
	}
	return nil
}

//nolint:gocyclo // one arm per type kind
func (p *Producer) emitType(t ir.Type) error {
	c := p.mod.Types

	switch ty := t.(type) {
	case *ir.VoidType:
		p.typeMap[t] = p.reserveID()
		p.insts.Append(NewInst(OpTypeVoid, p.typeMap[t]))

	case *ir.BoolType:
		p.typeMap[t] = p.reserveID()
		p.insts.Append(NewInst(OpTypeBool, p.typeMap[t]))

	case *ir.IntType:
		// i8 emits as a 32-bit integer; whichever of (i8, i32) is emitted
		// second aliases to the first.
		width := ty.Width
		var other ir.Type
		switch width {
		case 8:
			other = c.Int(32)
			width = 32
		case 32:
			other = c.Int(8)
		}
		if other != nil {
			if id, ok := p.typeMap[other]; ok {
				p.typeMap[t] = id
				return nil
			}
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeInt, id, MkNum(width), MkNum(0)))
		p.typeMap[t] = id
		if other != nil {
			p.typeMap[other] = id
		}

	case *ir.FloatType:
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeFloat, id, MkNum(ty.Width)))
		p.typeMap[t] = id

	case *ir.VectorType:
		if isV4I8(t) {
			// <4 x i8> shares the i32 id; no separate vector type exists.
			id, err := p.lookupType(c.Int(32))
			if err != nil {
				return err
			}
			p.typeMap[t] = id
			return nil
		}
		if it, ok := ty.Elem.(*ir.IntType); ok && it.Width == 8 && ty.Len > 4 {
			return unsupportedf("i8 vector of %d elements", ty.Len)
		}
		elemID, err := p.lookupType(ty.Elem)
		if err != nil {
			return err
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeVector, id, MkID(elemID), MkNum(ty.Len)))
		p.typeMap[t] = id

	case *ir.ArrayType:
		elemID, err := p.lookupType(ty.Elem)
		if err != nil {
			return err
		}
		// The length constant is emitted ahead of the array type when the
		// constant region has not produced it yet.
		lenConst := &ir.ConstantInt{Ty: c.Int(32), Val: ty.Len}
		lenID, ok := p.constMap[p.constKey(lenConst)]
		if !ok {
			lenID, err = p.emitConstant(lenConst)
			if err != nil {
				return err
			}
			p.constMap[p.constKey(lenConst)] = lenID
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeArray, id, MkID(elemID), MkID(lenID)))
		p.typeMap[t] = id
		p.markNeedsStride(t)

	case *ir.PointerType:
		// Constant and global pointers collapse onto one id, first-emitted
		// wins.
		if ty.Space == ir.AddrGlobal || ty.Space == ir.AddrConstant {
			otherSpace := ir.AddrGlobal
			if ty.Space == ir.AddrGlobal {
				otherSpace = ir.AddrConstant
			}
			if id, ok := p.typeMap[c.Pointer(otherSpace, ty.Elem)]; ok {
				p.typeMap[t] = id
				return nil
			}
		}
		elemID, err := p.lookupType(ty.Elem)
		if err != nil {
			return err
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypePointer, id,
			mkEnum(uint32(storageClassFor(ty.Space)), enumStorageClass),
			MkID(elemID)))
		p.typeMap[t] = id

	case *ir.StructType:
		if ty.Opaque {
			return p.emitOpaqueType(ty)
		}
		memberIDs := make([]Operand, 0, len(ty.Fields))
		for _, f := range ty.Fields {
			fid, err := p.lookupType(f)
			if err != nil {
				return err
			}
			memberIDs = append(memberIDs, MkID(fid))
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeStruct, id, memberIDs...))
		p.typeMap[t] = id

	case *ir.FunctionType:
		retID, err := p.lookupType(ty.Result)
		if err != nil {
			return err
		}
		ops := []Operand{MkID(retID)}
		for _, pt := range ty.Params {
			pid, err := p.lookupType(pt)
			if err != nil {
				return err
			}
			ops = append(ops, MkID(pid))
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeFunction, id, ops...))
		p.typeMap[t] = id

	default:
		return unsupportedf("type %s", t)
	}
	return nil
}

// emitOpaqueType lowers the named OpenCL sampler and image struct types.
func (p *Producer) emitOpaqueType(ty *ir.StructType) error {
	if ty.Name == "opencl.sampler_t" {
		id := p.reserveID()
		p.insts.Append(NewInst(OpTypeSampler, id))
		p.typeMap[ty] = id
		return nil
	}
	if !ir.IsImage(ty) {
		return unsupportedf("opaque struct type %%%s", ty.Name)
	}

	floatID, err := p.lookupType(p.mod.Types.Float(32))
	if err != nil {
		return err
	}
	dim := Dim2D
	if ty.Name == "opencl.image3d_ro_t" || ty.Name == "opencl.image3d_wo_t" {
		dim = Dim3D
	}
	// Sampled=1 for read-only (used with a sampler), 2 for write-only
	// (storage image).
	sampled := uint32(1)
	if isWriteOnlyImage(ty) {
		sampled = 2
	}
	id := p.reserveID()
	p.insts.Append(NewInst(OpTypeImage, id,
		MkID(floatID),
		mkEnum(uint32(dim), enumDim),
		MkNum(0), // depth
		MkNum(0), // arrayed
		MkNum(0), // multisampled
		MkNum(sampled),
		mkEnum(ImageFormatUnknown, enumImageFormat)))
	p.typeMap[ty] = id
	return nil
}

// markNeedsStride records a type for the ArrayStride decoration pass.
func (p *Producer) markNeedsStride(t ir.Type) {
	if p.strideSeen[t] {
		return
	}
	p.strideSeen[t] = true
	p.strideTypes = append(p.strideTypes, t)
}
