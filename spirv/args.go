package spirv

import (
	"strings"

	"fortio.org/safecast"

	"github.com/gogpu/clspirv/ir"
)

// Argument kinds as they appear in the descriptor map.
const (
	argKindBuffer  = "buffer"
	argKindPod     = "pod"
	argKindPodUBO  = "pod_ubo"
	argKindROImage = "ro_image"
	argKindWOImage = "wo_image"
	argKindSampler = "sampler"
	argKindLocal   = "local"
)

// argResource is the plan for one descriptor-bound kernel argument: its
// classification, its (set, binding) address, and the ids of the module-
// scope variable synthesized for it.
type argResource struct {
	arg     *ir.Argument
	kernel  *ir.Function
	kind    string
	set     uint32
	binding uint32
	class   StorageClass

	varID     uint32
	podTypeID uint32 // pod args: the unwrapped value type
	podPtrID  uint32 // pod args: pointer-to-value in the variable's class
}

// localArgInfo carries the ids synthesized for one pointer-to-local
// argument: a Workgroup array sized by a specialization constant, plus a
// precomputed pointer to element zero.
type localArgInfo struct {
	arg        *ir.Argument
	specID     uint32 // SpecId decoration value from kernel_arg_map
	sizeID     uint32 // the OpSpecConstant array length
	arrayTyID  uint32
	varID      uint32
	elemPtrTy  uint32 // Workgroup pointer to the element type
	firstElem  uint32 // AccessChain to element 0, emitted at kernel entry
}

func safeU32(v uint64) (uint32, error) {
	return safecast.Conv[uint32](v)
}

// classifyArg maps a kernel argument to its descriptor-map kind.
func (p *Producer) classifyArg(a *ir.Argument) (string, error) {
	t := a.Ty
	switch {
	case ir.IsSampler(t):
		return argKindSampler, nil
	case ir.IsImage(t):
		if strings.HasSuffix(t.(*ir.StructType).Name, "_wo_t") {
			return argKindWOImage, nil
		}
		return argKindROImage, nil
	}
	if pt, ok := t.(*ir.PointerType); ok {
		switch pt.Space {
		case ir.AddrLocal:
			return argKindLocal, nil
		case ir.AddrGlobal, ir.AddrConstant:
			return argKindBuffer, nil
		default:
			return "", unsupportedf("kernel argument %%%s in address space %s", a.Nam, pt.Space)
		}
	}
	if p.opts.PodArgsInUniformBuffer {
		return argKindPodUBO, nil
	}
	return argKindPod, nil
}

// planResources classifies every kernel argument and assigns descriptor
// sets and bindings. Kernels are visited in module order and arguments in
// ordinal order, so the assignment is deterministic. Pointer-to-local
// arguments consume no binding.
func (p *Producer) planResources() error {
	// One running counter hands out descriptor sets: literal samplers
	// first, then the module-constants buffer, then the kernels.
	nextSet := uint32(0)
	if p.samplerUsed {
		p.samplerSet = nextSet
		nextSet++
	}
	if p.opts.ModuleConstantsInStorageBuffer && len(p.constantGlobals) > 0 {
		p.constantsSet = nextSet
		nextSet++
	}

	kernelOrdinal := uint32(0)
	for _, f := range p.mod.Kernels() {
		set := nextSet
		if p.opts.DistinctKernelDescriptorSets {
			set = nextSet + kernelOrdinal
		}
		binding := uint32(0)
		for _, a := range f.Args {
			kind, err := p.classifyArg(a)
			if err != nil {
				return err
			}
			res := &argResource{arg: a, kernel: f, kind: kind, set: set}
			switch kind {
			case argKindSampler, argKindROImage, argKindWOImage:
				res.class = StorageClassUniformConstant
			case argKindBuffer:
				res.class = StorageClassStorageBuffer
			case argKindPod:
				res.class = StorageClassStorageBuffer
			case argKindPodUBO:
				res.class = StorageClassUniform
			case argKindLocal:
				info := &localArgInfo{arg: a}
				if ai := f.ArgInfoFor(a.Index); ai != nil {
					info.specID = ai.SpecID
				}
				p.localArgs = append(p.localArgs, a)
				p.localArgInfo[a] = info
				continue // no binding, no descriptor
			}
			res.binding = binding
			binding++
			p.argRes[a] = res
			p.resourceOrder = append(p.resourceOrder, res)
		}
		kernelOrdinal++
	}
	return nil
}

// emitResourceVars drains the resource plan into module-scope variables
// with their binding decorations and descriptor-map records, then emits the
// Workgroup arrays for pointer-to-local arguments.
func (p *Producer) emitResourceVars() error {
	// Reuse caches keyed by the underlying type, so two kernels with an
	// argument of identical SPIR-V type at the same binding share one
	// variable (selection is by compilation ordinal, which is stable).
	type wrapKey struct {
		elem  ir.Type
		class StorageClass
	}
	rtaCache := make(map[wrapKey]rtaWrapper)
	podCache := make(map[wrapKey]uint32)
	imgPtrCache := make(map[wrapKey]uint32)
	bufPtrCache := make(map[wrapKey]uint32)
	podPtrCache := make(map[wrapKey]uint32)
	elemPtrCache := make(map[wrapKey]uint32)

	for _, res := range p.resourceOrder {
		a := res.arg
		switch res.kind {
		case argKindSampler, argKindROImage, argKindWOImage:
			imgID, err := p.lookupType(a.Ty)
			if err != nil {
				return err
			}
			key := wrapKey{a.Ty, res.class}
			ptrID, ok := imgPtrCache[key]
			if !ok {
				ptrID = p.reserveID()
				p.insts.Append(NewInst(OpTypePointer, ptrID,
					mkEnum(uint32(res.class), enumStorageClass), MkID(imgID)))
				imgPtrCache[key] = ptrID
			}
			if err := p.emitResourceVariable(res, ptrID); err != nil {
				return err
			}
			switch res.kind {
			case argKindROImage:
				p.emitDecoration(NewInstNoResult(OpDecorate, MkID(res.varID),
					mkEnum(uint32(DecorationNonWritable), enumDecoration)))
			case argKindWOImage:
				p.emitDecoration(NewInstNoResult(OpDecorate, MkID(res.varID),
					mkEnum(uint32(DecorationNonReadable), enumDecoration)))
			}

		case argKindBuffer:
			pt := a.Ty.(*ir.PointerType)
			elemID, err := p.lookupType(pt.Elem)
			if err != nil {
				return err
			}
			key := wrapKey{pt.Elem, res.class}
			wrap, ok := rtaCache[key]
			if !ok {
				stride, err := safeU32(ir.SizeOf(pt.Elem))
				if err != nil {
					return structuralf("element size of %s overflows a word", pt.Elem)
				}
				wrap.rtaID = p.reserveID()
				p.insts.Append(NewInst(OpTypeRuntimeArray, wrap.rtaID, MkID(elemID)))
				p.emitDecoration(NewInstNoResult(OpDecorate, MkID(wrap.rtaID),
					mkEnum(uint32(DecorationArrayStride), enumDecoration), MkNum(stride)))
				wrap.structID = p.reserveID()
				p.insts.Append(NewInst(OpTypeStruct, wrap.structID, MkID(wrap.rtaID)))
				p.emitDecoration(NewInstNoResult(OpDecorate, MkID(wrap.structID),
					mkEnum(uint32(DecorationBlock), enumDecoration)))
				p.emitDecoration(NewInstNoResult(OpMemberDecorate, MkID(wrap.structID),
					MkNum(0), mkEnum(uint32(DecorationOffset), enumDecoration), MkNum(0)))
				rtaCache[key] = wrap
			}
			ptrID, ok := bufPtrCache[key]
			if !ok {
				ptrID = p.reserveID()
				p.insts.Append(NewInst(OpTypePointer, ptrID,
					mkEnum(uint32(res.class), enumStorageClass), MkID(wrap.structID)))
				bufPtrCache[key] = ptrID
			}
			if err := p.emitResourceVariable(res, ptrID); err != nil {
				return err
			}

		case argKindPod, argKindPodUBO:
			podID, err := p.lookupType(a.Ty)
			if err != nil {
				return err
			}
			res.podTypeID = podID
			key := wrapKey{a.Ty, res.class}
			structID, ok := podCache[key]
			if !ok {
				structID = p.reserveID()
				p.insts.Append(NewInst(OpTypeStruct, structID, MkID(podID)))
				p.emitDecoration(NewInstNoResult(OpDecorate, MkID(structID),
					mkEnum(uint32(DecorationBlock), enumDecoration)))
				p.emitDecoration(NewInstNoResult(OpMemberDecorate, MkID(structID),
					MkNum(0), mkEnum(uint32(DecorationOffset), enumDecoration), MkNum(0)))
				podCache[key] = structID
			}
			ptrID, ok := podPtrCache[key]
			if !ok {
				ptrID = p.reserveID()
				p.insts.Append(NewInst(OpTypePointer, ptrID,
					mkEnum(uint32(res.class), enumStorageClass), MkID(structID)))
				podPtrCache[key] = ptrID
			}
			// Pointer to the unwrapped value, for the prologue AccessChain.
			elemPtrID, ok := elemPtrCache[key]
			if !ok {
				elemPtrID = p.reserveID()
				p.insts.Append(NewInst(OpTypePointer, elemPtrID,
					mkEnum(uint32(res.class), enumStorageClass), MkID(podID)))
				elemPtrCache[key] = elemPtrID
			}
			res.podPtrID = elemPtrID
			if err := p.emitResourceVariable(res, ptrID); err != nil {
				return err
			}
		}
	}

	return p.emitLocalArgVars()
}

// emitResourceVariable emits (or reuses) the module-scope variable for a
// resource and writes its descriptor-map record.
func (p *Producer) emitResourceVariable(res *argResource, ptrTypeID uint32) error {
	key := sharedVarKey{res.arg.Ty, res.set, res.binding}
	if id, ok := p.sharedVars[key]; ok {
		res.varID = id
	} else {
		res.varID = p.reserveID()
		p.insts.Append(NewInst(OpVariable, res.varID,
			MkID(ptrTypeID), mkEnum(uint32(res.class), enumStorageClass)))
		p.sharedVars[key] = res.varID
		p.emitDecoration(NewInstNoResult(OpDecorate, MkID(res.varID),
			mkEnum(uint32(DecorationDescriptorSet), enumDecoration), MkNum(res.set)))
		p.emitDecoration(NewInstNoResult(OpDecorate, MkID(res.varID),
			mkEnum(uint32(DecorationBinding), enumDecoration), MkNum(res.binding)))
	}

	name := res.arg.Nam
	if ai := res.kernel.ArgInfoFor(res.arg.Index); ai != nil {
		name = ai.Name
	}
	return p.descmap.WriteArg(res.kernel.Nam, name, res.arg.Index,
		res.set, res.binding, 0, res.kind)
}

// emitLocalArgVars synthesizes, per pointer-to-local argument, the
// specialization constant for the array length, the Workgroup array type
// and variable, and the Workgroup element pointer type used by the
// entry-block AccessChain.
func (p *Producer) emitLocalArgVars() error {
	for _, a := range p.localArgs {
		info := p.localArgInfo[a]
		pt := a.Ty.(*ir.PointerType)
		elemID, err := p.lookupType(pt.Elem)
		if err != nil {
			return err
		}
		i32ID, err := p.lookupType(p.mod.Types.Int(32))
		if err != nil {
			return err
		}

		info.sizeID = p.reserveID()
		p.insts.Append(NewInst(OpSpecConstant, info.sizeID, MkID(i32ID), MkNum(1)))
		p.emitDecoration(NewInstNoResult(OpDecorate, MkID(info.sizeID),
			mkEnum(uint32(DecorationSpecId), enumDecoration), MkNum(info.specID)))

		info.arrayTyID = p.reserveID()
		p.insts.Append(NewInst(OpTypeArray, info.arrayTyID,
			MkID(elemID), MkID(info.sizeID)))

		arrPtrID := p.reserveID()
		p.insts.Append(NewInst(OpTypePointer, arrPtrID,
			mkEnum(uint32(StorageClassWorkgroup), enumStorageClass),
			MkID(info.arrayTyID)))

		info.varID = p.reserveID()
		p.insts.Append(NewInst(OpVariable, info.varID, MkID(arrPtrID),
			mkEnum(uint32(StorageClassWorkgroup), enumStorageClass)))

		info.elemPtrTy = p.reserveID()
		p.insts.Append(NewInst(OpTypePointer, info.elemPtrTy,
			mkEnum(uint32(StorageClassWorkgroup), enumStorageClass),
			MkID(elemID)))

		name := a.Nam
		if ai := a.Fn.ArgInfoFor(a.Index); ai != nil {
			name = ai.Name
		}
		elemSize, err := safeU32(ir.SizeOf(pt.Elem))
		if err != nil {
			return structuralf("local element size of %s overflows a word", pt.Elem)
		}
		if err := p.descmap.WriteLocalArg(a.Fn.Nam, name, a.Index,
			argKindLocal, elemSize, info.specID); err != nil {
			return err
		}
	}
	return nil
}
