package spirv

import (
	"github.com/gogpu/clspirv/ir"
)

// appendResult appends an instruction producing a value and returns the
// fresh result id. The result type id is always the first operand word.
func (p *Producer) appendResult(op Opcode, tyID uint32, ops ...Operand) uint32 {
	id := p.reserveID()
	all := make([]Operand, 0, len(ops)+1)
	all = append(all, MkID(tyID))
	all = append(all, ops...)
	p.insts.Append(NewInst(op, id, all...))
	return id
}

// emitFunction lowers one defined function: OpFunction, parameters (none
// for kernels), then every basic block. Stack allocations come first in the
// entry block, then the kernel argument prologue, then the rest of the
// body. Branches, phis, and calls that need ids not yet assigned are
// deferred.
func (p *Producer) emitFunction(f *ir.Function) error {
	c := p.mod.Types

	var fnTy *ir.FunctionType
	retTy := f.Sig.Result
	if f.IsKernel {
		retTy = c.Void()
		fnTy = c.Function(c.Void())
	} else {
		params := make([]ir.Type, len(f.Args))
		for i, a := range f.Args {
			params[i] = a.Ty
		}
		fnTy = c.Function(f.Sig.Result, params...)
	}
	retID, err := p.lookupType(retTy)
	if err != nil {
		return err
	}
	fnTyID, err := p.lookupType(fnTy)
	if err != nil {
		return err
	}

	fnID := p.reserveID()
	p.valueMap[f] = fnID
	p.insts.Append(NewInst(OpFunction, fnID, MkID(retID),
		mkEnum(uint32(FunctionControlNone), enumFunctionControl), MkID(fnTyID)))

	if f.IsKernel {
		p.entryPoints = append(p.entryPoints, entryPoint{name: f.Nam, funcID: fnID, fn: f})
	} else {
		for _, a := range f.Args {
			argTyID, err := p.lookupType(a.Ty)
			if err != nil {
				return err
			}
			id := p.reserveID()
			p.insts.Append(NewInst(OpFunctionParameter, id, MkID(argTyID)))
			p.valueMap[a] = id
		}
	}

	for bi, b := range f.Blocks {
		labelID := p.reserveID()
		p.blockIDs[b] = labelID
		p.insts.Append(NewInst(OpLabel, labelID))

		if bi == 0 {
			// All stack allocations precede any other body instruction.
			for _, bb := range f.Blocks {
				for _, inst := range bb.Instrs {
					if inst.Op == ir.OpAlloca {
						if err := p.emitAlloca(inst); err != nil {
							return err
						}
					}
				}
			}
			if f.IsKernel {
				if err := p.emitKernelPrologue(f); err != nil {
					return err
				}
			}
		}

		for _, inst := range b.Instrs {
			if inst.Op == ir.OpAlloca {
				continue
			}
			if err := p.emitInstruction(inst); err != nil {
				return err
			}
		}
	}

	p.insts.Append(NewInstNoResult(OpFunctionEnd))
	return nil
}

func (p *Producer) emitAlloca(inst *ir.Instruction) error {
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	id := p.reserveID()
	p.insts.Append(NewInst(OpVariable, id, MkID(tyID),
		mkEnum(uint32(StorageClassFunction), enumStorageClass)))
	p.valueMap[inst] = id
	return nil
}

// emitKernelPrologue binds each used kernel argument to its resource:
// samplers and images load from their UniformConstant variables, POD
// arguments chain into their wrapper struct and load, pointer-to-local
// arguments chain to element zero of their Workgroup array. A buffer
// argument used only as a chain base keeps the module-scope variable id;
// any other use gets a single element-zero chain emitted here. Arguments
// with no uses produce nothing.
func (p *Producer) emitKernelPrologue(f *ir.Function) error {
	i32Zero := func() (uint32, error) {
		return p.lookupConstant(&ir.ConstantInt{Ty: p.mod.Types.Int(32), Val: 0})
	}

	if p.opts.HackInitializers && p.workgroupSizeVarID != 0 {
		p.insts.Append(NewInstNoResult(OpStore,
			MkID(p.workgroupSizeVarID), MkID(p.workgroupSizeValueID)))
	}

	used := make(map[ir.Value]bool)
	onlyChainBase := make(map[ir.Value]bool)
	for _, a := range f.Args {
		onlyChainBase[a] = true
	}
	for _, b := range f.Blocks {
		for _, inst := range b.Instrs {
			for i, op := range inst.Operands {
				arg, ok := op.(*ir.Argument)
				if !ok || arg.Fn != f {
					continue
				}
				used[arg] = true
				if inst.Op != ir.OpGetElementPtr || i != 0 {
					onlyChainBase[arg] = false
				}
			}
		}
	}

	for _, a := range f.Args {
		if !used[a] {
			continue
		}
		if info, ok := p.localArgInfo[a]; ok {
			zeroID, err := i32Zero()
			if err != nil {
				return err
			}
			acID := p.appendResult(OpAccessChain, info.elemPtrTy,
				MkID(info.varID), MkID(zeroID))
			info.firstElem = acID
			p.valueMap[a] = acID
			continue
		}
		res := p.argRes[a]
		if res == nil {
			return unknownf("kernel argument %%%s has no resource", a.Nam)
		}
		switch res.kind {
		case argKindSampler, argKindROImage, argKindWOImage:
			tyID, err := p.lookupType(a.Ty)
			if err != nil {
				return err
			}
			p.valueMap[a] = p.appendResult(OpLoad, tyID, MkID(res.varID))
		case argKindPod, argKindPodUBO:
			zeroID, err := i32Zero()
			if err != nil {
				return err
			}
			acID := p.appendResult(OpAccessChain, res.podPtrID,
				MkID(res.varID), MkID(zeroID))
			p.valueMap[a] = p.appendResult(OpLoad, res.podTypeID, MkID(acID))
		default: // buffer
			if onlyChainBase[a] {
				p.valueMap[a] = res.varID
				break
			}
			zeroID, err := i32Zero()
			if err != nil {
				return err
			}
			ptrTyID, err := p.lookupType(a.Ty)
			if err != nil {
				return err
			}
			p.valueMap[a] = p.appendResult(OpAccessChain, ptrTyID,
				MkID(res.varID), MkID(zeroID), MkID(zeroID))
		}
	}
	return nil
}

// defer-style helpers

func (p *Producer) deferInst(inst *ir.Instruction, result uint32) {
	p.deferred = append(p.deferred, deferredInst{
		inst: inst, index: p.insts.Len(), result: result,
	})
}

var binaryOpcodes = map[ir.Opcode]Opcode{
	ir.OpAdd: OpIAdd, ir.OpSub: OpISub, ir.OpMul: OpIMul,
	ir.OpUDiv: OpUDiv, ir.OpSDiv: OpSDiv,
	ir.OpURem: OpUMod, ir.OpSRem: OpSRem,
	ir.OpFAdd: OpFAdd, ir.OpFSub: OpFSub, ir.OpFMul: OpFMul,
	ir.OpFDiv: OpFDiv, ir.OpFRem: OpFRem,
	ir.OpShl: OpShiftLeftLogical, ir.OpLShr: OpShiftRightLogical,
	ir.OpAShr: OpShiftRightArithmetic,
	ir.OpAnd: OpBitwiseAnd, ir.OpOr: OpBitwiseOr, ir.OpXor: OpBitwiseXor,
}

var intPredOpcodes = map[ir.Predicate]Opcode{
	ir.IntEQ: OpIEqual, ir.IntNE: OpINotEqual,
	ir.IntUGT: OpUGreaterThan, ir.IntUGE: OpUGreaterThanEqual,
	ir.IntULT: OpULessThan, ir.IntULE: OpULessThanEqual,
	ir.IntSGT: OpSGreaterThan, ir.IntSGE: OpSGreaterThanEqual,
	ir.IntSLT: OpSLessThan, ir.IntSLE: OpSLessThanEqual,
}

var floatPredOpcodes = map[ir.Predicate]Opcode{
	ir.FloatOEQ: OpFOrdEqual, ir.FloatOGT: OpFOrdGreaterThan,
	ir.FloatOGE: OpFOrdGreaterThanEqual, ir.FloatOLT: OpFOrdLessThan,
	ir.FloatOLE: OpFOrdLessThanEqual, ir.FloatONE: OpFOrdNotEqual,
	ir.FloatORD: OpOrdered, ir.FloatUNO: OpUnordered,
	ir.FloatUEQ: OpFUnordEqual, ir.FloatUGT: OpFUnordGreaterThan,
	ir.FloatUGE: OpFUnordGreaterThanEqual, ir.FloatULT: OpFUnordLessThan,
	ir.FloatULE: OpFUnordLessThanEqual, ir.FloatUNE: OpFUnordNotEqual,
}

var castOpcodes = map[ir.Opcode]Opcode{
	ir.OpTrunc: OpUConvert, ir.OpZExt: OpUConvert, ir.OpSExt: OpSConvert,
	ir.OpFPTrunc: OpFConvert, ir.OpFPExt: OpFConvert,
	ir.OpFPToUI: OpConvertFToU, ir.OpFPToSI: OpConvertFToS,
	ir.OpUIToFP: OpConvertUToF, ir.OpSIToFP: OpConvertSToF,
	ir.OpBitcast: OpBitcast,
}

//nolint:gocyclo // the opcode dispatch is one arm per IR instruction kind
func (p *Producer) emitInstruction(inst *ir.Instruction) error {
	switch inst.Op {
	case ir.OpTrunc, ir.OpZExt, ir.OpSExt, ir.OpFPTrunc, ir.OpFPExt,
		ir.OpFPToUI, ir.OpFPToSI, ir.OpUIToFP, ir.OpSIToFP, ir.OpBitcast:
		return p.emitCast(inst)

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpUDiv, ir.OpSDiv, ir.OpURem,
		ir.OpSRem, ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv, ir.OpFRem,
		ir.OpShl, ir.OpLShr, ir.OpAShr, ir.OpAnd, ir.OpOr, ir.OpXor:
		return p.emitBinary(inst)

	case ir.OpICmp, ir.OpFCmp:
		return p.emitCompare(inst)

	case ir.OpGetElementPtr:
		return p.emitGEP(inst)

	case ir.OpLoad:
		return p.emitLoad(inst)

	case ir.OpStore:
		return p.emitStore(inst)

	case ir.OpExtractElement:
		return p.emitExtractElement(inst)

	case ir.OpInsertElement:
		return p.emitInsertElement(inst)

	case ir.OpShuffleVector:
		return p.emitShuffle(inst)

	case ir.OpExtractValue:
		return p.emitExtractValue(inst)

	case ir.OpInsertValue:
		return p.emitInsertValue(inst)

	case ir.OpSelect:
		tyID, err := p.lookupType(inst.Ty)
		if err != nil {
			return err
		}
		ops, err := p.operandIDs(inst.Operands)
		if err != nil {
			return err
		}
		p.valueMap[inst] = p.appendResult(OpSelect, tyID, ops...)
		return nil

	case ir.OpPhi:
		id := p.reserveID()
		p.valueMap[inst] = id
		p.deferInst(inst, id)
		return nil

	case ir.OpBr, ir.OpCondBr:
		p.deferInst(inst, 0)
		return nil

	case ir.OpRet:
		if len(inst.Operands) == 0 {
			p.insts.Append(NewInstNoResult(OpReturn))
			return nil
		}
		id, err := p.lookupValue(inst.Operands[0])
		if err != nil {
			return err
		}
		p.insts.Append(NewInstNoResult(OpReturnValue, MkID(id)))
		return nil

	case ir.OpAtomicRMW:
		return p.emitAtomic(inst)

	case ir.OpCall:
		return p.emitCall(inst)

	case ir.OpSwitch, ir.OpIndirectBr, ir.OpCmpXchg, ir.OpFence:
		return unsupportedf("%s instruction: %s", inst.Op, inst)
	}
	return unsupportedf("opcode %s: %s", inst.Op, inst)
}

func (p *Producer) operandIDs(vals []ir.Value) ([]Operand, error) {
	ops := make([]Operand, 0, len(vals))
	for _, v := range vals {
		id, err := p.lookupValue(v)
		if err != nil {
			return nil, err
		}
		ops = append(ops, MkID(id))
	}
	return ops, nil
}

// emitCast lowers a conversion. Predicate-widening casts from i1 become
// OpSelect against the constants registered during discovery; truncation to
// i8 becomes a mask against 0xFF because i8 aliases i32; a cast whose
// source and destination collapse onto the same SPIR-V type aliases its
// operand.
func (p *Producer) emitCast(inst *ir.Instruction) error {
	src := inst.Operands[0]
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}

	if (inst.Op == ir.OpZExt || inst.Op == ir.OpSExt || inst.Op == ir.OpUIToFP) &&
		isBoolOrBoolVector(src.Type()) {
		one, zero := p.widenConstants(inst)
		condID, err := p.lookupValue(src)
		if err != nil {
			return err
		}
		oneID, err := p.lookupConstant(one)
		if err != nil {
			return err
		}
		zeroID, err := p.lookupConstant(zero)
		if err != nil {
			return err
		}
		p.valueMap[inst] = p.appendResult(OpSelect, tyID,
			MkID(condID), MkID(oneID), MkID(zeroID))
		return nil
	}

	srcID, err := p.lookupValue(src)
	if err != nil {
		return err
	}

	if inst.Op == ir.OpTrunc {
		if it, ok := inst.Ty.(*ir.IntType); ok && it.Width == 8 {
			ffID, err := p.lookupConstant(&ir.ConstantInt{Ty: p.mod.Types.Int(32), Val: 0xFF})
			if err != nil {
				return err
			}
			p.valueMap[inst] = p.appendResult(OpBitwiseAnd, tyID,
				MkID(srcID), MkID(ffID))
			return nil
		}
	}

	srcTyID, err := p.lookupType(src.Type())
	if err != nil {
		return err
	}
	if srcTyID == tyID {
		// i8 and i32 (and <4 x i8>) share one type; the conversion is the
		// identity.
		p.valueMap[inst] = srcID
		return nil
	}
	p.valueMap[inst] = p.appendResult(castOpcodes[inst.Op], tyID, MkID(srcID))
	return nil
}

// emitBinary lowers arithmetic, logic, and shifts. With i1 operands the
// bitwise operators become logical ones, and xor against a constant becomes
// OpLogicalNot.
func (p *Producer) emitBinary(inst *ir.Instruction) error {
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	a, b := inst.Operands[0], inst.Operands[1]

	if isBoolOrBoolVector(inst.Ty) {
		switch inst.Op {
		case ir.OpAnd:
			ops, err := p.operandIDs(inst.Operands)
			if err != nil {
				return err
			}
			p.valueMap[inst] = p.appendResult(OpLogicalAnd, tyID, ops...)
			return nil
		case ir.OpOr:
			ops, err := p.operandIDs(inst.Operands)
			if err != nil {
				return err
			}
			p.valueMap[inst] = p.appendResult(OpLogicalOr, tyID, ops...)
			return nil
		case ir.OpXor:
			_, aConst := a.(ir.Constant)
			_, bConst := b.(ir.Constant)
			if aConst || bConst {
				other := a
				if aConst {
					other = b
				}
				id, err := p.lookupValue(other)
				if err != nil {
					return err
				}
				p.valueMap[inst] = p.appendResult(OpLogicalNot, tyID, MkID(id))
				return nil
			}
			ops, err := p.operandIDs(inst.Operands)
			if err != nil {
				return err
			}
			p.valueMap[inst] = p.appendResult(OpLogicalNotEqual, tyID, ops...)
			return nil
		}
	}

	ops, err := p.operandIDs(inst.Operands)
	if err != nil {
		return err
	}
	p.valueMap[inst] = p.appendResult(binaryOpcodes[inst.Op], tyID, ops...)
	return nil
}

func (p *Producer) emitCompare(inst *ir.Instruction) error {
	a := inst.Operands[0]
	if _, isPtr := a.Type().(*ir.PointerType); isPtr {
		return unsupportedf("pointer equality: %s", inst)
	}
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	ops, err := p.operandIDs(inst.Operands)
	if err != nil {
		return err
	}

	var op Opcode
	if inst.Op == ir.OpICmp {
		if isBoolOrBoolVector(a.Type()) {
			switch inst.Pred {
			case ir.IntEQ:
				op = OpLogicalEqual
			case ir.IntNE:
				op = OpLogicalNotEqual
			default:
				return unsupportedf("ordered comparison of i1: %s", inst)
			}
		} else {
			op = intPredOpcodes[inst.Pred]
		}
	} else {
		op = floatPredOpcodes[inst.Pred]
	}
	if op == OpNop || op == 0 {
		return unsupportedf("comparison predicate %s", inst.Pred)
	}
	p.valueMap[inst] = p.appendResult(op, tyID, ops...)
	return nil
}

// emitGEP lowers getelementptr to OpAccessChain or OpPtrAccessChain. A base
// that is a kernel-argument buffer gets a prepended zero index to step
// through the wrapping struct; a non-zero or non-constant first index on an
// ordinary base produces OpPtrAccessChain, enables variable pointers, and
// marks the result type for ArrayStride.
func (p *Producer) emitGEP(inst *ir.Instruction) error {
	base := inst.Operands[0]
	indices := inst.Operands[1:]
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	zero := &ir.ConstantInt{Ty: p.mod.Types.Int(32), Val: 0}

	// Kernel-argument buffer base: step through the wrapper struct.
	if arg, ok := base.(*ir.Argument); ok {
		if res := p.argRes[arg]; res != nil && res.kind == argKindBuffer {
			zeroID, err := p.lookupConstant(zero)
			if err != nil {
				return err
			}
			ops := []Operand{MkID(res.varID), MkID(zeroID)}
			idxOps, err := p.operandIDs(indices)
			if err != nil {
				return err
			}
			ops = append(ops, idxOps...)
			p.valueMap[inst] = p.appendResult(OpAccessChain, tyID, ops...)
			return nil
		}
		if info := p.localArgInfo[arg]; info != nil {
			// The argument aliases the element-0 pointer.
			return p.emitPlainGEP(inst, info.firstElem, indices, tyID)
		}
	}

	// A __constant global bound as a storage buffer chains through the
	// wrapping struct member.
	if g, ok := base.(*ir.GlobalVariable); ok && p.opts.ModuleConstantsInStorageBuffer &&
		g.Space == ir.AddrConstant {
		member, varID := p.constantGlobalSlot(g)
		memberID, err := p.lookupConstant(&ir.ConstantInt{Ty: p.mod.Types.Int(32), Val: uint64(member)})
		if err != nil {
			return err
		}
		ops := []Operand{MkID(varID), MkID(memberID)}
		idxOps, err := p.operandIDs(indices[1:])
		if err != nil {
			return err
		}
		ops = append(ops, idxOps...)
		p.valueMap[inst] = p.appendResult(OpAccessChain, tyID, ops...)
		return nil
	}

	baseID, err := p.lookupValue(base)
	if err != nil {
		return err
	}
	return p.emitPlainGEP(inst, baseID, indices, tyID)
}

func (p *Producer) emitPlainGEP(inst *ir.Instruction, baseID uint32, indices []ir.Value, tyID uint32) error {
	first := indices[0]
	if ci, ok := first.(*ir.ConstantInt); ok && ci.Val == 0 {
		rest := indices[1:]
		if len(rest) == 0 {
			p.valueMap[inst] = baseID
			return nil
		}
		idxOps, err := p.operandIDs(rest)
		if err != nil {
			return err
		}
		ops := append([]Operand{MkID(baseID)}, idxOps...)
		p.valueMap[inst] = p.appendResult(OpAccessChain, tyID, ops...)
		return nil
	}

	idxOps, err := p.operandIDs(indices)
	if err != nil {
		return err
	}
	ops := append([]Operand{MkID(baseID)}, idxOps...)
	p.valueMap[inst] = p.appendResult(OpPtrAccessChain, tyID, ops...)
	p.hasVariablePointers = true
	p.markNeedsStride(inst.Ty)
	return nil
}

func (p *Producer) emitLoad(inst *ir.Instruction) error {
	ptr := inst.Operands[0]

	// The workgroup-size fake variable never really loads; substitute the
	// initializer value through a bitwise-and with itself, the form the
	// drivers expect.
	if g, ok := ptr.(*ir.GlobalVariable); ok && g.BuiltinWorkgroupSize {
		tyID, err := p.lookupType(inst.Ty)
		if err != nil {
			return err
		}
		p.valueMap[inst] = p.appendResult(OpBitwiseAnd, tyID,
			MkID(p.workgroupSizeValueID), MkID(p.workgroupSizeValueID))
		return nil
	}

	ptrID, err := p.lookupValue(ptr)
	if err != nil {
		return err
	}
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	p.valueMap[inst] = p.appendResult(OpLoad, tyID, MkID(ptrID))
	return nil
}

func (p *Producer) emitStore(inst *ir.Instruction) error {
	val, ptr := inst.Operands[0], inst.Operands[1]
	ptrID, err := p.lookupValue(ptr)
	if err != nil {
		return err
	}
	valID, err := p.lookupValue(val)
	if err != nil {
		return err
	}
	p.insts.Append(NewInstNoResult(OpStore, MkID(ptrID), MkID(valID)))
	return nil
}

func (p *Producer) emitExtractElement(inst *ir.Instruction) error {
	vec, idx := inst.Operands[0], inst.Operands[1]

	if isV4I8(vec.Type()) {
		return p.emitV4I8Extract(inst, vec, idx)
	}

	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	vecID, err := p.lookupValue(vec)
	if err != nil {
		return err
	}
	if ci, ok := idx.(*ir.ConstantInt); ok {
		p.valueMap[inst] = p.appendResult(OpCompositeExtract, tyID,
			MkID(vecID), MkNum(uint32(ci.Val)))
		return nil
	}
	idxID, err := p.lookupValue(idx)
	if err != nil {
		return err
	}
	p.valueMap[inst] = p.appendResult(OpVectorExtractDynamic, tyID,
		MkID(vecID), MkID(idxID))
	return nil
}

// v4i8ShiftAmount resolves the bit offset of a byte lane: a literal
// index*8 constant, or a runtime multiply by 8.
func (p *Producer) v4i8ShiftAmount(idx ir.Value) (uint32, error) {
	i32 := p.mod.Types.Int(32)
	if ci, ok := idx.(*ir.ConstantInt); ok {
		return p.lookupConstant(&ir.ConstantInt{Ty: i32, Val: ci.Val * 8})
	}
	i32ID, err := p.lookupType(i32)
	if err != nil {
		return 0, err
	}
	idxID, err := p.lookupValue(idx)
	if err != nil {
		return 0, err
	}
	eightID, err := p.lookupConstant(&ir.ConstantInt{Ty: i32, Val: 8})
	if err != nil {
		return 0, err
	}
	return p.appendResult(OpIMul, i32ID, MkID(idxID), MkID(eightID)), nil
}

// emitV4I8Extract reads one byte lane of an i32-encoded <4 x i8>: shift
// right by the lane offset, then mask with 0xFF.
func (p *Producer) emitV4I8Extract(inst *ir.Instruction, vec, idx ir.Value) error {
	i32 := p.mod.Types.Int(32)
	tyID, err := p.lookupType(vec.Type()) // aliases i32
	if err != nil {
		return err
	}
	vecID, err := p.lookupValue(vec)
	if err != nil {
		return err
	}
	shiftID, err := p.v4i8ShiftAmount(idx)
	if err != nil {
		return err
	}
	shifted := p.appendResult(OpShiftRightLogical, tyID, MkID(vecID), MkID(shiftID))
	ffID, err := p.lookupConstant(&ir.ConstantInt{Ty: i32, Val: 0xFF})
	if err != nil {
		return err
	}
	p.valueMap[inst] = p.appendResult(OpBitwiseAnd, tyID, MkID(shifted), MkID(ffID))
	return nil
}

func (p *Producer) emitInsertElement(inst *ir.Instruction) error {
	vec, elem, idx := inst.Operands[0], inst.Operands[1], inst.Operands[2]

	if isV4I8(vec.Type()) {
		return p.emitV4I8Insert(inst, vec, elem, idx)
	}

	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	vecID, err := p.lookupValue(vec)
	if err != nil {
		return err
	}
	elemID, err := p.lookupValue(elem)
	if err != nil {
		return err
	}
	if ci, ok := idx.(*ir.ConstantInt); ok {
		p.valueMap[inst] = p.appendResult(OpCompositeInsert, tyID,
			MkID(elemID), MkID(vecID), MkNum(uint32(ci.Val)))
		return nil
	}
	idxID, err := p.lookupValue(idx)
	if err != nil {
		return err
	}
	p.valueMap[inst] = p.appendResult(OpVectorInsertDynamic, tyID,
		MkID(vecID), MkID(elemID), MkID(idxID))
	return nil
}

// emitV4I8Insert writes one byte lane of an i32-encoded <4 x i8>: build the
// lane mask, clear the lane in the original, shift the new byte into
// position, and OR the two halves together.
func (p *Producer) emitV4I8Insert(inst *ir.Instruction, vec, elem, idx ir.Value) error {
	i32 := p.mod.Types.Int(32)
	tyID, err := p.lookupType(vec.Type())
	if err != nil {
		return err
	}
	shiftID, err := p.v4i8ShiftAmount(idx)
	if err != nil {
		return err
	}
	ffID, err := p.lookupConstant(&ir.ConstantInt{Ty: i32, Val: 0xFF})
	if err != nil {
		return err
	}
	vecID, err := p.lookupValue(vec)
	if err != nil {
		return err
	}
	elemID, err := p.lookupValue(elem)
	if err != nil {
		return err
	}

	mask := p.appendResult(OpShiftLeftLogical, tyID, MkID(ffID), MkID(shiftID))
	invMask := p.appendResult(OpNot, tyID, MkID(mask))
	cleared := p.appendResult(OpBitwiseAnd, tyID, MkID(vecID), MkID(invMask))
	shiftedVal := p.appendResult(OpShiftLeftLogical, tyID, MkID(elemID), MkID(shiftID))
	p.valueMap[inst] = p.appendResult(OpBitwiseOr, tyID, MkID(cleared), MkID(shiftedVal))
	return nil
}

func (p *Producer) emitShuffle(inst *ir.Instruction) error {
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	aID, err := p.lookupValue(inst.Operands[0])
	if err != nil {
		return err
	}
	bID, err := p.lookupValue(inst.Operands[1])
	if err != nil {
		return err
	}
	ops := []Operand{MkID(aID), MkID(bID)}

	// The mask constant becomes literal component selectors; an undef lane
	// is the 0xFFFFFFFF wildcard.
	mask := inst.Operands[2]
	switch m := mask.(type) {
	case *ir.ConstantComposite:
		for _, e := range m.Elems {
			if ci, ok := e.(*ir.ConstantInt); ok {
				ops = append(ops, MkNum(uint32(ci.Val)))
			} else {
				ops = append(ops, MkNum(0xFFFFFFFF))
			}
		}
	case *ir.ConstantNull:
		n := mask.Type().(*ir.VectorType).Len
		for i := uint32(0); i < n; i++ {
			ops = append(ops, MkNum(0))
		}
	default:
		return unsupportedf("shufflevector mask %s", mask.Name())
	}
	p.valueMap[inst] = p.appendResult(OpVectorShuffle, tyID, ops...)
	return nil
}

func (p *Producer) emitExtractValue(inst *ir.Instruction) error {
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	aggID, err := p.lookupValue(inst.Operands[0])
	if err != nil {
		return err
	}
	ops := []Operand{MkID(aggID)}
	for _, ix := range inst.Indices {
		ops = append(ops, MkNum(ix))
	}
	p.valueMap[inst] = p.appendResult(OpCompositeExtract, tyID, ops...)
	return nil
}

func (p *Producer) emitInsertValue(inst *ir.Instruction) error {
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	aggID, err := p.lookupValue(inst.Operands[0])
	if err != nil {
		return err
	}
	elemID, err := p.lookupValue(inst.Operands[1])
	if err != nil {
		return err
	}
	ops := []Operand{MkID(elemID), MkID(aggID)}
	for _, ix := range inst.Indices {
		ops = append(ops, MkNum(ix))
	}
	p.valueMap[inst] = p.appendResult(OpCompositeInsert, tyID, ops...)
	return nil
}

func (p *Producer) emitAtomic(inst *ir.Instruction) error {
	op, ok := atomicOpcodeFor(inst.Atomic)
	if !ok {
		return unsupportedf("atomicrmw %s: %s", inst.Atomic, inst)
	}
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return err
	}
	ptrID, err := p.lookupValue(inst.Operands[0])
	if err != nil {
		return err
	}
	valID, err := p.lookupValue(inst.Operands[1])
	if err != nil {
		return err
	}
	i32 := p.mod.Types.Int(32)
	scopeID, err := p.lookupConstant(&ir.ConstantInt{Ty: i32, Val: uint64(ScopeDevice)})
	if err != nil {
		return err
	}
	semID, err := p.lookupConstant(&ir.ConstantInt{
		Ty: i32, Val: uint64(MemorySemanticsUniformMemory | MemorySemanticsSequentiallyConsistent)})
	if err != nil {
		return err
	}
	p.valueMap[inst] = p.appendResult(op, tyID,
		MkID(ptrID), MkID(scopeID), MkID(semID), MkID(valID))
	return nil
}
