package spirv

import (
	"strings"

	"github.com/gogpu/clspirv/ir"
)

type cfgAnalysis struct {
	dom *ir.DominatorTree
	li  *ir.LoopInfo
}

// fixupDeferred drains the deferred worklist in reverse insertion order, so
// each entry's recorded index is still valid when it is spliced in: later
// insertions happen at higher indexes first and are pushed right by earlier
// ones, preserving relative order.
func (p *Producer) fixupDeferred() error {
	analyses := make(map[*ir.Function]*cfgAnalysis)
	analysis := func(f *ir.Function) *cfgAnalysis {
		if a, ok := analyses[f]; ok {
			return a
		}
		dom := ir.ComputeDominatorTree(f)
		a := &cfgAnalysis{dom: dom, li: ir.ComputeLoopInfo(f, dom)}
		analyses[f] = a
		return a
	}

	for i := len(p.deferred) - 1; i >= 0; i-- {
		d := p.deferred[i]
		var insts []*Instruction
		var err error

		switch d.inst.Op {
		case ir.OpBr, ir.OpCondBr:
			insts, err = p.fixupBranch(d.inst, analysis(d.inst.Block.Fn))
		case ir.OpPhi:
			insts, err = p.fixupPhi(d.inst, d.result)
		case ir.OpCall:
			insts, err = p.fixupCall(d.inst, d.result)
		default:
			err = unknownf("deferred %s", d.inst)
		}
		if err != nil {
			return err
		}
		p.insts.InsertAt(d.index, insts...)
	}
	return nil
}

// fixupBranch emits the branch with its structured merge instruction. A
// branch from a loop header gets OpLoopMerge with the loop's unique exit
// and its continue target; any other conditional branch with no back-edge
// successor gets OpSelectionMerge naming the false successor.
func (p *Producer) fixupBranch(inst *ir.Instruction, a *cfgAnalysis) ([]*Instruction, error) {
	b := inst.Block
	var out []*Instruction

	if loop := a.li.HeaderLoop(b); loop != nil {
		exits := loop.ExitBlocks()
		if len(exits) != 1 {
			return nil, structuralf("loop headed by %%%s has %d exits", b.Nam, len(exits))
		}
		mergeID, ok := p.blockIDs[exits[0]]
		if !ok {
			return nil, unknownf("block %%%s has no label id", exits[0].Nam)
		}

		var cont *ir.BasicBlock
		latch := loop.Latch()
		if latch == b {
			cont = b
		} else {
			// The continue target must dominate the back-edge block; take
			// the last in-loop candidate, mirroring a linear scan over the
			// loop body.
			for _, bb := range b.Fn.Blocks {
				if !loop.Contains(bb) || bb == loop.Header {
					continue
				}
				if latch != nil && a.dom.Dominates(bb, latch) {
					cont = bb
				}
			}
			if cont == nil {
				return nil, structuralf("loop headed by %%%s has no continue candidate", b.Nam)
			}
		}
		contID := p.blockIDs[cont]
		out = append(out, NewInstNoResult(OpLoopMerge,
			MkID(mergeID), MkID(contID),
			mkEnum(uint32(LoopControlNone), enumLoopControl)))
	} else if inst.Op == ir.OpCondBr {
		backEdge := false
		for _, s := range inst.Succs {
			if a.li.IsBackEdge(b, s) {
				backEdge = true
			}
		}
		if !backEdge {
			mergeID, ok := p.blockIDs[inst.Succs[1]]
			if !ok {
				return nil, unknownf("block %%%s has no label id", inst.Succs[1].Nam)
			}
			out = append(out, NewInstNoResult(OpSelectionMerge,
				MkID(mergeID),
				mkEnum(uint32(SelectionControlNone), enumSelectionControl)))
		}
	}

	if inst.Op == ir.OpCondBr {
		condID, err := p.lookupValue(inst.Operands[0])
		if err != nil {
			return nil, err
		}
		trueID := p.blockIDs[inst.Succs[0]]
		falseID := p.blockIDs[inst.Succs[1]]
		if trueID == 0 || falseID == 0 {
			return nil, unknownf("branch target of %%%s has no label id", b.Nam)
		}
		out = append(out, NewInstNoResult(OpBranchConditional,
			MkID(condID), MkID(trueID), MkID(falseID)))
	} else {
		targetID, ok := p.blockIDs[inst.Succs[0]]
		if !ok {
			return nil, unknownf("branch target of %%%s has no label id", b.Nam)
		}
		out = append(out, NewInstNoResult(OpBranch, MkID(targetID)))
	}
	return out, nil
}

func (p *Producer) fixupPhi(inst *ir.Instruction, result uint32) ([]*Instruction, error) {
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return nil, err
	}
	ops := []Operand{MkID(tyID)}
	for _, in := range inst.Incoming {
		valID, err := p.lookupValue(in.Value)
		if err != nil {
			return nil, err
		}
		predID, ok := p.blockIDs[in.Pred]
		if !ok {
			return nil, unknownf("phi predecessor %%%s has no label id", in.Pred.Nam)
		}
		ops = append(ops, MkID(valID), MkID(predID))
	}
	return []*Instruction{NewInst(OpPhi, result, ops...)}, nil
}

// fixupCall emits the deferred call forms: extended instructions with their
// optional follow-up op, popcount, composite construction, and plain
// function calls.
func (p *Producer) fixupCall(inst *ir.Instruction, result uint32) ([]*Instruction, error) {
	name := inst.Callee.Nam
	tyID, err := p.lookupType(inst.Ty)
	if err != nil {
		return nil, err
	}

	direct := extInstFor(inst)
	indirect := indirectExtInstFor(name)
	if e := direct; e != GLSLExtInstBad || indirect != GLSLExtInstBad {
		if e == GLSLExtInstBad {
			e = indirect
		}
		ops := []Operand{MkID(tyID), MkID(p.extInstImportID),
			mkEnum(uint32(e), enumGLSLExtInst)}
		argOps, err := p.operandIDs(inst.Operands)
		if err != nil {
			return nil, err
		}
		ops = append(ops, argOps...)
		out := []*Instruction{NewInst(OpExtInst, result, ops...)}

		if indirect != GLSLExtInstBad {
			// The follow-up op owns the id users reference: one past the
			// extended instruction's.
			var followup ir.Constant
			var op Opcode
			switch indirect {
			case GLSLExtInstFindUMsb:
				op, followup = OpISub, splatInt(inst.Ty, 31)
			default:
				op, followup = OpFMul, splatFloat(inst.Ty, invPi)
			}
			cID, err := p.lookupConstant(followup)
			if err != nil {
				return nil, err
			}
			out = append(out, NewInst(op, result+1,
				MkID(tyID), MkID(cID), MkID(result)))
		}
		return out, nil
	}

	switch {
	case name == "popcount":
		argID, err := p.lookupValue(inst.Operands[0])
		if err != nil {
			return nil, err
		}
		return []*Instruction{NewInst(OpBitCount, result,
			MkID(tyID), MkID(argID))}, nil

	case strings.HasPrefix(name, compositeConstructPrefix):
		ops := []Operand{MkID(tyID)}
		argOps, err := p.operandIDs(inst.Operands)
		if err != nil {
			return nil, err
		}
		ops = append(ops, argOps...)
		return []*Instruction{NewInst(OpCompositeConstruct, result, ops...)}, nil
	}

	calleeID, err := p.lookupValue(inst.Callee)
	if err != nil {
		return nil, unknownf("cannot translate call to @%s (missing builtin?)", name)
	}
	ops := []Operand{MkID(tyID), MkID(calleeID)}
	argOps, err := p.operandIDs(inst.Operands)
	if err != nil {
		return nil, err
	}
	ops = append(ops, argOps...)
	return []*Instruction{NewInst(OpFunctionCall, result, ops...)}, nil
}
