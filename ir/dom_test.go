package ir

import "testing"

// diamond builds entry -> (then | els) -> merge.
func diamond(t *testing.T) (*Function, []*BasicBlock) {
	t.Helper()
	mod := NewModule()
	c := mod.Types
	f := mod.AddFunction("f", c.Function(c.Void()), false)
	entry := f.AddBlock("entry")
	then := f.AddBlock("then")
	els := f.AddBlock("else")
	merge := f.AddBlock("merge")

	cond := &ConstantInt{Ty: c.Bool(), Val: 1}
	entry.Append(&Instruction{Op: OpCondBr, Ty: c.Void(),
		Operands: []Value{cond}, Succs: []*BasicBlock{then, els}})
	then.Append(&Instruction{Op: OpBr, Ty: c.Void(), Succs: []*BasicBlock{merge}})
	els.Append(&Instruction{Op: OpBr, Ty: c.Void(), Succs: []*BasicBlock{merge}})
	merge.Append(&Instruction{Op: OpRet, Ty: c.Void()})
	return f, []*BasicBlock{entry, then, els, merge}
}

func TestDominatorTreeDiamond(t *testing.T) {
	f, bs := diamond(t)
	entry, then, els, merge := bs[0], bs[1], bs[2], bs[3]

	dom := ComputeDominatorTree(f)
	if dom.IDom(then) != entry || dom.IDom(els) != entry {
		t.Error("branch arms are not immediately dominated by entry")
	}
	if dom.IDom(merge) != entry {
		t.Errorf("merge idom: got %s, want entry", dom.IDom(merge).Nam)
	}
	if !dom.Dominates(entry, merge) {
		t.Error("entry must dominate merge")
	}
	if dom.Dominates(then, merge) {
		t.Error("then must not dominate merge")
	}
	if !dom.Dominates(then, then) {
		t.Error("dominance is reflexive")
	}
}

func loopFunc(t *testing.T) (*Function, []*BasicBlock) {
	t.Helper()
	mod := NewModule()
	c := mod.Types
	f := mod.AddFunction("f", c.Function(c.Void()), false)
	entry := f.AddBlock("entry")
	header := f.AddBlock("header")
	body := f.AddBlock("body")
	exit := f.AddBlock("exit")

	cond := &ConstantInt{Ty: c.Bool(), Val: 1}
	entry.Append(&Instruction{Op: OpBr, Ty: c.Void(), Succs: []*BasicBlock{header}})
	header.Append(&Instruction{Op: OpCondBr, Ty: c.Void(),
		Operands: []Value{cond}, Succs: []*BasicBlock{body, exit}})
	body.Append(&Instruction{Op: OpBr, Ty: c.Void(), Succs: []*BasicBlock{header}})
	exit.Append(&Instruction{Op: OpRet, Ty: c.Void()})
	return f, []*BasicBlock{entry, header, body, exit}
}

func TestLoopInfo(t *testing.T) {
	f, bs := loopFunc(t)
	header, body, exit := bs[1], bs[2], bs[3]

	dom := ComputeDominatorTree(f)
	li := ComputeLoopInfo(f, dom)

	if len(li.Loops) != 1 {
		t.Fatalf("loops: got %d, want 1", len(li.Loops))
	}
	loop := li.Loops[0]
	if loop.Header != header {
		t.Error("wrong loop header")
	}
	if !li.IsLoopHeader(header) || li.IsLoopHeader(body) {
		t.Error("header classification wrong")
	}
	if loop.Latch() != body {
		t.Errorf("latch: got %v", loop.Latch())
	}
	if !loop.Contains(body) || loop.Contains(exit) {
		t.Error("loop membership wrong")
	}
	exits := loop.ExitBlocks()
	if len(exits) != 1 || exits[0] != exit {
		t.Errorf("exit blocks: got %v", exits)
	}
	if !li.IsBackEdge(body, header) {
		t.Error("body->header is a back edge")
	}
	if li.IsBackEdge(header, body) {
		t.Error("header->body is not a back edge")
	}
}

func TestSelfLoop(t *testing.T) {
	mod := NewModule()
	c := mod.Types
	f := mod.AddFunction("f", c.Function(c.Void()), false)
	entry := f.AddBlock("entry")
	spin := f.AddBlock("spin")
	exit := f.AddBlock("exit")

	cond := &ConstantInt{Ty: c.Bool(), Val: 1}
	entry.Append(&Instruction{Op: OpBr, Ty: c.Void(), Succs: []*BasicBlock{spin}})
	spin.Append(&Instruction{Op: OpCondBr, Ty: c.Void(),
		Operands: []Value{cond}, Succs: []*BasicBlock{spin, exit}})
	exit.Append(&Instruction{Op: OpRet, Ty: c.Void()})

	dom := ComputeDominatorTree(f)
	li := ComputeLoopInfo(f, dom)
	loop := li.HeaderLoop(spin)
	if loop == nil {
		t.Fatal("self loop not detected")
	}
	if loop.Latch() != spin {
		t.Error("self loop latch is the header itself")
	}
}
