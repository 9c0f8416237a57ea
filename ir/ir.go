// Package ir defines the typed SSA intermediate representation consumed by
// the SPIR-V producer.
//
// A Module holds interned types, module-scope globals, and functions. Each
// function is a list of basic blocks of typed instructions in SSA form.
// Control flow has already been structured by earlier passes: every region
// is single-entry/single-exit, so the producer can derive SPIR-V merge
// instructions from dominator and loop analyses alone.
package ir

import "fmt"

// Module is a translation unit handed to the back-end.
type Module struct {
	Types     *TypeContext
	Globals   []*GlobalVariable
	Functions []*Function
}

// NewModule creates an empty module with a fresh type context.
func NewModule() *Module {
	return &Module{Types: NewTypeContext()}
}

// Kernels returns the module's kernel functions in declaration order.
func (m *Module) Kernels() []*Function {
	var out []*Function
	for _, f := range m.Functions {
		if f.IsKernel {
			out = append(out, f)
		}
	}
	return out
}

// Function looks up a function by name, or nil.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Nam == name {
			return f
		}
	}
	return nil
}

// Value is anything an instruction operand can reference: constants,
// arguments, globals, and instruction results.
type Value interface {
	Type() Type
	Name() string
}

// GlobalVariable is a module-scope variable. Its value type is ValueType;
// as an operand it has pointer-to-ValueType type in its address space.
type GlobalVariable struct {
	Nam       string
	Space     AddressSpace
	ValueType Type
	Init      Constant // nil when uninitialized
	// BuiltinWorkgroupSize marks the module-scope variable synthesized to
	// hold the workgroup size; loads from it get the driver workaround.
	BuiltinWorkgroupSize bool

	mod *Module
}

func (g *GlobalVariable) Type() Type   { return g.mod.Types.Pointer(g.Space, g.ValueType) }
func (g *GlobalVariable) Name() string { return g.Nam }

// AddGlobal appends a module-scope variable.
func (m *Module) AddGlobal(name string, space AddressSpace, valueType Type, init Constant) *GlobalVariable {
	g := &GlobalVariable{Nam: name, Space: space, ValueType: valueType, Init: init, mod: m}
	m.Globals = append(m.Globals, g)
	return g
}

// ArgInfo is the kernel_arg_map metadata for one original kernel argument.
type ArgInfo struct {
	Name    string
	Ordinal uint32 // position in the original kernel signature
	SpecID  uint32 // specialization id for pointer-to-local arguments
}

// Function is a function definition or external declaration.
type Function struct {
	Nam      string
	Sig      *FunctionType
	Args     []*Argument
	Blocks   []*BasicBlock
	IsKernel bool
	IsDecl   bool // external declaration (builtins); no blocks

	// Metadata attachments.
	ReqdWorkGroupSize *[3]uint32 // reqd_work_group_size, if present
	ArgMap            []ArgInfo  // kernel_arg_map, if present

	mod *Module
}

func (f *Function) Type() Type   { return f.Sig }
func (f *Function) Name() string { return f.Nam }

// Module returns the module owning this function.
func (f *Function) Module() *Module { return f.mod }

// AddFunction appends a function with the given signature. Argument values
// are created from the signature's parameter types.
func (m *Module) AddFunction(name string, sig *FunctionType, kernel bool) *Function {
	f := &Function{Nam: name, Sig: sig, IsKernel: kernel, mod: m}
	for i, pt := range sig.Params {
		f.Args = append(f.Args, &Argument{
			Nam: fmt.Sprintf("arg%d", i), Ty: pt, Fn: f, Index: uint32(i),
		})
	}
	m.Functions = append(m.Functions, f)
	return f
}

// AddDecl appends an external function declaration (used for builtins).
func (m *Module) AddDecl(name string, sig *FunctionType) *Function {
	f := m.AddFunction(name, sig, false)
	f.IsDecl = true
	return f
}

// Entry returns the function's entry block.
func (f *Function) Entry() *BasicBlock { return f.Blocks[0] }

// AddBlock appends a new basic block.
func (f *Function) AddBlock(name string) *BasicBlock {
	b := &BasicBlock{Nam: name, Fn: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// ArgInfoFor returns the kernel_arg_map entry for the given argument index,
// or nil when the metadata is absent.
func (f *Function) ArgInfoFor(index uint32) *ArgInfo {
	for i := range f.ArgMap {
		if f.ArgMap[i].Ordinal == index {
			return &f.ArgMap[i]
		}
	}
	return nil
}

// Argument is a formal parameter of a function.
type Argument struct {
	Nam   string
	Ty    Type
	Fn    *Function
	Index uint32
}

func (a *Argument) Type() Type   { return a.Ty }
func (a *Argument) Name() string { return a.Nam }

// BasicBlock is a maximal straight-line instruction sequence ending in a
// terminator.
type BasicBlock struct {
	Nam    string
	Fn     *Function
	Instrs []*Instruction
}

func (b *BasicBlock) Name() string { return b.Nam }

// Append adds an instruction to the end of the block.
func (b *BasicBlock) Append(inst *Instruction) *Instruction {
	inst.Block = b
	b.Instrs = append(b.Instrs, inst)
	return inst
}

// Terminator returns the block's final instruction, or nil for a block
// still under construction.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	switch last.Op {
	case OpBr, OpCondBr, OpRet:
		return last
	}
	return nil
}

// Successors returns the blocks this block can branch to.
func (b *BasicBlock) Successors() []*BasicBlock {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	return t.Succs
}

// Predecessors returns the blocks that branch to this block, in function
// block order (stable for deterministic output).
func (b *BasicBlock) Predecessors() []*BasicBlock {
	var preds []*BasicBlock
	for _, other := range b.Fn.Blocks {
		for _, s := range other.Successors() {
			if s == b {
				preds = append(preds, other)
				break
			}
		}
	}
	return preds
}

// Opcode enumerates IR instruction kinds.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Memory
	OpAlloca
	OpLoad
	OpStore
	OpGetElementPtr

	// Integer arithmetic
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem

	// Float arithmetic
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem

	// Bitwise / shifts
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	// Comparisons
	OpICmp
	OpFCmp

	// Casts
	OpTrunc
	OpZExt
	OpSExt
	OpFPTrunc
	OpFPExt
	OpFPToUI
	OpFPToSI
	OpUIToFP
	OpSIToFP
	OpBitcast

	// Vectors / aggregates
	OpExtractElement
	OpInsertElement
	OpShuffleVector
	OpExtractValue
	OpInsertValue

	// Control flow
	OpSelect
	OpPhi
	OpBr
	OpCondBr
	OpRet

	// Calls and atomics
	OpCall
	OpAtomicRMW

	// Unsupported forms kept so the producer can report them by name.
	OpSwitch
	OpIndirectBr
	OpCmpXchg
	OpFence
)

var opcodeNames = map[Opcode]string{
	OpAlloca: "alloca", OpLoad: "load", OpStore: "store",
	OpGetElementPtr: "getelementptr",
	OpAdd:           "add", OpSub: "sub", OpMul: "mul",
	OpUDiv: "udiv", OpSDiv: "sdiv", OpURem: "urem", OpSRem: "srem",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFRem: "frem",
	OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpShl: "shl", OpLShr: "lshr", OpAShr: "ashr",
	OpICmp: "icmp", OpFCmp: "fcmp",
	OpTrunc: "trunc", OpZExt: "zext", OpSExt: "sext",
	OpFPTrunc: "fptrunc", OpFPExt: "fpext",
	OpFPToUI: "fptoui", OpFPToSI: "fptosi",
	OpUIToFP: "uitofp", OpSIToFP: "sitofp", OpBitcast: "bitcast",
	OpExtractElement: "extractelement", OpInsertElement: "insertelement",
	OpShuffleVector: "shufflevector",
	OpExtractValue:  "extractvalue", OpInsertValue: "insertvalue",
	OpSelect: "select", OpPhi: "phi",
	OpBr: "br", OpCondBr: "br", OpRet: "ret",
	OpCall: "call", OpAtomicRMW: "atomicrmw",
	OpSwitch: "switch", OpIndirectBr: "indirectbr",
	OpCmpXchg: "cmpxchg", OpFence: "fence",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Predicate enumerates icmp and fcmp comparison kinds.
type Predicate uint8

const (
	PredNone Predicate = iota
	// Integer predicates
	IntEQ
	IntNE
	IntUGT
	IntUGE
	IntULT
	IntULE
	IntSGT
	IntSGE
	IntSLT
	IntSLE
	// Ordered float predicates
	FloatOEQ
	FloatOGT
	FloatOGE
	FloatOLT
	FloatOLE
	FloatONE
	FloatORD
	// Unordered float predicates
	FloatUNO
	FloatUEQ
	FloatUGT
	FloatUGE
	FloatULT
	FloatULE
	FloatUNE
)

var predicateNames = map[Predicate]string{
	IntEQ: "eq", IntNE: "ne",
	IntUGT: "ugt", IntUGE: "uge", IntULT: "ult", IntULE: "ule",
	IntSGT: "sgt", IntSGE: "sge", IntSLT: "slt", IntSLE: "sle",
	FloatOEQ: "oeq", FloatOGT: "ogt", FloatOGE: "oge",
	FloatOLT: "olt", FloatOLE: "ole", FloatONE: "one", FloatORD: "ord",
	FloatUNO: "uno", FloatUEQ: "ueq", FloatUGT: "ugt", FloatUGE: "uge",
	FloatULT: "ult", FloatULE: "ule", FloatUNE: "une",
}

func (p Predicate) String() string {
	if s, ok := predicateNames[p]; ok {
		return s
	}
	return fmt.Sprintf("pred(%d)", uint8(p))
}

// AtomicKind enumerates atomicrmw operations.
type AtomicKind uint8

const (
	AtomicAdd AtomicKind = iota
	AtomicSub
	AtomicXchg
	AtomicMin
	AtomicMax
	AtomicUMin
	AtomicUMax
	AtomicAnd
	AtomicOr
	AtomicXor
	AtomicBad // unrecognized; the producer reports it
)

var atomicNames = map[AtomicKind]string{
	AtomicAdd: "add", AtomicSub: "sub", AtomicXchg: "xchg",
	AtomicMin: "min", AtomicMax: "max",
	AtomicUMin: "umin", AtomicUMax: "umax",
	AtomicAnd: "and", AtomicOr: "or", AtomicXor: "xor",
}

func (k AtomicKind) String() string {
	if s, ok := atomicNames[k]; ok {
		return s
	}
	return fmt.Sprintf("atomic(%d)", uint8(k))
}

// Incoming is one phi edge.
type Incoming struct {
	Value Value
	Pred  *BasicBlock
}

// Instruction is a typed SSA instruction. One struct covers all opcodes;
// auxiliary fields are meaningful only for the opcodes that use them.
type Instruction struct {
	Op       Opcode
	Ty       Type // result type; void for store, branches, ret void
	Operands []Value
	Nam      string
	Block    *BasicBlock

	Pred     Predicate     // icmp, fcmp
	Indices  []uint32      // extractvalue, insertvalue
	Atomic   AtomicKind    // atomicrmw
	Callee   *Function     // call
	Succs    []*BasicBlock // br: [target] or [true, false]
	Incoming []Incoming    // phi
}

func (i *Instruction) Type() Type   { return i.Ty }
func (i *Instruction) Name() string { return i.Nam }

// String renders the instruction for diagnostics.
func (i *Instruction) String() string {
	s := ""
	if i.Nam != "" {
		s = "%" + i.Nam + " = "
	}
	s += i.Op.String()
	if i.Op == OpICmp || i.Op == OpFCmp {
		s += " " + i.Pred.String()
	}
	for n, v := range i.Operands {
		if n > 0 {
			s += ","
		}
		s += fmt.Sprintf(" %s %%%s", v.Type(), v.Name())
	}
	if i.Callee != nil {
		s += " @" + i.Callee.Nam
	}
	return s
}
