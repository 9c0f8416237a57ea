package spirv

// OperandKind distinguishes the encodings an instruction operand can take.
type OperandKind uint8

const (
	// OperandID references a result id.
	OperandID OperandKind = iota
	// OperandLiteral is one or more literal words (numbers, enum values,
	// packed constants).
	OperandLiteral
	// OperandString is a null-terminated UTF-8 string padded to a word
	// boundary.
	OperandString
)

// Operand is one operand of a SPIR-V instruction.
type Operand struct {
	Kind OperandKind
	ID   uint32   // OperandID
	Lit  []uint32 // OperandLiteral
	Str  string   // OperandString

	// Enum tags the literal for the assembly printer; zero means plain
	// number. See asmEnum in serialize.go.
	Enum enumKind
}

// enumKind selects the symbolic-name table used when printing an operand in
// assembly mode.
type enumKind uint8

const (
	enumNone enumKind = iota
	enumCapability
	enumStorageClass
	enumDecoration
	enumBuiltIn
	enumAddressingModel
	enumMemoryModel
	enumExecutionModel
	enumExecutionMode
	enumSourceLanguage
	enumFunctionControl
	enumSelectionControl
	enumLoopControl
	enumDim
	enumImageFormat
	enumGLSLExtInst
)

// MkID makes an id-reference operand.
func MkID(id uint32) Operand { return Operand{Kind: OperandID, ID: id} }

// MkNum makes a single-word literal operand.
func MkNum(v uint32) Operand { return Operand{Kind: OperandLiteral, Lit: []uint32{v}} }

// MkNum2 makes a two-word literal operand (64-bit values, low word first).
func MkNum2(lo, hi uint32) Operand {
	return Operand{Kind: OperandLiteral, Lit: []uint32{lo, hi}}
}

// MkString makes a string operand.
func MkString(s string) Operand { return Operand{Kind: OperandString, Str: s} }

func mkEnum(v uint32, kind enumKind) Operand {
	return Operand{Kind: OperandLiteral, Lit: []uint32{v}, Enum: kind}
}

// Words returns the number of words the operand occupies.
func (o Operand) Words() int {
	switch o.Kind {
	case OperandID:
		return 1
	case OperandLiteral:
		return len(o.Lit)
	case OperandString:
		return len(o.Str)/4 + 1
	}
	return 0
}

// Instruction is one SPIR-V instruction record.
type Instruction struct {
	Opcode  Opcode
	Result  uint32 // 0 when the opcode has no result id
	Operands []Operand
}

// NewInst makes an instruction with a result id.
func NewInst(op Opcode, result uint32, operands ...Operand) *Instruction {
	return &Instruction{Opcode: op, Result: result, Operands: operands}
}

// NewInstNoResult makes an instruction without a result id.
func NewInstNoResult(op Opcode, operands ...Operand) *Instruction {
	return &Instruction{Opcode: op, Operands: operands}
}

// WordCount returns the total encoded size in words, including the
// opcode/word-count header word.
func (i *Instruction) WordCount() int {
	n := 1
	if i.Result != 0 {
		n++
	}
	for _, o := range i.Operands {
		n += o.Words()
	}
	return n
}

// InstructionList is the ordered module instruction stream. It supports O(1)
// append and mid-stream insertion at a found index, which the decoration
// emitter and the deferred-fixup phase rely on.
type InstructionList struct {
	insts []*Instruction
}

// Append adds instructions at the end of the stream.
func (l *InstructionList) Append(insts ...*Instruction) {
	l.insts = append(l.insts, insts...)
}

// InsertAt splices instructions in before index i.
func (l *InstructionList) InsertAt(i int, insts ...*Instruction) {
	l.insts = append(l.insts[:i], append(insts, l.insts[i:]...)...)
}

// Prepend inserts instructions at the front of the stream.
func (l *InstructionList) Prepend(insts ...*Instruction) {
	l.InsertAt(0, insts...)
}

// Len returns the number of instructions.
func (l *InstructionList) Len() int { return len(l.insts) }

// At returns the instruction at index i.
func (l *InstructionList) At(i int) *Instruction { return l.insts[i] }

// All returns the backing slice; callers must not reorder it.
func (l *InstructionList) All() []*Instruction { return l.insts }

// DecorationPoint returns the index of the first instruction that is not a
// decoration, capability, extension, or extended-instruction import. All
// decorations are inserted here so they precede the type region.
func (l *InstructionList) DecorationPoint() int {
	for i, inst := range l.insts {
		switch inst.Opcode {
		case OpDecorate, OpMemberDecorate, OpCapability, OpExtension,
			OpExtInstImport:
			continue
		}
		return i
	}
	return len(l.insts)
}
