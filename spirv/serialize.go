package spirv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// boundOffset is the byte offset of the bound word in the module header.
const boundOffset = 12

// resultFirstOpcodes are the opcodes whose result id immediately follows
// the opcode word; every other result-carrying opcode writes its result
// after the result-type operand.
var resultFirstOpcodes = map[Opcode]bool{
	OpTypeVoid: true, OpTypeBool: true, OpTypeInt: true, OpTypeFloat: true,
	OpTypeVector: true, OpTypeImage: true, OpTypeSampler: true,
	OpTypeSampledImage: true, OpTypeArray: true, OpTypeRuntimeArray: true,
	OpTypeStruct: true, OpTypePointer: true, OpTypeFunction: true,
	OpLabel: true, OpExtInstImport: true,
}

// Serialize writes the completed module in the configured output format.
func (p *Producer) Serialize(w io.Writer) error {
	switch p.opts.Format {
	case OutputAssembly:
		return p.writeAssembly(w)
	case OutputCInitList:
		var buf bytes.Buffer
		if err := p.writeBinary(&buf); err != nil {
			return err
		}
		return writeCInitList(w, buf.Bytes())
	default:
		return p.writeBinary(w)
	}
}

// writeBinary streams the header and every instruction as little-endian
// words, then patches the placeholder bound with the final id counter.
func (p *Producer) writeBinary(w io.Writer) error {
	var buf bytes.Buffer
	word := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf.Write(tmp[:])
	}

	word(MagicNumber)
	word(p.opts.Version.Word())
	word(GeneratorID)
	word(0) // bound, patched below
	word(0) // schema

	for _, inst := range p.insts.All() {
		wc, err := safeU32(uint64(inst.WordCount()))
		if err != nil || wc > 0xFFFF {
			return structuralf("instruction %s is %d words", inst.Opcode, inst.WordCount())
		}
		word(wc<<16 | uint32(inst.Opcode))
		if inst.Result != 0 && resultFirstOpcodes[inst.Opcode] {
			word(inst.Result)
		}
		for i, op := range inst.Operands {
			writeOperandWords(word, op)
			if i == 0 && inst.Result != 0 && !resultFirstOpcodes[inst.Opcode] {
				word(inst.Result)
			}
		}
		if len(inst.Operands) == 0 && inst.Result != 0 && !resultFirstOpcodes[inst.Opcode] {
			word(inst.Result)
		}
	}

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[boundOffset:], p.Bound())
	_, err := w.Write(out)
	return err
}

func writeOperandWords(word func(uint32), op Operand) {
	switch op.Kind {
	case OperandID:
		word(op.ID)
	case OperandLiteral:
		for _, v := range op.Lit {
			word(v)
		}
	case OperandString:
		b := []byte(op.Str)
		b = append(b, 0)
		for len(b)%4 != 0 {
			b = append(b, 0)
		}
		for i := 0; i < len(b); i += 4 {
			word(binary.LittleEndian.Uint32(b[i:]))
		}
	}
}

// writeCInitList rewrites the binary as a comma-separated C initializer
// list of hex words.
func writeCInitList(w io.Writer, bin []byte) error {
	if _, err := fmt.Fprint(w, "{"); err != nil {
		return err
	}
	for i := 0; i+4 <= len(bin); i += 4 {
		sep := ","
		if i == 0 {
			sep = ""
		}
		nl := ""
		if i%32 == 0 && i > 0 {
			nl = "\n "
		}
		v := binary.LittleEndian.Uint32(bin[i:])
		if _, err := fmt.Fprintf(w, "%s%s0x%08x", sep, nl, v); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// writeAssembly renders the module as a textual listing: the header as five
// comment lines, then one instruction per line with symbolic enum names and
// %N result ids.
func (p *Producer) writeAssembly(w io.Writer) error {
	header := fmt.Sprintf(
		"; SPIR-V\n; Version: %d.%d\n; Generator: clspirv; %d\n; Bound: %d\n; Schema: 0\n",
		p.opts.Version.Major, p.opts.Version.Minor, GeneratorID>>16, p.Bound())
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	for _, inst := range p.insts.All() {
		line := ""
		if inst.Result != 0 {
			line = fmt.Sprintf("%%%d = ", inst.Result)
		}
		line += inst.Opcode.String()
		for _, op := range inst.Operands {
			line += " " + formatOperand(op)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatOperand(op Operand) string {
	switch op.Kind {
	case OperandID:
		return fmt.Sprintf("%%%d", op.ID)
	case OperandString:
		return fmt.Sprintf("%q", op.Str)
	}
	if op.Enum != enumNone && len(op.Lit) == 1 {
		return enumName(op.Enum, op.Lit[0])
	}
	s := ""
	for i, v := range op.Lit {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d", v)
	}
	return s
}

//nolint:gocyclo // one arm per enum table
func enumName(kind enumKind, v uint32) string {
	switch kind {
	case enumCapability:
		return Capability(v).String()
	case enumStorageClass:
		return StorageClass(v).String()
	case enumDecoration:
		return Decoration(v).String()
	case enumBuiltIn:
		return BuiltIn(v).String()
	case enumAddressingModel:
		if v == uint32(AddressingModelLogical) {
			return "Logical"
		}
	case enumMemoryModel:
		if v == uint32(MemoryModelGLSL450) {
			return "GLSL450"
		}
	case enumExecutionModel:
		if v == uint32(ExecutionModelGLCompute) {
			return "GLCompute"
		}
	case enumExecutionMode:
		if v == uint32(ExecutionModeLocalSize) {
			return "LocalSize"
		}
	case enumSourceLanguage:
		if v == uint32(SourceLanguageOpenCLC) {
			return "OpenCL_C"
		}
	case enumFunctionControl:
		if v == 0 {
			return "None"
		}
	case enumSelectionControl, enumLoopControl:
		if v == 0 {
			return "None"
		}
	case enumDim:
		return Dim(v).String()
	case enumImageFormat:
		if v == ImageFormatUnknown {
			return "Unknown"
		}
	case enumGLSLExtInst:
		return GLSLExtInst(v).String()
	}
	return fmt.Sprintf("%d", v)
}
