package spirv

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestBinaryHeader(t *testing.T) {
	p, _ := compileSrc(t, emptyImageKernel, DefaultOptions())

	var buf bytes.Buffer
	if err := p.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	data := buf.Bytes()
	if len(data) < 20 {
		t.Fatalf("module too small: %d bytes", len(data))
	}
	if got := binary.LittleEndian.Uint32(data[0:4]); got != MagicNumber {
		t.Errorf("magic: got %#x, want %#x", got, MagicNumber)
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != Version1_0.Word() {
		t.Errorf("version: got %#x, want %#x", got, Version1_0.Word())
	}
	if got := binary.LittleEndian.Uint32(data[8:12]); got != GeneratorID {
		t.Errorf("generator: got %#x, want %#x", got, GeneratorID)
	}
	if got := binary.LittleEndian.Uint32(data[12:16]); got != p.Bound() {
		t.Errorf("bound: got %d, want %d", got, p.Bound())
	}
	if got := binary.LittleEndian.Uint32(data[16:20]); got != 0 {
		t.Errorf("schema: got %d, want 0", got)
	}
	if len(data)%4 != 0 {
		t.Errorf("binary length %d is not word-aligned", len(data))
	}
}

func TestBoundIsOnePastMaxID(t *testing.T) {
	p, _ := compileSrc(t, emptyImageKernel, DefaultOptions())

	var max uint32
	for _, inst := range p.Instructions().All() {
		if inst.Result > max {
			max = inst.Result
		}
		for _, op := range inst.Operands {
			if op.Kind == OperandID && op.ID > max {
				max = op.ID
			}
		}
	}
	if p.Bound() != max+1 {
		t.Errorf("bound: got %d, want %d", p.Bound(), max+1)
	}
}

func TestWordCounts(t *testing.T) {
	p, _ := compileSrc(t, emptyImageKernel, DefaultOptions())

	var buf bytes.Buffer
	if err := p.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	data := buf.Bytes()

	// Walk the instruction stream by declared word counts; it must land
	// exactly on the end of the buffer.
	off := 20
	for off < len(data) {
		w := binary.LittleEndian.Uint32(data[off:])
		wc := int(w >> 16)
		if wc == 0 {
			t.Fatalf("zero word count at offset %d", off)
		}
		off += wc * 4
	}
	if off != len(data) {
		t.Errorf("word-count walk ends at %d, buffer is %d", off, len(data))
	}
}

func TestSerializeIdempotent(t *testing.T) {
	p, _ := compileSrc(t, emptyImageKernel, DefaultOptions())

	var a, b bytes.Buffer
	if err := p.Serialize(&a); err != nil {
		t.Fatal(err)
	}
	if err := p.Serialize(&b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("re-serializing the same module produced different bytes")
	}
}

func TestAssemblyOutput(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = OutputAssembly
	p, _ := compileSrc(t, emptyImageKernel, opts)

	var buf bytes.Buffer
	if err := p.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	asm := buf.String()

	for _, want := range []string{
		"; SPIR-V",
		"; Bound: 12",
		"OpCapability Shader",
		"OpCapability StorageImageWriteWithoutFormat",
		"OpMemoryModel Logical GLSL450",
		"OpEntryPoint GLCompute",
		"OpExecutionMode",
		"OpSource OpenCL_C 120",
		"OpTypeImage",
		"OpDecorate",
		"Binding",
	} {
		if !strings.Contains(asm, want) {
			t.Errorf("assembly missing %q\n%s", want, asm)
		}
	}
	// Result ids print as %<decimal>.
	if !strings.Contains(asm, "%1 = ") {
		t.Errorf("assembly lacks %%1 result id:\n%s", asm)
	}
}

func TestCInitListOutput(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = OutputCInitList
	p, _ := compileSrc(t, emptyImageKernel, opts)

	var buf bytes.Buffer
	if err := p.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	if !strings.HasPrefix(s, "{0x07230203") {
		t.Errorf("C list does not start with the magic word: %q", s[:20])
	}
	if !strings.Contains(s, "}") {
		t.Error("C list is not brace-terminated")
	}
}

func TestInstructionListInsertion(t *testing.T) {
	var l InstructionList
	l.Append(NewInstNoResult(OpCapability, MkNum(1)))
	l.Append(NewInst(OpTypeVoid, 1))
	l.Append(NewInst(OpTypeBool, 2))

	if got := l.DecorationPoint(); got != 1 {
		t.Errorf("decoration point: got %d, want 1", got)
	}
	l.InsertAt(l.DecorationPoint(), NewInstNoResult(OpDecorate, MkID(2), MkNum(2)))
	if l.At(1).Opcode != OpDecorate {
		t.Errorf("insertion point holds %s, want OpDecorate", l.At(1).Opcode)
	}
	// Decorations chain in front of the type region, behind capabilities.
	if got := l.DecorationPoint(); got != 2 {
		t.Errorf("decoration point after insert: got %d, want 2", got)
	}
	if l.Len() != 4 {
		t.Errorf("len: got %d, want 4", l.Len())
	}
}

func TestOperandWordCounts(t *testing.T) {
	cases := []struct {
		op   Operand
		want int
	}{
		{MkID(5), 1},
		{MkNum(7), 1},
		{MkNum2(1, 2), 2},
		{MkString(""), 1},
		{MkString("abc"), 1},
		{MkString("abcd"), 2},
		{MkString("GLSL.std.450"), 4},
	}
	for _, c := range cases {
		if got := c.op.Words(); got != c.want {
			t.Errorf("Words(%v): got %d, want %d", c.op, got, c.want)
		}
	}
}
