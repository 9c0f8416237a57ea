package clspirv

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/gogpu/clspirv/spirv"
)

const addOneKernel = `
kernel void @add_one(i32 %x, global i32* %y) {
entry:
  %a = add i32 %x, i32 1
  %q = getelementptr global i32* %y, i32 0
  store i32 %a, global i32* %q
  ret void
}
`

func TestCompile(t *testing.T) {
	bin, descMap, err := Compile(addOneKernel)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(bin) < 20 || len(bin)%4 != 0 {
		t.Fatalf("bad binary size %d", len(bin))
	}
	if got := binary.LittleEndian.Uint32(bin[0:4]); got != spirv.MagicNumber {
		t.Errorf("magic: got %#x", got)
	}
	if !strings.Contains(descMap, "kernel,add_one,arg,x,") {
		t.Errorf("descriptor map missing arg x:\n%s", descMap)
	}
	if !strings.Contains(descMap, "argKind,buffer") {
		t.Errorf("descriptor map missing buffer kind:\n%s", descMap)
	}
}

func TestCompileAssembly(t *testing.T) {
	opts := spirv.DefaultOptions()
	opts.Format = spirv.OutputAssembly
	out, _, err := CompileWithOptions(addOneKernel, opts)
	if err != nil {
		t.Fatalf("CompileWithOptions: %v", err)
	}
	asm := string(out)
	if !strings.Contains(asm, "OpEntryPoint GLCompute") {
		t.Errorf("assembly missing entry point:\n%s", asm)
	}
	if !strings.Contains(asm, "OpIAdd") {
		t.Errorf("assembly missing OpIAdd:\n%s", asm)
	}
}

func TestCompileParseError(t *testing.T) {
	if _, _, err := Compile("kernel void @broken("); err == nil {
		t.Fatal("expected a parse error")
	}
}
