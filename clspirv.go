// Package clspirv compiles OpenCL-style kernel IR modules to Vulkan
// SPIR-V.
//
// The package wires the producer pass end to end: it consumes an ir.Module
// (or its textual form), lowers it to a SPIR-V instruction stream, and
// serializes the result as a binary, an assembly listing, or a C
// initializer list, together with a descriptor-map sidecar describing how
// each kernel argument binds to Vulkan resources.
//
// Example:
//
//	src := `
//	kernel void @add_one(i32 %x, global i32* %y) {
//	entry:
//	  %a = add i32 %x, i32 1
//	  %q = getelementptr global i32* %y, i32 0
//	  store i32 %a, global i32* %q
//	  ret void
//	}
//	`
//	bin, descMap, err := clspirv.Compile(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For full control over options and output streams, use
// spirv.NewProducer directly.
package clspirv

import (
	"bytes"
	"fmt"

	"github.com/gogpu/clspirv/ir"
	"github.com/gogpu/clspirv/spirv"
)

// Compile parses textual IR and produces a SPIR-V binary with default
// options, returning the binary and the descriptor map text.
func Compile(source string) ([]byte, string, error) {
	return CompileWithOptions(source, spirv.DefaultOptions())
}

// CompileWithOptions parses textual IR and produces output in the
// configured format.
func CompileWithOptions(source string, opts spirv.Options) ([]byte, string, error) {
	mod, err := ir.Parse(source)
	if err != nil {
		return nil, "", fmt.Errorf("clspirv: %w", err)
	}
	return CompileModule(mod, opts)
}

// CompileModule lowers an in-memory IR module.
func CompileModule(mod *ir.Module, opts spirv.Options) ([]byte, string, error) {
	var descMap bytes.Buffer
	p := spirv.NewProducer(opts, &descMap)
	if err := p.Compile(mod); err != nil {
		return nil, "", fmt.Errorf("clspirv: %w", err)
	}
	var out bytes.Buffer
	if err := p.Serialize(&out); err != nil {
		return nil, "", fmt.Errorf("clspirv: %w", err)
	}
	return out.Bytes(), descMap.String(), nil
}
