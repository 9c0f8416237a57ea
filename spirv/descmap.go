package spirv

import (
	"encoding/hex"
	"fmt"
	"io"
)

// DescriptorMapWriter emits the CSV-like sidecar describing how kernel
// arguments, literal samplers, and module constants bind to Vulkan
// resources. One record per line, newline-terminated.
type DescriptorMapWriter struct {
	w io.Writer
}

// NewDescriptorMapWriter wraps w.
func NewDescriptorMapWriter(w io.Writer) *DescriptorMapWriter {
	return &DescriptorMapWriter{w: w}
}

// WriteArg records a descriptor-bound kernel argument.
func (d *DescriptorMapWriter) WriteArg(kernel, arg string, ordinal, set, binding, offset uint32, kind string) error {
	_, err := fmt.Fprintf(d.w,
		"kernel,%s,arg,%s,argOrdinal,%d,descriptorSet,%d,binding,%d,offset,%d,argKind,%s\n",
		kernel, arg, ordinal, set, binding, offset, kind)
	return err
}

// WriteLocalArg records a pointer-to-local argument, which consumes no
// binding; its array length is a specialization constant.
func (d *DescriptorMapWriter) WriteLocalArg(kernel, arg string, ordinal uint32, kind string, elemSize, specID uint32) error {
	_, err := fmt.Fprintf(d.w,
		"kernel,%s,arg,%s,argOrdinal,%d,argKind,%s,arrayElemSize,%d,arrayNumElemSpecId,%d\n",
		kernel, arg, ordinal, kind, elemSize, specID)
	return err
}

// WriteSampler records a literal sampler binding.
func (d *DescriptorMapWriter) WriteSampler(literal uint32, expr string, set, binding uint32) error {
	_, err := fmt.Fprintf(d.w,
		"sampler,%d,samplerExpr,\"%s\",descriptorSet,%d,binding,%d\n",
		literal, expr, set, binding)
	return err
}

// WriteConstant records the module-constants storage buffer with its
// initializer bytes.
func (d *DescriptorMapWriter) WriteConstant(set uint32, data []byte) error {
	_, err := fmt.Fprintf(d.w,
		"constant,descriptorSet,%d,binding,0,kind,buffer,hexbytes,%s\n",
		set, hex.EncodeToString(data))
	return err
}
