package ir

import (
	"fmt"
	"strings"
)

// AddressSpace identifies the OpenCL memory region a pointer addresses.
type AddressSpace uint8

const (
	AddrPrivate AddressSpace = iota // function-local
	AddrGlobal
	AddrConstant
	AddrLocal
	AddrModuleScopePrivate // module-scope private; __constant data moved here
)

func (s AddressSpace) String() string {
	switch s {
	case AddrPrivate:
		return "private"
	case AddrGlobal:
		return "global"
	case AddrConstant:
		return "constant"
	case AddrLocal:
		return "local"
	case AddrModuleScopePrivate:
		return "module_private"
	}
	return fmt.Sprintf("addrspace(%d)", uint8(s))
}

// Type is the interface implemented by all IR types. Types are interned
// structurally: two structurally equal types obtained from the same
// TypeContext are pointer-identical, so Type values may be used directly
// as map keys.
type Type interface {
	String() string
	isType()
}

// VoidType is the type of functions returning nothing.
type VoidType struct{}

// BoolType is the type of comparison results (i1).
type BoolType struct{}

// IntType is a signless integer of the given bit width.
type IntType struct {
	Width uint32
}

// FloatType is an IEEE float of the given bit width.
type FloatType struct {
	Width uint32
}

// VectorType is a fixed-length vector of a scalar element type.
type VectorType struct {
	Elem Type
	Len  uint32
}

// ArrayType is a fixed-length array.
type ArrayType struct {
	Elem Type
	Len  uint64
}

// StructType is an aggregate of ordered fields. A struct with a Name and no
// Fields is opaque; the OpenCL sampler and image types are opaque structs
// named "opencl.sampler_t", "opencl.image2d_ro_t" and so on.
type StructType struct {
	Name   string
	Fields []Type
	Opaque bool
}

// PointerType is a pointer into an address space.
type PointerType struct {
	Space AddressSpace
	Elem  Type
}

// FunctionType is a function signature.
type FunctionType struct {
	Result Type
	Params []Type
}

func (*VoidType) isType()     {}
func (*BoolType) isType()     {}
func (*IntType) isType()      {}
func (*FloatType) isType()    {}
func (*VectorType) isType()   {}
func (*ArrayType) isType()    {}
func (*StructType) isType()   {}
func (*PointerType) isType()  {}
func (*FunctionType) isType() {}

func (*VoidType) String() string { return "void" }
func (*BoolType) String() string { return "i1" }

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Width) }

func (t *FloatType) String() string {
	switch t.Width {
	case 16:
		return "half"
	case 32:
		return "float"
	case 64:
		return "double"
	}
	return fmt.Sprintf("f%d", t.Width)
}

func (t *VectorType) String() string {
	return fmt.Sprintf("<%d x %s>", t.Len, t.Elem)
}

func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
}

func (t *StructType) String() string {
	if t.Name != "" {
		return "%" + t.Name
	}
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (t *PointerType) String() string {
	if t.Space == AddrPrivate {
		return t.Elem.String() + "*"
	}
	return fmt.Sprintf("%s %s*", t.Space, t.Elem)
}

func (t *FunctionType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s (%s)", t.Result, strings.Join(parts, ", "))
}

// TypeContext interns types so structural equality implies pointer identity.
type TypeContext struct {
	byKey map[string]Type
	named map[string]*StructType

	voidTy *VoidType
	boolTy *BoolType
}

// NewTypeContext creates an empty type context.
func NewTypeContext() *TypeContext {
	return &TypeContext{
		byKey: make(map[string]Type),
		named: make(map[string]*StructType),
		voidTy: &VoidType{},
		boolTy: &BoolType{},
	}
}

func (c *TypeContext) intern(key string, mk func() Type) Type {
	if t, ok := c.byKey[key]; ok {
		return t
	}
	t := mk()
	c.byKey[key] = t
	return t
}

// Void returns the void type.
func (c *TypeContext) Void() Type { return c.voidTy }

// Bool returns the i1 type.
func (c *TypeContext) Bool() Type { return c.boolTy }

// Int returns the signless integer type of the given width.
func (c *TypeContext) Int(width uint32) Type {
	if width == 1 {
		return c.boolTy
	}
	return c.intern(fmt.Sprintf("i%d", width), func() Type {
		return &IntType{Width: width}
	})
}

// Float returns the float type of the given width.
func (c *TypeContext) Float(width uint32) Type {
	return c.intern(fmt.Sprintf("f%d", width), func() Type {
		return &FloatType{Width: width}
	})
}

// Vector returns the vector type with the given element type and length.
func (c *TypeContext) Vector(elem Type, n uint32) Type {
	return c.intern(fmt.Sprintf("v%d:%s", n, elem), func() Type {
		return &VectorType{Elem: elem, Len: n}
	})
}

// Array returns the array type with the given element type and length.
func (c *TypeContext) Array(elem Type, n uint64) Type {
	return c.intern(fmt.Sprintf("a%d:%s", n, elem), func() Type {
		return &ArrayType{Elem: elem, Len: n}
	})
}

// Pointer returns the pointer type into the given address space.
func (c *TypeContext) Pointer(space AddressSpace, elem Type) Type {
	return c.intern(fmt.Sprintf("p%d:%s", space, elem), func() Type {
		return &PointerType{Space: space, Elem: elem}
	})
}

// Struct returns the anonymous struct type with the given fields.
func (c *TypeContext) Struct(fields ...Type) Type {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	return c.intern("s{"+strings.Join(parts, ",")+"}", func() Type {
		return &StructType{Fields: fields}
	})
}

// Opaque returns the named opaque struct type, creating it on first use.
// Named structs are interned by name alone.
func (c *TypeContext) Opaque(name string) *StructType {
	if t, ok := c.named[name]; ok {
		return t
	}
	t := &StructType{Name: name, Opaque: true}
	c.named[name] = t
	return t
}

// Function returns the function type with the given result and parameters.
func (c *TypeContext) Function(result Type, params ...Type) *FunctionType {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	key := fmt.Sprintf("fn(%s)%s", strings.Join(parts, ","), result)
	return c.intern(key, func() Type {
		return &FunctionType{Result: result, Params: params}
	}).(*FunctionType)
}

// SizeOf returns the byte size of a type under OpenCL layout rules.
// Vectors of 3 elements occupy 4 slots.
func SizeOf(t Type) uint64 {
	switch ty := t.(type) {
	case *BoolType:
		return 1
	case *IntType:
		return uint64(ty.Width) / 8
	case *FloatType:
		return uint64(ty.Width) / 8
	case *VectorType:
		n := uint64(ty.Len)
		if n == 3 {
			n = 4
		}
		return n * SizeOf(ty.Elem)
	case *ArrayType:
		return ty.Len * SizeOf(ty.Elem)
	case *StructType:
		var total uint64
		for _, f := range ty.Fields {
			total += SizeOf(f)
		}
		return total
	case *PointerType:
		return 4
	}
	panic(fmt.Sprintf("ir: SizeOf on unsized type %s", t))
}

// IsImage reports whether t is one of the opaque OpenCL image struct types.
func IsImage(t Type) bool {
	s, ok := t.(*StructType)
	return ok && s.Opaque && strings.HasPrefix(s.Name, "opencl.image")
}

// IsSampler reports whether t is the opaque OpenCL sampler struct type.
func IsSampler(t Type) bool {
	s, ok := t.(*StructType)
	return ok && s.Opaque && s.Name == "opencl.sampler_t"
}
