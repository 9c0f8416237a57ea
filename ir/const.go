package ir

import (
	"fmt"
	"math"
	"strings"
)

// Constant is a typed immediate value.
type Constant interface {
	Value
	// Key returns a stable identity string; two constants with equal keys
	// denote the same value and must share one SPIR-V id.
	Key() string
	isConstant()
}

// ConstantInt is an integer (or boolean) immediate. Val holds the
// zero-extended bit pattern.
type ConstantInt struct {
	Ty  Type
	Val uint64
}

func (c *ConstantInt) Type() Type   { return c.Ty }
func (c *ConstantInt) Name() string { return fmt.Sprintf("%d", c.Val) }
func (c *ConstantInt) Key() string  { return fmt.Sprintf("int:%s:%d", c.Ty, c.Val) }
func (c *ConstantInt) isConstant()  {}

// SExtValue returns the value sign-extended from the type's width.
func (c *ConstantInt) SExtValue() int64 {
	w := uint32(32)
	if it, ok := c.Ty.(*IntType); ok {
		w = it.Width
	}
	shift := 64 - uint(w)
	return int64(c.Val<<shift) >> shift
}

// ConstantFloat is a float immediate; Val carries the exact value and the
// type selects the encoded width.
type ConstantFloat struct {
	Ty  Type
	Val float64
}

func (c *ConstantFloat) Type() Type   { return c.Ty }
func (c *ConstantFloat) Name() string { return fmt.Sprintf("%g", c.Val) }
func (c *ConstantFloat) Key() string {
	return fmt.Sprintf("float:%s:%016x", c.Ty, math.Float64bits(c.Val))
}
func (c *ConstantFloat) isConstant() {}

// ConstantComposite is a vector, array, or struct immediate.
type ConstantComposite struct {
	Ty    Type
	Elems []Constant
}

func (c *ConstantComposite) Type() Type   { return c.Ty }
func (c *ConstantComposite) Name() string { return "composite" }
func (c *ConstantComposite) Key() string {
	parts := make([]string, len(c.Elems))
	for i, e := range c.Elems {
		parts[i] = e.Key()
	}
	return fmt.Sprintf("agg:%s:[%s]", c.Ty, strings.Join(parts, " "))
}
func (c *ConstantComposite) isConstant() {}

// ConstantNull is a zero-initialized value of any type.
type ConstantNull struct {
	Ty Type
}

func (c *ConstantNull) Type() Type   { return c.Ty }
func (c *ConstantNull) Name() string { return "zeroinitializer" }
func (c *ConstantNull) Key() string  { return "null:" + c.Ty.String() }
func (c *ConstantNull) isConstant()  {}

// Undef is an undefined value.
type Undef struct {
	Ty Type
}

func (c *Undef) Type() Type   { return c.Ty }
func (c *Undef) Name() string { return "undef" }
func (c *Undef) Key() string  { return "undef:" + c.Ty.String() }
func (c *Undef) isConstant()  {}
