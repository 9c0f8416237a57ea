package ir

import "testing"

func TestTypeInterning(t *testing.T) {
	c := NewTypeContext()

	if c.Int(32) != c.Int(32) {
		t.Error("i32 not interned")
	}
	if c.Int(1) != c.Bool() {
		t.Error("i1 is not the bool type")
	}
	v4a := c.Vector(c.Float(32), 4)
	v4b := c.Vector(c.Float(32), 4)
	if v4a != v4b {
		t.Error("vector types not interned")
	}
	if c.Vector(c.Float(32), 2) == v4a {
		t.Error("distinct vector lengths collapsed")
	}
	pa := c.Pointer(AddrGlobal, c.Int(32))
	pb := c.Pointer(AddrGlobal, c.Int(32))
	if pa != pb {
		t.Error("pointer types not interned")
	}
	if c.Pointer(AddrConstant, c.Int(32)) == pa {
		t.Error("address spaces collapsed in the IR")
	}
	if c.Opaque("opencl.sampler_t") != c.Opaque("opencl.sampler_t") {
		t.Error("named opaque types not interned")
	}
	fa := c.Function(c.Void(), c.Int(32))
	fb := c.Function(c.Void(), c.Int(32))
	if fa != fb {
		t.Error("function types not interned")
	}
}

func TestSizeOf(t *testing.T) {
	c := NewTypeContext()
	cases := []struct {
		t    Type
		want uint64
	}{
		{c.Int(8), 1},
		{c.Int(32), 4},
		{c.Int(64), 8},
		{c.Float(32), 4},
		{c.Vector(c.Float(32), 4), 16},
		{c.Vector(c.Float(32), 3), 16}, // vec3 pads to 4 slots
		{c.Array(c.Int(32), 10), 40},
		{c.Struct(c.Int(32), c.Float(32)), 8},
		{c.Pointer(AddrGlobal, c.Int(32)), 4},
	}
	for _, tc := range cases {
		if got := SizeOf(tc.t); got != tc.want {
			t.Errorf("SizeOf(%s): got %d, want %d", tc.t, got, tc.want)
		}
	}
}

func TestConstantKeys(t *testing.T) {
	c := NewTypeContext()
	a := &ConstantInt{Ty: c.Int(32), Val: 7}
	b := &ConstantInt{Ty: c.Int(32), Val: 7}
	if a.Key() != b.Key() {
		t.Error("equal constants have different keys")
	}
	d := &ConstantInt{Ty: c.Int(64), Val: 7}
	if a.Key() == d.Key() {
		t.Error("different types share a key")
	}
	f1 := &ConstantFloat{Ty: c.Float(32), Val: 1.5}
	f2 := &ConstantFloat{Ty: c.Float(32), Val: 1.5}
	if f1.Key() != f2.Key() {
		t.Error("equal float constants have different keys")
	}
	comp := &ConstantComposite{Ty: c.Vector(c.Int(32), 2), Elems: []Constant{a, b}}
	comp2 := &ConstantComposite{Ty: c.Vector(c.Int(32), 2), Elems: []Constant{b, a}}
	if comp.Key() != comp2.Key() {
		t.Error("equal composites have different keys")
	}
}

func TestSExtValue(t *testing.T) {
	c := NewTypeContext()
	neg := &ConstantInt{Ty: c.Int(8), Val: 0xFF}
	if got := neg.SExtValue(); got != -1 {
		t.Errorf("SExtValue(0xFF as i8): got %d, want -1", got)
	}
	pos := &ConstantInt{Ty: c.Int(32), Val: 5}
	if got := pos.SExtValue(); got != 5 {
		t.Errorf("SExtValue(5): got %d, want 5", got)
	}
}
