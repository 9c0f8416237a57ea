package spirv

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/gogpu/clspirv/ir"
)

// constKey returns the interning key for a constant. <4 x i8> constants
// share their key with the i32 carrying the same byte pattern, so the two
// collapse onto one id.
func (p *Producer) constKey(c ir.Constant) string {
	if folded, ok := p.foldV4I8(c); ok {
		return folded.Key()
	}
	return c.Key()
}

// foldV4I8 folds a <4 x i8> constant into the equivalent i32: the four
// element bytes packed most-significant-first by index. Undef elements
// contribute zero bytes.
func (p *Producer) foldV4I8(c ir.Constant) (*ir.ConstantInt, bool) {
	if !isV4I8(c.Type()) {
		return nil, false
	}
	i32 := p.mod.Types.Int(32)
	switch cst := c.(type) {
	case *ir.ConstantNull:
		return &ir.ConstantInt{Ty: i32, Val: 0}, true
	case *ir.ConstantComposite:
		var v uint64
		for _, e := range cst.Elems {
			var b uint64
			if ci, ok := e.(*ir.ConstantInt); ok {
				b = ci.Val
			}
			v = v<<8 | b&0xFF
		}
		return &ir.ConstantInt{Ty: i32, Val: v}, true
	}
	return nil, false
}

// emitConstants drains the discovery worklist in order.
func (p *Producer) emitConstants() error {
	for _, cst := range p.constants {
		key := p.constKey(cst)
		if _, done := p.constMap[key]; done {
			continue
		}
		id, err := p.emitConstant(cst)
		if err != nil {
			return err
		}
		p.constMap[key] = id
	}
	return nil
}

//nolint:gocyclo // one arm per constant kind
func (p *Producer) emitConstant(cst ir.Constant) (uint32, error) {
	if folded, ok := p.foldV4I8(cst); ok {
		cst = folded
	}

	tyID, err := p.lookupType(cst.Type())
	if err != nil {
		return 0, err
	}

	switch c := cst.(type) {
	case *ir.ConstantInt:
		if _, isBool := c.Type().(*ir.BoolType); isBool {
			op := OpConstantFalse
			if c.Val != 0 {
				op = OpConstantTrue
			}
			id := p.reserveID()
			p.insts.Append(NewInst(op, id, MkID(tyID)))
			return id, nil
		}
		id := p.reserveID()
		if it, ok := c.Type().(*ir.IntType); ok && it.Width == 64 {
			p.insts.Append(NewInst(OpConstant, id, MkID(tyID),
				MkNum2(uint32(c.Val), uint32(c.Val>>32))))
		} else {
			p.insts.Append(NewInst(OpConstant, id, MkID(tyID),
				MkNum(uint32(c.Val))))
		}
		return id, nil

	case *ir.ConstantFloat:
		id := p.reserveID()
		ft := c.Type().(*ir.FloatType)
		switch ft.Width {
		case 64:
			bits := math.Float64bits(c.Val)
			p.insts.Append(NewInst(OpConstant, id, MkID(tyID),
				MkNum2(uint32(bits), uint32(bits>>32))))
		case 16:
			p.insts.Append(NewInst(OpConstant, id, MkID(tyID),
				MkNum(uint32(float16Bits(c.Val)))))
		default:
			p.insts.Append(NewInst(OpConstant, id, MkID(tyID),
				MkNum(math.Float32bits(float32(c.Val)))))
		}
		return id, nil

	case *ir.ConstantComposite:
		ops := []Operand{MkID(tyID)}
		for _, e := range c.Elems {
			eid, err := p.lookupConstant(e)
			if err != nil {
				return 0, err
			}
			ops = append(ops, MkID(eid))
		}
		id := p.reserveID()
		p.insts.Append(NewInst(OpConstantComposite, id, ops...))
		return id, nil

	case *ir.ConstantNull:
		id := p.reserveID()
		p.insts.Append(NewInst(OpConstantNull, id, MkID(tyID)))
		return id, nil

	case *ir.Undef:
		id := p.reserveID()
		if p.opts.HackUndef && isNumeric(c.Type()) {
			p.insts.Append(NewInst(OpConstantNull, id, MkID(tyID)))
		} else {
			p.insts.Append(NewInst(OpUndef, id, MkID(tyID)))
		}
		return id, nil
	}
	return 0, unsupportedf("constant %s %s", cst.Type(), cst.Name())
}

func isNumeric(t ir.Type) bool {
	switch ty := t.(type) {
	case *ir.IntType, *ir.FloatType:
		return true
	case *ir.VectorType:
		return isNumeric(ty.Elem)
	}
	return false
}

// float16Bits converts to IEEE binary16, round-to-nearest-even, for half
// constants.
func float16Bits(v float64) uint16 {
	f := float32(v)
	bits := math.Float32bits(f)
	sign := uint16(bits >> 16 & 0x8000)
	exp := int32(bits>>23&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF
	switch {
	case exp >= 31:
		return sign | 0x7C00 // infinity (or overflow)
	case exp <= 0:
		return sign // flush to zero
	}
	h := uint32(sign) | uint32(exp)<<10 | mant>>13
	// A carry out of the mantissa bumps the exponent, and out of the
	// largest exponent yields infinity.
	if rem := mant & 0x1FFF; rem > 0x1000 || rem == 0x1000 && h&1 == 1 {
		h++
	}
	return uint16(h)
}

// constBytes renders a constant's little-endian byte image, used by the
// descriptor map's hexbytes field in storage-buffer constants mode.
func constBytes(c ir.Constant) []byte {
	var buf bytes.Buffer
	writeConstBytes(&buf, c)
	return buf.Bytes()
}

func writeConstBytes(buf *bytes.Buffer, c ir.Constant) {
	switch cst := c.(type) {
	case *ir.ConstantInt:
		writeScalarBytes(buf, cst.Type(), cst.Val)
	case *ir.ConstantFloat:
		ft := cst.Type().(*ir.FloatType)
		switch ft.Width {
		case 64:
			writeScalarBytes(buf, ft, math.Float64bits(cst.Val))
		case 16:
			writeScalarBytes(buf, ft, uint64(float16Bits(cst.Val)))
		default:
			writeScalarBytes(buf, ft, uint64(math.Float32bits(float32(cst.Val))))
		}
	case *ir.ConstantComposite:
		for _, e := range cst.Elems {
			writeConstBytes(buf, e)
		}
	case *ir.ConstantNull, *ir.Undef:
		buf.Write(make([]byte, ir.SizeOf(c.Type())))
	}
}

func writeScalarBytes(buf *bytes.Buffer, t ir.Type, bits uint64) {
	n := ir.SizeOf(t)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], bits)
	buf.Write(tmp[:n])
}
