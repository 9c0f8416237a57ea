package spirv

import (
	"strings"

	"github.com/gogpu/clspirv/ir"
)

// compositeConstructPrefix marks compiler-generated composite construction
// helpers produced by earlier passes.
const compositeConstructPrefix = "clspv.composite_construct."

func isReadImageBuiltin(name string) bool {
	return name == "read_imagef"
}

func isWriteImageBuiltin(name string) bool {
	return name == "write_imagef"
}

func isImageQueryBuiltin(name string) bool {
	return name == "get_image_width" || name == "get_image_height"
}

func isBarrierBuiltin(name string) bool {
	return name == "barrier" || name == "__spirv_control_barrier"
}

func isMemFenceBuiltin(name string) bool {
	return name == "mem_fence" || name == "__spirv_memory_barrier"
}

// scalarKindOf distinguishes float from integer call sites; the IR's
// integers are signless, so integer variants pick the signed extended
// instruction.
func scalarKindOf(t ir.Type) ir.Type {
	if vt, ok := t.(*ir.VectorType); ok {
		return vt.Elem
	}
	return t
}

func isFloatKind(t ir.Type) bool {
	_, ok := scalarKindOf(t).(*ir.FloatType)
	return ok
}

// Extended instructions selected purely by name.
var extInstByName = map[string]GLSLExtInst{
	"acos": GLSLExtInstAcos, "acosh": GLSLExtInstAcosh,
	"asin": GLSLExtInstAsin, "asinh": GLSLExtInstAsinh,
	"atan": GLSLExtInstAtan, "atan2": GLSLExtInstAtan2,
	"atanh": GLSLExtInstAtanh,
	"ceil":  GLSLExtInstCeil, "floor": GLSLExtInstFloor,
	"sin": GLSLExtInstSin, "sinh": GLSLExtInstSinh,
	"cos": GLSLExtInstCos, "cosh": GLSLExtInstCosh,
	"tan": GLSLExtInstTan, "tanh": GLSLExtInstTanh,
	"exp": GLSLExtInstExp, "exp2": GLSLExtInstExp2,
	"log": GLSLExtInstLog, "log2": GLSLExtInstLog2,
	"fabs":  GLSLExtInstFAbs,
	"ldexp": GLSLExtInstLdexp, "frexp": GLSLExtInstFrexp,
	"pow": GLSLExtInstPow, "powr": GLSLExtInstPow,
	"round": GLSLExtInstRound, "trunc": GLSLExtInstTrunc,
	"sqrt": GLSLExtInstSqrt, "rsqrt": GLSLExtInstInverseSqrt,
	"sign": GLSLExtInstFSign, "mix": GLSLExtInstFMix,
	"step": GLSLExtInstStep, "fract": GLSLExtInstFract,
	"degrees": GLSLExtInstDegrees, "radians": GLSLExtInstRadians,
	"length": GLSLExtInstLength, "distance": GLSLExtInstDistance,
	"cross": GLSLExtInstCross, "normalize": GLSLExtInstNormalize,
	"fma": GLSLExtInstFma, "fmuladd": GLSLExtInstFma,
	"fmin": GLSLExtInstFMin, "fmax": GLSLExtInstFMax,
	"spirv.pack.v2f16":   GLSLExtInstPackHalf2x16,
	"spirv.unpack.v2f16": GLSLExtInstUnpackHalf2x16,
}

// extInstFor returns the GLSL.std.450 instruction a call lowers to
// directly, or GLSLExtInstBad. The half_ and native_ OpenCL prefixes map to
// the same instruction as the precise form; min, max, clamp, and abs split
// on the operand's scalar kind.
func extInstFor(inst *ir.Instruction) GLSLExtInst {
	name := inst.Callee.Nam
	name = strings.TrimPrefix(name, "half_")
	name = strings.TrimPrefix(name, "native_")

	argTy := inst.Ty
	if len(inst.Operands) > 0 {
		argTy = inst.Operands[0].Type()
	}
	switch name {
	case "min":
		if isFloatKind(argTy) {
			return GLSLExtInstFMin
		}
		return GLSLExtInstSMin
	case "max":
		if isFloatKind(argTy) {
			return GLSLExtInstFMax
		}
		return GLSLExtInstSMax
	case "clamp":
		if isFloatKind(argTy) {
			return GLSLExtInstFClamp
		}
		return GLSLExtInstSClamp
	case "abs":
		if isFloatKind(argTy) {
			return GLSLExtInstFAbs
		}
		return GLSLExtInstSAbs
	}
	if e, ok := extInstByName[name]; ok {
		return e
	}
	return GLSLExtInstBad
}

// indirectExtInstFor returns the extended instruction a call lowers to
// indirectly: the builtin needs the extended instruction plus one follow-up
// op (OpISub by 31 for clz atop FindUMsb; OpFMul by 1/π for the *pi
// inverse-trig family).
func indirectExtInstFor(name string) GLSLExtInst {
	switch name {
	case "clz":
		return GLSLExtInstFindUMsb
	case "acospi":
		return GLSLExtInstAcos
	case "asinpi":
		return GLSLExtInstAsin
	case "atan2pi":
		return GLSLExtInstAtan2
	}
	return GLSLExtInstBad
}

// atomicOpcodeFor maps an atomicrmw kind to its SPIR-V opcode. Signless
// integers take the signed min/max forms unless the u-variant was named.
func atomicOpcodeFor(kind ir.AtomicKind) (Opcode, bool) {
	switch kind {
	case ir.AtomicAdd:
		return OpAtomicIAdd, true
	case ir.AtomicSub:
		return OpAtomicISub, true
	case ir.AtomicXchg:
		return OpAtomicExchange, true
	case ir.AtomicMin:
		return OpAtomicSMin, true
	case ir.AtomicMax:
		return OpAtomicSMax, true
	case ir.AtomicUMin:
		return OpAtomicUMin, true
	case ir.AtomicUMax:
		return OpAtomicUMax, true
	case ir.AtomicAnd:
		return OpAtomicAnd, true
	case ir.AtomicOr:
		return OpAtomicOr, true
	case ir.AtomicXor:
		return OpAtomicXor, true
	}
	return OpNop, false
}
