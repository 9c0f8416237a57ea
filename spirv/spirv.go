// Package spirv lowers OpenCL-style kernel IR modules to Vulkan-consumable
// SPIR-V shader modules.
//
// The Producer is the final code-generation back-end of the toolchain: it
// discovers and interns every type and constant the output needs, synthesizes
// the module-scope resource variables and descriptor bindings Vulkan
// requires, translates each IR instruction, resolves forward references in a
// deferred fixup phase, inserts structured control-flow merges, and
// serializes the result as a binary or an assembly listing, together with a
// descriptor-map sidecar.
package spirv

import "fmt"

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Word returns the version encoded as a header word.
func (v Version) Word() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8
}

// Version1_0 is the Vulkan 1.0 baseline targeted by the producer.
var Version1_0 = Version{1, 0}

// SPIR-V module header constants.
const (
	MagicNumber uint32 = 0x07230203
	GeneratorID uint32 = 3 << 16
)

// Opcode is a SPIR-V opcode.
type Opcode uint16

// Opcodes used by the producer (SPIR-V 1.0 numbering).
const (
	OpNop            Opcode = 0
	OpUndef          Opcode = 1
	OpSource         Opcode = 3
	OpName           Opcode = 5
	OpMemberName     Opcode = 6
	OpExtension      Opcode = 10
	OpExtInstImport  Opcode = 11
	OpExtInst        Opcode = 12
	OpMemoryModel    Opcode = 14
	OpEntryPoint     Opcode = 15
	OpExecutionMode  Opcode = 16
	OpCapability     Opcode = 17
	OpTypeVoid       Opcode = 19
	OpTypeBool       Opcode = 20
	OpTypeInt        Opcode = 21
	OpTypeFloat      Opcode = 22
	OpTypeVector     Opcode = 23
	OpTypeImage      Opcode = 25
	OpTypeSampler    Opcode = 26
	OpTypeSampledImage Opcode = 27
	OpTypeArray        Opcode = 28
	OpTypeRuntimeArray Opcode = 29
	OpTypeStruct       Opcode = 30
	OpTypePointer      Opcode = 32
	OpTypeFunction     Opcode = 33
	OpConstantTrue     Opcode = 41
	OpConstantFalse    Opcode = 42
	OpConstant         Opcode = 43
	OpConstantComposite Opcode = 44
	OpConstantNull      Opcode = 46
	OpSpecConstant      Opcode = 50
	OpSpecConstantComposite Opcode = 51
	OpFunction              Opcode = 54
	OpFunctionParameter     Opcode = 55
	OpFunctionEnd           Opcode = 56
	OpFunctionCall          Opcode = 57
	OpVariable              Opcode = 59
	OpLoad                  Opcode = 61
	OpStore                 Opcode = 62
	OpCopyMemory            Opcode = 63
	OpAccessChain           Opcode = 65
	OpPtrAccessChain        Opcode = 67
	OpDecorate              Opcode = 71
	OpMemberDecorate        Opcode = 72
	OpVectorExtractDynamic  Opcode = 77
	OpVectorInsertDynamic   Opcode = 78
	OpVectorShuffle         Opcode = 79
	OpCompositeConstruct    Opcode = 80
	OpCompositeExtract      Opcode = 81
	OpCompositeInsert       Opcode = 82
	OpSampledImage          Opcode = 86
	OpImageSampleExplicitLod Opcode = 88
	OpImageWrite             Opcode = 99
	OpImageQuerySize         Opcode = 104
	OpConvertFToU            Opcode = 109
	OpConvertFToS            Opcode = 110
	OpConvertSToF            Opcode = 111
	OpConvertUToF            Opcode = 112
	OpUConvert               Opcode = 113
	OpSConvert               Opcode = 114
	OpFConvert               Opcode = 115
	OpBitcast                Opcode = 124
	OpSNegate                Opcode = 126
	OpFNegate                Opcode = 127
	OpIAdd                   Opcode = 128
	OpFAdd                   Opcode = 129
	OpISub                   Opcode = 130
	OpFSub                   Opcode = 131
	OpIMul                   Opcode = 132
	OpFMul                   Opcode = 133
	OpUDiv                   Opcode = 134
	OpSDiv                   Opcode = 135
	OpFDiv                   Opcode = 136
	OpUMod                   Opcode = 137
	OpSRem                   Opcode = 138
	OpFRem                   Opcode = 140
	OpDot                    Opcode = 148
	OpAny                    Opcode = 154
	OpAll                    Opcode = 155
	OpIsNan                  Opcode = 156
	OpIsInf                  Opcode = 157
	OpOrdered                Opcode = 162
	OpUnordered              Opcode = 163
	OpLogicalEqual           Opcode = 164
	OpLogicalNotEqual        Opcode = 165
	OpLogicalOr              Opcode = 166
	OpLogicalAnd             Opcode = 167
	OpLogicalNot             Opcode = 168
	OpSelect                 Opcode = 169
	OpIEqual                 Opcode = 170
	OpINotEqual              Opcode = 171
	OpUGreaterThan           Opcode = 172
	OpSGreaterThan           Opcode = 173
	OpUGreaterThanEqual      Opcode = 174
	OpSGreaterThanEqual      Opcode = 175
	OpULessThan              Opcode = 176
	OpSLessThan              Opcode = 177
	OpULessThanEqual         Opcode = 178
	OpSLessThanEqual         Opcode = 179
	OpFOrdEqual              Opcode = 180
	OpFUnordEqual            Opcode = 181
	OpFOrdNotEqual           Opcode = 182
	OpFUnordNotEqual         Opcode = 183
	OpFOrdLessThan           Opcode = 184
	OpFUnordLessThan         Opcode = 185
	OpFOrdGreaterThan        Opcode = 186
	OpFUnordGreaterThan      Opcode = 187
	OpFOrdLessThanEqual      Opcode = 188
	OpFUnordLessThanEqual    Opcode = 189
	OpFOrdGreaterThanEqual   Opcode = 190
	OpFUnordGreaterThanEqual Opcode = 191
	OpShiftRightLogical      Opcode = 194
	OpShiftRightArithmetic   Opcode = 195
	OpShiftLeftLogical       Opcode = 196
	OpBitwiseOr              Opcode = 197
	OpBitwiseXor             Opcode = 198
	OpBitwiseAnd             Opcode = 199
	OpNot                    Opcode = 200
	OpBitCount               Opcode = 205
	OpControlBarrier         Opcode = 224
	OpMemoryBarrier          Opcode = 225
	OpAtomicExchange         Opcode = 229
	OpAtomicIIncrement       Opcode = 232
	OpAtomicIDecrement       Opcode = 233
	OpAtomicIAdd             Opcode = 234
	OpAtomicISub             Opcode = 235
	OpAtomicSMin             Opcode = 236
	OpAtomicUMin             Opcode = 237
	OpAtomicSMax             Opcode = 238
	OpAtomicUMax             Opcode = 239
	OpAtomicAnd              Opcode = 240
	OpAtomicOr               Opcode = 241
	OpAtomicXor              Opcode = 242
	OpPhi                    Opcode = 245
	OpLoopMerge              Opcode = 246
	OpSelectionMerge         Opcode = 247
	OpLabel                  Opcode = 248
	OpBranch                 Opcode = 249
	OpBranchConditional      Opcode = 250
	OpReturn                 Opcode = 253
	OpReturnValue            Opcode = 254
	OpUnreachable            Opcode = 255
)

var opcodeNames = map[Opcode]string{
	OpNop: "OpNop", OpUndef: "OpUndef", OpSource: "OpSource",
	OpName: "OpName", OpMemberName: "OpMemberName",
	OpExtension: "OpExtension", OpExtInstImport: "OpExtInstImport",
	OpExtInst: "OpExtInst", OpMemoryModel: "OpMemoryModel",
	OpEntryPoint: "OpEntryPoint", OpExecutionMode: "OpExecutionMode",
	OpCapability: "OpCapability",
	OpTypeVoid:   "OpTypeVoid", OpTypeBool: "OpTypeBool", OpTypeInt: "OpTypeInt",
	OpTypeFloat: "OpTypeFloat", OpTypeVector: "OpTypeVector",
	OpTypeImage: "OpTypeImage", OpTypeSampler: "OpTypeSampler",
	OpTypeSampledImage: "OpTypeSampledImage", OpTypeArray: "OpTypeArray",
	OpTypeRuntimeArray: "OpTypeRuntimeArray", OpTypeStruct: "OpTypeStruct",
	OpTypePointer: "OpTypePointer", OpTypeFunction: "OpTypeFunction",
	OpConstantTrue: "OpConstantTrue", OpConstantFalse: "OpConstantFalse",
	OpConstant: "OpConstant", OpConstantComposite: "OpConstantComposite",
	OpConstantNull: "OpConstantNull", OpSpecConstant: "OpSpecConstant",
	OpSpecConstantComposite: "OpSpecConstantComposite",
	OpFunction:              "OpFunction", OpFunctionParameter: "OpFunctionParameter",
	OpFunctionEnd: "OpFunctionEnd", OpFunctionCall: "OpFunctionCall",
	OpVariable: "OpVariable", OpLoad: "OpLoad", OpStore: "OpStore",
	OpCopyMemory: "OpCopyMemory", OpAccessChain: "OpAccessChain",
	OpPtrAccessChain: "OpPtrAccessChain", OpDecorate: "OpDecorate",
	OpMemberDecorate: "OpMemberDecorate",
	OpVectorExtractDynamic: "OpVectorExtractDynamic",
	OpVectorInsertDynamic:  "OpVectorInsertDynamic",
	OpVectorShuffle:        "OpVectorShuffle",
	OpCompositeConstruct:   "OpCompositeConstruct",
	OpCompositeExtract:     "OpCompositeExtract",
	OpCompositeInsert:      "OpCompositeInsert",
	OpSampledImage:         "OpSampledImage",
	OpImageSampleExplicitLod: "OpImageSampleExplicitLod",
	OpImageWrite:             "OpImageWrite",
	OpImageQuerySize:         "OpImageQuerySize",
	OpConvertFToU:            "OpConvertFToU", OpConvertFToS: "OpConvertFToS",
	OpConvertSToF: "OpConvertSToF", OpConvertUToF: "OpConvertUToF",
	OpUConvert: "OpUConvert", OpSConvert: "OpSConvert", OpFConvert: "OpFConvert",
	OpBitcast: "OpBitcast", OpSNegate: "OpSNegate", OpFNegate: "OpFNegate",
	OpIAdd: "OpIAdd", OpFAdd: "OpFAdd", OpISub: "OpISub", OpFSub: "OpFSub",
	OpIMul: "OpIMul", OpFMul: "OpFMul", OpUDiv: "OpUDiv", OpSDiv: "OpSDiv",
	OpFDiv: "OpFDiv", OpUMod: "OpUMod", OpSRem: "OpSRem", OpFRem: "OpFRem",
	OpDot: "OpDot", OpAny: "OpAny", OpAll: "OpAll",
	OpIsNan: "OpIsNan", OpIsInf: "OpIsInf",
	OpOrdered: "OpOrdered", OpUnordered: "OpUnordered",
	OpLogicalEqual: "OpLogicalEqual", OpLogicalNotEqual: "OpLogicalNotEqual",
	OpLogicalOr: "OpLogicalOr", OpLogicalAnd: "OpLogicalAnd",
	OpLogicalNot: "OpLogicalNot", OpSelect: "OpSelect",
	OpIEqual: "OpIEqual", OpINotEqual: "OpINotEqual",
	OpUGreaterThan: "OpUGreaterThan", OpSGreaterThan: "OpSGreaterThan",
	OpUGreaterThanEqual: "OpUGreaterThanEqual",
	OpSGreaterThanEqual: "OpSGreaterThanEqual",
	OpULessThan:         "OpULessThan", OpSLessThan: "OpSLessThan",
	OpULessThanEqual: "OpULessThanEqual", OpSLessThanEqual: "OpSLessThanEqual",
	OpFOrdEqual: "OpFOrdEqual", OpFUnordEqual: "OpFUnordEqual",
	OpFOrdNotEqual: "OpFOrdNotEqual", OpFUnordNotEqual: "OpFUnordNotEqual",
	OpFOrdLessThan: "OpFOrdLessThan", OpFUnordLessThan: "OpFUnordLessThan",
	OpFOrdGreaterThan: "OpFOrdGreaterThan", OpFUnordGreaterThan: "OpFUnordGreaterThan",
	OpFOrdLessThanEqual:    "OpFOrdLessThanEqual",
	OpFUnordLessThanEqual:  "OpFUnordLessThanEqual",
	OpFOrdGreaterThanEqual: "OpFOrdGreaterThanEqual",
	OpFUnordGreaterThanEqual: "OpFUnordGreaterThanEqual",
	OpShiftRightLogical:      "OpShiftRightLogical",
	OpShiftRightArithmetic:   "OpShiftRightArithmetic",
	OpShiftLeftLogical:       "OpShiftLeftLogical",
	OpBitwiseOr:              "OpBitwiseOr", OpBitwiseXor: "OpBitwiseXor",
	OpBitwiseAnd: "OpBitwiseAnd", OpNot: "OpNot", OpBitCount: "OpBitCount",
	OpControlBarrier: "OpControlBarrier", OpMemoryBarrier: "OpMemoryBarrier",
	OpAtomicExchange: "OpAtomicExchange",
	OpAtomicIIncrement: "OpAtomicIIncrement", OpAtomicIDecrement: "OpAtomicIDecrement",
	OpAtomicIAdd: "OpAtomicIAdd", OpAtomicISub: "OpAtomicISub",
	OpAtomicSMin: "OpAtomicSMin", OpAtomicUMin: "OpAtomicUMin",
	OpAtomicSMax: "OpAtomicSMax", OpAtomicUMax: "OpAtomicUMax",
	OpAtomicAnd: "OpAtomicAnd", OpAtomicOr: "OpAtomicOr", OpAtomicXor: "OpAtomicXor",
	OpPhi: "OpPhi", OpLoopMerge: "OpLoopMerge", OpSelectionMerge: "OpSelectionMerge",
	OpLabel: "OpLabel", OpBranch: "OpBranch",
	OpBranchConditional: "OpBranchConditional",
	OpReturn:            "OpReturn", OpReturnValue: "OpReturnValue",
	OpUnreachable: "OpUnreachable",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", uint16(op))
}

// StorageClass is a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassCrossWorkgroup  StorageClass = 5
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassPushConstant    StorageClass = 9
	StorageClassStorageBuffer   StorageClass = 12
)

var storageClassNames = map[StorageClass]string{
	StorageClassUniformConstant: "UniformConstant",
	StorageClassInput:           "Input",
	StorageClassUniform:         "Uniform",
	StorageClassOutput:          "Output",
	StorageClassWorkgroup:       "Workgroup",
	StorageClassCrossWorkgroup:  "CrossWorkgroup",
	StorageClassPrivate:         "Private",
	StorageClassFunction:        "Function",
	StorageClassPushConstant:    "PushConstant",
	StorageClassStorageBuffer:   "StorageBuffer",
}

func (s StorageClass) String() string {
	if n, ok := storageClassNames[s]; ok {
		return n
	}
	return fmt.Sprintf("StorageClass(%d)", uint32(s))
}

// Capability is a SPIR-V capability.
type Capability uint32

const (
	CapabilityShader  Capability = 1
	CapabilityFloat16 Capability = 9
	CapabilityFloat64 Capability = 10
	CapabilityInt64   Capability = 11
	CapabilityInt16   Capability = 22
	CapabilityImageQuery Capability = 50
	CapabilityStorageImageWriteWithoutFormat Capability = 56
	CapabilityVariablePointersStorageBuffer  Capability = 4441
	CapabilityVariablePointers               Capability = 4442
)

var capabilityNames = map[Capability]string{
	CapabilityShader:     "Shader",
	CapabilityFloat16:    "Float16",
	CapabilityFloat64:    "Float64",
	CapabilityInt64:      "Int64",
	CapabilityInt16:      "Int16",
	CapabilityImageQuery: "ImageQuery",
	CapabilityStorageImageWriteWithoutFormat: "StorageImageWriteWithoutFormat",
	CapabilityVariablePointersStorageBuffer:  "VariablePointersStorageBuffer",
	CapabilityVariablePointers:               "VariablePointers",
}

func (c Capability) String() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Capability(%d)", uint32(c))
}

// Decoration is a SPIR-V decoration.
type Decoration uint32

const (
	DecorationSpecId        Decoration = 1
	DecorationBlock         Decoration = 2
	DecorationArrayStride   Decoration = 6
	DecorationBuiltIn       Decoration = 11
	DecorationNonWritable   Decoration = 24
	DecorationNonReadable   Decoration = 25
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
	DecorationOffset        Decoration = 35
)

var decorationNames = map[Decoration]string{
	DecorationSpecId:        "SpecId",
	DecorationBlock:         "Block",
	DecorationArrayStride:   "ArrayStride",
	DecorationBuiltIn:       "BuiltIn",
	DecorationNonWritable:   "NonWritable",
	DecorationNonReadable:   "NonReadable",
	DecorationBinding:       "Binding",
	DecorationDescriptorSet: "DescriptorSet",
	DecorationOffset:        "Offset",
}

func (d Decoration) String() string {
	if n, ok := decorationNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Decoration(%d)", uint32(d))
}

// BuiltIn is a SPIR-V builtin variable role.
type BuiltIn uint32

const (
	BuiltInNumWorkgroups      BuiltIn = 24
	BuiltInWorkgroupSize      BuiltIn = 25
	BuiltInWorkgroupId        BuiltIn = 26
	BuiltInLocalInvocationId  BuiltIn = 27
	BuiltInGlobalInvocationId BuiltIn = 28
)

var builtInNames = map[BuiltIn]string{
	BuiltInNumWorkgroups:      "NumWorkgroups",
	BuiltInWorkgroupSize:      "WorkgroupSize",
	BuiltInWorkgroupId:        "WorkgroupId",
	BuiltInLocalInvocationId:  "LocalInvocationId",
	BuiltInGlobalInvocationId: "GlobalInvocationId",
}

func (b BuiltIn) String() string {
	if n, ok := builtInNames[b]; ok {
		return n
	}
	return fmt.Sprintf("BuiltIn(%d)", uint32(b))
}

// Execution and memory models, modes, controls.
type (
	AddressingModel  uint32
	MemoryModel      uint32
	ExecutionModel   uint32
	ExecutionMode    uint32
	FunctionControl  uint32
	SelectionControl uint32
	LoopControl      uint32
	SourceLanguage   uint32
)

const (
	AddressingModelLogical AddressingModel = 0
	MemoryModelGLSL450     MemoryModel     = 1
	ExecutionModelGLCompute ExecutionModel = 5
	ExecutionModeLocalSize  ExecutionMode  = 17
	FunctionControlNone     FunctionControl = 0
	SelectionControlNone    SelectionControl = 0
	LoopControlNone         LoopControl      = 0
	SourceLanguageOpenCLC   SourceLanguage   = 3
)

// Dim is an image dimensionality.
type Dim uint32

const (
	Dim2D Dim = 1
	Dim3D Dim = 2
)

func (d Dim) String() string {
	switch d {
	case Dim2D:
		return "2D"
	case Dim3D:
		return "3D"
	}
	return fmt.Sprintf("Dim(%d)", uint32(d))
}

// ImageFormatUnknown is the only image format the producer emits.
const ImageFormatUnknown uint32 = 0

// Scope is a SPIR-V execution/memory scope.
type Scope uint32

const (
	ScopeCrossDevice Scope = 0
	ScopeDevice      Scope = 1
	ScopeWorkgroup   Scope = 2
)

// MemorySemantics bits.
const (
	MemorySemanticsAcquire                uint32 = 0x2
	MemorySemanticsRelease                uint32 = 0x4
	MemorySemanticsAcquireRelease         uint32 = 0x8
	MemorySemanticsSequentiallyConsistent uint32 = 0x10
	MemorySemanticsUniformMemory          uint32 = 0x40
	MemorySemanticsWorkgroupMemory        uint32 = 0x100
)

// Extensions always declared by the producer.
const (
	ExtStorageBufferStorageClass = "SPV_KHR_storage_buffer_storage_class"
	ExtVariablePointers          = "SPV_KHR_variable_pointers"
)

// GLSLExtInst is an instruction number in the GLSL.std.450 extended set.
type GLSLExtInst uint32

// GLSL.std.450 instruction numbers referenced by the builtin tables.
const (
	GLSLExtInstBad GLSLExtInst = 0

	GLSLExtInstRound       GLSLExtInst = 1
	GLSLExtInstTrunc       GLSLExtInst = 3
	GLSLExtInstFAbs        GLSLExtInst = 4
	GLSLExtInstSAbs        GLSLExtInst = 5
	GLSLExtInstFSign       GLSLExtInst = 6
	GLSLExtInstFloor       GLSLExtInst = 8
	GLSLExtInstCeil        GLSLExtInst = 9
	GLSLExtInstFract       GLSLExtInst = 10
	GLSLExtInstRadians     GLSLExtInst = 11
	GLSLExtInstDegrees     GLSLExtInst = 12
	GLSLExtInstSin         GLSLExtInst = 13
	GLSLExtInstCos         GLSLExtInst = 14
	GLSLExtInstTan         GLSLExtInst = 15
	GLSLExtInstAsin        GLSLExtInst = 16
	GLSLExtInstAcos        GLSLExtInst = 17
	GLSLExtInstAtan        GLSLExtInst = 18
	GLSLExtInstSinh        GLSLExtInst = 19
	GLSLExtInstCosh        GLSLExtInst = 20
	GLSLExtInstTanh        GLSLExtInst = 21
	GLSLExtInstAsinh       GLSLExtInst = 22
	GLSLExtInstAcosh       GLSLExtInst = 23
	GLSLExtInstAtanh       GLSLExtInst = 24
	GLSLExtInstAtan2       GLSLExtInst = 25
	GLSLExtInstPow         GLSLExtInst = 26
	GLSLExtInstExp         GLSLExtInst = 27
	GLSLExtInstLog         GLSLExtInst = 28
	GLSLExtInstExp2        GLSLExtInst = 29
	GLSLExtInstLog2        GLSLExtInst = 30
	GLSLExtInstSqrt        GLSLExtInst = 31
	GLSLExtInstInverseSqrt GLSLExtInst = 32
	GLSLExtInstFMin        GLSLExtInst = 37
	GLSLExtInstUMin        GLSLExtInst = 38
	GLSLExtInstSMin        GLSLExtInst = 39
	GLSLExtInstFMax        GLSLExtInst = 40
	GLSLExtInstUMax        GLSLExtInst = 41
	GLSLExtInstSMax        GLSLExtInst = 42
	GLSLExtInstFClamp      GLSLExtInst = 43
	GLSLExtInstUClamp      GLSLExtInst = 44
	GLSLExtInstSClamp      GLSLExtInst = 45
	GLSLExtInstFMix        GLSLExtInst = 46
	GLSLExtInstStep        GLSLExtInst = 48
	GLSLExtInstFma         GLSLExtInst = 50
	GLSLExtInstFrexp       GLSLExtInst = 51
	GLSLExtInstLdexp       GLSLExtInst = 53
	GLSLExtInstPackHalf2x16   GLSLExtInst = 58
	GLSLExtInstUnpackHalf2x16 GLSLExtInst = 62
	GLSLExtInstLength         GLSLExtInst = 66
	GLSLExtInstDistance       GLSLExtInst = 67
	GLSLExtInstCross          GLSLExtInst = 68
	GLSLExtInstNormalize      GLSLExtInst = 69
	GLSLExtInstFindUMsb       GLSLExtInst = 75
)

var glslExtInstNames = map[GLSLExtInst]string{
	GLSLExtInstRound: "Round", GLSLExtInstTrunc: "Trunc",
	GLSLExtInstFAbs: "FAbs", GLSLExtInstSAbs: "SAbs", GLSLExtInstFSign: "FSign",
	GLSLExtInstFloor: "Floor", GLSLExtInstCeil: "Ceil", GLSLExtInstFract: "Fract",
	GLSLExtInstRadians: "Radians", GLSLExtInstDegrees: "Degrees",
	GLSLExtInstSin: "Sin", GLSLExtInstCos: "Cos", GLSLExtInstTan: "Tan",
	GLSLExtInstAsin: "Asin", GLSLExtInstAcos: "Acos", GLSLExtInstAtan: "Atan",
	GLSLExtInstSinh: "Sinh", GLSLExtInstCosh: "Cosh", GLSLExtInstTanh: "Tanh",
	GLSLExtInstAsinh: "Asinh", GLSLExtInstAcosh: "Acosh", GLSLExtInstAtanh: "Atanh",
	GLSLExtInstAtan2: "Atan2", GLSLExtInstPow: "Pow",
	GLSLExtInstExp: "Exp", GLSLExtInstLog: "Log",
	GLSLExtInstExp2: "Exp2", GLSLExtInstLog2: "Log2",
	GLSLExtInstSqrt: "Sqrt", GLSLExtInstInverseSqrt: "InverseSqrt",
	GLSLExtInstFMin: "FMin", GLSLExtInstUMin: "UMin", GLSLExtInstSMin: "SMin",
	GLSLExtInstFMax: "FMax", GLSLExtInstUMax: "UMax", GLSLExtInstSMax: "SMax",
	GLSLExtInstFClamp: "FClamp", GLSLExtInstUClamp: "UClamp",
	GLSLExtInstSClamp: "SClamp", GLSLExtInstFMix: "FMix", GLSLExtInstStep: "Step",
	GLSLExtInstFma: "Fma", GLSLExtInstFrexp: "Frexp", GLSLExtInstLdexp: "Ldexp",
	GLSLExtInstPackHalf2x16:   "PackHalf2x16",
	GLSLExtInstUnpackHalf2x16: "UnpackHalf2x16",
	GLSLExtInstLength:         "Length", GLSLExtInstDistance: "Distance",
	GLSLExtInstCross: "Cross", GLSLExtInstNormalize: "Normalize",
	GLSLExtInstFindUMsb: "FindUMsb",
}

func (e GLSLExtInst) String() string {
	if n, ok := glslExtInstNames[e]; ok {
		return n
	}
	return fmt.Sprintf("GLSLstd450(%d)", uint32(e))
}
