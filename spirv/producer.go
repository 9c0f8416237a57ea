package spirv

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/gogpu/clspirv/ir"
)

// Producer lowers one IR module to a SPIR-V instruction stream. It owns
// every interning table the multi-phase pass needs; integer result ids are
// the common currency between the tables, the instruction list, and the
// deferred-fixup worklist.
//
// A Producer handles a single module and is not reusable.
type Producer struct {
	mod  *ir.Module
	opts Options
	log  *logrus.Logger

	nextID uint32
	insts  InstructionList

	// Type interning. typeMap holds every IR type with an assigned SPIR-V
	// id, after aliasing; types is the ordered emission worklist.
	typeMap  map[ir.Type]uint32
	types    []ir.Type
	typeSeen map[ir.Type]bool

	// Sampled-image types, one per distinct image type used in a read.
	imageTypeMap   map[ir.Type]uint32 // image type -> OpTypeSampledImage id
	sampledImages  []ir.Type          // ordered
	sampledImageSeen map[ir.Type]bool

	// Constant interning, keyed by the constant's stable value key.
	constants []ir.Constant
	constMap  map[string]uint32
	constSeen map[string]bool

	// Value -> result id for arguments, globals, and instruction results.
	valueMap map[ir.Value]uint32

	// Kernel-argument resources.
	argRes        map[*ir.Argument]*argResource
	resourceOrder []*argResource
	sharedVars    map[sharedVarKey]uint32

	// Pointer-to-local arguments.
	localArgs    []*ir.Argument
	localArgInfo map[*ir.Argument]*localArgInfo

	// Literal samplers.
	samplerUsed  bool
	samplerVarID map[uint32]uint32 // literal -> variable id
	samplerSet   uint32

	// Module-scope __constant handling.
	constantGlobals     []*ir.GlobalVariable
	constantsSet        uint32
	constantBufferVarID uint32

	// Function types whose pointer-to-constant parameter is rewritten to
	// the module-scope private space, keyed by original signature.
	globalConstFuncTypes map[*ir.FunctionType]int
	globalConstArgs      map[*ir.Argument]bool

	// Types that need an ArrayStride decoration after deferred fixup.
	strideTypes []ir.Type
	strideSeen  map[ir.Type]bool

	// Deferred instructions, drained in reverse insertion order.
	deferred []deferredInst

	// Entry points and their interface variables.
	entryPoints []entryPoint

	extInstImportID     uint32
	hasVariablePointers bool
	usesExtInst         bool

	// Workgroup-size builtin plumbing.
	wgSizeReferenced     bool
	builtinDims          []uint32
	workgroupSizeValueID uint32
	workgroupSizeVarID   uint32

	// Discovered scalar widths and image flags drive capabilities.
	capInt16, capInt64, capFloat16, capFloat64 bool
	capImageWrite, capImageQuery               bool

	blockIDs map[*ir.BasicBlock]uint32

	descmap *DescriptorMapWriter
}

type entryPoint struct {
	name   string
	funcID uint32
	fn     *ir.Function
}

type deferredInst struct {
	inst   *ir.Instruction
	index  int    // insertion point in the instruction list
	result uint32 // reserved result id, or 0
}

type sharedVarKey struct {
	ty      ir.Type
	set     uint32
	binding uint32
}

type rtaWrapper struct {
	rtaID    uint32
	structID uint32
}

// NewProducer creates a producer for the given options. The descriptor map
// sidecar is written to descOut; pass io.Discard to drop it.
func NewProducer(opts Options, descOut io.Writer) *Producer {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if opts.ShowIDs {
		log.SetLevel(logrus.DebugLevel)
	}
	return &Producer{
		opts:             opts,
		log:              log,
		nextID:           1,
		typeMap:          make(map[ir.Type]uint32),
		typeSeen:         make(map[ir.Type]bool),
		imageTypeMap:     make(map[ir.Type]uint32),
		sampledImageSeen: make(map[ir.Type]bool),
		constMap:         make(map[string]uint32),
		constSeen:        make(map[string]bool),
		valueMap:         make(map[ir.Value]uint32),
		argRes:           make(map[*ir.Argument]*argResource),
		sharedVars:       make(map[sharedVarKey]uint32),
		localArgInfo:     make(map[*ir.Argument]*localArgInfo),
		samplerVarID:     make(map[uint32]uint32),
		globalConstFuncTypes: make(map[*ir.FunctionType]int),
		globalConstArgs:      make(map[*ir.Argument]bool),
		strideSeen:           make(map[ir.Type]bool),
		blockIDs:             make(map[*ir.BasicBlock]uint32),
		descmap:              NewDescriptorMapWriter(descOut),
	}
}

// reserveID returns the next result id and advances the counter.
func (p *Producer) reserveID() uint32 {
	id := p.nextID
	p.nextID++
	if p.opts.ShowIDs {
		p.log.WithField("id", id).Debug("reserve")
	}
	return id
}

// Bound returns one past the largest id allocated so far.
func (p *Producer) Bound() uint32 { return p.nextID }

// Instructions exposes the built instruction stream.
func (p *Producer) Instructions() *InstructionList { return &p.insts }

// lookupType returns the SPIR-V id for an IR type. The lookup succeeds iff
// discovery recorded the type; a miss is a programmer error reported with
// the type printed.
func (p *Producer) lookupType(t ir.Type) (uint32, error) {
	if id, ok := p.typeMap[t]; ok {
		return id, nil
	}
	return 0, unknownf("type %s has no SPIR-V id", t)
}

// lookupValue returns the SPIR-V id for an IR value.
func (p *Producer) lookupValue(v ir.Value) (uint32, error) {
	if c, ok := v.(ir.Constant); ok {
		return p.lookupConstant(c)
	}
	if id, ok := p.valueMap[v]; ok {
		return id, nil
	}
	return 0, unknownf("value %%%s (%s) has no SPIR-V id", v.Name(), v.Type())
}

// lookupConstant returns the SPIR-V id for a constant value.
func (p *Producer) lookupConstant(c ir.Constant) (uint32, error) {
	if id, ok := p.constMap[p.constKey(c)]; ok {
		return id, nil
	}
	return 0, unknownf("constant %s %s has no SPIR-V id", c.Type(), c.Name())
}

// Compile lowers the module. After Compile succeeds the instruction stream
// is complete and can be serialized.
func (p *Producer) Compile(mod *ir.Module) error {
	p.mod = mod

	if err := p.rewriteGlobalConstants(); err != nil {
		return err
	}
	p.findExtInst()
	if p.usesExtInst {
		p.extInstImportID = p.reserveID()
	}
	if err := p.discover(); err != nil {
		return err
	}
	if err := p.planResources(); err != nil {
		return err
	}
	if err := p.emitTypes(); err != nil {
		return err
	}
	if err := p.emitConstants(); err != nil {
		return err
	}
	if err := p.emitSamplers(); err != nil {
		return err
	}
	if err := p.emitResourceVars(); err != nil {
		return err
	}
	if err := p.emitModuleConstantData(); err != nil {
		return err
	}
	if err := p.emitWorkgroupSizeVar(); err != nil {
		return err
	}
	for _, f := range mod.Functions {
		if f.IsDecl {
			continue
		}
		if err := p.emitFunction(f); err != nil {
			return err
		}
	}
	if err := p.fixupDeferred(); err != nil {
		return err
	}
	p.emitStrideDecorations()
	return p.emitModuleInfo()
}

// emitDecoration inserts a decoration at the decoration point: before the
// first instruction that is not itself a decoration, capability, extension,
// or import. Called throughout type emission and argument lowering.
func (p *Producer) emitDecoration(inst *Instruction) {
	p.insts.InsertAt(p.insts.DecorationPoint(), inst)
}

// emitStrideDecorations decorates every pointer or array type recorded as
// needing an ArrayStride (PtrAccessChain results under variable pointers).
func (p *Producer) emitStrideDecorations() {
	for _, t := range p.strideTypes {
		elem := t
		switch ty := t.(type) {
		case *ir.PointerType:
			elem = ty.Elem
		case *ir.ArrayType:
			elem = ty.Elem
		}
		id, ok := p.typeMap[t]
		if !ok {
			continue
		}
		stride, err := safeU32(ir.SizeOf(elem))
		if err != nil {
			continue
		}
		p.emitDecoration(NewInstNoResult(OpDecorate,
			MkID(id), mkEnum(uint32(DecorationArrayStride), enumDecoration),
			MkNum(stride)))
	}
}

// emitModuleInfo prepends the fixed prefix: capabilities, extensions, the
// extended-instruction import, the memory model, entry points, execution
// modes, and the source declaration. The workgroup-size SpecId decorations
// were already placed in the decoration region by emitWorkgroupSizeVar.
func (p *Producer) emitModuleInfo() error {
	var prefix []*Instruction

	addCap := func(c Capability) {
		prefix = append(prefix, NewInstNoResult(OpCapability,
			mkEnum(uint32(c), enumCapability)))
	}
	addCap(CapabilityShader)
	if p.capInt16 {
		addCap(CapabilityInt16)
	}
	if p.capInt64 {
		addCap(CapabilityInt64)
	}
	if p.capFloat16 {
		addCap(CapabilityFloat16)
	}
	if p.capFloat64 {
		addCap(CapabilityFloat64)
	}
	if p.capImageWrite {
		addCap(CapabilityStorageImageWriteWithoutFormat)
	}
	if p.capImageQuery {
		addCap(CapabilityImageQuery)
	}
	// Variable pointers are always declared: kernel-argument buffers share
	// storage-buffer pointer types across descriptor bindings.
	addCap(CapabilityVariablePointers)

	prefix = append(prefix,
		NewInstNoResult(OpExtension, MkString(ExtStorageBufferStorageClass)),
		NewInstNoResult(OpExtension, MkString(ExtVariablePointers)))

	if p.usesExtInst {
		prefix = append(prefix, NewInst(OpExtInstImport, p.extInstImportID,
			MkString("GLSL.std.450")))
	}

	prefix = append(prefix, NewInstNoResult(OpMemoryModel,
		mkEnum(uint32(AddressingModelLogical), enumAddressingModel),
		mkEnum(uint32(MemoryModelGLSL450), enumMemoryModel)))

	for _, ep := range p.entryPoints {
		ops := []Operand{
			mkEnum(uint32(ExecutionModelGLCompute), enumExecutionModel),
			MkID(ep.funcID),
			MkString(ep.name),
		}
		// The interface list is left empty; the producer synthesizes no
		// Input-class globals.
		prefix = append(prefix, NewInstNoResult(OpEntryPoint, ops...))
	}

	for _, ep := range p.entryPoints {
		if ep.fn.ReqdWorkGroupSize == nil {
			continue
		}
		d := ep.fn.ReqdWorkGroupSize
		prefix = append(prefix, NewInstNoResult(OpExecutionMode,
			MkID(ep.funcID),
			mkEnum(uint32(ExecutionModeLocalSize), enumExecutionMode),
			MkNum(d[0]), MkNum(d[1]), MkNum(d[2])))
	}

	prefix = append(prefix, NewInstNoResult(OpSource,
		mkEnum(uint32(SourceLanguageOpenCLC), enumSourceLanguage),
		MkNum(120)))

	p.insts.Prepend(prefix...)
	return nil
}
