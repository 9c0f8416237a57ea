package spirv

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// OutputFormat selects how the serializer renders the module.
type OutputFormat uint8

const (
	// OutputBinary writes little-endian SPIR-V words.
	OutputBinary OutputFormat = iota
	// OutputAssembly writes a textual listing with symbolic enum names.
	OutputAssembly
	// OutputCInitList writes the binary words as a C initializer list.
	OutputCInitList
)

// SamplerMapEntry pairs an OpenCL sampler literal with its source expression.
type SamplerMapEntry struct {
	Literal uint32 `toml:"literal"`
	Expr    string `toml:"expr"`
}

// Options configures the producer.
type Options struct {
	// Version is the SPIR-V version to target.
	Version Version `toml:"-"`

	// Format selects binary, assembly, or C-initializer-list output.
	Format OutputFormat `toml:"-"`

	// ModuleConstantsInStorageBuffer emits __constant data as a
	// descriptor-bound storage buffer instead of inlining it into the
	// module's private address space. The total size is capped at 64 KiB.
	ModuleConstantsInStorageBuffer bool `toml:"module_constants_in_storage_buffer"`

	// PodArgsInUniformBuffer places POD kernel arguments in the Uniform
	// storage class with argKind pod_ubo.
	PodArgsInUniformBuffer bool `toml:"pod_args_in_uniform_buffer"`

	// DistinctKernelDescriptorSets gives each kernel a fresh descriptor set.
	DistinctKernelDescriptorSets bool `toml:"distinct_kernel_descriptor_sets"`

	// HackUndef replaces undef numeric constants with zero. Works around
	// drivers that reject OpUndef in constant position.
	HackUndef bool `toml:"hack_undef"`

	// HackInitializers materializes the workgroup-size constant into its
	// Private variable with a store at each kernel entry.
	HackInitializers bool `toml:"hack_initializers"`

	// ShowIDs traces id assignment through the logger.
	ShowIDs bool `toml:"show_ids"`

	// SamplerMap lists the literal samplers the program may reference.
	// Required when any kernel initializes a literal sampler.
	SamplerMap []SamplerMapEntry `toml:"sampler"`
}

// DefaultOptions returns the default producer configuration.
func DefaultOptions() Options {
	return Options{Version: Version1_0, Format: OutputBinary}
}

// LoadOptions reads producer options from a TOML file, starting from the
// defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("spirv: reading options: %w", err)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("spirv: parsing %s: %w", path, err)
	}
	return opts, nil
}
