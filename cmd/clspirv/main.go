// Command clspirv compiles textual kernel IR files to Vulkan SPIR-V.
//
// Usage:
//
//	clspirv kernel.clir                      # binary to kernel.spv
//	clspirv -S kernel.clir                   # assembly listing to stdout
//	clspirv -o out.spv -m out.csv kernel.clir
//	clspirv --config clspirv.toml *.clir     # options from a TOML file
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/clspirv"
	"github.com/gogpu/clspirv/spirv"
)

const version = "0.1.0"

var (
	outputPath    string
	descMapPath   string
	configPath    string
	emitAssembly  bool
	emitCInitList bool
	verbose       bool

	constantsInBuffer bool
	podUBO            bool
	distinctSets      bool
	hackUndef         bool
	hackInitializers  bool
	showIDs           bool
)

func main() {
	root := &cobra.Command{
		Use:     "clspirv [flags] <input.clir>...",
		Short:   "Compile kernel IR to Vulkan SPIR-V",
		Version: version,
		Args:    cobra.MinimumNArgs(1),
		RunE:    run,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.Flags()
	flags.StringVarP(&outputPath, "output", "o", "", "output file (default: input with .spv)")
	flags.StringVarP(&descMapPath, "descriptor-map", "m", "", "descriptor map file (default: input with .csv)")
	flags.StringVar(&configPath, "config", "", "load options from a TOML file")
	flags.BoolVarP(&emitAssembly, "assembly", "S", false, "emit an assembly listing instead of binary")
	flags.BoolVar(&emitCInitList, "c-list", false, "emit the binary as a C initializer list")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	flags.BoolVar(&constantsInBuffer, "module-constants-in-storage-buffer", false,
		"emit __constant data as a descriptor-bound storage buffer")
	flags.BoolVar(&podUBO, "pod-args-in-uniform-buffer", false,
		"place POD kernel arguments in a uniform buffer")
	flags.BoolVar(&distinctSets, "distinct-kernel-descriptor-sets", false,
		"give each kernel its own descriptor set")
	flags.BoolVar(&hackUndef, "hack-undef", false,
		"rewrite undef numeric constants as zero")
	flags.BoolVar(&hackInitializers, "hack-initializers", false,
		"store the workgroup-size constant at each kernel entry")
	flags.BoolVar(&showIDs, "show-ids", false, "trace SPIR-V id assignment")

	if err := root.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildOptions() (spirv.Options, error) {
	opts := spirv.DefaultOptions()
	if configPath != "" {
		var err error
		opts, err = spirv.LoadOptions(configPath)
		if err != nil {
			return opts, err
		}
	}
	if constantsInBuffer {
		opts.ModuleConstantsInStorageBuffer = true
	}
	if podUBO {
		opts.PodArgsInUniformBuffer = true
	}
	if distinctSets {
		opts.DistinctKernelDescriptorSets = true
	}
	if hackUndef {
		opts.HackUndef = true
	}
	if hackInitializers {
		opts.HackInitializers = true
	}
	if showIDs {
		opts.ShowIDs = true
	}
	switch {
	case emitAssembly:
		opts.Format = spirv.OutputAssembly
	case emitCInitList:
		opts.Format = spirv.OutputCInitList
	}
	return opts, nil
}

func run(_ *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	opts, err := buildOptions()
	if err != nil {
		return err
	}
	if len(args) > 1 && outputPath != "" {
		return fmt.Errorf("-o cannot be combined with multiple inputs")
	}

	// The pass itself is single-threaded per module; independent inputs
	// compile concurrently.
	var g errgroup.Group
	for _, input := range args {
		input := input
		g.Go(func() error {
			return compileOne(input, opts)
		})
	}
	return g.Wait()
}

func compileOne(input string, opts spirv.Options) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	logrus.WithField("input", input).Debug("compiling")
	out, descMap, err := clspirv.CompileWithOptions(string(src), opts)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	if opts.Format == spirv.OutputAssembly && outputPath == "" {
		_, err := os.Stdout.Write(out)
		return err
	}

	outPath := outputPath
	if outPath == "" {
		outPath = replaceExt(input, extFor(opts.Format))
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return err
	}

	mapPath := descMapPath
	if mapPath == "" {
		mapPath = replaceExt(input, ".csv")
	}
	if err := os.WriteFile(mapPath, []byte(descMap), 0o644); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"output": outPath, "map": mapPath, "bytes": len(out),
	}).Debug("compiled")
	return nil
}

func extFor(f spirv.OutputFormat) string {
	switch f {
	case spirv.OutputAssembly:
		return ".spvasm"
	case spirv.OutputCInitList:
		return ".inc"
	default:
		return ".spv"
	}
}

func replaceExt(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ext
}
