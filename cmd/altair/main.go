// Altair CLI - whole-program optimization for ARBC bytecode units
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/altair/pkg/container"
	"github.com/chazu/altair/pkg/manifest"
	"github.com/chazu/altair/pkg/opt/devirtualize"
	"github.com/chazu/altair/pkg/rbc"
)

func main() {
	projectDir := flag.String("C", ".", "Project directory containing altair.toml")
	output := flag.String("o", "", "Output path (only with a single input unit)")
	verbosity := flag.Int("v", 0, "Log verbosity (0-2)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: altair [options] [units...]\n\n")
		fmt.Fprintf(os.Stderr, "Devirtualizes eligible methods across the given ARBC units and writes\n")
		fmt.Fprintf(os.Stderr, "the optimized units back out. Units named on the command line override\n")
		fmt.Fprintf(os.Stderr, "the [input] section of altair.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  altair app.arbc                # Optimize one unit -> app.opt.arbc\n")
		fmt.Fprintf(os.Stderr, "  altair -C ./proj               # Use proj/altair.toml for units and rules\n")
		fmt.Fprintf(os.Stderr, "  altair -o out.arbc app.arbc    # Explicit output path\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	m, err := manifest.Load(*projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = m.Input.Units
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no input units (pass paths or set [input] units in altair.toml)\n")
		os.Exit(1)
	}
	if *output != "" && len(paths) != 1 {
		fmt.Fprintf(os.Stderr, "Error: -o requires exactly one input unit\n")
		os.Exit(1)
	}

	var units []*rbc.Unit
	for _, path := range paths {
		u, err := container.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		units = append(units, u)
	}

	scope := rbc.BuildScope(units)
	d := devirtualize.New(m.Devirtualize.Config, &m.Keep)
	metrics, err := d.Run(scope, m.TargetClasses(scope))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Patched call sites: %d virtual, %d super, %d direct\n",
		metrics.VirtualCalls, metrics.SuperCalls, metrics.DirectCalls)
	fmt.Printf("Staticized methods: %d dropping this, %d keeping this\n",
		metrics.MethodsDroppingThis, metrics.MethodsKeepingThis)

	for i, u := range units {
		path := outputPath(m, paths[i], *output)
		if err := container.SaveFile(path, u); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	}
}

// outputPath picks the destination for an optimized unit: the -o override,
// or the input name with the manifest's suffix inserted before the
// extension, placed in the output dir when one is configured.
func outputPath(m *manifest.Manifest, input, override string) string {
	if override != "" {
		return override
	}
	dir, base := filepath.Split(input)
	if m.Output.Dir != "" {
		dir = m.Output.Dir
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+m.Output.Suffix+ext)
}
