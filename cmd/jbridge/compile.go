package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/jbridge/binding"
	"github.com/chazu/jbridge/manifest"
)

// compiledExt is the extension of compiled binding tables.
const compiledExt = ".jbb"

// runCompile processes the `jbridge compile` subcommand.
// Usage:
//
//	jbridge compile                  # into [bindings] output
//	jbridge compile -o out a.toml    # custom output directory
func runCompile(m *manifest.Manifest, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	outDir := fs.String("o", "", "Output directory (default: [bindings] output)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths, err := tablePaths(m, fs.Args())
	if err != nil {
		return err
	}
	if *outDir == "" {
		*outDir = m.OutputDir()
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", *outDir, err)
	}

	for _, src := range paths {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		dst := filepath.Join(*outDir, base+compiledExt)
		if err := binding.Compile(src, dst); err != nil {
			return err
		}
		printf(out, "%s -> %s\n", src, dst)
	}
	return nil
}
