package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/jbridge/bindgen"
	"github.com/chazu/jbridge/manifest"
)

// runGen processes the `jbridge gen` subcommand.
// Usage:
//
//	jbridge gen                         # beside each table
//	jbridge gen -o pkg/auth -pkg auth a.toml
func runGen(m *manifest.Manifest, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	outDir := fs.String("o", "", "Output directory (default: the table's directory)")
	pkg := fs.String("pkg", "", "Go package name (default: the table's package)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths, err := tablePaths(m, fs.Args())
	if err != nil {
		return err
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			return fmt.Errorf("cannot create %s: %w", *outDir, err)
		}
	}

	for _, src := range paths {
		dir := *outDir
		if dir == "" {
			dir = filepath.Dir(src)
		}
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		dst := filepath.Join(dir, base+"_bindings.go")
		if err := bindgen.GenerateFile(src, dst, *pkg); err != nil {
			return err
		}
		printf(out, "%s -> %s\n", src, dst)
	}
	return nil
}
