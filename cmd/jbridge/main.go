// jbridge CLI - checks, compiles, and generates Go code for binding tables,
// and runs the auth demo
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/jbridge/manifest"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	dir := flag.String("C", ".", "Directory to search for jbridge.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jbridge [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  check [-resolve] [tables...]           Validate binding tables\n")
		fmt.Fprintf(os.Stderr, "  compile [-o dir] [tables...]           Compile TOML tables to CBOR\n")
		fmt.Fprintf(os.Stderr, "  gen [-o dir] [-pkg name] [tables...]   Generate Go bindings\n")
		fmt.Fprintf(os.Stderr, "  demo                                   Run the authentication example\n")
		fmt.Fprintf(os.Stderr, "\nWith no tables, the [bindings] tables of jbridge.toml are used.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := loadManifest(*dir, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	m.ConfigureLogging()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "check":
		err = runCheck(m, args, os.Stdout)
	case "compile":
		err = runCompile(m, args, os.Stdout)
	case "gen":
		err = runGen(m, args, os.Stdout)
	case "demo":
		err = runDemo(m, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadManifest finds jbridge.toml above dir, falling back to defaults.
func loadManifest(dir string, verbose bool) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default(dir)
	}
	if verbose && m.Log.Verbosity < 2 {
		m.Log.Verbosity = 2
	}
	return m, nil
}

// tablePaths returns args, or the manifest's tables when args is empty.
func tablePaths(m *manifest.Manifest, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	paths := m.TablePaths()
	if len(paths) == 0 {
		return nil, fmt.Errorf("no binding tables given and none configured in %s", manifest.FileName)
	}
	return paths, nil
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
