// Package manifest handles jbridge.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/jbridge/binding"
	"github.com/chazu/jbridge/jvm"
	"github.com/chazu/jbridge/simvm"
)

// FileName is the name of the project configuration file.
const FileName = "jbridge.toml"

// Manifest represents a jbridge.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Runtime  Runtime  `toml:"runtime"`
	Log      Log      `toml:"log"`
	Bindings Bindings `toml:"bindings"`

	// Dir is the directory containing the jbridge.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Runtime configures the interop kernel and the in-process runtime.
type Runtime struct {
	// LocalCapacity is the local reference budget of one scope.
	LocalCapacity int32 `toml:"local-capacity"`
	// MaxLocals bounds the in-process runtime's per-thread local table.
	MaxLocals int `toml:"max-locals"`
	// MaxArrayLength bounds array allocations in the in-process runtime.
	MaxArrayLength int32 `toml:"max-array-length"`
}

// Log configures logging.
type Log struct {
	// Verbosity: 0 errors only, 1 warnings, 2 info, 3 and up debug.
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Bindings lists binding tables.
type Bindings struct {
	Tables []string `toml:"tables"`
	Output string   `toml:"output"`
}

// Load parses a jbridge.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Runtime.LocalCapacity <= 0 {
		m.Runtime.LocalCapacity = jvm.DefaultLocalCapacity
	}
	if !md.IsDefined("log", "verbosity") {
		m.Log.Verbosity = 1
	}
	if m.Bindings.Output == "" {
		m.Bindings.Output = filepath.Join(".jbridge", "bindings")
	}

	return &m, nil
}

// Default returns the configuration used when no jbridge.toml exists.
func Default(dir string) *Manifest {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return &Manifest{
		Runtime:  Runtime{LocalCapacity: jvm.DefaultLocalCapacity},
		Log:      Log{Verbosity: 1},
		Bindings: Bindings{Output: filepath.Join(".jbridge", "bindings")},
		Dir:      abs,
	}
}

// FindAndLoad walks up from startDir to find a jbridge.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// TablePaths returns absolute paths for the configured binding tables.
func (m *Manifest) TablePaths() []string {
	var paths []string
	for _, t := range m.Bindings.Tables {
		if filepath.IsAbs(t) {
			paths = append(paths, t)
			continue
		}
		paths = append(paths, filepath.Join(m.Dir, t))
	}
	return paths
}

// OutputDir returns the directory compiled tables are written to.
func (m *Manifest) OutputDir() string {
	if filepath.IsAbs(m.Bindings.Output) {
		return m.Bindings.Output
	}
	return filepath.Join(m.Dir, m.Bindings.Output)
}

// LoadTables loads every configured binding table. It reports every table
// that fails, not just the first.
func (m *Manifest) LoadTables() ([]*binding.Table, error) {
	var tables []*binding.Table
	var errs []error
	for _, path := range m.TablePaths() {
		t, err := binding.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tables = append(tables, t)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tables, nil
}

// JVMOptions returns the kernel options.
func (m *Manifest) JVMOptions() jvm.Options {
	return jvm.Options{LocalCapacity: m.Runtime.LocalCapacity}
}

// SimOptions returns the in-process runtime options.
func (m *Manifest) SimOptions() simvm.Options {
	return simvm.Options{MaxLocals: m.Runtime.MaxLocals, MaxArrayLength: m.Runtime.MaxArrayLength}
}

// ConfigureLogging applies the [log] section.
func (m *Manifest) ConfigureLogging() {
	var path *string
	if m.Log.Path != "" {
		p := m.Log.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.Dir, p)
		}
		path = &p
	}
	commonlog.Configure(m.Log.Verbosity, path)
}
