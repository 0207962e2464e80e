// Package binding handles binding tables: the class, upcast, and member
// listings a binding generator emits alongside the typed call surface.
//
// Tables are written as TOML for review and compiled to canonical CBOR for
// shipping. A loaded table can declare its upcasts to the jvm package,
// resolve every member eagerly, and audit its upcasts against a live
// runtime.
package binding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/jbridge/jni"
)

// Table is a set of class bindings.
type Table struct {
	Package string  `toml:"package" cbor:"1,keyasint,omitempty"`
	Classes []Class `toml:"class" cbor:"2,keyasint"`
}

// Class binds one managed class.
type Class struct {
	// Name is the dotted or binary class name.
	Name string `toml:"name" cbor:"1,keyasint"`
	// Upcasts lists the classes and interfaces Name may be treated as,
	// beyond java.lang.Object.
	Upcasts []string `toml:"upcasts" cbor:"2,keyasint,omitempty"`
	Methods []Member `toml:"method" cbor:"3,keyasint,omitempty"`
	Fields  []Member `toml:"field" cbor:"4,keyasint,omitempty"`
}

// Member is a method, constructor ("<init>"), or field.
type Member struct {
	Name   string `toml:"name" cbor:"1,keyasint"`
	Sig    string `toml:"sig" cbor:"2,keyasint"`
	Static bool   `toml:"static" cbor:"3,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("binding: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ParseTOML decodes and validates a TOML table.
func ParseTOML(data []byte) (*Table, error) {
	var t Table
	md, err := toml.Decode(string(data), &t)
	if err != nil {
		return nil, fmt.Errorf("binding: parse: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("binding: unknown keys %v", undecoded)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// UnmarshalCBOR decodes and validates a compiled table.
func UnmarshalCBOR(data []byte) (*Table, error) {
	var t Table
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("binding: unmarshal table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// MarshalCBOR encodes t deterministically: equal tables give equal bytes.
func MarshalCBOR(t *Table) ([]byte, error) {
	return cborEncMode.Marshal(t)
}

// EncodeTOML writes t as TOML.
func (t *Table) EncodeTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(t)
}

// Load reads a table from path. Files ending in .toml are parsed as TOML;
// anything else is taken to be compiled CBOR.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var t *Table
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		t, err = ParseTOML(data)
	} else {
		t, err = UnmarshalCBOR(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Compile converts a TOML table at src into CBOR at dst.
func Compile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", src, err)
	}
	t, err := ParseTOML(data)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	out, err := MarshalCBOR(t)
	if err != nil {
		return fmt.Errorf("binding: marshal %s: %w", src, err)
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", dst, err)
	}
	log.Infof("compiled %s (%d classes) to %s", src, len(t.Classes), dst)
	return nil
}

// Validate checks class names and member signatures. It reports every
// problem, not just the first.
func (t *Table) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, c := range t.Classes {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("class #%d has no name", i))
			continue
		}
		name := jni.BinaryName(c.Name)
		if seen[name] {
			errs = append(errs, fmt.Errorf("class %s listed twice", c.Name))
		}
		seen[name] = true
		for _, up := range c.Upcasts {
			if up == "" || jni.BinaryName(up) == name {
				errs = append(errs, fmt.Errorf("class %s: bad upcast %q", c.Name, up))
			}
		}
		for _, m := range c.Methods {
			_, ret, err := jni.ParseSignature(m.Sig)
			switch {
			case err != nil:
				errs = append(errs, fmt.Errorf("method %s.%s: %w", c.Name, m.Name, err))
			case m.Name == "<init>" && (m.Static || ret != jni.Void):
				errs = append(errs, fmt.Errorf("constructor %s%s must be an instance method returning void", c.Name, m.Sig))
			}
		}
		for _, f := range c.Fields {
			if _, err := jni.FieldKind(f.Sig); err != nil {
				errs = append(errs, fmt.Errorf("field %s.%s: %w", c.Name, f.Name, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("binding: invalid table: %w", err)
	}
	return nil
}

// Class returns the binding for a class by dotted or binary name.
func (t *Table) Class(name string) (*Class, bool) {
	name = jni.BinaryName(name)
	for i := range t.Classes {
		if jni.BinaryName(t.Classes[i].Name) == name {
			return &t.Classes[i], true
		}
	}
	return nil, false
}

// String renders t as TOML.
func (t *Table) String() string {
	var buf bytes.Buffer
	if err := t.EncodeTOML(&buf); err != nil {
		return fmt.Sprintf("<binding table: %v>", err)
	}
	return buf.String()
}
