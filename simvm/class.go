package simvm

import (
	"fmt"
	"strings"

	"github.com/chazu/jbridge/jni"
)

// ---------------------------------------------------------------------------
// Class: a managed class with single inheritance
// ---------------------------------------------------------------------------

// Class is a class known to the runtime. Array classes are synthesized on
// first lookup and have Elem (primitive arrays) or Component (object arrays)
// set.
type Class struct {
	Name      string // binary name, e.g. "java/lang/String" or "[I"
	Super     *Class
	Elem      jni.Kind // primitive element kind for primitive arrays
	Component *Class   // element class for object arrays

	methods map[string]*Method // keyed by name+signature
	fields  map[string]*Field  // keyed by name
	statics map[*Field]slot
	mirror  *Object
}

// IsArray reports whether c is an array class.
func (c *Class) IsArray() bool { return strings.HasPrefix(c.Name, "[") }

// IsSubclassOf returns true if c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.Super {
		if current == other {
			return true
		}
	}
	return false
}

// DottedName returns the source form of the class name.
func (c *Class) DottedName() string { return jni.DottedName(c.Name) }

// descriptor returns the field descriptor of the class: "Lpkg/C;" or the
// array name itself.
func (c *Class) descriptor() string {
	if c.IsArray() {
		return c.Name
	}
	return "L" + c.Name + ";"
}

// lookupMethod finds a method by name and signature, walking superclasses.
func (c *Class) lookupMethod(name, sig string, static bool) *Method {
	key := name + sig
	for current := c; current != nil; current = current.Super {
		if m, ok := current.methods[key]; ok && m.Static == static {
			return m
		}
		if name == "<init>" {
			// Constructors are not inherited.
			return nil
		}
	}
	return nil
}

// lookupField finds a field by name, walking superclasses.
func (c *Class) lookupField(name string, static bool) *Field {
	for current := c; current != nil; current = current.Super {
		if f, ok := current.fields[name]; ok && f.Static == static {
			return f
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// Impl implements a managed method in Go. It returns the method's result;
// to raise, it calls c.Throw and returns the zero Value.
type Impl func(c *Call) Value

// Method is a resolved method of a class.
type Method struct {
	Class  *Class
	Name   string
	Sig    string
	Static bool
	Native bool

	id     jni.MethodID
	args   []jni.Kind
	ret    jni.Kind
	impl   Impl
	native jni.NativeFunc
}

func (m *Method) String() string {
	return fmt.Sprintf("%s.%s%s", m.Class.DottedName(), m.Name, m.Sig)
}

// Field is a resolved field of a class.
type Field struct {
	Class  *Class
	Name   string
	Sig    string
	Static bool

	id   jni.FieldID
	kind jni.Kind
}

// ---------------------------------------------------------------------------
// Definitions
// ---------------------------------------------------------------------------

// ClassDef declares a class for DefineClass. Names may be dotted or binary.
type ClassDef struct {
	Name    string
	Super   string // defaults to java/lang/Object
	Fields  []FieldDef
	Methods []MethodDef
}

// FieldDef declares a field.
type FieldDef struct {
	Name   string
	Sig    string
	Static bool
}

// MethodDef declares a method. Native methods have no Impl and are bound
// later through RegisterNatives. A non-native method with no Impl does
// nothing and returns the zero value (handy for trivial constructors).
type MethodDef struct {
	Name   string
	Sig    string
	Static bool
	Native bool
	Impl   Impl
}
