package jvm

import (
	"fmt"

	"github.com/chazu/jbridge/jni"
)

// Method describes a method or constructor of a managed class. Its ID is
// resolved lazily, once per VM.
type Method struct {
	Class  *Descriptor
	Name   string
	Sig    string
	Static bool

	args []jni.Kind
	ret  jni.Kind
}

func newMethod(class *Descriptor, name, sig string, static bool) *Method {
	args, ret, err := jni.ParseSignature(sig)
	if err != nil {
		panic(fmt.Sprintf("jvm: %s.%s: %s", class, name, err))
	}
	return &Method{Class: class, Name: name, Sig: sig, Static: static, args: args, ret: ret}
}

// NewMethod describes an instance method. A malformed signature panics.
func NewMethod(class *Descriptor, name, sig string) *Method {
	return newMethod(class, name, sig, false)
}

// NewStaticMethod describes a static method.
func NewStaticMethod(class *Descriptor, name, sig string) *Method {
	return newMethod(class, name, sig, true)
}

// Constructor describes a constructor; sig must return void.
func Constructor(class *Descriptor, sig string) *Method {
	m := newMethod(class, "<init>", sig, false)
	if m.ret != jni.Void {
		panic(fmt.Sprintf("jvm: constructor %s%s must return void", class, sig))
	}
	return m
}

// Returns reports the kind the method returns.
func (m *Method) Returns() jni.Kind { return m.ret }

// Params returns the parameter kinds.
func (m *Method) Params() []jni.Kind { return append([]jni.Kind(nil), m.args...) }

func (m *Method) String() string { return fmt.Sprintf("%s.%s%s", m.Class, m.Name, m.Sig) }

// Field describes a field of a managed class.
type Field struct {
	Class  *Descriptor
	Name   string
	Sig    string
	Static bool

	kind jni.Kind
}

func newField(class *Descriptor, name, sig string, static bool) *Field {
	kind, err := jni.FieldKind(sig)
	if err != nil {
		panic(fmt.Sprintf("jvm: field %s.%s: %s", class, name, err))
	}
	return &Field{Class: class, Name: name, Sig: sig, Static: static, kind: kind}
}

// NewField describes an instance field. A malformed signature panics.
func NewField(class *Descriptor, name, sig string) *Field {
	return newField(class, name, sig, false)
}

// NewStaticField describes a static field.
func NewStaticField(class *Descriptor, name, sig string) *Field {
	return newField(class, name, sig, true)
}

// Kind reports the field's kind.
func (f *Field) Kind() jni.Kind { return f.kind }

func (f *Field) String() string { return fmt.Sprintf("%s.%s:%s", f.Class, f.Name, f.Sig) }
