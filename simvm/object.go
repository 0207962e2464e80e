package simvm

import (
	"github.com/chazu/jbridge/jni"
)

// Object is a heap object. Strings, class mirrors, and arrays are objects
// whose payload lives in the dedicated fields below.
type Object struct {
	class  *Class
	fields map[*Field]slot

	str    string    // java/lang/String payload
	mirror *Class    // set on java/lang/Class instances
	prim   []byte    // primitive array payload, length*elem size bytes
	elems  []*Object // object array payload
	length int32

	// Host holds Go state attached by managed-method implementations.
	Host any
}

// slot holds one field value: a primitive cell or a reference.
type slot struct {
	prim jni.Value
	ref  *Object
}

// Class returns the object's dynamic class.
func (o *Object) Class() *Class { return o.class }

// String returns the payload of a java/lang/String object.
func (o *Object) String() string { return o.str }

// Length returns the array length, or 0 for non-arrays.
func (o *Object) Length() int32 { return o.length }

// setField stores v in f. The caller holds the runtime lock.
func (o *Object) setField(f *Field, v Value) {
	if o.fields == nil {
		o.fields = make(map[*Field]slot)
	}
	o.fields[f] = slot{prim: v.Prim, ref: v.Ref}
}

// Value is the in-runtime form of an argument or result: a primitive cell
// or an object pointer, according to the declared kind.
type Value struct {
	Prim jni.Value
	Ref  *Object
}

// Prim wraps a primitive cell.
func Prim(v jni.Value) Value { return Value{Prim: v} }

// Ref wraps an object reference (nil is null).
func Ref(o *Object) Value { return Value{Ref: o} }
