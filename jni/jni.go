// Package jni describes the raw foreign-call boundary: opaque handles, the
// 64-bit argument cell, primitive kinds, and the Env/VM function tables.
//
// The interfaces mirror the JNI invocation and native interfaces closely
// enough that a cgo adapter over a real JNIEnv is a thin translation, and an
// in-process runtime (package simvm) can implement them directly. Nothing in
// this package performs a call; it only names the calls.
package jni

import (
	"math"
	"unsafe"
)

// Version requested from GetEnv.
const Version int32 = 0x00010008

// Status codes returned by the invocation interface.
const (
	OK        int32 = 0
	Err       int32 = -1
	EDetached int32 = -2
	EVersion  int32 = -3
	ENoMem    int32 = -4
)

// Object is an opaque reference handle. The zero value is null.
type Object uintptr

// Null is the null reference.
const Null Object = 0

// IsNull reports whether o is the null reference.
func (o Object) IsNull() bool { return o == 0 }

// MethodID identifies a resolved method. Zero means unresolved.
type MethodID uintptr

// FieldID identifies a resolved field. Zero means unresolved.
type FieldID uintptr

// RefType classifies a handle.
type RefType int32

const (
	InvalidRef RefType = iota
	LocalRef
	GlobalRef
	WeakGlobalRef
)

func (r RefType) String() string {
	switch r {
	case LocalRef:
		return "local"
	case GlobalRef:
		return "global"
	case WeakGlobalRef:
		return "weak-global"
	default:
		return "invalid"
	}
}

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

// Kind is the type of a value crossing the boundary.
type Kind uint8

const (
	Void Kind = iota
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Reference
)

var kindNames = [...]string{"void", "boolean", "byte", "char", "short", "int", "long", "float", "double", "reference"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether k is one of the eight primitive element kinds.
func (k Kind) IsPrimitive() bool { return k >= Boolean && k <= Double }

// Size returns the width in bytes of a primitive array element.
func (k Kind) Size() int {
	switch k {
	case Boolean, Byte:
		return 1
	case Char, Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	default:
		return int(unsafe.Sizeof(Object(0)))
	}
}

// Descriptor returns the one-letter signature code for a primitive kind.
func (k Kind) Descriptor() string {
	switch k {
	case Void:
		return "V"
	case Boolean:
		return "Z"
	case Byte:
		return "B"
	case Char:
		return "C"
	case Short:
		return "S"
	case Int:
		return "I"
	case Long:
		return "J"
	case Float:
		return "F"
	case Double:
		return "D"
	}
	return ""
}

// KindForDescriptor maps a signature code back to a Kind. 'L' and '[' map to
// Reference.
func KindForDescriptor(c byte) (Kind, bool) {
	switch c {
	case 'V':
		return Void, true
	case 'Z':
		return Boolean, true
	case 'B':
		return Byte, true
	case 'C':
		return Char, true
	case 'S':
		return Short, true
	case 'I':
		return Int, true
	case 'J':
		return Long, true
	case 'F':
		return Float, true
	case 'D':
		return Double, true
	case 'L', '[':
		return Reference, true
	}
	return Void, false
}

// ---------------------------------------------------------------------------
// Value: the jvalue cell
// ---------------------------------------------------------------------------

// Value is an 8-byte argument/return cell. Its layout matches the C jvalue
// union on little-endian targets: narrow values occupy the low bytes.
type Value uint64

func BoolValue(b bool) Value {
	if b {
		return 1
	}
	return 0
}

func ByteValue(v int8) Value { return Value(uint8(v)) }
func CharValue(v uint16) Value { return Value(v) }
func ShortValue(v int16) Value { return Value(uint16(v)) }
func IntValue(v int32) Value { return Value(uint32(v)) }
func LongValue(v int64) Value { return Value(uint64(v)) }
func FloatValue(v float32) Value { return Value(math.Float32bits(v)) }
func DoubleValue(v float64) Value { return Value(math.Float64bits(v)) }
func ObjectValue(o Object) Value { return Value(o) }

func (v Value) Bool() bool { return uint8(v) != 0 }
func (v Value) Byte() int8 { return int8(uint8(v)) }
func (v Value) Char() uint16 { return uint16(v) }
func (v Value) Short() int16 { return int16(uint16(v)) }
func (v Value) Int() int32 { return int32(uint32(v)) }
func (v Value) Long() int64 { return int64(v) }
func (v Value) Float() float32 { return math.Float32frombits(uint32(v)) }
func (v Value) Double() float64 { return math.Float64frombits(uint64(v)) }
func (v Value) Object() Object { return Object(v) }

// ---------------------------------------------------------------------------
// Function tables
// ---------------------------------------------------------------------------

// NativeFunc is the Go shape of a native method implementation. The first
// parameter is always the Env of the calling thread; this is the receiver
// (or the class object for static natives).
type NativeFunc func(env Env, this Object, args []Value) Value

// NativeMethod pairs a method name and signature with an implementation.
// Fn is a NativeFunc for runtimes that accept Go functions, or a C function
// pointer (unsafe.Pointer) for the cgo adapter.
type NativeMethod struct {
	Name      string
	Signature string
	Fn        any
}

// Env is the per-thread native interface. Calls that can raise leave a
// pending exception and return a zero value; callers must consult
// ExceptionCheck before trusting the result.
type Env interface {
	GetVersion() int32

	FindClass(name string) Object
	GetSuperclass(class Object) Object
	IsAssignableFrom(sub, sup Object) bool
	GetObjectClass(obj Object) Object
	IsInstanceOf(obj, class Object) bool
	IsSameObject(a, b Object) bool

	NewLocalRef(obj Object) Object
	DeleteLocalRef(obj Object)
	NewGlobalRef(obj Object) Object
	DeleteGlobalRef(obj Object)
	GetObjectRefType(obj Object) RefType
	PushLocalFrame(capacity int32) int32
	PopLocalFrame(result Object) Object
	EnsureLocalCapacity(capacity int32) int32

	Throw(throwable Object) int32
	ThrowNew(class Object, message string) int32
	ExceptionCheck() bool
	ExceptionOccurred() Object
	ExceptionClear()

	GetMethodID(class Object, name, sig string) MethodID
	GetStaticMethodID(class Object, name, sig string) MethodID
	GetFieldID(class Object, name, sig string) FieldID
	GetStaticFieldID(class Object, name, sig string) FieldID

	NewObject(class Object, ctor MethodID, args []Value) Object
	CallMethod(kind Kind, obj Object, method MethodID, args []Value) Value
	CallStaticMethod(kind Kind, class Object, method MethodID, args []Value) Value
	GetField(kind Kind, obj Object, field FieldID) Value
	SetField(kind Kind, obj Object, field FieldID, v Value)
	GetStaticField(kind Kind, class Object, field FieldID) Value
	SetStaticField(kind Kind, class Object, field FieldID, v Value)

	NewStringUTF(s string) Object
	GetStringUTF(str Object) string

	GetArrayLength(array Object) int32
	NewPrimitiveArray(kind Kind, length int32) Object
	// GetArrayRegion copies length elements starting at start into buf,
	// which must hold length*kind.Size() bytes.
	GetArrayRegion(kind Kind, array Object, start, length int32, buf unsafe.Pointer)
	// SetArrayRegion copies length elements from buf into the array.
	SetArrayRegion(kind Kind, array Object, start, length int32, buf unsafe.Pointer)
	NewObjectArray(length int32, elementClass, initial Object) Object
	GetObjectArrayElement(array Object, index int32) Object
	SetObjectArrayElement(array Object, index int32, v Object)

	RegisterNatives(class Object, methods []NativeMethod) int32
}

// VM is the invocation interface of a running runtime.
type VM interface {
	// GetEnv returns the Env of the calling thread, or EDetached.
	GetEnv(version int32) (Env, int32)
	AttachCurrentThread() (Env, int32)
	DetachCurrentThread() int32
}
