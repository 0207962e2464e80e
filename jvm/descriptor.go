package jvm

import (
	"strings"
	"sync"

	"github.com/chazu/jbridge/jni"
)

// Descriptor names a managed class. It is immutable; the array descriptor
// is derived once on first use.
type Descriptor struct {
	name string // binary name: "java/lang/String", "[I", "[Ljava/lang/String;"

	arrayOnce sync.Once
	array     *Descriptor
}

// NewDescriptor accepts a dotted or binary class name, or an array
// descriptor.
func NewDescriptor(name string) *Descriptor {
	if !strings.HasPrefix(name, "[") {
		name = jni.BinaryName(name)
	}
	return &Descriptor{name: name}
}

// Name returns the binary class name used by FindClass.
func (d *Descriptor) Name() string { return d.name }

// String returns the dotted source name.
func (d *Descriptor) String() string { return jni.DottedName(d.name) }

// Signature returns the field descriptor of the class, e.g.
// "Ljava/lang/String;" or "[I".
func (d *Descriptor) Signature() string {
	if d.IsArray() {
		return d.name
	}
	return "L" + d.name + ";"
}

// IsArray reports whether d names an array class.
func (d *Descriptor) IsArray() bool { return strings.HasPrefix(d.name, "[") }

// Array returns the descriptor of "array of d".
func (d *Descriptor) Array() *Descriptor {
	d.arrayOnce.Do(func() {
		d.array = &Descriptor{name: "[" + d.Signature()}
	})
	return d.array
}

// JavaType binds a Go marker type to a managed class. Marker types are
// empty structs; Descriptor is called on the zero value and must return the
// same descriptor every time.
type JavaType interface {
	Descriptor() *Descriptor
}

// DescriptorOf returns the descriptor bound to T.
func DescriptorOf[T JavaType]() *Descriptor {
	var zero T
	return zero.Descriptor()
}

// ---------------------------------------------------------------------------
// java.lang markers
// ---------------------------------------------------------------------------

var (
	objectDesc    = NewDescriptor("java/lang/Object")
	classDesc     = NewDescriptor("java/lang/Class")
	stringDesc    = NewDescriptor("java/lang/String")
	throwableDesc = NewDescriptor("java/lang/Throwable")
	exceptionDesc = NewDescriptor("java/lang/Exception")
	runtimeDesc   = NewDescriptor("java/lang/RuntimeException")
	boundsDesc    = NewDescriptor("java/lang/ArrayIndexOutOfBoundsException")
	npeDesc       = NewDescriptor("java/lang/NullPointerException")
	illegalArg    = NewDescriptor("java/lang/IllegalArgumentException")
)

// Object is java.lang.Object.
type Object struct{}

func (Object) Descriptor() *Descriptor { return objectDesc }

// Class is java.lang.Class.
type Class struct{}

func (Class) Descriptor() *Descriptor { return classDesc }

// String is java.lang.String.
type String struct{}

func (String) Descriptor() *Descriptor { return stringDesc }

// Throwable is java.lang.Throwable.
type Throwable struct{}

func (Throwable) Descriptor() *Descriptor { return throwableDesc }

// Exception is java.lang.Exception.
type Exception struct{}

func (Exception) Descriptor() *Descriptor { return exceptionDesc }

// RuntimeException is java.lang.RuntimeException.
type RuntimeException struct{}

func (RuntimeException) Descriptor() *Descriptor { return runtimeDesc }

// ArrayIndexOutOfBoundsException is raised by out-of-range region copies.
type ArrayIndexOutOfBoundsException struct{}

func (ArrayIndexOutOfBoundsException) Descriptor() *Descriptor { return boundsDesc }

// NullPointerException is java.lang.NullPointerException.
type NullPointerException struct{}

func (NullPointerException) Descriptor() *Descriptor { return npeDesc }

// IllegalArgumentException is java.lang.IllegalArgumentException.
type IllegalArgumentException struct{}

func (IllegalArgumentException) Descriptor() *Descriptor { return illegalArg }

func init() {
	DeclareUpcast[Class, Object]()
	DeclareUpcast[String, Object]()
	DeclareUpcast[Exception, Throwable]()
	DeclareUpcast[RuntimeException, Exception]()
	DeclareUpcast[ArrayIndexOutOfBoundsException, RuntimeException]()
	DeclareUpcast[NullPointerException, RuntimeException]()
	DeclareUpcast[IllegalArgumentException, RuntimeException]()
}

// ---------------------------------------------------------------------------
// Primitive arrays
// ---------------------------------------------------------------------------

// Primitive is the set of Go types with a bit-compatible managed primitive:
// boolean, byte, char, short, int, long, float, double.
type Primitive interface {
	bool | int8 | uint16 | int16 | int32 | int64 | float32 | float64
}

// KindOf returns the primitive kind of E.
func KindOf[E Primitive]() jni.Kind {
	var zero E
	switch any(zero).(type) {
	case bool:
		return jni.Boolean
	case int8:
		return jni.Byte
	case uint16:
		return jni.Char
	case int16:
		return jni.Short
	case int32:
		return jni.Int
	case int64:
		return jni.Long
	case float32:
		return jni.Float
	default:
		return jni.Double
	}
}

var primitiveArrays = map[jni.Kind]*Descriptor{
	jni.Boolean: NewDescriptor("[Z"),
	jni.Byte:    NewDescriptor("[B"),
	jni.Char:    NewDescriptor("[C"),
	jni.Short:   NewDescriptor("[S"),
	jni.Int:     NewDescriptor("[I"),
	jni.Long:    NewDescriptor("[J"),
	jni.Float:   NewDescriptor("[F"),
	jni.Double:  NewDescriptor("[D"),
}

// Array is the marker of a primitive array of E. It carries no length; the
// runtime's length is authoritative.
type Array[E Primitive] struct{}

func (Array[E]) Descriptor() *Descriptor { return primitiveArrays[KindOf[E]()] }

// ObjectArray is the marker of an array of T.
type ObjectArray[T JavaType] struct{}

func (ObjectArray[T]) Descriptor() *Descriptor { return DescriptorOf[T]().Array() }

// ArrayClassOf resolves the class of "array of T".
func ArrayClassOf[T JavaType](env *Env) (jni.Object, error) {
	return env.ClassOf(DescriptorOf[T]().Array())
}

func toValue[S Primitive](v S) jni.Value {
	switch x := any(v).(type) {
	case bool:
		return jni.BoolValue(x)
	case int8:
		return jni.ByteValue(x)
	case uint16:
		return jni.CharValue(x)
	case int16:
		return jni.ShortValue(x)
	case int32:
		return jni.IntValue(x)
	case int64:
		return jni.LongValue(x)
	case float32:
		return jni.FloatValue(x)
	default:
		return jni.DoubleValue(any(v).(float64))
	}
}

func fromValue[S Primitive](v jni.Value) S {
	var out S
	switch p := any(&out).(type) {
	case *bool:
		*p = v.Bool()
	case *int8:
		*p = v.Byte()
	case *uint16:
		*p = v.Char()
	case *int16:
		*p = v.Short()
	case *int32:
		*p = v.Int()
	case *int64:
		*p = v.Long()
	case *float32:
		*p = v.Float()
	case *float64:
		*p = v.Double()
	}
	return out
}
