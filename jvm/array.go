package jvm

import (
	"math"
	"slices"
	"unsafe"

	"github.com/chazu/jbridge/jni"
)

// arrayLength converts a Go length to the foreign int32 length type.
func arrayLength(n int) (int32, error) {
	if n > math.MaxInt32 {
		return 0, internalErrorf(SliceTooLong, "%d elements", n)
	}
	return int32(n), nil
}

// bufferOf points at the first element of values, or nil when empty.
func bufferOf[E Primitive](values []E) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(values))
}

// NewArrayOp allocates a primitive array and fills it from a Go slice.
type NewArrayOp[E Primitive] struct {
	values []E
}

// NewArray marshals values into a new foreign array: one allocation and
// one bulk copy. values is copied when the operation is built.
func NewArray[E Primitive](values []E) NewArrayOp[E] {
	return NewArrayOp[E]{values: slices.Clone(values)}
}

func (o NewArrayOp[E]) Do(env *Env) (Local[Array[E]], error) { return doRef[Array[E]](env, o) }
func (o NewArrayOp[E]) argument(env *Env) (arg, error)        { return refArgument(env, o) }
func (o NewArrayOp[E]) javaType() Array[E]                    { return Array[E]{} }

func (o NewArrayOp[E]) reference(env *Env) (ref, error) {
	n, err := arrayLength(len(o.values))
	if err != nil {
		return ref{}, err
	}
	kind := KindOf[E]()
	h := env.raw.NewPrimitiveArray(kind, n)
	if err := env.check(); err != nil {
		return ref{}, err
	}
	if h.IsNull() {
		return ref{}, internalErrorf(AllocationFailed, "new %s[%d]", kind, n)
	}
	r, err := env.adopt(h)
	if err != nil {
		return ref{}, err
	}
	if n > 0 {
		env.raw.SetArrayRegion(kind, h, 0, n, bufferOf(o.values))
		if err := env.check(); err != nil {
			env.drop(r)
			return ref{}, err
		}
	}
	return r, nil
}

// ToSliceOp copies a whole primitive array into Go.
type ToSliceOp[E Primitive] struct {
	array ObjectOp[Array[E]]
}

// ToSlice reads the array's length from the runtime, allocates exactly
// that, and copies the elements in one bulk transfer.
func ToSlice[E Primitive](array ObjectOp[Array[E]]) ToSliceOp[E] {
	return ToSliceOp[E]{array: array}
}

func (o ToSliceOp[E]) Do(env *Env) ([]E, error) {
	r, err := o.array.reference(env)
	if err != nil {
		return nil, err
	}
	defer env.drop(r)
	if r.h.IsNull() {
		return nil, internalErrorf(NullDereference, "ToSlice on null %s", DescriptorOf[Array[E]]())
	}

	n := env.raw.GetArrayLength(r.h)
	if err := env.check(); err != nil {
		return nil, err
	}
	out := make([]E, n)
	if n == 0 {
		return out, nil
	}
	kind := KindOf[E]()
	if kind == jni.Boolean {
		// Copied as unsigned bytes; any non-zero cell reads as true.
		cells := make([]uint8, n)
		env.raw.GetArrayRegion(kind, r.h, 0, n, unsafe.Pointer(&cells[0]))
		if err := env.check(); err != nil {
			return nil, err
		}
		bools := any(out).([]bool)
		for i, c := range cells {
			bools[i] = c != 0
		}
		return out, nil
	}
	env.raw.GetArrayRegion(kind, r.h, 0, n, bufferOf(out))
	if err := env.check(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetRegion writes values into the array starting at start, in one bulk
// copy. Bounds are checked by the runtime: a region past the end surfaces
// as a *ThrownError and leaves the array unmodified.
func SetRegion[E Primitive](array ObjectOp[Array[E]], start int32, values []E) RegionOp[E] {
	return RegionOp[E]{array: array, start: start, values: slices.Clone(values)}
}

// RegionOp is a partial array update.
type RegionOp[E Primitive] struct {
	array  ObjectOp[Array[E]]
	start  int32
	values []E
}

func (o RegionOp[E]) Do(env *Env) (struct{}, error) {
	n, err := arrayLength(len(o.values))
	if err != nil {
		return struct{}{}, err
	}
	r, err := o.array.reference(env)
	if err != nil {
		return struct{}{}, err
	}
	defer env.drop(r)
	if r.h.IsNull() {
		return struct{}{}, internalErrorf(NullDereference, "SetRegion on null %s", DescriptorOf[Array[E]]())
	}
	env.raw.SetArrayRegion(KindOf[E](), r.h, o.start, n, bufferOf(o.values))
	return struct{}{}, env.check()
}

// LengthOp queries an array's length.
type LengthOp[T JavaType] struct {
	array ObjectOp[T]
}

// ArrayLength returns the runtime's length of any array.
func ArrayLength[T JavaType](array ObjectOp[T]) LengthOp[T] { return LengthOp[T]{array: array} }

func (o LengthOp[T]) Do(env *Env) (int32, error) {
	r, err := o.array.reference(env)
	if err != nil {
		return 0, err
	}
	defer env.drop(r)
	if r.h.IsNull() {
		return 0, internalErrorf(NullDereference, "length of null %s", DescriptorOf[T]())
	}
	n := env.raw.GetArrayLength(r.h)
	return n, env.check()
}

func (o LengthOp[T]) argument(env *Env) (arg, error) {
	n, err := o.Do(env)
	if err != nil {
		return arg{}, err
	}
	return arg{cell: jni.IntValue(n), kind: jni.Int}, nil
}

// ---------------------------------------------------------------------------
// Object arrays
// ---------------------------------------------------------------------------

// NewObjectArrayOp allocates an array of T holding the given elements.
type NewObjectArrayOp[T JavaType] struct {
	elems []ObjectOp[T]
}

// NewObjectArray builds a T[] from element operations, evaluated in order.
func NewObjectArray[T JavaType](elems ...ObjectOp[T]) NewObjectArrayOp[T] {
	return NewObjectArrayOp[T]{elems: slices.Clone(elems)}
}

func (o NewObjectArrayOp[T]) Do(env *Env) (Local[ObjectArray[T]], error) {
	return doRef[ObjectArray[T]](env, o)
}
func (o NewObjectArrayOp[T]) argument(env *Env) (arg, error) { return refArgument(env, o) }
func (o NewObjectArrayOp[T]) javaType() ObjectArray[T]       { return ObjectArray[T]{} }

func (o NewObjectArrayOp[T]) reference(env *Env) (ref, error) {
	n, err := arrayLength(len(o.elems))
	if err != nil {
		return ref{}, err
	}
	cls, err := env.ClassOf(DescriptorOf[T]())
	if err != nil {
		return ref{}, err
	}
	h := env.raw.NewObjectArray(n, cls, jni.Null)
	if err := env.check(); err != nil {
		return ref{}, err
	}
	if h.IsNull() {
		return ref{}, internalErrorf(AllocationFailed, "new %s[%d]", DescriptorOf[T](), n)
	}
	arr, err := env.adopt(h)
	if err != nil {
		return ref{}, err
	}
	for i, elem := range o.elems {
		if err := setElement(env, arr.h, int32(i), elem); err != nil {
			env.drop(arr)
			return ref{}, err
		}
	}
	return arr, nil
}

func setElement(env *Env, array jni.Object, index int32, elem referencer) error {
	r, err := elem.reference(env)
	if err != nil {
		return err
	}
	defer env.drop(r)
	env.raw.SetObjectArrayElement(array, index, r.h)
	return env.check()
}

type elementOp[T JavaType] struct {
	array ObjectOp[ObjectArray[T]]
	index int32
}

// ArrayElement reads one element of a T[].
func ArrayElement[T JavaType](array ObjectOp[ObjectArray[T]], index int32) ObjectOp[T] {
	return elementOp[T]{array: array, index: index}
}

func (o elementOp[T]) Do(env *Env) (Local[T], error) { return doRef[T](env, o) }
func (o elementOp[T]) argument(env *Env) (arg, error) { return refArgument(env, o) }
func (o elementOp[T]) javaType() T                    { return *new(T) }

func (o elementOp[T]) reference(env *Env) (ref, error) {
	r, err := o.array.reference(env)
	if err != nil {
		return ref{}, err
	}
	defer env.drop(r)
	if r.h.IsNull() {
		return ref{}, internalErrorf(NullDereference, "element %d of null %s", o.index, DescriptorOf[ObjectArray[T]]())
	}
	h := env.raw.GetObjectArrayElement(r.h, o.index)
	if err := env.check(); err != nil {
		return ref{}, err
	}
	return env.adopt(h)
}

// SetElementOp writes one element of a T[].
type SetElementOp[T JavaType] struct {
	array ObjectOp[ObjectArray[T]]
	index int32
	value ObjectOp[T]
}

// SetArrayElement stores value at index.
func SetArrayElement[T JavaType](array ObjectOp[ObjectArray[T]], index int32, value ObjectOp[T]) SetElementOp[T] {
	return SetElementOp[T]{array: array, index: index, value: value}
}

func (o SetElementOp[T]) Do(env *Env) (struct{}, error) {
	r, err := o.array.reference(env)
	if err != nil {
		return struct{}{}, err
	}
	defer env.drop(r)
	if r.h.IsNull() {
		return struct{}{}, internalErrorf(NullDereference, "store into null %s", DescriptorOf[ObjectArray[T]]())
	}
	return struct{}{}, setElement(env, r.h, o.index, o.value)
}
