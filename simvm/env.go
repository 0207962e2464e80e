package simvm

import (
	"fmt"
	"unsafe"

	"github.com/chazu/jbridge/jni"
)

// env is the jni.Env of one attached thread.
type env struct {
	t  *Thread
	rt *Runtime
}

var _ jni.Env = (*env)(nil)

// enter validates the calling thread. Calls other than the exception-safe
// ones must not be made while an exception is pending.
func (e *env) enter(op string, pendingOK bool) {
	if e.t.frames == nil {
		panic(fmt.Sprintf("simvm: %s on a detached thread's env", op))
	}
	if tid := currentThreadID(); tid != e.t.tid {
		panic(fmt.Sprintf("simvm: %s: env of thread %d used on thread %d", op, e.t.tid, tid))
	}
	if !pendingOK {
		e.t.mustNotBePending(op)
	}
}

func (e *env) GetVersion() int32 { return jni.Version }

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

func (e *env) classOf(h jni.Object, op string) *Class {
	o := e.t.deref(h, op)
	if o == nil || o.mirror == nil {
		panic(&InvalidReferenceError{Handle: h, Op: op + " (not a class)"})
	}
	return o.mirror
}

func (e *env) FindClass(name string) jni.Object {
	e.enter("FindClass", false)
	if len(name) > 0 && name[0] != '[' {
		name = jni.BinaryName(name)
	}
	e.rt.mu.Lock()
	c := e.rt.findClassLocked(name)
	e.rt.mu.Unlock()
	if c == nil {
		e.t.throwNew("java/lang/NoClassDefFoundError", name)
		return jni.Null
	}
	return e.t.newLocal(c.mirror)
}

func (e *env) GetSuperclass(class jni.Object) jni.Object {
	e.enter("GetSuperclass", false)
	c := e.classOf(class, "GetSuperclass")
	if c.Super == nil {
		return jni.Null
	}
	return e.t.newLocal(c.Super.mirror)
}

// assignable reports whether values of class c may be stored where target
// is expected, including array covariance.
func assignable(c, target *Class) bool {
	if c.IsSubclassOf(target) {
		return true
	}
	if c.Component != nil && target.Component != nil {
		return assignable(c.Component, target.Component)
	}
	return false
}

func (e *env) IsAssignableFrom(sub, sup jni.Object) bool {
	e.enter("IsAssignableFrom", false)
	return assignable(e.classOf(sub, "IsAssignableFrom"), e.classOf(sup, "IsAssignableFrom"))
}

func (e *env) GetObjectClass(obj jni.Object) jni.Object {
	e.enter("GetObjectClass", false)
	o := e.t.deref(obj, "GetObjectClass")
	if o == nil {
		panic(&InvalidReferenceError{Handle: obj, Op: "GetObjectClass (null)"})
	}
	return e.t.newLocal(o.class.mirror)
}

// IsInstanceOf follows the native interface: null is an instance of every
// class.
func (e *env) IsInstanceOf(obj, class jni.Object) bool {
	e.enter("IsInstanceOf", false)
	c := e.classOf(class, "IsInstanceOf")
	o := e.t.deref(obj, "IsInstanceOf")
	return o == nil || assignable(o.class, c)
}

func (e *env) IsSameObject(a, b jni.Object) bool {
	e.enter("IsSameObject", true)
	return e.t.deref(a, "IsSameObject") == e.t.deref(b, "IsSameObject")
}

// ---------------------------------------------------------------------------
// References
// ---------------------------------------------------------------------------

func (e *env) NewLocalRef(obj jni.Object) jni.Object {
	e.enter("NewLocalRef", false)
	return e.t.newLocal(e.t.deref(obj, "NewLocalRef"))
}

func (e *env) DeleteLocalRef(obj jni.Object) {
	e.enter("DeleteLocalRef", true)
	e.t.deleteLocal(obj)
}

func (e *env) NewGlobalRef(obj jni.Object) jni.Object {
	e.enter("NewGlobalRef", false)
	return e.rt.newGlobal(e.t.deref(obj, "NewGlobalRef"))
}

func (e *env) DeleteGlobalRef(obj jni.Object) {
	e.enter("DeleteGlobalRef", true)
	e.rt.deleteGlobal(obj)
}

func (e *env) GetObjectRefType(obj jni.Object) jni.RefType {
	e.enter("GetObjectRefType", true)
	return e.t.refType(obj)
}

func (e *env) PushLocalFrame(capacity int32) int32 {
	e.enter("PushLocalFrame", false)
	return e.t.pushFrame(capacity)
}

func (e *env) PopLocalFrame(result jni.Object) jni.Object {
	e.enter("PopLocalFrame", true)
	return e.t.popFrame(result)
}

func (e *env) EnsureLocalCapacity(capacity int32) int32 {
	e.enter("EnsureLocalCapacity", false)
	if capacity < 0 || len(e.t.locals)+int(capacity) > e.rt.opts.MaxLocals {
		e.t.throwNew("java/lang/OutOfMemoryError",
			fmt.Sprintf("cannot ensure %d local references", capacity))
		return jni.ENoMem
	}
	top := e.t.frames[len(e.t.frames)-1]
	top.capacity = max(top.capacity, capacity)
	return jni.OK
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

func (e *env) Throw(throwable jni.Object) int32 {
	e.enter("Throw", true)
	o := e.t.deref(throwable, "Throw")
	if o == nil || !o.class.IsSubclassOf(e.rt.throwableClass) {
		return jni.Err
	}
	e.t.pending = o
	return jni.OK
}

func (e *env) ThrowNew(class jni.Object, message string) int32 {
	e.enter("ThrowNew", true)
	c := e.classOf(class, "ThrowNew")
	if !c.IsSubclassOf(e.rt.throwableClass) {
		return jni.Err
	}
	e.t.pending = e.rt.newThrowable(c, message)
	return jni.OK
}

func (e *env) ExceptionCheck() bool {
	e.enter("ExceptionCheck", true)
	return e.t.pending != nil
}

func (e *env) ExceptionOccurred() jni.Object {
	e.enter("ExceptionOccurred", true)
	if e.t.pending == nil {
		return jni.Null
	}
	pending := e.t.pending
	h := e.t.newLocal(pending)
	if h.IsNull() {
		// The local table is full; keep the original exception pending.
		e.t.pending = pending
	}
	return h
}

func (e *env) ExceptionClear() {
	e.enter("ExceptionClear", true)
	e.t.pending = nil
}

// ---------------------------------------------------------------------------
// Member IDs
// ---------------------------------------------------------------------------

func (e *env) methodID(class jni.Object, name, sig string, static bool, op string) jni.MethodID {
	e.enter(op, false)
	c := e.classOf(class, op)
	e.rt.mu.Lock()
	m := c.lookupMethod(name, sig, static)
	e.rt.mu.Unlock()
	if m == nil {
		e.t.throwNew("java/lang/NoSuchMethodError", name+sig)
		return 0
	}
	return m.id
}

func (e *env) GetMethodID(class jni.Object, name, sig string) jni.MethodID {
	return e.methodID(class, name, sig, false, "GetMethodID")
}

func (e *env) GetStaticMethodID(class jni.Object, name, sig string) jni.MethodID {
	return e.methodID(class, name, sig, true, "GetStaticMethodID")
}

func (e *env) fieldID(class jni.Object, name, sig string, static bool, op string) jni.FieldID {
	e.enter(op, false)
	c := e.classOf(class, op)
	e.rt.mu.Lock()
	f := c.lookupField(name, static)
	e.rt.mu.Unlock()
	if f == nil || f.Sig != sig {
		e.t.throwNew("java/lang/NoSuchFieldError", name)
		return 0
	}
	return f.id
}

func (e *env) GetFieldID(class jni.Object, name, sig string) jni.FieldID {
	return e.fieldID(class, name, sig, false, "GetFieldID")
}

func (e *env) GetStaticFieldID(class jni.Object, name, sig string) jni.FieldID {
	return e.fieldID(class, name, sig, true, "GetStaticFieldID")
}

func (e *env) method(id jni.MethodID) *Method {
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()
	if id == 0 || int(id) > len(e.rt.methods) {
		panic(fmt.Sprintf("simvm: invalid method id %d", id))
	}
	return e.rt.methods[id-1]
}

func (e *env) field(id jni.FieldID) *Field {
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()
	if id == 0 || int(id) > len(e.rt.fields) {
		panic(fmt.Sprintf("simvm: invalid field id %d", id))
	}
	return e.rt.fields[id-1]
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// args converts boundary cells into runtime values. An arity mismatch
// raises IllegalArgumentException.
func (e *env) args(m *Method, cells []jni.Value) ([]Value, bool) {
	if len(cells) != len(m.args) {
		e.t.throwNew("java/lang/IllegalArgumentException",
			fmt.Sprintf("%s: wrong number of arguments: %d, expected %d", m, len(cells), len(m.args)))
		return nil, false
	}
	vals := make([]Value, len(cells))
	for i, k := range m.args {
		vals[i] = e.fromCell(k, cells[i])
	}
	return vals, true
}

func (e *env) fromCell(kind jni.Kind, cell jni.Value) Value {
	if kind == jni.Reference {
		return Ref(e.t.deref(cell.Object(), "argument"))
	}
	return Prim(cell)
}

func (e *env) toCell(kind jni.Kind, v Value) jni.Value {
	switch kind {
	case jni.Void:
		return 0
	case jni.Reference:
		return jni.ObjectValue(e.t.newLocal(v.Ref))
	default:
		return v.Prim
	}
}

func (e *env) NewObject(class jni.Object, ctor jni.MethodID, cells []jni.Value) jni.Object {
	e.enter("NewObject", false)
	c := e.classOf(class, "NewObject")
	m := e.method(ctor)
	if m.Name != "<init>" || m.Class != c {
		panic(fmt.Sprintf("simvm: NewObject: %s is not a constructor of %s", m, c.DottedName()))
	}
	vals, ok := e.args(m, cells)
	if !ok {
		return jni.Null
	}
	obj := &Object{class: c}
	e.t.invoke(m, obj, vals)
	if e.t.pending != nil {
		return jni.Null
	}
	return e.t.newLocal(obj)
}

func (e *env) CallMethod(kind jni.Kind, obj jni.Object, id jni.MethodID, cells []jni.Value) jni.Value {
	e.enter("CallMethod", false)
	m := e.method(id)
	if m.Static || m.ret != kind {
		panic(fmt.Sprintf("simvm: CallMethod(%s) on %s", kind, m))
	}
	o := e.t.deref(obj, "CallMethod")
	if o == nil {
		e.t.throwNew("java/lang/NullPointerException",
			fmt.Sprintf("cannot invoke %s on null", m))
		return 0
	}
	if !o.class.IsSubclassOf(m.Class) {
		e.t.throwNew("java/lang/IncompatibleClassChangeError",
			fmt.Sprintf("%s does not declare %s", o.class.DottedName(), m))
		return 0
	}
	vals, ok := e.args(m, cells)
	if !ok {
		return 0
	}
	res := e.t.invoke(e.rt.dispatch(o.class, m), o, vals)
	if e.t.pending != nil {
		return 0
	}
	return e.toCell(kind, res)
}

func (e *env) CallStaticMethod(kind jni.Kind, class jni.Object, id jni.MethodID, cells []jni.Value) jni.Value {
	e.enter("CallStaticMethod", false)
	e.classOf(class, "CallStaticMethod")
	m := e.method(id)
	if !m.Static || m.ret != kind {
		panic(fmt.Sprintf("simvm: CallStaticMethod(%s) on %s", kind, m))
	}
	vals, ok := e.args(m, cells)
	if !ok {
		return 0
	}
	res := e.t.invoke(m, nil, vals)
	if e.t.pending != nil {
		return 0
	}
	return e.toCell(kind, res)
}

// ---------------------------------------------------------------------------
// Fields
// ---------------------------------------------------------------------------

func (e *env) instanceField(kind jni.Kind, obj jni.Object, id jni.FieldID, op string) (*Object, *Field) {
	e.enter(op, false)
	f := e.field(id)
	if f.Static || f.kind != kind {
		panic(fmt.Sprintf("simvm: %s(%s) on field %s.%s", op, kind, f.Class.DottedName(), f.Name))
	}
	o := e.t.deref(obj, op)
	if o == nil {
		e.t.throwNew("java/lang/NullPointerException",
			fmt.Sprintf("cannot access field %s on null", f.Name))
		return nil, nil
	}
	return o, f
}

func (e *env) GetField(kind jni.Kind, obj jni.Object, id jni.FieldID) jni.Value {
	o, f := e.instanceField(kind, obj, id, "GetField")
	if o == nil {
		return 0
	}
	e.rt.mu.Lock()
	s := o.fields[f]
	e.rt.mu.Unlock()
	return e.toCell(kind, Value{Prim: s.prim, Ref: s.ref})
}

func (e *env) SetField(kind jni.Kind, obj jni.Object, id jni.FieldID, v jni.Value) {
	o, f := e.instanceField(kind, obj, id, "SetField")
	if o == nil {
		return
	}
	val := e.fromCell(kind, v)
	e.rt.mu.Lock()
	o.setField(f, val)
	e.rt.mu.Unlock()
}

func (e *env) staticField(kind jni.Kind, class jni.Object, id jni.FieldID, op string) *Field {
	e.enter(op, false)
	e.classOf(class, op)
	f := e.field(id)
	if !f.Static || f.kind != kind {
		panic(fmt.Sprintf("simvm: %s(%s) on field %s.%s", op, kind, f.Class.DottedName(), f.Name))
	}
	return f
}

func (e *env) GetStaticField(kind jni.Kind, class jni.Object, id jni.FieldID) jni.Value {
	f := e.staticField(kind, class, id, "GetStaticField")
	e.rt.mu.Lock()
	s := f.Class.statics[f]
	e.rt.mu.Unlock()
	return e.toCell(kind, Value{Prim: s.prim, Ref: s.ref})
}

func (e *env) SetStaticField(kind jni.Kind, class jni.Object, id jni.FieldID, v jni.Value) {
	f := e.staticField(kind, class, id, "SetStaticField")
	val := e.fromCell(kind, v)
	e.rt.mu.Lock()
	f.Class.statics[f] = slot{prim: val.Prim, ref: val.Ref}
	e.rt.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

func (e *env) NewStringUTF(s string) jni.Object {
	e.enter("NewStringUTF", false)
	return e.t.newLocal(e.rt.newString(s))
}

func (e *env) GetStringUTF(str jni.Object) string {
	e.enter("GetStringUTF", false)
	o := e.t.deref(str, "GetStringUTF")
	if o == nil || o.class != e.rt.stringClass {
		panic(&InvalidReferenceError{Handle: str, Op: "GetStringUTF (not a string)"})
	}
	return o.str
}

// ---------------------------------------------------------------------------
// Arrays
// ---------------------------------------------------------------------------

func (e *env) array(h jni.Object, op string) *Object {
	o := e.t.deref(h, op)
	if o == nil || !o.class.IsArray() {
		panic(&InvalidReferenceError{Handle: h, Op: op + " (not an array)"})
	}
	return o
}

// checkLength raises for negative or oversized allocation requests.
func (e *env) checkLength(length int32) bool {
	if length < 0 {
		e.t.throwNew("java/lang/NegativeArraySizeException", fmt.Sprint(length))
		return false
	}
	if limit := e.rt.opts.MaxArrayLength; limit > 0 && length > limit {
		e.t.throwNew("java/lang/OutOfMemoryError", "Requested array size exceeds VM limit")
		return false
	}
	return true
}

// checkRange raises ArrayIndexOutOfBoundsException unless
// [start, start+length) lies within an array of size n.
func (e *env) checkRange(start, length, n int32) bool {
	if start < 0 || length < 0 || int64(start)+int64(length) > int64(n) {
		e.t.throwNew("java/lang/ArrayIndexOutOfBoundsException",
			fmt.Sprintf("Array region %d..%d out of bounds for length %d", start, int64(start)+int64(length), n))
		return false
	}
	return true
}

func (e *env) GetArrayLength(array jni.Object) int32 {
	e.enter("GetArrayLength", false)
	return e.array(array, "GetArrayLength").length
}

func (e *env) NewPrimitiveArray(kind jni.Kind, length int32) jni.Object {
	e.enter("NewPrimitiveArray", false)
	if !kind.IsPrimitive() {
		panic(fmt.Sprintf("simvm: NewPrimitiveArray(%s)", kind))
	}
	if !e.checkLength(length) {
		return jni.Null
	}
	e.rt.mu.Lock()
	c := e.rt.findClassLocked("[" + kind.Descriptor())
	e.rt.mu.Unlock()
	return e.t.newLocal(e.rt.newPrimitiveArray(c, length))
}

func (e *env) primitiveArray(kind jni.Kind, h jni.Object, op string) *Object {
	o := e.array(h, op)
	if o.class.Elem != kind {
		panic(fmt.Sprintf("simvm: %s(%s) on %s", op, kind, o.class.Name))
	}
	return o
}

func (e *env) GetArrayRegion(kind jni.Kind, array jni.Object, start, length int32, buf unsafe.Pointer) {
	e.enter("GetArrayRegion", false)
	o := e.primitiveArray(kind, array, "GetArrayRegion")
	if !e.checkRange(start, length, o.length) || length == 0 {
		return
	}
	size := kind.Size()
	dst := unsafe.Slice((*byte)(buf), int(length)*size)
	e.rt.mu.Lock()
	copy(dst, o.prim[int(start)*size:])
	e.rt.mu.Unlock()
}

func (e *env) SetArrayRegion(kind jni.Kind, array jni.Object, start, length int32, buf unsafe.Pointer) {
	e.enter("SetArrayRegion", false)
	o := e.primitiveArray(kind, array, "SetArrayRegion")
	if !e.checkRange(start, length, o.length) || length == 0 {
		return
	}
	size := kind.Size()
	src := unsafe.Slice((*byte)(buf), int(length)*size)
	e.rt.mu.Lock()
	copy(o.prim[int(start)*size:], src)
	e.rt.mu.Unlock()
}

func (e *env) NewObjectArray(length int32, elementClass, initial jni.Object) jni.Object {
	e.enter("NewObjectArray", false)
	elem := e.classOf(elementClass, "NewObjectArray")
	init := e.t.deref(initial, "NewObjectArray")
	if init != nil && !assignable(init.class, elem) {
		e.t.throwNew("java/lang/ArrayStoreException", init.class.DottedName())
		return jni.Null
	}
	if !e.checkLength(length) {
		return jni.Null
	}
	e.rt.mu.Lock()
	c := e.rt.findClassLocked("[" + elem.descriptor())
	e.rt.mu.Unlock()
	return e.t.newLocal(e.rt.newObjectArray(c, length, init))
}

func (e *env) objectArray(h jni.Object, op string) *Object {
	o := e.array(h, op)
	if o.class.Component == nil {
		panic(fmt.Sprintf("simvm: %s on %s", op, o.class.Name))
	}
	return o
}

func (e *env) GetObjectArrayElement(array jni.Object, index int32) jni.Object {
	e.enter("GetObjectArrayElement", false)
	o := e.objectArray(array, "GetObjectArrayElement")
	if !e.checkIndex(index, o.length) {
		return jni.Null
	}
	e.rt.mu.Lock()
	elem := o.elems[index]
	e.rt.mu.Unlock()
	return e.t.newLocal(elem)
}

func (e *env) SetObjectArrayElement(array jni.Object, index int32, v jni.Object) {
	e.enter("SetObjectArrayElement", false)
	o := e.objectArray(array, "SetObjectArrayElement")
	if !e.checkIndex(index, o.length) {
		return
	}
	val := e.t.deref(v, "SetObjectArrayElement")
	if val != nil && !assignable(val.class, o.class.Component) {
		e.t.throwNew("java/lang/ArrayStoreException", val.class.DottedName())
		return
	}
	e.rt.mu.Lock()
	o.elems[index] = val
	e.rt.mu.Unlock()
}

func (e *env) checkIndex(index, n int32) bool {
	if index < 0 || index >= n {
		e.t.throwNew("java/lang/ArrayIndexOutOfBoundsException",
			fmt.Sprintf("Index %d out of bounds for length %d", index, n))
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Natives
// ---------------------------------------------------------------------------

// RegisterNatives binds Go implementations to methods declared native on
// class itself. Either every method binds or none does.
func (e *env) RegisterNatives(class jni.Object, methods []jni.NativeMethod) int32 {
	e.enter("RegisterNatives", false)
	c := e.classOf(class, "RegisterNatives")

	targets := make([]*Method, len(methods))
	fns := make([]jni.NativeFunc, len(methods))
	e.rt.mu.Lock()
	defer e.rt.mu.Unlock()
	for i, nm := range methods {
		m := c.methods[nm.Name+nm.Signature]
		if m == nil || !m.Native {
			e.t.pending = e.rt.newThrowableLocked("java/lang/NoSuchMethodError",
				fmt.Sprintf("%s.%s%s is not a native method", c.DottedName(), nm.Name, nm.Signature))
			return jni.Err
		}
		switch fn := nm.Fn.(type) {
		case jni.NativeFunc:
			fns[i] = fn
		case func(jni.Env, jni.Object, []jni.Value) jni.Value:
			fns[i] = fn
		default:
			panic(fmt.Sprintf("simvm: RegisterNatives %s: implementation is %T, want jni.NativeFunc", m, nm.Fn))
		}
		targets[i] = m
	}
	for i, m := range targets {
		m.native = fns[i]
	}
	log.Debugf("runtime %s: registered %d natives on %s", e.rt.ID, len(methods), c.DottedName())
	return jni.OK
}
