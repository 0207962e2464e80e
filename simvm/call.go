package simvm

import (
	"fmt"
	"unsafe"

	"github.com/chazu/jbridge/jni"
)

// dispatch selects the override of m for a receiver of class c.
func (rt *Runtime) dispatch(c *Class, m *Method) *Method {
	if m.Static || m.Name == "<init>" {
		return m
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if found := c.lookupMethod(m.Name, m.Sig, false); found != nil {
		return found
	}
	return m
}

// invoke runs m on this thread. A raised exception is left pending and the
// zero Value returned.
func (t *Thread) invoke(m *Method, this *Object, args []Value) Value {
	if m.Native {
		t.rt.mu.Lock()
		fn := m.native
		t.rt.mu.Unlock()
		if fn == nil {
			t.throwNew("java/lang/UnsatisfiedLinkError", m.String())
			return Value{}
		}
		return t.invokeNative(m, fn, this, args)
	}
	if m.impl == nil {
		return Value{}
	}
	res := m.impl(&Call{Thread: t, Method: m, This: this, Args: args})
	if t.pending != nil {
		return Value{}
	}
	return res
}

// invokeNative calls fn in a fresh local frame, the way a runtime enters a
// native method. Locals the native leaks are freed on return.
func (t *Thread) invokeNative(m *Method, fn jni.NativeFunc, this *Object, args []Value) Value {
	depth := len(t.frames)
	t.frames = append(t.frames, &frame{capacity: defaultFrameCapacity})
	defer t.unwindTo(depth)

	if m.Static {
		this = m.Class.mirror
	}
	thisH := t.newLocal(this)
	cells := make([]jni.Value, len(args))
	for i, k := range m.args {
		if k == jni.Reference {
			cells[i] = jni.ObjectValue(t.newLocal(args[i].Ref))
		} else {
			cells[i] = args[i].Prim
		}
	}
	if t.pending != nil {
		return Value{}
	}

	out := fn(t.env, thisH, cells)
	if t.pending != nil {
		return Value{}
	}
	switch m.ret {
	case jni.Void:
		return Value{}
	case jni.Reference:
		return Ref(t.deref(out.Object(), m.String()+" result"))
	default:
		return Prim(out)
	}
}

// ---------------------------------------------------------------------------
// Call: the managed-method side
// ---------------------------------------------------------------------------

// Call is the context of one managed-method invocation. This is nil for
// static methods. Helpers that can raise leave the exception pending; the
// Impl should return promptly once Pending reports one.
type Call struct {
	Thread *Thread
	Method *Method
	This   *Object
	Args   []Value
}

// Runtime returns the runtime executing the call.
func (c *Call) Runtime() *Runtime { return c.Thread.rt }

// Throw raises a new exception of the named class and returns the zero
// Value, so an Impl can write `return c.Throw(...)`.
func (c *Call) Throw(className, message string) Value {
	c.Thread.throwNew(jni.BinaryName(className), message)
	return Value{}
}

// ThrowObject raises an existing throwable.
func (c *Call) ThrowObject(throwable *Object) Value {
	c.Thread.pending = throwable
	return Value{}
}

// Pending returns the pending exception, or nil.
func (c *Call) Pending() *Object { return c.Thread.pending }

// ClearPending discards the pending exception and returns it.
func (c *Call) ClearPending() *Object {
	p := c.Thread.pending
	c.Thread.pending = nil
	return p
}

// NewString allocates a java/lang/String.
func (c *Call) NewString(s string) *Object { return c.Thread.rt.newString(s) }

// Int, Bool, and friends read primitive arguments.
func (c *Call) Int(i int) int32 { return c.Args[i].Prim.Int() }
func (c *Call) Long(i int) int64 { return c.Args[i].Prim.Long() }
func (c *Call) Bool(i int) bool { return c.Args[i].Prim.Bool() }
func (c *Call) Byte(i int) int8 { return c.Args[i].Prim.Byte() }
func (c *Call) Object(i int) *Object { return c.Args[i].Ref }

// Str reads a String argument; ok is false for null.
func (c *Call) Str(i int) (s string, ok bool) {
	if o := c.Args[i].Ref; o != nil {
		return o.str, true
	}
	return "", false
}

func (c *Call) class(name string) *Class {
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cls := rt.findClassLocked(jni.BinaryName(name))
	if cls == nil {
		panic(fmt.Sprintf("simvm: class %s is not defined", name))
	}
	return cls
}

// New allocates an instance of className and runs the constructor with
// signature sig. It returns nil if the constructor raised.
func (c *Call) New(className, sig string, args ...Value) *Object {
	cls := c.class(className)
	c.Thread.rt.mu.Lock()
	ctor := cls.methods["<init>"+sig]
	c.Thread.rt.mu.Unlock()
	if ctor == nil {
		panic(fmt.Sprintf("simvm: %s has no constructor %s", cls.DottedName(), sig))
	}
	obj := &Object{class: cls}
	c.Thread.invoke(ctor, obj, args)
	if c.Thread.pending != nil {
		return nil
	}
	return obj
}

// NewThrowable allocates a throwable of className with a message, without
// raising it.
func (c *Call) NewThrowable(className, message string) *Object {
	return c.Thread.rt.newThrowable(c.class(className), message)
}

// Invoke calls an instance method with virtual dispatch.
func (c *Call) Invoke(recv *Object, name, sig string, args ...Value) Value {
	if recv == nil {
		return c.Throw("java/lang/NullPointerException", fmt.Sprintf("cannot invoke %s%s on null", name, sig))
	}
	rt := c.Thread.rt
	rt.mu.Lock()
	m := recv.class.lookupMethod(name, sig, false)
	rt.mu.Unlock()
	if m == nil {
		return c.Throw("java/lang/NoSuchMethodError", name+sig)
	}
	return c.Thread.invoke(m, recv, args)
}

// InvokeStatic calls a static method.
func (c *Call) InvokeStatic(className, name, sig string, args ...Value) Value {
	cls := c.class(className)
	rt := c.Thread.rt
	rt.mu.Lock()
	m := cls.lookupMethod(name, sig, true)
	rt.mu.Unlock()
	if m == nil {
		return c.Throw("java/lang/NoSuchMethodError", name+sig)
	}
	return c.Thread.invoke(m, nil, args)
}

func (c *Call) fieldOf(cls *Class, name string, static bool) *Field {
	f := cls.lookupField(name, static)
	if f == nil {
		panic(fmt.Sprintf("simvm: %s has no field %s", cls.DottedName(), name))
	}
	return f
}

// GetField reads an instance field by name.
func (c *Call) GetField(o *Object, name string) Value {
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s := o.fields[c.fieldOf(o.class, name, false)]
	return Value{Prim: s.prim, Ref: s.ref}
}

// SetField writes an instance field by name.
func (c *Call) SetField(o *Object, name string, v Value) {
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	o.setField(c.fieldOf(o.class, name, false), v)
}

// GetStatic reads a static field by name.
func (c *Call) GetStatic(className, name string) Value {
	cls := c.class(className)
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	f := c.fieldOf(cls, name, true)
	s := f.Class.statics[f]
	return Value{Prim: s.prim, Ref: s.ref}
}

// SetStatic writes a static field by name.
func (c *Call) SetStatic(className, name string, v Value) {
	cls := c.class(className)
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	f := c.fieldOf(cls, name, true)
	f.Class.statics[f] = slot{prim: v.Prim, ref: v.Ref}
}

// IsInstance reports whether o is a non-null instance of className.
func (c *Call) IsInstance(o *Object, className string) bool {
	return o != nil && assignable(o.class, c.class(className))
}

// ---------------------------------------------------------------------------
// Arrays
// ---------------------------------------------------------------------------

// Elem is the set of Go types that map onto primitive array elements.
type Elem interface {
	bool | int8 | uint16 | int16 | int32 | int64 | float32 | float64
}

// ElemKind returns the primitive kind of E.
func ElemKind[E Elem]() jni.Kind {
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

// NewArray allocates a primitive array holding values.
func NewArray[E Elem](c *Call, values []E) *Object {
	kind := ElemKind[E]()
	cls := c.class("[" + kind.Descriptor())
	arr := c.Thread.rt.newPrimitiveArray(cls, int32(len(values)))
	if len(values) > 0 {
		copy(arr.prim, unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(arr.prim)))
	}
	return arr
}

// ArrayValues copies the elements of a primitive array of E.
func ArrayValues[E Elem](c *Call, arr *Object) []E {
	kind := ElemKind[E]()
	if arr.class.Elem != kind {
		panic(fmt.Sprintf("simvm: ArrayValues[%s] on %s", kind, arr.class.Name))
	}
	out := make([]E, arr.length)
	if len(out) == 0 {
		return out
	}
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(arr.prim)), arr.prim)
	return out
}

// SetArrayValues overwrites a primitive array of E from index 0. values
// must not be longer than the array.
func SetArrayValues[E Elem](c *Call, arr *Object, values []E) {
	kind := ElemKind[E]()
	if arr.class.Elem != kind || int64(len(values)) > int64(arr.length) {
		panic(fmt.Sprintf("simvm: SetArrayValues[%s] of %d on %s[%d]", kind, len(values), arr.class.Name, arr.length))
	}
	if len(values) == 0 {
		return
	}
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	copy(arr.prim, unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*kind.Size()))
}

// NewObjectArray allocates an array of className holding elems.
func (c *Call) NewObjectArray(className string, elems ...*Object) *Object {
	elem := c.class(className)
	arr := c.class("[" + elem.descriptor())
	out := c.Thread.rt.newObjectArray(arr, int32(len(elems)), nil)
	copy(out.elems, elems)
	return out
}

// Elements returns a copy of an object array's elements.
func (c *Call) Elements(arr *Object) []*Object {
	rt := c.Thread.rt
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]*Object(nil), arr.elems...)
}
