package jvm

import (
	"fmt"

	"github.com/chazu/jbridge/jni"
)

// Env is the capability to call into the runtime from the current thread.
// It is only valid inside the With, Worker, or Callback invocation that
// produced it, and must not be handed to another goroutine.
type Env struct {
	vm    *VM
	raw   jni.Env
	scope *scope
}

// Raw returns the underlying native interface.
func (e *Env) Raw() jni.Env { return e.raw }

// VM returns the VM the Env belongs to.
func (e *Env) VM() *VM { return e.vm }

// LiveLocals returns the number of locals the kernel holds against this
// scope's budget. Pending throwables are not included.
func (e *Env) LiveLocals() int32 { return e.scope.live }

// close ends the scope and pops its frame, moving result to the frame
// below.
func (e *Env) close(result jni.Object) jni.Object {
	e.scope.alive.Store(false)
	return e.raw.PopLocalFrame(result)
}

// check converts a pending exception into a *ThrownError, clearing it on
// the foreign side. It must follow every call that can raise, before the
// call's result is used.
func (e *Env) check() error {
	if !e.raw.ExceptionCheck() {
		return nil
	}
	h := e.raw.ExceptionOccurred()
	e.raw.ExceptionClear()
	// The throwable is not counted against the scope's budget.
	return &ThrownError{throwable: h, scope: e.scope}
}

// adopt accounts for a new local against the scope's capacity.
func (e *Env) adopt(h jni.Object) (ref, error) {
	if h.IsNull() {
		return ref{}, nil
	}
	if e.scope.live >= e.scope.capacity {
		e.raw.DeleteLocalRef(h)
		return ref{}, internalErrorf(LocalCapacity, "%d locals in use", e.scope.live)
	}
	e.scope.live++
	return ref{h: h, temp: true, scope: e.scope}, nil
}

// drop deletes r if the evaluation that produced it owns it.
func (e *Env) drop(r ref) {
	if !r.temp || r.h.IsNull() || !r.scope.alive.Load() {
		return
	}
	e.raw.DeleteLocalRef(r.h)
	r.scope.live--
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// ClassOf resolves desc to a class reference, once per VM. The returned
// handle is a global owned by the VM; callers must not delete it.
func (e *Env) ClassOf(desc *Descriptor) (jni.Object, error) {
	if cls, ok := e.vm.classes.Load(desc.Name()); ok {
		return cls.(jni.Object), nil
	}
	local := e.raw.FindClass(desc.Name())
	if err := e.check(); err != nil {
		return jni.Null, e.resolutionError("class", desc.String(), err)
	}
	global := e.raw.NewGlobalRef(local)
	e.raw.DeleteLocalRef(local)
	if err := e.check(); err != nil {
		return jni.Null, e.resolutionError("class", desc.String(), err)
	}
	if prev, loaded := e.vm.classes.LoadOrStore(desc.Name(), global); loaded {
		e.raw.DeleteGlobalRef(global)
		return prev.(jni.Object), nil
	}
	log.Debugf("vm %s: resolved class %s", e.vm.ID, desc)
	return global, nil
}

func (e *Env) resolutionError(what, name string, err error) error {
	describeUncaught(e, err)
	return &ResolutionError{What: what, Name: name, Err: err}
}

func memberKey(class *Descriptor, name, sig string, static bool) string {
	if static {
		return "static " + class.Name() + "." + name + sig
	}
	return class.Name() + "." + name + sig
}

func (e *Env) methodID(m *Method) (jni.MethodID, error) {
	key := memberKey(m.Class, m.Name, m.Sig, m.Static)
	if id, ok := e.vm.methods.Load(key); ok {
		return id.(jni.MethodID), nil
	}
	cls, err := e.ClassOf(m.Class)
	if err != nil {
		return 0, err
	}
	var id jni.MethodID
	if m.Static {
		id = e.raw.GetStaticMethodID(cls, m.Name, m.Sig)
	} else {
		id = e.raw.GetMethodID(cls, m.Name, m.Sig)
	}
	if err := e.check(); err != nil {
		return 0, e.resolutionError("method", m.String(), err)
	}
	e.vm.methods.Store(key, id)
	return id, nil
}

func (e *Env) fieldID(f *Field) (jni.FieldID, error) {
	key := memberKey(f.Class, f.Name, f.Sig, f.Static)
	if id, ok := e.vm.fields.Load(key); ok {
		return id.(jni.FieldID), nil
	}
	cls, err := e.ClassOf(f.Class)
	if err != nil {
		return 0, err
	}
	var id jni.FieldID
	if f.Static {
		id = e.raw.GetStaticFieldID(cls, f.Name, f.Sig)
	} else {
		id = e.raw.GetFieldID(cls, f.Name, f.Sig)
	}
	if err := e.check(); err != nil {
		return 0, e.resolutionError("field", f.String(), err)
	}
	e.vm.fields.Store(key, id)
	return id, nil
}

// isInstance follows the managed instanceof: null is not an instance.
func (e *Env) isInstance(h jni.Object, desc *Descriptor) (bool, error) {
	if h.IsNull() {
		return false, nil
	}
	cls, err := e.ClassOf(desc)
	if err != nil {
		return false, err
	}
	ok := e.raw.IsInstanceOf(h, cls)
	if err := e.check(); err != nil {
		return false, err
	}
	return ok, nil
}

// IsAssignable reports whether the runtime considers from a subclass of to.
func (e *Env) IsAssignable(from, to *Descriptor) (bool, error) {
	sub, err := e.ClassOf(from)
	if err != nil {
		return false, err
	}
	sup, err := e.ClassOf(to)
	if err != nil {
		return false, err
	}
	ok := e.raw.IsAssignableFrom(sub, sup)
	if err := e.check(); err != nil {
		return false, fmt.Errorf("IsAssignableFrom(%s, %s): %w", from, to, err)
	}
	return ok, nil
}

// ResolveMethod resolves m's ID now instead of on first call.
func (e *Env) ResolveMethod(m *Method) error {
	_, err := e.methodID(m)
	return err
}

// ResolveField resolves f's ID now instead of on first access.
func (e *Env) ResolveField(f *Field) error {
	_, err := e.fieldID(f)
	return err
}
