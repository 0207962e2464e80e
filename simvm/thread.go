package simvm

import (
	"fmt"

	"github.com/chazu/jbridge/jni"
)

const (
	localTag  = uint64(1) << 60
	globalTag = uint64(2) << 60
	tagMask   = uint64(0xF) << 60
)

// defaultFrameCapacity matches the capacity a runtime guarantees on entry
// to a native method.
const defaultFrameCapacity = 16

// Thread is the per-OS-thread state of an attached thread: its local
// reference frames and pending exception. Only the owning thread touches it.
type Thread struct {
	rt  *Runtime
	tid int
	env *env

	locals  map[jni.Object]*Object
	frames  []*frame
	pending *Object
}

type frame struct {
	refs     []jni.Object
	capacity int32
}

func newThread(rt *Runtime, tid int) *Thread {
	t := &Thread{
		rt:     rt,
		tid:    tid,
		locals: make(map[jni.Object]*Object),
		frames: []*frame{{capacity: defaultFrameCapacity}},
	}
	t.env = &env{t: t, rt: rt}
	return t
}

// Runtime returns the runtime this thread is attached to.
func (t *Thread) Runtime() *Runtime { return t.rt }

// LocalCount returns the number of live local references on this thread.
func (t *Thread) LocalCount() int { return len(t.locals) }

// FrameDepth returns the number of local frames, including the base frame.
func (t *Thread) FrameDepth() int { return len(t.frames) }

// ---------------------------------------------------------------------------
// Local and global handles
// ---------------------------------------------------------------------------

// newLocal registers o in the top frame. Overflowing the local table leaves
// an OutOfMemoryError pending and returns null.
func (t *Thread) newLocal(o *Object) jni.Object {
	if o == nil {
		return jni.Null
	}
	if len(t.locals) >= t.rt.opts.MaxLocals {
		t.pending = t.rt.newThrowable(t.rt.mustClass("java/lang/OutOfMemoryError"),
			fmt.Sprintf("local reference table overflow (max %d)", t.rt.opts.MaxLocals))
		return jni.Null
	}
	h := jni.Object(localTag | t.rt.handles.Add(1))
	t.locals[h] = o
	top := t.frames[len(t.frames)-1]
	top.refs = append(top.refs, h)
	return h
}

func (t *Thread) deleteLocal(h jni.Object) {
	if h.IsNull() {
		return
	}
	if _, ok := t.locals[h]; !ok {
		panic(&InvalidReferenceError{Handle: h, Op: "DeleteLocalRef"})
	}
	delete(t.locals, h)
	for i := len(t.frames) - 1; i >= 0; i-- {
		f := t.frames[i]
		for j, r := range f.refs {
			if r == h {
				f.refs = append(f.refs[:j], f.refs[j+1:]...)
				return
			}
		}
	}
}

// deref resolves a local (of this thread) or global handle. Null maps to nil.
func (t *Thread) deref(h jni.Object, op string) *Object {
	switch uint64(h) & tagMask {
	case 0:
		if h.IsNull() {
			return nil
		}
	case localTag:
		if o, ok := t.locals[h]; ok {
			return o
		}
	case globalTag:
		t.rt.mu.Lock()
		o, ok := t.rt.globals[h]
		t.rt.mu.Unlock()
		if ok {
			return o
		}
	}
	panic(&InvalidReferenceError{Handle: h, Op: op})
}

func (t *Thread) refType(h jni.Object) jni.RefType {
	switch uint64(h) & tagMask {
	case localTag:
		if _, ok := t.locals[h]; ok {
			return jni.LocalRef
		}
	case globalTag:
		t.rt.mu.Lock()
		_, ok := t.rt.globals[h]
		t.rt.mu.Unlock()
		if ok {
			return jni.GlobalRef
		}
	}
	return jni.InvalidRef
}

func (t *Thread) pushFrame(capacity int32) int32 {
	if capacity < 0 || len(t.locals)+int(capacity) > t.rt.opts.MaxLocals {
		t.pending = t.rt.newThrowable(t.rt.mustClass("java/lang/OutOfMemoryError"),
			fmt.Sprintf("cannot reserve %d local references", capacity))
		return jni.ENoMem
	}
	t.frames = append(t.frames, &frame{capacity: capacity})
	return jni.OK
}

// popFrame drops the top frame and returns result as a local of the frame
// below it.
func (t *Thread) popFrame(result jni.Object) jni.Object {
	if len(t.frames) < 2 {
		panic(fmt.Sprintf("simvm: PopLocalFrame without a matching PushLocalFrame on thread %d", t.tid))
	}
	obj := t.deref(result, "PopLocalFrame")
	t.dropTop()
	// Moving the result cannot overflow: the popped frame held at least it.
	return t.newLocal(obj)
}

// unwindTo pops frames until depth remain, discarding their locals.
func (t *Thread) unwindTo(depth int) {
	for len(t.frames) > depth {
		t.dropTop()
	}
}

func (t *Thread) dropTop() {
	top := t.frames[len(t.frames)-1]
	for _, h := range top.refs {
		delete(t.locals, h)
	}
	t.frames = t.frames[:len(t.frames)-1]
}

func (rt *Runtime) newGlobal(o *Object) jni.Object {
	if o == nil {
		return jni.Null
	}
	h := jni.Object(globalTag | rt.handles.Add(1))
	rt.mu.Lock()
	rt.globals[h] = o
	rt.mu.Unlock()
	return h
}

func (rt *Runtime) deleteGlobal(h jni.Object) {
	if h.IsNull() {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.globals[h]; !ok {
		panic(&InvalidReferenceError{Handle: h, Op: "DeleteGlobalRef"})
	}
	delete(rt.globals, h)
}

// ---------------------------------------------------------------------------
// Pending exceptions
// ---------------------------------------------------------------------------

// PendingExceptionError is panicked when a call that is not exception-safe
// is made while an exception is pending.
type PendingExceptionError struct {
	Op        string
	Exception string
}

func (e *PendingExceptionError) Error() string {
	return fmt.Sprintf("simvm: %s called with pending %s", e.Op, e.Exception)
}

func (t *Thread) mustNotBePending(op string) {
	if t.pending != nil {
		panic(&PendingExceptionError{Op: op, Exception: t.pending.class.DottedName()})
	}
}

// throwNew raises a new exception of the named bootstrap or user class.
func (t *Thread) throwNew(className, message string) {
	t.pending = t.rt.newThrowable(t.rt.mustClass(className), message)
}
