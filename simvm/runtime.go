// Package simvm is an in-process managed object runtime that speaks the jni
// function tables.
//
// It models what the interop kernel depends on: classes with single
// inheritance and virtual dispatch, objects with fields, strings, primitive
// and object arrays with bounds-checked region copies, per-thread local
// reference frames, a global reference table, pending exceptions, and native
// methods bound at run time. Managed methods are written in Go (see Impl).
//
// Misuse that would crash a real runtime (reading a deleted or foreign
// handle, deleting a global twice) panics with an *InvalidReferenceError.
package simvm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/jbridge/jni"
)

var log = commonlog.GetLogger("jbridge.simvm")

// Options configures a Runtime.
type Options struct {
	// MaxLocals bounds the live local references of one thread across all
	// its frames. Zero means 4096.
	MaxLocals int
	// MaxArrayLength bounds array allocation. Zero means no bound beyond
	// the int32 length type.
	MaxArrayLength int32
}

// Runtime is one running managed runtime. It implements jni.VM.
type Runtime struct {
	ID   uuid.UUID
	opts Options

	mu      sync.Mutex
	classes map[string]*Class
	methods []*Method // MethodID n is methods[n-1]
	fields  []*Field  // FieldID n is fields[n-1]
	globals map[jni.Object]*Object
	threads map[int]*Thread

	handles atomic.Uint64

	objectClass    *Class
	classClass     *Class
	stringClass    *Class
	throwableClass *Class
}

// New creates a runtime with the java.lang bootstrap classes defined.
func New(opts Options) *Runtime {
	if opts.MaxLocals <= 0 {
		opts.MaxLocals = 4096
	}
	rt := &Runtime{
		ID:      uuid.New(),
		opts:    opts,
		classes: make(map[string]*Class),
		globals: make(map[jni.Object]*Object),
		threads: make(map[int]*Thread),
	}
	rt.bootstrap()
	log.Debugf("runtime %s started", rt.ID)
	return rt
}

// ---------------------------------------------------------------------------
// jni.VM
// ---------------------------------------------------------------------------

// GetEnv returns the Env of the calling OS thread if it is attached.
func (rt *Runtime) GetEnv(version int32) (jni.Env, int32) {
	if version > jni.Version {
		return nil, jni.EVersion
	}
	rt.mu.Lock()
	t := rt.threads[currentThreadID()]
	rt.mu.Unlock()
	if t == nil {
		return nil, jni.EDetached
	}
	return t.env, jni.OK
}

// AttachCurrentThread attaches the calling OS thread, or returns its
// existing Env.
func (rt *Runtime) AttachCurrentThread() (jni.Env, int32) {
	tid := currentThreadID()
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if t := rt.threads[tid]; t != nil {
		return t.env, jni.OK
	}
	t := newThread(rt, tid)
	rt.threads[tid] = t
	log.Debugf("runtime %s: attached thread %d", rt.ID, tid)
	return t.env, jni.OK
}

// DetachCurrentThread detaches the calling OS thread, freeing its locals.
func (rt *Runtime) DetachCurrentThread() int32 {
	tid := currentThreadID()
	rt.mu.Lock()
	defer rt.mu.Unlock()
	t := rt.threads[tid]
	if t == nil {
		return jni.EDetached
	}
	t.locals = nil
	t.frames = nil
	delete(rt.threads, tid)
	log.Debugf("runtime %s: detached thread %d", rt.ID, tid)
	return jni.OK
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// GlobalCount returns the number of live global references.
func (rt *Runtime) GlobalCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.globals)
}

// ThreadCount returns the number of attached threads.
func (rt *Runtime) ThreadCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.threads)
}

// CurrentThread returns the calling OS thread's state, or nil if it is not
// attached.
func (rt *Runtime) CurrentThread() *Thread {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.threads[currentThreadID()]
}

// Lookup returns a defined class by dotted or binary name, or nil.
func (rt *Runtime) Lookup(name string) *Class {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.classes[jni.BinaryName(name)]
}

// ---------------------------------------------------------------------------
// Class definition
// ---------------------------------------------------------------------------

// DefineClass adds a class. The superclass must already be defined.
func (rt *Runtime) DefineClass(def ClassDef) (*Class, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.defineLocked(def)
}

// MustDefine is DefineClass for static class tables; it panics on error.
func (rt *Runtime) MustDefine(defs ...ClassDef) {
	for _, def := range defs {
		if _, err := rt.DefineClass(def); err != nil {
			panic(err)
		}
	}
}

func (rt *Runtime) defineLocked(def ClassDef) (*Class, error) {
	name := jni.BinaryName(def.Name)
	if name == "" || name[0] == '[' {
		return nil, fmt.Errorf("simvm: invalid class name %q", def.Name)
	}
	if _, dup := rt.classes[name]; dup {
		return nil, fmt.Errorf("simvm: class %s already defined", name)
	}

	var super *Class
	if name != "java/lang/Object" {
		superName := "java/lang/Object"
		if def.Super != "" {
			superName = jni.BinaryName(def.Super)
		}
		super = rt.classes[superName]
		if super == nil {
			return nil, fmt.Errorf("simvm: superclass %s of %s is not defined", superName, name)
		}
	}

	c := rt.newClassLocked(name, super)
	for _, fd := range def.Fields {
		kind, err := jni.FieldKind(fd.Sig)
		if err != nil {
			return nil, fmt.Errorf("simvm: field %s.%s: %w", name, fd.Name, err)
		}
		f := &Field{Class: c, Name: fd.Name, Sig: fd.Sig, Static: fd.Static, kind: kind}
		rt.fields = append(rt.fields, f)
		f.id = jni.FieldID(len(rt.fields))
		c.fields[fd.Name] = f
	}
	for _, md := range def.Methods {
		args, ret, err := jni.ParseSignature(md.Sig)
		if err != nil {
			return nil, fmt.Errorf("simvm: method %s.%s: %w", name, md.Name, err)
		}
		m := &Method{
			Class:  c,
			Name:   md.Name,
			Sig:    md.Sig,
			Static: md.Static,
			Native: md.Native,
			args:   args,
			ret:    ret,
			impl:   md.Impl,
		}
		rt.methods = append(rt.methods, m)
		m.id = jni.MethodID(len(rt.methods))
		c.methods[md.Name+md.Sig] = m
	}
	return c, nil
}

func (rt *Runtime) newClassLocked(name string, super *Class) *Class {
	c := &Class{
		Name:    name,
		Super:   super,
		methods: make(map[string]*Method),
		fields:  make(map[string]*Field),
		statics: make(map[*Field]slot),
	}
	c.mirror = &Object{class: rt.classClass, mirror: c}
	rt.classes[name] = c
	return c
}

// findClassLocked resolves a binary name, synthesizing array classes.
func (rt *Runtime) findClassLocked(name string) *Class {
	if c, ok := rt.classes[name]; ok {
		return c
	}
	if len(name) < 2 || name[0] != '[' {
		return nil
	}
	c := &Class{
		Name:    name,
		Super:   rt.objectClass,
		methods: make(map[string]*Method),
		fields:  make(map[string]*Field),
		statics: make(map[*Field]slot),
	}
	switch elem := name[1:]; elem[0] {
	case '[':
		if c.Component = rt.findClassLocked(elem); c.Component == nil {
			return nil
		}
	case 'L':
		if elem[len(elem)-1] != ';' {
			return nil
		}
		if c.Component = rt.findClassLocked(elem[1 : len(elem)-1]); c.Component == nil {
			return nil
		}
	default:
		kind, ok := jni.KindForDescriptor(elem[0])
		if !ok || !kind.IsPrimitive() || len(elem) != 1 {
			return nil
		}
		c.Elem = kind
	}
	c.mirror = &Object{class: rt.classClass, mirror: c}
	rt.classes[name] = c
	return c
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

func (rt *Runtime) newString(s string) *Object {
	return &Object{class: rt.stringClass, str: s}
}

func (rt *Runtime) newPrimitiveArray(c *Class, length int32) *Object {
	return &Object{class: c, prim: make([]byte, int(length)*c.Elem.Size()), length: length}
}

func (rt *Runtime) newObjectArray(c *Class, length int32, initial *Object) *Object {
	elems := make([]*Object, length)
	for i := range elems {
		elems[i] = initial
	}
	return &Object{class: c, elems: elems, length: length}
}

// InvalidReferenceError is panicked when a handle that is not live on the
// calling thread is dereferenced. A real runtime would crash.
type InvalidReferenceError struct {
	Handle jni.Object
	Op     string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("simvm: %s: invalid reference %#x", e.Op, uintptr(e.Handle))
}
