package jvm

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/chazu/jbridge/jni"
)

// scope is one local frame opened by With, a Worker request, or a
// callback. Locals created in it die with it.
type scope struct {
	vm       *VM
	alive    atomic.Bool
	capacity int32
	live     int32
}

func newScope(vm *VM, capacity int32) *scope {
	s := &scope{vm: vm, capacity: capacity}
	s.alive.Store(true)
	return s
}

// ---------------------------------------------------------------------------
// Local
// ---------------------------------------------------------------------------

// Local is a local reference to a T, valid only while the scope that
// produced it is open. The zero Local is null.
type Local[T JavaType] struct {
	h     jni.Object
	scope *scope
}

// Arg wraps a reference handed to a native callback by the runtime. The
// runtime owns it; it is valid for the rest of the callback.
func Arg[T JavaType](env *Env, h jni.Object) Local[T] {
	return Local[T]{h: h, scope: env.scope}
}

// Handle returns the raw handle. It panics if the scope has ended.
func (l Local[T]) Handle() jni.Object {
	if l.scope != nil && !l.scope.alive.Load() {
		panic(fmt.Sprintf("jvm: local %s used after its scope ended", DescriptorOf[T]()))
	}
	return l.h
}

// IsNull reports whether l is the null reference.
func (l Local[T]) IsNull() bool { return l.h.IsNull() }

// Valid reports whether l may still be used.
func (l Local[T]) Valid() bool { return l.scope == nil || l.scope.alive.Load() }

func (l Local[T]) String() string {
	return fmt.Sprintf("Local[%s](%#x)", DescriptorOf[T](), uintptr(l.h))
}

// Do returns l itself, so a Local can stand wherever an ObjectOp is
// expected.
func (l Local[T]) Do(*Env) (Local[T], error) {
	l.Handle()
	return l, nil
}

func (l Local[T]) argument(env *Env) (arg, error) { return refArgument(env, l) }
func (l Local[T]) javaType() T                    { return *new(T) }
func (l Local[T]) reference(*Env) (ref, error) {
	return ref{h: l.Handle(), scope: l.scope}, nil
}

// DeleteLocal releases l before its scope ends. l must not be used again.
func DeleteLocal[T JavaType](env *Env, l Local[T]) {
	h := l.Handle()
	if h.IsNull() {
		return
	}
	env.raw.DeleteLocalRef(h)
	if l.scope != nil {
		l.scope.live--
	}
}

// ---------------------------------------------------------------------------
// Global
// ---------------------------------------------------------------------------

// pin is one foreign global reference shared by every owner of it.
type pin struct {
	vm   *VM
	h    jni.Object
	refs atomic.Int32
	desc *Descriptor
}

func (p *pin) drop() {
	switch n := p.refs.Add(-1); {
	case n == 0:
		p.vm.deleteGlobal(p.h, p.desc)
	case n < 0:
		panic(fmt.Sprintf("jvm: global %s released more times than acquired", p.desc))
	}
}

// owner is one acquisition of a pin. Copies of a Global share an owner.
type owner struct {
	p        *pin
	released atomic.Bool
	cleanup  runtime.Cleanup
}

func newOwner(p *pin) *owner {
	p.refs.Add(1)
	o := &owner{p: p}
	o.cleanup = runtime.AddCleanup(o, func(p *pin) {
		log.Debugf("releasing unreachable global %s", p.desc)
		p.drop()
	}, p)
	return o
}

// Global is a reference to a T that stays valid until released, across
// scopes and threads. Copies of a Global share one acquisition; Clone makes
// an independent one. The foreign global is deleted when the last
// acquisition is released, or when every Global sharing it has become
// unreachable.
type Global[T JavaType] struct {
	o *owner
}

// Promote creates a global reference to the object l refers to.
func Promote[T JavaType](env *Env, l Local[T]) (Global[T], error) {
	h := l.Handle()
	if h.IsNull() {
		return Global[T]{}, nil
	}
	g := env.raw.NewGlobalRef(h)
	if err := env.check(); err != nil {
		return Global[T]{}, err
	}
	if g.IsNull() {
		return Global[T]{}, internalErrorf(AllocationFailed, "NewGlobalRef(%s)", DescriptorOf[T]())
	}
	return Global[T]{o: newOwner(&pin{vm: env.vm, h: g, desc: DescriptorOf[T]()})}, nil
}

// NewGlobal evaluates op and promotes its result.
func NewGlobal[T JavaType](env *Env, op ObjectOp[T]) (Global[T], error) {
	r, err := op.reference(env)
	if err != nil {
		return Global[T]{}, err
	}
	defer env.drop(r)
	return Promote(env, Local[T]{h: r.h, scope: r.scope})
}

func (g Global[T]) live() *pin {
	if g.o == nil {
		return nil
	}
	if g.o.released.Load() {
		panic(fmt.Sprintf("jvm: global %s used after release", DescriptorOf[T]()))
	}
	return g.o.p
}

// IsNull reports whether g is the null reference.
func (g Global[T]) IsNull() bool { return g.o == nil }

// Handle returns the raw global handle. It panics after Release.
func (g Global[T]) Handle() jni.Object {
	if p := g.live(); p != nil {
		return p.h
	}
	return jni.Null
}

// Clone returns an independent acquisition of the same global.
func (g Global[T]) Clone() Global[T] {
	p := g.live()
	if p == nil {
		return g
	}
	return Global[T]{o: newOwner(p)}
}

// Release gives up this acquisition. Releasing the same acquisition twice
// panics.
func (g Global[T]) Release() {
	if g.o == nil {
		return
	}
	if g.o.released.Swap(true) {
		panic(fmt.Sprintf("jvm: global %s released twice", DescriptorOf[T]()))
	}
	g.o.cleanup.Stop()
	g.o.p.drop()
}

// Local returns a new local reference to the object in env's scope.
func (g Global[T]) Local(env *Env) (Local[T], error) { return doRef[T](env, localOf[T]{g}) }

// Do makes a new local reference to the object.
func (g Global[T]) Do(env *Env) (Local[T], error)   { return g.Local(env) }
func (g Global[T]) argument(env *Env) (arg, error)  { return refArgument(env, g) }
func (g Global[T]) javaType() T                     { return *new(T) }
func (g Global[T]) reference(env *Env) (ref, error) { return ref{h: g.Handle(), scope: env.scope}, nil }

type localOf[T JavaType] struct {
	g Global[T]
}

func (l localOf[T]) reference(env *Env) (ref, error) {
	h := l.g.Handle()
	if h.IsNull() {
		return ref{}, nil
	}
	local := env.raw.NewLocalRef(h)
	if err := env.check(); err != nil {
		return ref{}, err
	}
	return env.adopt(local)
}
