// Package jvm is the interop kernel between Go and a managed object
// runtime reached through the jni function tables.
//
// Calls are described as immutable operation values (see Op) and run
// against an Env, which exists only inside VM.With, a Worker request, or a
// native callback. Every call that can raise is followed by an exception
// check; a pending exception becomes a *ThrownError that TryCatch arms can
// match by class. Local references die with their scope; Global references
// live until released.
package jvm

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/jbridge/jni"
)

var log = commonlog.GetLogger("jbridge.jvm")

// DefaultLocalCapacity is the local reference budget of one scope.
const DefaultLocalCapacity = 64

// Options configures a VM.
type Options struct {
	// LocalCapacity bounds the locals the kernel creates in one scope and is
	// reserved with PushLocalFrame. Zero means DefaultLocalCapacity.
	LocalCapacity int32
}

// VM wraps a running managed runtime. It caches resolved classes (as global
// references) and member IDs; it is safe for concurrent use.
type VM struct {
	ID       uuid.UUID
	raw      jni.VM
	capacity int32

	classes sync.Map // binary name -> jni.Object (global)
	methods sync.Map // memberKey -> jni.MethodID
	fields  sync.Map // memberKey -> jni.FieldID
}

// NewVM wraps raw.
func NewVM(raw jni.VM, opts Options) *VM {
	if opts.LocalCapacity <= 0 {
		opts.LocalCapacity = DefaultLocalCapacity
	}
	return &VM{ID: uuid.New(), raw: raw, capacity: opts.LocalCapacity}
}

// Raw returns the underlying invocation interface.
func (vm *VM) Raw() jni.VM { return vm.raw }

// LocalCapacity returns the per-scope local reference budget.
func (vm *VM) LocalCapacity() int32 { return vm.capacity }

// With runs fn with an Env for the calling goroutine. The goroutine is
// locked to its OS thread for the duration; the thread is attached if it
// was not already, and detached again afterwards. fn runs in a fresh local
// frame: every Local it obtains is invalid once With returns.
func (vm *VM) With(fn func(env *Env) error) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	raw, status := vm.raw.GetEnv(jni.Version)
	switch status {
	case jni.OK:
	case jni.EDetached:
		if raw, status = vm.raw.AttachCurrentThread(); status != jni.OK {
			return fmt.Errorf("jvm: attach current thread: status %d", status)
		}
		log.Debugf("vm %s: attached", vm.ID)
		defer func() {
			vm.raw.DetachCurrentThread()
			log.Debugf("vm %s: detached", vm.ID)
		}()
	default:
		return fmt.Errorf("jvm: get env: status %d", status)
	}
	return vm.run(raw, fn)
}

// run opens a scope on an attached thread.
func (vm *VM) run(raw jni.Env, fn func(env *Env) error) error {
	env, err := vm.open(raw)
	if err != nil {
		return err
	}
	defer env.close(jni.Null)

	err = fn(env)
	describeUncaught(env, err)
	return err
}

// open pushes a local frame and returns an Env scoped to it.
func (vm *VM) open(raw jni.Env) (*Env, error) {
	if raw.PushLocalFrame(vm.capacity) != jni.OK {
		if raw.ExceptionCheck() {
			raw.ExceptionClear()
		}
		return nil, internalErrorf(LocalCapacity, "cannot reserve %d locals", vm.capacity)
	}
	return &Env{vm: vm, raw: raw, scope: newScope(vm, vm.capacity)}, nil
}

// Close deletes the cached class references. The VM must not be used
// afterwards.
func (vm *VM) Close() error {
	return vm.With(func(env *Env) error {
		vm.classes.Range(func(key, value any) bool {
			env.raw.DeleteGlobalRef(value.(jni.Object))
			vm.classes.Delete(key)
			return true
		})
		vm.methods.Clear()
		vm.fields.Clear()
		return nil
	})
}

func (vm *VM) deleteGlobal(h jni.Object, desc *Descriptor) {
	err := vm.With(func(env *Env) error {
		env.raw.DeleteGlobalRef(h)
		return nil
	})
	if err != nil {
		log.Errorf("vm %s: deleting global %s: %s", vm.ID, desc, err)
		return
	}
	log.Debugf("vm %s: released global %s", vm.ID, desc)
}
