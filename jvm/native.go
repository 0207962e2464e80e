package jvm

import (
	"errors"
	"fmt"

	"github.com/chazu/jbridge/jni"
)

// Result is what a native callback hands back to the runtime: a primitive
// cell, a reference, or nothing (the zero Result).
type Result struct {
	value jni.Value
	ref   bool
}

// Return hands l back to the runtime as the callback's result.
func Return[T JavaType](l Local[T]) Result {
	return Result{value: jni.ObjectValue(l.Handle()), ref: true}
}

// ReturnScalar hands a primitive back to the runtime.
func ReturnScalar[S Primitive](v S) Result { return Result{value: toValue(v)} }

// ScalarOf decodes a primitive argument cell passed to a callback.
func ScalarOf[S Primitive](v jni.Value) S { return fromValue[S](v) }

// NativeFunc is a Go implementation of a managed native method. args are
// the raw cells; wrap references with Arg and primitives with ScalarOf.
type NativeFunc func(env *Env, this jni.Object, args []jni.Value) (Result, error)

// Native binds fn to a method name and signature for RegisterNatives.
func (vm *VM) Native(name, sig string, fn NativeFunc) jni.NativeMethod {
	return jni.NativeMethod{
		Name:      name,
		Signature: sig,
		Fn: jni.NativeFunc(func(raw jni.Env, this jni.Object, args []jni.Value) jni.Value {
			return vm.Callback(raw, func(env *Env) (Result, error) {
				return fn(env, this, args)
			})
		}),
	}
}

// Callback runs fn as the body of a native method invoked by the runtime on
// the current thread. fn gets its own local frame; a returned reference is
// moved to the caller's frame.
//
// An error from fn becomes a pending exception when Callback returns: a
// *ThrownError still alive in this callback is rethrown as is; anything
// else, a panic included, is raised as a java.lang.RuntimeException
// carrying the error text.
func (vm *VM) Callback(raw jni.Env, fn func(env *Env) (Result, error)) jni.Value {
	env, err := vm.open(raw)
	if err != nil {
		log.Errorf("vm %s: native callback: %s", vm.ID, err)
		return 0
	}

	res, err := callNative(env, fn)
	if err != nil {
		env.raise(err)
		env.close(jni.Null)
		return 0
	}
	if res.ref {
		return jni.ObjectValue(env.close(res.value.Object()))
	}
	env.close(jni.Null)
	return res.value
}

func callNative(env *Env, fn func(env *Env) (Result, error)) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("jvm: native callback panicked: %v", p)
		}
	}()
	return fn(env)
}

// raise leaves err pending on the foreign side.
func (e *Env) raise(err error) {
	if e.raw.ExceptionCheck() {
		e.raw.ExceptionClear()
	}
	var thrown *ThrownError
	if errors.As(err, &thrown) && thrown.live(e) {
		log.Debugf("rethrowing foreign exception from native callback")
		e.raw.Throw(thrown.throwable)
		return
	}
	cls, cerr := e.ClassOf(runtimeDesc)
	if cerr != nil {
		log.Errorf("vm %s: cannot raise %q: %s", e.vm.ID, err, cerr)
		if e.raw.ExceptionCheck() {
			e.raw.ExceptionClear()
		}
		return
	}
	log.Debugf("raising RuntimeException: %s", err)
	e.raw.ThrowNew(cls, err.Error())
}

// RegisterNatives binds Go implementations to the native methods of T.
// Registration is all or none.
func RegisterNatives[T JavaType](env *Env, natives ...jni.NativeMethod) error {
	cls, err := env.ClassOf(DescriptorOf[T]())
	if err != nil {
		return err
	}
	status := env.raw.RegisterNatives(cls, natives)
	if err := env.check(); err != nil {
		return fmt.Errorf("jvm: register natives on %s: %w", DescriptorOf[T](), err)
	}
	if status != jni.OK {
		return fmt.Errorf("jvm: register natives on %s: status %d", DescriptorOf[T](), status)
	}
	log.Infof("vm %s: registered %d natives on %s", env.vm.ID, len(natives), DescriptorOf[T]())
	return nil
}
