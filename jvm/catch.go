package jvm

import (
	"errors"
	"slices"

	"github.com/chazu/jbridge/jni"
)

type catchArm[T any] struct {
	class  *Descriptor
	handle func(env *Env, throwable jni.Object, scope *scope) (T, error)
}

// CatchOp runs an operation and translates a thrown foreign exception
// through an ordered list of arms. Build it with TryCatch and Catch.
type CatchOp[T any] struct {
	op        Op[T]
	arms      []catchArm[T]
	otherwise func(env *Env, err *ThrownError) (T, error)
}

// TryCatch starts a catch chain around op. With no arms it only describes
// an uncaught exception.
func TryCatch[T any](op Op[T]) CatchOp[T] { return CatchOp[T]{op: op} }

// Catch appends an arm matching exceptions that are instances of X. Arms
// are tried in the order they were added; the first match wins and later
// arms are not evaluated. exc is deleted when handler returns and must not
// be kept or deleted by it.
func Catch[X JavaType, T any](c CatchOp[T], handler func(env *Env, exc Local[X]) (T, error)) CatchOp[T] {
	arm := catchArm[T]{
		class: DescriptorOf[X](),
		handle: func(env *Env, throwable jni.Object, s *scope) (T, error) {
			return handler(env, Local[X]{h: throwable, scope: s})
		},
	}
	c.arms = append(slices.Clip(c.arms), arm)
	return c
}

// Otherwise sets the catch-all run when no arm matches. It receives the
// described exception; its throwable is deleted when handler returns unless
// handler returns err itself.
func (c CatchOp[T]) Otherwise(handler func(env *Env, err *ThrownError) (T, error)) CatchOp[T] {
	c.otherwise = handler
	return c
}

// Do runs the operation. Errors other than a *ThrownError raised in env's
// scope pass through unchanged.
func (c CatchOp[T]) Do(env *Env) (T, error) {
	v, err := c.op.Do(env)
	var thrown *ThrownError
	if err == nil || !errors.As(err, &thrown) || !thrown.live(env) {
		return v, err
	}

	for _, arm := range c.arms {
		ok, cerr := env.isInstance(thrown.throwable, arm.class)
		if cerr != nil {
			return *new(T), cerr
		}
		if ok {
			v, err := arm.handle(env, thrown.throwable, thrown.scope)
			return handled(env, thrown, v, err)
		}
	}

	thrown.describe(env)
	if c.otherwise != nil {
		v, err := c.otherwise(env, thrown)
		return handled(env, thrown, v, err)
	}
	return v, err
}

// handled deletes thrown's throwable unless the handler rethrew it.
func handled[T any](env *Env, thrown *ThrownError, v T, err error) (T, error) {
	var again *ThrownError
	if !errors.As(err, &again) || again != thrown {
		thrown.release(env)
	}
	return v, err
}
