package jvm

import (
	"errors"
	"fmt"

	"github.com/chazu/jbridge/jni"
)

// ErrorKind classifies protocol violations detected by the kernel itself.
type ErrorKind int

const (
	// NullDereference: a call, field access, or array operation on a null
	// target. No foreign call is issued.
	NullDereference ErrorKind = iota + 1
	// NullResult: an operation declared non-null produced null.
	NullResult
	// Signature: arguments do not match the member's declared signature.
	Signature
	// SliceTooLong: a Go slice longer than the foreign int32 length type.
	SliceTooLong
	// LocalCapacity: the scope's local reference budget is exhausted.
	LocalCapacity
	// AllocationFailed: the runtime returned null without raising.
	AllocationFailed
)

// Sentinels matched by errors.Is against an *InternalError of that kind.
var (
	ErrNullDereference  = errors.New("null dereference")
	ErrNullResult       = errors.New("unexpected null result")
	ErrSignature        = errors.New("signature mismatch")
	ErrSliceTooLong     = errors.New("slice too long for a foreign array")
	ErrLocalCapacity    = errors.New("local reference capacity exhausted")
	ErrAllocationFailed = errors.New("foreign allocation failed")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case NullDereference:
		return ErrNullDereference
	case NullResult:
		return ErrNullResult
	case Signature:
		return ErrSignature
	case SliceTooLong:
		return ErrSliceTooLong
	case LocalCapacity:
		return ErrLocalCapacity
	case AllocationFailed:
		return ErrAllocationFailed
	}
	return errors.New("unknown internal error")
}

func (k ErrorKind) String() string { return k.sentinel().Error() }

// InternalError is a violation of the interop protocol: never a foreign
// exception, never silently coerced.
type InternalError struct {
	Kind   ErrorKind
	Detail string
}

func internalErrorf(kind ErrorKind, format string, args ...any) *InternalError {
	return &InternalError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *InternalError) Error() string {
	if e.Detail == "" {
		return "jvm: " + e.Kind.String()
	}
	return fmt.Sprintf("jvm: %s: %s", e.Kind, e.Detail)
}

func (e *InternalError) Unwrap() error { return e.Kind.sentinel() }

// ResolutionError reports a class, method, or field that could not be
// resolved. It is not retried.
type ResolutionError struct {
	What string // "class", "method", or "field"
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("jvm: cannot resolve %s %s: %v", e.What, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ThrownError is a foreign exception that was pending after a call. The
// foreign exception is already cleared; the throwable itself is held as a
// local of the scope it was raised in.
//
// An undescribed ThrownError reaching the end of a With scope, or passing
// through a catch chain with no matching arm, is described: its class name
// and message are copied out so the error stays meaningful after the
// throwable's local is gone.
type ThrownError struct {
	Class   string
	Message string

	throwable jni.Object
	scope     *scope
	described bool
}

func (e *ThrownError) Error() string {
	switch {
	case !e.described:
		return "jvm: exception thrown"
	case e.Message == "":
		return "jvm: exception " + e.Class
	default:
		return fmt.Sprintf("jvm: exception %s: %s", e.Class, e.Message)
	}
}

// Described reports whether Class and Message have been filled in.
func (e *ThrownError) Described() bool { return e.described }

// Throwable returns the thrown object. It is only usable inside the scope
// the exception was raised in.
func (e *ThrownError) Throwable() Local[Throwable] {
	return Local[Throwable]{h: e.throwable, scope: e.scope}
}

// release deletes the throwable's local once a catch chain has handled it.
func (e *ThrownError) release(env *Env) {
	if !e.live(env) {
		return
	}
	env.raw.DeleteLocalRef(e.throwable)
	e.throwable = jni.Null
}

// live reports whether the throwable can still be used from env.
func (e *ThrownError) live(env *Env) bool {
	return !e.throwable.IsNull() && e.scope.alive.Load() && e.scope.vm == env.vm
}

var (
	objectGetClass      = NewMethod(DescriptorOf[Object](), "getClass", "()Ljava/lang/Class;")
	classGetName        = NewMethod(DescriptorOf[Class](), "getName", "()Ljava/lang/String;")
	throwableGetMessage = NewMethod(DescriptorOf[Throwable](), "getMessage", "()Ljava/lang/String;")
)

// describe copies the class name and message out of the throwable. Failures
// while describing leave placeholders rather than replacing the error.
func (e *ThrownError) describe(env *Env) {
	if e.described || !e.live(env) {
		return
	}
	e.described = true
	ex := e.Throwable()
	if name, err := GoString(Call[String](Call[Class](ex, objectGetClass), classGetName)).Do(env); err == nil {
		e.Class = name
	} else {
		e.Class = "<unknown>"
	}
	if msg, err := GoString(Call[String](ex, throwableGetMessage)).Do(env); err == nil {
		e.Message = msg
	}
	log.Debugf("described %s", e.Error())
}

// describeUncaught describes the first live ThrownError in err's chain.
func describeUncaught(env *Env, err error) {
	var thrown *ThrownError
	if errors.As(err, &thrown) && !thrown.described && thrown.live(env) {
		thrown.describe(env)
		log.Warningf("uncaught foreign exception: %s", thrown.Error())
	}
}
