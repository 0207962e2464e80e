package jvm

import (
	"github.com/chazu/jbridge/jni"
)

// Op is a deferred operation. Building one performs no foreign call; Do
// evaluates it against an Env. Ops are immutable values and may be
// evaluated any number of times, each evaluation making its calls afresh.
type Op[T any] interface {
	Do(env *Env) (T, error)
}

// ObjectOp is an operation producing a reference to a T. It can be the
// target or an argument of another operation.
type ObjectOp[T JavaType] interface {
	Op[Local[T]]
	Argument
	reference(env *Env) (ref, error)
	javaType() T
}

// Argument is a call argument: an ObjectOp, a scalar operation, or a
// constant from Scalar.
type Argument interface {
	argument(env *Env) (arg, error)
}

// ref is an evaluated reference. temp marks a local created by the
// evaluation itself, which the consumer deletes when done with it.
type ref struct {
	h     jni.Object
	temp  bool
	scope *scope
}

// arg is an evaluated argument cell.
type arg struct {
	cell jni.Value
	kind jni.Kind
	temp ref
}

type referencer interface {
	reference(env *Env) (ref, error)
}

func doRef[T JavaType](env *Env, r referencer) (Local[T], error) {
	res, err := r.reference(env)
	if err != nil {
		return Local[T]{}, err
	}
	return Local[T]{h: res.h, scope: res.scope}, nil
}

func refArgument(env *Env, r referencer) (arg, error) {
	res, err := r.reference(env)
	if err != nil {
		return arg{}, err
	}
	return arg{cell: jni.ObjectValue(res.h), kind: jni.Reference, temp: res}, nil
}

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// ScalarConst is a primitive constant argument.
type ScalarConst[S Primitive] struct {
	v S
}

// Scalar wraps a Go primitive as an argument or operation.
func Scalar[S Primitive](v S) ScalarConst[S] { return ScalarConst[S]{v: v} }

func (c ScalarConst[S]) Do(*Env) (S, error) { return c.v, nil }
func (c ScalarConst[S]) argument(*Env) (arg, error) {
	return arg{cell: toValue(c.v), kind: KindOf[S]()}, nil
}

// StrOp creates a managed string.
type StrOp struct {
	s string
}

// Str builds a managed java.lang.String from s.
func Str(s string) StrOp { return StrOp{s: s} }

func (o StrOp) Do(env *Env) (Local[String], error) { return doRef[String](env, o) }
func (o StrOp) argument(env *Env) (arg, error)      { return refArgument(env, o) }
func (o StrOp) javaType() String                    { return String{} }
func (o StrOp) reference(env *Env) (ref, error) {
	h := env.raw.NewStringUTF(o.s)
	if err := env.check(); err != nil {
		return ref{}, err
	}
	if h.IsNull() {
		return ref{}, internalErrorf(AllocationFailed, "NewStringUTF(%q)", o.s)
	}
	return env.adopt(h)
}

// NullOp is the null reference of type T.
type NullOp[T JavaType] struct{}

// Null returns the null reference of type T.
func Null[T JavaType]() NullOp[T] { return NullOp[T]{} }

func (NullOp[T]) Do(env *Env) (Local[T], error) { return Local[T]{}, nil }
func (NullOp[T]) argument(*Env) (arg, error)    { return arg{kind: jni.Reference}, nil }
func (NullOp[T]) javaType() T                   { return *new(T) }
func (NullOp[T]) reference(*Env) (ref, error)   { return ref{}, nil }

// ---------------------------------------------------------------------------
// Null assertions and conversions
// ---------------------------------------------------------------------------

type notNullOp[T JavaType] struct {
	op ObjectOp[T]
}

// NotNull fails with an ErrNullResult InternalError when op produces null.
func NotNull[T JavaType](op ObjectOp[T]) ObjectOp[T] { return notNullOp[T]{op: op} }

func (o notNullOp[T]) Do(env *Env) (Local[T], error) { return doRef[T](env, o) }
func (o notNullOp[T]) argument(env *Env) (arg, error) { return refArgument(env, o) }
func (o notNullOp[T]) javaType() T                    { return *new(T) }
func (o notNullOp[T]) reference(env *Env) (ref, error) {
	r, err := o.op.reference(env)
	if err != nil {
		return ref{}, err
	}
	if r.h.IsNull() {
		return ref{}, internalErrorf(NullResult, "%s", DescriptorOf[T]())
	}
	return r, nil
}

// GoStringOp copies a managed string into Go.
type GoStringOp struct {
	op ObjectOp[String]
}

// GoString converts a managed string to a Go string. A null string is an
// ErrNullResult InternalError.
func GoString(op ObjectOp[String]) GoStringOp { return GoStringOp{op: op} }

func (o GoStringOp) Do(env *Env) (string, error) {
	r, err := o.op.reference(env)
	if err != nil {
		return "", err
	}
	defer env.drop(r)
	if r.h.IsNull() {
		return "", internalErrorf(NullResult, "string is null")
	}
	s := env.raw.GetStringUTF(r.h)
	if err := env.check(); err != nil {
		return "", err
	}
	return s, nil
}

// IsInstanceOp tests the dynamic class of a reference.
type IsInstanceOp[X, T JavaType] struct {
	op ObjectOp[T]
}

// IsInstance reports whether op's result is a non-null instance of X.
func IsInstance[X, T JavaType](op ObjectOp[T]) IsInstanceOp[X, T] {
	return IsInstanceOp[X, T]{op: op}
}

func (o IsInstanceOp[X, T]) Do(env *Env) (bool, error) {
	r, err := o.op.reference(env)
	if err != nil {
		return false, err
	}
	defer env.drop(r)
	return env.isInstance(r.h, DescriptorOf[X]())
}

func (o IsInstanceOp[X, T]) argument(env *Env) (arg, error) {
	ok, err := o.Do(env)
	if err != nil {
		return arg{}, err
	}
	return arg{cell: jni.BoolValue(ok), kind: jni.Boolean}, nil
}

type downcastOp[X, T JavaType] struct {
	op ObjectOp[T]
}

// TryDowncast narrows op's result to X by its dynamic class. The result is
// null when the object is not an X (or is null).
func TryDowncast[X, T JavaType](op ObjectOp[T]) ObjectOp[X] { return downcastOp[X, T]{op: op} }

func (o downcastOp[X, T]) Do(env *Env) (Local[X], error) { return doRef[X](env, o) }
func (o downcastOp[X, T]) argument(env *Env) (arg, error) { return refArgument(env, o) }
func (o downcastOp[X, T]) javaType() X                    { return *new(X) }
func (o downcastOp[X, T]) reference(env *Env) (ref, error) {
	r, err := o.op.reference(env)
	if err != nil || r.h.IsNull() {
		return r, err
	}
	ok, err := env.isInstance(r.h, DescriptorOf[X]())
	if err != nil || !ok {
		env.drop(r)
		return ref{}, err
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

type funcOp[T JavaType] struct {
	fn func(env *Env) (Local[T], error)
}

// Func adapts fn to an ObjectOp, for conversions composed from other
// operations (building a managed object out of a Go struct, say). The local
// fn returns stays live until its scope ends or it is deleted; fn should
// delete any intermediates it creates.
func Func[T JavaType](fn func(env *Env) (Local[T], error)) ObjectOp[T] { return funcOp[T]{fn: fn} }

func (o funcOp[T]) Do(env *Env) (Local[T], error) { return o.fn(env) }
func (o funcOp[T]) argument(env *Env) (arg, error) { return refArgument(env, o) }
func (o funcOp[T]) javaType() T                    { return *new(T) }
func (o funcOp[T]) reference(env *Env) (ref, error) {
	l, err := o.fn(env)
	if err != nil {
		return ref{}, err
	}
	return l.reference(env)
}
