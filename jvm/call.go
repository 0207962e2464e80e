package jvm

import (
	"slices"

	"github.com/chazu/jbridge/jni"
)

type callKind uint8

const (
	construct callKind = iota
	invokeVirtual
	invokeStatic
	getField
	setField
	getStatic
	setStatic
)

// callNode is one boundary call: a target (for instance members), the
// member, and argument operations. It is evaluated post-order.
type callNode struct {
	kind   callKind
	target referencer
	method *Method
	field  *Field
	args   []Argument
}

func (n callNode) String() string {
	if n.method != nil {
		return n.method.String()
	}
	return n.field.String()
}

// returns is the kind the foreign call produces.
func (n callNode) returns() jni.Kind {
	switch n.kind {
	case construct:
		return jni.Reference
	case invokeVirtual, invokeStatic:
		return n.method.ret
	case getField, getStatic:
		return n.field.kind
	default:
		return jni.Void
	}
}

func (n callNode) params() []jni.Kind {
	switch n.kind {
	case construct, invokeVirtual, invokeStatic:
		return n.method.args
	case setField, setStatic:
		return []jni.Kind{n.field.kind}
	default:
		return nil
	}
}

// validate checks the node against its member before anything runs.
func (n callNode) validate() error {
	if n.kind == construct && n.method.Name != "<init>" {
		return internalErrorf(Signature, "%s is not a constructor", n)
	}
	static := n.kind == invokeStatic || n.kind == getStatic || n.kind == setStatic
	if n.method != nil && n.method.Static != static || n.field != nil && n.field.Static != static {
		return internalErrorf(Signature, "%s: static mismatch", n)
	}
	if len(n.args) != len(n.params()) {
		return internalErrorf(Signature, "%s: %d arguments, want %d", n, len(n.args), len(n.params()))
	}
	return nil
}

// invoke evaluates the target, then the arguments left to right, then
// makes the call and checks for a pending exception. Temporaries created
// along the way are deleted before it returns.
func (n callNode) invoke(env *Env) (jni.Value, error) {
	if err := n.validate(); err != nil {
		return 0, err
	}

	var temps []ref
	defer func() {
		for i := len(temps) - 1; i >= 0; i-- {
			env.drop(temps[i])
		}
	}()

	var target jni.Object
	if n.target != nil {
		r, err := n.target.reference(env)
		if err != nil {
			return 0, err
		}
		temps = append(temps, r)
		if r.h.IsNull() {
			return 0, internalErrorf(NullDereference, "%s on null", n)
		}
		target = r.h
	}

	params := n.params()
	cells := make([]jni.Value, len(n.args))
	for i, a := range n.args {
		v, err := a.argument(env)
		if err != nil {
			return 0, err
		}
		temps = append(temps, v.temp)
		if v.kind != params[i] {
			return 0, internalErrorf(Signature, "%s: argument %d is %s, want %s", n, i, v.kind, params[i])
		}
		cells[i] = v.cell
	}

	kind := n.returns()
	var res jni.Value
	switch n.kind {
	case construct, invokeStatic:
		cls, err := env.ClassOf(n.method.Class)
		if err != nil {
			return 0, err
		}
		id, err := env.methodID(n.method)
		if err != nil {
			return 0, err
		}
		if n.kind == construct {
			res = jni.ObjectValue(env.raw.NewObject(cls, id, cells))
		} else {
			res = env.raw.CallStaticMethod(kind, cls, id, cells)
		}
	case invokeVirtual:
		id, err := env.methodID(n.method)
		if err != nil {
			return 0, err
		}
		res = env.raw.CallMethod(kind, target, id, cells)
	case getField, setField:
		id, err := env.fieldID(n.field)
		if err != nil {
			return 0, err
		}
		if n.kind == getField {
			res = env.raw.GetField(kind, target, id)
		} else {
			env.raw.SetField(n.field.kind, target, id, cells[0])
		}
	case getStatic, setStatic:
		cls, err := env.ClassOf(n.field.Class)
		if err != nil {
			return 0, err
		}
		id, err := env.fieldID(n.field)
		if err != nil {
			return 0, err
		}
		if n.kind == getStatic {
			res = env.raw.GetStaticField(kind, cls, id)
		} else {
			env.raw.SetStaticField(n.field.kind, cls, id, cells[0])
		}
	}
	if err := env.check(); err != nil {
		return 0, err
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Result shapes
// ---------------------------------------------------------------------------

// ObjectCall is a call producing a reference to an R.
type ObjectCall[R JavaType] struct {
	node callNode
}

func (c ObjectCall[R]) Do(env *Env) (Local[R], error) { return doRef[R](env, c) }
func (c ObjectCall[R]) argument(env *Env) (arg, error) { return refArgument(env, c) }
func (c ObjectCall[R]) javaType() R                    { return *new(R) }

func (c ObjectCall[R]) String() string { return c.node.String() }

func (c ObjectCall[R]) reference(env *Env) (ref, error) {
	if k := c.node.returns(); k != jni.Reference {
		return ref{}, internalErrorf(Signature, "%s returns %s, not a reference", c.node, k)
	}
	v, err := c.node.invoke(env)
	if err != nil {
		return ref{}, err
	}
	if c.node.kind == construct && v.Object().IsNull() {
		return ref{}, internalErrorf(AllocationFailed, "%s returned null", c.node)
	}
	return env.adopt(v.Object())
}

// ScalarCall is a call producing a primitive S.
type ScalarCall[S Primitive] struct {
	node callNode
}

func (c ScalarCall[S]) String() string { return c.node.String() }

func (c ScalarCall[S]) Do(env *Env) (S, error) {
	if k := c.node.returns(); k != KindOf[S]() {
		return *new(S), internalErrorf(Signature, "%s returns %s, not %s", c.node, k, KindOf[S]())
	}
	v, err := c.node.invoke(env)
	if err != nil {
		return *new(S), err
	}
	return fromValue[S](v), nil
}

func (c ScalarCall[S]) argument(env *Env) (arg, error) {
	s, err := c.Do(env)
	if err != nil {
		return arg{}, err
	}
	return arg{cell: toValue(s), kind: KindOf[S]()}, nil
}

// VoidCall is a call made for its effect. A result, if any, is discarded.
type VoidCall struct {
	node callNode
}

func (c VoidCall) String() string { return c.node.String() }

func (c VoidCall) Do(env *Env) (struct{}, error) {
	v, err := c.node.invoke(env)
	if err != nil {
		return struct{}{}, err
	}
	if c.node.returns() == jni.Reference && !v.Object().IsNull() {
		env.raw.DeleteLocalRef(v.Object())
	}
	return struct{}{}, nil
}

// ---------------------------------------------------------------------------
// Builders
// ---------------------------------------------------------------------------

// New constructs a T with ctor.
func New[T JavaType](ctor *Method, args ...Argument) ObjectCall[T] {
	return ObjectCall[T]{callNode{kind: construct, method: ctor, args: slices.Clone(args)}}
}

// Call invokes an instance method returning a reference.
func Call[R, T JavaType](target ObjectOp[T], m *Method, args ...Argument) ObjectCall[R] {
	return ObjectCall[R]{callNode{kind: invokeVirtual, target: target, method: m, args: slices.Clone(args)}}
}

// CallScalar invokes an instance method returning a primitive.
func CallScalar[S Primitive, T JavaType](target ObjectOp[T], m *Method, args ...Argument) ScalarCall[S] {
	return ScalarCall[S]{callNode{kind: invokeVirtual, target: target, method: m, args: slices.Clone(args)}}
}

// CallVoid invokes an instance method for its effect.
func CallVoid[T JavaType](target ObjectOp[T], m *Method, args ...Argument) VoidCall {
	return VoidCall{callNode{kind: invokeVirtual, target: target, method: m, args: slices.Clone(args)}}
}

// CallStatic invokes a static method returning a reference.
func CallStatic[R JavaType](m *Method, args ...Argument) ObjectCall[R] {
	return ObjectCall[R]{callNode{kind: invokeStatic, method: m, args: slices.Clone(args)}}
}

// CallStaticScalar invokes a static method returning a primitive.
func CallStaticScalar[S Primitive](m *Method, args ...Argument) ScalarCall[S] {
	return ScalarCall[S]{callNode{kind: invokeStatic, method: m, args: slices.Clone(args)}}
}

// CallStaticVoid invokes a static method for its effect.
func CallStaticVoid(m *Method, args ...Argument) VoidCall {
	return VoidCall{callNode{kind: invokeStatic, method: m, args: slices.Clone(args)}}
}

// GetField reads a reference field.
func GetField[R, T JavaType](target ObjectOp[T], f *Field) ObjectCall[R] {
	return ObjectCall[R]{callNode{kind: getField, target: target, field: f}}
}

// GetScalarField reads a primitive field.
func GetScalarField[S Primitive, T JavaType](target ObjectOp[T], f *Field) ScalarCall[S] {
	return ScalarCall[S]{callNode{kind: getField, target: target, field: f}}
}

// SetField writes a field.
func SetField[T JavaType](target ObjectOp[T], f *Field, value Argument) VoidCall {
	return VoidCall{callNode{kind: setField, target: target, field: f, args: []Argument{value}}}
}

// GetStaticField reads a static reference field.
func GetStaticField[R JavaType](f *Field) ObjectCall[R] {
	return ObjectCall[R]{callNode{kind: getStatic, field: f}}
}

// GetStaticScalarField reads a static primitive field.
func GetStaticScalarField[S Primitive](f *Field) ScalarCall[S] {
	return ScalarCall[S]{callNode{kind: getStatic, field: f}}
}

// SetStaticField writes a static field.
func SetStaticField(f *Field, value Argument) VoidCall {
	return VoidCall{callNode{kind: setStatic, field: f, args: []Argument{value}}}
}
