package jvm

import (
	"strings"
	"testing"

	"github.com/chazu/jbridge/jni"
	"github.com/chazu/jbridge/simvm"
)

// ---------------------------------------------------------------------------
// Markers
// ---------------------------------------------------------------------------

var (
	greeterClass    = NewDescriptor("test.Greeter")
	loudClass       = NewDescriptor("test.LoudGreeter")
	arrayTestsClass = NewDescriptor("test.ArrayTests")
	appErrorClass   = NewDescriptor("test.AppError")
	deniedClass     = NewDescriptor("test.Denied")
)

type greeter struct{}

func (greeter) Descriptor() *Descriptor { return greeterClass }

type loudGreeter struct{}

func (loudGreeter) Descriptor() *Descriptor { return loudClass }

type arrayTests struct{}

func (arrayTests) Descriptor() *Descriptor { return arrayTestsClass }

type appError struct{}

func (appError) Descriptor() *Descriptor { return appErrorClass }

type denied struct{}

func (denied) Descriptor() *Descriptor { return deniedClass }

func init() {
	DeclareUpcast[loudGreeter, greeter]()
	DeclareUpcast[appError, RuntimeException]()
	DeclareUpcast[denied, appError]()
}

var (
	greeterNew   = Constructor(greeterClass, "(Ljava/lang/String;)V")
	greeterGreet = NewMethod(greeterClass, "greet", "()Ljava/lang/String;")
	greeterShout = NewMethod(greeterClass, "shout", "(I)Ljava/lang/String;")
	greeterName  = NewField(greeterClass, "name", "Ljava/lang/String;")
	greeterCount = NewStaticField(greeterClass, "count", "I")
	greeterCheck = NewStaticMethod(greeterClass, "check", "(Ljava/lang/String;)V")
	loudNew      = Constructor(loudClass, "(Ljava/lang/String;)V")

	// Natives implemented in Go.
	baseGreeting = NewMethod(greeterClass, "baseGreeting", "(Ljava/lang/String;)Ljava/lang/String;")
	getInt       = NewMethod(greeterClass, "getInt", "()I")
	echoInt      = NewMethod(greeterClass, "echoInt", "(I)I")
	failWith     = NewStaticMethod(greeterClass, "fail", "(Ljava/lang/String;)V")
	relay        = NewStaticMethod(greeterClass, "relay", "(Ljava/lang/String;)V")
	explode      = NewStaticMethod(greeterClass, "explode", "()V")

	arraysSum    = NewStaticMethod(arrayTestsClass, "sum", "([I)I")
	combineBytes = NewStaticMethod(arrayTestsClass, "combineBytes", "([B)J")
	breakBytes   = NewStaticMethod(arrayTestsClass, "breakBytes", "(J)[B")
	fillWithOnes = NewStaticMethod(arrayTestsClass, "fillWithOnes", "([BI)J")
	fillWithTrue = NewStaticMethod(arrayTestsClass, "fillWithTrue", "([ZI)J")
)

// ---------------------------------------------------------------------------
// Managed side
// ---------------------------------------------------------------------------

func defineFixtures(rt *simvm.Runtime) {
	rt.MustDefine(
		simvm.ClassDef{
			Name:    "test.AppError",
			Super:   "java.lang.RuntimeException",
			Methods: []simvm.MethodDef{{Name: "<init>", Sig: "()V"}, simvm.ThrowableInit()},
		},
		simvm.ClassDef{
			Name:    "test.Denied",
			Super:   "test.AppError",
			Methods: []simvm.MethodDef{{Name: "<init>", Sig: "()V"}, simvm.ThrowableInit()},
		},
		simvm.ClassDef{
			Name: "test.Greeter",
			Fields: []simvm.FieldDef{
				{Name: "name", Sig: "Ljava/lang/String;"},
				{Name: "count", Sig: "I", Static: true},
			},
			Methods: []simvm.MethodDef{
				{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: func(c *simvm.Call) simvm.Value {
					c.SetField(c.This, "name", c.Args[0])
					n := c.GetStatic("test.Greeter", "count").Prim.Int()
					c.SetStatic("test.Greeter", "count", simvm.Prim(jni.IntValue(n+1)))
					return simvm.Value{}
				}},
				{Name: "greet", Sig: "()Ljava/lang/String;", Impl: func(c *simvm.Call) simvm.Value {
					return simvm.Ref(c.NewString("hello " + c.GetField(c.This, "name").Ref.String()))
				}},
				{Name: "shout", Sig: "(I)Ljava/lang/String;", Impl: func(c *simvm.Call) simvm.Value {
					greeting := c.Invoke(c.This, "greet", "()Ljava/lang/String;")
					if c.Pending() != nil {
						return simvm.Value{}
					}
					return simvm.Ref(c.NewString(strings.Repeat(greeting.Ref.String()+"!", int(c.Int(0)))))
				}},
				{Name: "check", Sig: "(Ljava/lang/String;)V", Static: true, Impl: func(c *simvm.Call) simvm.Value {
					s, ok := c.Str(0)
					switch {
					case !ok:
						return c.Throw("java.lang.NullPointerException", "name is null")
					case s == "":
						return c.Throw("test.AppError", "empty name")
					case s == "mallory":
						return c.Throw("test.Denied", "mallory is not welcome")
					}
					return simvm.Value{}
				}},
				{Name: "baseGreeting", Sig: "(Ljava/lang/String;)Ljava/lang/String;", Native: true},
				{Name: "getInt", Sig: "()I", Native: true},
				{Name: "echoInt", Sig: "(I)I", Native: true},
				{Name: "fail", Sig: "(Ljava/lang/String;)V", Static: true, Native: true},
				{Name: "relay", Sig: "(Ljava/lang/String;)V", Static: true, Native: true},
				{Name: "explode", Sig: "()V", Static: true, Native: true},
			},
		},
		simvm.ClassDef{
			Name:  "test.LoudGreeter",
			Super: "test.Greeter",
			Methods: []simvm.MethodDef{
				{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: func(c *simvm.Call) simvm.Value {
					c.SetField(c.This, "name", c.Args[0])
					return simvm.Value{}
				}},
				{Name: "greet", Sig: "()Ljava/lang/String;", Impl: func(c *simvm.Call) simvm.Value {
					return simvm.Ref(c.NewString("HELLO " + strings.ToUpper(c.GetField(c.This, "name").Ref.String())))
				}},
			},
		},
		simvm.ClassDef{
			Name: "test.ArrayTests",
			Methods: []simvm.MethodDef{
				{Name: "sum", Sig: "([I)I", Static: true, Impl: func(c *simvm.Call) simvm.Value {
					var total int32
					for _, v := range simvm.ArrayValues[int32](c, c.Object(0)) {
						total += v
					}
					return simvm.Prim(jni.IntValue(total))
				}},
				{Name: "combineBytes", Sig: "([B)J", Static: true, Native: true},
				{Name: "breakBytes", Sig: "(J)[B", Static: true, Native: true},
				{Name: "fillWithOnes", Sig: "([BI)J", Static: true, Native: true},
				{Name: "fillWithTrue", Sig: "([ZI)J", Static: true, Native: true},
			},
		},
	)
}

// newTestVM starts a runtime with the test classes defined.
func newTestVM(t *testing.T, opts Options) (*VM, *simvm.Runtime) {
	t.Helper()
	rt := simvm.New(simvm.Options{})
	defineFixtures(rt)
	return NewVM(rt, opts), rt
}

// with runs fn in a scope and fails the test on error.
func with(t *testing.T, vm *VM, fn func(env *Env)) {
	t.Helper()
	if err := vm.With(func(env *Env) error {
		fn(env)
		return nil
	}); err != nil {
		t.Fatalf("With: %v", err)
	}
}
