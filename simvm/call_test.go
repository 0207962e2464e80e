package simvm

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/jbridge/jni"
)

func defineGreeters(t *testing.T, rt *Runtime) {
	t.Helper()
	rt.MustDefine(
		ClassDef{
			Name:   "test.Greeter",
			Fields: []FieldDef{{Name: "name", Sig: "Ljava/lang/String;"}, {Name: "count", Sig: "I", Static: true}},
			Methods: []MethodDef{
				{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: func(c *Call) Value {
					c.SetField(c.This, "name", c.Args[0])
					n := c.GetStatic("test.Greeter", "count").Prim.Int()
					c.SetStatic("test.Greeter", "count", Prim(jni.IntValue(n+1)))
					return Value{}
				}},
				{Name: "greet", Sig: "()Ljava/lang/String;", Impl: func(c *Call) Value {
					return Ref(c.NewString("hello " + c.GetField(c.This, "name").Ref.String()))
				}},
				{Name: "shout", Sig: "(I)Ljava/lang/String;", Impl: func(c *Call) Value {
					greeting := c.Invoke(c.This, "greet", "()Ljava/lang/String;")
					if c.Pending() != nil {
						return Value{}
					}
					return Ref(c.NewString(strings.Repeat(greeting.Ref.String()+"!", int(c.Int(0)))))
				}},
				{Name: "echo", Sig: "(Ljava/lang/String;)Ljava/lang/String;", Static: true, Native: true},
				{Name: "fail", Sig: "()V", Static: true, Native: true},
			},
		},
		ClassDef{
			Name:  "test.LoudGreeter",
			Super: "test.Greeter",
			Methods: []MethodDef{
				{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: func(c *Call) Value {
					c.SetField(c.This, "name", c.Args[0])
					return Value{}
				}},
				{Name: "greet", Sig: "()Ljava/lang/String;", Impl: func(c *Call) Value {
					return Ref(c.NewString("HELLO " + strings.ToUpper(c.GetField(c.This, "name").Ref.String())))
				}},
			},
		},
	)
}

func TestVirtualDispatch(t *testing.T) {
	rt := New(Options{})
	defineGreeters(t, rt)
	env := attach(t, rt)

	greeter := env.FindClass("test/Greeter")
	loud := env.FindClass("test/LoudGreeter")
	greet := env.GetMethodID(greeter, "greet", "()Ljava/lang/String;")
	shout := env.GetMethodID(greeter, "shout", "(I)Ljava/lang/String;")

	g := env.NewObject(greeter, env.GetMethodID(greeter, "<init>", "(Ljava/lang/String;)V"),
		[]jni.Value{jni.ObjectValue(env.NewStringUTF("ann"))})
	l := env.NewObject(loud, env.GetMethodID(loud, "<init>", "(Ljava/lang/String;)V"),
		[]jni.Value{jni.ObjectValue(env.NewStringUTF("bo"))})
	require.False(t, env.ExceptionCheck())

	assert.Equal(t, "hello ann", env.GetStringUTF(env.CallMethod(jni.Reference, g, greet, nil).Object()))
	assert.Equal(t, "HELLO BO", env.GetStringUTF(env.CallMethod(jni.Reference, l, greet, nil).Object()))
	assert.Equal(t, "HELLO BO!HELLO BO!",
		env.GetStringUTF(env.CallMethod(jni.Reference, l, shout, []jni.Value{jni.IntValue(2)}).Object()))

	count := env.GetStaticFieldID(greeter, "count", "I")
	assert.Equal(t, int32(1), env.GetStaticField(jni.Int, greeter, count).Int())

	env.CallMethod(jni.Reference, jni.Null, greet, nil)
	assert.Equal(t, "java.lang.NullPointerException", pendingClass(t, env))

	env.GetMethodID(greeter, "missing", "()V")
	assert.Equal(t, "java.lang.NoSuchMethodError", pendingClass(t, env))
	env.GetFieldID(greeter, "name", "I")
	assert.Equal(t, "java.lang.NoSuchFieldError", pendingClass(t, env))

	env.CallMethod(jni.Reference, g, greet, []jni.Value{jni.IntValue(1)})
	assert.Equal(t, "java.lang.IllegalArgumentException", pendingClass(t, env))
}

func TestNatives(t *testing.T) {
	rt := New(Options{})
	defineGreeters(t, rt)
	env := attach(t, rt)

	greeter := env.FindClass("test/Greeter")
	echo := env.GetStaticMethodID(greeter, "echo", "(Ljava/lang/String;)Ljava/lang/String;")
	fail := env.GetStaticMethodID(greeter, "fail", "()V")
	arg := []jni.Value{jni.ObjectValue(env.NewStringUTF("ping"))}

	env.CallStaticMethod(jni.Reference, greeter, echo, arg)
	assert.Equal(t, "java.lang.UnsatisfiedLinkError", pendingClass(t, env))

	var leaked jni.Object
	status := env.RegisterNatives(greeter, []jni.NativeMethod{
		{Name: "echo", Signature: "(Ljava/lang/String;)Ljava/lang/String;", Fn: func(env jni.Env, class jni.Object, args []jni.Value) jni.Value {
			leaked = env.NewStringUTF("scratch")
			return jni.ObjectValue(env.NewStringUTF("echo: " + env.GetStringUTF(args[0].Object())))
		}},
		{Name: "fail", Signature: "()V", Fn: jni.NativeFunc(func(env jni.Env, class jni.Object, args []jni.Value) jni.Value {
			env.ThrowNew(env.FindClass("java/lang/IllegalStateException"), "native failure")
			return 0
		})},
	})
	require.Equal(t, jni.OK, status)

	before := rt.CurrentThread().LocalCount()
	res := env.CallStaticMethod(jni.Reference, greeter, echo, arg).Object()
	require.False(t, env.ExceptionCheck())
	assert.Equal(t, "echo: ping", env.GetStringUTF(res))
	assert.Equal(t, jni.InvalidRef, env.GetObjectRefType(leaked), "native frame locals are freed on return")
	assert.Equal(t, before+1, rt.CurrentThread().LocalCount())

	env.CallStaticMethod(jni.Void, greeter, fail, nil)
	assert.Equal(t, "java.lang.IllegalStateException", pendingClass(t, env))

	status = env.RegisterNatives(greeter, []jni.NativeMethod{{Name: "greet", Signature: "()Ljava/lang/String;", Fn: jni.NativeFunc(nil)}})
	assert.Equal(t, jni.Err, status)
	assert.Equal(t, "java.lang.NoSuchMethodError", pendingClass(t, env))
}

func TestCallArrays(t *testing.T) {
	rt := New(Options{})
	rt.MustDefine(ClassDef{
		Name: "test.Arrays",
		Methods: []MethodDef{
			{Name: "doubled", Sig: "([I)[I", Static: true, Impl: func(c *Call) Value {
				in := ArrayValues[int32](c, c.Object(0))
				for i := range in {
					in[i] *= 2
				}
				return Ref(NewArray(c, in))
			}},
		},
	})
	env := attach(t, rt)

	cls := env.FindClass("test/Arrays")
	mid := env.GetStaticMethodID(cls, "doubled", "([I)[I")
	arr := env.NewPrimitiveArray(jni.Int, 3)
	in := []int32{1, 2, 3}
	env.SetArrayRegion(jni.Int, arr, 0, 3, unsafePointer(in))

	out := env.CallStaticMethod(jni.Reference, cls, mid, []jni.Value{jni.ObjectValue(arr)}).Object()
	require.False(t, env.ExceptionCheck())
	got := make([]int32, 3)
	env.GetArrayRegion(jni.Int, out, 0, 3, unsafePointer(got))
	assert.Equal(t, []int32{2, 4, 6}, got)
}

func unsafePointer[E any](s []E) unsafe.Pointer { return unsafe.Pointer(&s[0]) }
