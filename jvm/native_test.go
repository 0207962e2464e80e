package jvm

import (
	"encoding/binary"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/jbridge/jni"
)

func registerGreeterNatives(t *testing.T, vm *VM, env *Env) {
	t.Helper()
	err := RegisterNatives[greeter](env,
		vm.Native("baseGreeting", "(Ljava/lang/String;)Ljava/lang/String;",
			func(env *Env, this jni.Object, args []jni.Value) (Result, error) {
				return Return(Arg[String](env, args[0].Object())), nil
			}),
		vm.Native("getInt", "()I", func(env *Env, this jni.Object, args []jni.Value) (Result, error) {
			return ReturnScalar(int32(0)), nil
		}),
		vm.Native("echoInt", "(I)I", func(env *Env, this jni.Object, args []jni.Value) (Result, error) {
			return ReturnScalar(ScalarOf[int32](args[0])), nil
		}),
		vm.Native("fail", "(Ljava/lang/String;)V", func(env *Env, class jni.Object, args []jni.Value) (Result, error) {
			s, err := GoString(Arg[String](env, args[0].Object())).Do(env)
			if err != nil {
				return Result{}, err
			}
			return Result{}, fmt.Errorf("refusing %s", s)
		}),
		vm.Native("relay", "(Ljava/lang/String;)V", func(env *Env, class jni.Object, args []jni.Value) (Result, error) {
			_, err := CallStaticVoid(greeterCheck, Arg[String](env, args[0].Object())).Do(env)
			return Result{}, err
		}),
		vm.Native("explode", "()V", func(env *Env, class jni.Object, args []jni.Value) (Result, error) {
			panic("kaboom")
		}),
	)
	require.NoError(t, err)
}

func registerArrayNatives(t *testing.T, vm *VM, env *Env) {
	t.Helper()
	err := RegisterNatives[arrayTests](env,
		vm.Native("combineBytes", "([B)J", func(env *Env, class jni.Object, args []jni.Value) (Result, error) {
			signed, err := ToSlice(NotNull(Arg[Array[int8]](env, args[0].Object()))).Do(env)
			if err != nil {
				return Result{}, err
			}
			if len(signed) != 8 {
				return Result{}, fmt.Errorf("want 8 bytes, got %d", len(signed))
			}
			var raw [8]byte
			for i, b := range signed {
				raw[i] = byte(b)
			}
			return ReturnScalar(int64(binary.LittleEndian.Uint64(raw[:]))), nil
		}),
		vm.Native("breakBytes", "(J)[B", func(env *Env, class jni.Object, args []jni.Value) (Result, error) {
			raw := binary.LittleEndian.AppendUint64(nil, uint64(ScalarOf[int64](args[0])))
			signed := make([]int8, len(raw))
			for i, b := range raw {
				signed[i] = int8(b)
			}
			arr, err := NewArray(signed).Do(env)
			if err != nil {
				return Result{}, err
			}
			return Return(arr), nil
		}),
		vm.Native("fillWithOnes", "([BI)J", func(env *Env, class jni.Object, args []jni.Value) (Result, error) {
			n := ScalarOf[int32](args[1])
			_, err := SetRegion(Arg[Array[int8]](env, args[0].Object()), 0, slices.Repeat([]int8{1}, int(n))).Do(env)
			return ReturnScalar(int64(0)), err
		}),
		vm.Native("fillWithTrue", "([ZI)J", func(env *Env, class jni.Object, args []jni.Value) (Result, error) {
			n := ScalarOf[int32](args[1])
			_, err := SetRegion(Arg[Array[bool]](env, args[0].Object()), 0, slices.Repeat([]bool{true}, int(n))).Do(env)
			return ReturnScalar(int64(0)), err
		}),
	)
	require.NoError(t, err)
}

func TestCallback_Greeting(t *testing.T) {
	vm, rt := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		registerGreeterNatives(t, vm, env)
		before := rt.CurrentThread().LocalCount()

		g, err := New[greeter](greeterNew, Str("ann")).Do(env)
		require.NoError(t, err)
		s, err := GoString(Call[String](g, baseGreeting, Str("duchess"))).Do(env)
		require.NoError(t, err)
		assert.Equal(t, "duchess", s)

		n, err := CallScalar[int32](g, getInt).Do(env)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = CallScalar[int32](g, echoInt, Scalar(int32(32))).Do(env)
		require.NoError(t, err)
		assert.Equal(t, int32(32), n)

		DeleteLocal(env, g)
		assert.Equal(t, before, rt.CurrentThread().LocalCount(), "callback frames are popped")
	})
}

func TestCallback_ErrorBecomesRuntimeException(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		registerGreeterNatives(t, vm, env)

		_, err := CallStaticVoid(failWith, Str("bob")).Do(env)
		var thrown *ThrownError
		require.ErrorAs(t, err, &thrown)
		ok, err := IsInstance[RuntimeException](thrown.Throwable()).Do(env)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "refusing bob", messageOf(env, thrown.Throwable()))
	})
}

func TestCallback_ThrownErrorIsRethrown(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		registerGreeterNatives(t, vm, env)

		c := TryCatch(CallStaticVoid(relay, Str("mallory")))
		var caught string
		c = Catch(c, func(env *Env, exc Local[denied]) (struct{}, error) {
			caught = messageOf(env, exc)
			return struct{}{}, nil
		})
		_, err := c.Do(env)
		require.NoError(t, err)
		assert.Equal(t, "mallory is not welcome", caught)

		_, err = CallStaticVoid(relay, Str("ann")).Do(env)
		assert.NoError(t, err)
	})
}

func TestCallback_PanicIsContained(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	err := vm.With(func(env *Env) error {
		registerGreeterNatives(t, vm, env)
		_, err := CallStaticVoid(explode).Do(env)
		return err
	})
	var thrown *ThrownError
	require.ErrorAs(t, err, &thrown)
	assert.Equal(t, "java.lang.RuntimeException", thrown.Class)
	assert.Contains(t, thrown.Message, "kaboom")
}

func TestCallback_Arrays(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		registerArrayNatives(t, vm, env)

		ones := []int8{1, 1, 1, 1, 1, 1, 1, 1}
		combo, err := CallStaticScalar[int64](combineBytes, NewArray(ones)).Do(env)
		require.NoError(t, err)
		assert.Equal(t, int64(72340172838076673), combo)

		broken, err := ToSlice(CallStatic[Array[int8]](breakBytes, Scalar(combo))).Do(env)
		require.NoError(t, err)
		assert.Equal(t, ones, broken)

		_, err = CallStaticScalar[int64](combineBytes, Null[Array[int8]]()).Do(env)
		var thrown *ThrownError
		require.ErrorAs(t, err, &thrown)

		bytes, err := NewArray(make([]int8, 5)).Do(env)
		require.NoError(t, err)
		_, err = CallStaticScalar[int64](fillWithOnes, bytes, Scalar(int32(5))).Do(env)
		require.NoError(t, err)
		got, err := ToSlice(bytes).Do(env)
		require.NoError(t, err)
		assert.Equal(t, []int8{1, 1, 1, 1, 1}, got)

		flags, err := NewArray(make([]bool, 5)).Do(env)
		require.NoError(t, err)
		_, err = CallStaticScalar[int64](fillWithTrue, flags, Scalar(int32(5))).Do(env)
		require.NoError(t, err)
		gotFlags, err := ToSlice(flags).Do(env)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, true, true, true, true}, gotFlags)

		// Writing past the end inside a callback surfaces to the caller.
		_, err = CallStaticScalar[int64](fillWithOnes, bytes, Scalar(int32(6))).Do(env)
		require.ErrorAs(t, err, &thrown)
		ok, err := IsInstance[ArrayIndexOutOfBoundsException](thrown.Throwable()).Do(env)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRegisterNatives_UnknownMethod(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		err := RegisterNatives[greeter](env, vm.Native("greet", "()Ljava/lang/String;",
			func(env *Env, this jni.Object, args []jni.Value) (Result, error) { return Result{}, nil }))
		var thrown *ThrownError
		require.ErrorAs(t, err, &thrown)
	})
}
