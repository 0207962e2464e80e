package jvm

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/jbridge/jni"
)

func TestLocal_UnusableAfterScope(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	var leaked Local[String]
	with(t, vm, func(env *Env) {
		var err error
		leaked, err = Str("short-lived").Do(env)
		require.NoError(t, err)
		assert.True(t, leaked.Valid())
	})

	assert.False(t, leaked.Valid())
	assert.Panics(t, func() { leaked.Handle() })
	assert.Panics(t, func() { _, _ = GoString(leaked).Do(nil) })
}

func TestLocal_InvalidInRuntimeAfterNestedScope(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(outer *Env) {
		var inner Local[String]
		with(t, vm, func(env *Env) {
			var err error
			inner, err = Str("nested").Do(env)
			require.NoError(t, err)
			assert.Equal(t, jni.LocalRef, env.Raw().GetObjectRefType(inner.Handle()))
		})
		assert.Equal(t, jni.InvalidRef, outer.Raw().GetObjectRefType(inner.h))
	})
}

func TestLocal_Capacity(t *testing.T) {
	vm, _ := newTestVM(t, Options{LocalCapacity: 4})
	assert.Equal(t, int32(4), vm.LocalCapacity())

	with(t, vm, func(env *Env) {
		held := make([]Local[String], 0, 4)
		for i := range 4 {
			l, err := Str(fmt.Sprint(i)).Do(env)
			require.NoError(t, err)
			held = append(held, l)
		}
		assert.Equal(t, int32(4), env.LiveLocals())

		_, err := Str("one too many").Do(env)
		require.ErrorIs(t, err, ErrLocalCapacity)

		DeleteLocal(env, held[0])
		_, err = Str("fits again").Do(env)
		assert.NoError(t, err)
	})
}

func TestGlobal_SharedAcrossGoroutines(t *testing.T) {
	vm, rt := newTestVM(t, Options{})

	var g Global[greeter]
	with(t, vm, func(env *Env) {
		var err error
		g, err = NewGlobal(env, New[greeter](greeterNew, Str("ann")))
		require.NoError(t, err)
		assert.Zero(t, env.LiveLocals())
	})
	withGlobal := rt.GlobalCount()

	var eg errgroup.Group
	for range 8 {
		c := g.Clone()
		eg.Go(func() error {
			defer c.Release()
			return vm.With(func(env *Env) error {
				s, err := GoString(Call[String](c, greeterGreet)).Do(env)
				if err != nil {
					return err
				}
				if s != "hello ann" {
					return fmt.Errorf("greet returned %q", s)
				}
				return nil
			})
		})
	}
	require.NoError(t, eg.Wait())
	assert.Equal(t, withGlobal, rt.GlobalCount(), "clones share one foreign global")

	with(t, vm, func(env *Env) {
		l, err := g.Local(env)
		require.NoError(t, err)
		assert.Equal(t, jni.LocalRef, env.Raw().GetObjectRefType(l.Handle()))
	})

	g.Release()
	assert.Equal(t, withGlobal-1, rt.GlobalCount())
	assert.Panics(t, func() { g.Release() })
	assert.Panics(t, func() { g.Handle() })
}

func TestGlobal_ReleasedWhenUnreachable(t *testing.T) {
	vm, rt := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		g, err := NewGlobal(env, New[greeter](greeterNew, Str("warm")))
		require.NoError(t, err)
		g.Release()
	})
	baseline := rt.GlobalCount()

	func() {
		with(t, vm, func(env *Env) {
			g, err := NewGlobal(env, New[greeter](greeterNew, Str("ann")))
			require.NoError(t, err)
			require.False(t, g.IsNull())
		})
	}()
	assert.Equal(t, baseline+1, rt.GlobalCount())

	assert.Eventually(t, func() bool {
		runtime.GC()
		return rt.GlobalCount() == baseline
	}, 5*time.Second, 10*time.Millisecond)
}

func TestGlobal_Null(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		g, err := NewGlobal(env, Null[String]())
		require.NoError(t, err)
		assert.True(t, g.IsNull())
		l, err := g.Local(env)
		require.NoError(t, err)
		assert.True(t, l.IsNull())
		g.Release()
	})
}

func TestVM_CloseDropsClassCache(t *testing.T) {
	vm, rt := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		_, err := env.ClassOf(greeterClass)
		require.NoError(t, err)
		_, err = env.ClassOf(DescriptorOf[String]())
		require.NoError(t, err)
	})
	assert.Equal(t, 2, rt.GlobalCount())
	require.NoError(t, vm.Close())
	assert.Zero(t, rt.GlobalCount())
	assert.Zero(t, rt.ThreadCount())
}
