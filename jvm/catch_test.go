package jvm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageOf[X JavaType](env *Env, exc Local[X]) string {
	msg, err := GoString(Call[String](exc, throwableGetMessage)).Do(env)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return msg
}

func TestCatch_FirstMatchingArmWins(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		var laterArm bool
		c := TryCatch(CallStaticVoid(greeterCheck, Str("mallory")))
		c = Catch(c, func(env *Env, exc Local[NullPointerException]) (struct{}, error) {
			return struct{}{}, errors.New("wrong arm")
		})
		var caught string
		c = Catch(c, func(env *Env, exc Local[appError]) (struct{}, error) {
			caught = messageOf(env, exc)
			return struct{}{}, nil
		})
		c = Catch(c, func(env *Env, exc Local[RuntimeException]) (struct{}, error) {
			laterArm = true
			return struct{}{}, nil
		})

		_, err := c.Do(env)
		require.NoError(t, err)
		assert.Equal(t, "mallory is not welcome", caught)
		assert.False(t, laterArm)
		assert.False(t, env.Raw().ExceptionCheck())
	})
}

func TestCatch_HandlerResultIsReturned(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		check := func(name string) (string, error) {
			c := TryCatch[string](thenString{CallStaticVoid(greeterCheck, Str(name)), "welcome " + name})
			c = Catch(c, func(env *Env, exc Local[denied]) (string, error) {
				return "denied", nil
			})
			return c.Do(env)
		}

		s, err := check("ann")
		require.NoError(t, err)
		assert.Equal(t, "welcome ann", s)

		s, err = check("mallory")
		require.NoError(t, err)
		assert.Equal(t, "denied", s)
	})
}

func TestCatch_UnmatchedIsDescribed(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		c := TryCatch(CallStaticVoid(greeterCheck, Str("")))
		c = Catch(c, func(env *Env, exc Local[denied]) (struct{}, error) {
			t.Error("denied arm must not match an AppError")
			return struct{}{}, nil
		})

		_, err := c.Do(env)
		var thrown *ThrownError
		require.ErrorAs(t, err, &thrown)
		assert.True(t, thrown.Described())
		assert.Equal(t, "test.AppError", thrown.Class)
		assert.Equal(t, "empty name", thrown.Message)
		assert.Equal(t, "jvm: exception test.AppError: empty name", err.Error())
	})
}

func TestCatch_Otherwise(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		c := TryCatch(CallStaticVoid(greeterCheck, Null[String]()))
		c = Catch(c, func(env *Env, exc Local[appError]) (struct{}, error) {
			return struct{}{}, errors.New("wrong arm")
		})
		var seen string
		c = c.Otherwise(func(env *Env, err *ThrownError) (struct{}, error) {
			seen = err.Class + ": " + err.Message
			return struct{}{}, nil
		})

		_, err := c.Do(env)
		require.NoError(t, err)
		assert.Equal(t, "java.lang.NullPointerException: name is null", seen)
	})
}

func TestCatch_HandledThrowablesAreDeleted(t *testing.T) {
	vm, rt := newTestVM(t, Options{LocalCapacity: 4})

	with(t, vm, func(env *Env) {
		deny := func() (string, error) {
			c := TryCatch[string](thenString{CallStaticVoid(greeterCheck, Str("mallory")), "welcome"})
			c = Catch(c, func(env *Env, exc Local[denied]) (string, error) {
				return "denied", nil
			})
			return c.Do(env)
		}
		fail := func() (string, error) {
			c := TryCatch[string](thenString{CallStaticVoid(greeterCheck, Str("")), "welcome"})
			c = c.Otherwise(func(env *Env, err *ThrownError) (string, error) {
				return err.Message, nil
			})
			return c.Do(env)
		}

		_, err := deny()
		require.NoError(t, err)
		_, err = fail()
		require.NoError(t, err)
		baseline := rt.CurrentThread().LocalCount()

		for i := range 3 * vm.LocalCapacity() {
			s, err := deny()
			require.NoError(t, err, "iteration %d", i)
			assert.Equal(t, "denied", s)
			s, err = fail()
			require.NoError(t, err, "iteration %d", i)
			assert.Equal(t, "empty name", s)
		}
		assert.Zero(t, env.LiveLocals())
		assert.Equal(t, baseline, rt.CurrentThread().LocalCount())

		_, err = Str("after").Do(env)
		assert.NoError(t, err)
	})
}

func TestCatch_OtherwiseRethrowKeepsThrowable(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		c := TryCatch(CallStaticVoid(greeterCheck, Str("mallory")))
		c = c.Otherwise(func(env *Env, err *ThrownError) (struct{}, error) {
			return struct{}{}, err
		})

		_, err := c.Do(env)
		var thrown *ThrownError
		require.ErrorAs(t, err, &thrown)
		ok, err := IsInstance[denied](thrown.Throwable()).Do(env)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCatch_InternalErrorsPassThrough(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	with(t, vm, func(env *Env) {
		c := TryCatch(CallVoid(Null[greeter](), greeterGreet))
		c = Catch(c, func(env *Env, exc Local[Throwable]) (struct{}, error) {
			t.Error("no foreign exception was thrown")
			return struct{}{}, nil
		})
		_, err := c.Do(env)
		assert.ErrorIs(t, err, ErrNullDereference)
	})
}

func TestWith_UncaughtExceptionIsDescribed(t *testing.T) {
	vm, _ := newTestVM(t, Options{})

	err := vm.With(func(env *Env) error {
		_, err := CallStaticVoid(greeterCheck, Str("mallory")).Do(env)
		return err
	})
	var thrown *ThrownError
	require.ErrorAs(t, err, &thrown)
	assert.Equal(t, "test.Denied", thrown.Class)
	assert.Equal(t, "mallory is not welcome", thrown.Message)
	assert.Panics(t, func() { thrown.Throwable().Handle() }, "the throwable died with its scope")
}

// thenString runs a void operation and yields s when it succeeds.
type thenString struct {
	op VoidCall
	s  string
}

func (t thenString) Do(env *Env) (string, error) {
	if _, err := t.op.Do(env); err != nil {
		return "", err
	}
	return t.s, nil
}
