package jni

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignature(t *testing.T) {
	t.Parallel()

	args, ret, err := ParseSignature("(I[BLjava/lang/String;[[Lauth/Thing;Z)J")
	require.NoError(t, err)
	assert.Equal(t, []Kind{Int, Reference, Reference, Reference, Boolean}, args)
	assert.Equal(t, Long, ret)

	args, ret, err = ParseSignature("()V")
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Equal(t, Void, ret)
}

func TestParseSignatureRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, sig := range []string{"", "I", "(I", "(V)V", "(Q)V", "(Ljava/lang/String)V", "()VV", "()"} {
		_, _, err := ParseSignature(sig)
		assert.Error(t, err, "signature %q", sig)
	}
}

func TestFieldKind(t *testing.T) {
	t.Parallel()

	k, err := FieldKind("D")
	require.NoError(t, err)
	assert.Equal(t, Double, k)

	k, err = FieldKind("[I")
	require.NoError(t, err)
	assert.Equal(t, Reference, k)

	_, err = FieldKind("V")
	assert.Error(t, err)
	_, err = FieldKind("II")
	assert.Error(t, err)
}

func TestValueCells(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int8(-3), ByteValue(-3).Byte())
	assert.Equal(t, int16(-300), ShortValue(-300).Short())
	assert.Equal(t, int32(-70000), IntValue(-70000).Int())
	assert.Equal(t, int64(-1)<<40, LongValue(int64(-1)<<40).Long())
	assert.Equal(t, float32(1.5), FloatValue(1.5).Float())
	assert.Equal(t, 2.25, DoubleValue(2.25).Double())
	assert.Equal(t, uint16(0xFFFF), CharValue(0xFFFF).Char())
	assert.True(t, BoolValue(true).Bool())
	assert.False(t, BoolValue(false).Bool())
	assert.Equal(t, Object(42), ObjectValue(42).Object())
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "java/lang/String", BinaryName("java.lang.String"))
	assert.Equal(t, "[Ljava.lang.String;", BinaryName("[Ljava.lang.String;"))
	assert.Equal(t, "java.lang.String", DottedName("java/lang/String"))
}
