package binding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/jbridge/jvm"
	"github.com/chazu/jbridge/simvm"
)

const zooTable = `
package = "zoo"

[[class]]
name = "zoo.Animal"

  [[class.method]]
  name = "<init>"
  sig = "()V"

  [[class.method]]
  name = "speak"
  sig = "()Ljava/lang/String;"

  [[class.field]]
  name = "legs"
  sig = "I"

[[class]]
name = "zoo.Dog"
upcasts = ["zoo.Animal"]

  [[class.method]]
  name = "<init>"
  sig = "()V"

  [[class.method]]
  name = "count"
  sig = "()I"
  static = true
`

func newZoo(t *testing.T) *jvm.VM {
	t.Helper()
	rt := simvm.New(simvm.Options{})
	rt.MustDefine(
		simvm.ClassDef{
			Name:    "zoo.Animal",
			Fields:  []simvm.FieldDef{{Name: "legs", Sig: "I"}},
			Methods: []simvm.MethodDef{{Name: "<init>", Sig: "()V"}, {Name: "speak", Sig: "()Ljava/lang/String;"}},
		},
		simvm.ClassDef{
			Name:    "zoo.Dog",
			Super:   "zoo.Animal",
			Methods: []simvm.MethodDef{{Name: "<init>", Sig: "()V"}, {Name: "count", Sig: "()I", Static: true}},
		},
	)
	return jvm.NewVM(rt, jvm.Options{})
}

func TestParseTOML(t *testing.T) {
	tbl, err := ParseTOML([]byte(zooTable))
	require.NoError(t, err)

	assert.Equal(t, "zoo", tbl.Package)
	require.Len(t, tbl.Classes, 2)
	dog, ok := tbl.Class("zoo/Dog")
	require.True(t, ok)
	assert.Equal(t, []string{"zoo.Animal"}, dog.Upcasts)
	assert.Equal(t, Member{Name: "count", Sig: "()I", Static: true}, dog.Methods[1])

	animal, ok := tbl.Class("zoo.Animal")
	require.True(t, ok)
	assert.Equal(t, "zoo/Animal", animal.Descriptor().Name())
	assert.Equal(t, "zoo.Animal.legs:I", animal.Field(animal.Fields[0]).String())

	_, ok = tbl.Class("zoo.Cat")
	assert.False(t, ok)
}

func TestParseTOML_UnknownKey(t *testing.T) {
	_, err := ParseTOML([]byte("[[class]]\nname = \"a.B\"\nsuper = \"a.C\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	tbl := &Table{Classes: []Class{
		{Name: "a.B", Methods: []Member{{Name: "f", Sig: "(I"}, {Name: "<init>", Sig: "()I"}}},
		{Name: "a.B", Fields: []Member{{Name: "x", Sig: "V"}}, Upcasts: []string{"a.B"}},
		{},
	}}
	err := tbl.Validate()
	require.Error(t, err)
	for _, want := range []string{"method a.B.f", "constructor a.B()I", "listed twice", "field a.B.x", "bad upcast", "class #2"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestCBOR_IsCanonical(t *testing.T) {
	tbl, err := ParseTOML([]byte(zooTable))
	require.NoError(t, err)

	first, err := MarshalCBOR(tbl)
	require.NoError(t, err)
	second, err := MarshalCBOR(tbl)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	back, err := UnmarshalCBOR(first)
	require.NoError(t, err)
	assert.Equal(t, tbl, back)

	_, err = UnmarshalCBOR([]byte{0xff})
	assert.Error(t, err)
}

func TestCompileAndLoad(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "zoo.toml")
	dst := filepath.Join(dir, "zoo.jbb")
	require.NoError(t, os.WriteFile(src, []byte(zooTable), 0644))

	require.NoError(t, Compile(src, dst))

	fromTOML, err := Load(src)
	require.NoError(t, err)
	fromCBOR, err := Load(dst)
	require.NoError(t, err)
	assert.Equal(t, fromTOML, fromCBOR)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestEncodeTOML(t *testing.T) {
	tbl, err := ParseTOML([]byte(zooTable))
	require.NoError(t, err)

	again, err := ParseTOML([]byte(tbl.String()))
	require.NoError(t, err)
	assert.Equal(t, tbl, again)
	assert.True(t, strings.Contains(tbl.String(), "[[class.method]]"))
}

func TestApply(t *testing.T) {
	tbl, err := ParseTOML([]byte(zooTable))
	require.NoError(t, err)

	dog, animal := jvm.NewDescriptor("zoo.Dog"), jvm.NewDescriptor("zoo.Animal")
	tbl.Apply()
	assert.True(t, jvm.IsUpcast(dog, animal))
	assert.False(t, jvm.IsUpcast(animal, dog))
}

func TestResolveAndVerify(t *testing.T) {
	vm := newZoo(t)
	tbl, err := ParseTOML([]byte(zooTable))
	require.NoError(t, err)

	err = vm.With(func(env *jvm.Env) error {
		assert.NoError(t, tbl.Resolve(env))
		assert.NoError(t, tbl.Verify(env))
		return nil
	})
	require.NoError(t, err)
}

func TestResolve_ReportsStaleMembers(t *testing.T) {
	vm := newZoo(t)
	tbl := &Table{Classes: []Class{
		{Name: "zoo.Animal", Methods: []Member{{Name: "fetch", Sig: "()V"}}, Fields: []Member{{Name: "tail", Sig: "Z"}}},
		{Name: "zoo.Cat", Methods: []Member{{Name: "purr", Sig: "()V"}}},
	}}

	err := vm.With(func(env *jvm.Env) error {
		err := tbl.Resolve(env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 unresolved")

		var re *jvm.ResolutionError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "method", re.What)
		return nil
	})
	require.NoError(t, err)
}

func TestVerify_RejectsFalseUpcast(t *testing.T) {
	vm := newZoo(t)
	tbl := &Table{Classes: []Class{{Name: "zoo.Animal", Upcasts: []string{"zoo.Dog"}}}}

	err := vm.With(func(env *jvm.Env) error {
		err := tbl.Verify(env)
		var mismatch UpcastMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, UpcastMismatch{From: "zoo.Animal", To: "zoo.Dog"}, mismatch)
		return nil
	})
	require.NoError(t, err)
}
