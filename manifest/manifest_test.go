package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/jbridge/jvm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "auth-bridge"
version = "0.3.0"

[runtime]
local-capacity = 32
max-locals = 512
max-array-length = 1024

[log]
verbosity = 3
path = "logs/jbridge.log"

[bindings]
tables = ["bindings/auth.toml", "/opt/shared/common.jbb"]
output = "out"
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "auth-bridge", m.Project.Name)
	assert.Equal(t, "0.3.0", m.Project.Version)
	assert.Equal(t, jvm.Options{LocalCapacity: 32}, m.JVMOptions())
	assert.Equal(t, 512, m.SimOptions().MaxLocals)
	assert.Equal(t, int32(1024), m.SimOptions().MaxArrayLength)
	assert.Equal(t, 3, m.Log.Verbosity)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, m.Dir)
	assert.Equal(t, []string{
		filepath.Join(abs, "bindings", "auth.toml"),
		"/opt/shared/common.jbb",
	}, m.TablePaths())
	assert.Equal(t, filepath.Join(abs, "out"), m.OutputDir())
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\nname = \"bare\"\n")

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, int32(jvm.DefaultLocalCapacity), m.Runtime.LocalCapacity)
	assert.Equal(t, 1, m.Log.Verbosity)
	assert.Equal(t, filepath.Join(m.Dir, ".jbridge", "bindings"), m.OutputDir())
	assert.Empty(t, m.TablePaths())

	d := Default(dir)
	assert.Equal(t, m.Runtime, d.Runtime)
	assert.Equal(t, m.Bindings, d.Bindings)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read")

	writeManifest(t, dir, "[project\nname = ")
	_, err = Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error in")
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"walked\"\n")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	m, err := FindAndLoad(nested)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "walked", m.Project.Name)
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zoo.toml"), []byte(`
[[class]]
name = "zoo.Dog"
upcasts = ["zoo.Animal"]
`), 0644))
	writeManifest(t, dir, "[bindings]\ntables = [\"zoo.toml\"]\n")

	m, err := Load(dir)
	require.NoError(t, err)
	tables, err := m.LoadTables()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "zoo.Dog", tables[0].Classes[0].Name)

	m.Bindings.Tables = append(m.Bindings.Tables, "missing.toml", "gone.toml")
	_, err = m.LoadTables()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.toml")
	assert.Contains(t, err.Error(), "gone.toml")
}

func TestLoad_ZeroVerbosity(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[log]\nverbosity = 0\n")

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Log.Verbosity)
}
