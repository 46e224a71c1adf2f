package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resolvent/internal/types"
)

func universeForDump(t *testing.T) types.Universe {
	t.Helper()
	u, err := types.NewUniverse(
		types.Package{
			Name: "app", Version: "1.0.0", Origin: types.OriginGeneric, Installed: true,
			Depends:   types.CNF{{{Name: "lib", Constraint: types.Constraint{Op: types.RelOpGe, Version: "1.0.0"}}}},
			Conflicts: []types.Atom{{Name: "legacy", Constraint: types.Constraint{Op: types.RelOpNone}}},
		},
		types.Package{Name: "lib", Version: "1.0.0", Origin: types.OriginGeneric, Installed: true},
	)
	require.NoError(t, err)
	return u
}

func TestDumpUniverseWritesCUDFStanzas(t *testing.T) {
	dir := t.TempDir()
	a := NewDebugDumpAdapter(dir)
	require.NoError(t, a.DumpUniverse("before", universeForDump(t)))

	data, err := os.ReadFile(filepath.Join(dir, "before.cudf"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "package: app")
	assert.Contains(t, content, "version: 1.0.0")
	assert.Contains(t, content, "depends: lib (>= 1.0.0)")
	assert.Contains(t, content, "conflicts: legacy")
}

func TestDumpDependencyGraphWritesDotEdges(t *testing.T) {
	dir := t.TempDir()
	a := NewDebugDumpAdapter(dir)
	require.NoError(t, a.DumpDependencyGraph("before", universeForDump(t)))

	data, err := os.ReadFile(filepath.Join(dir, "before.dot"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "digraph before")
	assert.Contains(t, content, `"app" -> "lib";`)
}

func TestDumpUniverseCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "debug")
	a := NewDebugDumpAdapter(dir)
	require.NoError(t, a.DumpUniverse("snap", universeForDump(t)))
	_, err := os.Stat(filepath.Join(dir, "snap.cudf"))
	assert.NoError(t, err)
}

func TestGraphvizSafeNameReplacesUnsafeCharacters(t *testing.T) {
	assert.Equal(t, "my_pkg_name", graphvizSafeName("my-pkg.name"))
}
