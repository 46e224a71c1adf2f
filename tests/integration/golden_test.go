package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resolvent/internal/app"
	"resolvent/internal/core"
	"resolvent/internal/policies"
	"resolvent/internal/types"
	"resolvent/tests/testutil"
)

func newIntegrationService() app.Service {
	return app.NewService(core.NewGopherSatAdapter())
}

// TestGoldenResolveDumpsDebugOutput runs a full resolve with a debug
// directory set and compares the .cudf/.dot dumps it produces against
// committed golden files. If the golden files do not exist yet, they are
// written so they can be committed.
//
// To update the golden files after an intentional change, delete
// testdata/golden/ and re-run the test.
func TestGoldenResolveDumpsDebugOutput(t *testing.T) {
	root := testutil.RepoRoot(t)
	goldenDir := filepath.Join(root, "tests", "integration", "testdata", "golden")

	universe := testutil.WriteYAML(t, "universe.yaml", `
packages:
  - name: app
    version: "1.0"
    origin: generic
    installed: false
    depends:
      - "lib>=1.0"
    conflicts:
      - "legacy"
  - name: lib
    version: "1.0"
    origin: generic
    installed: false
  - name: lib
    version: "2.0"
    origin: generic
    installed: false
  - name: legacy
    version: "1.0"
    origin: generic
    installed: false
`)
	request := testutil.WriteYAML(t, "request.yaml", `
install:
  - "app"
`)

	debugDir := t.TempDir()
	result, err := newIntegrationService().Resolve(context.Background(), app.ResolveRequest{
		UniversePath: universe,
		RequestPath:  request,
		DebugDir:     debugDir,
	})
	require.NoError(t, err)
	require.False(t, result.Explained)

	goldenFiles := map[string]string{
		"before.cudf": filepath.Join(debugDir, "before.cudf"),
		"before.dot":  filepath.Join(debugDir, "before.dot"),
	}

	for name, actualPath := range goldenFiles {
		t.Run(name, func(t *testing.T) {
			actual, err := os.ReadFile(actualPath)
			require.NoError(t, err)

			goldenPath := filepath.Join(goldenDir, name)
			if _, statErr := os.Stat(goldenPath); os.IsNotExist(statErr) {
				require.NoError(t, os.MkdirAll(goldenDir, 0o755))
				require.NoError(t, os.WriteFile(goldenPath, actual, 0o644))
				t.Logf("golden file written: %s (commit it)", goldenPath)
				return
			}

			expected, err := os.ReadFile(goldenPath)
			require.NoError(t, err)
			assert.Equal(t, string(expected), string(actual),
				"golden mismatch for %s -- delete testdata/golden/ and re-run to regenerate", name)
		})
	}
}

// TestGoldenResolveStructure exercises a larger universe end to end and
// checks a structural property rather than exact golden bytes: a
// request naming an atom the override policy blocks is explained
// instead of resolved.
func TestGoldenResolveStructure(t *testing.T) {
	universe := testutil.WriteYAML(t, "universe.yaml", `
packages:
  - name: web
    version: "1.0"
    origin: generic
    installed: true
    depends:
      - "runtime>=1.0"
  - name: runtime
    version: "1.0"
    origin: generic
    installed: true
  - name: runtime
    version: "2.0"
    origin: generic
    installed: false
  - name: cache
    version: "1.0"
    origin: generic
    installed: false
  - name: beta-feature
    version: "1.0"
    origin: generic
    installed: false
`)
	request := testutil.WriteYAML(t, "request.yaml", `
install:
  - "cache"
  - "beta-feature"
upgrade:
  - "runtime"
`)

	overrides := []policies.OverrideDirective{
		{Pattern: "beta-*", Action: types.OverrideBlock},
	}

	result, err := newIntegrationService().Resolve(context.Background(), app.ResolveRequest{
		UniversePath: universe,
		RequestPath:  request,
		Overrides:    overrides,
	})
	require.NoError(t, err)

	// beta-feature is blocked by the override policy, so the whole
	// request is explained rather than resolved.
	assert.True(t, result.Explained)
	assert.NotEmpty(t, result.Lines)
}

// TestGoldenResolveStructureWithoutBlockedAtom reruns the same universe
// without the blocking override to confirm the rest of the request
// resolves as expected once nothing blocks it.
func TestGoldenResolveStructureWithoutBlockedAtom(t *testing.T) {
	universe := testutil.WriteYAML(t, "universe.yaml", `
packages:
  - name: web
    version: "1.0"
    origin: generic
    installed: true
    depends:
      - "runtime>=1.0"
  - name: runtime
    version: "1.0"
    origin: generic
    installed: true
  - name: runtime
    version: "2.0"
    origin: generic
    installed: false
  - name: cache
    version: "1.0"
    origin: generic
    installed: false
`)
	request := testutil.WriteYAML(t, "request.yaml", `
install:
  - "cache"
upgrade:
  - "runtime"
`)

	result, err := newIntegrationService().Resolve(context.Background(), app.ResolveRequest{
		UniversePath: universe,
		RequestPath:  request,
	})
	require.NoError(t, err)
	require.False(t, result.Explained)
	assert.Equal(t, 1, result.Install)
	assert.Equal(t, 1, result.Upgrade)
}
