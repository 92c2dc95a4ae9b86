package selection_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/selection"
	"github.com/lixenwraith/envres/workspace"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("A=1\n"), 0o644))
	return p
}

func TestResolvePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env")
	writeFile(t, dir, ".env.local")

	s := selection.New()

	t.Run("Matches Existing Files Sorted", func(t *testing.T) {
		got := s.ResolvePatterns(dir, []string{".env*"})
		require.Len(t, got, 2)
		assert.Contains(t, got[0], ".env")
	})

	t.Run("No Match Is Not An Error", func(t *testing.T) {
		got := s.ResolvePatterns(dir, []string{"*.missing"})
		assert.Empty(t, got)
	})
}

func TestAutoDiscoverFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env")

	pkg := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(pkg, 0o755))
	writeFile(t, pkg, ".env.local")

	s := selection.New()

	t.Run("Single Package Checks Only Package Root", func(t *testing.T) {
		got := s.AutoDiscoverFiles(root, root, nil)
		require.Len(t, got, 1)
		assert.Contains(t, got[0], ".env")
	})

	t.Run("Monorepo Checks Both Roots", func(t *testing.T) {
		packages := []workspace.PackageInfo{{Root: pkg}, {Root: root}}
		got := s.AutoDiscoverFiles(root, pkg, packages)
		require.Len(t, got, 2)
	})
}

func TestComputeActiveFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env")

	s := selection.New()
	target := filepath.Join(root, "main.go")

	t.Run("Falls Back To Auto Discovery When No Patterns", func(t *testing.T) {
		got := s.ComputeActiveFiles(target, nil, nil, root, root, nil)
		require.Len(t, got, 1)
	})

	t.Run("Directory Scope Adds To Global Result", func(t *testing.T) {
		scopes := []selection.Scope{{Dir: root, Patterns: []string{".env"}}}
		got := s.ComputeActiveFiles(target, nil, scopes, root, root, nil)
		assert.GreaterOrEqual(t, len(got), 1)
	})

	t.Run("Deepest Matching Scope Wins", func(t *testing.T) {
		sub := filepath.Join(root, "sub")
		require.NoError(t, os.Mkdir(sub, 0o755))
		writeFile(t, sub, ".env")
		scopes := []selection.Scope{
			{Dir: root, Patterns: []string{".env"}},
			{Dir: sub, Patterns: []string{".env"}},
		}
		got := s.ComputeActiveFiles(filepath.Join(sub, "main.go"), nil, scopes, root, root, nil)
		found := false
		for _, f := range got {
			if filepath.Dir(f) == sub {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("Sibling Directory With Shared Prefix Does Not Match", func(t *testing.T) {
		a := filepath.Join(root, "pkg-a")
		abc := filepath.Join(root, "pkg-abc")
		require.NoError(t, os.Mkdir(a, 0o755))
		require.NoError(t, os.Mkdir(abc, 0o755))
		writeFile(t, a, ".env.a")
		writeFile(t, abc, ".env.abc")

		scopes := []selection.Scope{{Dir: a, Patterns: []string{".env.a"}}}
		got := s.ComputeActiveFiles(filepath.Join(abc, "main.go"), nil, scopes, root, abc, nil)
		for _, f := range got {
			assert.NotEqual(t, a, filepath.Dir(f), "scope rooted at pkg-a must not apply to sibling pkg-abc")
		}
	})
}
