package resolution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/envres/errs"
	"github.com/lixenwraith/envres/resolution"
)

func TestGraphDetectCycle(t *testing.T) {
	t.Run("No Cycle In Acyclic Chain", func(t *testing.T) {
		g := resolution.NewGraph()
		g.Build(map[string]string{
			"A": "${B}",
			"B": "${C}",
			"C": "leaf",
		})
		assert.NoError(t, g.DetectCycle("A"))
	})

	t.Run("Direct Self Reference Is A Cycle", func(t *testing.T) {
		g := resolution.NewGraph()
		g.Build(map[string]string{"A": "${A}"})
		err := g.DetectCycle("A")
		require.Error(t, err)
		var cyc *errs.CircularDependencyError
		require.ErrorAs(t, err, &cyc)
	})

	t.Run("Indirect Cycle Detected", func(t *testing.T) {
		g := resolution.NewGraph()
		g.Build(map[string]string{
			"A": "${B}",
			"B": "${C}",
			"C": "${A}",
		})
		err := g.DetectCycle("A")
		require.Error(t, err)
	})

	t.Run("DetectAllCycles Finds Cycle Anywhere", func(t *testing.T) {
		g := resolution.NewGraph()
		g.Build(map[string]string{
			"X": "no refs here",
			"A": "${B}",
			"B": "${A}",
		})
		assert.Error(t, g.DetectAllCycles())
	})

	t.Run("Rebuilding Clears Previous Edges", func(t *testing.T) {
		g := resolution.NewGraph()
		g.Build(map[string]string{"A": "${A}"})
		g.Build(map[string]string{"A": "leaf"})
		assert.NoError(t, g.DetectCycle("A"))
	})
}
