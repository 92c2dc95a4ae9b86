// Package resolution implements the dependency graph, two-tier cache,
// and core resolve algorithm that turn a set of source snapshots into
// final, interpolated variable values.
package resolution

import (
	"github.com/lixenwraith/envres/errs"
	"github.com/lixenwraith/envres/interpolate"
)

type edge struct {
	to string
}

// Graph is the dependency adjacency built from ${VAR} references found
// in raw values, before any interpolation happens.
type Graph struct {
	edges map[string][]edge
}

// NewGraph constructs an empty Graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[string][]edge)}
}

// Build (re)constructs the graph from the given raw key/value pairs.
func (g *Graph) Build(values map[string]string) {
	g.edges = make(map[string][]edge, len(values))
	for key, raw := range values {
		refs := interpolate.FindReferences(raw)
		for _, ref := range refs {
			g.edges[key] = append(g.edges[key], edge{to: ref.Key})
		}
	}
}

// scratch buffers for one depth-first search; DetectAllCycles reuses a
// single set across every key it scans.
type scratch struct {
	visited map[string]bool // true = in current path, false = finished
	path    []string
}

func newScratch() *scratch {
	return &scratch{visited: make(map[string]bool)}
}

func (s *scratch) reset() {
	for k := range s.visited {
		delete(s.visited, k)
	}
	s.path = s.path[:0]
}

// DetectCycle runs a depth-first search from start, returning a
// CircularDependencyError with the exact traversed chain if a cycle is
// found. Each call allocates its own scratch buffers; they are not
// reused across calls.
func (g *Graph) DetectCycle(start string) error {
	s := newScratch()
	return g.dfs(start, s)
}

func (g *Graph) dfs(key string, s *scratch) error {
	if state, seen := s.visited[key]; seen {
		if state {
			// key is still on the path: found the cycle.
			chain := append(append([]string(nil), s.path...), key)
			return &errs.CircularDependencyError{Chain: chain}
		}
		return nil // already fully explored, known acyclic from here
	}

	s.visited[key] = true
	s.path = append(s.path, key)

	for _, e := range g.edges[key] {
		if err := g.dfs(e.to, s); err != nil {
			return err
		}
	}

	s.path = s.path[:len(s.path)-1]
	s.visited[key] = false
	return nil
}

// DetectAllCycles scans every key with outgoing edges, reusing one
// scratch buffer across the whole scan.
func (g *Graph) DetectAllCycles() error {
	s := newScratch()
	for key := range g.edges {
		s.reset()
		if err := g.dfsShared(key, s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) dfsShared(key string, s *scratch) error {
	if state, seen := s.visited[key]; seen {
		if state {
			chain := append(append([]string(nil), s.path...), key)
			return &errs.CircularDependencyError{Chain: chain}
		}
		return nil
	}
	s.visited[key] = true
	s.path = append(s.path, key)
	for _, e := range g.edges[key] {
		if err := g.dfsShared(e.to, s); err != nil {
			return err
		}
	}
	s.path = s.path[:len(s.path)-1]
	s.visited[key] = false
	return nil
}
