package ir

import (
	"fmt"

	"github.com/kbukum/flowc/errors"
)

// Levels groups node ids by dependency depth using Kahn's algorithm. Level 0
// holds the sources; every node appears one level after its deepest parent.
// Ids keep insertion order within a level. Dangling parents and cycles are
// reported as MALFORMED_GRAPH.
//
// Levels is a diagnostic; the compiler does not call it.
func Levels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string)

	for _, id := range g.order {
		inDegree[id] = 0
	}
	for _, e := range g.edges {
		if !g.Has(e.Parent) {
			return nil, errors.DanglingParent(e.Child, e.Parent)
		}
		inDegree[e.Child]++
		dependents[e.Parent] = append(dependents[e.Parent], e.Child)
	}

	var queue []string
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(g.order) {
		return nil, errors.MalformedGraph(fmt.Sprintf("cycle detected, processed %d of %d nodes", visited, len(g.order)))
	}
	return levels, nil
}
