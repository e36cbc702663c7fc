// Package planner is the sequential single-agent reference planner used as
// the CPU baseline: point-to-point search (BFS, Dijkstra, A*, weighted A*) and
// a reverse-Dijkstra cost-to-go window.
//
// Connectivity is 4 or 8. With 8-connectivity a diagonal step costs
// DiagonalCost and is allowed only when both orthogonal cells it passes
// between are free (no corner cutting).
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/23skdu/costfield/internal/grid"
)

// DiagonalCost is the cost of one diagonal step.
const DiagonalCost = 1.41421356

// Algorithm selects the search strategy of FindPath.
type Algorithm int

const (
	BFS Algorithm = iota
	Dijkstra
	AStar
	WAStar
)

func (a Algorithm) String() string {
	switch a {
	case BFS:
		return "bfs"
	case Dijkstra:
		return "dijkstra"
	case AStar:
		return "astar"
	case WAStar:
		return "wastar"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm parses an algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range []Algorithm{BFS, Dijkstra, AStar, WAStar} {
		if strings.EqualFold(s, a.String()) {
			return a, nil
		}
	}
	return BFS, fmt.Errorf("planner: unknown algorithm %q", s)
}

// Heuristic selects the distance estimate used by A* and weighted A*.
type Heuristic int

const (
	Manhattan Heuristic = iota
	Euclidean
	Octile
	Zero
)

func (h Heuristic) String() string {
	switch h {
	case Manhattan:
		return "manhattan"
	case Euclidean:
		return "euclidean"
	case Octile:
		return "octile"
	case Zero:
		return "zero"
	}
	return fmt.Sprintf("Heuristic(%d)", int(h))
}

// Options configures FindPath.
type Options struct {
	Algorithm    Algorithm
	Heuristic    Heuristic
	Weight       float64
	Connectivity int
}

// DefaultOptions returns A* with the Manhattan heuristic, weight 1 and
// 4-connectivity.
func DefaultOptions() Options {
	return Options{Algorithm: AStar, Heuristic: Manhattan, Weight: 1, Connectivity: 4}
}

// SearchResult is the outcome of one FindPath call. Path runs from start to
// goal inclusive and is empty when Found is false.
type SearchResult struct {
	Path          []grid.Cell
	Found         bool
	ExpandedNodes int
	PathLength    float64
	ExecutionTime time.Duration
}
