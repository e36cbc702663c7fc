package planner

import (
	"container/heap"
	"math"
	"time"

	"github.com/23skdu/costfield/internal/grid"
	"github.com/23skdu/costfield/internal/metrics"
	"github.com/23skdu/costfield/internal/window"
)

// epsilon absorbs float accumulation when discarding stale heap entries.
const epsilon = 1e-9

var (
	orthDX = [4]int{1, 0, -1, 0}
	orthDY = [4]int{0, 1, 0, -1}

	diagDX = [4]int{1, -1, -1, 1}
	diagDY = [4]int{1, 1, -1, -1}
	// orthogonal neighbours that must be free for each diagonal
	diagGuardA = [4]int{0, 2, 2, 0}
	diagGuardB = [4]int{1, 1, 3, 3}
)

// Planner runs searches over one grid. It holds no per-search state and is
// safe for concurrent use.
type Planner struct {
	g *grid.Grid
}

// New creates a planner for g.
func New(g *grid.Grid) *Planner {
	return &Planner{g: g}
}

// Grid returns the planner's grid.
func (p *Planner) Grid() *grid.Grid {
	return p.g
}

// neighbors appends the free neighbours of cell id and their step costs,
// orthogonal first (right, down, left, up) then diagonals.
func (p *Planner) neighbors(id, connectivity int, ids []int, costs []float64) ([]int, []float64) {
	ids, costs = ids[:0], costs[:0]
	cx, cy := p.g.Coordinate(id)

	var free [4]bool
	for i := 0; i < 4; i++ {
		nx, ny := cx+orthDX[i], cy+orthDY[i]
		if p.g.Free(nx, ny) {
			ids = append(ids, p.g.Index(nx, ny))
			costs = append(costs, 1)
			free[i] = true
		}
	}
	if connectivity != 8 {
		return ids, costs
	}
	for i := 0; i < 4; i++ {
		nx, ny := cx+diagDX[i], cy+diagDY[i]
		if p.g.Free(nx, ny) && free[diagGuardA[i]] && free[diagGuardB[i]] {
			ids = append(ids, p.g.Index(nx, ny))
			costs = append(costs, DiagonalCost)
		}
	}
	return ids, costs
}

func (p *Planner) heuristic(a, b int, h Heuristic) float64 {
	if h == Zero {
		return 0
	}
	ax, ay := p.g.Coordinate(a)
	bx, by := p.g.Coordinate(b)
	dx := math.Abs(float64(ax - bx))
	dy := math.Abs(float64(ay - by))
	switch h {
	case Manhattan:
		return dx + dy
	case Euclidean:
		return math.Sqrt(dx*dx + dy*dy)
	case Octile:
		return dx + dy + (DiagonalCost-2)*math.Min(dx, dy)
	}
	return 0
}

// FindPath searches from start to goal. Off-grid or blocked endpoints yield
// a not-found result with zero expansions.
func (p *Planner) FindPath(start, goal grid.Cell, opts Options) SearchResult {
	metrics.PlannerSearchesTotal.WithLabelValues(opts.Algorithm.String()).Inc()
	if !p.g.Free(start.X, start.Y) || !p.g.Free(goal.X, goal.Y) {
		return SearchResult{}
	}

	s, t := p.g.Index(start.X, start.Y), p.g.Index(goal.X, goal.Y)
	switch opts.Algorithm {
	case BFS:
		return p.bfs(s, t, opts.Connectivity)
	case Dijkstra:
		return p.best(s, t, Zero, 0, opts.Connectivity)
	default:
		return p.best(s, t, opts.Heuristic, opts.Weight, opts.Connectivity)
	}
}

// bfs counts every dequeued cell as expanded, including the goal, and
// reports the geometric length of the hop-shortest path.
func (p *Planner) bfs(start, goal, connectivity int) SearchResult {
	began := time.Now()
	n := p.g.Cells()
	cameFrom := make([]int, n)
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	visited := make([]bool, n)
	visited[start] = true

	queue := []int{start}
	ids := make([]int, 0, 8)
	costs := make([]float64, 0, 8)
	var res SearchResult

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		res.ExpandedNodes++
		if cur == goal {
			res.Found = true
			break
		}
		ids, costs = p.neighbors(cur, connectivity, ids, costs)
		for _, next := range ids {
			if !visited[next] {
				visited[next] = true
				cameFrom[next] = cur
				queue = append(queue, next)
			}
		}
	}

	if res.Found {
		res.Path = p.reconstruct(cameFrom, goal)
		for i := 1; i < len(res.Path); i++ {
			a, b := res.Path[i-1], res.Path[i]
			if a.X != b.X && a.Y != b.Y {
				res.PathLength += DiagonalCost
			} else {
				res.PathLength++
			}
		}
	}
	res.ExecutionTime = time.Since(began)
	return res
}

// best is the shared best-first search behind Dijkstra, A* and weighted A*:
// priority g + weight*h with lazy deletion of stale entries. The goal pop is
// not counted as an expansion.
func (p *Planner) best(start, goal int, h Heuristic, weight float64, connectivity int) SearchResult {
	began := time.Now()
	n := p.g.Cells()
	cost := make([]float64, n)
	cameFrom := make([]int, n)
	for i := range cost {
		cost[i] = math.Inf(1)
		cameFrom[i] = -1
	}
	cost[start] = 0

	open := &nodeQueue{}
	heap.Push(open, node{id: start, f: weight * p.heuristic(start, goal, h), g: 0})

	ids := make([]int, 0, 8)
	costs := make([]float64, 0, 8)
	var res SearchResult

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if cur.g > cost[cur.id]+epsilon {
			continue
		}
		if cur.id == goal {
			res.Found = true
			break
		}
		res.ExpandedNodes++

		ids, costs = p.neighbors(cur.id, connectivity, ids, costs)
		for i, next := range ids {
			g := cost[cur.id] + costs[i]
			if g < cost[next] {
				cost[next] = g
				cameFrom[next] = cur.id
				heap.Push(open, node{id: next, f: g + weight*p.heuristic(next, goal, h), g: g})
			}
		}
	}

	if res.Found {
		res.Path = p.reconstruct(cameFrom, goal)
		res.PathLength = cost[goal]
	}
	res.ExecutionTime = time.Since(began)
	return res
}

func (p *Planner) reconstruct(cameFrom []int, goal int) []grid.Cell {
	var path []grid.Cell
	for cur := goal; cur != -1; cur = cameFrom[cur] {
		x, y := p.g.Coordinate(cur)
		path = append(path, grid.Cell{X: x, Y: y})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Cost2GoWindow returns the (2*radius+1)^2 window of shortest-path costs to
// goal centred on agent, computed by a reverse Dijkstra from goal. Blocked,
// unreachable and off-grid cells hold window.Sentinel. An off-grid or
// blocked goal yields an all-sentinel window.
//
// With fastBreak the search stops as soon as every free cell of the window
// has been settled.
func (p *Planner) Cost2GoWindow(agent, goal grid.Cell, radius, connectivity int, fastBreak bool) window.Window {
	metrics.PlannerSearchesTotal.WithLabelValues("cost2go").Inc()
	w := window.New(radius)
	if !p.g.Free(goal.X, goal.Y) {
		return w
	}

	minX, minY := agent.X-radius, agent.Y-radius
	maxX, maxY := agent.X+radius, agent.Y+radius
	side := w.Side()

	want := 0
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			if p.g.Free(minX+c, minY+r) {
				want++
			}
		}
	}
	if want == 0 {
		return w
	}

	n := p.g.Cells()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	src := p.g.Index(goal.X, goal.Y)
	dist[src] = 0

	open := &nodeQueue{}
	heap.Push(open, node{id: src})

	ids := make([]int, 0, 8)
	costs := make([]float64, 0, 8)
	found := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if cur.g > dist[cur.id]+epsilon {
			continue
		}

		cx, cy := p.g.Coordinate(cur.id)
		if cx >= minX && cx <= maxX && cy >= minY && cy <= maxY {
			r, c := cy-minY, cx-minX
			if w.At(r, c) == window.Sentinel {
				w.Set(r, c, float32(cur.g))
				found++
			}
		}
		if fastBreak && found >= want {
			break
		}

		ids, costs = p.neighbors(cur.id, connectivity, ids, costs)
		for i, next := range ids {
			d := dist[cur.id] + costs[i]
			if d < dist[next] {
				dist[next] = d
				heap.Push(open, node{id: next, f: d, g: d})
			}
		}
	}
	return w
}

type node struct {
	id int
	f  float64
	g  float64
}

// nodeQueue is a min-heap on f.
type nodeQueue []node

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].f < q[j].f }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(node)) }

func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
