package field

import "github.com/23skdu/costfield/internal/grid"

// SingleSource computes one distance field with a plain FIFO-queue BFS over
// 4-connected unblocked cells. It is the sequential definition the batched
// engine must match cell for cell.
func SingleSource(g *grid.Grid, target grid.Cell) []int32 {
	dist := make([]int32, g.Cells())
	for i := range dist {
		dist[i] = Unreached
	}
	if !g.InBounds(target.X, target.Y) {
		return dist
	}

	offsets := [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	start := g.Index(target.X, target.Y)
	dist[start] = 0
	queue := []int{start}
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		ux, uy := g.Coordinate(u)
		for _, d := range offsets {
			vx, vy := ux+d[0], uy+d[1]
			if g.Blocked(vx, vy) {
				continue
			}
			v := g.Index(vx, vy)
			if dist[v] == Unreached {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return dist
}
