package field

import (
	"github.com/23skdu/costfield/internal/bitset"
	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/23skdu/costfield/internal/metrics"
	"github.com/23skdu/costfield/internal/pool"
	"github.com/rs/zerolog"
)

// Engine computes batches of 4-connected distance fields with a
// level-synchronous multi-source BFS. Each batch slot keeps a frontier,
// visited and next mask; one level advances every live slot by one ring using
// word-level shift-and-mask operations, fanned out over the device lanes.
type Engine struct {
	dev    compute.Device
	logger zerolog.Logger
}

// NewEngine creates an engine that launches its work on dev.
func NewEngine(dev compute.Device, logger zerolog.Logger) *Engine {
	return &Engine{dev: dev, logger: logger}
}

// Device returns the device the engine launches on.
func (e *Engine) Device() compute.Device {
	return e.dev
}

// Compute launches the distance-field computation for every target and
// returns the stack it will fill. The stack's contents are valid only after
// the device has been synchronized.
//
// maxSteps bounds the number of BFS levels; maxSteps <= 0 means
// Width*Height, which never truncates a field. A target that is off-grid
// leaves its slot all Unreached; a blocked target propagates from itself.
// Neither affects other slots.
func (e *Engine) Compute(g *grid.Grid, targets []grid.Cell, maxSteps int) *Stack {
	w, h := g.Width(), g.Height()
	if maxSteps <= 0 {
		maxSteps = w * h
	}
	stack := newStack(len(targets), w, h)
	if len(targets) == 0 {
		return stack
	}

	// the kernel may run after Compute returns, so it must not see later
	// changes the caller makes to targets
	owned := make([]grid.Cell, len(targets))
	copy(owned, targets)
	e.dev.Launch(func() error {
		return e.run(g, owned, maxSteps, stack)
	})
	return stack
}

func (e *Engine) run(g *grid.Grid, targets []grid.Cell, maxSteps int, stack *Stack) error {
	w, h := g.Width(), g.Height()
	batch := len(targets)
	layout := bitset.NewLayout(w, h)

	allowed := layout.Valid()
	blocked := layout.New()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if g.Blocked(x, y) {
				layout.Set(blocked, x, y)
			}
		}
	}
	bitset.AndNot(allowed, blocked)

	words := layout.Words()
	scratch := pool.GetWords(3 * batch * words)
	defer pool.PutWords(scratch)
	frontier := make([]bitset.Mask, batch)
	next := make([]bitset.Mask, batch)
	visited := make([]bitset.Mask, batch)
	live := make([]bool, batch)

	for i := range stack.Data {
		stack.Data[i] = Unreached
	}

	for b, t := range targets {
		off := 3 * b * words
		frontier[b] = scratch[off : off+words]
		next[b] = scratch[off+words : off+2*words]
		visited[b] = scratch[off+2*words : off+3*words]

		if !g.InBounds(t.X, t.Y) {
			continue
		}
		layout.Set(frontier[b], t.X, t.Y)
		layout.Set(visited[b], t.X, t.Y)
		stack.Field(b)[g.Index(t.X, t.Y)] = 0
		live[b] = true
	}

	levels := 0
	for level := 1; level <= maxSteps && anyLive(live); level++ {
		dist := int32(level)
		err := compute.ParallelFor(e.dev, batch, func(b int) error {
			if !live[b] {
				return nil
			}
			if !layout.Advance(next[b], frontier[b], visited[b], allowed) {
				live[b] = false
				return nil
			}
			out := stack.Field(b)
			layout.ForEach(next[b], func(idx int) {
				out[idx] = dist
			})
			frontier[b], next[b] = next[b], frontier[b]
			return nil
		})
		if err != nil {
			return err
		}
		// A slot that advanced is still live; the pass where all slots die
		// expands nothing and is not counted.
		if anyLive(live) {
			levels = level
		}
	}

	stack.Levels = levels
	metrics.FieldSlotsTotal.Add(float64(batch))
	metrics.FieldLevels.Observe(float64(stack.Levels))
	e.logger.Debug().
		Int("batch", batch).
		Int("width", w).
		Int("height", h).
		Int("levels", stack.Levels).
		Str("device", e.dev.Name()).
		Msg("distance fields computed")
	return nil
}

func anyLive(live []bool) bool {
	for _, l := range live {
		if l {
			return true
		}
	}
	return false
}
