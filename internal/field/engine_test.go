package field

import (
	"math/rand"
	"testing"

	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomGrid builds a w x h grid with roughly density of its cells blocked.
func randomGrid(t testing.TB, rng *rand.Rand, w, h int, density float64) *grid.Grid {
	t.Helper()
	cells := make([]bool, w*h)
	for i := range cells {
		cells[i] = rng.Float64() < density
	}
	g, err := grid.New(w, h, cells)
	require.NoError(t, err)
	return g
}

func randomFreeCell(rng *rand.Rand, g *grid.Grid) grid.Cell {
	for {
		x, y := rng.Intn(g.Width()), rng.Intn(g.Height())
		if g.Free(x, y) {
			return grid.Cell{X: x, Y: y}
		}
	}
}

func computeSync(t testing.TB, e *Engine, g *grid.Grid, targets []grid.Cell, maxSteps int) *Stack {
	t.Helper()
	s := e.Compute(g, targets, maxSteps)
	require.NoError(t, e.Device().Synchronize())
	return s
}

func engines(t *testing.T) map[string]*Engine {
	t.Helper()
	stream := compute.NewStream(4)
	t.Cleanup(func() { _ = stream.Close() })
	return map[string]*Engine{
		compute.KindHost:   NewEngine(compute.NewHost(), zerolog.Nop()),
		compute.KindStream: NewEngine(stream, zerolog.Nop()),
	}
}

func TestCompute_OpenGridManhattan(t *testing.T) {
	g, err := grid.FromRows(
		".....",
		".....",
		".....",
		".....",
		".....",
	)
	require.NoError(t, err)

	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			s := computeSync(t, e, g, []grid.Cell{{X: 4, Y: 4}}, 0)
			assert.Equal(t, int32(8), s.At(0, 0, 0))
			assert.Equal(t, int32(0), s.At(0, 4, 4))
			for y := 0; y < 5; y++ {
				for x := 0; x < 5; x++ {
					assert.Equal(t, int32((4-x)+(4-y)), s.At(0, x, y))
				}
			}
		})
	}
}

func TestCompute_WallWithGapAddsDetour(t *testing.T) {
	open, err := grid.FromRows(
		".....",
		".....",
		".....",
		".....",
		".....",
	)
	require.NoError(t, err)
	// Row 2 blocked except for the gap at x=4.
	walled, err := grid.FromRows(
		".....",
		".....",
		"####.",
		".....",
		".....",
	)
	require.NoError(t, err)

	e := NewEngine(compute.NewHost(), zerolog.Nop())
	target := []grid.Cell{{X: 0, Y: 4}}
	before := computeSync(t, e, open, target, 0)
	after := computeSync(t, e, walled, target, 0)

	// From (0,0) the route has to go 4 cells right to the gap and 4 back.
	assert.Equal(t, int32(4), before.At(0, 0, 0))
	assert.Equal(t, int32(4+2*4), after.At(0, 0, 0))
	for x := 0; x < 4; x++ {
		assert.Equal(t, Unreached, after.At(0, x, 2))
	}
	assert.Equal(t, int32(6), after.At(0, 4, 2))
}

func TestCompute_MatchesSingleSourceBFS(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			for trial := 0; trial < 20; trial++ {
				w, h := 1+rng.Intn(90), 1+rng.Intn(40)
				g := randomGrid(t, rng, w, h, 0.3)
				target := grid.Cell{X: rng.Intn(w), Y: rng.Intn(h)}

				s := computeSync(t, e, g, []grid.Cell{target}, 0)
				want := SingleSource(g, target)
				require.Equal(t, want, s.Field(0), "trial %d: %dx%d target %v", trial, w, h, target)
			}
		})
	}
}

func TestCompute_BatchIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := randomGrid(t, rng, 70, 33, 0.25)
	t1 := randomFreeCell(rng, g)
	t2 := randomFreeCell(rng, g)

	for name, e := range engines(t) {
		t.Run(name, func(t *testing.T) {
			both := computeSync(t, e, g, []grid.Cell{t1, t2}, 0)
			first := computeSync(t, e, g, []grid.Cell{t1}, 0)
			second := computeSync(t, e, g, []grid.Cell{t2}, 0)

			assert.Equal(t, first.Field(0), both.Field(0))
			assert.Equal(t, second.Field(0), both.Field(1))
		})
	}
}

func TestCompute_DevicesAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := randomGrid(t, rng, 129, 17, 0.2)
	targets := make([]grid.Cell, 37)
	for i := range targets {
		targets[i] = randomFreeCell(rng, g)
	}

	es := engines(t)
	host := computeSync(t, es[compute.KindHost], g, targets, 0)
	stream := computeSync(t, es[compute.KindStream], g, targets, 0)
	assert.Equal(t, host.Data, stream.Data)
	assert.Equal(t, host.Levels, stream.Levels)
}

func TestCompute_UnreachableRegion(t *testing.T) {
	g, err := grid.FromRows(
		"..#..",
		"..#..",
		"..#..",
	)
	require.NoError(t, err)

	e := NewEngine(compute.NewHost(), zerolog.Nop())
	s := computeSync(t, e, g, []grid.Cell{{X: 0, Y: 0}}, 0)
	for y := 0; y < 3; y++ {
		for x := 2; x < 5; x++ {
			assert.Equal(t, Unreached, s.At(0, x, y), "(%d,%d)", x, y)
		}
	}
	assert.Equal(t, int32(3), s.At(0, 1, 2))
}

func TestCompute_OffGridTargetConfinedToSlot(t *testing.T) {
	g, err := grid.FromRows("...", "...")
	require.NoError(t, err)

	e := NewEngine(compute.NewHost(), zerolog.Nop())
	s := computeSync(t, e, g, []grid.Cell{{X: 9, Y: 9}, {X: 0, Y: 0}}, 0)
	for _, v := range s.Field(0) {
		assert.Equal(t, Unreached, v)
	}
	assert.Equal(t, SingleSource(g, grid.Cell{X: 0, Y: 0}), s.Field(1))
}

func TestCompute_MaxStepsBoundsLevels(t *testing.T) {
	g, err := grid.FromRows("......")
	require.NoError(t, err)

	e := NewEngine(compute.NewHost(), zerolog.Nop())
	s := computeSync(t, e, g, []grid.Cell{{X: 0, Y: 0}}, 2)
	assert.Equal(t, []int32{0, 1, 2, Unreached, Unreached, Unreached}, s.Field(0))
	assert.Equal(t, 2, s.Levels)
}

func TestCompute_LevelsCountsExpandedRings(t *testing.T) {
	g, err := grid.FromRows(
		"#.#",
		"...",
		"#.#",
	)
	require.NoError(t, err)

	e := NewEngine(compute.NewHost(), zerolog.Nop())

	isolated, err := grid.FromRows("#.#")
	require.NoError(t, err)
	s := computeSync(t, e, isolated, []grid.Cell{{X: 1, Y: 0}}, 0)
	assert.Equal(t, 0, s.Levels)

	s = computeSync(t, e, g, []grid.Cell{{X: 1, Y: 1}}, 0)
	assert.Equal(t, 1, s.Levels)

	s = computeSync(t, e, g, []grid.Cell{{X: 1, Y: 1}, {X: 1, Y: 0}}, 0)
	assert.Equal(t, 2, s.Levels)
}

func TestCompute_EmptyTargets(t *testing.T) {
	g, err := grid.FromRows("..")
	require.NoError(t, err)

	e := NewEngine(compute.NewHost(), zerolog.Nop())
	s := computeSync(t, e, g, nil, 0)
	assert.Zero(t, s.Batch)
	assert.Empty(t, s.Data)
}

func TestCompute_TargetsCopiedBeforeLaunch(t *testing.T) {
	g, err := grid.FromRows("....", "....")
	require.NoError(t, err)

	stream := compute.NewStream(2)
	defer stream.Close()
	e := NewEngine(stream, zerolog.Nop())

	targets := []grid.Cell{{X: 0, Y: 0}}
	s := e.Compute(g, targets, 0)
	targets[0] = grid.Cell{X: 3, Y: 1}
	require.NoError(t, stream.Synchronize())
	assert.Equal(t, int32(0), s.At(0, 0, 0))
}

func TestStack_Pad(t *testing.T) {
	s := &Stack{Batch: 1, Width: 2, Height: 1, Data: []int32{0, 1}}
	p := s.Pad(1)
	require.Equal(t, 4, p.Width)
	require.Equal(t, 3, p.Height)
	assert.Equal(t, []int32{
		-1, -1, -1, -1,
		-1, 0, 1, -1,
		-1, -1, -1, -1,
	}, p.Field(0))
	assert.Equal(t, Unreached, p.At(0, -5, 0))
	assert.Equal(t, int32(1), p.At(0, 2, 1))
}
