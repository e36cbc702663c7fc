package window

import (
	"math/rand"
	"testing"

	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/field"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractSync(t *testing.T, dev compute.Device, g *grid.Grid, tasks []grid.Task, radius int) []Window {
	t.Helper()
	targets := make([]grid.Cell, len(tasks))
	agents := make([]grid.Cell, len(tasks))
	for i, task := range tasks {
		targets[i] = task.Goal
		agents[i] = task.Agent
	}
	stack := field.NewEngine(dev, zerolog.Nop()).Compute(g, targets, 0)
	windows := NewExtractor(dev).Extract(stack, agents, radius)
	require.NoError(t, dev.Synchronize())
	return windows
}

func openGrid(t *testing.T, w, h int) *grid.Grid {
	t.Helper()
	g, err := grid.New(w, h, make([]bool, w*h))
	require.NoError(t, err)
	return g
}

func TestWindow_Basics(t *testing.T) {
	w := New(2)
	assert.Equal(t, 5, w.Side())
	assert.Len(t, w.Values, 25)
	assert.Equal(t, Sentinel, w.Center())

	w.Set(2, 2, 7)
	assert.Equal(t, float32(7), w.Center())
	assert.Equal(t, float32(7), w.Rows()[2][2])
}

func TestExtract_CenterMatchesField(t *testing.T) {
	g := openGrid(t, 20, 20)
	dev := compute.NewHost()

	agent := grid.Cell{X: 10, Y: 9}
	goal := grid.Cell{X: 3, Y: 17}
	windows := extractSync(t, dev, g, []grid.Task{{Agent: agent, Goal: goal}}, 3)

	want := field.SingleSource(g, goal)
	require.Len(t, windows, 1)
	assert.Equal(t, float32(want[g.Index(agent.X, agent.Y)]), windows[0].Center())

	// Every window cell maps back to the un-padded field.
	for r := 0; r < 7; r++ {
		for c := 0; c < 7; c++ {
			x, y := agent.X-3+c, agent.Y-3+r
			assert.Equal(t, float32(want[g.Index(x, y)]), windows[0].At(r, c))
		}
	}
}

func TestExtract_CornerPadding(t *testing.T) {
	g := openGrid(t, 6, 6)
	dev := compute.NewHost()

	windows := extractSync(t, dev, g, []grid.Task{{Agent: grid.Cell{}, Goal: grid.Cell{X: 5, Y: 5}}}, 2)
	w := windows[0]
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			assert.Equal(t, Sentinel, w.At(r, c))
		}
	}
	// Whole top band and left band are off-grid.
	for i := 0; i < 5; i++ {
		assert.Equal(t, Sentinel, w.At(0, i))
		assert.Equal(t, Sentinel, w.At(i, 0))
	}
	assert.Equal(t, float32(10), w.Center())
}

func TestExtract_GoalIsZeroAndBlockedIsSentinel(t *testing.T) {
	g, err := grid.FromRows(
		".....",
		".#...",
		".....",
	)
	require.NoError(t, err)

	windows := extractSync(t, compute.NewHost(), g, []grid.Task{{Agent: grid.Cell{X: 1, Y: 1}, Goal: grid.Cell{X: 2, Y: 1}}}, 1)
	w := windows[0]
	assert.Equal(t, Sentinel, w.Center(), "agent stands on a wall")
	assert.Equal(t, float32(0), w.At(1, 2))
	assert.Equal(t, float32(1), w.At(0, 2))
}

func TestExtract_StreamMatchesHost(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	cells := make([]bool, 40*30)
	for i := range cells {
		cells[i] = rng.Float64() < 0.2
	}
	g, err := grid.New(40, 30, cells)
	require.NoError(t, err)

	tasks := make([]grid.Task, 25)
	for i := range tasks {
		tasks[i] = grid.Task{
			Agent: grid.Cell{X: rng.Intn(40), Y: rng.Intn(30)},
			Goal:  grid.Cell{X: rng.Intn(40), Y: rng.Intn(30)},
		}
	}

	stream := compute.NewStream(3)
	defer stream.Close()

	host := extractSync(t, compute.NewHost(), g, tasks, 4)
	async := extractSync(t, stream, g, tasks, 4)
	assert.Equal(t, host, async)
}

func TestExtract_AgentsBeyondBatch(t *testing.T) {
	g := openGrid(t, 4, 4)
	dev := compute.NewHost()
	stack := field.NewEngine(dev, zerolog.Nop()).Compute(g, []grid.Cell{{X: 0, Y: 0}}, 0)
	windows := NewExtractor(dev).Extract(stack, []grid.Cell{{X: 1, Y: 1}, {X: 2, Y: 2}}, 1)
	require.NoError(t, dev.Synchronize())

	require.Len(t, windows, 2)
	assert.Equal(t, float32(2), windows[0].Center())
	for _, v := range windows[1].Values {
		assert.Equal(t, Sentinel, v)
	}
}

func TestExtract_FarOffGridAgentReadsSentinel(t *testing.T) {
	g := openGrid(t, 3, 3)
	windows := extractSync(t, compute.NewHost(), g, []grid.Task{{Agent: grid.Cell{X: 50, Y: -20}, Goal: grid.Cell{X: 1, Y: 1}}}, 1)
	for _, v := range windows[0].Values {
		assert.Equal(t, Sentinel, v)
	}
}

func TestExtract_Empty(t *testing.T) {
	dev := compute.NewHost()
	stack := &field.Stack{}
	assert.Empty(t, NewExtractor(dev).Extract(stack, nil, 3))
	assert.NoError(t, dev.Synchronize())
}
