package bench

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/costfield/internal/chunk"
	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/export"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/23skdu/costfield/internal/planner"
	"github.com/23skdu/costfield/internal/sample"
	"github.com/23skdu/costfield/internal/timing"
	"github.com/23skdu/costfield/internal/window"
)

var mazeRows = []string{
	"..........",
	".####.###.",
	".#......#.",
	".#.####.#.",
	"...#..#...",
	".#.#..#.#.",
	".#......#.",
	".###.####.",
	"..........",
}

func maze(t testing.TB) *grid.Grid {
	t.Helper()
	g, err := grid.FromRows(mazeRows...)
	require.NoError(t, err)
	return g
}

func mazeTasks(g *grid.Grid) []grid.Task {
	var free []grid.Cell
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.Free(x, y) {
				free = append(free, grid.Cell{X: x, Y: y})
			}
		}
	}
	tasks := make([]grid.Task, 0, len(free))
	for i := range free {
		tasks = append(tasks, grid.Task{Agent: free[i], Goal: free[(i*7+3)%len(free)]})
	}
	return tasks
}

func stepClock(step time.Duration) *timing.Harness {
	var now time.Time
	return timing.New(timing.WithClock(func() time.Time {
		now = now.Add(step)
		return now
	}))
}

type recordingSink struct {
	maps    []string
	tasks   []grid.Task
	windows []window.Window
}

func (s *recordingSink) WriteWindows(mapName string, tasks []grid.Task, windows []window.Window) error {
	s.maps = append(s.maps, mapName)
	s.tasks = append(s.tasks, tasks...)
	s.windows = append(s.windows, windows...)
	return nil
}

func TestRunMap_TimesChunksAndPlanner(t *testing.T) {
	g := maze(t)
	cfg := DefaultConfig()
	cfg.Radius = 2
	cfg.TargetTasks = 5
	cfg.ChunkSize = 2
	cfg.Verify = true

	sink := &recordingSink{}
	id := uuid.New()
	r := NewRunner(compute.NewHost(), cfg, zerolog.Nop(),
		WithHarness(stepClock(time.Millisecond)), WithSink(sink), WithRunID(id))

	tasks := mazeTasks(g)
	res, err := r.RunMap(context.Background(), "maze.map", g, tasks)
	require.NoError(t, err)

	assert.Equal(t, id, res.RunID)
	assert.Equal(t, "maze.map", res.Map)
	assert.Equal(t, 10, res.Width)
	assert.Equal(t, 9, res.Height)
	assert.Equal(t, 5, res.Tasks)
	assert.Equal(t, 2, res.ChunkSize)
	assert.Len(t, res.Chunks, 3)
	assert.Equal(t, 3*time.Millisecond, res.Device)
	assert.Equal(t, time.Millisecond, res.Sequential)
	assert.InDelta(t, 1.0/3.0, res.Speedup(), 1e-9)
	assert.Equal(t, compute.KindHost, res.DeviceName)
	assert.Zero(t, res.Mismatches)

	want := sample.Sample(tasks, sample.Uniform, 5)
	assert.Equal(t, want, sink.tasks)
	assert.Equal(t, []string{"maze.map", "maze.map", "maze.map"}, sink.maps)

	p := planner.New(g)
	for i, task := range sink.tasks {
		ref := p.Cost2GoWindow(task.Agent, task.Goal, 2, 4, false)
		assert.Equal(t, ref.Values, sink.windows[i].Values, "window %d", i)
	}
}

func TestRunMap_StreamDeviceMatchesReference(t *testing.T) {
	g := maze(t)
	dev := compute.NewStream(4)
	t.Cleanup(func() { _ = dev.Close() })

	cfg := DefaultConfig()
	cfg.Radius = 3
	cfg.TargetTasks = 0
	cfg.BudgetBytes = int64(chunk.DefaultBytesPerCell * 90 * 8)
	cfg.Verify = true

	res, err := NewRunner(dev, cfg, zerolog.Nop()).RunMap(context.Background(), "maze.map", g, mazeTasks(g))
	require.NoError(t, err)
	assert.Equal(t, 8, res.ChunkSize)
	assert.Equal(t, len(mazeTasks(g)), res.Tasks)
	assert.Zero(t, res.Mismatches)
	assert.Equal(t, compute.KindStream, res.DeviceName)
}

func TestRunMap_NoTasks(t *testing.T) {
	r := NewRunner(compute.NewHost(), DefaultConfig(), zerolog.Nop())
	_, err := r.RunMap(context.Background(), "maze.map", maze(t), nil)
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestRunMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := maze(t)
	r := NewRunner(compute.NewHost(), DefaultConfig(), zerolog.Nop())
	_, err := r.RunMap(ctx, "maze.map", g, mazeTasks(g))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Row(t *testing.T) {
	id := uuid.New()
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	res := Result{
		RunID: id, Map: "m.map", Width: 4, Height: 3, Tasks: 2, ChunkSize: 2,
		Sequential: 2 * time.Second, Device: time.Second, DeviceName: "stream", StartedAt: started,
	}
	assert.Equal(t, export.ResultRow{
		RunID: id.String(), Map: "m.map", Width: 4, Height: 3, Tasks: 2, ChunkSize: 2,
		Radius: 10, FastBreak: true, Device: "stream",
		SequentialSeconds: 2, DeviceSeconds: 1, Speedup: 2, StartedAt: started.UnixMilli(),
	}, res.Row(10, true))

	assert.Zero(t, Result{Sequential: time.Second}.Speedup())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mazeMapFile() string {
	return "type octile\nheight 9\nwidth 10\nmap\n" + strings.Join(mazeRows, "\n") + "\n"
}

func TestRunDataset(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "map", "maze", "maze.map"), mazeMapFile())
	writeFile(t, filepath.Join(root, "scen", "maze", "a.scen"),
		"version 1\n0 maze.map 10 9 0 0 9 8 17\n0 maze.map 10 9 2 2 7 6 9\n")
	writeFile(t, filepath.Join(root, "scen", "maze", "b.scen"),
		"version 1\n0 other.map 10 9 0 0 9 8 17\n")
	writeFile(t, filepath.Join(root, "scen", "maze", "c.scen"), "version 1\n")
	writeFile(t, filepath.Join(root, "scen", "maze", "notes.txt"), "ignored")

	cfg := DefaultConfig()
	cfg.Radius = 2
	cfg.Verify = true
	r := NewRunner(compute.NewHost(), cfg, zerolog.Nop())

	results, err := r.RunDataset(context.Background(), Dataset{
		Root:     root,
		MapTypes: []string{"maze", "absent"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1, "missing map and empty scenario file are skipped")
	assert.Equal(t, "maze.map", results[0].Map)
	assert.Equal(t, 2, results[0].Tasks)
	assert.Zero(t, results[0].Mismatches)

	results, err = r.RunDataset(context.Background(), Dataset{Root: root, MapTypes: []string{"maze"}, Map: "nope.map"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDataset_ScenarioFilesLimit(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.scen", "a.scen", "b.scen"} {
		writeFile(t, filepath.Join(root, "scen", "random", name), "version 1\n")
	}
	d := Dataset{Root: root, FilesLimit: 2}
	files, err := d.ScenarioFiles("random")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "scen", "random", "a.scen"),
		filepath.Join(root, "scen", "random", "b.scen"),
	}, files)

	files, err = d.ScenarioFiles("missing")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriteTable(t *testing.T) {
	results := []Result{
		{Map: "a-very-long-map-name-that-will-be-cut.map", Width: 32, Height: 32, ChunkSize: 2048,
			Sequential: 2 * time.Second, Device: 500 * time.Millisecond},
		{Map: "b.map", Width: 8, Height: 4, ChunkSize: 16, Sequential: time.Second, Device: 500 * time.Millisecond},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, results))
	out := buf.String()

	assert.Contains(t, out, "a-very-long-map-name-that")
	assert.NotContains(t, out, "will-be-cut")
	assert.Contains(t, out, "32x32")
	assert.Contains(t, out, "4.00x")
	assert.Contains(t, out, "Overall speedup:   3.00x")

	seq, dev := Totals(results)
	assert.Equal(t, 3*time.Second, seq)
	assert.Equal(t, time.Second, dev)
}
