package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/costfield/internal/errors"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/23skdu/costfield/internal/window"
)

// WindowSchema describes one row per window; values holds the (2r+1)^2
// window cells row-major.
func WindowSchema(radius int) *arrow.Schema {
	side := 2*radius + 1
	md := arrow.NewMetadata([]string{"radius"}, []string{fmt.Sprint(radius)})
	return arrow.NewSchema([]arrow.Field{
		{Name: "map", Type: arrow.BinaryTypes.String},
		{Name: "agent_x", Type: arrow.PrimitiveTypes.Int32},
		{Name: "agent_y", Type: arrow.PrimitiveTypes.Int32},
		{Name: "goal_x", Type: arrow.PrimitiveTypes.Int32},
		{Name: "goal_y", Type: arrow.PrimitiveTypes.Int32},
		{Name: "values", Type: arrow.FixedSizeListOf(int32(side*side), arrow.PrimitiveTypes.Float32)},
	}, &md)
}

// NewWindowRecord builds a record of windows for tasks. tasks and windows must
// have the same length and every window must have the given radius.
func NewWindowRecord(mem memory.Allocator, radius int, mapName string, tasks []grid.Task, windows []window.Window) (arrow.Record, error) {
	if len(tasks) != len(windows) {
		return nil, errors.NewValidationError("window_record", "task and window counts differ").
			WithContext("tasks", len(tasks)).
			WithContext("windows", len(windows))
	}

	b := array.NewRecordBuilder(mem, WindowSchema(radius))
	defer b.Release()

	mapB := b.Field(0).(*array.StringBuilder)
	axB := b.Field(1).(*array.Int32Builder)
	ayB := b.Field(2).(*array.Int32Builder)
	gxB := b.Field(3).(*array.Int32Builder)
	gyB := b.Field(4).(*array.Int32Builder)
	valuesB := b.Field(5).(*array.FixedSizeListBuilder)
	cellsB := valuesB.ValueBuilder().(*array.Float32Builder)

	for i, t := range tasks {
		if windows[i].Radius != radius {
			return nil, errors.NewValidationError("window_record", "window radius mismatch").
				WithContext("row", i).
				WithContext("radius", windows[i].Radius)
		}
		mapB.Append(mapName)
		axB.Append(int32(t.Agent.X))
		ayB.Append(int32(t.Agent.Y))
		gxB.Append(int32(t.Goal.X))
		gyB.Append(int32(t.Goal.Y))
		valuesB.Append(true)
		cellsB.AppendValues(windows[i].Values, nil)
	}
	return b.NewRecord(), nil
}

// WindowWriter streams window records in Arrow IPC stream format. All records
// share one radius.
type WindowWriter struct {
	mem    memory.Allocator
	radius int
	w      *ipc.Writer
	rows   int64
}

// NewWindowWriter starts an IPC stream on w.
func NewWindowWriter(w io.Writer, radius int, mem memory.Allocator) *WindowWriter {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &WindowWriter{
		mem:    mem,
		radius: radius,
		w:      ipc.NewWriter(w, ipc.WithSchema(WindowSchema(radius)), ipc.WithAllocator(mem)),
	}
}

// Radius returns the radius every written window must have.
func (ww *WindowWriter) Radius() int {
	return ww.radius
}

// Rows returns the number of windows written so far.
func (ww *WindowWriter) Rows() int64 {
	return ww.rows
}

// WriteWindows appends one record holding the windows of tasks.
func (ww *WindowWriter) WriteWindows(mapName string, tasks []grid.Task, windows []window.Window) error {
	if len(tasks) == 0 {
		return nil
	}
	rec, err := NewWindowRecord(ww.mem, ww.radius, mapName, tasks, windows)
	if err != nil {
		return err
	}
	defer rec.Release()

	if err := ww.w.Write(rec); err != nil {
		return errors.WrapStorageError(err, "write_windows", "ipc write failed").WithContext("map", mapName)
	}
	ww.rows += rec.NumRows()
	return nil
}

// Close ends the stream. It does not close the underlying writer.
func (ww *WindowWriter) Close() error {
	if err := ww.w.Close(); err != nil {
		return errors.WrapStorageError(err, "write_windows", "ipc close failed")
	}
	return nil
}

// WindowRow is a decoded window record row.
type WindowRow struct {
	Map    string
	Task   grid.Task
	Window window.Window
}

// ReadWindows decodes an IPC stream written by WindowWriter.
func ReadWindows(r io.Reader, mem memory.Allocator) ([]WindowRow, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	rd, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.WrapStorageError(err, "read_windows", "open stream failed")
	}
	defer rd.Release()

	radius := 0
	if v, ok := rd.Schema().Metadata().GetValue("radius"); ok {
		if _, err := fmt.Sscan(v, &radius); err != nil {
			return nil, errors.WrapStorageError(err, "read_windows", "bad radius metadata")
		}
	}

	var out []WindowRow
	for rd.Next() {
		rec := rd.Record()
		maps := rec.Column(0).(*array.String)
		ax := rec.Column(1).(*array.Int32)
		ay := rec.Column(2).(*array.Int32)
		gx := rec.Column(3).(*array.Int32)
		gy := rec.Column(4).(*array.Int32)
		list := rec.Column(5).(*array.FixedSizeList)
		cells := list.ListValues().(*array.Float32).Float32Values()

		side := 2*radius + 1
		n := side * side
		for i := 0; i < int(rec.NumRows()); i++ {
			w := window.Window{Radius: radius, Values: make([]float32, n)}
			start := (list.Offset() + i) * n
			copy(w.Values, cells[start:start+n])
			out = append(out, WindowRow{
				Map: maps.Value(i),
				Task: grid.Task{
					Agent: grid.Cell{X: int(ax.Value(i)), Y: int(ay.Value(i))},
					Goal:  grid.Cell{X: int(gx.Value(i)), Y: int(gy.Value(i))},
				},
				Window: w,
			})
		}
	}
	if err := rd.Err(); err != nil {
		return nil, errors.WrapStorageError(err, "read_windows", "decode failed")
	}
	return out, nil
}
