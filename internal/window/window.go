// Package window slices fixed-size cost-to-go windows out of distance-field
// stacks. A window of radius r is a (2r+1) x (2r+1) excerpt centred on an
// agent; cells that are blocked, unreachable or off the grid read -1.
package window

import (
	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/field"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/23skdu/costfield/internal/metrics"
)

// Sentinel is the value of a blocked, unreachable or off-grid window cell.
const Sentinel float32 = -1

// Window is a square, row-major cost-to-go excerpt.
type Window struct {
	Radius int
	Values []float32
}

// New returns a window of the given radius filled with Sentinel.
func New(radius int) Window {
	side := 2*radius + 1
	w := Window{Radius: radius, Values: make([]float32, side*side)}
	for i := range w.Values {
		w.Values[i] = Sentinel
	}
	return w
}

// Side returns 2*Radius+1.
func (w Window) Side() int {
	return 2*w.Radius + 1
}

// At returns the value at window row, col.
func (w Window) At(row, col int) float32 {
	return w.Values[row*w.Side()+col]
}

// Set stores v at window row, col.
func (w Window) Set(row, col int, v float32) {
	w.Values[row*w.Side()+col] = v
}

// Center returns the value at the agent cell.
func (w Window) Center() float32 {
	return w.At(w.Radius, w.Radius)
}

// Rows returns the window as nested rows.
func (w Window) Rows() [][]float32 {
	side := w.Side()
	rows := make([][]float32, side)
	for r := range rows {
		rows[r] = w.Values[r*side : (r+1)*side]
	}
	return rows
}

// Extractor launches window extraction on a compute device. Launching on the
// same device as the field engine keeps extraction ordered after the fields it
// reads.
type Extractor struct {
	dev compute.Device
}

// NewExtractor creates an extractor bound to dev.
func NewExtractor(dev compute.Device) *Extractor {
	return &Extractor{dev: dev}
}

// Extract pads every field in stack by radius and, for slot b, copies the
// padded rows [ay, ay+2r+1) and columns [ax, ax+2r+1), which places agent b at
// the window centre. The returned windows are filled once the device has been
// synchronized. Agents beyond the stack's batch size get all-Sentinel windows.
func (e *Extractor) Extract(stack *field.Stack, agents []grid.Cell, radius int) []Window {
	if radius < 0 {
		radius = 0
	}
	out := make([]Window, len(agents))
	for i := range out {
		out[i] = New(radius)
	}
	if len(agents) == 0 {
		return out
	}
	owned := make([]grid.Cell, len(agents))
	copy(owned, agents)

	e.dev.Launch(func() error {
		padded := stack.Pad(radius)
		n := len(owned)
		if n > stack.Batch {
			n = stack.Batch
		}
		err := compute.ParallelFor(e.dev, n, func(b int) error {
			slice(padded, b, owned[b], out[b])
			return nil
		})
		metrics.WindowsExtractedTotal.Add(float64(n))
		return err
	})
	return out
}

func slice(p *field.Padded, b int, agent grid.Cell, w Window) {
	side := w.Side()
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			// p.At reads Unreached outside the padded field
			w.Set(r, c, float32(p.At(b, agent.X+c, agent.Y+r)))
		}
	}
}
