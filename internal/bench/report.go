package bench

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Totals sums sequential and device time over results.
func Totals(results []Result) (sequential, device time.Duration) {
	for _, r := range results {
		sequential += r.Sequential
		device += r.Device
	}
	return sequential, device
}

// WriteTable prints one line per result followed by totals and the overall
// speedup.
func WriteTable(w io.Writer, results []Result) error {
	rule := strings.Repeat("-", 95)
	var b strings.Builder
	fmt.Fprintf(&b, "%-25s | %-10s | %-6s | %-12s | %-12s | %-10s\n",
		"Map", "Size", "Chunk", "CPU (s)", "Device (s)", "Speedup")
	fmt.Fprintln(&b, rule)
	for _, r := range results {
		name := r.Map
		if len(name) > 25 {
			name = name[:25]
		}
		fmt.Fprintf(&b, "%-25s | %-10s | %-6d | %-12.4f | %-12.4f | %.2fx\n",
			name, fmt.Sprintf("%dx%d", r.Width, r.Height), r.ChunkSize,
			r.Sequential.Seconds(), r.Device.Seconds(), r.Speedup())
	}
	fmt.Fprintln(&b, rule)

	seq, dev := Totals(results)
	if seq > 0 {
		fmt.Fprintf(&b, "Total CPU time:    %.4f s\n", seq.Seconds())
		fmt.Fprintf(&b, "Total device time: %.4f s\n", dev.Seconds())
		if dev > 0 {
			fmt.Fprintf(&b, "Overall speedup:   %.2fx\n", seq.Seconds()/dev.Seconds())
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
