package field

import (
	"math/rand"
	"runtime"
	"testing"

	"github.com/23skdu/costfield/internal/compute"
	"github.com/23skdu/costfield/internal/grid"
	"github.com/rs/zerolog"
)

func benchmarkCompute(b *testing.B, dev compute.Device, batch int) {
	rng := rand.New(rand.NewSource(42))
	g := randomGrid(b, rng, 256, 256, 0.2)
	targets := make([]grid.Cell, batch)
	for i := range targets {
		targets[i] = randomFreeCell(rng, g)
	}
	e := NewEngine(dev, zerolog.Nop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Compute(g, targets, 0)
		if err := dev.Synchronize(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompute_Host_B32(b *testing.B) {
	benchmarkCompute(b, compute.NewHost(), 32)
}

func BenchmarkCompute_Stream_B32(b *testing.B) {
	s := compute.NewStream(runtime.GOMAXPROCS(0))
	defer s.Close()
	benchmarkCompute(b, s, 32)
}

func BenchmarkSingleSource_x32(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	g := randomGrid(b, rng, 256, 256, 0.2)
	targets := make([]grid.Cell, 32)
	for i := range targets {
		targets[i] = randomFreeCell(rng, g)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, t := range targets {
			_ = SingleSource(g, t)
		}
	}
}
