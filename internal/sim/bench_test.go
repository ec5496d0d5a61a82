package sim

import (
	"fmt"
	"log"
	"testing"

	"github.com/jrgoulet/cellular-automata-sim/internal/rule"
)

// Eat all incoming bytes
type null_writer struct{}

func (w null_writer) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func benchmarkWorld(b *testing.B, width, height, generations int, newRule func(int) rule.Rule) {
	start := randomWorld(width, height, 1)
	logger := log.New(null_writer{}, "", 0)
	for ranks := 1; ranks <= 16; ranks *= 2 {
		name := fmt.Sprintf("%dx%dx%d-%d", width, height, generations, ranks)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, err := RunLocal(start, ranks, newRule, Params{Generations: generations, Logger: logger})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func Benchmark_Conway_128_200(b *testing.B) {
	benchmarkWorld(b, 128, 128, 200, life)
}

func Benchmark_ForestFire_256_100(b *testing.B) {
	benchmarkWorld(b, 256, 256, 100, func(rank int) rule.Rule {
		return rule.NewForestFire(0.0001, 0.001, rule.NewTosser(int64(rank)))
	})
}
