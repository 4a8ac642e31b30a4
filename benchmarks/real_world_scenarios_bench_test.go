package benchmarks

import (
	"testing"

	"github.com/pavanmanishd/pmr"
)

// BenchmarkWebServerScenarios simulates per-request scratch
// allocation: a handful of small headers plus one response buffer,
// freed together at the end of the request.
func BenchmarkWebServerScenarios(b *testing.B) {
	b.Run("PMR", func(b *testing.B) {
		r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for h := 0; h < 8; h++ {
				ptr, _ := r.Allocate(48, 0)
				r.Deallocate(ptr, 48, 0)
			}
			body, _ := r.Allocate(4096, 0)
			r.Deallocate(body, 4096, 0)
		}
	})

	b.Run("Builtin", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for h := 0; h < 8; h++ {
				_ = make([]byte, 48)
			}
			_ = make([]byte, 4096)
		}
	})
}

// BenchmarkDatabaseScenarios simulates fixed-width row buffers
// allocated and released as a result set is consumed.
func BenchmarkDatabaseScenarios(b *testing.B) {
	const rowSize = 256
	const rowsPerQuery = 50

	b.Run("PMR", func(b *testing.B) {
		r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for j := 0; j < rowsPerQuery; j++ {
				ptr, _ := r.Allocate(rowSize, 0)
				r.Deallocate(ptr, rowSize, 0)
			}
		}
	})

	b.Run("Builtin", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for j := 0; j < rowsPerQuery; j++ {
				_ = make([]byte, rowSize)
			}
		}
	})
}

// BenchmarkJSONProcessingScenarios simulates allocating many small
// scratch structs while decoding a document.
func BenchmarkJSONProcessingScenarios(b *testing.B) {
	type token struct {
		kind  int32
		start int32
		end   int32
	}

	b.Run("PMR", func(b *testing.B) {
		r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for j := 0; j < 200; j++ {
				t := pmr.New[token](r)
				t.kind = int32(j)
				pmr.Delete(r, t)
			}
		}
	})

	b.Run("Builtin", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			for j := 0; j < 200; j++ {
				t := new(token)
				t.kind = int32(j)
			}
		}
	})
}

// BenchmarkGraphAlgorithmScenarios simulates a visited-set and
// worklist buffer sized to the graph, released together once the
// traversal completes.
func BenchmarkGraphAlgorithmScenarios(b *testing.B) {
	const nodes = 2000

	b.Run("PMR", func(b *testing.B) {
		r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			visited := pmr.NewSlice[bool](r, nodes)
			worklist := pmr.NewSlice[int32](r, nodes)
			for n := 0; n < nodes; n++ {
				visited[n] = n%3 == 0
				worklist[n] = int32(n)
			}
			pmr.DeleteSlice(r, visited)
			pmr.DeleteSlice(r, worklist)
		}
	})

	b.Run("Builtin", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			visited := make([]bool, nodes)
			worklist := make([]int32, nodes)
			for n := 0; n < nodes; n++ {
				visited[n] = n%3 == 0
				worklist[n] = int32(n)
			}
		}
	})
}

// BenchmarkConcurrentWorkloadScenarios simulates several worker
// goroutines each handling request-scoped allocations against one
// shared Resource.
func BenchmarkConcurrentWorkloadScenarios(b *testing.B) {
	b.Run("SharedResource", func(b *testing.B) {
		r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				ptr, _ := r.Allocate(256, 0)
				r.Deallocate(ptr, 256, 0)
			}
		})
	})

	b.Run("Builtin", func(b *testing.B) {
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				_ = make([]byte, 256)
			}
		})
	})
}
