package main

import (
	"fmt"
	"math/rand"
	"unsafe"

	"github.com/pavanmanishd/pmr"
	"github.com/spf13/cobra"
)

var (
	fuzzCount    int
	fuzzCorrupt  float64
	fuzzSeed     int64
)

func init() {
	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Allocate blocks and deliberately scribble past their bounds to exercise corruption detection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuzz()
		},
	}
	cmd.Flags().IntVar(&fuzzCount, "count", 200, "number of blocks to allocate")
	cmd.Flags().Float64Var(&fuzzCorrupt, "corrupt-rate", 0.1, "fraction of blocks to deliberately overrun")
	cmd.Flags().Int64Var(&fuzzSeed, "seed", 1, "PRNG seed")
	rootCmd.AddCommand(cmd)
}

func runFuzz() error {
	r := pmr.NewResource(pmr.WithName(resourceTag), pmr.WithVerbose(verbose), pmr.WithNoAbort(true))
	rng := rand.New(rand.NewSource(fuzzSeed))

	var corrupted int
	for i := 0; i < fuzzCount; i++ {
		size := uintptr(8 + rng.Intn(256))
		ptr, err := r.Allocate(size, 0)
		if err != nil {
			continue
		}
		if rng.Float64() < fuzzCorrupt {
			overrun := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr)+size)), 1)
			overrun[0] = 0xff
			corrupted++
		}
		r.Deallocate(ptr, size, 0)
	}

	fmt.Printf("fuzzed %d blocks, deliberately corrupted %d\n", fuzzCount, corrupted)
	r.Print()
	return nil
}
