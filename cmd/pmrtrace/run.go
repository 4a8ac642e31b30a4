package main

import (
	"fmt"
	"math/rand"
	"os"
	"unsafe"

	"github.com/pavanmanishd/pmr"
	"github.com/spf13/cobra"
)

var (
	runCount    int
	runMinBytes int
	runMaxBytes int
	runSeed     int64
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Allocate and free a batch of random blocks, then print status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload()
		},
	}
	cmd.Flags().IntVar(&runCount, "count", 1000, "number of allocate/deallocate pairs")
	cmd.Flags().IntVar(&runMinBytes, "min-bytes", 1, "minimum allocation size")
	cmd.Flags().IntVar(&runMaxBytes, "max-bytes", 4096, "maximum allocation size")
	cmd.Flags().Int64Var(&runSeed, "seed", 1, "PRNG seed")
	rootCmd.AddCommand(cmd)
}

type outstandingBlock struct {
	ptr  unsafe.Pointer
	size uintptr
}

func runWorkload() error {
	r := pmr.NewResource(pmr.WithName(resourceTag), pmr.WithVerbose(verbose))
	rng := rand.New(rand.NewSource(runSeed))

	var outstanding []outstandingBlock

	for i := 0; i < runCount; i++ {
		size := uintptr(runMinBytes + rng.Intn(runMaxBytes-runMinBytes+1))
		ptr, err := r.Allocate(size, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "allocate failed: %v\n", err)
			continue
		}
		outstanding = append(outstanding, outstandingBlock{ptr: ptr, size: size})

		if len(outstanding) > 0 && rng.Intn(2) == 0 {
			idx := rng.Intn(len(outstanding))
			b := outstanding[idx]
			r.Deallocate(b.ptr, b.size, 0)
			outstanding = append(outstanding[:idx], outstanding[idx+1:]...)
		}
	}

	for _, b := range outstanding {
		r.Deallocate(b.ptr, b.size, 0)
	}

	r.Print()
	return nil
}
