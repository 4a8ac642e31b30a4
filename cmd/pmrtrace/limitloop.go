package main

import (
	"fmt"

	"github.com/pavanmanishd/pmr"
	"github.com/spf13/cobra"
)

var limitLoopBlocks int

func init() {
	cmd := &cobra.Command{
		Use:   "limit-loop",
		Short: "Run a fixed allocation sequence through ExceptionTestLoop and report how many trials it took",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLimitLoop()
		},
	}
	cmd.Flags().IntVar(&limitLoopBlocks, "blocks", 5, "number of allocations the workload performs per trial")
	rootCmd.AddCommand(cmd)
}

func runLimitLoop() error {
	r := pmr.NewResource(pmr.WithName(resourceTag), pmr.WithVerbose(verbose))
	trials := 0

	pmr.ExceptionTestLoop(r, func(r *pmr.Resource) {
		trials++
		for i := 0; i < limitLoopBlocks; i++ {
			ptr, err := r.Allocate(64, 0)
			if err != nil {
				continue
			}
			r.Deallocate(ptr, 64, 0)
		}
	})

	fmt.Printf("workload survived after %d trial(s)\n", trials)
	r.Print()
	return nil
}
