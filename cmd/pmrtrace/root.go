package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose     bool
	resourceTag string
)

var rootCmd = &cobra.Command{
	Use:   "pmrtrace",
	Short: "Drive a pmr.Resource from the command line",
	Long: `pmrtrace is a small harness around the pmr package: it runs
synthetic allocation workloads against an instrumented memory
resource and prints its status report, so the library's accounting
and corruption detection can be poked at without writing Go.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose resource diagnostics")
	rootCmd.PersistentFlags().StringVar(&resourceTag, "name", "pmrtrace", "diagnostic name attached to the resource")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
