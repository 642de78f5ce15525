package main

import (
	"fmt"

	"wxbench/internal/bench"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := bench.List(stringOpt(cmd, "benchmarks-dir", "paths.benchmarks_dir"))
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No benchmark .inp files found.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("benchmarks-dir", "", "Directory holding benchmark input files")
}
