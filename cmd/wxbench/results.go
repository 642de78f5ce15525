package main

import (
	"fmt"

	"wxbench/internal/db"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show stored benchmark results",
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().String("benchmark", "", "Filter by benchmark name")
	resultsCmd.Flags().String("hardware-id", "", "Filter by hardware ID")
	resultsCmd.Flags().Int("limit", 20, "Max results to show")
}

func runResults(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	benchmark, _ := cmd.Flags().GetString("benchmark")
	hardwareID, _ := cmd.Flags().GetString("hardware-id")
	limit, _ := cmd.Flags().GetInt("limit")

	aggregates, err := store.LatestAggregates(db.AggregateFilter{
		BenchmarkName: benchmark,
		HardwareID:    hardwareID,
		Limit:         limit,
	})
	if err != nil {
		return err
	}
	if len(aggregates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
		return nil
	}

	for _, agg := range aggregates {
		scopes, err := store.AggregateScopes(agg.ID)
		if err != nil {
			return err
		}
		displayAggregate(cmd, agg, scopes)
	}
	return nil
}
