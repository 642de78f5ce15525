package main

import (
	"fmt"

	"wxbench/internal/config"

	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize the results database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Database initialized at %s\n", config.DBPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
