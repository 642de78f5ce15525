package main

import (
	"fmt"
	"os"

	"wxbench/internal/config"
	"wxbench/internal/db"
	"wxbench/internal/git"
	"wxbench/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exit = os.Exit
var cfgFile string

// Factories for external collaborators, swappable in tests.
var gitClientFactory = func() git.IClient { return git.NewClient() }
var storeFactory = func(path string) (db.Store, error) { return db.NewSQLiteStore(path) }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wxbench",
	Short: "Performance testing framework for the WARPXM simulator",
	Long: `wxbench builds the WARPXM simulation code, runs its benchmark suite,
and tracks timing results over time, including across historical commits.`,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'wxbench --help' for usage.")
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./wxbench.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite results database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")

	config.BindFlag("paths.db", rootCmd.PersistentFlags().Lookup("db"))
	config.BindFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.Load(cfgFile)

	logFile, _ := rootCmd.PersistentFlags().GetString("log-file")
	telemetry.InitLogger(viper.GetBool("verbose"), logFile)
}

// openStore opens the configured results database.
func openStore() (db.Store, error) {
	return storeFactory(config.DBPath())
}

// stringOpt resolves a command flag against its config key: an explicitly
// set flag wins, otherwise the config value (which carries the default).
func stringOpt(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return config.ExpandHome(v)
	}
	return config.ExpandHome(viper.GetString(key))
}

func intOpt(cmd *cobra.Command, flag, key string) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	return viper.GetInt(key)
}
