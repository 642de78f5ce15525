package main

import (
	"fmt"

	"wxbench/internal/config"
	"wxbench/internal/hardware"

	"github.com/spf13/cobra"
)

var hwInfoCmd = &cobra.Command{
	Use:   "hw-info",
	Short: "Show detected hardware",
	Run: func(cmd *cobra.Command, args []string) {
		cpuOv := config.CPUOverride()
		gpuOv := config.GPUOverride()
		info := hardware.Detect(cpuOv, gpuOv)

		fmt.Fprintf(cmd.OutOrStdout(), "CPU:         %s\n", info.CPU)
		fmt.Fprintf(cmd.OutOrStdout(), "GPU:         %s\n", info.GPU)
		fmt.Fprintf(cmd.OutOrStdout(), "Hardware ID: %s\n", info.HardwareID)

		if cpuOv != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n  (CPU from config, auto-detected: %s)\n", hardware.CPUName())
		}
		if gpuOv != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n  (GPU from config, auto-detected: %s)\n", hardware.GPUName())
		}
	},
}

func init() {
	rootCmd.AddCommand(hwInfoCmd)
}
