package main

import (
	"github.com/spf13/cobra"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Acquire and load the input datasets",
	Long:  "Commands for downloading dataset archives, loading snapshots into PostGIS, and inspecting load status.",
}

func init() {
	rootCmd.AddCommand(datasetCmd)
}
