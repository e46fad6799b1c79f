package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use: "draftforge-api",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}
