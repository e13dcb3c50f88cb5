// Package main is the entry point for the gRPC server
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "campaign-api",
	Short: "Campaign API gRPC Server",
	Long:  `Campaign API provides a gRPC interface for the campaign companion: characters, inventory, abilities, and shared combat encounters.`,
}

func main() {
	// Local development reads settings from .env; absence is fine
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
