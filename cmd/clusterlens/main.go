package main

import (
	"log"
	"os"

	"github.com/clusterlens/clusterlens"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	// Set configuration for the clusterlens package
	clusterlens.Config.DatabasePath = os.Getenv("CLUSTERLENS_DB")
	clusterlens.Config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	clusterlens.Config.OpenAIModel = os.Getenv("OPENAI_MODEL")

	rootCmd := &cobra.Command{
		Use:   "clusterlens",
		Short: "Clustering pipeline and insight engine for tabular datasets",
	}

	// Add all commands from the clusterlens package
	rootCmd.AddCommand(clusterlens.ClusterCmd)
	rootCmd.AddCommand(clusterlens.ResultsCmd)
	rootCmd.AddCommand(clusterlens.AnalyzeCmd)
	rootCmd.AddCommand(clusterlens.DetailsCmd)
	rootCmd.AddCommand(clusterlens.NoiseCmd)
	rootCmd.AddCommand(clusterlens.FeaturesCmd)
	rootCmd.AddCommand(clusterlens.ReportCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
