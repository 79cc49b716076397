package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hybridtest/internal"
)

var logger = internal.DefaultLogger.WithPrefix("cli")

func main() {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "hybridtest",
		Short: "Toy-based hybrid hypothesis testing for counting experiments",
		Long: `hybridtest builds statistical models, fits them to data, and runs
hybrid frequentist/Bayesian significance calculations with toy
pseudo-experiments. Workspaces persist models and data between runs.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newFitCmd())
	root.AddCommand(newWorkspaceCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
