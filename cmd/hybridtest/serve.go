package main

import (
	"github.com/spf13/cobra"

	"hybridtest/internal/api"
	"hybridtest/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the hypothesis test API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return api.NewServer(cfg).ListenAndServe()
		},
	}
}
