package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hybridtest/adapters/db/sqlite"
	"hybridtest/adapters/fit"
	"hybridtest/domain/model"
	"hybridtest/domain/workspace"
	"hybridtest/internal/config"
	"hybridtest/ports"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Persist and inspect analysis workspaces",
	}
	cmd.AddCommand(newWorkspaceDemoCmd())
	cmd.AddCommand(newWorkspaceListCmd())
	cmd.AddCommand(newWorkspaceDeleteCmd())
	return cmd
}

// newWorkspaceDemoCmd saves the counting model with its data, reads it back,
// and refits to show the round trip preserves the likelihood.
func newWorkspaceDemoCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Save the counting model, reload it, and refit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			m, _, err := buildCountingModel(150, 100, 1, 50)
			if err != nil {
				return err
			}
			joint, err := extendWithControlRegion(m)
			if err != nil {
				return err
			}
			observed := model.NewDataset("x", "y")
			if err := observed.Append(150, 100); err != nil {
				return err
			}

			ws := workspace.New(name)
			ws.ImportParams(m.builder.Params()...)
			if err := ws.ImportPDF(joint); err != nil {
				return err
			}
			if err := ws.ImportDataset("observed", observed); err != nil {
				return err
			}
			if err := ws.DefineSet("poi", "s"); err != nil {
				return err
			}
			if err := ws.DefineSet("nuisance", "b"); err != nil {
				return err
			}

			repo, err := sqlite.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Save(ctx, ws); err != nil {
				return err
			}
			fmt.Printf("saved workspace %q to %s\n", name, cfg.Storage.Path)

			loaded, err := repo.Load(ctx, name)
			if err != nil {
				return err
			}
			pdf, err := loaded.PDF(joint.Name())
			if err != nil {
				return err
			}
			refitData, err := loaded.Dataset("observed")
			if err != nil {
				return err
			}

			result, err := fit.NewMaximumLikelihoodFitter().Fit(ctx, ports.FitRequest{
				PDF:    pdf,
				Data:   refitData,
				Params: loaded.Params(),
			})
			if err != nil {
				return err
			}
			fmt.Println("refit of the reloaded model:")
			printFit("joint counting model", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "counting-demo", "workspace name")
	return cmd
}

// extendWithControlRegion adds the control region density and returns the
// joint model over both counts
func extendWithControlRegion(m *countingModel) (model.PDF, error) {
	b := m.builder
	obsY := b.Observable("y", 0.1, 500)
	py := b.Poisson("py", obsY, model.Prod(model.P("tau"), model.P("b")))
	joint := b.Product("joint", m.px, py)
	if err := b.Err(); err != nil {
		return nil, err
	}
	return joint, nil
}

func newWorkspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo, err := sqlite.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer repo.Close()

			names, err := repo.List(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no workspaces stored")
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func newWorkspaceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo, err := sqlite.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted workspace %q\n", args[0])
			return nil
		},
	}
}
