package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hybridtest/adapters/excel"
	"hybridtest/adapters/fit"
	"hybridtest/adapters/sample"
	"hybridtest/adapters/stats/teststat"
	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/internal/config"
	"hybridtest/internal/hybrid"
	"hybridtest/internal/integration"
	"hybridtest/ports"
)

// countingModel is the on/off experiment: a signal region count
// x ~ Pois(s + b) with a control region count y ~ Pois(tau * b)
// constraining the background.
type countingModel struct {
	builder *model.Builder
	px      model.PDF
	obsX    model.Observable
	null    hypotest.ModelConfig
	alt     hypotest.ModelConfig
	prior   ports.NuisancePrior
}

func buildCountingModel(xObs, auxCount, tau, signal float64) (*countingModel, *model.Dataset, error) {
	b := model.NewBuilder()
	bInit := auxCount / tau
	sRef := b.Param("s", signal, 0, 2*signal)
	bRef := b.Param("b", bInit, bInit/1000+0.1, bInit*3+10)
	b.Const("tau", tau)

	obsX := b.Observable("x", 0, (signal+bInit)*5+50)
	px := b.Poisson("px", obsX, model.Sum(sRef, bRef))
	if err := b.Err(); err != nil {
		return nil, nil, err
	}

	base := b.ParamSet()
	poi := model.Param{Name: "s", Value: signal, Min: 0, Max: 2 * signal}
	m := &countingModel{
		builder: b,
		px:      px,
		obsX:    obsX,
		null: hypotest.ModelConfig{
			Name:        "null",
			PDF:         px,
			Observables: []model.Observable{obsX},
			POI:         poi,
			Snapshot:    base.With("s", 0),
		},
		alt: hypotest.ModelConfig{
			Name:        "alt",
			PDF:         px,
			Observables: []model.Observable{obsX},
			POI:         poi,
			Snapshot:    base,
		},
		prior: sample.PosteriorFromAuxCount("b", auxCount, tau),
	}

	data := model.NewDataset("x")
	if err := data.Append(xObs); err != nil {
		return nil, nil, err
	}
	return m, data, nil
}

func newRunCmd() *cobra.Command {
	var (
		xObs     float64
		auxCount float64
		tau      float64
		signal   float64
		stat     string
		report   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hybrid significance calculation on a counting experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			// Closed forms first: they anchor what the toys should find.
			pAnalytic, err := integration.BinomialObsP(xObs, auxCount, tau)
			if err != nil {
				return err
			}
			zAnalytic := integration.PValueToSignificance(pAnalytic)
			fmt.Printf("analytic p-value:    %.6g  (Z = %.4g)\n", pAnalytic, zAnalytic)

			pDirect, err := integration.HybridPValue(xObs, auxCount, tau, 0)
			if err != nil {
				return err
			}
			fmt.Printf("integrated p-value:  %.6g  (Z = %.4g)\n\n", pDirect, integration.PValueToSignificance(pDirect))

			m, data, err := buildCountingModel(xObs, auxCount, tau, signal)
			if err != nil {
				return err
			}
			statistic, err := selectStatistic(stat, m)
			if err != nil {
				return err
			}

			calc := hybrid.NewCalculator(data, m.alt, m.null, statistic, sample.NewDensitySampler(), sample.NewRNGAdapter()).
				SetName("counting").
				SetToys(cfg.Toys.NullToys, cfg.Toys.AltToys).
				SetEventsPerToy(cfg.Toys.EventsPerToy).
				SetWorkers(cfg.Toys.Workers).
				SetSeed(cfg.Toys.Seed).
				SetMinSuccessFraction(cfg.Toys.MinSuccessFraction).
				ForcePriorNuisanceNull(m.prior).
				ForcePriorNuisanceAlt(m.prior)

			result, err := calc.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Print(result.String())

			if report != "" {
				if err := excel.NewReportWriter(report).WriteResult(ctx, result); err != nil {
					return err
				}
				fmt.Printf("\nreport written to %s\n", report)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&xObs, "observed", 150, "observed count in the signal region")
	cmd.Flags().Float64Var(&auxCount, "aux", 100, "auxiliary count in the control region")
	cmd.Flags().Float64Var(&tau, "tau", 1, "control to signal region size ratio")
	cmd.Flags().Float64Var(&signal, "signal", 50, "signal hypothesis tested against")
	cmd.Flags().StringVar(&stat, "statistic", "bin_count", "test statistic: bin_count, simple_likelihood_ratio, profile_likelihood_ratio, max_likelihood_estimate")
	cmd.Flags().StringVar(&report, "report", "", "write an xlsx report to this path")
	return cmd
}

func selectStatistic(name string, m *countingModel) (ports.TestStatistic, error) {
	fitter := fit.NewMaximumLikelihoodFitter()
	engine := teststat.NewStatisticEngine(teststat.NewBinCount("x"))
	if slr, err := teststat.NewSimpleLikelihoodRatio(m.null, m.alt); err == nil {
		engine.Register(slr)
	}
	if plr, err := teststat.NewProfileLikelihoodRatio(m.null, m.alt, m.builder.Params(), fitter); err == nil {
		engine.Register(plr)
	}
	engine.Register(teststat.NewMaxLikelihoodEstimate(m.alt, m.builder.Params(), fitter))
	return engine.Get(name)
}
