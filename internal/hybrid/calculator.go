package hybrid

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"hybridtest/domain/core"
	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/internal"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

const (
	defaultNullToys           = 6000
	defaultAltToys            = 300
	defaultSeed               = 42
	defaultMinSuccessFraction = 0.8
)

// Calculator runs the hybrid frequentist/Bayesian hypothesis test: it throws
// toy pseudo-experiments under both hypotheses, smearing nuisance parameters
// with their priors, and compares the observed test statistic against the
// resulting distributions.
type Calculator struct {
	name string
	data *model.Dataset
	alt  hypotest.ModelConfig
	null hypotest.ModelConfig
	stat ports.TestStatistic

	sampler ports.Sampler
	rng     ports.RNGPort
	logger  *internal.Logger

	nullToys           int
	altToys            int
	eventsPerToy       int
	workers            int
	seed               uint64
	minSuccessFraction float64
	keepDistributions  bool

	nullPrior ports.NuisancePrior
	altPrior  ports.NuisancePrior
}

// NewCalculator creates a calculator with default toy counts and seed
func NewCalculator(data *model.Dataset, alt, null hypotest.ModelConfig, stat ports.TestStatistic, sampler ports.Sampler, rng ports.RNGPort) *Calculator {
	return &Calculator{
		name:               "hybrid",
		data:               data,
		alt:                alt,
		null:               null,
		stat:               stat,
		sampler:            sampler,
		rng:                rng,
		logger:             internal.DefaultLogger.WithPrefix("hybrid"),
		nullToys:           defaultNullToys,
		altToys:            defaultAltToys,
		eventsPerToy:       1,
		workers:            runtime.NumCPU(),
		seed:               defaultSeed,
		minSuccessFraction: defaultMinSuccessFraction,
		keepDistributions:  true,
	}
}

// SetName labels the result
func (c *Calculator) SetName(name string) *Calculator {
	c.name = name
	return c
}

// SetToys sets the number of pseudo-experiments per hypothesis
func (c *Calculator) SetToys(nullToys, altToys int) *Calculator {
	c.nullToys = nullToys
	c.altToys = altToys
	return c
}

// SetEventsPerToy sets the dataset size of each toy; zero or negative asks
// for extended draws from the density's predicted yield
func (c *Calculator) SetEventsPerToy(n int) *Calculator {
	c.eventsPerToy = n
	return c
}

// SetWorkers caps the number of concurrent toy workers
func (c *Calculator) SetWorkers(n int) *Calculator {
	c.workers = n
	return c
}

// SetSeed sets the base seed of the toy random streams
func (c *Calculator) SetSeed(seed uint64) *Calculator {
	c.seed = seed
	return c
}

// SetMinSuccessFraction sets the minimum fraction of toys that must evaluate
// before the run is declared unusable
func (c *Calculator) SetMinSuccessFraction(f float64) *Calculator {
	c.minSuccessFraction = f
	return c
}

// KeepDistributions controls whether raw toy values are stored on the result
func (c *Calculator) KeepDistributions(keep bool) *Calculator {
	c.keepDistributions = keep
	return c
}

// ForcePriorNuisanceNull smears the named prior's parameters when generating
// null-hypothesis toys
func (c *Calculator) ForcePriorNuisanceNull(prior ports.NuisancePrior) *Calculator {
	c.nullPrior = prior
	return c
}

// ForcePriorNuisanceAlt smears the named prior's parameters when generating
// alternate-hypothesis toys
func (c *Calculator) ForcePriorNuisanceAlt(prior ports.NuisancePrior) *Calculator {
	c.altPrior = prior
	return c
}

// Run executes the test and derives p-values from the toy distributions
func (c *Calculator) Run(ctx context.Context) (*hypotest.HypothesisTestResult, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	runID := core.NewRunID()

	altPOI, err := c.alt.POIValue()
	if err != nil {
		return nil, err
	}
	tObs, err := c.stat.Evaluate(ctx, c.data, altPOI)
	if err != nil {
		return nil, errors.Wrap(err, "evaluating test statistic on data")
	}
	c.logger.Info("run %s: observed %s = %g", runID, c.stat.Name(), tObs)

	// Toy streams key on the calculator name, not the run id, so two runs
	// with the same seed reproduce bitwise.
	streamID := core.RunID(c.name)
	nullValues, nullFailed, err := c.generateToys(ctx, streamID, "null", c.null, c.nullPrior, c.nullToys, altPOI)
	if err != nil {
		return nil, err
	}
	altValues, altFailed, err := c.generateToys(ctx, streamID, "alt", c.alt, c.altPrior, c.altToys, altPOI)
	if err != nil {
		return nil, err
	}
	c.logger.Info("run %s: %d null toys (%d failed), %d alt toys (%d failed)",
		runID, len(nullValues), nullFailed, len(altValues), altFailed)

	return c.aggregate(runID, tObs, nullValues, altValues, nullFailed, altFailed)
}

func (c *Calculator) validate() error {
	if c.data == nil {
		return errors.ConfigInvalid("calculator has no observed dataset")
	}
	if c.stat == nil {
		return errors.ConfigInvalid("calculator has no test statistic")
	}
	if c.sampler == nil || c.rng == nil {
		return errors.ConfigInvalid("calculator has no sampler or rng")
	}
	if c.nullToys <= 0 || c.altToys <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("toy counts must be positive, got %d/%d", c.nullToys, c.altToys))
	}
	if c.minSuccessFraction <= 0 || c.minSuccessFraction > 1 {
		return errors.ConfigInvalid(fmt.Sprintf("min success fraction %g outside (0, 1]", c.minSuccessFraction))
	}
	return hypotest.ValidatePair(c.null, c.alt)
}

// generateToys runs the toy loop for one hypothesis. Each toy derives its
// own random stream from (run, stage, index, seed), so results reproduce
// bitwise no matter how the scheduler interleaves workers.
func (c *Calculator) generateToys(ctx context.Context, runID core.RunID, stage string, cfg hypotest.ModelConfig, prior ports.NuisancePrior, nToys int, poi float64) ([]float64, int, error) {
	values := make([]float64, nToys)
	failed := make([]bool, nToys)

	workers := c.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < nToys; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := c.rng.Stream(runID, stage, strconv.Itoa(i), c.seed)

			snapshot := cfg.Snapshot
			if prior != nil {
				drawn, err := prior.Sample(rng)
				if err != nil {
					return errors.Wrapf(err, "%s toy %d: sampling nuisance prior", stage, i)
				}
				snapshot = snapshot.Merge(drawn)
			}

			toy, err := c.sampler.Sample(gctx, cfg.PDF, snapshot, c.eventsPerToy, rng)
			if err != nil {
				return errors.Wrapf(err, "%s toy %d: sampling pseudo-data", stage, i)
			}

			v, err := c.stat.Evaluate(gctx, toy, poi)
			if err != nil {
				// Non-converged fits discard the toy, they do not
				// abort the ensemble.
				if errors.GetCode(err) == errors.CodeFitFailure {
					failed[i] = true
					return nil
				}
				return errors.Wrapf(err, "%s toy %d: evaluating statistic", stage, i)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	kept := make([]float64, 0, nToys)
	nFailed := 0
	for i := 0; i < nToys; i++ {
		if failed[i] {
			nFailed++
			continue
		}
		kept = append(kept, values[i])
	}
	if float64(len(kept)) < c.minSuccessFraction*float64(nToys) {
		return nil, nFailed, errors.ExcessiveFailureRate(fmt.Sprintf(
			"%s toys: only %d of %d evaluated (minimum fraction %g)", stage, len(kept), nToys, c.minSuccessFraction))
	}
	return kept, nFailed, nil
}

func (c *Calculator) aggregate(runID core.RunID, tObs float64, nullValues, altValues []float64, nullFailed, altFailed int) (*hypotest.HypothesisTestResult, error) {
	nNull := len(nullValues)
	nAlt := len(altValues)

	rejectedNull := tailCount(nullValues, tObs, c.stat.Orientation())
	rejectedAlt := tailCount(altValues, tObs, c.stat.Orientation())

	p := float64(rejectedNull) / float64(nNull)
	pErr := binomialErr(p, nNull)
	clsb := float64(rejectedAlt) / float64(nAlt)
	clsbErr := binomialErr(clsb, nAlt)

	// CL_b is the complement of the null p-value by construction.
	clb := 1 - p
	clbErr := pErr

	result := &hypotest.HypothesisTestResult{
		Name:             c.name,
		RunID:            runID,
		Seed:             c.seed,
		TestStat:         c.stat.Name(),
		Orientation:      c.stat.Orientation(),
		TestStatData:     tObs,
		NullToys:         nNull,
		AltToys:          nAlt,
		FailedNullToys:   nullFailed,
		FailedAltToys:    altFailed,
		RejectedNullToys: rejectedNull,
		RejectedAltToys:  rejectedAlt,
		NullSummary:      summarize(nullValues),
		AltSummary:       summarize(altValues),
		NullPValue:       p,
		NullPValueErr:    pErr,
		CLb:              clb,
		CLbErr:           clbErr,
		CLsb:             clsb,
		CLsbErr:          clsbErr,
		CreatedAt:        core.Now(),
	}
	if c.keepDistributions {
		result.NullDistribution = nullValues
		result.AltDistribution = altValues
	}

	if p == 0 {
		// No null toy reached the observed value; quote the resolution
		// limit of the ensemble as a lower bound.
		bound := 1 / float64(nNull)
		result.Significance = -distuv.UnitNormal.Quantile(bound)
		result.SignificanceIsLowerBound = true
		c.logger.Warn("run %s: null p-value underflowed at %d toys, significance is a lower bound", runID, nNull)
	} else {
		result.Significance = -distuv.UnitNormal.Quantile(p)
	}

	if clb == 0 {
		result.CLsUndefined = true
		c.logger.Warn("run %s: CL_b = 0, CL_s undefined", runID)
	} else {
		result.CLs = clsb / clb
		result.CLsErr = result.CLs * math.Hypot(safeRel(clsbErr, clsb), safeRel(clbErr, clb))
	}
	return result, nil
}

// tailCount counts toys at least as signal-like as the observed value;
// ties count as rejections.
func tailCount(values []float64, tObs float64, o hypotest.Orientation) int {
	n := 0
	for _, v := range values {
		if o == hypotest.LesserIsMoreSignalLike {
			if v <= tObs {
				n++
			}
		} else if v >= tObs {
			n++
		}
	}
	return n
}

func binomialErr(p float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Sqrt(p * (1 - p) / float64(n))
}

func safeRel(err, value float64) float64 {
	if value == 0 {
		return 0
	}
	return err / value
}
