package teststat

import (
	"context"
	"math"

	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

// ProfileLikelihoodRatio orders datasets by the profile likelihood ratio
// lambda(mu): the conditional NLL minimum at a fixed parameter of interest
// minus the unconditional minimum. Nuisance parameters float in both fits.
//
// When FixedPOI is set, the conditional fit always pins the parameter of
// interest to that snapshot instead of the per-call value, so the same
// ordering is applied to data and to every toy.
type ProfileLikelihoodRatio struct {
	PDF      model.PDF
	Params   []model.Param
	POI      model.Param
	FixedPOI *float64
	Fitter   ports.Fitter
	Extended bool
}

// NewProfileLikelihoodRatio builds the profiled statistic from a hypothesis
// pair; the conditional fit pins the parameter of interest to the null
// snapshot value.
func NewProfileLikelihoodRatio(null, alt hypotest.ModelConfig, params []model.Param, fitter ports.Fitter) (*ProfileLikelihoodRatio, error) {
	if err := hypotest.ValidatePair(null, alt); err != nil {
		return nil, err
	}
	nullPOI, err := null.POIValue()
	if err != nil {
		return nil, err
	}
	return &ProfileLikelihoodRatio{
		PDF:      null.PDF,
		Params:   params,
		POI:      null.POI,
		FixedPOI: &nullPOI,
		Fitter:   fitter,
	}, nil
}

func (p *ProfileLikelihoodRatio) Name() string {
	return "profile_likelihood_ratio"
}

// Orientation: a larger ratio means the pinned hypothesis fits worse
func (p *ProfileLikelihoodRatio) Orientation() hypotest.Orientation {
	return hypotest.GreaterIsMoreSignalLike
}

func (p *ProfileLikelihoodRatio) Evaluate(ctx context.Context, data *model.Dataset, poi float64) (float64, error) {
	pinned := poi
	if p.FixedPOI != nil {
		pinned = *p.FixedPOI
	}

	conditional, err := p.Fitter.Fit(ctx, ports.FitRequest{
		PDF:      p.PDF,
		Data:     data,
		Params:   p.Params,
		Fixed:    model.NewParamSet().With(p.POI.Name, pinned),
		Extended: p.Extended,
	})
	if err != nil {
		return 0, err
	}

	unconditional, err := p.Fitter.Fit(ctx, ports.FitRequest{
		PDF:      p.PDF,
		Data:     data,
		Params:   p.Params,
		Extended: p.Extended,
	})
	if err != nil {
		return 0, err
	}

	lambda := conditional.NLL - unconditional.NLL
	if math.IsNaN(lambda) {
		return 0, errors.New(errors.CodeDegenerateStatistic, "profile likelihood ratio is NaN")
	}
	// Numerical noise can push the difference slightly negative.
	if lambda < 0 {
		lambda = 0
	}
	return lambda, nil
}

var _ ports.TestStatistic = (*ProfileLikelihoodRatio)(nil)
