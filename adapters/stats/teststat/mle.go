package teststat

import (
	"context"
	"fmt"

	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

// MaxLikelihoodEstimate orders datasets by the fitted value of the parameter
// of interest. All declared parameters float in the fit.
type MaxLikelihoodEstimate struct {
	PDF      model.PDF
	Params   []model.Param
	POI      model.Param
	Fitter   ports.Fitter
	Extended bool
}

// NewMaxLikelihoodEstimate builds the fitted-estimate statistic
func NewMaxLikelihoodEstimate(cfg hypotest.ModelConfig, params []model.Param, fitter ports.Fitter) *MaxLikelihoodEstimate {
	return &MaxLikelihoodEstimate{
		PDF:    cfg.PDF,
		Params: params,
		POI:    cfg.POI,
		Fitter: fitter,
	}
}

func (m *MaxLikelihoodEstimate) Name() string {
	return "max_likelihood_estimate"
}

// Orientation: a larger fitted signal is more signal-like
func (m *MaxLikelihoodEstimate) Orientation() hypotest.Orientation {
	return hypotest.GreaterIsMoreSignalLike
}

func (m *MaxLikelihoodEstimate) Evaluate(ctx context.Context, data *model.Dataset, poi float64) (float64, error) {
	result, err := m.Fitter.Fit(ctx, ports.FitRequest{
		PDF:      m.PDF,
		Data:     data,
		Params:   m.Params,
		Extended: m.Extended,
	})
	if err != nil {
		return 0, err
	}
	v, ok := result.Params.Value(m.POI.Name)
	if !ok {
		return 0, errors.InternalError(fmt.Sprintf("fit result misses poi %q", m.POI.Name))
	}
	return v, nil
}

var _ ports.TestStatistic = (*MaxLikelihoodEstimate)(nil)
