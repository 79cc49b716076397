package teststat

import (
	"context"
	"fmt"
	"math"

	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

// SimpleLikelihoodRatio orders datasets by the log likelihood ratio of the
// alternate over the null snapshot. No fit is involved; both parameter
// points are fixed when the statistic is built.
type SimpleLikelihoodRatio struct {
	PDF          model.PDF
	NullSnapshot model.ParamSet
	AltSnapshot  model.ParamSet
}

// NewSimpleLikelihoodRatio builds the ratio statistic from a hypothesis pair
func NewSimpleLikelihoodRatio(null, alt hypotest.ModelConfig) (*SimpleLikelihoodRatio, error) {
	if err := hypotest.ValidatePair(null, alt); err != nil {
		return nil, err
	}
	return &SimpleLikelihoodRatio{
		PDF:          null.PDF,
		NullSnapshot: null.Snapshot,
		AltSnapshot:  alt.Snapshot,
	}, nil
}

func (s *SimpleLikelihoodRatio) Name() string {
	return "simple_likelihood_ratio"
}

// Orientation: a larger ratio favors the alternate
func (s *SimpleLikelihoodRatio) Orientation() hypotest.Orientation {
	return hypotest.GreaterIsMoreSignalLike
}

func (s *SimpleLikelihoodRatio) Evaluate(ctx context.Context, data *model.Dataset, poi float64) (float64, error) {
	total := 0.0
	for i := 0; i < data.NumEntries(); i++ {
		event := data.Row(i)
		logAlt := s.PDF.LogProb(event, s.AltSnapshot)
		logNull := s.PDF.LogProb(event, s.NullSnapshot)
		total += logAlt - logNull
	}
	if math.IsNaN(total) {
		return 0, errors.New(errors.CodeDegenerateStatistic, fmt.Sprintf("likelihood ratio is NaN for pdf %q", s.PDF.Name()))
	}
	return total, nil
}

var _ ports.TestStatistic = (*SimpleLikelihoodRatio)(nil)
