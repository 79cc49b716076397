package ports

import (
	"context"

	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
)

// TestStatistic maps a dataset to a single ordering value. Evaluate receives
// the parameter-of-interest value of the hypothesis being tested against.
type TestStatistic interface {
	Name() string
	Orientation() hypotest.Orientation
	Evaluate(ctx context.Context, data *model.Dataset, poi float64) (float64, error)
}
