package teststat

import (
	"context"

	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/ports"
)

// BinCount orders datasets by the summed value of one column. For a single
// counting bin this is the observed event count itself.
type BinCount struct {
	Column string
}

// NewBinCount creates the counting statistic over one observable
func NewBinCount(column string) *BinCount {
	return &BinCount{Column: column}
}

func (b *BinCount) Name() string {
	return "bin_count"
}

// Orientation: more counts means more signal-like
func (b *BinCount) Orientation() hypotest.Orientation {
	return hypotest.GreaterIsMoreSignalLike
}

func (b *BinCount) Evaluate(ctx context.Context, data *model.Dataset, poi float64) (float64, error) {
	return data.SumColumn(b.Column)
}

var _ ports.TestStatistic = (*BinCount)(nil)
