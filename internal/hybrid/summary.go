package hybrid

import (
	"github.com/montanaflynn/stats"

	"hybridtest/domain/hypotest"
)

// summarize condenses a toy-statistic distribution for reporting
func summarize(values []float64) hypotest.DistributionSummary {
	if len(values) == 0 {
		return hypotest.DistributionSummary{}
	}
	data := stats.Float64Data(values)
	mean, _ := data.Mean()
	sd, _ := data.StandardDeviation()
	min, _ := data.Min()
	max, _ := data.Max()
	median, _ := data.Median()
	return hypotest.DistributionSummary{
		Mean:   mean,
		StdDev: sd,
		Min:    min,
		Max:    max,
		Median: median,
	}
}
