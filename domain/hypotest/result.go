package hypotest

import (
	"fmt"
	"strings"
	"time"

	"hybridtest/domain/core"
)

// Orientation declares which tail of a test statistic is signal-like
type Orientation int

const (
	// GreaterIsMoreSignalLike counts toys with stat >= observed as rejections
	GreaterIsMoreSignalLike Orientation = iota
	// LesserIsMoreSignalLike counts toys with stat <= observed as rejections
	LesserIsMoreSignalLike
)

func (o Orientation) String() string {
	if o == LesserIsMoreSignalLike {
		return "lesser-is-signal-like"
	}
	return "greater-is-signal-like"
}

// DistributionSummary describes one toy-statistic distribution
type DistributionSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// HypothesisTestResult holds everything a hybrid calculator run produced:
// the observed statistic, both toy distributions, and the derived p-values
// with their binomial uncertainties.
type HypothesisTestResult struct {
	Name        string      `json:"name"`
	RunID       core.RunID  `json:"run_id"`
	Seed        uint64      `json:"seed"`
	TestStat    string      `json:"test_statistic"`
	Orientation Orientation `json:"orientation"`

	TestStatData float64 `json:"test_stat_data"`

	NullToys         int `json:"null_toys"`
	AltToys          int `json:"alt_toys"`
	FailedNullToys   int `json:"failed_null_toys"`
	FailedAltToys    int `json:"failed_alt_toys"`
	RejectedNullToys int `json:"rejected_null_toys"`
	RejectedAltToys  int `json:"rejected_alt_toys"`

	NullDistribution []float64 `json:"null_distribution,omitempty"`
	AltDistribution  []float64 `json:"alt_distribution,omitempty"`

	NullSummary DistributionSummary `json:"null_summary"`
	AltSummary  DistributionSummary `json:"alt_summary"`

	NullPValue    float64 `json:"null_p_value"`
	NullPValueErr float64 `json:"null_p_value_err"`

	Significance             float64 `json:"significance"`
	SignificanceIsLowerBound bool    `json:"significance_is_lower_bound"`

	CLb     float64 `json:"cl_b"`
	CLbErr  float64 `json:"cl_b_err"`
	CLsb    float64 `json:"cl_sb"`
	CLsbErr float64 `json:"cl_sb_err"`

	CLs          float64 `json:"cl_s"`
	CLsErr       float64 `json:"cl_s_err"`
	CLsUndefined bool    `json:"cl_s_undefined"`

	CreatedAt time.Time `json:"created_at"`
}

// String renders the result in the summary block layout used by the CLI
func (r *HypothesisTestResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Results %s:\n", r.Name)
	fmt.Fprintf(&b, "  test statistic:      %s (%s)\n", r.TestStat, r.Orientation)
	fmt.Fprintf(&b, "  observed value:      %.6g\n", r.TestStatData)
	fmt.Fprintf(&b, "  toys (null / alt):   %d / %d", r.NullToys, r.AltToys)
	if r.FailedNullToys > 0 || r.FailedAltToys > 0 {
		fmt.Fprintf(&b, "  (discarded %d / %d)", r.FailedNullToys, r.FailedAltToys)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  null p-value:        %.6g +/- %.2g\n", r.NullPValue, r.NullPValueErr)
	if r.SignificanceIsLowerBound {
		fmt.Fprintf(&b, "  significance:        > %.4g sigma (no null toy exceeded data)\n", r.Significance)
	} else {
		fmt.Fprintf(&b, "  significance:        %.4g sigma\n", r.Significance)
	}
	fmt.Fprintf(&b, "  CL_b:                %.6g +/- %.2g\n", r.CLb, r.CLbErr)
	fmt.Fprintf(&b, "  CL_s+b:              %.6g +/- %.2g\n", r.CLsb, r.CLsbErr)
	if r.CLsUndefined {
		b.WriteString("  CL_s:                undefined (CL_b = 0)\n")
	} else {
		fmt.Fprintf(&b, "  CL_s:                %.6g +/- %.2g\n", r.CLs, r.CLsErr)
	}
	return b.String()
}
