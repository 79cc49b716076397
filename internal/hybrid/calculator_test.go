package hybrid

import (
	"context"
	"math"
	"reflect"
	"testing"

	"hybridtest/adapters/stats/teststat"
	"hybridtest/domain/model"
	"hybridtest/internal/errors"
	"hybridtest/internal/testkit"
)

func newDatasetX(t *testing.T, x float64) *model.Dataset {
	t.Helper()
	data := model.NewDataset("x")
	if err := data.Append(x); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return data
}

func TestHybridCountingSignificance(t *testing.T) {
	if testing.Short() {
		t.Skip("toy ensemble is slow")
	}
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	calc := NewCalculator(f.ObservedX, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
		SetName("counting").
		SetToys(6000, 300).
		SetSeed(42).
		ForcePriorNuisanceNull(f.Prior).
		ForcePriorNuisanceAlt(f.Prior)

	result, err := calc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.TestStatData != 150 {
		t.Errorf("observed statistic = %g, want 150", result.TestStatData)
	}

	// The closed form gives p = 0.00094; at 6000 toys the estimate
	// scatters but stays well inside this band.
	if result.NullPValue <= 0.0002 || result.NullPValue >= 0.003 {
		t.Errorf("null p-value = %g, want about 0.001", result.NullPValue)
	}
	if result.Significance <= 2.7 || result.Significance >= 3.5 {
		t.Errorf("significance = %g, want about 3.1", result.Significance)
	}
	if result.SignificanceIsLowerBound {
		t.Error("significance flagged as a lower bound with a non-zero p-value")
	}

	if result.CLb != 1-result.NullPValue {
		t.Errorf("CL_b = %g, want exactly 1 - p = %g", result.CLb, 1-result.NullPValue)
	}
	if result.CLsb <= 0.3 || result.CLsb >= 0.65 {
		t.Errorf("CL_s+b = %g, want about 0.48", result.CLsb)
	}
	if result.CLsUndefined {
		t.Error("CL_s undefined despite CL_b > 0")
	}
	wantCLs := result.CLsb / result.CLb
	if math.Abs(result.CLs-wantCLs) > 1e-12 {
		t.Errorf("CL_s = %g, want %g", result.CLs, wantCLs)
	}

	wantErr := math.Sqrt(result.NullPValue * (1 - result.NullPValue) / float64(result.NullToys))
	if math.Abs(result.NullPValueErr-wantErr) > 1e-12 {
		t.Errorf("p-value error = %g, want %g", result.NullPValueErr, wantErr)
	}

	if len(result.NullDistribution) != result.NullToys {
		t.Errorf("null distribution holds %d values for %d toys", len(result.NullDistribution), result.NullToys)
	}
}

func TestCalculatorDeterminism(t *testing.T) {
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	run := func() ([]float64, []float64, float64) {
		calc := NewCalculator(f.ObservedX, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
			SetName("repro").
			SetToys(400, 100).
			SetSeed(7).
			SetWorkers(4).
			ForcePriorNuisanceNull(f.Prior).
			ForcePriorNuisanceAlt(f.Prior)
		result, err := calc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result.NullDistribution, result.AltDistribution, result.NullPValue
	}

	null1, alt1, p1 := run()
	null2, alt2, p2 := run()
	if !reflect.DeepEqual(null1, null2) || !reflect.DeepEqual(alt1, alt2) {
		t.Error("identically seeded runs produced different toy distributions")
	}
	if p1 != p2 {
		t.Errorf("identically seeded runs produced p = %g and %g", p1, p2)
	}
}

func TestCalculatorSeedChangesToys(t *testing.T) {
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	run := func(seed uint64) []float64 {
		calc := NewCalculator(f.ObservedX, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
			SetName("seeds").
			SetToys(200, 50).
			SetSeed(seed).
			ForcePriorNuisanceNull(f.Prior).
			ForcePriorNuisanceAlt(f.Prior)
		result, err := calc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result.NullDistribution
	}

	if reflect.DeepEqual(run(1), run(2)) {
		t.Error("different seeds produced identical toy distributions")
	}
}

func TestCalculatorRejectsBadConfig(t *testing.T) {
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	tests := []struct {
		name  string
		build func() *Calculator
	}{
		{"zero alt toys", func() *Calculator {
			return NewCalculator(f.ObservedX, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
				SetToys(100, 0)
		}},
		{"bad success fraction", func() *Calculator {
			return NewCalculator(f.ObservedX, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
				SetMinSuccessFraction(1.5)
		}},
		{"no dataset", func() *Calculator {
			return NewCalculator(nil, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG())
		}},
		{"mismatched hypotheses", func() *Calculator {
			return NewCalculator(f.ObservedX, f.AltXY, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Run(context.Background())
			if err == nil {
				t.Fatal("Run accepted an invalid configuration")
			}
			if errors.GetCode(err) != errors.CodeConfigInvalid {
				t.Errorf("error code = %q, want CONFIG_INVALID", errors.GetCode(err))
			}
		})
	}
}

func TestUncertaintyShrinksWithToys(t *testing.T) {
	if testing.Short() {
		t.Skip("toy ensemble is slow")
	}
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	clsbErr := func(altToys int) float64 {
		calc := NewCalculator(f.ObservedX, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
			SetName("scaling").
			SetToys(500, altToys).
			SetSeed(21).
			ForcePriorNuisanceNull(f.Prior).
			ForcePriorNuisanceAlt(f.Prior)
		result, err := calc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result.CLsbErr
	}

	// Quadrupling the toys halves the binomial uncertainty.
	ratio := clsbErr(300) / clsbErr(1200)
	if ratio < 1.6 || ratio > 2.4 {
		t.Errorf("uncertainty ratio = %g, want about 2", ratio)
	}
}

func TestUnderflowReportsLowerBound(t *testing.T) {
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	// x = 300 is unreachable for background near 100; no null toy gets
	// there at this ensemble size.
	data := newDatasetX(t, 300)

	calc := NewCalculator(data, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
		SetName("underflow").
		SetToys(500, 100).
		SetSeed(9).
		ForcePriorNuisanceNull(f.Prior).
		ForcePriorNuisanceAlt(f.Prior)

	result, err := calc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NullPValue != 0 {
		t.Fatalf("null p-value = %g, want 0", result.NullPValue)
	}
	if !result.SignificanceIsLowerBound {
		t.Error("underflowed p-value not flagged as a lower bound")
	}
	// The bound is the significance of p = 1/500.
	if result.Significance < 2.5 || result.Significance > 3.2 {
		t.Errorf("lower bound = %g, want about 2.88", result.Significance)
	}
}

func TestDegenerateObservationLeavesCLsUndefined(t *testing.T) {
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	// Every toy count is at least zero, so the p-value saturates at one
	// and CL_b vanishes.
	data := newDatasetX(t, 0)

	calc := NewCalculator(data, f.AltX, f.NullX, teststat.NewBinCount("x"), kit.Sampler(), kit.RNG()).
		SetName("degenerate").
		SetToys(300, 100).
		SetSeed(17).
		ForcePriorNuisanceNull(f.Prior).
		ForcePriorNuisanceAlt(f.Prior)

	result, err := calc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NullPValue != 1 {
		t.Errorf("null p-value = %g, want 1", result.NullPValue)
	}
	if result.CLb != 0 {
		t.Errorf("CL_b = %g, want 0", result.CLb)
	}
	if !result.CLsUndefined {
		t.Error("CL_s not flagged undefined at CL_b = 0")
	}
}

func TestProfiledStatisticEnsemble(t *testing.T) {
	if testing.Short() {
		t.Skip("toy ensemble with fits is slow")
	}
	f := testkit.NewCountingFixture()
	kit := testkit.New()

	stat, err := teststat.NewProfileLikelihoodRatio(f.NullXY, f.AltXY, f.Builder.Params(), kit.Fitter())
	if err != nil {
		t.Fatalf("NewProfileLikelihoodRatio: %v", err)
	}

	calc := NewCalculator(f.ObservedXY, f.AltXY, f.NullXY, stat, kit.Sampler(), kit.RNG()).
		SetName("profiled").
		SetToys(200, 100).
		SetSeed(5).
		ForcePriorNuisanceNull(f.Prior).
		ForcePriorNuisanceAlt(f.Prior)

	result, err := calc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NullPValue < 0 || result.NullPValue > 1 {
		t.Errorf("null p-value = %g outside [0, 1]", result.NullPValue)
	}
	if result.CLsb < 0 || result.CLsb > 1 {
		t.Errorf("CL_s+b = %g outside [0, 1]", result.CLsb)
	}
	// lambda(0) on the data sits around 5; the null ensemble median
	// must be far below it.
	if result.TestStatData < 4 || result.TestStatData > 6.5 {
		t.Errorf("observed statistic = %g, want about 5", result.TestStatData)
	}
	if result.NullSummary.Median >= result.TestStatData {
		t.Errorf("null median %g not below the observed statistic %g", result.NullSummary.Median, result.TestStatData)
	}
}
