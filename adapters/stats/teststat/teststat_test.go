package teststat

import (
	"context"
	"math"
	"testing"

	"hybridtest/domain/hypotest"
	"hybridtest/internal/errors"
	"hybridtest/internal/testkit"
)

func TestBinCount(t *testing.T) {
	f := testkit.NewCountingFixture()
	stat := NewBinCount("x")

	if stat.Orientation() != hypotest.GreaterIsMoreSignalLike {
		t.Error("bin count must treat larger counts as signal-like")
	}
	v, err := stat.Evaluate(context.Background(), f.ObservedX, 50)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v != 150 {
		t.Errorf("bin count = %g, want 150", v)
	}
}

func TestSimpleLikelihoodRatio(t *testing.T) {
	f := testkit.NewCountingFixture()
	stat, err := NewSimpleLikelihoodRatio(f.NullX, f.AltX)
	if err != nil {
		t.Fatalf("NewSimpleLikelihoodRatio: %v", err)
	}

	v, err := stat.Evaluate(context.Background(), f.ObservedX, 50)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// log Pois(150 | 150) - log Pois(150 | 100) = 150 ln 1.5 - 50.
	want := 150*math.Log(1.5) - 50
	if math.Abs(v-want) > 1e-9 {
		t.Errorf("likelihood ratio = %.10g, want %.10g", v, want)
	}
}

func TestSimpleLikelihoodRatioRejectsMismatchedPair(t *testing.T) {
	f := testkit.NewCountingFixture()
	_, err := NewSimpleLikelihoodRatio(f.NullX, f.AltXY)
	if err == nil {
		t.Fatal("mismatched hypothesis pair was accepted")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("error code = %q, want CONFIG_INVALID", errors.GetCode(err))
	}
}

func TestProfileLikelihoodRatio(t *testing.T) {
	f := testkit.NewCountingFixture()
	kit := testkit.New()
	stat, err := NewProfileLikelihoodRatio(f.NullXY, f.AltXY, f.Builder.Params(), kit.Fitter())
	if err != nil {
		t.Fatalf("NewProfileLikelihoodRatio: %v", err)
	}

	v, err := stat.Evaluate(context.Background(), f.ObservedXY, 50)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// lambda(0) = 150 ln 150 + 100 ln 100 - 250 ln 125.
	want := 150*math.Log(150) + 100*math.Log(100) - 250*math.Log(125)
	if math.Abs(v-want) > 0.02 {
		t.Errorf("profile likelihood ratio = %g, want about %g", v, want)
	}
}

func TestMaxLikelihoodEstimate(t *testing.T) {
	f := testkit.NewCountingFixture()
	kit := testkit.New()
	stat := NewMaxLikelihoodEstimate(f.AltXY, f.Builder.Params(), kit.Fitter())

	v, err := stat.Evaluate(context.Background(), f.ObservedXY, 50)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(v-50) > 0.5 {
		t.Errorf("fitted signal = %g, want about 50", v)
	}
}

func TestStatisticEngine(t *testing.T) {
	f := testkit.NewCountingFixture()
	slr, err := NewSimpleLikelihoodRatio(f.NullX, f.AltX)
	if err != nil {
		t.Fatalf("NewSimpleLikelihoodRatio: %v", err)
	}
	engine := NewStatisticEngine(NewBinCount("x"), slr)

	names := engine.List()
	want := []string{"bin_count", "simple_likelihood_ratio"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("List() = %v, want %v", names, want)
	}

	got, err := engine.Get("bin_count")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "bin_count" {
		t.Errorf("Get returned %q", got.Name())
	}
	if _, err := engine.Get("nope"); errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("error code = %q, want NOT_FOUND", errors.GetCode(err))
	}
}
