package sample

import (
	"context"
	"math"
	"reflect"
	"testing"

	"hybridtest/domain/model"
)

func TestSamplerDeterminism(t *testing.T) {
	b := model.NewBuilder()
	s := b.Param("s", 50, 0, 100)
	bkg := b.Param("b", 100, 0.1, 300)
	obs := b.Observable("x", 0, 500)
	px := b.Poisson("px", obs, model.Sum(s, bkg))
	if err := b.Err(); err != nil {
		t.Fatalf("builder: %v", err)
	}

	rngs := NewRNGAdapter()
	sampler := NewDensitySampler()
	draw := func() *model.Dataset {
		rng := rngs.Stream("fixture", "null", "7", 42)
		data, err := sampler.Sample(context.Background(), px, b.ParamSet(), 50, rng)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		return data
	}

	first, second := draw(), draw()
	for i := 0; i < first.NumEntries(); i++ {
		if !reflect.DeepEqual(first.Row(i), second.Row(i)) {
			t.Fatalf("row %d differs between identically keyed streams", i)
		}
	}

	other := rngs.Stream("fixture", "null", "8", 42)
	third, err := sampler.Sample(context.Background(), px, b.ParamSet(), 50, other)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	same := true
	for i := 0; i < first.NumEntries(); i++ {
		if !reflect.DeepEqual(first.Row(i), third.Row(i)) {
			same = false
			break
		}
	}
	if same {
		t.Error("different toy keys produced identical samples")
	}
}

func TestPoissonSampleMean(t *testing.T) {
	b := model.NewBuilder()
	bkg := b.Param("b", 100, 0.1, 300)
	obs := b.Observable("x", 0, 500)
	px := b.Poisson("px", obs, model.Sum(bkg))
	if err := b.Err(); err != nil {
		t.Fatalf("builder: %v", err)
	}

	rng := NewRNGAdapter().SeededStream(7)
	data, err := NewDensitySampler().Sample(context.Background(), px, b.ParamSet(), 2000, rng)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	sum, err := data.SumColumn("x")
	if err != nil {
		t.Fatalf("SumColumn: %v", err)
	}
	mean := sum / float64(data.NumEntries())
	if mean < 97 || mean > 103 {
		t.Errorf("sample mean = %g, want about 100", mean)
	}
}

func TestExtendedDrawUsesPredictedYield(t *testing.T) {
	b := model.NewBuilder()
	nSig := b.Param("n_sig", 200, 0, 10000)
	nBkg := b.Param("n_bkg", 800, 0, 10000)
	obs := b.Observable("m", 0, 10)
	peak := b.Gaussian("peak", obs, model.C(5), model.C(0.5))
	flat := b.Uniform("flat", obs)
	total := b.ExtendedAdd("total", []model.PDF{peak, flat}, []model.Expr{nSig, nBkg})
	if err := b.Err(); err != nil {
		t.Fatalf("builder: %v", err)
	}

	rng := NewRNGAdapter().SeededStream(11)
	data, err := NewDensitySampler().Sample(context.Background(), total, b.ParamSet(), 0, rng)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	n := data.NumEntries()
	if n < 850 || n > 1150 {
		t.Errorf("extended draw produced %d events, want about 1000", n)
	}
}

func TestChebychevSamplesStayInRange(t *testing.T) {
	b := model.NewBuilder()
	slope := b.Param("slope", -0.3, -1, 1)
	obs := b.Observable("m", 0, 10)
	shape := b.Chebychev("shape", obs, slope)
	if err := b.Err(); err != nil {
		t.Fatalf("builder: %v", err)
	}

	rng := NewRNGAdapter().SeededStream(3)
	data, err := NewDensitySampler().Sample(context.Background(), shape, b.ParamSet(), 500, rng)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	col, err := data.Column("m")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for _, v := range col {
		if v < 0 || v > 10 {
			t.Fatalf("sampled value %g outside the observable range", v)
		}
	}
}

func TestGammaPosteriorPrior(t *testing.T) {
	prior := PosteriorFromAuxCount("b", 100, 1)
	rng := NewRNGAdapter().SeededStream(5)

	const n = 5000
	sum := 0.0
	for i := 0; i < n; i++ {
		ps, err := prior.Sample(rng)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		v, ok := ps.Value("b")
		if !ok {
			t.Fatal("prior draw misses its parameter")
		}
		if v <= 0 {
			t.Fatalf("prior drew non-positive background %g", v)
		}
		sum += v
	}
	mean := sum / n
	// Gamma(101, 1) has mean 101.
	if mean < 99.5 || mean > 102.5 {
		t.Errorf("prior mean = %g, want about 101", mean)
	}
}

func TestBoundedGaussianPrior(t *testing.T) {
	prior := &GaussianPrior{ParamName: "eff", Mean: 0.9, Sigma: 0.3, Lo: 0, Hi: 1}
	rng := NewRNGAdapter().SeededStream(13)
	for i := 0; i < 1000; i++ {
		ps, err := prior.Sample(rng)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		v, _ := ps.Value("eff")
		if v < 0 || v > 1 {
			t.Fatalf("bounded draw %g escaped [0, 1]", v)
		}
	}
}

func TestPriorLogDensity(t *testing.T) {
	prior := &FlatPrior{ParamName: "b", Lo: 0, Hi: 10}
	ps := model.NewParamSet().With("b", 5)
	if got := prior.LogDensity(ps); math.Abs(got-(-math.Log(10))) > 1e-12 {
		t.Errorf("flat prior log density = %g, want %g", got, -math.Log(10))
	}
	outside := model.NewParamSet().With("b", 11)
	if got := prior.LogDensity(outside); !math.IsInf(got, -1) {
		t.Errorf("log density outside support = %g, want -Inf", got)
	}
}
