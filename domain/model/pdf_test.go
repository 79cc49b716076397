package model

import (
	"math"
	"testing"
)

func poissonLogProb(k, lambda float64) float64 {
	lg, _ := math.Lgamma(k + 1)
	return k*math.Log(lambda) - lambda - lg
}

func TestPoissonLogProb(t *testing.T) {
	obs := Observable{Name: "x", Min: 0, Max: 500}
	pdf := &PoissonPDF{PDFName: "px", Obs: obs, Rate: Sum(P("s"), P("b"))}
	ps := ParamSetFrom(map[string]float64{"s": 50, "b": 100})

	got := pdf.LogProb(map[string]float64{"x": 150}, ps)
	want := poissonLogProb(150, 150)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb(150 | 150) = %g, want %g", got, want)
	}

	zero := ParamSetFrom(map[string]float64{"s": 0, "b": 0})
	if v := pdf.LogProb(map[string]float64{"x": 0}, zero); v != 0 {
		t.Errorf("LogProb(0 | 0) = %g, want 0", v)
	}
	if v := pdf.LogProb(map[string]float64{"x": 1}, zero); !math.IsInf(v, -1) {
		t.Errorf("LogProb(1 | 0) = %g, want -Inf", v)
	}

	negative := ParamSetFrom(map[string]float64{"s": -200, "b": 100})
	if v := pdf.LogProb(map[string]float64{"x": 150}, negative); !math.IsNaN(v) {
		t.Errorf("LogProb with negative rate = %g, want NaN", v)
	}
}

func TestGaussianLogProb(t *testing.T) {
	obs := Observable{Name: "m", Min: 0, Max: 10}
	pdf := &GaussianPDF{PDFName: "g", Obs: obs, Mean: C(5), Sigma: C(0.5)}
	ps := NewParamSet()

	got := pdf.LogProb(map[string]float64{"m": 5}, ps)
	want := -math.Log(0.5) - 0.5*math.Log(2*math.Pi)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb at mean = %g, want %g", got, want)
	}

	bad := &GaussianPDF{PDFName: "g", Obs: obs, Mean: C(5), Sigma: C(-1)}
	if v := bad.LogProb(map[string]float64{"m": 5}, ps); !math.IsNaN(v) {
		t.Errorf("LogProb with negative sigma = %g, want NaN", v)
	}
}

func TestChebychevNormalization(t *testing.T) {
	obs := Observable{Name: "m", Min: 0, Max: 10}
	pdf := &ChebychevPDF{PDFName: "bkg", Obs: obs, Coeffs: []Expr{C(-0.3), C(0.1)}}
	ps := NewParamSet()

	// Riemann sum of the density over the range.
	const steps = 20000
	dx := obs.Width() / steps
	total := 0.0
	for i := 0; i < steps; i++ {
		x := obs.Min + (float64(i)+0.5)*dx
		lp := pdf.LogProb(map[string]float64{"m": x}, ps)
		if math.IsNaN(lp) {
			t.Fatalf("density is NaN at m = %g", x)
		}
		total += math.Exp(lp) * dx
	}
	if math.Abs(total-1) > 1e-3 {
		t.Errorf("density integrates to %g, want 1", total)
	}
}

func TestProductLogProbSumsComponents(t *testing.T) {
	obsX := Observable{Name: "x", Min: 0, Max: 500}
	obsY := Observable{Name: "y", Min: 0, Max: 500}
	px := &PoissonPDF{PDFName: "px", Obs: obsX, Rate: Sum(P("s"), P("b"))}
	py := &PoissonPDF{PDFName: "py", Obs: obsY, Rate: P("b")}
	joint := &ProductPDF{PDFName: "joint", Components: []PDF{px, py}}

	ps := ParamSetFrom(map[string]float64{"s": 50, "b": 100})
	event := map[string]float64{"x": 150, "y": 100}

	got := joint.LogProb(event, ps)
	want := px.LogProb(event, ps) + py.LogProb(event, ps)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("joint LogProb = %g, want %g", got, want)
	}
}

func TestMixtureOfIdenticalComponents(t *testing.T) {
	obs := Observable{Name: "m", Min: 0, Max: 10}
	u1 := &UniformPDF{PDFName: "u1", Obs: obs}
	u2 := &UniformPDF{PDFName: "u2", Obs: obs}
	mix := &AddPDF{PDFName: "mix", Components: []PDF{u1, u2}, Fracs: []Expr{C(0.3)}}

	ps := NewParamSet()
	got := mix.LogProb(map[string]float64{"m": 4}, ps)
	want := -math.Log(10.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("mixture LogProb = %g, want %g", got, want)
	}
}

func TestExtendedAddYields(t *testing.T) {
	obs := Observable{Name: "m", Min: 0, Max: 10}
	peak := &GaussianPDF{PDFName: "peak", Obs: obs, Mean: C(5), Sigma: C(0.5)}
	flat := &UniformPDF{PDFName: "flat", Obs: obs}
	total := &AddPDF{
		PDFName:    "total",
		Components: []PDF{peak, flat},
		Yields:     []Expr{P("n_sig"), P("n_bkg")},
	}

	ps := ParamSetFrom(map[string]float64{"n_sig": 200, "n_bkg": 800})
	if !total.Extended() {
		t.Fatal("yield-weighted sum is not extended")
	}
	if nu := total.ExpectedEvents(ps); nu != 1000 {
		t.Errorf("ExpectedEvents = %g, want 1000", nu)
	}

	event := map[string]float64{"m": 5}
	intensity := total.LogIntensity(event, ps)
	want := math.Log(200*math.Exp(peak.LogProb(event, ps)) + 800*math.Exp(flat.LogProb(event, ps)))
	if math.Abs(intensity-want) > 1e-12 {
		t.Errorf("LogIntensity = %g, want %g", intensity, want)
	}
}
