package model

import "math"

// PDF is a probability density over one or more observables. LogProb returns
// the log density of a single event under the given parameter values; it
// returns -Inf for zero density and NaN for an invalid parameter point.
type PDF interface {
	Name() string
	Observables() []Observable
	LogProb(event map[string]float64, ps ParamSet) float64
}

// ExtendedPDF is a PDF that additionally predicts the total event count.
// Extended fits add an overall Poisson term on the observed number of events.
type ExtendedPDF interface {
	PDF
	ExpectedEvents(ps ParamSet) float64
	// LogIntensity is the log of the unnormalized event rate density,
	// log(nu_total * p(event)).
	LogIntensity(event map[string]float64, ps ParamSet) float64
}

// PoissonPDF is a Poisson probability over an integer-valued observable
type PoissonPDF struct {
	PDFName string
	Obs     Observable
	Rate    Expr
}

func (p *PoissonPDF) Name() string              { return p.PDFName }
func (p *PoissonPDF) Observables() []Observable { return []Observable{p.Obs} }

func (p *PoissonPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	k, ok := event[p.Obs.Name]
	if !ok {
		return math.NaN()
	}
	lambda := p.Rate.Eval(ps)
	if math.IsNaN(lambda) || lambda < 0 {
		return math.NaN()
	}
	if lambda == 0 {
		if k == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	lg, _ := math.Lgamma(k + 1)
	return k*math.Log(lambda) - lambda - lg
}

// GaussianPDF is a normal density over one observable
type GaussianPDF struct {
	PDFName string
	Obs     Observable
	Mean    Expr
	Sigma   Expr
}

func (g *GaussianPDF) Name() string              { return g.PDFName }
func (g *GaussianPDF) Observables() []Observable { return []Observable{g.Obs} }

func (g *GaussianPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	x, ok := event[g.Obs.Name]
	if !ok {
		return math.NaN()
	}
	mean := g.Mean.Eval(ps)
	sigma := g.Sigma.Eval(ps)
	if math.IsNaN(mean) || math.IsNaN(sigma) || sigma <= 0 {
		return math.NaN()
	}
	z := (x - mean) / sigma
	return -0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi)
}

// GammaPDF is a gamma density parameterized by shape and rate
type GammaPDF struct {
	PDFName string
	Obs     Observable
	Shape   Expr
	Rate    Expr
}

func (g *GammaPDF) Name() string              { return g.PDFName }
func (g *GammaPDF) Observables() []Observable { return []Observable{g.Obs} }

func (g *GammaPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	x, ok := event[g.Obs.Name]
	if !ok {
		return math.NaN()
	}
	shape := g.Shape.Eval(ps)
	rate := g.Rate.Eval(ps)
	if math.IsNaN(shape) || math.IsNaN(rate) || shape <= 0 || rate <= 0 {
		return math.NaN()
	}
	if x < 0 {
		return math.Inf(-1)
	}
	if x == 0 {
		if shape < 1 {
			return math.Inf(1)
		}
		if shape > 1 {
			return math.Inf(-1)
		}
		return math.Log(rate)
	}
	lg, _ := math.Lgamma(shape)
	return shape*math.Log(rate) + (shape-1)*math.Log(x) - rate*x - lg
}

// LognormalPDF is a log-normal density parameterized by its median and the
// multiplicative width kappa (sigma of the underlying normal is ln(kappa)).
type LognormalPDF struct {
	PDFName string
	Obs     Observable
	Median  Expr
	Kappa   Expr
}

func (l *LognormalPDF) Name() string              { return l.PDFName }
func (l *LognormalPDF) Observables() []Observable { return []Observable{l.Obs} }

func (l *LognormalPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	x, ok := event[l.Obs.Name]
	if !ok {
		return math.NaN()
	}
	median := l.Median.Eval(ps)
	kappa := l.Kappa.Eval(ps)
	if math.IsNaN(median) || math.IsNaN(kappa) || median <= 0 || kappa <= 1 {
		return math.NaN()
	}
	if x <= 0 {
		return math.Inf(-1)
	}
	mu := math.Log(median)
	sigma := math.Log(kappa)
	z := (math.Log(x) - mu) / sigma
	return -0.5*z*z - math.Log(x*sigma) - 0.5*math.Log(2*math.Pi)
}

// UniformPDF is a flat density over the observable range
type UniformPDF struct {
	PDFName string
	Obs     Observable
}

func (u *UniformPDF) Name() string              { return u.PDFName }
func (u *UniformPDF) Observables() []Observable { return []Observable{u.Obs} }

func (u *UniformPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	x, ok := event[u.Obs.Name]
	if !ok {
		return math.NaN()
	}
	if !u.Obs.Contains(x) {
		return math.Inf(-1)
	}
	return -math.Log(u.Obs.Width())
}

// ChebychevPDF is a Chebychev polynomial density over the observable range.
// Coeffs are the coefficients of T_1, T_2, ... on top of an implicit T_0 = 1;
// the density is normalized analytically over [Min, Max].
type ChebychevPDF struct {
	PDFName string
	Obs     Observable
	Coeffs  []Expr
}

func (c *ChebychevPDF) Name() string              { return c.PDFName }
func (c *ChebychevPDF) Observables() []Observable { return []Observable{c.Obs} }

func (c *ChebychevPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	x, ok := event[c.Obs.Name]
	if !ok {
		return math.NaN()
	}
	if !c.Obs.Contains(x) {
		return math.Inf(-1)
	}
	// Map onto [-1, 1] and evaluate T_n by recurrence.
	u := 2*(x-c.Obs.Min)/c.Obs.Width() - 1
	value := 1.0
	tPrev, tCur := 1.0, u
	for i, coeff := range c.Coeffs {
		ci := coeff.Eval(ps)
		if math.IsNaN(ci) {
			return math.NaN()
		}
		value += ci * tCur
		if i+1 < len(c.Coeffs) {
			tPrev, tCur = tCur, 2*u*tCur-tPrev
		}
	}
	norm := c.normalization(ps)
	if math.IsNaN(norm) || norm <= 0 || value < 0 {
		return math.NaN()
	}
	if value == 0 {
		return math.Inf(-1)
	}
	return math.Log(value) - math.Log(norm)
}

// normalization integrates the polynomial over the range. Odd Chebychev
// polynomials integrate to zero on [-1, 1]; even ones to 2/(1 - n^2).
func (c *ChebychevPDF) normalization(ps ParamSet) float64 {
	total := 2.0
	for i, coeff := range c.Coeffs {
		n := i + 1
		if n%2 == 0 {
			total += coeff.Eval(ps) * 2 / (1 - float64(n*n))
		}
	}
	return total * c.Obs.Width() / 2
}

// MaxDensity bounds the density on the range for accept-reject sampling
func (c *ChebychevPDF) MaxDensity(ps ParamSet) float64 {
	const probes = 512
	max := 0.0
	for i := 0; i <= probes; i++ {
		x := c.Obs.Min + c.Obs.Width()*float64(i)/probes
		lp := c.LogProb(map[string]float64{c.Obs.Name: x}, ps)
		if d := math.Exp(lp); d > max {
			max = d
		}
	}
	return max
}

// ProductPDF multiplies densities over disjoint observables
type ProductPDF struct {
	PDFName    string
	Components []PDF
}

func (p *ProductPDF) Name() string { return p.PDFName }

func (p *ProductPDF) Observables() []Observable {
	var obs []Observable
	for _, comp := range p.Components {
		obs = append(obs, comp.Observables()...)
	}
	return obs
}

func (p *ProductPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	total := 0.0
	for _, comp := range p.Components {
		total += comp.LogProb(event, ps)
	}
	return total
}

// AddPDF combines component densities over a shared observable. With Fracs it
// is a mixture with n-1 fraction coefficients (the last component takes the
// remainder); with Yields it is an extended sum whose total predicts the
// event count.
type AddPDF struct {
	PDFName    string
	Components []PDF
	Fracs      []Expr
	Yields     []Expr
}

func (a *AddPDF) Name() string { return a.PDFName }

func (a *AddPDF) Observables() []Observable {
	seen := map[string]bool{}
	var obs []Observable
	for _, comp := range a.Components {
		for _, o := range comp.Observables() {
			if !seen[o.Name] {
				seen[o.Name] = true
				obs = append(obs, o)
			}
		}
	}
	return obs
}

// Extended reports whether the sum predicts a total event count
func (a *AddPDF) Extended() bool {
	return len(a.Yields) > 0
}

func (a *AddPDF) LogProb(event map[string]float64, ps ParamSet) float64 {
	weights := a.weights(ps)
	total := 0.0
	density := 0.0
	for i, comp := range a.Components {
		w := weights[i]
		if math.IsNaN(w) || w < 0 {
			return math.NaN()
		}
		total += w
		density += w * math.Exp(comp.LogProb(event, ps))
	}
	if total <= 0 || math.IsNaN(density) {
		return math.NaN()
	}
	if density == 0 {
		return math.Inf(-1)
	}
	return math.Log(density / total)
}

// ExpectedEvents returns the predicted total yield of an extended sum
func (a *AddPDF) ExpectedEvents(ps ParamSet) float64 {
	total := 0.0
	for _, y := range a.Yields {
		total += y.Eval(ps)
	}
	return total
}

// LogIntensity returns log of the summed yield-weighted densities
func (a *AddPDF) LogIntensity(event map[string]float64, ps ParamSet) float64 {
	intensity := 0.0
	for i, comp := range a.Components {
		y := a.Yields[i].Eval(ps)
		if math.IsNaN(y) || y < 0 {
			return math.NaN()
		}
		intensity += y * math.Exp(comp.LogProb(event, ps))
	}
	if math.IsNaN(intensity) {
		return math.NaN()
	}
	if intensity == 0 {
		return math.Inf(-1)
	}
	return math.Log(intensity)
}

// weights returns per-component mixture weights; for fraction form the last
// component takes 1 minus the sum of the declared fractions.
func (a *AddPDF) weights(ps ParamSet) []float64 {
	weights := make([]float64, len(a.Components))
	if a.Extended() {
		for i, y := range a.Yields {
			weights[i] = y.Eval(ps)
		}
		return weights
	}
	rest := 1.0
	for i, f := range a.Fracs {
		weights[i] = f.Eval(ps)
		rest -= weights[i]
	}
	weights[len(weights)-1] = rest
	return weights
}
