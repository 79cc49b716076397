package sample

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"hybridtest/domain/model"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

// DensitySampler draws events from the concrete density types. Distributions
// with a closed sampling form use direct draws; polynomial shapes fall back
// to accept-reject over the observable range.
type DensitySampler struct{}

// NewDensitySampler creates the default event sampler
func NewDensitySampler() *DensitySampler {
	return &DensitySampler{}
}

// Sample draws n events at the given parameter point. A non positive n asks
// for an extended draw from the density's predicted yield.
func (s *DensitySampler) Sample(ctx context.Context, pdf model.PDF, ps model.ParamSet, n int, rng *rand.Rand) (*model.Dataset, error) {
	if n <= 0 {
		ext, ok := pdf.(model.ExtendedPDF)
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q cannot predict an event count", pdf.Name()))
		}
		nu := ext.ExpectedEvents(ps)
		if math.IsNaN(nu) || nu < 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: invalid expected yield %g", pdf.Name(), nu))
		}
		n = int(distuv.Poisson{Lambda: nu, Src: rng}.Rand())
	}

	obs := pdf.Observables()
	data := model.NewDataset(observableNames(obs)...)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		event, err := s.drawEvent(pdf, ps, rng)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(obs))
		for j, o := range obs {
			values[j] = event[o.Name]
		}
		if err := data.Append(values...); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (s *DensitySampler) drawEvent(pdf model.PDF, ps model.ParamSet, rng *rand.Rand) (map[string]float64, error) {
	switch p := pdf.(type) {
	case *model.PoissonPDF:
		lambda := p.Rate.Eval(ps)
		if math.IsNaN(lambda) || lambda < 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: invalid rate %g", p.Name(), lambda))
		}
		return map[string]float64{p.Obs.Name: distuv.Poisson{Lambda: lambda, Src: rng}.Rand()}, nil

	case *model.GaussianPDF:
		mean := p.Mean.Eval(ps)
		sigma := p.Sigma.Eval(ps)
		if math.IsNaN(mean) || sigma <= 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: invalid mean/sigma %g/%g", p.Name(), mean, sigma))
		}
		return map[string]float64{p.Obs.Name: distuv.Normal{Mu: mean, Sigma: sigma, Src: rng}.Rand()}, nil

	case *model.GammaPDF:
		shape := p.Shape.Eval(ps)
		rate := p.Rate.Eval(ps)
		if shape <= 0 || rate <= 0 || math.IsNaN(shape) || math.IsNaN(rate) {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: invalid shape/rate %g/%g", p.Name(), shape, rate))
		}
		return map[string]float64{p.Obs.Name: distuv.Gamma{Alpha: shape, Beta: rate, Src: rng}.Rand()}, nil

	case *model.LognormalPDF:
		median := p.Median.Eval(ps)
		kappa := p.Kappa.Eval(ps)
		if median <= 0 || kappa <= 1 || math.IsNaN(median) || math.IsNaN(kappa) {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: invalid median/kappa %g/%g", p.Name(), median, kappa))
		}
		return map[string]float64{p.Obs.Name: distuv.LogNormal{Mu: math.Log(median), Sigma: math.Log(kappa), Src: rng}.Rand()}, nil

	case *model.UniformPDF:
		return map[string]float64{p.Obs.Name: distuv.Uniform{Min: p.Obs.Min, Max: p.Obs.Max, Src: rng}.Rand()}, nil

	case *model.ChebychevPDF:
		return s.drawChebychev(p, ps, rng)

	case *model.ProductPDF:
		event := map[string]float64{}
		for _, comp := range p.Components {
			sub, err := s.drawEvent(comp, ps, rng)
			if err != nil {
				return nil, err
			}
			for name, v := range sub {
				event[name] = v
			}
		}
		return event, nil

	case *model.AddPDF:
		return s.drawAdd(p, ps, rng)

	default:
		return nil, errors.InvalidInput(fmt.Sprintf("no sampling rule for pdf %q", pdf.Name()))
	}
}

// drawChebychev uses accept-reject with a constant envelope over the range
func (s *DensitySampler) drawChebychev(p *model.ChebychevPDF, ps model.ParamSet, rng *rand.Rand) (map[string]float64, error) {
	max := p.MaxDensity(ps)
	if math.IsNaN(max) || max <= 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: non-positive density envelope", p.Name()))
	}
	const maxTries = 100000
	uni := distuv.Uniform{Min: p.Obs.Min, Max: p.Obs.Max, Src: rng}
	for i := 0; i < maxTries; i++ {
		x := uni.Rand()
		d := math.Exp(p.LogProb(map[string]float64{p.Obs.Name: x}, ps))
		if rng.Float64()*max <= d {
			return map[string]float64{p.Obs.Name: x}, nil
		}
	}
	return nil, errors.InternalError(fmt.Sprintf("pdf %q: accept-reject failed to converge", p.Name()))
}

// drawAdd picks a component by its mixture weight, then draws from it
func (s *DensitySampler) drawAdd(p *model.AddPDF, ps model.ParamSet, rng *rand.Rand) (map[string]float64, error) {
	weights := make([]float64, len(p.Components))
	total := 0.0
	if p.Extended() {
		for i, y := range p.Yields {
			weights[i] = y.Eval(ps)
			total += weights[i]
		}
	} else {
		rest := 1.0
		for i, f := range p.Fracs {
			weights[i] = f.Eval(ps)
			rest -= weights[i]
		}
		weights[len(weights)-1] = rest
		total = 1.0
	}
	if math.IsNaN(total) || total <= 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: non-positive total weight", p.Name()))
	}
	pick := rng.Float64() * total
	for i, comp := range p.Components {
		if weights[i] < 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("pdf %q: negative component weight", p.Name()))
		}
		pick -= weights[i]
		if pick <= 0 || i == len(p.Components)-1 {
			return s.drawEvent(comp, ps, rng)
		}
	}
	return nil, errors.InternalError(fmt.Sprintf("pdf %q: component pick fell through", p.Name()))
}

func observableNames(obs []model.Observable) []string {
	names := make([]string, len(obs))
	for i, o := range obs {
		names[i] = o.Name
	}
	return names
}

var _ ports.Sampler = (*DensitySampler)(nil)
