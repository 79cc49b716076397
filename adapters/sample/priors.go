package sample

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"hybridtest/domain/model"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

const priorMaxTries = 100000

// GammaPrior draws one nuisance parameter from a gamma density. Lo and Hi,
// when set with Lo < Hi, bound the draws by rejection so a sampled value
// never leaves the parameter range.
type GammaPrior struct {
	ParamName string
	Shape     float64
	Rate      float64
	Lo        float64
	Hi        float64
}

// PosteriorFromAuxCount builds the gamma posterior of a Poisson mean given
// an auxiliary count k observed with scale tau: Gamma(k+1, tau) under a flat
// prior on the mean.
func PosteriorFromAuxCount(param string, auxCount, tau float64) *GammaPrior {
	return &GammaPrior{ParamName: param, Shape: auxCount + 1, Rate: tau}
}

func (g *GammaPrior) Name() string {
	return fmt.Sprintf("gamma(%s)", g.ParamName)
}

func (g *GammaPrior) Parameters() []string {
	return []string{g.ParamName}
}

func (g *GammaPrior) Sample(rng *rand.Rand) (model.ParamSet, error) {
	if g.Shape <= 0 || g.Rate <= 0 {
		return model.ParamSet{}, errors.ConfigInvalid(fmt.Sprintf("prior %s: invalid shape/rate %g/%g", g.Name(), g.Shape, g.Rate))
	}
	dist := distuv.Gamma{Alpha: g.Shape, Beta: g.Rate, Src: rng}
	for i := 0; i < priorMaxTries; i++ {
		v := dist.Rand()
		if g.Lo < g.Hi && (v < g.Lo || v > g.Hi) {
			continue
		}
		return model.NewParamSet().With(g.ParamName, v), nil
	}
	return model.ParamSet{}, errors.InternalError(fmt.Sprintf("prior %s: bounded draw failed to converge", g.Name()))
}

func (g *GammaPrior) LogDensity(ps model.ParamSet) float64 {
	v, ok := ps.Value(g.ParamName)
	if !ok {
		return math.NaN()
	}
	return distuv.Gamma{Alpha: g.Shape, Beta: g.Rate}.LogProb(v)
}

// GaussianPrior draws one nuisance parameter from a normal density,
// optionally truncated to [Lo, Hi] by rejection
type GaussianPrior struct {
	ParamName string
	Mean      float64
	Sigma     float64
	Lo        float64
	Hi        float64
}

func (g *GaussianPrior) Name() string {
	return fmt.Sprintf("gaussian(%s)", g.ParamName)
}

func (g *GaussianPrior) Parameters() []string {
	return []string{g.ParamName}
}

func (g *GaussianPrior) Sample(rng *rand.Rand) (model.ParamSet, error) {
	if g.Sigma <= 0 {
		return model.ParamSet{}, errors.ConfigInvalid(fmt.Sprintf("prior %s: invalid sigma %g", g.Name(), g.Sigma))
	}
	dist := distuv.Normal{Mu: g.Mean, Sigma: g.Sigma, Src: rng}
	for i := 0; i < priorMaxTries; i++ {
		v := dist.Rand()
		if g.Lo < g.Hi && (v < g.Lo || v > g.Hi) {
			continue
		}
		return model.NewParamSet().With(g.ParamName, v), nil
	}
	return model.ParamSet{}, errors.InternalError(fmt.Sprintf("prior %s: bounded draw failed to converge", g.Name()))
}

func (g *GaussianPrior) LogDensity(ps model.ParamSet) float64 {
	v, ok := ps.Value(g.ParamName)
	if !ok {
		return math.NaN()
	}
	return distuv.Normal{Mu: g.Mean, Sigma: g.Sigma}.LogProb(v)
}

// LognormalPrior draws one nuisance parameter from a log-normal density
// given its median and multiplicative width kappa
type LognormalPrior struct {
	ParamName string
	Median    float64
	Kappa     float64
}

func (l *LognormalPrior) Name() string {
	return fmt.Sprintf("lognormal(%s)", l.ParamName)
}

func (l *LognormalPrior) Parameters() []string {
	return []string{l.ParamName}
}

func (l *LognormalPrior) Sample(rng *rand.Rand) (model.ParamSet, error) {
	if l.Median <= 0 || l.Kappa <= 1 {
		return model.ParamSet{}, errors.ConfigInvalid(fmt.Sprintf("prior %s: invalid median/kappa %g/%g", l.Name(), l.Median, l.Kappa))
	}
	dist := distuv.LogNormal{Mu: math.Log(l.Median), Sigma: math.Log(l.Kappa), Src: rng}
	return model.NewParamSet().With(l.ParamName, dist.Rand()), nil
}

func (l *LognormalPrior) LogDensity(ps model.ParamSet) float64 {
	v, ok := ps.Value(l.ParamName)
	if !ok {
		return math.NaN()
	}
	return distuv.LogNormal{Mu: math.Log(l.Median), Sigma: math.Log(l.Kappa)}.LogProb(v)
}

// FlatPrior draws one nuisance parameter uniformly over [Lo, Hi]
type FlatPrior struct {
	ParamName string
	Lo        float64
	Hi        float64
}

func (f *FlatPrior) Name() string {
	return fmt.Sprintf("flat(%s)", f.ParamName)
}

func (f *FlatPrior) Parameters() []string {
	return []string{f.ParamName}
}

func (f *FlatPrior) Sample(rng *rand.Rand) (model.ParamSet, error) {
	if f.Lo >= f.Hi {
		return model.ParamSet{}, errors.ConfigInvalid(fmt.Sprintf("prior %s: empty range [%g, %g]", f.Name(), f.Lo, f.Hi))
	}
	v := distuv.Uniform{Min: f.Lo, Max: f.Hi, Src: rng}.Rand()
	return model.NewParamSet().With(f.ParamName, v), nil
}

func (f *FlatPrior) LogDensity(ps model.ParamSet) float64 {
	v, ok := ps.Value(f.ParamName)
	if !ok {
		return math.NaN()
	}
	if v < f.Lo || v > f.Hi {
		return math.Inf(-1)
	}
	return -math.Log(f.Hi - f.Lo)
}

var (
	_ ports.NuisancePrior = (*GammaPrior)(nil)
	_ ports.NuisancePrior = (*GaussianPrior)(nil)
	_ ports.NuisancePrior = (*LognormalPrior)(nil)
	_ ports.NuisancePrior = (*FlatPrior)(nil)
)
