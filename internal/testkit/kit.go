package testkit

import (
	"hybridtest/adapters/fit"
	"hybridtest/adapters/sample"
	"hybridtest/domain/hypotest"
	"hybridtest/domain/model"
	"hybridtest/ports"
)

// Kit bundles the adapters tests share
type Kit struct {
	rng     *sample.RNGAdapter
	sampler *sample.DensitySampler
	fitter  *fit.MaximumLikelihoodFitter
}

// New creates a kit with default adapters
func New() *Kit {
	return &Kit{
		rng:     sample.NewRNGAdapter(),
		sampler: sample.NewDensitySampler(),
		fitter:  fit.NewMaximumLikelihoodFitter(),
	}
}

func (k *Kit) RNG() ports.RNGPort     { return k.rng }
func (k *Kit) Sampler() ports.Sampler { return k.sampler }
func (k *Kit) Fitter() ports.Fitter   { return k.fitter }

// CountingFixture is the on/off counting experiment used across the tests:
// a signal region count x ~ Pois(s + b) and a control region count
// y ~ Pois(tau * b), with s the parameter of interest.
type CountingFixture struct {
	Builder *model.Builder

	S   model.ParamRef
	B   model.ParamRef
	Tau model.ParamRef

	ObsX model.Observable
	ObsY model.Observable

	PX    model.PDF
	PY    model.PDF
	Joint model.PDF

	// ObservedX holds x = 150; ObservedXY adds the control count y = 100.
	ObservedX  *model.Dataset
	ObservedXY *model.Dataset

	NullX  hypotest.ModelConfig
	AltX   hypotest.ModelConfig
	NullXY hypotest.ModelConfig
	AltXY  hypotest.ModelConfig

	// Prior is the gamma posterior of b given the control count.
	Prior ports.NuisancePrior
}

// NewCountingFixture builds the prototype counting model with x = 150,
// y = 100, tau = 1, signal snapshot s = 50, background b = 100
func NewCountingFixture() *CountingFixture {
	b := model.NewBuilder()
	f := &CountingFixture{Builder: b}

	f.S = b.Param("s", 50, 0, 100)
	f.B = b.Param("b", 100, 0.1, 300)
	f.Tau = b.Const("tau", 1)

	f.ObsX = b.Observable("x", 0, 500)
	f.ObsY = b.Observable("y", 0.1, 500)

	f.PX = b.Poisson("px", f.ObsX, model.Sum(f.S, f.B))
	f.PY = b.Poisson("py", f.ObsY, model.Prod(f.Tau, f.B))
	f.Joint = b.Product("joint", f.PX, f.PY)

	f.ObservedX = model.NewDataset("x")
	_ = f.ObservedX.Append(150)
	f.ObservedXY = model.NewDataset("x", "y")
	_ = f.ObservedXY.Append(150, 100)

	base := b.ParamSet()
	f.NullX = hypotest.ModelConfig{
		Name:        "null",
		PDF:         f.PX,
		Observables: []model.Observable{f.ObsX},
		POI:         model.Param{Name: "s", Value: 0, Min: 0, Max: 100},
		Snapshot:    base.With("s", 0),
	}
	f.AltX = hypotest.ModelConfig{
		Name:        "alt",
		PDF:         f.PX,
		Observables: []model.Observable{f.ObsX},
		POI:         model.Param{Name: "s", Value: 50, Min: 0, Max: 100},
		Snapshot:    base.With("s", 50),
	}
	f.NullXY = f.NullX
	f.NullXY.PDF = f.Joint
	f.NullXY.Observables = []model.Observable{f.ObsX, f.ObsY}
	f.AltXY = f.AltX
	f.AltXY.PDF = f.Joint
	f.AltXY.Observables = []model.Observable{f.ObsX, f.ObsY}

	f.Prior = sample.PosteriorFromAuxCount("b", 100, 1)
	return f
}
