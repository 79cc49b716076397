package model

import (
	"fmt"
	"sort"

	"hybridtest/internal/errors"
)

// Builder assembles parameters, observables, and nested densities into a
// named component registry. Components are referenced by handle, not by
// string expression, so a model is fully typed once it builds.
type Builder struct {
	params      map[string]Param
	paramOrder  []string
	observables map[string]Observable
	pdfs        map[string]PDF
	err         error
}

// NewBuilder creates an empty model builder
func NewBuilder() *Builder {
	return &Builder{
		params:      map[string]Param{},
		observables: map[string]Observable{},
		pdfs:        map[string]PDF{},
	}
}

// Param declares a floating parameter and returns a reference to it
func (b *Builder) Param(name string, value, min, max float64) ParamRef {
	if _, exists := b.params[name]; exists {
		b.fail("parameter %q declared twice", name)
		return P(name)
	}
	if min > max || value < min || value > max {
		b.fail("parameter %q: value %g outside range [%g, %g]", name, value, min, max)
	}
	b.params[name] = Param{Name: name, Value: value, Min: min, Max: max}
	b.paramOrder = append(b.paramOrder, name)
	return P(name)
}

// Const declares a frozen parameter and returns a reference to it
func (b *Builder) Const(name string, value float64) ParamRef {
	return b.Param(name, value, value, value)
}

// Observable declares a measured quantity with its range
func (b *Builder) Observable(name string, min, max float64) Observable {
	if _, exists := b.observables[name]; exists {
		b.fail("observable %q declared twice", name)
	}
	if min >= max {
		b.fail("observable %q: empty range [%g, %g]", name, min, max)
	}
	obs := Observable{Name: name, Min: min, Max: max}
	b.observables[name] = obs
	return obs
}

// Poisson adds a Poisson density over an integer observable
func (b *Builder) Poisson(name string, obs Observable, rate Expr) PDF {
	return b.register(&PoissonPDF{PDFName: name, Obs: obs, Rate: rate})
}

// Gaussian adds a normal density
func (b *Builder) Gaussian(name string, obs Observable, mean, sigma Expr) PDF {
	return b.register(&GaussianPDF{PDFName: name, Obs: obs, Mean: mean, Sigma: sigma})
}

// Gamma adds a gamma density with shape and rate expressions
func (b *Builder) Gamma(name string, obs Observable, shape, rate Expr) PDF {
	return b.register(&GammaPDF{PDFName: name, Obs: obs, Shape: shape, Rate: rate})
}

// Lognormal adds a log-normal density with median and kappa expressions
func (b *Builder) Lognormal(name string, obs Observable, median, kappa Expr) PDF {
	return b.register(&LognormalPDF{PDFName: name, Obs: obs, Median: median, Kappa: kappa})
}

// Uniform adds a flat density over the observable range
func (b *Builder) Uniform(name string, obs Observable) PDF {
	return b.register(&UniformPDF{PDFName: name, Obs: obs})
}

// Chebychev adds a Chebychev polynomial density
func (b *Builder) Chebychev(name string, obs Observable, coeffs ...Expr) PDF {
	return b.register(&ChebychevPDF{PDFName: name, Obs: obs, Coeffs: coeffs})
}

// Product adds a product of densities over disjoint observables
func (b *Builder) Product(name string, components ...PDF) PDF {
	seen := map[string]string{}
	for _, comp := range components {
		for _, o := range comp.Observables() {
			if prev, dup := seen[o.Name]; dup && prev != comp.Name() {
				b.fail("product %q: observable %q appears in %q and %q", name, o.Name, prev, comp.Name())
			}
			seen[o.Name] = comp.Name()
		}
	}
	return b.register(&ProductPDF{PDFName: name, Components: components})
}

// Mixture adds a fraction-weighted sum; fracs has one fewer entry than
// components and the last component takes the remainder.
func (b *Builder) Mixture(name string, components []PDF, fracs []Expr) PDF {
	if len(components) < 2 {
		b.fail("mixture %q needs at least two components", name)
	}
	if len(fracs) != len(components)-1 {
		b.fail("mixture %q: %d components need %d fractions, got %d",
			name, len(components), len(components)-1, len(fracs))
	}
	return b.register(&AddPDF{PDFName: name, Components: components, Fracs: fracs})
}

// ExtendedAdd adds a yield-weighted sum whose total predicts the event count
func (b *Builder) ExtendedAdd(name string, components []PDF, yields []Expr) PDF {
	if len(yields) != len(components) {
		b.fail("extended sum %q: %d components need %d yields, got %d",
			name, len(components), len(components), len(yields))
	}
	return b.register(&AddPDF{PDFName: name, Components: components, Yields: yields})
}

// Params returns all declared parameters in declaration order
func (b *Builder) Params() []Param {
	out := make([]Param, 0, len(b.paramOrder))
	for _, name := range b.paramOrder {
		out = append(out, b.params[name])
	}
	return out
}

// FloatingParams returns the non-constant parameters in declaration order
func (b *Builder) FloatingParams() []Param {
	var out []Param
	for _, p := range b.Params() {
		if !p.IsConstant() {
			out = append(out, p)
		}
	}
	return out
}

// ParamSet returns the declared starting values of all parameters
func (b *Builder) ParamSet() ParamSet {
	return InitialValues(b.Params())
}

// PDF looks up a registered density by name
func (b *Builder) PDF(name string) (PDF, error) {
	pdf, ok := b.pdfs[name]
	if !ok {
		return nil, errors.NotFound("pdf " + name)
	}
	return pdf, nil
}

// PDFNames returns all registered density names sorted
func (b *Builder) PDFNames() []string {
	names := make([]string, 0, len(b.pdfs))
	for name := range b.pdfs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns the first construction error, if any
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) register(pdf PDF) PDF {
	if _, exists := b.pdfs[pdf.Name()]; exists {
		b.fail("pdf %q declared twice", pdf.Name())
	}
	b.pdfs[pdf.Name()] = pdf
	return pdf
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = errors.ConfigInvalid(fmt.Sprintf(format, args...))
	}
}
