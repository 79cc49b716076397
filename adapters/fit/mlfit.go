package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/optimize"

	"hybridtest/domain/model"
	"hybridtest/internal/errors"
	"hybridtest/ports"
)

const (
	defaultMaxEvaluations = 20000
	// boundsPenaltyBase dominates any plausible likelihood value so the
	// simplex retreats from out-of-range points without ever evaluating
	// the density there.
	boundsPenaltyBase = 1e9
	invalidPenalty    = 1e12
	rangeQuadNodes    = 200
)

// MaximumLikelihoodFitter minimizes the negative log likelihood with a
// derivative-free simplex. Parameter bounds are enforced by penalty, fixed
// parameters are overlaid before each evaluation.
type MaximumLikelihoodFitter struct {
	MaxEvaluations int
}

// NewMaximumLikelihoodFitter creates a fitter with the default evaluation cap
func NewMaximumLikelihoodFitter() *MaximumLikelihoodFitter {
	return &MaximumLikelihoodFitter{MaxEvaluations: defaultMaxEvaluations}
}

// Fit minimizes the NLL of the request over its floating parameters
func (f *MaximumLikelihoodFitter) Fit(ctx context.Context, req ports.FitRequest) (ports.FitResult, error) {
	if req.PDF == nil {
		return ports.FitResult{}, errors.InvalidInput("fit request has no pdf")
	}
	if req.Data == nil {
		return ports.FitResult{}, errors.InvalidInput("fit request has no dataset")
	}
	var ext model.ExtendedPDF
	if req.Extended {
		var ok bool
		ext, ok = req.PDF.(model.ExtendedPDF)
		if !ok {
			return ports.FitResult{}, errors.InvalidInput(fmt.Sprintf("pdf %q cannot be fit extended", req.PDF.Name()))
		}
	}

	floating := floatingParams(req)
	base := model.InitialValues(req.Params).Merge(req.Fixed)

	logNorm, err := f.rangeLogNorm(req)
	if err != nil {
		return ports.FitResult{}, err
	}

	nll := func(x []float64) float64 {
		if penalty := boundsPenalty(x, floating); penalty > 0 {
			return boundsPenaltyBase + penalty
		}
		ps := overlay(base, floating, x)
		total := 0.0
		n := req.Data.NumEntries()
		if req.Extended {
			total += ext.ExpectedEvents(ps)
			for i := 0; i < n; i++ {
				total -= ext.LogIntensity(req.Data.Row(i), ps)
			}
		} else {
			for i := 0; i < n; i++ {
				total -= req.PDF.LogProb(req.Data.Row(i), ps)
			}
			if logNorm != nil {
				total += float64(n) * logNorm(ps)
			}
		}
		if math.IsNaN(total) || math.IsInf(total, 0) {
			return invalidPenalty
		}
		return total
	}

	if len(floating) == 0 {
		value := nll(nil)
		return ports.FitResult{Params: base, NLL: value, Converged: true}, nil
	}

	x0 := make([]float64, len(floating))
	for i, p := range floating {
		x0[i] = clamp(valueOr(base, p.Name, p.Value), p.Min, p.Max)
	}

	maxEvals := f.MaxEvaluations
	if maxEvals <= 0 {
		maxEvals = defaultMaxEvaluations
	}
	problem := optimize.Problem{Func: nll}
	settings := &optimize.Settings{FuncEvaluations: maxEvals}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return ports.FitResult{}, errors.FitFailure("minimization failed", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ports.FitResult{}, ctxErr
	}

	fitted := overlay(base, floating, result.X)
	out := ports.FitResult{
		Params:    fitted,
		NLL:       result.F,
		Converged: err == nil && result.F < boundsPenaltyBase,
		FuncEvals: result.Stats.FuncEvaluations,
	}
	if !out.Converged {
		return out, errors.FitFailure(fmt.Sprintf("fit of %q did not converge (nll %g after %d evaluations)", req.PDF.Name(), result.F, out.FuncEvals), err)
	}
	return out, nil
}

// rangeLogNorm builds the per-event log normalization correction for a
// range-restricted fit, or nil when no ranges are set. Only single
// observable densities support range restriction.
func (f *MaximumLikelihoodFitter) rangeLogNorm(req ports.FitRequest) (func(model.ParamSet) float64, error) {
	if len(req.Ranges) == 0 {
		return nil, nil
	}
	obs := req.PDF.Observables()
	if len(obs) != 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("range-restricted fit of %q needs a single observable", req.PDF.Name()))
	}
	var ranges []ports.FitRange
	for _, r := range req.Ranges {
		if r.Observable != obs[0].Name {
			return nil, errors.InvalidInput(fmt.Sprintf("fit range names unknown observable %q", r.Observable))
		}
		if r.Min >= r.Max {
			return nil, errors.InvalidInput(fmt.Sprintf("fit range [%g, %g] is empty", r.Min, r.Max))
		}
		ranges = append(ranges, r)
	}
	name := obs[0].Name
	return func(ps model.ParamSet) float64 {
		total := 0.0
		for _, r := range ranges {
			total += quad.Fixed(func(x float64) float64 {
				return math.Exp(req.PDF.LogProb(map[string]float64{name: x}, ps))
			}, r.Min, r.Max, rangeQuadNodes, nil, 0)
		}
		if total <= 0 || math.IsNaN(total) {
			return invalidPenalty
		}
		return math.Log(total)
	}, nil
}

func floatingParams(req ports.FitRequest) []model.Param {
	var out []model.Param
	for _, p := range req.Params {
		if p.IsConstant() {
			continue
		}
		if _, fixed := req.Fixed.Value(p.Name); fixed {
			continue
		}
		out = append(out, p)
	}
	return out
}

func overlay(base model.ParamSet, floating []model.Param, x []float64) model.ParamSet {
	out := base
	for i, p := range floating {
		out = out.With(p.Name, x[i])
	}
	return out
}

func boundsPenalty(x []float64, floating []model.Param) float64 {
	penalty := 0.0
	for i, p := range floating {
		if x[i] < p.Min {
			penalty += (p.Min - x[i]) * scale(p)
		}
		if x[i] > p.Max {
			penalty += (x[i] - p.Max) * scale(p)
		}
	}
	return penalty
}

func scale(p model.Param) float64 {
	width := p.Max - p.Min
	if width <= 0 {
		return 1
	}
	return 1e3 / width
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func valueOr(ps model.ParamSet, name string, fallback float64) float64 {
	if v, ok := ps.Value(name); ok {
		return v
	}
	return fallback
}

var _ ports.Fitter = (*MaximumLikelihoodFitter)(nil)
