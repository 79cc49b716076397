package integration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"

	"hybridtest/internal/errors"
)

const hybridQuadNodes = 400

// PValueToSignificance converts a one-sided p-value to a Gaussian
// significance, Z = -Phi^{-1}(p)
func PValueToSignificance(p float64) float64 {
	if p <= 0 {
		return math.Inf(1)
	}
	if p >= 1 {
		return math.Inf(-1)
	}
	return -distuv.UnitNormal.Quantile(p)
}

// BinomialObsP is the closed-form p-value of observing at least x events in
// the signal region given an auxiliary count y in a control region with
// relative size tau. Marginalizing the unknown background over its gamma
// posterior reduces the double sum to a regularized incomplete beta:
//
//	p = I_{1/(1+tau)}(x, y+1)
func BinomialObsP(x, y, tau float64) (float64, error) {
	if x <= 0 || y < 0 || tau <= 0 {
		return 0, errors.InvalidInput(fmt.Sprintf("binomial p-value needs x > 0, y >= 0, tau > 0; got %g, %g, %g", x, y, tau))
	}
	return distuv.Beta{Alpha: x, Beta: y + 1}.CDF(1 / (1 + tau)), nil
}

// BinomialObsZ is the significance of BinomialObsP
func BinomialObsZ(x, y, tau float64) (float64, error) {
	p, err := BinomialObsP(x, y, tau)
	if err != nil {
		return 0, err
	}
	return PValueToSignificance(p), nil
}

// HybridPValue computes the prior-averaged tail probability by numerical
// integration instead of toys: the Poisson tail P(X >= xObs | s + b) is
// averaged over the gamma posterior of the background mean given the
// auxiliary count. With signal = 0 this is the null p-value the toy
// ensemble estimates.
func HybridPValue(xObs, auxCount, tau, signal float64) (float64, error) {
	if xObs < 0 || auxCount < 0 || tau <= 0 || signal < 0 {
		return 0, errors.InvalidInput(fmt.Sprintf("hybrid p-value needs non-negative inputs and tau > 0; got %g, %g, %g, %g", xObs, auxCount, tau, signal))
	}
	posterior := distuv.Gamma{Alpha: auxCount + 1, Beta: tau}

	// The posterior mass lies within a dozen standard deviations of its
	// mean; integrating further only adds roundoff.
	mean := (auxCount + 1) / tau
	sd := math.Sqrt(auxCount+1) / tau
	upper := mean + 12*sd

	p := quad.Fixed(func(b float64) float64 {
		weight := math.Exp(posterior.LogProb(b))
		return weight * poissonUpperTail(xObs, signal+b)
	}, 0, upper, hybridQuadNodes, nil, 0)

	if math.IsNaN(p) {
		return 0, errors.InternalError("hybrid p-value integration returned NaN")
	}
	return clampUnit(p), nil
}

// HybridZ is the significance of HybridPValue
func HybridZ(xObs, auxCount, tau, signal float64) (float64, error) {
	p, err := HybridPValue(xObs, auxCount, tau, signal)
	if err != nil {
		return 0, err
	}
	return PValueToSignificance(p), nil
}

// poissonUpperTail is P(X >= x) for X ~ Pois(lambda), inclusive
func poissonUpperTail(x, lambda float64) float64 {
	if x <= 0 {
		return 1
	}
	if lambda <= 0 {
		return 0
	}
	return 1 - distuv.Poisson{Lambda: lambda}.CDF(x-1)
}

func clampUnit(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
