package ports

import (
	"context"

	"hybridtest/domain/model"
)

// FitRange restricts the likelihood of one observable to a sub-range; the
// density is renormalized over it.
type FitRange struct {
	Observable string
	Min        float64
	Max        float64
}

// FitRequest describes one maximum-likelihood fit
type FitRequest struct {
	PDF    model.PDF
	Data   *model.Dataset
	Params []model.Param
	// Fixed values override declared parameters and are held constant.
	Fixed model.ParamSet
	// Extended adds a Poisson term on the total event count; the PDF must
	// implement model.ExtendedPDF.
	Extended bool
	Ranges   []FitRange
}

// FitResult holds the fitted parameter values and the minimum found
type FitResult struct {
	Params    model.ParamSet
	NLL       float64
	Converged bool
	FuncEvals int
}

// Fitter minimizes a negative log likelihood over the floating parameters
type Fitter interface {
	Fit(ctx context.Context, req FitRequest) (FitResult, error)
}
