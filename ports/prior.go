package ports

import (
	"golang.org/x/exp/rand"

	"hybridtest/domain/model"
)

// NuisancePrior draws nuisance parameter values for toy generation. Sample
// returns a ParamSet holding only the parameters the prior covers; the
// caller overlays it on the hypothesis snapshot.
type NuisancePrior interface {
	Name() string
	Parameters() []string
	Sample(rng *rand.Rand) (model.ParamSet, error)
	LogDensity(ps model.ParamSet) float64
}
