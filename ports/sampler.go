package ports

import (
	"context"

	"golang.org/x/exp/rand"

	"hybridtest/domain/model"
)

// Sampler draws events from a density at fixed parameter values. A non
// positive n asks for an extended draw: the sampler reads the event count
// from the density's predicted yield.
type Sampler interface {
	Sample(ctx context.Context, pdf model.PDF, ps model.ParamSet, n int, rng *rand.Rand) (*model.Dataset, error)
}
