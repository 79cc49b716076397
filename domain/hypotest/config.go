package hypotest

import (
	"fmt"

	"hybridtest/domain/model"
	"hybridtest/internal/errors"
)

// ModelConfig binds a density to the observables it describes, the parameter
// of interest, and a snapshot of parameter values defining one hypothesis.
// Null and alternate configurations share the density and differ only in the
// snapshot.
type ModelConfig struct {
	Name        string
	PDF         model.PDF
	Observables []model.Observable
	POI         model.Param
	Snapshot    model.ParamSet
}

// POIValue returns the snapshot value of the parameter of interest
func (c ModelConfig) POIValue() (float64, error) {
	v, ok := c.Snapshot.Value(c.POI.Name)
	if !ok {
		return 0, errors.ConfigInvalid(fmt.Sprintf("config %q: snapshot misses poi %q", c.Name, c.POI.Name))
	}
	return v, nil
}

// Validate checks the configuration in isolation
func (c ModelConfig) Validate() error {
	if c.PDF == nil {
		return errors.ConfigInvalid(fmt.Sprintf("config %q has no pdf", c.Name))
	}
	if len(c.Observables) == 0 {
		return errors.ConfigInvalid(fmt.Sprintf("config %q has no observables", c.Name))
	}
	if c.Snapshot.Len() == 0 {
		return errors.ConfigInvalid(fmt.Sprintf("config %q has an empty snapshot", c.Name))
	}
	if _, err := c.POIValue(); err != nil {
		return err
	}
	return nil
}

// ValidatePair checks that two configurations describe the same measurement
// and differ only in hypothesis. Both must name the same observables, the
// same parameter of interest, and the same density.
func ValidatePair(null, alt ModelConfig) error {
	if err := null.Validate(); err != nil {
		return err
	}
	if err := alt.Validate(); err != nil {
		return err
	}
	if null.POI.Name != alt.POI.Name {
		return errors.ConfigInvalid(fmt.Sprintf("poi mismatch: %q vs %q", null.POI.Name, alt.POI.Name))
	}
	if null.PDF.Name() != alt.PDF.Name() {
		return errors.ConfigInvalid(fmt.Sprintf("pdf mismatch: %q vs %q", null.PDF.Name(), alt.PDF.Name()))
	}
	if len(null.Observables) != len(alt.Observables) {
		return errors.ConfigInvalid("observable count mismatch between hypotheses")
	}
	for i, obs := range null.Observables {
		if obs.Name != alt.Observables[i].Name {
			return errors.ConfigInvalid(fmt.Sprintf("observable mismatch: %q vs %q", obs.Name, alt.Observables[i].Name))
		}
	}
	return nil
}
