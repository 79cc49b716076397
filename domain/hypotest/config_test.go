package hypotest

import (
	"testing"

	"hybridtest/domain/model"
	"hybridtest/internal/errors"
)

func countingConfigs(t *testing.T) (ModelConfig, ModelConfig) {
	t.Helper()
	b := model.NewBuilder()
	s := b.Param("s", 50, 0, 100)
	bkg := b.Param("b", 100, 0.1, 300)
	obs := b.Observable("x", 0, 500)
	px := b.Poisson("px", obs, model.Sum(s, bkg))
	if err := b.Err(); err != nil {
		t.Fatalf("builder: %v", err)
	}
	base := b.ParamSet()
	poi := model.Param{Name: "s", Value: 50, Min: 0, Max: 100}
	null := ModelConfig{
		Name:        "null",
		PDF:         px,
		Observables: []model.Observable{obs},
		POI:         poi,
		Snapshot:    base.With("s", 0),
	}
	alt := ModelConfig{
		Name:        "alt",
		PDF:         px,
		Observables: []model.Observable{obs},
		POI:         poi,
		Snapshot:    base,
	}
	return null, alt
}

func TestValidatePairAccepts(t *testing.T) {
	null, alt := countingConfigs(t)
	if err := ValidatePair(null, alt); err != nil {
		t.Errorf("ValidatePair rejected a matching pair: %v", err)
	}
}

func TestValidatePairRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(null, alt *ModelConfig)
	}{
		{"nil pdf", func(null, alt *ModelConfig) {
			null.PDF = nil
		}},
		{"no observables", func(null, alt *ModelConfig) {
			alt.Observables = nil
		}},
		{"poi mismatch", func(null, alt *ModelConfig) {
			alt.POI = model.Param{Name: "mu", Value: 1, Min: 0, Max: 2}
			alt.Snapshot = alt.Snapshot.With("mu", 1)
		}},
		{"poi missing from snapshot", func(null, alt *ModelConfig) {
			null.Snapshot = null.Snapshot.Restrict([]string{"b"})
		}},
		{"observable mismatch", func(null, alt *ModelConfig) {
			alt.Observables = []model.Observable{{Name: "y", Min: 0, Max: 500}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			null, alt := countingConfigs(t)
			tt.mutate(&null, &alt)
			err := ValidatePair(null, alt)
			if err == nil {
				t.Fatal("ValidatePair accepted a mismatched pair")
			}
			if errors.GetCode(err) != errors.CodeConfigInvalid {
				t.Errorf("error code = %q, want CONFIG_INVALID", errors.GetCode(err))
			}
		})
	}
}

func TestOrientationString(t *testing.T) {
	if GreaterIsMoreSignalLike.String() != "greater-is-signal-like" {
		t.Errorf("unexpected orientation label %q", GreaterIsMoreSignalLike.String())
	}
	if LesserIsMoreSignalLike.String() != "lesser-is-signal-like" {
		t.Errorf("unexpected orientation label %q", LesserIsMoreSignalLike.String())
	}
}
