package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybridtest/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Toys.NullToys)
	assert.Equal(t, 300, cfg.Toys.AltToys)
	assert.Equal(t, 1, cfg.Toys.EventsPerToy)
	assert.Equal(t, uint64(42), cfg.Toys.Seed)
	assert.Equal(t, 0.8, cfg.Toys.MinSuccessFraction)
	assert.Equal(t, "workspaces.db", cfg.Storage.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NULL_TOYS", "10000")
	t.Setenv("ALT_TOYS", "500")
	t.Setenv("TOY_SEED", "7")
	t.Setenv("MIN_SUCCESS_FRACTION", "0.9")
	t.Setenv("WORKSPACE_DB", "/tmp/test.db")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Toys.NullToys)
	assert.Equal(t, 500, cfg.Toys.AltToys)
	assert.Equal(t, uint64(7), cfg.Toys.Seed)
	assert.Equal(t, 0.9, cfg.Toys.MinSuccessFraction)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero toys", "NULL_TOYS", "0"},
		{"negative alt toys", "ALT_TOYS", "-5"},
		{"fraction above one", "MIN_SUCCESS_FRACTION", "1.5"},
		{"port out of range", "PORT", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestUnparseableValuesFallBack(t *testing.T) {
	t.Setenv("NULL_TOYS", "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Toys.NullToys)
}
