package model

import (
	"fmt"

	"hybridtest/internal/errors"
)

// Dataset is an in-memory table of events. Columns are observables, rows are
// events; the column order is fixed at construction.
type Dataset struct {
	observables []string
	rows        [][]float64
}

// NewDataset creates an empty dataset over the given observable names
func NewDataset(observables ...string) *Dataset {
	obs := make([]string, len(observables))
	copy(obs, observables)
	return &Dataset{observables: obs}
}

// Observables returns the column names in declaration order
func (d *Dataset) Observables() []string {
	out := make([]string, len(d.observables))
	copy(out, d.observables)
	return out
}

// NumEntries returns the number of events
func (d *Dataset) NumEntries() int {
	return len(d.rows)
}

// Append adds one event; values follow the observable declaration order
func (d *Dataset) Append(values ...float64) error {
	if len(values) != len(d.observables) {
		return errors.InvalidInput(fmt.Sprintf("event has %d values, dataset has %d observables", len(values), len(d.observables)))
	}
	row := make([]float64, len(values))
	copy(row, values)
	d.rows = append(d.rows, row)
	return nil
}

// Row returns event i as an observable-name keyed map
func (d *Dataset) Row(i int) map[string]float64 {
	event := make(map[string]float64, len(d.observables))
	for j, name := range d.observables {
		event[name] = d.rows[i][j]
	}
	return event
}

// Column returns all values of one observable
func (d *Dataset) Column(name string) ([]float64, error) {
	for j, obs := range d.observables {
		if obs == name {
			out := make([]float64, len(d.rows))
			for i, row := range d.rows {
				out[i] = row[j]
			}
			return out, nil
		}
	}
	return nil, errors.NotFound("observable " + name)
}

// SumColumn returns the sum of one observable over all events
func (d *Dataset) SumColumn(name string) (float64, error) {
	col, err := d.Column(name)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, v := range col {
		total += v
	}
	return total, nil
}
