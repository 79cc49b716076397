package teststat

import (
	"sort"

	"hybridtest/internal/errors"
	"hybridtest/ports"
)

// StatisticEngine is a name-keyed registry of test statistics, so callers
// can select the ordering rule from configuration.
type StatisticEngine struct {
	stats map[string]ports.TestStatistic
}

// NewStatisticEngine creates a registry holding the given statistics
func NewStatisticEngine(stats ...ports.TestStatistic) *StatisticEngine {
	e := &StatisticEngine{stats: map[string]ports.TestStatistic{}}
	for _, s := range stats {
		e.stats[s.Name()] = s
	}
	return e
}

// Register adds or replaces a statistic
func (e *StatisticEngine) Register(s ports.TestStatistic) {
	e.stats[s.Name()] = s
}

// Get looks up a statistic by name
func (e *StatisticEngine) Get(name string) (ports.TestStatistic, error) {
	s, ok := e.stats[name]
	if !ok {
		return nil, errors.NotFound("test statistic " + name)
	}
	return s, nil
}

// List returns the registered statistic names sorted
func (e *StatisticEngine) List() []string {
	names := make([]string, 0, len(e.stats))
	for name := range e.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
