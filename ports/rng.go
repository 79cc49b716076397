package ports

import (
	"golang.org/x/exp/rand"

	"hybridtest/domain/core"
)

// RNGPort hands out independent deterministic random streams. Two calls with
// the same run, stage, key, and base seed return identically seeded streams,
// so concurrent consumers reproduce bitwise regardless of scheduling.
type RNGPort interface {
	SeededStream(seed uint64) *rand.Rand
	Stream(runID core.RunID, stage, key string, baseSeed uint64) *rand.Rand
}
