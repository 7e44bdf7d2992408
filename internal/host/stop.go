package host

import "math/rand"

// #region stop-predicates

// StopPredicate is consulted after every step with the number of steps taken
// so far. Returning true ends the run.
type StopPredicate func(steps uint64) bool

// Defaults for open-ended runs: a near-impossible random stop and a cap that
// is unreachable in practice.
const (
	DefaultStopProbability = 1e-15
	DefaultHardCap         = uint64(1_000_000_000_000)
	DefaultFiniteSteps     = 100
)

// AfterSteps stops once n steps have been taken.
func AfterSteps(n uint64) StopPredicate {
	return func(steps uint64) bool { return steps >= n }
}

// HardCap is AfterSteps under the name used for infinite runs.
func HardCap(n uint64) StopPredicate { return AfterSteps(n) }

// StochasticStop stops with probability p per step, drawing from rng. The
// sequence is reproducible for a seeded source. p <= 0 never stops.
func StochasticStop(rng *rand.Rand, p float64) StopPredicate {
	return func(uint64) bool {
		if p <= 0 {
			return false
		}
		return rng.Float64() < p
	}
}

// Never keeps running until the context is cancelled.
func Never() StopPredicate {
	return func(uint64) bool { return false }
}

// AnyOf stops when any predicate does. Every predicate is evaluated on every
// step so stochastic ones consume their source at a fixed rate.
func AnyOf(preds ...StopPredicate) StopPredicate {
	return func(steps uint64) bool {
		stop := false
		for _, p := range preds {
			if p(steps) {
				stop = true
			}
		}
		return stop
	}
}

// #endregion stop-predicates
