package simulator

import (
	"errors"
	"fmt"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("simulator")

var errNilRandomSource = errors.New("nil random source")
var errNilSet = errors.New("nil vitals set")

// RandomSource provides uniformly distributed values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type randomWalkSimulator struct {
	rnd RandomSource
}

// NewRandomWalkSimulator creates a simulator that perturbs every series by a bounded uniform step on each tick
func NewRandomWalkSimulator(rnd RandomSource) (*randomWalkSimulator, error) {
	if rnd == nil {
		return nil, errNilRandomSource
	}

	return &randomWalkSimulator{
		rnd: rnd,
	}, nil
}

// Tick advances every series of the set once, in tick order. Systolic and diastolic pressure are advanced on the
// same tick with independent draws.
func (sim *randomWalkSimulator) Tick(set *vitals.Set) ([]*vitals.Series, error) {
	if set == nil {
		return nil, errNilSet
	}

	updated := set.All()
	for _, series := range updated {
		perturbation := Perturbation(sim.rnd, series.Rule().Span)

		value, err := series.Advance(perturbation)
		if err != nil {
			return nil, fmt.Errorf("%w while advancing %s", err, series.Kind())
		}

		log.Trace("advanced vital", "kind", series.Kind(), "perturbation", perturbation, "value", value)
	}

	return updated, nil
}

// Perturbation draws a value uniformly in [-span/2, +span/2)
func Perturbation(rnd RandomSource, span float64) float64 {
	return (rnd.Float64() - 0.5) * span
}

// IsInterfaceNil returns true if the value under the interface is nil
func (sim *randomWalkSimulator) IsInterfaceNil() bool {
	return sim == nil
}
