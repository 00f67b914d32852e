package engine

import (
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"
)

// Simulator defines the component advancing the vital series on every tick
type Simulator interface {
	// Tick advances every series of the set once and returns them in tick order
	Tick(set *vitals.Set) ([]*vitals.Series, error)

	IsInterfaceNil() bool
}

// AlertEvaluator defines the stateless classifier of a vitals snapshot
type AlertEvaluator interface {
	// Evaluate returns the alerts raised by the snapshot. It must not retain or modify anything.
	Evaluate(snapshot common.VitalsSnapshot, at time.Time) []common.AlertEvent

	IsInterfaceNil() bool
}

// MetricsHandler defines the sink of the engine's operational metrics
type MetricsHandler interface {
	ObserveTick(duration time.Duration)
	IncTickFault()
	IncAlert(rule string, severity common.Severity)
	SetVital(kind common.VitalKind, value float64)
	IsInterfaceNil() bool
}

// RandomSource provides uniformly distributed values in [0, 1)
type RandomSource interface {
	Float64() float64
}

// TickHandler is notified after every completed tick
type TickHandler = func(result common.TickResult)
