package vitals

import (
	"fmt"
	"math"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// HistoryCapacity is the fixed size of the sliding window kept per series
const HistoryCapacity = 20

// Rule holds the simulation constants of one vital kind
type Rule struct {
	Label string
	Clamp common.Range
	// Span is the total width of the per-tick perturbation, drawn uniformly in [-Span/2, +Span/2)
	Span float64
	// DetailSpan is the span used when extrapolating the detail view
	DetailSpan float64
	Decimals   int
}

var rules = map[common.VitalKind]Rule{
	common.HeartRate: {
		Label:      "Heart Rate",
		Clamp:      common.Range{Low: 60, High: 100},
		Span:       4,
		DetailSpan: 4,
	},
	common.BloodPressureSystolic: {
		Label:      "Blood Pressure (Systolic)",
		Clamp:      common.Range{Low: 90, High: 160},
		Span:       6,
		DetailSpan: 8,
	},
	common.BloodPressureDiastolic: {
		Label:      "Blood Pressure (Diastolic)",
		Clamp:      common.Range{Low: 60, High: 100},
		Span:       4,
		DetailSpan: 6,
	},
	common.Temperature: {
		Label:      "Temperature",
		Clamp:      common.Range{Low: 97.0, High: 99.5},
		Span:       0.4,
		DetailSpan: 0.4,
		Decimals:   1,
	},
	common.OxygenSaturation: {
		Label:      "Oxygen Saturation",
		Clamp:      common.Range{Low: 95, High: 100},
		Span:       2,
		DetailSpan: 2,
	},
}

// RuleFor returns the simulation rule of the provided kind
func RuleFor(kind common.VitalKind) (Rule, error) {
	r, ok := rules[kind]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return r, nil
}

// Normalize clamps the raw value to the kind's range and applies the kind's precision
func (r Rule) Normalize(raw float64) float64 {
	clamped := math.Max(r.Clamp.Low, math.Min(r.Clamp.High, raw))

	return roundTo(clamped, r.Decimals)
}

func roundTo(value float64, decimals int) float64 {
	if decimals == 0 {
		return math.Round(value)
	}

	p := math.Pow10(decimals)
	return math.Round(value*p) / p
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
