package vitals

import (
	"fmt"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// Dataset is the initial state of every vital series
type Dataset []SeriesConfig

// DefaultDataset returns the seed values the dashboard starts with
func DefaultDataset() Dataset {
	return Dataset{
		{
			Kind:        common.HeartRate,
			Unit:        "BPM",
			NormalRange: common.Range{Low: 60, High: 100},
			Current:     72,
			History:     []float64{68, 70, 72, 75, 73, 71, 69, 72, 74, 71},
			Trend:       common.TrendStable,
		},
		{
			Kind:        common.BloodPressureSystolic,
			Unit:        "mmHg",
			NormalRange: common.Range{Low: 90, High: 120},
			Current:     125,
			History:     []float64{122, 125, 128, 124, 126, 123, 127, 125, 124},
			Trend:       common.TrendSlightlyElevated,
		},
		{
			Kind:        common.BloodPressureDiastolic,
			Unit:        "mmHg",
			NormalRange: common.Range{Low: 60, High: 80},
			Current:     82,
			History:     []float64{80, 82, 85, 81, 83, 79, 84, 82, 80},
			Trend:       common.TrendSlightlyElevated,
		},
		{
			Kind:        common.Temperature,
			Unit:        "°F",
			NormalRange: common.Range{Low: 97.0, High: 99.5},
			Current:     98.4,
			History:     []float64{98.2, 98.4, 98.1, 98.3, 98.5, 98.2, 98.4, 98.3, 98.1},
			Trend:       common.TrendNormal,
		},
		{
			Kind:        common.OxygenSaturation,
			Unit:        "%",
			NormalRange: common.Range{Low: 95, High: 100},
			Current:     98,
			History:     []float64{97, 98, 99, 98, 97, 98, 99, 98, 98},
			Trend:       common.TrendNormal,
		},
	}
}

// Merge returns a copy of the dataset where every entry of overrides replaces the entry of the same kind
func (d Dataset) Merge(overrides Dataset) Dataset {
	out := make(Dataset, len(d))
	copy(out, d)

	for _, o := range overrides {
		replaced := false
		for i := range out {
			if out[i].Kind == o.Kind {
				out[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}

	return out
}

// Set owns one series per vital kind
type Set struct {
	ordered []*Series
	byKind  map[common.VitalKind]*Series
}

// NewSet builds the series of the dataset. The dataset must define every kind exactly once and the blood pressure
// histories must pair up, one diastolic reading for every systolic one.
func NewSet(dataset Dataset) (*Set, error) {
	byKind := make(map[common.VitalKind]*Series, len(dataset))
	for _, cfg := range dataset {
		if _, exists := byKind[cfg.Kind]; exists {
			return nil, fmt.Errorf("%w: %s defined twice", ErrIncompleteDataset, cfg.Kind)
		}

		s, err := NewSeries(cfg)
		if err != nil {
			return nil, err
		}
		byKind[cfg.Kind] = s
	}

	kinds := common.AllVitalKinds()
	ordered := make([]*Series, 0, len(kinds))
	for _, kind := range kinds {
		s, ok := byKind[kind]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteDataset, kind)
		}
		ordered = append(ordered, s)
	}

	numSystolic := len(byKind[common.BloodPressureSystolic].history)
	numDiastolic := len(byKind[common.BloodPressureDiastolic].history)
	if numSystolic != numDiastolic {
		return nil, fmt.Errorf("%w: %d systolic and %d diastolic readings",
			ErrUnpairedPressureHistory, numSystolic, numDiastolic)
	}

	return &Set{
		ordered: ordered,
		byKind:  byKind,
	}, nil
}

// Get returns the series of the provided kind
func (s *Set) Get(kind common.VitalKind) (*Series, bool) {
	series, ok := s.byKind[kind]
	return series, ok
}

// All returns the series in tick order
func (s *Set) All() []*Series {
	out := make([]*Series, len(s.ordered))
	copy(out, s.ordered)

	return out
}

// Snapshot returns the current value of every series
func (s *Set) Snapshot() common.VitalsSnapshot {
	return common.VitalsSnapshot{
		HeartRate:        s.byKind[common.HeartRate].Current(),
		Systolic:         s.byKind[common.BloodPressureSystolic].Current(),
		Diastolic:        s.byKind[common.BloodPressureDiastolic].Current(),
		Temperature:      s.byKind[common.Temperature].Current(),
		OxygenSaturation: s.byKind[common.OxygenSaturation].Current(),
	}
}

// Views returns detached copies of every series in tick order
func (s *Set) Views() []common.VitalView {
	out := make([]common.VitalView, 0, len(s.ordered))
	for _, series := range s.ordered {
		out = append(out, series.View())
	}

	return out
}
