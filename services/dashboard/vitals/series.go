package vitals

import (
	"fmt"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// SeriesConfig is the seed data of one vital series
type SeriesConfig struct {
	Kind        common.VitalKind `toml:"Kind"`
	Unit        string           `toml:"Unit"`
	NormalRange common.Range     `toml:"NormalRange"`
	Current     float64          `toml:"Current"`
	History     []float64        `toml:"History"`
	Trend       common.Trend     `toml:"Trend"`
}

// Series is the bounded time series of one vital sign. It is not safe for concurrent use, the owner is expected
// to serialize access.
type Series struct {
	kind        common.VitalKind
	unit        string
	normalRange common.Range
	rule        Rule
	current     float64
	history     []float64
	trend       common.Trend
}

// NewSeries creates a series from its seed data. Only the newest HistoryCapacity entries of the seed history are kept.
func NewSeries(cfg SeriesConfig) (*Series, error) {
	rule, err := RuleFor(cfg.Kind)
	if err != nil {
		return nil, err
	}
	if !isFinite(cfg.Current) {
		return nil, fmt.Errorf("%w: current value of %s", ErrNonFiniteValue, cfg.Kind)
	}
	if !rule.Clamp.Contains(cfg.Current) {
		return nil, fmt.Errorf("%w: %s current value %v not in [%v, %v]",
			ErrValueOutOfRange, cfg.Kind, cfg.Current, rule.Clamp.Low, rule.Clamp.High)
	}

	seed := cfg.History
	if len(seed) > HistoryCapacity {
		seed = seed[len(seed)-HistoryCapacity:]
	}
	history := make([]float64, 0, HistoryCapacity)
	for _, value := range seed {
		if !isFinite(value) {
			return nil, fmt.Errorf("%w: history of %s", ErrNonFiniteValue, cfg.Kind)
		}
		history = append(history, value)
	}

	trend := cfg.Trend
	if trend == "" {
		trend = common.TrendStable
	}

	return &Series{
		kind:        cfg.Kind,
		unit:        cfg.Unit,
		normalRange: cfg.NormalRange,
		rule:        rule,
		current:     cfg.Current,
		history:     history,
		trend:       trend,
	}, nil
}

// Advance applies the perturbation, clamps and rounds the result, then appends it to the history window
func (s *Series) Advance(perturbation float64) (float64, error) {
	if !isFinite(perturbation) {
		return s.current, fmt.Errorf("%w: perturbation %v for %s", ErrNonFiniteValue, perturbation, s.kind)
	}
	if !isFinite(s.current) {
		return s.current, fmt.Errorf("%w: current value of %s", ErrNonFiniteValue, s.kind)
	}

	s.current = s.rule.Normalize(s.current + perturbation)
	s.push(s.current)

	return s.current, nil
}

func (s *Series) push(value float64) {
	if len(s.history) == HistoryCapacity {
		copy(s.history, s.history[1:])
		s.history = s.history[:HistoryCapacity-1]
	}
	s.history = append(s.history, value)
}

// Kind returns the vital kind
func (s *Series) Kind() common.VitalKind {
	return s.kind
}

// Current returns the current value
func (s *Series) Current() float64 {
	return s.current
}

// History returns a copy of the history window, oldest first
func (s *Series) History() []float64 {
	out := make([]float64, len(s.history))
	copy(out, s.history)

	return out
}

// Unit returns the display unit
func (s *Series) Unit() string {
	return s.unit
}

// NormalRange returns the range used for display context
func (s *Series) NormalRange() common.Range {
	return s.normalRange
}

// Rule returns the simulation rule of the series
func (s *Series) Rule() Rule {
	return s.rule
}

// View returns a detached read-only copy of the series
func (s *Series) View() common.VitalView {
	return common.VitalView{
		Kind:        s.kind,
		Label:       s.rule.Label,
		Unit:        s.unit,
		Current:     s.current,
		History:     s.History(),
		NormalRange: s.normalRange,
		ClampRange:  s.rule.Clamp,
		Trend:       s.trend,
	}
}
