package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/alerts"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/simulator"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("engine")

// ErrInvalidCount signals a non-positive or too large number of requested points
var ErrInvalidCount = errors.New("invalid number of points")

// MaxExtendedPoints bounds the detail view length
const MaxExtendedPoints = 500

// ArgsVitalsEngine defines the arguments needed to create a vitals engine
type ArgsVitalsEngine struct {
	Dataset      vitals.Dataset
	Simulator    Simulator
	Evaluator    AlertEvaluator
	Metrics      MetricsHandler
	DetailRandom RandomSource
	Clock        func() time.Time
}

type subscription struct {
	id      uint64
	handler TickHandler
}

// vitalsEngine owns the vital series and the recent alerts. One exclusive lock is held for the whole tick.
type vitalsEngine struct {
	mut        sync.RWMutex
	set        *vitals.Set
	sink       *alerts.Sink
	simulator  Simulator
	evaluator  AlertEvaluator
	metrics    MetricsHandler
	clock      func() time.Time
	tick       uint64
	lastTickAt time.Time

	mutDetail    sync.Mutex
	detailRandom RandomSource

	mutSubscribers sync.RWMutex
	subscribers    []subscription
	nextID         uint64
}

// NewVitalsEngine creates a new engine instance seeded with the provided dataset
func NewVitalsEngine(args ArgsVitalsEngine) (*vitalsEngine, error) {
	if check.IfNil(args.Simulator) {
		return nil, errors.New("nil simulator")
	}
	if check.IfNil(args.Evaluator) {
		return nil, errors.New("nil alert evaluator")
	}
	if check.IfNil(args.Metrics) {
		return nil, errors.New("nil metrics handler")
	}
	if args.DetailRandom == nil {
		return nil, errors.New("nil detail random source")
	}

	set, err := vitals.NewSet(args.Dataset)
	if err != nil {
		return nil, fmt.Errorf("%w while creating the vitals set", err)
	}

	clock := args.Clock
	if clock == nil {
		clock = time.Now
	}

	e := &vitalsEngine{
		set:          set,
		sink:         alerts.NewSink(),
		simulator:    args.Simulator,
		evaluator:    args.Evaluator,
		metrics:      args.Metrics,
		clock:        clock,
		detailRandom: args.DetailRandom,
	}
	for _, view := range set.Views() {
		e.metrics.SetVital(view.Kind, view.Current)
	}

	return e, nil
}

// Process runs one tick. It is meant to be called by the periodic job.
func (e *vitalsEngine) Process(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := e.Tick()
	if err != nil {
		log.Error("simulation tick abandoned", "error", err)
		return
	}

	log.Debug("simulation tick done", "tick", result.Tick, "new alerts", len(result.NewAlerts))
}

// Tick advances every series, evaluates the thresholds and records the raised alerts as one atomic step, then
// notifies the subscribers
func (e *vitalsEngine) Tick() (common.TickResult, error) {
	start := time.Now()

	result, err := e.advance()
	if err != nil {
		e.metrics.IncTickFault()
		return common.TickResult{}, err
	}

	e.metrics.ObserveTick(time.Since(start))
	for _, event := range result.NewAlerts {
		e.metrics.IncAlert(event.Rule, event.Severity)
		log.Info("alert raised", "severity", event.Severity, "message", event.Message)
	}
	e.publishVitals(result.Vitals)

	e.notify(result)

	return result, nil
}

func (e *vitalsEngine) advance() (common.TickResult, error) {
	e.mut.Lock()
	defer e.mut.Unlock()

	_, err := e.simulator.Tick(e.set)
	if err != nil {
		return common.TickResult{}, fmt.Errorf("tick %d: %w", e.tick+1, err)
	}

	at := e.clock()
	snapshot := e.set.Snapshot()
	events := e.evaluator.Evaluate(snapshot, at)
	for i := range events {
		events[i].ID = alerts.EventID(e.tick+1, events[i].Rule)
	}
	e.sink.Record(events)

	e.tick++
	e.lastTickAt = at

	return common.TickResult{
		Tick:          e.tick,
		At:            at,
		Vitals:        snapshot,
		NewAlerts:     events,
		RecentAlerts:  e.sink.Snapshot(),
		TotalRecorded: e.sink.TotalRecorded(),
	}, nil
}

func (e *vitalsEngine) publishVitals(snapshot common.VitalsSnapshot) {
	e.metrics.SetVital(common.HeartRate, snapshot.HeartRate)
	e.metrics.SetVital(common.BloodPressureSystolic, snapshot.Systolic)
	e.metrics.SetVital(common.BloodPressureDiastolic, snapshot.Diastolic)
	e.metrics.SetVital(common.Temperature, snapshot.Temperature)
	e.metrics.SetVital(common.OxygenSaturation, snapshot.OxygenSaturation)
}

func (e *vitalsEngine) notify(result common.TickResult) {
	e.mutSubscribers.RLock()
	subscribers := make([]subscription, len(e.subscribers))
	copy(subscribers, e.subscribers)
	e.mutSubscribers.RUnlock()

	for _, sub := range subscribers {
		e.callSubscriber(sub, result)
	}
}

func (e *vitalsEngine) callSubscriber(sub subscription, result common.TickResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("tick subscriber panicked", "subscriber", sub.id, "panic", r)
		}
	}()

	sub.handler(result)
}

// Subscribe registers a handler called after every completed tick, in subscription order, on the ticking
// goroutine. The returned function removes the handler and may be called more than once.
func (e *vitalsEngine) Subscribe(handler TickHandler) func() {
	if handler == nil {
		return func() {}
	}

	e.mutSubscribers.Lock()
	e.nextID++
	id := e.nextID
	e.subscribers = append(e.subscribers, subscription{id: id, handler: handler})
	e.mutSubscribers.Unlock()

	return func() {
		e.mutSubscribers.Lock()
		defer e.mutSubscribers.Unlock()

		for i, sub := range e.subscribers {
			if sub.id == id {
				e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Vitals returns a read-only copy of every vital series in tick order
func (e *vitalsEngine) Vitals() []common.VitalView {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return e.set.Views()
}

// Vital returns a read-only copy of one vital series
func (e *vitalsEngine) Vital(kind common.VitalKind) (common.VitalView, error) {
	e.mut.RLock()
	defer e.mut.RUnlock()

	series, ok := e.set.Get(kind)
	if !ok {
		return common.VitalView{}, fmt.Errorf("%w: %q", vitals.ErrUnknownKind, kind)
	}

	return series.View(), nil
}

// Alerts returns the recent alerts, newest first, and the number of alerts ever recorded
func (e *vitalsEngine) Alerts() ([]common.AlertEvent, uint64) {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return e.sink.Snapshot(), e.sink.TotalRecorded()
}

// ExtendedHistory returns count points for the detail view of a vital: its history padded with a random walk.
// The tick trajectory is not affected.
func (e *vitalsEngine) ExtendedHistory(kind common.VitalKind, count int) ([]float64, error) {
	if count <= 0 || count > MaxExtendedPoints {
		return nil, fmt.Errorf("%w: %d, expected 1..%d", ErrInvalidCount, count, MaxExtendedPoints)
	}

	view, err := e.Vital(kind)
	if err != nil {
		return nil, err
	}
	rule, err := vitals.RuleFor(kind)
	if err != nil {
		return nil, err
	}

	e.mutDetail.Lock()
	defer e.mutDetail.Unlock()

	return simulator.Extrapolate(e.detailRandom, rule, view.History, view.Current, count), nil
}

// Status returns the simulation progress
func (e *vitalsEngine) Status() common.EngineStatus {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return common.EngineStatus{
		Tick:       e.tick,
		LastTickAt: e.lastTickAt,
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *vitalsEngine) IsInterfaceNil() bool {
	return e == nil
}
