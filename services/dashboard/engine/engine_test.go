package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/alerts"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/simulator"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/storage"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/testsCommon"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func steppingClock() func() time.Time {
	mut := sync.Mutex{}
	current := testStart

	return func() time.Time {
		mut.Lock()
		defer mut.Unlock()

		current = current.Add(5 * time.Second)
		return current
	}
}

func createMockArgs(t *testing.T) ArgsVitalsEngine {
	sim, err := simulator.NewRandomWalkSimulator(testsCommon.NewRandomSourceStub(0.5))
	require.Nil(t, err)

	return ArgsVitalsEngine{
		Dataset:      vitals.DefaultDataset(),
		Simulator:    sim,
		Evaluator:    alerts.NewThresholdEvaluator(),
		Metrics:      &testsCommon.MetricsHandlerStub{},
		DetailRandom: testsCommon.NewRandomSourceStub(0.5),
		Clock:        steppingClock(),
	}
}

func createHypertensiveDataset() vitals.Dataset {
	return vitals.DefaultDataset().Merge(vitals.Dataset{
		{
			Kind:        common.BloodPressureSystolic,
			Unit:        "mmHg",
			NormalRange: common.Range{Low: 90, High: 120},
			Current:     150,
			History:     []float64{142, 144, 146, 145, 147, 148, 146, 149, 150},
		},
	})
}

func TestNewVitalsEngine(t *testing.T) {
	t.Parallel()

	t.Run("nil simulator should error", func(t *testing.T) {
		args := createMockArgs(t)
		args.Simulator = nil
		e, err := NewVitalsEngine(args)

		assert.True(t, e.IsInterfaceNil())
		assert.ErrorContains(t, err, "nil simulator")
	})
	t.Run("nil evaluator should error", func(t *testing.T) {
		args := createMockArgs(t)
		args.Evaluator = nil
		e, err := NewVitalsEngine(args)

		assert.True(t, e.IsInterfaceNil())
		assert.ErrorContains(t, err, "nil alert evaluator")
	})
	t.Run("nil metrics handler should error", func(t *testing.T) {
		args := createMockArgs(t)
		args.Metrics = nil
		e, err := NewVitalsEngine(args)

		assert.True(t, e.IsInterfaceNil())
		assert.ErrorContains(t, err, "nil metrics handler")
	})
	t.Run("nil detail random source should error", func(t *testing.T) {
		args := createMockArgs(t)
		args.DetailRandom = nil
		e, err := NewVitalsEngine(args)

		assert.True(t, e.IsInterfaceNil())
		assert.ErrorContains(t, err, "nil detail random source")
	})
	t.Run("incomplete dataset should error", func(t *testing.T) {
		args := createMockArgs(t)
		args.Dataset = args.Dataset[:3]
		e, err := NewVitalsEngine(args)

		assert.True(t, e.IsInterfaceNil())
		assert.ErrorIs(t, err, vitals.ErrIncompleteDataset)
	})
	t.Run("should work and publish the initial values", func(t *testing.T) {
		args := createMockArgs(t)
		published := make(map[common.VitalKind]float64)
		args.Metrics = &testsCommon.MetricsHandlerStub{
			SetVitalHandler: func(kind common.VitalKind, value float64) {
				published[kind] = value
			},
		}
		e, err := NewVitalsEngine(args)

		assert.False(t, e.IsInterfaceNil())
		assert.Nil(t, err)
		assert.Equal(t, float64(72), published[common.HeartRate])
		assert.Equal(t, 98.4, published[common.Temperature])
		assert.Equal(t, uint64(0), e.Status().Tick)
		assert.True(t, e.Status().LastTickAt.IsZero())
	})
}

func TestVitalsEngine_Tick(t *testing.T) {
	t.Parallel()

	t.Run("neutral draws keep the values and raise nothing", func(t *testing.T) {
		args := createMockArgs(t)
		metrics := &testsCommon.MetricsHandlerStub{}
		args.Metrics = metrics
		e, _ := NewVitalsEngine(args)

		result, err := e.Tick()
		require.Nil(t, err)

		assert.Equal(t, uint64(1), result.Tick)
		assert.Equal(t, testStart.Add(5*time.Second), result.At)
		assert.Equal(t, float64(72), result.Vitals.HeartRate)
		assert.Equal(t, float64(125), result.Vitals.Systolic)
		assert.Equal(t, float64(82), result.Vitals.Diastolic)
		assert.Equal(t, 98.4, result.Vitals.Temperature)
		assert.Equal(t, float64(98), result.Vitals.OxygenSaturation)
		assert.Empty(t, result.NewAlerts)
		assert.Empty(t, result.RecentAlerts)
		assert.Equal(t, 1, metrics.Ticks())
		assert.Equal(t, common.EngineStatus{Tick: 1, LastTickAt: result.At}, e.Status())

		view, err := e.Vital(common.HeartRate)
		require.Nil(t, err)
		assert.Equal(t, float64(72), view.History[len(view.History)-1])
	})
	t.Run("high blood pressure is recorded and counted", func(t *testing.T) {
		args := createMockArgs(t)
		args.Dataset = createHypertensiveDataset()
		raised := make([]string, 0)
		args.Metrics = &testsCommon.MetricsHandlerStub{
			IncAlertHandler: func(rule string, severity common.Severity) {
				raised = append(raised, rule+":"+string(severity))
			},
		}
		e, _ := NewVitalsEngine(args)

		result, err := e.Tick()
		require.Nil(t, err)

		require.Len(t, result.NewAlerts, 1)
		assert.Equal(t, "High blood pressure: 150/82 mmHg", result.NewAlerts[0].Message)
		assert.Equal(t, result.At, result.NewAlerts[0].Timestamp)
		assert.Equal(t, result.NewAlerts, result.RecentAlerts)
		assert.Equal(t, uint64(1), result.TotalRecorded)
		assert.Equal(t, []string{"highBloodPressure:critical"}, raised)

		recent, total := e.Alerts()
		assert.Equal(t, result.RecentAlerts, recent)
		assert.Equal(t, uint64(1), total)
	})
	t.Run("recent alerts keep the newest five", func(t *testing.T) {
		args := createMockArgs(t)
		args.Dataset = createHypertensiveDataset()
		e, _ := NewVitalsEngine(args)

		var last common.TickResult
		for i := 0; i < 7; i++ {
			var err error
			last, err = e.Tick()
			require.Nil(t, err)
		}

		recent, total := e.Alerts()
		require.Len(t, recent, alerts.SinkCapacity)
		assert.Equal(t, uint64(7), total)
		assert.Equal(t, last.NewAlerts[0], recent[0])
		assert.Equal(t, testStart.Add(35*time.Second), recent[0].Timestamp)
		assert.Equal(t, testStart.Add(15*time.Second), recent[4].Timestamp)
	})
	t.Run("simulation fault abandons the tick", func(t *testing.T) {
		args := createMockArgs(t)
		args.Dataset = createHypertensiveDataset()
		expectedErr := errors.New("expected error")
		args.Simulator = &testsCommon.SimulatorStub{
			TickHandler: func(set *vitals.Set) ([]*vitals.Series, error) {
				return nil, expectedErr
			},
		}
		evaluated := false
		args.Evaluator = &testsCommon.AlertEvaluatorStub{
			EvaluateHandler: func(snapshot common.VitalsSnapshot, at time.Time) []common.AlertEvent {
				evaluated = true
				return nil
			},
		}
		metrics := &testsCommon.MetricsHandlerStub{}
		args.Metrics = metrics
		e, _ := NewVitalsEngine(args)
		notified := false
		_ = e.Subscribe(func(result common.TickResult) {
			notified = true
		})

		result, err := e.Tick()

		assert.ErrorIs(t, err, expectedErr)
		assert.Equal(t, common.TickResult{}, result)
		assert.False(t, evaluated)
		assert.False(t, notified)
		assert.Equal(t, 1, metrics.Faults())
		assert.Equal(t, 0, metrics.Ticks())
		assert.Equal(t, uint64(0), e.Status().Tick)
		recent, total := e.Alerts()
		assert.Empty(t, recent)
		assert.Equal(t, uint64(0), total)
	})
	t.Run("same seed reproduces the same trajectory", func(t *testing.T) {
		run := func() []common.VitalsSnapshot {
			args := createMockArgs(t)
			sim, _ := simulator.NewRandomWalkSimulator(testsCommon.NewRandomSourceStub(0.1, 0.9, 0.33, 0.71, 0.05, 0.62))
			args.Simulator = sim
			e, _ := NewVitalsEngine(args)

			snapshots := make([]common.VitalsSnapshot, 0, 50)
			for i := 0; i < 50; i++ {
				result, err := e.Tick()
				require.Nil(t, err)
				snapshots = append(snapshots, result.Vitals)
			}

			return snapshots
		}

		assert.Equal(t, run(), run())
	})
}

func TestVitalsEngine_AlertIDsWithFrozenClock(t *testing.T) {
	t.Parallel()

	journal, err := storage.NewSQLiteJournal(":memory:", 0)
	require.Nil(t, err)
	defer func() {
		_ = journal.Close()
	}()

	args := createMockArgs(t)
	args.Dataset = createHypertensiveDataset()
	args.Clock = func() time.Time {
		return testStart
	}
	e, _ := NewVitalsEngine(args)
	_ = e.Subscribe(func(result common.TickResult) {
		require.Nil(t, journal.SaveAlerts(context.Background(), result.Tick, result.NewAlerts))
	})

	ids := make(map[string]struct{})
	for i := 0; i < 3; i++ {
		result, errTick := e.Tick()
		require.Nil(t, errTick)
		require.Len(t, result.NewAlerts, 1)

		assert.Equal(t, alerts.EventID(result.Tick, alerts.RuleHighBloodPressure), result.NewAlerts[0].ID)
		assert.Equal(t, testStart, result.NewAlerts[0].Timestamp)
		ids[result.NewAlerts[0].ID] = struct{}{}
	}
	assert.Len(t, ids, 3)

	_, total := e.Alerts()
	numJournaled, err := journal.CountAlerts(context.Background())
	require.Nil(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, 3, numJournaled)
}

func TestVitalsEngine_Process(t *testing.T) {
	t.Parallel()

	t.Run("cancelled context should not tick", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e.Process(ctx)

		assert.Equal(t, uint64(0), e.Status().Tick)
	})
	t.Run("should tick", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))

		e.Process(context.Background())
		e.Process(context.Background())

		assert.Equal(t, uint64(2), e.Status().Tick)
	})
	t.Run("fault is logged and the next tick proceeds", func(t *testing.T) {
		args := createMockArgs(t)
		calls := 0
		args.Simulator = &testsCommon.SimulatorStub{
			TickHandler: func(set *vitals.Set) ([]*vitals.Series, error) {
				calls++
				if calls == 1 {
					return nil, vitals.ErrNonFiniteValue
				}

				return set.All(), nil
			},
		}
		e, _ := NewVitalsEngine(args)

		e.Process(context.Background())
		assert.Equal(t, uint64(0), e.Status().Tick)

		e.Process(context.Background())
		assert.Equal(t, uint64(1), e.Status().Tick)
	})
}

func TestVitalsEngine_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("subscribers are notified in order after the tick", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))

		order := make([]string, 0)
		_ = e.Subscribe(func(result common.TickResult) {
			order = append(order, "first")
			// the tick lock is released before notifying
			assert.Equal(t, result.Tick, e.Status().Tick)
		})
		_ = e.Subscribe(nil)
		_ = e.Subscribe(func(result common.TickResult) {
			order = append(order, "second")
		})

		_, err := e.Tick()
		require.Nil(t, err)

		assert.Equal(t, []string{"first", "second"}, order)
	})
	t.Run("unsubscribed handler is not notified", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))

		calls := 0
		unsubscribe := e.Subscribe(func(result common.TickResult) {
			calls++
		})

		_, _ = e.Tick()
		unsubscribe()
		unsubscribe()
		_, _ = e.Tick()

		assert.Equal(t, 1, calls)
	})
	t.Run("panicking subscriber does not stop the others", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))

		_ = e.Subscribe(func(result common.TickResult) {
			panic("subscriber failure")
		})
		called := false
		_ = e.Subscribe(func(result common.TickResult) {
			called = true
		})

		assert.NotPanics(t, func() {
			_, _ = e.Tick()
		})
		assert.True(t, called)
	})
}

func TestVitalsEngine_Vital(t *testing.T) {
	t.Parallel()

	e, _ := NewVitalsEngine(createMockArgs(t))

	view, err := e.Vital(common.OxygenSaturation)
	require.Nil(t, err)
	assert.Equal(t, "Oxygen Saturation", view.Label)
	assert.Equal(t, float64(98), view.Current)

	_, err = e.Vital("bloodGlucose")
	assert.ErrorIs(t, err, vitals.ErrUnknownKind)

	all := e.Vitals()
	require.Len(t, all, len(common.AllVitalKinds()))
	for i, kind := range common.AllVitalKinds() {
		assert.Equal(t, kind, all[i].Kind)
	}
}

func TestVitalsEngine_ExtendedHistory(t *testing.T) {
	t.Parallel()

	t.Run("invalid count should error", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))

		_, err := e.ExtendedHistory(common.HeartRate, 0)
		assert.ErrorIs(t, err, ErrInvalidCount)

		_, err = e.ExtendedHistory(common.HeartRate, MaxExtendedPoints+1)
		assert.ErrorIs(t, err, ErrInvalidCount)
	})
	t.Run("unknown kind should error", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))

		_, err := e.ExtendedHistory("bloodGlucose", 50)
		assert.ErrorIs(t, err, vitals.ErrUnknownKind)
	})
	t.Run("pads the history without touching the tick trajectory", func(t *testing.T) {
		args := createMockArgs(t)
		tickRandom := testsCommon.NewRandomSourceStub(0.5)
		sim, _ := simulator.NewRandomWalkSimulator(tickRandom)
		args.Simulator = sim
		detailRandom := testsCommon.NewRandomSourceStub(0.5)
		args.DetailRandom = detailRandom
		e, _ := NewVitalsEngine(args)

		before, _ := e.Vital(common.HeartRate)
		points, err := e.ExtendedHistory(common.HeartRate, 50)
		require.Nil(t, err)

		require.Len(t, points, 50)
		assert.Equal(t, before.History, points[:len(before.History)])
		for _, p := range points[len(before.History):] {
			assert.Equal(t, before.History[len(before.History)-1], p)
		}
		assert.Equal(t, 50-len(before.History), detailRandom.Calls())
		assert.Equal(t, 0, tickRandom.Calls())

		after, _ := e.Vital(common.HeartRate)
		assert.Equal(t, before, after)
	})
	t.Run("short count returns the newest points", func(t *testing.T) {
		e, _ := NewVitalsEngine(createMockArgs(t))

		view, _ := e.Vital(common.Temperature)
		points, err := e.ExtendedHistory(common.Temperature, 3)
		require.Nil(t, err)

		assert.Equal(t, view.History[len(view.History)-3:], points)
	})
}

func TestVitalsEngine_ConcurrentReadsDuringTicks(t *testing.T) {
	t.Parallel()

	args := createMockArgs(t)
	sim, _ := simulator.NewRandomWalkSimulator(testsCommon.NewRandomSourceStub(0.9, 0.1, 0.7, 0.2, 0.6))
	args.Simulator = sim
	e, _ := NewVitalsEngine(args)

	wg := sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = e.Tick()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, view := range e.Vitals() {
				assert.LessOrEqual(t, len(view.History), vitals.HistoryCapacity)
				assert.True(t, view.ClampRange.Contains(view.Current))
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			recent, _ := e.Alerts()
			assert.LessOrEqual(t, len(recent), alerts.SinkCapacity)
			_, _ = e.ExtendedHistory(common.Temperature, 30)
		}
	}()
	wg.Wait()

	assert.Equal(t, uint64(200), e.Status().Tick)
}
