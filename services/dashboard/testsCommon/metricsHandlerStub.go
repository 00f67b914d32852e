package testsCommon

import (
	"sync"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// MetricsHandlerStub -
type MetricsHandlerStub struct {
	mut                        sync.Mutex
	ObserveTickHandler         func(duration time.Duration)
	IncTickFaultHandler        func()
	IncAlertHandler            func(rule string, severity common.Severity)
	SetVitalHandler            func(kind common.VitalKind, value float64)
	SetConnectedDevicesHandler func(count int)
	ticks                      int
	faults                     int
}

// ObserveTick -
func (stub *MetricsHandlerStub) ObserveTick(duration time.Duration) {
	stub.mut.Lock()
	stub.ticks++
	stub.mut.Unlock()

	if stub.ObserveTickHandler != nil {
		stub.ObserveTickHandler(duration)
	}
}

// IncTickFault -
func (stub *MetricsHandlerStub) IncTickFault() {
	stub.mut.Lock()
	stub.faults++
	stub.mut.Unlock()

	if stub.IncTickFaultHandler != nil {
		stub.IncTickFaultHandler()
	}
}

// IncAlert -
func (stub *MetricsHandlerStub) IncAlert(rule string, severity common.Severity) {
	if stub.IncAlertHandler != nil {
		stub.IncAlertHandler(rule, severity)
	}
}

// SetVital -
func (stub *MetricsHandlerStub) SetVital(kind common.VitalKind, value float64) {
	if stub.SetVitalHandler != nil {
		stub.SetVitalHandler(kind, value)
	}
}

// SetConnectedDevices -
func (stub *MetricsHandlerStub) SetConnectedDevices(count int) {
	if stub.SetConnectedDevicesHandler != nil {
		stub.SetConnectedDevicesHandler(count)
	}
}

// Ticks returns how many completed ticks were observed
func (stub *MetricsHandlerStub) Ticks() int {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	return stub.ticks
}

// Faults returns how many tick faults were observed
func (stub *MetricsHandlerStub) Faults() int {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	return stub.faults
}

// IsInterfaceNil -
func (stub *MetricsHandlerStub) IsInterfaceNil() bool {
	return stub == nil
}
