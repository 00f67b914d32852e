package testsCommon

import "github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"

// VitalsEngineStub -
type VitalsEngineStub struct {
	VitalsHandler          func() []common.VitalView
	VitalHandler           func(kind common.VitalKind) (common.VitalView, error)
	AlertsHandler          func() ([]common.AlertEvent, uint64)
	ExtendedHistoryHandler func(kind common.VitalKind, count int) ([]float64, error)
	StatusHandler          func() common.EngineStatus
	SubscribeHandler       func(handler func(result common.TickResult)) func()
}

// Vitals -
func (stub *VitalsEngineStub) Vitals() []common.VitalView {
	if stub.VitalsHandler != nil {
		return stub.VitalsHandler()
	}

	return make([]common.VitalView, 0)
}

// Vital -
func (stub *VitalsEngineStub) Vital(kind common.VitalKind) (common.VitalView, error) {
	if stub.VitalHandler != nil {
		return stub.VitalHandler(kind)
	}

	return common.VitalView{Kind: kind}, nil
}

// Alerts -
func (stub *VitalsEngineStub) Alerts() ([]common.AlertEvent, uint64) {
	if stub.AlertsHandler != nil {
		return stub.AlertsHandler()
	}

	return make([]common.AlertEvent, 0), 0
}

// ExtendedHistory -
func (stub *VitalsEngineStub) ExtendedHistory(kind common.VitalKind, count int) ([]float64, error) {
	if stub.ExtendedHistoryHandler != nil {
		return stub.ExtendedHistoryHandler(kind, count)
	}

	return make([]float64, 0), nil
}

// Status -
func (stub *VitalsEngineStub) Status() common.EngineStatus {
	if stub.StatusHandler != nil {
		return stub.StatusHandler()
	}

	return common.EngineStatus{}
}

// Subscribe -
func (stub *VitalsEngineStub) Subscribe(handler func(result common.TickResult)) func() {
	if stub.SubscribeHandler != nil {
		return stub.SubscribeHandler(handler)
	}

	return func() {}
}

// IsInterfaceNil -
func (stub *VitalsEngineStub) IsInterfaceNil() bool {
	return stub == nil
}
