package testsCommon

import (
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// AlertEvaluatorStub -
type AlertEvaluatorStub struct {
	EvaluateHandler func(snapshot common.VitalsSnapshot, at time.Time) []common.AlertEvent
}

// Evaluate -
func (stub *AlertEvaluatorStub) Evaluate(snapshot common.VitalsSnapshot, at time.Time) []common.AlertEvent {
	if stub.EvaluateHandler != nil {
		return stub.EvaluateHandler(snapshot, at)
	}

	return make([]common.AlertEvent, 0)
}

// IsInterfaceNil -
func (stub *AlertEvaluatorStub) IsInterfaceNil() bool {
	return stub == nil
}
