package testsCommon

import "github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"

// SimulatorStub -
type SimulatorStub struct {
	TickHandler func(set *vitals.Set) ([]*vitals.Series, error)
}

// Tick -
func (stub *SimulatorStub) Tick(set *vitals.Set) ([]*vitals.Series, error) {
	if stub.TickHandler != nil {
		return stub.TickHandler(set)
	}

	return set.All(), nil
}

// IsInterfaceNil -
func (stub *SimulatorStub) IsInterfaceNil() bool {
	return stub == nil
}
