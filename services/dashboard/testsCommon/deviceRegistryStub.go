package testsCommon

import "github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"

// DeviceRegistryStub -
type DeviceRegistryStub struct {
	ReportHandler func() common.DevicesReport
}

// Report -
func (stub *DeviceRegistryStub) Report() common.DevicesReport {
	if stub.ReportHandler != nil {
		return stub.ReportHandler()
	}

	return common.DevicesReport{
		Devices: make([]common.DeviceStatus, 0),
	}
}

// IsInterfaceNil -
func (stub *DeviceRegistryStub) IsInterfaceNil() bool {
	return stub == nil
}
