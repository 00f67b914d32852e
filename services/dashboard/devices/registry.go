package devices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("devices")

// ConnectedDevicesHandler receives the number of connected devices after every refresh
type ConnectedDevicesHandler interface {
	SetConnectedDevices(count int)
	IsInterfaceNil() bool
}

// ArgsDeviceRegistry defines the arguments needed to create a device registry
type ArgsDeviceRegistry struct {
	Devices []common.DeviceStatus
	Metrics ConnectedDevicesHandler
	Clock   func() time.Time
}

type deviceRegistry struct {
	mut         sync.RWMutex
	devices     []common.DeviceStatus
	lastRefresh time.Time
	metrics     ConnectedDevicesHandler
	clock       func() time.Time
}

// DefaultDevices returns the devices paired with the dashboard, with their last sync relative to now
func DefaultDevices(now time.Time) []common.DeviceStatus {
	return []common.DeviceStatus{
		{
			Name:           "Apple Watch Series 9",
			Type:           "smartwatch",
			Connected:      true,
			BatteryPercent: 85,
			LastSync:       now.Add(-2 * time.Minute),
		},
		{
			Name:           "Omron BP Monitor",
			Type:           "bloodPressureMonitor",
			Connected:      true,
			BatteryPercent: 92,
			LastSync:       now.Add(-15 * time.Minute),
		},
		{
			Name:           "Pulse Oximeter",
			Type:           "pulseOximeter",
			Connected:      false,
			BatteryPercent: 45,
			LastSync:       now.Add(-2 * time.Hour),
		},
	}
}

// NewDeviceRegistry creates the registry holding the status of the monitoring devices
func NewDeviceRegistry(args ArgsDeviceRegistry) (*deviceRegistry, error) {
	if check.IfNil(args.Metrics) {
		return nil, errors.New("nil connected devices handler")
	}

	names := make(map[string]struct{}, len(args.Devices))
	for i, device := range args.Devices {
		if device.Name == "" {
			return nil, fmt.Errorf("empty name for device at index %d", i)
		}
		if _, found := names[device.Name]; found {
			return nil, fmt.Errorf("duplicate device %q", device.Name)
		}
		if device.BatteryPercent < 0 || device.BatteryPercent > 100 {
			return nil, fmt.Errorf("invalid battery level %d%% for device %q", device.BatteryPercent, device.Name)
		}
		names[device.Name] = struct{}{}
	}

	clock := args.Clock
	if clock == nil {
		clock = time.Now
	}

	devices := make([]common.DeviceStatus, len(args.Devices))
	copy(devices, args.Devices)

	return &deviceRegistry{
		devices: devices,
		metrics: args.Metrics,
		clock:   clock,
	}, nil
}

// Refresh marks every connected device as synced now. It is meant to be called by the periodic job.
func (r *deviceRegistry) Refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	now := r.clock()

	r.mut.Lock()
	connected := 0
	for i := range r.devices {
		if !r.devices[i].Connected {
			continue
		}

		r.devices[i].LastSync = now
		connected++
	}
	r.lastRefresh = now
	r.mut.Unlock()

	r.metrics.SetConnectedDevices(connected)
	log.Debug("device statuses refreshed", "connected", connected, "total", len(r.devices))
}

// Report returns a copy of the device list and the time of the last refresh
func (r *deviceRegistry) Report() common.DevicesReport {
	r.mut.RLock()
	defer r.mut.RUnlock()

	devices := make([]common.DeviceStatus, len(r.devices))
	copy(devices, r.devices)

	return common.DevicesReport{
		Devices:     devices,
		LastRefresh: r.lastRefresh,
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *deviceRegistry) IsInterfaceNil() bool {
	return r == nil
}
