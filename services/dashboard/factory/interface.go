package factory

import (
	"context"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/api"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// Engine defines the simulation operations the components handler drives
type Engine interface {
	api.VitalsEngine
	Process(ctx context.Context)
	Tick() (common.TickResult, error)
}

// Journal defines the session's alert store
type Journal interface {
	api.AlertJournal
	SaveAlerts(ctx context.Context, tick uint64, events []common.AlertEvent) error
	Close() error
}

// DeviceRegistry defines the device status component refreshed by the periodic job
type DeviceRegistry interface {
	api.DeviceRegistry
	Refresh(ctx context.Context)
}

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start() error
	Address() string
	Close() error
}

// Publisher defines an outbound tick sink that owns a connection
type Publisher interface {
	HandleTick(result common.TickResult)
	Close() error
}
