package api

import (
	"context"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// VitalsEngine defines the read-only view of the simulation exposed to the display layer
type VitalsEngine interface {
	// Vitals returns every vital series in tick order
	Vitals() []common.VitalView

	// Vital returns one vital series or an error wrapping vitals.ErrUnknownKind
	Vital(kind common.VitalKind) (common.VitalView, error)

	// Alerts returns the recent alerts, newest first, and the number of alerts ever recorded
	Alerts() ([]common.AlertEvent, uint64)

	// ExtendedHistory returns the detail view points of a vital
	ExtendedHistory(kind common.VitalKind, count int) ([]float64, error)

	// Status returns the simulation progress
	Status() common.EngineStatus

	// Subscribe registers a handler notified after every tick and returns the function removing it
	Subscribe(handler func(result common.TickResult)) func()

	IsInterfaceNil() bool
}

// AlertJournal defines the session's alert history
type AlertJournal interface {
	// GetAlerts returns up to limit journaled alerts, newest first
	GetAlerts(ctx context.Context, limit int) ([]common.JournalEntry, error)

	IsInterfaceNil() bool
}

// DeviceRegistry defines the source of the monitoring devices status
type DeviceRegistry interface {
	Report() common.DevicesReport
	IsInterfaceNil() bool
}
