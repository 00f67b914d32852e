package testsCommon

import (
	"context"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

// JournalStub -
type JournalStub struct {
	SaveAlertsHandler  func(ctx context.Context, tick uint64, events []common.AlertEvent) error
	GetAlertsHandler   func(ctx context.Context, limit int) ([]common.JournalEntry, error)
	CountAlertsHandler func(ctx context.Context) (int, error)
	CloseHandler       func() error
}

// SaveAlerts -
func (stub *JournalStub) SaveAlerts(ctx context.Context, tick uint64, events []common.AlertEvent) error {
	if stub.SaveAlertsHandler != nil {
		return stub.SaveAlertsHandler(ctx, tick, events)
	}

	return nil
}

// GetAlerts -
func (stub *JournalStub) GetAlerts(ctx context.Context, limit int) ([]common.JournalEntry, error) {
	if stub.GetAlertsHandler != nil {
		return stub.GetAlertsHandler(ctx, limit)
	}

	return make([]common.JournalEntry, 0), nil
}

// CountAlerts -
func (stub *JournalStub) CountAlerts(ctx context.Context) (int, error) {
	if stub.CountAlertsHandler != nil {
		return stub.CountAlertsHandler(ctx)
	}

	return 0, nil
}

// Close -
func (stub *JournalStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *JournalStub) IsInterfaceNil() bool {
	return stub == nil
}
