package alerts

import "github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"

// SinkCapacity is the number of recent alerts kept for display
const SinkCapacity = 5

// Sink keeps the most recent alerts, newest first. It is not safe for concurrent use.
type Sink struct {
	capacity      int
	events        []common.AlertEvent
	totalRecorded uint64
}

// NewSink creates an empty sink holding at most SinkCapacity alerts
func NewSink() *Sink {
	return &Sink{
		capacity: SinkCapacity,
		events:   make([]common.AlertEvent, 0, SinkCapacity+1),
	}
}

// Record prepends each event in order and drops the oldest entries beyond capacity
func (s *Sink) Record(events []common.AlertEvent) {
	for _, event := range events {
		s.events = append(s.events, common.AlertEvent{})
		copy(s.events[1:], s.events)
		s.events[0] = event

		if len(s.events) > s.capacity {
			s.events = s.events[:s.capacity]
		}
	}

	s.totalRecorded += uint64(len(events))
}

// Snapshot returns a copy of the recent alerts, newest first
func (s *Sink) Snapshot() []common.AlertEvent {
	out := make([]common.AlertEvent, len(s.events))
	copy(out, s.events)

	return out
}

// TotalRecorded returns how many alerts were ever recorded, evicted ones included
func (s *Sink) TotalRecorded() uint64 {
	return s.totalRecorded
}
