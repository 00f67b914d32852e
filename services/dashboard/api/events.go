package api

import (
	"sync"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

const clientBufferSize = 16

// eventsHub fans the tick results out to the connected SSE clients. A slow client loses ticks instead of
// delaying the simulation.
type eventsHub struct {
	mut     sync.RWMutex
	clients map[uint64]chan common.TickResult
	nextID  uint64
	closed  bool
}

func newEventsHub() *eventsHub {
	return &eventsHub{
		clients: make(map[uint64]chan common.TickResult),
	}
}

// HandleTick is the engine subscriber
func (hub *eventsHub) HandleTick(result common.TickResult) {
	hub.mut.RLock()
	defer hub.mut.RUnlock()

	for id, ch := range hub.clients {
		select {
		case ch <- result:
		default:
			log.Debug("dropped tick for slow events client", "client", id, "tick", result.Tick)
		}
	}
}

// register returns a nil channel after the hub was closed
func (hub *eventsHub) register() (uint64, <-chan common.TickResult) {
	hub.mut.Lock()
	defer hub.mut.Unlock()

	if hub.closed {
		return 0, nil
	}

	hub.nextID++
	ch := make(chan common.TickResult, clientBufferSize)
	hub.clients[hub.nextID] = ch

	return hub.nextID, ch
}

func (hub *eventsHub) unregister(id uint64) {
	hub.mut.Lock()
	defer hub.mut.Unlock()

	ch, found := hub.clients[id]
	if !found {
		return
	}

	delete(hub.clients, id)
	close(ch)
}

func (hub *eventsHub) numClients() int {
	hub.mut.RLock()
	defer hub.mut.RUnlock()

	return len(hub.clients)
}

// close ends every client stream
func (hub *eventsHub) close() {
	hub.mut.Lock()
	defer hub.mut.Unlock()

	if hub.closed {
		return
	}

	hub.closed = true
	for id, ch := range hub.clients {
		delete(hub.clients, id)
		close(ch)
	}
}
