package sse

import (
	"context"
	"sync"

	"ms-calendar/internal/models"
)

// AllCreators subscribes to changes of every event.
const AllCreators = ""

// ChangeEventEmitter fans event changes out to SSE clients, either for one
// creator or for the whole calendar.
type ChangeEventEmitter struct {
	// key: createdBy, AllCreators for the calendar-wide stream
	clients     map[string][]chan models.EventChange
	clientMutex sync.RWMutex
	buffer      int
}

func NewChangeEventEmitter(buffer int) *ChangeEventEmitter {
	if buffer <= 0 {
		buffer = 10
	}
	return &ChangeEventEmitter{
		clients: make(map[string][]chan models.EventChange),
		buffer:  buffer,
	}
}

// Subscribe registers a client until ctx is done; the channel is closed then.
func (e *ChangeEventEmitter) Subscribe(ctx context.Context, createdBy string) <-chan models.EventChange {
	clientChan := make(chan models.EventChange, e.buffer)

	e.clientMutex.Lock()
	e.clients[createdBy] = append(e.clients[createdBy], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(createdBy, clientChan)
	}()

	return clientChan
}

// PublishChange broadcasts to the creator's subscribers and to the
// calendar-wide ones. It never blocks on a slow client.
func (e *ChangeEventEmitter) PublishChange(_ context.Context, change models.EventChange) error {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	e.broadcast(e.clients[AllCreators], change)
	if change.Event.CreatedBy != AllCreators {
		e.broadcast(e.clients[change.Event.CreatedBy], change)
	}
	return nil
}

func (e *ChangeEventEmitter) broadcast(clients []chan models.EventChange, change models.EventChange) {
	for _, clientChan := range clients {
		select {
		case clientChan <- change:
		default:
			// buffer full, drop for this client
		}
	}
}

func (e *ChangeEventEmitter) removeClient(createdBy string, clientChan chan models.EventChange) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[createdBy]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[createdBy] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[createdBy]) == 0 {
		delete(e.clients, createdBy)
	}
}

// ClientCount returns the number of clients subscribed for createdBy.
func (e *ChangeEventEmitter) ClientCount(createdBy string) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[createdBy])
}
