package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/oversight/domain/state"
)

// Bus is an in-process fan-out channel connecting several engines in one
// process. Like the browser channel it models, it never delivers a message
// back to its publisher.
type Bus struct {
	subscribers map[int]*busTransport
	nextID      int
	mu          sync.RWMutex
}

// NewBus creates a new in-process message bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]*busTransport)}
}

// Connect returns a new transport endpoint attached to the bus.
func (b *Bus) Connect() state.Transport {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := &busTransport{bus: b, id: b.nextID}
	b.subscribers[b.nextID] = t
	b.nextID++
	return t
}

// publish fans a message out to every endpoint except the sender.
func (b *Bus) publish(senderID int, msg state.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, t := range b.subscribers {
		if id == senderID {
			continue
		}
		t.deliver(msg)
	}
}

// disconnect removes an endpoint from the bus.
func (b *Bus) disconnect(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// busTransport is one endpoint on the bus, implementing state.Transport.
type busTransport struct {
	bus     *Bus
	id      int
	handler func(state.Message)
	closed  bool
	mu      sync.Mutex
}

// Publish sends a message to all other endpoints.
func (t *busTransport) Publish(ctx context.Context, msg state.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return state.ErrTransportClosed
	}

	t.bus.publish(t.id, msg)
	return nil
}

// Receive registers the handler for incoming messages.
func (t *busTransport) Receive(ctx context.Context, handler func(state.Message)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return state.ErrTransportClosed
	}
	t.handler = handler
	return nil
}

// deliver hands a message to the registered handler, if any.
func (t *busTransport) deliver(msg state.Message) {
	t.mu.Lock()
	handler := t.handler
	closed := t.closed
	t.mu.Unlock()

	if closed || handler == nil {
		return
	}
	handler(msg)
}

// Close detaches the endpoint from the bus.
func (t *busTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.bus.disconnect(t.id)
	return nil
}

// Ensure busTransport implements state.Transport
var _ state.Transport = (*busTransport)(nil)
