package state

import "context"

// Store persists the latest snapshot under StorageKey so state survives a
// restart of the execution context. Implementations overwrite; history, if
// any, is an implementation detail.
type Store interface {
	// Save persists the snapshot, replacing any prior one.
	Save(ctx context.Context, snapshot Snapshot) error

	// Load returns the persisted snapshot, or found=false if none exists.
	Load(ctx context.Context) (snapshot Snapshot, found bool, err error)

	// Close releases any resources held by the store.
	Close() error
}

// Transport delivers state-update messages between execution contexts.
// Delivery is fire-and-forget: publishing never blocks on receivers and
// messages may be lost. Last delivered wins.
type Transport interface {
	// Publish sends a message to all other contexts on the channel.
	Publish(ctx context.Context, msg Message) error

	// Receive registers the handler and starts delivering incoming
	// messages to it. It returns once delivery is running; the handler is
	// invoked from the transport's own goroutine until Close or context
	// cancellation.
	Receive(ctx context.Context, handler func(Message)) error

	// Close stops delivery and releases the channel.
	Close() error
}
