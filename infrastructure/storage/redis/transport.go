package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/oversight/domain/state"
	"github.com/felixgeelhaar/oversight/infrastructure/logging"
)

// Transport is the Redis pub/sub implementation of state.Transport: the
// primary, sub-10ms broadcast channel between execution contexts.
//
// Redis delivers published messages back to the publishing connection's
// subscribers, so receivers filter messages by origin instance ID.
type Transport struct {
	client    *redis.Client
	origin    string
	keyPrefix string

	pubsub *redis.PubSub
	done   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewTransport creates a pub/sub transport. origin is this context's engine
// instance ID, used to drop echoed messages.
func NewTransport(cfg Config, origin string, opts ...ConfigOption) (*Transport, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(state.ErrStoreUnavailable, err)
	}

	return &Transport{
		client:    client,
		origin:    origin,
		keyPrefix: cfg.KeyPrefix,
		done:      make(chan struct{}),
	}, nil
}

// NewTransportFromClient creates a transport from an existing Redis client.
func NewTransportFromClient(client *redis.Client, origin, keyPrefix string) *Transport {
	return &Transport{
		client:    client,
		origin:    origin,
		keyPrefix: keyPrefix,
		done:      make(chan struct{}),
	}
}

// channel returns the prefixed pub/sub channel name.
func (t *Transport) channel() string {
	return t.keyPrefix + state.ChannelName
}

// Publish sends a message to all contexts subscribed to the channel.
func (t *Transport) Publish(ctx context.Context, msg state.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return state.ErrTransportClosed
	}

	if msg.Origin == "" {
		msg.Origin = t.origin
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := t.client.Publish(ctx, t.channel(), data).Err(); err != nil {
		return fmt.Errorf("broadcast publish failed: %w", err)
	}
	return nil
}

// Receive subscribes to the channel and starts delivering foreign messages
// to the handler.
func (t *Transport) Receive(ctx context.Context, handler func(state.Message)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return state.ErrTransportClosed
	}
	if t.pubsub != nil {
		return nil
	}

	t.pubsub = t.client.Subscribe(ctx, t.channel())

	// Force the subscription to be established before returning so a
	// publish immediately after Receive is not lost.
	if _, err := t.pubsub.Receive(ctx); err != nil {
		t.pubsub.Close()
		t.pubsub = nil
		return fmt.Errorf("broadcast subscribe failed: %w", err)
	}

	ch := t.pubsub.Channel()
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-t.done:
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				t.deliver(m.Payload, handler)
			}
		}
	}()

	return nil
}

// deliver decodes one payload and hands it to the handler unless it is this
// context's own echo or malformed.
func (t *Transport) deliver(payload string, handler func(state.Message)) {
	var msg state.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logging.Warn().
			Add(logging.Channel("broadcast")).
			Add(logging.Err(state.ErrMalformedSnapshot)).
			Msg("ignoring malformed broadcast payload")
		return
	}

	if msg.Origin != "" && msg.Origin == t.origin {
		return
	}

	handler(msg)
}

// Close unsubscribes and closes the Redis connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	pubsub := t.pubsub
	t.mu.Unlock()

	close(t.done)
	var err error
	if pubsub != nil {
		err = pubsub.Close()
	}
	t.wg.Wait()

	if cerr := t.client.Close(); err == nil {
		err = cerr
	}
	return err
}

// Ensure Transport implements state.Transport
var _ state.Transport = (*Transport)(nil)
