// Package realtime keeps every connected client's document eventually
// consistent through whole-snapshot broadcast over broker topics. It holds
// the client-side Channel, the server-side Relay, and the snapshot store that
// serves initial loads.
package realtime

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// MsgHandler receives an inbound message frame.
type MsgHandler func(subject string, data []byte)

// Subscription is an active topic subscription.
type Subscription interface {
	// Unsubscribe stops delivery for this subscription.
	Unsubscribe() error
}

// Transport is the broker connection handle owned by a Channel or Relay.
// It is an explicit dependency, not ambient state, so channel lifecycles can
// be exercised in tests with an in-memory implementation.
type Transport interface {
	// Publish sends data to a subject. Fire and forget.
	Publish(subject string, data []byte) error

	// Subscribe delivers every message on subject to handler.
	Subscribe(subject string, handler MsgHandler) (Subscription, error)

	// Close tears the connection down, flushing pending messages.
	Close() error
}

// Dialer opens a Transport. Channels dial lazily on Connect so a channel can
// be constructed before the upstream session socket is ready.
type Dialer func(ctx context.Context) (Transport, error)

// natsTransport adapts a *nats.Conn to the Transport interface.
type natsTransport struct {
	nc *nats.Conn
}

// NATSTransport wraps an established NATS connection.
func NATSTransport(nc *nats.Conn) Transport {
	return &natsTransport{nc: nc}
}

// NATSDialer returns a Dialer that connects to the given NATS URL.
func NATSDialer(url string, opts ...nats.Option) Dialer {
	return func(ctx context.Context) (Transport, error) {
		nc, err := nats.Connect(url, opts...)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", url, err)
		}
		return NATSTransport(nc), nil
	}
}

func (t *natsTransport) Publish(subject string, data []byte) error {
	return t.nc.Publish(subject, data)
}

func (t *natsTransport) Subscribe(subject string, handler MsgHandler) (Subscription, error) {
	sub, err := t.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (t *natsTransport) Close() error {
	return t.nc.Drain()
}
