package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/specboard/specboard/document"
)

// Channel connection states.
const (
	StateDisconnected = int32(0)
	StateConnecting   = int32(1)
	StateConnected    = int32(2)
)

// StateName returns a readable channel state label.
func StateName(state int32) string {
	switch state {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// SnapshotHandler receives inbound document snapshots in delivery order.
type SnapshotHandler func(document.Document)

// Channel is a client's synchronization channel for one project. It
// subscribes to the project's updates topic for inbound snapshots and
// publishes the full local snapshot on every mutation.
//
// Delivery is at-most-once, best effort: publishing while disconnected is a
// silent local-only no-op, and whichever snapshot a subscriber receives last
// wins wholesale.
type Channel struct {
	projectID  string
	dial       Dialer
	onSnapshot SnapshotHandler
	logger     *slog.Logger

	state atomic.Int32

	mu        sync.Mutex
	transport Transport
	sub       Subscription
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithChannelLogger sets the logger.
func WithChannelLogger(logger *slog.Logger) ChannelOption {
	return func(c *Channel) {
		c.logger = logger
	}
}

// NewChannel creates a channel for projectID. onSnapshot is invoked for every
// well-formed inbound snapshot; malformed frames are dropped and logged.
func NewChannel(projectID string, dial Dialer, onSnapshot SnapshotHandler, opts ...ChannelOption) *Channel {
	c := &Channel{
		projectID:  projectID,
		dial:       dial,
		onSnapshot: onSnapshot,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() int32 {
	return c.state.Load()
}

// Connected reports whether the channel can currently publish.
func (c *Channel) Connected() bool {
	return c.state.Load() == StateConnected
}

// Connect dials the broker and subscribes to the project's updates topic.
// Called when the upstream session signals readiness. Connect failures leave
// the channel disconnected; the caller decides whether to retry.
func (c *Channel) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(StateDisconnected, StateConnecting) {
		return fmt.Errorf("channel already %s", StateName(c.state.Load()))
	}

	transport, err := c.dial(ctx)
	if err != nil {
		c.state.Store(StateDisconnected)
		return fmt.Errorf("channel connect: %w", err)
	}

	sub, err := transport.Subscribe(UpdatesSubject(c.projectID), c.handleFrame)
	if err != nil {
		if closeErr := transport.Close(); closeErr != nil {
			c.logger.Warn("Failed to close transport after subscribe failure",
				"project_id", c.projectID,
				"error", closeErr)
		}
		c.state.Store(StateDisconnected)
		return fmt.Errorf("subscribe %s: %w", UpdatesSubject(c.projectID), err)
	}

	c.mu.Lock()
	c.transport = transport
	c.sub = sub
	c.mu.Unlock()

	c.state.Store(StateConnected)
	c.logger.Debug("Channel connected", "project_id", c.projectID)
	return nil
}

// handleFrame parses an inbound snapshot frame. Frames that do not decode to
// a shape-valid document are dropped; the local document is left unchanged.
func (c *Channel) handleFrame(subject string, data []byte) {
	doc, err := decodeSnapshot(data)
	if err != nil {
		c.logger.Warn("Dropping malformed sync message",
			"project_id", c.projectID,
			"subject", subject,
			"error", err)
		return
	}
	c.onSnapshot(doc)
}

// Publish sends the full snapshot to the project's edit destination. When the
// channel is not connected the publish is skipped: the caller's local mutation
// stands, it simply does not propagate.
func (c *Channel) Publish(doc document.Document) error {
	if c.state.Load() != StateConnected {
		c.logger.Debug("Channel not connected, skipping publish",
			"project_id", c.projectID,
			"state", StateName(c.state.Load()))
		return nil
	}

	data, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	c.mu.Lock()
	transport := c.transport
	c.mu.Unlock()
	if transport == nil {
		return nil
	}

	if err := transport.Publish(EditSubject(c.projectID), data); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Close disconnects gracefully. Disconnect failures are logged, never
// returned: teardown must not take the caller down with it.
func (c *Channel) Close() {
	if c.state.Swap(StateDisconnected) != StateConnected {
		return
	}

	c.mu.Lock()
	sub := c.sub
	transport := c.transport
	c.sub = nil
	c.transport = nil
	c.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe", "project_id", c.projectID, "error", err)
		}
	}
	if transport != nil {
		if err := transport.Close(); err != nil {
			c.logger.Warn("Failed to close transport", "project_id", c.projectID, "error", err)
		}
	}
	c.logger.Debug("Channel disconnected", "project_id", c.projectID)
}
