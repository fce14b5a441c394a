package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Relay lifecycle states.
const (
	relayStopped  = int32(0)
	relayStarting = int32(1)
	relayRunning  = int32(2)
	relayStopping = int32(3)
)

// Relay is the server-side half of the synchronization protocol. It
// subscribes to every project's edit subject, validates the snapshot,
// persists it, and republishes it on the project's updates topic.
//
// Conflict policy is last-writer-wins at whole-document granularity: the
// relay stores and fans out snapshots in arrival order and never merges.
type Relay struct {
	transport Transport
	store     SnapshotStore
	logger    *slog.Logger

	state     atomic.Int32
	startTime time.Time
	mu        sync.Mutex
	sub       Subscription
	cancel    context.CancelFunc
}

// NewRelay creates a relay over an established transport.
func NewRelay(transport Transport, store SnapshotStore, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		transport: transport,
		store:     store,
		logger:    logger,
	}
}

// Start subscribes to the edit wildcard and begins relaying.
func (r *Relay) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(relayStopped, relayStarting) {
		return fmt.Errorf("relay already running or starting")
	}

	relayCtx, cancel := context.WithCancel(ctx)

	sub, err := r.transport.Subscribe(EditWildcard(), func(subject string, data []byte) {
		r.handleEdit(relayCtx, subject, data)
	})
	if err != nil {
		cancel()
		r.state.Store(relayStopped)
		return fmt.Errorf("subscribe %s: %w", EditWildcard(), err)
	}

	r.mu.Lock()
	r.sub = sub
	r.cancel = cancel
	r.startTime = time.Now()
	r.mu.Unlock()

	r.state.Store(relayRunning)
	r.logger.Info("Relay started", "subject", EditWildcard())
	return nil
}

// Stop unsubscribes and stops relaying. Safe to call twice.
func (r *Relay) Stop() error {
	if !r.state.CompareAndSwap(relayRunning, relayStopping) {
		current := r.state.Load()
		if current == relayStopped || current == relayStopping {
			return nil
		}
		return fmt.Errorf("relay in unexpected state: %d", current)
	}

	r.mu.Lock()
	sub := r.sub
	cancel := r.cancel
	r.sub = nil
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			r.logger.Warn("Failed to unsubscribe relay", "error", err)
		}
	}

	r.state.Store(relayStopped)
	r.logger.Info("Relay stopped")
	return nil
}

// Running reports whether the relay is accepting edits.
func (r *Relay) Running() bool {
	return r.state.Load() == relayRunning
}

// Uptime returns how long the relay has been running.
func (r *Relay) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Load() != relayRunning {
		return 0
	}
	return time.Since(r.startTime)
}

// handleEdit processes one inbound edit snapshot. Malformed frames are
// dropped and counted; they never unseat the stored snapshot.
func (r *Relay) handleEdit(ctx context.Context, subject string, data []byte) {
	snapshotsReceived.Inc()

	projectID, err := ProjectIDFromEditSubject(subject)
	if err != nil {
		snapshotsDropped.WithLabelValues("subject").Inc()
		r.logger.Warn("Dropping edit on unexpected subject", "subject", subject, "error", err)
		return
	}

	doc, err := decodeSnapshot(data)
	if err != nil {
		snapshotsDropped.WithLabelValues("decode").Inc()
		r.logger.Warn("Dropping malformed edit snapshot",
			"project_id", projectID,
			"error", err)
		return
	}

	if err := r.store.Save(ctx, projectID, doc); err != nil {
		// Fan out anyway: live subscribers beat durable state here, the next
		// accepted edit rewrites the bucket.
		r.logger.Error("Failed to persist snapshot",
			"project_id", projectID,
			"error", err)
	}

	if err := r.transport.Publish(UpdatesSubject(projectID), data); err != nil {
		r.logger.Error("Failed to fan out snapshot",
			"project_id", projectID,
			"error", err)
		return
	}

	snapshotsFannedOut.Inc()
	r.logger.Debug("Relayed snapshot",
		"project_id", projectID,
		"rows", doc.Rows())
}
