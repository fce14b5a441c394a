package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay metrics. Dropped frames are labeled by reason so a misbehaving client
// shows up as decode drops rather than a silent consistency gap.
var (
	snapshotsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "specboard_relay_snapshots_received_total",
		Help: "Edit snapshots received from clients.",
	})

	snapshotsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "specboard_relay_snapshots_dropped_total",
		Help: "Edit snapshots dropped before fan-out.",
	}, []string{"reason"})

	snapshotsFannedOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "specboard_relay_snapshots_fanned_out_total",
		Help: "Snapshots republished to project update topics.",
	})
)
