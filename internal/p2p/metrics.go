package p2p

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics registered against the default Prometheus registry (§3 domain
// stack "peer-count/message-rate metrics").
var (
	peersReady = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "n3node",
		Subsystem: "p2p",
		Name:      "peers_ready",
		Help:      "Number of peers currently in the Ready state.",
	})
	framesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "n3node",
		Subsystem: "p2p",
		Name:      "frames_sent_total",
		Help:      "Frames written to peers, by command.",
	}, []string{"command"})
	framesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "n3node",
		Subsystem: "p2p",
		Name:      "frames_received_total",
		Help:      "Frames read from peers, by command.",
	}, []string{"command"})
	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "n3node",
		Subsystem: "p2p",
		Name:      "frames_dropped_total",
		Help:      "Low-priority frames dropped on outbound queue overflow, by command.",
	}, []string{"command"})
	peersBanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "n3node",
		Subsystem: "p2p",
		Name:      "peers_banned_total",
		Help:      "Peers disconnected and blacklisted for exceeding per-connection limits.",
	})
)
