package p2p

import (
	"fmt"
	"sync"
	"time"
)

// PeerState is a peer connection's lifecycle stage (§4.9/§4.11 "Peer
// Connecting -> Handshaking -> Ready -> Disconnected").
type PeerState int

const (
	StateConnecting PeerState = iota
	StateHandshaking
	StateReady
	StateDisconnected
)

func (s PeerState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// outboundQueueDepth bounds each priority lane of a peer's outbound queue
// (§4.9 "each peer owns a bounded outbound queue").
const outboundQueueDepth = 256

// MaxMalformedMessages disconnects and blacklists a peer once its malformed-
// message count reaches this (§4.9 "a peer exceeding per-connection limits
// (message rate, malformed messages...) is disconnected and address-
// blacklisted").
const MaxMalformedMessages = 8

// highPriority reports whether cmd belongs in the lane drained first and
// never dropped on overflow (§4.9 [FULL] "two priority lanes (high: Block/
// Extensible/Transaction; low: Inv/Addr/Ping/Pong) drained high-first,
// overflow drops from the low lane").
func highPriority(cmd Command) bool {
	switch cmd {
	case CmdBlock, CmdExtensible, CmdTransaction:
		return true
	default:
		return false
	}
}

// Peer tracks one connection's lifecycle, outbound backpressure queues, and
// misbehavior accounting.
type Peer struct {
	ID      string
	Address string
	Inbound bool

	mu         sync.Mutex
	state      PeerState
	malformed  int
	startedAt  time.Time
	handshaken time.Time

	high chan Frame
	low  chan Frame

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPeer constructs a peer in the Connecting state with empty outbound
// queues.
func NewPeer(id, address string, inbound bool) *Peer {
	return &Peer{
		ID:        id,
		Address:   address,
		Inbound:   inbound,
		state:     StateConnecting,
		startedAt: time.Now(),
		high:      make(chan Frame, outboundQueueDepth),
		low:       make(chan Frame, outboundQueueDepth),
		closed:    make(chan struct{}),
	}
}

// State returns the peer's current lifecycle stage.
func (p *Peer) State() PeerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState transitions the peer to s.
func (p *Peer) SetState(s PeerState) {
	p.mu.Lock()
	p.state = s
	if s == StateReady {
		p.handshaken = time.Now()
	}
	p.mu.Unlock()
}

// Enqueue places fr on the lane matching its command. High-priority frames
// apply backpressure to the caller when the lane is full rather than being
// dropped; low-priority frames are dropped on overflow (§4.9 "on overflow,
// low-priority messages (Inv, Addr) dropped before high-priority (Block,
// Extensible)").
func (p *Peer) Enqueue(fr Frame) error {
	lane := p.low
	if highPriority(fr.Command) {
		lane = p.high
	}
	select {
	case lane <- fr:
		return nil
	case <-p.closed:
		return fmt.Errorf("p2p: peer %s closed", p.ID)
	default:
	}
	if lane == p.low {
		framesDropped.WithLabelValues(fr.Command.String()).Inc()
		return nil
	}
	select {
	case lane <- fr:
		return nil
	case <-p.closed:
		return fmt.Errorf("p2p: peer %s closed", p.ID)
	case <-time.After(5 * time.Second):
		return fmt.Errorf("p2p: peer %s high-priority queue blocked", p.ID)
	}
}

// Dequeue blocks for the next frame to send, draining the high-priority
// lane before the low-priority one.
func (p *Peer) Dequeue() (Frame, bool) {
	select {
	case fr := <-p.high:
		return fr, true
	default:
	}
	select {
	case fr := <-p.high:
		return fr, true
	case fr := <-p.low:
		return fr, true
	case <-p.closed:
		return Frame{}, false
	}
}

// RecordMalformed increments the peer's malformed-message count, returning
// whether it has now reached MaxMalformedMessages.
func (p *Peer) RecordMalformed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.malformed++
	return p.malformed >= MaxMalformedMessages
}

// Close marks the peer closed, unblocking any pending Enqueue/Dequeue call.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		p.SetState(StateDisconnected)
		close(p.closed)
	})
}
