package p2p

import "testing"

func TestPeerDequeueDrainsHighLaneFirst(t *testing.T) {
	p := NewPeer("peer1", "/ip4/127.0.0.1/tcp/1", false)
	if err := p.Enqueue(Frame{Command: CmdAddr}); err != nil {
		t.Fatalf("enqueue low: %v", err)
	}
	if err := p.Enqueue(Frame{Command: CmdBlock}); err != nil {
		t.Fatalf("enqueue high: %v", err)
	}
	fr, ok := p.Dequeue()
	if !ok || fr.Command != CmdBlock {
		t.Fatalf("got %+v, want CmdBlock first", fr)
	}
	fr, ok = p.Dequeue()
	if !ok || fr.Command != CmdAddr {
		t.Fatalf("got %+v, want CmdAddr second", fr)
	}
}

func TestPeerDropsLowPriorityOnOverflow(t *testing.T) {
	p := NewPeer("peer1", "/ip4/127.0.0.1/tcp/1", false)
	for i := 0; i < outboundQueueDepth; i++ {
		if err := p.Enqueue(Frame{Command: CmdAddr}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	// The lane is now full; one more low-priority frame must be dropped
	// silently rather than blocking the caller or erroring (§4.9 "on
	// overflow, low-priority messages... dropped").
	if err := p.Enqueue(Frame{Command: CmdPing}); err != nil {
		t.Fatalf("overflow enqueue should not error: %v", err)
	}
	if len(p.low) != outboundQueueDepth {
		t.Fatalf("low lane length = %d, want %d (overflow frame dropped)", len(p.low), outboundQueueDepth)
	}
}

func TestPeerRecordMalformedTripsAtLimit(t *testing.T) {
	p := NewPeer("peer1", "/ip4/127.0.0.1/tcp/1", false)
	for i := 0; i < MaxMalformedMessages-1; i++ {
		if p.RecordMalformed() {
			t.Fatalf("tripped early at message %d", i)
		}
	}
	if !p.RecordMalformed() {
		t.Fatalf("expected limit to trip on message %d", MaxMalformedMessages)
	}
}
