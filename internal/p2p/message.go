package p2p

import (
	"time"

	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/config"
)

// CapabilityType names one entry in a Version message's capability list
// (§4.9 "capabilities list (TCP server, WebSocket server, FullNode w/
// start-height)").
type CapabilityType byte

const (
	CapTCPServer CapabilityType = 0x01
	CapWSServer  CapabilityType = 0x02
	CapFullNode  CapabilityType = 0x10
)

// Capability is one advertised service, with the field meaningful for its
// type: a listen Port for the server capabilities, a StartHeight for
// FullNode.
type Capability struct {
	Type        CapabilityType
	Port        uint16
	StartHeight uint32
}

func (c *Capability) EncodeBinary(w *nio.BinWriter) {
	w.WriteByte(byte(c.Type))
	switch c.Type {
	case CapTCPServer, CapWSServer:
		w.WriteU16LE(c.Port)
	case CapFullNode:
		w.WriteU32LE(c.StartHeight)
	}
}

func (c *Capability) DecodeBinary(r *nio.BinReader) {
	c.Type = CapabilityType(r.ReadByte())
	switch c.Type {
	case CapTCPServer, CapWSServer:
		c.Port = r.ReadU16LE()
	case CapFullNode:
		c.StartHeight = r.ReadU32LE()
	}
}

// VersionMessage is the handshake's opening payload (§4.9 "Version
// message: network magic (u32), services, timestamp, nonce, user-agent
// (var-string), start-height, capabilities list").
type VersionMessage struct {
	Magic            config.Magic
	Services         uint64
	Timestamp        uint32
	Nonce            uint32
	UserAgent        string
	StartHeight      uint32
	Capabilities     []Capability
	AllowCompression bool
}

func (v *VersionMessage) EncodeBinary(w *nio.BinWriter) {
	w.WriteU32LE(uint32(v.Magic))
	w.WriteU64LE(v.Services)
	w.WriteU32LE(v.Timestamp)
	w.WriteU32LE(v.Nonce)
	w.WriteVarString(v.UserAgent)
	w.WriteU32LE(v.StartHeight)
	w.WriteVarUint(uint64(len(v.Capabilities)))
	for i := range v.Capabilities {
		v.Capabilities[i].EncodeBinary(w)
	}
	w.WriteBool(v.AllowCompression)
}

func (v *VersionMessage) DecodeBinary(r *nio.BinReader) {
	v.Magic = config.Magic(r.ReadU32LE())
	v.Services = r.ReadU64LE()
	v.Timestamp = r.ReadU32LE()
	v.Nonce = r.ReadU32LE()
	v.UserAgent = r.ReadVarString(256)
	v.StartHeight = r.ReadU32LE()
	n := r.ReadVarUint(16)
	v.Capabilities = make([]Capability, n)
	for i := range v.Capabilities {
		v.Capabilities[i].DecodeBinary(r)
	}
	v.AllowCompression = r.ReadBool()
}

// NewVersionMessage builds this node's outgoing handshake payload.
// AllowCompression defaults true (§4.9 "allow_compression defaults true").
func NewVersionMessage(magic config.Magic, nonce, startHeight uint32, listenPort uint16) *VersionMessage {
	return &VersionMessage{
		Magic:            magic,
		Timestamp:        uint32(time.Now().Unix()),
		Nonce:            nonce,
		UserAgent:        "/n3node:0.1.0/",
		StartHeight:      startHeight,
		AllowCompression: true,
		Capabilities: []Capability{
			{Type: CapTCPServer, Port: listenPort},
			{Type: CapFullNode, StartHeight: startHeight},
		},
	}
}

// AddrEntry is one peer address advertised by Addr (§4.9 "GetAddr/Addr
// exchange").
type AddrEntry struct {
	Timestamp uint32
	Address   string
}

func (a *AddrEntry) EncodeBinary(w *nio.BinWriter) {
	w.WriteU32LE(a.Timestamp)
	w.WriteVarString(a.Address)
}

func (a *AddrEntry) DecodeBinary(r *nio.BinReader) {
	a.Timestamp = r.ReadU32LE()
	a.Address = r.ReadVarString(256)
}

// AddrPayload is Addr's payload: a bounded list of known peer addresses.
type AddrPayload struct {
	Entries []AddrEntry
}

// MaxAddrEntries bounds a single Addr payload.
const MaxAddrEntries = 200

func (p *AddrPayload) EncodeBinary(w *nio.BinWriter) {
	w.WriteVarUint(uint64(len(p.Entries)))
	for i := range p.Entries {
		p.Entries[i].EncodeBinary(w)
	}
}

func (p *AddrPayload) DecodeBinary(r *nio.BinReader) {
	n := r.ReadVarUint(MaxAddrEntries)
	if r.Err != nil {
		return
	}
	p.Entries = make([]AddrEntry, n)
	for i := range p.Entries {
		p.Entries[i].DecodeBinary(r)
	}
}
