// Package config defines the node's typed configuration surface (§3
// "ProtocolSettings", "NetworkConfig", "NodeHealth"): consensus-relevant
// protocol parameters, P2P transport limits, and a read-only runtime health
// snapshot, plus a YAML loader. Grounded on the teacher's pkg/config/
// config.go for the "nested struct decoded from a YAML file, overridable by
// environment" shape, rebuilt against gopkg.in/yaml.v3 directly rather than
// viper: this node has one flat configuration document, not viper's layered
// search-path/merge machinery, so a direct decode is the idiomatic fit.
package config

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// Magic identifies a network by its P2P handshake magic number (§4.9
// "Version message: network magic (u32)"). A peer whose advertised magic
// does not match the local one is rejected during handshake.
type Magic uint32

const (
	// MainNetMagic is the reference network's public MainNet magic.
	MainNetMagic Magic = 860833102
	// TestNetMagic is the reference network's public TestNet magic.
	TestNetMagic Magic = 894710606
	// PrivNetMagic is used by single- or few-node development networks that
	// never interoperate with a public network.
	PrivNetMagic Magic = 0x4e333350
)

// genesisTimestamp is the default genesis header timestamp (Unix
// milliseconds) used when ProtocolSettings.GenesisTimestamp is zero.
const genesisTimestamp = 1468595301000

// ProtocolSettings is the fixed set of consensus-relevant parameters a node
// is constructed with (§3 "ProtocolSettings"); the ledger, the consensus
// state machine, and the P2P handshake must all agree on these values to
// interoperate on the same network.
//
// This binary does not embed the public MainNet/TestNet standby committee:
// doing so from memory risks shipping a wrong key set silently accepted as
// authoritative. Operators targeting a public network supply its committee
// via the YAML config; DefaultSoloSettings below derives a reproducible
// single-validator network for local development without that dependency.
type ProtocolSettings struct {
	Magic                   Magic             `yaml:"magic"`
	StandbyCommittee        []*keys.PublicKey `yaml:"-"`
	StandbyCommitteeHex     []string          `yaml:"standby_committee"`
	ValidatorsCount         int               `yaml:"validators_count"`
	SeedList                []string          `yaml:"seed_list"`
	MillisecondsPerBlock    uint32            `yaml:"milliseconds_per_block"`
	MaxTransactionsPerBlock uint32            `yaml:"max_transactions_per_block"`
	MaxTraceableBlocks      uint32            `yaml:"max_traceable_blocks"`
	AddressVersion          byte              `yaml:"address_version"`
	Hardforks               map[string]uint32 `yaml:"hardforks"`
	GenesisTimestamp        uint64            `yaml:"genesis_timestamp"`
}

// NetworkConfig bounds the P2P transport (§4.9 peer-lifecycle and
// backpressure rules): how many peers to carry, how hard to try to reach
// the desired count, and how long to wait before giving up or retrying.
type NetworkConfig struct {
	ListenAddr            string        `yaml:"listen_addr"`
	MaxPeersIn            int           `yaml:"max_peers_in"`
	MaxPeersOut           int           `yaml:"max_peers_out"`
	MinDesiredConnections int           `yaml:"min_desired_connections"`
	DialTimeout           time.Duration `yaml:"dial_timeout"`
	ReconnectBackoff      time.Duration `yaml:"reconnect_backoff"`
}

// NodeHealth is a read-only runtime snapshot (§3 "NodeHealth"), assembled by
// the orchestrator on demand rather than kept as live mutable state here.
type NodeHealth struct {
	BlockHeight         uint32
	PeerCount           int
	MempoolSize         int
	LastPersistDuration time.Duration
}

// DefaultNetworkConfig returns the transport defaults a node uses absent an
// explicit config file.
func DefaultNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		ListenAddr:            "/ip4/0.0.0.0/tcp/20333",
		MaxPeersIn:            40,
		MaxPeersOut:           10,
		MinDesiredConnections: 4,
		DialTimeout:           10 * time.Second,
		ReconnectBackoff:      30 * time.Second,
	}
}

// DefaultSoloSettings returns ProtocolSettings for a single-validator
// development network seeded by priv. Its standby committee is the lone
// key, so the genesis witness reduces to the ordinary 1-of-1 multi-
// signature shape internal/ledger's witness verifier already recognizes.
func DefaultSoloSettings(priv *keys.PrivateKey) *ProtocolSettings {
	return &ProtocolSettings{
		Magic:                   PrivNetMagic,
		StandbyCommittee:        []*keys.PublicKey{priv.PublicKey()},
		ValidatorsCount:         1,
		MillisecondsPerBlock:    15000,
		MaxTransactionsPerBlock: 512,
		MaxTraceableBlocks:      2_102_400,
		AddressVersion:          0x35,
		GenesisTimestamp:        genesisTimestamp,
	}
}

// committeeMultiSigScript builds the standard m-of-n verification script
// over ps's standby committee, using the BFT-safe majority threshold
// n - floor((n-1)/3), the same quorum the consensus state machine requires
// for a Commit to finalize a block.
func committeeMultiSigScript(ps *ProtocolSettings) ([]byte, error) {
	n := len(ps.StandbyCommittee)
	if n == 0 {
		return nil, fmt.Errorf("config: protocol settings have no standby committee")
	}
	m := n - (n-1)/3
	return multiSigScript(m, ps.StandbyCommittee)
}

// multiSigScript renders the standard PUSH(m) (PUSHDATA1<pubkey>)*n PUSH(n)
// SYSCALL System.Crypto.CheckMultisig contract shape, mirroring the test
// helper internal/ledger's witness tests use to build one for verification.
func multiSigScript(m int, pubs []*keys.PublicKey) ([]byte, error) {
	if m < 1 || m > len(pubs) || len(pubs) > 16 {
		return nil, fmt.Errorf("config: invalid multisig threshold %d of %d keys", m, len(pubs))
	}
	out := []byte{byte(vm.OpPush0) + byte(m)}
	for _, pub := range pubs {
		b := pub.Bytes()
		out = append(out, byte(vm.OpPushData1), byte(len(b)))
		out = append(out, b...)
	}
	out = append(out, byte(vm.OpPush0)+byte(len(pubs)), byte(vm.OpSyscall))
	id := make([]byte, 4)
	binary.LittleEndian.PutUint32(id, vm.SyscallHash("System.Crypto.CheckMultisig"))
	return append(out, id...), nil
}

// GenesisBlock deterministically rebuilds a network's genesis block from ps:
// the standby committee's multi-signature script is both the header's
// NextConsensus account and its witness, and the timestamp is the network's
// fixed genesis epoch. A genesis hash is never a literal constant here — it
// is always recomputed from these named protocol parameters, the same way
// every later block's hash is computed from its own header fields.
func GenesisBlock(ps *ProtocolSettings) (*block.Block, error) {
	script, err := committeeMultiSigScript(ps)
	if err != nil {
		return nil, err
	}
	ts := ps.GenesisTimestamp
	if ts == 0 {
		ts = genesisTimestamp
	}
	h := &block.Header{
		Version:       0,
		Timestamp:     ts,
		Index:         0,
		NextConsensus: hash.Hash160(script),
		Witness:       &transaction.Witness{VerificationScript: script},
	}
	return &block.Block{Header: h}, nil
}

// GenesisHash returns the hash a node configured with ps must see as block
// height zero (§6 end-to-end scenario "best_block_hash() ==
// GenesisHash(TestNet)").
func GenesisHash(ps *ProtocolSettings) (util.Uint256, error) {
	g, err := GenesisBlock(ps)
	if err != nil {
		return util.Uint256{}, err
	}
	return g.Hash(), nil
}

// fileDocument is the on-disk YAML shape Load decodes: a flat document with
// a network and a protocol section, matching the teacher's config.go nested-
// struct-per-concern layout.
type fileDocument struct {
	Network  NetworkConfig    `yaml:"network"`
	Protocol ProtocolSettings `yaml:"protocol"`
}

// Load reads path as YAML and decodes it into a NetworkConfig and
// ProtocolSettings pair. A missing StandbyCommittee (e.g. a bare network
// section with no protocol block, for commands that only need transport
// settings) is left empty; callers that need a genesis must supply one via
// DefaultSoloSettings or a config file naming the committee explicitly.
func Load(path string) (*NetworkConfig, *ProtocolSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	net := doc.Network
	if net.ListenAddr == "" {
		net = *DefaultNetworkConfig()
	}
	ps := doc.Protocol
	for _, hx := range ps.StandbyCommitteeHex {
		b, err := parseHexPubKey(hx)
		if err != nil {
			return nil, nil, fmt.Errorf("config: standby_committee: %w", err)
		}
		ps.StandbyCommittee = append(ps.StandbyCommittee, b)
	}
	return &net, &ps, nil
}

func parseHexPubKey(hx string) (*keys.PublicKey, error) {
	b, err := decodeHex(hx)
	if err != nil {
		return nil, err
	}
	return keys.PublicKeyFromBytes(b)
}

func decodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexDigit(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}

// LoadFromEnv reads the config file path named by N3NODE_CONFIG, falling
// back to defaultPath when unset, mirroring the teacher's LoadFromEnv
// reading SYNN_ENV to pick a config variant.
func LoadFromEnv(defaultPath string) (*NetworkConfig, *ProtocolSettings, error) {
	path := os.Getenv("N3NODE_CONFIG")
	if path == "" {
		path = defaultPath
	}
	return Load(path)
}
