package transaction

import (
	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

// WitnessScope bitmask selects which scripts a witness authorizes (§3).
type WitnessScope byte

const (
	ScopeNone             WitnessScope = 0
	ScopeCalledByEntry    WitnessScope = 0x01
	ScopeCustomContracts  WitnessScope = 0x10
	ScopeCustomGroups     WitnessScope = 0x20
	ScopeWitnessRules     WitnessScope = 0x40
	ScopeGlobal           WitnessScope = 0x80
)

// WitnessRule pairs a simple allow/deny action with a condition expression;
// the expression language itself lives in the VM/native layer and is
// treated here as an opaque serialized condition.
type WitnessRule struct {
	Deny      bool
	Condition []byte
}

func (r *WitnessRule) EncodeBinary(w *io.BinWriter) {
	w.WriteBool(r.Deny)
	w.WriteVarBytes(r.Condition)
}

func (r *WitnessRule) DecodeBinary(br *io.BinReader) {
	r.Deny = br.ReadBool()
	r.Condition = br.ReadVarBytes(65535)
}

// Signer names an account authorizing a transaction and the scope within
// which its witness is valid.
type Signer struct {
	Account          util.Uint160
	Scopes           WitnessScope
	AllowedContracts []util.Uint160
	AllowedGroups    [][]byte // compressed secp256r1 public keys
	Rules            []*WitnessRule
}

const (
	maxAllowedContractsOrGroups = 16
	maxWitnessRules             = 16
)

func (s *Signer) EncodeBinary(w *io.BinWriter) {
	s.Account.EncodeBinary(w)
	w.WriteByte(byte(s.Scopes))
	if s.Scopes&ScopeCustomContracts != 0 {
		w.WriteVarUint(uint64(len(s.AllowedContracts)))
		for _, c := range s.AllowedContracts {
			c.EncodeBinary(w)
		}
	}
	if s.Scopes&ScopeCustomGroups != 0 {
		w.WriteVarUint(uint64(len(s.AllowedGroups)))
		for _, g := range s.AllowedGroups {
			w.WriteVarBytes(g)
		}
	}
	if s.Scopes&ScopeWitnessRules != 0 {
		w.WriteVarUint(uint64(len(s.Rules)))
		for _, r := range s.Rules {
			r.EncodeBinary(w)
		}
	}
}

func (s *Signer) DecodeBinary(br *io.BinReader) {
	s.Account.DecodeBinary(br)
	s.Scopes = WitnessScope(br.ReadByte())
	if s.Scopes&ScopeCustomContracts != 0 {
		n := br.ReadVarUint(maxAllowedContractsOrGroups)
		s.AllowedContracts = make([]util.Uint160, n)
		for i := range s.AllowedContracts {
			s.AllowedContracts[i].DecodeBinary(br)
		}
	}
	if s.Scopes&ScopeCustomGroups != 0 {
		n := br.ReadVarUint(maxAllowedContractsOrGroups)
		s.AllowedGroups = make([][]byte, n)
		for i := range s.AllowedGroups {
			s.AllowedGroups[i] = br.ReadVarBytes(33)
		}
	}
	if s.Scopes&ScopeWitnessRules != 0 {
		n := br.ReadVarUint(maxWitnessRules)
		s.Rules = make([]*WitnessRule, n)
		for i := range s.Rules {
			s.Rules[i] = &WitnessRule{}
			s.Rules[i].DecodeBinary(br)
		}
	}
}

// AttributeType enumerates the fixed transaction attribute kinds.
type AttributeType byte

const (
	AttrHighPriority   AttributeType = 0x01
	AttrOracleResponse AttributeType = 0x11
	AttrNotValidBefore AttributeType = 0x20
	AttrConflicts      AttributeType = 0x21
)

// notMultiple reports whether at most one attribute of typ may appear on a
// transaction (§3: "attribute types with a 'not multiple' flag appear at
// most once").
func (t AttributeType) notMultiple() bool {
	switch t {
	case AttrHighPriority, AttrOracleResponse, AttrNotValidBefore:
		return true
	default:
		return false
	}
}

// Attribute is a typed, opaque-payload transaction attribute.
type Attribute struct {
	Type AttributeType
	Data []byte
}

func (a *Attribute) EncodeBinary(w *io.BinWriter) {
	w.WriteByte(byte(a.Type))
	w.WriteBytes(a.Data)
}

func (a *Attribute) DecodeBinary(br *io.BinReader) {
	a.Type = AttributeType(br.ReadByte())
	switch a.Type {
	case AttrHighPriority:
		a.Data = nil
	case AttrNotValidBefore:
		buf := make([]byte, 4)
		br.ReadBytes(buf)
		a.Data = buf
	case AttrConflicts:
		buf := make([]byte, 32)
		br.ReadBytes(buf)
		a.Data = buf
	case AttrOracleResponse:
		buf := make([]byte, 8)
		br.ReadBytes(buf)
		result := br.ReadVarBytes(65535)
		a.Data = append(buf, result...)
	}
}
