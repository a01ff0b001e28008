package native

import (
	"encoding/json"
	"fmt"

	"github.com/synnergy-network/n3node/internal/crypto/bls"
	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// CryptoLib exposes stateless hashing/signature helpers (§4.6).
type CryptoLib struct {
	methods map[string]*Method
}

var cryptoLibHash = contractHash("CryptoLib")

func NewCryptoLib() *CryptoLib {
	c := &CryptoLib{}
	c.methods = map[string]*Method{
		"sha256":         {Name: "sha256", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 15, Handler: c.sha256},
		"hash160":        {Name: "hash160", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 15, Handler: c.hash160},
		"hash256":        {Name: "hash256", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 15, Handler: c.hash256},
		"verifyWithECDsa": {Name: "verifyWithECDsa", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 15, Handler: c.verifyECDSA},
		"bls12381Verify":  {Name: "bls12381Verify", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 18, Handler: c.blsVerify},
		"jsonSerialize":   {Name: "jsonSerialize", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 13, Handler: c.jsonSerialize},
		"jsonDeserialize": {Name: "jsonDeserialize", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 13, Handler: c.jsonDeserialize},
	}
	return c
}

func (c *CryptoLib) ID() int32                  { return -12 }
func (c *CryptoLib) Hash() util.Uint160          { return cryptoLibHash }
func (c *CryptoLib) Name() string                { return "CryptoLib" }
func (c *CryptoLib) Methods() map[string]*Method { return c.methods }

func (c *CryptoLib) sha256(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	b, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("sha256: expected byte argument")
	}
	h := hash.Sha256(b)
	return h.BytesLE(), nil
}

func (c *CryptoLib) hash160(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	b, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("hash160: expected byte argument")
	}
	h := hash.Hash160(b)
	return h.BytesLE(), nil
}

func (c *CryptoLib) hash256(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	b, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("hash256: expected byte argument")
	}
	h := hash.Hash256(b)
	return h.BytesLE(), nil
}

func (c *CryptoLib) verifyECDSA(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	msg, ok1 := args[0].([]byte)
	pubBytes, ok2 := args[1].([]byte)
	sig, ok3 := args[2].([]byte)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("verifyWithECDsa: expected byte arguments")
	}
	pub, err := keys.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return false, nil
	}
	return keys.Verify(pub, msg, sig), nil
}

func (c *CryptoLib) blsVerify(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	msg, ok1 := args[0].([]byte)
	pubBytes, ok2 := args[1].([]byte)
	sig, ok3 := args[2].([]byte)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("bls12381Verify: expected byte arguments")
	}
	ok, err := bls.VerifyBasic(pubBytes, msg, sig)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func (c *CryptoLib) jsonSerialize(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	b, err := json.Marshal(args[0])
	if err != nil {
		return nil, fmt.Errorf("jsonSerialize: %w", err)
	}
	return b, nil
}

func (c *CryptoLib) jsonDeserialize(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	b, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("jsonDeserialize: expected byte argument")
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("jsonDeserialize: %w", err)
	}
	return v, nil
}
