package native

import (
	"encoding/binary"
	"fmt"

	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// ContractManagement deploys, updates, and destroys contracts (§4.6).
type ContractManagement struct {
	methods map[string]*Method
}

const managementID = -1

const (
	prefixContractByHash = 0x08
	prefixHashByID        = 0x0C
	prefixNextID          = 0x0F
	prefixMinDeployFee    = 0x14
)

const defaultMinDeployFee = 10_00000000 // 10 GAS, in datoshi

var managementHash = contractHash("ContractManagement")

func NewContractManagement() *ContractManagement {
	m := &ContractManagement{}
	m.methods = map[string]*Method{
		"deploy":             {Name: "deploy", RequiredFlag: vm.CallFlagStates, GasCost: 0, Handler: m.deploy},
		"update":             {Name: "update", RequiredFlag: vm.CallFlagStates, GasCost: 0, Handler: m.update},
		"destroy":            {Name: "destroy", RequiredFlag: vm.CallFlagStates, GasCost: 0, Handler: m.destroy},
		"getContract":        {Name: "getContract", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 15, Handler: m.getContract},
		"getMinimumDeploymentFee": {Name: "getMinimumDeploymentFee", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: m.getMinimumDeploymentFee},
	}
	return m
}

func (m *ContractManagement) ID() int32                  { return managementID }
func (m *ContractManagement) Hash() util.Uint160          { return managementHash }
func (m *ContractManagement) Name() string                { return "ContractManagement" }
func (m *ContractManagement) Methods() map[string]*Method { return m.methods }

// DeployedContract is the persisted state for a deployed (non-native)
// contract: its NEF script, its manifest, and the id it was assigned.
type DeployedContract struct {
	ID       int32
	Hash     util.Uint160
	NEF      []byte
	Manifest []byte
	Data     any
}

var (
	ErrContractAlreadyExists = fmt.Errorf("management: contract already deployed at this hash")
	ErrContractNotFound      = fmt.Errorf("management: contract not found")
	ErrEmptyNEF              = fmt.Errorf("management: nef script must not be empty")
)

func (m *ContractManagement) nextID(e *vm.ApplicationEngine) int32 {
	snap := snapshotOf(e)
	key := storageKey(managementID, prefixNextID, nil)
	v, ok := snap.Get(key)
	var id int32 = 1
	if ok {
		id = int32(binary.LittleEndian.Uint32(v)) + 1
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(id))
	snap.Put(key, buf)
	return id
}

func encodeDeployedContract(c *DeployedContract) []byte {
	nefLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(nefLen, uint32(len(c.NEF)))
	manifestLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(manifestLen, uint32(len(c.Manifest)))

	idBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(idBuf, uint32(c.ID))

	out := make([]byte, 0, 4+4+len(c.NEF)+4+len(c.Manifest))
	out = append(out, idBuf...)
	out = append(out, nefLen...)
	out = append(out, c.NEF...)
	out = append(out, manifestLen...)
	out = append(out, c.Manifest...)
	return out
}

func decodeDeployedContract(hash util.Uint160, enc []byte) (*DeployedContract, error) {
	if len(enc) < 8 {
		return nil, fmt.Errorf("%w: truncated record", ErrContractNotFound)
	}
	id := int32(binary.LittleEndian.Uint32(enc[0:4]))
	nefLen := binary.LittleEndian.Uint32(enc[4:8])
	off := 8
	if off+int(nefLen) > len(enc) {
		return nil, fmt.Errorf("%w: truncated nef", ErrContractNotFound)
	}
	nef := enc[off : off+int(nefLen)]
	off += int(nefLen)
	if off+4 > len(enc) {
		return nil, fmt.Errorf("%w: truncated manifest length", ErrContractNotFound)
	}
	manifestLen := binary.LittleEndian.Uint32(enc[off : off+4])
	off += 4
	if off+int(manifestLen) > len(enc) {
		return nil, fmt.Errorf("%w: truncated manifest", ErrContractNotFound)
	}
	manifest := enc[off : off+int(manifestLen)]
	return &DeployedContract{ID: id, Hash: hash, NEF: nef, Manifest: manifest}, nil
}

// deploy parses (nef, manifest), derives the contract's script hash, checks
// it isn't already in use, assigns a fresh id, and persists the record under
// both the by-hash and by-id indices.
// TODO: invoke the deployed script's `_deploy` method when internal/ledger
// gains a way to load and execute an arbitrary stored contract from inside
// a native contract's own handler.
func (m *ContractManagement) deploy(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	nef, ok := args[0].([]byte)
	if !ok || len(nef) == 0 {
		return nil, ErrEmptyNEF
	}
	manifest, _ := args[1].([]byte)

	hash := util.Hash160OfString(string(nef))
	snap := snapshotOf(e)
	byHashKey := storageKey(managementID, prefixContractByHash, hash.BytesLE())
	if snap.Contains(byHashKey) {
		return nil, ErrContractAlreadyExists
	}

	id := m.nextID(e)
	rec := &DeployedContract{ID: id, Hash: hash, NEF: nef, Manifest: manifest}
	snap.Put(byHashKey, encodeDeployedContract(rec))
	idKey := storageKey(managementID, prefixHashByID, idLE(id))
	snap.Put(idKey, hash.BytesLE())

	return hash.BytesLE(), nil
}

func (m *ContractManagement) update(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	hashBytes, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("update: expected contract hash argument")
	}
	hash, err := util.Uint160DecodeBytesLE(hashBytes)
	if err != nil {
		return nil, err
	}
	snap := snapshotOf(e)
	key := storageKey(managementID, prefixContractByHash, hash.BytesLE())
	enc, ok := snap.Get(key)
	if !ok {
		return nil, ErrContractNotFound
	}
	rec, err := decodeDeployedContract(hash, enc)
	if err != nil {
		return nil, err
	}
	if nef, ok := args[1].([]byte); ok && len(nef) > 0 {
		rec.NEF = nef
	}
	if manifest, ok := args[2].([]byte); ok {
		rec.Manifest = manifest
	}
	snap.Put(key, encodeDeployedContract(rec))
	return true, nil
}

func (m *ContractManagement) destroy(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	hashBytes, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("destroy: expected contract hash argument")
	}
	hash, err := util.Uint160DecodeBytesLE(hashBytes)
	if err != nil {
		return nil, err
	}
	snap := snapshotOf(e)
	key := storageKey(managementID, prefixContractByHash, hash.BytesLE())
	enc, ok := snap.Get(key)
	if !ok {
		return nil, ErrContractNotFound
	}
	rec, err := decodeDeployedContract(hash, enc)
	if err != nil {
		return nil, err
	}
	snap.Delete(key)
	snap.Delete(storageKey(managementID, prefixHashByID, idLE(rec.ID)))
	return true, nil
}

func (m *ContractManagement) getContract(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	hashBytes, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("getContract: expected contract hash argument")
	}
	hash, err := util.Uint160DecodeBytesLE(hashBytes)
	if err != nil {
		return nil, err
	}
	enc, ok := snapshotOf(e).Get(storageKey(managementID, prefixContractByHash, hash.BytesLE()))
	if !ok {
		return nil, nil
	}
	return decodeDeployedContract(hash, enc)
}

func (m *ContractManagement) getMinimumDeploymentFee(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(getUint64(e, managementID, prefixMinDeployFee, defaultMinDeployFee)), nil
}

func idLE(id int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(id))
	return b
}
