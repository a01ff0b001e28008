package native

import (
	"encoding/binary"
	"fmt"

	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// LedgerContract exposes read-only access to persisted blocks and
// transactions (§4.6/§4.7). Unlike the other native contracts it also has
// two methods the persistence pipeline calls directly rather than through
// Invoke: OnPersist (records every transaction in the block being
// committed) and PostPersist (backfills each transaction's final VM state
// once the engine has executed it).
type LedgerContract struct {
	methods           map[string]*Method
	maxTraceableBlocks uint32
}

const ledgerID = -4

// Prefix values match the bit-exact, consensus-critical storage key layout:
// block-by-hash 0x05, block-hash-by-index 0x09, transaction-by-hash 0x0B.
// prefixCurrentIndex has no externally fixed value and is assigned the next
// free slot in this contract's namespace.
const (
	prefixBlockByHash      = 0x05
	prefixBlockHashByIndex = 0x09
	prefixTxRecord         = 0x0B
	prefixCurrentIndex     = 0x0C
)

// DefaultMaxTraceableBlocks bounds how far back getBlock/getTransaction look
// before treating a once-persisted block as untraceable.
const DefaultMaxTraceableBlocks = 2_102_400

var ledgerHash = contractHash("LedgerContract")

func NewLedgerContract(maxTraceableBlocks uint32) *LedgerContract {
	if maxTraceableBlocks == 0 {
		maxTraceableBlocks = DefaultMaxTraceableBlocks
	}
	l := &LedgerContract{maxTraceableBlocks: maxTraceableBlocks}
	l.methods = map[string]*Method{
		"getBlock":           {Name: "getBlock", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 15, Handler: l.getBlockMethod},
		"getTransaction":     {Name: "getTransaction", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 15, Handler: l.getTransactionMethod},
		"getTransactionHeight": {Name: "getTransactionHeight", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 15, Handler: l.getTransactionHeightMethod},
		"currentIndex":       {Name: "currentIndex", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 4, Handler: l.currentIndexMethod},
		"currentHash":        {Name: "currentHash", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 4, Handler: l.currentHashMethod},
	}
	return l
}

func (l *LedgerContract) ID() int32                  { return ledgerID }
func (l *LedgerContract) Hash() util.Uint160          { return ledgerHash }
func (l *LedgerContract) Name() string                { return "LedgerContract" }
func (l *LedgerContract) Methods() map[string]*Method { return l.methods }

// TxRecord is one transaction's persisted trace-surface entry.
type TxRecord struct {
	BlockIndex uint32
	VMState    vm.VMState
	Tx         *transaction.Transaction
}

func encodeTxRecord(rec *TxRecord) []byte {
	txBytes := nio.ToBytes(rec.Tx)
	out := make([]byte, 0, 4+1+len(txBytes))
	idx := make([]byte, 4)
	binary.LittleEndian.PutUint32(idx, rec.BlockIndex)
	out = append(out, idx...)
	out = append(out, byte(rec.VMState))
	out = append(out, txBytes...)
	return out
}

func decodeTxRecord(enc []byte) (*TxRecord, error) {
	if len(enc) < 5 {
		return nil, fmt.Errorf("ledger: truncated transaction record")
	}
	idx := binary.LittleEndian.Uint32(enc[0:4])
	state := vm.VMState(enc[4])
	tx := &transaction.Transaction{}
	if err := nio.FromBytes(tx, enc[5:]); err != nil {
		return nil, fmt.Errorf("ledger: decode transaction: %w", err)
	}
	return &TxRecord{BlockIndex: idx, VMState: state, Tx: tx}, nil
}

func blockIndexKey(index uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, index)
	return b
}

// OnPersist runs before any transaction in blk executes: it records the
// block itself and, for every transaction, an initial record with
// VMState == VMStateNone pending PostPersist's update.
func (l *LedgerContract) OnPersist(e *vm.ApplicationEngine, blk *block.Block) error {
	snap := snapshotOf(e)
	blockBytes := nio.ToBytes(blk)
	snap.Put(storageKey(ledgerID, prefixBlockByHash, blk.Hash().BytesLE()), blockBytes)
	snap.Put(storageKey(ledgerID, prefixBlockHashByIndex, blockIndexKey(blk.Header.Index)), blk.Hash().BytesLE())
	snap.Put(storageKey(ledgerID, prefixCurrentIndex, nil), blockIndexKey(blk.Header.Index))

	for _, tx := range blk.Transactions {
		rec := &TxRecord{BlockIndex: blk.Header.Index, VMState: vm.VMStateNone, Tx: tx}
		snap.Put(storageKey(ledgerID, prefixTxRecord, tx.Hash().BytesLE()), encodeTxRecord(rec))
	}
	return nil
}

// PostPersist updates each transaction's recorded VM state from states,
// indexed the same order as blk.Transactions.
func (l *LedgerContract) PostPersist(e *vm.ApplicationEngine, blk *block.Block, states []vm.VMState) error {
	if len(states) != len(blk.Transactions) {
		return fmt.Errorf("ledger: postpersist state count mismatch: %d states for %d transactions", len(states), len(blk.Transactions))
	}
	snap := snapshotOf(e)
	for i, tx := range blk.Transactions {
		key := storageKey(ledgerID, prefixTxRecord, tx.Hash().BytesLE())
		enc, ok := snap.Get(key)
		if !ok {
			continue
		}
		rec, err := decodeTxRecord(enc)
		if err != nil {
			return err
		}
		rec.VMState = states[i]
		snap.Put(key, encodeTxRecord(rec))
	}
	return nil
}

func (l *LedgerContract) currentIndexValue(e *vm.ApplicationEngine) uint32 {
	v, ok := snapshotOf(e).Get(storageKey(ledgerID, prefixCurrentIndex, nil))
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint32(v)
}

func (l *LedgerContract) traceable(e *vm.ApplicationEngine, index uint32) bool {
	current := l.currentIndexValue(e)
	if current < l.maxTraceableBlocks {
		return true
	}
	return index >= current-l.maxTraceableBlocks
}

func (l *LedgerContract) getBlockMethod(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	var hashBytes []byte
	switch v := args[0].(type) {
	case []byte:
		hashBytes = v
	case int64:
		idxKey := storageKey(ledgerID, prefixBlockHashByIndex, blockIndexKey(uint32(v)))
		stored, ok := snapshotOf(e).Get(idxKey)
		if !ok {
			return nil, nil
		}
		hashBytes = stored
	default:
		return nil, fmt.Errorf("getBlock: expected hash bytes or index")
	}
	enc, ok := snapshotOf(e).Get(storageKey(ledgerID, prefixBlockByHash, hashBytes))
	if !ok {
		return nil, nil
	}
	blk := &block.Block{}
	if err := nio.FromBytes(blk, enc); err != nil {
		return nil, err
	}
	if !l.traceable(e, blk.Header.Index) {
		return nil, nil
	}
	return blk, nil
}

func (l *LedgerContract) getTransactionMethod(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	hashBytes, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("getTransaction: expected hash bytes")
	}
	enc, ok := snapshotOf(e).Get(storageKey(ledgerID, prefixTxRecord, hashBytes))
	if !ok {
		return nil, nil
	}
	rec, err := decodeTxRecord(enc)
	if err != nil {
		return nil, err
	}
	if !l.traceable(e, rec.BlockIndex) {
		return nil, nil
	}
	return rec, nil
}

func (l *LedgerContract) getTransactionHeightMethod(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	hashBytes, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("getTransactionHeight: expected hash bytes")
	}
	enc, ok := snapshotOf(e).Get(storageKey(ledgerID, prefixTxRecord, hashBytes))
	if !ok {
		return int64(-1), nil
	}
	rec, err := decodeTxRecord(enc)
	if err != nil {
		return nil, err
	}
	return int64(rec.BlockIndex), nil
}

func (l *LedgerContract) currentIndexMethod(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(l.currentIndexValue(e)), nil
}

func (l *LedgerContract) currentHashMethod(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	idxKey := storageKey(ledgerID, prefixBlockHashByIndex, blockIndexKey(l.currentIndexValue(e)))
	hashBytes, ok := snapshotOf(e).Get(idxKey)
	if !ok {
		return nil, nil
	}
	return hashBytes, nil
}
