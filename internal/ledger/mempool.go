package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/util"
)

var (
	ErrMempoolFull        = fmt.Errorf("mempool: pool is at capacity and the new transaction does not outrank the lowest entry")
	ErrSenderLimitReached = fmt.Errorf("mempool: sender already has the maximum number of pooled transactions")
	ErrAlreadyInPool      = fmt.Errorf("mempool: transaction already pooled")
	ErrExpired            = fmt.Errorf("mempool: transaction's valid-until-block has passed")
	ErrInsufficientFee    = fmt.Errorf("mempool: network fee does not cover the minimum fee-per-byte")
	ErrConflictOutranked  = fmt.Errorf("mempool: a pooled conflicting transaction has a higher fee")
)

// entry is one pooled transaction plus the precomputed rank fields §4.8's
// ordering is defined over, so re-sorting never re-derives them.
type entry struct {
	tx         *transaction.Transaction
	feePerByte int64
	hash       util.Uint256
}

// less implements the verified pool's total order: fee-per-byte descending,
// hash ascending as the tiebreak (§4.8 "verified pool ordered by (fee-per-
// byte desc, hash asc)").
func (a entry) less(b entry) bool {
	if a.feePerByte != b.feePerByte {
		return a.feePerByte > b.feePerByte
	}
	return a.hash.Less(b.hash)
}

// Mempool is the bounded transaction pool (§4.8): an unverified staging
// area bounded by count and per-sender count, and a verified pool kept
// sorted by rank. Grounded on the teacher's core/ledger.go TxPool field
// (a plain map guarded by the ledger's own mutex) generalized into its own
// lock-guarded type with the fee-rank eviction policy §4.8 requires.
type Mempool struct {
	mu sync.Mutex

	capacity        int
	maxPerSender    int
	minFeePerByte   int64

	verified      map[util.Uint256]entry
	verifiedOrder []entry // kept sorted by entry.less; rebuilt on mutation

	unverified      map[util.Uint256]*transaction.Transaction
	senderCount     map[util.Uint160]int
}

// NewMempool creates an empty pool with the caller-supplied minFeePerByte;
// callers refresh it via SetMinFeePerByte when the policy value changes.
func NewMempool(capacity, maxPerSender int, minFeePerByte int64) *Mempool {
	return &Mempool{
		capacity:      capacity,
		maxPerSender:  maxPerSender,
		minFeePerByte: minFeePerByte,
		verified:      make(map[util.Uint256]entry),
		unverified:    make(map[util.Uint256]*transaction.Transaction),
		senderCount:   make(map[util.Uint160]int),
	}
}

// SetMinFeePerByte updates the admission threshold, e.g. after
// PolicyContract.setFeePerByte changes at a block boundary.
func (p *Mempool) SetMinFeePerByte(v int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minFeePerByte = v
}

// Len returns the number of transactions currently in the verified pool.
func (p *Mempool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.verified)
}

// Has reports whether h is already in the verified pool.
func (p *Mempool) Has(h util.Uint256) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.verified[h]
	return ok
}

// TryAdd verifies tx and, on success, admits it to the verified pool,
// evicting the lowest-ranked entry if the pool is then over capacity
// (§4.8 "on admission, evicts lowest-rank transactions if over capacity").
// currentHeight gates the valid-until-block check.
func (p *Mempool) TryAdd(tx *transaction.Transaction, currentHeight uint32) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.ValidUntilBlock <= currentHeight {
		return ErrExpired
	}
	if tx.NetworkFee < p.minFeePerByteCost(tx) {
		return ErrInsufficientFee
	}
	if err := VerifyWitnesses(tx); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	h := tx.Hash()
	if _, ok := p.verified[h]; ok {
		return ErrAlreadyInPool
	}
	sender := tx.Sender()
	if p.maxPerSender > 0 && p.senderCount[sender] >= p.maxPerSender {
		return ErrSenderLimitReached
	}
	for _, attr := range tx.Attributes {
		if attr.Type != transaction.AttrConflicts || len(attr.Data) != util.Uint256Size {
			continue
		}
		conflictHash, err := util.Uint256DecodeBytesLE(attr.Data)
		if err != nil {
			continue
		}
		if existing, ok := p.verified[conflictHash]; ok {
			if existing.feePerByte >= tx.FeePerByte() {
				return ErrConflictOutranked
			}
			p.removeLocked(conflictHash)
		}
	}

	e := entry{tx: tx, feePerByte: tx.FeePerByte(), hash: h}
	if p.capacity > 0 && len(p.verified) >= p.capacity {
		lowest := p.lowestLocked()
		if !e.less(lowest) {
			return ErrMempoolFull
		}
		p.removeLocked(lowest.hash)
	}

	p.verified[h] = e
	p.senderCount[sender]++
	p.insertSortedLocked(e)
	return nil
}

func (p *Mempool) minFeePerByteCost(tx *transaction.Transaction) int64 {
	return p.minFeePerByte * int64(tx.Size())
}

func (p *Mempool) lowestLocked() entry {
	return p.verifiedOrder[len(p.verifiedOrder)-1]
}

func (p *Mempool) insertSortedLocked(e entry) {
	i := sort.Search(len(p.verifiedOrder), func(i int) bool { return e.less(p.verifiedOrder[i]) })
	p.verifiedOrder = append(p.verifiedOrder, entry{})
	copy(p.verifiedOrder[i+1:], p.verifiedOrder[i:])
	p.verifiedOrder[i] = e
}

func (p *Mempool) removeLocked(h util.Uint256) {
	e, ok := p.verified[h]
	if !ok {
		return
	}
	delete(p.verified, h)
	p.senderCount[e.tx.Sender()]--
	if p.senderCount[e.tx.Sender()] <= 0 {
		delete(p.senderCount, e.tx.Sender())
	}
	for i, o := range p.verifiedOrder {
		if o.hash == h {
			p.verifiedOrder = append(p.verifiedOrder[:i], p.verifiedOrder[i+1:]...)
			break
		}
	}
}

// Remove drops h from the verified pool, if present.
func (p *Mempool) Remove(h util.Uint256) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(h)
}

// Verified returns the verified pool's transactions in rank order (fee-
// per-byte desc, hash asc).
func (p *Mempool) Verified() []*transaction.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*transaction.Transaction, len(p.verifiedOrder))
	for i, e := range p.verifiedOrder {
		out[i] = e.tx
	}
	return out
}

// PromotionResult is one candidate's outcome from FillMemoryPool.
type PromotionResult struct {
	Tx      *transaction.Transaction
	Ok      bool
	Err     error
}

// FillMemoryPool bulk-verifies candidate transactions pulled from the
// unverified staging pool against currentHeight, returning each one's
// admission outcome (§4.8 "fill_memory_pool(txs) bulk-verifies a candidate
// list and returns promotion results").
func (p *Mempool) FillMemoryPool(txs []*transaction.Transaction, currentHeight uint32) []PromotionResult {
	results := make([]PromotionResult, len(txs))
	for i, tx := range txs {
		err := p.TryAdd(tx, currentHeight)
		results[i] = PromotionResult{Tx: tx, Ok: err == nil, Err: err}
	}
	return results
}

// StageUnverified places tx in the unverified staging pool, bounded by the
// same capacity/per-sender limits as the verified pool, ahead of a later
// FillMemoryPool pass (§4.8 "unverified pool bounded by count and per-
// sender count").
func (p *Mempool) StageUnverified(tx *transaction.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.capacity > 0 && len(p.unverified) >= p.capacity {
		return ErrMempoolFull
	}
	sender := tx.Sender()
	if p.maxPerSender > 0 && p.senderCount[sender] >= p.maxPerSender {
		return ErrSenderLimitReached
	}
	p.unverified[tx.Hash()] = tx
	return nil
}

// DrainUnverified removes and returns every staged unverified transaction,
// the candidate list a caller hands to FillMemoryPool.
func (p *Mempool) DrainUnverified() []*transaction.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*transaction.Transaction, 0, len(p.unverified))
	for _, tx := range p.unverified {
		out = append(out, tx)
	}
	p.unverified = make(map[util.Uint256]*transaction.Transaction)
	return out
}

// Invalidate removes transactions that became invalid once block
// currentHeight was persisted: expired valid-until-block, or named by
// isConflicted (the block's committed conflict set) (§4.8 "transactions
// that become invalid after a block... are removed on each invalidate
// pass").
func (p *Mempool) Invalidate(currentHeight uint32, isConflicted func(util.Uint256) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for h, e := range p.verified {
		if e.tx.ValidUntilBlock <= currentHeight || (isConflicted != nil && isConflicted(h)) {
			p.removeLocked(h)
		}
	}
}
