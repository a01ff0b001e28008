package vm

import "github.com/synnergy-network/n3node/internal/vm/stackitem"

// maxStackSize bounds the total number of items (primitive slots plus
// every compound item reachable from a root slot) the engine tolerates
// across all execution contexts, per §4.5.
const maxStackSize = 2 * 1024

// overflowCheckThreshold triggers a pre-instruction zero-reference sweep
// once the tracked count crosses this fraction of maxStackSize, so a script
// that drops large compound structures right before hitting the limit does
// not fault spuriously.
const overflowCheckThreshold = 0.9

// ReferenceCounter tracks how many stack slots across the engine's contexts
// (eval stacks and the result stack) hold a reference to each compound item,
// and how many items a compound item itself
// owns. The engine consults Size before and after every instruction; a
// count exceeding maxStackSize aborts execution with a StackOverflow fault.
// Items stored into local/static/argument slots are not counted.
//
// Counting follows the two-phase scheme: a cheap running total is kept
// incrementally on AddStackReference/RemoveStackReference, and an expensive
// full recount (CheckZeroReferred) only runs when the running total crosses
// overflowCheckThreshold, reclaiming items whose owning slots have all gone
// away but whose Go garbage collector has not yet reclaimed the cycle.
type ReferenceCounter struct {
	// refs counts, for every compound item reachable from at least one root
	// slot, how many root-level references point to it (directly or via
	// child edges from other counted items).
	refs map[stackitem.Item]int
	// children records owner -> owned compound children, for recursive
	// counting when a compound item is removed from all roots.
	children map[stackitem.Item][]stackitem.Item
	// size is the incrementally maintained total item count across all
	// tracked roots and their transitive compound children.
	size int
}

// NewReferenceCounter creates an empty counter.
func NewReferenceCounter() *ReferenceCounter {
	return &ReferenceCounter{
		refs:     make(map[stackitem.Item]int),
		children: make(map[stackitem.Item][]stackitem.Item),
	}
}

// Size reports the current tracked item count.
func (rc *ReferenceCounter) Size() int { return rc.size }

// Exceeded reports whether the tracked size is beyond the hard limit.
func (rc *ReferenceCounter) Exceeded() bool { return rc.size > maxStackSize }

// NearLimit reports whether size has crossed the pre-instruction check
// threshold, at which point the engine should call CheckZeroReferred before
// proceeding.
func (rc *ReferenceCounter) NearLimit() bool {
	return float64(rc.size) >= float64(maxStackSize)*overflowCheckThreshold
}

// AddStackReference registers item as newly reachable from a root slot
// (eval stack push, array/struct/map insertion). Compound items
// recursively add a reference for every item they already contain the first
// time they're registered.
func (rc *ReferenceCounter) AddStackReference(item stackitem.Item) {
	rc.add(item, 1)
}

func (rc *ReferenceCounter) add(item stackitem.Item, delta int) {
	if !isCompound(item) {
		rc.size += delta
		return
	}
	prev := rc.refs[item]
	rc.refs[item] += delta
	rc.size += delta
	if prev == 0 && rc.refs[item] > 0 {
		for _, child := range childrenOf(item) {
			rc.children[item] = append(rc.children[item], child)
			rc.add(child, 1)
		}
	}
}

// RemoveStackReference unregisters one reference to item. When the last
// reference to a compound item is removed, its tracked children are
// recursively released too.
func (rc *ReferenceCounter) RemoveStackReference(item stackitem.Item) {
	if !isCompound(item) {
		if rc.size > 0 {
			rc.size--
		}
		return
	}
	rc.refs[item]--
	if rc.size > 0 {
		rc.size--
	}
	if rc.refs[item] <= 0 {
		kids := rc.children[item]
		delete(rc.children, item)
		delete(rc.refs, item)
		for _, child := range kids {
			rc.RemoveStackReference(child)
		}
	}
}

// AddCompoundChild registers a new child inserted into an already-tracked
// compound item (e.g. APPEND onto a tracked Array) — the parent's existing
// reference count propagates to the new child.
func (rc *ReferenceCounter) AddCompoundChild(parent, child stackitem.Item) {
	if rc.refs[parent] <= 0 {
		return
	}
	rc.children[parent] = append(rc.children[parent], child)
	rc.add(child, 1)
}

// CheckZeroReferred performs the full sweep the engine runs once NearLimit
// is true: any tracked compound item whose ref count has fallen to zero but
// whose children were not yet released (a dangling map entry) is purged,
// and the authoritative size is recomputed from what remains live. Returns
// the recomputed size.
func (rc *ReferenceCounter) CheckZeroReferred() int {
	for item, count := range rc.refs {
		if count <= 0 {
			delete(rc.refs, item)
			delete(rc.children, item)
		}
	}
	total := 0
	for item, count := range rc.refs {
		if count > 0 {
			total += 1 + len(rc.children[item])
		}
	}
	rc.size = total
	return total
}

func isCompound(item stackitem.Item) bool {
	switch item.Type() {
	case stackitem.TypeArray, stackitem.TypeStruct, stackitem.TypeMap:
		return true
	default:
		return false
	}
}

func childrenOf(item stackitem.Item) []stackitem.Item {
	switch v := item.(type) {
	case *stackitem.Array:
		return v.Items
	case *stackitem.Struct:
		return v.Items
	case *stackitem.Map:
		keys := v.Keys()
		out := make([]stackitem.Item, 0, len(keys)*2)
		for _, k := range keys {
			val, ok, err := v.Get(k)
			if err != nil || !ok {
				continue
			}
			out = append(out, k, val)
		}
		return out
	default:
		return nil
	}
}
