package vm

import (
	"fmt"

	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

// CallFlags gates which syscalls a context may invoke, per §4.5/§4.6 ("the
// caller's StorageContext... read-only variant disallows writes").
type CallFlags uint8

const (
	CallFlagReadStates CallFlags = 1 << iota
	CallFlagWriteStates
	CallFlagAllowCall
	CallFlagAllowNotify

	CallFlagStates     = CallFlagReadStates | CallFlagWriteStates
	CallFlagReadOnly   = CallFlagReadStates | CallFlagAllowCall | CallFlagAllowNotify
	CallFlagAll        = CallFlagStates | CallFlagAllowCall | CallFlagAllowNotify
	CallFlagNone       = CallFlags(0)
)

// Has reports whether every bit in required is set in f.
func (f CallFlags) Has(required CallFlags) bool { return f&required == required }

// tryFrame is one entry of a context's try/catch stack (§4.5 Try/Catch).
type tryFrame struct {
	catchPos     int
	finallyPos   int
	hasCatch     bool
	hasFinally   bool
	inCatch      bool
	inFinally    bool
}

// Stack is an evaluation/argument/local/static slot stack of stack items,
// reporting every push/pop to a ReferenceCounter so the engine's two-phase
// overflow detection stays accurate.
type Stack struct {
	items []stackitem.Item
	rc    *ReferenceCounter
}

// NewStack creates an empty stack tracked by rc.
func NewStack(rc *ReferenceCounter) *Stack { return &Stack{rc: rc} }

func (s *Stack) Len() int { return len(s.items) }

func (s *Stack) Push(item stackitem.Item) {
	s.items = append(s.items, item)
	s.rc.AddStackReference(item)
}

var ErrStackEmpty = fmt.Errorf("stack underflow")

func (s *Stack) Pop() (stackitem.Item, error) {
	if len(s.items) == 0 {
		return nil, ErrStackEmpty
	}
	item := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	s.rc.RemoveStackReference(item)
	return item, nil
}

func (s *Stack) Peek(n int) (stackitem.Item, error) {
	idx := len(s.items) - 1 - n
	if idx < 0 || idx >= len(s.items) {
		return nil, ErrStackEmpty
	}
	return s.items[idx], nil
}

// Remove deletes and returns the item n-from-top without disturbing
// reference counts (ownership transfers to the caller, typically an
// immediate re-push at a different position — ROLL/XDROP/REVERSEN).
func (s *Stack) Remove(n int) (stackitem.Item, error) {
	idx := len(s.items) - 1 - n
	if idx < 0 || idx >= len(s.items) {
		return nil, ErrStackEmpty
	}
	item := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return item, nil
}

// Insert places item at depth n from the top (0 = top), without touching
// the reference counter — used by ROLL/XDROP to reposition an item that
// Remove already pulled out.
func (s *Stack) Insert(n int, item stackitem.Item) {
	idx := len(s.items) - n
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.items) {
		idx = len(s.items)
	}
	s.items = append(s.items, nil)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = item
}

func (s *Stack) Clear() {
	for _, item := range s.items {
		s.rc.RemoveStackReference(item)
	}
	s.items = nil
}

// ExecutionContext is one frame of the invocation stack: a loaded script,
// its instruction pointer, its evaluation stack, its slot tables and its
// try/catch frames (§4.5).
type ExecutionContext struct {
	Script     []byte
	ScriptHash util.Uint160
	IP         int
	RVCount    int // -1 means "return everything"
	CallFlags  CallFlags

	Eval *Stack

	StaticFields []stackitem.Item
	LocalVars    []stackitem.Item
	Arguments    []stackitem.Item

	tryFrames []tryFrame

	// pendingThrow holds a payload mid-unwind while a finally block runs,
	// consumed by EndFinally to decide whether to keep unwinding.
	pendingThrow stackitem.Item
}

// NewExecutionContext loads script into a fresh context.
func NewExecutionContext(script []byte, scriptHash util.Uint160, rvcount int, flags CallFlags, rc *ReferenceCounter) *ExecutionContext {
	return &ExecutionContext{
		Script:     script,
		ScriptHash: scriptHash,
		RVCount:    rvcount,
		CallFlags:  flags,
		Eval:       NewStack(rc),
	}
}

// AtEnd reports whether IP has passed the end of the script.
func (c *ExecutionContext) AtEnd() bool { return c.IP >= len(c.Script) }

func (c *ExecutionContext) pushTry(catchPos, finallyPos int, hasCatch, hasFinally bool) {
	c.tryFrames = append(c.tryFrames, tryFrame{catchPos: catchPos, finallyPos: finallyPos, hasCatch: hasCatch, hasFinally: hasFinally})
}

func (c *ExecutionContext) currentTry() *tryFrame {
	if len(c.tryFrames) == 0 {
		return nil
	}
	return &c.tryFrames[len(c.tryFrames)-1]
}

func (c *ExecutionContext) popTry() {
	if len(c.tryFrames) > 0 {
		c.tryFrames = c.tryFrames[:len(c.tryFrames)-1]
	}
}

// initSlots allocates local/argument slot tables, filling with Null per the
// protocol's InitSlot semantics.
func (c *ExecutionContext) initSlots(localCount, argCount int, args []stackitem.Item) {
	c.LocalVars = make([]stackitem.Item, localCount)
	for i := range c.LocalVars {
		c.LocalVars[i] = stackitem.NewNull()
	}
	c.Arguments = make([]stackitem.Item, argCount)
	for i := 0; i < argCount; i++ {
		if i < len(args) {
			c.Arguments[i] = args[i]
		} else {
			c.Arguments[i] = stackitem.NewNull()
		}
	}
}

func (c *ExecutionContext) initStaticSlots(count int) {
	c.StaticFields = make([]stackitem.Item, count)
	for i := range c.StaticFields {
		c.StaticFields[i] = stackitem.NewNull()
	}
}
