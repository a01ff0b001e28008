package vm

import (
	"fmt"
	"math/big"

	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

// VMState mirrors the four states execution can be observed in (§8: "after
// a fault, state == FAULT and the result stack is empty").
type VMState byte

const (
	VMStateNone VMState = iota
	VMStateHalt
	VMStateFault
	VMStateBreak
)

func (s VMState) String() string {
	switch s {
	case VMStateHalt:
		return "HALT"
	case VMStateFault:
		return "FAULT"
	case VMStateBreak:
		return "BREAK"
	default:
		return "NONE"
	}
}

// TriggerType selects which entry script and gas policy an ApplicationEngine
// runs under (§4.7: OnPersist, Application, PostPersist; Verification is
// used outside the block pipeline for witness checking).
type TriggerType byte

const (
	TriggerOnPersist TriggerType = iota
	TriggerPostPersist
	TriggerApplication
	TriggerVerification
)

var (
	ErrUnsupportedOperation = fmt.Errorf("unsupported operation")
	ErrOutOfGas             = fmt.Errorf("out of gas")
	ErrTooManyInstructions  = fmt.Errorf("instruction count limit exceeded")
	ErrStackOverflow        = fmt.Errorf("stack overflow")
	ErrInvalidJump          = fmt.Errorf("invalid jump target")
	ErrCallFlagsNotAllowed  = fmt.Errorf("call flags do not permit this operation")
)

// NotifyEvent is one System.Runtime.Notify emission (§4.5/§4.6).
type NotifyEvent struct {
	ScriptHash util.Uint160
	EventName  string
	State      *stackitem.Array
}

// ApplicationEngine is the VM's top-level execution object: one invocation
// stack of ExecutionContexts, a shared result stack, a gas meter, a
// reference counter and a DataCache snapshot of chain state (§4.5, §4.7).
type ApplicationEngine struct {
	Trigger TriggerType

	GasLimit    int64
	GasConsumed int64

	InstructionCount int
	MaxInstructions  int

	invocationStack []*ExecutionContext
	Result          *Stack

	Snapshot store.Snapshot
	RefCount *ReferenceCounter

	Notifications []NotifyEvent
	FaultMessage  string
	State         VMState

	CatchEngineExceptions bool

	syscalls map[uint32]*SyscallDescriptor

	// pendingOnPayment queues onNEP17Payment callbacks raised mid-instruction
	// (§4.6: "payment to a contract... enqueues a callback to be processed
	// after the current instruction").
	pendingOnPayment []func(*ApplicationEngine) error

	// PersistingBlockIndex is the index of the block currently being
	// persisted, set by the ledger before running the OnPersist/Application/
	// PostPersist triggers for it.
	PersistingBlockIndex uint32

	// CommitteeAccount is the current committee multisig script hash, set by
	// the ledger from NeoToken's committee state; native contract methods
	// restricted to committee invocation compare the calling context's
	// ScriptHash against it.
	CommitteeAccount util.Uint160

	// CheckWitness resolves System.Runtime.CheckWitness against the
	// transaction/block the engine is currently running on behalf of. The
	// ledger sets this before loading a script; a nil CheckWitness (as in
	// standalone script execution and tests) always reports no witness.
	CheckWitness func(util.Uint160) bool
}

// PersistingIndex returns the index of the block currently being persisted.
func (e *ApplicationEngine) PersistingIndex() uint32 { return e.PersistingBlockIndex }

// CommitteeWitnessed reports whether the current calling context's script
// hash is the committee multisig account.
func (e *ApplicationEngine) CommitteeWitnessed() bool {
	ctx := e.CurrentContext()
	if ctx == nil {
		return false
	}
	return ctx.ScriptHash == e.CommitteeAccount
}

// EnqueueOnPayment queues cb to run after the current instruction finishes,
// the mechanism NEP-17 transfers use to invoke a recipient contract's
// onNEP17Payment without re-entering mid-instruction (§4.6).
func (e *ApplicationEngine) EnqueueOnPayment(cb func(*ApplicationEngine) error) {
	e.pendingOnPayment = append(e.pendingOnPayment, cb)
}

const maxInstructionCountDefault = 2_000_000_000

// NewApplicationEngine creates an engine bound to snapshot with the given
// gas budget. A gasLimit of -1 means unlimited (used for OnPersist/
// PostPersist's gas-free trigger scripts, §4.7).
func NewApplicationEngine(trigger TriggerType, snapshot store.Snapshot, gasLimit int64) *ApplicationEngine {
	e := &ApplicationEngine{
		Trigger:         trigger,
		GasLimit:        gasLimit,
		MaxInstructions: maxInstructionCountDefault,
		Result:          nil,
		Snapshot:        snapshot,
		RefCount:        NewReferenceCounter(),
		syscalls:        defaultSyscallTable(),
	}
	e.Result = NewStack(e.RefCount)
	return e
}

// CurrentContext returns the top of the invocation stack, or nil if empty.
func (e *ApplicationEngine) CurrentContext() *ExecutionContext {
	if len(e.invocationStack) == 0 {
		return nil
	}
	return e.invocationStack[len(e.invocationStack)-1]
}

// LoadScript pushes a new context onto the invocation stack and returns it.
func (e *ApplicationEngine) LoadScript(script []byte, scriptHash util.Uint160, rvcount int, flags CallFlags) *ExecutionContext {
	ctx := NewExecutionContext(script, scriptHash, rvcount, flags, e.RefCount)
	e.invocationStack = append(e.invocationStack, ctx)
	return ctx
}

func (e *ApplicationEngine) popContext() *ExecutionContext {
	if len(e.invocationStack) == 0 {
		return nil
	}
	ctx := e.invocationStack[len(e.invocationStack)-1]
	e.invocationStack = e.invocationStack[:len(e.invocationStack)-1]
	ctx.Eval.Clear()
	return ctx
}

// Execute drains the invocation stack until HALT or FAULT, per §4.5
// "execute_next() drains the invocation stack until HALT or FAULT".
func (e *ApplicationEngine) Execute() VMState {
	e.State = VMStateNone
	for e.State == VMStateNone {
		e.step()
	}
	if e.State == VMStateFault {
		e.Result.Clear()
	}
	return e.State
}

// StepNext performs a single instruction and transitions to BREAK unless
// the engine terminated (HALT/FAULT) as a direct result of that
// instruction.
func (e *ApplicationEngine) StepNext() VMState {
	if e.State == VMStateHalt || e.State == VMStateFault {
		return e.State
	}
	e.step()
	if e.State == VMStateNone {
		e.State = VMStateBreak
	}
	return e.State
}

func (e *ApplicationEngine) fault(err error) {
	e.State = VMStateFault
	e.FaultMessage = err.Error()
}

func (e *ApplicationEngine) step() {
	ctx := e.CurrentContext()
	if ctx == nil {
		e.State = VMStateHalt
		return
	}

	if e.RefCount.NearLimit() {
		if e.RefCount.CheckZeroReferred() > maxStackSize {
			e.fault(ErrStackOverflow)
			return
		}
	}

	if ctx.AtEnd() {
		e.implicitReturn(ctx)
		return
	}

	e.InstructionCount++
	if e.InstructionCount > e.MaxInstructions {
		e.fault(ErrTooManyInstructions)
		return
	}

	op := Opcode(ctx.Script[ctx.IP])
	baseCost := GasCost(op)
	if e.GasLimit >= 0 {
		if e.GasConsumed+baseCost > e.GasLimit {
			e.fault(ErrOutOfGas)
			return
		}
	}
	e.GasConsumed += baseCost

	handler, ok := jumpTable[op]
	if !ok {
		e.raiseOrFault(ErrUnsupportedOperation)
		return
	}

	startIP := ctx.IP
	if err := handler(e, ctx); err != nil {
		e.raiseOrFault(err)
		return
	}
	// Handlers that jump set IP themselves; a handler that didn't move IP
	// falls through to the next instruction (its own operand length is
	// already consumed via ctx.IP advances inside the handler).
	_ = startIP

	if e.RefCount.Exceeded() {
		e.fault(ErrStackOverflow)
		return
	}

	for len(e.pendingOnPayment) > 0 {
		cb := e.pendingOnPayment[0]
		e.pendingOnPayment = e.pendingOnPayment[1:]
		if err := cb(e); err != nil {
			e.raiseOrFault(err)
			return
		}
	}
}

// raiseOrFault converts a catchable VM error into a thrown stack item when
// CatchEngineExceptions is enabled (§4.5), otherwise faults the engine.
func (e *ApplicationEngine) raiseOrFault(err error) {
	if e.CatchEngineExceptions {
		e.throwItem(stackitem.NewByteString([]byte(err.Error())))
		return
	}
	e.fault(err)
}

// implicitReturn transfers RVCount results to the caller when a script runs
// off its end (§4.5: "an implicit RET transfers the configured return-value
// count to the caller's evaluation stack, or to the result stack when the
// invocation stack empties").
func (e *ApplicationEngine) implicitReturn(ctx *ExecutionContext) {
	e.popContextWithReturn(ctx)
}

func (e *ApplicationEngine) popContextWithReturn(ctx *ExecutionContext) {
	count := ctx.RVCount
	var results []stackitem.Item
	if count < 0 {
		for ctx.Eval.Len() > 0 {
			item, _ := ctx.Eval.Pop()
			results = append(results, item)
		}
	} else {
		for i := 0; i < count; i++ {
			item, err := ctx.Eval.Pop()
			if err != nil {
				break
			}
			results = append(results, item)
		}
	}
	// reverse so top-of-source-stack becomes top-of-destination-stack
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}

	e.popContext()

	dest := e.Result
	if top := e.CurrentContext(); top != nil {
		dest = top.Eval
	} else {
		e.State = VMStateHalt
	}
	for _, item := range results {
		dest.Push(item)
	}
}

// throwItem implements Throw's unwinding semantics (§4.5 Try/Catch).
func (e *ApplicationEngine) throwItem(payload stackitem.Item) {
	for {
		ctx := e.CurrentContext()
		if ctx == nil {
			e.fault(fmt.Errorf("unhandled exception: %s", payload))
			return
		}
		frame := ctx.currentTry()
		if frame == nil {
			e.popContext()
			continue
		}
		if frame.hasCatch && !frame.inCatch {
			frame.inCatch = true
			ctx.Eval.Push(payload)
			ctx.IP = frame.catchPos
			return
		}
		if frame.hasFinally && !frame.inFinally {
			frame.inFinally = true
			ctx.IP = frame.finallyPos
			// finally body re-raises via EndFinally; stash payload in a
			// closure-free slot on the frame itself is unnecessary since
			// EndFinally simply continues unwinding below it.
			ctx.pendingThrow = payload
			return
		}
		ctx.popTry()
	}
}

// jumpOffset computes an absolute script offset from ip plus a relative
// displacement, validating it lands within the script.
func jumpOffset(ctx *ExecutionContext, from, offset int) (int, error) {
	target := from + offset
	if target < 0 || target > len(ctx.Script) {
		return 0, ErrInvalidJump
	}
	return target, nil
}

func popBigInt(s *Stack) (*big.Int, error) {
	item, err := s.Pop()
	if err != nil {
		return nil, err
	}
	return item.BigInt()
}

func popBool(s *Stack) (bool, error) {
	item, err := s.Pop()
	if err != nil {
		return false, err
	}
	return item.Bool(), nil
}
