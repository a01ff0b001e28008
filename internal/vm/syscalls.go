package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

// SyscallDescriptor is one entry of the syscall table: required call flags
// and a fixed gas price, keyed by the 32-bit hash of the API name (§4.5).
type SyscallDescriptor struct {
	Name         string
	RequiredFlag CallFlags
	GasCost      int64
	Handler      func(e *ApplicationEngine, ctx *ExecutionContext) error
}

// SyscallHash is the first four bytes of Sha256(name), read as a
// little-endian uint32, the id under which the Syscall opcode's operand
// looks up a descriptor.
func SyscallHash(name string) uint32 {
	sum := hash.Sha256([]byte(name))
	return binary.LittleEndian.Uint32(sum[:4])
}

// StorageContext binds a syscall's storage opcodes to one contract's key
// namespace. ReadOnly forbids Put/Delete, matching §4.6's "read-only
// variant disallows writes".
type StorageContext struct {
	ContractID int32
	ReadOnly   bool
}

func storageKey(id int32, key []byte) []byte {
	out := make([]byte, 4+len(key))
	binary.LittleEndian.PutUint32(out, uint32(id))
	copy(out[4:], key)
	return out
}

func (e *ApplicationEngine) invokeSyscall(ctx *ExecutionContext, id uint32) error {
	desc, ok := e.syscalls[id]
	if !ok {
		return ErrUnsupportedOperation
	}
	if !ctx.CallFlags.Has(desc.RequiredFlag) {
		return ErrCallFlagsNotAllowed
	}
	if e.GasLimit >= 0 {
		if e.GasConsumed+desc.GasCost > e.GasLimit {
			return ErrOutOfGas
		}
	}
	e.GasConsumed += desc.GasCost
	return desc.Handler(e, ctx)
}

func defaultSyscallTable() map[uint32]*SyscallDescriptor {
	table := map[uint32]*SyscallDescriptor{}
	add := func(name string, flags CallFlags, gas int64, fn func(*ApplicationEngine, *ExecutionContext) error) {
		table[SyscallHash(name)] = &SyscallDescriptor{Name: name, RequiredFlag: flags, GasCost: gas, Handler: fn}
	}

	add("System.Runtime.GetTrigger", CallFlagNone, 1<<4, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.Eval.Push(stackitem.NewIntegerFromInt64(int64(e.Trigger)))
		return nil
	})
	add("System.Runtime.Platform", CallFlagNone, 1<<4, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.Eval.Push(stackitem.NewByteString([]byte("NEO")))
		return nil
	})
	add("System.Runtime.CheckWitness", CallFlagReadStates, 1<<10, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		b, err := item.Bytes()
		if err != nil {
			return err
		}
		if e.CheckWitness == nil || len(b) != 20 {
			ctx.Eval.Push(stackitem.NewBoolean(false))
			return nil
		}
		var account util.Uint160
		copy(account[:], b)
		ctx.Eval.Push(stackitem.NewBoolean(e.CheckWitness(account)))
		return nil
	})
	add("System.Runtime.Log", CallFlagAllowNotify, 1<<15, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		msg, err := item.Bytes()
		if err != nil {
			return err
		}
		if len(msg) > 1024 {
			return fmt.Errorf("%w: log message too long", ErrUnsupportedOperation)
		}
		return nil
	})
	add("System.Runtime.Notify", CallFlagAllowNotify, 1<<15, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		stateItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		nameItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		nameBytes, err := nameItem.Bytes()
		if err != nil {
			return err
		}
		if len(nameBytes) > 32 {
			return fmt.Errorf("%w: event name too long", ErrUnsupportedOperation)
		}
		arr, ok := stateItem.(*stackitem.Array)
		if !ok {
			return ErrUnsupportedOperation
		}
		e.Notifications = append(e.Notifications, NotifyEvent{
			ScriptHash: ctx.ScriptHash,
			EventName:  string(nameBytes),
			State:      arr,
		})
		return nil
	})

	add("System.Storage.GetContext", CallFlagReadStates, 1<<4, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		sc := &StorageContext{ContractID: contractIDOf(ctx)}
		ctx.Eval.Push(stackitem.NewInteropInterface(sc))
		return nil
	})
	add("System.Storage.GetReadOnlyContext", CallFlagReadStates, 1<<4, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		sc := &StorageContext{ContractID: contractIDOf(ctx), ReadOnly: true}
		ctx.Eval.Push(stackitem.NewInteropInterface(sc))
		return nil
	})
	add("System.Storage.Get", CallFlagReadStates, 1<<15, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		keyItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		sc, err := popStorageContext(ctx)
		if err != nil {
			return err
		}
		k, err := keyItem.Bytes()
		if err != nil {
			return err
		}
		v, ok := e.Snapshot.Get(storageKey(sc.ContractID, k))
		if !ok {
			ctx.Eval.Push(stackitem.NewNull())
			return nil
		}
		ctx.Eval.Push(stackitem.NewByteString(v))
		return nil
	})
	add("System.Storage.Put", CallFlagWriteStates, 1<<15, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		valueItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		keyItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		sc, err := popStorageContext(ctx)
		if err != nil {
			return err
		}
		if sc.ReadOnly {
			return ErrCallFlagsNotAllowed
		}
		k, err := keyItem.Bytes()
		if err != nil {
			return err
		}
		v, err := valueItem.Bytes()
		if err != nil {
			return err
		}
		if len(k) > 64 || len(v) > 65535 {
			return fmt.Errorf("%w: storage item too large", ErrUnsupportedOperation)
		}
		e.Snapshot.Put(storageKey(sc.ContractID, k), v)
		return nil
	})
	add("System.Storage.Delete", CallFlagWriteStates, 1<<15, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		keyItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		sc, err := popStorageContext(ctx)
		if err != nil {
			return err
		}
		if sc.ReadOnly {
			return ErrCallFlagsNotAllowed
		}
		k, err := keyItem.Bytes()
		if err != nil {
			return err
		}
		e.Snapshot.Delete(storageKey(sc.ContractID, k))
		return nil
	})
	add("System.Storage.Find", CallFlagReadStates, 1<<15, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		prefixItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		sc, err := popStorageContext(ctx)
		if err != nil {
			return err
		}
		prefix, err := prefixItem.Bytes()
		if err != nil {
			return err
		}
		it := e.Snapshot.Find(storageKey(sc.ContractID, prefix), store.Forward)
		ctx.Eval.Push(stackitem.NewInteropInterface(it))
		return nil
	})

	add("System.Crypto.CheckSig", CallFlagNone, 1<<15, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		sigItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		pubItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		sig, err := sigItem.Bytes()
		if err != nil {
			return err
		}
		pubBytes, err := pubItem.Bytes()
		if err != nil {
			return err
		}
		pub, err := keys.PublicKeyFromBytes(pubBytes)
		if err != nil {
			ctx.Eval.Push(stackitem.NewBoolean(false))
			return nil
		}
		ctx.Eval.Push(stackitem.NewBoolean(keys.Verify(pub, ctx.Script, sig)))
		return nil
	})

	return table
}

// contractIDOf always returns 0: no deployed-contract lookup is wired in,
// so the storage syscalls of every script share contract id 0.
func contractIDOf(ctx *ExecutionContext) int32 { return 0 }

func popStorageContext(ctx *ExecutionContext) (*StorageContext, error) {
	item, err := ctx.Eval.Pop()
	if err != nil {
		return nil, err
	}
	ii, ok := item.(*stackitem.InteropInterface)
	if !ok {
		return nil, ErrUnsupportedOperation
	}
	sc, ok := ii.Payload.(*StorageContext)
	if !ok {
		return nil, ErrUnsupportedOperation
	}
	return sc, nil
}
