package vm

import (
	"encoding/binary"
	"math/big"

	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

type opcodeHandler func(e *ApplicationEngine, ctx *ExecutionContext) error

var jumpTable = make(map[Opcode]opcodeHandler, 256)

// register binds a handler to op, panicking on collision — matching the
// teacher's opcode_dispatcher.go stance that duplicate registration is a
// startup-fatal programmer error, never a runtime condition.
func register(op Opcode, fn opcodeHandler) {
	if _, exists := jumpTable[op]; exists {
		panic("vm: duplicate opcode registration")
	}
	jumpTable[op] = fn
}

func init() {
	registerPush()
	registerControl()
	registerStack()
	registerSlots()
	registerSplice()
	registerBitwiseArithmetic()
	registerCompound()
	registerTypeOps()
}

// --- operand readers -------------------------------------------------

func readU8(ctx *ExecutionContext, at int) byte   { return ctx.Script[at] }
func readI8(ctx *ExecutionContext, at int) int8   { return int8(ctx.Script[at]) }
func readU16(ctx *ExecutionContext, at int) uint16 {
	return binary.LittleEndian.Uint16(ctx.Script[at : at+2])
}
func readI16(ctx *ExecutionContext, at int) int16 { return int16(readU16(ctx, at)) }
func readI32(ctx *ExecutionContext, at int) int32 {
	return int32(binary.LittleEndian.Uint32(ctx.Script[at : at+4]))
}
func readU32(ctx *ExecutionContext, at int) uint32 {
	return binary.LittleEndian.Uint32(ctx.Script[at : at+4])
}

// --- push opcodes ------------------------------------------------------

func registerPush() {
	register(OpPushM1, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.IP++
		ctx.Eval.Push(stackitem.NewIntegerFromInt64(-1))
		return nil
	})
	for n := 0; n <= 16; n++ {
		val := int64(n)
		register(pushN(n), func(e *ApplicationEngine, ctx *ExecutionContext) error {
			ctx.IP++
			ctx.Eval.Push(stackitem.NewIntegerFromInt64(val))
			return nil
		})
	}
	register(OpPushNull, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.IP++
		ctx.Eval.Push(stackitem.NewNull())
		return nil
	})
	register(OpPushInt8, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		v := big.NewInt(int64(readI8(ctx, ctx.IP+1)))
		ctx.IP += 2
		ctx.Eval.Push(stackitem.NewInteger(v))
		return nil
	})
	register(OpPushInt16, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		v := big.NewInt(int64(readI16(ctx, ctx.IP+1)))
		ctx.IP += 3
		ctx.Eval.Push(stackitem.NewInteger(v))
		return nil
	})
	register(OpPushInt32, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		v := big.NewInt(int64(readI32(ctx, ctx.IP+1)))
		ctx.IP += 5
		ctx.Eval.Push(stackitem.NewInteger(v))
		return nil
	})
	register(OpPushInt64, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		raw := ctx.Script[ctx.IP+1 : ctx.IP+9]
		v := int64(binary.LittleEndian.Uint64(raw))
		ctx.IP += 9
		ctx.Eval.Push(stackitem.NewIntegerFromInt64(v))
		return nil
	})
	register(OpPushInt128, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return pushWideInt(ctx, 16)
	})
	register(OpPushInt256, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return pushWideInt(ctx, 32)
	})
	register(OpPushA, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		offset := readI32(ctx, ctx.IP+1)
		target, err := jumpOffset(ctx, ctx.IP, int(offset))
		if err != nil {
			return err
		}
		ctx.IP += 5
		ctx.Eval.Push(stackitem.NewPointer(ctx.ScriptHash, target))
		return nil
	})
	register(OpPushData1, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n := int(readU8(ctx, ctx.IP+1))
		data := ctx.Script[ctx.IP+2 : ctx.IP+2+n]
		ctx.IP += 2 + n
		ctx.Eval.Push(stackitem.NewByteString(data))
		return nil
	})
	register(OpPushData2, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n := int(readU16(ctx, ctx.IP+1))
		data := ctx.Script[ctx.IP+3 : ctx.IP+3+n]
		ctx.IP += 3 + n
		ctx.Eval.Push(stackitem.NewByteString(data))
		return nil
	})
	register(OpPushData4, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n := int(readU32(ctx, ctx.IP+1))
		data := ctx.Script[ctx.IP+5 : ctx.IP+5+n]
		ctx.IP += 5 + n
		ctx.Eval.Push(stackitem.NewByteString(data))
		return nil
	})
}

func pushWideInt(ctx *ExecutionContext, size int) error {
	raw := ctx.Script[ctx.IP+1 : ctx.IP+1+size]
	be := make([]byte, size)
	for i, b := range raw {
		be[size-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	if raw[size-1]&0x80 != 0 {
		bound := new(big.Int).Lsh(big.NewInt(1), uint(8*size))
		v.Sub(v, bound)
	}
	ctx.IP += 1 + size
	ctx.Eval.Push(stackitem.NewInteger(v))
	return nil
}

// --- control flow --------------------------------------------------

func registerControl() {
	register(OpNop, func(e *ApplicationEngine, ctx *ExecutionContext) error { ctx.IP++; return nil })

	jumps := []struct {
		short, long Opcode
		cond        func(*ApplicationEngine, *ExecutionContext) (bool, error)
	}{
		{OpJmp, OpJmpL, nil},
		{OpJmpIf, OpJmpIfL, func(e *ApplicationEngine, ctx *ExecutionContext) (bool, error) { return popBool(ctx.Eval) }},
		{OpJmpIfNot, OpJmpIfNotL, func(e *ApplicationEngine, ctx *ExecutionContext) (bool, error) {
			v, err := popBool(ctx.Eval)
			return !v, err
		}},
	}
	for _, j := range jumps {
		j := j
		register(j.short, makeJump(j.cond, 1, false))
		register(j.long, makeJump(j.cond, 1, true))
	}

	cmpJumps := []struct {
		short, long Opcode
		cmp         func(int) bool
	}{
		{OpJmpEq, OpJmpEqL, func(c int) bool { return c == 0 }},
		{OpJmpNe, OpJmpNeL, func(c int) bool { return c != 0 }},
		{OpJmpGt, OpJmpGtL, func(c int) bool { return c > 0 }},
		{OpJmpGe, OpJmpGeL, func(c int) bool { return c >= 0 }},
		{OpJmpLt, OpJmpLtL, func(c int) bool { return c < 0 }},
		{OpJmpLe, OpJmpLeL, func(c int) bool { return c <= 0 }},
	}
	for _, j := range cmpJumps {
		j := j
		cond := func(e *ApplicationEngine, ctx *ExecutionContext) (bool, error) {
			b, err := popBigInt(ctx.Eval)
			if err != nil {
				return false, err
			}
			a, err := popBigInt(ctx.Eval)
			if err != nil {
				return false, err
			}
			return j.cmp(a.Cmp(b)), nil
		}
		register(j.short, makeJump(cond, 1, false))
		register(j.long, makeJump(cond, 1, true))
	}

	register(OpCall, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		offset := int(readI8(ctx, ctx.IP+1))
		target, err := jumpOffset(ctx, ctx.IP, offset)
		if err != nil {
			return err
		}
		return doCall(e, ctx, target, 2)
	})
	register(OpCallL, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		offset := int(readI32(ctx, ctx.IP+1))
		target, err := jumpOffset(ctx, ctx.IP, offset)
		if err != nil {
			return err
		}
		return doCall(e, ctx, target, 5)
	})
	register(OpCallA, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		ptr, ok := item.(*stackitem.Pointer)
		if !ok {
			return ErrUnsupportedOperation
		}
		ctx.IP++
		newCtx := e.LoadScript(ctx.Script, ptr.ScriptHash, -1, ctx.CallFlags)
		newCtx.IP = ptr.Position
		newCtx.StaticFields = ctx.StaticFields
		return nil
	})

	register(OpAbort, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return ErrUnsupportedOperation
	})
	register(OpAbortMsg, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		msg, _ := item.Bytes()
		return errAbortMsg(msg)
	})
	register(OpAssert, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		v, err := popBool(ctx.Eval)
		if err != nil {
			return err
		}
		if !v {
			return errAssertFailed
		}
		ctx.IP++
		return nil
	})
	register(OpAssertMsg, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		msgItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		v, err := popBool(ctx.Eval)
		if err != nil {
			return err
		}
		if !v {
			msg, _ := msgItem.Bytes()
			return errAbortMsg(msg)
		}
		ctx.IP++
		return nil
	})
	register(OpThrow, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		e.throwItem(item)
		return nil
	})
	register(OpTry, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return doTry(ctx, int(readI8(ctx, ctx.IP+1)), int(readI8(ctx, ctx.IP+2)), 3)
	})
	register(OpTryL, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return doTry(ctx, int(readI32(ctx, ctx.IP+1)), int(readI32(ctx, ctx.IP+5)), 9)
	})
	register(OpEndTry, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return doEndTry(e, ctx, int(readI8(ctx, ctx.IP+1)), 2)
	})
	register(OpEndTryL, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return doEndTry(e, ctx, int(readI32(ctx, ctx.IP+1)), 5)
	})
	register(OpEndFinally, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		frame := ctx.currentTry()
		if frame == nil {
			return ErrUnsupportedOperation
		}
		ctx.popTry()
		if ctx.pendingThrow != nil {
			payload := ctx.pendingThrow
			ctx.pendingThrow = nil
			e.throwItem(payload)
			return nil
		}
		ctx.IP++
		return nil
	})
	register(OpRet, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		e.popContextWithReturn(ctx)
		return nil
	})
	register(OpSyscall, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		id := readU32(ctx, ctx.IP+1)
		ctx.IP += 5
		return e.invokeSyscall(ctx, id)
	})
}

func makeJump(cond func(*ApplicationEngine, *ExecutionContext) (bool, error), operandBase int, long bool) opcodeHandler {
	operandSize := 1
	if long {
		operandSize = 4
	}
	return func(e *ApplicationEngine, ctx *ExecutionContext) error {
		var offset int
		if long {
			offset = int(readI32(ctx, ctx.IP+1))
		} else {
			offset = int(readI8(ctx, ctx.IP+1))
		}
		take := true
		if cond != nil {
			var err error
			take, err = cond(e, ctx)
			if err != nil {
				return err
			}
		}
		if take {
			target, err := jumpOffset(ctx, ctx.IP, offset)
			if err != nil {
				return err
			}
			ctx.IP = target
		} else {
			ctx.IP += operandBase + operandSize
		}
		return nil
	}
}

func doCall(e *ApplicationEngine, ctx *ExecutionContext, target, instrLen int) error {
	ctx.IP += instrLen
	newCtx := e.LoadScript(ctx.Script, ctx.ScriptHash, -1, ctx.CallFlags)
	newCtx.IP = target
	newCtx.StaticFields = ctx.StaticFields
	return nil
}

func doTry(ctx *ExecutionContext, catchOffset, finallyOffset, instrLen int) error {
	hasCatch := catchOffset != 0
	hasFinally := finallyOffset != 0
	var catchPos, finallyPos int
	var err error
	if hasCatch {
		catchPos, err = jumpOffset(ctx, ctx.IP, catchOffset)
		if err != nil {
			return err
		}
	}
	if hasFinally {
		finallyPos, err = jumpOffset(ctx, ctx.IP, finallyOffset)
		if err != nil {
			return err
		}
	}
	ctx.pushTry(catchPos, finallyPos, hasCatch, hasFinally)
	ctx.IP += instrLen
	return nil
}

func doEndTry(e *ApplicationEngine, ctx *ExecutionContext, offset, instrLen int) error {
	frame := ctx.currentTry()
	if frame == nil {
		return ErrUnsupportedOperation
	}
	target, err := jumpOffset(ctx, ctx.IP, offset)
	if err != nil {
		return err
	}
	if frame.hasFinally && !frame.inFinally {
		frame.inFinally = true
		ctx.IP = frame.finallyPos
		return nil
	}
	ctx.popTry()
	ctx.IP = target
	_ = instrLen
	return nil
}

// --- stack manipulation ----------------------------------------------

func registerStack() {
	register(OpDepth, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.IP++
		ctx.Eval.Push(stackitem.NewIntegerFromInt64(int64(ctx.Eval.Len())))
		return nil
	})
	register(OpDrop, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		if _, err := ctx.Eval.Pop(); err != nil {
			return err
		}
		ctx.IP++
		return nil
	})
	register(OpNip, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		if _, err := ctx.Eval.Remove(1); err != nil {
			return err
		}
		ctx.IP++
		return nil
	})
	register(OpXDrop, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		item, err := ctx.Eval.Remove(int(n.Int64()))
		if err != nil {
			return err
		}
		e.RefCount.RemoveStackReference(item)
		ctx.IP++
		return nil
	})
	register(OpClear, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.Eval.Clear()
		ctx.IP++
		return nil
	})
	register(OpDup, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		top, err := ctx.Eval.Peek(0)
		if err != nil {
			return err
		}
		ctx.Eval.Push(top)
		ctx.IP++
		return nil
	})
	register(OpOver, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Peek(1)
		if err != nil {
			return err
		}
		ctx.Eval.Push(item)
		ctx.IP++
		return nil
	})
	register(OpPick, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		item, err := ctx.Eval.Peek(int(n.Int64()))
		if err != nil {
			return err
		}
		ctx.Eval.Push(item)
		ctx.IP++
		return nil
	})
	register(OpTuck, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		top, err := ctx.Eval.Peek(0)
		if err != nil {
			return err
		}
		e.RefCount.AddStackReference(top)
		ctx.Eval.Insert(2, top)
		ctx.IP++
		return nil
	})
	register(OpSwap, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		a, err := ctx.Eval.Remove(1)
		if err != nil {
			return err
		}
		ctx.Eval.Insert(0, a)
		ctx.IP++
		return nil
	})
	register(OpRot, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		a, err := ctx.Eval.Remove(2)
		if err != nil {
			return err
		}
		ctx.Eval.Insert(0, a)
		ctx.IP++
		return nil
	})
	register(OpRoll, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		idx := int(n.Int64())
		if idx == 0 {
			ctx.IP++
			return nil
		}
		item, err := ctx.Eval.Remove(idx)
		if err != nil {
			return err
		}
		ctx.Eval.Insert(0, item)
		ctx.IP++
		return nil
	})
	register(OpReverse3, func(e *ApplicationEngine, ctx *ExecutionContext) error { return reverseTop(ctx, 3) })
	register(OpReverse4, func(e *ApplicationEngine, ctx *ExecutionContext) error { return reverseTop(ctx, 4) })
	register(OpReverseN, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.IP++
		return reverseTopNoAdvance(ctx, int(n.Int64()))
	})
}

func reverseTop(ctx *ExecutionContext, n int) error {
	ctx.IP++
	return reverseTopNoAdvance(ctx, n)
}

func reverseTopNoAdvance(ctx *ExecutionContext, n int) error {
	if n <= 1 {
		return nil
	}
	if ctx.Eval.Len() < n {
		return ErrStackEmpty
	}
	items := make([]stackitem.Item, n)
	for i := 0; i < n; i++ {
		item, err := ctx.Eval.Remove(0)
		if err != nil {
			return err
		}
		items[i] = item
	}
	for _, item := range items {
		ctx.Eval.Insert(0, item)
	}
	return nil
}

// --- slots ------------------------------------------------------------

func registerSlots() {
	register(OpInitSSlot, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n := int(readU8(ctx, ctx.IP+1))
		ctx.initStaticSlots(n)
		ctx.IP += 2
		return nil
	})
	register(OpInitSlot, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		localCount := int(readU8(ctx, ctx.IP+1))
		argCount := int(readU8(ctx, ctx.IP+2))
		var args []stackitem.Item
		for i := 0; i < argCount; i++ {
			item, err := ctx.Eval.Pop()
			if err != nil {
				return err
			}
			args = append(args, item)
		}
		ctx.initSlots(localCount, argCount, args)
		ctx.IP += 3
		return nil
	})

	type slotGroup struct {
		base0, baseN, indexed Opcode
		get                   func(*ExecutionContext) []stackitem.Item
		store                 bool
	}
	groups := []slotGroup{
		{OpLdSFLd0, OpLdSFLd6, OpLdSFLd, func(c *ExecutionContext) []stackitem.Item { return c.StaticFields }, false},
		{OpStSFLd0, OpStSFLd6, OpStSFLd, func(c *ExecutionContext) []stackitem.Item { return c.StaticFields }, true},
		{OpLdLoc0, OpLdLoc6, OpLdLoc, func(c *ExecutionContext) []stackitem.Item { return c.LocalVars }, false},
		{OpStLoc0, OpStLoc6, OpStLoc, func(c *ExecutionContext) []stackitem.Item { return c.LocalVars }, true},
		{OpLdArg0, OpLdArg6, OpLdArg, func(c *ExecutionContext) []stackitem.Item { return c.Arguments }, false},
		{OpStArg0, OpStArg6, OpStArg, func(c *ExecutionContext) []stackitem.Item { return c.Arguments }, true},
	}
	for _, g := range groups {
		g := g
		for i := 0; i <= 6; i++ {
			idx := i
			op := g.base0 + Opcode(i)
			if g.store {
				register(op, func(e *ApplicationEngine, ctx *ExecutionContext) error {
					item, err := ctx.Eval.Pop()
					if err != nil {
						return err
					}
					slots := g.get(ctx)
					if idx >= len(slots) {
						return ErrUnsupportedOperation
					}
					slots[idx] = item
					ctx.IP++
					return nil
				})
			} else {
				register(op, func(e *ApplicationEngine, ctx *ExecutionContext) error {
					slots := g.get(ctx)
					if idx >= len(slots) {
						return ErrUnsupportedOperation
					}
					ctx.Eval.Push(slots[idx])
					ctx.IP++
					return nil
				})
			}
		}
		register(g.indexed, func(e *ApplicationEngine, ctx *ExecutionContext) error {
			idx := int(readU8(ctx, ctx.IP+1))
			slots := g.get(ctx)
			if idx >= len(slots) {
				return ErrUnsupportedOperation
			}
			if g.store {
				item, err := ctx.Eval.Pop()
				if err != nil {
					return err
				}
				slots[idx] = item
			} else {
				ctx.Eval.Push(slots[idx])
			}
			ctx.IP += 2
			return nil
		})
	}
}

// --- splice -------------------------------------------------------

func registerSplice() {
	register(OpNewBuffer, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBuffer(int(n.Int64())))
		ctx.IP++
		return nil
	})
	register(OpMemCpy, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		count, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		srcIndex, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		srcItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		dstIndex, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		dstItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		dst, ok := dstItem.(*stackitem.Buffer)
		if !ok {
			return ErrUnsupportedOperation
		}
		src, err := srcItem.Bytes()
		if err != nil {
			return err
		}
		si, di, n := int(srcIndex.Int64()), int(dstIndex.Int64()), int(count.Int64())
		if si < 0 || di < 0 || n < 0 || si+n > len(src) || di+n > len(dst.Data) {
			return ErrUnsupportedOperation
		}
		copy(dst.Data[di:di+n], src[si:si+n])
		ctx.IP++
		return nil
	})
	register(OpCat, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		b, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		a, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		ab, err := a.Bytes()
		if err != nil {
			return err
		}
		bb, err := b.Bytes()
		if err != nil {
			return err
		}
		out := append(append([]byte(nil), ab...), bb...)
		if len(out) > stackitem.MaxByteStringSize {
			return ErrUnsupportedOperation
		}
		ctx.Eval.Push(stackitem.NewBufferFromBytes(out))
		ctx.IP++
		return nil
	})
	register(OpSubStr, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		count, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		index, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		b, err := item.Bytes()
		if err != nil {
			return err
		}
		i, n := int(index.Int64()), int(count.Int64())
		if i < 0 || n < 0 || i+n > len(b) {
			return ErrUnsupportedOperation
		}
		ctx.Eval.Push(stackitem.NewBufferFromBytes(b[i : i+n]))
		ctx.IP++
		return nil
	})
	register(OpLeft, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return leftRight(ctx, true)
	})
	register(OpRight, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return leftRight(ctx, false)
	})
}

func leftRight(ctx *ExecutionContext, left bool) error {
	count, err := popBigInt(ctx.Eval)
	if err != nil {
		return err
	}
	item, err := ctx.Eval.Pop()
	if err != nil {
		return err
	}
	b, err := item.Bytes()
	if err != nil {
		return err
	}
	n := int(count.Int64())
	if n < 0 || n > len(b) {
		return ErrUnsupportedOperation
	}
	var out []byte
	if left {
		out = append([]byte(nil), b[:n]...)
	} else {
		out = append([]byte(nil), b[len(b)-n:]...)
	}
	ctx.Eval.Push(stackitem.NewBufferFromBytes(out))
	ctx.IP++
	return nil
}

// --- bitwise / arithmetic / logical / comparison ----------------------

func registerBitwiseArithmetic() {
	register(OpInvert, unaryInt(func(a *big.Int) *big.Int { return new(big.Int).Not(a) }))
	register(OpAnd, binaryInt(func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) }))
	register(OpOr, binaryInt(func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) }))
	register(OpXor, binaryInt(func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) }))

	register(OpEqual, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		b, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		a, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(a.Equals(b)))
		ctx.IP++
		return nil
	})
	register(OpNotEqual, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		b, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		a, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(!a.Equals(b)))
		ctx.IP++
		return nil
	})

	register(OpSign, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		v, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewIntegerFromInt64(int64(v.Sign())))
		ctx.IP++
		return nil
	})
	register(OpAbs, unaryInt(func(a *big.Int) *big.Int { return new(big.Int).Abs(a) }))
	register(OpNegate, unaryInt(func(a *big.Int) *big.Int { return new(big.Int).Neg(a) }))
	register(OpInc, unaryInt(func(a *big.Int) *big.Int { return new(big.Int).Add(a, big.NewInt(1)) }))
	register(OpDec, unaryInt(func(a *big.Int) *big.Int { return new(big.Int).Sub(a, big.NewInt(1)) }))
	register(OpAdd, binaryInt(func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }))
	register(OpSub, binaryInt(func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }))
	register(OpMul, binaryInt(func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }))
	register(OpDiv, binaryIntErr(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() == 0 {
			return nil, ErrUnsupportedOperation
		}
		return new(big.Int).Quo(a, b), nil
	}))
	register(OpMod, binaryIntErr(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() == 0 {
			return nil, ErrUnsupportedOperation
		}
		return new(big.Int).Rem(a, b), nil
	}))
	register(OpPow, binaryIntErr(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() < 0 {
			return nil, ErrUnsupportedOperation
		}
		return new(big.Int).Exp(a, b, nil), nil
	}))
	register(OpSqrt, unaryIntErr(func(a *big.Int) (*big.Int, error) {
		if a.Sign() < 0 {
			return nil, ErrUnsupportedOperation
		}
		return new(big.Int).Sqrt(a), nil
	}))
	register(OpModMul, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		m, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		b, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		a, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		if m.Sign() == 0 {
			return ErrUnsupportedOperation
		}
		r := new(big.Int).Mul(a, b)
		r.Mod(r, m)
		ctx.Eval.Push(stackitem.NewInteger(r))
		ctx.IP++
		return nil
	})
	register(OpModPow, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		m, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		b, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		a, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		if m.Sign() == 0 {
			return ErrUnsupportedOperation
		}
		r := new(big.Int).Exp(a, b, m)
		ctx.Eval.Push(stackitem.NewInteger(r))
		ctx.IP++
		return nil
	})
	register(OpShl, binaryIntErr(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() < 0 {
			return nil, ErrUnsupportedOperation
		}
		return new(big.Int).Lsh(a, uint(b.Int64())), nil
	}))
	register(OpShr, binaryIntErr(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() < 0 {
			return nil, ErrUnsupportedOperation
		}
		return new(big.Int).Rsh(a, uint(b.Int64())), nil
	}))

	register(OpNot, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		v, err := popBool(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(!v))
		ctx.IP++
		return nil
	})
	register(OpBoolAnd, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		b, err := popBool(ctx.Eval)
		if err != nil {
			return err
		}
		a, err := popBool(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(a && b))
		ctx.IP++
		return nil
	})
	register(OpBoolOr, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		b, err := popBool(ctx.Eval)
		if err != nil {
			return err
		}
		a, err := popBool(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(a || b))
		ctx.IP++
		return nil
	})
	register(OpNz, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		v, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(v.Sign() != 0))
		ctx.IP++
		return nil
	})

	cmp := func(test func(int) bool) opcodeHandler {
		return func(e *ApplicationEngine, ctx *ExecutionContext) error {
			b, err := popBigInt(ctx.Eval)
			if err != nil {
				return err
			}
			a, err := popBigInt(ctx.Eval)
			if err != nil {
				return err
			}
			ctx.Eval.Push(stackitem.NewBoolean(test(a.Cmp(b))))
			ctx.IP++
			return nil
		}
	}
	register(OpNumEqual, cmp(func(c int) bool { return c == 0 }))
	register(OpNumNotEqual, cmp(func(c int) bool { return c != 0 }))
	register(OpLt, cmp(func(c int) bool { return c < 0 }))
	register(OpLe, cmp(func(c int) bool { return c <= 0 }))
	register(OpGt, cmp(func(c int) bool { return c > 0 }))
	register(OpGe, cmp(func(c int) bool { return c >= 0 }))
	register(OpMin, binaryInt(func(a, b *big.Int) *big.Int {
		if a.Cmp(b) <= 0 {
			return a
		}
		return b
	}))
	register(OpMax, binaryInt(func(a, b *big.Int) *big.Int {
		if a.Cmp(b) >= 0 {
			return a
		}
		return b
	}))
	register(OpWithin, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		b, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		a, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		x, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(x.Cmp(a) >= 0 && x.Cmp(b) < 0))
		ctx.IP++
		return nil
	})
}

func unaryInt(f func(*big.Int) *big.Int) opcodeHandler {
	return unaryIntErr(func(a *big.Int) (*big.Int, error) { return f(a), nil })
}

func unaryIntErr(f func(*big.Int) (*big.Int, error)) opcodeHandler {
	return func(e *ApplicationEngine, ctx *ExecutionContext) error {
		a, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		r, err := f(a)
		if err != nil {
			return err
		}
		item, err := stackitem.CheckedInteger(r)
		if err != nil {
			return err
		}
		ctx.Eval.Push(item)
		ctx.IP++
		return nil
	}
}

func binaryInt(f func(a, b *big.Int) *big.Int) opcodeHandler {
	return binaryIntErr(func(a, b *big.Int) (*big.Int, error) { return f(a, b), nil })
}

func binaryIntErr(f func(a, b *big.Int) (*big.Int, error)) opcodeHandler {
	return func(e *ApplicationEngine, ctx *ExecutionContext) error {
		b, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		a, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		r, err := f(a, b)
		if err != nil {
			return err
		}
		item, err := stackitem.CheckedInteger(r)
		if err != nil {
			return err
		}
		ctx.Eval.Push(item)
		ctx.IP++
		return nil
	}
}

// --- compound types -----------------------------------------------

func registerCompound() {
	register(OpNewArray0, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.Eval.Push(stackitem.NewArray(nil))
		ctx.IP++
		return nil
	})
	register(OpNewArray, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return newCompound(ctx, func(items []stackitem.Item) stackitem.Item { return stackitem.NewArray(items) })
	})
	register(OpNewArrayT, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.IP++ // type-operand byte, coercion of default values is beyond bit-exactness this engine enforces
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		items := make([]stackitem.Item, int(n.Int64()))
		for i := range items {
			items[i] = stackitem.NewNull()
		}
		ctx.Eval.Push(stackitem.NewArray(items))
		ctx.IP++
		return nil
	})
	register(OpNewStruct0, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.Eval.Push(stackitem.NewStruct(nil))
		ctx.IP++
		return nil
	})
	register(OpNewStruct, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		return newCompound(ctx, func(items []stackitem.Item) stackitem.Item { return stackitem.NewStruct(items) })
	})
	register(OpNewMap, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		ctx.Eval.Push(stackitem.NewMap())
		ctx.IP++
		return nil
	})
	register(OpSize, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		var n int
		switch v := item.(type) {
		case *stackitem.Array:
			n = len(v.Items)
		case *stackitem.Struct:
			n = len(v.Items)
		case *stackitem.Map:
			n = v.Len()
		default:
			b, err := item.Bytes()
			if err != nil {
				return err
			}
			n = len(b)
		}
		ctx.Eval.Push(stackitem.NewIntegerFromInt64(int64(n)))
		ctx.IP++
		return nil
	})
	register(OpHasKey, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		key, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		var found bool
		switch v := item.(type) {
		case *stackitem.Map:
			_, ok, err := v.Get(key)
			if err != nil {
				return err
			}
			found = ok
		case *stackitem.Array:
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			found = i >= 0 && i < len(v.Items)
		case *stackitem.Struct:
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			found = i >= 0 && i < len(v.Items)
		default:
			return ErrUnsupportedOperation
		}
		ctx.Eval.Push(stackitem.NewBoolean(found))
		ctx.IP++
		return nil
	})
	register(OpKeys, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		m, ok := item.(*stackitem.Map)
		if !ok {
			return ErrUnsupportedOperation
		}
		ctx.Eval.Push(stackitem.NewArray(m.Keys()))
		ctx.IP++
		return nil
	})
	register(OpValues, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		switch v := item.(type) {
		case *stackitem.Map:
			var vals []stackitem.Item
			for _, k := range v.Keys() {
				val, _, _ := v.Get(k)
				vals = append(vals, val)
			}
			ctx.Eval.Push(stackitem.NewArray(vals))
		case *stackitem.Array:
			ctx.Eval.Push(stackitem.NewArray(v.Items))
		default:
			return ErrUnsupportedOperation
		}
		ctx.IP++
		return nil
	})
	register(OpPickItem, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		key, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		switch v := item.(type) {
		case *stackitem.Map:
			val, ok, err := v.Get(key)
			if err != nil {
				return err
			}
			if !ok {
				return ErrUnsupportedOperation
			}
			ctx.Eval.Push(val)
		case *stackitem.Array:
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(v.Items) {
				return ErrUnsupportedOperation
			}
			ctx.Eval.Push(v.Items[i])
		case *stackitem.Struct:
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(v.Items) {
				return ErrUnsupportedOperation
			}
			ctx.Eval.Push(v.Items[i])
		default:
			b, err := item.Bytes()
			if err != nil {
				return err
			}
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(b) {
				return ErrUnsupportedOperation
			}
			ctx.Eval.Push(stackitem.NewIntegerFromInt64(int64(b[i])))
		}
		ctx.IP++
		return nil
	})
	register(OpAppend, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		arrItem, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		switch v := arrItem.(type) {
		case *stackitem.Array:
			v.Items = append(v.Items, item)
			e.RefCount.AddCompoundChild(v, item)
		case *stackitem.Struct:
			v.Items = append(v.Items, item)
			e.RefCount.AddCompoundChild(v, item)
		default:
			return ErrUnsupportedOperation
		}
		ctx.IP++
		return nil
	})
	register(OpSetItem, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		value, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		key, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		switch v := item.(type) {
		case *stackitem.Map:
			if err := v.Set(key, value); err != nil {
				return err
			}
			e.RefCount.AddCompoundChild(v, value)
		case *stackitem.Array:
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(v.Items) {
				return ErrUnsupportedOperation
			}
			v.Items[i] = value
			e.RefCount.AddCompoundChild(v, value)
		case *stackitem.Struct:
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(v.Items) {
				return ErrUnsupportedOperation
			}
			v.Items[i] = value
			e.RefCount.AddCompoundChild(v, value)
		default:
			return ErrUnsupportedOperation
		}
		ctx.IP++
		return nil
	})
	register(OpReverseItems, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		var items []stackitem.Item
		switch v := item.(type) {
		case *stackitem.Array:
			items = v.Items
		case *stackitem.Struct:
			items = v.Items
		default:
			return ErrUnsupportedOperation
		}
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		ctx.IP++
		return nil
	})
	register(OpRemove, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		key, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		switch v := item.(type) {
		case *stackitem.Map:
			if err := v.Delete(key); err != nil {
				return err
			}
		case *stackitem.Array:
			idx, err := key.BigInt()
			if err != nil {
				return err
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(v.Items) {
				return ErrUnsupportedOperation
			}
			v.Items = append(v.Items[:i], v.Items[i+1:]...)
		default:
			return ErrUnsupportedOperation
		}
		ctx.IP++
		return nil
	})
	register(OpClearItems, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		switch v := item.(type) {
		case *stackitem.Array:
			v.Items = nil
		case *stackitem.Struct:
			v.Items = nil
		default:
			return ErrUnsupportedOperation
		}
		ctx.IP++
		return nil
	})
	register(OpPopItem, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		switch v := item.(type) {
		case *stackitem.Array:
			if len(v.Items) == 0 {
				return ErrUnsupportedOperation
			}
			last := v.Items[len(v.Items)-1]
			v.Items = v.Items[:len(v.Items)-1]
			ctx.Eval.Push(last)
		case *stackitem.Struct:
			if len(v.Items) == 0 {
				return ErrUnsupportedOperation
			}
			last := v.Items[len(v.Items)-1]
			v.Items = v.Items[:len(v.Items)-1]
			ctx.Eval.Push(last)
		default:
			return ErrUnsupportedOperation
		}
		ctx.IP++
		return nil
	})
	register(OpPack, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		count := int(n.Int64())
		items := make([]stackitem.Item, count)
		for i := 0; i < count; i++ {
			item, err := ctx.Eval.Pop()
			if err != nil {
				return err
			}
			items[count-1-i] = item
		}
		ctx.Eval.Push(stackitem.NewArray(items))
		ctx.IP++
		return nil
	})
	register(OpPackStruct, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		count := int(n.Int64())
		items := make([]stackitem.Item, count)
		for i := 0; i < count; i++ {
			item, err := ctx.Eval.Pop()
			if err != nil {
				return err
			}
			items[count-1-i] = item
		}
		ctx.Eval.Push(stackitem.NewStruct(items))
		ctx.IP++
		return nil
	})
	register(OpPackMap, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		n, err := popBigInt(ctx.Eval)
		if err != nil {
			return err
		}
		count := int(n.Int64())
		m := stackitem.NewMap()
		for i := 0; i < count; i++ {
			value, err := ctx.Eval.Pop()
			if err != nil {
				return err
			}
			key, err := ctx.Eval.Pop()
			if err != nil {
				return err
			}
			if err := m.Set(key, value); err != nil {
				return err
			}
		}
		ctx.Eval.Push(m)
		ctx.IP++
		return nil
	})
	register(OpUnpack, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		var items []stackitem.Item
		switch v := item.(type) {
		case *stackitem.Array:
			items = v.Items
		case *stackitem.Struct:
			items = v.Items
		default:
			return ErrUnsupportedOperation
		}
		for i := len(items) - 1; i >= 0; i-- {
			ctx.Eval.Push(items[i])
		}
		ctx.Eval.Push(stackitem.NewIntegerFromInt64(int64(len(items))))
		ctx.IP++
		return nil
	})
}

func newCompound(ctx *ExecutionContext, build func([]stackitem.Item) stackitem.Item) error {
	n, err := popBigInt(ctx.Eval)
	if err != nil {
		return err
	}
	count := int(n.Int64())
	items := make([]stackitem.Item, count)
	for i := range items {
		items[i] = stackitem.NewNull()
	}
	ctx.Eval.Push(build(items))
	ctx.IP++
	return nil
}

// --- type ops ----------------------------------------------------------

func registerTypeOps() {
	register(OpIsNull, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		_, isNull := item.(*stackitem.Null)
		ctx.Eval.Push(stackitem.NewBoolean(isNull))
		ctx.IP++
		return nil
	})
	register(OpIsType, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		typ := stackitem.Type(readU8(ctx, ctx.IP+1))
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		ctx.Eval.Push(stackitem.NewBoolean(item.Type() == typ))
		ctx.IP += 2
		return nil
	})
	register(OpConvert, func(e *ApplicationEngine, ctx *ExecutionContext) error {
		typ := stackitem.Type(readU8(ctx, ctx.IP+1))
		item, err := ctx.Eval.Pop()
		if err != nil {
			return err
		}
		converted, err := convertItem(item, typ)
		if err != nil {
			return err
		}
		ctx.Eval.Push(converted)
		ctx.IP += 2
		return nil
	})
}

func convertItem(item stackitem.Item, typ stackitem.Type) (stackitem.Item, error) {
	if item.Type() == typ {
		return item, nil
	}
	switch typ {
	case stackitem.TypeBoolean:
		return stackitem.NewBoolean(item.Bool()), nil
	case stackitem.TypeInteger:
		v, err := item.BigInt()
		if err != nil {
			return nil, err
		}
		return stackitem.CheckedInteger(v)
	case stackitem.TypeByteString:
		b, err := item.Bytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(b), nil
	case stackitem.TypeBuffer:
		b, err := item.Bytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewBufferFromBytes(b), nil
	default:
		return nil, ErrUnsupportedOperation
	}
}

// errAbortMsg and errAssertFailed are declared in faults.go.
