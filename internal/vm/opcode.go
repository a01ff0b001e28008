// Package vm implements the stack machine: script loading, execution
// contexts, the opcode jump table, gas metering, try/catch frames and the
// syscall dispatcher (§4.5). Grounded on the teacher's opcode_dispatcher.go
// (central Register/Dispatch table with a gas pre-charge gate, panic on
// collision) and gas_table.go (map[Opcode]uint64 with a punitive default),
// both generalized from Synnergy's 24-bit category-coded opcode space to the
// protocol's fixed single-byte opcode set.
package vm

// Opcode is a single-byte instruction identifier, matching the protocol's
// fixed (not extensible) opcode space — unlike the teacher's 24-bit
// category-coded scheme, every value 0..255 is either assigned or faults.
type Opcode byte

const (
	// Push constants. OpPush0..OpPush16 are contiguous (0x10..0x20); the
	// handler for OpPushN derives the pushed value from op-OpPush0.
	OpPushInt8   Opcode = 0x00
	OpPushInt16  Opcode = 0x01
	OpPushInt32  Opcode = 0x02
	OpPushInt64  Opcode = 0x03
	OpPushInt128 Opcode = 0x04
	OpPushInt256 Opcode = 0x05
	OpPushA      Opcode = 0x0A
	OpPushNull   Opcode = 0x0B
	OpPushData1  Opcode = 0x0C
	OpPushData2  Opcode = 0x0D
	OpPushData4  Opcode = 0x0E
	OpPushM1     Opcode = 0x0F
	OpPush0      Opcode = 0x10
	OpPush16     Opcode = 0x20

	// Control flow
	OpNop        Opcode = 0x21
	OpJmp        Opcode = 0x22
	OpJmpL       Opcode = 0x23
	OpJmpIf      Opcode = 0x24
	OpJmpIfL     Opcode = 0x25
	OpJmpIfNot   Opcode = 0x26
	OpJmpIfNotL  Opcode = 0x27
	OpJmpEq      Opcode = 0x28
	OpJmpEqL     Opcode = 0x29
	OpJmpNe      Opcode = 0x2A
	OpJmpNeL     Opcode = 0x2B
	OpJmpGt      Opcode = 0x2C
	OpJmpGtL     Opcode = 0x2D
	OpJmpGe      Opcode = 0x2E
	OpJmpGeL     Opcode = 0x2F
	OpJmpLt      Opcode = 0x30
	OpJmpLtL     Opcode = 0x31
	OpJmpLe      Opcode = 0x32
	OpJmpLeL     Opcode = 0x33
	OpCall       Opcode = 0x34
	OpCallL      Opcode = 0x35
	OpCallA      Opcode = 0x36
	OpCallT      Opcode = 0x37
	OpAbort      Opcode = 0x38
	OpAssert     Opcode = 0x39
	OpThrow      Opcode = 0x3A
	OpTry        Opcode = 0x3B
	OpTryL       Opcode = 0x3C
	OpEndTry     Opcode = 0x3D
	OpEndTryL    Opcode = 0x3E
	OpEndFinally Opcode = 0x3F
	OpRet        Opcode = 0x40
	OpSyscall    Opcode = 0x41

	// Stack manipulation
	OpDepth    Opcode = 0x43
	OpDrop     Opcode = 0x45
	OpNip      Opcode = 0x46
	OpXDrop    Opcode = 0x48
	OpClear    Opcode = 0x49
	OpDup      Opcode = 0x4A
	OpOver     Opcode = 0x4B
	OpPick     Opcode = 0x4D
	OpTuck     Opcode = 0x4E
	OpSwap     Opcode = 0x50
	OpRot      Opcode = 0x51
	OpRoll     Opcode = 0x52
	OpReverse3 Opcode = 0x53
	OpReverse4 Opcode = 0x54
	OpReverseN Opcode = 0x55

	// Slot load/store. The 0..6 shorthand forms and the indexed forms each
	// get one base opcode; the engine derives the slot index either from
	// the opcode's offset from the base (shorthand) or from the operand
	// byte that follows (indexed), matching InitSSlot/InitSlot's
	// declared-size handling.
	OpInitSSlot Opcode = 0x56
	OpInitSlot  Opcode = 0x57
	OpLdSFLd0   Opcode = 0x58
	OpLdSFLd6   Opcode = 0x5E
	OpLdSFLd    Opcode = 0x5F
	OpStSFLd0   Opcode = 0x60
	OpStSFLd6   Opcode = 0x66
	OpStSFLd    Opcode = 0x67
	OpLdLoc0    Opcode = 0x68
	OpLdLoc6    Opcode = 0x6E
	OpLdLoc     Opcode = 0x6F
	OpStLoc0    Opcode = 0x70
	OpStLoc6    Opcode = 0x76
	OpStLoc     Opcode = 0x77
	OpLdArg0    Opcode = 0x78
	OpLdArg6    Opcode = 0x7E
	OpLdArg     Opcode = 0x7F
	OpStArg0    Opcode = 0x80
	OpStArg6    Opcode = 0x86
	OpStArg     Opcode = 0x87

	// Splice
	OpNewBuffer Opcode = 0x88
	OpMemCpy    Opcode = 0x89
	OpCat       Opcode = 0x8A
	OpSubStr    Opcode = 0x8B
	OpLeft      Opcode = 0x8C
	OpRight     Opcode = 0x8D

	// Bitwise
	OpInvert   Opcode = 0x90
	OpAnd      Opcode = 0x91
	OpOr       Opcode = 0x92
	OpXor      Opcode = 0x93
	OpEqual    Opcode = 0x97
	OpNotEqual Opcode = 0x98

	// Arithmetic
	OpSign   Opcode = 0x99
	OpAbs    Opcode = 0x9A
	OpNegate Opcode = 0x9B
	OpInc    Opcode = 0x9C
	OpDec    Opcode = 0x9D
	OpAdd    Opcode = 0x9E
	OpSub    Opcode = 0x9F
	OpMul    Opcode = 0xA0
	OpDiv    Opcode = 0xA1
	OpMod    Opcode = 0xA2
	OpPow    Opcode = 0xA3
	OpSqrt   Opcode = 0xA4
	OpModMul Opcode = 0xA5
	OpModPow Opcode = 0xA6
	OpShl    Opcode = 0xA8
	OpShr    Opcode = 0xA9

	// Logical
	OpNot     Opcode = 0xAA
	OpBoolAnd Opcode = 0xAB
	OpBoolOr  Opcode = 0xAC
	OpNz      Opcode = 0xB1

	// Comparison
	OpNumEqual    Opcode = 0xB3
	OpNumNotEqual Opcode = 0xB4
	OpLt          Opcode = 0xB5
	OpLe          Opcode = 0xB6
	OpGt          Opcode = 0xB7
	OpGe          Opcode = 0xB8
	OpMin         Opcode = 0xB9
	OpMax         Opcode = 0xBA
	OpWithin      Opcode = 0xBB

	// Compound types
	OpPackMap      Opcode = 0xBE
	OpPackStruct   Opcode = 0xBF
	OpPack         Opcode = 0xC0
	OpUnpack       Opcode = 0xC1
	OpNewArray0    Opcode = 0xC2
	OpNewArray     Opcode = 0xC3
	OpNewArrayT    Opcode = 0xC4
	OpNewStruct0   Opcode = 0xC5
	OpNewStruct    Opcode = 0xC6
	OpNewMap       Opcode = 0xC8
	OpSize         Opcode = 0xCA
	OpHasKey       Opcode = 0xCB
	OpKeys         Opcode = 0xCC
	OpValues       Opcode = 0xCD
	OpPickItem     Opcode = 0xCE
	OpAppend       Opcode = 0xCF
	OpSetItem      Opcode = 0xD0
	OpReverseItems Opcode = 0xD1
	OpRemove       Opcode = 0xD2
	OpClearItems   Opcode = 0xD3
	OpPopItem      Opcode = 0xD4

	// Type
	OpIsNull  Opcode = 0xD8
	OpIsType  Opcode = 0xD9
	OpConvert Opcode = 0xDB

	// Diagnostics
	OpAbortMsg  Opcode = 0xE0
	OpAssertMsg Opcode = 0xE1
)

// pushN returns the OpPush<n> opcode for n in [0,16].
func pushN(n int) Opcode { return OpPush0 + Opcode(n) }
