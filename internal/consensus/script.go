package consensus

import (
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/vm"
)

// The recognizers below duplicate internal/ledger/witness.go's standard
// single-/multi-signature script shapes rather than importing them: ledger's
// copies are unexported, and exporting them just for this package's use
// would widen ledger's public surface for a handful of small pure
// functions.

func pushedInt(script []byte, pos int) (value int, size int, ok bool) {
	if pos >= len(script) {
		return 0, 0, false
	}
	op := vm.Opcode(script[pos])
	switch {
	case op >= vm.OpPush0 && op <= vm.OpPush16:
		return int(op - vm.OpPush0), 1, true
	case op == vm.OpPushInt8:
		if pos+1 >= len(script) {
			return 0, 0, false
		}
		return int(int8(script[pos+1])), 2, true
	default:
		return 0, 0, false
	}
}

func pushedData(script []byte, pos int) (data []byte, size int, ok bool) {
	if pos >= len(script) || vm.Opcode(script[pos]) != vm.OpPushData1 {
		return nil, 0, false
	}
	if pos+1 >= len(script) {
		return nil, 0, false
	}
	n := int(script[pos+1])
	start := pos + 2
	if start+n > len(script) {
		return nil, 0, false
	}
	return script[start : start+n], 2 + n, true
}

func syscallAt(script []byte, pos int, name string) bool {
	if pos+5 != len(script) || vm.Opcode(script[pos]) != vm.OpSyscall {
		return false
	}
	return vm.SyscallHash(name) == leUint32(script[pos+1:pos+5])
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func standardSigPublicKey(script []byte) ([]byte, bool) {
	pub, size, ok := pushedData(script, 0)
	if !ok || len(pub) != keys.PublicKeySize {
		return nil, false
	}
	if !syscallAt(script, size, "System.Crypto.CheckSig") {
		return nil, false
	}
	return pub, true
}

func standardMultiSigKeys(script []byte) (m int, pubKeys [][]byte, ok bool) {
	m, size, ok := pushedInt(script, 0)
	if !ok || m < 1 {
		return 0, nil, false
	}
	pos := size
	for {
		pub, dsize, ok := pushedData(script, pos)
		if !ok {
			break
		}
		if len(pub) != keys.PublicKeySize {
			return 0, nil, false
		}
		pubKeys = append(pubKeys, pub)
		pos += dsize
	}
	n, nsize, ok := pushedInt(script, pos)
	if !ok || n != len(pubKeys) || n < m {
		return 0, nil, false
	}
	pos += nsize
	if !syscallAt(script, pos, "System.Crypto.CheckMultisig") {
		return 0, nil, false
	}
	return m, pubKeys, true
}

func invocationSignatures(script []byte) [][]byte {
	var out [][]byte
	pos := 0
	for pos < len(script) {
		data, size, ok := pushedData(script, pos)
		if !ok {
			break
		}
		out = append(out, data)
		pos += size
	}
	return out
}

func verifyMultiSig(pubKeys, sigs [][]byte, msg []byte) bool {
	ki := 0
	for _, sig := range sigs {
		matched := false
		for ki < len(pubKeys) {
			pub, err := keys.PublicKeyFromBytes(pubKeys[ki])
			ki++
			if err != nil {
				continue
			}
			if keys.Verify(pub, msg, sig) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
