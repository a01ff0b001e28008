package ledger

import (
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// pushedInt reads a PUSH0..PUSH16 shorthand or a PushInt8 operand at pos,
// returning the value and the opcode's total encoded length. It supports
// exactly the two forms the standard single-sig/multi-sig verification
// scripts use for their small integer operands (m, n).
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

// pushedData reads a PUSHDATA1 operand at pos (the only form standard
// verification scripts use for 33-byte public keys and 64-byte
// signatures), returning the pushed bytes and the opcode's total length.
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

// standardSigPublicKey recognizes the single-signature verification script
// shape: PUSHDATA1 <33-byte pubkey> SYSCALL System.Crypto.CheckSig.
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

// standardMultiSigKeys recognizes the m-of-n multi-signature verification
// script shape: PUSH(m) (PUSHDATA1 <33-byte pubkey>)*n PUSH(n) SYSCALL
// System.Crypto.CheckMultisig, mirroring the single-sig recognizer above
// without requiring the VM to execute it (no CheckMultisig syscall exists
// in this core's jump table; the ledger checks the signature set directly
// instead of invoking the script).
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

// invocationSignatures extracts every PUSHDATA1 byte string pushed by an
// invocation script, in order: a standard witness's invocation script is
// nothing but a sequence of signature pushes.
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

// VerifyWitnesses checks every signer/witness pair on tx against the
// recognized standard script shapes (§4.8 "try_add verifies signatures").
// A witness whose verification script is neither a standard single- nor
// multi-signature contract is rejected: executing an arbitrary deployed
// contract's verification script requires a general System.Contract.Call
// dispatch this core does not yet have (see ContractManagement.deploy's
// equivalent limitation).
func VerifyWitnesses(tx *transaction.Transaction) error {
	if len(tx.Witnesses) != len(tx.Signers) {
		return transaction.ErrWitnessMismatch
	}
	msg := tx.Hash().BytesLE()
	for i, signer := range tx.Signers {
		w := tx.Witnesses[i]
		if w.ScriptHash() != signer.Account {
			return ErrWitnessScriptMismatch
		}
		if pub, ok := standardSigPublicKey(w.VerificationScript); ok {
			sigs := invocationSignatures(w.InvocationScript)
			if len(sigs) != 1 {
				return ErrInvalidWitness
			}
			key, err := keys.PublicKeyFromBytes(pub)
			if err != nil || !keys.Verify(key, msg, sigs[0]) {
				return ErrInvalidWitness
			}
			continue
		}
		if m, pubKeys, ok := standardMultiSigKeys(w.VerificationScript); ok {
			sigs := invocationSignatures(w.InvocationScript)
			if len(sigs) != m {
				return ErrInvalidWitness
			}
			if !verifyMultiSig(pubKeys, sigs, msg) {
				return ErrInvalidWitness
			}
			continue
		}
		return ErrUnsupportedWitnessScript
	}
	return nil
}

// verifyMultiSig checks that sigs, taken in order, each match a distinct
// pubKeys entry with strictly increasing index — the standard contract's
// own ordering rule, which also rejects reusing one key for two sigs.
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

// checkWitnessFunc builds the ApplicationEngine.CheckWitness callback for a
// transaction-scoped execution: an account is witnessed if it is one of
// tx's signers and that signer's witness verified (the caller is expected
// to have already run VerifyWitnesses before wiring this in).
func checkWitnessFunc(tx *transaction.Transaction, committee util.Uint160) func(util.Uint160) bool {
	signed := make(map[util.Uint160]bool, len(tx.Signers))
	for _, s := range tx.Signers {
		signed[s.Account] = true
	}
	return func(account util.Uint160) bool {
		return signed[account] || account == committee
	}
}
