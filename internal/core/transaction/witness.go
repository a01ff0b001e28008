// Package transaction implements the transaction model (§3, §4.x): Signer,
// Witness, Attribute, and Transaction itself, with SHA-256² hashing over
// the unsigned portion memoized on first access. Grounded on the teacher's
// transaction_hash.go for the "compute and cache the hash on the struct"
// pattern, rebuilt here against the binary codec instead of JSON so hashing
// is consensus-exact.
package transaction

import (
	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

// Witness pairs an invocation script (stack-building bytecode) with a
// verification script (signature-checking bytecode).
type Witness struct {
	InvocationScript   []byte
	VerificationScript []byte
}

func (w *Witness) EncodeBinary(bw *io.BinWriter) {
	bw.WriteVarBytes(w.InvocationScript)
	bw.WriteVarBytes(w.VerificationScript)
}

func (w *Witness) DecodeBinary(br *io.BinReader) {
	w.InvocationScript = br.ReadVarBytes(65536)
	w.VerificationScript = br.ReadVarBytes(65536)
}

// ScriptHash returns Hash160 of the verification script, the account a
// witness attests to unless delegated via scope.
func (w *Witness) ScriptHash() util.Uint160 {
	return hash.Hash160(w.VerificationScript)
}
