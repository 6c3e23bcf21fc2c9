package token

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-bridge/pkg/solana"
)

// AssociatedProgramKey derives associated token account addresses. Nothing
// executes under it; only the address derivation is needed.
var AssociatedProgramKey = mustDecodeKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

// GetAssociatedAccount returns the canonical token account of owner for mint,
// derived from the seeds [owner, token program, mint].
func GetAssociatedAccount(owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(AssociatedProgramKey, owner, ProgramKey, mint)
}
