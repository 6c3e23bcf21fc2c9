package custody

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
)

// Delegate issues the single token transfer behind a lock-in or lock-out.
// The token program's own balance and ownership checks are trusted, and any
// failure it reports is returned as a TransferRejectedError.
type Delegate struct {
	tokenProgram ed25519.PublicKey
}

func NewDelegate(tokenProgram ed25519.PublicKey) *Delegate {
	return &Delegate{
		tokenProgram: tokenProgram,
	}
}

// LockIn moves one unit from the owner's asset account into the vault, signed
// by the owner.
func (d *Delegate) LockIn(ctx context.Context, invoker solana.Invoker, accounts *LockInContext) error {
	ix := d.transfer(
		accounts.OwnerAsset.PublicKey,
		accounts.CustodyAsset.PublicKey,
		accounts.Owner.PublicKey,
	)

	if err := invoker.Invoke(ctx, ix); err != nil {
		return &TransferRejectedError{Cause: err}
	}
	return nil
}

// LockOut moves one unit from the vault back to the owner's asset account,
// signed by the program derived authority.
func (d *Delegate) LockOut(ctx context.Context, invoker solana.Invoker, accounts *LockOutContext, bump uint8) error {
	ix := d.transfer(
		accounts.CustodyAsset.PublicKey,
		accounts.OwnerAsset.PublicKey,
		accounts.Authority.PublicKey,
	)

	if err := invoker.Invoke(ctx, ix, AuthoritySignerSeeds(bump)); err != nil {
		return &TransferRejectedError{Cause: err}
	}
	return nil
}

func (d *Delegate) transfer(source, dest, authority ed25519.PublicKey) solana.Instruction {
	ix := token.Transfer(source, dest, authority, TransferAmount)
	ix.Program = d.tokenProgram
	return ix
}
