package custody

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
)

type LockOutInstructionArgs struct {
	ForeignAddress ForeignAddress
}

type LockOutInstructionAccounts struct {
	Owner        ed25519.PublicKey
	OwnerAsset   ed25519.PublicKey
	CustodyAsset ed25519.PublicKey
	Registry     ed25519.PublicKey
	Authority    ed25519.PublicKey
}

func NewLockOutInstruction(
	program ed25519.PublicKey,
	accounts *LockOutInstructionAccounts,
	args *LockOutInstructionArgs,
) solana.Instruction {
	data := make([]byte, 1+LockOutInstructionArgsSize)
	data[0] = byte(OpcodeLockOut)
	copy(data[1:], args.ForeignAddress[:])

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Owner,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.OwnerAsset,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.CustodyAsset,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Registry,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Authority,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  token.ProgramKey,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
