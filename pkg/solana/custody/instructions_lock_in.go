package custody

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
)

type LockInInstructionArgs struct {
	ForeignAddress ForeignAddress
}

type LockInInstructionAccounts struct {
	Owner        ed25519.PublicKey
	OwnerAsset   ed25519.PublicKey
	CustodyAsset ed25519.PublicKey
	Registry     ed25519.PublicKey
	EventLog     ed25519.PublicKey
}

func NewLockInInstruction(
	program ed25519.PublicKey,
	accounts *LockInInstructionAccounts,
	args *LockInInstructionArgs,
) solana.Instruction {
	data := make([]byte, 1+LockInInstructionArgsSize)
	data[0] = byte(OpcodeLockIn)
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
				PublicKey:  accounts.EventLog,
				IsWritable: true,
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
