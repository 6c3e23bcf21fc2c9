package custody

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/custody-bridge/pkg/solana"
)

type InitializeInstructionArgs struct {
	Capacity      uint16
	AuthorityBump uint8
}

type InitializeInstructionAccounts struct {
	Admin     ed25519.PublicKey
	Registry  ed25519.PublicKey
	Authority ed25519.PublicKey
}

func NewInitializeInstruction(
	program ed25519.PublicKey,
	accounts *InitializeInstructionAccounts,
	args *InitializeInstructionArgs,
) solana.Instruction {
	data := make([]byte, 1+InitializeInstructionArgsSize)
	data[0] = byte(OpcodeInitialize)
	binary.LittleEndian.PutUint16(data[1:], args.Capacity)
	data[3] = args.AuthorityBump

	return solana.Instruction{
		Program: program,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Admin,
				IsWritable: false,
				IsSigner:   true,
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
		},
	}
}
