package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/custody-bridge/pkg/solana"
)

// ProgramKey is the SPL token program: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// RentSysVar is the rent sysvar InitializeAccount expects as its last account.
var RentSysVar = mustDecodeKey("SysvarRent111111111111111111111111111111111")

func mustDecodeKey(s string) ed25519.PublicKey {
	key, err := base58.Decode(s)
	if err != nil {
		panic(err)
	}
	return key
}

// Command is the first byte of token instruction data. Only the commands the
// bridge issues are named.
type Command byte

const (
	CommandInitializeAccount Command = 1
	CommandTransfer          Command = 3
)

const transferDataSize = 1 + 8

// Token program errors, numbered as the program reports them.
const (
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
)

// ParseCommand validates instruction data for one of the supported commands.
func ParseCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return 0, ErrorInvalidInstruction
	}

	cmd := Command(data[0])
	switch {
	case cmd == CommandInitializeAccount && len(data) == 1:
	case cmd == CommandTransfer && len(data) == transferDataSize:
	default:
		return 0, ErrorInvalidInstruction
	}
	return cmd, nil
}

// InitializeAccount binds account to mint and owner.
//
// Accounts:
//
//	0. [writable] account
//	1. [] mint
//	2. [] owner
//	3. [] rent sysvar
func InitializeAccount(account, mint, owner ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(RentSysVar, false),
	)
}

type InitializeAccountInstruction struct {
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

func DecodeInitializeAccount(ix solana.Instruction) (*InitializeAccountInstruction, error) {
	if err := checkInstruction(ix, CommandInitializeAccount, 4); err != nil {
		return nil, err
	}
	if !bytes.Equal(ix.Accounts[3].PublicKey, RentSysVar) {
		return nil, errors.New("invalid rent sysvar")
	}

	return &InitializeAccountInstruction{
		Account: ix.Accounts[0].PublicKey,
		Mint:    ix.Accounts[1].PublicKey,
		Owner:   ix.Accounts[2].PublicKey,
	}, nil
}

// Transfer moves amount from source to dest, authorized by the source owner.
//
// Accounts:
//
//	0. [writable] source
//	1. [writable] destination
//	2. [signer] source owner
func Transfer(source, dest, owner ed25519.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, transferDataSize)
	data[0] = byte(CommandTransfer)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(source, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type TransferInstruction struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64
}

func DecodeTransfer(ix solana.Instruction) (*TransferInstruction, error) {
	if err := checkInstruction(ix, CommandTransfer, 3); err != nil {
		return nil, err
	}

	return &TransferInstruction{
		Source:      ix.Accounts[0].PublicKey,
		Destination: ix.Accounts[1].PublicKey,
		Owner:       ix.Accounts[2].PublicKey,
		Amount:      binary.LittleEndian.Uint64(ix.Data[1:]),
	}, nil
}

func checkInstruction(ix solana.Instruction, expected Command, accounts int) error {
	if !bytes.Equal(ix.Program, ProgramKey) {
		return solana.ErrIncorrectProgram
	}

	cmd, err := ParseCommand(ix.Data)
	if err != nil || cmd != expected {
		return solana.ErrIncorrectInstruction
	}

	if len(ix.Accounts) != accounts {
		return errors.Errorf("invalid number of accounts: %d", len(ix.Accounts))
	}
	return nil
}
