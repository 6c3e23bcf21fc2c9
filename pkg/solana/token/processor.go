package token

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-bridge/pkg/solana"
)

// Processor executes the subset of the token program the custody bridge
// relies on: InitializeAccount and Transfer. Delegates, multisig owners and
// native accounts are not supported.
type Processor struct{}

// NewProcessor returns a token program that can be registered with a host
// under ProgramKey.
func NewProcessor() *Processor {
	return &Processor{}
}

// Execute implements solana.Program.
func (p *Processor) Execute(_ context.Context, exec *solana.ExecutionContext) error {
	cmd, err := ParseCommand(exec.Data)
	if err != nil {
		return err
	}

	switch cmd {
	case CommandInitializeAccount:
		return p.initializeAccount(exec)
	default:
		return p.transfer(exec, binary.LittleEndian.Uint64(exec.Data[1:]))
	}
}

func (p *Processor) initializeAccount(exec *solana.ExecutionContext) error {
	if len(exec.Accounts) < 4 {
		return solana.InstructionErrorNotEnoughAccountKeys
	}

	account := exec.Accounts[0]
	mint := exec.Accounts[1]
	owner := exec.Accounts[2]
	rent := exec.Accounts[3]

	if !bytes.Equal(rent.PublicKey, RentSysVar) {
		return solana.InstructionErrorInvalidArgument
	}
	if !account.IsWritable {
		return errors.Wrap(solana.InstructionErrorInvalidArgument, "account is not writable")
	}
	if !account.IsOwnedBy(exec.ProgramID) {
		return solana.InstructionErrorIncorrectProgramID
	}
	if len(account.Data) != AccountSize {
		return solana.InstructionErrorInvalidAccountData
	}

	var state Account
	state.Unmarshal(account.Data)
	if state.IsInitialized() {
		return ErrorAlreadyInUse
	}

	state = Account{
		Mint:  mint.PublicKey,
		Owner: owner.PublicKey,
		State: AccountStateInitialized,
	}
	copy(account.Data, state.Marshal())

	return nil
}

func (p *Processor) transfer(exec *solana.ExecutionContext, amount uint64) error {
	if len(exec.Accounts) < 3 {
		return solana.InstructionErrorNotEnoughAccountKeys
	}

	sourceInfo := exec.Accounts[0]
	destInfo := exec.Accounts[1]
	authority := exec.Accounts[2]

	if !sourceInfo.IsWritable || !destInfo.IsWritable {
		return errors.Wrap(solana.InstructionErrorInvalidArgument, "token accounts must be writable")
	}
	if !authority.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	source, err := p.loadAccount(exec, sourceInfo)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	dest, err := p.loadAccount(exec, destInfo)
	if err != nil {
		return errors.Wrap(err, "destination")
	}

	if err := source.CheckTransfer(dest, authority.PublicKey, amount); err != nil {
		return err
	}

	// A self transfer still runs every check, but must not change the balance.
	if bytes.Equal(sourceInfo.PublicKey, destInfo.PublicKey) {
		return nil
	}

	source.Amount -= amount
	dest.Amount += amount

	copy(sourceInfo.Data, source.Marshal())
	copy(destInfo.Data, dest.Marshal())

	return nil
}

func (p *Processor) loadAccount(exec *solana.ExecutionContext, info *solana.AccountInfo) (*Account, error) {
	if !info.IsOwnedBy(exec.ProgramID) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var account Account
	if !account.Unmarshal(info.Data) {
		return nil, ErrorInvalidState
	}
	if !account.IsInitialized() {
		return nil, ErrorUninitializedState
	}

	return &account, nil
}
