package custody

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-bridge/pkg/solana"
	"github.com/code-payments/custody-bridge/pkg/solana/token"
)

// Processor executes custody instructions.
//
// Every instruction runs as: decode, bind accounts, validate, load state and
// run state checks, transfer, then write state. Account data is only written
// after the transfer succeeds, so a failed instruction leaves every account
// as it was.
type Processor struct {
	log       *logrus.Entry
	validator *Validator
	delegate  *Delegate
}

// NewProcessor returns the custody program for program. Transfers go to the
// standard token program.
func NewProcessor(program ed25519.PublicKey) *Processor {
	return NewProcessorWithTokenProgram(program, token.ProgramKey)
}

func NewProcessorWithTokenProgram(program, tokenProgram ed25519.PublicKey) *Processor {
	return &Processor{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":    "solana/custody",
			"program": base58.Encode(program),
		}),
		validator: NewValidator(program, tokenProgram),
		delegate:  NewDelegate(tokenProgram),
	}
}

// Execute implements solana.Program.
func (p *Processor) Execute(ctx context.Context, exec *solana.ExecutionContext) error {
	cmd, err := DecodeCommand(exec.Data)
	if err != nil {
		p.log.WithError(err).Debug("failed to decode instruction")
		return err
	}

	log := p.log.WithField("instruction", cmd.Opcode().String())

	switch c := cmd.(type) {
	case *InitializeCommand:
		err = p.initialize(log, exec, c)
	case *LockInCommand:
		err = p.lockIn(ctx, log, exec, c)
	case *LockOutCommand:
		err = p.lockOut(ctx, log, exec, c)
	default:
		err = ErrInvalidInstruction
	}

	if err != nil {
		log.WithError(err).Debug("instruction failed")
		return err
	}
	return nil
}

func (p *Processor) initialize(log *logrus.Entry, exec *solana.ExecutionContext, cmd *InitializeCommand) error {
	accounts, err := BindInitializeContext(exec.Accounts)
	if err != nil {
		return err
	}

	if err := p.validator.ValidateInitialize(accounts, cmd); err != nil {
		return err
	}

	var registry CustodyRegistry
	if err := registry.Unmarshal(accounts.Registry.Data); err != nil {
		return err
	}
	if err := registry.Initialize(cmd.Capacity, cmd.AuthorityBump, len(accounts.Registry.Data)); err != nil {
		return err
	}

	copy(accounts.Registry.Data, registry.Marshal())

	log.WithFields(logrus.Fields{
		"registry": base58.Encode(accounts.Registry.PublicKey),
		"capacity": cmd.Capacity,
		"bump":     cmd.AuthorityBump,
	}).Debug("registry initialized")
	return nil
}

func (p *Processor) lockIn(ctx context.Context, log *logrus.Entry, exec *solana.ExecutionContext, cmd *LockInCommand) error {
	accounts, err := BindLockInContext(exec.Accounts)
	if err != nil {
		return err
	}

	registry, err := p.validator.ValidateLockIn(accounts)
	if err != nil {
		return err
	}

	if registry.IsFull() {
		return ErrRegistryFull
	}

	eventLog, err := NewEventLog(accounts.EventLog.Data)
	if err != nil {
		return err
	}
	if !eventLog.HasRoom() {
		return ErrLogFull
	}

	record := CustodyRecord{
		ForeignAddress: cmd.ForeignAddress,
		Owner:          accounts.Owner.PublicKey,
		AssetAccount:   accounts.OwnerAsset.PublicKey,
	}

	if err := p.delegate.LockIn(ctx, exec, accounts); err != nil {
		return err
	}

	// The checks above guarantee neither of these fail.
	if err := registry.LockIn(record); err != nil {
		return err
	}
	if err := eventLog.Append(cmd.ForeignAddress); err != nil {
		return err
	}
	copy(accounts.Registry.Data, registry.Marshal())

	log.WithFields(logrus.Fields{
		"record":  record.String(),
		"records": len(registry.Records),
		"entries": eventLog.Count(),
	}).Debug("locked in")
	return nil
}

func (p *Processor) lockOut(ctx context.Context, log *logrus.Entry, exec *solana.ExecutionContext, cmd *LockOutCommand) error {
	accounts, err := BindLockOutContext(exec.Accounts)
	if err != nil {
		return err
	}

	registry, err := p.validator.ValidateLockOut(accounts)
	if err != nil {
		return err
	}

	record := CustodyRecord{
		ForeignAddress: cmd.ForeignAddress,
		Owner:          accounts.Owner.PublicKey,
		AssetAccount:   accounts.OwnerAsset.PublicKey,
	}
	if registry.Find(&record) < 0 {
		return ErrRecordNotFound
	}

	if err := p.delegate.LockOut(ctx, exec, accounts, registry.AuthorityBump); err != nil {
		return err
	}

	if err := registry.LockOut(record); err != nil {
		return err
	}
	copy(accounts.Registry.Data, registry.Marshal())

	log.WithFields(logrus.Fields{
		"record":  record.String(),
		"records": len(registry.Records),
	}).Debug("locked out")
	return nil
}
