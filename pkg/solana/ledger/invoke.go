package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-bridge/pkg/solana"
)

// frame is one program executing at some call depth. Account data is shared
// with the working set and with every other frame in the call chain, so
// changes made by a callee are immediately visible to its caller.
type frame struct {
	ledger  *Ledger
	working map[string]*account

	program  ed25519.PublicKey
	accounts []*solana.AccountInfo
	depth    int

	// Account data as of the last point this frame's changes were verified.
	snapshot map[string][]byte
}

// execute runs a top level instruction against the working set.
func (l *Ledger) execute(ctx context.Context, working map[string]*account, ix solana.Instruction, depth int) error {
	accounts := make([]*solana.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		acc, ok := working[string(meta.PublicKey)]
		if !ok {
			return solana.InstructionErrorMissingAccount
		}

		accounts[i] = &solana.AccountInfo{
			PublicKey:  meta.PublicKey,
			Owner:      append(ed25519.PublicKey{}, acc.owner...),
			Data:       acc.data,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	return l.run(ctx, working, ix, accounts, depth)
}

func (l *Ledger) run(ctx context.Context, working map[string]*account, ix solana.Instruction, accounts []*solana.AccountInfo, depth int) error {
	if depth > l.maxCallDepth {
		return solana.InstructionErrorCallDepth
	}

	program, ok := l.getProgram(ix.Program)
	if !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	f := &frame{
		ledger:   l,
		working:  working,
		program:  ix.Program,
		accounts: accounts,
		depth:    depth,
	}
	f.snapshot = f.takeSnapshot()

	err := program.Execute(ctx, &solana.ExecutionContext{
		ProgramID: ix.Program,
		Accounts:  accounts,
		Data:      ix.Data,
		Invoker:   f,
	})
	if err != nil {
		return err
	}

	return f.verify()
}

// Invoke implements solana.Invoker.
//
// A callee may only be granted privileges the caller holds. The single
// exception is signing: an account that did not sign the transaction can
// still sign the invocation if it is a program address derived from the
// calling program and one of signerSeeds.
func (f *frame) Invoke(ctx context.Context, ix solana.Instruction, signerSeeds ...[][]byte) error {
	if f.depth+1 > f.ledger.maxCallDepth {
		return solana.InstructionErrorCallDepth
	}

	// Changes the caller made so far must be legal before the callee can
	// observe them.
	if err := f.verify(); err != nil {
		return err
	}

	var pdaSigners []ed25519.PublicKey
	for _, seeds := range signerSeeds {
		signer, err := solana.CreateProgramAddress(f.program, seeds...)
		if err != nil {
			return errors.Wrap(solana.InstructionErrorInvalidSeeds, err.Error())
		}
		pdaSigners = append(pdaSigners, signer)
	}

	accounts := make([]*solana.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		caller := f.find(meta.PublicKey)
		if caller == nil {
			return solana.InstructionErrorMissingAccount
		}

		if meta.IsWritable && !caller.IsWritable {
			return errors.Wrapf(solana.InstructionErrorPrivilegeEscalation, "writable: %x", []byte(meta.PublicKey))
		}
		if meta.IsSigner && !caller.IsSigner && !containsKey(pdaSigners, meta.PublicKey) {
			return errors.Wrapf(solana.InstructionErrorPrivilegeEscalation, "signer: %x", []byte(meta.PublicKey))
		}

		accounts[i] = &solana.AccountInfo{
			PublicKey:  caller.PublicKey,
			Owner:      append(ed25519.PublicKey{}, caller.Owner...),
			Data:       caller.Data,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	if err := f.ledger.run(ctx, f.working, ix, accounts, f.depth+1); err != nil {
		return err
	}

	f.snapshot = f.takeSnapshot()
	return nil
}

func (f *frame) find(key ed25519.PublicKey) *solana.AccountInfo {
	var found *solana.AccountInfo
	for _, info := range f.accounts {
		if !bytes.Equal(info.PublicKey, key) {
			continue
		}

		// Duplicate references share data. Privileges are the union.
		if found == nil {
			found = &solana.AccountInfo{
				PublicKey: info.PublicKey,
				Owner:     info.Owner,
				Data:      info.Data,
			}
		}
		found.IsSigner = found.IsSigner || info.IsSigner
		found.IsWritable = found.IsWritable || info.IsWritable
	}
	return found
}

func (f *frame) takeSnapshot() map[string][]byte {
	snapshot := make(map[string][]byte, len(f.accounts))
	for _, info := range f.accounts {
		key := string(info.PublicKey)
		if _, ok := snapshot[key]; ok {
			continue
		}
		snapshot[key] = append([]byte{}, info.Data...)
	}
	return snapshot
}

// verify checks every account the frame changed since its last snapshot. Only
// writable accounts owned by the executing program may change, and never in
// size.
func (f *frame) verify() error {
	for key, before := range f.snapshot {
		info := f.find(ed25519.PublicKey(key))
		if bytes.Equal(before, info.Data) {
			continue
		}

		if len(before) != len(info.Data) {
			return solana.InstructionErrorAccountDataSizeChanged
		}
		if !info.IsWritable {
			return solana.InstructionErrorReadonlyDataModified
		}
		if !bytes.Equal(f.working[key].owner, f.program) {
			return solana.InstructionErrorExternalAccountDataModified
		}
	}
	return nil
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
