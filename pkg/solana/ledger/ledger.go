// Package ledger is an in-memory host for natively executed programs. It
// stores accounts, verifies and executes signed transactions, and supports
// cross-program invocation with program derived signers.
package ledger

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-bridge/pkg/rate"
	"github.com/code-payments/custody-bridge/pkg/solana"
	xsync "github.com/code-payments/custody-bridge/pkg/sync"
)

const (
	DefaultMaxCallDepth = 4
	DefaultLockStripes  = 64
)

type Option func(*Ledger)

// WithMaxCallDepth bounds how deep cross-program invocations may nest. The
// top level instruction is depth 1.
func WithMaxCallDepth(depth int) Option {
	return func(l *Ledger) {
		l.maxCallDepth = depth
	}
}

func WithLockStripes(stripes uint) Option {
	return func(l *Ledger) {
		l.locks = xsync.NewStripedLock(stripes)
	}
}

// WithSubmitLimiter limits how often each fee payer may submit transactions.
func WithSubmitLimiter(limiter rate.Limiter) Option {
	return func(l *Ledger) {
		l.submitLimiter = limiter
	}
}

type account struct {
	owner ed25519.PublicKey
	data  []byte
}

func (a *account) clone() *account {
	return &account{
		owner: append(ed25519.PublicKey{}, a.owner...),
		data:  append([]byte{}, a.data...),
	}
}

// Ledger executes transactions against in-memory account state.
//
// Transactions touching the same accounts are serialized through a striped
// lock keyed by account address. Each transaction runs against cloned
// account state, which is only committed once every instruction succeeds.
type Ledger struct {
	log *logrus.Entry

	maxCallDepth  int
	locks         *xsync.StripedLock
	submitLimiter rate.Limiter

	programsMu sync.RWMutex
	programs   map[string]solana.Program

	accountsMu sync.RWMutex
	accounts   map[string]*account

	processedMu sync.Mutex
	processed   map[solana.Signature]struct{}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		log:           logrus.StandardLogger().WithField("type", "solana/ledger"),
		maxCallDepth:  DefaultMaxCallDepth,
		locks:         xsync.NewStripedLock(DefaultLockStripes),
		submitLimiter: &rate.NoLimiter{},
		programs:      make(map[string]solana.Program),
		accounts:      make(map[string]*account),
		processed:     make(map[solana.Signature]struct{}),
	}

	for _, o := range opts {
		o(l)
	}

	return l
}

// RegisterProgram makes program callable under id.
func (l *Ledger) RegisterProgram(id ed25519.PublicKey, program solana.Program) error {
	l.programsMu.Lock()
	defer l.programsMu.Unlock()

	key := string(id)
	if _, ok := l.programs[key]; ok {
		return ErrProgramAlreadyRegistered
	}

	l.programs[key] = program
	return nil
}

func (l *Ledger) getProgram(id ed25519.PublicKey) (solana.Program, bool) {
	l.programsMu.RLock()
	defer l.programsMu.RUnlock()

	program, ok := l.programs[string(id)]
	return program, ok
}

// SetAccount creates or replaces an account outside of any transaction. It is
// how genesis state, such as program owned accounts, is provisioned.
func (l *Ledger) SetAccount(ctx context.Context, address, owner ed25519.PublicKey, data []byte) error {
	if len(address) != ed25519.PublicKeySize || len(owner) != ed25519.PublicKeySize {
		return errors.Wrap(ErrInvalidAccountData, "invalid key size")
	}

	release := l.locks.Acquire([][]byte{address}, nil)
	defer release()

	l.accountsMu.Lock()
	defer l.accountsMu.Unlock()

	l.accounts[string(address)] = (&account{
		owner: owner,
		data:  data,
	}).clone()

	return nil
}

// GetAccountInfo returns a copy of the account at address.
func (l *Ledger) GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error) {
	release := l.locks.Acquire(nil, [][]byte{address})
	defer release()

	l.accountsMu.RLock()
	defer l.accountsMu.RUnlock()

	stored, ok := l.accounts[string(address)]
	if !ok {
		return nil, ErrAccountNotFound
	}

	copied := stored.clone()
	return &solana.AccountInfo{
		PublicKey: append(ed25519.PublicKey{}, address...),
		Owner:     copied.owner,
		Data:      copied.data,
	}, nil
}

// Submit verifies and executes a transaction. Either every instruction
// succeeds and all account changes are committed, or nothing is.
//
// Instruction failures are returned as a *solana.TransactionError wrapping a
// solana.InstructionError, so program errors can be matched with errors.Is.
func (l *Ledger) Submit(ctx context.Context, txn *solana.Transaction) error {
	if len(txn.Signatures) == 0 {
		return errors.Wrap(solana.ErrMissingSignature, "transaction has no signers")
	}
	if err := txn.VerifySignatures(); err != nil {
		return errors.Wrap(err, "signature verification failed")
	}

	log := l.log.WithField("signature", base58.Encode(txn.Signature()))

	allowed, err := l.submitLimiter.Allow(base58.Encode(txn.Message.Accounts[0]))
	if err != nil {
		return errors.Wrap(err, "error checking submit rate limit")
	}
	if !allowed {
		log.Debug("fee payer rate limited")
		return ErrRateLimited
	}

	instructions := make([]solana.Instruction, len(txn.Message.Instructions))
	for i := range txn.Message.Instructions {
		ix, err := txn.Message.Decompile(i)
		if err != nil {
			log.WithError(err).Debug("invalid account index")
			return solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
		}
		if _, ok := l.getProgram(ix.Program); !ok {
			return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
		}
		instructions[i] = ix
	}

	var exclusive, shared [][]byte
	for i, key := range txn.Message.Accounts {
		if txn.Message.IsWritable(i) {
			exclusive = append(exclusive, key)
		} else {
			shared = append(shared, key)
		}
	}

	release := l.locks.Acquire(exclusive, shared)
	defer release()

	if !l.markProcessed(txn.Signatures[0]) {
		return solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	working := l.load(txn.Message.Accounts)

	for i, ix := range instructions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := l.execute(ctx, working, ix, 1); err != nil {
			ixErr := &solana.InstructionError{Index: i, Err: err}
			log.WithError(ixErr).Debug("transaction failed")

			txErr, err := solana.TransactionErrorFromInstructionError(ixErr)
			if err != nil {
				return *ixErr
			}
			return txErr
		}
	}

	l.commit(working, exclusive)

	log.Debug("transaction committed")
	return nil
}

func (l *Ledger) markProcessed(sig solana.Signature) bool {
	l.processedMu.Lock()
	defer l.processedMu.Unlock()

	if _, ok := l.processed[sig]; ok {
		return false
	}
	l.processed[sig] = struct{}{}
	return true
}

// load clones the accounts a transaction references. Accounts that do not
// exist are loaded empty and are never committed.
func (l *Ledger) load(keys []ed25519.PublicKey) map[string]*account {
	l.accountsMu.RLock()
	defer l.accountsMu.RUnlock()

	working := make(map[string]*account, len(keys))
	for _, key := range keys {
		if stored, ok := l.accounts[string(key)]; ok {
			working[string(key)] = stored.clone()
		} else {
			working[string(key)] = &account{
				owner: make(ed25519.PublicKey, ed25519.PublicKeySize),
			}
		}
	}
	return working
}

func (l *Ledger) commit(working map[string]*account, writable [][]byte) {
	l.accountsMu.Lock()
	defer l.accountsMu.Unlock()

	for _, key := range writable {
		if _, ok := l.accounts[string(key)]; !ok {
			continue
		}
		l.accounts[string(key)] = working[string(key)]
	}
}
